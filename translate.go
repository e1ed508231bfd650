// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nmt

import (
	"context"
	"fmt"

	"github.com/dayyass/neural-machine-translation/seq2seqrnn"
	"github.com/nlpodyssey/spago/mat"
	"github.com/rs/zerolog/log"
)

// TranslateOptions controls the token-by-token generation of the translation.
type TranslateOptions struct {
	// MaxLen is the maximum number of generated tokens.
	MaxLen int
	// Temp flattens (1) or sharpens (towards 0) the next-token distribution.
	Temp float64
	// TopK keeps only the k highest-scored candidates (0 disables the filter).
	TopK int
	// TopP keeps the smallest candidate set whose cumulative probability
	// exceeds p (1 disables the filter).
	TopP float64
	// UseSampling draws the next token from the filtered distribution instead
	// of taking the argmax.
	UseSampling bool
}

// DefaultTranslateOptions returns the options for plain greedy decoding.
func DefaultTranslateOptions() TranslateOptions {
	return TranslateOptions{
		MaxLen:      128,
		Temp:        1,
		TopK:        0,
		TopP:        1,
		UseSampling: false,
	}
}

// Translate generates the translation of the given text. Generation runs one
// token at a time, starting from the begin marker, and stops at the end marker
// or after opts.MaxLen tokens.
func (n *NMT) Translate(ctx context.Context, text string, opts TranslateOptions) (string, error) {
	diversity, err := OutputDiversityControl(opts.Temp, opts.TopK, opts.TopP)
	if err != nil {
		return "", err
	}
	selection := OutputSelection(opts.UseSampling)

	src, err := n.SourceTokenizer.Encode(text, false, false)
	if err != nil {
		return "", fmt.Errorf("nmt: tokenizing %q: %w", text, err)
	}
	log.Debug().Ints("ids", src).Msg("source token ids")

	state, err := n.Model.Encoder.Encode(seq2seqrnn.Inference, src)
	if err != nil {
		return "", err
	}

	generated := make([]int, 0, opts.MaxLen)
	id := n.TargetTokenizer.BeginID()
	for i := 0; i < opts.MaxLen; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		logits, next, err := n.Model.Decoder.DecodeStep(seq2seqrnn.Inference, id, state)
		if err != nil {
			return "", err
		}

		scores, err := diversity(logits.Value().(mat.Matrix))
		if err != nil {
			return "", err
		}
		id, _, err = selection(scores)
		if err != nil {
			return "", err
		}
		if id == n.TargetTokenizer.EndID() {
			break
		}
		generated = append(generated, id)
		state = next
	}

	return n.TargetTokenizer.Decode(generated)
}
