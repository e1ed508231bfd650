// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nmt

import (
	"fmt"

	"github.com/dayyass/neural-machine-translation/seq2seqrnn"
	"github.com/dayyass/neural-machine-translation/tokenizer"
)

// NMT is the core struct of the library: a trained sequence-to-sequence model
// together with the tokenizers of both languages.
type NMT struct {
	Model           *seq2seqrnn.Model
	SourceTokenizer tokenizer.Tokenizer
	TargetTokenizer tokenizer.Tokenizer
}

// New wraps an already constructed model and its tokenizers.
func New(model *seq2seqrnn.Model, sourceTok, targetTok tokenizer.Tokenizer) (*NMT, error) {
	if targetTok.PadID() != model.Config.PadID {
		return nil, fmt.Errorf("nmt: target tokenizer pad id %d does not match model pad id %d", targetTok.PadID(), model.Config.PadID)
	}
	return &NMT{
		Model:           model,
		SourceTokenizer: sourceTok,
		TargetTokenizer: targetTok,
	}, nil
}
