// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seqrnn

import (
	"fmt"

	"github.com/dayyass/neural-machine-translation/gru"
	"github.com/nlpodyssey/spago/mat/float"
	"github.com/nlpodyssey/spago/nn"
)

var _ nn.Model = &Encoder{}

// Encoder embeds a source sequence and summarizes it into one fixed-size
// context vector per recurrent layer.
type Encoder struct {
	nn.Module
	Embeddings *Embeddings
	RNN        *gru.Model
	Config     Config
}

// NewEncoder returns a new encoder.
func NewEncoder[T float.DType](c Config) *Encoder {
	return &Encoder{
		Embeddings: NewEmbeddings[T](c.SrcVocabSize, c.EmbeddingDim, c.PadID),
		RNN:        gru.New[T](c.rnnConfig()),
		Config:     c,
	}
}

// InferLength returns the index of the first pad id, or the full length when
// no pad id is present.
func InferLength(ids []int, padID int) int {
	for i, id := range ids {
		if id == padID {
			return i
		}
	}
	return len(ids)
}

// Encode runs the source sequence through the recurrent network, restricting
// the computation to the true (unpadded) length, and returns the final hidden
// state of each layer. A sequence made entirely of padding has true length
// zero and yields the initial (zero) state.
// The returned state is owned by the caller; the encoder retains nothing.
func (e *Encoder) Encode(mode Mode, src []int) (gru.State, error) {
	length := InferLength(src, e.Config.PadID)
	xs, err := e.Embeddings.Encode(src[:length])
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}
	_, context := e.RNN.ForwardSequence(xs, gru.NewState(e.RNN.Config), mode == Training)
	return context, nil
}

// EncodeBatch encodes each row of the batch independently, so reordering the
// input rows reorders the outputs identically.
func (e *Encoder) EncodeBatch(mode Mode, src [][]int) ([]gru.State, error) {
	contexts := make([]gru.State, len(src))
	for i, row := range src {
		context, err := e.Encode(mode, row)
		if err != nil {
			return nil, fmt.Errorf("encoder: row %d: %w", i, err)
		}
		contexts[i] = context
	}
	return contexts, nil
}
