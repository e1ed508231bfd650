// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seqrnn

import (
	"fmt"

	"github.com/nlpodyssey/spago/initializers"
	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/float"
	"github.com/nlpodyssey/spago/mat/rand"
	"github.com/nlpodyssey/spago/nn"
)

var _ nn.Model = &Model{}

// Model composes the Encoder and the Decoder into a single forward contract.
// It retains no state between calls.
type Model struct {
	nn.Module
	Encoder *Encoder
	Decoder *Decoder
	Config  Config
}

// New returns a new sequence-to-sequence model.
func New[T float.DType](c Config) *Model {
	return &Model{
		Encoder: NewEncoder[T](c),
		Decoder: NewDecoder[T](c),
		Config:  c,
	}
}

// InitRandom initializes the recurrent weights and the output projection with
// the Xavier-uniform scheme and returns the model. Embedding tables start at
// zero and differentiate through training.
func (m *Model) InitRandom(rng *rand.LockedRand) *Model {
	m.Encoder.RNN.InitRandom(rng)
	m.Decoder.RNN.InitRandom(rng)
	initializers.XavierUniform(m.Decoder.OutW, 1.0, rng)
	return m
}

// Forward encodes the source sequence and decodes the teacher-forcing input
// against the resulting context. The logits align one-to-one with the
// target-output sequence (the target shifted left by one position).
func (m *Model) Forward(mode Mode, src, tgtIn []int) ([]mat.Tensor, error) {
	context, err := m.Encoder.Encode(mode, src)
	if err != nil {
		return nil, err
	}
	return m.Decoder.Decode(mode, tgtIn, context)
}

// ForwardBatch applies Forward to each aligned row of the two batches.
func (m *Model) ForwardBatch(mode Mode, src, tgtIn [][]int) ([][]mat.Tensor, error) {
	if len(src) != len(tgtIn) {
		return nil, fmt.Errorf("seq2seqrnn: source batch has %d rows, target input has %d", len(src), len(tgtIn))
	}
	out := make([][]mat.Tensor, len(src))
	for i := range src {
		logits, err := m.Forward(mode, src[i], tgtIn[i])
		if err != nil {
			return nil, fmt.Errorf("seq2seqrnn: row %d: %w", i, err)
		}
		out[i] = logits
	}
	return out, nil
}
