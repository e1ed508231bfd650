// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gru

import (
	"github.com/nlpodyssey/spago/ag"
	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/float"
	"github.com/nlpodyssey/spago/mat/rand"
	"github.com/nlpodyssey/spago/nn"
)

// Model implements a multi-layer unidirectional GRU network.
type Model struct {
	nn.Module
	Layers []*Layer
	Config Config
}

// Config is the configuration of the GRU model.
type Config struct {
	InputSize  int
	HiddenSize int
	NumLayers  int
	// Dropout is the probability of zeroing each activation between two
	// stacked layers. It applies to training mode only and, as with a
	// single layer there is no layer boundary, only when NumLayers > 1.
	Dropout float64
}

// New returns a new GRU model.
func New[T float.DType](c Config) *Model {
	m := &Model{Config: c}
	for i := 0; i < c.NumLayers; i++ {
		inputSize := c.InputSize
		if i > 0 {
			inputSize = c.HiddenSize
		}
		m.Layers = append(m.Layers, NewLayer[T](inputSize, c.HiddenSize))
	}
	return m
}

// InitRandom initializes the weight matrices of every layer with the
// Xavier-uniform scheme. Biases stay zero.
func (m *Model) InitRandom(rng *rand.LockedRand) {
	for _, layer := range m.Layers {
		layer.InitRandom(rng)
	}
}

// ForwardSingle performs the forward step for a single element of the sequence.
// It returns the top-layer output and the resulting state; the given state is
// left untouched.
func (m *Model) ForwardSingle(x mat.Tensor, state State, training bool) (mat.Tensor, State) {
	ys, next := m.ForwardSequence([]mat.Tensor{x}, state, training)
	return ys[0], next
}

// ForwardSequence performs the forward step for the entire sequence.
// It returns the output of the top layer at each step, together with the
// final hidden state of every layer. The given state is never modified, so
// the caller keeps ownership of it. An empty input yields no outputs and
// returns the initial state as-is.
func (m *Model) ForwardSequence(xs []mat.Tensor, state State, training bool) ([]mat.Tensor, State) {
	if len(state) == 0 {
		state = NewState(m.Config)
	}
	next := make(State, len(m.Layers))
	seq := xs
	for i, layer := range m.Layers {
		h := state[i]
		ys := make([]mat.Tensor, len(seq))
		for t, x := range seq {
			h = layer.Forward(x, h)
			ys[t] = h
		}
		next[i] = h
		if training && m.Config.Dropout > 0 && i < len(m.Layers)-1 {
			for t, y := range ys {
				ys[t] = ag.Dropout(y, m.Config.Dropout)
			}
		}
		seq = ys
	}
	return seq, next
}
