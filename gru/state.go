// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gru

import (
	"github.com/nlpodyssey/spago/mat"
)

// State holds the hidden state of each layer, bottom to top.
type State []mat.Tensor

// NewState returns a zero initial state.
func NewState(c Config) State {
	state := make(State, c.NumLayers)
	for i := range state {
		state[i] = mat.NewDense[float32](mat.WithShape(c.HiddenSize))
	}
	return state
}
