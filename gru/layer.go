// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gru

import (
	"github.com/nlpodyssey/spago/ag"
	"github.com/nlpodyssey/spago/initializers"
	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/float"
	"github.com/nlpodyssey/spago/mat/rand"
	"github.com/nlpodyssey/spago/nn"
)

var _ nn.Model = &Layer{}

// Layer is a single GRU cell with reset, update and candidate gates.
type Layer struct {
	nn.Module
	WRes  *nn.Param
	URes  *nn.Param
	BRes  *nn.Param
	WUpd  *nn.Param
	UUpd  *nn.Param
	BUpd  *nn.Param
	WCand *nn.Param
	UCand *nn.Param
	BCand *nn.Param
	// BCandRec is added to the recurrent part of the candidate before the
	// reset gate scales it, so it cannot be folded into BCand.
	BCandRec *nn.Param
}

// NewLayer returns a new GRU cell mapping inputs of size in to hidden
// states of size out.
func NewLayer[T float.DType](in, out int) *Layer {
	return &Layer{
		WRes:     nn.NewParam(mat.NewDense[T](mat.WithShape(out, in))),
		URes:     nn.NewParam(mat.NewDense[T](mat.WithShape(out, out))),
		BRes:     nn.NewParam(mat.NewDense[T](mat.WithShape(out))),
		WUpd:     nn.NewParam(mat.NewDense[T](mat.WithShape(out, in))),
		UUpd:     nn.NewParam(mat.NewDense[T](mat.WithShape(out, out))),
		BUpd:     nn.NewParam(mat.NewDense[T](mat.WithShape(out))),
		WCand:    nn.NewParam(mat.NewDense[T](mat.WithShape(out, in))),
		UCand:    nn.NewParam(mat.NewDense[T](mat.WithShape(out, out))),
		BCand:    nn.NewParam(mat.NewDense[T](mat.WithShape(out))),
		BCandRec: nn.NewParam(mat.NewDense[T](mat.WithShape(out))),
	}
}

// InitRandom initializes the weight matrices with the Xavier-uniform scheme.
func (m *Layer) InitRandom(rng *rand.LockedRand) {
	weights := []*nn.Param{m.WRes, m.URes, m.WUpd, m.UUpd, m.WCand, m.UCand}
	for _, w := range weights {
		initializers.XavierUniform(w, 1.0, rng)
	}
}

// Forward performs a single step:
//
//	r = sigmoid(WRes x + URes h + BRes)
//	z = sigmoid(WUpd x + UUpd h + BUpd)
//	n = tanh(WCand x + BCand + r * (UCand h + BCandRec))
//	h' = (1 - z) * n + z * h
func (m *Layer) Forward(x, h mat.Tensor) mat.Tensor {
	r := ag.Sigmoid(ag.Add(ag.Add(ag.Mul(m.WRes, x), ag.Mul(m.URes, h)), m.BRes))
	z := ag.Sigmoid(ag.Add(ag.Add(ag.Mul(m.WUpd, x), ag.Mul(m.UUpd, h)), m.BUpd))
	n := ag.Tanh(ag.Add(
		ag.Add(ag.Mul(m.WCand, x), m.BCand),
		ag.Prod(r, ag.Add(ag.Mul(m.UCand, h), m.BCandRec)),
	))
	return ag.Add(ag.Prod(ag.ReverseSubOne(z), n), ag.Prod(z, h))
}
