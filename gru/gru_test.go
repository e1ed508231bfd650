// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gru

import (
	"testing"

	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/rand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, numLayers int) *Model {
	t.Helper()
	m := New[float32](Config{
		InputSize:  4,
		HiddenSize: 6,
		NumLayers:  numLayers,
	})
	m.InitRandom(rand.NewLockedRand(42))
	return m
}

func testInput(values ...float32) mat.Tensor {
	return mat.NewDense[float32](mat.WithBacking(values))
}

func TestForwardSequenceShapes(t *testing.T) {
	m := newTestModel(t, 2)

	xs := []mat.Tensor{
		testInput(0.1, 0.2, 0.3, 0.4),
		testInput(0.5, 0.6, 0.7, 0.8),
		testInput(0.9, 1.0, 1.1, 1.2),
	}
	ys, next := m.ForwardSequence(xs, NewState(m.Config), false)

	require.Len(t, ys, 3)
	for _, y := range ys {
		assert.Equal(t, 6, y.Value().Size())
	}
	require.Len(t, next, 2)
	for _, h := range next {
		assert.Equal(t, 6, h.Value().Size())
	}
}

func TestForwardSequenceEmptyInput(t *testing.T) {
	m := newTestModel(t, 2)

	initial := NewState(m.Config)
	ys, next := m.ForwardSequence(nil, initial, false)

	assert.Empty(t, ys)
	require.Len(t, next, 2)
	for i, h := range next {
		assert.Equal(t, initial[i].Value().Data().F64(), h.Value().Data().F64())
	}
}

func TestForwardSequenceNilStateUsesInitialState(t *testing.T) {
	m := newTestModel(t, 1)

	x := testInput(0.1, 0.2, 0.3, 0.4)
	ys1, _ := m.ForwardSequence([]mat.Tensor{x}, nil, false)
	ys2, _ := m.ForwardSequence([]mat.Tensor{x}, NewState(m.Config), false)

	assert.Equal(t, ys2[0].Value().Data().F64(), ys1[0].Value().Data().F64())
}

func TestForwardSequenceDoesNotMutateState(t *testing.T) {
	m := newTestModel(t, 2)

	state := NewState(m.Config)
	before := make([][]float64, len(state))
	for i, h := range state {
		before[i] = h.Value().Data().F64()
	}

	xs := []mat.Tensor{testInput(0.1, 0.2, 0.3, 0.4)}
	_, _ = m.ForwardSequence(xs, state, false)

	for i, h := range state {
		assert.Equal(t, before[i], h.Value().Data().F64())
	}
}

func TestForwardSingleMatchesSequence(t *testing.T) {
	m := newTestModel(t, 2)

	x := testInput(0.1, 0.2, 0.3, 0.4)
	ySingle, nextSingle := m.ForwardSingle(x, NewState(m.Config), false)
	ySeq, nextSeq := m.ForwardSequence([]mat.Tensor{x}, NewState(m.Config), false)

	require.Len(t, ySeq, 1)
	assert.Equal(t, ySeq[0].Value().Data().F64(), ySingle.Value().Data().F64())
	require.Len(t, nextSeq, len(nextSingle))
	for i := range nextSeq {
		assert.Equal(t, nextSeq[i].Value().Data().F64(), nextSingle[i].Value().Data().F64())
	}
}

func TestForwardSequenceIsDeterministic(t *testing.T) {
	m1 := newTestModel(t, 2)
	m2 := newTestModel(t, 2)

	xs := []mat.Tensor{
		testInput(0.1, 0.2, 0.3, 0.4),
		testInput(0.5, 0.6, 0.7, 0.8),
	}
	ys1, _ := m1.ForwardSequence(xs, NewState(m1.Config), false)
	ys2, _ := m2.ForwardSequence(xs, NewState(m2.Config), false)

	require.Len(t, ys2, len(ys1))
	for step := range ys1 {
		assert.Equal(t, ys1[step].Value().Data().F64(), ys2[step].Value().Data().F64())
	}
}
