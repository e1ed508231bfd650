// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seqrnn

import (
	"testing"

	"github.com/dayyass/neural-machine-translation/gru"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardLogitsShape(t *testing.T) {
	m := newTestModel(t)

	src := []int{4, 5, 6, 3, 3, 3}
	tgtIn := []int{1, 7, 8, 9}

	logits, err := m.Forward(Inference, src, tgtIn)
	require.NoError(t, err)
	require.Len(t, logits, len(tgtIn))
	for _, step := range logits {
		assert.Equal(t, m.Config.TgtVocabSize, step.Value().Size())
	}
}

func TestForwardBatchLogitsShape(t *testing.T) {
	m := newTestModel(t)

	src := [][]int{{4, 5, 6, 3, 3, 3}}
	tgtIn := [][]int{{1, 7, 8, 9}}

	logits, err := m.ForwardBatch(Inference, src, tgtIn)
	require.NoError(t, err)
	require.Len(t, logits, 1)
	require.Len(t, logits[0], 4)
	for _, step := range logits[0] {
		assert.Equal(t, 10, step.Value().Size())
	}
}

func TestForwardBatchRowMismatch(t *testing.T) {
	m := newTestModel(t)

	_, err := m.ForwardBatch(Inference, [][]int{{4, 5}}, [][]int{{1, 7}, {1, 8}})
	assert.Error(t, err)
}

func TestDecodeContextLayerMismatch(t *testing.T) {
	m := newTestModel(t)

	badContext := make(gru.State, m.Config.NumLayers+1)
	copy(badContext, gru.NewState(m.Decoder.RNN.Config))
	badContext[m.Config.NumLayers] = badContext[0]

	_, err := m.Decoder.Decode(Inference, []int{1, 7}, badContext)
	assert.Error(t, err)

	_, _, err = m.Decoder.DecodeStep(Inference, 1, badContext)
	assert.Error(t, err)
}

func TestDecodeStepIsDeterministicInInference(t *testing.T) {
	m := newTestModel(t)

	context, err := m.Encoder.Encode(Inference, []int{4, 5, 6})
	require.NoError(t, err)

	first, _, err := m.Decoder.DecodeStep(Inference, 1, context)
	require.NoError(t, err)
	second, _, err := m.Decoder.DecodeStep(Inference, 1, context)
	require.NoError(t, err)

	assert.Equal(t, first.Value().Data().F64(), second.Value().Data().F64())
}

func TestDecodeStepMatchesDecode(t *testing.T) {
	m := newTestModel(t)

	context, err := m.Encoder.Encode(Inference, []int{4, 5, 6})
	require.NoError(t, err)

	seq, err := m.Decoder.Decode(Inference, []int{1, 7}, context)
	require.NoError(t, err)

	step1, state, err := m.Decoder.DecodeStep(Inference, 1, context)
	require.NoError(t, err)
	step2, _, err := m.Decoder.DecodeStep(Inference, 7, state)
	require.NoError(t, err)

	require.Len(t, seq, 2)
	assert.Equal(t, seq[0].Value().Data().F64(), step1.Value().Data().F64())
	assert.Equal(t, seq[1].Value().Data().F64(), step2.Value().Data().F64())
}
