// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nmt

import (
	"math"
	"testing"

	"github.com/nlpodyssey/spago/mat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoresOf(values ...float64) mat.Matrix {
	return mat.NewDense[float64](mat.WithBacking(values))
}

func TestOutputDiversityControlValidation(t *testing.T) {
	_, err := OutputDiversityControl(-0.1, 0, 1)
	assert.Error(t, err)

	_, err = OutputDiversityControl(1, -1, 1)
	assert.Error(t, err)

	_, err = OutputDiversityControl(1, 0, 1.5)
	assert.Error(t, err)

	_, err = OutputDiversityControl(1, 0, 1)
	assert.NoError(t, err)
}

func TestOutputDiversityControlIdentity(t *testing.T) {
	control, err := OutputDiversityControl(1, 0, 1)
	require.NoError(t, err)

	out, err := control(scoresOf(0.1, 0.4, 0.3))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.4, 0.3}, out.Data().F64())
}

func TestTemperatureFunc(t *testing.T) {
	out, err := TemperatureFunc(0.5)(scoresOf(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, out.Data().F64())
}

func TestTopKFunc(t *testing.T) {
	out, err := TopKFunc(2, math.Inf(-1))(scoresOf(0.1, 0.4, 0.3, 0.2))
	require.NoError(t, err)

	data := out.Data().F64()
	assert.True(t, math.IsInf(data[0], -1))
	assert.Equal(t, 0.4, data[1])
	assert.Equal(t, 0.3, data[2])
	assert.True(t, math.IsInf(data[3], -1))
}

func TestTopKFuncLargerThanSize(t *testing.T) {
	out, err := TopKFunc(10, math.Inf(-1))(scoresOf(0.1, 0.4))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.4}, out.Data().F64())
}

func TestTopPFunc(t *testing.T) {
	out, err := TopPFunc(0.5, math.Inf(-1), 1)(scoresOf(9, 10, 1, 0))
	require.NoError(t, err)

	data := out.Data().F64()
	assert.True(t, math.IsInf(data[0], -1))
	assert.Equal(t, 10.0, data[1])
	assert.True(t, math.IsInf(data[2], -1))
	assert.True(t, math.IsInf(data[3], -1))
}
