// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nmt

import (
	"fmt"
	"math"
	"sort"

	"github.com/nlpodyssey/spago/mat"
)

// OutputDiversityControlFunc performs the pre-processing steps that are used to narrow down the set of candidate items
// before using greedy decoding or multinomial sampling to generate the final output.
type OutputDiversityControlFunc func(logits mat.Matrix) (mat.Matrix, error)

// OutputDiversityControl returns a function used to select the next token.
func OutputDiversityControl(temp float64, topK int, topP float64) (OutputDiversityControlFunc, error) {
	if temp < 0 || temp > 1 {
		return nil, fmt.Errorf("invalid temperature value: %f. Must be between 0 and 1", temp)
	}
	if topK < 0 {
		return nil, fmt.Errorf("invalid topK value: %d. Must be >= 0", topK)
	}
	if topP < 0 || topP > 1 {
		return nil, fmt.Errorf("invalid topP value: %f. Must be between 0 and 1", topP)
	}

	result := make([]OutputDiversityControlFunc, 0, 3)
	if temp != 1 {
		result = append(result, TemperatureFunc(temp))
	}
	if topK != 0 {
		result = append(result, TopKFunc(topK, math.Inf(-1)))
	}
	if topP != 1 {
		result = append(result, TopPFunc(topP, math.Inf(-1), 1))
	}

	return func(logits mat.Matrix) (mat.Matrix, error) {
		var err error
		for _, p := range result {
			logits, err = p(logits)
			if err != nil {
				return nil, err
			}
		}
		return logits, err
	}, nil
}

// TemperatureFunc applies a temperature to a matrix of scores.
func TemperatureFunc(temperature float64) OutputDiversityControlFunc {
	if temperature == 1 {
		return func(scores mat.Matrix) (mat.Matrix, error) {
			return scores, nil
		}
	}
	if temperature == 0 {
		temperature = 0.01 // avoid division by zero
	}
	invTemperature := 1 / temperature
	return func(scores mat.Matrix) (mat.Matrix, error) {
		return scores.ProdScalar(invTemperature), nil
	}
}

// TopKFunc applies a top-k filter to a matrix of scores.
func TopKFunc(topK int, filterValue float64) OutputDiversityControlFunc {
	return func(scores mat.Matrix) (mat.Matrix, error) {
		topK := topK
		if size := scores.Size(); size <= topK {
			topK = size
		}

		sorted := append([]float64(nil), scores.Data().F64()...)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		minScore := sorted[topK-1]

		return scores.Apply(func(_, _ int, v float64) float64 {
			if v < minScore {
				return filterValue
			}
			return v
		}), nil
	}
}

// TopPFunc applies a top-p (nucleus) filter to a matrix of scores.
// minSize is the number of top candidates that are always kept.
func TopPFunc(topP, filterValue float64, minSize int) OutputDiversityControlFunc {
	return func(scores mat.Matrix) (mat.Matrix, error) {
		data := scores.Data().F64()

		indices := make([]int, len(data))
		for i := range indices {
			indices[i] = i
		}
		sort.SliceStable(indices, func(a, b int) bool {
			return data[indices[a]] > data[indices[b]]
		})

		sortedData := make([]float64, len(data))
		for i, index := range indices {
			sortedData[i] = data[index]
		}

		cumulativeProbs := mat.NewDense[float64](mat.WithBacking(sortedData)).Softmax().CumSum().Data().F64()

		indicesToRemove := make([]bool, len(cumulativeProbs))
		for i, cp := range cumulativeProbs {
			indicesToRemove[i] = cp > topP
		}

		if minSize > 1 {
			for i := minSize - 1; i >= 0 && i < len(indicesToRemove); i-- {
				indicesToRemove[i] = false
			}
		}

		// Shift the indices to the right to keep also the first token above the threshold
		copy(indicesToRemove[1:], indicesToRemove[:len(indicesToRemove)-1])
		indicesToRemove[0] = false

		// Scatter the sorted mask back to the original indexing

		outData := append([]float64(nil), data...)
		for maskIndex, toRemove := range indicesToRemove {
			if !toRemove {
				continue
			}
			outData[indices[maskIndex]] = filterValue
		}

		return mat.NewDense[float64](mat.WithBacking(outData)), nil
	}
}
