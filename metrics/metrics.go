// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import "sort"

// Accumulator maps a metric name to the ordered sequence of values observed
// so far. Values are append-only: one value per metric is appended for every
// processed batch, and nothing is mutated afterwards. Its lifecycle is bound
// to a single epoch.
type Accumulator map[string][]float64

// NewAccumulator returns an empty accumulator.
func NewAccumulator() Accumulator {
	return make(Accumulator)
}

// Append records a new value for the given metric.
func (a Accumulator) Append(name string, value float64) {
	a[name] = append(a[name], value)
}

// Mean returns the arithmetic mean of every value recorded for the metric.
func (a Accumulator) Mean(name string) float64 {
	return mean(a[name])
}

// RollingMean returns the arithmetic mean of the last k values recorded for
// the metric, or of all of them when fewer than k exist.
func (a Accumulator) RollingMean(name string, k int) float64 {
	values := a[name]
	if k < len(values) {
		values = values[len(values)-k:]
	}
	return mean(values)
}

// Names returns the tracked metric names in sorted order.
func (a Accumulator) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Means returns the per-metric mean over the whole accumulator.
func (a Accumulator) Means() map[string]float64 {
	means := make(map[string]float64, len(a))
	for name, values := range a {
		means[name] = mean(values)
	}
	return means
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Calculate returns the default metrics collaborator: it appends the batch
// loss and the token accuracy computed over the non-pad positions of the
// expected labels.
func Calculate(padID int) func(acc Accumulator, loss float64, yTrue, yPred [][]int) Accumulator {
	return func(acc Accumulator, loss float64, yTrue, yPred [][]int) Accumulator {
		acc.Append("loss", loss)
		acc.Append("accuracy", tokenAccuracy(yTrue, yPred, padID))
		return acc
	}
}

func tokenAccuracy(yTrue, yPred [][]int, padID int) float64 {
	matches, total := 0, 0
	for i := range yTrue {
		for t := range yTrue[i] {
			if yTrue[i][t] == padID {
				continue
			}
			total++
			if t < len(yPred[i]) && yPred[i][t] == yTrue[i][t] {
				matches++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}
