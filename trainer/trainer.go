// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainer

import (
	"context"
	"fmt"
	"math"

	"github.com/dayyass/neural-machine-translation/dataset"
	"github.com/dayyass/neural-machine-translation/metrics"
	"github.com/dayyass/neural-machine-translation/seq2seqrnn"
	"github.com/nlpodyssey/spago/ag"
	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/nn"
	"github.com/rs/zerolog/log"
)

// Optimizer applies one update step to the parameters whose gradients were
// populated by the backward pass.
type Optimizer interface {
	Optimize() error
}

// MetricsFunc is the metrics collaborator: it appends one value per tracked
// metric to the accumulator and returns it.
type MetricsFunc func(acc metrics.Accumulator, loss float64, yTrue, yPred [][]int) metrics.Accumulator

// BatchSource is an opaque producer of collated batches. The drivers consume
// one batch at a time and block until the next one is available. Cancelling
// the context stops the producer, so a pass abandoned midway does not leave
// it blocked on the channel.
type BatchSource interface {
	// Iter starts a new pass over the batches.
	Iter(ctx context.Context) <-chan dataset.Batch
	// Len returns the number of batches in one pass.
	Len() int
}

// Options controls the per-epoch reporting behavior.
type Options struct {
	// EvalReportFrequency is the number of processed batches between two
	// rolling-mean reports. Reporting is purely observational.
	EvalReportFrequency int
	Verbose             bool
}

// TrainEpoch runs a single training pass over the batch source, updating the
// model parameters once per batch, and returns the per-batch metrics.
//
// For every batch: the target rows are split into teacher-forcing input and
// expected output, the model runs forward in Training mode, the criterion
// loss is averaged over the rows, and then backward, optimizer step and
// gradient clearing happen strictly in that order before the next batch is
// touched. A non-finite loss aborts the epoch.
func TrainEpoch(ctx context.Context, model *seq2seqrnn.Model, source BatchSource, criterion Criterion, optimizer Optimizer, update MetricsFunc, opts Options) (metrics.Accumulator, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	acc := metrics.NewAccumulator()

	i := 0
	for batch := range source.Iter(ctx) {
		tgtIn, tgtOut := batch.TeacherForcing()

		logits, err := model.ForwardBatch(seq2seqrnn.Training, batch.Source, tgtIn)
		if err != nil {
			return nil, fmt.Errorf("trainer: batch %d: %w", i, err)
		}
		loss := batchLoss(criterion, logits, tgtOut)

		lossValue := loss.Value().Item().F64()
		if math.IsNaN(lossValue) || math.IsInf(lossValue, 0) {
			return nil, fmt.Errorf("trainer: non-finite loss %v at batch %d", lossValue, i)
		}

		if err := ag.Backward(loss); err != nil {
			return nil, fmt.Errorf("trainer: backward pass at batch %d: %w", i, err)
		}
		if err := optimizer.Optimize(); err != nil {
			return nil, fmt.Errorf("trainer: optimizer step at batch %d: %w", i, err)
		}
		nn.ZeroGrad(model)

		yTrue, yPred := extractLabels(logits, tgtOut)
		acc = update(acc, lossValue, yTrue, yPred)

		if opts.Verbose && opts.EvalReportFrequency > 0 && i%opts.EvalReportFrequency == 0 {
			report(acc, opts.EvalReportFrequency)
		}
		i++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return acc, nil
}

// ValidateEpoch runs a single forward-only pass over the batch source in
// Inference mode: no gradients, no parameter updates.
func ValidateEpoch(ctx context.Context, model *seq2seqrnn.Model, source BatchSource, criterion Criterion, update MetricsFunc, opts Options) (metrics.Accumulator, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	acc := metrics.NewAccumulator()

	i := 0
	for batch := range source.Iter(ctx) {
		tgtIn, tgtOut := batch.TeacherForcing()

		logits, err := model.ForwardBatch(seq2seqrnn.Inference, batch.Source, tgtIn)
		if err != nil {
			return nil, fmt.Errorf("trainer: batch %d: %w", i, err)
		}
		loss := batchLoss(criterion, logits, tgtOut)

		lossValue := loss.Value().Item().F64()
		if math.IsNaN(lossValue) || math.IsInf(lossValue, 0) {
			return nil, fmt.Errorf("trainer: non-finite loss %v at batch %d", lossValue, i)
		}

		yTrue, yPred := extractLabels(logits, tgtOut)
		acc = update(acc, lossValue, yTrue, yPred)
		i++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return acc, nil
}

// batchLoss averages the per-row criterion values over the batch.
func batchLoss(criterion Criterion, logits [][]mat.Tensor, targets [][]int) mat.Tensor {
	sum := criterion(logits[0], targets[0])
	for i := 1; i < len(logits); i++ {
		sum = ag.Add(sum, criterion(logits[i], targets[i]))
	}
	return ag.DivScalar(sum, mat.Scalar(float32(len(logits))))
}

// extractLabels derives the hard predictions (per-position argmax) and the
// expected labels for every example of the batch.
func extractLabels(logits [][]mat.Tensor, targets [][]int) (yTrue, yPred [][]int) {
	yTrue = make([][]int, len(targets))
	yPred = make([][]int, len(targets))
	for i, row := range logits {
		pred := make([]int, len(row))
		for t, step := range row {
			pred[t] = step.Value().(mat.Matrix).ArgMax()
		}
		yPred[i] = pred
		yTrue[i] = targets[i]
	}
	return yTrue, yPred
}

func report(acc metrics.Accumulator, window int) {
	for _, name := range acc.Names() {
		log.Info().Msgf("%s: %f", name, acc.RollingMean(name, window))
	}
}
