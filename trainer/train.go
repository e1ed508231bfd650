// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainer

import (
	"context"
	"fmt"
	"os"

	"github.com/dayyass/neural-machine-translation/metrics"
	"github.com/dayyass/neural-machine-translation/seq2seqrnn"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds the run-level training settings.
type Config struct {
	// Epochs is the number of training/validation passes.
	Epochs int `yaml:"epochs"`
	// BatchSize is the number of aligned pairs per collated batch.
	BatchSize int `yaml:"batch_size"`
	// LearningRate is the optimizer step size.
	LearningRate float64 `yaml:"learning_rate"`
	// EvalReportFrequency is the number of training batches between two
	// rolling-mean reports.
	EvalReportFrequency int `yaml:"eval_report_frequency"`
	// MaskPadding excludes pad positions from the loss when true.
	MaskPadding bool `yaml:"mask_padding"`
	// Shuffle re-draws the training pair order at every epoch.
	Shuffle bool `yaml:"shuffle"`
	// Seed drives weight initialization and shuffling.
	Seed uint64 `yaml:"seed"`
	// RunName labels the run in the metric history.
	RunName string `yaml:"run_name"`
	// HistoryDB is the path of the SQLite metric history; empty disables it.
	HistoryDB string `yaml:"history_db"`
	Verbose   bool   `yaml:"verbose"`
}

// LoadConfig reads the training configuration from a YAML file.
func LoadConfig(filePath string) (Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, fmt.Errorf("trainer: reading configuration file: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return Config{}, fmt.Errorf("trainer: unmarshaling configuration file: %w", err)
	}
	return conf, nil
}

// EpochSink receives the aggregate metrics of each completed epoch.
type EpochSink interface {
	RecordEpoch(run string, epoch int, phase string, means map[string]float64) error
}

// Train runs the training and validation drivers once per epoch for the
// configured number of epochs, then optionally evaluates a held-out test
// source. Aggregate (mean) metrics are logged per epoch and, when a sink is
// given, recorded there. No early stopping and no checkpointing take place.
// testSource and sink may be nil.
func Train(ctx context.Context, model *seq2seqrnn.Model, trainSource, valSource BatchSource, criterion Criterion, optimizer Optimizer, update MetricsFunc, testSource BatchSource, sink EpochSink, conf Config) error {
	opts := Options{
		EvalReportFrequency: conf.EvalReportFrequency,
		Verbose:             conf.Verbose,
	}

	for epoch := 1; epoch <= conf.Epochs; epoch++ {
		if conf.Verbose {
			log.Info().Msgf("epoch [%d/%d]", epoch, conf.Epochs)
		}

		trainMetrics, err := TrainEpoch(ctx, model, trainSource, criterion, optimizer, update, opts)
		if err != nil {
			return fmt.Errorf("trainer: epoch %d: %w", epoch, err)
		}
		logEpoch("train", trainMetrics, conf.Verbose)
		record(sink, conf.RunName, epoch, "train", trainMetrics)

		valMetrics, err := ValidateEpoch(ctx, model, valSource, criterion, update, opts)
		if err != nil {
			return fmt.Errorf("trainer: epoch %d validation: %w", epoch, err)
		}
		logEpoch("val", valMetrics, conf.Verbose)
		record(sink, conf.RunName, epoch, "val", valMetrics)
	}

	if testSource != nil {
		testMetrics, err := ValidateEpoch(ctx, model, testSource, criterion, update, opts)
		if err != nil {
			return fmt.Errorf("trainer: final test pass: %w", err)
		}
		logEpoch("test", testMetrics, conf.Verbose)
		record(sink, conf.RunName, conf.Epochs, "test", testMetrics)
	}
	return nil
}

func logEpoch(phase string, acc metrics.Accumulator, verbose bool) {
	if !verbose {
		return
	}
	for _, name := range acc.Names() {
		log.Info().Msgf("%s %s: %f", phase, name, acc.Mean(name))
	}
}

func record(sink EpochSink, run string, epoch int, phase string, acc metrics.Accumulator) {
	if sink == nil {
		return
	}
	if err := sink.RecordEpoch(run, epoch, phase, acc.Means()); err != nil {
		log.Warn().Err(err).Msgf("failed to record %s metrics for epoch %d", phase, epoch)
	}
}
