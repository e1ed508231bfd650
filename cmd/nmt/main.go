// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	nmt "github.com/dayyass/neural-machine-translation"
	"github.com/dayyass/neural-machine-translation/dataset"
	"github.com/dayyass/neural-machine-translation/downloader"
	"github.com/dayyass/neural-machine-translation/history"
	"github.com/dayyass/neural-machine-translation/metrics"
	"github.com/dayyass/neural-machine-translation/seq2seqrnn"
	"github.com/dayyass/neural-machine-translation/tokenizer"
	"github.com/dayyass/neural-machine-translation/trainer"
	"github.com/nlpodyssey/spago/ag"
	"github.com/nlpodyssey/spago/mat/rand"
	"github.com/nlpodyssey/spago/nn"
	"github.com/nlpodyssey/spago/optimizers"
	"github.com/nlpodyssey/spago/optimizers/adam"
	"github.com/nlpodyssey/spago/optimizers/sgd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	app := &cli.App{
		Name:  "nmt",
		Usage: "Train and query sequence-to-sequence translation models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "set log level (trace, debug, info, warn, error, fatal, panic)",
				Action: func(c *cli.Context, s string) error {
					return setDebugLevel(s)
				},
				Value:   "info",
				EnvVars: []string{"NMT_LOGLEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "download",
				Usage:     "Download tokenizer or corpus files from a huggingface.co repository",
				ArgsUsage: "organization/repository",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dest-dir",
						Usage:    "directory where the repository files are stored",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "files",
						Usage: "files to fetch from the repository",
						Value: cli.NewStringSlice(downloader.TokenizerFiles...),
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "re-download files that already exist",
					},
					&cli.StringFlag{
						Name:    "access-token",
						Usage:   "bearer token for gated repositories",
						EnvVars: []string{"NMT_HF_TOKEN"},
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one repository name argument")
					}
					return downloader.Download(
						c.String("dest-dir"),
						c.Args().First(),
						c.StringSlice("files"),
						c.Bool("overwrite"),
						c.String("access-token"),
					)
				},
			},
			{
				Name:  "train",
				Usage: "Train a model on a parallel corpus",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Usage:    "YAML run configuration file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "interactive",
						Usage: "translate lines read from stdin once training completes",
					},
				},
				Action: func(c *cli.Context) error {
					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, os.Kill)
					defer stop()
					return train(ctx, c.String("config"), c.Bool("interactive"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func setDebugLevel(debugLevel string) error {
	level, err := zerolog.ParseLevel(debugLevel)
	if err != nil {
		return err
	}
	log.Logger = log.Level(level)
	return nil
}

// runConfig gathers everything a training run needs in one YAML document.
type runConfig struct {
	Model seq2seqrnn.Config `yaml:"model"`
	// Optimizer is "adam" (the default) or "sgd".
	Optimizer string          `yaml:"optimizer"`
	Training  trainer.Config  `yaml:"training"`
	Data      dataConfig      `yaml:"data"`
	Tokenizer tokenizerConfig `yaml:"tokenizer"`
}

type dataConfig struct {
	TrainSource string `yaml:"train_source"`
	TrainTarget string `yaml:"train_target"`
	ValSource   string `yaml:"val_source"`
	ValTarget   string `yaml:"val_target"`
	// TestSource and TestTarget are optional; when both are set a final
	// evaluation pass runs on them after the last epoch.
	TestSource string `yaml:"test_source"`
	TestTarget string `yaml:"test_target"`
}

type tokenizerConfig struct {
	SourceDir string `yaml:"source_dir"`
	TargetDir string `yaml:"target_dir"`
	BeginID   int    `yaml:"begin_id"`
	EndID     int    `yaml:"end_id"`
}

func loadRunConfig(filePath string) (runConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return runConfig{}, fmt.Errorf("reading run configuration: %w", err)
	}
	conf := runConfig{Optimizer: "adam"}
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return runConfig{}, fmt.Errorf("unmarshaling run configuration: %w", err)
	}
	return conf, nil
}

func train(ctx context.Context, configPath string, interactive bool) error {
	conf, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	controlTokens := tokenizer.ControlTokens{
		BeginID: conf.Tokenizer.BeginID,
		EndID:   conf.Tokenizer.EndID,
		PadID:   conf.Model.PadID,
	}
	sourceTok, err := tokenizer.Load(conf.Tokenizer.SourceDir, controlTokens)
	if err != nil {
		return err
	}
	targetTok, err := tokenizer.Load(conf.Tokenizer.TargetDir, controlTokens)
	if err != nil {
		return err
	}

	log.Info().Msg("loading corpora")
	trainSet, err := dataset.Load(conf.Data.TrainSource, conf.Data.TrainTarget, sourceTok, targetTok)
	if err != nil {
		return err
	}
	valSet, err := dataset.Load(conf.Data.ValSource, conf.Data.ValTarget, sourceTok, targetTok)
	if err != nil {
		return err
	}

	seed := int64(conf.Training.Seed)
	trainSource := dataset.NewLoader(trainSet, conf.Training.BatchSize, conf.Model.PadID, conf.Training.Shuffle, seed)
	valSource := dataset.NewLoader(valSet, conf.Training.BatchSize, conf.Model.PadID, false, seed)

	var testSource trainer.BatchSource
	if conf.Data.TestSource != "" && conf.Data.TestTarget != "" {
		testSet, err := dataset.Load(conf.Data.TestSource, conf.Data.TestTarget, sourceTok, targetTok)
		if err != nil {
			return err
		}
		testSource = dataset.NewLoader(testSet, conf.Training.BatchSize, conf.Model.PadID, false, seed)
	}

	model := seq2seqrnn.New[float32](conf.Model).InitRandom(rand.NewLockedRand(conf.Training.Seed))

	criterion := trainer.CrossEntropy()
	if conf.Training.MaskPadding {
		criterion = trainer.MaskedCrossEntropy(conf.Model.PadID)
	}
	optimizer, err := newOptimizer(conf.Optimizer, conf.Training.LearningRate, model)
	if err != nil {
		return err
	}

	var sink trainer.EpochSink
	if conf.Training.HistoryDB != "" {
		store, err := history.Open(conf.Training.HistoryDB, log.Logger)
		if err != nil {
			return err
		}
		defer store.Close()
		sink = store
	}

	log.Info().Msgf("training for %d epochs, %d batches per epoch", conf.Training.Epochs, trainSource.Len())
	update := metrics.Calculate(conf.Model.PadID)
	if err := trainer.Train(ctx, model, trainSource, valSource, criterion, optimizer, update, testSource, sink, conf.Training); err != nil {
		return err
	}

	if !interactive {
		return nil
	}
	translator, err := nmt.New(model, sourceTok, targetTok)
	if err != nil {
		return err
	}
	return interact(ctx, translator)
}

func newOptimizer(name string, learningRate float64, model *seq2seqrnn.Model) (*optimizers.Optimizer, error) {
	params := nn.Parameters(model)
	switch strings.ToLower(name) {
	case "", "adam":
		return optimizers.New(params, adam.New(adam.NewConfig(learningRate, 0.9, 0.999, 1e-8))), nil
	case "sgd":
		return optimizers.New(params, sgd.New[float32](sgd.NewConfig(learningRate, 0.9, false))), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

// interact translates stdin lines until EOF or interruption.
func interact(ctx context.Context, translator *nmt.NMT) error {
	opts := nmt.DefaultTranslateOptions()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Enter a sentence to translate (Ctrl+D to exit):")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		translation, err := translator.Translate(ctx, text, opts)
		if err != nil {
			return err
		}
		fmt.Println(translation)
	}
	return scanner.Err()
}

func init() {
	ag.SetForceSyncExecution(false)
}
