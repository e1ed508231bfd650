// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seqrnn

import (
	"encoding/json"
	"os"

	"github.com/dayyass/neural-machine-translation/gru"
)

// DefaultPadID is the token id reserved for padding. It must be consistent
// with the id the tokenizers use for padding.
const DefaultPadID = 3

// Config is the configuration of the sequence-to-sequence model.
// The pad id is injected here once and shared by the encoder and decoder
// embeddings, so the two sides cannot silently diverge.
type Config struct {
	// SrcVocabSize is the source-language vocabulary size.
	SrcVocabSize int `json:"src_vocab_size" yaml:"src_vocab_size"`
	// TgtVocabSize is the target-language vocabulary size.
	TgtVocabSize int `json:"tgt_vocab_size" yaml:"tgt_vocab_size"`
	// EmbeddingDim is the size of the token embeddings on both sides.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`
	// HiddenSize is the size of the recurrent hidden state.
	HiddenSize int `json:"hidden_size" yaml:"hidden_size"`
	// NumLayers is the recurrent depth, identical for encoder and decoder.
	NumLayers int `json:"num_layers" yaml:"num_layers"`
	// Dropout is the inter-layer dropout probability (training mode only).
	Dropout float64 `json:"dropout" yaml:"dropout"`
	// PadID marks filler positions beyond the true sequence content.
	PadID int `json:"pad_id" yaml:"pad_id"`
}

// LoadConfig reads the model configuration from a JSON file.
func LoadConfig(filePath string) (Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Config{PadID: DefaultPadID}
	jsonDecoder := json.NewDecoder(file)
	if err := jsonDecoder.Decode(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) rnnConfig() gru.Config {
	return gru.Config{
		InputSize:  c.EmbeddingDim,
		HiddenSize: c.HiddenSize,
		NumLayers:  c.NumLayers,
		Dropout:    c.Dropout,
	}
}
