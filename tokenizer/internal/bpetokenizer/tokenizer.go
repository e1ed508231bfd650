// Copyright 2020 spaGO Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bpetokenizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nlpodyssey/gotokenizers/encodings"
	"github.com/nlpodyssey/gotokenizers/models"
	"github.com/nlpodyssey/gotokenizers/models/bpemodel"
	"github.com/nlpodyssey/gotokenizers/normalizedstring"
	"github.com/nlpodyssey/gotokenizers/pretokenizedstring"
	"github.com/nlpodyssey/gotokenizers/pretokenizers/bytelevelpretokenizer"
	"github.com/nlpodyssey/gotokenizers/vocabulary"
)

const (
	defaultCacheCapacity           = 0
	defaultDropout                 = 0.0
	defaultUnknownToken            = ""
	defaultContinuingSubwordPrefix = ""
	defaultEndOfWordSuffix         = ""
	defaultPrefixSpaceEnabled      = false
	defaultOffsetsTrimmingEnabled  = true
	defaultUnknownFusionEnabled    = false
)

// BPETokenizer is a higher-level tokenizer, which includes byte-level
// pre-tokenization and optional begin/end sequence markers.
type BPETokenizer struct {
	preTokenizer    *bytelevelpretokenizer.ByteLevelPreTokenizer
	model           *bpemodel.BPEModel
	vocab           *vocabulary.Vocabulary
	controlTokenIDs ControlTokensIDs
}

// ControlTokensIDs holds the ids of the reserved tokens.
type ControlTokensIDs struct {
	BeginID int
	EndID   int
	PadID   int
}

// Load returns a BPETokenizer from a directory containing vocab.json and
// merges.txt.
func Load(path string, controlTokensIDs ControlTokensIDs) (*BPETokenizer, error) {
	vocabularyFilename := filepath.Join(path, "vocab.json")
	vocab, err := vocabulary.FromJSONFile(vocabularyFilename)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary from file %s: %w", vocabularyFilename, err)
	}

	mergesFilename := filepath.Join(path, "merges.txt")
	merges, err := bpemodel.MergeMapFromFile(
		mergesFilename,
		vocab,
		len(defaultContinuingSubwordPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("loading merges from file %s: %w", mergesFilename, err)
	}

	preTokenizer := bytelevelpretokenizer.New(
		bytelevelpretokenizer.DefaultSplittingRegexp,
		defaultPrefixSpaceEnabled,
		defaultOffsetsTrimmingEnabled,
	)

	model := bpemodel.New(
		vocab,
		merges,
		defaultCacheCapacity,
		defaultDropout,
		defaultUnknownToken,
		defaultContinuingSubwordPrefix,
		defaultEndOfWordSuffix,
		defaultUnknownFusionEnabled,
	)

	return &BPETokenizer{
		preTokenizer:    preTokenizer,
		model:           model,
		vocab:           vocab,
		controlTokenIDs: controlTokensIDs,
	}, nil
}

// encode converts a text into an encoded tokens representation, applying
// byte-level pre-tokenization and BPE tokenization.
func (t *BPETokenizer) encode(text string) (*encodings.Encoding, error) {
	pts := pretokenizedstring.FromString(text)

	err := t.preTokenizer.PreTokenize(pts)
	if err != nil {
		return nil, fmt.Errorf("BPETokenizer PreTokenize for %s: %w", text, err)
	}

	err = pts.Tokenize(
		func(ns *normalizedstring.NormalizedString) ([]models.Token, error) {
			return t.model.Tokenize(ns.Get())
		},
	)
	if err != nil {
		return nil, fmt.Errorf("BPETokenizer Tokenize for %s: %w", text, err)
	}

	encoding, err := pts.IntoEncoding(0, 0)
	if err != nil {
		return nil, fmt.Errorf("BPETokenizer Encoding for %s: %w", text, err)
	}
	return encoding, nil
}

// Encode returns the token ids of the input text, optionally bounded by the
// begin and end markers.
func (t *BPETokenizer) Encode(text string, addBeginMarker, addEndMarker bool) ([]int, error) {
	encoded, err := t.encode(text)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(encoded.IDs)+2)
	if addBeginMarker {
		ids = append(ids, t.controlTokenIDs.BeginID)
	}
	ids = append(ids, encoded.IDs...)
	if addEndMarker {
		ids = append(ids, t.controlTokenIDs.EndID)
	}
	return ids, nil
}

// Decode returns the text of the input token ids, skipping the reserved
// control tokens.
func (t *BPETokenizer) Decode(tokenIDs []int) (string, error) {
	var sb strings.Builder
	for _, id := range tokenIDs {
		if t.isControlToken(id) {
			continue
		}
		if s, ok := t.vocab.GetString(id); ok {
			sb.WriteString(s)
		}
	}
	out := sb.String()
	out = strings.Replace(out, "Ġ", " ", -1)
	out = strings.Replace(out, "Ċ", "\n", -1)
	return out, nil
}

// BeginID returns the id of the begin marker.
func (t *BPETokenizer) BeginID() int { return t.controlTokenIDs.BeginID }

// EndID returns the id of the end marker.
func (t *BPETokenizer) EndID() int { return t.controlTokenIDs.EndID }

// PadID returns the id reserved for padding.
func (t *BPETokenizer) PadID() int { return t.controlTokenIDs.PadID }

func (t *BPETokenizer) isControlToken(id int) bool {
	ct := t.controlTokenIDs
	return id == ct.BeginID || id == ct.EndID || id == ct.PadID
}
