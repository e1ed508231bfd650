// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dayyass/neural-machine-translation/tokenizer"
	"github.com/rs/zerolog/log"
)

// maxLineSize bounds the longest corpus line the scanner accepts.
const maxLineSize = 1024 * 1024

// LoadData reads a corpus file with one sentence per line and tokenizes
// every sentence.
func LoadData(path string, tok tokenizer.Tokenizer, addBeginMarker, addEndMarker bool) ([][]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: opening corpus file: %w", err)
	}
	defer file.Close()

	var rows [][]int
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	for scanner.Scan() {
		ids, err := tok.Encode(scanner.Text(), addBeginMarker, addEndMarker)
		if err != nil {
			return nil, fmt.Errorf("dataset: tokenizing line %d of %s: %w", len(rows)+1, path, err)
		}
		rows = append(rows, ids)
		if len(rows)%100000 == 0 {
			log.Debug().Msgf("tokenized %d sentences from %s", len(rows), path)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", path, err)
	}
	log.Debug().Msgf("loaded %d sentences from %s", len(rows), path)
	return rows, nil
}

// Dataset holds aligned source and target token sequences.
type Dataset struct {
	Source [][]int
	Target [][]int
}

// New returns a dataset of aligned pairs. The source and target sides must
// hold the same number of sequences; a mismatch is a fatal construction
// error.
func New(source, target [][]int) (*Dataset, error) {
	if len(source) != len(target) {
		return nil, fmt.Errorf("dataset: %d source sequences but %d target sequences", len(source), len(target))
	}
	return &Dataset{Source: source, Target: target}, nil
}

// Load builds a dataset from two parallel corpus files. The source side is
// tokenized without markers; the target side is bounded by the begin and end
// markers.
func Load(sourcePath, targetPath string, sourceTok, targetTok tokenizer.Tokenizer) (*Dataset, error) {
	source, err := LoadData(sourcePath, sourceTok, false, false)
	if err != nil {
		return nil, err
	}
	target, err := LoadData(targetPath, targetTok, true, true)
	if err != nil {
		return nil, err
	}
	return New(source, target)
}

// Len returns the number of aligned pairs.
func (d *Dataset) Len() int {
	return len(d.Source)
}
