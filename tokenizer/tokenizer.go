// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tokenizer

import "github.com/dayyass/neural-machine-translation/tokenizer/internal/bpetokenizer"

// Tokenizer converts between raw text and token id sequences.
type Tokenizer interface {
	// Encode returns the token ids for the given text. The begin and end
	// markers bound the sequence only when requested: the source side of a
	// translation pair never adds them, the target side always adds both.
	Encode(text string, addBeginMarker, addEndMarker bool) ([]int, error)
	// Decode returns the text corresponding to the given token ids,
	// skipping the reserved control tokens.
	Decode(ids []int) (string, error)
	// BeginID returns the id of the begin marker.
	BeginID() int
	// EndID returns the id of the end marker.
	EndID() int
	// PadID returns the id reserved for padding.
	PadID() int
}

// ControlTokens holds the reserved token ids of a vocabulary.
type ControlTokens struct {
	BeginID int
	EndID   int
	PadID   int
}

// Load loads a byte-level BPE tokenizer from the given directory, which must
// contain vocab.json and merges.txt.
func Load(path string, ct ControlTokens) (Tokenizer, error) {
	return bpetokenizer.Load(path, bpetokenizer.ControlTokensIDs{
		BeginID: ct.BeginID,
		EndID:   ct.EndID,
		PadID:   ct.PadID,
	})
}
