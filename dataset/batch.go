// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

// Batch is a collated group of aligned sequences. Each side is padded
// independently to its own maximum length within the batch; no cross-batch
// padding consistency exists.
type Batch struct {
	Source [][]int
	Target [][]int
}

// NewBatch collates aligned source and target rows, right-padding each side
// to its own maximum length with the pad id.
func NewBatch(source, target [][]int, padID int) Batch {
	return Batch{
		Source: padRows(source, padID),
		Target: padRows(target, padID),
	}
}

// Size returns the number of rows in the batch.
func (b Batch) Size() int {
	return len(b.Source)
}

// TeacherForcing splits the target rows into the decoder input (all but the
// last position) and the expected output (all but the first position).
// An empty target row yields an empty input and output pair.
func (b Batch) TeacherForcing() (in, out [][]int) {
	in = make([][]int, len(b.Target))
	out = make([][]int, len(b.Target))
	for i, row := range b.Target {
		if len(row) == 0 {
			continue
		}
		in[i] = row[:len(row)-1]
		out[i] = row[1:]
	}
	return in, out
}

func padRows(rows [][]int, padID int) [][]int {
	maxLen := 0
	for _, row := range rows {
		if len(row) > maxLen {
			maxLen = len(row)
		}
	}
	out := make([][]int, len(rows))
	for i, row := range rows {
		padded := make([]int, maxLen)
		copy(padded, row)
		for j := len(row); j < maxLen; j++ {
			padded[j] = padID
		}
		out[i] = padded
	}
	return out
}
