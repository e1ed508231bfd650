// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"context"
	"math/rand"
)

// prefetch is the number of collated batches buffered ahead of the consumer.
const prefetch = 2

// Loader groups a dataset into batches and yields them one at a time.
// Collation runs in a producer goroutine so the next batch is prepared while
// the consumer processes the current one.
type Loader struct {
	dataset   *Dataset
	batchSize int
	padID     int
	shuffle   bool
	rng       *rand.Rand
}

// NewLoader returns a loader over the given dataset. When shuffle is true
// the pair order is re-drawn at every pass, deterministically from the seed.
func NewLoader(ds *Dataset, batchSize, padID int, shuffle bool, seed int64) *Loader {
	return &Loader{
		dataset:   ds,
		batchSize: batchSize,
		padID:     padID,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Len returns the number of batches in one pass.
func (l *Loader) Len() int {
	return (l.dataset.Len() + l.batchSize - 1) / l.batchSize
}

// Iter starts a new pass over the dataset. The returned channel is closed
// once every batch has been yielded, or as soon as the context is cancelled,
// so a consumer abandoning the pass early does not strand the producer.
func (l *Loader) Iter(ctx context.Context) <-chan Batch {
	indices := make([]int, l.dataset.Len())
	for i := range indices {
		indices[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	ch := make(chan Batch, prefetch)
	go func() {
		defer close(ch)
		for start := 0; start < len(indices); start += l.batchSize {
			select {
			case <-ctx.Done():
				return
			default:
			}
			end := start + l.batchSize
			if end > len(indices) {
				end = len(indices)
			}
			source := make([][]int, 0, end-start)
			target := make([][]int, 0, end-start)
			for _, idx := range indices[start:end] {
				source = append(source, l.dataset.Source[idx])
				target = append(target, l.dataset.Target[idx])
			}
			select {
			case ch <- NewBatch(source, target, l.padID):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
