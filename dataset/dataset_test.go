// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokenizer maps whitespace-separated words to fixed ids.
type wordTokenizer struct {
	vocab map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: map[string]int{
		"hello": 4,
		"world": 5,
		"how":   6,
		"are":   7,
		"you":   8,
	}}
}

func (w *wordTokenizer) Encode(text string, addBeginMarker, addEndMarker bool) ([]int, error) {
	var ids []int
	if addBeginMarker {
		ids = append(ids, w.BeginID())
	}
	for _, word := range strings.Fields(text) {
		ids = append(ids, w.vocab[word])
	}
	if addEndMarker {
		ids = append(ids, w.EndID())
	}
	return ids, nil
}

func (w *wordTokenizer) Decode(ids []int) (string, error) {
	reverse := make(map[int]string, len(w.vocab))
	for word, id := range w.vocab {
		reverse[id] = word
	}
	words := make([]string, 0, len(ids))
	for _, id := range ids {
		if word, ok := reverse[id]; ok {
			words = append(words, word)
		}
	}
	return strings.Join(words, " "), nil
}

func (w *wordTokenizer) BeginID() int { return 1 }
func (w *wordTokenizer) EndID() int   { return 2 }
func (w *wordTokenizer) PadID() int   { return 3 }

func writeTempCorpus(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644))
	return path
}

func TestLoadData(t *testing.T) {
	path := writeTempCorpus(t, "hello world", "how are you")

	rows, err := LoadData(path, newWordTokenizer(), false, false)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{4, 5}, {6, 7, 8}}, rows)
}

func TestLoadDataWithMarkers(t *testing.T) {
	path := writeTempCorpus(t, "hello world")

	rows, err := LoadData(path, newWordTokenizer(), true, true)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 4, 5, 2}}, rows)
}

func TestNewRejectsMismatchedSides(t *testing.T) {
	_, err := New([][]int{{4}}, [][]int{{1, 4, 2}, {1, 5, 2}})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	sourcePath := writeTempCorpus(t, "hello world", "how are you")
	targetPath := writeTempCorpus(t, "world hello", "you are how")

	ds, err := Load(sourcePath, targetPath, newWordTokenizer(), newWordTokenizer())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []int{4, 5}, ds.Source[0])
	assert.Equal(t, []int{1, 5, 4, 2}, ds.Target[0])
}

func TestNewBatchPadsEachSideIndependently(t *testing.T) {
	b := NewBatch(
		[][]int{{4, 5}, {6}},
		[][]int{{1, 7, 2}, {1, 7, 8, 2}},
		3,
	)

	assert.Equal(t, [][]int{{4, 5}, {6, 3}}, b.Source)
	assert.Equal(t, [][]int{{1, 7, 2, 3}, {1, 7, 8, 2}}, b.Target)
	assert.Equal(t, 2, b.Size())
}

func TestTeacherForcing(t *testing.T) {
	b := NewBatch(
		[][]int{{4, 5}},
		[][]int{{1, 7, 8, 2}},
		3,
	)

	in, out := b.TeacherForcing()
	assert.Equal(t, [][]int{{1, 7, 8}}, in)
	assert.Equal(t, [][]int{{7, 8, 2}}, out)
}

func TestTeacherForcingEmptyTargetRow(t *testing.T) {
	b := Batch{
		Source: [][]int{{4}},
		Target: [][]int{{}},
	}

	in, out := b.TeacherForcing()
	require.Len(t, in, 1)
	require.Len(t, out, 1)
	assert.Empty(t, in[0])
	assert.Empty(t, out[0])
}

func newTestDataset(t *testing.T, pairs int) *Dataset {
	t.Helper()
	source := make([][]int, pairs)
	target := make([][]int, pairs)
	for i := range source {
		source[i] = []int{4 + i}
		target[i] = []int{1, 4 + i, 2}
	}
	ds, err := New(source, target)
	require.NoError(t, err)
	return ds
}

func TestLoaderLen(t *testing.T) {
	loader := NewLoader(newTestDataset(t, 5), 2, 3, false, 0)
	assert.Equal(t, 3, loader.Len())
}

func TestLoaderYieldsAllBatchesInOrder(t *testing.T) {
	loader := NewLoader(newTestDataset(t, 5), 2, 3, false, 0)

	var batches []Batch
	for batch := range loader.Iter(context.Background()) {
		batches = append(batches, batch)
	}

	require.Len(t, batches, 3)
	assert.Equal(t, 2, batches[0].Size())
	assert.Equal(t, 2, batches[1].Size())
	assert.Equal(t, 1, batches[2].Size())
	assert.Equal(t, [][]int{{4}, {5}}, batches[0].Source)
	assert.Equal(t, [][]int{{8}}, batches[2].Source)
}

func TestLoaderShuffleIsDeterministic(t *testing.T) {
	first := NewLoader(newTestDataset(t, 8), 2, 3, true, 42)
	second := NewLoader(newTestDataset(t, 8), 2, 3, true, 42)

	var firstRows, secondRows [][]int
	for batch := range first.Iter(context.Background()) {
		firstRows = append(firstRows, batch.Source...)
	}
	for batch := range second.Iter(context.Background()) {
		secondRows = append(secondRows, batch.Source...)
	}

	assert.Equal(t, firstRows, secondRows)
}

func TestLoaderIterStopsWhenContextCancelled(t *testing.T) {
	loader := NewLoader(newTestDataset(t, 100), 1, 3, false, 0)

	ctx, cancel := context.WithCancel(context.Background())
	ch := loader.Iter(ctx)

	received := 1
	<-ch
	cancel()

	// The producer checks the context before collating each batch, so after
	// cancellation it stops and closes the channel instead of blocking.
	for range ch {
		received++
	}
	assert.Less(t, received, loader.Len())
}
