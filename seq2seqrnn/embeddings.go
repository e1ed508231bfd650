// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seqrnn

import (
	"fmt"

	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/float"
	"github.com/nlpodyssey/spago/nn"
	"github.com/nlpodyssey/spago/nn/embedding"
)

// Embeddings maps token ids to dense vectors. The pad id maps to a shared
// zero buffer that carries no gradient, so padding never contributes to the
// computation nor to the optimization.
type Embeddings struct {
	nn.Module
	Tokens *embedding.Model
	Zero   *nn.Buffer
	PadID  int
}

// NewEmbeddings returns a new embedding module for a vocabulary of the given
// size.
func NewEmbeddings[T float.DType](vocabSize, dim, padID int) *Embeddings {
	return &Embeddings{
		Tokens: embedding.New[T](vocabSize, dim),
		Zero:   nn.Buf(mat.NewDense[T](mat.WithShape(dim))),
		PadID:  padID,
	}
}

// Encode returns one embedding per token id.
func (m *Embeddings) Encode(ids []int) ([]mat.Tensor, error) {
	xs, err := m.Tokens.Encode(ids)
	if err != nil {
		return nil, fmt.Errorf("embeddings: encoding token ids: %w", err)
	}
	out := make([]mat.Tensor, len(xs))
	for i, x := range xs {
		if ids[i] == m.PadID {
			out[i] = m.Zero
			continue
		}
		out[i] = x
	}
	return out, nil
}
