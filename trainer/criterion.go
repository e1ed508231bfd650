// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainer

import (
	"github.com/nlpodyssey/spago/losses"
	"github.com/nlpodyssey/spago/mat"
)

// Criterion produces a differentiable scalar loss from the per-step logits of
// one sequence and its expected output ids. The epoch drivers are agnostic to
// the loss implementation.
type Criterion func(logits []mat.Tensor, target []int) mat.Tensor

// CrossEntropy returns a criterion scoring every position of the target,
// padding included.
func CrossEntropy() Criterion {
	return func(logits []mat.Tensor, target []int) mat.Tensor {
		return losses.CrossEntropySeq(logits, target, true)
	}
}

// MaskedCrossEntropy returns a criterion scoring only the positions whose
// expected output is not the pad id. A row made entirely of padding falls
// back to the unmasked computation.
func MaskedCrossEntropy(padID int) Criterion {
	return func(logits []mat.Tensor, target []int) mat.Tensor {
		keptLogits := make([]mat.Tensor, 0, len(logits))
		keptTarget := make([]int, 0, len(target))
		for t, id := range target {
			if id == padID {
				continue
			}
			keptLogits = append(keptLogits, logits[t])
			keptTarget = append(keptTarget, id)
		}
		if len(keptTarget) == 0 {
			return losses.CrossEntropySeq(logits, target, true)
		}
		return losses.CrossEntropySeq(keptLogits, keptTarget, true)
	}
}
