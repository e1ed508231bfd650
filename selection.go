// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nmt

import (
	"errors"
	"sort"

	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/rand"
	"github.com/rs/zerolog/log"
)

// OutputSelectionFunc picks the next token id from the (possibly filtered)
// scores and reports its probability under the softmax of those scores.
type OutputSelectionFunc func(scores mat.Matrix) (int, float64, error)

// OutputSelection returns the selection strategy for generation: multinomial
// sampling when sampling is true, greedy decoding otherwise.
func OutputSelection(sampling bool) OutputSelectionFunc {
	if sampling {
		log.Trace().Msg("using multinomial sampling")
		return MultinomialSampling()
	}
	log.Trace().Msg("using greedy decoding")
	return GreedyDecoding()
}

// GreedyDecoding always picks the highest-scored candidate.
func GreedyDecoding() OutputSelectionFunc {
	return func(scores mat.Matrix) (int, float64, error) {
		if scores.Size() == 0 {
			return 0, 0, errors.New("nmt: empty score distribution")
		}
		probs := scores.Softmax()
		argmax := probs.ArgMax()
		return argmax, probs.ScalarAt(argmax).F64(), nil
	}
}

// MultinomialSampling draws one candidate proportionally to the softmax of
// the scores, by inverting the cumulative distribution: a uniform draw is
// located in the cumulative sums with a binary search. Candidates filtered
// out upstream (score -Inf, probability zero) occupy no mass in the
// cumulative sums and can never be picked.
func MultinomialSampling() OutputSelectionFunc {
	return func(scores mat.Matrix) (int, float64, error) {
		if scores.Size() == 0 {
			return 0, 0, errors.New("nmt: empty score distribution")
		}
		probs := scores.Softmax()
		cum := probs.CumSum().Data().F64()

		// The total can fall slightly short of 1 with float32 scores, so the
		// draw is scaled by it rather than assumed to be over [0, 1).
		p := rand.Float[float64]() * cum[len(cum)-1]
		id := sort.Search(len(cum), func(i int) bool { return cum[i] > p })
		if id >= len(cum) {
			id = len(cum) - 1
		}
		return id, probs.ScalarAt(id).F64(), nil
	}
}
