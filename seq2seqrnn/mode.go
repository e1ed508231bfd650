// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seqrnn

// Mode selects between training-time and inference-time behavior.
// In Inference mode dropout is disabled and the forward pass is
// deterministic given fixed weights and inputs.
type Mode int

const (
	Training Mode = iota
	Inference
)

func (m Mode) String() string {
	if m == Training {
		return "training"
	}
	return "inference"
}
