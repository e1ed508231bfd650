// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seqrnn

import (
	"fmt"

	"github.com/dayyass/neural-machine-translation/gru"
	"github.com/nlpodyssey/spago/ag"
	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/float"
	"github.com/nlpodyssey/spago/nn"
)

var _ nn.Model = &Decoder{}

// Decoder consumes a teacher-forcing input sequence and the encoder context,
// producing one vector of vocabulary logits per timestep. Only the final
// context of the encoder is used; there is no attention over the encoder
// timesteps.
type Decoder struct {
	nn.Module
	Embeddings *Embeddings
	RNN        *gru.Model
	OutW       *nn.Param
	OutB       *nn.Param
	Config     Config
}

// NewDecoder returns a new decoder.
func NewDecoder[T float.DType](c Config) *Decoder {
	return &Decoder{
		Embeddings: NewEmbeddings[T](c.TgtVocabSize, c.EmbeddingDim, c.PadID),
		RNN:        gru.New[T](c.rnnConfig()),
		OutW:       nn.NewParam(mat.NewDense[T](mat.WithShape(c.TgtVocabSize, c.HiddenSize))),
		OutB:       nn.NewParam(mat.NewDense[T](mat.WithShape(c.TgtVocabSize))),
		Config:     c,
	}
}

// Decode embeds the teacher-forcing input, runs the recurrent network seeded
// with the encoder context, and projects every timestep to vocabulary logits.
// The context must have exactly one hidden state per decoder layer.
func (d *Decoder) Decode(mode Mode, tgtIn []int, context gru.State) ([]mat.Tensor, error) {
	if err := d.checkContext(context); err != nil {
		return nil, err
	}
	xs, err := d.Embeddings.Encode(tgtIn)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	hs, _ := d.RNN.ForwardSequence(xs, context, mode == Training)
	logits := make([]mat.Tensor, len(hs))
	for t, h := range hs {
		logits[t] = d.predict(h)
	}
	return logits, nil
}

// DecodeStep decodes a single token, returning its logits and the state to
// feed into the next step.
func (d *Decoder) DecodeStep(mode Mode, id int, state gru.State) (mat.Tensor, gru.State, error) {
	if err := d.checkContext(state); err != nil {
		return nil, nil, err
	}
	xs, err := d.Embeddings.Encode([]int{id})
	if err != nil {
		return nil, nil, fmt.Errorf("decoder: %w", err)
	}
	h, next := d.RNN.ForwardSingle(xs[0], state, mode == Training)
	return d.predict(h), next, nil
}

func (d *Decoder) predict(h mat.Tensor) mat.Tensor {
	return ag.Add(ag.Mul(d.OutW, h), d.OutB)
}

func (d *Decoder) checkContext(context gru.State) error {
	if len(context) != d.Config.NumLayers {
		return fmt.Errorf("decoder: context has %d layer states, want %d", len(context), d.Config.NumLayers)
	}
	return nil
}
