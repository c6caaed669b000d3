/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package nodes

import (
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
)

// Gain is a per-voice linear amplitude multiplier.
type Gain struct {
	level float32
}

// NewGain is the registry factory for registry.NodeTypeGain.
func NewGain() node.Node { return &Gain{level: 1} }

func (g *Gain) Prepare(sampleRate float64, maxBlockFrames int) {}

func (g *Gain) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	if len(inputs) == 0 {
		output.Clear()
		return true
	}
	in := inputs[0]
	silent := true
	for c, ch := range output.Channels {
		if c >= len(in.Channels) {
			continue
		}
		src := in.Channels[c]
		for i := range ch {
			v := src[i] * g.level
			ch[i] = v
			if v != 0 {
				silent = false
			}
		}
	}
	return silent
}

func (g *Gain) SetParam(param ids.ParamID, value float32) {
	if param == registry.ParamGainLevel {
		g.level = value
	}
}

func (g *Gain) Reset() {}
