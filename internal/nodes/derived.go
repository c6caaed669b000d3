/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package nodes

import (
	"math"

	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
)

// VolumePan is the synthesized per-track node the compiler inserts
// downstream of every track's target_node. It applies
// constant-power panning to a mono or stereo input and scales by volume.
type VolumePan struct {
	volume float32
	pan    float32
}

// NewVolumePan is the registry factory for registry.NodeTypeVolumePan.
func NewVolumePan() node.Node { return &VolumePan{volume: 1, pan: 0} }

func (v *VolumePan) Prepare(sampleRate float64, maxBlockFrames int) {}

func (v *VolumePan) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	if len(inputs) == 0 || len(inputs[0].Channels) == 0 {
		output.Clear()
		return true
	}
	in := inputs[0]

	// Equal-power pan law: pan in [-1,1] maps to an angle in [0, pi/2].
	angle := (float64(v.pan) + 1) * math.Pi / 4
	gainL := float32(math.Cos(angle)) * v.volume
	gainR := float32(math.Sin(angle)) * v.volume

	silent := true
	left := in.Channels[0]
	right := left
	if len(in.Channels) > 1 {
		right = in.Channels[1]
	}
	if len(output.Channels) > 0 {
		for i, s := range left {
			val := s * gainL
			output.Channels[0][i] = val
			if val != 0 {
				silent = false
			}
		}
	}
	if len(output.Channels) > 1 {
		for i, s := range right {
			val := s * gainR
			output.Channels[1][i] = val
			if val != 0 {
				silent = false
			}
		}
	}
	return silent
}

func (v *VolumePan) SetParam(param ids.ParamID, value float32) {
	switch param {
	case registry.ParamVolume:
		v.volume = value
	case registry.ParamPan:
		v.pan = value
	}
}

func (v *VolumePan) Reset() {}

// Mixer is the synthesized single node summing every routed track's
// VolumePan output.
type Mixer struct{}

// NewMixer is the registry factory for registry.NodeTypeMixer.
func NewMixer() node.Node { return &Mixer{} }

func (m *Mixer) Prepare(sampleRate float64, maxBlockFrames int) {}

func (m *Mixer) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	output.Clear()
	silent := true
	for _, in := range inputs {
		for c, ch := range in.Channels {
			if c >= len(output.Channels) {
				continue
			}
			out := output.Channels[c]
			for i, s := range ch {
				if i >= len(out) {
					continue
				}
				out[i] += s
				if s != 0 {
					silent = false
				}
			}
		}
	}
	return silent
}

func (m *Mixer) SetParam(ids.ParamID, float32) {}
func (m *Mixer) Reset()                        {}

// Output is the synthesized terminal node (registry.NodeTypeOutput): it
// passes its single input through unchanged. Render reads this node's
// buffer directly to fill the caller's stereo output.
type Output struct{}

// NewOutput is the registry factory for registry.NodeTypeOutput.
func NewOutput() node.Node { return &Output{} }

func (o *Output) Prepare(sampleRate float64, maxBlockFrames int) {}

func (o *Output) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
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
			ch[i] = src[i]
			if src[i] != 0 {
				silent = false
			}
		}
	}
	return silent
}

func (o *Output) SetParam(ids.ParamID, float32) {}
func (o *Output) Reset()                        {}
