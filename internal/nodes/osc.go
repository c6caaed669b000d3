/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package nodes provides the concrete DSP node bodies the engine needs to
// synthesize its derived graph (VolumePan, Mixer, Output) plus a small set
// of illustrative instrument/effect nodes (oscillators, envelope, gain,
// sampler) that make the end-to-end scenarios in the engine specification's
// testable-properties section exercisable end to end. Individual DSP
// algorithms are out of scope for the engine core; these exist to give the
// compiler and runtime something real to run.
package nodes

import (
	"math"

	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
)

func noteToFrequency(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

// SineOsc is a per-voice sine oscillator gated on by NoteOn. It keeps
// generating through NoteOff: the downstream envelope owns the release
// tail's amplitude, not the oscillator, so it must not stop producing
// samples the moment the key is lifted. Reset silences it.
type SineOsc struct {
	sampleRate float64
	phase      float64
	freq       float64
	gate       bool
}

// NewSineOsc is the registry factory for registry.NodeTypeSineOsc.
func NewSineOsc() node.Node { return &SineOsc{freq: 440} }

func (o *SineOsc) Prepare(sampleRate float64, maxBlockFrames int) {
	o.sampleRate = sampleRate
	o.phase = 0
}

func (o *SineOsc) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	o.handleEvents(ctx.Events)
	if !o.gate {
		output.Clear()
		return true
	}
	inc := o.freq / o.sampleRate
	for _, ch := range output.Channels {
		phase := o.phase
		for i := range ch {
			ch[i] = float32(math.Sin(2 * math.Pi * phase))
			phase += inc
			if phase >= 1 {
				phase -= math.Floor(phase)
			}
		}
	}
	o.phase += inc * float64(ctx.BlockFrames)
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return false
}

func (o *SineOsc) handleEvents(events []node.Event) {
	for _, e := range events {
		if e.Kind == node.EventNoteOn {
			o.freq = noteToFrequency(e.Note)
			o.gate = true
		}
	}
}

func (o *SineOsc) SetParam(param ids.ParamID, value float32) {
	if param == registry.ParamFreq {
		o.freq = float64(value)
	}
}

func (o *SineOsc) Reset() { o.phase = 0; o.gate = false }

// SawOsc is a per-voice PolyBLEP-antialiased sawtooth oscillator, gated
// the same way as SineOsc.
type SawOsc struct {
	sampleRate float64
	phase      float64
	freq       float64
	gate       bool
}

// NewSawOsc is the registry factory for registry.NodeTypeSawOsc.
func NewSawOsc() node.Node { return &SawOsc{freq: 440} }

func (o *SawOsc) Prepare(sampleRate float64, maxBlockFrames int) {
	o.sampleRate = sampleRate
	o.phase = 0
}

func (o *SawOsc) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	for _, e := range ctx.Events {
		if e.Kind == node.EventNoteOn {
			o.freq = noteToFrequency(e.Note)
			o.gate = true
		}
	}
	if !o.gate {
		output.Clear()
		return true
	}
	inc := o.freq / o.sampleRate
	for _, ch := range output.Channels {
		phase := o.phase
		for i := range ch {
			ch[i] = float32(polyBLEPSaw(phase, inc))
			phase += inc
			if phase >= 1 {
				phase -= math.Floor(phase)
			}
		}
	}
	o.phase += inc * float64(ctx.BlockFrames)
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return false
}

// polyBLEPSaw generates an anti-aliased sawtooth sample via PolyBLEP
// correction at the wrap discontinuity.
func polyBLEPSaw(phase, inc float64) float64 {
	value := 2.0*phase - 1.0
	switch {
	case phase < inc:
		t := phase / inc
		value -= 2.0 * t * t * (1.0 - 0.5*t)
	case phase > 1.0-inc:
		t := (phase - 1.0) / inc
		value -= 2.0 * t * t * (1.0 + 0.5*t)
	}
	return value
}

func (o *SawOsc) SetParam(param ids.ParamID, value float32) {
	if param == registry.ParamFreq {
		o.freq = float64(value)
	}
}

func (o *SawOsc) Reset() { o.phase = 0; o.gate = false }
