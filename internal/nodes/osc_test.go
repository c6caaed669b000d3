/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package nodes

import (
	"math"
	"testing"

	"github.com/friendsincode/hyasynth/internal/node"
)

func TestSineOsc_GatedOnByNoteOn(t *testing.T) {
	osc := NewSineOsc().(*SineOsc)
	osc.Prepare(48000, 512)

	out := node.Buffer{Channels: [][]float32{make([]float32, 512)}}
	ctx := &node.Context{SampleRate: 48000, BlockFrames: 512}

	silent := osc.Process(ctx, nil, out)
	if !silent {
		t.Fatalf("Process() before NoteOn reported non-silent, want silent")
	}

	ctx.Events = []node.Event{{Kind: node.EventNoteOn, Note: 69, Velocity: 1}}
	silent = osc.Process(ctx, nil, out)
	if silent {
		t.Fatalf("Process() after NoteOn reported silent, want sounding")
	}

	var peak float32
	for _, v := range out.Channels[0] {
		if v > peak {
			peak = v
		}
	}
	if peak < 0.5 {
		t.Errorf("peak amplitude = %v, want a clear sine peak near 1.0", peak)
	}
}

func TestSineOsc_FrequencyMatchesNote69(t *testing.T) {
	osc := NewSineOsc().(*SineOsc)
	const sr = 48000.0
	osc.Prepare(sr, 512)

	frames := 48 * 512
	out := node.Buffer{Channels: [][]float32{make([]float32, 512)}}
	ctx := &node.Context{SampleRate: sr, BlockFrames: 512, Events: []node.Event{{Kind: node.EventNoteOn, Note: 69, Velocity: 1}}}

	var crossings int
	var lastSign bool
	var sampleCount int
	for rendered := 0; rendered < frames; rendered += 512 {
		osc.Process(ctx, nil, out)
		ctx.Events = nil
		for _, v := range out.Channels[0] {
			sign := v >= 0
			if sampleCount > 0 && sign != lastSign {
				crossings++
			}
			lastSign = sign
			sampleCount++
		}
	}

	// A 440Hz sine over 0.512s crosses zero roughly 2*440*0.512 ~= 450 times.
	seconds := float64(frames) / sr
	expected := 2 * 440.0 * seconds
	if math.Abs(float64(crossings)-expected) > expected*0.05 {
		t.Errorf("zero crossings = %d, want close to %v (440Hz over %vs)", crossings, expected, seconds)
	}
}
