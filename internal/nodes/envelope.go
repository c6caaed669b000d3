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

type adsrStage uint8

const (
	stageIdle adsrStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// silenceFloor is the level below which a decaying release tail is
// treated as silent (samples below 1e-4).
const silenceFloor = 1e-4

// ADSREnv is a per-voice amplitude envelope multiplying its single input
// by an attack/decay/sustain/release curve, gated by NoteOn/NoteOff.
type ADSREnv struct {
	sampleRate float64
	attack     float64
	decay      float64
	sustain    float64
	release    float64

	stage adsrStage
	level float64
}

// NewADSREnv is the registry factory for registry.NodeTypeADSREnv.
func NewADSREnv() node.Node {
	return &ADSREnv{attack: 0.01, decay: 0.1, sustain: 0.7, release: 0.3}
}

func (e *ADSREnv) Prepare(sampleRate float64, maxBlockFrames int) { e.sampleRate = sampleRate }

func (e *ADSREnv) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	for _, ev := range ctx.Events {
		switch ev.Kind {
		case node.EventNoteOn:
			e.stage = stageAttack
		case node.EventNoteOff:
			e.stage = stageRelease
		}
	}

	if e.stage == stageIdle {
		output.Clear()
		return true
	}

	var in node.Buffer
	if len(inputs) > 0 {
		in = inputs[0]
	}

	dt := 1.0 / e.sampleRate
	anySound := false
	for i := 0; i < ctx.BlockFrames; i++ {
		e.advance(dt)
		if e.level > silenceFloor {
			anySound = true
		}
		for c, ch := range output.Channels {
			var s float32
			if in.Channels != nil && c < len(in.Channels) && i < len(in.Channels[c]) {
				s = in.Channels[c][i]
			}
			ch[i] = s * float32(e.level)
		}
	}
	return !anySound
}

func (e *ADSREnv) advance(dt float64) {
	switch e.stage {
	case stageAttack:
		if e.attack <= 0 {
			e.level = 1
		} else {
			e.level += dt / e.attack
		}
		if e.level >= 1 {
			e.level = 1
			e.stage = stageDecay
		}
	case stageDecay:
		if e.decay <= 0 {
			e.level = e.sustain
		} else {
			e.level -= dt * (1 - e.sustain) / e.decay
		}
		if e.level <= e.sustain {
			e.level = e.sustain
			e.stage = stageSustain
		}
	case stageSustain:
		e.level = e.sustain
	case stageRelease:
		if e.release <= 0 {
			e.level = 0
		} else {
			e.level -= dt * e.sustain / e.release
		}
		if e.level <= silenceFloor {
			e.level = 0
			e.stage = stageIdle
		}
	}
}

func (e *ADSREnv) SetParam(param ids.ParamID, value float32) {
	switch param {
	case registry.ParamAttack:
		e.attack = float64(value)
	case registry.ParamDecay:
		e.decay = float64(value)
	case registry.ParamSustain:
		e.sustain = float64(value)
	case registry.ParamRelease:
		e.release = float64(value)
	}
}

func (e *ADSREnv) Reset() {
	e.stage = stageIdle
	e.level = 0
}
