/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package bridge

import (
	"math"
	"sync/atomic"
)

// Readback is the atomic struct the audio thread publishes once per block
// and the UI thread polls for meters. Fields are independent
// atomics rather than one lock: a reader may observe a torn snapshot
// across fields, which is acceptable for meter display ("reads use
// acquire; readers may see a non-atomic snapshot across fields").
type Readback struct {
	samplePosition uint64
	beatPosition   uint64 // math.Float64bits
	activeVoices   uint32
	peakLeft       uint32 // math.Float32bits
	peakRight      uint32 // math.Float32bits
	running        uint32 // 0 or 1
}

// Snapshot is the UI-friendly decoded view of a Readback at one instant.
type Snapshot struct {
	SamplePosition uint64
	BeatPosition   float64
	ActiveVoices   uint32
	PeakLeft       float32
	PeakRight      float32
	Running        bool
}

// Publish writes every field. Called once per block from the audio
// thread only.
func (r *Readback) Publish(samplePos uint64, beatPos float64, activeVoices uint32, peakL, peakR float32, running bool) {
	atomic.StoreUint64(&r.samplePosition, samplePos)
	atomic.StoreUint64(&r.beatPosition, math.Float64bits(beatPos))
	atomic.StoreUint32(&r.activeVoices, activeVoices)
	atomic.StoreUint32(&r.peakLeft, math.Float32bits(peakL))
	atomic.StoreUint32(&r.peakRight, math.Float32bits(peakR))
	var runningBit uint32
	if running {
		runningBit = 1
	}
	atomic.StoreUint32(&r.running, runningBit)
}

// Read returns a decoded snapshot of the current field values. Called
// from the UI thread only.
func (r *Readback) Read() Snapshot {
	return Snapshot{
		SamplePosition: atomic.LoadUint64(&r.samplePosition),
		BeatPosition:   math.Float64frombits(atomic.LoadUint64(&r.beatPosition)),
		ActiveVoices:   atomic.LoadUint32(&r.activeVoices),
		PeakLeft:       math.Float32frombits(atomic.LoadUint32(&r.peakLeft)),
		PeakRight:      math.Float32frombits(atomic.LoadUint32(&r.peakRight)),
		Running:        atomic.LoadUint32(&r.running) == 1,
	}
}
