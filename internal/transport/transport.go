/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package transport holds the Transport value type shared by the
// UI-owned Session and the audio-owned EngineController, each
// keeping its own copy reconciled through commands rather than sharing
// memory.
package transport

// Transport is the musical clock: whether playback is advancing, the
// current tempo, and the current position in both beats and samples.
type Transport struct {
	Playing        bool
	BPM            float64
	BeatPosition   float64
	SamplePosition uint64
}

// New returns a stopped transport at 120bpm, beat/sample position zero.
func New() Transport {
	return Transport{BPM: 120}
}
