/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler converts between musical (beat) time and sample time
// and materializes per-block events from the arrangement.
package scheduler

import "math"

// SamplesPerBeat returns the number of audio samples one beat spans at the
// given tempo and sample rate.
func SamplesPerBeat(bpm, sampleRate float64) float64 {
	return 60.0 / bpm * sampleRate
}

// SampleOffset converts an absolute beat position within a block into a
// sample offset relative to the block's first frame.
func SampleOffset(eventBeat, blockStartBeat, samplesPerBeat float64) int {
	return int(math.Round((eventBeat - blockStartBeat) * samplesPerBeat))
}

// BlockEndBeat returns the beat position one block_frames past
// blockStartBeat at the given samplesPerBeat.
func BlockEndBeat(blockStartBeat float64, blockFrames int, samplesPerBeat float64) float64 {
	return blockStartBeat + float64(blockFrames)/samplesPerBeat
}

// AdvanceBeat returns the beat position after rendering blockFrames frames
// at the given tempo. The caller is responsible for only advancing while
// transport.Playing is true, and for reading bpm once per block: a tempo
// change mid-block takes effect at the next block boundary, not this one.
func AdvanceBeat(beatPosition float64, blockFrames int, bpm, sampleRate float64) float64 {
	return beatPosition + float64(blockFrames)/SamplesPerBeat(bpm, sampleRate)
}
