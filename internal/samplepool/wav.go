/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package samplepool

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/friendsincode/hyasynth/internal/arrangement"
)

// DecodeWAV reads a complete WAV file from r and converts it to an
// interleaved, unity-range float32 arrangement.AudioEntry. Playback never
// resamples on load: entries whose sample rate differs from the engine's
// are simply played back at a pitch-shifted rate by the sampler node.
func DecodeWAV(r io.ReadSeeker) (*arrangement.AudioEntry, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("samplepool: not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("samplepool: decode PCM buffer: %w", err)
	}

	channels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	maxVal := float32(int(1) << (bitDepth - 1))

	frames := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		frames[i] = float32(v) / maxVal
		if frames[i] > 1 {
			frames[i] = 1
		} else if frames[i] < -1 {
			frames[i] = -1
		}
	}

	return &arrangement.AudioEntry{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    &frames,
	}, nil
}
