/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package nodes

import (
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
)

// Sampler is a per-voice audio-region player: it holds shared handles to
// every pooled AudioEntry the compiler hydrated into it and plays one at a
// time, gated by AudioStart/AudioStop events. Playback does not
// resample; entries whose sample_rate differs from the engine's are
// played at the wrong pitch,
// same as most lightweight sample players — a real implementation would
// add a resampler here, out of scope for the engine core.
type Sampler struct {
	sampleRate float64
	pool       map[ids.AudioID]node.SharedSamples

	playing  bool
	current  ids.AudioID
	gain     float32
	frameIdx int
}

// NewSampler is the registry factory for registry.NodeTypeSampler.
func NewSampler() node.Node { return &Sampler{pool: make(map[ids.AudioID]node.SharedSamples)} }

func (s *Sampler) Prepare(sampleRate float64, maxBlockFrames int) { s.sampleRate = sampleRate }

func (s *Sampler) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	for _, e := range ctx.Events {
		switch e.Kind {
		case node.EventAudioStart:
			s.StartAudio(e.AudioID, e.SourceOffsetSeconds, e.Gain)
		case node.EventAudioStop:
			if e.AudioID == s.current {
				s.StopAudio(e.AudioID)
			}
		}
	}

	if !s.playing {
		output.Clear()
		return true
	}

	entry, ok := s.pool[s.current]
	if !ok || entry.Frames == nil {
		s.playing = false
		output.Clear()
		return true
	}
	samples := *entry.Frames
	totalFrames := len(samples) / entry.Channels

	anySound := false
	for i := 0; i < ctx.BlockFrames; i++ {
		if s.frameIdx >= totalFrames {
			s.playing = false
			for _, ch := range output.Channels {
				for j := i; j < len(ch); j++ {
					ch[j] = 0
				}
			}
			break
		}
		for c, ch := range output.Channels {
			srcCh := c
			if srcCh >= entry.Channels {
				srcCh = entry.Channels - 1
			}
			v := samples[s.frameIdx*entry.Channels+srcCh] * s.gain
			ch[i] = v
			if v != 0 {
				anySound = true
			}
		}
		s.frameIdx++
	}
	return !anySound
}

func (s *Sampler) SetParam(param ids.ParamID, value float32) {}

func (s *Sampler) Reset() {
	s.playing = false
	s.frameIdx = 0
}

func (s *Sampler) StartAudio(id ids.AudioID, sourceOffsetSeconds float64, gain float32) {
	entry, ok := s.pool[id]
	if !ok {
		return
	}
	s.current = id
	s.gain = gain
	s.playing = true
	s.frameIdx = int(sourceOffsetSeconds * float64(entry.SampleRate))
}

func (s *Sampler) StopAudio(id ids.AudioID) {
	if id == s.current {
		s.playing = false
	}
}

func (s *Sampler) LoadAudio(id ids.AudioID, samples node.SharedSamples) {
	s.pool[id] = samples
}
