/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package node defines the contract every DSP node implementation must
// satisfy to run inside the audio callback. Node bodies themselves
// (oscillators, filters, reverb...)
// are external collaborators; this package only fixes the interface they
// are plugged in through.
package node

import "github.com/friendsincode/hyasynth/internal/ids"

// TargetKind discriminates how an Event is addressed.
type TargetKind uint8

const (
	// TargetGlobal addresses a Global node (there is exactly one instance).
	TargetGlobal TargetKind = iota
	// TargetVoiceAll addresses every active voice of a PerVoice node.
	TargetVoiceAll
	// TargetNode addresses a specific node regardless of polyphony.
	TargetNode
	// TargetNodeVoice addresses one voice of one PerVoice node directly;
	// the runtime routes it without consulting the voice allocator. Clip
	// playback does not emit it: engine.resolveVoiceEvents does, after it
	// has allocated a voice for a NoteOn/NoteOff sent to a track's target.
	TargetNodeVoice
)

// Target names the node (and, for TargetNodeVoice, the voice index) an
// Event is destined for.
type Target struct {
	Kind  TargetKind
	Node  ids.NodeID
	Voice int
}

// EventKind enumerates the per-node event vocabulary the scheduler and
// live MIDI commands can inject into a block.
type EventKind uint8

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventAudioStart
	EventAudioStop
)

// Event is a single scheduled occurrence within a block, expressed in
// sample offsets relative to the start of the block being rendered.
type Event struct {
	Kind         EventKind
	SampleOffset int // 0 <= SampleOffset < block_frames
	Target       Target

	// NoteOn / NoteOff payload.
	Note     uint8 // 0..127
	Velocity float32

	// AudioStart / AudioStop payload.
	AudioID             ids.AudioID
	SourceOffsetSeconds float64
	Gain                float32
}

// Context is handed to Process for a single block. It never outlives the
// call and must not be retained by the node.
type Context struct {
	SampleRate    float64
	BlockFrames   int
	BeatPosition  float64 // beat position at the start of this block
	Voice         int     // active voice index for PerVoice nodes, -1 for Global
	Events        []Event // events targeting this node (and this voice, if PerVoice) this block, sorted by SampleOffset
}

// Node is the capability set the runtime requires from every DSP object.
// Implementations must be safe to move to (and live exclusively on) the
// audio thread: no locks, no allocation in Process, no handles that are
// only valid on the UI thread.
type Node interface {
	// Prepare performs one-time allocation and resets internal state for
	// the given sample rate and the largest block size the engine will
	// ever request. Called by the compiler while it builds a Graph (which
	// Controller.RenderBlock does on the audio thread when a recompile is
	// due), before the node is ever handed to Process.
	Prepare(sampleRate float64, maxBlockFrames int)

	// Process fills output with ctx.BlockFrames frames (interleaved by
	// channel, channel-major slices — see Buffer) using inputs and any
	// queued events in ctx. It returns true if the entire output is
	// silence, allowing downstream nodes to skip reading it.
	Process(ctx *Context, inputs []Buffer, output Buffer) (isSilent bool)

	// SetParam applies a live parameter change. Called only from the
	// audio thread; implementations need no internal locking for it.
	SetParam(param ids.ParamID, value float32)

	// Reset clears internal state (envelopes, phase, filter memory). It
	// is called on every node instance when the transport stops.
	Reset()
}

// Buffer is a borrowed view over one node's pre-allocated output samples
// for the current block: Channels[c] has length BlockFrames.
type Buffer struct {
	Channels [][]float32
}

// Frames returns the number of frames the buffer holds.
func (b Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Clear zeroes every channel.
func (b Buffer) Clear() {
	for _, ch := range b.Channels {
		for i := range ch {
			ch[i] = 0
		}
	}
}

// AddFrom accumulates src into b, sample by sample, per channel. Used to
// sum PerVoice outputs into a node's single logical output buffer, and to
// sum a PerVoice upstream's voices into a Global consumer's input view.
func (b Buffer) AddFrom(src Buffer) {
	n := min(b.Frames(), src.Frames())
	for c := range b.Channels {
		if c >= len(src.Channels) {
			break
		}
		dst := b.Channels[c]
		s := src.Channels[c]
		for i := 0; i < n; i++ {
			dst[i] += s[i]
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// AudioPlayer is an optional capability for nodes that play back sample
// data from the shared audio pool. The compiler loads pool entries only
// into nodes that implement it. Events are routed by Target alone, so an
// AudioStart/AudioStop addressed to a node that does not implement it
// still reaches that node's Process.
type AudioPlayer interface {
	Node
	StartAudio(id ids.AudioID, sourceOffsetSeconds float64, gain float32)
	StopAudio(id ids.AudioID)
	LoadAudio(id ids.AudioID, samples SharedSamples)
}

// SharedSamples is an immutable, reference-counted handle to one audio
// pool entry's sample data. Many players may hold a handle to the same
// entry without copying sample memory; releasing the last handle frees it
// on the UI side, never from the audio callback.
type SharedSamples struct {
	Name       string
	SampleRate int
	Channels   int
	Frames     *[]float32 // interleaved by Channels; shared, never mutated after creation
}
