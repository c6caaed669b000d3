/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package runtime holds the audio-owned, compiled execution graph:
// topologically ordered nodes, pre-allocated buffers and the voice
// allocator.
package runtime

import (
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
	"github.com/friendsincode/hyasynth/internal/voice"
)

// InputBinding records, for one input port of one RuntimeNode, which
// upstream node (by index into Graph.Nodes) feeds it, resolved once at
// compile time so Render never searches at runtime.
type InputBinding struct {
	Connected     bool
	UpstreamIndex int
}

// RuntimeNode is one compiled node: its DSP instances (one for Global,
// MaxVoices for PerVoice), its resolved input bindings and its
// pre-allocated output buffer(s).
type RuntimeNode struct {
	NodeID      ids.NodeID
	TypeID      ids.NodeTypeID
	Poly        registry.Polyphony
	Channels    int
	X, Y        float32
	Params      map[ids.ParamID]float32
	Instances   []node.Node    // len 1 (Global) or MaxVoices (PerVoice)
	Inputs      []InputBinding // indexed by destination port
	Output      node.Buffer    // Global: the node's output. PerVoice: the voice-summed output.
	VoiceBuffer []node.Buffer  // PerVoice only: per-voice pre-summation buffers, len MaxVoices
	TopoIndex   int
	// Synthesized is true for nodes the compiler inserted (per-track
	// volume/pan, the mixer, the output) rather than ones the user added
	// directly; Decompile excludes them.
	Synthesized bool

	inputScratch []node.Buffer // pre-sized scratch reused across blocks to avoid per-block allocation
}

// Graph is the compiled, audio-owned execution graph produced by
// internal/compile. It is replaced wholesale on recompile.
type Graph struct {
	SampleRate     float64
	MaxBlockFrames int
	MaxVoices      int

	Nodes       []*RuntimeNode // topological order
	indexByID   map[ids.NodeID]int
	OutputIndex int // -1 means render silence

	Voices *voice.Allocator

	// TrackVolumePan maps each routed track to the synthesized VolumePan
	// node the compiler inserted downstream of it, so live
	// SetTrackVolume/Pan commands can SetParam without a recompile.
	TrackVolumePan map[ids.TrackID]ids.NodeID

	zeroL, zeroR []float32 // shared, never-written silent input stand-in

	// zeroMono/zeroStereo are the Channels wrapper slices zeroBuffer
	// returns, precomputed once here so bindInputs can call it every
	// block without a composite literal escaping to the heap.
	zeroMono   [][]float32
	zeroStereo [][]float32

	// voiceSilent[v] tracks whether every PerVoice node's v-th instance
	// reported silence for the block just rendered; pre-allocated once per
	// graph, so this bookkeeping adds no per-block allocation. Render still
	// allocates elsewhere: eventsForNode builds a new slice whenever any
	// event matches, and sliceBuffer builds a new Buffer when frames is below
	// MaxBlockFrames. Consulted by DeactivateSilentReleasedVoices.
	voiceSilent []bool
}

// NewGraph allocates an empty graph shell sized for the given limits.
// internal/compile populates Nodes/indexByID/OutputIndex.
func NewGraph(sampleRate float64, maxBlockFrames, maxVoices int) *Graph {
	zeroL := make([]float32, maxBlockFrames)
	zeroR := make([]float32, maxBlockFrames)
	return &Graph{
		SampleRate:     sampleRate,
		MaxBlockFrames: maxBlockFrames,
		MaxVoices:      maxVoices,
		indexByID:      make(map[ids.NodeID]int),
		OutputIndex:    -1,
		Voices:         voice.NewAllocator(maxVoices),
		TrackVolumePan: make(map[ids.TrackID]ids.NodeID),
		zeroL:          zeroL,
		zeroR:          zeroR,
		zeroMono:       [][]float32{zeroL},
		zeroStereo:     [][]float32{zeroL, zeroR},
		voiceSilent:    make([]bool, maxVoices),
	}
}

// IndexOf returns the compiled index of a node id, or false if absent.
func (g *Graph) IndexOf(id ids.NodeID) (int, bool) {
	i, ok := g.indexByID[id]
	return i, ok
}

// SetIndex records the compiled index for a node id; used by the
// compiler while it builds Nodes.
func (g *Graph) SetIndex(id ids.NodeID, idx int) { g.indexByID[id] = idx }

func (g *Graph) zeroBuffer(channels int) node.Buffer {
	if channels == 1 {
		return node.Buffer{Channels: g.zeroMono}
	}
	return node.Buffer{Channels: g.zeroStereo}
}

// eventsForNode filters a block's sorted events down to those targeting
// this node (and, for PerVoice processing, this specific voice or
// TargetVoiceAll).
func eventsForNode(all []node.Event, id ids.NodeID, voiceIdx int) []node.Event {
	var out []node.Event
	for _, e := range all {
		switch e.Target.Kind {
		case node.TargetGlobal:
			if voiceIdx < 0 {
				out = append(out, e)
			}
		case node.TargetNode:
			if e.Target.Node == id {
				out = append(out, e)
			}
		case node.TargetVoiceAll:
			if e.Target.Node == id && voiceIdx >= 0 {
				out = append(out, e)
			}
		case node.TargetNodeVoice:
			if e.Target.Node == id && e.Target.Voice == voiceIdx {
				out = append(out, e)
			}
		}
	}
	return out
}

// Render executes the full block loop: clears buffers, walks nodes
// in topological order, sums PerVoice voice outputs, and writes the output
// node's buffer (upmixed mono->stereo if necessary) into outL/outR.
// events must already be sorted by SampleOffset (the scheduler guarantees
// this). beatPosition is the beat at the start of this block.
func (g *Graph) Render(frames int, events []node.Event, beatPosition float64, outL, outR []float32) {
	if frames > g.MaxBlockFrames {
		frames = g.MaxBlockFrames
	}

	for _, n := range g.Nodes {
		n.Output.Clear()
		if n.Poly == registry.PerVoice {
			for _, vb := range n.VoiceBuffer {
				vb.Clear()
			}
		}
	}
	for v := range g.voiceSilent {
		g.voiceSilent[v] = true
	}

	for _, n := range g.Nodes {
		if len(n.inputScratch) != len(n.Inputs) {
			n.inputScratch = make([]node.Buffer, len(n.Inputs))
		}

		switch n.Poly {
		case registry.Global:
			g.bindInputs(n, -1, frames)
			ctx := &node.Context{
				SampleRate:   g.SampleRate,
				BlockFrames:  frames,
				BeatPosition: beatPosition,
				Voice:        -1,
				Events:       eventsForNode(events, n.NodeID, -1),
			}
			n.Instances[0].Process(ctx, n.inputScratch, n.Output)

		case registry.PerVoice:
			for v := 0; v < g.MaxVoices; v++ {
				if !g.Voices.IsActive(v) {
					continue
				}
				g.bindInputs(n, v, frames)
				ctx := &node.Context{
					SampleRate:   g.SampleRate,
					BlockFrames:  frames,
					BeatPosition: beatPosition,
					Voice:        v,
					Events:       eventsForNode(events, n.NodeID, v),
				}
				voiceOut := n.VoiceBuffer[v]
				isSilent := n.Instances[v].Process(ctx, n.inputScratch, voiceOut)
				if !isSilent {
					g.voiceSilent[v] = false
				}
				n.Output.AddFrom(voiceOut)
			}
		}
	}

	if g.OutputIndex < 0 || g.OutputIndex >= len(g.Nodes) {
		for i := 0; i < frames; i++ {
			outL[i] = 0
			outR[i] = 0
		}
		return
	}

	out := g.Nodes[g.OutputIndex].Output
	switch len(out.Channels) {
	case 1:
		for i := 0; i < frames; i++ {
			v := out.Channels[0][i]
			outL[i] = v
			outR[i] = v
		}
	default:
		for i := 0; i < frames; i++ {
			outL[i] = out.Channels[0][i]
			outR[i] = out.Channels[1][i]
		}
	}
}

// DeactivateSilentReleasedVoices frees every voice that is both in its
// release tail and reported silent by every PerVoice node on the block
// just rendered: a voice stays active through the whole release tail
// until its nodes actually go quiet, not just until NoteOff. Called once
// per block, after Render.
func (g *Graph) DeactivateSilentReleasedVoices() {
	for v := 0; v < g.MaxVoices; v++ {
		if g.Voices.IsReleased(v) && g.voiceSilent[v] {
			g.Voices.Deactivate(v)
		}
	}
}

// bindInputs fills n.inputScratch for the given voice (-1 for Global
// processing) from each input port's resolved upstream buffer.
func (g *Graph) bindInputs(n *RuntimeNode, voiceIdx int, frames int) {
	for port, b := range n.Inputs {
		if !b.Connected {
			n.inputScratch[port] = sliceBuffer(g.zeroBuffer(n.Channels), frames)
			continue
		}
		upstream := g.Nodes[b.UpstreamIndex]
		switch upstream.Poly {
		case registry.Global:
			n.inputScratch[port] = sliceBuffer(upstream.Output, frames)
		case registry.PerVoice:
			if voiceIdx >= 0 {
				n.inputScratch[port] = sliceBuffer(upstream.VoiceBuffer[voiceIdx], frames)
			} else {
				n.inputScratch[port] = sliceBuffer(upstream.Output, frames)
			}
		}
	}
}

func sliceBuffer(b node.Buffer, frames int) node.Buffer {
	if b.Frames() == frames {
		return b
	}
	out := node.Buffer{Channels: make([][]float32, len(b.Channels))}
	for i, ch := range b.Channels {
		if frames <= len(ch) {
			out.Channels[i] = ch[:frames]
		} else {
			out.Channels[i] = ch
		}
	}
	return out
}
