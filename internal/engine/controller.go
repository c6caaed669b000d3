/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/compile"
	"github.com/friendsincode/hyasynth/internal/diag"
	"github.com/friendsincode/hyasynth/internal/graphdef"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
	"github.com/friendsincode/hyasynth/internal/runtime"
	"github.com/friendsincode/hyasynth/internal/scheduler"
	"github.com/friendsincode/hyasynth/internal/transport"
)

// Controller is the audio-owned engine: it holds
// the compiled Graph, the Scheduler/ClipPlayback state, the NodeRegistry,
// and its own canonical GraphDef/Arrangement, kept in sync with the
// UI-owned Session by replaying the same commands, plus the direct
// RegisterAudio/SetSlot calls below. CmdSwapArrangementSnapshot installs a
// detached arrangement copy by pointer. Every method here runs on the
// audio thread.
type Controller struct {
	log zerolog.Logger

	registry *registry.Registry
	commands *bridge.Ring
	readback *bridge.Readback
	diagRing *diag.Ring
	reclaim  *ReclaimQueue

	sampleRate     float64
	maxBlockFrames int
	maxVoices      int

	graphDef    *graphdef.GraphDef
	arrangement *arrangement.Arrangement
	transport   transport.Transport

	graph        *runtime.Graph
	clipPlayback *scheduler.ClipPlayback
	chains       map[ids.NodeID][]ids.NodeID // track target_node -> its full per-voice instrument chain

	injected []node.Event // live NoteOn/NoteOff landing at sample offset 0 this block
}

// New returns a Controller with an empty graph/arrangement. Compile must
// be called (directly, or implicitly via the first structural command)
// before Render produces anything but silence.
func New(reg *registry.Registry, commands *bridge.Ring, readback *bridge.Readback, diagRing *diag.Ring, reclaim *ReclaimQueue, sampleRate float64, maxBlockFrames, maxVoices int, log zerolog.Logger) *Controller {
	c := &Controller{
		log:            log,
		registry:       reg,
		commands:       commands,
		readback:       readback,
		diagRing:       diagRing,
		reclaim:        reclaim,
		sampleRate:     sampleRate,
		maxBlockFrames: maxBlockFrames,
		maxVoices:      maxVoices,
		graphDef:       graphdef.New(),
		arrangement:    arrangement.New(),
		transport:      transport.New(),
		clipPlayback:   scheduler.NewClipPlayback(),
	}
	c.recompile()
	return c
}

// Graph exposes the currently installed runtime graph (read-only use by
// tests and diagnostics).
func (c *Controller) Graph() *runtime.Graph { return c.graph }

// Transport returns the controller's current transport state.
func (c *Controller) Transport() transport.Transport { return c.transport }

// RegisterAudio hydrates the controller's own audio pool entry under id.
// Sample payloads never travel over the command ring: they are too large
// for a lock-free ring sized for control messages, so the UI and audio
// sides each load the same asset independently (see internal/samplepool)
// and register it under the same id before any CmdAddAudioToClip command
// referencing that id is applied.
func (c *Controller) RegisterAudio(id ids.AudioID, entry *arrangement.AudioEntry) {
	c.arrangement.AddAudioToPool(id, entry)
}

// SetSlot assigns clip to a track's scene column. Like clip-slot
// assignment on the Session side, this is local arrangement bookkeeping
// with no dedicated bridge.Command: CmdLaunchScene/CmdLaunchClip only
// resolve a slot that is already present, so both sides call SetSlot with
// the same (track, scene, clip) independently, the same way audio pool
// entries are registered on both sides before CmdAddAudioToClip.
func (c *Controller) SetSlot(track ids.TrackID, scene int, clip ids.ClipID) {
	c.arrangement.SetSlot(track, scene, clip)
}

// ProcessCommands drains the command ring and applies every command,
// returning whether a recompile is now required (either because a
// structural command was applied, or because overflow set the sticky
// pending-recompile flag).
func (c *Controller) ProcessCommands() bool {
	needsRecompile := c.commands.TakePendingRecompile()
	for _, cmd := range c.commands.Drain() {
		if cmd.Kind.Structural() {
			needsRecompile = true
		}
		c.apply(cmd)
	}
	return needsRecompile
}

// recompile rebuilds the graph from the controller's current
// GraphDef/Arrangement. On failure the previous graph is left in place
// and the engine keeps rendering on whatever graph it already had.
func (c *Controller) recompile() {
	g, err := compile.Compile(c.graphDef, c.arrangement, c.registry, c.sampleRate, c.maxBlockFrames, c.maxVoices)
	if err != nil {
		if _, ok := err.(*compile.NoOutput); !ok {
			c.log.Warn().Err(err).Msg("graph compile failed, keeping previous graph")
			return
		}
		// NoOutput still yields a usable (silent) graph; install it.
	}
	old := c.graph
	c.graph = g
	if old != nil && c.reclaim != nil {
		c.reclaim.Push(old)
	}

	chains := make(map[ids.NodeID][]ids.NodeID, len(g.TrackVolumePan))
	for _, t := range c.arrangement.Tracks {
		if !t.TargetNode.Valid() {
			continue
		}
		chains[t.TargetNode] = perVoiceChain(g, t.TargetNode)
	}
	c.chains = chains
}

// RenderBlock executes one full pass of the block loop: apply
// commands, recompile if needed, sync clip playback, materialize events,
// run the graph, copy to output, publish readback.
func (c *Controller) RenderBlock(frames int, outL, outR []float32) {
	if c.ProcessCommands() {
		c.recompile()
	}

	blockStartBeat := c.transport.BeatPosition
	samplesPerBeat := scheduler.SamplesPerBeat(c.transport.BPM, c.sampleRate)
	blockEndBeat := scheduler.BlockEndBeat(blockStartBeat, frames, samplesPerBeat)

	var events []node.Event
	if c.transport.Playing {
		c.clipPlayback.Sync(blockStartBeat)
		events = c.clipPlayback.MaterializeBlock(c.arrangement, blockStartBeat, blockEndBeat, samplesPerBeat, c.injected)
	} else {
		events = c.injected
	}
	c.injected = nil
	events = c.resolveVoiceEvents(events)

	c.graph.Render(frames, events, blockStartBeat, outL, outR)
	c.graph.DeactivateSilentReleasedVoices()

	if c.transport.Playing {
		c.transport.BeatPosition = scheduler.AdvanceBeat(blockStartBeat, frames, c.transport.BPM, c.sampleRate)
		c.transport.SamplePosition += uint64(frames)
	}

	c.publishReadback(outL, outR)
}

func (c *Controller) publishReadback(outL, outR []float32) {
	var peakL, peakR float32
	for _, v := range outL {
		if v < 0 {
			v = -v
		}
		if v > peakL {
			peakL = v
		}
	}
	for _, v := range outR {
		if v < 0 {
			v = -v
		}
		if v > peakR {
			peakR = v
		}
	}
	active := uint32(0)
	if c.graph != nil && c.graph.Voices != nil {
		for i := 0; i < c.graph.Voices.Len(); i++ {
			if c.graph.Voices.IsActive(i) {
				active++
			}
		}
	}
	c.readback.Publish(c.transport.SamplePosition, c.transport.BeatPosition, active, peakL, peakR, c.transport.Playing)
}
