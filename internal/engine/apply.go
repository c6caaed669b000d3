/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/diag"
	"github.com/friendsincode/hyasynth/internal/graphdef"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
	"github.com/friendsincode/hyasynth/internal/scheduler"
)

// apply interprets one drained Command against the controller's own
// canonical GraphDef/Arrangement/Transport. It never
// itself triggers a recompile — ProcessCommands reports, once every
// command in the drain has been applied, whether one is needed (based on
// Kind.Structural()), and RenderBlock then recompiles once.
func (c *Controller) apply(cmd bridge.Command) {
	switch cmd.Kind {
	case bridge.CmdAddNode:
		c.graphDef.AddNode(cmd.Node, cmd.TypeID, cmd.X, cmd.Y)
	case bridge.CmdRemoveNode:
		c.graphDef.RemoveNode(cmd.Node)
	case bridge.CmdConnect:
		c.graphDef.Connect(graphdef.Connection{
			SrcNode: cmd.SrcNode, SrcPort: cmd.SrcPort,
			DstNode: cmd.DstNode, DstPort: cmd.DstPort,
		})
	case bridge.CmdDisconnect:
		c.graphDef.Disconnect(cmd.DstNode, cmd.DstPort)
	case bridge.CmdSetOutput:
		c.graphDef.SetOutput(cmd.Node)
	case bridge.CmdClearGraph:
		c.graphDef.Clear()

	case bridge.CmdSetParam:
		c.graphDef.SetParam(cmd.Node, cmd.Param, cmd.Value)
		c.forwardParam(cmd.Node, cmd.Param, cmd.Value)

	case bridge.CmdCreateTrack:
		// Track names are a UI-side-only concern; the controller's
		// canonical arrangement only needs what Render touches.
		c.arrangement.CreateTrack(cmd.Track, "")
	case bridge.CmdDeleteTrack:
		c.arrangement.DeleteTrack(cmd.Track)
	case bridge.CmdSetTrackTarget:
		if t, ok := c.arrangement.Tracks[cmd.Track]; ok {
			t.TargetNode = cmd.Target
		}

	case bridge.CmdSetTrackVolume:
		if t, ok := c.arrangement.Tracks[cmd.Track]; ok {
			t.Volume = cmd.Volume
		}
		c.forwardTrackParam(cmd.Track, registry.ParamVolume, cmd.Volume)
	case bridge.CmdSetTrackPan:
		if t, ok := c.arrangement.Tracks[cmd.Track]; ok {
			t.Pan = cmd.Pan
		}
		c.forwardTrackParam(cmd.Track, registry.ParamPan, cmd.Pan)
	case bridge.CmdSetTrackMute:
		if t, ok := c.arrangement.Tracks[cmd.Track]; ok {
			t.Mute = cmd.Mute
		}
	case bridge.CmdSetTrackSolo:
		if t, ok := c.arrangement.Tracks[cmd.Track]; ok {
			t.Solo = cmd.Solo
		}

	case bridge.CmdPlay:
		c.transport.Playing = true
	case bridge.CmdStop:
		c.transport.Playing = false
		if c.graph != nil {
			for _, rn := range c.graph.Nodes {
				for _, inst := range rn.Instances {
					inst.Reset()
				}
			}
		}
	case bridge.CmdSetTempo:
		if cmd.BPM > 0 {
			c.transport.BPM = cmd.BPM
		}
	case bridge.CmdSeek:
		c.transport.BeatPosition = cmd.Beat
		c.transport.SamplePosition = uint64(cmd.Beat * scheduler.SamplesPerBeat(c.transport.BPM, c.sampleRate))

	case bridge.CmdCreateClip:
		c.arrangement.CreateClip(cmd.Clip, "", cmd.LengthBeats, cmd.Loop)
	case bridge.CmdDeleteClip:
		c.arrangement.DeleteClip(cmd.Clip)
	case bridge.CmdAddNote:
		c.arrangement.AddNote(cmd.Clip, arrangement.NoteEvent{
			StartBeat: cmd.StartBeat, DurationBeats: cmd.DurBeats,
			Note: cmd.Note, Velocity: cmd.Velocity,
		})
	case bridge.CmdAddAudioToClip:
		c.arrangement.AddAudioRegion(cmd.Clip, arrangement.AudioRegion{
			StartBeat: cmd.StartBeat, DurationBeats: cmd.DurBeats,
			AudioID: cmd.Audio, SourceOffsetSeconds: cmd.SrcOffsetS, Gain: cmd.Gain,
		})
	case bridge.CmdClearClip:
		c.arrangement.ClearClip(cmd.Clip)

	case bridge.CmdLaunchScene:
		c.clipPlayback.LaunchScene(c.arrangement, cmd.Scene, c.transport.BeatPosition)
	case bridge.CmdLaunchClip:
		c.clipPlayback.LaunchClip(cmd.Track, cmd.Clip, c.transport.BeatPosition)
	case bridge.CmdStopClip:
		c.clipPlayback.StopClip(cmd.Track, c.transport.BeatPosition)
	case bridge.CmdStopAllClips:
		c.clipPlayback.StopAllClips(c.transport.BeatPosition)

	case bridge.CmdNoteOn:
		c.injectNote(cmd.Track, node.EventNoteOn, cmd.Note, cmd.Velocity)
	case bridge.CmdNoteOff:
		c.injectNote(cmd.Track, node.EventNoteOff, cmd.Note, 0)

	case bridge.CmdRecompileGraph:
		// Structural() already forces a recompile; nothing to apply here.

	case bridge.CmdSwapArrangementSnapshot:
		if cmd.ArrangementSnapshot != nil {
			c.arrangement = cmd.ArrangementSnapshot
		}
	}
}

// forwardParam applies a live parameter change to every instance of an
// already-compiled node, so a tweak takes effect this block rather than
// waiting for the next recompile. Misses (node not in the current graph,
// e.g. it was just added by this same command batch and won't exist until
// the pending recompile runs) are recorded, never raised synchronously.
func (c *Controller) forwardParam(id ids.NodeID, param ids.ParamID, value float32) {
	if c.graph == nil {
		return
	}
	idx, ok := c.graph.IndexOf(id)
	if !ok {
		c.diagRing.Push(diag.UnknownNodeID, uint32(id))
		return
	}
	for _, inst := range c.graph.Nodes[idx].Instances {
		inst.SetParam(param, value)
	}
}

// forwardTrackParam applies a live volume/pan change directly to the
// synthesized VolumePan node the compiler inserted for this track,
// avoiding a recompile for the common case of dragging a fader.
func (c *Controller) forwardTrackParam(track ids.TrackID, param ids.ParamID, value float32) {
	if c.graph == nil {
		return
	}
	nodeID, ok := c.graph.TrackVolumePan[track]
	if !ok {
		c.diagRing.Push(diag.UnknownNodeID, uint32(track))
		return
	}
	c.forwardParam(nodeID, param, value)
}

// injectNote resolves a live NoteOn/NoteOff addressed to a track into an
// Event targeting that track's instrument root, landing at sample offset 0
// of the next block rendered. Voice allocation and per-node fan-out happen
// later, in resolveVoiceEvents.
func (c *Controller) injectNote(track ids.TrackID, kind node.EventKind, note uint8, velocity float32) {
	t, ok := c.arrangement.Tracks[track]
	if !ok || !t.TargetNode.Valid() {
		c.diagRing.Push(diag.UnknownNodeID, uint32(track))
		return
	}
	c.injected = append(c.injected, node.Event{
		Kind:         kind,
		SampleOffset: 0,
		Target:       node.Target{Kind: node.TargetNode, Node: t.TargetNode},
		Note:         note,
		Velocity:     velocity,
	})
}
