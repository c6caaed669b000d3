/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package session

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/registry"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	commands := bridge.NewRing(64)
	readback := &bridge.Readback{}
	return New("untitled", 48000, 512, 8, commands, readback, zerolog.Nop())
}

func TestSession_AddNodeEnqueuesCommand(t *testing.T) {
	s := newTestSession(t)
	id := s.AddNode(registry.NodeTypeSineOsc, 10, 20)

	if _, ok := s.GraphDef.Nodes[id]; !ok {
		t.Fatalf("GraphDef missing node %d after AddNode", id)
	}

	drained := s.commands.Drain()
	if len(drained) != 1 {
		t.Fatalf("got %d drained commands, want 1", len(drained))
	}
	if drained[0].Kind != bridge.CmdAddNode || drained[0].Node != id {
		t.Errorf("drained command = %+v, want CmdAddNode for node %d", drained[0], id)
	}
}

func TestSession_CreateTrackLeavesNameOffTheWire(t *testing.T) {
	s := newTestSession(t)
	id := s.CreateTrack("lead synth")

	if s.Arrangement.Tracks[id].Name != "lead synth" {
		t.Errorf("local track name = %q, want %q", s.Arrangement.Tracks[id].Name, "lead synth")
	}

	drained := s.commands.Drain()
	if len(drained) != 1 || drained[0].Kind != bridge.CmdCreateTrack {
		t.Fatalf("drained = %+v, want one CmdCreateTrack", drained)
	}
	// bridge.Command carries no Name field: the audio-side canonical
	// arrangement copy never learns the name the UI assigned locally.
}

func TestSession_SetTrackVolumeUpdatesLocalStateImmediately(t *testing.T) {
	s := newTestSession(t)
	id := s.CreateTrack("bass")
	s.commands.Drain()

	s.SetTrackVolume(id, 0.5)
	if got := s.Arrangement.Tracks[id].Volume; got != 0.5 {
		t.Errorf("local Volume = %v, want 0.5", got)
	}

	drained := s.commands.Drain()
	if len(drained) != 1 || drained[0].Kind != bridge.CmdSetTrackVolume || drained[0].Volume != 0.5 {
		t.Errorf("drained = %+v, want one CmdSetTrackVolume(0.5)", drained)
	}
}

func TestSession_PlayStopTogglesLocalTransport(t *testing.T) {
	s := newTestSession(t)
	s.Play()
	if !s.Transport.Playing {
		t.Errorf("Transport.Playing = false after Play()")
	}
	s.Stop()
	if s.Transport.Playing {
		t.Errorf("Transport.Playing = true after Stop()")
	}
}

func TestSession_AddNotesBulkSwapsASnapshot(t *testing.T) {
	s := newTestSession(t)
	clip := s.CreateClip("pattern", 4, true)
	s.commands.Drain()

	notes := []arrangement.NoteEvent{
		{StartBeat: 0, DurationBeats: 1, Note: 60, Velocity: 1},
		{StartBeat: 1, DurationBeats: 1, Note: 64, Velocity: 1},
		{StartBeat: 2, DurationBeats: 1, Note: 67, Velocity: 1},
	}
	s.AddNotesBulk(clip, notes)

	if got := len(s.Arrangement.Clips[clip].Notes); got != 3 {
		t.Fatalf("local clip has %d notes after AddNotesBulk, want 3", got)
	}

	drained := s.commands.Drain()
	if len(drained) != 1 || drained[0].Kind != bridge.CmdSwapArrangementSnapshot {
		t.Fatalf("drained = %+v, want one CmdSwapArrangementSnapshot", drained)
	}
	snap := drained[0].ArrangementSnapshot
	if snap == nil {
		t.Fatal("ArrangementSnapshot is nil")
	}
	if got := len(snap.Clips[clip].Notes); got != 3 {
		t.Errorf("snapshot clip has %d notes, want 3", got)
	}
	// The snapshot must be a detached copy: mutating the live arrangement
	// afterward must not retroactively change what was already handed off.
	s.Arrangement.AddNote(clip, arrangement.NoteEvent{StartBeat: 3, DurationBeats: 1, Note: 72, Velocity: 1})
	if got := len(snap.Clips[clip].Notes); got != 3 {
		t.Errorf("snapshot clip has %d notes after a later local edit, want unchanged 3", got)
	}
}

func TestSession_OverflowDropsWithoutPanicking(t *testing.T) {
	commands := bridge.NewRing(1)
	readback := &bridge.Readback{}
	s := New("tiny", 48000, 512, 8, commands, readback, zerolog.Nop())

	s.AddNode(registry.NodeTypeSineOsc, 0, 0)
	s.AddNode(registry.NodeTypeADSREnv, 0, 0) // ring capacity 1: this one is dropped

	drained := s.commands.Drain()
	if len(drained) != 1 {
		t.Fatalf("got %d drained commands, want 1 (ring capacity 1)", len(drained))
	}
}
