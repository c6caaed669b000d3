/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package bridge implements the UI/audio boundary: a bounded
// single-producer-single-consumer command ring (UI -> audio) and an
// atomic readback struct (audio -> UI). Neither side ever blocks the
// other. Publishing readback does not allocate; Ring.Drain does, returning
// a newly allocated slice each time it has commands to hand back.
package bridge

import (
	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/ids"
)

// Kind enumerates every command the UI side can enqueue for the audio
// thread.
type Kind uint8

const (
	CmdAddNode Kind = iota
	CmdRemoveNode
	CmdConnect
	CmdDisconnect
	CmdSetOutput
	CmdClearGraph
	CmdSetParam
	CmdCreateTrack
	CmdDeleteTrack
	CmdSetTrackTarget
	CmdSetTrackVolume
	CmdSetTrackPan
	CmdSetTrackMute
	CmdSetTrackSolo
	CmdPlay
	CmdStop
	CmdSetTempo
	CmdSeek
	CmdCreateClip
	CmdDeleteClip
	CmdAddNote
	CmdAddAudioToClip
	CmdClearClip
	CmdLaunchScene
	CmdLaunchClip
	CmdStopClip
	CmdStopAllClips
	CmdNoteOn
	CmdNoteOff
	CmdRecompileGraph
	// CmdSwapArrangementSnapshot replaces the whole arrangement by a
	// pre-built, atomically-swapped copy rather than one command per
	// edit — the double-buffer option spec.md calls out for bulk edits
	// ("add 10,000 notes") as the alternative to per-edit commands.
	CmdSwapArrangementSnapshot
)

// Structural reports whether a command requires a graph recompile, per
// the "Requires recompile" column of the command table.
func (k Kind) Structural() bool {
	switch k {
	case CmdAddNode, CmdRemoveNode, CmdConnect, CmdDisconnect, CmdSetOutput, CmdClearGraph,
		CmdCreateTrack, CmdDeleteTrack, CmdSetTrackTarget, CmdRecompileGraph,
		CmdSwapArrangementSnapshot:
		return true
	default:
		return false
	}
}

// Command is a value-type tagged union covering every Kind. Only the
// fields relevant to Kind are meaningful; the rest are zero.
// ArrangementSnapshot (CmdSwapArrangementSnapshot only) is the one boxed
// payload; everything else is a plain value.
type Command struct {
	Kind Kind

	Node     ids.NodeID
	TypeID   ids.NodeTypeID
	X, Y     float32
	Param    ids.ParamID
	Value    float32
	SrcNode  ids.NodeID
	SrcPort  int
	DstNode  ids.NodeID
	DstPort  int

	Track  ids.TrackID
	Target ids.NodeID
	Volume float32
	Pan    float32
	Mute   bool
	Solo   bool

	BPM  float64
	Beat float64

	Clip        ids.ClipID
	LengthBeats float64
	Loop        bool
	Note        uint8
	Velocity    float32
	StartBeat   float64
	DurBeats    float64
	Audio       ids.AudioID
	SrcOffsetS  float64
	Gain        float32

	Scene int

	// ArrangementSnapshot carries the boxed payload for
	// CmdSwapArrangementSnapshot: a full, already-detached copy of the
	// arrangement (see Arrangement.Snapshot) the audio thread installs by
	// swapping a pointer, never by copying fields command-by-command.
	ArrangementSnapshot *arrangement.Arrangement
}
