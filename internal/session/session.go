/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package session holds the UI-owned counterpart to internal/engine.Controller:
// the declarative GraphDef, the Arrangement and the Transport as the UI
// thread sees them, plus the id allocators that hand out new
// Node/Track/Clip/Scene/Audio ids. Most mutations are applied locally and
// then enqueued as a bridge.Command for the audio thread to replay, which
// keeps the two sides eventually consistent. SetSlot, SchedulePlacement,
// RegisterAudio and NewScene only change the local state: no command is
// enqueued for them (the audio side has its own Controller.SetSlot and
// Controller.RegisterAudio). AddNotesBulk hands the audio side a detached
// arrangement copy whose audio pool entries are shared, not copied.
package session

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/graphdef"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/transport"
)

// Session is the UI-owned project state: one instance per open project.
// Nothing here runs on the audio thread.
type Session struct {
	ID   uuid.UUID
	Name string

	SampleRate     float64
	MaxBlockFrames int
	MaxVoices      int

	GraphDef    *graphdef.GraphDef
	Arrangement *arrangement.Arrangement
	Transport   transport.Transport

	nodeIDs  ids.Allocator
	trackIDs ids.Allocator
	clipIDs  ids.Allocator
	sceneIDs ids.Allocator
	audioIDs ids.Allocator

	commands *bridge.Ring
	readback *bridge.Readback

	log zerolog.Logger
}

// New returns an empty session wired to the given command ring and
// readback struct — the same pair handed to engine.New on the audio side.
func New(name string, sampleRate float64, maxBlockFrames, maxVoices int, commands *bridge.Ring, readback *bridge.Readback, log zerolog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:             id,
		Name:           name,
		SampleRate:     sampleRate,
		MaxBlockFrames: maxBlockFrames,
		MaxVoices:      maxVoices,
		GraphDef:       graphdef.New(),
		Arrangement:    arrangement.New(),
		Transport:      transport.New(),
		commands:       commands,
		readback:       readback,
		log:            log.With().Str("session_id", id.String()).Logger(),
	}
}

// Readback returns the latest decoded audio-thread snapshot.
func (s *Session) Readback() bridge.Snapshot { return s.readback.Read() }

// push enqueues cmd, logging a backpressure warning on overflow rather
// than blocking — the UI keeps its own optimistic state regardless of
// whether the audio thread ever sees this particular command.
func (s *Session) push(cmd bridge.Command) {
	if !s.commands.Push(cmd) {
		s.log.Warn().Uint8("kind", uint8(cmd.Kind)).Msg("command ring full, dropped")
	}
}

// AddNode allocates a node id, applies it to the local GraphDef and
// enqueues the equivalent command.
func (s *Session) AddNode(typeID ids.NodeTypeID, x, y float32) ids.NodeID {
	id := ids.NodeID(s.nodeIDs.Next())
	s.GraphDef.AddNode(id, typeID, x, y)
	s.push(bridge.Command{Kind: bridge.CmdAddNode, Node: id, TypeID: typeID, X: x, Y: y})
	return id
}

// RemoveNode deletes a node locally and enqueues the removal.
func (s *Session) RemoveNode(id ids.NodeID) {
	s.GraphDef.RemoveNode(id)
	s.push(bridge.Command{Kind: bridge.CmdRemoveNode, Node: id})
}

// Connect wires srcNode:srcPort -> dstNode:dstPort.
func (s *Session) Connect(srcNode ids.NodeID, srcPort int, dstNode ids.NodeID, dstPort int) {
	s.GraphDef.Connect(graphdef.Connection{SrcNode: srcNode, SrcPort: srcPort, DstNode: dstNode, DstPort: dstPort})
	s.push(bridge.Command{Kind: bridge.CmdConnect, SrcNode: srcNode, SrcPort: srcPort, DstNode: dstNode, DstPort: dstPort})
}

// Disconnect removes whatever connection feeds dstNode:dstPort.
func (s *Session) Disconnect(dstNode ids.NodeID, dstPort int) {
	s.GraphDef.Disconnect(dstNode, dstPort)
	s.push(bridge.Command{Kind: bridge.CmdDisconnect, DstNode: dstNode, DstPort: dstPort})
}

// SetOutput marks id as the graph's explicit output node.
func (s *Session) SetOutput(id ids.NodeID) {
	s.GraphDef.SetOutput(id)
	s.push(bridge.Command{Kind: bridge.CmdSetOutput, Node: id})
}

// SetParam applies a live parameter change; this never requires a
// recompile, so the audio thread forwards it straight to the running
// instance(s) the same block it is drained.
func (s *Session) SetParam(id ids.NodeID, param ids.ParamID, value float32) {
	s.GraphDef.SetParam(id, param, value)
	s.push(bridge.Command{Kind: bridge.CmdSetParam, Node: id, Param: param, Value: value})
}

// ClearGraph empties the declarative graph.
func (s *Session) ClearGraph() {
	s.GraphDef.Clear()
	s.push(bridge.Command{Kind: bridge.CmdClearGraph})
}

// CreateTrack allocates a track id and enqueues its creation. Track names
// are a UI-side-only concern (bridge.Command carries no Name field, so the
// audio-side canonical arrangement copy always sees an empty name — see
// DESIGN.md).
func (s *Session) CreateTrack(name string) ids.TrackID {
	id := ids.TrackID(s.trackIDs.Next())
	s.Arrangement.CreateTrack(id, name)
	s.push(bridge.Command{Kind: bridge.CmdCreateTrack, Track: id})
	return id
}

// DeleteTrack removes a track locally and enqueues the deletion.
func (s *Session) DeleteTrack(id ids.TrackID) {
	s.Arrangement.DeleteTrack(id)
	s.push(bridge.Command{Kind: bridge.CmdDeleteTrack, Track: id})
}

// SetTrackTarget points a track at the tail node of its instrument chain.
func (s *Session) SetTrackTarget(track ids.TrackID, target ids.NodeID) {
	if t, ok := s.Arrangement.Tracks[track]; ok {
		t.TargetNode = target
	}
	s.push(bridge.Command{Kind: bridge.CmdSetTrackTarget, Track: track, Target: target})
}

// SetTrackVolume applies a live volume change (non-structural).
func (s *Session) SetTrackVolume(track ids.TrackID, volume float32) {
	if t, ok := s.Arrangement.Tracks[track]; ok {
		t.Volume = volume
	}
	s.push(bridge.Command{Kind: bridge.CmdSetTrackVolume, Track: track, Volume: volume})
}

// SetTrackPan applies a live pan change (non-structural).
func (s *Session) SetTrackPan(track ids.TrackID, pan float32) {
	if t, ok := s.Arrangement.Tracks[track]; ok {
		t.Pan = pan
	}
	s.push(bridge.Command{Kind: bridge.CmdSetTrackPan, Track: track, Pan: pan})
}

// SetTrackMute and SetTrackSolo toggle mixing flags. Neither requires a
// recompile; both are purely metadata the session view reads when
// deciding what to materialize (muted/non-soloed tracks still exist in
// the graph, they just never get events scheduled for them).
func (s *Session) SetTrackMute(track ids.TrackID, mute bool) {
	if t, ok := s.Arrangement.Tracks[track]; ok {
		t.Mute = mute
	}
	s.push(bridge.Command{Kind: bridge.CmdSetTrackMute, Track: track, Mute: mute})
}

func (s *Session) SetTrackSolo(track ids.TrackID, solo bool) {
	if t, ok := s.Arrangement.Tracks[track]; ok {
		t.Solo = solo
	}
	s.push(bridge.Command{Kind: bridge.CmdSetTrackSolo, Track: track, Solo: solo})
}

// Play and Stop toggle transport playback.
func (s *Session) Play() {
	s.Transport.Playing = true
	s.push(bridge.Command{Kind: bridge.CmdPlay})
}

func (s *Session) Stop() {
	s.Transport.Playing = false
	s.push(bridge.Command{Kind: bridge.CmdStop})
}

// SetTempo changes the transport's BPM.
func (s *Session) SetTempo(bpm float64) {
	s.Transport.BPM = bpm
	s.push(bridge.Command{Kind: bridge.CmdSetTempo, BPM: bpm})
}

// Seek moves the transport to an absolute beat position.
func (s *Session) Seek(beat float64) {
	s.Transport.BeatPosition = beat
	s.push(bridge.Command{Kind: bridge.CmdSeek, Beat: beat})
}

// CreateClip allocates a clip id and enqueues its creation.
func (s *Session) CreateClip(name string, lengthBeats float64, loop bool) ids.ClipID {
	id := ids.ClipID(s.clipIDs.Next())
	s.Arrangement.CreateClip(id, name, lengthBeats, loop)
	s.push(bridge.Command{Kind: bridge.CmdCreateClip, Clip: id, LengthBeats: lengthBeats, Loop: loop})
	return id
}

// DeleteClip removes a clip locally and enqueues the deletion.
func (s *Session) DeleteClip(id ids.ClipID) {
	s.Arrangement.DeleteClip(id)
	s.push(bridge.Command{Kind: bridge.CmdDeleteClip, Clip: id})
}

// AddNote appends a note to a clip.
func (s *Session) AddNote(clip ids.ClipID, note uint8, velocity float32, startBeat, durBeats float64) {
	s.Arrangement.AddNote(clip, arrangement.NoteEvent{StartBeat: startBeat, DurationBeats: durBeats, Note: note, Velocity: velocity})
	s.push(bridge.Command{Kind: bridge.CmdAddNote, Clip: clip, Note: note, Velocity: velocity, StartBeat: startBeat, DurBeats: durBeats})
}

// AddNotesBulk appends many notes to a clip in one shot (e.g. pasting or
// importing a pattern). Sending one bridge.Command per note would flood
// the command ring for a large paste, so this takes the double-buffer
// path spec.md calls out as the alternative for bulk edits: the whole
// arrangement is deep-copied once locally and handed to the audio thread
// as a single CmdSwapArrangementSnapshot, which it installs by swapping a
// pointer rather than replaying thousands of individual edits.
func (s *Session) AddNotesBulk(clip ids.ClipID, notes []arrangement.NoteEvent) {
	for _, n := range notes {
		s.Arrangement.AddNote(clip, n)
	}
	s.push(bridge.Command{Kind: bridge.CmdSwapArrangementSnapshot, ArrangementSnapshot: s.Arrangement.Snapshot()})
}

// AddAudioToClip appends an audio region to a clip, referencing an entry
// already resident in the audio pool (see internal/samplepool).
func (s *Session) AddAudioToClip(clip ids.ClipID, audio ids.AudioID, startBeat, durBeats, srcOffsetS float64, gain float32) {
	s.Arrangement.AddAudioRegion(clip, arrangement.AudioRegion{
		StartBeat: startBeat, DurationBeats: durBeats, AudioID: audio,
		SourceOffsetSeconds: srcOffsetS, Gain: gain,
	})
	s.push(bridge.Command{Kind: bridge.CmdAddAudioToClip, Clip: clip, Audio: audio, StartBeat: startBeat, DurBeats: durBeats, SrcOffsetS: srcOffsetS, Gain: gain})
}

// ClearClip empties a clip's notes and audio regions.
func (s *Session) ClearClip(clip ids.ClipID) {
	s.Arrangement.ClearClip(clip)
	s.push(bridge.Command{Kind: bridge.CmdClearClip, Clip: clip})
}

// SetSlot assigns a clip to a scene column on a track.
func (s *Session) SetSlot(track ids.TrackID, scene int, clip ids.ClipID) {
	s.Arrangement.SetSlot(track, scene, clip)
}

// SchedulePlacement adds a timeline placement.
func (s *Session) SchedulePlacement(track ids.TrackID, clip ids.ClipID, startBeat float64) {
	s.Arrangement.SchedulePlacement(track, arrangement.Placement{ClipID: clip, StartBeat: startBeat})
}

// LaunchScene, LaunchClip, StopClip and StopAllClips drive the session
// (clip-launch) view.
func (s *Session) LaunchScene(scene int) {
	s.push(bridge.Command{Kind: bridge.CmdLaunchScene, Scene: scene})
}

func (s *Session) LaunchClip(track ids.TrackID, scene int) {
	s.push(bridge.Command{Kind: bridge.CmdLaunchClip, Track: track, Scene: scene})
}

func (s *Session) StopClip(track ids.TrackID) {
	s.push(bridge.Command{Kind: bridge.CmdStopClip, Track: track})
}

func (s *Session) StopAllClips() {
	s.push(bridge.Command{Kind: bridge.CmdStopAllClips})
}

// NoteOn and NoteOff inject live MIDI events addressed to a track's
// target_node; the audio-side Controller resolves voice allocation.
func (s *Session) NoteOn(track ids.TrackID, note uint8, velocity float32) {
	s.push(bridge.Command{Kind: bridge.CmdNoteOn, Track: track, Note: note, Velocity: velocity})
}

func (s *Session) NoteOff(track ids.TrackID, note uint8) {
	s.push(bridge.Command{Kind: bridge.CmdNoteOff, Track: track, Note: note})
}

// RecompileGraph forces a rebuild even if no structural command is
// pending, e.g. after a bulk local edit made with the lower-level
// GraphDef/Arrangement accessors directly.
func (s *Session) RecompileGraph() {
	s.push(bridge.Command{Kind: bridge.CmdRecompileGraph})
	s.commands.MarkPendingRecompile()
}

// RegisterAudio records a pool entry's id with the local audio-id
// allocator and arrangement, so subsequent AddAudioToClip calls can
// reference it. The entry itself must already have been hydrated (see
// internal/samplepool) before it reaches here.
func (s *Session) RegisterAudio(entry *arrangement.AudioEntry) ids.AudioID {
	id := ids.AudioID(s.audioIDs.Next())
	s.Arrangement.AddAudioToPool(id, entry)
	return id
}

// NewScene allocates a scene id for the clip-launch grid.
func (s *Session) NewScene(name string) ids.SceneID {
	id := ids.SceneID(s.sceneIDs.Next())
	s.Arrangement.Scenes[id] = &arrangement.Scene{ID: id, Name: name}
	return id
}
