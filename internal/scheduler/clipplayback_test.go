/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"testing"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
)

func newTestArrangement() (*arrangement.Arrangement, ids.NodeID) {
	a := arrangement.New()
	target := ids.NodeID(1)
	track := a.CreateTrack(0, "lead")
	track.TargetNode = target
	return a, target
}

func TestNextBoundary_RoundsUpToTheNextGridLine(t *testing.T) {
	cases := []struct {
		name    string
		current float64
		grid    float64
		want    float64
	}{
		{"mid-bar rounds up to next bar", 1.5, 4, 4},
		{"exactly on a boundary still advances to the next one", 4, 4, 8},
		{"beat zero advances to the first boundary", 0, 4, 4},
		{"just before a boundary still rounds up to it", 3.999, 4, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextBoundary(tc.current, tc.grid); got != tc.want {
				t.Errorf("nextBoundary(%v, %v) = %v, want %v", tc.current, tc.grid, got, tc.want)
			}
		})
	}
}

func TestClipPlayback_LaunchSceneQueuesEveryTrackInThatColumn(t *testing.T) {
	a, _ := newTestArrangement()
	a.CreateTrack(1, "drums")
	a.SetSlot(0, 2, 10)
	a.SetSlot(1, 2, 11)
	a.SetSlot(0, 3, 12) // different scene column: must not be queued

	cp := NewClipPlayback()
	cp.LaunchScene(a, 2, 0)

	if len(cp.pending) != 2 {
		t.Fatalf("pending = %d entries, want 2 (one per track in scene 2)", len(cp.pending))
	}
	byTrack := map[ids.TrackID]ids.ClipID{}
	for _, p := range cp.pending {
		byTrack[p.track] = p.clip
	}
	if byTrack[0] != 10 || byTrack[1] != 11 {
		t.Errorf("queued clips = %+v, want {0:10, 1:11}", byTrack)
	}
}

func TestClipPlayback_LaunchReplacesAnyPendingLaunchOnTheSameTrack(t *testing.T) {
	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.LaunchClip(0, 20, 0) // supersedes the first queued launch before it ever syncs

	if len(cp.pending) != 1 {
		t.Fatalf("pending = %d entries, want 1 (second launch replaces the first)", len(cp.pending))
	}
	if cp.pending[0].clip != 20 {
		t.Errorf("pending clip = %v, want 20", cp.pending[0].clip)
	}
}

func TestClipPlayback_SyncActivatesOnlyAtOrPastTheBoundary(t *testing.T) {
	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0) // quantizes to beat 4

	cp.Sync(3.9)
	if _, active := cp.active[0]; active {
		t.Fatalf("clip activated before its launch boundary")
	}
	if len(cp.pending) != 1 {
		t.Fatalf("pending dropped before boundary reached")
	}

	cp.Sync(4)
	sc, active := cp.active[0]
	if !active {
		t.Fatalf("clip not activated at its launch boundary")
	}
	if sc.clip != 10 || sc.startBeat != 4 {
		t.Errorf("active session clip = %+v, want clip 10 started at beat 4", sc)
	}
	if len(cp.pending) != 0 {
		t.Errorf("pending still has %d entries after Sync consumed the boundary", len(cp.pending))
	}
}

func TestClipPlayback_StopClipClearsTheActiveSlotAtTheBoundary(t *testing.T) {
	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.Sync(4)
	if _, active := cp.active[0]; !active {
		t.Fatalf("setup: clip never activated")
	}

	cp.StopClip(0, 4)
	cp.Sync(8)
	if _, active := cp.active[0]; active {
		t.Errorf("track still active after StopClip's boundary passed")
	}
}

func TestClipPlayback_StopAllClipsCoversActiveAndPendingTracks(t *testing.T) {
	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.Sync(4) // track 0 now active
	cp.LaunchClip(1, 20, 4) // track 1 only pending, never synced

	cp.StopAllClips(4)
	cp.Sync(8)

	if _, active := cp.active[0]; active {
		t.Errorf("track 0 still active after StopAllClips")
	}
	if _, active := cp.active[1]; active {
		t.Errorf("track 1 (was only pending) still active after StopAllClips")
	}
}

func TestClipPlayback_MaterializeBlockEmitsNoteOnWithinTheBlockWindow(t *testing.T) {
	a, target := newTestArrangement()
	a.CreateClip(10, "pattern", 4, false)
	a.AddNote(10, arrangement.NoteEvent{StartBeat: 0, DurationBeats: 1, Note: 60, Velocity: 1})

	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.Sync(4) // clip starts playing at beat 4

	samplesPerBeat := 100.0
	events := cp.MaterializeBlock(a, 4, 8, samplesPerBeat, nil)

	var onEvents []node.Event
	for _, e := range events {
		if e.Kind == node.EventNoteOn {
			onEvents = append(onEvents, e)
		}
	}
	if len(onEvents) != 1 {
		t.Fatalf("got %d NoteOn events, want 1", len(onEvents))
	}
	if onEvents[0].Note != 60 || onEvents[0].Target.Node != target {
		t.Errorf("NoteOn = %+v, want note 60 targeting node %v", onEvents[0], target)
	}
	if onEvents[0].SampleOffset != 0 {
		t.Errorf("NoteOn sample offset = %d, want 0 (note onset is at the block's first sample)", onEvents[0].SampleOffset)
	}
}

func TestClipPlayback_MaterializeBlockEmitsNoteOffAtTheNotesRelease(t *testing.T) {
	a, target := newTestArrangement()
	a.CreateClip(10, "pattern", 16, false)
	// Note lasts 5 beats (onset 4, release 9) so it spans two blocks.
	a.AddNote(10, arrangement.NoteEvent{StartBeat: 0, DurationBeats: 5, Note: 60, Velocity: 1})

	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.Sync(4) // clip starts playing at beat 4

	samplesPerBeat := 100.0
	events := cp.MaterializeBlock(a, 4, 8, samplesPerBeat, nil)
	for _, e := range events {
		if e.Kind == node.EventNoteOff {
			t.Fatalf("NoteOff emitted in a block that ends before the note's release (beat 9)")
		}
	}

	events = cp.MaterializeBlock(a, 8, 12, samplesPerBeat, nil)
	var offEvents []node.Event
	for _, e := range events {
		if e.Kind == node.EventNoteOff {
			offEvents = append(offEvents, e)
		}
	}
	if len(offEvents) != 1 {
		t.Fatalf("got %d NoteOff events in the release block, want 1", len(offEvents))
	}
	if offEvents[0].Note != 60 || offEvents[0].Target.Node != target {
		t.Errorf("NoteOff = %+v, want note 60 targeting node %v", offEvents[0], target)
	}
	if want := 100; offEvents[0].SampleOffset != want {
		t.Errorf("NoteOff sample offset = %d, want %d (beat 9 is 1 beat into an [8,12) block)", offEvents[0].SampleOffset, want)
	}
}

func TestClipPlayback_LoopingClipRepeatsNotesEachIteration(t *testing.T) {
	a, target := newTestArrangement()
	a.CreateClip(10, "loop", 4, true) // 4-beat loop
	a.AddNote(10, arrangement.NoteEvent{StartBeat: 0, DurationBeats: 1, Note: 60, Velocity: 1})

	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.Sync(4) // clip starts at beat 4; iterations recur at 4, 8, 12, ...

	samplesPerBeat := 100.0
	// Block [12, 16) covers the note onset at the start of the clip's
	// third loop iteration (4 + 2*4 = 12).
	events := cp.MaterializeBlock(a, 12, 16, samplesPerBeat, nil)

	var onCount int
	for _, e := range events {
		if e.Kind == node.EventNoteOn && e.Note == 60 {
			onCount++
			if e.Target.Node != target {
				t.Errorf("NoteOn target = %v, want %v", e.Target.Node, target)
			}
		}
	}
	if onCount != 1 {
		t.Fatalf("got %d NoteOn(60) in the third loop iteration's block, want 1", onCount)
	}
}

func TestClipPlayback_LoopIterationsCoversThreeConsecutiveIndices(t *testing.T) {
	got := loopIterations(4, 4, true, 12, 16)
	want := []float64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("loopIterations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("loopIterations[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestClipPlayback_NonLoopingClipHasOnlyOneIteration(t *testing.T) {
	got := loopIterations(0, 4, false, 100, 200)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("loopIterations (non-looping) = %v, want [0]", got)
	}
}

func TestClipPlayback_MutedTrackIsSilencedEvenWhenActive(t *testing.T) {
	a, _ := newTestArrangement()
	a.Tracks[0].Mute = true
	a.CreateClip(10, "pattern", 4, false)
	a.AddNote(10, arrangement.NoteEvent{StartBeat: 0, DurationBeats: 1, Note: 60, Velocity: 1})

	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.Sync(4)

	events := cp.MaterializeBlock(a, 4, 8, 100.0, nil)
	if len(events) != 0 {
		t.Errorf("got %d events from a muted track, want 0", len(events))
	}
}

func TestClipPlayback_SoloSilencesEveryOtherTrack(t *testing.T) {
	a, _ := newTestArrangement()
	soloTrack := a.CreateTrack(1, "solo")
	soloTrack.TargetNode = 2
	soloTrack.Solo = true

	a.CreateClip(10, "on-track-0", 4, false)
	a.AddNote(10, arrangement.NoteEvent{StartBeat: 0, DurationBeats: 1, Note: 60, Velocity: 1})
	a.CreateClip(20, "on-track-1", 4, false)
	a.AddNote(20, arrangement.NoteEvent{StartBeat: 0, DurationBeats: 1, Note: 72, Velocity: 1})

	cp := NewClipPlayback()
	cp.LaunchClip(0, 10, 0)
	cp.LaunchClip(1, 20, 0)
	cp.Sync(4)

	events := cp.MaterializeBlock(a, 4, 8, 100.0, nil)
	for _, e := range events {
		if e.Kind == node.EventNoteOn && e.Note == 60 {
			t.Errorf("non-solo track 0 emitted a NoteOn while track 1 is soloed")
		}
	}
	var soloedOn bool
	for _, e := range events {
		if e.Kind == node.EventNoteOn && e.Note == 72 {
			soloedOn = true
		}
	}
	if !soloedOn {
		t.Errorf("soloed track 1 produced no NoteOn")
	}
}

func TestClipPlayback_TimelinePlacementPlaysAlongsideSessionView(t *testing.T) {
	a, target := newTestArrangement()
	a.CreateClip(10, "timeline clip", 4, false)
	a.AddNote(10, arrangement.NoteEvent{StartBeat: 0, DurationBeats: 1, Note: 67, Velocity: 1})
	a.SchedulePlacement(0, arrangement.Placement{ClipID: 10, StartBeat: 0})

	cp := NewClipPlayback()
	events := cp.MaterializeBlock(a, 0, 4, 100.0, nil)

	if len(events) == 0 {
		t.Fatalf("timeline placement produced no events")
	}
	found := false
	for _, e := range events {
		if e.Kind == node.EventNoteOn && e.Note == 67 && e.Target.Node == target {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a NoteOn(67) from the timeline placement, got %+v", events)
	}
}

func TestClipPlayback_NonLoopingTimelineStopsAfterItPlaysThrough(t *testing.T) {
	a, _ := newTestArrangement()
	a.CreateClip(10, "one-shot", 4, false)
	a.SchedulePlacement(0, arrangement.Placement{ClipID: 10, StartBeat: 0})

	cp := NewClipPlayback() // TimelineLoops defaults to false

	cp.MaterializeBlock(a, 0, 4, 100.0, nil) // clip still playing through this block
	if cp.timelineStopped {
		t.Fatalf("timeline marked stopped while the clip was still within its length")
	}

	cp.MaterializeBlock(a, 8, 12, 100.0, nil) // well past the clip's 4-beat length
	if !cp.timelineStopped {
		t.Errorf("timeline never marked stopped after its one placement played through")
	}
}

func TestClipPlayback_InjectedEventsAreRetimedAgainstTheBlockStart(t *testing.T) {
	a, _ := newTestArrangement()
	cp := NewClipPlayback()

	injected := []node.Event{
		{Kind: node.EventNoteOn, Target: node.Target{Kind: node.TargetNode, Node: 1}, Note: 69, SampleOffset: 50},
	}
	events := cp.MaterializeBlock(a, 10, 11, 100.0, injected)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 injected NoteOn", len(events))
	}
	if events[0].SampleOffset != 50 {
		t.Errorf("injected event SampleOffset = %d, want 50 (round-trips through beat conversion unchanged)", events[0].SampleOffset)
	}
}
