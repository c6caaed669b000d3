/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"math"
	"sort"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
)

// DefaultQuantizeBeats is the launch quantization grid: the next bar
// (4 beats).
const DefaultQuantizeBeats = 4.0

type sessionClip struct {
	clip      ids.ClipID
	startBeat float64 // absolute beat the clip began playing at
}

type pendingLaunch struct {
	track      ids.TrackID
	clip       ids.ClipID // ids.NoClip means "stop"
	launchBeat float64    // absolute beat at which this takes effect
}

// pendingEvent pairs a materialized event with the absolute beat it occurs
// at, before that beat is converted into a block-relative sample offset.
type pendingEvent struct {
	ev   node.Event
	beat float64
}

// ClipPlayback drives both the session view (scene/clip launching,
// quantized to bar boundaries) and the timeline view (fixed placements).
// It is owned by the audio-side EngineController and holds no
// reference back into the UI-owned Session.
type ClipPlayback struct {
	QuantizeBeats float64
	// TimelineLoops controls whether the timeline view loops the project
	// once it plays through, or stops (see DESIGN.md — default false:
	// play once then stop).
	TimelineLoops bool

	pending []pendingLaunch
	active  map[ids.TrackID]sessionClip

	timelineStopped bool
}

// NewClipPlayback returns a playback state with default quantization.
func NewClipPlayback() *ClipPlayback {
	return &ClipPlayback{
		QuantizeBeats: DefaultQuantizeBeats,
		active:        make(map[ids.TrackID]sessionClip),
	}
}

// LaunchScene queues every track's clip in scene column idx to start at
// the next quantization boundary, replacing any pending/playing
// session-view clip on that track.
func (cp *ClipPlayback) LaunchScene(a *arrangement.Arrangement, idx int, currentBeat float64) {
	boundary := nextBoundary(currentBeat, cp.quantize())
	for key, clipID := range a.Slots {
		if key.Scene != idx {
			continue
		}
		cp.queue(key.Track, clipID, boundary)
	}
}

// LaunchClip queues a single track's clip.
func (cp *ClipPlayback) LaunchClip(track ids.TrackID, clip ids.ClipID, currentBeat float64) {
	boundary := nextBoundary(currentBeat, cp.quantize())
	cp.queue(track, clip, boundary)
}

// StopClip queues a track to stop at the next quantization boundary.
func (cp *ClipPlayback) StopClip(track ids.TrackID, currentBeat float64) {
	boundary := nextBoundary(currentBeat, cp.quantize())
	cp.queue(track, ids.NoClip, boundary)
}

// StopAllClips queues every currently active or pending track to stop.
func (cp *ClipPlayback) StopAllClips(currentBeat float64) {
	boundary := nextBoundary(currentBeat, cp.quantize())
	seen := make(map[ids.TrackID]bool)
	for t := range cp.active {
		seen[t] = true
	}
	for _, p := range cp.pending {
		seen[p.track] = true
	}
	for t := range seen {
		cp.queue(t, ids.NoClip, boundary)
	}
}

func (cp *ClipPlayback) queue(track ids.TrackID, clip ids.ClipID, boundary float64) {
	kept := cp.pending[:0]
	for _, p := range cp.pending {
		if p.track != track {
			kept = append(kept, p)
		}
	}
	cp.pending = append(kept, pendingLaunch{track: track, clip: clip, launchBeat: boundary})
}

func (cp *ClipPlayback) quantize() float64 {
	if cp.QuantizeBeats <= 0 {
		return DefaultQuantizeBeats
	}
	return cp.QuantizeBeats
}

func nextBoundary(currentBeat, grid float64) float64 {
	n := math.Floor(currentBeat/grid) + 1
	return n * grid
}

// StopTimeline marks the timeline view as stopped (used once a
// non-looping timeline has played through to its end).
func (cp *ClipPlayback) StopTimeline() { cp.timelineStopped = true }

// Sync applies any pending session-view transitions whose boundary falls
// at or before the start of this block. Called once per block before
// event materialization.
func (cp *ClipPlayback) Sync(currentBeat float64) {
	kept := cp.pending[:0]
	for _, p := range cp.pending {
		if p.launchBeat > currentBeat {
			kept = append(kept, p)
			continue
		}
		if p.clip.Valid() {
			cp.active[p.track] = sessionClip{clip: p.clip, startBeat: p.launchBeat}
		} else {
			delete(cp.active, p.track)
		}
	}
	cp.pending = kept
}

// MaterializeBlock appends every note/audio event from both the session
// view and the timeline view whose onset or release falls within
// [blockStartBeat, blockEndBeat) into events, then returns the events
// sorted by sample offset (stable, ties broken by enqueue order).
func (cp *ClipPlayback) MaterializeBlock(
	a *arrangement.Arrangement,
	blockStartBeat, blockEndBeat, samplesPerBeat float64,
	injected []node.Event,
) []node.Event {
	var pend []pendingEvent
	for _, e := range injected {
		pend = append(pend, pendingEvent{ev: e, beat: blockStartBeat + float64(e.SampleOffset)/samplesPerBeat})
	}

	anySolo := false
	for _, t := range a.Tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}
	emit := func(track *arrangement.Track) bool {
		if track.Mute {
			return false
		}
		if anySolo && !track.Solo {
			return false
		}
		return true
	}

	// Session view.
	for trackID, sc := range cp.active {
		track, ok := a.Tracks[trackID]
		if !ok || !emit(track) {
			continue
		}
		clip, ok := a.Clips[sc.clip]
		if !ok {
			continue
		}
		emitClipEvents(clip, sc.startBeat, clip.Loop, blockStartBeat, blockEndBeat, track.TargetNode, &pend)
	}

	// Timeline view.
	if !cp.timelineStopped {
		anyTimelineActive := false
		for trackID, placements := range a.Timeline {
			track, ok := a.Tracks[trackID]
			if !ok || !emit(track) {
				continue
			}
			for _, p := range placements {
				clip, ok := a.Clips[p.ClipID]
				if !ok {
					continue
				}
				end := p.StartBeat + clip.LengthBeats
				if blockStartBeat < end {
					anyTimelineActive = true
				}
				emitClipEvents(clip, p.StartBeat, cp.TimelineLoops, blockStartBeat, blockEndBeat, track.TargetNode, &pend)
			}
		}
		if !cp.TimelineLoops && !anyTimelineActive && len(a.Timeline) > 0 {
			cp.StopTimeline()
		}
	}

	events := make([]node.Event, len(pend))
	for i, pe := range pend {
		pe.ev.SampleOffset = SampleOffset(pe.beat, blockStartBeat, samplesPerBeat)
		events[i] = pe.ev
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].SampleOffset < events[j].SampleOffset
	})
	return events
}

// emitClipEvents appends NoteOn/NoteOff/AudioStart/AudioStop events for one
// clip instance (started at clipStartBeat, looping per loop) whose onset or
// release intersects [blockStartBeat, blockEndBeat).
func emitClipEvents(clip *arrangement.ClipDef, clipStartBeat float64, loop bool, blockStartBeat, blockEndBeat float64, target ids.NodeID, pend *[]pendingEvent) {
	if clip.LengthBeats <= 0 {
		return
	}
	for _, k := range loopIterations(clipStartBeat, clip.LengthBeats, loop, blockStartBeat, blockEndBeat) {
		base := clipStartBeat + k*clip.LengthBeats
		for _, n := range clip.Notes {
			onset := base + n.StartBeat
			release := onset + n.DurationBeats
			if onset >= blockStartBeat && onset < blockEndBeat {
				*pend = append(*pend, pendingEvent{
					ev: node.Event{
						Kind:     node.EventNoteOn,
						Target:   node.Target{Kind: node.TargetNode, Node: target},
						Note:     n.Note,
						Velocity: n.Velocity,
					},
					beat: onset,
				})
			}
			if release >= blockStartBeat && release < blockEndBeat {
				*pend = append(*pend, pendingEvent{
					ev: node.Event{
						Kind:   node.EventNoteOff,
						Target: node.Target{Kind: node.TargetNode, Node: target},
						Note:   n.Note,
					},
					beat: release,
				})
			}
		}
		for _, r := range clip.AudioRegions {
			onset := base + r.StartBeat
			release := onset + r.DurationBeats
			if onset >= blockStartBeat && onset < blockEndBeat {
				*pend = append(*pend, pendingEvent{
					ev: node.Event{
						Kind:                node.EventAudioStart,
						Target:              node.Target{Kind: node.TargetNode, Node: target},
						AudioID:             r.AudioID,
						SourceOffsetSeconds: r.SourceOffsetSeconds,
						Gain:                r.Gain,
					},
					beat: onset,
				})
			}
			if release >= blockStartBeat && release < blockEndBeat {
				*pend = append(*pend, pendingEvent{
					ev: node.Event{
						Kind:    node.EventAudioStop,
						Target:  node.Target{Kind: node.TargetNode, Node: target},
						AudioID: r.AudioID,
					},
					beat: release,
				})
			}
		}
	}
}

// loopIterations returns the set of loop indices k (clipStartBeat +
// k*length) whose note range could plausibly intersect
// [blockStartBeat, blockEndBeat). For non-looping clips this is always
// {0}, whatever the block; emitClipEvents' own onset/release window check
// then decides whether anything is emitted.
func loopIterations(clipStartBeat, length float64, loop bool, blockStartBeat, blockEndBeat float64) []float64 {
	if !loop {
		return []float64{0}
	}
	firstK := math.Floor((blockStartBeat - clipStartBeat) / length)
	return []float64{firstK - 1, firstK, firstK + 1}
}
