/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package voice implements the fixed-size polyphonic voice allocator
// idle-first assignment, same-note retrigger and FIFO-oldest
// stealing once the pool is exhausted. It holds no locks and allocates
// nothing after NewAllocator, so NoteOn/NoteOff/Deactivate are safe to
// call from the audio thread.
package voice

// state is one voice slot's bookkeeping. noteValid distinguishes an idle
// slot (never allocated, or fully deactivated) from one currently sounding.
type state struct {
	noteValid bool
	note      uint8
	released  bool   // NoteOff seen; still rendering its release tail
	order     uint64 // allocation sequence number, for FIFO stealing
}

// Allocator assigns NoteOn events to one of MaxVoices fixed slots.
type Allocator struct {
	voices []state
	seq    uint64
}

// NewAllocator returns an allocator with maxVoices idle slots.
func NewAllocator(maxVoices int) *Allocator {
	return &Allocator{voices: make([]state, maxVoices)}
}

// Len returns the pool size.
func (a *Allocator) Len() int { return len(a.voices) }

// IsActive reports whether voice i currently holds a note (sounding or
// in its release tail). The runtime graph only processes active voices.
func (a *Allocator) IsActive(i int) bool {
	return i >= 0 && i < len(a.voices) && a.voices[i].noteValid
}

// IsReleased reports whether voice i has seen NoteOff and is only
// rendering its release tail. Used to decide when a voice whose nodes
// have all gone silent can be deactivated.
func (a *Allocator) IsReleased(i int) bool {
	return i >= 0 && i < len(a.voices) && a.voices[i].noteValid && a.voices[i].released
}

// NoteOn assigns a voice to note, preferring (in order): an idle voice,
// an existing voice already playing the same note (retrigger), a
// voice already in its release tail, or the oldest-allocated voice
// overall (FIFO steal). Returns the assigned voice index, and — only
// when the steal took a voice that was still actively sounding (never
// released) — the note it was holding, so the caller can synthesize the
// NoteOff spec.md says a steal must send before the new NoteOn.
func (a *Allocator) NoteOn(note uint8) (voiceIdx int, stolenNote uint8, stoleActive bool) {
	if len(a.voices) == 0 {
		return -1, 0, false
	}

	for i := range a.voices {
		if !a.voices[i].noteValid {
			a.allocate(i, note)
			return i, 0, false
		}
	}

	for i := range a.voices {
		if a.voices[i].noteValid && a.voices[i].note == note {
			a.allocate(i, note)
			return i, 0, false
		}
	}

	if idx, ok := a.oldest(true); ok {
		a.allocate(idx, note)
		return idx, 0, false
	}

	idx, _ := a.oldest(false)
	prev := a.voices[idx]
	a.allocate(idx, note)
	if prev.noteValid && !prev.released {
		return idx, prev.note, true
	}
	return idx, 0, false
}

// NoteOff marks the voice currently sounding note as released (its
// envelope may still be decaying), making it the first candidate for
// stealing. Returns the voice index and whether a matching voice was
// found.
func (a *Allocator) NoteOff(note uint8) (int, bool) {
	for i := range a.voices {
		if a.voices[i].noteValid && a.voices[i].note == note && !a.voices[i].released {
			a.voices[i].released = true
			return i, true
		}
	}
	return -1, false
}

// Deactivate frees voice i unconditionally, e.g. once its node reports
// its release tail has fully decayed to silence.
func (a *Allocator) Deactivate(i int) {
	if i < 0 || i >= len(a.voices) {
		return
	}
	a.voices[i] = state{}
}

// NoteOnTarget and NoteOffTarget bypass allocation entirely, addressing
// a specific voice index directly. They still update the allocator's
// bookkeeping so subsequent NoteOn calls steal correctly. Nothing in the
// engine calls them: session-view clip playback addresses a track's
// target node, and its notes are allocated through NoteOn/NoteOff.
func (a *Allocator) NoteOnTarget(i int, note uint8) {
	if i < 0 || i >= len(a.voices) {
		return
	}
	a.allocate(i, note)
}

func (a *Allocator) NoteOffTarget(i int) {
	if i < 0 || i >= len(a.voices) {
		return
	}
	a.voices[i].released = true
}

func (a *Allocator) allocate(i int, note uint8) {
	a.seq++
	a.voices[i] = state{noteValid: true, note: note, order: a.seq}
}

// oldest returns the lowest-order voice, restricted to released voices
// when releasedOnly is true.
func (a *Allocator) oldest(releasedOnly bool) (int, bool) {
	best := -1
	var bestOrder uint64
	for i := range a.voices {
		if releasedOnly && !a.voices[i].released {
			continue
		}
		if best == -1 || a.voices[i].order < bestOrder {
			best = i
			bestOrder = a.voices[i].order
		}
	}
	return best, best != -1
}
