/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package voice

import "testing"

func TestAllocator_IdleFirst(t *testing.T) {
	a := NewAllocator(4)
	v, _, stole := a.NoteOn(60)
	if v < 0 || v >= 4 {
		t.Fatalf("NoteOn() = %d, want a voice in [0,4)", v)
	}
	if stole {
		t.Errorf("NoteOn() on an idle pool reported a steal")
	}
	if !a.IsActive(v) {
		t.Errorf("IsActive(%d) = false, want true after NoteOn", v)
	}
}

func TestAllocator_RetriggerSameNote(t *testing.T) {
	// Two voices, both taken: with no idle voice left, a repeated note
	// retriggers the voice already playing it.
	a := NewAllocator(2)
	first, _, _ := a.NoteOn(60)
	a.NoteOn(61)
	again, _, stole := a.NoteOn(60)
	if again != first {
		t.Errorf("NoteOn(60) again = %d, want retrigger of voice %d", again, first)
	}
	if stole {
		t.Errorf("retrigger reported a steal, want false")
	}
}

func TestAllocator_FIFOSteal(t *testing.T) {
	a := NewAllocator(4)
	notes := []uint8{60, 62, 64, 65}
	assigned := make(map[uint8]int, len(notes))
	for _, n := range notes {
		assigned[n], _, _ = a.NoteOn(n)
	}

	stolen, stolenNote, stoleActive := a.NoteOn(67)
	if stolen != assigned[60] {
		t.Errorf("5th NoteOn stole voice %d, want oldest voice %d (note 60)", stolen, assigned[60])
	}
	if !stoleActive {
		t.Errorf("stealing an actively-sounding voice reported stoleActive = false, want true")
	}
	if stolenNote != 60 {
		t.Errorf("stolenNote = %d, want 60 (the note the stolen voice was playing)", stolenNote)
	}

	active := 0
	for i := 0; i < a.Len(); i++ {
		if a.IsActive(i) {
			active++
		}
	}
	if active != 4 {
		t.Errorf("active voices = %d, want 4 (max_voices)", active)
	}
}

func TestAllocator_NoteOffMarksReleasedNotIdle(t *testing.T) {
	a := NewAllocator(2)
	v, _, _ := a.NoteOn(60)
	idx, ok := a.NoteOff(60)
	if !ok || idx != v {
		t.Fatalf("NoteOff(60) = (%d, %v), want (%d, true)", idx, ok, v)
	}
	if !a.IsActive(v) {
		t.Errorf("IsActive(%d) = false, want true: release tail is still rendering until Deactivate", v)
	}
}

func TestAllocator_ReleasedVoicesStolenBeforeActive(t *testing.T) {
	a := NewAllocator(2)
	v0, _, _ := a.NoteOn(60)
	a.NoteOn(62)
	a.NoteOff(60) // v0 now released, v1 still sounding

	stolen, _, stoleActive := a.NoteOn(64)
	if stolen != v0 {
		t.Errorf("NoteOn(64) stole voice %d, want released voice %d", stolen, v0)
	}
	if stoleActive {
		t.Errorf("stealing an already-released voice reported stoleActive = true, want false (no second NoteOff needed)")
	}
}

func TestAllocator_Deactivate(t *testing.T) {
	a := NewAllocator(2)
	v, _, _ := a.NoteOn(60)
	a.Deactivate(v)
	if a.IsActive(v) {
		t.Errorf("IsActive(%d) = true after Deactivate, want false", v)
	}
}

func TestAllocator_DirectTargeting(t *testing.T) {
	a := NewAllocator(4)
	a.NoteOnTarget(2, 72)
	if !a.IsActive(2) {
		t.Errorf("IsActive(2) = false after NoteOnTarget, want true")
	}
	a.NoteOffTarget(2)
	if !a.IsActive(2) {
		t.Errorf("IsActive(2) = false after NoteOffTarget, want true (release tail)")
	}
}
