/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package arrangement holds the musical arrangement: tracks, clips, scenes,
// the timeline and the shared audio pool.
package arrangement

import "github.com/friendsincode/hyasynth/internal/ids"

// Track is one mixer channel routing notes into an instrument/effect chain.
type Track struct {
	ID         ids.TrackID
	Name       string
	Volume     float32 // [0,1]
	Pan        float32 // [-1,1]
	Mute       bool
	Solo       bool
	TargetNode ids.NodeID // ids.NoNode if unset
}

// NoteEvent is one note within a clip.
type NoteEvent struct {
	StartBeat     float64
	DurationBeats float64
	Note          uint8   // 0..127
	Velocity      float32 // [0,1]
}

// AudioRegion places a region of a pooled audio entry within a clip.
type AudioRegion struct {
	StartBeat            float64
	DurationBeats        float64
	AudioID              ids.AudioID
	SourceOffsetSeconds  float64
	Gain                 float32
}

// ClipDef is a reusable container of notes and/or audio regions.
type ClipDef struct {
	ID           ids.ClipID
	Name         string
	LengthBeats  float64
	Notes        []NoteEvent
	AudioRegions []AudioRegion
	Loop         bool
}

// Scene is one column in the clip-slot grid.
type Scene struct {
	ID   ids.SceneID
	Name string
}

// SlotKey addresses one cell of the clip-slot grid.
type SlotKey struct {
	Track ids.TrackID
	Scene int // scene column index, not ids.SceneID
}

// Placement binds a clip to a beat position on a track's timeline.
type Placement struct {
	ClipID    ids.ClipID
	StartBeat float64
}

// AudioEntry is one pooled sample asset. Samples is a shared, immutable
// handle: many regions/players may reference the same entry without
// copying; it lives until RemoveAudio and every reference releases.
type AudioEntry struct {
	Name       string
	SampleRate int
	Channels   int
	Samples    *[]float32 // interleaved by Channels
}

// Arrangement is the full mutable, UI-owned musical structure.
type Arrangement struct {
	Tracks    map[ids.TrackID]*Track
	Clips     map[ids.ClipID]*ClipDef
	Scenes    map[ids.SceneID]*Scene
	Slots     map[SlotKey]ids.ClipID // absent entry means empty slot
	Timeline  map[ids.TrackID][]Placement
	AudioPool map[ids.AudioID]*AudioEntry
}

// New returns an empty arrangement.
func New() *Arrangement {
	return &Arrangement{
		Tracks:    make(map[ids.TrackID]*Track),
		Clips:     make(map[ids.ClipID]*ClipDef),
		Scenes:    make(map[ids.SceneID]*Scene),
		Slots:     make(map[SlotKey]ids.ClipID),
		Timeline:  make(map[ids.TrackID][]Placement),
		AudioPool: make(map[ids.AudioID]*AudioEntry),
	}
}

// CreateTrack adds a track with sensible defaults (unity volume, centered
// pan, no target).
func (a *Arrangement) CreateTrack(id ids.TrackID, name string) *Track {
	t := &Track{ID: id, Name: name, Volume: 1.0, Pan: 0.0, TargetNode: ids.NoNode}
	a.Tracks[id] = t
	return t
}

// DeleteTrack removes a track, its timeline placements and its slot
// entries.
func (a *Arrangement) DeleteTrack(id ids.TrackID) {
	delete(a.Tracks, id)
	delete(a.Timeline, id)
	for k := range a.Slots {
		if k.Track == id {
			delete(a.Slots, k)
		}
	}
}

// CreateClip adds a clip.
func (a *Arrangement) CreateClip(id ids.ClipID, name string, lengthBeats float64, loop bool) *ClipDef {
	c := &ClipDef{ID: id, Name: name, LengthBeats: lengthBeats, Loop: loop}
	a.Clips[id] = c
	return c
}

// DeleteClip removes a clip along with any slot or timeline placements
// referencing it.
func (a *Arrangement) DeleteClip(id ids.ClipID) {
	delete(a.Clips, id)
	for k, v := range a.Slots {
		if v == id {
			delete(a.Slots, k)
		}
	}
	for track, placements := range a.Timeline {
		kept := placements[:0]
		for _, p := range placements {
			if p.ClipID != id {
				kept = append(kept, p)
			}
		}
		a.Timeline[track] = kept
	}
}

// AddNote appends a note to a clip.
func (a *Arrangement) AddNote(clip ids.ClipID, n NoteEvent) {
	if c, ok := a.Clips[clip]; ok {
		c.Notes = append(c.Notes, n)
	}
}

// AddAudioRegion appends an audio region to a clip.
func (a *Arrangement) AddAudioRegion(clip ids.ClipID, r AudioRegion) {
	if c, ok := a.Clips[clip]; ok {
		c.AudioRegions = append(c.AudioRegions, r)
	}
}

// ClearClip removes all notes and audio regions from a clip, keeping its
// identity and length.
func (a *Arrangement) ClearClip(clip ids.ClipID) {
	if c, ok := a.Clips[clip]; ok {
		c.Notes = nil
		c.AudioRegions = nil
	}
}

// SetSlot assigns a clip to a scene column on a track; clip == ids.NoClip
// clears the slot.
func (a *Arrangement) SetSlot(track ids.TrackID, scene int, clip ids.ClipID) {
	key := SlotKey{Track: track, Scene: scene}
	if !clip.Valid() {
		delete(a.Slots, key)
		return
	}
	a.Slots[key] = clip
}

// SchedulePlacement adds a timeline placement for a track.
func (a *Arrangement) SchedulePlacement(track ids.TrackID, p Placement) {
	a.Timeline[track] = append(a.Timeline[track], p)
}

// RemovePlacement removes the placement of clip at exactly startBeat on
// track, if present.
func (a *Arrangement) RemovePlacement(track ids.TrackID, clip ids.ClipID, startBeat float64) {
	placements := a.Timeline[track]
	kept := placements[:0]
	for _, p := range placements {
		if p.ClipID == clip && p.StartBeat == startBeat {
			continue
		}
		kept = append(kept, p)
	}
	a.Timeline[track] = kept
}

// AddAudioToPool registers a shared sample asset.
func (a *Arrangement) AddAudioToPool(id ids.AudioID, entry *AudioEntry) {
	a.AudioPool[id] = entry
}

// RemoveAudioFromPool drops the pool's reference to an entry. The entry's
// backing array is only actually freed once every region/player holding a
// separately-taken reference also releases it (Go's GC handles this
// naturally since Samples is a *[]float32 pointer the regions copy, not
// re-slice from the pool after hydration).
func (a *Arrangement) RemoveAudioFromPool(id ids.AudioID) {
	delete(a.AudioPool, id)
}

// Snapshot returns a deep copy suitable for handing to the audio thread as
// an immutable read-only view for the duration of one block. Audio
// sample data itself is not copied (AudioEntry.Samples is shared by
// reference), only the structural/arrangement state.
func (a *Arrangement) Snapshot() *Arrangement {
	out := New()
	for id, t := range a.Tracks {
		tc := *t
		out.Tracks[id] = &tc
	}
	for id, c := range a.Clips {
		cc := *c
		cc.Notes = append([]NoteEvent(nil), c.Notes...)
		cc.AudioRegions = append([]AudioRegion(nil), c.AudioRegions...)
		out.Clips[id] = &cc
	}
	for id, s := range a.Scenes {
		sc := *s
		out.Scenes[id] = &sc
	}
	for k, v := range a.Slots {
		out.Slots[k] = v
	}
	for track, placements := range a.Timeline {
		out.Timeline[track] = append([]Placement(nil), placements...)
	}
	for id, entry := range a.AudioPool {
		out.AudioPool[id] = entry // shared by reference, immutable after creation
	}
	return out
}
