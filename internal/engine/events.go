/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
)

// resolveVoiceEvents drives the voice allocator from NoteOn/NoteOff events
// addressed to a track's target_node, then fans each one out across the
// whole per-voice instrument chain rooted there. The scheduler and clip
// playback stay ignorant of polyphony (they only ever address the root);
// this is the one place voice allocation actually happens.
func (c *Controller) resolveVoiceEvents(events []node.Event) []node.Event {
	if c.graph == nil {
		return events
	}

	out := make([]node.Event, 0, len(events))
	for _, e := range events {
		if e.Target.Kind != node.TargetNode || (e.Kind != node.EventNoteOn && e.Kind != node.EventNoteOff) {
			out = append(out, e)
			continue
		}

		idx, ok := c.graph.IndexOf(e.Target.Node)
		if !ok || c.graph.Nodes[idx].Poly != registry.PerVoice {
			out = append(out, e)
			continue
		}

		var v int
		var found bool
		var stolenNote uint8
		var stoleActive bool
		switch e.Kind {
		case node.EventNoteOn:
			v, stolenNote, stoleActive = c.graph.Voices.NoteOn(e.Note)
			found = v >= 0
		case node.EventNoteOff:
			v, found = c.graph.Voices.NoteOff(e.Note)
		}
		if !found || v < 0 {
			continue
		}

		chain := c.chains[e.Target.Node]

		if stoleActive {
			off := e
			off.Kind = node.EventNoteOff
			off.Note = stolenNote
			for _, chainID := range chain {
				fanned := off
				fanned.Target = node.Target{Kind: node.TargetNodeVoice, Node: chainID, Voice: v}
				out = append(out, fanned)
			}
		}

		for _, chainID := range chain {
			fanned := e
			fanned.Target = node.Target{Kind: node.TargetNodeVoice, Node: chainID, Voice: v}
			out = append(out, fanned)
		}
	}
	return out
}
