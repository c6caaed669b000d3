/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/registry"
	"github.com/friendsincode/hyasynth/internal/runtime"
)

// perVoiceChain returns every PerVoice node feeding into root (root
// itself plus every PerVoice ancestor reached by walking resolved input
// bindings backwards), stopping at the first Global node on each path.
//
// A track's target_node is the tail of its instrument chain — the node
// whose output the compiler wires into the synthesized, Global VolumePan
// — so an oscillator feeding an envelope which feeds target_node is an
// *upstream* neighbor of it, not a downstream one. A NoteOn/NoteOff
// addressed to target_node fans out to this whole backward chain so that,
// e.g., the oscillator and the envelope in front of it both see the same
// gate.
func perVoiceChain(g *runtime.Graph, root ids.NodeID) []ids.NodeID {
	idx, ok := g.IndexOf(root)
	if !ok || g.Nodes[idx].Poly != registry.PerVoice {
		return nil
	}

	visited := map[ids.NodeID]bool{root: true}
	queue := []int{idx}
	out := []ids.NodeID{root}

	for len(queue) > 0 {
		curIdx := queue[0]
		queue = queue[1:]
		for _, in := range g.Nodes[curIdx].Inputs {
			if !in.Connected {
				continue
			}
			upstream := g.Nodes[in.UpstreamIndex]
			if visited[upstream.NodeID] {
				continue
			}
			visited[upstream.NodeID] = true
			if upstream.Poly != registry.PerVoice {
				continue // stop at the Global boundary
			}
			out = append(out, upstream.NodeID)
			queue = append(queue, in.UpstreamIndex)
		}
	}
	return out
}
