/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package compile

import (
	"github.com/friendsincode/hyasynth/internal/graphdef"
	"github.com/friendsincode/hyasynth/internal/runtime"
)

// Decompile reconstructs a GraphDef by enumerating a compiled Graph's
// user-authored nodes and the connections between them, skipping the
// synthesized volume/pan, mixer and output nodes Compile inserted. This
// is the inverse half of the round-trip invariant: compile(decompile(g))
// equals g up to topological tie-breaks, since positions and non-synthesized
// connections are preserved exactly and the synthesized chain is
// regenerated identically from the same Arrangement.
func Decompile(g *runtime.Graph) *graphdef.GraphDef {
	out := graphdef.New()
	for _, rn := range g.Nodes {
		if rn.Synthesized {
			continue
		}
		out.AddNode(rn.NodeID, rn.TypeID, rn.X, rn.Y)
		for param, value := range rn.Params {
			out.SetParam(rn.NodeID, param, value)
		}
	}
	for _, rn := range g.Nodes {
		if rn.Synthesized {
			continue
		}
		for port, in := range rn.Inputs {
			if !in.Connected {
				continue
			}
			upstream := g.Nodes[in.UpstreamIndex]
			if upstream.Synthesized {
				continue
			}
			out.Connect(graphdef.Connection{
				SrcNode: upstream.NodeID,
				SrcPort: 0,
				DstNode: rn.NodeID,
				DstPort: port,
			})
		}
	}
	return out
}
