/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package compile

import (
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/registry"
)

// validate checks for unknown types, missing connection
// endpoints, duplicate input-port bindings and cycles.
func validate(d *draft, reg *registry.Registry) error {
	for _, n := range d.nodes {
		if _, ok := reg.Lookup(n.typeID); !ok {
			return &UnknownType{TypeID: n.typeID}
		}
	}

	seenPort := make(map[portKey]bool, len(d.conns))
	for _, c := range d.conns {
		if _, ok := d.nodes[c.SrcNode]; !ok {
			return &MissingNode{ID: c.SrcNode}
		}
		if _, ok := d.nodes[c.DstNode]; !ok {
			return &MissingNode{ID: c.DstNode}
		}
		key := portKey{node: c.DstNode, port: c.DstPort}
		if seenPort[key] {
			return &DuplicatePortBinding{DstNode: c.DstNode, DstPort: c.DstPort}
		}
		seenPort[key] = true
	}

	if cyc, ok := findCycle(d); ok {
		return &CycleDetected{Nodes: cyc}
	}

	return nil
}

type portKey struct {
	node ids.NodeID
	port int
}

type color uint8

const (
	white color = iota
	grey
	black
)

// findCycle runs an iterative DFS over the connection graph (src -> dst)
// with a white/grey/black color map: a grey -> grey edge is a cycle, and
// the DFS path that reached it is returned (see CycleDetected).
func findCycle(d *draft) ([]ids.NodeID, bool) {
	adj := make(map[ids.NodeID][]ids.NodeID, len(d.nodes))
	for _, c := range d.conns {
		adj[c.SrcNode] = append(adj[c.SrcNode], c.DstNode)
	}

	ordered := sortedNodeIDs(d)
	colors := make(map[ids.NodeID]color, len(d.nodes))

	type frame struct {
		id   ids.NodeID
		next int
	}

	for _, start := range ordered {
		if colors[start] != white {
			continue
		}
		stack := []frame{{id: start}}
		colors[start] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(adj[top.id]) {
				next := adj[top.id][top.next]
				top.next++
				switch colors[next] {
				case white:
					colors[next] = grey
					stack = append(stack, frame{id: next})
				case grey:
					nodes := make([]ids.NodeID, 0, len(stack))
					for _, f := range stack {
						nodes = append(nodes, f.id)
					}
					return nodes, true
				case black:
					// already fully explored, not a cycle
				}
				continue
			}
			colors[top.id] = black
			stack = stack[:len(stack)-1]
		}
	}
	return nil, false
}
