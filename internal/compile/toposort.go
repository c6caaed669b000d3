/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package compile

import (
	"sort"

	"github.com/friendsincode/hyasynth/internal/ids"
)

func sortedNodeIDs(d *draft) []ids.NodeID {
	out := make([]ids.NodeID, 0, len(d.nodes))
	for id := range d.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// topoSort orders nodes with Kahn's algorithm, breaking ties by NodeId
// ascending so ordering is deterministic across runs. The
// graph is assumed already validated acyclic by validate().
func topoSort(d *draft) ([]ids.NodeID, error) {
	indegree := make(map[ids.NodeID]int, len(d.nodes))
	adj := make(map[ids.NodeID][]ids.NodeID, len(d.nodes))
	for id := range d.nodes {
		indegree[id] = 0
	}
	for _, c := range d.conns {
		indegree[c.DstNode]++
		adj[c.SrcNode] = append(adj[c.SrcNode], c.DstNode)
	}

	var ready []ids.NodeID
	for _, id := range sortedNodeIDs(d) {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]ids.NodeID, 0, len(d.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, next := range adj[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(d.nodes) {
		// validate() should have already rejected this as CycleDetected;
		// this is an internal-consistency fallback, not a user-reachable path.
		var stuck []ids.NodeID
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Slice(stuck, func(i, j int) bool { return stuck[i] < stuck[j] })
		return nil, &CycleDetected{Nodes: stuck}
	}

	return order, nil
}
