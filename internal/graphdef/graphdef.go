/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package graphdef holds the declarative, UI-owned node graph.
package graphdef

import "github.com/friendsincode/hyasynth/internal/ids"

// NodeDef is one user-authored node in the declarative graph.
type NodeDef struct {
	TypeID   ids.NodeTypeID
	X, Y     float32
	Params   map[ids.ParamID]float32
}

// Connection links one node's output port to another node's input port.
type Connection struct {
	SrcNode ids.NodeID
	SrcPort int
	DstNode ids.NodeID
	DstPort int
}

// GraphDef is the full declarative graph: nodes keyed by id, an ordered
// connection list (insertion order is preserved so compilation is
// deterministic independent of map iteration), and an optional explicit
// output node.
type GraphDef struct {
	Nodes       map[ids.NodeID]*NodeDef
	Connections []Connection
	OutputNode  ids.NodeID // ids.NoNode if unset
}

// New returns an empty graph definition.
func New() *GraphDef {
	return &GraphDef{
		Nodes:      make(map[ids.NodeID]*NodeDef),
		OutputNode: ids.NoNode,
	}
}

// AddNode inserts a node definition, returning its id.
func (g *GraphDef) AddNode(id ids.NodeID, typeID ids.NodeTypeID, x, y float32) {
	g.Nodes[id] = &NodeDef{
		TypeID: typeID,
		X:      x,
		Y:      y,
		Params: make(map[ids.ParamID]float32),
	}
}

// RemoveNode deletes a node and every connection touching it: removing a
// node transitively removes connections that touch it.
func (g *GraphDef) RemoveNode(id ids.NodeID) {
	delete(g.Nodes, id)
	kept := g.Connections[:0]
	for _, c := range g.Connections {
		if c.SrcNode == id || c.DstNode == id {
			continue
		}
		kept = append(kept, c)
	}
	g.Connections = kept
	if g.OutputNode == id {
		g.OutputNode = ids.NoNode
	}
}

// Connect appends a connection. Validation (duplicate port binding,
// missing endpoints, self-loop, cycles) happens at compile time, not here,
// so the UI model can represent transient invalid states while the user
// edits.
func (g *GraphDef) Connect(c Connection) {
	g.Connections = append(g.Connections, c)
}

// Disconnect removes a connection matching dst_node/dst_port exactly,
// since at most one connection may target a given input port.
func (g *GraphDef) Disconnect(dstNode ids.NodeID, dstPort int) {
	kept := g.Connections[:0]
	for _, c := range g.Connections {
		if c.DstNode == dstNode && c.DstPort == dstPort {
			continue
		}
		kept = append(kept, c)
	}
	g.Connections = kept
}

// SetOutput sets the explicit output node.
func (g *GraphDef) SetOutput(id ids.NodeID) { g.OutputNode = id }

// Clear empties the graph.
func (g *GraphDef) Clear() {
	g.Nodes = make(map[ids.NodeID]*NodeDef)
	g.Connections = nil
	g.OutputNode = ids.NoNode
}

// SetParam applies a parameter value to a node definition. No-op if the
// node does not exist (the caller is expected to have validated the id via
// the session's command processor).
func (g *GraphDef) SetParam(id ids.NodeID, param ids.ParamID, value float32) {
	if n, ok := g.Nodes[id]; ok {
		n.Params[param] = value
	}
}

// Clone returns a deep copy, used to produce a read-only UI-side snapshot
// without exposing the live mutable graph.
func (g *GraphDef) Clone() *GraphDef {
	out := New()
	out.OutputNode = g.OutputNode
	for id, n := range g.Nodes {
		params := make(map[ids.ParamID]float32, len(n.Params))
		for k, v := range n.Params {
			params[k] = v
		}
		out.Nodes[id] = &NodeDef{TypeID: n.TypeID, X: n.X, Y: n.Y, Params: params}
	}
	out.Connections = append([]Connection(nil), g.Connections...)
	return out
}
