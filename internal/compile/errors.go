/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package compile

import (
	"fmt"

	"github.com/friendsincode/hyasynth/internal/ids"
)

// CycleDetected reports that the declarative graph (plus its synthesized
// volume/pan/mixer/output additions) contains a cycle. Nodes is the DFS
// path, in visit order, from the search's starting node to the node whose
// edge closed the cycle: it contains the cycle, and may also contain
// nodes on the path leading into it.
type CycleDetected struct{ Nodes []ids.NodeID }

func (e *CycleDetected) Error() string {
	return fmt.Sprintf("compile: cycle detected among nodes %v", e.Nodes)
}

// MissingNode reports a connection referencing a node id that does not
// exist in the graph.
type MissingNode struct{ ID ids.NodeID }

func (e *MissingNode) Error() string {
	return fmt.Sprintf("compile: missing node %d", e.ID)
}

// DuplicatePortBinding reports that more than one connection targets the
// same (dst_node, dst_port) pair.
type DuplicatePortBinding struct {
	DstNode ids.NodeID
	DstPort int
}

func (e *DuplicatePortBinding) Error() string {
	return fmt.Sprintf("compile: duplicate binding for node %d port %d", e.DstNode, e.DstPort)
}

// UnknownType reports a NodeDef referencing a type id the registry has no
// metadata for.
type UnknownType struct{ TypeID ids.NodeTypeID }

func (e *UnknownType) Error() string {
	return fmt.Sprintf("compile: unknown node type %d", e.TypeID)
}

// NoOutput reports that the graph has neither an explicit output_node nor
// any track routed into the derived mixer, so there is nothing to render.
// Unlike the other CompileErrors, a caller may choose to treat this as
// "compiles fine, renders silence" rather than a hard failure; Compile
// returns it as an error so the caller decides explicitly ("If no
// Output/Mixer applicable, render silence").
type NoOutput struct{}

func (e *NoOutput) Error() string { return "compile: no output node and no routed tracks" }
