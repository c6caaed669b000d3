/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package runtime

import (
	"testing"

	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
)

// constNode emits a fixed sample value on every channel and reports
// silent only when that value is exactly zero.
type constNode struct{ value float32 }

func (c *constNode) Prepare(float64, int) {}
func (c *constNode) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	for _, ch := range output.Channels {
		for i := range ch {
			ch[i] = c.value
		}
	}
	return c.value == 0
}
func (c *constNode) SetParam(ids.ParamID, float32) {}
func (c *constNode) Reset()                        {}

// passthroughNode reports silent only if every input buffer it received
// was itself silent (silence propagates downstream): since Render never
// hands a node a "this was silent" flag directly, this node infers it by
// checking whether all input samples are zero, which is observationally
// equivalent for a node with no internal state.
type passthroughNode struct{}

func (p *passthroughNode) Prepare(float64, int) {}
func (p *passthroughNode) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	silent := true
	for _, in := range inputs {
		for _, ch := range in.Channels {
			for _, v := range ch {
				if v != 0 {
					silent = false
				}
			}
		}
	}
	for i, out := range output.Channels {
		if i >= len(inputs[0].Channels) {
			continue
		}
		copy(out, inputs[0].Channels[i])
	}
	return silent
}
func (p *passthroughNode) SetParam(ids.ParamID, float32) {}
func (p *passthroughNode) Reset()                        {}

func newTestGraph(t *testing.T, srcValue float32) (*Graph, *constNode) {
	t.Helper()
	g := NewGraph(48000, 512, 1)

	src := &constNode{value: srcValue}
	srcNode := &RuntimeNode{
		NodeID: 0, Poly: registry.Global, Channels: 1,
		Instances: []node.Node{src},
		Output:    node.Buffer{Channels: [][]float32{make([]float32, 512)}},
	}

	sink := &passthroughNode{}
	sinkNode := &RuntimeNode{
		NodeID: 1, Poly: registry.Global, Channels: 1,
		Instances: []node.Node{sink},
		Inputs:    []InputBinding{{Connected: true, UpstreamIndex: 0}},
		Output:    node.Buffer{Channels: [][]float32{make([]float32, 512)}},
	}

	g.Nodes = []*RuntimeNode{srcNode, sinkNode}
	g.SetIndex(0, 0)
	g.SetIndex(1, 1)
	g.OutputIndex = 1
	return g, src
}

func TestGraph_RenderCopiesOutputMonoToStereo(t *testing.T) {
	g, _ := newTestGraph(t, 0.5)
	outL := make([]float32, 512)
	outR := make([]float32, 512)
	g.Render(512, nil, 0, outL, outR)

	if outL[0] != 0.5 || outR[0] != 0.5 {
		t.Errorf("outL[0]=%v outR[0]=%v, want both 0.5 (mono upmix)", outL[0], outR[0])
	}
}

func TestGraph_UnconnectedInputReadsZero(t *testing.T) {
	g := NewGraph(48000, 64, 1)
	sink := &passthroughNode{}
	sinkNode := &RuntimeNode{
		NodeID: 0, Poly: registry.Global, Channels: 1,
		Instances: []node.Node{sink},
		Inputs:    []InputBinding{{Connected: false}},
		Output:    node.Buffer{Channels: [][]float32{make([]float32, 64)}},
	}
	g.Nodes = []*RuntimeNode{sinkNode}
	g.SetIndex(0, 0)
	g.OutputIndex = 0

	outL := make([]float32, 64)
	outR := make([]float32, 64)
	g.Render(64, nil, 0, outL, outR)
	for i := range outL {
		if outL[i] != 0 {
			t.Fatalf("outL[%d] = %v, want 0: unconnected input must read the shared zero buffer", i, outL[i])
		}
	}
}

func TestGraph_PerVoiceSkipsInactiveVoices(t *testing.T) {
	g := NewGraph(48000, 32, 2)
	inst0 := &constNode{value: 1}
	inst1 := &constNode{value: 1}
	rn := &RuntimeNode{
		NodeID: 0, Poly: registry.PerVoice, Channels: 1,
		Instances:   []node.Node{inst0, inst1},
		VoiceBuffer: []node.Buffer{{Channels: [][]float32{make([]float32, 32)}}, {Channels: [][]float32{make([]float32, 32)}}},
		Output:      node.Buffer{Channels: [][]float32{make([]float32, 32)}},
	}
	g.Nodes = []*RuntimeNode{rn}
	g.SetIndex(0, 0)
	g.OutputIndex = 0

	g.Voices.NoteOn(60) // activates voice 0 only

	outL := make([]float32, 32)
	outR := make([]float32, 32)
	g.Render(32, nil, 0, outL, outR)

	if outL[0] != 1 {
		t.Errorf("outL[0] = %v, want 1 (sum of exactly one active voice)", outL[0])
	}
}
