/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package compile

import (
	"testing"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/graphdef"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
)

// stubNode is a minimal Node used only to exercise the compiler; it does
// no real DSP work.
type stubNode struct {
	params map[ids.ParamID]float32
}

func newStub() node.Node { return &stubNode{params: map[ids.ParamID]float32{}} }

func (s *stubNode) Prepare(sampleRate float64, maxBlockFrames int) {}
func (s *stubNode) Process(ctx *node.Context, inputs []node.Buffer, output node.Buffer) bool {
	return true
}
func (s *stubNode) SetParam(param ids.ParamID, value float32) { s.params[param] = value }
func (s *stubNode) Reset()                                     {}

func testRegistry() *registry.Registry {
	r := registry.New()
	r.Register(registry.TypeMeta{TypeID: registry.NodeTypeSineOsc, Name: "sine_osc", Polyphony: registry.PerVoice, ChannelCount: 1, Factory: newStub})
	r.Register(registry.TypeMeta{TypeID: registry.NodeTypeADSREnv, Name: "adsr_env", Polyphony: registry.PerVoice, ChannelCount: 1, Factory: newStub})
	r.Register(registry.TypeMeta{TypeID: registry.NodeTypeVolumePan, Name: "volume_pan", Polyphony: registry.Global, ChannelCount: 2, Factory: newStub})
	r.Register(registry.TypeMeta{TypeID: registry.NodeTypeMixer, Name: "mixer", Polyphony: registry.Global, ChannelCount: 2, Factory: newStub})
	r.Register(registry.TypeMeta{TypeID: registry.NodeTypeOutput, Name: "output", Polyphony: registry.Global, ChannelCount: 2, Factory: newStub})
	return r
}

func TestCompile_SimpleSineToOutput(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, registry.NodeTypeSineOsc, 0, 0)

	arr := arrangement.New()
	track := arr.CreateTrack(0, "lead")
	track.TargetNode = 0

	g, err := Compile(gd, arr, reg, 48000, 512, 8)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if g.OutputIndex < 0 {
		t.Fatalf("OutputIndex = -1, want a valid output node")
	}
	if got := len(g.Nodes); got < 4 {
		t.Fatalf("len(Nodes) = %d, want at least 4 (sine, volumepan, mixer, output)", got)
	}

	// Topological order must be ascending among nodes with no ordering
	// constraint, i.e. indices increase monotonically.
	for i, n := range g.Nodes {
		if n.TopoIndex != i {
			t.Errorf("Nodes[%d].TopoIndex = %d, want %d", i, n.TopoIndex, i)
		}
	}
}

func TestCompile_NoTracksNoOutput(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	arr := arrangement.New()

	g, err := Compile(gd, arr, reg, 48000, 512, 8)
	if err == nil {
		t.Fatalf("Compile() error = nil, want NoOutput")
	}
	if _, ok := err.(*NoOutput); !ok {
		t.Fatalf("Compile() error = %T, want *NoOutput", err)
	}
	if g.OutputIndex != -1 {
		t.Errorf("OutputIndex = %d, want -1 (render silence)", g.OutputIndex)
	}
}

func TestCompile_UnknownType(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, ids.NodeTypeID(999), 0, 0)
	gd.SetOutput(0)
	arr := arrangement.New()

	_, err := Compile(gd, arr, reg, 48000, 512, 8)
	if _, ok := err.(*UnknownType); !ok {
		t.Fatalf("Compile() error = %T, want *UnknownType", err)
	}
}

func TestCompile_DuplicatePortBinding(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, registry.NodeTypeSineOsc, 0, 0)
	gd.AddNode(1, registry.NodeTypeSineOsc, 0, 0)
	gd.AddNode(2, registry.NodeTypeADSREnv, 0, 0)
	gd.Connect(graphdef.Connection{SrcNode: 0, SrcPort: 0, DstNode: 2, DstPort: 0})
	gd.Connect(graphdef.Connection{SrcNode: 1, SrcPort: 0, DstNode: 2, DstPort: 0})
	gd.SetOutput(2)
	arr := arrangement.New()

	_, err := Compile(gd, arr, reg, 48000, 512, 8)
	if _, ok := err.(*DuplicatePortBinding); !ok {
		t.Fatalf("Compile() error = %T, want *DuplicatePortBinding", err)
	}
}

func TestCompile_MissingNode(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, registry.NodeTypeSineOsc, 0, 0)
	gd.Connect(graphdef.Connection{SrcNode: 0, SrcPort: 0, DstNode: 42, DstPort: 0})
	gd.SetOutput(0)
	arr := arrangement.New()

	_, err := Compile(gd, arr, reg, 48000, 512, 8)
	if _, ok := err.(*MissingNode); !ok {
		t.Fatalf("Compile() error = %T, want *MissingNode", err)
	}
}

func TestCompile_CycleDetected(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, registry.NodeTypeSineOsc, 0, 0)
	gd.AddNode(1, registry.NodeTypeADSREnv, 0, 0)
	gd.Connect(graphdef.Connection{SrcNode: 0, SrcPort: 0, DstNode: 1, DstPort: 0})
	gd.Connect(graphdef.Connection{SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 0})
	gd.SetOutput(1)
	arr := arrangement.New()

	_, err := Compile(gd, arr, reg, 48000, 512, 8)
	if _, ok := err.(*CycleDetected); !ok {
		t.Fatalf("Compile() error = %T, want *CycleDetected", err)
	}
}

func TestCompile_PolyphonyExpansion(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, registry.NodeTypeSineOsc, 0, 0)
	arr := arrangement.New()
	track := arr.CreateTrack(0, "lead")
	track.TargetNode = 0

	g, err := Compile(gd, arr, reg, 48000, 512, 4)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	idx, ok := g.IndexOf(0)
	if !ok {
		t.Fatalf("sine node missing from compiled graph")
	}
	sine := g.Nodes[idx]
	if len(sine.Instances) != 4 {
		t.Errorf("len(Instances) = %d, want 4 (PerVoice, max_voices=4)", len(sine.Instances))
	}
	if len(sine.VoiceBuffer) != 4 {
		t.Errorf("len(VoiceBuffer) = %d, want 4", len(sine.VoiceBuffer))
	}
}

func TestCompile_ParamPreload(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, registry.NodeTypeSineOsc, 0, 0)
	gd.SetParam(0, registry.ParamFreq, 440.0)
	arr := arrangement.New()
	track := arr.CreateTrack(0, "lead")
	track.TargetNode = 0

	g, err := Compile(gd, arr, reg, 48000, 512, 2)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	idx, _ := g.IndexOf(0)
	stub := g.Nodes[idx].Instances[0].(*stubNode)
	if got := stub.params[registry.ParamFreq]; got != 440.0 {
		t.Errorf("preloaded ParamFreq = %v, want 440", got)
	}
}

func TestDecompile_RoundTrip(t *testing.T) {
	reg := testRegistry()
	gd := graphdef.New()
	gd.AddNode(0, registry.NodeTypeSineOsc, 1, 2)
	gd.AddNode(1, registry.NodeTypeADSREnv, 3, 4)
	gd.Connect(graphdef.Connection{SrcNode: 0, SrcPort: 0, DstNode: 1, DstPort: 0})
	gd.SetParam(0, registry.ParamFreq, 220.0)
	gd.SetOutput(1)
	arr := arrangement.New()

	g, err := Compile(gd, arr, reg, 48000, 512, 2)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	back := Decompile(g)
	if len(back.Nodes) != 2 {
		t.Fatalf("Decompile() produced %d nodes, want 2 (excluding synthesized)", len(back.Nodes))
	}
	n0, ok := back.Nodes[0]
	if !ok || n0.TypeID != registry.NodeTypeSineOsc {
		t.Errorf("node 0 = %+v, want sine_osc", n0)
	}
	if n0.Params[registry.ParamFreq] != 220.0 {
		t.Errorf("node 0 ParamFreq = %v, want 220", n0.Params[registry.ParamFreq])
	}
	if len(back.Connections) != 1 {
		t.Fatalf("len(Connections) = %d, want 1", len(back.Connections))
	}
}
