/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package compile turns a declarative GraphDef plus Arrangement into a
// runtime Graph the audio thread can execute without allocating.
package compile

import (
	"sort"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/graphdef"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
	"github.com/friendsincode/hyasynth/internal/registry"
	"github.com/friendsincode/hyasynth/internal/runtime"
)

// draftNode is one node of the augmented graph, before polyphony
// expansion and buffer assignment.
type draftNode struct {
	id          ids.NodeID
	typeID      ids.NodeTypeID
	x, y        float32
	params      map[ids.ParamID]float32
	synthesized bool
}

// draft holds the derived graph (user nodes plus synthesized volume/pan,
// mixer and output nodes) as Compile assembles it.
type draft struct {
	nodes          map[ids.NodeID]*draftNode
	conns          []graphdef.Connection
	outputNode     ids.NodeID
	hasOutput      bool
	trackVolumePan map[ids.TrackID]ids.NodeID
}

// Compile runs the full pipeline: derived graph construction,
// validation, topological sort, polyphony expansion, buffer assignment,
// parameter pre-load and audio pool hydration. On any validation failure
// it returns one of the CompileError types in errors.go and no graph. The
// exception is NoOutput: it is returned together with a complete graph
// whose OutputIndex is -1, which renders silence.
func Compile(
	gd *graphdef.GraphDef,
	arr *arrangement.Arrangement,
	reg *registry.Registry,
	sampleRate float64,
	maxBlockFrames, maxVoices int,
) (*runtime.Graph, error) {
	d := newDraft(gd)
	attachDerivedChain(d, arr, reg)

	if err := validate(d, reg); err != nil {
		return nil, err
	}

	order, err := topoSort(d)
	if err != nil {
		return nil, err
	}

	g := runtime.NewGraph(sampleRate, maxBlockFrames, maxVoices)
	for i, id := range order {
		dn := d.nodes[id]
		meta, _ := reg.Lookup(dn.typeID) // validated above
		rn := &runtime.RuntimeNode{
			NodeID:      id,
			TypeID:      dn.typeID,
			Poly:        meta.Polyphony,
			Channels:    meta.ChannelCount,
			X:           dn.x,
			Y:           dn.y,
			Params:      dn.params,
			TopoIndex:   i,
			Synthesized: dn.synthesized,
		}
		instantiate(rn, meta, sampleRate, maxVoices, maxBlockFrames)
		g.Nodes = append(g.Nodes, rn)
		g.SetIndex(id, i)
	}

	resolveInputs(d, g)

	for trackID, nodeID := range d.trackVolumePan {
		g.TrackVolumePan[trackID] = nodeID
	}

	if d.hasOutput {
		if idx, ok := g.IndexOf(d.outputNode); ok {
			g.OutputIndex = idx
		}
	}

	preloadParams(d, g, order)
	hydrateAudioPool(d, g, arr)

	if !d.hasOutput {
		return g, &NoOutput{}
	}
	return g, nil
}

func newDraft(gd *graphdef.GraphDef) *draft {
	d := &draft{
		nodes:          make(map[ids.NodeID]*draftNode, len(gd.Nodes)),
		conns:          append([]graphdef.Connection(nil), gd.Connections...),
		outputNode:     gd.OutputNode,
		hasOutput:      gd.OutputNode.Valid(),
		trackVolumePan: make(map[ids.TrackID]ids.NodeID),
	}
	for id, n := range gd.Nodes {
		params := make(map[ids.ParamID]float32, len(n.Params))
		for k, v := range n.Params {
			params[k] = v
		}
		d.nodes[id] = &draftNode{id: id, typeID: n.TypeID, x: n.X, y: n.Y, params: params}
	}
	return d
}

// nextSynthID returns an id guaranteed not to collide with any id already
// present in the draft, monotonically increasing as synthesized nodes are
// added within one Compile call.
func (d *draft) nextSynthID() ids.NodeID {
	var max uint32
	any := false
	for id := range d.nodes {
		if !any || uint32(id) > max {
			max = uint32(id)
			any = true
		}
	}
	if !any {
		return ids.NodeID(0)
	}
	return ids.NodeID(max + 1)
}

func (d *draft) addSynth(typeID ids.NodeTypeID, params map[ids.ParamID]float32) ids.NodeID {
	id := d.nextSynthID()
	d.nodes[id] = &draftNode{id: id, typeID: typeID, params: params, synthesized: true}
	return id
}

func (d *draft) connect(src ids.NodeID, srcPort int, dst ids.NodeID, dstPort int) {
	d.conns = append(d.conns, graphdef.Connection{SrcNode: src, SrcPort: srcPort, DstNode: dst, DstPort: dstPort})
}

// attachDerivedChain builds the per-track Volume->Pan, a
// single Mixer summing every track, and Mixer->Output (or the user's
// explicit output_node).
func attachDerivedChain(d *draft, arr *arrangement.Arrangement, reg *registry.Registry) {
	trackIDs := make([]ids.TrackID, 0, len(arr.Tracks))
	for id, t := range arr.Tracks {
		if t.TargetNode.Valid() {
			trackIDs = append(trackIDs, id)
		}
	}
	sort.Slice(trackIDs, func(i, j int) bool { return trackIDs[i] < trackIDs[j] })

	if len(trackIDs) == 0 {
		return
	}

	mixerParams := map[ids.ParamID]float32{}
	mixerID := d.addSynth(registry.NodeTypeMixer, mixerParams)

	port := 0
	for _, tid := range trackIDs {
		t := arr.Tracks[tid]
		volID := d.addSynth(registry.NodeTypeVolumePan, map[ids.ParamID]float32{
			registry.ParamVolume: t.Volume,
			registry.ParamPan:    t.Pan,
		})
		d.connect(t.TargetNode, 0, volID, 0)
		d.connect(volID, 0, mixerID, port)
		d.trackVolumePan[tid] = volID
		port++
	}

	if d.hasOutput {
		d.connect(mixerID, 0, d.outputNode, 0)
		return
	}

	outID := d.addSynth(registry.NodeTypeOutput, nil)
	d.connect(mixerID, 0, outID, 0)
	d.outputNode = outID
	d.hasOutput = true
}

// instantiate creates the DSP object instance(s) for one runtime node
// (one for Global, max_voices for PerVoice) and pre-allocates its output
// buffers at max_block_frames x channels.
func instantiate(rn *runtime.RuntimeNode, meta registry.TypeMeta, sampleRate float64, maxVoices, maxBlockFrames int) {
	switch meta.Polyphony {
	case registry.Global:
		inst := meta.Factory()
		inst.Prepare(sampleRate, maxBlockFrames)
		rn.Instances = []node.Node{inst}
		rn.Output = allocBuffer(meta.ChannelCount, maxBlockFrames)

	case registry.PerVoice:
		rn.Instances = make([]node.Node, maxVoices)
		rn.VoiceBuffer = make([]node.Buffer, maxVoices)
		for v := 0; v < maxVoices; v++ {
			inst := meta.Factory()
			inst.Prepare(sampleRate, maxBlockFrames)
			rn.Instances[v] = inst
			rn.VoiceBuffer[v] = allocBuffer(meta.ChannelCount, maxBlockFrames)
		}
		rn.Output = allocBuffer(meta.ChannelCount, maxBlockFrames)
	}
}

func allocBuffer(channels, frames int) node.Buffer {
	b := node.Buffer{Channels: make([][]float32, channels)}
	for c := range b.Channels {
		b.Channels[c] = make([]float32, frames)
	}
	return b
}

// resolveInputs records, for every node, which upstream node (by compiled
// index) feeds each of its input ports, so Render never searches at
// runtime: no reads happen during compile.
func resolveInputs(d *draft, g *runtime.Graph) {
	maxPort := make(map[ids.NodeID]int)
	for _, c := range d.conns {
		if c.DstPort+1 > maxPort[c.DstNode] {
			maxPort[c.DstNode] = c.DstPort + 1
		}
	}
	for _, rn := range g.Nodes {
		rn.Inputs = make([]runtime.InputBinding, maxPort[rn.NodeID])
	}
	for _, c := range d.conns {
		srcIdx, ok := g.IndexOf(c.SrcNode)
		if !ok {
			continue
		}
		dstIdx, ok := g.IndexOf(c.DstNode)
		if !ok {
			continue
		}
		g.Nodes[dstIdx].Inputs[c.DstPort] = runtime.InputBinding{Connected: true, UpstreamIndex: srcIdx}
	}
}

// preloadParams applies every NodeDef.Params entry to every instance of
// its node (all voices of a PerVoice node start with the same initial
// value) before the graph is handed back to the caller.
func preloadParams(d *draft, g *runtime.Graph, order []ids.NodeID) {
	for _, id := range order {
		dn := d.nodes[id]
		idx, ok := g.IndexOf(id)
		if !ok {
			continue
		}
		rn := g.Nodes[idx]
		for param, value := range dn.params {
			for _, inst := range rn.Instances {
				inst.SetParam(param, value)
			}
		}
	}
}

// hydrateAudioPool loads a shared handle to every pooled AudioEntry into
// every node implementing AudioPlayer. The compiler does not
// try to infer which specific entries a given player will actually use —
// entries are cheap shared handles, not copies, so hydrating all of them
// trades a small amount of bookkeeping for never missing a load.
func hydrateAudioPool(d *draft, g *runtime.Graph, arr *arrangement.Arrangement) {
	for _, rn := range g.Nodes {
		for _, inst := range rn.Instances {
			player, ok := inst.(node.AudioPlayer)
			if !ok {
				continue
			}
			for audioID, entry := range arr.AudioPool {
				player.LoadAudio(audioID, node.SharedSamples{
					Name:       entry.Name,
					SampleRate: entry.SampleRate,
					Channels:   entry.Channels,
					Frames:     entry.Samples,
				})
			}
		}
	}
}
