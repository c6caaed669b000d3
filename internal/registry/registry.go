/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package registry implements the process/session-wide NodeTypeId lookup
// described by the engine's node contract, and carries the stable
// NodeTypeId/ParamId ABI constants.
package registry

import (
	"fmt"
	"sync"

	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/node"
)

// Polyphony tags how many DSP instances a node type gets at compile time.
type Polyphony uint8

const (
	// Global: a single shared instance (mixer, output, bus effects).
	Global Polyphony = iota
	// PerVoice: max_voices parallel instances, one per voice.
	PerVoice
)

// Stable NodeTypeId constants. Part of the public ABI; never renumber.
const (
	NodeTypeSineOsc    ids.NodeTypeID = 1
	NodeTypeADSREnv    ids.NodeTypeID = 2
	NodeTypeGain       ids.NodeTypeID = 3
	NodeTypeSampler    ids.NodeTypeID = 4
	NodeTypeSawOsc     ids.NodeTypeID = 5
	NodeTypeVolumePan  ids.NodeTypeID = 50 // synthesized per-track chain, never user-addable directly
	NodeTypeMixer      ids.NodeTypeID = 99 // synthesized
	NodeTypeOutput     ids.NodeTypeID = 100
)

// Stable ParamId constants. Part of the public ABI; never renumber.
const (
	ParamFreq      ids.ParamID = 0
	ParamAttack    ids.ParamID = 0 // ADSR reuses 0..3 within its own node; scoped by NodeTypeId+ParamId pair
	ParamDecay     ids.ParamID = 1
	ParamSustain   ids.ParamID = 2
	ParamRelease   ids.ParamID = 3
	ParamGainLevel ids.ParamID = 0
	ParamVolume    ids.ParamID = 0 // VolumePan
	ParamPan       ids.ParamID = 1 // VolumePan
	ParamWaveform  ids.ParamID = 1 // not read by SineOsc/SawOsc, whose SetParam handles ParamFreq only
)

// Factory produces a fresh DSP object for the compiler. A factory must
// never fail; unknown node types are rejected by the compiler before a
// factory is ever invoked.
type Factory func() node.Node

// TypeMeta describes one registered node type.
type TypeMeta struct {
	TypeID       ids.NodeTypeID
	Name         string
	Polyphony    Polyphony
	ChannelCount int // output channel count (1 = mono, 2 = stereo)
	Factory      Factory
}

// Registry is the process-wide (or session-wide) NodeTypeId -> metadata
// lookup. It is typically populated once at startup and then only read.
// Every method takes mu (Register the write lock, the others the read
// lock), so it is safe for concurrent use by the UI and audio threads.
type Registry struct {
	mu    sync.RWMutex
	types map[ids.NodeTypeID]TypeMeta
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{types: make(map[ids.NodeTypeID]TypeMeta)}
}

// Register adds a node type. Re-registering an existing TypeID replaces
// its metadata; callers typically register all types once at startup.
func (r *Registry) Register(meta TypeMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[meta.TypeID] = meta
}

// Lookup returns the metadata for a type id.
func (r *Registry) Lookup(t ids.NodeTypeID) (TypeMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.types[t]
	return m, ok
}

// Count returns the number of registered node types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// NewInstance instantiates a fresh DSP object for the given type, or an error if
// the type is unknown.
func (r *Registry) NewInstance(t ids.NodeTypeID) (node.Node, error) {
	meta, ok := r.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("registry: unknown node type %d", t)
	}
	return meta.Factory(), nil
}
