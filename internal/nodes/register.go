/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package nodes

import "github.com/friendsincode/hyasynth/internal/registry"

// RegisterAll populates reg with every node type this package implements
// (eight types). The engine's and compiler's own tests do not use it; they
// build smaller registries by hand.
func RegisterAll(reg *registry.Registry) {
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeSineOsc, Name: "sine_osc", Polyphony: registry.PerVoice, ChannelCount: 1, Factory: NewSineOsc})
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeSawOsc, Name: "saw_osc", Polyphony: registry.PerVoice, ChannelCount: 1, Factory: NewSawOsc})
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeADSREnv, Name: "adsr_env", Polyphony: registry.PerVoice, ChannelCount: 1, Factory: NewADSREnv})
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeGain, Name: "gain", Polyphony: registry.PerVoice, ChannelCount: 1, Factory: NewGain})
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeSampler, Name: "sampler", Polyphony: registry.PerVoice, ChannelCount: 1, Factory: NewSampler})
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeVolumePan, Name: "volume_pan", Polyphony: registry.Global, ChannelCount: 2, Factory: NewVolumePan})
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeMixer, Name: "mixer", Polyphony: registry.Global, ChannelCount: 2, Factory: NewMixer})
	reg.Register(registry.TypeMeta{TypeID: registry.NodeTypeOutput, Name: "output", Polyphony: registry.Global, ChannelCount: 2, Factory: NewOutput})
}
