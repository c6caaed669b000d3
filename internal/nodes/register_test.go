/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package nodes

import (
	"testing"

	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/registry"
)

func TestRegisterAll_CoversEveryStableTypeID(t *testing.T) {
	reg := registry.New()
	RegisterAll(reg)

	cases := []struct {
		typeID ids.NodeTypeID
		name   string
	}{
		{registry.NodeTypeSineOsc, "sine_osc"},
		{registry.NodeTypeSawOsc, "saw_osc"},
		{registry.NodeTypeADSREnv, "adsr_env"},
		{registry.NodeTypeGain, "gain"},
		{registry.NodeTypeSampler, "sampler"},
		{registry.NodeTypeVolumePan, "volume_pan"},
		{registry.NodeTypeMixer, "mixer"},
		{registry.NodeTypeOutput, "output"},
	}

	for _, c := range cases {
		meta, ok := reg.Lookup(c.typeID)
		if !ok {
			t.Errorf("type %d (%s) not registered", c.typeID, c.name)
			continue
		}
		if meta.Name != c.name {
			t.Errorf("type %d: name = %q, want %q", c.typeID, meta.Name, c.name)
		}
		if inst, err := reg.NewInstance(c.typeID); err != nil || inst == nil {
			t.Errorf("NewInstance(%d): %v, %v", c.typeID, inst, err)
		}
	}

	if reg.Count() != len(cases) {
		t.Errorf("Count() = %d, want %d", reg.Count(), len(cases))
	}
}
