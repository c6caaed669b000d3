/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/hyasynth/internal/registry"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the loaded config and the engine's registered node types",
	Long: `inspect loads the same EngineConfig and node registry a render or
serve run would use, and prints both — useful for confirming a --config
file parses the way you expect before running a longer command.`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	stack, err := newEngineStack()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	fmt.Printf("config:\n")
	fmt.Printf("  sample_rate:              %v\n", stack.cfg.SampleRate)
	fmt.Printf("  max_block_size:           %d\n", stack.cfg.MaxBlockSize)
	fmt.Printf("  max_voices:               %d\n", stack.cfg.MaxVoices)
	fmt.Printf("  log_level:                %s\n", stack.cfg.LogLevel)
	fmt.Printf("  metrics_bind:             %s\n", stack.cfg.MetricsBind)
	fmt.Printf("  quantize_beats:           %v\n", stack.cfg.QuantizeBeats)
	fmt.Printf("  timeline_loops_when_done: %v\n", stack.cfg.TimelineLoopsWhenDone)

	fmt.Printf("\nregistered node types (%d):\n", stack.registry.Count())
	for _, typeID := range []struct {
		id   uint32
		name string
	}{
		{uint32(registry.NodeTypeSineOsc), "sine_osc"},
		{uint32(registry.NodeTypeSawOsc), "saw_osc"},
		{uint32(registry.NodeTypeADSREnv), "adsr_env"},
		{uint32(registry.NodeTypeGain), "gain"},
		{uint32(registry.NodeTypeSampler), "sampler"},
		{uint32(registry.NodeTypeVolumePan), "volume_pan"},
		{uint32(registry.NodeTypeMixer), "mixer"},
		{uint32(registry.NodeTypeOutput), "output"},
	} {
		fmt.Printf("  %3d  %s\n", typeID.id, typeID.name)
	}

	return nil
}
