/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hyasynth-demo",
	Short: "Reference host for the Hyasynth modular audio engine",
	Long: `hyasynth-demo drives internal/engine and internal/session without a GUI,
for smoke-testing a build and demonstrating the command-replay architecture
from a terminal.

Examples:
  hyasynth-demo render --out demo.wav --seconds 3
  hyasynth-demo play-scene --out scene.wav --seconds 4
  hyasynth-demo serve --bind 127.0.0.1:8090
  hyasynth-demo inspect`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an EngineConfig YAML file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
