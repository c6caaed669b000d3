/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/registry"
)

var (
	playSceneOut     string
	playSceneSeconds float64
)

var playSceneCmd = &cobra.Command{
	Use:   "play-scene",
	Short: "Build a one-bar clip, launch it as a scene, and render the result",
	Long: `play-scene exercises the clip-launch path end to end: it creates a
clip with a couple of notes, assigns it to scene 0 on a track, issues
CmdLaunchScene instead of a direct NoteOn, and renders the outcome to a
WAV file. Unlike render's direct note gating, this is driven entirely by
the scheduler's clip playback.`,
	RunE: runPlayScene,
}

func init() {
	playSceneCmd.Flags().StringVar(&playSceneOut, "out", "scene.wav", "Output WAV file path")
	playSceneCmd.Flags().Float64Var(&playSceneSeconds, "seconds", 4, "Duration to render, in seconds")
	rootCmd.AddCommand(playSceneCmd)
}

func runPlayScene(cmd *cobra.Command, args []string) error {
	stack, err := newEngineStack()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	c := stack.ctrl

	const (
		track ids.TrackID = 0
		clip  ids.ClipID  = 0
		scene             = 0
	)

	stack.commands.Push(bridge.Command{Kind: bridge.CmdAddNode, Node: 0, TypeID: registry.NodeTypeSineOsc})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdAddNode, Node: 1, TypeID: registry.NodeTypeADSREnv})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdConnect, SrcNode: 0, SrcPort: 0, DstNode: 1, DstPort: 0})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamAttack, Value: 0.005})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamDecay, Value: 0.08})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamSustain, Value: 0.6})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamRelease, Value: 0.25})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdCreateTrack, Track: track})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetTrackTarget, Track: track, Target: 1})

	stack.commands.Push(bridge.Command{Kind: bridge.CmdCreateClip, Clip: clip, LengthBeats: 4, Loop: true})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdAddNote, Clip: clip, Note: 60, Velocity: 0.9, StartBeat: 0, DurBeats: 1})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdAddNote, Clip: clip, Note: 64, Velocity: 0.9, StartBeat: 1, DurBeats: 1})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdAddNote, Clip: clip, Note: 67, Velocity: 0.9, StartBeat: 2, DurBeats: 1})

	stack.commands.Push(bridge.Command{Kind: bridge.CmdPlay})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetTempo, BPM: 120})

	// SetSlot is local arrangement bookkeeping with no bridge.Command of
	// its own (see Controller.SetSlot); CmdLaunchScene below is drained
	// in the same batch as CmdCreateClip/CmdAddNote on the first
	// RenderBlock call, after this slot assignment already took effect.
	c.SetSlot(track, scene, clip)
	stack.commands.Push(bridge.Command{Kind: bridge.CmdLaunchScene, Scene: scene})

	totalFrames := int(playSceneSeconds * stack.cfg.SampleRate)
	block := stack.cfg.MaxBlockSize
	blockL := make([]float32, block)
	blockR := make([]float32, block)
	outL := make([]float32, 0, totalFrames)
	outR := make([]float32, 0, totalFrames)

	rendered := 0
	for rendered < totalFrames {
		n := block
		if rendered+n > totalFrames {
			n = totalFrames - rendered
		}
		c.RenderBlock(n, blockL[:n], blockR[:n])
		outL = append(outL, blockL[:n]...)
		outR = append(outR, blockR[:n]...)
		rendered += n
	}

	return writeStereoWAV(playSceneOut, int(stack.cfg.SampleRate), outL, outR)
}
