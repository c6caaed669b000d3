/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/registry"
)

var (
	renderOut      string
	renderSeconds  float64
	renderNote     uint8
	renderGateBeat float64
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a fixed sine-osc/envelope patch offline to a WAV file",
	Long: `render builds a tiny demo patch directly on the command ring (sine
oscillator into an ADSR envelope, routed to a single track) the same way
internal/session would, fires one note, and renders the requested
duration to a 16-bit stereo WAV file without opening an audio device.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderOut, "out", "demo.wav", "Output WAV file path")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 3, "Duration to render, in seconds")
	renderCmd.Flags().Uint8Var(&renderNote, "note", 69, "MIDI note number to sound (default A4)")
	renderCmd.Flags().Float64Var(&renderGateBeat, "release-at", 0.7, "Fraction of the render duration at which the note releases")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	stack, err := newEngineStack()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	c := stack.ctrl

	stack.commands.Push(bridge.Command{Kind: bridge.CmdAddNode, Node: 0, TypeID: registry.NodeTypeSineOsc})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdAddNode, Node: 1, TypeID: registry.NodeTypeADSREnv})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdConnect, SrcNode: 0, SrcPort: 0, DstNode: 1, DstPort: 0})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamAttack, Value: 0.01})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamDecay, Value: 0.1})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamSustain, Value: 0.7})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetParam, Node: 1, Param: registry.ParamRelease, Value: 0.3})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdCreateTrack, Track: 0})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdSetTrackTarget, Track: 0, Target: 1})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdPlay})
	stack.commands.Push(bridge.Command{Kind: bridge.CmdNoteOn, Track: 0, Note: renderNote, Velocity: 1})

	totalFrames := int(renderSeconds * stack.cfg.SampleRate)
	releaseAtFrame := int(renderGateBeat * float64(totalFrames))

	outL := make([]float32, 0, totalFrames)
	outR := make([]float32, 0, totalFrames)

	block := stack.cfg.MaxBlockSize
	blockL := make([]float32, block)
	blockR := make([]float32, block)

	rendered := 0
	released := false
	for rendered < totalFrames {
		n := block
		if rendered+n > totalFrames {
			n = totalFrames - rendered
		}
		if !released && rendered+n >= releaseAtFrame {
			stack.commands.Push(bridge.Command{Kind: bridge.CmdNoteOff, Track: 0, Note: renderNote})
			released = true
		}
		c.RenderBlock(n, blockL[:n], blockR[:n])
		outL = append(outL, blockL[:n]...)
		outR = append(outR, blockR[:n]...)
		rendered += n
	}

	return writeStereoWAV(renderOut, int(stack.cfg.SampleRate), outL, outR)
}

// writeStereoWAV interleaves outL/outR, converts to 16-bit PCM, and
// writes a standard WAV container via go-audio/wav.
func writeStereoWAV(path string, sampleRate int, outL, outR []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	interleaved := make([]int, len(outL)*2)
	for i := range outL {
		interleaved[i*2] = floatToPCM16(outL[i])
		interleaved[i*2+1] = floatToPCM16(outR[i])
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 2},
		Data:           interleaved,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

func floatToPCM16(v float32) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(v * 32767)
}
