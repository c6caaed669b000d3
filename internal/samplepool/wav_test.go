/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package samplepool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func writeTestWAV(t *testing.T, path string, sampleRate, bitDepth, channels int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
}

func TestDecodeWAV_MonoFullScalePeaks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTestWAV(t, path, 44100, 16, 1, []int{32767, -32768, 0, 16384})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open wav: %v", err)
	}
	defer f.Close()

	entry, err := DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if entry.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", entry.SampleRate)
	}
	if entry.Channels != 1 {
		t.Errorf("Channels = %d, want 1", entry.Channels)
	}
	frames := *entry.Samples
	if len(frames) != 4 {
		t.Fatalf("len(frames) = %d, want 4", len(frames))
	}
	if frames[0] < 0.99 || frames[0] > 1.0 {
		t.Errorf("frames[0] = %v, want ~1.0", frames[0])
	}
	if frames[1] < -1.0 || frames[1] > -0.99 {
		t.Errorf("frames[1] = %v, want ~-1.0", frames[1])
	}
}

func TestFilesystemLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, filepath.Join(dir, "kick.wav"), 48000, 16, 2, []int{100, -100, 200, -200})

	loader := NewFilesystemLoader(dir, testLogger())
	entry, err := loader.Load("kick.wav")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if entry.Name != "kick.wav" {
		t.Errorf("Name = %q, want %q", entry.Name, "kick.wav")
	}
	if entry.Channels != 2 {
		t.Errorf("Channels = %d, want 2", entry.Channels)
	}
	if len(*entry.Samples) != 4 {
		t.Errorf("len(Samples) = %d, want 4", len(*entry.Samples))
	}
}

func TestFilesystemLoader_MissingFile(t *testing.T) {
	loader := NewFilesystemLoader(t.TempDir(), testLogger())
	if _, err := loader.Load("nope.wav"); err == nil {
		t.Fatal("Load of missing file: want error, got nil")
	}
}
