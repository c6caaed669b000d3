/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package samplepool

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/arrangement"
)

// FilesystemLoader loads WAV sample assets from a local directory tree
// instead of object storage — for local demo sessions and tests that
// never need a bucket.
type FilesystemLoader struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemLoader returns a loader rooted at rootDir.
func NewFilesystemLoader(rootDir string, logger zerolog.Logger) *FilesystemLoader {
	return &FilesystemLoader{rootDir: rootDir, logger: logger.With().Str("component", "samplepool_fs").Logger()}
}

// Load decodes the WAV file at rootDir/relPath.
func (l *FilesystemLoader) Load(relPath string) (*arrangement.AudioEntry, error) {
	fullPath := filepath.Join(l.rootDir, relPath)
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("samplepool: open %q: %w", fullPath, err)
	}
	defer f.Close()

	entry, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("samplepool: decode %q: %w", fullPath, err)
	}
	entry.Name = relPath

	l.logger.Debug().Str("path", fullPath).Int("sample_rate", entry.SampleRate).Msg("sample loaded from filesystem")
	return entry, nil
}
