/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/config"
	"github.com/friendsincode/hyasynth/internal/diag"
	"github.com/friendsincode/hyasynth/internal/engine"
	"github.com/friendsincode/hyasynth/internal/logging"
	"github.com/friendsincode/hyasynth/internal/nodes"
	"github.com/friendsincode/hyasynth/internal/registry"
)

// engineStack bundles everything a running engine needs: the controller
// itself plus the command ring and readback struct a session (or, here, a
// hand-rolled command sequence) drives it through.
type engineStack struct {
	cfg      config.EngineConfig
	logger   zerolog.Logger
	registry *registry.Registry
	commands *bridge.Ring
	readback *bridge.Readback
	diagRing *diag.Ring
	reclaim  *engine.ReclaimQueue
	ctrl     *engine.Controller
}

func newEngineStack() (*engineStack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.LogLevel)

	reg := registry.New()
	nodes.RegisterAll(reg)

	commands := bridge.NewRing(256)
	readback := &bridge.Readback{}
	diagRing := diag.NewRing(256)
	reclaim := engine.NewReclaimQueue(4)

	ctrl := engine.New(reg, commands, readback, diagRing, reclaim, cfg.SampleRate, cfg.MaxBlockSize, cfg.MaxVoices, logger)

	return &engineStack{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		commands: commands,
		readback: readback,
		diagRing: diagRing,
		reclaim:  reclaim,
		ctrl:     ctrl,
	}, nil
}
