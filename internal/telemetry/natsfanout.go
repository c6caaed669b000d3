/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/bridge"
)

// NATSFanoutConfig configures the optional multi-process meter fan-out.
type NATSFanoutConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxFailures   uint32 // consecutive publish failures before giving up on NATS entirely
}

// DefaultNATSFanoutConfig mirrors the engine's other "best effort, never
// block the real work" defaults.
func DefaultNATSFanoutConfig() NATSFanoutConfig {
	return NATSFanoutConfig{
		URL:           nats.DefaultURL,
		Subject:       "hyasynth.readback",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		MaxFailures:   5,
	}
}

// NATSFanout publishes readback snapshots to an external subject so other
// processes (a mixing-desk UI, a second instance's dashboard) can observe
// this engine's meters without polling its HTTP surface directly. It
// degrades to a no-op rather than blocking the caller if NATS becomes
// unavailable, the same circuit-breaker shape the teacher's event bus
// uses for its own NATS backend.
type NATSFanout struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger

	failCount   atomic.Uint32
	maxFailures uint32
	disabled    atomic.Bool
}

// NewNATSFanout connects to NATS. On connection failure it returns a
// disabled fan-out rather than an error: meter fan-out is optional
// infrastructure, never a reason to fail engine startup.
func NewNATSFanout(cfg NATSFanoutConfig, logger zerolog.Logger) *NATSFanout {
	f := &NATSFanout{subject: cfg.Subject, logger: logger.With().Str("component", "nats_fanout").Logger(), maxFailures: cfg.MaxFailures}

	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				f.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			f.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		f.logger.Warn().Err(err).Msg("NATS connection failed, fan-out disabled")
		f.disabled.Store(true)
		return f
	}
	f.conn = conn
	return f
}

// Publish sends a readback snapshot. No-op (and no error) once the
// failure threshold trips or the initial connection never succeeded.
func (f *NATSFanout) Publish(snap bridge.Snapshot) {
	if f.disabled.Load() {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		f.logger.Error().Err(err).Msg("marshal snapshot failed")
		return
	}
	if err := f.conn.Publish(f.subject, data); err != nil {
		f.logger.Error().Err(err).Msg("publish to NATS failed")
		if f.failCount.Add(1) >= f.maxFailures {
			f.logger.Warn().Msg("NATS failure threshold reached, fan-out disabled")
			f.disabled.Store(true)
			f.conn.Close()
		}
		return
	}
	f.failCount.Store(0)
}

// Close releases the underlying connection, if any.
func (f *NATSFanout) Close() error {
	if f.conn == nil {
		return nil
	}
	f.conn.Close()
	return nil
}
