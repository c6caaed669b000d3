/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	ws "nhooyr.io/websocket"

	"github.com/friendsincode/hyasynth/internal/bridge"
)

// ReadbackSource is anything that can be polled for the latest decoded
// audio-thread snapshot; *bridge.Readback satisfies it directly.
type ReadbackSource interface {
	Read() bridge.Snapshot
}

// DefaultMeterInterval is the push cadence used when an embedder has no
// stronger opinion: fast enough for a smooth meter, and about three times
// the period of a 512-frame block at 48 kHz (about 10.7 ms), so it never
// competes with the audio thread for attention.
const DefaultMeterInterval = 33 * time.Millisecond

// MeterSocket pushes periodic bridge.Snapshot updates to a single
// connected client over a websocket, the way the teacher's WebDJ console
// streams session state: accept, then loop ticking sends until the
// context is done or the client goes away.
type MeterSocket struct {
	source ReadbackSource
	every  time.Duration
	logger zerolog.Logger
}

// NewMeterSocket returns a handler pushing a snapshot every `every`.
func NewMeterSocket(source ReadbackSource, every time.Duration, logger zerolog.Logger) *MeterSocket {
	return &MeterSocket{source: source, every: every, logger: logger.With().Str("component", "meter_ws").Logger()}
}

// ServeHTTP upgrades the request to a websocket and streams snapshots
// until the connection closes.
func (m *MeterSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		m.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	ctx := r.Context()
	ticker := time.NewTicker(m.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "context cancelled")
			return
		case <-ticker.C:
			snap := m.source.Read()
			data, err := json.Marshal(snap)
			if err != nil {
				m.logger.Error().Err(err).Msg("marshal snapshot failed")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = conn.Write(writeCtx, ws.MessageText, data)
			cancel()
			if err != nil {
				if ws.CloseStatus(err) == ws.StatusNormalClosure {
					return
				}
				m.logger.Debug().Err(err).Msg("websocket write failed, closing")
				return
			}
		}
	}
}
