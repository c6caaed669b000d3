/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes the engine's UI-side observability surface:
// Prometheus metrics, offline OpenTelemetry spans around graph compilation,
// and readback fan-out over websocket and NATS. None of this runs on the
// audio thread — it all reads bridge.Readback/diag.Ring from the UI side,
// the same way the teacher's web/API layers only ever observe state the
// request-handling goroutines already own.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/diag"
)

// Metrics bundles every Prometheus collector the engine publishes.
type Metrics struct {
	ActiveVoices     prometheus.Gauge
	PeakLeft         prometheus.Gauge
	PeakRight        prometheus.Gauge
	BlockRenderTime  prometheus.Histogram
	CommandRingDepth prometheus.Gauge
	DiagEntriesTotal *prometheus.CounterVec
}

// NewMetrics registers every collector against reg and returns the bundle.
// Pass prometheus.NewRegistry() for tests, prometheus.DefaultRegisterer in
// production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveVoices: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyasynth_active_voices",
			Help: "Number of currently active polyphonic voices.",
		}),
		PeakLeft: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyasynth_peak_left",
			Help: "Peak absolute sample value on the left channel, last block.",
		}),
		PeakRight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyasynth_peak_right",
			Help: "Peak absolute sample value on the right channel, last block.",
		}),
		BlockRenderTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hyasynth_block_render_seconds",
			Help:    "Wall-clock time spent in Controller.RenderBlock.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		CommandRingDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyasynth_command_ring_depth",
			Help: "Commands enqueued but not yet drained by the audio thread.",
		}),
		DiagEntriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hyasynth_diag_entries_total",
			Help: "Diagnostic ring entries observed, by kind.",
		}, []string{"kind"}),
	}
}

// Handler returns the /metrics HTTP handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveReadback updates the gauges from a decoded readback snapshot.
// Called from the UI-side poll loop, never the audio callback.
func (m *Metrics) ObserveReadback(snap bridge.Snapshot) {
	m.ActiveVoices.Set(float64(snap.ActiveVoices))
	m.PeakLeft.Set(float64(snap.PeakLeft))
	m.PeakRight.Set(float64(snap.PeakRight))
}

// DrainDiagnostics forwards a drained diag.Ring batch into the counter
// vector, one increment per entry kind.
func (m *Metrics) DrainDiagnostics(entries []diag.Entry) {
	for _, e := range entries {
		m.DiagEntriesTotal.WithLabelValues(e.Kind.String()).Inc()
	}
}
