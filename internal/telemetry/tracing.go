/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerConfig configures the offline tracer provider. There is
// deliberately no OTLP endpoint here: the engine never ships spans over
// the network from inside this process. Enabled controls whether spans
// are sampled at all, or the global tracer stays a no-op.
type TracerConfig struct {
	ServiceName string
	Enabled     bool
	SampleRate  float64 // 0.0 to 1.0
}

// TracerProvider wraps the SDK provider so callers have somewhere to call
// Shutdown from.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	logger   zerolog.Logger
}

// InitTracer installs the process-wide tracer provider. Spans are
// recorded in-process only — wiring a real exporter is left to the
// embedder, same as the teacher leaves OTLP endpoint selection to
// deployment config rather than hardcoding it.
func InitTracer(cfg TracerConfig, logger zerolog.Logger) *TracerProvider {
	if !cfg.Enabled {
		logger.Info().Msg("tracing disabled")
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return &TracerProvider{logger: logger}
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
	otel.SetTracerProvider(tp)

	logger.Info().Str("service_name", cfg.ServiceName).Float64("sample_rate", cfg.SampleRate).Msg("tracer provider initialized")
	return &TracerProvider{provider: tp, logger: logger}
}

// Shutdown flushes and releases the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("telemetry: shutdown tracer provider: %w", err)
	}
	return nil
}

// StartCompileSpan wraps one graph compilation. It must never be called
// from the audio callback; Controller.RenderBlock compiles on the audio
// thread and does not call it.
func StartCompileSpan(ctx context.Context, nodeCount int) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("hyasynth/compile").Start(ctx, "compile.Compile")
	span.SetAttributes(attribute.Int("node_count", nodeCount))
	return ctx, span
}

// StartHTTPSpan wraps one internal/api request handler.
func StartHTTPSpan(ctx context.Context, route string) (context.Context, trace.Span) {
	return otel.Tracer("hyasynth/api").Start(ctx, route)
}
