/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/friendsincode/hyasynth/internal/api"
	"github.com/friendsincode/hyasynth/internal/auth"
	"github.com/friendsincode/hyasynth/internal/samplepool"
	"github.com/friendsincode/hyasynth/internal/session"
	"github.com/friendsincode/hyasynth/internal/telemetry"
)

var (
	serveBind       string
	serveJWTSecret  string
	serveSamplesDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP control plane against a live, simulated engine",
	Long: `serve builds a session and a controller sharing one command ring
and readback struct, starts a goroutine that stands in for the audio
thread (calling RenderBlock on a fixed cadence), and mounts internal/api
over chi. There is no real audio device behind this — it exists so a
client can drive and observe the command-replay architecture end to end.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "127.0.0.1:8090", "Address to listen on")
	serveCmd.Flags().StringVar(&serveJWTSecret, "jwt-secret", "hyasynth-demo-secret", "HMAC secret used to issue and verify bearer tokens")
	serveCmd.Flags().StringVar(&serveSamplesDir, "samples-dir", "", "Optional local directory to serve sample loads from")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	stack, err := newEngineStack()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	sess := session.New("demo", stack.cfg.SampleRate, stack.cfg.MaxBlockSize, stack.cfg.MaxVoices, stack.commands, stack.readback, stack.logger)

	var samples *samplepool.FilesystemLoader
	if serveSamplesDir != "" {
		samples = samplepool.NewFilesystemLoader(serveSamplesDir, stack.logger)
	}

	promReg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(promReg)

	a := api.New(sess, samples, metrics, promReg, []byte(serveJWTSecret), stack.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	a.Routes(r)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopAudio := runSimulatedAudioThread(ctx, stack)
	defer stopAudio()

	token, err := auth.Issue([]byte(serveJWTSecret), auth.Claims{UserID: "demo-operator", Roles: []string{auth.RoleOperator}, SessionID: sess.ID.String()}, 24*time.Hour)
	if err != nil {
		return fmt.Errorf("issue demo token: %w", err)
	}
	stack.logger.Info().Str("bind", serveBind).Str("token", token).Msg("serving control plane; use as a Bearer token")

	srv := &http.Server{Addr: serveBind, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// runSimulatedAudioThread stands in for a real audio callback: it renders
// one block every blockPeriod and discards the output, since this demo
// host has no audio device to write to. It returns a stop function.
func runSimulatedAudioThread(ctx context.Context, stack *engineStack) func() {
	block := stack.cfg.MaxBlockSize
	blockPeriod := time.Duration(float64(block) / stack.cfg.SampleRate * float64(time.Second))

	scratchL := make([]float32, block)
	scratchR := make([]float32, block)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(blockPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stack.ctrl.RenderBlock(block, scratchL, scratchR)
			}
		}
	}()

	return func() { <-done }
}
