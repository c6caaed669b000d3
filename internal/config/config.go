/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package config loads EngineConfig from an optional YAML file overlaid
// with environment variables (env wins), following the same two-source
// precedence the teacher platform uses for its process config.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EngineConfig covers process-level configuration for a demo/host process
// embedding the engine. It has nothing to do with a compiled Graph or a
// Session's in-memory arrangement — those are created via their own
// constructors and are never round-tripped through YAML.
type EngineConfig struct {
	SampleRate    float64 `yaml:"sample_rate"`
	MaxBlockSize  int     `yaml:"max_block_size"`
	MaxVoices     int     `yaml:"max_voices"`
	LogLevel      string  `yaml:"log_level"`
	MetricsBind   string  `yaml:"metrics_bind"`
	QuantizeBeats float64 `yaml:"quantize_beats"`
	// TimelineLoopsWhenDone decides whether the timeline wraps back to
	// the start once it plays through, or stops (default false).
	TimelineLoopsWhenDone bool `yaml:"timeline_loops_when_done"`
}

// Default returns the engine's built-in defaults, used when no YAML file
// and no environment overrides are present.
func Default() EngineConfig {
	return EngineConfig{
		SampleRate:            48000,
		MaxBlockSize:          512,
		MaxVoices:             16,
		LogLevel:              "info",
		MetricsBind:           "127.0.0.1:9100",
		QuantizeBeats:         4,
		TimelineLoopsWhenDone: false,
	}
}

// Load reads path (if non-empty and present) as YAML over the defaults,
// then applies HYASYNTH_* environment overrides, and validates the result.
func Load(path string) (EngineConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return EngineConfig{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return EngineConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.SampleRate <= 0 {
		return EngineConfig{}, fmt.Errorf("config: sample_rate must be positive, got %v", cfg.SampleRate)
	}
	if cfg.MaxBlockSize <= 0 {
		return EngineConfig{}, fmt.Errorf("config: max_block_size must be positive, got %d", cfg.MaxBlockSize)
	}
	if cfg.MaxVoices <= 0 {
		return EngineConfig{}, fmt.Errorf("config: max_voices must be positive, got %d", cfg.MaxVoices)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *EngineConfig) {
	if v := getEnvFloat("HYASYNTH_SAMPLE_RATE"); v != nil {
		cfg.SampleRate = *v
	}
	if v := getEnvInt("HYASYNTH_MAX_BLOCK_SIZE"); v != nil {
		cfg.MaxBlockSize = *v
	}
	if v := getEnvInt("HYASYNTH_MAX_VOICES"); v != nil {
		cfg.MaxVoices = *v
	}
	if v := os.Getenv("HYASYNTH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HYASYNTH_METRICS_BIND"); v != "" {
		cfg.MetricsBind = v
	}
	if v := getEnvFloat("HYASYNTH_QUANTIZE_BEATS"); v != nil {
		cfg.QuantizeBeats = *v
	}
	if v := getEnvBool("HYASYNTH_TIMELINE_LOOPS_WHEN_DONE"); v != nil {
		cfg.TimelineLoopsWhenDone = *v
	}
}

func getEnvInt(key string) *int {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func getEnvFloat(key string) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func getEnvBool(key string) *bool {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}
