// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads the demo configuration from TOML.
//
// A missing file is not an error: Load returns Default. Fields absent from
// the file keep their default values.
//
//	log_level = "info"
//	seed = 42
//
//	[gpu]
//	enabled = true
//	timeout = "5s"
//
//	[sort]
//	length_index = 7
//	trace = "out/trace.png"
//
//	[blur]
//	input = "photo.jpg"
//	kind = "gaussian"
//	radius = 4
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/compute"
)

// Duration is a time.Duration that reads and writes as a string like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full demo configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// Seed seeds the random inputs. Zero picks a seed from the clock.
	Seed uint64 `toml:"seed"`

	GPU     GPU     `toml:"gpu"`
	Sort    Sort    `toml:"sort"`
	Squares Squares `toml:"squares"`
	Blur    Blur    `toml:"blur"`
}

// GPU controls the accelerator.
type GPU struct {
	Enabled bool     `toml:"enabled"`
	Timeout Duration `toml:"timeout"`
}

// Sort configures the bitonic sort demo.
type Sort struct {
	LengthIndex int `toml:"length_index"`

	// Trace is the path of the network visualization PNG. Empty disables it.
	Trace string `toml:"trace"`
}

// Squares configures the squares demo.
type Squares struct {
	// Length is the number of elements squared.
	Length int `toml:"length"`
}

// Blur configures the blur demo.
type Blur struct {
	// Input is the source image. Empty uses the generated blue checkerboard.
	Input  string `toml:"input"`
	Output string `toml:"output"`

	Kind       string  `toml:"kind"`
	Radius     float64 `toml:"radius"`
	Iterations int     `toml:"iterations"`

	// MaxDimension downscales larger inputs. Zero keeps the input size.
	MaxDimension int `toml:"max_dimension"`

	// Comparison is the path of the CPU|GPU|diff triptych. Empty disables it.
	Comparison string `toml:"comparison"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "warn",
		GPU:      GPU{Enabled: true, Timeout: Duration{5 * time.Second}},
		Sort:     Sort{LengthIndex: compute.DefaultLengthIndex},
		Squares:  Squares{Length: 128},
		Blur: Blur{
			Output:       "blur.png",
			Kind:         "gaussian",
			Radius:       4,
			Iterations:   2,
			MaxDimension: 2048,
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// Default. Unknown keys are rejected. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML data into cfg, leaving unset fields unchanged.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Encode returns cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.GPU.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("gpu.timeout must be positive, got %v", c.GPU.Timeout))
	}
	if _, err := compute.LengthForIndex(c.Sort.LengthIndex); err != nil {
		errs = append(errs, fmt.Errorf("sort.length_index: %w", err))
	}
	if c.Squares.Length < 1 {
		errs = append(errs, fmt.Errorf("squares.length must be at least 1, got %d", c.Squares.Length))
	}
	if _, err := compute.ParseBlurKind(c.Blur.Kind); err != nil {
		errs = append(errs, fmt.Errorf("blur.kind: %w", err))
	}
	switch r := c.Blur.Radius; {
	case math.IsNaN(r) || math.IsInf(r, 0):
		errs = append(errs, fmt.Errorf("blur.radius must be finite, got %v", r))
	case r < 0:
		errs = append(errs, fmt.Errorf("blur.radius must not be negative, got %v", r))
	case r > compute.MaxBlurRadius:
		errs = append(errs, fmt.Errorf("blur.radius must be at most %d, got %v", compute.MaxBlurRadius, r))
	case c.Blur.MaxDimension > 0 && r > float64(c.Blur.MaxDimension):
		errs = append(errs, fmt.Errorf("blur.radius must not exceed blur.max_dimension %d, got %v", c.Blur.MaxDimension, r))
	}
	if c.Blur.Iterations < 1 {
		errs = append(errs, fmt.Errorf("blur.iterations must be at least 1, got %d", c.Blur.Iterations))
	}
	if c.Blur.MaxDimension < 0 {
		errs = append(errs, fmt.Errorf("blur.max_dimension must not be negative, got %d", c.Blur.MaxDimension))
	}
	if c.Blur.Output == "" {
		errs = append(errs, errors.New("blur.output must be set"))
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// BlurOptions converts the blur section into compute options.
// Call Validate first; an unknown kind falls back to Gaussian.
func (c Config) BlurOptions() compute.BlurOptions {
	kind, _ := compute.ParseBlurKind(c.Blur.Kind)
	return compute.BlurOptions{Kind: kind, Radius: c.Blur.Radius, Iterations: c.Blur.Iterations}
}
