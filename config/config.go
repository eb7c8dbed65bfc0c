// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/sampling"
	"github.com/katalvlaran/sdp/store"
	"github.com/katalvlaran/sdp/transition"
	"github.com/katalvlaran/sdp/value"
)

// ErrInvalid indicates a configuration value outside its domain.
var ErrInvalid = errors.New("config: invalid value")

// Sampling is the YAML form of sampling.Config. An empty scheme with a
// positive size selects Jensen; an empty scheme with size 0 disables sampling.
type Sampling struct {
	Scheme          string  `yaml:"scheme"`
	MaxSampleSize   int     `yaml:"max_sample_size"`
	ReductionFactor float64 `yaml:"reduction_factor"`
}

// Policy converts s into a sampling.Config.
func (s Sampling) Policy() (sampling.Config, error) {
	if s.Scheme == "" && s.MaxSampleSize == 0 {
		return sampling.Config{}, nil
	}
	scheme, err := sampling.ParseScheme(s.Scheme)
	if err != nil {
		return sampling.Config{}, err
	}
	c := sampling.Config{Scheme: scheme, MaxSampleSize: s.MaxSampleSize, ReductionFactor: s.ReductionFactor}

	return c, c.Validate()
}

// Engine holds every run setting that is independent of the model.
type Engine struct {
	Direction        string       `yaml:"direction"`
	Discount         float64      `yaml:"discount"`
	Workers          int          `yaml:"workers"`
	Tail             float64      `yaml:"tail"`
	Seed             int64        `yaml:"seed"`
	StateSampling    Sampling     `yaml:"state_sampling"`
	ActionSampling   Sampling     `yaml:"action_sampling"`
	ScenarioSampling Sampling     `yaml:"scenario_sampling"`
	Store            store.Config `yaml:"store"`
	LogLevel         string       `yaml:"log_level"`
}

// Default returns an exact, undiscounted minimization in memory.
func Default() Engine {
	return Engine{
		Direction: value.Minimize.String(),
		Discount:  1,
		Workers:   runtime.GOMAXPROCS(0),
		Tail:      transition.DefaultTail,
		Store:     store.Config{Backend: store.Memory},
		LogLevel:  "info",
	}
}

// Validate checks every field.
func (e Engine) Validate() error {
	if _, err := value.ParseDirection(e.Direction); err != nil {
		return err
	}
	if e.Discount < 0 || math.IsNaN(e.Discount) || math.IsInf(e.Discount, 0) {
		return fmt.Errorf("%w: discount %v", ErrInvalid, e.Discount)
	}
	if e.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, e.Workers)
	}
	if e.Tail != 0 && !(e.Tail > 0 && e.Tail < 0.5) {
		return fmt.Errorf("%w: tail %v", ErrInvalid, e.Tail)
	}
	if _, err := e.StateSampling.Policy(); err != nil {
		return fmt.Errorf("state_sampling: %w", err)
	}
	if _, err := e.ActionSampling.Policy(); err != nil {
		return fmt.Errorf("action_sampling: %w", err)
	}
	if _, err := e.ScenarioSampling.Policy(); err != nil {
		return fmt.Errorf("scenario_sampling: %w", err)
	}
	if _, err := ParseLevel(e.LogLevel); err != nil {
		return err
	}

	return e.Store.Validate()
}

// Options converts e into recursion.Options. The store is left nil; attach
// one from OpenStore when a persistent backend is configured.
func (e Engine) Options(logger *slog.Logger) (recursion.Options, error) {
	if err := e.Validate(); err != nil {
		return recursion.Options{}, err
	}
	dir, _ := value.ParseDirection(e.Direction)
	opts := recursion.Options{
		Workers:   e.Workers,
		Direction: dir,
		Discount:  e.Discount,
		Tail:      e.Tail,
		Seed:      e.Seed,
		Logger:    logger,
	}
	opts.StateSampling, _ = e.StateSampling.Policy()
	opts.ActionSampling, _ = e.ActionSampling.Policy()
	opts.ScenarioSampling, _ = e.ScenarioSampling.Policy()

	return opts, nil
}

// OpenStore opens the configured value store.
func (e Engine) OpenStore(logger *slog.Logger) (store.Store, error) {
	cfg := e.Store
	cfg.Logger = logger

	return store.Open(cfg)
}

// Load decodes the YAML file at path into dst. Unknown keys are rejected.
func Load(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

// ApplyEnv overrides fields of e from SDP_* environment variables.
// Malformed numbers are reported rather than ignored.
func ApplyEnv(e *Engine) error {
	if v := os.Getenv("SDP_DIRECTION"); v != "" {
		e.Direction = v
	}
	if v := os.Getenv("SDP_DISCOUNT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SDP_DISCOUNT: %v", ErrInvalid, err)
		}
		e.Discount = f
	}
	if v := os.Getenv("SDP_WORKERS"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SDP_WORKERS: %v", ErrInvalid, err)
		}
		e.Workers = i
	}
	if v := os.Getenv("SDP_SEED"); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: SDP_SEED: %v", ErrInvalid, err)
		}
		e.Seed = i
	}
	if v := os.Getenv("SDP_STORE_BACKEND"); v != "" {
		e.Store.Backend = v
	}
	if v := os.Getenv("SDP_STORE_PATH"); v != "" {
		e.Store.Path = v
	}
	if v := os.Getenv("SDP_STORE_TRUNCATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: SDP_STORE_TRUNCATE: %v", ErrInvalid, err)
		}
		e.Store.Truncate = b
	}
	if v := os.Getenv("SDP_LOG_LEVEL"); v != "" {
		e.LogLevel = v
	}

	return nil
}

// ParseLevel maps debug, info, warn and error onto slog levels. Empty is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalid, name)
	}
}

// NewLogger returns a text logger on w at the given level.
func NewLogger(level string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
