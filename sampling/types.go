// SPDX-License-Identifier: MIT

package sampling

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sentinel errors for sampling.
var (
	// ErrNonPositiveSample indicates a sample size (or population) that is not positive.
	ErrNonPositiveSample = errors.New("sampling: sample size must be positive")

	// ErrSampleExceedsPopulation indicates a request for more samples than the population holds.
	ErrSampleExceedsPopulation = errors.New("sampling: sample size exceeds population")

	// ErrUnsupportedScheme indicates an unknown scheme value or name.
	ErrUnsupportedScheme = errors.New("sampling: unsupported scheme")

	// ErrBadReductionFactor indicates a reduction factor below 1 (or NaN/Inf).
	ErrBadReductionFactor = errors.New("sampling: reduction factor must be >= 1")
)

// Scheme selects how a representative subset is drawn.
type Scheme int

const (
	// None keeps the full population.
	None Scheme = iota

	// SimpleRandom draws uniformly without replacement.
	SimpleRandom

	// Stratified draws one uniform index per equal-width stratum.
	Stratified

	// Jensen takes the midpoint of each equal-width stratum.
	Jensen
)

// String returns the configuration name of the scheme.
func (s Scheme) String() string {
	switch s {
	case None:
		return "none"
	case SimpleRandom:
		return "simple_random"
	case Stratified:
		return "stratified"
	case Jensen:
		return "jensen"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme maps a configuration name onto a Scheme. The empty name
// resolves to Jensen, the default partitioning.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jensen", "jensens":
		return Jensen, nil
	case "none":
		return None, nil
	case "simple_random", "simple-random", "random":
		return SimpleRandom, nil
	case "stratified":
		return Stratified, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnsupportedScheme, name)
	}
}

// Config describes a sampling policy.
//
// A zero Config disables sampling. ReductionFactor 0 is read as 1 (no shrinkage).
type Config struct {
	// Scheme is the selection strategy; None disables sampling.
	Scheme Scheme

	// MaxSampleSize is the sample size at period 0.
	MaxSampleSize int

	// ReductionFactor divides the sample size once per period (>= 1).
	ReductionFactor float64
}

// Jensens returns a Jensen's partitioning policy with the given size and reduction.
func Jensens(maxSampleSize int, reductionFactor float64) Config {
	return Config{Scheme: Jensen, MaxSampleSize: maxSampleSize, ReductionFactor: reductionFactor}
}

// Enabled reports whether the policy samples at all.
func (c Config) Enabled() bool {
	return c.Scheme != None
}

// Validate checks the policy. A disabled policy is always valid.
func (c Config) Validate() error {
	if c.Scheme < None || c.Scheme > Jensen {
		return ErrUnsupportedScheme
	}
	if !c.Enabled() {
		return nil
	}
	if c.MaxSampleSize <= 0 {
		return ErrNonPositiveSample
	}
	if c.ReductionFactor != 0 && (c.ReductionFactor < 1 || math.IsNaN(c.ReductionFactor) || math.IsInf(c.ReductionFactor, 0)) {
		return ErrBadReductionFactor
	}

	return nil
}

// SizeAt returns the sample size for a period: ceil(MaxSampleSize / ReductionFactor^period),
// never below 1. Periods below zero are treated as zero.
//
// Complexity: O(1).
func (c Config) SizeAt(period int) int {
	if c.MaxSampleSize <= 0 {
		return 0
	}
	rf := c.ReductionFactor
	if rf <= 1 || period <= 0 {
		return c.MaxSampleSize
	}
	size := math.Ceil(float64(c.MaxSampleSize) / math.Pow(rf, float64(period)))
	if size < 1 {
		return 1
	}

	return int(size)
}

// Pick is one selected index together with the stratum [Lo, Hi) it represents.
// SimpleRandom and None picks represent only themselves (Hi == Index+1).
type Pick struct {
	Index int
	Lo    int
	Hi    int
}
