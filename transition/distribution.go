// SPDX-License-Identifier: MIT

package transition

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/sdp/state"
)

// Distribution is a univariate distribution over integer-coded outcomes.
type Distribution interface {
	// PMF returns the probability mass at k.
	PMF(k int) float64

	// Quantile returns the smallest k with CDF(k) >= p, for p in [0, 1).
	Quantile(p float64) int
}

// Poisson is the Poisson distribution with the given mean, backed by
// gonum's distuv.Poisson.
type Poisson struct {
	Mean float64
}

func (d Poisson) dist() distuv.Poisson { return distuv.Poisson{Lambda: d.Mean} }

// PMF returns e^-λ λ^k / k!. A zero mean puts all mass at 0.
func (d Poisson) PMF(k int) float64 {
	if k < 0 {
		return 0
	}
	if d.Mean == 0 {
		if k == 0 {
			return 1
		}
		return 0
	}

	return d.dist().Prob(float64(k))
}

// Quantile returns the smallest k with CDF(k) >= p by bisection over the
// CDF. The search is capped far in the upper tail.
//
// Complexity: O(log(mean)) CDF evaluations.
func (d Poisson) Quantile(p float64) int {
	if d.Mean == 0 {
		return 0
	}
	dist := d.dist()
	limit := int(d.Mean+40*math.Sqrt(d.Mean+1)) + 40

	return sort.Search(limit, func(k int) bool { return dist.CDF(float64(k)) >= p })
}

// Normal is a normal distribution truncated and discretized to a grid
// step: code k carries the mass of ((k-1/2)·Step, (k+1/2)·Step].
// Step must be positive; On copies it from a state dimension. A model
// built with boundaries rejects a Step that differs from its grid.
type Normal struct {
	Mu    float64
	Sigma float64
	Step  float64
}

// On returns d discretized to the step of dim.
func (d Normal) On(dim state.Dimension) Normal {
	d.Step = dim.Step

	return d
}

// GridStep returns the discretization step.
func (d Normal) GridStep() float64 { return d.Step }

func (d Normal) dist() distuv.Normal { return distuv.Normal{Mu: d.Mu, Sigma: d.Sigma} }

// PMF returns the discretized mass at code k.
func (d Normal) PMF(k int) float64 {
	n := d.dist()

	return n.CDF((float64(k)+0.5)*d.Step) - n.CDF((float64(k)-0.5)*d.Step)
}

// Quantile returns the code whose cell contains the p-quantile, p in (0, 1).
func (d Normal) Quantile(p float64) int {
	return int(math.Round(d.dist().Quantile(p) / d.Step))
}

// Categorical is a finite distribution over explicit integer values.
type Categorical struct {
	values []int
	probs  []float64
	cum    []float64
}

// NewCategorical builds a categorical distribution. Probabilities must be
// non-negative with a positive sum; they are normalized. Repeated values merge.
func NewCategorical(values []int, probs []float64) (Categorical, error) {
	if len(values) == 0 || len(values) != len(probs) {
		return Categorical{}, fmt.Errorf("%w: %d values, %d probabilities", ErrBadDistribution, len(values), len(probs))
	}
	mass := make(map[int]float64, len(values))
	total := 0.0
	for i, v := range values {
		if probs[i] < 0 || math.IsNaN(probs[i]) {
			return Categorical{}, fmt.Errorf("%w: probability %v", ErrBadDistribution, probs[i])
		}
		mass[v] += probs[i]
		total += probs[i]
	}
	if !(total > 0) {
		return Categorical{}, fmt.Errorf("%w: zero total mass", ErrBadDistribution)
	}

	c := Categorical{values: make([]int, 0, len(mass))}
	for v := range mass {
		c.values = append(c.values, v)
	}
	sort.Ints(c.values)
	c.probs = make([]float64, len(c.values))
	c.cum = make([]float64, len(c.values))
	acc := 0.0
	for i, v := range c.values {
		c.probs[i] = mass[v] / total
		acc += c.probs[i]
		c.cum[i] = acc
	}

	return c, nil
}

// PMF returns the mass at k.
func (c Categorical) PMF(k int) float64 {
	i := sort.SearchInts(c.values, k)
	if i < len(c.values) && c.values[i] == k {
		return c.probs[i]
	}

	return 0
}

// Quantile returns the smallest value whose cumulative mass reaches p.
func (c Categorical) Quantile(p float64) int {
	i := sort.SearchFloat64s(c.cum, p)
	if i >= len(c.values) {
		i = len(c.values) - 1
	}

	return c.values[i]
}

// Joint is a distribution over outcome vectors.
type Joint interface {
	// Dim returns the arity of outcome vectors.
	Dim() int

	// Outcomes returns the truncated support in a fixed order, positive mass
	// only, renormalized to sum to one.
	Outcomes(tail float64) ([]Outcome, error)
}

// Univariate lifts a Distribution into a one-dimensional Joint.
type Univariate struct {
	D Distribution
}

// Dim returns 1.
func (u Univariate) Dim() int { return 1 }

// Outcomes enumerates codes between the tail quantiles.
func (u Univariate) Outcomes(tail float64) ([]Outcome, error) {
	codes, probs, err := truncate(u.D, tail)
	if err != nil {
		return nil, err
	}
	out := make([]Outcome, len(codes))
	for i := range codes {
		out[i] = Outcome{X: state.Vector{codes[i]}, P: probs[i]}
	}

	return out, nil
}

// Independent is the product of independent per-coordinate distributions.
type Independent struct {
	Ds []Distribution
}

// Dim returns the number of coordinates.
func (ind Independent) Dim() int { return len(ind.Ds) }

// Outcomes enumerates the cartesian product of the truncated marginals,
// first coordinate varying fastest.
//
// Complexity: O(Π |support_i|).
func (ind Independent) Outcomes(tail float64) ([]Outcome, error) {
	if len(ind.Ds) == 0 {
		return nil, fmt.Errorf("%w: no marginals", ErrBadDistribution)
	}
	codes := make([][]int, len(ind.Ds))
	probs := make([][]float64, len(ind.Ds))
	total := 1
	for i, d := range ind.Ds {
		var err error
		if codes[i], probs[i], err = truncate(d, tail); err != nil {
			return nil, err
		}
		total *= len(codes[i])
	}

	out := make([]Outcome, 0, total)
	pos := make([]int, len(ind.Ds))
	for n := 0; n < total; n++ {
		x := make(state.Vector, len(ind.Ds))
		p := 1.0
		for i := range ind.Ds {
			x[i] = codes[i][pos[i]]
			p *= probs[i][pos[i]]
		}
		out = append(out, Outcome{X: x, P: p})
		for i := range pos {
			pos[i]++
			if pos[i] < len(codes[i]) {
				break
			}
			pos[i] = 0
		}
	}

	return out, nil
}

// Empirical is a joint categorical distribution over explicit outcome vectors.
// The truncation tail does not apply: every point with positive mass is kept.
type Empirical struct {
	Points []state.Vector
	Probs  []float64
}

// Dim returns the arity of the first point.
func (e Empirical) Dim() int {
	if len(e.Points) == 0 {
		return 0
	}

	return len(e.Points[0])
}

// Outcomes returns the positive-mass points, normalized, in input order.
func (e Empirical) Outcomes(float64) ([]Outcome, error) {
	if len(e.Points) == 0 || len(e.Points) != len(e.Probs) {
		return nil, fmt.Errorf("%w: %d points, %d probabilities", ErrBadDistribution, len(e.Points), len(e.Probs))
	}
	dim := e.Dim()
	total := 0.0
	out := make([]Outcome, 0, len(e.Points))
	for i, x := range e.Points {
		if len(x) != dim {
			return nil, fmt.Errorf("%w: point %d has arity %d, want %d", ErrBadDistribution, i, len(x), dim)
		}
		if e.Probs[i] < 0 || math.IsNaN(e.Probs[i]) {
			return nil, fmt.Errorf("%w: probability %v", ErrBadDistribution, e.Probs[i])
		}
		if e.Probs[i] == 0 {
			continue
		}
		total += e.Probs[i]
		out = append(out, Outcome{X: x.Clone(), P: e.Probs[i]})
	}
	if !(total > 0) {
		return nil, fmt.Errorf("%w: zero total mass", ErrBadDistribution)
	}
	for i := range out {
		out[i].P /= total
	}

	return out, nil
}

// truncate returns the positive-mass codes between the tail quantiles,
// renormalized.
func truncate(d Distribution, tail float64) ([]int, []float64, error) {
	if d == nil {
		return nil, nil, fmt.Errorf("%w: nil marginal", ErrBadDistribution)
	}
	if err := validateDistribution(d); err != nil {
		return nil, nil, err
	}
	lo, hi := d.Quantile(tail), d.Quantile(1-tail)
	var (
		codes []int
		probs []float64
		total float64
	)
	for k := lo; k <= hi; k++ {
		p := d.PMF(k)
		if !(p > 0) {
			continue
		}
		codes = append(codes, k)
		probs = append(probs, p)
		total += p
	}
	if len(codes) == 0 {
		return nil, nil, fmt.Errorf("%w: empty truncated support", ErrBadDistribution)
	}
	for i := range probs {
		probs[i] /= total
	}

	return codes, probs, nil
}

func validateDistribution(d Distribution) error {
	switch v := d.(type) {
	case Poisson:
		if v.Mean < 0 || math.IsNaN(v.Mean) || math.IsInf(v.Mean, 0) {
			return fmt.Errorf("%w: poisson mean %v", ErrBadDistribution, v.Mean)
		}
	case Normal:
		if !(v.Sigma > 0) || math.IsInf(v.Sigma, 0) || math.IsNaN(v.Mu) || !(v.Step > 0) {
			return fmt.Errorf("%w: normal mu=%v sigma=%v step=%v", ErrBadDistribution, v.Mu, v.Sigma, v.Step)
		}
	case Categorical:
		if len(v.values) == 0 {
			return fmt.Errorf("%w: empty categorical", ErrBadDistribution)
		}
	}

	return nil
}

// stepped is a distribution discretized to an explicit grid step.
type stepped interface {
	GridStep() float64
}

// checkSteps verifies that every stepped marginal of j uses the step of the
// matching grid dimension.
func checkSteps(j Joint, b state.Boundaries) error {
	var marginals []Distribution
	switch v := j.(type) {
	case Univariate:
		marginals = []Distribution{v.D}
	case Independent:
		marginals = v.Ds
	default:
		return nil
	}
	for i, d := range marginals {
		sd, ok := d.(stepped)
		if !ok || i >= b.Dim() {
			continue
		}
		want := b.Dims[i].Step
		if math.Abs(sd.GridStep()-want) > 1e-12*math.Max(1, math.Abs(want)) {
			return fmt.Errorf("%w: coordinate %d step %v, grid step %v", ErrStepMismatch, i, sd.GridStep(), want)
		}
	}

	return nil
}
