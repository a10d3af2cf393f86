// Package random provides the stochastic draw primitives used across the
// engine: a closed set of samplable distributions for stage durations and
// per-person transmission parameters. Every draw takes an explicit generator
// so that runs are reproducible under a fixed seed and parallel workers can
// carry independent streams.
package random

import (
	"fmt"
	"math"
	"math/rand"
)

// Sampler draws a single value from a configured distribution.
type Sampler interface {
	Sample(rng *rand.Rand) float64
}

// Spec is the YAML-facing description of a distribution. The zero value of
// unused parameters is fine; Sampler() validates what each family needs.
type Spec struct {
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value,omitempty"` // constant
	Loc   float64 `yaml:"loc,omitempty"`
	Scale float64 `yaml:"scale,omitempty"`
	A     float64 `yaml:"a,omitempty"` // beta
	B     float64 `yaml:"b,omitempty"` // beta
	S     float64 `yaml:"s,omitempty"` // lognormal shape
}

// Sampler builds the Sampler described by the spec.
func (s Spec) Sampler() (Sampler, error) {
	switch s.Type {
	case "constant":
		return Constant{Value: s.Value}, nil
	case "exponential":
		if s.Scale <= 0 {
			return nil, fmt.Errorf("random: exponential scale must be > 0, got %v", s.Scale)
		}
		return Exponential{Loc: s.Loc, Scale: s.Scale}, nil
	case "beta":
		if s.A <= 0 || s.B <= 0 {
			return nil, fmt.Errorf("random: beta shape parameters must be > 0, got a=%v b=%v", s.A, s.B)
		}
		scale := s.Scale
		if scale == 0 {
			scale = 1
		}
		return Beta{A: s.A, B: s.B, Loc: s.Loc, Scale: scale}, nil
	case "lognormal":
		if s.S <= 0 {
			return nil, fmt.Errorf("random: lognormal s must be > 0, got %v", s.S)
		}
		scale := s.Scale
		if scale == 0 {
			scale = 1
		}
		return LogNormal{S: s.S, Loc: s.Loc, Scale: scale}, nil
	case "normal":
		if s.Scale <= 0 {
			return nil, fmt.Errorf("random: normal scale must be > 0, got %v", s.Scale)
		}
		return Normal{Loc: s.Loc, Scale: s.Scale}, nil
	case "":
		return nil, fmt.Errorf("random: distribution type missing")
	default:
		return nil, fmt.Errorf("random: unrecognised distribution type %q", s.Type)
	}
}

// Constant always returns the same value.
type Constant struct {
	Value float64
}

func (c Constant) Sample(_ *rand.Rand) float64 { return c.Value }

// Exponential draws Loc + Scale*Exp(1).
type Exponential struct {
	Loc   float64
	Scale float64
}

func (e Exponential) Sample(rng *rand.Rand) float64 {
	return e.Loc + e.Scale*rng.ExpFloat64()
}

// Beta draws from a beta(A, B) stretched onto [Loc, Loc+Scale].
type Beta struct {
	A     float64
	B     float64
	Loc   float64
	Scale float64
}

func (b Beta) Sample(rng *rand.Rand) float64 {
	x := gammaVariate(rng, b.A)
	y := gammaVariate(rng, b.B)
	return b.Loc + b.Scale*(x/(x+y))
}

// LogNormal draws Loc + Scale*exp(S*N(0,1)).
type LogNormal struct {
	S     float64
	Loc   float64
	Scale float64
}

func (l LogNormal) Sample(rng *rand.Rand) float64 {
	return l.Loc + l.Scale*math.Exp(l.S*rng.NormFloat64())
}

// Normal draws Loc + Scale*N(0,1).
type Normal struct {
	Loc   float64
	Scale float64
}

func (n Normal) Sample(rng *rand.Rand) float64 {
	return n.Loc + n.Scale*rng.NormFloat64()
}

// gammaVariate draws from a gamma distribution with the given shape and unit
// scale using the Marsaglia-Tsang squeeze method. Shapes below one are lifted
// via the boosting identity G(a) = G(a+1) * U^(1/a).
func gammaVariate(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return gammaVariate(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
