package disease

import "math"

// Transmission is the time-varying infectiousness profile of one infected
// person. Implementations form a closed set: constant and gamma-shaped.
type Transmission interface {
	// Infectiousness returns the instantaneous infectiousness probability
	// at the given time (days) since infection.
	Infectiousness(sinceInfection float64) float64
}

// TransmissionConstant is the simplified profile: a fixed probability from
// the moment of infection.
type TransmissionConstant struct {
	Probability float64
}

func (t TransmissionConstant) Infectiousness(sinceInfection float64) float64 {
	if sinceInfection < 0 {
		return 0
	}
	return t.Probability
}

// TransmissionGamma shapes infectiousness as a shifted gamma density,
// rescaled so its peak equals the per-person sampled maximum infectiousness.
// The profile is zero before the shift (incubation offset), then continuous
// and unimodal.
type TransmissionGamma struct {
	shape float64
	scale float64 // 1/rate
	shift float64
	norm  float64
}

// GammaParams are the sampled per-person parameters of a gamma profile.
type GammaParams struct {
	MaxInfectiousness float64
	Shape             float64
	Rate              float64
	Shift             float64
	// Reduction factors applied when the person's worst outcome is
	// asymptomatic or mild. A factor of 1 leaves the peak untouched.
	AsymptomaticFactor float64
	MildFactor         float64
}

// NewTransmissionGamma builds the profile for a person whose trajectory
// peaks at maxTag. Shape must exceed 1 so the density has an interior peak.
func NewTransmissionGamma(p GammaParams, maxTag SymptomTag) TransmissionGamma {
	peak := p.MaxInfectiousness
	switch maxTag {
	case TagAsymptomatic:
		if p.AsymptomaticFactor > 0 {
			peak *= p.AsymptomaticFactor
		}
	case TagMild:
		if p.MildFactor > 0 {
			peak *= p.MildFactor
		}
	}
	t := TransmissionGamma{
		shape: p.Shape,
		scale: 1 / p.Rate,
		shift: p.Shift,
	}
	t.norm = peak / gammaPdf(t.PeakTime(), t.shape, t.shift, t.scale)
	return t
}

func (t TransmissionGamma) Infectiousness(sinceInfection float64) float64 {
	return t.norm * gammaPdf(sinceInfection, t.shape, t.shift, t.scale)
}

// PeakTime returns the time since infection of maximum infectiousness.
func (t TransmissionGamma) PeakTime() float64 {
	return (t.shape-1)*t.scale + t.shift
}

func gammaPdf(x, a, loc, scale float64) float64 {
	if x < loc {
		return 0
	}
	y := (x - loc) / scale
	return math.Pow(y, a-1) * math.Exp(-y) / (math.Gamma(a) * scale)
}
