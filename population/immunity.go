package population

import "hash/adler32"

// PathogenID identifies a pathogen across domains and runs.
type PathogenID uint32

// PathogenIDOf derives the stable id of a pathogen from its name.
func PathogenIDOf(name string) PathogenID {
	return PathogenID(adler32.Checksum([]byte(name)))
}

// Immunity tracks a person's per-pathogen residual susceptibility and the
// effective severity multipliers granted by vaccination or prior infection.
type Immunity struct {
	susceptibility map[PathogenID]float64
	multiplier     map[PathogenID]float64
}

// NewImmunity returns fully susceptible immunity state.
func NewImmunity() Immunity {
	return Immunity{}
}

// Susceptibility returns the residual susceptibility against a pathogen,
// defaulting to 1 when nothing is recorded.
func (im *Immunity) Susceptibility(id PathogenID) float64 {
	if v, ok := im.susceptibility[id]; ok {
		return v
	}
	return 1
}

// SetSusceptibility records the residual susceptibility against a pathogen.
func (im *Immunity) SetSusceptibility(id PathogenID, v float64) {
	if im.susceptibility == nil {
		im.susceptibility = make(map[PathogenID]float64, 1)
	}
	im.susceptibility[id] = v
}

// AddImmunity zeroes susceptibility against each pathogen, as after
// recovering from one of them.
func (im *Immunity) AddImmunity(ids ...PathogenID) {
	for _, id := range ids {
		im.SetSusceptibility(id, 0)
	}
}

// EffectiveMultiplier returns the severity multiplier against a pathogen,
// defaulting to 1.
func (im *Immunity) EffectiveMultiplier(id PathogenID) float64 {
	if v, ok := im.multiplier[id]; ok {
		return v
	}
	return 1
}

// SetEffectiveMultiplier records a severity multiplier against a pathogen.
func (im *Immunity) SetEffectiveMultiplier(id PathogenID, v float64) {
	if im.multiplier == nil {
		im.multiplier = make(map[PathogenID]float64, 1)
	}
	im.multiplier[id] = v
}
