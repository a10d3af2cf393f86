package outcomes

import (
	"fmt"

	"github.com/epiforge/epiforge/population"
)

// PrevalenceSpec gives the age-banded prevalence of one comorbidity in the
// reference population, per sex.
type PrevalenceSpec struct {
	Male   map[string]float64 `yaml:"male"`
	Female map[string]float64 `yaml:"female"`
}

// ComorbidityConfig configures severity multipliers per comorbidity and
// their prevalence in a reference population.
type ComorbidityConfig struct {
	Multipliers         map[string]float64        `yaml:"multipliers"`
	ReferencePrevalence map[string]PrevalenceSpec `yaml:"reference_prevalence"`
}

type prevalenceBands struct {
	male   *population.AgeBands
	female *population.AgeBands
}

// ComorbidityIndex computes the reference population's mean severity
// multiplier: the prevalence-weighted average of the per-comorbidity
// multipliers. A person's effective multiplier is their own multiplier
// relative to this mean.
type ComorbidityIndex struct {
	multipliers map[string]float64
	prevalence  map[string]prevalenceBands
}

// NewComorbidityIndex validates the multiplier/prevalence tables. Every
// comorbidity with a prevalence must have a multiplier.
func NewComorbidityIndex(cfg ComorbidityConfig) (*ComorbidityIndex, error) {
	idx := &ComorbidityIndex{
		multipliers: cfg.Multipliers,
		prevalence:  make(map[string]prevalenceBands, len(cfg.ReferencePrevalence)),
	}
	for name, spec := range cfg.ReferencePrevalence {
		if _, ok := cfg.Multipliers[name]; !ok {
			return nil, fmt.Errorf("outcomes: comorbidity %q has prevalence but no multiplier", name)
		}
		male, err := population.ParseAgeBands(spec.Male)
		if err != nil {
			return nil, fmt.Errorf("outcomes: comorbidity %q: %w", name, err)
		}
		female, err := population.ParseAgeBands(spec.Female)
		if err != nil {
			return nil, fmt.Errorf("outcomes: comorbidity %q: %w", name, err)
		}
		idx.prevalence[name] = prevalenceBands{male: male, female: female}
	}
	return idx, nil
}

// Multiplier returns the configured severity multiplier of a comorbidity,
// with 1 for unknown names.
func (ci *ComorbidityIndex) Multiplier(name string) float64 {
	if v, ok := ci.multipliers[name]; ok {
		return v
	}
	return 1
}

// ReferenceMean returns the prevalence-weighted mean multiplier of the
// reference population for the given age and sex.
func (ci *ComorbidityIndex) ReferenceMean(age int, sex population.Sex) float64 {
	mean := 0.0
	for name, bands := range ci.prevalence {
		b := bands.male
		if sex == population.Female {
			b = bands.female
		}
		mean += ci.multipliers[name] * b.Value(age, 0)
	}
	return mean
}

// EffectiveMultiplier relates a person's own multiplier to the reference
// population mean. A zero mean (no prevalence configured for the cell)
// leaves the person's multiplier untouched.
func (ci *ComorbidityIndex) EffectiveMultiplier(personMultiplier float64, age int, sex population.Sex) float64 {
	mean := ci.ReferenceMean(age, sex)
	if mean <= 0 {
		return personMultiplier
	}
	return personMultiplier / mean
}
