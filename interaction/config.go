// Package interaction turns social contact within groups into new infection
// events. Contact matrices describe who meets whom inside a group type; the
// engine converts the infectiousness present in a group into per-susceptible
// infection probabilities and samples them.
package interaction

import (
	"fmt"
	"math"
)

const hoursPerDay = 24.0

// MatrixConfig is the YAML-facing contact structure of one group type.
// Contacts counts conversational contacts per day between role subgroups;
// ProportionPhysical is the fraction of those that involve touch.
// CharacteristicTime is the hours per day the venue is attended, defaulting
// to the full day.
type MatrixConfig struct {
	Contacts           [][]float64 `yaml:"contacts"`
	ProportionPhysical [][]float64 `yaml:"proportion_physical"`
	CharacteristicTime float64     `yaml:"characteristic_time,omitempty"`
}

// Config is the YAML-facing description of the interaction model.
type Config struct {
	// AlphaPhysical weights physical contacts relative to conversational
	// ones; 1 means no distinction.
	AlphaPhysical   float64                 `yaml:"alpha_physical,omitempty"`
	Betas           map[string]float64      `yaml:"betas"`
	ContactMatrices map[string]MatrixConfig `yaml:"contact_matrices,omitempty"`
}

// processMatrix folds the physical-contact weighting and the characteristic
// time into a single per-day contact intensity matrix.
func processMatrix(spec string, cfg MatrixConfig, alpha float64) ([][]float64, error) {
	n := len(cfg.Contacts)
	if n == 0 {
		return nil, fmt.Errorf("interaction: contact matrix %q is empty", spec)
	}
	charTime := cfg.CharacteristicTime
	if charTime == 0 {
		charTime = hoursPerDay
	}
	if charTime < 0 {
		return nil, fmt.Errorf("interaction: contact matrix %q has negative characteristic time", spec)
	}
	if cfg.ProportionPhysical != nil && len(cfg.ProportionPhysical) != n {
		return nil, fmt.Errorf("interaction: contact matrix %q: proportion_physical shape mismatch", spec)
	}
	out := make([][]float64, n)
	for i := range cfg.Contacts {
		if len(cfg.Contacts[i]) != n {
			return nil, fmt.Errorf("interaction: contact matrix %q is not square", spec)
		}
		out[i] = make([]float64, n)
		for j, contacts := range cfg.Contacts[i] {
			if contacts < 0 || math.IsNaN(contacts) {
				return nil, fmt.Errorf("interaction: contact matrix %q entry (%d,%d) invalid: %v", spec, i, j, contacts)
			}
			physical := 0.0
			if cfg.ProportionPhysical != nil {
				if len(cfg.ProportionPhysical[i]) != n {
					return nil, fmt.Errorf("interaction: contact matrix %q: proportion_physical shape mismatch", spec)
				}
				physical = cfg.ProportionPhysical[i][j]
				if physical < 0 || physical > 1 {
					return nil, fmt.Errorf("interaction: contact matrix %q physical proportion (%d,%d) out of range: %v", spec, i, j, physical)
				}
			}
			out[i][j] = contacts * (1 + (alpha-1)*physical) * hoursPerDay / charTime
		}
	}
	return out, nil
}

// onesMatrix is the fallback contact structure for group types configured
// with a beta but no matrix: everyone meets everyone once per day.
func onesMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = 1
		}
	}
	return m
}
