// Package selector creates infections: it draws a person's final outcome from
// their health outcome table, assembles the matching clinical trajectory and
// transmission profile, and attaches the resulting infection record.
package selector

import (
	"fmt"
	"math/rand"

	"github.com/epiforge/epiforge/disease"
	"github.com/epiforge/epiforge/outcomes"
	"github.com/epiforge/epiforge/population"
	"github.com/epiforge/epiforge/random"
)

// TransmissionConfig is the YAML-facing description of the per-person
// infectiousness profile. Type selects the family; each parameter is itself a
// distribution sampled per infection.
type TransmissionConfig struct {
	Type string `yaml:"type"`

	// constant
	Probability random.Spec `yaml:"probability,omitempty"`

	// gamma
	MaxInfectiousness            random.Spec `yaml:"max_infectiousness,omitempty"`
	Shape                        random.Spec `yaml:"shape,omitempty"`
	Rate                         random.Spec `yaml:"rate,omitempty"`
	Shift                        random.Spec `yaml:"shift,omitempty"`
	AsymptomaticInfectiousFactor random.Spec `yaml:"asymptomatic_infectious_factor,omitempty"`
	MildInfectiousFactor         random.Spec `yaml:"mild_infectious_factor,omitempty"`
}

const (
	transmissionConstant = "constant"
	transmissionGamma    = "gamma"
)

type transmissionSamplers struct {
	kind        string
	probability random.Sampler

	maxInfectiousness random.Sampler
	shape             random.Sampler
	rate              random.Sampler
	shift             random.Sampler
	asymFactor        random.Sampler
	mildFactor        random.Sampler
}

func buildTransmission(cfg TransmissionConfig) (*transmissionSamplers, error) {
	ts := &transmissionSamplers{kind: cfg.Type}
	var err error
	switch cfg.Type {
	case transmissionConstant:
		if ts.probability, err = cfg.Probability.Sampler(); err != nil {
			return nil, fmt.Errorf("selector: transmission probability: %w", err)
		}
	case transmissionGamma:
		required := []struct {
			name string
			spec random.Spec
			dst  *random.Sampler
		}{
			{"max_infectiousness", cfg.MaxInfectiousness, &ts.maxInfectiousness},
			{"shape", cfg.Shape, &ts.shape},
			{"rate", cfg.Rate, &ts.rate},
			{"shift", cfg.Shift, &ts.shift},
		}
		for _, r := range required {
			if *r.dst, err = r.spec.Sampler(); err != nil {
				return nil, fmt.Errorf("selector: transmission %s: %w", r.name, err)
			}
		}
		if ts.asymFactor, err = optionalFactor(cfg.AsymptomaticInfectiousFactor); err != nil {
			return nil, fmt.Errorf("selector: transmission asymptomatic_infectious_factor: %w", err)
		}
		if ts.mildFactor, err = optionalFactor(cfg.MildInfectiousFactor); err != nil {
			return nil, fmt.Errorf("selector: transmission mild_infectious_factor: %w", err)
		}
	case "":
		return nil, fmt.Errorf("selector: transmission type missing")
	default:
		return nil, fmt.Errorf("selector: unrecognised transmission type %q", cfg.Type)
	}
	return ts, nil
}

// optionalFactor treats an absent reduction factor as no reduction.
func optionalFactor(spec random.Spec) (random.Sampler, error) {
	if spec.Type == "" {
		return random.Constant{Value: 1}, nil
	}
	return spec.Sampler()
}

// Selector composes the outcome model, trajectory catalogue and transmission
// samplers of one pathogen. It is safe for concurrent use as long as each
// caller passes its own generator.
type Selector struct {
	pathogenName string
	pathogen     population.PathogenID
	catalogue    *disease.Catalogue
	model        *outcomes.Model
	comorbidity  *outcomes.ComorbidityIndex
	transmission *transmissionSamplers
}

// New wires a selector. comorbidity may be nil, in which case a person's own
// multiplier is used unadjusted.
func New(pathogenName string, catalogue *disease.Catalogue, model *outcomes.Model,
	comorbidity *outcomes.ComorbidityIndex, transmission TransmissionConfig) (*Selector, error) {
	if pathogenName == "" {
		return nil, fmt.Errorf("selector: pathogen name missing")
	}
	if catalogue == nil {
		return nil, fmt.Errorf("selector: trajectory catalogue missing")
	}
	if model == nil {
		return nil, fmt.Errorf("selector: outcome model missing")
	}
	ts, err := buildTransmission(transmission)
	if err != nil {
		return nil, err
	}
	return &Selector{
		pathogenName: pathogenName,
		pathogen:     population.PathogenIDOf(pathogenName),
		catalogue:    catalogue,
		model:        model,
		comorbidity:  comorbidity,
		transmission: ts,
	}, nil
}

// Pathogen returns the id of the pathogen this selector creates infections
// for.
func (s *Selector) Pathogen() population.PathogenID { return s.pathogen }

// PathogenName returns the configured pathogen name.
func (s *Selector) PathogenName() string { return s.pathogenName }

// Infect gives the person a new infection starting at the given simulation
// time (days). The final outcome is drawn from the person's outcome table,
// the trajectory is assembled from the catalogue, and the transmission
// profile is anchored to the end of the incubation stage. The person's
// status, operative susceptibility and sterilising immunity are updated so a
// second infection with the same pathogen cannot occur.
func (s *Selector) Infect(rng *rand.Rand, p *population.Person, now float64) error {
	if !p.Susceptible() {
		return fmt.Errorf("selector: person %d is %s, not susceptible", p.ID, p.Status)
	}

	table := s.model.Table(p.Age, p.Sex, p.CareHomeResident, s.effectiveMultiplier(p))
	draw := rng.Float64()
	maxTag := table.Bucket(draw)

	trajectory, err := s.catalogue.Build(rng, maxTag)
	if err != nil {
		return err
	}
	symptoms := disease.NewSymptoms(trajectory, draw)

	transmission, err := s.sampleTransmission(rng, trajectory, maxTag)
	if err != nil {
		return err
	}

	p.Infection = disease.NewInfection(transmission, symptoms, now)
	p.Status = population.StatusInfected
	p.Susceptibility = 0
	p.Immunity.AddImmunity(s.pathogen)
	return nil
}

// effectiveMultiplier combines the person's comorbidity multiplier, related
// to the reference population mean when a comorbidity index is configured,
// with any pathogen-specific immunity multiplier.
func (s *Selector) effectiveMultiplier(p *population.Person) float64 {
	mult := p.ComorbidityMultiplier
	if s.comorbidity != nil {
		mult = s.comorbidity.EffectiveMultiplier(mult, p.Age, p.Sex)
	}
	return mult * p.Immunity.EffectiveMultiplier(s.pathogen)
}

func (s *Selector) sampleTransmission(rng *rand.Rand, trajectory disease.Trajectory, maxTag disease.SymptomTag) (disease.Transmission, error) {
	switch s.transmission.kind {
	case transmissionConstant:
		return disease.TransmissionConstant{Probability: s.transmission.probability.Sample(rng)}, nil
	case transmissionGamma:
		params := disease.GammaParams{
			MaxInfectiousness:  s.transmission.maxInfectiousness.Sample(rng),
			Shape:              s.transmission.shape.Sample(rng),
			Rate:               s.transmission.rate.Sample(rng),
			AsymptomaticFactor: s.transmission.asymFactor.Sample(rng),
			MildFactor:         s.transmission.mildFactor.Sample(rng),
		}
		// The gamma density only has an interior peak for shape > 1; anything
		// else would make the peak normalisation blow up.
		if params.Shape <= 1 {
			return nil, fmt.Errorf("selector: sampled transmission shape %v must exceed 1", params.Shape)
		}
		if params.Rate <= 0 {
			return nil, fmt.Errorf("selector: sampled transmission rate %v must be positive", params.Rate)
		}
		// Anchor the profile to the end of the incubation stage, so
		// infectiousness ramps up as symptoms approach.
		params.Shift = s.transmission.shift.Sample(rng) + trajectory.TimeExposed()
		return disease.NewTransmissionGamma(params, maxTag), nil
	}
	return nil, fmt.Errorf("selector: unrecognised transmission kind %q", s.transmission.kind)
}
