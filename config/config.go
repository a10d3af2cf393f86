// Package config loads and validates the YAML configuration of a full
// epidemic model: pathogen, trajectories, outcome rates, transmission,
// susceptibility profile and interaction structure. Validation is fail-fast:
// a model that loads is a model every component already accepted.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/epiforge/epiforge/disease"
	"github.com/epiforge/epiforge/interaction"
	"github.com/epiforge/epiforge/outcomes"
	"github.com/epiforge/epiforge/population"
	"github.com/epiforge/epiforge/selector"
)

// Config is the top-level YAML document.
type Config struct {
	Pathogen string `yaml:"pathogen"`

	Trajectories   []disease.TrajectorySpec    `yaml:"trajectories"`
	Outcomes       outcomes.Config             `yaml:"outcomes"`
	Transmission   selector.TransmissionConfig `yaml:"transmission"`
	Interaction    interaction.Config          `yaml:"interaction"`
	Susceptibility map[string]float64          `yaml:"susceptibility,omitempty"`
	Comorbidities  *outcomes.ComorbidityConfig `yaml:"comorbidities,omitempty"`
}

// Model is the validated, ready-to-wire result of loading a Config.
type Model struct {
	Pathogen       population.PathogenID
	Catalogue      *disease.Catalogue
	Outcomes       *outcomes.Model
	Comorbidity    *outcomes.ComorbidityIndex
	Selector       *selector.Selector
	Engine         *interaction.Engine
	Susceptibility *population.AgeBands
}

// Load reads and builds the model from a YAML file.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds the model from YAML bytes.
func Parse(raw []byte) (*Model, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return Build(cfg)
}

// Build validates the configuration and constructs every component.
func Build(cfg Config) (*Model, error) {
	if cfg.Pathogen == "" {
		return nil, fmt.Errorf("config: pathogen name missing")
	}

	catalogue, err := disease.NewCatalogue(cfg.Trajectories)
	if err != nil {
		return nil, err
	}
	model, err := outcomes.NewModel(cfg.Outcomes)
	if err != nil {
		return nil, err
	}

	var comorbidity *outcomes.ComorbidityIndex
	if cfg.Comorbidities != nil {
		comorbidity, err = outcomes.NewComorbidityIndex(*cfg.Comorbidities)
		if err != nil {
			return nil, err
		}
	}

	sel, err := selector.New(cfg.Pathogen, catalogue, model, comorbidity, cfg.Transmission)
	if err != nil {
		return nil, err
	}
	engine, err := interaction.New(cfg.Interaction)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Pathogen:    sel.Pathogen(),
		Catalogue:   catalogue,
		Outcomes:    model,
		Comorbidity: comorbidity,
		Selector:    sel,
		Engine:      engine,
	}
	if len(cfg.Susceptibility) > 0 {
		m.Susceptibility, err = population.ParseAgeBands(cfg.Susceptibility)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}
