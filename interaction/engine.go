package interaction

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/epiforge/epiforge/log"
	"github.com/epiforge/epiforge/population"
)

// InfectionEvent records one sampled infection. The engine never mutates
// people: the caller applies events after every group of the timestep has
// been evaluated, so infections become visible only from the next step and
// group evaluation order cannot matter.
type InfectionEvent struct {
	GroupID   int
	GroupSpec string

	// Target: a local store index, or a foreign snapshot identified by
	// global id and owning domain.
	PersonID      int
	Foreign       bool
	ForeignID     uint64
	ForeignDomain int

	// Attributed infector, drawn in proportion to contact-weighted
	// infectiousness. Local store index, or foreign identity.
	InfectorID        int
	InfectorForeign   bool
	InfectorForeignID uint64
}

// Engine samples infections group by group. It is stateless across steps and
// safe for concurrent use with per-caller generators.
type Engine struct {
	alpha    float64
	betas    map[string]float64
	matrices map[string][][]float64
	logger   zerolog.Logger
}

// New validates the interaction configuration and preprocesses every contact
// matrix. Each matrix needs a matching beta; betas without a matrix fall
// back to uniform daily contact.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Betas) == 0 {
		return nil, fmt.Errorf("interaction: no betas configured")
	}
	alpha := cfg.AlphaPhysical
	if alpha == 0 {
		alpha = 1
	}
	if alpha < 0 {
		return nil, fmt.Errorf("interaction: alpha_physical must be non-negative, got %v", alpha)
	}
	for spec, beta := range cfg.Betas {
		if beta < 0 || math.IsNaN(beta) {
			return nil, fmt.Errorf("interaction: beta for %q invalid: %v", spec, beta)
		}
	}
	matrices := make(map[string][][]float64, len(cfg.ContactMatrices))
	for spec, mc := range cfg.ContactMatrices {
		if _, ok := cfg.Betas[spec]; !ok {
			return nil, fmt.Errorf("interaction: contact matrix %q has no beta", spec)
		}
		m, err := processMatrix(spec, mc, alpha)
		if err != nil {
			return nil, err
		}
		matrices[spec] = m
	}
	return &Engine{
		alpha:    alpha,
		betas:    cfg.Betas,
		matrices: matrices,
		logger:   log.WithComponent("interaction"),
	}, nil
}

// Beta returns the configured intensity of a group type.
func (e *Engine) Beta(spec string) (float64, bool) {
	b, ok := e.betas[spec]
	return b, ok
}

// infectorRef is one infectious member and their contact-unscaled weight.
type infectorRef struct {
	personID  int
	foreign   bool
	foreignID uint64
	weight    float64
}

// subgroupState aggregates what one role subgroup contributes to a step.
type subgroupState struct {
	size      int
	intensity float64 // summed infectiousness of the subgroup
	infectors []infectorRef
}

// Step evaluates one group for one timestep of delta days and returns the
// sampled infection events. People owned by other domains participate
// through their snapshots; infections of them are returned as foreign events
// for the owning domain to apply. A negative or non-finite infectiousness
// aggregate aborts the run: it means an upstream profile is corrupt.
func (e *Engine) Step(rng *rand.Rand, store *population.Store, g *population.Group, delta float64) ([]InfectionEvent, error) {
	beta, ok := e.betas[g.Spec]
	if !ok {
		return nil, fmt.Errorf("interaction: no beta for group type %q", g.Spec)
	}
	matrix, ok := e.matrices[g.Spec]
	if !ok {
		matrix = onesMatrix(len(g.Subgroups))
	}
	if len(matrix) != len(g.Subgroups) {
		return nil, fmt.Errorf("interaction: contact matrix %q has %d roles, group %d has %d subgroups",
			g.Spec, len(matrix), g.ID, len(g.Subgroups))
	}

	states := make([]subgroupState, len(g.Subgroups))
	anyInfectious := false
	for j := range g.Subgroups {
		sg := &g.Subgroups[j]
		st := &states[j]
		st.size = sg.Size()
		for _, id := range sg.Members {
			p := store.Get(id)
			if !p.Infected() {
				continue
			}
			w := p.Infection.Probability()
			st.intensity += w
			st.infectors = append(st.infectors, infectorRef{personID: id, weight: w})
		}
		for _, fp := range sg.Foreign {
			if fp.Infectiousness <= 0 {
				continue
			}
			st.intensity += fp.Infectiousness
			st.infectors = append(st.infectors, infectorRef{
				personID: -1, foreign: true, foreignID: fp.GlobalID, weight: fp.Infectiousness,
			})
		}
		if st.intensity < 0 || math.IsNaN(st.intensity) || math.IsInf(st.intensity, 0) {
			return nil, fmt.Errorf("interaction: group %d (%s) subgroup %d has invalid infectiousness aggregate %v",
				g.ID, g.Spec, j, st.intensity)
		}
		if st.intensity > 0 {
			anyInfectious = true
		}
	}
	if !anyInfectious {
		return nil, nil
	}

	var events []InfectionEvent
	for i := range g.Subgroups {
		sg := &g.Subgroups[i]
		row := matrix[i]

		// The hazard exponent and the attribution weights are identical for
		// every susceptible member of the subgroup, so compute them once.
		exponent := 0.0
		var weights []float64
		var pool []infectorRef
		for j := range states {
			st := &states[j]
			if st.intensity == 0 {
				continue
			}
			effSize := st.size
			if j == i {
				effSize--
			}
			if effSize <= 0 {
				continue
			}
			scale := row[j] / float64(effSize)
			exponent += scale * st.intensity
			for _, inf := range st.infectors {
				pool = append(pool, inf)
				weights = append(weights, scale*inf.weight)
			}
		}
		if exponent <= 0 {
			continue
		}

		for _, id := range sg.Members {
			p := store.Get(id)
			if !p.Susceptible() {
				continue
			}
			prob := 1 - math.Exp(-delta*p.Susceptibility*beta*exponent)
			if rng.Float64() >= prob {
				continue
			}
			ev := InfectionEvent{
				GroupID:   g.ID,
				GroupSpec: g.Spec,
				PersonID:  id,
			}
			e.attribute(rng, &ev, pool, weights)
			events = append(events, ev)
		}
		// Snapshots carry zero susceptibility for infected people, so a
		// positive value alone marks an infectable visitor.
		for _, fp := range sg.Foreign {
			if fp.Susceptibility <= 0 {
				continue
			}
			prob := 1 - math.Exp(-delta*fp.Susceptibility*beta*exponent)
			if rng.Float64() >= prob {
				continue
			}
			ev := InfectionEvent{
				GroupID:       g.ID,
				GroupSpec:     g.Spec,
				PersonID:      -1,
				Foreign:       true,
				ForeignID:     fp.GlobalID,
				ForeignDomain: fp.Domain,
			}
			e.attribute(rng, &ev, pool, weights)
			events = append(events, ev)
		}
	}

	if len(events) > 0 {
		e.logger.Debug().
			Int(log.FieldGroupID, g.ID).
			Str(log.FieldGroupSpec, g.Spec).
			Int(log.FieldInfections, len(events)).
			Msg("group step sampled infections")
	}
	return events, nil
}

// attribute draws the infector in proportion to contact-weighted
// infectiousness.
func (e *Engine) attribute(rng *rand.Rand, ev *InfectionEvent, pool []infectorRef, weights []float64) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	ev.InfectorID = -1
	if total <= 0 {
		return
	}
	draw := rng.Float64() * total
	cum := 0.0
	for k, w := range weights {
		cum += w
		if draw < cum || k == len(pool)-1 {
			inf := pool[k]
			ev.InfectorID = inf.personID
			ev.InfectorForeign = inf.foreign
			ev.InfectorForeignID = inf.foreignID
			return
		}
	}
}
