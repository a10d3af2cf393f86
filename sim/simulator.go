package sim

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/epiforge/epiforge/disease"
	"github.com/epiforge/epiforge/domains"
	"github.com/epiforge/epiforge/interaction"
	"github.com/epiforge/epiforge/log"
	"github.com/epiforge/epiforge/metrics"
	"github.com/epiforge/epiforge/population"
	"github.com/epiforge/epiforge/selector"
)

// Recorder receives the epidemic events of a run. Implementations must
// tolerate being called from the serial apply phase only; the simulator
// never records concurrently.
type Recorder interface {
	Infection(step int, simTime float64, personID, infectorID, groupID int, groupSpec string) error
	Transition(step int, simTime float64, personID int, tag string) error
}

// Params wires a simulator. Registry and Recorder are optional; Workers
// defaults to GOMAXPROCS.
type Params struct {
	Store    *population.Store
	Groups   []*population.Group
	Engine   *interaction.Engine
	Selector *selector.Selector
	Timer    *Timer
	Registry *domains.Registry
	Recorder Recorder
	Workers  int
	Seed     int64
}

// Simulator owns one domain's step loop. Group evaluation runs in parallel
// with per-group deterministic generators; all mutation of people happens in
// the serial apply and sweep phases, so a person is written by exactly one
// goroutine.
type Simulator struct {
	store    *population.Store
	groups   []*population.Group
	engine   *interaction.Engine
	selector *selector.Selector
	timer    *Timer
	registry *domains.Registry
	recorder Recorder
	workers  int
	seed     int64
	rng      *rand.Rand
	logger   zerolog.Logger
}

// New validates the wiring and creates the simulator.
func New(p Params) (*Simulator, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("sim: store missing")
	}
	if p.Engine == nil {
		return nil, fmt.Errorf("sim: interaction engine missing")
	}
	if p.Selector == nil {
		return nil, fmt.Errorf("sim: infection selector missing")
	}
	if p.Timer == nil {
		return nil, fmt.Errorf("sim: timer missing")
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Simulator{
		store:    p.Store,
		groups:   p.Groups,
		engine:   p.Engine,
		selector: p.Selector,
		timer:    p.Timer,
		registry: p.Registry,
		recorder: p.Recorder,
		workers:  workers,
		seed:     p.Seed,
		rng:      rand.New(rand.NewSource(p.Seed)),
		logger:   log.WithComponent("sim"),
	}, nil
}

// Timer exposes the simulation clock.
func (s *Simulator) Timer() *Timer { return s.timer }

// Store exposes the population this simulator owns.
func (s *Simulator) Store() *population.Store { return s.store }

// SeedInfections infects up to n randomly chosen susceptible people at the
// current simulation time and returns how many were infected.
func (s *Simulator) SeedInfections(n int) (int, error) {
	var candidates []int
	for i := 0; i < s.store.Len(); i++ {
		if s.store.Get(i).Susceptible() {
			candidates = append(candidates, i)
		}
	}
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, id := range candidates[:n] {
		if err := s.selector.Infect(s.rng, s.store.Get(id), s.timer.Now()); err != nil {
			return 0, err
		}
	}
	s.logger.Info().
		Int(log.FieldInfections, n).
		Float64(log.FieldSimTime, s.timer.Now()).
		Msg("seeded infections")
	return n, nil
}

// Step runs one timestep: every group is evaluated in parallel against the
// current infection state, sampled infections are applied serially so they
// become visible only from the next step, the clock advances, and the
// health sweep moves every active infection along its trajectory. Reports
// for people owned by other domains are returned keyed by domain.
func (s *Simulator) Step(ctx context.Context) (map[int][]domains.Report, error) {
	begin := time.Now()
	now := s.timer.Now()
	delta := s.timer.Delta()
	step := s.timer.Step()

	perGroup := make([][]interaction.InfectionEvent, len(s.groups))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for i := range s.groups {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(stepSeed(s.seed, step, i)))
			events, err := s.engine.Step(rng, s.store, s.groups[i], delta)
			if err != nil {
				return err
			}
			perGroup[i] = events
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []interaction.InfectionEvent
	for _, events := range perGroup {
		all = append(all, events...)
	}
	local, foreign := domains.Partition(all)

	infected := 0
	for _, ev := range local {
		p := s.store.Get(ev.PersonID)
		if !p.Susceptible() {
			// Already infected this step through another group.
			continue
		}
		if err := s.selector.Infect(s.rng, p, now); err != nil {
			return nil, err
		}
		if ev.InfectorID >= 0 && !ev.InfectorForeign {
			s.store.Get(ev.InfectorID).InfectionsCaused++
		}
		metrics.RecordInfection(ev.GroupSpec)
		metrics.RecordOutcome(p.Infection.MaxTag())
		if s.recorder != nil {
			if err := s.recorder.Infection(step, now, ev.PersonID, ev.InfectorID, ev.GroupID, ev.GroupSpec); err != nil {
				return nil, err
			}
		}
		infected++
	}

	s.timer.Advance()
	if err := s.sweep(); err != nil {
		return nil, err
	}

	metrics.ObserveStepDuration(time.Since(begin).Seconds())
	s.logger.Info().
		Int(log.FieldStep, step).
		Float64(log.FieldSimTime, now).
		Float64(log.FieldDeltaTime, delta).
		Int(log.FieldInfections, infected).
		Msg("step complete")
	return foreign, nil
}

// sweep advances every active infection to the new simulation time, retires
// terminal ones and publishes the population gauges.
func (s *Simulator) sweep() error {
	now := s.timer.Now()
	step := s.timer.Step()
	active := make(map[disease.SymptomTag]int)
	for i := 0; i < s.store.Len(); i++ {
		p := s.store.Get(i)
		if !p.Infected() {
			continue
		}
		prev := p.Infection.Tag()
		p.Infection.Update(now)
		tag := p.Infection.Tag()
		if tag != prev && s.recorder != nil {
			if err := s.recorder.Transition(step, now, i, tag.String()); err != nil {
				return err
			}
		}
		if p.Infection.Terminal() {
			if tag.IsDead() {
				p.Status = population.StatusDead
			} else {
				p.Status = population.StatusRecovered
				// Residual susceptibility after recovery comes from the
				// immunity record, which Infect zeroed for this pathogen.
				p.Susceptibility = p.Immunity.Susceptibility(s.selector.Pathogen())
			}
			p.Infection = nil
			continue
		}
		active[tag]++
	}

	metrics.SetActiveInfections(active)
	metrics.SetPopulation(map[population.Status]int{
		population.StatusSusceptible: s.store.Count(population.StatusSusceptible),
		population.StatusInfected:    s.store.Count(population.StatusInfected),
		population.StatusRecovered:   s.store.Count(population.StatusRecovered),
		population.StatusDead:        s.store.Count(population.StatusDead),
	})
	return nil
}

// ApplyReports infects locally owned people from another domain's reports.
// Targets that are no longer susceptible are skipped: the local domain's
// state is authoritative.
func (s *Simulator) ApplyReports(reports []domains.Report) error {
	if s.registry == nil {
		return fmt.Errorf("sim: reports received but no registry configured")
	}
	for _, r := range reports {
		id, ok := s.registry.Local(r.PersonID)
		if !ok {
			return fmt.Errorf("sim: report for unknown person %d", r.PersonID)
		}
		p := s.store.Get(id)
		if !p.Susceptible() {
			continue
		}
		if err := s.selector.Infect(s.rng, p, s.timer.Now()); err != nil {
			return err
		}
		metrics.RecordInfection(r.GroupSpec)
		metrics.RecordOutcome(p.Infection.MaxTag())
		if s.recorder != nil {
			if err := s.recorder.Infection(s.timer.Step(), s.timer.Now(), id, -1, r.GroupID, r.GroupSpec); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run steps the clock to its horizon. It is the single-domain loop: a run
// that produces reports for other domains fails, because nobody is there to
// deliver them to.
func (s *Simulator) Run(ctx context.Context) error {
	for !s.timer.Finished() {
		foreign, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if len(foreign) > 0 {
			return fmt.Errorf("sim: %d domains addressed in a single-domain run", len(foreign))
		}
	}
	return nil
}

// stepSeed derives the deterministic generator seed of one group evaluation
// from the run seed, the step and the group position (splitmix64 mix).
func stepSeed(seed int64, step, group int) int64 {
	z := uint64(seed) + 0x9e3779b97f4a7c15*uint64(step+1) + 0xbf58476d1ce4e5b9*uint64(group+1)
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z)
}
