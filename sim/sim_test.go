package sim_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/epiforge/epiforge/disease"
	"github.com/epiforge/epiforge/domains"
	"github.com/epiforge/epiforge/interaction"
	"github.com/epiforge/epiforge/outcomes"
	"github.com/epiforge/epiforge/population"
	"github.com/epiforge/epiforge/random"
	"github.com/epiforge/epiforge/selector"
	"github.com/epiforge/epiforge/sim"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func constStage(tag string, days float64) disease.StageSpec {
	return disease.StageSpec{
		SymptomTag:     tag,
		CompletionTime: random.Spec{Type: "constant", Value: days},
	}
}

func testSelector(t *testing.T) *selector.Selector {
	t.Helper()
	cat, err := disease.NewCatalogue([]disease.TrajectorySpec{
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("asymptomatic", 8), constStage("recovered", 0)}},
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("mild", 6), constStage("recovered", 0)}},
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("mild", 2), constStage("severe", 8), constStage("recovered", 0)}},
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("mild", 2), constStage("hospitalised", 10), constStage("recovered", 0)}},
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("mild", 2), constStage("hospitalised", 2), constStage("intensive_care", 10), constStage("recovered", 0)}},
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("mild", 2), constStage("severe", 5), constStage("dead_home", 0)}},
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("mild", 2), constStage("hospitalised", 7), constStage("dead_hospital", 0)}},
		{Stages: []disease.StageSpec{constStage("exposed", 2), constStage("mild", 2), constStage("hospitalised", 2), constStage("intensive_care", 7), constStage("dead_icu", 0)}},
	})
	require.NoError(t, err)

	r := outcomes.Rates{
		Asymptomatic: 0.3, Mild: 0.5, Hospital: 0.1, ICU: 0.03,
		HomeIFR: 0.01, HospitalIFR: 0.03, ICUIFR: 0.02,
	}
	model, err := outcomes.NewModel(outcomes.Config{
		GeneralPopulation: []outcomes.AgeBinRates{{Ages: [2]int{0, 99}, Male: r, Female: r}},
	})
	require.NoError(t, err)

	sel, err := selector.New("covid19", cat, model, nil, selector.TransmissionConfig{
		Type:              "gamma",
		MaxInfectiousness: random.Spec{Type: "constant", Value: 1},
		Shape:             random.Spec{Type: "constant", Value: 2},
		Rate:              random.Spec{Type: "constant", Value: 0.5},
		Shift:             random.Spec{Type: "constant", Value: -2},
	})
	require.NoError(t, err)
	return sel
}

func testEngine(t *testing.T, beta float64) *interaction.Engine {
	t.Helper()
	e, err := interaction.New(interaction.Config{
		Betas: map[string]float64{"household": beta},
	})
	require.NoError(t, err)
	return e
}

// newEpidemic wires a population of n people split into households of size 5.
func newEpidemic(t *testing.T, n int, beta float64, seed int64) *sim.Simulator {
	return newEpidemicWorkers(t, n, beta, seed, 4)
}

func newEpidemicWorkers(t *testing.T, n int, beta float64, seed int64, workers int) *sim.Simulator {
	t.Helper()
	store := population.NewStore(n)
	rng := rand.New(rand.NewSource(seed))
	var groups []*population.Group
	var g *population.Group
	for i := 0; i < n; i++ {
		if i%5 == 0 {
			g = population.NewGroup(len(groups), "household", 1)
			groups = append(groups, g)
		}
		g.Add(0, store.Add(rng.Intn(100), population.Sex(rng.Intn(2)), false))
	}
	timer, err := sim.NewTimer(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), 0.5, 60)
	require.NoError(t, err)
	s, err := sim.New(sim.Params{
		Store:    store,
		Groups:   groups,
		Engine:   testEngine(t, beta),
		Selector: testSelector(t),
		Timer:    timer,
		Workers:  workers,
		Seed:     seed,
	})
	require.NoError(t, err)
	return s
}

func TestTimer(t *testing.T) {
	start := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	timer, err := sim.NewTimer(start, 0.5, 2)
	require.NoError(t, err)

	assert.Equal(t, 0.0, timer.Now())
	assert.False(t, timer.Weekend())
	timer.Advance()
	assert.Equal(t, 0.5, timer.Now())
	assert.Equal(t, start.Add(12*time.Hour), timer.Date())
	assert.False(t, timer.Finished())
	timer.Advance()
	timer.Advance()
	timer.Advance()
	assert.True(t, timer.Finished())

	_, err = sim.NewTimer(start, 0, 2)
	require.Error(t, err)
	_, err = sim.NewTimer(start, 0.5, -1)
	require.Error(t, err)
}

func TestTimerWeekend(t *testing.T) {
	saturday := time.Date(2020, 3, 7, 0, 0, 0, 0, time.UTC)
	timer, err := sim.NewTimer(saturday, 1, 3)
	require.NoError(t, err)
	assert.True(t, timer.Weekend())
	timer.Advance() // Sunday
	assert.True(t, timer.Weekend())
	timer.Advance() // Monday
	assert.False(t, timer.Weekend())
}

func TestEpidemicSpreads(t *testing.T) {
	s := newEpidemic(t, 500, 2.0, 7)
	seeded, err := s.SeedInfections(5)
	require.NoError(t, err)
	require.Equal(t, 5, seeded)

	require.NoError(t, s.Run(context.Background()))

	store := s.Store()
	susceptible := store.Count(population.StatusSusceptible)
	infected := store.Count(population.StatusInfected)
	recovered := store.Count(population.StatusRecovered)
	dead := store.Count(population.StatusDead)

	assert.Equal(t, 500, susceptible+infected+recovered+dead)
	assert.Greater(t, recovered+dead+infected, 5, "epidemic must spread beyond the seeds")
	// Constant trajectories are at most 16 days; after 60 days nothing is
	// still infected.
	assert.Equal(t, 0, infected)
}

func TestNoSeedsNoEpidemic(t *testing.T) {
	s := newEpidemic(t, 100, 5.0, 3)
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 100, s.Store().Count(population.StatusSusceptible))
}

func TestDeterminismUnderSeed(t *testing.T) {
	outcome := func(workers int) [4]int {
		s := newEpidemicWorkers(t, 300, 1.5, 42, workers)
		_, err := s.SeedInfections(3)
		require.NoError(t, err)
		require.NoError(t, s.Run(context.Background()))
		store := s.Store()
		return [4]int{
			store.Count(population.StatusSusceptible),
			store.Count(population.StatusInfected),
			store.Count(population.StatusRecovered),
			store.Count(population.StatusDead),
		}
	}
	assert.Equal(t, outcome(4), outcome(4))
	// Per-group generators are derived from (seed, step, group), so the
	// worker count cannot change the epidemic.
	assert.Equal(t, outcome(1), outcome(4))
}

func TestStepValidationAndCancel(t *testing.T) {
	_, err := sim.New(sim.Params{})
	require.Error(t, err)

	s := newEpidemic(t, 50, 1, 1)
	_, err = s.SeedInfections(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Step(ctx)
	require.Error(t, err)
}

func TestApplyReports(t *testing.T) {
	store := population.NewStore(2)
	a := store.Add(30, population.Male, false)
	b := store.Add(60, population.Female, false)
	registry := domains.NewRegistry(1)
	registry.Register(5000, a)
	registry.Register(5001, b)

	timer, err := sim.NewTimer(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), 1, 10)
	require.NoError(t, err)
	s, err := sim.New(sim.Params{
		Store:    store,
		Engine:   testEngine(t, 1),
		Selector: testSelector(t),
		Timer:    timer,
		Registry: registry,
		Seed:     5,
	})
	require.NoError(t, err)

	require.NoError(t, s.ApplyReports([]domains.Report{
		{PersonID: 5000, Domain: 1, GroupID: 9, GroupSpec: "household"},
	}))
	assert.Equal(t, population.StatusInfected, store.Get(a).Status)
	assert.Equal(t, population.StatusSusceptible, store.Get(b).Status)

	// Duplicate reports for an already-infected person are skipped.
	require.NoError(t, s.ApplyReports([]domains.Report{
		{PersonID: 5000, Domain: 1, GroupID: 9, GroupSpec: "household"},
	}))

	require.Error(t, s.ApplyReports([]domains.Report{{PersonID: 9999}}))
}

func TestApplyReportsWithoutRegistry(t *testing.T) {
	s := newEpidemic(t, 10, 1, 1)
	require.Error(t, s.ApplyReports([]domains.Report{{PersonID: 1}}))
}
