package interaction_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiforge/epiforge/disease"
	"github.com/epiforge/epiforge/interaction"
	"github.com/epiforge/epiforge/population"
)

func infect(p *population.Person, infectiousness float64) {
	trajectory := disease.Trajectory{
		{CumulativeTime: 0, Tag: disease.TagExposed},
		{CumulativeTime: 1, Tag: disease.TagMild},
		{CumulativeTime: 10, Tag: disease.TagRecovered},
	}
	inf := disease.NewInfection(disease.TransmissionConstant{Probability: infectiousness}, disease.NewSymptoms(trajectory, 0.5), 0)
	inf.Update(2) // caches the constant infectiousness
	p.Status = population.StatusInfected
	p.Susceptibility = 0
	p.Infection = inf
}

func householdEngine(t *testing.T, beta float64) *interaction.Engine {
	t.Helper()
	e, err := interaction.New(interaction.Config{
		Betas: map[string]float64{"household": beta},
	})
	require.NoError(t, err)
	return e
}

// Four people in a household, one infected with constant infectiousness 0.3,
// beta 0.25, half-day step. With the uniform fallback matrix the exponent is
// 0.3/3 and the per-susceptible probability 1-exp(-0.5*0.25*0.1).
func TestStepMonteCarloMatchesHazard(t *testing.T) {
	e := householdEngine(t, 0.25)
	store := population.NewStore(4)
	g := population.NewGroup(0, "household", 1)
	for i := 0; i < 4; i++ {
		g.Add(0, store.Add(30, population.Male, false))
	}
	infect(store.Get(0), 0.3)

	want := 1 - math.Exp(-0.5*0.25*0.3/3)
	rng := rand.New(rand.NewSource(42))

	const trials = 20000
	infections := 0
	for n := 0; n < trials; n++ {
		events, err := e.Step(rng, store, g, 0.5)
		require.NoError(t, err)
		infections += len(events)
	}
	// Three susceptibles, each with probability want per trial.
	got := float64(infections) / (3 * trials)
	assert.InDelta(t, want, got, 0.002)
}

func TestStepNoInfectedNeverInfects(t *testing.T) {
	e := householdEngine(t, 5.0)
	store := population.NewStore(10)
	g := population.NewGroup(0, "household", 1)
	for i := 0; i < 10; i++ {
		g.Add(0, store.Add(30, population.Male, false))
	}
	rng := rand.New(rand.NewSource(1))

	for n := 0; n < 10000; n++ {
		events, err := e.Step(rng, store, g, 1)
		require.NoError(t, err)
		require.Empty(t, events)
	}
}

func TestStepSkipsNonSusceptible(t *testing.T) {
	e := householdEngine(t, 100) // effectively certain infection
	store := population.NewStore(3)
	g := population.NewGroup(0, "household", 1)
	for i := 0; i < 3; i++ {
		g.Add(0, store.Add(30, population.Male, false))
	}
	infect(store.Get(0), 1)
	store.Get(1).Status = population.StatusRecovered
	store.Get(1).Susceptibility = 0

	rng := rand.New(rand.NewSource(5))
	events, err := e.Step(rng, store, g, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].PersonID)
	assert.Equal(t, 0, events[0].InfectorID)
	assert.Equal(t, "household", events[0].GroupSpec)
}

func TestStepContactMatrixScaling(t *testing.T) {
	// Two roles; role 1 has no contact with role 0's infectious member, so
	// only within-role-0 transmission can happen.
	e, err := interaction.New(interaction.Config{
		Betas: map[string]float64{"school": 1},
		ContactMatrices: map[string]interaction.MatrixConfig{
			"school": {
				Contacts: [][]float64{{3, 0}, {0, 2}},
			},
		},
	})
	require.NoError(t, err)

	store := population.NewStore(4)
	g := population.NewGroup(0, "school", 2)
	g.Add(0, store.Add(10, population.Male, false))
	g.Add(0, store.Add(10, population.Female, false))
	g.Add(1, store.Add(40, population.Male, false))
	g.Add(1, store.Add(40, population.Female, false))
	infect(store.Get(0), 0.5)

	rng := rand.New(rand.NewSource(9))
	for n := 0; n < 5000; n++ {
		events, err := e.Step(rng, store, g, 1)
		require.NoError(t, err)
		for _, ev := range events {
			assert.Equal(t, 1, ev.PersonID, "role 1 must never be infected")
		}
	}
}

func TestStepPhysicalContactWeighting(t *testing.T) {
	base, err := interaction.New(interaction.Config{
		Betas: map[string]float64{"pub": 1},
		ContactMatrices: map[string]interaction.MatrixConfig{
			"pub": {Contacts: [][]float64{{4}}},
		},
	})
	require.NoError(t, err)
	weighted, err := interaction.New(interaction.Config{
		AlphaPhysical: 3,
		Betas:         map[string]float64{"pub": 1},
		ContactMatrices: map[string]interaction.MatrixConfig{
			"pub": {
				Contacts:           [][]float64{{4}},
				ProportionPhysical: [][]float64{{0.5}},
			},
		},
	})
	require.NoError(t, err)

	count := func(e *interaction.Engine, seed int64) int {
		store := population.NewStore(2)
		g := population.NewGroup(0, "pub", 1)
		g.Add(0, store.Add(30, population.Male, false))
		g.Add(0, store.Add(30, population.Female, false))
		infect(store.Get(0), 0.05)
		rng := rand.New(rand.NewSource(seed))
		n := 0
		for i := 0; i < 20000; i++ {
			events, err := e.Step(rng, store, g, 0.1)
			require.NoError(t, err)
			n += len(events)
		}
		return n
	}

	// alpha 3 with half the contacts physical doubles the contact intensity.
	baseN := count(base, 1)
	weightedN := count(weighted, 2)
	assert.Greater(t, weightedN, baseN*3/2)
}

func TestStepForeignMembers(t *testing.T) {
	e := householdEngine(t, 50)
	store := population.NewStore(1)
	g := population.NewGroup(0, "household", 1)
	g.Add(0, store.Add(30, population.Male, false))
	g.AddForeign(0, population.ForeignPerson{
		GlobalID: 7001, Domain: 2, Infectiousness: 0.8,
	})
	g.AddForeign(0, population.ForeignPerson{
		GlobalID: 7002, Domain: 2, Susceptibility: 1,
	})

	rng := rand.New(rand.NewSource(13))
	events, err := e.Step(rng, store, g, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byTarget := map[uint64]interaction.InfectionEvent{}
	var local *interaction.InfectionEvent
	for i := range events {
		if events[i].Foreign {
			byTarget[events[i].ForeignID] = events[i]
		} else {
			local = &events[i]
		}
	}
	require.NotNil(t, local, "local member must be infected")
	assert.Equal(t, 0, local.PersonID)
	assert.True(t, local.InfectorForeign)
	assert.Equal(t, uint64(7001), local.InfectorForeignID)

	foreign, ok := byTarget[7002]
	require.True(t, ok, "foreign susceptible must be infected")
	assert.Equal(t, 2, foreign.ForeignDomain)
	assert.Equal(t, -1, foreign.PersonID)
}

func TestStepAttributionWeights(t *testing.T) {
	e := householdEngine(t, 100)
	store := population.NewStore(3)
	g := population.NewGroup(0, "household", 1)
	for i := 0; i < 3; i++ {
		g.Add(0, store.Add(30, population.Male, false))
	}
	infect(store.Get(0), 0.9)
	infect(store.Get(1), 0.1)

	rng := rand.New(rand.NewSource(17))
	attributed := map[int]int{}
	const trials = 10000
	for n := 0; n < trials; n++ {
		events, err := e.Step(rng, store, g, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		attributed[events[0].InfectorID]++
	}
	assert.InDelta(t, 0.9, float64(attributed[0])/trials, 0.02)
	assert.InDelta(t, 0.1, float64(attributed[1])/trials, 0.02)
}

func TestStepInvalidAggregateFails(t *testing.T) {
	e := householdEngine(t, 1)
	store := population.NewStore(2)
	g := population.NewGroup(0, "household", 1)
	g.Add(0, store.Add(30, population.Male, false))
	g.Add(0, store.Add(30, population.Female, false))
	infect(store.Get(0), math.NaN())

	rng := rand.New(rand.NewSource(3))
	_, err := e.Step(rng, store, g, 1)
	require.Error(t, err)
}

func TestStepMissingBetaFails(t *testing.T) {
	e := householdEngine(t, 1)
	store := population.NewStore(1)
	g := population.NewGroup(0, "office", 1)
	g.Add(0, store.Add(30, population.Male, false))

	_, err := e.Step(rand.New(rand.NewSource(1)), store, g, 1)
	require.Error(t, err)
}

func TestStepMatrixShapeMismatchFails(t *testing.T) {
	e, err := interaction.New(interaction.Config{
		Betas: map[string]float64{"school": 1},
		ContactMatrices: map[string]interaction.MatrixConfig{
			"school": {Contacts: [][]float64{{1}}},
		},
	})
	require.NoError(t, err)

	store := population.NewStore(2)
	g := population.NewGroup(0, "school", 2)
	g.Add(0, store.Add(10, population.Male, false))
	g.Add(1, store.Add(40, population.Female, false))
	infect(store.Get(0), 0.5)

	_, err = e.Step(rand.New(rand.NewSource(1)), store, g, 1)
	require.Error(t, err)
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  interaction.Config
	}{
		{"no betas", interaction.Config{}},
		{"negative beta", interaction.Config{Betas: map[string]float64{"household": -1}}},
		{"matrix without beta", interaction.Config{
			Betas:           map[string]float64{"household": 1},
			ContactMatrices: map[string]interaction.MatrixConfig{"school": {Contacts: [][]float64{{1}}}},
		}},
		{"non-square matrix", interaction.Config{
			Betas:           map[string]float64{"school": 1},
			ContactMatrices: map[string]interaction.MatrixConfig{"school": {Contacts: [][]float64{{1, 2}}}},
		}},
		{"negative contacts", interaction.Config{
			Betas:           map[string]float64{"school": 1},
			ContactMatrices: map[string]interaction.MatrixConfig{"school": {Contacts: [][]float64{{-1}}}},
		}},
		{"physical proportion out of range", interaction.Config{
			Betas: map[string]float64{"school": 1},
			ContactMatrices: map[string]interaction.MatrixConfig{"school": {
				Contacts:           [][]float64{{1}},
				ProportionPhysical: [][]float64{{1.5}},
			}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := interaction.New(tc.cfg)
			require.Error(t, err)
		})
	}
}
