package domains_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiforge/epiforge/disease"
	"github.com/epiforge/epiforge/domains"
	"github.com/epiforge/epiforge/interaction"
	"github.com/epiforge/epiforge/population"
)

func TestPartition(t *testing.T) {
	events := []interaction.InfectionEvent{
		{GroupID: 1, GroupSpec: "household", PersonID: 4},
		{GroupID: 1, GroupSpec: "household", PersonID: -1, Foreign: true, ForeignID: 900, ForeignDomain: 2},
		{GroupID: 3, GroupSpec: "company", PersonID: -1, Foreign: true, ForeignID: 901, ForeignDomain: 2},
		{GroupID: 3, GroupSpec: "company", PersonID: -1, Foreign: true, ForeignID: 77, ForeignDomain: 5},
	}

	local, foreign := domains.Partition(events)
	require.Len(t, local, 1)
	assert.Equal(t, 4, local[0].PersonID)

	want := map[int][]domains.Report{
		2: {
			{PersonID: 900, Domain: 2, GroupID: 1, GroupSpec: "household"},
			{PersonID: 901, Domain: 2, GroupID: 3, GroupSpec: "company"},
		},
		5: {
			{PersonID: 77, Domain: 5, GroupID: 3, GroupSpec: "company"},
		},
	}
	if diff := cmp.Diff(want, foreign); diff != "" {
		t.Errorf("unexpected reports (-want +got):\n%s", diff)
	}
}

func TestPartitionAllLocal(t *testing.T) {
	local, foreign := domains.Partition([]interaction.InfectionEvent{{PersonID: 1}})
	assert.Len(t, local, 1)
	assert.Nil(t, foreign)
}

func TestSnapshot(t *testing.T) {
	store := population.NewStore(2)
	susceptible := store.Get(store.Add(30, population.Male, false))
	fp := domains.Snapshot(1, 100, susceptible)
	assert.Equal(t, uint64(100), fp.GlobalID)
	assert.Equal(t, 1, fp.Domain)
	assert.Equal(t, 1.0, fp.Susceptibility)
	assert.Equal(t, 0.0, fp.Infectiousness)

	infected := store.Get(store.Add(40, population.Female, false))
	trajectory := disease.Trajectory{
		{CumulativeTime: 0, Tag: disease.TagExposed},
		{CumulativeTime: 1, Tag: disease.TagMild},
		{CumulativeTime: 9, Tag: disease.TagRecovered},
	}
	inf := disease.NewInfection(disease.TransmissionConstant{Probability: 0.4}, disease.NewSymptoms(trajectory, 0.5), 0)
	inf.Update(2)
	infected.Status = population.StatusInfected
	infected.Susceptibility = 0
	infected.Infection = inf

	fp = domains.Snapshot(1, 101, infected)
	assert.Equal(t, 0.0, fp.Susceptibility)
	assert.Equal(t, 0.4, fp.Infectiousness)
}

func TestRegistry(t *testing.T) {
	r := domains.NewRegistry(3)
	r.Register(1000, 0)
	r.Register(1001, 1)

	assert.Equal(t, 3, r.Domain())

	local, ok := r.Local(1001)
	require.True(t, ok)
	assert.Equal(t, 1, local)

	global, ok := r.Global(0)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), global)

	_, ok = r.Local(9999)
	assert.False(t, ok)
}
