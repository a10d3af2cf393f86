package disease_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiforge/epiforge/disease"
)

func severeTrajectory() disease.Trajectory {
	return disease.Trajectory{
		{CumulativeTime: 0, Tag: disease.TagExposed},
		{CumulativeTime: 2, Tag: disease.TagMild},
		{CumulativeTime: 4, Tag: disease.TagHospitalised},
		{CumulativeTime: 6, Tag: disease.TagIntensiveCare},
		{CumulativeTime: 16, Tag: disease.TagRecovered},
	}
}

func TestSymptomsProgression(t *testing.T) {
	s := disease.NewSymptoms(severeTrajectory(), 0.8)

	assert.Equal(t, disease.TagExposed, s.Tag())
	assert.Equal(t, disease.TagIntensiveCare, s.MaxTag())

	assert.Equal(t, disease.TagExposed, s.Advance(1))
	assert.Equal(t, disease.TagMild, s.Advance(2.5))
	assert.Equal(t, disease.TagHospitalised, s.Advance(4))
	assert.Equal(t, disease.TagIntensiveCare, s.Advance(10))
	assert.False(t, s.Terminal())
	assert.Equal(t, disease.TagRecovered, s.Advance(16))
	assert.True(t, s.Terminal())
	assert.True(t, s.Recovered())
	assert.False(t, s.Dead())
}

func TestSymptomsSkipsStagesOnLargeSteps(t *testing.T) {
	s := disease.NewSymptoms(severeTrajectory(), 0.8)
	assert.Equal(t, disease.TagRecovered, s.Advance(100))
}

func TestSymptomsTagAtIsPure(t *testing.T) {
	s := disease.NewSymptoms(severeTrajectory(), 0.8)
	for _, elapsed := range []float64{0, 1, 2, 3, 5, 7, 20} {
		first := s.TagAt(elapsed)
		second := s.TagAt(elapsed)
		assert.Equal(t, first, second, "elapsed %v", elapsed)
	}
	// Probing with TagAt must not move the cursor.
	assert.Equal(t, disease.TagExposed, s.Tag())
}

func TestSymptomsTimeRegressionPanics(t *testing.T) {
	s := disease.NewSymptoms(severeTrajectory(), 0.8)
	s.Advance(5)
	require.Panics(t, func() { s.Advance(4) })
}

func TestSymptomsDeadTerminal(t *testing.T) {
	trajectory := disease.Trajectory{
		{CumulativeTime: 0, Tag: disease.TagExposed},
		{CumulativeTime: 2, Tag: disease.TagMild},
		{CumulativeTime: 5, Tag: disease.TagSevere},
		{CumulativeTime: 9, Tag: disease.TagDeadHome},
	}
	s := disease.NewSymptoms(trajectory, 0.97)
	s.Advance(9)
	assert.True(t, s.Dead())
	assert.True(t, s.Terminal())
	assert.False(t, s.Recovered())
}
