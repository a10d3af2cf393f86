package disease

import "fmt"

// Symptoms tracks where along its trajectory an infection currently is. The
// trajectory is fixed at creation; the only mutable state is the stage
// cursor, which may only move forward in time.
type Symptoms struct {
	trajectory  Trajectory
	stage       int
	tag         SymptomTag
	maxTag      SymptomTag
	maxSeverity float64
	lastElapsed float64
}

// NewSymptoms starts the state machine at (0, exposed) on the given
// trajectory. maxSeverity is the uniform draw that selected the outcome.
func NewSymptoms(trajectory Trajectory, maxSeverity float64) *Symptoms {
	return &Symptoms{
		trajectory:  trajectory,
		stage:       0,
		tag:         trajectory[0].Tag,
		maxTag:      trajectory.MaxTag(),
		maxSeverity: maxSeverity,
	}
}

// Advance moves the stage cursor to the stage containing the elapsed time
// (days since infection) and returns the tag held there. Elapsed time must
// not regress between calls: that is a modelling bug, not a recoverable
// condition.
func (s *Symptoms) Advance(elapsed float64) SymptomTag {
	if elapsed < s.lastElapsed {
		panic(fmt.Sprintf("disease: symptom time regressed from %v to %v", s.lastElapsed, elapsed))
	}
	s.lastElapsed = elapsed
	for s.stage+1 < len(s.trajectory) && s.trajectory[s.stage+1].CumulativeTime <= elapsed {
		s.stage++
	}
	s.tag = s.trajectory[s.stage].Tag
	return s.tag
}

// TagAt evaluates the trajectory at the elapsed time without moving the
// cursor. Pure: calling it twice with the same argument returns the same tag.
func (s *Symptoms) TagAt(elapsed float64) SymptomTag {
	return s.trajectory.TagAt(elapsed)
}

// Tag returns the tag at the last advanced position.
func (s *Symptoms) Tag() SymptomTag { return s.tag }

// MaxTag returns the most severe tag the trajectory will reach.
func (s *Symptoms) MaxTag() SymptomTag { return s.maxTag }

// MaxSeverity returns the uniform severity draw that chose the outcome.
func (s *Symptoms) MaxSeverity() float64 { return s.maxSeverity }

// Trajectory exposes the underlying immutable trajectory.
func (s *Symptoms) Trajectory() Trajectory { return s.trajectory }

// Recovered reports whether the current tag is recovered.
func (s *Symptoms) Recovered() bool { return s.tag == TagRecovered }

// Dead reports whether the current tag is one of the death outcomes.
func (s *Symptoms) Dead() bool { return s.tag.IsDead() }

// Terminal reports whether the infection's active life has ended.
func (s *Symptoms) Terminal() bool { return s.tag.IsTerminal() }

// SymptomOnset returns the elapsed time of first symptoms, false if the
// trajectory is asymptomatic throughout.
func (s *Symptoms) SymptomOnset() (float64, bool) {
	return s.trajectory.SymptomOnset()
}
