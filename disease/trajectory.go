package disease

import (
	"fmt"
	"math/rand"

	"github.com/epiforge/epiforge/random"
)

// Stage is one step of a trajectory: the cumulative time (days since
// infection) at which the stage begins, and the tag held while in it.
type Stage struct {
	CumulativeTime float64
	Tag            SymptomTag
}

// Trajectory is the immutable timed sequence of clinical stages fixed at
// infection onset. It always starts at (0, exposed) and ends on a terminal
// tag. Stage boundaries are strict: a person is in stage k for
// cum[k] <= elapsed < cum[k+1].
type Trajectory []Stage

// StageAt returns the index of the stage containing the elapsed time.
func (tr Trajectory) StageAt(elapsed float64) int {
	idx := 0
	for i := 1; i < len(tr); i++ {
		if tr[i].CumulativeTime <= elapsed {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// TagAt returns the tag held at the elapsed time. Pure function of the
// trajectory and the elapsed time.
func (tr Trajectory) TagAt(elapsed float64) SymptomTag {
	return tr[tr.StageAt(elapsed)].Tag
}

// MaxTag returns the most severe tag reached anywhere in the trajectory.
func (tr Trajectory) MaxTag() SymptomTag {
	max := tr[0].Tag
	for _, s := range tr[1:] {
		if s.Tag.severity() > max.severity() {
			max = s.Tag
		}
	}
	return max
}

// TimeExposed returns the duration of the initial exposed stage, which is
// the incubation time the transmission profile is anchored to.
func (tr Trajectory) TimeExposed() float64 {
	return tr[1].CumulativeTime
}

// SymptomOnset returns the elapsed time at which symptoms first appear (the
// start of the mild stage) and false for trajectories that never leave
// asymptomatic.
func (tr Trajectory) SymptomOnset() (float64, bool) {
	for _, s := range tr {
		switch s.Tag {
		case TagMild:
			return s.CumulativeTime, true
		case TagAsymptomatic:
			return 0, false
		}
	}
	return 0, false
}

// StageSpec configures one stage of a trajectory template.
type StageSpec struct {
	SymptomTag     string      `yaml:"symptom_tag"`
	CompletionTime random.Spec `yaml:"completion_time"`
}

// TrajectorySpec configures one trajectory template, keyed by its most
// severe stage.
type TrajectorySpec struct {
	Stages []StageSpec `yaml:"stages"`
}

type stageTemplate struct {
	tag      SymptomTag
	duration random.Sampler
}

// Catalogue builds concrete trajectories from configured stage templates,
// one template per maximum-severity outcome.
type Catalogue struct {
	templates map[SymptomTag][]stageTemplate
}

// NewCatalogue parses and validates trajectory templates. Every template
// must start at exposed and end on a terminal tag; templates are keyed by
// their most severe tag and each outcome may appear only once.
func NewCatalogue(specs []TrajectorySpec) (*Catalogue, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("disease: no trajectories configured")
	}
	templates := make(map[SymptomTag][]stageTemplate, len(specs))
	for i, spec := range specs {
		if len(spec.Stages) < 2 {
			return nil, fmt.Errorf("disease: trajectory %d needs at least two stages", i)
		}
		stages := make([]stageTemplate, 0, len(spec.Stages))
		maxTag := TagExposed
		for j, stageSpec := range spec.Stages {
			tag, err := TagFromString(stageSpec.SymptomTag)
			if err != nil {
				return nil, fmt.Errorf("disease: trajectory %d stage %d: %w", i, j, err)
			}
			sampler, err := stageSpec.CompletionTime.Sampler()
			if err != nil {
				return nil, fmt.Errorf("disease: trajectory %d stage %d (%s): %w", i, j, tag, err)
			}
			if tag.severity() > maxTag.severity() {
				maxTag = tag
			}
			stages = append(stages, stageTemplate{tag: tag, duration: sampler})
		}
		if stages[0].tag != TagExposed {
			return nil, fmt.Errorf("disease: trajectory %d must start at exposed, starts at %s", i, stages[0].tag)
		}
		if last := stages[len(stages)-1].tag; !last.IsTerminal() {
			return nil, fmt.Errorf("disease: trajectory %d must end on a terminal tag, ends at %s", i, last)
		}
		if _, dup := templates[maxTag]; dup {
			return nil, fmt.Errorf("disease: duplicate trajectory for outcome %s", maxTag)
		}
		templates[maxTag] = stages
	}
	return &Catalogue{templates: templates}, nil
}

// Build draws stage durations and assembles the trajectory for the given
// maximum-severity outcome. Negative duration draws (possible for unbounded
// families) are clamped to zero to keep cumulative times non-decreasing.
func (c *Catalogue) Build(rng *rand.Rand, maxTag SymptomTag) (Trajectory, error) {
	template, ok := c.templates[maxTag]
	if !ok {
		return nil, fmt.Errorf("disease: no trajectory configured for outcome %s", maxTag)
	}
	trajectory := make(Trajectory, 0, len(template))
	cumulative := 0.0
	for _, stage := range template {
		trajectory = append(trajectory, Stage{CumulativeTime: cumulative, Tag: stage.tag})
		d := stage.duration.Sample(rng)
		if d > 0 {
			cumulative += d
		}
	}
	return trajectory, nil
}

// Outcomes lists the maximum-severity tags the catalogue can build.
func (c *Catalogue) Outcomes() []SymptomTag {
	out := make([]SymptomTag, 0, len(c.templates))
	for tag := range c.templates {
		out = append(out, tag)
	}
	return out
}
