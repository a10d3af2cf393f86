// Package disease models the per-person course of an infection: the clinical
// symptom tags, the timed trajectory through them, the infectiousness profile
// and the Infection record composing both.
package disease

import "fmt"

// SymptomTag is the closed set of clinical states a person can be in.
type SymptomTag uint8

const (
	TagExposed SymptomTag = iota
	TagAsymptomatic
	TagMild
	TagSevere
	TagHospitalised
	TagIntensiveCare
	TagDeadHome
	TagDeadHospital
	TagDeadICU
	TagRecovered
)

var tagNames = map[SymptomTag]string{
	TagExposed:       "exposed",
	TagAsymptomatic:  "asymptomatic",
	TagMild:          "mild",
	TagSevere:        "severe",
	TagHospitalised:  "hospitalised",
	TagIntensiveCare: "intensive_care",
	TagDeadHome:      "dead_home",
	TagDeadHospital:  "dead_hospital",
	TagDeadICU:       "dead_icu",
	TagRecovered:     "recovered",
}

func (t SymptomTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("symptom_tag(%d)", uint8(t))
}

// TagFromString parses the configuration name of a tag.
func TagFromString(name string) (SymptomTag, error) {
	for tag, n := range tagNames {
		if n == name {
			return tag, nil
		}
	}
	return 0, fmt.Errorf("disease: unrecognised symptom tag %q", name)
}

// IsDead reports whether the tag is one of the three death outcomes.
func (t SymptomTag) IsDead() bool {
	return t == TagDeadHome || t == TagDeadHospital || t == TagDeadICU
}

// IsTerminal reports whether reaching the tag ends the infection.
func (t SymptomTag) IsTerminal() bool {
	return t == TagRecovered || t.IsDead()
}

// InHospital reports whether the tag places the person in hospital care.
func (t SymptomTag) InHospital() bool {
	return t == TagHospitalised || t == TagIntensiveCare
}

// severity orders tags by clinical severity so the most severe stage of a
// trajectory can key the catalogue. Recovered ranks lowest: it says nothing
// about how bad the illness got.
func (t SymptomTag) severity() int {
	switch t {
	case TagRecovered:
		return 0
	case TagExposed:
		return 1
	default:
		return int(t) + 1
	}
}

// BucketTags is the outcome-bucket order of the cumulative health index:
// index i of a severity draw maps to BucketTags[i].
var BucketTags = [8]SymptomTag{
	TagAsymptomatic,
	TagMild,
	TagSevere,
	TagHospitalised,
	TagIntensiveCare,
	TagDeadHome,
	TagDeadHospital,
	TagDeadICU,
}
