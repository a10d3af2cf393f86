package disease

// Infection is the per-person "is infected" record: one transmission profile
// and one symptom state machine, created together at infection time and
// owned by exactly one person.
type Infection struct {
	StartTime    float64
	Transmission Transmission
	Symptoms     *Symptoms

	probability float64
}

// NewInfection creates the record at the given simulation time (days).
func NewInfection(transmission Transmission, symptoms *Symptoms, startTime float64) *Infection {
	return &Infection{
		StartTime:    startTime,
		Transmission: transmission,
		Symptoms:     symptoms,
	}
}

// Update advances the infection to the given simulation time: the symptom
// stage moves forward and the cached infectiousness is refreshed.
func (inf *Infection) Update(now float64) {
	elapsed := now - inf.StartTime
	inf.Symptoms.Advance(elapsed)
	inf.probability = inf.Transmission.Infectiousness(elapsed)
}

// Probability returns the infectiousness cached by the last Update. The
// interaction engine reads this value for every infected member of a group,
// so it is computed once per step rather than per contact pair.
func (inf *Infection) Probability() float64 { return inf.probability }

// Tag returns the current symptom tag.
func (inf *Infection) Tag() SymptomTag { return inf.Symptoms.Tag() }

// MaxTag returns the most severe tag the infection will reach.
func (inf *Infection) MaxTag() SymptomTag { return inf.Symptoms.MaxTag() }

// ShouldBeInHospital reports whether the current tag requires a hospital or
// ICU bed.
func (inf *Infection) ShouldBeInHospital() bool { return inf.Tag().InHospital() }

// Terminal reports whether the person has recovered or died.
func (inf *Infection) Terminal() bool { return inf.Symptoms.Terminal() }
