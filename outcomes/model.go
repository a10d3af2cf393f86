package outcomes

import (
	"fmt"
	"math"

	"github.com/epiforge/epiforge/population"
)

const (
	defaultMaxAge         = 99
	defaultCareHomeMinAge = 50
)

// Rates are the reference outcome rates of one demographic cell.
type Rates struct {
	Asymptomatic float64 `yaml:"asymptomatic"`
	Mild         float64 `yaml:"mild"`
	Hospital     float64 `yaml:"hospital"`
	ICU          float64 `yaml:"icu"`
	HomeIFR      float64 `yaml:"home_ifr"`
	HospitalIFR  float64 `yaml:"hospital_ifr"`
	ICUIFR       float64 `yaml:"icu_ifr"`
}

// AgeBinRates carries the rates of one inclusive age bin for both sexes.
type AgeBinRates struct {
	Ages   [2]int `yaml:"ages"`
	Male   Rates  `yaml:"male"`
	Female Rates  `yaml:"female"`
}

// Config is the YAML-facing description of the outcome model.
type Config struct {
	CareHomeMinAge    int           `yaml:"care_home_min_age,omitempty"`
	MaxAge            int           `yaml:"max_age,omitempty"`
	GeneralPopulation []AgeBinRates `yaml:"general_population"`
	CareHomes         []AgeBinRates `yaml:"care_homes,omitempty"`
}

const (
	popGeneral = 0
	popCare    = 1
)

// Model resolves outcome probability tables per (age, sex, care-home flag).
// The eight bucket probabilities are precomputed for every integer age from
// the configured age-bin rates.
type Model struct {
	careHomeMinAge int
	maxAge         int
	hasCareHomes   bool
	// probs[population][sex][age] is the normalised eight-bucket vector.
	probs [2][2][][8]float64
}

// NewModel expands, derives and normalises the configured rates. Malformed
// tables fail here, before any timestep runs.
func NewModel(cfg Config) (*Model, error) {
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}
	careHomeMinAge := cfg.CareHomeMinAge
	if careHomeMinAge == 0 {
		careHomeMinAge = defaultCareHomeMinAge
	}
	if len(cfg.GeneralPopulation) == 0 {
		return nil, fmt.Errorf("outcomes: no general population rates configured")
	}

	m := &Model{
		careHomeMinAge: careHomeMinAge,
		maxAge:         maxAge,
		hasCareHomes:   len(cfg.CareHomes) > 0,
	}
	populations := [][]AgeBinRates{cfg.GeneralPopulation, cfg.CareHomes}
	for pop, bins := range populations {
		if len(bins) == 0 {
			continue
		}
		if err := validateBins(bins); err != nil {
			return nil, err
		}
		for sex := 0; sex < 2; sex++ {
			m.probs[pop][sex] = make([][8]float64, maxAge+1)
		}
		for age := 0; age <= maxAge; age++ {
			bin := binForAge(bins, age)
			for sex, rates := range []Rates{bin.Male, bin.Female} {
				probs, err := deriveBuckets(rates)
				if err != nil {
					return nil, fmt.Errorf("outcomes: ages %v sex %s: %w",
						bin.Ages, population.Sex(sex), err)
				}
				m.probs[pop][sex][age] = probs
			}
		}
	}
	return m, nil
}

func validateBins(bins []AgeBinRates) error {
	prevHigh := -1
	for _, bin := range bins {
		if bin.Ages[1] < bin.Ages[0] || bin.Ages[0] < 0 {
			return fmt.Errorf("outcomes: age bin %v bounds out of order", bin.Ages)
		}
		if bin.Ages[0] <= prevHigh {
			return fmt.Errorf("outcomes: age bin %v overlaps or is unsorted", bin.Ages)
		}
		prevHigh = bin.Ages[1]
	}
	return nil
}

// binForAge clamps ages outside the configured bins to the nearest bin.
func binForAge(bins []AgeBinRates, age int) AgeBinRates {
	if age < bins[0].Ages[0] {
		return bins[0]
	}
	for _, bin := range bins {
		if age >= bin.Ages[0] && age <= bin.Ages[1] {
			return bin
		}
	}
	return bins[len(bins)-1]
}

// deriveBuckets converts the raw reference rates of one demographic cell to
// the eight outcome buckets and normalises them to total probability one.
func deriveBuckets(r Rates) ([8]float64, error) {
	for name, v := range map[string]float64{
		"asymptomatic": r.Asymptomatic, "mild": r.Mild, "hospital": r.Hospital,
		"icu": r.ICU, "home_ifr": r.HomeIFR, "hospital_ifr": r.HospitalIFR,
		"icu_ifr": r.ICUIFR,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return [8]float64{}, fmt.Errorf("rate %s out of range: %v", name, v)
		}
	}
	if r.HospitalIFR > r.Hospital {
		return [8]float64{}, fmt.Errorf("hospital_ifr %v exceeds hospital rate %v", r.HospitalIFR, r.Hospital)
	}

	severe := math.Max(0, 1-r.Hospital-r.HomeIFR-r.Asymptomatic-r.Mild)
	buckets := [8]float64{
		r.Asymptomatic,                       // recovers asymptomatic
		r.Mild,                               // recovers mild
		severe,                               // recovers severe at home
		r.Hospital - r.HospitalIFR,           // recovers in the ward
		math.Max(0, r.ICU-r.ICUIFR),          // recovers in intensive care
		r.HomeIFR,                            // dies at home
		math.Max(0, r.HospitalIFR-r.ICUIFR),  // dies in the ward
		r.ICUIFR,                             // dies in intensive care
	}
	total := 0.0
	for _, b := range buckets {
		total += b
	}
	if total <= 0 {
		return [8]float64{}, fmt.Errorf("rates sum to zero")
	}
	sum := 0.0
	for i := 0; i < 7; i++ {
		buckets[i] /= total
		sum += buckets[i]
	}
	// Store the last bucket as the exact complement so the total is one to
	// machine precision.
	buckets[7] = 1 - sum
	if buckets[7] < 0 {
		return [8]float64{}, fmt.Errorf("icu death bucket negative after normalisation: %v", buckets[7])
	}
	return buckets, nil
}

// Table returns the cumulative outcome table for a person. Ages clamp to
// the configured range; a care-home lookup below the threshold age (or with
// no care-home table configured) falls back to the general population.
// effectiveMultiplier scales the severe-or-worse mass; pass 1 for none.
func (m *Model) Table(age int, sex population.Sex, careHome bool, effectiveMultiplier float64) Table {
	if age < 0 {
		age = 0
	}
	if age > m.maxAge {
		age = m.maxAge
	}
	pop := popGeneral
	if careHome && m.hasCareHomes && age >= m.careHomeMinAge {
		pop = popCare
	}
	probs := m.probs[pop][sex][age]
	if effectiveMultiplier != 1 {
		probs = applyEffectiveMultiplier(probs, effectiveMultiplier)
	}
	var t Table
	cum := 0.0
	for i := 0; i < 7; i++ {
		cum += probs[i]
		t.Cumulative[i] = cum
	}
	t.ICUDeath = probs[7]
	return t
}

// severeFrom is the first bucket of the severe-or-worse tail.
const severeFrom = 2

// applyEffectiveMultiplier rescales the severe tail of the bucket vector by
// the multiplier and renormalises the mild tail so the vector still sums to
// one. The severe mass can shrink toward zero but is never pushed negative,
// and is capped at one.
func applyEffectiveMultiplier(probs [8]float64, multiplier float64) [8]float64 {
	mildMass := 0.0
	for i := 0; i < severeFrom; i++ {
		mildMass += probs[i]
	}
	severeMass := 0.0
	for i := severeFrom; i < 8; i++ {
		severeMass += probs[i]
	}
	newSevere := severeMass * multiplier
	if newSevere > 1 {
		newSevere = 1
	}
	newMild := 1 - newSevere

	var out [8]float64
	if mildMass > 0 {
		for i := 0; i < severeFrom; i++ {
			out[i] = probs[i] * newMild / mildMass
		}
	}
	if severeMass > 0 {
		for i := severeFrom; i < 8; i++ {
			out[i] = probs[i] * newSevere / severeMass
		}
	}
	return out
}

// MaxAge returns the upper bound of the table's age range.
func (m *Model) MaxAge() int { return m.maxAge }

// CareHomeMinAge returns the age from which care-home residents follow the
// care-home tables.
func (m *Model) CareHomeMinAge() int { return m.careHomeMinAge }
