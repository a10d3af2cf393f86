package population

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type ageBand struct {
	lo, hi int // applies to lo <= age < hi
	value  float64
}

// AgeBands maps "lo-hi" age ranges to values, e.g. {"0-13": 0.5,
// "13-100": 1.0}. A band covers ages lo <= age < hi.
type AgeBands struct {
	bands []ageBand
}

// ParseAgeBands validates and orders a banded value map. Bands must not
// overlap.
func ParseAgeBands(m map[string]float64) (*AgeBands, error) {
	bands := make([]ageBand, 0, len(m))
	for key, value := range m {
		lo, hi, err := parseBandKey(key)
		if err != nil {
			return nil, err
		}
		bands = append(bands, ageBand{lo: lo, hi: hi, value: value})
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].lo < bands[j].lo })
	for i := 1; i < len(bands); i++ {
		if bands[i].lo < bands[i-1].hi {
			return nil, fmt.Errorf("population: overlapping age bands %d-%d and %d-%d",
				bands[i-1].lo, bands[i-1].hi, bands[i].lo, bands[i].hi)
		}
	}
	return &AgeBands{bands: bands}, nil
}

func parseBandKey(key string) (int, int, error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("population: age band %q must be of the form lo-hi", key)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("population: age band %q: %w", key, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("population: age band %q: %w", key, err)
	}
	if hi <= lo || lo < 0 {
		return 0, 0, fmt.Errorf("population: age band %q bounds out of order", key)
	}
	return lo, hi, nil
}

// Value returns the band value covering the age, with def when no band does.
func (ab *AgeBands) Value(age int, def float64) float64 {
	for _, b := range ab.bands {
		if age >= b.lo && age < b.hi {
			return b.value
		}
	}
	return def
}

// ApplySusceptibility sets every susceptible person's operative
// susceptibility against a pathogen from an age-banded profile. Ages outside
// all bands keep susceptibility 1.
func ApplySusceptibility(store *Store, pathogen PathogenID, bands *AgeBands) {
	for id := 0; id < store.Len(); id++ {
		p := store.Get(id)
		v := bands.Value(p.Age, 1)
		p.Immunity.SetSusceptibility(pathogen, v)
		if p.Status == StatusSusceptible {
			p.Susceptibility = v
		}
	}
}
