// Package outcomes turns demographic attributes into the probability
// distribution over final clinical severities: the health index an infection
// selector buckets its severity draw against.
package outcomes

import (
	"sort"

	"github.com/epiforge/epiforge/disease"
)

// Table is the cumulative outcome distribution for one person. Seven stored
// boundaries cover asymptomatic through dead-in-hospital; the eighth bucket
// (death in intensive care) is stored explicitly rather than inferred, so
// the sum-to-one invariant cannot drift.
type Table struct {
	Cumulative [7]float64
	ICUDeath   float64
}

// Bucket maps a uniform severity draw to its outcome tag. The rule is
// searchsorted: the smallest index whose boundary is >= the draw selects the
// bucket; a draw above the last boundary is death in intensive care.
func (t Table) Bucket(draw float64) disease.SymptomTag {
	idx := sort.SearchFloat64s(t.Cumulative[:], draw)
	return disease.BucketTags[idx]
}

// Total returns the full probability mass including the explicit ICU-death
// bucket. It is 1 by construction; tests assert it to machine precision.
func (t Table) Total() float64 {
	return t.Cumulative[6] + t.ICUDeath
}
