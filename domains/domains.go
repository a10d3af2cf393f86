// Package domains supports splitting one population across execution
// domains. Each domain owns its people; members of groups that straddle the
// split participate elsewhere through read-only snapshots, and infections of
// those members travel back to the owning domain as reports.
package domains

import (
	"github.com/epiforge/epiforge/interaction"
	"github.com/epiforge/epiforge/population"
)

// Report is one infection of a foreign person, addressed to the domain that
// owns them. The owner applies it at the start of its next step, exactly as
// if the infection had been sampled locally.
type Report struct {
	PersonID  uint64 // global id in the owning domain
	Domain    int
	GroupID   int
	GroupSpec string
}

// Partition splits one step's infection events into locally applicable
// events and per-domain reports for foreign targets.
func Partition(events []interaction.InfectionEvent) ([]interaction.InfectionEvent, map[int][]Report) {
	var local []interaction.InfectionEvent
	var foreign map[int][]Report
	for _, ev := range events {
		if !ev.Foreign {
			local = append(local, ev)
			continue
		}
		if foreign == nil {
			foreign = make(map[int][]Report)
		}
		foreign[ev.ForeignDomain] = append(foreign[ev.ForeignDomain], Report{
			PersonID:  ev.ForeignID,
			Domain:    ev.ForeignDomain,
			GroupID:   ev.GroupID,
			GroupSpec: ev.GroupSpec,
		})
	}
	return local, foreign
}

// Snapshot exports a person's interaction-relevant state for use as a
// foreign member in another domain. The snapshot is valid for one timestep.
func Snapshot(domain int, globalID uint64, p *population.Person) population.ForeignPerson {
	fp := population.ForeignPerson{
		GlobalID: globalID,
		Domain:   domain,
		Age:      p.Age,
	}
	if p.Susceptible() {
		fp.Susceptibility = p.Susceptibility
	}
	if p.Infected() {
		fp.Infectiousness = p.Infection.Probability()
	}
	return fp
}

// Registry maps between a domain's local store indices and the run-wide
// global person ids used in snapshots and reports.
type Registry struct {
	domain        int
	globalToLocal map[uint64]int
	localToGlobal map[int]uint64
}

// NewRegistry creates an empty id registry for one domain.
func NewRegistry(domain int) *Registry {
	return &Registry{
		domain:        domain,
		globalToLocal: make(map[uint64]int),
		localToGlobal: make(map[int]uint64),
	}
}

// Domain returns the id of the domain this registry belongs to.
func (r *Registry) Domain() int { return r.domain }

// Register records the global identity of a locally owned person.
func (r *Registry) Register(globalID uint64, localID int) {
	r.globalToLocal[globalID] = localID
	r.localToGlobal[localID] = globalID
}

// Local resolves a global id to the local store index.
func (r *Registry) Local(globalID uint64) (int, bool) {
	id, ok := r.globalToLocal[globalID]
	return id, ok
}

// Global resolves a local store index to the global id.
func (r *Registry) Global(localID int) (uint64, bool) {
	id, ok := r.localToGlobal[localID]
	return id, ok
}
