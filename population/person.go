// Package population holds the demographic state the engine operates on:
// Person records in an arena store, per-pathogen immunity, and the group/
// subgroup structure contact matrices are indexed by. People are referenced
// by store index everywhere; groups hold indices, never owning pointers, so
// each domain's store is the single writer of its people.
package population

import (
	"fmt"

	"github.com/epiforge/epiforge/disease"
)

// Sex of a person, as used by the outcome rate tables.
type Sex uint8

const (
	Male Sex = iota
	Female
)

func (s Sex) String() string {
	if s == Female {
		return "f"
	}
	return "m"
}

// SexFromString parses "m"/"f" (and the long forms) from configuration.
func SexFromString(v string) (Sex, error) {
	switch v {
	case "m", "male":
		return Male, nil
	case "f", "female":
		return Female, nil
	}
	return 0, fmt.Errorf("population: unrecognised sex %q", v)
}

// Status is the exclusive epidemic state of a person.
type Status uint8

const (
	StatusSusceptible Status = iota
	StatusInfected
	StatusRecovered
	StatusDead
)

func (s Status) String() string {
	switch s {
	case StatusSusceptible:
		return "susceptible"
	case StatusInfected:
		return "infected"
	case StatusRecovered:
		return "recovered"
	case StatusDead:
		return "dead"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Person is one member of the synthetic population. Identity is the store
// index; demographic fields are fixed at construction, epidemic fields
// mutate as the simulation advances.
type Person struct {
	ID               int
	Age              int
	Sex              Sex
	CareHomeResident bool

	// ComorbidityMultiplier scales the person's severe-outcome risk
	// relative to a healthy individual. 1 means no comorbidity.
	ComorbidityMultiplier float64

	Status         Status
	Susceptibility float64
	Immunity       Immunity
	Infection      *disease.Infection

	// InfectionsCaused counts secondary infections attributed to this
	// person, for downstream reproduction-number estimates.
	InfectionsCaused int
}

// Susceptible reports whether the person can currently be infected.
func (p *Person) Susceptible() bool {
	return p.Status == StatusSusceptible && p.Susceptibility > 0
}

// Infected reports whether the person carries an active infection.
func (p *Person) Infected() bool {
	return p.Status == StatusInfected && p.Infection != nil
}

// Store is the arena owning every Person of one execution domain.
type Store struct {
	people []Person
}

// NewStore creates an empty arena with capacity for n people.
func NewStore(n int) *Store {
	return &Store{people: make([]Person, 0, n)}
}

// Add appends a person and returns their id (the store index).
func (s *Store) Add(age int, sex Sex, careHome bool) int {
	id := len(s.people)
	s.people = append(s.people, Person{
		ID:                    id,
		Age:                   age,
		Sex:                   sex,
		CareHomeResident:      careHome,
		ComorbidityMultiplier: 1,
		Status:                StatusSusceptible,
		Susceptibility:        1,
		Immunity:              NewImmunity(),
	})
	return id
}

// Get returns the mutable person record for an id.
func (s *Store) Get(id int) *Person {
	return &s.people[id]
}

// Len returns the number of people in the store.
func (s *Store) Len() int { return len(s.people) }

// EachInfected visits every person with an active infection.
func (s *Store) EachInfected(fn func(p *Person)) {
	for i := range s.people {
		if s.people[i].Infected() {
			fn(&s.people[i])
		}
	}
}

// Count returns the number of people in the given status.
func (s *Store) Count(status Status) int {
	n := 0
	for i := range s.people {
		if s.people[i].Status == status {
			n++
		}
	}
	return n
}
