package population

// ForeignPerson is the read-only snapshot of a person owned by another
// execution domain who participates in a local group. It carries exactly
// what one interaction step needs; the authoritative record stays with the
// owning domain.
type ForeignPerson struct {
	GlobalID       uint64
	Domain         int
	Age            int
	Susceptibility float64
	Infectiousness float64
}

// Subgroup is a role partition within a group (e.g. pupils vs teachers).
// Members are store indices of locally owned people; Foreign holds imported
// snapshots of members owned elsewhere.
type Subgroup struct {
	Role    int
	Members []int
	Foreign []ForeignPerson
}

// Size counts all members, local and foreign.
func (sg *Subgroup) Size() int {
	return len(sg.Members) + len(sg.Foreign)
}

// Group is one venue of social contact: a household, school, company and so
// on. Spec names the group type used to key contact matrices and betas.
type Group struct {
	ID        int
	Spec      string
	Subgroups []Subgroup
}

// NewGroup creates a group of the given type with n empty role subgroups.
func NewGroup(id int, spec string, roles int) *Group {
	g := &Group{ID: id, Spec: spec, Subgroups: make([]Subgroup, roles)}
	for i := range g.Subgroups {
		g.Subgroups[i].Role = i
	}
	return g
}

// Add places a local person id into the given role subgroup.
func (g *Group) Add(role int, personID int) {
	g.Subgroups[role].Members = append(g.Subgroups[role].Members, personID)
}

// AddForeign places a foreign snapshot into the given role subgroup.
func (g *Group) AddForeign(role int, fp ForeignPerson) {
	g.Subgroups[role].Foreign = append(g.Subgroups[role].Foreign, fp)
}

// Size counts all members across subgroups.
func (g *Group) Size() int {
	n := 0
	for i := range g.Subgroups {
		n += g.Subgroups[i].Size()
	}
	return n
}
