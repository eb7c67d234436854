package types

import "fmt"

// Semester is an academic term offered by the catalog.
type Semester struct {
	ID   ID
	Name string
}

// Campus is a campus offering disciplines in one semester.
type Campus struct {
	ID       ID
	Semester ID
	Name     string
}

// Section is one offered class (a "team") of a discipline with a fixed
// weekly schedule. Candidate marks whether the section takes part in
// combination enumeration; only explicit user toggles change it.
type Section struct {
	ID               ID
	DisciplineID     ID
	Code             string
	Slots            []TimeSlot
	Candidate        bool
	Teachers         []string
	VacanciesOffered int
	VacanciesFilled  int
}

// Validate checks identifiers and every slot.
func (s *Section) Validate() error {
	if s.ID.Kind != KindTeam || s.ID.IsZero() {
		return fmt.Errorf("%w: section id %q", ErrInvalidID, s.ID.Raw)
	}
	for _, slot := range s.Slots {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("section %s: %w", s.ID.Raw, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	c := *s
	c.Slots = append([]TimeSlot(nil), s.Slots...)
	c.Teachers = append([]string(nil), s.Teachers...)
	return &c
}

// Discipline is a course. It owns its sections; sections are unique by ID
// and kept in insertion order.
type Discipline struct {
	ID       ID
	Code     string
	Name     string
	Semester ID
	Campus   ID
	Sections []*Section
}

// Label returns the name used when reporting the discipline to a user.
func (d *Discipline) Label() string {
	switch {
	case d.Name != "":
		return d.Name
	case d.Code != "":
		return d.Code
	default:
		return d.ID.Raw
	}
}

// Section returns the section with the given ID, or nil.
func (d *Discipline) Section(id ID) *Section {
	for _, s := range d.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// AddSection appends a section, attaching it to this discipline.
// Returns ErrDuplicateSection if a section with the same ID exists.
func (d *Discipline) AddSection(s *Section) error {
	if d.Section(s.ID) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateSection, s.ID.Raw)
	}
	s.DisciplineID = d.ID
	d.Sections = append(d.Sections, s)
	return nil
}

// CandidateSections returns the candidate sections in insertion order.
func (d *Discipline) CandidateSections() []*Section {
	var out []*Section
	for _, s := range d.Sections {
		if s.Candidate {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of the discipline and its sections.
func (d *Discipline) Clone() *Discipline {
	c := *d
	c.Sections = make([]*Section, len(d.Sections))
	for i, s := range d.Sections {
		c.Sections[i] = s.Clone()
	}
	return &c
}
