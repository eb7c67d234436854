package types

import (
	"fmt"
	"strings"
)

// IDNamespace is the leading segment of every live identifier.
const IDNamespace = "matrufsc2"

// Kind tags an identifier with the entity it refers to.
type Kind string

// Identifier kinds.
const (
	KindDiscipline Kind = "discipline"
	KindTeam       Kind = "team"
	KindSemester   Kind = "semester"
	KindCampus     Kind = "campus"
)

// Kinds lists every identifier kind.
var Kinds = []Kind{KindDiscipline, KindTeam, KindSemester, KindCampus}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDiscipline, KindTeam, KindSemester, KindCampus:
		return true
	}
	return false
}

// ID builds an identifier of kind k.
func (k Kind) ID(raw string) ID {
	return ID{Kind: k, Raw: raw}
}

func (k Kind) prefix() string {
	return IDNamespace + "-" + string(k) + "-"
}

// ID is a tagged identifier. Core logic compares IDs by value; the prefixed
// string form only exists at the storage and transport boundary.
type ID struct {
	Kind Kind
	Raw  string
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool {
	return id.Raw == ""
}

// String returns the live form "matrufsc2-<kind>-<raw>", or "" for the zero ID.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.Kind.prefix() + id.Raw
}

// ParseID decodes the live form of an identifier of the given kind. It fails
// with ErrMalformedID when the prefix does not match, the raw part is empty
// or the raw part carries the prefix again.
func ParseID(kind Kind, s string) (ID, error) {
	if !kind.Valid() {
		return ID{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedID, kind)
	}
	p := kind.prefix()
	raw, ok := strings.CutPrefix(s, p)
	if !ok || raw == "" {
		return ID{}, fmt.Errorf("%w: %q is not a %s identifier", ErrMalformedID, s, kind)
	}
	if strings.HasPrefix(raw, p) {
		return ID{}, fmt.Errorf("%w: %q is prefixed twice", ErrMalformedID, s)
	}
	return ID{Kind: kind, Raw: raw}, nil
}

// Purify strips the "matrufsc2-<kind>-" prefix from a live identifier.
func Purify(s string, kind Kind) (string, error) {
	id, err := ParseID(kind, s)
	if err != nil {
		return "", err
	}
	return id.Raw, nil
}

// Unpurify restores the prefix stripped by Purify. A value that already
// carries the prefix is returned unchanged, and an empty value stays empty.
func Unpurify(raw string, kind Kind) string {
	return kind.ID(strings.TrimPrefix(raw, kind.prefix())).String()
}
