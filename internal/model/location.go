package model

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Location is the stable 128-bit identity of a Place. The zero value is
// reserved and never issued; it marks "no location".
type Location [16]byte

// NewLocation returns a fresh random Location. The zero value is skipped.
func NewLocation() Location {
	l := Location(uuid.New())
	if l == (Location{}) {
		l[15]++
	}
	return l
}

// IsZero reports whether l is the reserved invalid Location.
func (l Location) IsZero() bool {
	return l == Location{}
}

// String renders the location as 32 lowercase hex characters.
func (l Location) String() string {
	return hex.EncodeToString(l[:])
}

// ParseLocation decodes the hex form produced by String.
func ParseLocation(s string) (Location, error) {
	var l Location
	b, err := hex.DecodeString(s)
	if err != nil {
		return l, fmt.Errorf("parsing location %q: %w", s, err)
	}
	if len(b) != len(l) {
		return l, fmt.Errorf("parsing location %q: want %d bytes, got %d", s, len(l), len(b))
	}
	copy(l[:], b)
	return l, nil
}

// MarshalYAML implements yaml.Marshaler.
func (l Location) MarshalYAML() (any, error) {
	return l.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Location) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLocation(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
