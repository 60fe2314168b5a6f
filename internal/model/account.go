package model

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PlayerID is the stable 128-bit identity of a player account, distinct
// from Location.
type PlayerID [16]byte

// NewPlayerID returns a fresh random PlayerID.
func NewPlayerID() PlayerID {
	id := PlayerID(uuid.New())
	if id == (PlayerID{}) {
		id[15]++
	}
	return id
}

// IsZero reports whether id is the zero PlayerID.
func (id PlayerID) IsZero() bool {
	return id == PlayerID{}
}

// String renders the id as 32 lowercase hex characters.
func (id PlayerID) String() string {
	return hex.EncodeToString(id[:])
}

// ParsePlayerID decodes the hex form produced by String.
func ParsePlayerID(s string) (PlayerID, error) {
	var id PlayerID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parsing player id %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("parsing player id %q: want %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// MarshalYAML implements yaml.Marshaler.
func (id PlayerID) MarshalYAML() (any, error) {
	return id.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *PlayerID) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePlayerID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Account is one registered player. The password field holds a fast
// non-cryptographic 64-bit hash: the wire protocol is unencrypted telnet,
// so anything stronger at rest would be theatre.
type Account struct {
	Username string `yaml:"username"`
	Password uint64 `yaml:"password"`
}
