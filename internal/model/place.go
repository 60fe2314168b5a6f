package model

import (
	"fmt"
	"strings"
)

// TooManyConnectionsError is returned when a Place already has a
// connection in every direction.
type TooManyConnectionsError struct {
	Location Location
}

func (e *TooManyConnectionsError) Error() string {
	return fmt.Sprintf("place %s already has the maximum number of connections", e.Location)
}

// Place is a physical place in the world, a dungeon room, a village
// square, etc. One contiguous space. Also used for the overland map.
// References to other places are stored as Location keys, never as
// pointers; both sides of an edge name each other.
type Place struct {
	Name        string                 `yaml:"name"`
	Location    Location               `yaml:"location"`
	Description string                 `yaml:"description"`
	Tags        []string               `yaml:"tags,omitempty"`
	Connections map[Direction]Location `yaml:"connections"`
}

// NewPlace creates a place with a fresh Location and no connections.
func NewPlace(name, description string) *Place {
	return &Place{
		Name:        name,
		Location:    NewLocation(),
		Description: description,
		Connections: make(map[Direction]Location),
	}
}

// AddConnection records a connection from this place to the given
// location. It tries the requested direction first and falls back to the
// first free one if that slot is taken. The direction actually used is
// returned so the caller can wire up the other side. The target is not
// checked for existence; callers must not forge dangling edges.
func (p *Place) AddConnection(dir Direction, target Location) (Direction, error) {
	directions := Directions()
	if len(p.Connections) >= len(directions) {
		return dir, &TooManyConnectionsError{Location: p.Location}
	}
	if p.Connections == nil {
		p.Connections = make(map[Direction]Location)
	}

	if _, taken := p.Connections[dir]; !taken {
		p.Connections[dir] = target
		return dir, nil
	}
	for _, d := range directions {
		if _, taken := p.Connections[d]; !taken {
			p.Connections[d] = target
			return d, nil
		}
	}
	// Unreachable: the length check above guarantees a free slot.
	return dir, &TooManyConnectionsError{Location: p.Location}
}

// IsConnected reports whether any connection leads to the given location.
func (p *Place) IsConnected(target Location) bool {
	for _, l := range p.Connections {
		if l == target {
			return true
		}
	}
	return false
}

// Link wires a bidirectional connection between a and b, preferring the
// given direction on a. If either the preferred slot or its reverse is
// taken, the first direction pair free on both sides is used, keeping
// a.Connections[d] == b.Location and b.Connections[d.Reverse()] ==
// a.Location in lockstep.
func Link(a, b *Place, prefer Direction) (Direction, error) {
	if a.Connections == nil {
		a.Connections = make(map[Direction]Location)
	}
	if b.Connections == nil {
		b.Connections = make(map[Direction]Location)
	}

	dirs := Directions()
	candidates := append([]Direction{prefer}, dirs[:]...)
	for _, d := range candidates {
		_, aTaken := a.Connections[d]
		_, bTaken := b.Connections[d.Reverse()]
		if aTaken || bTaken {
			continue
		}
		a.Connections[d] = b.Location
		b.Connections[d.Reverse()] = a.Location
		return d, nil
	}

	if len(a.Connections) >= len(Directions()) {
		return prefer, &TooManyConnectionsError{Location: a.Location}
	}
	return prefer, &TooManyConnectionsError{Location: b.Location}
}

// Look generates the text describing this place to a player. start opens
// the sentence ("You're standing in", "You move to"). nameOf resolves a
// neighbouring location to its display name. Directions are listed in
// enumeration order so the output is stable.
func (p *Place) Look(start string, nameOf func(Location) string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n\n%s\n\n", start, p.Name, p.Description)
	for _, d := range Directions() {
		loc, ok := p.Connections[d]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "Looking %s you see %s\n", d, nameOf(loc))
	}
	return sb.String()
}
