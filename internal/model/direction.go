package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Direction is one of the six ways a Place can connect to a neighbour.
type Direction int

const (
	North Direction = iota
	East
	South
	West
	Up
	Down
)

// Directions returns all directions in their stable enumeration order.
// The order doubles as the tiebreak when picking the first free slot.
func Directions() [6]Direction {
	return [6]Direction{North, East, South, West, Up, Down}
}

// Reverse returns the opposite direction. Reverse is an involution.
func (d Direction) Reverse() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	default:
		return d
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Title returns the capitalized name used in player-facing messages.
func (d Direction) Title() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	case Up:
		return "Up"
	case Down:
		return "Down"
	default:
		return d.String()
	}
}

// ParseDirection resolves the lowercase name of a direction.
func ParseDirection(s string) (Direction, error) {
	for _, d := range Directions() {
		if d.String() == s {
			return d, nil
		}
	}
	return North, fmt.Errorf("unknown direction %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (d Direction) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Direction) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
