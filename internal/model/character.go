package model

// Attribute is a single character attribute score. Scores centre on 10;
// the modifier is what actually feeds the mechanics.
type Attribute int

// DefaultAttributeValue is the score every attribute starts at.
const DefaultAttributeValue Attribute = 10

// Modifier returns (value-10)/2, rounded toward zero.
func (a Attribute) Modifier() int {
	return (int(a) - 10) / 2
}

// Attributes is the full attribute block of a character or creature.
type Attributes struct {
	Strength     Attribute `yaml:"strength"`
	Toughness    Attribute `yaml:"toughness"`
	Agility      Attribute `yaml:"agility"`
	Intelligence Attribute `yaml:"intelligence"`
	Willpower    Attribute `yaml:"willpower"`
}

// NewAttributes returns an attribute block with every score at the default.
func NewAttributes() Attributes {
	return Attributes{
		Strength:     DefaultAttributeValue,
		Toughness:    DefaultAttributeValue,
		Agility:      DefaultAttributeValue,
		Intelligence: DefaultAttributeValue,
		Willpower:    DefaultAttributeValue,
	}
}

// Character is a player's body in the world.
type Character struct {
	Name       string     `yaml:"name"`
	Location   Location   `yaml:"location"`
	Health     int        `yaml:"health"`
	Attributes Attributes `yaml:"attributes"`
	Inventory  Inventory  `yaml:"inventory"`
}

// NewCharacter creates a character with default attributes at the given
// location, starting at full health.
func NewCharacter(name string, location Location) *Character {
	c := &Character{
		Name:       name,
		Location:   location,
		Attributes: NewAttributes(),
	}
	c.Health = c.MaxHealth()
	return c
}

// MaxHealth derives maximum health from toughness, never below 1.
func (c *Character) MaxHealth() int {
	return max(1, c.Attributes.Toughness.Modifier()*2+8)
}
