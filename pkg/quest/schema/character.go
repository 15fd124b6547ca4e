// Package schema defines the wire contract between a session and the
// backend: the Command union sent on each turn, the Output envelope
// returned by the backend, and the shared value types both sides agree on.
//
// Every type here round-trips through a canonical JSON encoding with no
// extraneous or missing fields. Decoding is strict: a JSON object carrying
// a field not in the declared shape fails with a schema error instead of
// silently dropping it.
package schema

import "strings"

// Default fallbacks applied by the character builder.
const (
	DefaultName  = "Adventurer"
	DefaultRace  = "Human"
	DefaultClass = "Fighter"
)

// Character is the immutable player character a session is created with.
// All fields are non-empty after construction.
type Character struct {
	// Name is the character's given name
	Name string `json:"name"`

	// Race is the character's fantasy race
	Race string `json:"race"`

	// Class is the character's adventuring profession
	Class string `json:"class"`
}

// CharacterBuilder constructs a Character, substituting fallback values
// for any field left empty.
type CharacterBuilder struct {
	name  string
	race  string
	class string
}

// NewCharacterBuilder creates a builder seeded with the character's name.
func NewCharacterBuilder(name string) *CharacterBuilder {
	return &CharacterBuilder{
		name:  name,
		race:  DefaultRace,
		class: DefaultClass,
	}
}

// WithRace sets the character's race.
func (b *CharacterBuilder) WithRace(race string) *CharacterBuilder {
	b.race = race

	return b
}

// WithClass sets the character's class.
func (b *CharacterBuilder) WithClass(class string) *CharacterBuilder {
	b.class = class

	return b
}

// Build produces the character, applying fallbacks for empty fields.
func (b *CharacterBuilder) Build() Character {
	c := Character{
		Name:  strings.TrimSpace(b.name),
		Race:  strings.TrimSpace(b.race),
		Class: strings.TrimSpace(b.class),
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Race == "" {
		c.Race = DefaultRace
	}
	if c.Class == "" {
		c.Class = DefaultClass
	}

	return c
}

// QuestDefinition describes the quest the backend has assigned to the
// session. A new definition replaces the previous one wholesale.
type QuestDefinition struct {
	// Title is the quest's display name
	Title string `json:"title"`

	// Description is the quest's narrative framing
	Description string `json:"description"`

	// ObjectiveSummary is a one-line statement of what completes the quest
	ObjectiveSummary string `json:"objective_summary"`
}

// IsZero reports whether the definition is the blank pre-quest value.
func (q QuestDefinition) IsZero() bool {
	return q == QuestDefinition{}
}
