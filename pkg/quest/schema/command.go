package schema

import (
	"encoding/json"
	"fmt"

	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

// Variant tags for the Command union. These are the JSON object keys of the
// externally tagged encoding: {"Start": {...}} or {"UserInput": "..."}.
const (
	commandTagStart     = "Start"
	commandTagUserInput = "UserInput"
)

// Command is a structured instruction sent to the backend as one
// conversation turn. It is a closed union: Start or UserInput.
type Command interface {
	command()
}

// Start opens a session by presenting the player character. It is sent
// exactly once, as the first turn.
type Start struct {
	// Character is the player character the backend builds a quest for
	Character Character
}

// command implements the Command interface.
func (Start) command() {}

// UserInput carries one free-text player action.
type UserInput struct {
	// Text is the player's command, verbatim
	Text string
}

// command implements the Command interface.
func (UserInput) command() {}

// EncodeCommand produces the canonical JSON form of a command.
func EncodeCommand(cmd Command) ([]byte, error) {
	switch v := cmd.(type) {
	case Start:
		return json.Marshal(map[string]Character{commandTagStart: v.Character})
	case UserInput:
		return json.Marshal(map[string]string{commandTagUserInput: v.Text})
	default:
		return nil, questerrs.NewSchemaError(
			questerrs.ErrCodeUnknownVariant,
			fmt.Sprintf("unknown command variant %T", cmd),
			nil,
		)
	}
}

// DecodeCommand parses the canonical JSON form of a command. Unknown
// variant tags, extra keys, and malformed payloads all fail with a
// schema error.
func DecodeCommand(data []byte) (Command, error) {
	tag, payload, err := unionEnvelope(data)
	if err != nil {
		return nil, err
	}

	switch tag {
	case commandTagStart:
		var character Character
		if err := strictDecode(payload, characterFields, &character); err != nil {
			return nil, err
		}

		return Start{Character: character}, nil
	case commandTagUserInput:
		var text string
		if err := json.Unmarshal(payload, &text); err != nil {
			return nil, questerrs.NewSchemaError(
				questerrs.ErrCodeSchemaViolation,
				"UserInput payload must be a string",
				err,
			)
		}

		return UserInput{Text: text}, nil
	default:
		return nil, questerrs.NewSchemaError(
			questerrs.ErrCodeUnknownVariant,
			fmt.Sprintf("unknown command variant %q", tag),
			nil,
		)
	}
}

var characterFields = []string{"name", "race", "class"}
