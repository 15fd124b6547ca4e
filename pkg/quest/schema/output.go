package schema

import (
	"encoding/json"
	"fmt"

	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

// Variant tags for the Update union.
const (
	updateTagQuestDefinition = "QuestDefinition"
	updateTagDescription     = "Description"
)

// Output is the envelope the backend returns for one turn: an ordered
// batch of updates to apply to session state.
type Output struct {
	// Updates are applied in the order received
	Updates []Update `json:"updates"`
}

// Update is one typed mutation instruction returned by the backend. It is
// a closed union: QuestUpdate or DescriptionUpdate.
type Update interface {
	update()
}

// QuestUpdate replaces the session's current quest wholesale.
type QuestUpdate struct {
	// Definition is the new quest
	Definition QuestDefinition
}

// update implements the Update interface.
func (QuestUpdate) update() {}

// DescriptionUpdate appends one narrative log entry attributed to the
// game master.
type DescriptionUpdate struct {
	// Text is the narrative content shown to the player
	Text string
}

// update implements the Update interface.
func (DescriptionUpdate) update() {}

// EncodeOutput produces the canonical JSON form of an output envelope.
func EncodeOutput(out Output) ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(out.Updates))
	for _, u := range out.Updates {
		enc, err := encodeUpdate(u)
		if err != nil {
			return nil, err
		}
		raw = append(raw, enc)
	}

	return json.Marshal(map[string][]json.RawMessage{"updates": raw})
}

// DecodeOutput parses and validates one backend response against the
// declared shape. Any unknown field or variant fails with a schema error
// rather than being silently ignored.
func DecodeOutput(data []byte) (Output, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Output{}, questerrs.NewSchemaError(
			questerrs.ErrCodeSchemaViolation,
			"output is not a JSON object",
			err,
		)
	}

	updatesRaw, ok := envelope["updates"]
	if !ok {
		return Output{}, questerrs.NewSchemaError(
			questerrs.ErrCodeSchemaViolation,
			"output missing updates field",
			nil,
		).WithField("updates")
	}
	if len(envelope) != 1 {
		for key := range envelope {
			if key == "updates" {
				continue
			}

			return Output{}, questerrs.NewSchemaError(
				questerrs.ErrCodeSchemaViolation,
				fmt.Sprintf("output carries unknown field %q", key),
				nil,
			).WithField(key)
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(updatesRaw, &items); err != nil {
		return Output{}, questerrs.NewSchemaError(
			questerrs.ErrCodeSchemaViolation,
			"updates must be an array",
			err,
		).WithField("updates")
	}

	updates := make([]Update, 0, len(items))
	for i, item := range items {
		update, err := decodeUpdate(item)
		if err != nil {
			return Output{}, questerrs.NewSchemaError(
				questerrs.ErrCodeSchemaViolation,
				fmt.Sprintf("updates[%d] is invalid", i),
				err,
			)
		}
		updates = append(updates, update)
	}

	return Output{Updates: updates}, nil
}

func encodeUpdate(u Update) (json.RawMessage, error) {
	switch v := u.(type) {
	case QuestUpdate:
		return json.Marshal(map[string]QuestDefinition{updateTagQuestDefinition: v.Definition})
	case DescriptionUpdate:
		return json.Marshal(map[string]string{updateTagDescription: v.Text})
	default:
		return nil, questerrs.NewSchemaError(
			questerrs.ErrCodeUnknownVariant,
			fmt.Sprintf("unknown update variant %T", u),
			nil,
		)
	}
}

func decodeUpdate(data []byte) (Update, error) {
	tag, payload, err := unionEnvelope(data)
	if err != nil {
		return nil, err
	}

	switch tag {
	case updateTagQuestDefinition:
		var def QuestDefinition
		if err := strictDecode(payload, questDefinitionFields, &def); err != nil {
			return nil, err
		}

		return QuestUpdate{Definition: def}, nil
	case updateTagDescription:
		var text string
		if err := json.Unmarshal(payload, &text); err != nil {
			return nil, questerrs.NewSchemaError(
				questerrs.ErrCodeSchemaViolation,
				"Description payload must be a string",
				err,
			)
		}

		return DescriptionUpdate{Text: text}, nil
	default:
		return nil, questerrs.NewSchemaError(
			questerrs.ErrCodeUnknownVariant,
			fmt.Sprintf("unknown update variant %q", tag),
			nil,
		)
	}
}

var questDefinitionFields = []string{"title", "description", "objective_summary"}
