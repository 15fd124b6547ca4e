package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

// unionEnvelope unpacks the externally tagged encoding shared by Command
// and Update: a JSON object with exactly one key naming the variant.
func unionEnvelope(data []byte) (tag string, payload json.RawMessage, err error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", nil, questerrs.NewSchemaError(
			questerrs.ErrCodeSchemaViolation,
			"variant must be a JSON object",
			err,
		)
	}
	if len(envelope) != 1 {
		return "", nil, questerrs.NewSchemaError(
			questerrs.ErrCodeSchemaViolation,
			fmt.Sprintf("variant object must have exactly one key, got %d", len(envelope)),
			nil,
		)
	}

	for key, value := range envelope {
		tag = key
		payload = value
	}

	return tag, payload, nil
}

// strictDecode unmarshals a JSON object into v, requiring its key set to
// be exactly fields: unknown keys are rejected (the backend may not invent
// structure) and missing keys are rejected (the contract has no optional
// fields).
func strictDecode(data []byte, fields []string, v any) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return questerrs.NewSchemaError(
			questerrs.ErrCodeSchemaViolation,
			"payload must be a JSON object",
			err,
		)
	}
	for key := range probe {
		if !slices.Contains(fields, key) {
			return questerrs.NewSchemaError(
				questerrs.ErrCodeSchemaViolation,
				fmt.Sprintf("payload carries unknown field %q", key),
				nil,
			).WithField(key)
		}
	}
	for _, field := range fields {
		if _, ok := probe[field]; !ok {
			return questerrs.NewSchemaError(
				questerrs.ErrCodeSchemaViolation,
				fmt.Sprintf("payload missing field %q", field),
				nil,
			).WithField(field)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return questerrs.NewSchemaError(
			questerrs.ErrCodeSchemaViolation,
			"payload does not match declared shape",
			err,
		)
	}

	return nil
}
