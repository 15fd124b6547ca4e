package questerrs

// TurnError represents errors produced by a single backend turn. Turn errors
// are recoverable: the session stays alive and the caller may retry by
// issuing another command.
type TurnError struct {
	*BaseError
}

// NewTurnError creates a new turn error.
func NewTurnError(code ErrorCode, message string, cause error) *TurnError {
	return &TurnError{
		BaseError: NewBaseError(CategoryTurn, code, message, cause),
	}
}

// WithRunID adds run ID metadata to the error.
func (e *TurnError) WithRunID(runID string) *TurnError {
	_ = e.WithMetadata("run_id", runID)

	return e
}

// WithRefusal adds the backend-supplied refusal text to the error.
func (e *TurnError) WithRefusal(reason string) *TurnError {
	_ = e.WithMetadata("refusal", reason)

	return e
}

// Refusal returns the backend-supplied refusal text, if any.
func (e *TurnError) Refusal() string {
	if reason, ok := e.Metadata()["refusal"].(string); ok {
		return reason
	}

	return ""
}

// SchemaError represents wire-contract validation errors: a Command or
// Output value whose JSON form does not match the declared shape.
type SchemaError struct {
	*BaseError
}

// NewSchemaError creates a new schema error.
func NewSchemaError(code ErrorCode, message string, cause error) *SchemaError {
	return &SchemaError{
		BaseError: NewBaseError(CategorySchema, code, message, cause),
	}
}

// WithField adds the offending field name to the error.
func (e *SchemaError) WithField(field string) *SchemaError {
	_ = e.WithMetadata("field", field)

	return e
}
