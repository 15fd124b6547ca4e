package questerrs

import "errors"

// CodeOf returns the error code if err is a QuestError, or an empty code.
func CodeOf(err error) ErrorCode {
	var qe QuestError
	if errors.As(err, &qe) {
		return qe.Code()
	}

	return ""
}

// CategoryOf returns the error category if err is a QuestError, or an
// empty category.
func CategoryOf(err error) ErrorCategory {
	var qe QuestError
	if errors.As(err, &qe) {
		return qe.Category()
	}

	return ""
}

// IsConnectionError reports whether err is a connection error.
func IsConnectionError(err error) bool {
	var ce *ConnectionError

	return errors.As(err, &ce)
}

// IsTurnError reports whether err is a turn error.
func IsTurnError(err error) bool {
	var te *TurnError

	return errors.As(err, &te)
}

// IsSchemaError reports whether err is a schema error.
func IsSchemaError(err error) bool {
	var se *SchemaError

	return errors.As(err, &se)
}

// IsRunFailed reports whether err is a turn error with a failed run.
func IsRunFailed(err error) bool {
	return CodeOf(err) == ErrCodeRunFailed
}

// IsRunTimeout reports whether err is a turn error caused by the poll
// loop exceeding its bound.
func IsRunTimeout(err error) bool {
	return CodeOf(err) == ErrCodeRunTimeout
}

// IsRefusal reports whether err carries a backend refusal.
func IsRefusal(err error) bool {
	return CodeOf(err) == ErrCodeRefused
}

// RefusalText returns the refusal text carried by err, if any.
func RefusalText(err error) string {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Refusal()
	}

	return ""
}

// WrapError wraps an error with additional context in the given category.
func WrapError(
	category ErrorCategory,
	code ErrorCode,
	message string,
	err error,
) QuestError {
	switch category {
	case CategoryConnection:
		return NewConnectionError(code, message, err)
	case CategoryTurn:
		return NewTurnError(code, message, err)
	case CategorySchema:
		return NewSchemaError(code, message, err)
	case CategorySession:
		return NewSessionError(code, message, err)
	default:
		return NewSessionError(code, message, err)
	}
}
