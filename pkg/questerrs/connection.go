package questerrs

// ConnectionError represents backend establishment errors. These are fatal
// to session creation: the caller never receives a usable handle.
type ConnectionError struct {
	*BaseError
}

// NewConnectionError creates a new connection error.
func NewConnectionError(code ErrorCode, message string, cause error) *ConnectionError {
	return &ConnectionError{
		BaseError: NewBaseError(CategoryConnection, code, message, cause),
	}
}

// WithAssistantName adds assistant name metadata to the error.
func (e *ConnectionError) WithAssistantName(name string) *ConnectionError {
	_ = e.WithMetadata("assistant_name", name)

	return e
}

// SessionError represents session lifecycle errors. These are produced by
// the session itself rather than by a backend turn.
type SessionError struct {
	*BaseError
}

// NewSessionError creates a new session error.
func NewSessionError(code ErrorCode, message string, cause error) *SessionError {
	return &SessionError{
		BaseError: NewBaseError(CategorySession, code, message, cause),
	}
}

// WithSessionID adds session ID metadata to the error.
func (e *SessionError) WithSessionID(sessionID string) *SessionError {
	_ = e.WithMetadata("session_id", sessionID)

	return e
}
