// Package questerrs provides the error handling framework for micro-quest.
// This package defines error types, categories, and utilities to support
// consistent error handling across the session, conversation, and schema
// layers.
package questerrs

// ErrorCategory represents different categories of errors that can occur
// while running a session.
type ErrorCategory string

const (
	// CategoryConnection represents backend establishment errors.
	CategoryConnection ErrorCategory = "connection"
	// CategoryTurn represents errors produced by a single backend turn.
	CategoryTurn ErrorCategory = "turn"
	// CategorySchema represents wire-contract validation errors.
	CategorySchema ErrorCategory = "schema"
	// CategorySession represents session lifecycle errors.
	CategorySession ErrorCategory = "session"
)

// ErrorCode represents specific error codes within each category.
type ErrorCode string

// Connection error codes.
const (
	ErrCodeMissingAPIKey      ErrorCode = "missing_api_key"
	ErrCodeConnectionFailed   ErrorCode = "connection_failed"
	ErrCodeAssistantProvision ErrorCode = "assistant_provision"
	ErrCodeThreadCreate       ErrorCode = "thread_create"
)

// Turn error codes.
const (
	ErrCodeSendFailed        ErrorCode = "send_failed"
	ErrCodeRunFailed         ErrorCode = "run_failed"
	ErrCodeRunTimeout        ErrorCode = "run_timeout"
	ErrCodeMalformedOutput   ErrorCode = "malformed_output"
	ErrCodeRefused           ErrorCode = "refused"
	ErrCodeUnexpectedContent ErrorCode = "unexpected_content"
	ErrCodeEmptyResponse     ErrorCode = "empty_response"
)

// Schema error codes.
const (
	ErrCodeSchemaViolation ErrorCode = "schema_violation"
	ErrCodeUnknownVariant  ErrorCode = "unknown_variant"
)

// Session error codes.
const (
	ErrCodeAlreadyStarted ErrorCode = "already_started"
	ErrCodeSessionClosed  ErrorCode = "session_closed"
)
