// Package ports defines interfaces that the session domain needs from
// infrastructure. These are "ports" in hexagonal architecture - contracts
// defined by domain needs, not by external systems.
package ports

import "context"

// Backend defines what the conversation client needs from an assistant
// provider. It covers the five outbound operations of a session: assistant
// provisioning, conversation-context creation, message append, run
// lifecycle, and message retrieval.
type Backend interface {
	// EnsureAssistant locates or creates the named assistant, updating it
	// in place when its instructions have drifted from spec. It returns
	// the assistant's provider-side identifier.
	EnsureAssistant(ctx context.Context, spec AssistantSpec) (string, error)

	// CreateThread opens a new conversation context and returns its
	// provider-side identifier.
	CreateThread(ctx context.Context) (string, error)

	// AppendUserMessage appends a user-originated message to the thread.
	AppendUserMessage(ctx context.Context, threadID, content string) error

	// StartRun starts an asynchronous job against the thread using the
	// given assistant and returns the run's identifier.
	StartRun(ctx context.Context, threadID, assistantID string) (string, error)

	// RunStatus reports the run's current state.
	RunStatus(ctx context.Context, threadID, runID string) (RunState, error)

	// LatestMessage fetches the most recent message in the thread, or nil
	// when the thread has none.
	LatestMessage(ctx context.Context, threadID string) (*Message, error)
}

// AssistantSpec describes the assistant persona a session requires.
type AssistantSpec struct {
	// Name uniquely identifies the assistant on the provider side
	Name string
	// Model is the provider model identifier
	Model string
	// Instructions is the system prompt, schema document included
	Instructions string
	// ResponseFormat constrains the assistant's structured output
	ResponseFormat ResponseFormat
}

// ResponseFormat is a named JSON-schema constraint on assistant output.
type ResponseFormat struct {
	// Name labels the format on the provider side
	Name string
	// Description explains the format to the model
	Description string
	// Schema is the schema document, marshaled as-is
	Schema any
}

// RunState is the lifecycle state of an asynchronous backend run.
type RunState string

const (
	// RunStateQueued means the run is waiting to execute.
	RunStateQueued RunState = "queued"
	// RunStateInProgress means the run is executing.
	RunStateInProgress RunState = "in_progress"
	// RunStateCompleted is the successful terminal state.
	RunStateCompleted RunState = "completed"
	// RunStateFailed is the failed terminal state.
	RunStateFailed RunState = "failed"
	// RunStateCancelled means the run was cancelled before completing.
	RunStateCancelled RunState = "cancelled"
	// RunStateExpired means the provider abandoned the run.
	RunStateExpired RunState = "expired"
	// RunStateIncomplete means the run stopped before producing output.
	RunStateIncomplete RunState = "incomplete"
	// RunStateRequiresAction means the run is blocked on a tool call the
	// session does not support.
	RunStateRequiresAction RunState = "requires_action"
)

// Terminal reports whether the state is one a run never leaves.
func (s RunState) Terminal() bool {
	switch s {
	case RunStateCompleted, RunStateFailed, RunStateCancelled,
		RunStateExpired, RunStateIncomplete, RunStateRequiresAction:
		return true
	default:
		return false
	}
}

// Message is one retrieved conversation message.
type Message struct {
	// ID is the provider-side message identifier
	ID string
	// Items are the message's typed content items
	Items []ContentItem
}

// ContentItem is one typed content item within a message. It is a closed
// union: TextItem, ImageItem, or RefusalItem.
type ContentItem interface {
	contentItem()
}

// TextItem is plain text content.
type TextItem struct {
	// Text contains the content
	Text string
}

// contentItem implements the ContentItem interface.
func (TextItem) contentItem() {}

// ImageItem is image content, which the session cannot consume.
type ImageItem struct{}

// contentItem implements the ContentItem interface.
func (ImageItem) contentItem() {}

// RefusalItem carries the backend's explicit refusal to answer.
type RefusalItem struct {
	// Reason is the backend-supplied refusal text
	Reason string
}

// contentItem implements the ContentItem interface.
func (RefusalItem) contentItem() {}
