// Package testutil provides hermetic fakes for session tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitstr0m/micro-quest/pkg/quest/ports"
)

// FakeBackend simulates an assistant provider for hermetic testing. It
// records appended messages, replays scripted run-status sequences, and
// serves queued reply messages without any network traffic.
type FakeBackend struct {
	mu sync.Mutex

	// Spec records the assistant spec passed to EnsureAssistant.
	Spec ports.AssistantSpec

	appended   []string
	scripts    [][]ports.RunState
	runCursors map[string]int
	runScripts map[string][]ports.RunState
	replies    []*ports.Message
	runCount   int

	// Error injection points. A nil field means the operation succeeds.
	EnsureAssistantErr error
	CreateThreadErr    error
	AppendErr          error
	StartRunErr        error
	RunStatusErr       error
	LatestMessageErr   error
}

// NewFakeBackend creates a fake backend with no scripted behavior. Runs
// complete immediately unless a script is queued.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		runCursors: make(map[string]int),
		runScripts: make(map[string][]ports.RunState),
	}
}

// ScriptRun queues a status sequence for the next started run. The final
// state repeats once the sequence is exhausted.
func (f *FakeBackend) ScriptRun(states ...ports.RunState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, states)
}

// QueueReply queues a message to be served by LatestMessage.
func (f *FakeBackend) QueueReply(msg *ports.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, msg)
}

// QueueTextReply queues a single-text-item message.
func (f *FakeBackend) QueueTextReply(body string) {
	f.QueueReply(&ports.Message{
		ID:    "msg-fake",
		Items: []ports.ContentItem{ports.TextItem{Text: body}},
	})
}

// QueueRefusalReply queues a single-refusal-item message.
func (f *FakeBackend) QueueRefusalReply(reason string) {
	f.QueueReply(&ports.Message{
		ID:    "msg-fake",
		Items: []ports.ContentItem{ports.RefusalItem{Reason: reason}},
	})
}

// AppendedMessages returns a copy of every message body appended so far.
func (f *FakeBackend) AppendedMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.appended))
	copy(out, f.appended)

	return out
}

// EnsureAssistant records the spec and returns a fixed assistant ID.
func (f *FakeBackend) EnsureAssistant(_ context.Context, spec ports.AssistantSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EnsureAssistantErr != nil {
		return "", f.EnsureAssistantErr
	}
	f.Spec = spec

	return "asst-fake", nil
}

// CreateThread returns a fixed thread ID.
func (f *FakeBackend) CreateThread(_ context.Context) (string, error) {
	if f.CreateThreadErr != nil {
		return "", f.CreateThreadErr
	}

	return "thread-fake", nil
}

// AppendUserMessage records the appended body.
func (f *FakeBackend) AppendUserMessage(_ context.Context, _, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AppendErr != nil {
		return f.AppendErr
	}
	f.appended = append(f.appended, content)

	return nil
}

// StartRun assigns the next queued script to a fresh run ID.
func (f *FakeBackend) StartRun(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StartRunErr != nil {
		return "", f.StartRunErr
	}

	f.runCount++
	runID := fmt.Sprintf("run-%d", f.runCount)
	script := []ports.RunState{ports.RunStateCompleted}
	if len(f.scripts) > 0 {
		script = f.scripts[0]
		f.scripts = f.scripts[1:]
	}
	f.runScripts[runID] = script
	f.runCursors[runID] = 0

	return runID, nil
}

// RunStatus replays the run's scripted status sequence.
func (f *FakeBackend) RunStatus(_ context.Context, _, runID string) (ports.RunState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RunStatusErr != nil {
		return "", f.RunStatusErr
	}

	script, ok := f.runScripts[runID]
	if !ok {
		return "", fmt.Errorf("unknown run %q", runID)
	}
	cursor := f.runCursors[runID]
	if cursor >= len(script) {
		cursor = len(script) - 1
	} else {
		f.runCursors[runID] = cursor + 1
	}

	return script[cursor], nil
}

// LatestMessage pops the next queued reply, or returns nil when none is
// queued.
func (f *FakeBackend) LatestMessage(_ context.Context, _ string) (*ports.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LatestMessageErr != nil {
		return nil, f.LatestMessageErr
	}
	if len(f.replies) == 0 {
		return nil, nil
	}

	msg := f.replies[0]
	f.replies = f.replies[1:]

	return msg, nil
}
