package quest_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/bitstr0m/micro-quest/pkg/quest"
	"github.com/bitstr0m/micro-quest/pkg/quest/internal/testutil"
	"github.com/bitstr0m/micro-quest/pkg/quest/ports"
	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func jim() schema.Character {
	return schema.Character{Name: "Jim", Race: "Human", Class: "Fighter"}
}

func newTestSession(t *testing.T, backend *testutil.FakeBackend) quest.Handle {
	t.Helper()

	handle, err := quest.NewBuilder(jim()).
		WithBackend(backend).
		WithPollInterval(time.Millisecond).
		WithTurnTimeout(250 * time.Millisecond).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(handle.Close)

	return handle
}

func TestSessionEndToEnd(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.QueueTextReply(`{"updates":[` +
		`{"QuestDefinition":{"title":"The Lost Coin","description":"A coin has gone missing.","objective_summary":"Find the coin."}},` +
		`{"Description":"You wake in a tavern..."}]}`)
	handle := newTestSession(t, backend)

	if err := handle.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	snapshot := handle.Snapshot()
	if snapshot.Quest.Title != "The Lost Coin" {
		t.Errorf("quest title = %q, want %q", snapshot.Quest.Title, "The Lost Coin")
	}
	if len(snapshot.Log) != 1 {
		t.Fatalf("log length = %d, want 1", len(snapshot.Log))
	}
	entry := snapshot.Log[0]
	if entry.Speaker != quest.SpeakerGameMaster {
		t.Errorf("speaker = %q, want game master", entry.Speaker)
	}
	if entry.Content != "You wake in a tavern..." {
		t.Errorf("content = %q", entry.Content)
	}

	// The opening turn carries the character.
	appended := backend.AppendedMessages()
	if len(appended) != 1 {
		t.Fatalf("appended %d messages, want 1", len(appended))
	}
	want := `{"Start":{"name":"Jim","race":"Human","class":"Fighter"}}`
	if appended[0] != want {
		t.Errorf("appended = %s, want %s", appended[0], want)
	}
}

func TestRepeatedStartRejected(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.QueueTextReply(`{"updates":[]}`)
	handle := newTestSession(t, backend)

	if err := handle.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}

	err := handle.Start(context.Background())
	if err == nil {
		t.Fatal("second Start() expected error, got none")
	}
	if got := questerrs.CodeOf(err); got != questerrs.ErrCodeAlreadyStarted {
		t.Errorf("code = %q, want %q", got, questerrs.ErrCodeAlreadyStarted)
	}

	if appended := backend.AppendedMessages(); len(appended) != 1 {
		t.Errorf("character re-sent: %d messages appended, want 1", len(appended))
	}
}

func TestStartRetriesAfterFailedTurn(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.ScriptRun(ports.RunStateFailed)
	handle := newTestSession(t, backend)

	if err := handle.Start(context.Background()); !questerrs.IsRunFailed(err) {
		t.Fatalf("first Start() error = %v, want run failure", err)
	}

	backend.QueueTextReply(`{"updates":[{"Description":"Welcome."}]}`)
	if err := handle.Start(context.Background()); err != nil {
		t.Fatalf("retried Start() error = %v", err)
	}
	if got := len(handle.Snapshot().Log); got != 1 {
		t.Errorf("log length = %d, want 1", got)
	}
}

func TestFailedInputTurnKeepsPlayerEntryOnly(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.QueueTextReply(`{"updates":[` +
		`{"QuestDefinition":{"title":"The Lost Coin","description":"d","objective_summary":"o"}},` +
		`{"Description":"You wake in a tavern..."}]}`)
	handle := newTestSession(t, backend)

	if err := handle.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	before := handle.Snapshot()

	backend.ScriptRun(ports.RunStateFailed)
	err := handle.Input(context.Background(), "go north")
	if !questerrs.IsRunFailed(err) {
		t.Fatalf("Input() error = %v, want run failure", err)
	}

	after := handle.Snapshot()
	if after.Quest != before.Quest {
		t.Errorf("quest changed across failed turn: %#v", after.Quest)
	}
	if len(after.Log) != len(before.Log)+1 {
		t.Fatalf("log length = %d, want %d", len(after.Log), len(before.Log)+1)
	}
	last := after.Log[len(after.Log)-1]
	if last.Speaker != quest.SpeakerPlayerCharacter || last.Content != "go north" {
		t.Errorf("last entry = %#v, want the player's attempted action", last)
	}
}

func TestInputVisibleBeforeTurnResolves(t *testing.T) {
	backend := testutil.NewFakeBackend()

	// Hold the run open long enough to observe the transcript mid-turn.
	states := make([]ports.RunState, 0, 31)
	for i := 0; i < 30; i++ {
		states = append(states, ports.RunStateInProgress)
	}
	states = append(states, ports.RunStateCompleted)
	backend.ScriptRun(states...)
	backend.QueueTextReply(`{"updates":[{"Description":"You head north."}]}`)

	handle := newTestSession(t, backend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- handle.Input(context.Background(), "go north")
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		snapshot := handle.Snapshot()
		if len(snapshot.Log) > 0 {
			entry := snapshot.Log[0]
			if entry.Speaker != quest.SpeakerPlayerCharacter || entry.Content != "go north" {
				t.Errorf("first entry = %#v, want the player's line", entry)
			}

			break
		}
		if time.Now().After(deadline) {
			t.Fatal("player entry never became visible")
		}
		time.Sleep(time.Millisecond)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Input() error = %v", err)
	}
}

func TestConcurrentClonesSerializeTurns(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.QueueTextReply(`{"updates":[{"Description":"reply-1"}]}`)
	backend.QueueTextReply(`{"updates":[{"Description":"reply-2"}]}`)
	handle := newTestSession(t, backend)
	clone := handle

	errCh := make(chan error, 2)
	go func() { errCh <- handle.Input(context.Background(), "draw sword") }()
	go func() { errCh <- clone.Input(context.Background(), "raise shield") }()
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			t.Fatalf("Input() error = %v", err)
		}
	}

	log := handle.Snapshot().Log
	if len(log) != 4 {
		t.Fatalf("log length = %d, want 4", len(log))
	}

	// Whichever command won the queue, batches must not interleave:
	// each player line is followed by its own turn's reply.
	wantSpeakers := []quest.Speaker{
		quest.SpeakerPlayerCharacter,
		quest.SpeakerGameMaster,
		quest.SpeakerPlayerCharacter,
		quest.SpeakerGameMaster,
	}
	for i, want := range wantSpeakers {
		if log[i].Speaker != want {
			t.Fatalf("log[%d].Speaker = %q, want %q", i, log[i].Speaker, want)
		}
	}
	if log[1].Content != "reply-1" || log[3].Content != "reply-2" {
		t.Errorf("replies out of order: %q then %q", log[1].Content, log[3].Content)
	}

	inputs := map[string]bool{log[0].Content: true, log[2].Content: true}
	if !inputs["draw sword"] || !inputs["raise shield"] {
		t.Errorf("player lines = %q, %q", log[0].Content, log[2].Content)
	}
}

func TestClosedSessionRejectsCommands(t *testing.T) {
	backend := testutil.NewFakeBackend()
	handle := newTestSession(t, backend)

	handle.Close()
	handle.Close() // idempotent

	err := handle.Input(context.Background(), "hello?")
	if err == nil {
		t.Fatal("Input() on closed session expected error, got none")
	}
	if got := questerrs.CodeOf(err); got != questerrs.ErrCodeSessionClosed {
		t.Errorf("code = %q, want %q", got, questerrs.ErrCodeSessionClosed)
	}
}

func TestBuildFailsWhenEstablishmentFails(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.EnsureAssistantErr = context.DeadlineExceeded

	_, err := quest.NewBuilder(jim()).
		WithBackend(backend).
		Build(context.Background())
	if err == nil {
		t.Fatal("Build() expected error, got none")
	}
	if !questerrs.IsConnectionError(err) {
		t.Errorf("error = %v, want connection error", err)
	}
}
