package quest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	openaiadapter "github.com/bitstr0m/micro-quest/pkg/quest/adapters/openai"
	"github.com/bitstr0m/micro-quest/pkg/quest/conversing"
	"github.com/bitstr0m/micro-quest/pkg/quest/ports"
	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

// mailboxCapacity bounds the command queue. A full mailbox suspends the
// sender, providing natural backpressure.
const mailboxCapacity = 8

// Builder constructs a session.
type Builder struct {
	character     schema.Character
	apiKey        string
	backend       ports.Backend
	logger        *zap.Logger
	assistantName string
	model         string
	pollInterval  time.Duration
	turnTimeout   time.Duration
}

// NewBuilder creates a session builder for the given character.
func NewBuilder(character schema.Character) *Builder {
	return &Builder{character: character}
}

// WithAPIKey sets the backend credential. When absent, the OpenAI adapter
// falls back to the OPENAI_API_KEY environment variable.
func (b *Builder) WithAPIKey(key string) *Builder {
	b.apiKey = key

	return b
}

// WithBackend injects a backend, bypassing the default OpenAI adapter.
func (b *Builder) WithBackend(backend ports.Backend) *Builder {
	b.backend = backend

	return b
}

// WithLogger sets the session logger. Nil means no logging.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger

	return b
}

// WithAssistantName overrides the provider-side assistant name.
func (b *Builder) WithAssistantName(name string) *Builder {
	b.assistantName = name

	return b
}

// WithModel overrides the provider model.
func (b *Builder) WithModel(model string) *Builder {
	b.model = model

	return b
}

// WithPollInterval overrides the run-status polling interval.
func (b *Builder) WithPollInterval(interval time.Duration) *Builder {
	b.pollInterval = interval

	return b
}

// WithTurnTimeout bounds how long one turn may poll before giving up.
func (b *Builder) WithTurnTimeout(timeout time.Duration) *Builder {
	b.turnTimeout = timeout

	return b
}

// Build establishes the backend conversation and spawns the session
// actor. Establishment failure is fatal: no handle is returned.
func (b *Builder) Build(ctx context.Context) (Handle, error) {
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sessionID := uuid.NewString()
	logger = logger.With(zap.String("session_id", sessionID))

	backend := b.backend
	if backend == nil {
		adapter, err := openaiadapter.NewAdapter(openaiadapter.Config{APIKey: b.apiKey})
		if err != nil {
			return Handle{}, err
		}
		backend = adapter
	}

	convo, err := conversing.Establish(ctx, conversing.Config{
		Backend:       backend,
		Logger:        logger,
		AssistantName: b.assistantName,
		Model:         b.model,
		PollInterval:  b.pollInterval,
		TurnTimeout:   b.turnTimeout,
	})
	if err != nil {
		logger.Error("session establishment failed", zap.Error(err))

		return Handle{}, err
	}
	logger.Info("session established",
		zap.String("character", b.character.Name))

	mailbox := make(chan sessionMessage, mailboxCapacity)
	done := make(chan struct{})
	state := NewState(b.character)

	act := &actor{
		id:      sessionID,
		mailbox: mailbox,
		done:    done,
		convo:   convo,
		state:   state,
		logger:  logger,
	}

	actorCtx, cancel := context.WithCancel(context.Background())
	go act.run(actorCtx)

	return Handle{
		id:        sessionID,
		mailbox:   mailbox,
		state:     state,
		done:      done,
		closeOnce: &sync.Once{},
		cancel:    cancel,
	}, nil
}

// Handle is the externally held reference to a session: a queue endpoint
// for commands plus shared read access to state. Handles are values;
// copying one yields a clone sharing the same session.
type Handle struct {
	id        string
	mailbox   chan<- sessionMessage
	state     *State
	done      chan struct{}
	closeOnce *sync.Once
	cancel    context.CancelFunc
}

// SessionID returns the session's identifier.
func (h Handle) SessionID() string {
	return h.id
}

// Start issues the opening turn, presenting the character to the backend.
// It blocks until the turn resolves and returns its outcome.
func (h Handle) Start(ctx context.Context) error {
	return h.send(ctx, func(replyTo chan error) sessionMessage {
		return startMessage{replyTo: replyTo}
	})
}

// Input submits one line of player input. The player's entry is visible
// in snapshots before the backend turn resolves.
func (h Handle) Input(ctx context.Context, content string) error {
	return h.send(ctx, func(replyTo chan error) sessionMessage {
		return inputMessage{replyTo: replyTo, content: content}
	})
}

// Snapshot returns a consistent copy of session state for display.
func (h Handle) Snapshot() Snapshot {
	return h.state.Snapshot()
}

// Close terminates the session actor. In-flight and queued commands fail
// with a session-closed or cancellation error; Close is idempotent and
// safe from any clone.
func (h Handle) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.cancel()
	})
}

func (h Handle) send(ctx context.Context, build func(chan error) sessionMessage) error {
	// Buffered so the actor's reply never blocks on an abandoned caller.
	replyTo := make(chan error, 1)

	select {
	case <-h.done:
		return h.closedErr()
	case <-ctx.Done():
		return questerrs.NewSessionError(
			questerrs.ErrCodeSessionClosed,
			"command abandoned before enqueue",
			ctx.Err(),
		).WithSessionID(h.id)
	case h.mailbox <- build(replyTo):
	}

	select {
	case err := <-replyTo:
		return err
	case <-h.done:
		return h.closedErr()
	case <-ctx.Done():
		return questerrs.NewSessionError(
			questerrs.ErrCodeSessionClosed,
			"command abandoned awaiting reply",
			ctx.Err(),
		).WithSessionID(h.id)
	}
}

func (h Handle) closedErr() error {
	return questerrs.NewSessionError(
		questerrs.ErrCodeSessionClosed,
		"session is closed",
		nil,
	).WithSessionID(h.id)
}
