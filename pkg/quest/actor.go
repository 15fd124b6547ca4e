package quest

import (
	"context"

	"go.uber.org/zap"

	"github.com/bitstr0m/micro-quest/pkg/quest/conversing"
	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

// sessionMessage is one queued command with its reply channel. The union
// is closed: startMessage or inputMessage.
type sessionMessage interface {
	sessionMessage()
}

type startMessage struct {
	replyTo chan error
}

func (startMessage) sessionMessage() {}

type inputMessage struct {
	replyTo chan error
	content string
}

func (inputMessage) sessionMessage() {}

// actor owns the conversation client and the exclusive write path to
// session state. It drains the mailbox strictly in order, so at most one
// backend turn is ever in flight per session.
type actor struct {
	id      string
	mailbox <-chan sessionMessage
	done    <-chan struct{}
	convo   *conversing.Client
	state   *State
	logger  *zap.Logger
	started bool
}

// run is the actor's long-lived loop. It exits when the handle closes.
func (a *actor) run(ctx context.Context) {
	for {
		select {
		case <-a.done:
			a.logger.Debug("session terminated")

			return
		case msg := <-a.mailbox:
			a.handleMessage(ctx, msg)
		}
	}
}

func (a *actor) handleMessage(ctx context.Context, msg sessionMessage) {
	switch m := msg.(type) {
	case startMessage:
		m.replyTo <- a.handleStart(ctx)
	case inputMessage:
		m.replyTo <- a.handleInput(ctx, m.content)
	}
}

// handleStart sends the opening turn presenting the character. A second
// Start after a successful one is rejected rather than re-sent: the
// backend's turn history already has the character.
func (a *actor) handleStart(ctx context.Context) error {
	if a.started {
		return questerrs.NewSessionError(
			questerrs.ErrCodeAlreadyStarted,
			"session already started",
			nil,
		).WithSessionID(a.id)
	}

	output, err := a.convo.Turn(ctx, schema.Start{
		Character: a.state.characterValue(),
	})
	if err != nil {
		a.logger.Error("start turn failed", zap.Error(err))

		return err
	}

	a.state.applyUpdates(output.Updates)
	a.started = true
	a.logger.Debug("session started",
		zap.Int("updates", len(output.Updates)))

	return nil
}

// handleInput appends the player's line to the transcript before the
// network turn so it is visible while the backend works, then sends the
// turn and applies its updates. On failure the player's entry stays: the
// attempted action remains part of the record.
func (a *actor) handleInput(ctx context.Context, content string) error {
	a.state.appendEntry(LogEntry{
		Speaker: SpeakerPlayerCharacter,
		Content: content,
	})

	output, err := a.convo.Turn(ctx, schema.UserInput{Text: content})
	if err != nil {
		a.logger.Error("input turn failed", zap.Error(err))

		return err
	}

	a.state.applyUpdates(output.Updates)
	a.logger.Debug("input processed",
		zap.Int("updates", len(output.Updates)))

	return nil
}
