// Package conversing implements the structured conversation protocol with
// the backend: one persistent assistant and thread per session, and a Turn
// operation that submits a command, drives the backend's asynchronous run
// to a terminal state, and decodes the structured response.
package conversing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bitstr0m/micro-quest/pkg/quest/ports"
	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

// Defaults for the conversation client.
const (
	DefaultAssistantName = "MicroQuest GM"
	DefaultModel         = "gpt-4o"
	DefaultPollInterval  = time.Second
	DefaultTurnTimeout   = 5 * time.Minute
)

const (
	instructionsPreamble = "You are the game master for a text-based adventure game. " +
		"You will run a session containing a simple quest for a single player character. " +
		"You must not take any actions on behalf of the player character, " +
		"the player character has full control over what they do. " +
		"Suggest some possible actions to the user in each description. " +
		"You will receive commands in JSON format according to the following schema:\n\n"

	instructionsEpilogue = "\n\nYou may respond to a command with multiple different 'updates'. " +
		"Only the Description update will be presented to the user, " +
		"so any description or dialogue intended for the user must be in a Description update."

	responseFormatName        = "quest"
	responseFormatDescription = "A series of updates to the game state, including text to be " +
		"output to the user. A QuestDefinition is sent as a response to a Start message."
)

// Config carries the dependencies and tunables for a conversation client.
// Zero-valued fields take the package defaults.
type Config struct {
	// Backend is the assistant provider (required)
	Backend ports.Backend
	// Logger receives protocol-level logging; nil means no-op
	Logger *zap.Logger
	// AssistantName overrides the provider-side assistant name
	AssistantName string
	// Model overrides the provider model
	Model string
	// PollInterval overrides the run-status polling interval
	PollInterval time.Duration
	// TurnTimeout bounds how long one turn may poll before giving up
	TurnTimeout time.Duration
}

// Client owns one persistent conversation context with the backend. It is
// not safe for concurrent turns; the session actor serializes access by
// construction.
type Client struct {
	backend      ports.Backend
	logger       *zap.Logger
	assistantID  string
	threadID     string
	pollInterval time.Duration
	turnTimeout  time.Duration
}

// Establish provisions the assistant and opens the conversation thread
// reused for every subsequent turn of the session.
func Establish(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Backend == nil {
		return nil, questerrs.NewConnectionError(
			questerrs.ErrCodeConnectionFailed,
			"no backend configured",
			nil,
		)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.AssistantName
	if name == "" {
		name = DefaultAssistantName
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	turnTimeout := cfg.TurnTimeout
	if turnTimeout <= 0 {
		turnTimeout = DefaultTurnTimeout
	}

	instructions, err := assistantInstructions()
	if err != nil {
		return nil, questerrs.NewConnectionError(
			questerrs.ErrCodeAssistantProvision,
			"could not render command schema",
			err,
		)
	}

	spec := ports.AssistantSpec{
		Name:         name,
		Model:        model,
		Instructions: instructions,
		ResponseFormat: ports.ResponseFormat{
			Name:        responseFormatName,
			Description: responseFormatDescription,
			Schema:      schema.OutputSchema(),
		},
	}

	assistantID, err := cfg.Backend.EnsureAssistant(ctx, spec)
	if err != nil {
		return nil, questerrs.NewConnectionError(
			questerrs.ErrCodeAssistantProvision,
			"could not provision assistant",
			err,
		).WithAssistantName(name)
	}
	logger.Info("assistant ready",
		zap.String("assistant_id", assistantID),
		zap.String("model", model))

	threadID, err := cfg.Backend.CreateThread(ctx)
	if err != nil {
		return nil, questerrs.NewConnectionError(
			questerrs.ErrCodeThreadCreate,
			"could not create conversation thread",
			err,
		)
	}
	logger.Debug("thread created", zap.String("thread_id", threadID))

	return &Client{
		backend:      cfg.Backend,
		logger:       logger,
		assistantID:  assistantID,
		threadID:     threadID,
		pollInterval: pollInterval,
		turnTimeout:  turnTimeout,
	}, nil
}

// Turn submits one command and returns the backend's decoded output. It
// blocks through the full request/response cycle: append message, start
// run, poll to a terminal state, fetch and decode the response.
func (c *Client) Turn(ctx context.Context, cmd schema.Command) (schema.Output, error) {
	encoded, err := schema.EncodeCommand(cmd)
	if err != nil {
		return schema.Output{}, err
	}
	c.logger.Debug("sending command", zap.ByteString("command", encoded))

	if err := c.backend.AppendUserMessage(ctx, c.threadID, string(encoded)); err != nil {
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeSendFailed,
			"could not add message to thread",
			err,
		)
	}

	runID, err := c.backend.StartRun(ctx, c.threadID, c.assistantID)
	if err != nil {
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeSendFailed,
			"could not create run",
			err,
		)
	}

	if err := c.awaitRun(ctx, runID); err != nil {
		c.logger.Error("turn failed", zap.String("run_id", runID), zap.Error(err))

		return schema.Output{}, err
	}

	output, err := c.fetchOutput(ctx)
	if err != nil {
		c.logger.Error("turn failed", zap.String("run_id", runID), zap.Error(err))

		return schema.Output{}, err
	}

	return output, nil
}

// awaitRun polls the run on a fixed interval until it reaches a terminal
// state, bounded by the turn timeout.
func (c *Client) awaitRun(ctx context.Context, runID string) error {
	deadline := time.Now().Add(c.turnTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		state, err := c.backend.RunStatus(ctx, c.threadID, runID)
		if err != nil {
			return questerrs.NewTurnError(
				questerrs.ErrCodeSendFailed,
				"could not query run status",
				err,
			).WithRunID(runID)
		}

		switch {
		case state == ports.RunStateCompleted:
			return nil
		case state.Terminal():
			return questerrs.NewTurnError(
				questerrs.ErrCodeRunFailed,
				fmt.Sprintf("run ended in state %q", state),
				nil,
			).WithRunID(runID)
		}

		if time.Now().After(deadline) {
			return questerrs.NewTurnError(
				questerrs.ErrCodeRunTimeout,
				fmt.Sprintf("run still %q after %s", state, c.turnTimeout),
				nil,
			).WithRunID(runID)
		}

		select {
		case <-ctx.Done():
			return questerrs.NewTurnError(
				questerrs.ErrCodeSendFailed,
				"turn cancelled",
				ctx.Err(),
			).WithRunID(runID)
		case <-ticker.C:
		}
	}
}

// fetchOutput retrieves the newest thread message and decodes it against
// the output schema.
func (c *Client) fetchOutput(ctx context.Context) (schema.Output, error) {
	msg, err := c.backend.LatestMessage(ctx, c.threadID)
	if err != nil {
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeSendFailed,
			"could not retrieve response",
			err,
		)
	}
	if msg == nil || len(msg.Items) == 0 {
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeEmptyResponse,
			"no messages in response",
			nil,
		)
	}
	if len(msg.Items) != 1 {
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeUnexpectedContent,
			fmt.Sprintf("expected one content item, got %d", len(msg.Items)),
			nil,
		)
	}

	switch item := msg.Items[0].(type) {
	case ports.TextItem:
		c.logger.Debug("received response", zap.String("body", item.Text))
		output, err := schema.DecodeOutput([]byte(item.Text))
		if err != nil {
			return schema.Output{}, questerrs.NewTurnError(
				questerrs.ErrCodeMalformedOutput,
				"response does not match output schema",
				err,
			)
		}

		return output, nil
	case ports.RefusalItem:
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeRefused,
			"backend refused to answer",
			nil,
		).WithRefusal(item.Reason)
	case ports.ImageItem:
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeUnexpectedContent,
			"received image content",
			nil,
		)
	default:
		return schema.Output{}, questerrs.NewTurnError(
			questerrs.ErrCodeUnexpectedContent,
			fmt.Sprintf("unknown content item %T", item),
			nil,
		)
	}
}

// assistantInstructions renders the system prompt with the command schema
// document embedded, so the backend knows the exact structured-input
// contract.
func assistantInstructions() (string, error) {
	doc, err := schema.SchemaJSON(schema.CommandSchema())
	if err != nil {
		return "", err
	}

	return instructionsPreamble + doc + instructionsEpilogue, nil
}
