// Package openai adapts the ports.Backend contract to the OpenAI
// Assistants API. It is the only package that knows about the provider
// SDK; everything above it speaks in ports types.
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/bitstr0m/micro-quest/pkg/quest/ports"
	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

// EnvAPIKey is the environment variable consulted when no explicit key
// is configured.
const EnvAPIKey = "OPENAI_API_KEY"

// Config configures the OpenAI backend adapter.
type Config struct {
	// APIKey is the backend credential. Empty falls back to EnvAPIKey.
	APIKey string
	// BaseURL optionally overrides the API endpoint.
	BaseURL string
}

// Adapter implements ports.Backend against the OpenAI Assistants API.
type Adapter struct {
	client sdk.Client
}

// NewAdapter creates an adapter from the given config. A missing
// credential is a fatal connection error.
func NewAdapter(cfg Config) (*Adapter, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	if key == "" {
		return nil, questerrs.NewConnectionError(
			questerrs.ErrCodeMissingAPIKey,
			fmt.Sprintf("no API key configured and %s is unset", EnvAPIKey),
			nil,
		)
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Adapter{client: sdk.NewClient(opts...)}, nil
}

// EnsureAssistant finds the named assistant, updating it in place when
// its instructions have drifted, or creates it when absent.
func (a *Adapter) EnsureAssistant(ctx context.Context, spec ports.AssistantSpec) (string, error) {
	page, err := a.client.Beta.Assistants.List(ctx, sdk.BetaAssistantListParams{})
	if err != nil {
		return "", fmt.Errorf("list assistants: %w", err)
	}

	for _, assistant := range page.Data {
		if assistant.Name != spec.Name {
			continue
		}
		if assistant.Instructions != spec.Instructions {
			_, err := a.client.Beta.Assistants.Update(ctx, assistant.ID, sdk.BetaAssistantUpdateParams{
				Name:           sdk.String(spec.Name),
				Model:          sdk.BetaAssistantUpdateParamsModel(spec.Model),
				Instructions:   sdk.String(spec.Instructions),
				ResponseFormat: responseFormat(spec.ResponseFormat),
			})
			if err != nil {
				return "", fmt.Errorf("update assistant %s: %w", assistant.ID, err)
			}
		}

		return assistant.ID, nil
	}

	assistant, err := a.client.Beta.Assistants.New(ctx, sdk.BetaAssistantNewParams{
		Model:          shared.ChatModel(spec.Model),
		Name:           sdk.String(spec.Name),
		Instructions:   sdk.String(spec.Instructions),
		ResponseFormat: responseFormat(spec.ResponseFormat),
	})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}

	return assistant.ID, nil
}

// CreateThread opens a new conversation thread.
func (a *Adapter) CreateThread(ctx context.Context) (string, error) {
	thread, err := a.client.Beta.Threads.New(ctx, sdk.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	return thread.ID, nil
}

// AppendUserMessage appends a user-role message to the thread.
func (a *Adapter) AppendUserMessage(ctx context.Context, threadID, content string) error {
	_, err := a.client.Beta.Threads.Messages.New(ctx, threadID, sdk.BetaThreadMessageNewParams{
		Role: sdk.BetaThreadMessageNewParamsRoleUser,
		Content: sdk.BetaThreadMessageNewParamsContentUnion{
			OfString: sdk.String(content),
		},
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	return nil
}

// StartRun starts an asynchronous run against the thread.
func (a *Adapter) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	run, err := a.client.Beta.Threads.Runs.New(ctx, threadID, sdk.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	return run.ID, nil
}

// RunStatus reports the run's current lifecycle state.
func (a *Adapter) RunStatus(ctx context.Context, threadID, runID string) (ports.RunState, error) {
	run, err := a.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return "", fmt.Errorf("retrieve run: %w", err)
	}

	return runState(run.Status), nil
}

// LatestMessage fetches the newest message in the thread.
func (a *Adapter) LatestMessage(ctx context.Context, threadID string) (*ports.Message, error) {
	page, err := a.client.Beta.Threads.Messages.List(ctx, threadID, sdk.BetaThreadMessageListParams{
		Limit: sdk.Int(1),
		Order: sdk.BetaThreadMessageListParamsOrderDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(page.Data) == 0 {
		return nil, nil
	}

	raw := page.Data[0]
	msg := &ports.Message{ID: raw.ID}
	for _, item := range raw.Content {
		converted, err := contentItem(item)
		if err != nil {
			return nil, err
		}
		msg.Items = append(msg.Items, converted)
	}

	return msg, nil
}

func responseFormat(rf ports.ResponseFormat) sdk.AssistantResponseFormatOptionUnionParam {
	return sdk.AssistantResponseFormatOptionUnionParam{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        rf.Name,
				Description: sdk.String(rf.Description),
				Schema:      rf.Schema,
				Strict:      sdk.Bool(false),
			},
		},
	}
}

func runState(status sdk.RunStatus) ports.RunState {
	switch status {
	case sdk.RunStatusCompleted:
		return ports.RunStateCompleted
	case sdk.RunStatusFailed:
		return ports.RunStateFailed
	case sdk.RunStatusCancelled:
		return ports.RunStateCancelled
	case sdk.RunStatusExpired:
		return ports.RunStateExpired
	case sdk.RunStatusIncomplete:
		return ports.RunStateIncomplete
	case sdk.RunStatusRequiresAction:
		return ports.RunStateRequiresAction
	case sdk.RunStatusQueued:
		return ports.RunStateQueued
	default:
		// queued, in_progress, cancelling and any future
		// non-terminal status keep the poll loop going.
		return ports.RunStateInProgress
	}
}

func contentItem(item sdk.MessageContentUnion) (ports.ContentItem, error) {
	switch item.Type {
	case "text":
		return ports.TextItem{Text: item.Text.Value}, nil
	case "refusal":
		return ports.RefusalItem{Reason: item.Refusal}, nil
	case "image_file", "image_url":
		return ports.ImageItem{}, nil
	default:
		return nil, fmt.Errorf("unsupported content type %q", item.Type)
	}
}
