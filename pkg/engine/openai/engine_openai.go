package openai

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/boardwalk/pkg/engine"
	"github.com/go-go-golems/boardwalk/pkg/events"
	"github.com/go-go-golems/boardwalk/pkg/tools"
	"github.com/go-go-golems/boardwalk/pkg/turns"
)

// Settings configures the OpenAI-compatible chat backend. Groq exposes the
// same wire protocol, so pointing BaseURL at api.groq.com/openai/v1 with a
// Groq key is the default deployment.
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

func DefaultSettings() Settings {
	return Settings{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: 0.2,
		MaxTokens:   4096,
	}
}

// OpenAIEngine implements engine.Engine over the OpenAI chat completion API.
type OpenAIEngine struct {
	settings Settings
	config   *engine.Config
	client   *go_openai.Client
}

// NewOpenAIEngine creates a new engine. The credential is supplied by the
// caller and validated before any request is issued.
func NewOpenAIEngine(settings Settings, options ...engine.Option) (*OpenAIEngine, error) {
	if settings.APIKey == "" {
		return nil, errors.Wrap(engine.ErrAuthentication, "no API key configured")
	}
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}

	config := engine.NewConfig()
	if err := engine.ApplyOptions(config, options...); err != nil {
		return nil, err
	}

	clientConfig := go_openai.DefaultConfig(settings.APIKey)
	clientConfig.BaseURL = settings.BaseURL

	return &OpenAIEngine{
		settings: settings,
		config:   config,
		client:   go_openai.NewClientWithConfig(clientConfig),
	}, nil
}

// RunInference sends the Turn's blocks as a chat completion request and
// appends the model's response blocks.
func (e *OpenAIEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	if t == nil {
		t = &turns.Turn{}
	}
	log.Debug().Int("num_blocks", len(t.Blocks)).Str("model", e.settings.Model).Msg("OpenAI RunInference started")

	msgs, err := MessagesFromTurn(t)
	if err != nil {
		return nil, err
	}

	req := go_openai.ChatCompletionRequest{
		Model:       e.settings.Model,
		Messages:    msgs,
		Temperature: e.settings.Temperature,
		MaxTokens:   e.settings.MaxTokens,
	}

	if openaiTools := ToolsFromRegistry(registryFromTurn(t)); len(openaiTools) > 0 {
		req.Tools = openaiTools
		req.ToolChoice = "auto"
		log.Debug().Int("tool_count", len(openaiTools)).Msg("adding tool declarations to request")
	}

	queryID, _ := t.Data[turns.DataKeyQueryID].(string)
	metadata := events.EventMetadata{ID: uuid.New(), QueryID: queryID, TurnID: t.ID}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		e.publishEvent(ctx, events.NewErrorEvent(metadata, err))
		return nil, classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		err := errors.Wrap(engine.ErrModelProtocol, "response contained no choices")
		e.publishEvent(ctx, events.NewErrorEvent(metadata, err))
		return nil, err
	}

	choice := resp.Choices[0]
	log.Debug().
		Str("finish_reason", string(choice.FinishReason)).
		Int("tool_call_count", len(choice.Message.ToolCalls)).
		Int("text_length", len(choice.Message.Content)).
		Msg("OpenAI inference complete")

	if choice.Message.Content != "" {
		turns.AppendBlock(t, turns.NewAssistantTextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		var args any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			// Keep the raw string; argument validation downstream will
			// surface a structured tool error the model can react to.
			args = tc.Function.Arguments
		}
		turns.AppendBlock(t, turns.NewToolCallBlock(tc.ID, tc.Function.Name, args))
	}

	if choice.Message.Content == "" && len(choice.Message.ToolCalls) == 0 {
		err := errors.Wrap(engine.ErrModelProtocol, "response carried neither text nor tool calls")
		e.publishEvent(ctx, events.NewErrorEvent(metadata, err))
		return nil, err
	}

	e.publishEvent(ctx, events.NewFinalEvent(metadata, choice.Message.Content))
	return t, nil
}

// classifyAPIError maps provider transport errors onto engine sentinel errors.
func classifyAPIError(err error) error {
	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return errors.Wrap(engine.ErrAuthentication, apiErr.Message)
		}
	}
	return err
}

func registryFromTurn(t *turns.Turn) tools.ToolRegistry {
	if t == nil || t.Data == nil {
		return nil
	}
	if reg, ok := t.Data[turns.DataKeyToolRegistry].(tools.ToolRegistry); ok {
		return reg
	}
	return nil
}

// publishEvent publishes an event to configured sinks and any sinks carried
// in context.
func (e *OpenAIEngine) publishEvent(ctx context.Context, event events.Event) {
	for _, sink := range e.config.EventSinks {
		if err := sink.PublishEvent(event); err != nil {
			log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("failed to publish event to sink")
		}
	}
	events.PublishEventToContext(ctx, event)
}

var _ engine.Engine = (*OpenAIEngine)(nil)
