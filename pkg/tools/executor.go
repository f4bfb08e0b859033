package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/boardwalk/pkg/events"
)

// ToolExecutor handles the execution of tool calls requested by the model.
type ToolExecutor interface {
	ExecuteToolCall(ctx context.Context, toolCall ToolCall, registry ToolRegistry) *ToolResult
	ExecuteToolCalls(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry) []*ToolResult
}

// ToolConfig controls tool execution behavior.
type ToolConfig struct {
	// ExecutionTimeout bounds a single tool invocation. Zero means no bound
	// beyond the caller's context.
	ExecutionTimeout time.Duration
}

func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		ExecutionTimeout: 60 * time.Second,
	}
}

// DefaultToolExecutor is the default implementation of ToolExecutor. Calls
// within one model turn are executed strictly in request order; the model
// correlates results to calls by position and identifier.
type DefaultToolExecutor struct {
	config ToolConfig
}

// NewDefaultToolExecutor creates a new DefaultToolExecutor.
func NewDefaultToolExecutor(config ToolConfig) *DefaultToolExecutor {
	return &DefaultToolExecutor{config: config}
}

// ExecuteToolCalls executes the calls sequentially, preserving request order.
// Every call produces exactly one result; failures become tool-error results,
// never process failures.
func (e *DefaultToolExecutor) ExecuteToolCalls(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry) []*ToolResult {
	results := make([]*ToolResult, len(toolCalls))
	for i, toolCall := range toolCalls {
		results[i] = e.ExecuteToolCall(ctx, toolCall, registry)
	}
	return results
}

// ExecuteToolCall resolves, validates and executes a single tool call.
func (e *DefaultToolExecutor) ExecuteToolCall(ctx context.Context, toolCall ToolCall, registry ToolRegistry) *ToolResult {
	log.Debug().Str("tool", toolCall.Name).Str("tool_call_id", toolCall.ID).Msg("executing tool call")

	events.PublishEventToContext(ctx, events.NewToolCallExecuteEvent(
		events.EventMetadata{},
		events.ToolCall{ID: toolCall.ID, Name: toolCall.Name, Input: compactJSON(toolCall.Arguments)},
	))

	result := e.execute(ctx, toolCall, registry)

	resultStr := ""
	if result.Result != nil {
		if b, err := json.Marshal(result.Result); err == nil {
			resultStr = string(b)
		} else {
			resultStr = fmt.Sprintf("%v", result.Result)
		}
	}
	events.PublishEventToContext(ctx, events.NewToolCallExecutionResultEvent(
		events.EventMetadata{},
		events.ToolResult{ID: toolCall.ID, Result: resultStr, Error: result.Error},
	))

	return result
}

func (e *DefaultToolExecutor) execute(ctx context.Context, toolCall ToolCall, registry ToolRegistry) *ToolResult {
	toolDef, err := registry.GetTool(toolCall.Name)
	if err != nil {
		return &ToolResult{
			ID:        toolCall.ID,
			Error:     fmt.Sprintf("tool not found: %s", toolCall.Name),
			ErrorKind: ErrorKindNotFound,
		}
	}

	if err := toolDef.ValidateArguments(toolCall.Arguments); err != nil {
		log.Debug().Err(err).Str("tool", toolCall.Name).Msg("tool arguments failed schema validation")
		return &ToolResult{
			ID:        toolCall.ID,
			Error:     err.Error(),
			ErrorKind: ErrorKindValidation,
		}
	}

	execCtx := ctx
	if e.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.config.ExecutionTimeout)
		defer cancel()
	}

	result, err := toolDef.Execute(execCtx, toolCall.Arguments)
	if err != nil {
		kind := ErrorKindExecution
		if execCtx.Err() != nil {
			kind = ErrorKindTimeout
		}
		return &ToolResult{
			ID:        toolCall.ID,
			Error:     err.Error(),
			ErrorKind: kind,
		}
	}

	return &ToolResult{ID: toolCall.ID, Result: result}
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var tmp any
	if err := json.Unmarshal(raw, &tmp); err != nil {
		return string(raw)
	}
	if b, err := json.Marshal(tmp); err == nil {
		return string(b)
	}
	return string(raw)
}

var _ ToolExecutor = (*DefaultToolExecutor)(nil)
