package openai

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/boardwalk/pkg/tools"
	"github.com/go-go-golems/boardwalk/pkg/turns"
)

// ToolsFromRegistry converts registered tool definitions into OpenAI tool
// declarations, preserving registration order.
func ToolsFromRegistry(reg tools.ToolRegistry) []go_openai.Tool {
	if reg == nil {
		return nil
	}
	var out []go_openai.Tool
	for _, td := range reg.ListTools() {
		out = append(out, go_openai.Tool{
			Type: go_openai.ToolTypeFunction,
			Function: go_openai.FunctionDefinition{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  td.Parameters,
			},
		})
	}
	return out
}

// MessagesFromTurn converts Turn blocks into OpenAI chat messages.
//
// Assistant text followed by tool_call blocks is merged into a single
// assistant message carrying tool_calls, and tool_use blocks become role:tool
// messages keyed by tool_call_id, preserving the adjacency the API requires.
func MessagesFromTurn(t *turns.Turn) ([]go_openai.ChatCompletionMessage, error) {
	var msgs []go_openai.ChatCompletionMessage

	var pending *go_openai.ChatCompletionMessage
	flush := func() {
		if pending != nil {
			msgs = append(msgs, *pending)
			pending = nil
		}
	}

	for _, b := range t.Blocks {
		switch b.Kind {
		case turns.BlockKindSystem:
			flush()
			msgs = append(msgs, go_openai.ChatCompletionMessage{
				Role:    go_openai.ChatMessageRoleSystem,
				Content: payloadText(b),
			})

		case turns.BlockKindUser:
			flush()
			msgs = append(msgs, go_openai.ChatCompletionMessage{
				Role:    go_openai.ChatMessageRoleUser,
				Content: payloadText(b),
			})

		case turns.BlockKindLLMText:
			flush()
			pending = &go_openai.ChatCompletionMessage{
				Role:    go_openai.ChatMessageRoleAssistant,
				Content: payloadText(b),
			}

		case turns.BlockKindToolCall:
			id, _ := b.Payload[turns.PayloadKeyID].(string)
			name, _ := b.Payload[turns.PayloadKeyName].(string)
			if id == "" || name == "" {
				return nil, errors.Errorf("tool_call block missing id or name (id=%q name=%q)", id, name)
			}
			if pending == nil {
				pending = &go_openai.ChatCompletionMessage{Role: go_openai.ChatMessageRoleAssistant}
			}
			pending.ToolCalls = append(pending.ToolCalls, go_openai.ToolCall{
				ID:   id,
				Type: go_openai.ToolTypeFunction,
				Function: go_openai.FunctionCall{
					Name:      name,
					Arguments: anyToJSONString(b.Payload[turns.PayloadKeyArgs]),
				},
			})

		case turns.BlockKindToolUse:
			flush()
			id, _ := b.Payload[turns.PayloadKeyID].(string)
			if id == "" {
				return nil, errors.New("tool_use block missing tool_call id")
			}
			msgs = append(msgs, go_openai.ChatCompletionMessage{
				Role:       go_openai.ChatMessageRoleTool,
				ToolCallID: id,
				Content:    toolUsePayloadToJSONString(b.Payload),
			})

		default:
			return nil, errors.Errorf("unsupported block kind %q", b.Kind)
		}
	}
	flush()

	return msgs, nil
}

func payloadText(b turns.Block) string {
	if s, ok := b.Payload[turns.PayloadKeyText].(string); ok {
		return s
	}
	return ""
}

func toolUsePayloadToJSONString(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	resultVal := payload[turns.PayloadKeyResult]
	errStr, _ := payload[turns.PayloadKeyError].(string)
	if errStr == "" {
		return anyToJSONString(resultVal)
	}

	out := map[string]any{"error": errStr}
	if resultVal != nil {
		out["result"] = resultVal
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, errStr)
	}
	return string(b)
}

func anyToJSONString(v any) string {
	if v == nil {
		return "{}"
	}
	switch tv := v.(type) {
	case string:
		return tv
	case []byte:
		return string(tv)
	default:
		if bb, err := json.Marshal(v); err == nil {
			return string(bb)
		}
		return fmt.Sprintf("%v", v)
	}
}
