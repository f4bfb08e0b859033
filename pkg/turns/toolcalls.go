package turns

import "encoding/json"

// PendingToolCall is a tool invocation requested by the model that has not
// been resolved with a tool_use block yet.
type PendingToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ExtractPendingToolCalls finds tool_call blocks that don't yet have a
// matching tool_use block, in block order. The model correlates results to
// calls by position and id, so this ordering must be preserved downstream.
func ExtractPendingToolCalls(t *Turn) []PendingToolCall {
	if t == nil {
		return nil
	}
	used := make(map[string]bool)
	for _, b := range t.Blocks {
		if b.Kind == BlockKindToolUse {
			if id, ok := b.Payload[PayloadKeyID].(string); ok && id != "" {
				used[id] = true
			}
		}
	}
	var calls []PendingToolCall
	for _, b := range t.Blocks {
		if b.Kind != BlockKindToolCall {
			continue
		}
		id, _ := b.Payload[PayloadKeyID].(string)
		if id == "" || used[id] {
			continue
		}
		name, _ := b.Payload[PayloadKeyName].(string)
		var args map[string]any
		if raw := b.Payload[PayloadKeyArgs]; raw != nil {
			switch v := raw.(type) {
			case map[string]any:
				args = v
			case string:
				_ = json.Unmarshal([]byte(v), &args)
			case json.RawMessage:
				_ = json.Unmarshal(v, &args)
			default:
				if bts, err := json.Marshal(v); err == nil {
					_ = json.Unmarshal(bts, &args)
				}
			}
		}
		if args == nil {
			args = map[string]any{}
		}
		calls = append(calls, PendingToolCall{ID: id, Name: name, Arguments: args})
	}
	return calls
}
