package turns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPendingToolCalls_PreservesRequestOrder(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewUserTextBlock("question"))
	AppendBlock(turn, NewToolCallBlock("call-1", "get_board_items", map[string]any{"board": "deals"}))
	AppendBlock(turn, NewToolCallBlock("call-2", "get_board_items", map[string]any{"board": "workorders"}))

	calls := ExtractPendingToolCalls(turn)
	require.Len(t, calls, 2)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "call-2", calls[1].ID)
	assert.Equal(t, "deals", calls[0].Arguments["board"])
}

func TestExtractPendingToolCalls_SkipsResolvedCalls(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewToolCallBlock("call-1", "get_board_columns", map[string]any{"board": "deals"}))
	AppendBlock(turn, NewToolUseBlock("call-1", `{"columns":[]}`))
	AppendBlock(turn, NewToolCallBlock("call-2", "get_board_items", map[string]any{"board": "deals"}))

	calls := ExtractPendingToolCalls(turn)
	require.Len(t, calls, 1)
	assert.Equal(t, "call-2", calls[0].ID)
}

func TestExtractPendingToolCalls_ParsesStringArguments(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewToolCallBlock("call-1", "get_board_items", `{"board":"deals","reason":"pipeline"}`))

	calls := ExtractPendingToolCalls(turn)
	require.Len(t, calls, 1)
	assert.Equal(t, "deals", calls[0].Arguments["board"])
	assert.Equal(t, "pipeline", calls[0].Arguments["reason"])
}

func TestClone_DoesNotAliasPayloads(t *testing.T) {
	turn := NewTurnBuilder().
		WithSystemPrompt("system").
		WithUserPrompt("user").
		Build()

	cp := turn.Clone()
	cp.Blocks[0].Payload[PayloadKeyText] = "mutated"

	assert.Equal(t, "system", turn.Blocks[0].Payload[PayloadKeyText])
	assert.Equal(t, "mutated", cp.Blocks[0].Payload[PayloadKeyText])
}

func TestLastAssistantText(t *testing.T) {
	turn := &Turn{}
	assert.Equal(t, "", LastAssistantText(turn))

	AppendBlock(turn, NewAssistantTextBlock("first"))
	AppendBlock(turn, NewToolCallBlock("call-1", "get_board_items", nil))
	AppendBlock(turn, NewAssistantTextBlock("final answer"))
	assert.Equal(t, "final answer", LastAssistantText(turn))
}
