package openai

import (
	"testing"

	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/boardwalk/pkg/tools"
	"github.com/go-go-golems/boardwalk/pkg/turns"
)

func TestMessagesFromTurn_BasicConversation(t *testing.T) {
	turn := turns.NewTurnBuilder().
		WithSystemPrompt("You are a BI analyst.").
		WithUserPrompt("What is the open pipeline value?").
		Build()

	msgs, err := MessagesFromTurn(turn)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, go_openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, "You are a BI analyst.", msgs[0].Content)
	assert.Equal(t, go_openai.ChatMessageRoleUser, msgs[1].Role)
}

func TestMessagesFromTurn_MergesToolCallsIntoAssistantMessage(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewUserTextBlock("compare both boards"))
	turns.AppendBlock(turn, turns.NewAssistantTextBlock("Fetching data."))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-1", "get_board_items", map[string]any{"board": "deals"}))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-2", "get_board_items", map[string]any{"board": "workorders"}))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call-1", `{"total_rows":10}`))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call-2", `{"total_rows":4}`))

	msgs, err := MessagesFromTurn(turn)
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assistant := msgs[1]
	assert.Equal(t, go_openai.ChatMessageRoleAssistant, assistant.Role)
	assert.Equal(t, "Fetching data.", assistant.Content)
	require.Len(t, assistant.ToolCalls, 2)
	assert.Equal(t, "call-1", assistant.ToolCalls[0].ID)
	assert.Equal(t, "call-2", assistant.ToolCalls[1].ID)
	assert.JSONEq(t, `{"board":"deals"}`, assistant.ToolCalls[0].Function.Arguments)

	assert.Equal(t, go_openai.ChatMessageRoleTool, msgs[2].Role)
	assert.Equal(t, "call-1", msgs[2].ToolCallID)
	assert.Equal(t, go_openai.ChatMessageRoleTool, msgs[3].Role)
	assert.Equal(t, "call-2", msgs[3].ToolCallID)
}

func TestMessagesFromTurn_ToolCallWithoutAssistantText(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewUserTextBlock("question"))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-1", "get_board_columns", map[string]any{"board": "deals"}))

	msgs, err := MessagesFromTurn(turn)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, go_openai.ChatMessageRoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].ToolCalls, 1)
}

func TestMessagesFromTurn_ToolErrorBecomesErrorPayload(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-1", "get_board_items", map[string]any{"board": "deals"}))
	turns.AppendBlock(turn, turns.NewToolErrorBlock("call-1", "board 123 not accessible"))

	msgs, err := MessagesFromTurn(turn)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.JSONEq(t, `{"error":"board 123 not accessible"}`, msgs[1].Content)
}

func TestMessagesFromTurn_RejectsMalformedBlocks(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.Block{Kind: turns.BlockKindToolCall, Payload: map[string]any{}})
	_, err := MessagesFromTurn(turn)
	assert.Error(t, err)
}

func TestToolsFromRegistry(t *testing.T) {
	type boardInput struct {
		Board string `json:"board" jsonschema:"required"`
	}
	registry := tools.NewInMemoryToolRegistry()
	def, err := tools.NewToolFromFunc("get_board_items", "fetch all items", func(in boardInput) (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	require.NoError(t, registry.RegisterTool("get_board_items", *def))

	decls := ToolsFromRegistry(registry)
	require.Len(t, decls, 1)
	assert.Equal(t, go_openai.ToolTypeFunction, decls[0].Type)
	assert.Equal(t, "get_board_items", decls[0].Function.Name)
	assert.Equal(t, "fetch all items", decls[0].Function.Description)
	assert.NotNil(t, decls[0].Function.Parameters)

	assert.Nil(t, ToolsFromRegistry(nil))
}

func TestNewOpenAIEngine_FailsFastWithoutKey(t *testing.T) {
	_, err := NewOpenAIEngine(Settings{})
	require.Error(t, err)
}
