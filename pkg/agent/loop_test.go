package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/boardwalk/pkg/cleaner"
	"github.com/go-go-golems/boardwalk/pkg/engine"
	"github.com/go-go-golems/boardwalk/pkg/monday"
	"github.com/go-go-golems/boardwalk/pkg/tools"
	"github.com/go-go-golems/boardwalk/pkg/turns"
)

// scriptedEngine replays a fixed sequence of model behaviors, one per
// inference call.
type scriptedEngine struct {
	steps []func(ctx context.Context, t *turns.Turn) (*turns.Turn, error)
	calls int
}

func (e *scriptedEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	step := e.steps[len(e.steps)-1]
	if e.calls < len(e.steps) {
		step = e.steps[e.calls]
	}
	e.calls++
	return step(ctx, t)
}

func answerStep(text string) func(context.Context, *turns.Turn) (*turns.Turn, error) {
	return func(_ context.Context, t *turns.Turn) (*turns.Turn, error) {
		turns.AppendBlock(t, turns.NewAssistantTextBlock(text))
		return t, nil
	}
}

func toolCallStep(calls ...turns.Block) func(context.Context, *turns.Turn) (*turns.Turn, error) {
	return func(_ context.Context, t *turns.Turn) (*turns.Turn, error) {
		turns.AppendBlocks(t, calls...)
		return t, nil
	}
}

type fetchInput struct {
	Board  string `json:"board" jsonschema:"required"`
	Reason string `json:"reason,omitempty"`
}

func testRegistry(t *testing.T, executed *[]string) tools.ToolRegistry {
	t.Helper()
	registry := tools.NewInMemoryToolRegistry()
	def, err := tools.NewToolFromFunc("fetch_board", "fetch a board", func(in fetchInput) (map[string]any, error) {
		*executed = append(*executed, in.Board)
		if in.Board == "broken" {
			return nil, errors.New("board broken not accessible")
		}
		return map[string]any{"board": in.Board, "rows": 3}, nil
	})
	require.NoError(t, err)
	require.NoError(t, registry.RegisterTool("fetch_board", *def))
	return registry
}

func TestLoop_AnswersWithoutTools(t *testing.T) {
	var executed []string
	loop, err := NewLoop(
		WithEngine(&scriptedEngine{steps: []func(context.Context, *turns.Turn) (*turns.Turn, error){
			answerStep("The pipeline holds 12 open deals."),
		}}),
		WithRegistry(testRegistry(t, &executed)),
	)
	require.NoError(t, err)

	result := loop.Run(context.Background(), "how many open deals?")

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "The pipeline holds 12 open deals.", result.Answer)
	assert.Empty(t, result.ErrorKind)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceAnswer, result.Trace[0].Kind)
	assert.Empty(t, executed)
}

func TestLoop_ExecutesToolCallsInRequestOrder(t *testing.T) {
	var executed []string
	eng := &scriptedEngine{steps: []func(context.Context, *turns.Turn) (*turns.Turn, error){
		toolCallStep(
			turns.NewToolCallBlock("c1", "fetch_board", map[string]any{"board": "deals", "reason": "pipeline total"}),
			turns.NewToolCallBlock("c2", "fetch_board", map[string]any{"board": "workorders"}),
		),
		answerStep("Both boards analysed."),
	}}

	loop, err := NewLoop(WithEngine(eng), WithRegistry(testRegistry(t, &executed)))
	require.NoError(t, err)

	result := loop.Run(context.Background(), "compare both boards")

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, []string{"deals", "workorders"}, executed)
	assert.Equal(t, 2, eng.calls)

	// one call + one result entry per invocation, then the answer
	require.Len(t, result.Trace, 5)
	assert.Equal(t, TraceToolCall, result.Trace[0].Kind)
	assert.Equal(t, "pipeline total", result.Trace[0].Summary)
	assert.Equal(t, TraceToolResult, result.Trace[1].Kind)
	assert.Equal(t, TraceToolCall, result.Trace[2].Kind)
	assert.Equal(t, TraceToolResult, result.Trace[3].Kind)
	assert.Equal(t, TraceAnswer, result.Trace[4].Kind)
	for i, entry := range result.Trace {
		assert.Equal(t, i, entry.Ordinal)
	}
}

func TestLoop_ToolErrorIsAbsorbedNotFatal(t *testing.T) {
	var executed []string
	eng := &scriptedEngine{steps: []func(context.Context, *turns.Turn) (*turns.Turn, error){
		toolCallStep(turns.NewToolCallBlock("c1", "fetch_board", map[string]any{"board": "broken"})),
		answerStep("Could not fetch data: board broken not accessible."),
	}}

	loop, err := NewLoop(WithEngine(eng), WithRegistry(testRegistry(t, &executed)))
	require.NoError(t, err)

	result := loop.Run(context.Background(), "analyse the broken board")

	assert.Equal(t, StateDone, result.State)
	require.Len(t, result.Trace, 3)
	assert.Equal(t, TraceToolError, result.Trace[1].Kind)
	assert.Contains(t, result.Trace[1].Summary, "not accessible")
}

func TestLoop_TurnLimit(t *testing.T) {
	var executed []string
	call := 0
	eng := &scriptedEngine{steps: []func(context.Context, *turns.Turn) (*turns.Turn, error){
		func(_ context.Context, tr *turns.Turn) (*turns.Turn, error) {
			call++
			// fresh id each turn so there is always a pending call
			turns.AppendBlock(tr, turns.NewToolCallBlock(
				fmt.Sprintf("c-%d", call),
				"fetch_board", map[string]any{"board": "deals"},
			))
			return tr, nil
		},
	}}

	loop, err := NewLoop(
		WithEngine(eng),
		WithRegistry(testRegistry(t, &executed)),
		WithConfig(LoopConfig{MaxTurns: 3}),
	)
	require.NoError(t, err)

	result := loop.Run(context.Background(), "never finishes")

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ErrorKindTurnLimit, result.ErrorKind)
	assert.Equal(t, 3, eng.calls)
	assert.Len(t, executed, 3)
	assert.NotEmpty(t, result.Message)
}

func TestLoop_TimeoutReturnsPartialTrace(t *testing.T) {
	var executed []string
	eng := &scriptedEngine{steps: []func(context.Context, *turns.Turn) (*turns.Turn, error){
		toolCallStep(turns.NewToolCallBlock("c1", "fetch_board", map[string]any{"board": "deals"})),
		func(ctx context.Context, _ *turns.Turn) (*turns.Turn, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}}

	loop, err := NewLoop(
		WithEngine(eng),
		WithRegistry(testRegistry(t, &executed)),
		WithConfig(LoopConfig{Timeout: 50 * time.Millisecond}),
	)
	require.NoError(t, err)

	result := loop.Run(context.Background(), "slow query")

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ErrorKindTimeout, result.ErrorKind)
	// the tool work done before the deadline is still visible
	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceToolCall, result.Trace[0].Kind)
	assert.Equal(t, TraceToolResult, result.Trace[1].Kind)
}

func TestLoop_AuthenticationFailureClassified(t *testing.T) {
	var executed []string
	eng := &scriptedEngine{steps: []func(context.Context, *turns.Turn) (*turns.Turn, error){
		func(context.Context, *turns.Turn) (*turns.Turn, error) {
			return nil, errors.Wrap(engine.ErrAuthentication, "groq returned 401")
		},
	}}

	loop, err := NewLoop(WithEngine(eng), WithRegistry(testRegistry(t, &executed)))
	require.NoError(t, err)

	result := loop.Run(context.Background(), "anything")
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ErrorKindAuthentication, result.ErrorKind)
	assert.Contains(t, result.Message, "401")
}

func TestLoop_QualitySourceAttached(t *testing.T) {
	var executed []string
	report := &cleaner.Report{Board: "deals", Rows: 10}

	loop, err := NewLoop(
		WithEngine(&scriptedEngine{steps: []func(context.Context, *turns.Turn) (*turns.Turn, error){
			answerStep("done"),
		}}),
		WithRegistry(testRegistry(t, &executed)),
		WithQualitySource(func() []*cleaner.Report { return []*cleaner.Report{report} }),
	)
	require.NoError(t, err)

	result := loop.Run(context.Background(), "q")
	require.Len(t, result.Quality, 1)
	assert.Equal(t, "deals", result.Quality[0].Board)
}

func TestNewLoop_RequiresEngineAndRegistry(t *testing.T) {
	_, err := NewLoop()
	assert.Error(t, err)

	_, err = NewLoop(WithEngine(&scriptedEngine{}))
	assert.Error(t, err)
}

func TestClip_KeepsValidUTF8(t *testing.T) {
	// ₹ is three bytes; the cut point lands mid-rune unless clip backs up
	s := strings.Repeat("₹", 150)
	out := clip(s, 301)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "…"))

	assert.Equal(t, "short", clip("short", 300))
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorKindTimeout, classifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorKindAuthentication, classifyError(errors.Wrap(monday.ErrAuthentication, "x")))
	assert.Equal(t, ErrorKindModelProtocol, classifyError(errors.Wrap(engine.ErrModelProtocol, "no choices")))
	assert.Equal(t, ErrorKindPaginationExhausted, classifyError(&monday.PaginationExhaustedError{Board: "1", Pages: 500}))
	assert.Equal(t, ErrorKindTransientAPI, classifyError(errors.New("connection reset")))
}
