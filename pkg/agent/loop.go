package agent

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/boardwalk/pkg/cleaner"
	"github.com/go-go-golems/boardwalk/pkg/engine"
	"github.com/go-go-golems/boardwalk/pkg/events"
	"github.com/go-go-golems/boardwalk/pkg/monday"
	"github.com/go-go-golems/boardwalk/pkg/tools"
	"github.com/go-go-golems/boardwalk/pkg/turns"
)

// DefaultMaxTurns bounds the number of inference calls per query so a model
// that keeps requesting tools cannot loop forever.
const DefaultMaxTurns = 8

// LoopConfig carries the per-query budgets of the agent loop.
type LoopConfig struct {
	MaxTurns     int
	Timeout      time.Duration
	SystemPrompt string
}

// Loop drives one query through the model ⇄ tools cycle until an answer,
// a failure, or a budget limit.
type Loop struct {
	engine   engine.Engine
	registry tools.ToolRegistry
	executor tools.ToolExecutor
	cfg      LoopConfig
	quality  func() []*cleaner.Report
}

type Option func(*Loop)

func WithEngine(e engine.Engine) Option {
	return func(l *Loop) { l.engine = e }
}

func WithRegistry(r tools.ToolRegistry) Option {
	return func(l *Loop) { l.registry = r }
}

func WithExecutor(e tools.ToolExecutor) Option {
	return func(l *Loop) { l.executor = e }
}

func WithConfig(cfg LoopConfig) Option {
	return func(l *Loop) { l.cfg = cfg }
}

// WithQualitySource attaches a provider of cleaning reports, consulted once
// when the loop terminates.
func WithQualitySource(fn func() []*cleaner.Report) Option {
	return func(l *Loop) { l.quality = fn }
}

func NewLoop(opts ...Option) (*Loop, error) {
	l := &Loop{
		cfg: LoopConfig{MaxTurns: DefaultMaxTurns, SystemPrompt: DefaultSystemPrompt},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.engine == nil {
		return nil, errors.New("agent loop requires an inference engine")
	}
	if l.registry == nil {
		return nil, errors.New("agent loop requires a tool registry")
	}
	if l.executor == nil {
		l.executor = tools.NewDefaultToolExecutor(tools.DefaultToolConfig())
	}
	if l.cfg.MaxTurns <= 0 {
		l.cfg.MaxTurns = DefaultMaxTurns
	}
	if l.cfg.SystemPrompt == "" {
		l.cfg.SystemPrompt = DefaultSystemPrompt
	}
	return l, nil
}

// Run executes one query. It never returns an error: every failure mode is
// folded into the Result with a stable ErrorKind and whatever trace was
// accumulated before the failure.
func (l *Loop) Run(ctx context.Context, question string) *Result {
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	queryID := uuid.New().String()
	meta := events.EventMetadata{ID: uuid.New(), QueryID: queryID}
	events.PublishEventToContext(ctx, events.NewStartEvent(meta, question))

	t := turns.NewTurnBuilder().
		WithSystemPrompt(l.cfg.SystemPrompt).
		WithUserPrompt(question).
		Build()
	t.Data[turns.DataKeyToolRegistry] = l.registry
	t.Data[turns.DataKeyQueryID] = queryID

	run := &runState{queryID: queryID}

	for turnCount := 0; turnCount < l.cfg.MaxTurns; turnCount++ {
		if ctx.Err() != nil {
			return l.fail(ctx, run, ctx.Err())
		}

		updated, err := l.engine.RunInference(ctx, t)
		if err != nil {
			return l.fail(ctx, run, err)
		}
		t = updated

		pending := turns.ExtractPendingToolCalls(t)
		if len(pending) == 0 {
			answer := turns.LastAssistantText(t)
			run.append(TraceEntry{Kind: TraceAnswer, Summary: clip(answer, 300)})
			events.PublishEventToContext(ctx, events.NewFinalEvent(meta, answer))
			return &Result{
				Answer:  answer,
				State:   StateDone,
				Trace:   run.trace,
				Quality: l.qualityReports(),
			}
		}

		for _, call := range pending {
			run.append(TraceEntry{
				Kind:      TraceToolCall,
				Tool:      call.Name,
				Arguments: call.Arguments,
				Summary:   argsReason(call.Arguments),
			})

			args, err := json.Marshal(call.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			result := l.executor.ExecuteToolCall(ctx, tools.ToolCall{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: args,
			}, l.registry)

			if result.Error != "" {
				log.Warn().Str("tool", call.Name).Str("kind", string(result.ErrorKind)).Str("error", result.Error).Msg("tool call failed")
				run.append(TraceEntry{Kind: TraceToolError, Tool: call.Name, Summary: result.Error})
				turns.AppendBlock(t, turns.NewToolErrorBlock(call.ID, result.Error))
				continue
			}

			run.append(TraceEntry{Kind: TraceToolResult, Tool: call.Name, Summary: resultSummary(result.Result)})
			turns.AppendBlock(t, turns.NewToolUseBlock(call.ID, result.Result))
		}
	}

	events.PublishEventToContext(ctx, events.NewErrorEvent(meta, errors.Errorf("turn limit of %d reached", l.cfg.MaxTurns)))
	return &Result{
		State:     StateFailed,
		ErrorKind: ErrorKindTurnLimit,
		Message:   "Agent loop limit reached. Please try a more specific question.",
		Trace:     run.trace,
		Quality:   l.qualityReports(),
	}
}

func (l *Loop) fail(ctx context.Context, run *runState, err error) *Result {
	kind := classifyError(err)
	log.Error().Err(err).Str("query_id", run.queryID).Str("kind", string(kind)).Msg("agent loop failed")
	events.PublishEventToContext(ctx, events.NewErrorEvent(events.EventMetadata{ID: uuid.New(), QueryID: run.queryID}, err))
	return &Result{
		State:     StateFailed,
		ErrorKind: kind,
		Message:   err.Error(),
		Trace:     run.trace,
		Quality:   l.qualityReports(),
	}
}

func (l *Loop) qualityReports() []*cleaner.Report {
	if l.quality == nil {
		return nil
	}
	return l.quality()
}

// classifyError maps a query-level failure onto the stable error taxonomy.
func classifyError(err error) ErrorKind {
	var pagErr *monday.PaginationExhaustedError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorKindTimeout
	case errors.Is(err, engine.ErrAuthentication), errors.Is(err, monday.ErrAuthentication):
		return ErrorKindAuthentication
	case errors.Is(err, engine.ErrModelProtocol):
		return ErrorKindModelProtocol
	case errors.As(err, &pagErr):
		return ErrorKindPaginationExhausted
	default:
		return ErrorKindTransientAPI
	}
}

type runState struct {
	queryID string
	trace   []TraceEntry
}

func (r *runState) append(entry TraceEntry) {
	entry.Ordinal = len(r.trace)
	entry.Timestamp = time.Now()
	r.trace = append(r.trace, entry)
}

func argsReason(args map[string]any) string {
	if reason, ok := args["reason"].(string); ok {
		return reason
	}
	return ""
}

func resultSummary(result any) string {
	if result == nil {
		return ""
	}
	b, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return clip(string(b), 300)
}

// clip shortens s to at most n bytes without splitting a rune, so summaries
// containing ₹ amounts stay valid UTF-8.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
