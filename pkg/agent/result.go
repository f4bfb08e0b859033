package agent

import (
	"time"

	"github.com/go-go-golems/boardwalk/pkg/cleaner"
)

// State is the agent loop's lifecycle state. StateAwaitingModel and
// StateExecutingTools name the in-flight phases, observable through the
// event stream while a query runs; Result.State is always terminal, either
// StateDone or StateFailed.
type State string

const (
	StateAwaitingModel  State = "awaiting_model"
	StateExecutingTools State = "executing_tools"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// ErrorKind is the stable failure taxonomy exposed to callers. Kinds are
// contract, not prose: clients branch on them.
type ErrorKind string

const (
	ErrorKindValidation          ErrorKind = "validation"
	ErrorKindPaginationExhausted ErrorKind = "pagination_exhausted"
	ErrorKindAuthentication      ErrorKind = "authentication"
	ErrorKindTransientAPI        ErrorKind = "transient_api"
	ErrorKindParse               ErrorKind = "parse"
	ErrorKindTurnLimit           ErrorKind = "turn_limit"
	ErrorKindModelProtocol       ErrorKind = "model_protocol"
	ErrorKindTimeout             ErrorKind = "timeout"
)

// TraceEntryKind tags what a trace entry records.
type TraceEntryKind string

const (
	TraceToolCall   TraceEntryKind = "tool_call"
	TraceToolResult TraceEntryKind = "tool_result"
	TraceToolError  TraceEntryKind = "tool_error"
	TraceAnswer     TraceEntryKind = "answer"
)

// TraceEntry is one step of the query's tool-use history. The trace is
// append-only; every tool invocation produces an entry whether it succeeded
// or not.
type TraceEntry struct {
	Ordinal   int            `json:"ordinal" yaml:"ordinal"`
	Kind      TraceEntryKind `json:"kind" yaml:"kind"`
	Tool      string         `json:"tool,omitempty" yaml:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Summary   string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}

// Result is the terminal outcome of one query. Failed results still carry
// the partial trace so callers can see how far the loop got.
type Result struct {
	Answer    string            `json:"answer,omitempty" yaml:"answer,omitempty"`
	State     State             `json:"state" yaml:"state"`
	ErrorKind ErrorKind         `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Message   string            `json:"message,omitempty" yaml:"message,omitempty"`
	Trace     []TraceEntry      `json:"trace" yaml:"trace"`
	Quality   []*cleaner.Report `json:"quality,omitempty" yaml:"quality,omitempty"`
}
