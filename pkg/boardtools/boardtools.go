package boardtools

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/go-go-golems/boardwalk/pkg/cleaner"
	"github.com/go-go-golems/boardwalk/pkg/monday"
	"github.com/go-go-golems/boardwalk/pkg/tools"
)

const (
	BoardDeals      = "deals"
	BoardWorkOrders = "workorders"

	// DefaultMaxRows bounds tool output size so results fit the model's
	// context window.
	DefaultMaxRows = 30
)

// Config is the per-query wiring of the board tools. Board IDs arrive from
// the caller, never from ambient process state.
type Config struct {
	// Boards maps tool-facing aliases ("deals", "workorders") to board IDs.
	Boards  map[string]string
	Lookups *cleaner.Lookups
	MaxRows int
}

// Toolset exposes the board operations as model-callable tools. It is
// constructed per query and records the cleaning reports of every board it
// fetched, so answers can be qualified by data quality.
type Toolset struct {
	client *monday.Client
	cfg    Config

	mu      sync.Mutex
	reports []*cleaner.Report
}

func New(client *monday.Client, cfg Config) *Toolset {
	if cfg.Lookups == nil {
		cfg.Lookups = cleaner.DefaultLookups()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	return &Toolset{client: client, cfg: cfg}
}

// Register wires every board tool into the registry.
func (t *Toolset) Register(registry tools.ToolRegistry) error {
	itemsTool, err := tools.NewToolFromFunc(
		"get_board_items",
		"Fetch ALL live items from a board. Use board='deals' for the deal "+
			"pipeline, or board='workorders' for the work order tracker. Makes "+
			"a live API call every time. Returns cleaned, normalized rows as JSON.",
		t.GetBoardItems,
	)
	if err != nil {
		return err
	}
	if err := registry.RegisterTool("get_board_items", *itemsTool); err != nil {
		return err
	}

	columnsTool, err := tools.NewToolFromFunc(
		"get_board_columns",
		"Get column definitions (id, title, type) for a board. Call this to "+
			"discover what fields exist before querying items.",
		t.GetBoardColumns,
	)
	if err != nil {
		return err
	}
	if err := registry.RegisterTool("get_board_columns", *columnsTool); err != nil {
		return err
	}

	snapshotTool, err := tools.NewToolFromFunc(
		"get_portfolio_snapshot",
		"Fetch both boards and return aggregate portfolio totals: pipeline "+
			"value by deal status plus billed/collected/receivable across work "+
			"orders. Use for broad health-check questions.",
		t.GetPortfolioSnapshot,
	)
	if err != nil {
		return err
	}
	return registry.RegisterTool("get_portfolio_snapshot", *snapshotTool)
}

// QualityReports returns the cleaning reports accumulated across tool calls.
func (t *Toolset) QualityReports() []*cleaner.Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*cleaner.Report, len(t.reports))
	copy(out, t.reports)
	return out
}

func (t *Toolset) recordReport(report *cleaner.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reports = append(t.reports, report)
}

func (t *Toolset) resolveBoard(alias string) (string, error) {
	id, ok := t.cfg.Boards[alias]
	if !ok || id == "" {
		return "", errors.Errorf("unknown board %q; configured boards: %s", alias, boardAliases(t.cfg.Boards))
	}
	return id, nil
}

func boardAliases(boards map[string]string) string {
	out := ""
	for alias := range boards {
		if out != "" {
			out += ", "
		}
		out += alias
	}
	return out
}

// BoardItemsInput selects a board for a full fetch. Reason is free text the
// model supplies for the trace.
type BoardItemsInput struct {
	Board  string `json:"board" jsonschema:"required,enum=deals,enum=workorders,description=Which board to fetch"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Why the data is needed (shown in the trace)"`
}

// BoardItemsResult is the compact tool payload: cleaned rows capped at
// MaxRows, with the full row count alongside so totals stay honest.
type BoardItemsResult struct {
	Board        string          `json:"board"`
	TotalRows    int             `json:"total_rows"`
	ReturnedRows int             `json:"returned_rows"`
	Note         string          `json:"note,omitempty"`
	Rows         any             `json:"rows"`
	Quality      *cleaner.Report `json:"quality,omitempty"`
}

func (t *Toolset) GetBoardItems(ctx context.Context, in BoardItemsInput) (*BoardItemsResult, error) {
	boardID, err := t.resolveBoard(in.Board)
	if err != nil {
		return nil, err
	}

	raw, err := t.client.GetAllItems(ctx, boardID)
	if err != nil {
		return nil, err
	}

	var (
		rows   any
		total  int
		report *cleaner.Report
	)
	if in.Board == BoardDeals {
		deals, r := cleaner.CleanDeals(raw, t.cfg.Lookups)
		total, report = len(deals), r
		if len(deals) > t.cfg.MaxRows {
			deals = deals[:t.cfg.MaxRows]
		}
		rows = deals
	} else {
		orders, r := cleaner.CleanWorkOrders(raw, t.cfg.Lookups)
		total, report = len(orders), r
		if len(orders) > t.cfg.MaxRows {
			orders = orders[:t.cfg.MaxRows]
		}
		rows = orders
	}
	t.recordReport(report)

	result := &BoardItemsResult{
		Board:        in.Board,
		TotalRows:    total,
		ReturnedRows: min(total, t.cfg.MaxRows),
		Rows:         rows,
		Quality:      report,
	}
	if total > t.cfg.MaxRows {
		result.Note = fmt.Sprintf("Output truncated to %d rows due to model context limits", t.cfg.MaxRows)
	}
	return result, nil
}

type BoardColumnsInput struct {
	Board string `json:"board" jsonschema:"required,enum=deals,enum=workorders,description=Which board to inspect"`
}

type BoardColumnsResult struct {
	Board     string          `json:"board"`
	BoardName string          `json:"board_name"`
	Columns   []monday.Column `json:"columns"`
}

func (t *Toolset) GetBoardColumns(ctx context.Context, in BoardColumnsInput) (*BoardColumnsResult, error) {
	boardID, err := t.resolveBoard(in.Board)
	if err != nil {
		return nil, err
	}
	schema, err := t.client.GetColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return &BoardColumnsResult{
		Board:     in.Board,
		BoardName: schema.BoardName,
		Columns:   schema.Columns,
	}, nil
}
