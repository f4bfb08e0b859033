package boardtools

import (
	"context"

	"github.com/go-go-golems/boardwalk/pkg/cleaner"
)

// SnapshotInput has no parameters; the tool always covers both boards.
type SnapshotInput struct{}

// DealTotals aggregates the deal funnel by status.
type DealTotals struct {
	Total             int     `json:"total"`
	Open              int     `json:"open"`
	Won               int     `json:"won"`
	Dead              int     `json:"dead"`
	OnHold            int     `json:"on_hold"`
	OpenPipelineValue float64 `json:"open_pipeline_value"`
	OpenPipelineINR   string  `json:"open_pipeline_inr"`
	WonValue          float64 `json:"won_value"`
	WonValueINR       string  `json:"won_value_inr"`
}

// WorkOrderTotals aggregates execution and billing across work orders.
type WorkOrderTotals struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	Ongoing       int     `json:"ongoing"`
	AmountExclGST float64 `json:"amount_excl_gst"`
	BilledInclGST float64 `json:"billed_incl_gst"`
	Collected     float64 `json:"collected"`
	CollectedINR  string  `json:"collected_inr"`
	Receivable    float64 `json:"receivable"`
	ReceivableINR string  `json:"receivable_inr"`
}

type PortfolioSnapshot struct {
	Deals      DealTotals      `json:"deals"`
	WorkOrders WorkOrderTotals `json:"workorders"`
}

// GetPortfolioSnapshot fetches both boards concurrently and reduces them to
// aggregate totals.
func (t *Toolset) GetPortfolioSnapshot(ctx context.Context, _ SnapshotInput) (*PortfolioSnapshot, error) {
	dealsID, err := t.resolveBoard(BoardDeals)
	if err != nil {
		return nil, err
	}
	woID, err := t.resolveBoard(BoardWorkOrders)
	if err != nil {
		return nil, err
	}

	boards, err := t.client.FetchBoards(ctx, []string{dealsID, woID})
	if err != nil {
		return nil, err
	}

	deals, dealsReport := cleaner.CleanDeals(boards[dealsID], t.cfg.Lookups)
	orders, woReport := cleaner.CleanWorkOrders(boards[woID], t.cfg.Lookups)
	t.recordReport(dealsReport)
	t.recordReport(woReport)

	snapshot := &PortfolioSnapshot{}

	snapshot.Deals.Total = len(deals)
	for _, d := range deals {
		switch {
		case d.IsOpen:
			snapshot.Deals.Open++
			snapshot.Deals.OpenPipelineValue += d.Value
		case d.IsWon:
			snapshot.Deals.Won++
			snapshot.Deals.WonValue += d.Value
		case d.IsDead:
			snapshot.Deals.Dead++
		case d.IsOnHold:
			snapshot.Deals.OnHold++
		}
	}
	snapshot.Deals.OpenPipelineINR = cleaner.FormatINR(snapshot.Deals.OpenPipelineValue)
	snapshot.Deals.WonValueINR = cleaner.FormatINR(snapshot.Deals.WonValue)

	snapshot.WorkOrders.Total = len(orders)
	for _, wo := range orders {
		if wo.IsCompleted {
			snapshot.WorkOrders.Completed++
		}
		if wo.IsOngoing {
			snapshot.WorkOrders.Ongoing++
		}
		snapshot.WorkOrders.AmountExclGST += wo.AmountExclGST
		snapshot.WorkOrders.BilledInclGST += wo.BilledInclGST
		snapshot.WorkOrders.Collected += wo.Collected
		snapshot.WorkOrders.Receivable += wo.Receivable
	}
	snapshot.WorkOrders.CollectedINR = cleaner.FormatINR(snapshot.WorkOrders.Collected)
	snapshot.WorkOrders.ReceivableINR = cleaner.FormatINR(snapshot.WorkOrders.Receivable)

	return snapshot, nil
}
