package monday

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BoardData bundles the fetch result for one board.
type BoardData struct {
	Board string
	Rows  []Row
}

// FetchBoards fetches several boards concurrently. Pagination within a board
// is inherently sequential (each cursor comes from the previous page), but
// independent boards have no such dependency. The first failure cancels the
// remaining fetches.
func (c *Client) FetchBoards(ctx context.Context, boardIDs []string) (map[string][]Row, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string][]Row, len(boardIDs))

	for _, boardID := range boardIDs {
		boardID := boardID
		g.Go(func() error {
			rows, err := c.GetAllItems(ctx, boardID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[boardID] = rows
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
