package monday

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Row is one flattened board record: column title mapped to the best
// human-readable value, or nil when the cell is empty. It is an alias so
// rows flow into downstream cleaning code without conversion.
type Row = map[string]any

// Column describes one board column.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// BoardSchema is the column discovery result for one board.
type BoardSchema struct {
	BoardName string   `json:"board_name"`
	Columns   []Column `json:"columns"`
}

const columnsQuery = `
query ($b: ID!) {
  boards(ids: [$b]) {
    name
    columns { id title type }
  }
}`

const firstPageQuery = `
query ($b: ID!, $limit: Int!) {
  boards(ids: [$b]) {
    items_page(limit: $limit) {
      cursor
      items {
        id
        name
        column_values { id text value }
      }
    }
  }
}`

const nextPageQuery = `
query ($limit: Int!, $cursor: String!) {
  next_items_page(limit: $limit, cursor: $cursor) {
    cursor
    items {
      id
      name
      column_values { id text value }
    }
  }
}`

type rawColumnValue struct {
	ID    string          `json:"id"`
	Text  *string         `json:"text"`
	Value json.RawMessage `json:"value"`
}

type rawItem struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ColumnValues []rawColumnValue `json:"column_values"`
}

type rawItemsPage struct {
	Cursor string    `json:"cursor"`
	Items  []rawItem `json:"items"`
}

// GetColumns returns board name and column definitions (id, title, type).
func (c *Client) GetColumns(ctx context.Context, boardID string) (*BoardSchema, error) {
	data, err := c.gql(ctx, boardID, "", columnsQuery, map[string]any{"b": boardID})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Boards []struct {
			Name    string   `json:"name"`
			Columns []Column `json:"columns"`
		} `json:"boards"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode columns response")
	}
	if len(parsed.Boards) == 0 {
		return nil, &APIError{Board: boardID, Message: "board not found or not accessible"}
	}
	return &BoardSchema{BoardName: parsed.Boards[0].Name, Columns: parsed.Boards[0].Columns}, nil
}

// GetAllItems fetches every item from a board using cursor pagination and
// returns fully materialized rows in page order. Column titles are fetched
// first so rows are keyed by readable titles rather than column ids.
//
// The cursor dependency forces sequential page fetches; the MaxPages bound
// guarantees termination even against an API that reports more pages
// forever.
func (c *Client) GetAllItems(ctx context.Context, boardID string) ([]Row, error) {
	schema, err := c.GetColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}
	colTitles := make(map[string]string, len(schema.Columns))
	for _, col := range schema.Columns {
		colTitles[col.ID] = col.Title
	}

	var rows []Row
	cursor := ""
	for page := 0; ; page++ {
		if page >= c.cfg.MaxPages {
			return nil, &PaginationExhaustedError{Board: boardID, Pages: page}
		}

		var itemsPage rawItemsPage
		if cursor == "" {
			data, err := c.gql(ctx, boardID, cursor, firstPageQuery, map[string]any{"b": boardID, "limit": c.cfg.PageSize})
			if err != nil {
				return nil, err
			}
			var parsed struct {
				Boards []struct {
					ItemsPage rawItemsPage `json:"items_page"`
				} `json:"boards"`
			}
			if err := json.Unmarshal(data, &parsed); err != nil {
				return nil, errors.Wrap(err, "decode items page")
			}
			if len(parsed.Boards) == 0 {
				return nil, &APIError{Board: boardID, Message: "board returned no data; check the board ID and token access"}
			}
			itemsPage = parsed.Boards[0].ItemsPage
		} else {
			data, err := c.gql(ctx, boardID, cursor, nextPageQuery, map[string]any{"limit": c.cfg.PageSize, "cursor": cursor})
			if err != nil {
				return nil, err
			}
			var parsed struct {
				NextItemsPage rawItemsPage `json:"next_items_page"`
			}
			if err := json.Unmarshal(data, &parsed); err != nil {
				return nil, errors.Wrap(err, "decode items page")
			}
			itemsPage = parsed.NextItemsPage
		}

		for _, item := range itemsPage.Items {
			rows = append(rows, rowFromItem(item, colTitles))
		}
		log.Debug().Str("board", boardID).Int("page", page+1).Int("items", len(itemsPage.Items)).Int("total", len(rows)).Msg("fetched board page")

		cursor = itemsPage.Cursor
		if cursor == "" || len(itemsPage.Items) < c.cfg.PageSize {
			break
		}
	}

	return rows, nil
}

// rowFromItem flattens a raw item into a Row keyed by column title, falling
// back to the column id when the title map has no entry.
func rowFromItem(item rawItem, colTitles map[string]string) Row {
	row := Row{
		"_id":   item.ID,
		"_name": strings.TrimSpace(item.Name),
	}
	for _, col := range item.ColumnValues {
		title := col.ID
		if t, ok := colTitles[col.ID]; ok && t != "" {
			title = t
		}
		text := extractText(col)
		if text == nil {
			row[title] = nil
		} else {
			row[title] = *text
		}
	}
	return row
}

var emptyCellMarkers = map[string]bool{
	"": true, "—": true, "-": true, "null": true, "None": true,
}

// extractText pulls the best human-readable string from a column value,
// preferring the rendered text and falling back to the raw JSON value.
func extractText(col rawColumnValue) *string {
	if col.Text != nil {
		if s := strings.TrimSpace(*col.Text); !emptyCellMarkers[s] {
			return &s
		}
	}
	if len(col.Value) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(col.Value, &parsed); err != nil {
		return nil
	}
	switch v := parsed.(type) {
	case map[string]any:
		for _, key := range []string{"text", "name", "label", "display_value"} {
			if s, ok := v[key].(string); ok {
				if s = strings.TrimSpace(s); !emptyCellMarkers[s] {
					return &s
				}
			}
		}
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	case string:
		if s := strings.TrimSpace(v); !emptyCellMarkers[s] {
			return &s
		}
	}
	return nil
}
