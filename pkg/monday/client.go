package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api.monday.com/v2"
	// APIVersion pins the Monday GraphQL schema. 2024-10 removed 'title'
	// from column_values, which is why column titles are fetched separately.
	APIVersion = "2024-10"

	DefaultPageSize   = 100
	DefaultMaxPages   = 500
	DefaultMaxRetries = 3
)

// Config is the per-query, caller-supplied configuration of the client.
// Credentials are never read from ambient process state and never mutated.
type Config struct {
	Token      string
	BaseURL    string
	PageSize   int
	MaxPages   int
	MaxRetries int
	// RetryBackoff is the base delay before the first retry; subsequent
	// retries double it.
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// Client is a cursor-paginated, read-only Monday GraphQL client.
type Client struct {
	cfg Config
}

// NewClient validates the configuration and constructs a client. A missing
// token fails fast with ErrAuthentication before any page request.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.Wrap(ErrAuthentication, "API token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 45 * time.Second}
	}
	return &Client{cfg: cfg}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// gql executes one GraphQL query with bounded retries for transient
// failures. board and cursor are carried for error context only.
func (c *Client) gql(ctx context.Context, board, cursor, query string, variables map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, errors.Wrap(err, "marshal graphql request")
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			log.Debug().Str("board", board).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying monday request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		data, err := c.doRequest(ctx, board, cursor, payload)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, board, cursor string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build monday request")
	}
	req.Header.Set("Authorization", c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", APIVersion)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &APIError{Board: board, Cursor: cursor, Message: err.Error(), transient: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &APIError{Board: board, Cursor: cursor, Message: err.Error(), transient: true}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Wrapf(ErrAuthentication, "HTTP %d for board %s", resp.StatusCode, board)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &APIError{Board: board, Cursor: cursor, StatusCode: resp.StatusCode, Message: truncate(string(body), 300), transient: true}
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{Board: board, Cursor: cursor, StatusCode: resp.StatusCode, Message: truncate(string(body), 300)}
	}

	var parsed gqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &APIError{Board: board, Cursor: cursor, Message: "invalid JSON response: " + err.Error()}
	}
	if len(parsed.Errors) > 0 {
		return nil, &APIError{Board: board, Cursor: cursor, Message: parsed.Errors[0].Message}
	}
	return parsed.Data, nil
}

// truncate shortens s to at most n bytes, backing up to a rune boundary so
// the result stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
