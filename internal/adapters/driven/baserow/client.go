// Package baserow provides a SourceTable adapter for a Baserow-style
// hosted table API: paginated row listing with a field projection, and
// batch partial updates for writing embeddings back.
package baserow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.SourceTable = (*Client)(nil)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the source table client.
type Config struct {
	// BaseURL is the API root, e.g. https://api.baserow.io.
	BaseURL string

	// Token is the database token sent as "Authorization: Token <value>".
	Token string

	// TableID identifies the table to page through.
	TableID string

	// PageSize is the fixed number of rows per page.
	PageSize int

	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
}

// Client fetches paginated rows and writes embeddings back.
type Client struct {
	client   *http.Client
	baseURL  string
	token    string
	tableID  string
	pageSize int
}

// NewClient creates a source table client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("baserow: base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("baserow: API token is required")
	}
	if cfg.TableID == "" {
		return nil, fmt.Errorf("baserow: table id is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("baserow: page size must be positive")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		tableID:  cfg.TableID,
		pageSize: cfg.PageSize,
	}, nil
}

// listResponse is the paginated rows response.
type listResponse struct {
	Count   int             `json:"count"`
	Next    *string         `json:"next"`
	Results []domain.Record `json:"results"`
}

// batchUpdateRequest is the batch partial-update payload.
type batchUpdateRequest struct {
	Items []batchUpdateItem `json:"items"`
}

type batchUpdateItem struct {
	ID int `json:"id"`

	// Embedding is stored upstream as a serialised JSON string in a text
	// field, which is why fetched rows return the string wire form.
	Embedding string `json:"combined_embeddings"`
}

// FetchPage fetches one page of rows with the fixed field projection.
func (c *Client) FetchPage(ctx context.Context, page int) ([]domain.Record, error) {
	q := url.Values{}
	q.Set("user_field_names", "true")
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(c.pageSize))
	q.Set("include", strings.Join(domain.FieldProjection, ","))

	endpoint := fmt.Sprintf("%s/api/database/rows/table/%s/?%s", c.baseURL, c.tableID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page %d response: %w", page, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page %d: status %d: %s", page, resp.StatusCode, truncateBody(body))
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode page %d response: %w", page, err)
	}
	return list.Results, nil
}

// WriteEmbedding persists a computed vector to the upstream row as a
// batch partial update with a single item.
func (c *Client) WriteEmbedding(ctx context.Context, recordID int, vec []float32) error {
	serialised, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("serialise embedding for record %d: %w", recordID, err)
	}

	payload, err := json.Marshal(batchUpdateRequest{
		Items: []batchUpdateItem{{ID: recordID, Embedding: string(serialised)}},
	})
	if err != nil {
		return fmt.Errorf("marshal update for record %d: %w", recordID, err)
	}

	endpoint := fmt.Sprintf("%s/api/database/rows/table/%s/batch/?user_field_names=true", c.baseURL, c.tableID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("update record %d: %w", recordID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update record %d: status %d: %s", recordID, resp.StatusCode, truncateBody(body))
	}
	return nil
}

// truncateBody keeps error messages readable when the API returns a page
// of HTML or a large error document.
func truncateBody(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
