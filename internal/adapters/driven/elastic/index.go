// Package elastic provides a SearchIndex adapter for an
// Elasticsearch-style HTTP API: multi-get for existence reconciliation and
// the bulk endpoint for upsert-by-id writes with per-item outcomes.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 60 * time.Second

// Config holds configuration for the search index client.
type Config struct {
	// URL is the cluster root, e.g. http://localhost:9200.
	URL string

	// Name is the target index name.
	Name string

	// APIKey, when set, is sent as "Authorization: ApiKey <value>".
	APIKey string

	// Timeout is the per-request timeout (default 60s).
	Timeout time.Duration
}

// Index talks to one named index of the destination cluster.
type Index struct {
	client *http.Client
	url    string
	name   string
	apiKey string
}

// NewIndex creates a search index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elastic: URL is required")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("elastic: index name is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    strings.TrimRight(cfg.URL, "/"),
		name:   cfg.Name,
		apiKey: cfg.APIKey,
	}, nil
}

// mgetResponse is the multi-get response shape.
type mgetResponse struct {
	Docs []struct {
		ID    string `json:"_id"`
		Found bool   `json:"found"`
	} `json:"docs"`
}

// bulkResponse is the bulk endpoint response shape.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// ExistingIDs issues a multi-get over the ids and returns the subset the
// index reports as found.
func (x *Index) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if len(ids) == 0 {
		return map[string]struct{}{}, nil
	}

	payload, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("marshal mget request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/_mget?_source=false", x.url, x.name)
	body, err := x.post(ctx, endpoint, "application/json", payload)
	if err != nil {
		return nil, err
	}

	var parsed mgetResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode mget response: %w", err)
	}

	existing := make(map[string]struct{}, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		if doc.Found {
			existing[doc.ID] = struct{}{}
		}
	}
	return existing, nil
}

// BulkIndex writes all documents in one bulk call using index actions,
// which upsert by document id. Per-item failures come back in the slice;
// a non-nil error means the whole batch was lost in transport.
func (x *Index) BulkIndex(ctx context.Context, docs []domain.Document) ([]driven.BulkItemFailure, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]map[string]any{
			"index": {"_index": x.name, "_id": fmt.Sprintf("%d", doc.ID)},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode bulk document %d: %w", doc.ID, err)
		}
	}

	body, err := x.post(ctx, x.url+"/_bulk", "application/x-ndjson", buf.Bytes())
	if err != nil {
		return nil, err
	}

	var parsed bulkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}
	if !parsed.Errors {
		return nil, nil
	}

	var failures []driven.BulkItemFailure
	for i, item := range parsed.Items {
		for _, result := range item {
			if result.Status < http.StatusMultipleChoices {
				continue
			}
			id := result.ID
			if id == "" {
				// Positional placeholder when the response carries no id.
				id = fmt.Sprintf("item-%d", i)
			}
			reason := fmt.Sprintf("status %d", result.Status)
			if result.Error != nil {
				reason = result.Error.Reason
			}
			failures = append(failures, driven.BulkItemFailure{ID: id, Reason: reason})
		}
	}
	return failures, nil
}

func (x *Index) post(ctx context.Context, endpoint, contentType string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if x.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
