package baserow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:  srv.URL,
		Token:    "tok-123",
		TableID:  "882",
		PageSize: 2,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing base URL", Config{Token: "t", TableID: "1", PageSize: 10}},
		{"missing token", Config{BaseURL: "http://x", TableID: "1", PageSize: 10}},
		{"missing table", Config{BaseURL: "http://x", Token: "t", PageSize: 10}},
		{"zero page size", Config{BaseURL: "http://x", Token: "t", TableID: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestClient_FetchPage(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{
			"count": 3,
			"next": null,
			"results": [
				{"id": 10, "title": "Backend Engineer", "skills": [{"id": 1, "value": "go"}]},
				{"id": 11, "title": "SRE", "combined_embeddings": "[0.1, 0.2]"}
			]
		}`))
	})

	records, err := client.FetchPage(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "/api/database/rows/table/882/", gotPath)
	assert.Equal(t, "Token tok-123", gotAuth)
	assert.Equal(t, []string{"3"}, gotQuery["page"])
	assert.Equal(t, []string{"2"}, gotQuery["size"])
	assert.Equal(t, []string{"true"}, gotQuery["user_field_names"])
	require.Len(t, gotQuery["include"], 1)
	assert.Contains(t, gotQuery["include"][0], "combined_embeddings")
	assert.Contains(t, gotQuery["include"][0], "location_postal")

	require.Len(t, records, 2)
	assert.Equal(t, 10, records[0].ID)
	assert.Equal(t, "Backend Engineer", records[0].Title)
	require.Len(t, records[0].Skills, 1)
	assert.Equal(t, "go", records[0].Skills[0].Value)

	require.NoError(t, records[1].DecodeEmbedding())
	assert.Equal(t, []float32{0.1, 0.2}, records[1].Embedding)
}

func TestClient_FetchPage_EmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"count": 0, "next": null, "results": []}`))
	})

	records, err := client.FetchPage(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_FetchPage_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "ERROR_INVALID_PAGE"}`))
	})

	_, err := client.FetchPage(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "ERROR_INVALID_PAGE")
}

func TestClient_WriteEmbedding(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody batchUpdateRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"items": [{"id": 42}]}`))
	})

	err := client.WriteEmbedding(context.Background(), 42, []float32{0.5, -1})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/database/rows/table/882/batch/", gotPath)
	require.Len(t, gotBody.Items, 1)
	assert.Equal(t, 42, gotBody.Items[0].ID)

	// Stored as a serialised string, matching the wire form rows return.
	var roundTrip []float32
	require.NoError(t, json.Unmarshal([]byte(gotBody.Items[0].Embedding), &roundTrip))
	assert.Equal(t, []float32{0.5, -1}, roundTrip)
}

func TestClient_WriteEmbedding_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 500)))
	})

	err := client.WriteEmbedding(context.Background(), 1, []float32{0.1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "...", "long bodies are truncated")
}
