package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockSource implements driven.SourceTable.
type mockSource struct {
	pages      map[int][]domain.Record
	fetchErrs  map[int]error
	fetched    []int
	written    map[int][]float32
	writeErr   error
	writeCalls int
}

var _ driven.SourceTable = (*mockSource)(nil)

func newMockSource() *mockSource {
	return &mockSource{
		pages:     make(map[int][]domain.Record),
		fetchErrs: make(map[int]error),
		written:   make(map[int][]float32),
	}
}

func (m *mockSource) FetchPage(_ context.Context, page int) ([]domain.Record, error) {
	m.fetched = append(m.fetched, page)
	if err, ok := m.fetchErrs[page]; ok {
		return nil, err
	}
	return m.pages[page], nil
}

func (m *mockSource) WriteEmbedding(_ context.Context, recordID int, vec []float32) error {
	m.writeCalls++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written[recordID] = vec
	return nil
}

// mockIndex implements driven.SearchIndex.
type mockIndex struct {
	existing     map[string]struct{}
	existErr     error
	bulkBatches  [][]domain.Document
	itemFailures []driven.BulkItemFailure
	bulkErr      error
}

var _ driven.SearchIndex = (*mockIndex)(nil)

func newMockIndex() *mockIndex {
	return &mockIndex{existing: make(map[string]struct{})}
}

func (m *mockIndex) ExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	if m.existErr != nil {
		return nil, m.existErr
	}
	found := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := m.existing[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (m *mockIndex) BulkIndex(_ context.Context, docs []domain.Document) ([]driven.BulkItemFailure, error) {
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	batch := make([]domain.Document, len(docs))
	copy(batch, docs)
	m.bulkBatches = append(m.bulkBatches, batch)
	return m.itemFailures, nil
}

func (m *mockIndex) allDocs() []domain.Document {
	var out []domain.Document
	for _, b := range m.bulkBatches {
		out = append(out, b...)
	}
	return out
}

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	dims   int
	vecLen int // defaults to dims when 0
	err    error
	inputs []string
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.inputs = append(m.inputs, text)
	if m.err != nil {
		return nil, m.err
	}
	n := m.vecLen
	if n == 0 {
		n = m.dims
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = 0.01
	}
	return vec, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Close() error      { return nil }

// wordTokenizer implements driven.Tokenizer over whitespace-separated
// words, so truncation behaviour can be asserted without real BPE data.
type wordTokenizer struct {
	err error
}

var _ driven.Tokenizer = (*wordTokenizer)(nil)

func (t *wordTokenizer) Truncate(text string, maxTokens int) (string, int, error) {
	if t.err != nil {
		return "", 0, t.err
	}
	words := strings.Fields(text)
	if len(words) <= maxTokens {
		return text, len(words), nil
	}
	return strings.Join(words[:maxTokens], " "), maxTokens, nil
}

// failingCheckpointStore implements driven.CheckpointStore with every
// operation failing, counting attempts.
type failingCheckpointStore struct {
	loadCalls int
	saveCalls int
}

var _ driven.CheckpointStore = (*failingCheckpointStore)(nil)

func (s *failingCheckpointStore) Load(_ context.Context) (domain.Checkpoint, error) {
	s.loadCalls++
	return domain.Checkpoint{}, errors.New("checkpoint backend unavailable")
}

func (s *failingCheckpointStore) Save(_ context.Context, _ domain.Checkpoint) error {
	s.saveCalls++
	return errors.New("checkpoint backend unavailable")
}

// failingFailureLog implements driven.FailureLog, rejecting every append.
type failingFailureLog struct {
	appendCalls int
}

var _ driven.FailureLog = (*failingFailureLog)(nil)

func (l *failingFailureLog) Append(_ context.Context, _ domain.Failure) error {
	l.appendCalls++
	return errors.New("failure log unavailable")
}

func (l *failingFailureLog) List(_ context.Context) ([]domain.Failure, error) {
	return nil, nil
}

// makeRecord builds a record with a title and description derived from id.
func makeRecord(id int) domain.Record {
	return domain.Record{
		ID:          id,
		Title:       fmt.Sprintf("Role %d", id),
		Description: fmt.Sprintf("Description for %d", id),
	}
}
