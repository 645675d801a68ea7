package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
)

func newTestEnricher(embedder *mockEmbedder, source *mockSource, maxTokens int) *Enricher {
	return NewEnricher(embedder, &wordTokenizer{}, source, maxTokens, 0)
}

func TestEnricher_SkipsRecordsWithEmbedding(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	source := newMockSource()
	e := newTestEnricher(embedder, source, 8192)

	rec := makeRecord(1)
	rec.Embedding = []float32{0.5, 0.5}

	enriched, err := e.Enrich(context.Background(), &rec)
	require.NoError(t, err)
	assert.False(t, enriched)
	assert.Empty(t, embedder.inputs, "provider must never see records that already carry an embedding")
	assert.Zero(t, source.writeCalls)
}

func TestEnricher_FailsClosedOnEmptyTitle(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	source := newMockSource()
	e := newTestEnricher(embedder, source, 8192)

	rec := domain.Record{ID: 2, Title: "   ", Description: "plenty of text"}

	enriched, err := e.Enrich(context.Background(), &rec)
	assert.False(t, enriched)
	require.Error(t, err)

	var enrichErr *EnrichError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, EnrichMissingTitle, enrichErr.Kind)
	assert.ErrorIs(t, err, domain.ErrMissingTitle)
	assert.Empty(t, embedder.inputs)
	assert.Empty(t, rec.Embedding)
}

func TestEnricher_TruncatesToTokenCeiling(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	source := newMockSource()
	e := newTestEnricher(embedder, source, 5)

	rec := domain.Record{
		ID:          3,
		Title:       "Engineer",
		Description: "one two three four five six seven eight",
	}

	enriched, err := e.Enrich(context.Background(), &rec)
	require.NoError(t, err)
	assert.True(t, enriched)

	require.Len(t, embedder.inputs, 1)
	sent := embedder.inputs[0]
	assert.LessOrEqual(t, len(strings.Fields(sent)), 5)
	// Token-boundary safe: the sent text is a prefix of the original
	// tokenisation, never a partially cut token.
	assert.True(t, strings.HasPrefix(rec.EmbeddingText(), sent))
}

func TestEnricher_ShortInputPassedVerbatim(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	source := newMockSource()
	e := newTestEnricher(embedder, source, 8192)

	rec := makeRecord(4)
	_, err := e.Enrich(context.Background(), &rec)
	require.NoError(t, err)
	require.Len(t, embedder.inputs, 1)
	assert.Equal(t, "Role 4: Description for 4", embedder.inputs[0])
}

func TestEnricher_RejectsWrongDimensions(t *testing.T) {
	embedder := &mockEmbedder{dims: 8, vecLen: 3}
	source := newMockSource()
	e := newTestEnricher(embedder, source, 8192)

	rec := makeRecord(5)
	enriched, err := e.Enrich(context.Background(), &rec)
	assert.False(t, enriched)

	var enrichErr *EnrichError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, EnrichBadVector, enrichErr.Kind)
	assert.ErrorIs(t, err, domain.ErrVectorDimensions)
	assert.Zero(t, source.writeCalls, "invalid vectors must not be written upstream")
	assert.Empty(t, rec.Embedding)
}

func TestEnricher_ProviderFailure(t *testing.T) {
	embedder := &mockEmbedder{dims: 4, err: errors.New("rate limited")}
	source := newMockSource()
	e := newTestEnricher(embedder, source, 8192)

	rec := makeRecord(6)
	enriched, err := e.Enrich(context.Background(), &rec)
	assert.False(t, enriched)

	var enrichErr *EnrichError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, EnrichProvider, enrichErr.Kind)
	assert.Empty(t, rec.Embedding)
}

func TestEnricher_WriteBackFailure(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	source := newMockSource()
	source.writeErr = errors.New("upstream 502")
	e := newTestEnricher(embedder, source, 8192)

	rec := makeRecord(7)
	enriched, err := e.Enrich(context.Background(), &rec)
	assert.False(t, enriched)

	var enrichErr *EnrichError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, EnrichWriteBack, enrichErr.Kind)
	assert.Empty(t, rec.Embedding, "record must not carry a vector the upstream never accepted")
}

func TestEnricher_SuccessWritesBackAndMutates(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	source := newMockSource()
	e := newTestEnricher(embedder, source, 8192)

	rec := makeRecord(8)
	enriched, err := e.Enrich(context.Background(), &rec)
	require.NoError(t, err)
	assert.True(t, enriched)
	assert.Len(t, rec.Embedding, 4)
	assert.Equal(t, rec.Embedding, source.written[8])
}

func TestEnricher_TokenizerFailure(t *testing.T) {
	embedder := &mockEmbedder{dims: 4}
	source := newMockSource()
	e := NewEnricher(embedder, &wordTokenizer{err: errors.New("bad encoding")}, source, 8192, 0)

	rec := makeRecord(9)
	_, err := e.Enrich(context.Background(), &rec)

	var enrichErr *EnrichError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, EnrichTokenize, enrichErr.Kind)
	assert.Empty(t, embedder.inputs)
}
