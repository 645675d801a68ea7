package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
	"github.com/lakeway-labs/tablesync-cli/internal/logger"
)

// EnrichKind classifies enrichment failures so the orchestrator can
// aggregate them structurally instead of parsing log text.
type EnrichKind string

const (
	// EnrichMissingTitle: the record has no usable title after trimming.
	EnrichMissingTitle EnrichKind = "missing_title"

	// EnrichTokenize: the input could not be tokenised for truncation.
	EnrichTokenize EnrichKind = "tokenize"

	// EnrichProvider: the embedding provider call failed.
	EnrichProvider EnrichKind = "provider"

	// EnrichBadVector: the provider returned a vector of the wrong shape.
	EnrichBadVector EnrichKind = "bad_vector"

	// EnrichWriteBack: persisting the vector to the source table failed.
	EnrichWriteBack EnrichKind = "write_back"
)

// EnrichError is a classified enrichment failure. All kinds are non-fatal
// to the batch: the record proceeds without an embedding.
type EnrichError struct {
	Kind EnrichKind
	Err  error
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrich (%s): %v", e.Kind, e.Err)
}

func (e *EnrichError) Unwrap() error {
	return e.Err
}

// Enricher computes embeddings for records that lack one and persists them
// back to the source table.
type Enricher struct {
	embedder  driven.EmbeddingService
	tokenizer driven.Tokenizer
	source    driven.SourceTable
	maxTokens int
	limiter   *rate.Limiter
}

// NewEnricher creates an enricher. maxTokens is the provider's input-token
// ceiling; pause is the courtesy delay applied after each successful
// provider call (not a correctness requirement).
func NewEnricher(
	embedder driven.EmbeddingService,
	tokenizer driven.Tokenizer,
	source driven.SourceTable,
	maxTokens int,
	pause time.Duration,
) *Enricher {
	var limiter *rate.Limiter
	if pause > 0 {
		limiter = rate.NewLimiter(rate.Every(pause), 1)
	}
	return &Enricher{
		embedder:  embedder,
		tokenizer: tokenizer,
		source:    source,
		maxTokens: maxTokens,
		limiter:   limiter,
	}
}

// Enrich computes and attaches an embedding to rec if it lacks one.
// Returns true when a fresh vector was computed and persisted. A record
// whose embedding is already non-empty is never sent to the provider.
func (e *Enricher) Enrich(ctx context.Context, rec *domain.Record) (bool, error) {
	if rec.HasEmbedding() {
		return false, nil
	}

	if strings.TrimSpace(rec.Title) == "" {
		// Fail closed: the description alone is not sufficient input.
		return false, &EnrichError{Kind: EnrichMissingTitle, Err: fmt.Errorf("%w: record %d", domain.ErrMissingTitle, rec.ID)}
	}

	text := rec.EmbeddingText()
	text, tokens, err := e.tokenizer.Truncate(text, e.maxTokens)
	if err != nil {
		return false, &EnrichError{Kind: EnrichTokenize, Err: fmt.Errorf("truncate record %d: %w", rec.ID, err)}
	}
	logger.Debug("record %d: embedding input is %d tokens", rec.ID, tokens)

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return false, &EnrichError{Kind: EnrichProvider, Err: fmt.Errorf("embed record %d: %w", rec.ID, err)}
	}
	if len(vec) != e.embedder.Dimensions() {
		return false, &EnrichError{
			Kind: EnrichBadVector,
			Err:  fmt.Errorf("%w: record %d: got %d, want %d", domain.ErrVectorDimensions, rec.ID, len(vec), e.embedder.Dimensions()),
		}
	}

	if err := e.source.WriteEmbedding(ctx, rec.ID, vec); err != nil {
		return false, &EnrichError{Kind: EnrichWriteBack, Err: fmt.Errorf("write embedding for record %d: %w", rec.ID, err)}
	}

	rec.Embedding = vec

	if e.limiter != nil {
		// Courtesy pacing only; a cancelled wait does not undo the
		// enrichment and surfaces at the next blocking call.
		_ = e.limiter.Wait(ctx)
	}
	return true, nil
}
