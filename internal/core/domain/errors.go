package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedEmbedding indicates a stored embedding could not be
	// decoded from its wire form. The record proceeds with an empty
	// embedding rather than aborting the page.
	ErrMalformedEmbedding = errors.New("malformed embedding")

	// ErrMissingTitle indicates a record has no usable title after
	// trimming. Enrichment fails closed: the description alone is not
	// sufficient input for an embedding.
	ErrMissingTitle = errors.New("record title is empty")

	// ErrVectorDimensions indicates the embedding provider returned a
	// vector whose length does not match the configured dimensionality.
	ErrVectorDimensions = errors.New("unexpected embedding dimensions")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Records lacking stored embeddings are indexed without one.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
