package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, records without stored
// embeddings are indexed with an empty vector.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size requested from the
	// provider (e.g. 1536, 3072). Responses of any other length are
	// treated as failures by the enricher.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Tokenizer cuts text at token boundaries for providers with a fixed
// input-token ceiling.
type Tokenizer interface {
	// Truncate returns the text cut to at most maxTokens tokens, along
	// with the resulting token count. The cut is token-boundary safe: the
	// result decodes to a prefix of the original tokenisation and never
	// splits a multi-byte token.
	Truncate(text string, maxTokens int) (string, int, error)
}
