// Package token provides a tokenizer adapter backed by tiktoken, the
// byte-pair encoding used by OpenAI embedding models. Truncation happens
// on token boundaries so the provider never rejects an over-length input.
package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// fallbackEncoding is used when a model has no registered encoding.
const fallbackEncoding = "cl100k_base"

// Tokenizer counts and truncates text using a model's BPE encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenizer creates a tokenizer for the given model. Unknown models
// fall back to cl100k_base, which covers the text-embedding-3 family.
func NewTokenizer(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("load encoding %s: %w", fallbackEncoding, err)
		}
	}
	return &Tokenizer{encoding: enc}, nil
}

// Truncate cuts text to at most maxTokens tokens and returns the truncated
// text together with its token count. Text already within the limit is
// returned verbatim.
func (t *Tokenizer) Truncate(text string, maxTokens int) (string, int, error) {
	if maxTokens <= 0 {
		return "", 0, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}

	tokens := t.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, len(tokens), nil
	}

	truncated := t.encoding.Decode(tokens[:maxTokens])
	return truncated, maxTokens, nil
}
