package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LinkedValue is a single entry of an upstream nested collection.
// The source table returns link fields as arrays of {id, value} objects.
type LinkedValue struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

// Record is a row of the upstream source table, fetched with the fixed
// field projection. The embedding field is kept in its wire form because
// the upstream may return it absent, as a numeric array, or as a
// serialised-string array; DecodeEmbedding resolves it.
type Record struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Company     string        `json:"company"`
	Location    string        `json:"location"`
	Region      string        `json:"location_region"`
	Postal      string        `json:"location_postal"`
	Date        string        `json:"date"`
	URL         string        `json:"url"`
	Website     string        `json:"website"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Skills      []LinkedValue `json:"skills"`
	Languages   []LinkedValue `json:"languages"`

	// RawEmbedding is the combined_embeddings field as received.
	RawEmbedding json.RawMessage `json:"combined_embeddings"`

	// Embedding is the decoded vector. Populated by DecodeEmbedding or by
	// enrichment; if non-empty it is never recomputed.
	Embedding []float32 `json:"-"`
}

// FieldProjection is the exact set of fields requested from the source
// table on every page fetch.
var FieldProjection = []string{
	"id",
	"title",
	"company",
	"location",
	"location_region",
	"location_postal",
	"date",
	"url",
	"website",
	"category",
	"description",
	"skills",
	"languages",
	"combined_embeddings",
}

// StringID returns the record id in the form used as the index document id.
func (r Record) StringID() string {
	return strconv.Itoa(r.ID)
}

// HasEmbedding reports whether the record already carries a decoded,
// non-empty embedding.
func (r Record) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// DecodeEmbedding parses the wire form of combined_embeddings into
// r.Embedding. Three forms are accepted: absent/null (empty vector),
// a JSON numeric array, and a JSON string containing a serialised numeric
// array. Any other shape returns ErrMalformedEmbedding; the caller logs
// the failure and the record proceeds with an empty embedding.
func (r *Record) DecodeEmbedding() error {
	r.Embedding = nil

	raw := r.RawEmbedding
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	// Literal numeric array.
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err == nil {
		r.Embedding = vec
		return nil
	}

	// Serialised-string form: a JSON string whose content is itself a
	// JSON numeric array.
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return fmt.Errorf("%w: record %d", ErrMalformedEmbedding, r.ID)
	}
	if inner == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &vec); err != nil {
		return fmt.Errorf("%w: record %d: %v", ErrMalformedEmbedding, r.ID, err)
	}
	r.Embedding = vec
	return nil
}

// EmbeddingText builds the provider input for a record: "<title>: <description>".
func (r Record) EmbeddingText() string {
	return r.Title + ": " + r.Description
}
