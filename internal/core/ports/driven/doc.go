// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the source table, the search index, the
// embedding provider, the tokenizer and the durable state surfaces.
package driven
