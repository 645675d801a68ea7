// Package domain contains the core types for table synchronisation:
// source records, index documents, checkpoints and failure entries.
// It has no dependencies on adapters or external services.
package domain
