// Package services contains the sync core: the checkpointed page loop and
// the embedding enricher. Everything here depends only on the ports, so
// adapters can be substituted with in-memory fakes for testing.
package services
