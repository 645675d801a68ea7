// Package config loads and validates the tablesync configuration from a
// TOML file, with TABLESYNC_* environment variables taking precedence for
// secrets and per-run overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultPageSize       = 100
	DefaultDimensions     = 3072
	DefaultMaxInputTokens = 8192
	DefaultEmbeddingPause = 250 * time.Millisecond
	DefaultStateBackend   = "file"
)

// Config is the full tablesync configuration.
type Config struct {
	Source    SourceConfig    `toml:"source" validate:"required"`
	Index     IndexConfig     `toml:"index" validate:"required"`
	Embedding EmbeddingConfig `toml:"embedding"`
	State     StateConfig     `toml:"state"`
}

// SourceConfig configures the upstream table API.
type SourceConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
	Token   string `toml:"token" validate:"required"`
	TableID int    `toml:"table_id" validate:"required,gt=0"`

	// WorkspaceID is recognised for multi-workspace deployments; the row
	// endpoints do not need it but connectors that list tables do.
	WorkspaceID int `toml:"workspace_id"`

	PageSize             int `toml:"page_size" validate:"gt=0"`
	ExpectedTotalRecords int `toml:"expected_total_records" validate:"required,gt=0"`
}

// IndexConfig configures the search index.
type IndexConfig struct {
	URL    string `toml:"url" validate:"required,url"`
	Name   string `toml:"name" validate:"required"`
	APIKey string `toml:"api_key"`
}

// EmbeddingConfig configures the embedding provider. Leaving APIKey empty
// disables enrichment: records sync with whatever embeddings they carry.
type EmbeddingConfig struct {
	APIKey         string        `toml:"api_key"`
	BaseURL        string        `toml:"base_url"`
	Model          string        `toml:"model"`
	Dimensions     int           `toml:"dimensions" validate:"gt=0"`
	MaxInputTokens int           `toml:"max_input_tokens" validate:"gt=0"`
	Pause          time.Duration `toml:"pause"`
}

// Enabled reports whether embedding enrichment is configured.
func (c EmbeddingConfig) Enabled() bool {
	return c.APIKey != ""
}

// StateConfig configures where checkpoint and failure state live.
type StateConfig struct {
	// Backend selects the state store: "file" or "sqlite".
	Backend string `toml:"backend" validate:"oneof=file sqlite"`

	// Dir is the state directory (default: ~/.tablesync/data).
	Dir string `toml:"dir"`
}

// DataDir resolves the state directory, defaulting under the home directory.
func (c StateConfig) DataDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".tablesync", "data"), nil
}

// Load reads the configuration file at path, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in unset values.
func (c *Config) applyDefaults() {
	if c.Source.PageSize == 0 {
		c.Source.PageSize = DefaultPageSize
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = DefaultDimensions
	}
	if c.Embedding.MaxInputTokens == 0 {
		c.Embedding.MaxInputTokens = DefaultMaxInputTokens
	}
	if c.Embedding.Pause == 0 {
		c.Embedding.Pause = DefaultEmbeddingPause
	}
	if c.State.Backend == "" {
		c.State.Backend = DefaultStateBackend
	}
}

// applyEnv overlays TABLESYNC_* environment variables. Environment always
// wins so secrets never need to live in the config file.
func (c *Config) applyEnv() {
	overlayString(&c.Source.BaseURL, "TABLESYNC_SOURCE_URL")
	overlayString(&c.Source.Token, "TABLESYNC_SOURCE_TOKEN")
	overlayInt(&c.Source.TableID, "TABLESYNC_SOURCE_TABLE_ID")
	overlayInt(&c.Source.ExpectedTotalRecords, "TABLESYNC_SOURCE_TOTAL_RECORDS")

	overlayString(&c.Index.URL, "TABLESYNC_INDEX_URL")
	overlayString(&c.Index.Name, "TABLESYNC_INDEX_NAME")
	overlayString(&c.Index.APIKey, "TABLESYNC_INDEX_API_KEY")

	overlayString(&c.Embedding.APIKey, "TABLESYNC_EMBEDDING_API_KEY")
	overlayString(&c.Embedding.BaseURL, "TABLESYNC_EMBEDDING_URL")
	overlayString(&c.Embedding.Model, "TABLESYNC_EMBEDDING_MODEL")

	overlayString(&c.State.Backend, "TABLESYNC_STATE_BACKEND")
	overlayString(&c.State.Dir, "TABLESYNC_STATE_DIR")
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("config: field %s failed %q validation", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func overlayString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
