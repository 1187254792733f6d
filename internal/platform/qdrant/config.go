package qdrant

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	// VectorDim is checked against the collection on startup when > 0.
	VectorDim int
	Timeout   time.Duration
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; expected absolute URL like http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("invalid QDRANT_VECTOR_DIM=%q; expected non-negative integer", e.Value)
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ConfigFromEnv reads QDRANT_*. An unset QDRANT_URL returns a zero Config
// and no error: retrieval is optional.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:        strings.TrimSpace(envutil.String("QDRANT_URL", "")),
		APIKey:     envutil.String("QDRANT_API_KEY", ""),
		Collection: envutil.String("QDRANT_COLLECTION", "curriculum"),
		VectorDim:  envutil.Int("QDRANT_VECTOR_DIM", 0),
		Timeout:    envutil.Duration("QDRANT_TIMEOUT_SECONDS", 10*time.Second),
	}
	if cfg.URL == "" {
		return Config{}, nil
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.URL) != "" }

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if cfg.VectorDim < 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: fmt.Sprint(cfg.VectorDim)}
	}
	return nil
}
