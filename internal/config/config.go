// Package config loads docrank configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/docrank/internal/embeddings"
	"github.com/fyrsmithlabs/docrank/internal/layout"
	"github.com/fyrsmithlabs/docrank/internal/logging"
	"github.com/fyrsmithlabs/docrank/internal/pipeline"
	"github.com/fyrsmithlabs/docrank/internal/scoring"
	"github.com/fyrsmithlabs/docrank/internal/telemetry"
)

// envPrefix namespaces docrank environment overrides:
// DOCRANK_PIPELINE_TOP_K -> pipeline.top_k.
const envPrefix = "DOCRANK_"

const maxConfigFileSize = 1024 * 1024

// ErrConfigTooLarge indicates the config file exceeds the size cap.
var ErrConfigTooLarge = errors.New("config file too large")

// Config is the full docrank configuration.
type Config struct {
	Logging    logging.Config            `koanf:"logging"`
	Telemetry  telemetry.Config          `koanf:"telemetry"`
	Embeddings embeddings.ProviderConfig `koanf:"embeddings"`
	Layout     layout.Config             `koanf:"layout"`
	Scoring    scoring.Config            `koanf:"scoring"`
	Pipeline   pipeline.Config           `koanf:"pipeline"`
}

// ApplyDefaults sets defaults on every section.
func (c *Config) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Layout.ApplyDefaults()
	c.Scoring.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	return c.Pipeline.Validate()
}

// Load reads configuration with precedence, highest first:
//  1. Environment variables (DOCRANK_ prefix)
//  2. YAML file at path, when it exists
//  3. Defaults
//
// An empty path skips the file layer entirely.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// loadFile reads a YAML config file through the rawbytes provider so the
// file is opened exactly once.
func loadFile(k *koanf.Koanf, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// envTransform maps DOCRANK_SECTION_FIELD_NAME to section.field_name: the
// first underscore after the prefix separates the section, the rest stays
// a single field key.
func envTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
