package scaffold

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/compiler/gen"
	"github.com/syssam/migrator/dialect"
	"github.com/syssam/migrator/dialect/sql/history"
)

// ConfigFile is the default name of the scaffolder configuration file.
const ConfigFile = "migrations.yaml"

// DefaultNamespace is the sub-namespace migrations are placed in when none
// is given.
const DefaultNamespace = "Migrations"

// Config holds the scaffolder settings.
type Config struct {
	// Context names the context type owning the migrations.
	Context string `yaml:"context"`
	// Namespace is the default sub-namespace of new migrations.
	Namespace string `yaml:"namespace,omitempty"`
	// Header is written above the package clause of generated files.
	Header string `yaml:"header,omitempty"`
	// ProductVersion is recorded in generated models.
	ProductVersion string `yaml:"product_version,omitempty"`
	// History locates the database whose applied migrations guard removal.
	History *HistoryConfig `yaml:"history,omitempty"`
}

// HistoryConfig locates the history table.
type HistoryConfig struct {
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table,omitempty"`
}

// Option configures the scaffolder.
type Option func(*Config) error

// WithContext sets the owning context type.
func WithContext(name string) Option {
	return func(c *Config) error {
		if strings.TrimSpace(name) == "" {
			return gen.NewConfigError("Context", name, "context type cannot be empty")
		}
		c.Context = name
		return nil
	}
}

// WithNamespace sets the default sub-namespace of new migrations.
func WithNamespace(ns string) Option {
	return func(c *Config) error {
		c.Namespace = ns
		return nil
	}
}

// WithHeader sets the header comment of generated files.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithProductVersion sets the product version recorded in generated models.
func WithProductVersion(version string) Option {
	return func(c *Config) error {
		if version == "" {
			return gen.NewConfigError("ProductVersion", version, "product version cannot be empty")
		}
		c.ProductVersion = version
		return nil
	}
}

// WithHistory sets the database holding the history table.
func WithHistory(name, dsn string) Option {
	return func(c *Config) error {
		if err := dialect.Validate(name); err != nil {
			return gen.NewConfigError("History.Dialect", name, err.Error())
		}
		c.History = &HistoryConfig{Dialect: name, DSN: dsn}
		return nil
	}
}

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{Namespace: DefaultNamespace, ProductVersion: migrator.Version}
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfig reads the configuration at path and applies opts on top of
// it. A missing file yields the default configuration.
func LoadConfig(path string, opts ...Option) (*Config, error) {
	c := &Config{Namespace: DefaultNamespace, ProductVersion: migrator.Version}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read scaffold config: %w", err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse scaffold config %s: %w", path, err)
		}
	}
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) apply(opts []Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	return errors.Join(errs...)
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Context) == "" {
		return gen.NewConfigError("Context", c.Context, "context type is required")
	}
	if c.History != nil {
		if err := dialect.Validate(c.History.Dialect); err != nil {
			return gen.NewConfigError("History.Dialect", c.History.Dialect, err.Error())
		}
	}
	return nil
}

// GeneratorOptions returns the code generation options of c.
func (c *Config) GeneratorOptions() []gen.Option {
	opts := []gen.Option{gen.WithHeader(c.Header)}
	if c.ProductVersion != "" {
		opts = append(opts, gen.WithProductVersion(c.ProductVersion))
	}
	return opts
}

// OpenHistory opens the configured history repository. It returns nil
// when no history database is configured.
func (c *Config) OpenHistory(logger *slog.Logger) (*history.Repository, error) {
	if c.History == nil {
		return nil, nil
	}
	return history.Open(c.History.Dialect, c.History.DSN,
		history.WithTable(c.History.Table), history.WithLogger(logger))
}
