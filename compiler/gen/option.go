package gen

import (
	"errors"
	"strings"

	"github.com/syssam/migrator"
)

// Config holds the settings shared by the generators.
type Config struct {
	// Header is written as a comment above the package clause of every
	// generated file.
	Header string
	// ProductVersion is recorded in the target models and snapshots.
	ProductVersion string
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = strings.TrimSpace(header)
		return nil
	}
}

// WithProductVersion sets the product version recorded in generated models.
func WithProductVersion(version string) Option {
	return func(c *Config) error {
		if version == "" {
			return NewConfigError("ProductVersion", nil, "product version cannot be empty")
		}
		c.ProductVersion = version
		return nil
	}
}

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{ProductVersion: migrator.Version}
	if err := c.ApplyAll(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
