package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("ProductVersion", "x", "unsupported version")

		assert.Contains(t, err.Error(), "migrator: config error")
		assert.Contains(t, err.Error(), "ProductVersion")
		assert.Contains(t, err.Error(), "x")
		assert.Contains(t, err.Error(), "unsupported version")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("ProductVersion", nil, "cannot be empty")

		assert.Contains(t, err.Error(), "cannot be empty")
		assert.NotContains(t, err.Error(), "value:")
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := NewConfigError("Header", nil, "missing")
		assert.True(t, errors.Is(err, ErrMissingConfig))
	})

	t.Run("IsConfigError helper", func(t *testing.T) {
		assert.True(t, IsConfigError(NewConfigError("Header", nil, "missing")))
		assert.False(t, IsConfigError(errors.New("other")))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("unexpected token")
		err := NewGenerationError("snapshot", "ShopContextModelSnapshot", "format", cause)

		assert.Equal(t, "migrator: generation error in phase snapshot (file: ShopContextModelSnapshot): format: unexpected token", err.Error())
	})

	t.Run("Error message with phase only", func(t *testing.T) {
		err := &GenerationError{Phase: "migration"}
		assert.Equal(t, "migrator: generation error in phase migration", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewGenerationError("metadata", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, ErrGenerationFailed))
	})

	t.Run("IsGenerationError helper", func(t *testing.T) {
		assert.True(t, IsGenerationError(NewGenerationError("migration", "", "", nil)))
		assert.False(t, IsGenerationError(errors.New("other")))
	})
}
