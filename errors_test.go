package migrator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/migrator"
)

func TestOperationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := migrator.NewOperationError("the name %q is used by an existing migration", "AddEmail")
		assert.Equal(t, `migrator: the name "AddEmail" is used by an existing migration`, err.Error())
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := migrator.WrapOperationError(cause, "read history")
		assert.Equal(t, "migrator: read history: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("IsOperationError", func(t *testing.T) {
		err := migrator.NewOperationError("no snapshot")
		assert.True(t, errors.Is(err, migrator.ErrOperation))
		assert.True(t, migrator.IsOperationError(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, migrator.IsOperationError(migrator.ErrOperation))
		assert.False(t, migrator.IsOperationError(errors.New("other error")))
		assert.False(t, migrator.IsOperationError(nil))
	})
}

func TestTranslationErrors(t *testing.T) {
	t.Run("UnsupportedLiteral", func(t *testing.T) {
		err := migrator.NewUnsupportedLiteralError(struct{ A int }{})
		assert.Equal(t, "migrator: unsupported literal type struct { A int }", err.Error())
		assert.True(t, migrator.IsTranslationError(err))
		assert.False(t, migrator.IsOperationError(err))
	})

	t.Run("UnknownOperation", func(t *testing.T) {
		err := migrator.NewUnknownOperationError(nil)
		assert.Equal(t, "migrator: unknown operation <nil>", err.Error())
		assert.True(t, migrator.IsTranslationError(fmt.Errorf("emit: %w", err)))
	})

	t.Run("Translation", func(t *testing.T) {
		err := migrator.NewTranslationError("column %q not found", "Id")
		assert.True(t, errors.Is(err, migrator.ErrTranslation))
		assert.False(t, migrator.IsTranslationError(nil))
	})
}

func TestModelErrors(t *testing.T) {
	t.Run("ModelError", func(t *testing.T) {
		err := migrator.NewModelError("Order", "CustomerId", "property not found")
		assert.Equal(t, "migrator: invalid model on entity Order member CustomerId: property not found", err.Error())
		assert.ErrorIs(t, err, migrator.ErrInvalidModel)
	})

	t.Run("InheritanceCycle", func(t *testing.T) {
		err := &migrator.InheritanceCycleError{Entities: []string{"A", "B"}}
		assert.Equal(t, "migrator: inheritance cycle between A, B", err.Error())
		assert.ErrorIs(t, err, migrator.ErrInheritanceCycle)
		assert.ErrorIs(t, err, migrator.ErrInvalidModel)
	})
}

func TestAggregateError(t *testing.T) {
	assert.NoError(t, migrator.NewAggregateError(nil, nil))

	single := errors.New("one")
	assert.Same(t, single, migrator.NewAggregateError(nil, single))

	err := migrator.NewAggregateError(
		migrator.NewModelError("A", "", "missing key"),
		&migrator.InheritanceCycleError{Entities: []string{"B"}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple errors")
	assert.ErrorIs(t, err, migrator.ErrInheritanceCycle)
	assert.ErrorIs(t, err, migrator.ErrInvalidModel)
}
