package migrator

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors shared by the migration packages.
var (
	// ErrOperation is returned for user-facing usage errors: duplicate migration
	// names, a missing snapshot or removing an applied migration without force.
	ErrOperation = errors.New("migrator: operation failed")

	// ErrTranslation is returned when a value or an operation cannot be
	// rendered as source code. It signals a defect in provider or extension code.
	ErrTranslation = errors.New("migrator: translation failed")

	// ErrInvalidModel is returned when a model violates its structural invariants.
	ErrInvalidModel = errors.New("migrator: invalid model")

	// ErrInheritanceCycle is returned when entity base types form a cycle.
	ErrInheritanceCycle = errors.New("migrator: inheritance cycle")
)

// OperationError represents a configuration or usage error. It is always
// fatal to the current invocation and is never retried.
type OperationError struct {
	Message string
	Cause   error
}

// Error returns the error string.
func (e *OperationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("migrator: %s: %v", e.Message, e.Cause)
	}
	return "migrator: " + e.Message
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches OperationError.
// This allows errors.Is(opErr, ErrOperation) to return true.
func (e *OperationError) Is(err error) bool {
	return err == ErrOperation
}

// NewOperationError returns a new OperationError with a formatted message.
func NewOperationError(format string, args ...any) *OperationError {
	return &OperationError{Message: fmt.Sprintf(format, args...)}
}

// WrapOperationError returns a new OperationError wrapping cause.
func WrapOperationError(cause error, format string, args ...any) *OperationError {
	return &OperationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsOperationError returns true if the error is an OperationError.
func IsOperationError(err error) bool {
	if err == nil {
		return false
	}
	var e *OperationError
	return errors.As(err, &e) || errors.Is(err, ErrOperation)
}

// UnsupportedLiteralError is returned when a value of an unmapped runtime
// type is passed to the literal formatter.
type UnsupportedLiteralError struct {
	Type string
}

// Error returns the error string.
func (e *UnsupportedLiteralError) Error() string {
	return fmt.Sprintf("migrator: unsupported literal type %s", e.Type)
}

// Is reports whether the target error matches UnsupportedLiteralError.
func (e *UnsupportedLiteralError) Is(err error) bool {
	return err == ErrTranslation
}

// NewUnsupportedLiteralError returns a new UnsupportedLiteralError for the type of v.
func NewUnsupportedLiteralError(v any) *UnsupportedLiteralError {
	return &UnsupportedLiteralError{Type: fmt.Sprintf("%T", v)}
}

// UnknownOperationError is returned by code emitters for an operation they
// cannot dispatch.
type UnknownOperationError struct {
	Operation string
}

// Error returns the error string.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("migrator: unknown operation %s", e.Operation)
}

// Is reports whether the target error matches UnknownOperationError.
func (e *UnknownOperationError) Is(err error) bool {
	return err == ErrTranslation
}

// NewUnknownOperationError returns a new UnknownOperationError for op.
func NewUnknownOperationError(op any) *UnknownOperationError {
	if op == nil {
		return &UnknownOperationError{Operation: "<nil>"}
	}
	return &UnknownOperationError{Operation: fmt.Sprintf("%T", op)}
}

// TranslationError reports an operation whose fields cannot be expressed
// as builder calls, e.g. a constraint naming a column the table lacks.
type TranslationError struct {
	Message string
	Cause   error
}

// Error returns the error string.
func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("migrator: %s: %v", e.Message, e.Cause)
	}
	return "migrator: " + e.Message
}

// Unwrap returns the underlying error.
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches TranslationError.
func (e *TranslationError) Is(err error) bool {
	return err == ErrTranslation
}

// NewTranslationError returns a new TranslationError with a formatted message.
func NewTranslationError(format string, args ...any) *TranslationError {
	return &TranslationError{Message: fmt.Sprintf(format, args...)}
}

// IsTranslationError returns true if the error is any translation error.
func IsTranslationError(err error) bool {
	return err != nil && errors.Is(err, ErrTranslation)
}

// ModelError represents a violated model invariant.
type ModelError struct {
	Entity  string // Entity type name
	Member  string // Property, key or foreign key (if applicable)
	Message string
}

// Error returns the error string.
func (e *ModelError) Error() string {
	var b strings.Builder
	b.WriteString("migrator: invalid model")
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Member != "" {
		b.WriteString(" member ")
		b.WriteString(e.Member)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target error matches ModelError.
func (e *ModelError) Is(err error) bool {
	return err == ErrInvalidModel
}

// NewModelError returns a new ModelError.
func NewModelError(entity, member, message string) *ModelError {
	return &ModelError{Entity: entity, Member: member, Message: message}
}

// InheritanceCycleError lists the entity types caught in a base type cycle.
type InheritanceCycleError struct {
	Entities []string
}

// Error returns the error string.
func (e *InheritanceCycleError) Error() string {
	return fmt.Sprintf("migrator: inheritance cycle between %s", strings.Join(e.Entities, ", "))
}

// Is reports whether the target error matches InheritanceCycleError.
// A cycle is also an invalid model.
func (e *InheritanceCycleError) Is(err error) bool {
	return err == ErrInheritanceCycle || err == ErrInvalidModel
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "migrator: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("migrator: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
