package diff

import (
	"fmt"
	"strings"

	"github.com/syssam/migrator/operation"
)

// ValidationError reports one risky operation.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking is set when the change may lose data or fail on existing rows.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the findings of Validate.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if any finding is breaking.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, list := range [][]*ValidationError{r.Errors, r.Warnings} {
		for _, e := range list {
			if e.Breaking {
				return true
			}
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, list []*ValidationError) {
		if len(list) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range list {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures Validate.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

// AllowDropColumn reports dropped columns as warnings instead of errors.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable reports dropped tables as warnings instead of errors.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowDropIndex reports dropped indexes as warnings instead of errors.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropIndex = true
	}
}

// AllowNullToNotNull reports columns becoming required as warnings
// instead of errors.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// AllowAll reports every finding as a warning.
func AllowAll() ValidateOption {
	return func(c *validateConfig) {
		*c = validateConfig{true, true, true, true}
	}
}

// Validate inspects ops for changes that may lose data or fail against a
// populated database.
//
// Example:
//
//	result := diff.Validate(ops)
//	if result.HasBreakingChanges() {
//	    log.Fatal("Breaking changes detected:", result)
//	}
func Validate(ops []operation.Operation, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	v := &validator{cfg: cfg, result: &ValidationResult{}}
	for _, op := range ops {
		v.check(op)
	}
	return v.result
}

type validator struct {
	cfg    *validateConfig
	result *ValidationResult
}

// report adds e as an error, or as a warning when allowed.
func (v *validator) report(e *ValidationError, allowed bool) {
	if allowed {
		v.result.Warnings = append(v.result.Warnings, e)
	} else {
		v.result.Errors = append(v.result.Errors, e)
	}
}

func (v *validator) warn(e *ValidationError) {
	v.result.Warnings = append(v.result.Warnings, e)
}

func (v *validator) check(op operation.Operation) {
	switch op := op.(type) {
	case *operation.DropTable:
		v.report(&ValidationError{Table: op.Name, Message: "table will be dropped", Breaking: true}, v.cfg.allowDropTable)
	case *operation.DropColumn:
		v.report(&ValidationError{Table: op.Table, Column: op.Name, Message: "column will be dropped", Breaking: true}, v.cfg.allowDropColumn)
	case *operation.DropIndex:
		v.report(&ValidationError{Table: op.Table, Message: fmt.Sprintf("index %q will be dropped", op.Name)}, v.cfg.allowDropIndex)
	case *operation.AddColumn:
		if !op.IsNullable && op.DefaultValue == nil && op.DefaultValueSQL == "" && op.ComputedColumnSQL == "" {
			v.warn(&ValidationError{Table: op.Table, Column: op.Name, Message: "new NOT NULL column without default value may fail if table has data"})
		}
	case *operation.AlterColumn:
		v.checkAlter(op)
	case *operation.AddUniqueConstraint:
		v.warn(&ValidationError{Table: op.Table, Message: fmt.Sprintf("adding UNIQUE constraint %q may fail if duplicate values exist", op.Name)})
	case *operation.CreateIndex:
		if op.IsUnique {
			v.warn(&ValidationError{Table: op.Table, Message: fmt.Sprintf("unique index %q may fail if duplicate values exist", op.Name)})
		}
	case *operation.CreateTable:
		if op.PrimaryKey == nil {
			v.warn(&ValidationError{Table: op.Name, Message: "table has no primary key"})
		}
	}
}

func (v *validator) checkAlter(op *operation.AlterColumn) {
	if op.ClrType != op.Old.ClrType || op.ColumnType != op.Old.ColumnType {
		from, to := op.Old.ClrType, op.ClrType
		if op.ColumnType != op.Old.ColumnType {
			from, to = op.Old.ColumnType, op.ColumnType
		}
		v.warn(&ValidationError{Table: op.Table, Column: op.Name, Message: fmt.Sprintf("column type changing from %v to %v", from, to)})
	}
	if op.Old.IsNullable && !op.IsNullable {
		v.report(&ValidationError{
			Table:    op.Table,
			Column:   op.Name,
			Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
			Breaking: true,
		}, v.cfg.allowNullToNotNull)
	}
	if op.MaxLength != nil && op.Old.MaxLength != nil && *op.MaxLength < *op.Old.MaxLength {
		v.warn(&ValidationError{
			Table:   op.Table,
			Column:  op.Name,
			Message: fmt.Sprintf("column size reducing from %d to %d may truncate data", *op.Old.MaxLength, *op.MaxLength),
		})
	}
}
