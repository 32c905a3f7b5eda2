package migrate

import "github.com/syssam/migrator/operation"

// Option configures an optional field of the operation being built.
// Options that do not apply to an operation kind are ignored by it.
type Option func(*options)

type options struct {
	schema              string
	newSchema           string
	principalSchema     string
	comment             string
	oldComment          string
	collation           string
	oldCollation        string
	filter              string
	unique              bool
	suppressTransaction bool
	onUpdate            operation.ReferentialAction
	onDelete            operation.ReferentialAction
	startValue          int64
	column              operation.ColumnSpec
	sequence            operation.SequenceSpec
	oldColumn           *operation.ColumnSpec
	oldSequence         *operation.SequenceSpec
}

func newOptions(opts []Option) *options {
	o := &options{
		startValue: 1,
		sequence:   operation.SequenceSpec{IncrementBy: 1},
	}
	for _, opt := range opts {
		opt(o)
	}
	// Comment and collation are shared by tables, databases and columns.
	o.column.Comment = o.comment
	o.column.Collation = o.collation
	return o
}

// Schema sets the schema of the target object.
func Schema(s string) Option {
	return func(o *options) { o.schema = s }
}

// NewSchema sets the destination schema of a rename.
func NewSchema(s string) Option {
	return func(o *options) { o.newSchema = s }
}

// PrincipalSchema sets the schema of the table a foreign key references.
func PrincipalSchema(s string) Option {
	return func(o *options) { o.principalSchema = s }
}

// Comment sets the comment of a table or column.
func Comment(s string) Option {
	return func(o *options) { o.comment = s }
}

// OldComment sets the comment a table had before an AlterTable.
func OldComment(s string) Option {
	return func(o *options) { o.oldComment = s }
}

// Collation sets the collation of a database or column.
func Collation(s string) Option {
	return func(o *options) { o.collation = s }
}

// OldCollation sets the collation a database had before an AlterDatabase.
func OldCollation(s string) Option {
	return func(o *options) { o.oldCollation = s }
}

// ColumnType sets the store type of a column.
func ColumnType(t string) Option {
	return func(o *options) { o.column.ColumnType = t }
}

// Unicode sets whether a column stores unicode text.
func Unicode(v bool) Option {
	return func(o *options) { o.column.IsUnicode = &v }
}

// FixedLength marks a column as fixed length.
func FixedLength() Option {
	return func(o *options) { o.column.IsFixedLength = true }
}

// MaxLength sets the maximum length of a column.
func MaxLength(n int) Option {
	return func(o *options) { o.column.MaxLength = &n }
}

// Precision sets the numeric precision of a column.
func Precision(n int) Option {
	return func(o *options) { o.column.Precision = &n }
}

// Scale sets the numeric scale of a column.
func Scale(n int) Option {
	return func(o *options) { o.column.Scale = &n }
}

// RowVersion marks a column as a row version.
func RowVersion() Option {
	return func(o *options) { o.column.IsRowVersion = true }
}

// Nullable marks a column as nullable.
func Nullable() Option {
	return func(o *options) { o.column.IsNullable = true }
}

// DefaultValue sets the default value of a column.
func DefaultValue(v any) Option {
	return func(o *options) { o.column.DefaultValue = v }
}

// DefaultValueSQL sets the SQL expression used as column default.
func DefaultValueSQL(sql string) Option {
	return func(o *options) { o.column.DefaultValueSQL = sql }
}

// ComputedColumnSQL sets the SQL expression computing a column.
func ComputedColumnSQL(sql string) Option {
	return func(o *options) { o.column.ComputedColumnSQL = sql }
}

// OnUpdate sets the referential action of a foreign key on update.
func OnUpdate(a operation.ReferentialAction) Option {
	return func(o *options) { o.onUpdate = a }
}

// OnDelete sets the referential action of a foreign key on delete.
func OnDelete(a operation.ReferentialAction) Option {
	return func(o *options) { o.onDelete = a }
}

// Unique marks an index as unique.
func Unique() Option {
	return func(o *options) { o.unique = true }
}

// Filter sets the SQL filter of a partial index.
func Filter(sql string) Option {
	return func(o *options) { o.filter = sql }
}

// StartValue sets the first value of a new sequence.
func StartValue(v int64) Option {
	return func(o *options) { o.startValue = v }
}

// IncrementBy sets the step of a sequence.
func IncrementBy(v int) Option {
	return func(o *options) { o.sequence.IncrementBy = v }
}

// MinValue sets the minimum value of a sequence.
func MinValue(v int64) Option {
	return func(o *options) { o.sequence.MinValue = &v }
}

// MaxValue sets the maximum value of a sequence.
func MaxValue(v int64) Option {
	return func(o *options) { o.sequence.MaxValue = &v }
}

// Cyclic makes a sequence restart after reaching its bound.
func Cyclic() Option {
	return func(o *options) { o.sequence.IsCyclic = true }
}

// SuppressTransaction runs a SQL operation outside the migration transaction.
func SuppressTransaction() Option {
	return func(o *options) { o.suppressTransaction = true }
}

// OldColumn describes the column before an AlterColumn.
func OldColumn(clrType string, opts ...Option) Option {
	return func(o *options) {
		old := newOptions(opts).column
		old.ClrType = clrType
		o.oldColumn = &old
	}
}

// OldSequence describes the sequence before an AlterSequence.
func OldSequence(opts ...Option) Option {
	return func(o *options) {
		old := newOptions(opts).sequence
		o.oldSequence = &old
	}
}
