// Package migrate is the runtime generated migrations are written against:
// a fluent builder recording schema operations, the contracts generated
// types implement and the registry they join from init.
package migrate

import (
	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// Builder records schema operations in call order.
type Builder struct {
	ops []operation.Operation
}

// NewBuilder returns an empty operation builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Operations returns the recorded operations.
func (b *Builder) Operations() []operation.Operation {
	return b.ops
}

func (b *Builder) add(op operation.Operation) *OperationBuilder {
	operation.MarkDestructive(op)
	b.ops = append(b.ops, op)
	return &OperationBuilder{op: op}
}

func (b *Builder) alter(op operation.Operation, old *model.Annotations) *AlterOperationBuilder {
	return &AlterOperationBuilder{OperationBuilder: *b.add(op), old: old}
}

// AddColumn adds a column to table.
func (b *Builder) AddColumn(name, table, clrType string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	op := &operation.AddColumn{Name: name, Schema: o.schema, Table: table, ColumnSpec: o.column}
	op.ClrType = clrType
	return b.add(op)
}

// AddForeignKey adds a foreign key from columns of table to principalColumns
// of principalTable.
func (b *Builder) AddForeignKey(name, table string, columns []string, principalTable string, principalColumns []string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.AddForeignKey{
		Name:             name,
		Schema:           o.schema,
		Table:            table,
		Columns:          columns,
		PrincipalSchema:  o.principalSchema,
		PrincipalTable:   principalTable,
		PrincipalColumns: principalColumns,
		OnUpdate:         o.onUpdate,
		OnDelete:         o.onDelete,
	})
}

// AddPrimaryKey adds a primary key over columns of table.
func (b *Builder) AddPrimaryKey(name, table string, columns []string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.AddPrimaryKey{Name: name, Schema: o.schema, Table: table, Columns: columns})
}

// AddUniqueConstraint adds a unique constraint over columns of table.
func (b *Builder) AddUniqueConstraint(name, table string, columns []string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.AddUniqueConstraint{Name: name, Schema: o.schema, Table: table, Columns: columns})
}

// AlterColumn changes a column. Use OldColumn to describe its previous state.
func (b *Builder) AlterColumn(name, table, clrType string, opts ...Option) *AlterOperationBuilder {
	o := newOptions(opts)
	op := &operation.AlterColumn{Name: name, Schema: o.schema, Table: table, ColumnSpec: o.column}
	op.ClrType = clrType
	if o.oldColumn != nil {
		op.Old = *o.oldColumn
	}
	return b.alter(op, &op.OldAnnotations)
}

// AlterDatabase changes database-wide settings.
func (b *Builder) AlterDatabase(opts ...Option) *AlterOperationBuilder {
	o := newOptions(opts)
	op := &operation.AlterDatabase{Collation: o.collation, OldCollation: o.oldCollation}
	return b.alter(op, &op.OldAnnotations)
}

// AlterSequence changes a sequence. Use OldSequence to describe its previous state.
func (b *Builder) AlterSequence(name string, opts ...Option) *AlterOperationBuilder {
	o := newOptions(opts)
	op := &operation.AlterSequence{Name: name, Schema: o.schema, SequenceSpec: o.sequence}
	if o.oldSequence != nil {
		op.Old = *o.oldSequence
	}
	return b.alter(op, &op.OldAnnotations)
}

// AlterTable changes table-level settings.
func (b *Builder) AlterTable(name string, opts ...Option) *AlterOperationBuilder {
	o := newOptions(opts)
	op := &operation.AlterTable{Name: name, Schema: o.schema, Comment: o.comment, OldComment: o.oldComment}
	return b.alter(op, &op.OldAnnotations)
}

// CreateIndex creates an index over columns of table.
func (b *Builder) CreateIndex(name, table string, columns []string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.CreateIndex{
		Name:     name,
		Schema:   o.schema,
		Table:    table,
		Columns:  columns,
		IsUnique: o.unique,
		Filter:   o.filter,
	})
}

// CreateSequence creates a sequence of clrType values.
func (b *Builder) CreateSequence(name, clrType string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.CreateSequence{
		Name:         name,
		Schema:       o.schema,
		ClrType:      clrType,
		StartValue:   o.startValue,
		SequenceSpec: o.sequence,
	})
}

// CreateTable creates a table. The columns function declares the columns
// and constraints of the table.
func (b *Builder) CreateTable(name string, columns func(t *CreateTableBuilder), opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	op := &operation.CreateTable{Name: name, Schema: o.schema, Comment: o.comment}
	if columns != nil {
		columns(&CreateTableBuilder{op: op})
	}
	return b.add(op)
}

// DropColumn drops a column of table.
func (b *Builder) DropColumn(name, table string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.DropColumn{Name: name, Schema: o.schema, Table: table})
}

// DropForeignKey drops a foreign key of table.
func (b *Builder) DropForeignKey(name, table string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.DropForeignKey{Name: name, Schema: o.schema, Table: table})
}

// DropIndex drops an index of table.
func (b *Builder) DropIndex(name, table string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.DropIndex{Name: name, Schema: o.schema, Table: table})
}

// DropPrimaryKey drops the primary key of table.
func (b *Builder) DropPrimaryKey(name, table string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.DropPrimaryKey{Name: name, Schema: o.schema, Table: table})
}

// DropSchema drops a schema.
func (b *Builder) DropSchema(name string) *OperationBuilder {
	return b.add(&operation.DropSchema{Name: name})
}

// DropSequence drops a sequence.
func (b *Builder) DropSequence(name string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.DropSequence{Name: name, Schema: o.schema})
}

// DropTable drops a table.
func (b *Builder) DropTable(name string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.DropTable{Name: name, Schema: o.schema})
}

// DropUniqueConstraint drops a unique constraint of table.
func (b *Builder) DropUniqueConstraint(name, table string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.DropUniqueConstraint{Name: name, Schema: o.schema, Table: table})
}

// EnsureSchema creates a schema if it does not exist.
func (b *Builder) EnsureSchema(name string) *OperationBuilder {
	return b.add(&operation.EnsureSchema{Name: name})
}

// RenameColumn renames a column of table.
func (b *Builder) RenameColumn(name, table, newName string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.RenameColumn{Name: name, Schema: o.schema, Table: table, NewName: newName})
}

// RenameIndex renames an index of table.
func (b *Builder) RenameIndex(name, table, newName string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.RenameIndex{Name: name, Schema: o.schema, Table: table, NewName: newName})
}

// RenameSequence renames a sequence. Use NewSchema to move it.
func (b *Builder) RenameSequence(name, newName string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.RenameSequence{Name: name, Schema: o.schema, NewName: newName, NewSchema: o.newSchema})
}

// RenameTable renames a table. Use NewSchema to move it.
func (b *Builder) RenameTable(name, newName string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.RenameTable{Name: name, Schema: o.schema, NewName: newName, NewSchema: o.newSchema})
}

// RestartSequence restarts a sequence at startValue.
func (b *Builder) RestartSequence(name string, startValue int64, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.RestartSequence{Name: name, Schema: o.schema, StartValue: startValue})
}

// SQL runs raw SQL.
func (b *Builder) SQL(sql string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	return b.add(&operation.SQL{SQL: sql, SuppressTransaction: o.suppressTransaction})
}

// OperationBuilder annotates a recorded operation.
type OperationBuilder struct {
	op operation.Operation
}

// Annotation sets an annotation on the operation.
func (o *OperationBuilder) Annotation(name string, value any) *OperationBuilder {
	o.op.Meta().Annotations.Set(name, value)
	return o
}

// Operation returns the recorded operation.
func (o *OperationBuilder) Operation() operation.Operation {
	return o.op
}

// AlterOperationBuilder annotates a recorded Alter operation with both its
// new and previous annotations.
type AlterOperationBuilder struct {
	OperationBuilder
	old *model.Annotations
}

// Annotation sets an annotation on the operation.
func (o *AlterOperationBuilder) Annotation(name string, value any) *AlterOperationBuilder {
	o.OperationBuilder.Annotation(name, value)
	return o
}

// OldAnnotation sets an annotation the altered object had before the change.
func (o *AlterOperationBuilder) OldAnnotation(name string, value any) *AlterOperationBuilder {
	o.old.Set(name, value)
	return o
}

// CreateTableBuilder declares the columns and constraints of a new table.
type CreateTableBuilder struct {
	op *operation.CreateTable
}

// Column declares a column. The returned builder is passed to constraint
// declarations referencing the column.
func (t *CreateTableBuilder) Column(name, clrType string, opts ...Option) *ColumnBuilder {
	o := newOptions(opts)
	col := &operation.AddColumn{Name: name, Schema: t.op.Schema, Table: t.op.Name, ColumnSpec: o.column}
	col.ClrType = clrType
	t.op.Columns = append(t.op.Columns, col)
	return &ColumnBuilder{op: col}
}

// PrimaryKey declares the primary key of the table.
func (t *CreateTableBuilder) PrimaryKey(name string, columns ...*ColumnBuilder) *OperationBuilder {
	t.op.PrimaryKey = &operation.AddPrimaryKey{Name: name, Schema: t.op.Schema, Table: t.op.Name, Columns: columnNames(columns)}
	return &OperationBuilder{op: t.op.PrimaryKey}
}

// UniqueConstraint declares a unique constraint of the table.
func (t *CreateTableBuilder) UniqueConstraint(name string, columns ...*ColumnBuilder) *OperationBuilder {
	uc := &operation.AddUniqueConstraint{Name: name, Schema: t.op.Schema, Table: t.op.Name, Columns: columnNames(columns)}
	t.op.UniqueConstraints = append(t.op.UniqueConstraints, uc)
	return &OperationBuilder{op: uc}
}

// ForeignKey declares a foreign key of the table.
func (t *CreateTableBuilder) ForeignKey(name string, columns []*ColumnBuilder, principalTable string, principalColumns []string, opts ...Option) *OperationBuilder {
	o := newOptions(opts)
	fk := &operation.AddForeignKey{
		Name:             name,
		Schema:           t.op.Schema,
		Table:            t.op.Name,
		Columns:          columnNames(columns),
		PrincipalSchema:  o.principalSchema,
		PrincipalTable:   principalTable,
		PrincipalColumns: principalColumns,
		OnUpdate:         o.onUpdate,
		OnDelete:         o.onDelete,
	}
	t.op.ForeignKeys = append(t.op.ForeignKeys, fk)
	return &OperationBuilder{op: fk}
}

// ColumnBuilder refers to a column declared in CreateTable.
type ColumnBuilder struct {
	op *operation.AddColumn
}

// Annotation sets an annotation on the column.
func (c *ColumnBuilder) Annotation(name string, value any) *ColumnBuilder {
	c.op.Annotations.Set(name, value)
	return c
}

// Name returns the column name.
func (c *ColumnBuilder) Name() string {
	return c.op.Name
}

func columnNames(columns []*ColumnBuilder) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.op.Name
	}
	return names
}
