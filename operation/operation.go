// Package operation defines the closed set of schema operations a migration
// applies. Operations are produced by the differ and consumed by emitters;
// they are never mutated once built.
package operation

import "github.com/syssam/migrator/model"

// Kind identifies an operation type.
type Kind uint8

const (
	KindAddColumn Kind = iota + 1
	KindAddForeignKey
	KindAddPrimaryKey
	KindAddUniqueConstraint
	KindAlterColumn
	KindAlterDatabase
	KindAlterSequence
	KindAlterTable
	KindCreateIndex
	KindCreateSequence
	KindCreateTable
	KindDropColumn
	KindDropForeignKey
	KindDropIndex
	KindDropPrimaryKey
	KindDropSchema
	KindDropSequence
	KindDropTable
	KindDropUniqueConstraint
	KindEnsureSchema
	KindRenameColumn
	KindRenameIndex
	KindRenameSequence
	KindRenameTable
	KindRestartSequence
	KindSQL
)

var kindNames = [...]string{
	KindAddColumn:            "AddColumn",
	KindAddForeignKey:        "AddForeignKey",
	KindAddPrimaryKey:        "AddPrimaryKey",
	KindAddUniqueConstraint:  "AddUniqueConstraint",
	KindAlterColumn:          "AlterColumn",
	KindAlterDatabase:        "AlterDatabase",
	KindAlterSequence:        "AlterSequence",
	KindAlterTable:           "AlterTable",
	KindCreateIndex:          "CreateIndex",
	KindCreateSequence:       "CreateSequence",
	KindCreateTable:          "CreateTable",
	KindDropColumn:           "DropColumn",
	KindDropForeignKey:       "DropForeignKey",
	KindDropIndex:            "DropIndex",
	KindDropPrimaryKey:       "DropPrimaryKey",
	KindDropSchema:           "DropSchema",
	KindDropSequence:         "DropSequence",
	KindDropTable:            "DropTable",
	KindDropUniqueConstraint: "DropUniqueConstraint",
	KindEnsureSchema:         "EnsureSchema",
	KindRenameColumn:         "RenameColumn",
	KindRenameIndex:          "RenameIndex",
	KindRenameSequence:       "RenameSequence",
	KindRenameTable:          "RenameTable",
	KindRestartSequence:      "RestartSequence",
	KindSQL:                  "SQL",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}

// Operation is one atomic schema change. The set of implementations is
// closed: every operation embeds Base and is dispatched through Visitor.
type Operation interface {
	Kind() Kind
	Accept(Visitor) error
	// Meta returns the annotations and flags shared by all operations.
	Meta() *Base
}

// Base carries the fields common to all operations.
type Base struct {
	Annotations         model.Annotations
	IsDestructiveChange bool
}

// Meta implements Operation.
func (b *Base) Meta() *Base { return b }

// ReferentialAction is the action taken on dependent rows when the
// referenced row changes. The zero value leaves the database default.
type ReferentialAction string

const (
	NoAction   ReferentialAction = "NO ACTION"
	Restrict   ReferentialAction = "RESTRICT"
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	SetDefault ReferentialAction = "SET DEFAULT"
)

// ColumnSpec describes a column. It is shared by AddColumn, the new and old
// sides of AlterColumn and the columns of CreateTable.
type ColumnSpec struct {
	ClrType           string
	ColumnType        string
	IsUnicode         *bool
	IsFixedLength     bool
	MaxLength         *int
	Precision         *int
	Scale             *int
	IsRowVersion      bool
	IsNullable        bool
	DefaultValue      any
	DefaultValueSQL   string
	ComputedColumnSQL string
	Comment           string
	Collation         string
}

// SequenceSpec holds the alterable settings of a sequence.
// IncrementBy defaults to 1.
type SequenceSpec struct {
	IncrementBy int
	MinValue    *int64
	MaxValue    *int64
	IsCyclic    bool
}

// Visitor dispatches on the concrete operation type. Adding an operation
// kind adds a method here, so every visitor must handle it.
type Visitor interface {
	VisitAddColumn(*AddColumn) error
	VisitAddForeignKey(*AddForeignKey) error
	VisitAddPrimaryKey(*AddPrimaryKey) error
	VisitAddUniqueConstraint(*AddUniqueConstraint) error
	VisitAlterColumn(*AlterColumn) error
	VisitAlterDatabase(*AlterDatabase) error
	VisitAlterSequence(*AlterSequence) error
	VisitAlterTable(*AlterTable) error
	VisitCreateIndex(*CreateIndex) error
	VisitCreateSequence(*CreateSequence) error
	VisitCreateTable(*CreateTable) error
	VisitDropColumn(*DropColumn) error
	VisitDropForeignKey(*DropForeignKey) error
	VisitDropIndex(*DropIndex) error
	VisitDropPrimaryKey(*DropPrimaryKey) error
	VisitDropSchema(*DropSchema) error
	VisitDropSequence(*DropSequence) error
	VisitDropTable(*DropTable) error
	VisitDropUniqueConstraint(*DropUniqueConstraint) error
	VisitEnsureSchema(*EnsureSchema) error
	VisitRenameColumn(*RenameColumn) error
	VisitRenameIndex(*RenameIndex) error
	VisitRenameSequence(*RenameSequence) error
	VisitRenameTable(*RenameTable) error
	VisitRestartSequence(*RestartSequence) error
	VisitSQL(*SQL) error
}

// IsDestructive reports whether op was flagged as possibly losing data.
func IsDestructive(op Operation) bool {
	return op != nil && op.Meta().IsDestructiveChange
}

// AnyDestructive reports whether any of ops was flagged as destructive.
func AnyDestructive(ops []Operation) bool {
	for _, op := range ops {
		if IsDestructive(op) {
			return true
		}
	}
	return false
}
