package operation

import "github.com/syssam/migrator/model"

// AddColumn adds a column to an existing table.
type AddColumn struct {
	Base
	Name   string
	Schema string
	Table  string
	ColumnSpec
}

// AddForeignKey adds a foreign key constraint.
type AddForeignKey struct {
	Base
	Name             string
	Schema           string
	Table            string
	Columns          []string
	PrincipalSchema  string
	PrincipalTable   string
	PrincipalColumns []string
	OnUpdate         ReferentialAction
	OnDelete         ReferentialAction
}

// AddPrimaryKey adds a primary key constraint.
type AddPrimaryKey struct {
	Base
	Name    string
	Schema  string
	Table   string
	Columns []string
}

// AddUniqueConstraint adds a unique constraint.
type AddUniqueConstraint struct {
	Base
	Name    string
	Schema  string
	Table   string
	Columns []string
}

// AlterColumn changes a column. Old describes the column before the change.
type AlterColumn struct {
	Base
	Name   string
	Schema string
	Table  string
	ColumnSpec
	Old            ColumnSpec
	OldAnnotations model.Annotations
}

// AlterDatabase changes database-wide settings.
type AlterDatabase struct {
	Base
	Collation      string
	OldCollation   string
	OldAnnotations model.Annotations
}

// AlterSequence changes a sequence. Old describes the sequence before the change.
type AlterSequence struct {
	Base
	Name   string
	Schema string
	SequenceSpec
	Old            SequenceSpec
	OldAnnotations model.Annotations
}

// AlterTable changes table-level settings.
type AlterTable struct {
	Base
	Name           string
	Schema         string
	Comment        string
	OldComment     string
	OldAnnotations model.Annotations
}

// CreateIndex creates an index.
type CreateIndex struct {
	Base
	Name     string
	Schema   string
	Table    string
	Columns  []string
	IsUnique bool
	Filter   string
}

// CreateSequence creates a sequence. StartValue defaults to 1.
type CreateSequence struct {
	Base
	Name       string
	Schema     string
	ClrType    string
	StartValue int64
	SequenceSpec
}

// CreateTable creates a table with its columns and constraints.
type CreateTable struct {
	Base
	Name              string
	Schema            string
	Comment           string
	Columns           []*AddColumn
	PrimaryKey        *AddPrimaryKey
	UniqueConstraints []*AddUniqueConstraint
	ForeignKeys       []*AddForeignKey
}

// DropColumn drops a column.
type DropColumn struct {
	Base
	Name   string
	Schema string
	Table  string
}

// DropForeignKey drops a foreign key constraint.
type DropForeignKey struct {
	Base
	Name   string
	Schema string
	Table  string
}

// DropIndex drops an index.
type DropIndex struct {
	Base
	Name   string
	Schema string
	Table  string
}

// DropPrimaryKey drops a primary key constraint.
type DropPrimaryKey struct {
	Base
	Name   string
	Schema string
	Table  string
}

// DropSchema drops a schema.
type DropSchema struct {
	Base
	Name string
}

// DropSequence drops a sequence.
type DropSequence struct {
	Base
	Name   string
	Schema string
}

// DropTable drops a table.
type DropTable struct {
	Base
	Name   string
	Schema string
}

// DropUniqueConstraint drops a unique constraint.
type DropUniqueConstraint struct {
	Base
	Name   string
	Schema string
	Table  string
}

// EnsureSchema creates a schema if it does not exist.
type EnsureSchema struct {
	Base
	Name string
}

// RenameColumn renames a column.
type RenameColumn struct {
	Base
	Name    string
	Schema  string
	Table   string
	NewName string
}

// RenameIndex renames an index.
type RenameIndex struct {
	Base
	Name    string
	Schema  string
	Table   string
	NewName string
}

// RenameSequence renames a sequence or moves it to another schema.
type RenameSequence struct {
	Base
	Name      string
	Schema    string
	NewName   string
	NewSchema string
}

// RenameTable renames a table or moves it to another schema.
type RenameTable struct {
	Base
	Name      string
	Schema    string
	NewName   string
	NewSchema string
}

// RestartSequence restarts a sequence at StartValue.
type RestartSequence struct {
	Base
	Name       string
	Schema     string
	StartValue int64
}

// SQL runs raw SQL.
type SQL struct {
	Base
	SQL                 string
	SuppressTransaction bool
}

func (*AddColumn) Kind() Kind { return KindAddColumn }
func (o *AddColumn) Accept(v Visitor) error { return v.VisitAddColumn(o) }

func (*AddForeignKey) Kind() Kind { return KindAddForeignKey }
func (o *AddForeignKey) Accept(v Visitor) error { return v.VisitAddForeignKey(o) }

func (*AddPrimaryKey) Kind() Kind { return KindAddPrimaryKey }
func (o *AddPrimaryKey) Accept(v Visitor) error { return v.VisitAddPrimaryKey(o) }

func (*AddUniqueConstraint) Kind() Kind { return KindAddUniqueConstraint }
func (o *AddUniqueConstraint) Accept(v Visitor) error { return v.VisitAddUniqueConstraint(o) }

func (*AlterColumn) Kind() Kind { return KindAlterColumn }
func (o *AlterColumn) Accept(v Visitor) error { return v.VisitAlterColumn(o) }

func (*AlterDatabase) Kind() Kind { return KindAlterDatabase }
func (o *AlterDatabase) Accept(v Visitor) error { return v.VisitAlterDatabase(o) }

func (*AlterSequence) Kind() Kind { return KindAlterSequence }
func (o *AlterSequence) Accept(v Visitor) error { return v.VisitAlterSequence(o) }

func (*AlterTable) Kind() Kind { return KindAlterTable }
func (o *AlterTable) Accept(v Visitor) error { return v.VisitAlterTable(o) }

func (*CreateIndex) Kind() Kind { return KindCreateIndex }
func (o *CreateIndex) Accept(v Visitor) error { return v.VisitCreateIndex(o) }

func (*CreateSequence) Kind() Kind { return KindCreateSequence }
func (o *CreateSequence) Accept(v Visitor) error { return v.VisitCreateSequence(o) }

func (*CreateTable) Kind() Kind { return KindCreateTable }
func (o *CreateTable) Accept(v Visitor) error { return v.VisitCreateTable(o) }

func (*DropColumn) Kind() Kind { return KindDropColumn }
func (o *DropColumn) Accept(v Visitor) error { return v.VisitDropColumn(o) }

func (*DropForeignKey) Kind() Kind { return KindDropForeignKey }
func (o *DropForeignKey) Accept(v Visitor) error { return v.VisitDropForeignKey(o) }

func (*DropIndex) Kind() Kind { return KindDropIndex }
func (o *DropIndex) Accept(v Visitor) error { return v.VisitDropIndex(o) }

func (*DropPrimaryKey) Kind() Kind { return KindDropPrimaryKey }
func (o *DropPrimaryKey) Accept(v Visitor) error { return v.VisitDropPrimaryKey(o) }

func (*DropSchema) Kind() Kind { return KindDropSchema }
func (o *DropSchema) Accept(v Visitor) error { return v.VisitDropSchema(o) }

func (*DropSequence) Kind() Kind { return KindDropSequence }
func (o *DropSequence) Accept(v Visitor) error { return v.VisitDropSequence(o) }

func (*DropTable) Kind() Kind { return KindDropTable }
func (o *DropTable) Accept(v Visitor) error { return v.VisitDropTable(o) }

func (*DropUniqueConstraint) Kind() Kind { return KindDropUniqueConstraint }
func (o *DropUniqueConstraint) Accept(v Visitor) error { return v.VisitDropUniqueConstraint(o) }

func (*EnsureSchema) Kind() Kind { return KindEnsureSchema }
func (o *EnsureSchema) Accept(v Visitor) error { return v.VisitEnsureSchema(o) }

func (*RenameColumn) Kind() Kind { return KindRenameColumn }
func (o *RenameColumn) Accept(v Visitor) error { return v.VisitRenameColumn(o) }

func (*RenameIndex) Kind() Kind { return KindRenameIndex }
func (o *RenameIndex) Accept(v Visitor) error { return v.VisitRenameIndex(o) }

func (*RenameSequence) Kind() Kind { return KindRenameSequence }
func (o *RenameSequence) Accept(v Visitor) error { return v.VisitRenameSequence(o) }

func (*RenameTable) Kind() Kind { return KindRenameTable }
func (o *RenameTable) Accept(v Visitor) error { return v.VisitRenameTable(o) }

func (*RestartSequence) Kind() Kind { return KindRestartSequence }
func (o *RestartSequence) Accept(v Visitor) error { return v.VisitRestartSequence(o) }

func (*SQL) Kind() Kind { return KindSQL }
func (o *SQL) Accept(v Visitor) error { return v.VisitSQL(o) }
