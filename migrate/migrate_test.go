package migrate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/migrator/migrate"
	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// =============================================================================
// Builder Tests
// =============================================================================

func TestBuilder_AddColumn(t *testing.T) {
	b := migrate.NewBuilder()
	b.AddColumn("Email", "Customer", "*string",
		migrate.Schema("shop"),
		migrate.MaxLength(256),
		migrate.Unicode(false),
		migrate.Nullable(),
		migrate.DefaultValue("n/a"),
	).Annotation("Custom", 1)

	require.Len(t, b.Operations(), 1)
	op, ok := b.Operations()[0].(*operation.AddColumn)
	require.True(t, ok)
	assert.Equal(t, &operation.AddColumn{
		Base:   operation.Base{Annotations: model.Annotations{"Custom": 1}},
		Name:   "Email",
		Schema: "shop",
		Table:  "Customer",
		ColumnSpec: operation.ColumnSpec{
			ClrType:      "*string",
			MaxLength:    model.Ptr(256),
			IsUnicode:    model.Ptr(false),
			IsNullable:   true,
			DefaultValue: "n/a",
		},
	}, op)
}

func TestBuilder_CreateTable(t *testing.T) {
	b := migrate.NewBuilder()
	b.CreateTable("Order", func(t *migrate.CreateTableBuilder) {
		id := t.Column("Id", "int").Annotation("Sqlite:Autoincrement", true)
		customerID := t.Column("CustomerId", "int")
		t.Column("Note", "*string", migrate.Nullable())
		t.PrimaryKey("PK_Order", id)
		t.ForeignKey("FK_Order_Customer_CustomerId", []*migrate.ColumnBuilder{customerID}, "Customer", []string{"Id"},
			migrate.OnDelete(operation.Cascade))
	}, migrate.Schema("shop"))

	op := b.Operations()[0].(*operation.CreateTable)
	assert.Equal(t, "Order", op.Name)
	assert.Equal(t, "shop", op.Schema)
	require.Len(t, op.Columns, 3)
	for _, c := range op.Columns {
		assert.Equal(t, "Order", c.Table)
		assert.Equal(t, "shop", c.Schema)
	}
	assert.Equal(t, true, op.Columns[0].Annotations["Sqlite:Autoincrement"])
	assert.True(t, op.Columns[2].IsNullable)
	assert.Equal(t, []string{"Id"}, op.PrimaryKey.Columns)
	require.Len(t, op.ForeignKeys, 1)
	assert.Equal(t, []string{"CustomerId"}, op.ForeignKeys[0].Columns)
	assert.Equal(t, operation.Cascade, op.ForeignKeys[0].OnDelete)
	assert.Equal(t, "shop", op.ForeignKeys[0].Schema)
}

func TestBuilder_Alter(t *testing.T) {
	b := migrate.NewBuilder()
	b.AlterColumn("Name", "Customer", "string",
		migrate.MaxLength(50),
		migrate.OldColumn("string", migrate.MaxLength(100), migrate.Nullable()),
	).Annotation("New", true).OldAnnotation("Old", false)
	b.AlterSequence("Numbers", migrate.IncrementBy(10), migrate.OldSequence(migrate.MaxValue(5)))

	alter := b.Operations()[0].(*operation.AlterColumn)
	assert.Equal(t, 50, *alter.MaxLength)
	assert.Equal(t, 100, *alter.Old.MaxLength)
	assert.True(t, alter.Old.IsNullable)
	assert.Equal(t, "string", alter.Old.ClrType)
	assert.True(t, alter.IsDestructiveChange)
	assert.Equal(t, model.Annotations{"New": true}, alter.Annotations)
	assert.Equal(t, model.Annotations{"Old": false}, alter.OldAnnotations)

	seq := b.Operations()[1].(*operation.AlterSequence)
	assert.Equal(t, 10, seq.IncrementBy)
	assert.Equal(t, 1, seq.Old.IncrementBy)
	assert.Equal(t, int64(5), *seq.Old.MaxValue)
}

func TestBuilder_Defaults(t *testing.T) {
	b := migrate.NewBuilder()
	b.CreateSequence("Numbers", "int64")
	b.DropTable("Customer")
	b.SQL("SELECT 1", migrate.SuppressTransaction())

	seq := b.Operations()[0].(*operation.CreateSequence)
	assert.Equal(t, int64(1), seq.StartValue)
	assert.Equal(t, 1, seq.IncrementBy)
	assert.True(t, operation.IsDestructive(b.Operations()[1]))
	assert.True(t, b.Operations()[2].(*operation.SQL).SuppressTransaction)
}

// =============================================================================
// Registry Tests
// =============================================================================

type initialCreate struct{}

func (initialCreate) ID() string      { return "20240101000000_InitialCreate" }
func (initialCreate) Context() string { return "ShopContext" }
func (initialCreate) Up(b *migrate.Builder) {
	b.CreateTable("Customer", func(t *migrate.CreateTableBuilder) {
		t.PrimaryKey("PK_Customer", t.Column("Id", "int"))
	})
}
func (initialCreate) Down(b *migrate.Builder) { b.DropTable("Customer") }
func (initialCreate) BuildTargetModel(b *model.Builder) {
	b.Entity("Customer", func(e *model.EntityTypeBuilder) {
		e.Property("Id", "int")
		e.HasKey("Id")
	})
}

type addEmail struct{ initialCreate }

func (addEmail) ID() string { return "20240102000000_AddEmail" }

type shopSnapshot struct{}

func (shopSnapshot) Context() string { return "ShopContext" }
func (shopSnapshot) BuildModel(b *model.Builder) {
	b.Entity("Customer", func(e *model.EntityTypeBuilder) {
		e.HasKey("Missing")
	})
}

func TestRegistry(t *testing.T) {
	r := migrate.NewRegistry()
	r.Register(addEmail{})
	r.Register(initialCreate{})
	r.RegisterSnapshot(shopSnapshot{})

	ms := r.Migrations()
	require.Len(t, ms, 2)
	assert.Equal(t, "20240101000000_InitialCreate", ms[0].ID)
	assert.Equal(t, "initialCreate", ms[0].Name)
	assert.Equal(t, "github.com/syssam/migrator/migrate_test", ms[0].Namespace)
	assert.Equal(t, "ShopContext", ms[1].Context)

	assert.Panics(t, func() { r.Register(&initialCreate{}) })

	s, ok := r.Snapshot("ShopContext")
	require.True(t, ok)
	assert.Equal(t, "shopSnapshot", s.Name)
	_, ok = r.Snapshot("Other")
	assert.False(t, ok)

	_, err := migrate.SnapshotModel(s.Snapshot)
	assert.Error(t, err)
}

func TestOperationsAndTargetModel(t *testing.T) {
	up, down := migrate.Operations(initialCreate{})
	require.Len(t, up, 1)
	assert.Equal(t, operation.KindCreateTable, up[0].Kind())
	require.Len(t, down, 1)
	assert.Equal(t, operation.KindDropTable, down[0].Kind())

	m, err := migrate.TargetModel(initialCreate{})
	require.NoError(t, err)
	assert.NotNil(t, m.Entity("Customer"))
}

// =============================================================================
// ID Tests
// =============================================================================

func TestTimestampIDGenerator(t *testing.T) {
	g := migrate.TimestampIDGenerator{Now: func() time.Time {
		return time.Date(2024, time.March, 5, 10, 4, 59, 0, time.FixedZone("X", 3600))
	}}
	id := g.GenerateID("AddEmail")
	assert.Equal(t, "20240305090459_AddEmail", id)
	assert.True(t, g.IsValidID(id))
	assert.Equal(t, "AddEmail", g.NameOf(id))

	assert.False(t, g.IsValidID("AddEmail"))
	assert.False(t, g.IsValidID("20240305090459_"))
	assert.False(t, g.IsValidID("2024030509045x_Name"))
	assert.Equal(t, "AddEmail", g.NameOf("AddEmail"))
}

func TestEnsureAfter(t *testing.T) {
	assert.Equal(t, "20240102000000_B", migrate.EnsureAfter("20240102000000_B", "20240101000000_A"))
	assert.Equal(t, "20240101000001_B", migrate.EnsureAfter("20240101000000_B", "20240101000000_A"))
	assert.Equal(t, "20240102000000_B", migrate.EnsureAfter("20231231000000_B", "20240101235959_A"))
	assert.Equal(t, "x", migrate.EnsureAfter("x", "20240101000000_A"))
	assert.Equal(t, "20240101000000_B", migrate.EnsureAfter("20240101000000_B", ""))
}
