package gen_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/compiler/gen"
	"github.com/syssam/migrator/model"
)

func render(code []jen.Code) string {
	var b strings.Builder
	for _, c := range code {
		fmt.Fprintf(&b, "%#v\n", c)
	}
	return b.String()
}

func build(t *testing.T, configure func(b *model.Builder)) *model.Model {
	t.Helper()
	b := model.NewBuilder()
	configure(b)
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func shopModel(b *model.Builder) {
	b.HasDefaultSchema("shop")
	b.HasAnnotation("Custom:Flag", true)
	b.HasSequence("OrderNumbers", "int64").StartsAt(1000).IncrementsBy(5)
	b.Entity("Customer", func(e *model.EntityTypeBuilder) {
		e.Property("Id", "int").ValueGeneratedOnAdd()
		e.Property("Code", "string").HasMaxLength(20)
		e.Property("Email", "*string").HasColumnName("email_address").IsUnicode(false)
		e.Property("Version", "[]byte").IsRequired().IsConcurrencyToken().ValueGeneratedOnAddOrUpdate()
		e.HasKey("Id").HasName("PK_Customers")
		e.HasIndex("Email").IsUnique().HasFilter("email_address IS NOT NULL")
		e.ToTable("Customers", "")
	})
	b.Entity("Order", func(e *model.EntityTypeBuilder) {
		e.Property("Id", "int")
		e.Property("CustomerCode", "string")
		e.Property("Total", "model.Decimal").HasDefaultValue(model.Decimal("0.00")).HasPrecision(18).HasScale(2)
		e.HasKey("Id")
	})
	b.Entity("Order", func(e *model.EntityTypeBuilder) {
		e.HasOne("Customer", "Customer").WithMany("Orders").HasForeignKey("CustomerCode").HasPrincipalKey("Code").OnDelete(model.DeleteCascade).IsRequired()
	})
}

// shopModelSource is the body of shopModel.
const shopModelSource = `
	b.HasDefaultSchema("shop")
	b.HasAnnotation("Custom:Flag", true)
	b.HasSequence("OrderNumbers", "int64").StartsAt(1000).IncrementsBy(5)
	b.Entity("Customer", func(e *model.EntityTypeBuilder) {
		e.Property("Id", "int").ValueGeneratedOnAdd()
		e.Property("Code", "string").HasMaxLength(20)
		e.Property("Email", "*string").HasColumnName("email_address").IsUnicode(false)
		e.Property("Version", "[]byte").IsRequired().IsConcurrencyToken().ValueGeneratedOnAddOrUpdate()
		e.HasKey("Id").HasName("PK_Customers")
		e.HasIndex("Email").IsUnique().HasFilter("email_address IS NOT NULL")
		e.ToTable("Customers", "")
	})
	b.Entity("Order", func(e *model.EntityTypeBuilder) {
		e.Property("Id", "int")
		e.Property("CustomerCode", "string")
		e.Property("Total", "model.Decimal").HasDefaultValue(model.Decimal("0.00")).HasPrecision(18).HasScale(2)
		e.HasKey("Id")
	})
	b.Entity("Order", func(e *model.EntityTypeBuilder) {
		e.HasOne("Customer", "Customer").WithMany("Orders").HasForeignKey("CustomerCode").HasPrincipalKey("Code").OnDelete(model.DeleteCascade).IsRequired()
	})
`

func TestSnapshotGenerator_RoundTrip(t *testing.T) {
	m := build(t, shopModel)

	g := gen.NewSnapshotGenerator()
	code, err := g.Generate("b", m)
	require.NoError(t, err)
	// The emitted code is shopModel itself, so running it rebuilds m.
	assert.Equal(t, compact(shopModelSource), compact(render(code)))
	assert.Equal(t, []string{"github.com/syssam/migrator/model"}, g.Namespaces())
}

func TestSnapshotGenerator_Inheritance(t *testing.T) {
	m := build(t, func(b *model.Builder) {
		b.Entity("Admin", func(e *model.EntityTypeBuilder) {
			e.HasBaseType("User")
			e.Property("Level", "int")
			e.HasDiscriminatorValue("admin")
		})
		b.Entity("User", func(e *model.EntityTypeBuilder) {
			e.Property("Id", "int")
			e.Property("Kind", "string")
			e.HasKey("Id")
			e.HasDiscriminator("Kind").HasValue("user")
		})
	})

	code, err := gen.NewSnapshotGenerator().Generate("b", m)
	require.NoError(t, err)
	want := `
	b.Entity("User", func(e *model.EntityTypeBuilder) {
		e.Property("Id", "int")
		e.Property("Kind", "string")
		e.HasKey("Id")
		e.HasDiscriminator("Kind").HasValue("user")
	})
	b.Entity("Admin", func(e *model.EntityTypeBuilder) {
		e.HasBaseType("User")
		e.Property("Level", "int")
		e.HasDiscriminatorValue("admin")
	})`
	assert.Equal(t, compact(want), compact(render(code)))
}

func TestSnapshotGenerator_Annotations(t *testing.T) {
	m := build(t, func(b *model.Builder) {
		b.HasAnnotation(model.AnnotationInverseNavigations, "ignored")
		b.Entity("Customer", func(e *model.EntityTypeBuilder) {
			e.Property("Id", "int").
				HasColumnName("customer_id").
				HasAnnotation(model.AnnotationMaxLength, int64(5)).
				HasAnnotation("Npgsql:IdentityOptions", []string{"ALWAYS"})
			e.HasKey("Id")
			e.HasAnnotation(model.AnnotationNavigationCandidates, []string{"Orders"})
			e.HasAnnotation("Relational:Comment", "Buyers")
		})
	})

	code, err := gen.NewSnapshotGenerator().Generate("b", m)
	require.NoError(t, err)
	out := render(code)

	t.Run("Promoted annotations are emitted once", func(t *testing.T) {
		assert.Contains(t, out, `HasColumnName("customer_id")`)
		assert.NotContains(t, out, model.AnnotationColumnName)
	})

	t.Run("Values of another type stay generic", func(t *testing.T) {
		assert.Contains(t, out, `HasAnnotation("MaxLength", int64(5))`)
		assert.NotContains(t, out, "HasMaxLength")
	})

	t.Run("Navigation bookkeeping is dropped", func(t *testing.T) {
		assert.NotContains(t, out, "RelationshipDiscoveryConvention")
	})

	t.Run("Remaining annotations are sorted", func(t *testing.T) {
		assert.Less(t, strings.Index(out, "MaxLength"), strings.Index(out, "Npgsql:IdentityOptions"))
		assert.Contains(t, out, `e.HasAnnotation("Relational:Comment", "Buyers")`)
	})
}

func TestSnapshotGenerator_Errors(t *testing.T) {
	t.Run("Unsupported annotation value", func(t *testing.T) {
		m := build(t, func(b *model.Builder) { b.HasAnnotation("Bad", map[string]int{}) })
		_, err := gen.NewSnapshotGenerator().Generate("b", m)
		assert.True(t, errors.Is(err, migrator.ErrTranslation))
	})

	t.Run("Nil model", func(t *testing.T) {
		code, err := gen.NewSnapshotGenerator().Generate("b", nil)
		require.NoError(t, err)
		assert.Empty(t, code)
	})
}

func TestEntityOrder(t *testing.T) {
	t.Run("Base types come first", func(t *testing.T) {
		m := &model.Model{Entities: []*model.EntityType{
			{Name: "A", BaseType: "C"},
			{Name: "B"},
			{Name: "C", BaseType: "D"},
			{Name: "D"},
			{Name: "E", BaseType: "D"},
		}}
		order, err := gen.EntityOrder(m)
		require.NoError(t, err)
		names := make([]string, len(order))
		for i, e := range order {
			names[i] = e.Name
		}
		assert.Equal(t, []string{"B", "D", "C", "E", "A"}, names)
	})

	t.Run("Cycle", func(t *testing.T) {
		m := &model.Model{Entities: []*model.EntityType{
			{Name: "A", BaseType: "C"},
			{Name: "B", BaseType: "A"},
			{Name: "C", BaseType: "B"},
			{Name: "D", BaseType: "A"},
			{Name: "E"},
		}}
		_, err := gen.EntityOrder(m)
		require.Error(t, err)
		assert.True(t, errors.Is(err, migrator.ErrInheritanceCycle))
		var cycle *migrator.InheritanceCycleError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"A", "B", "C"}, cycle.Entities)
	})

	t.Run("Missing base type", func(t *testing.T) {
		m := &model.Model{Entities: []*model.EntityType{{Name: "A", BaseType: "Z"}}}
		_, err := gen.EntityOrder(m)
		assert.True(t, errors.Is(err, migrator.ErrInvalidModel))
	})
}
