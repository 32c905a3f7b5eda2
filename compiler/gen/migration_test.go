package gen_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/migrator/compiler/gen"
	"github.com/syssam/migrator/migrate"
	"github.com/syssam/migrator/model"
)

const namespace = "github.com/acme/shop/migrations"

// parse checks src is valid Go and returns its syntax tree.
func parse(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "", src, parser.ParseComments)
	require.NoError(t, err, string(src))
	return f
}

func imports(f *ast.File) []string {
	var paths []string
	for _, spec := range f.Imports {
		p, _ := strconv.Unquote(spec.Path.Value)
		paths = append(paths, p)
	}
	return paths
}

func TestMigrationGenerator_GenerateMigration(t *testing.T) {
	g, err := gen.NewMigrationGenerator(gen.WithHeader("Copyright Acme."))
	require.NoError(t, err)
	assert.Equal(t, ".go", g.FileExtension())

	b := migrate.NewBuilder()
	b.AddColumn("Email", "Customer", "*string", migrate.Nullable())
	up := b.Operations()
	b = migrate.NewBuilder()
	b.DropColumn("Email", "Customer")
	down := b.Operations()

	src, err := g.GenerateMigration(namespace, "Add Email", up, down)
	require.NoError(t, err)
	f := parse(t, src)

	out := string(src)
	assert.Equal(t, "migrations", f.Name.Name)
	assert.False(t, ast.IsGenerated(f), "migration files are edited by users")
	assert.Regexp(t, `^// Copyright Acme\.`, out)
	assert.Contains(t, out, "type AddEmail struct{}")
	assert.Contains(t, out, "func (AddEmail) Up(b *migrate.Builder) {")
	assert.Contains(t, out, `b.AddColumn("Email", "Customer", "*string", migrate.Nullable())`)
	assert.Contains(t, out, "func (AddEmail) Down(b *migrate.Builder) {")
	assert.Contains(t, out, `b.DropColumn("Email", "Customer")`)
	assert.Equal(t, []string{"github.com/syssam/migrator/migrate"}, imports(f))
}

func TestMigrationGenerator_GenerateMetadata(t *testing.T) {
	g, err := gen.NewMigrationGenerator(gen.WithProductVersion("9.9.9"))
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", g.ProductVersion())

	target := build(t, func(b *model.Builder) {
		b.Entity("Customer", func(e *model.EntityTypeBuilder) {
			e.Property("Id", "int")
			e.HasKey("Id")
		})
		b.Entity("Order", func(e *model.EntityTypeBuilder) {
			e.Property("Id", "int")
			e.Property("CustomerId", "int")
			e.HasKey("Id")
			e.HasOne("Customer", "").WithMany("").HasForeignKey("CustomerId").OnDelete(model.DeleteCascade)
		})
	})

	src, err := g.GenerateMetadata(namespace, "ShopContext", "InitialCreate", "20240102030405_InitialCreate", target)
	require.NoError(t, err)
	f := parse(t, src)

	out := string(src)
	assert.True(t, ast.IsGenerated(f))
	assert.Contains(t, out, "migrate.Register(InitialCreate{})")
	assert.Contains(t, out, `return "20240102030405_InitialCreate"`)
	assert.Contains(t, out, `return "ShopContext"`)
	assert.Contains(t, out, "func (InitialCreate) BuildTargetModel(b *model.Builder) {")
	assert.Contains(t, out, `b.HasAnnotation("ProductVersion", "9.9.9")`)
	assert.Contains(t, out, "OnDelete(model.DeleteCascade)")
	assert.NotContains(t, out, "type InitialCreate", "the type is declared by the migration file")
	assert.ElementsMatch(t, []string{
		"github.com/syssam/migrator/migrate",
		"github.com/syssam/migrator/model",
	}, imports(f))
	assert.Empty(t, target.Annotations.Names(), "the target model is not modified")
}

func TestMigrationGenerator_GenerateSnapshot(t *testing.T) {
	g, err := gen.NewMigrationGenerator(gen.WithProductVersion("9.9.9"))
	require.NoError(t, err)

	m := build(t, func(b *model.Builder) {
		b.HasDefaultSchema("shop")
		b.Entity("Customer", func(e *model.EntityTypeBuilder) {
			e.Property("Id", "int")
			e.HasKey("Id")
		})
	})

	src, err := g.GenerateSnapshot("github.com/acme/shop/Data-Migrations", "ShopContext", "ShopContextModelSnapshot", m)
	require.NoError(t, err)
	f := parse(t, src)

	out := string(src)
	assert.True(t, ast.IsGenerated(f))
	assert.Equal(t, "datamigrations", f.Name.Name)
	assert.Contains(t, out, "type ShopContextModelSnapshot struct{}")
	assert.Contains(t, out, "migrate.RegisterSnapshot(ShopContextModelSnapshot{})")
	assert.Contains(t, out, "func (ShopContextModelSnapshot) BuildModel(b *model.Builder) {")
	assert.Contains(t, out, `b.HasDefaultSchema("shop")`)
	assert.Contains(t, out, `b.HasAnnotation("ProductVersion", "9.9.9")`)
}

func TestMigrationGenerator_Errors(t *testing.T) {
	g, err := gen.NewMigrationGenerator()
	require.NoError(t, err)

	m := build(t, func(b *model.Builder) { b.HasAnnotation("Bad", struct{}{}) })
	_, err = g.GenerateSnapshot(namespace, "ShopContext", "ShopContextModelSnapshot", m)
	require.Error(t, err)
	assert.True(t, gen.IsGenerationError(err))

	_, err = gen.NewMigrationGenerator(gen.WithProductVersion(""))
	assert.True(t, gen.IsConfigError(err))
}

func TestNamespaces(t *testing.T) {
	got := gen.Namespaces(
		[]string{"github.com/syssam/migrator/migrate", "github.com/syssam/migrator/model"},
		[]string{"github.com/syssam/migrator/model", "github.com/google/uuid"},
		[]string{"", "time"},
	)
	assert.Equal(t, []string{
		"github.com/syssam/migrator/migrate",
		"github.com/syssam/migrator/model",
		"github.com/google/uuid",
		"time",
	}, got)
}
