package gen

import (
	"bytes"
	"path"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// generatedHeader marks designer and snapshot files as machine owned.
const generatedHeader = "Code generated by migrator. DO NOT EDIT."

// builderVar names the builder parameter of generated methods.
const builderVar = "b"

// MigrationGenerator renders the three Go files of a migration: the
// migration file with its Up and Down methods, the designer file holding
// its metadata and target model, and the model snapshot. The migration and
// designer files declare methods on the same type.
type MigrationGenerator struct {
	cfg *Config
}

// NewMigrationGenerator returns a MigrationGenerator configured by opts.
func NewMigrationGenerator(opts ...Option) (*MigrationGenerator, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &MigrationGenerator{cfg: cfg}, nil
}

// FileExtension returns the extension of generated files.
func (*MigrationGenerator) FileExtension() string { return ".go" }

// ProductVersion returns the version recorded in generated models.
func (g *MigrationGenerator) ProductVersion() string { return g.cfg.ProductVersion }

// GenerateMigration renders the migration file of type name in package
// namespace.
func (g *MigrationGenerator) GenerateMigration(namespace, name string, up, down []operation.Operation) ([]byte, error) {
	typ := FormatIdentifier(name)
	ops := NewOperationGenerator()
	upCode, err := ops.Generate(builderVar, up)
	if err != nil {
		return nil, NewGenerationError("migration", typ, "up operations", err)
	}
	downCode, err := ops.Generate(builderVar, down)
	if err != nil {
		return nil, NewGenerationError("migration", typ, "down operations", err)
	}
	f := g.newFile(namespace, false, ops.Namespaces())
	f.Commentf("%s is a schema migration.", typ)
	f.Type().Id(typ).Struct()
	f.Comment("Up applies the migration.")
	f.Func().Params(jen.Id(typ)).Id("Up").Params(builderParam(migratePkg)).Block(upCode...)
	f.Comment("Down reverts the migration.")
	f.Func().Params(jen.Id(typ)).Id("Down").Params(builderParam(migratePkg)).Block(downCode...)
	return g.render("migration", typ, f)
}

// GenerateMetadata renders the designer file of the migration: the
// registration, identity and target model of type name.
func (g *MigrationGenerator) GenerateMetadata(namespace, contextType, name, id string, target *model.Model) ([]byte, error) {
	typ := FormatIdentifier(name)
	snap := NewSnapshotGenerator()
	body, err := snap.Generate(builderVar, g.versioned(target))
	if err != nil {
		return nil, NewGenerationError("metadata", typ, "target model", err)
	}
	f := g.newFile(namespace, true, snap.Namespaces())
	f.Func().Id("init").Params().Block(
		jen.Qual(migratePkg, "Register").Call(jen.Id(typ).Values()),
	)
	f.Comment("ID returns the migration identifier.")
	f.Func().Params(jen.Id(typ)).Id("ID").Params().String().Block(jen.Return(jen.Lit(id)))
	f.Comment("Context returns the context type owning the migration.")
	f.Func().Params(jen.Id(typ)).Id("Context").Params().String().Block(jen.Return(jen.Lit(contextType)))
	f.Comment("BuildTargetModel builds the model as of this migration.")
	f.Func().Params(jen.Id(typ)).Id("BuildTargetModel").Params(builderParam(modelPkg)).Block(body...)
	return g.render("metadata", typ, f)
}

// GenerateSnapshot renders the model snapshot of contextType as type name.
func (g *MigrationGenerator) GenerateSnapshot(namespace, contextType, name string, m *model.Model) ([]byte, error) {
	typ := FormatIdentifier(name)
	snap := NewSnapshotGenerator()
	body, err := snap.Generate(builderVar, g.versioned(m))
	if err != nil {
		return nil, NewGenerationError("snapshot", typ, "model", err)
	}
	f := g.newFile(namespace, true, snap.Namespaces())
	f.Commentf("%s is the model snapshot of %s.", typ, contextType)
	f.Type().Id(typ).Struct()
	f.Func().Id("init").Params().Block(
		jen.Qual(migratePkg, "RegisterSnapshot").Call(jen.Id(typ).Values()),
	)
	f.Comment("Context returns the context type owning the snapshot.")
	f.Func().Params(jen.Id(typ)).Id("Context").Params().String().Block(jen.Return(jen.Lit(contextType)))
	f.Comment("BuildModel builds the current model.")
	f.Func().Params(jen.Id(typ)).Id("BuildModel").Params(builderParam(modelPkg)).Block(body...)
	return g.render("snapshot", typ, f)
}

// Namespaces returns the deduplicated import paths a generated file uses:
// the packages every file needs plus those required by literals.
func Namespaces(base []string, extra ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range append([][]string{base}, extra...) {
		for _, ns := range list {
			if ns != "" && !seen[ns] {
				seen[ns] = true
				out = append(out, ns)
			}
		}
	}
	return out
}

func (g *MigrationGenerator) newFile(namespace string, generated bool, used []string) *jen.File {
	f := jen.NewFilePathName(namespace, PackageName(namespace))
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	if generated {
		f.HeaderComment(generatedHeader)
	}
	for _, ns := range Namespaces([]string{migratePkg, modelPkg}, used) {
		f.ImportName(ns, path.Base(ns))
	}
	return f
}

// versioned returns m with the product version annotation set.
func (g *MigrationGenerator) versioned(m *model.Model) *model.Model {
	if m == nil {
		return nil
	}
	c := *m
	c.Annotations = m.Annotations.Clone()
	c.Annotations.Set(model.AnnotationProductVersion, g.cfg.ProductVersion)
	return &c
}

func (g *MigrationGenerator) render(phase, typ string, f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError(phase, typ, "render", err)
	}
	out, err := imports.Process(typ+".go", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, NewGenerationError(phase, typ, "format", err)
	}
	return out, nil
}

func builderParam(pkg string) jen.Code {
	return jen.Id(builderVar).Op("*").Qual(pkg, "Builder")
}
