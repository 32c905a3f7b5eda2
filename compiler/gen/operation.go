package gen

import (
	"maps"
	"reflect"
	"slices"
	"strconv"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// emitter renders literals and records the packages they refer to.
type emitter struct {
	namespaces map[string]struct{}
}

func (e *emitter) use(namespaces ...string) {
	if e.namespaces == nil {
		e.namespaces = make(map[string]struct{})
	}
	for _, ns := range namespaces {
		e.namespaces[ns] = struct{}{}
	}
}

func (e *emitter) literal(v any) (*jen.Statement, error) {
	s, err := Literal(v)
	if err != nil {
		return nil, err
	}
	e.use(LiteralNamespaces(v)...)
	return s, nil
}

// Namespaces returns the import paths referenced by the code emitted so far.
func (e *emitter) Namespaces() []string {
	return slices.Sorted(maps.Keys(e.namespaces))
}

// annotate appends one method call per remaining annotation of s to stmt.
func (e *emitter) annotate(stmt *jen.Statement, method string, s *annotationSet) error {
	for _, name := range s.remaining() {
		v, _ := s.take(name)
		lit, err := e.literal(v)
		if err != nil {
			return err
		}
		stmt.Dot(method).Call(jen.Lit(name), lit)
	}
	return nil
}

// OperationGenerator renders schema operations as calls on a
// *migrate.Builder. Running the rendered code records operations equal to
// the rendered ones.
type OperationGenerator struct {
	emitter
}

// NewOperationGenerator returns an OperationGenerator.
func NewOperationGenerator() *OperationGenerator {
	return &OperationGenerator{}
}

// Generate renders ops, in order, as statements calling builderVar.
func (g *OperationGenerator) Generate(builderVar string, ops []operation.Operation) ([]jen.Code, error) {
	stmts := make([]jen.Code, 0, len(ops))
	for _, op := range ops {
		stmt, err := g.GenerateOperation(builderVar, op)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// GenerateOperation renders a single operation.
func (g *OperationGenerator) GenerateOperation(builderVar string, op operation.Operation) (*jen.Statement, error) {
	if op == nil || reflect.ValueOf(op).IsNil() {
		return nil, migrator.NewUnknownOperationError(op)
	}
	v := &operationVisitor{g: g, b: builderVar}
	if err := op.Accept(v); err != nil {
		return nil, err
	}
	return v.out, nil
}

// operationVisitor renders the operation it visits into out.
type operationVisitor struct {
	g   *OperationGenerator
	b   string
	out *jen.Statement
}

var _ operation.Visitor = (*operationVisitor)(nil)

func (v *operationVisitor) call(method string, args ...jen.Code) *jen.Statement {
	v.g.use(migratePkg)
	if len(args) > 3 {
		return jen.Id(v.b).Dot(method).Custom(multiline, args...)
	}
	return jen.Id(v.b).Dot(method).Call(args...)
}

var multiline = jen.Options{Open: "(", Close: ")", Separator: ",", Multi: true}

// finish appends the annotation chain of op and stores the statement.
func (v *operationVisitor) finish(stmt *jen.Statement, op operation.Operation) error {
	if err := v.g.annotate(stmt, "Annotation", newAnnotationSet(op.Meta().Annotations)); err != nil {
		return err
	}
	v.out = stmt
	return nil
}

func (v *operationVisitor) finishAlter(stmt *jen.Statement, op operation.Operation, old model.Annotations) error {
	if err := v.finish(stmt, op); err != nil {
		return err
	}
	return v.g.annotate(stmt, "OldAnnotation", newAnnotationSet(old))
}

func option(name string, args ...jen.Code) jen.Code {
	return jen.Qual(migratePkg, name).Call(args...)
}

func schemaOption(schema string) []jen.Code {
	if schema == "" {
		return nil
	}
	return []jen.Code{option("Schema", jen.Lit(schema))}
}

func stringOption(opts []jen.Code, name, value string) []jen.Code {
	if value == "" {
		return opts
	}
	return append(opts, option(name, jen.Lit(value)))
}

func int64Lit(n int64) *jen.Statement {
	return jen.Id(strconv.FormatInt(n, 10))
}

func stringSlice(s []string) *jen.Statement {
	if s == nil {
		return jen.Nil()
	}
	return stringsLiteral(s)
}

// columnOptions renders the non-default settings of a column.
func (v *operationVisitor) columnOptions(c operation.ColumnSpec) ([]jen.Code, error) {
	var opts []jen.Code
	opts = stringOption(opts, "ColumnType", c.ColumnType)
	if c.IsUnicode != nil {
		opts = append(opts, option("Unicode", jen.Lit(*c.IsUnicode)))
	}
	if c.IsFixedLength {
		opts = append(opts, option("FixedLength"))
	}
	if c.MaxLength != nil {
		opts = append(opts, option("MaxLength", jen.Lit(*c.MaxLength)))
	}
	if c.Precision != nil {
		opts = append(opts, option("Precision", jen.Lit(*c.Precision)))
	}
	if c.Scale != nil {
		opts = append(opts, option("Scale", jen.Lit(*c.Scale)))
	}
	if c.IsRowVersion {
		opts = append(opts, option("RowVersion"))
	}
	if c.IsNullable {
		opts = append(opts, option("Nullable"))
	}
	if c.DefaultValue != nil {
		lit, err := v.g.literal(c.DefaultValue)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option("DefaultValue", lit))
	}
	opts = stringOption(opts, "DefaultValueSQL", c.DefaultValueSQL)
	opts = stringOption(opts, "ComputedColumnSQL", c.ComputedColumnSQL)
	opts = stringOption(opts, "Comment", c.Comment)
	opts = stringOption(opts, "Collation", c.Collation)
	return opts, nil
}

// sequenceOptions renders the options of s that differ from a default
// sequence. An unset IncrementBy means the default step of 1.
func sequenceOptions(s operation.SequenceSpec) []jen.Code {
	var opts []jen.Code
	if s.IncrementBy != 0 && s.IncrementBy != 1 {
		opts = append(opts, option("IncrementBy", jen.Lit(s.IncrementBy)))
	}
	if s.MinValue != nil {
		opts = append(opts, option("MinValue", int64Lit(*s.MinValue)))
	}
	if s.MaxValue != nil {
		opts = append(opts, option("MaxValue", int64Lit(*s.MaxValue)))
	}
	if s.IsCyclic {
		opts = append(opts, option("Cyclic"))
	}
	return opts
}

func (v *operationVisitor) foreignKeyOptions(opts []jen.Code, op *operation.AddForeignKey) ([]jen.Code, error) {
	opts = stringOption(opts, "PrincipalSchema", op.PrincipalSchema)
	for _, a := range []struct {
		name   string
		action operation.ReferentialAction
	}{{"OnUpdate", op.OnUpdate}, {"OnDelete", op.OnDelete}} {
		if a.action == "" {
			continue
		}
		lit, err := v.g.literal(a.action)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option(a.name, lit))
	}
	return opts, nil
}

func (v *operationVisitor) VisitAddColumn(op *operation.AddColumn) error {
	opts, err := v.columnOptions(op.ColumnSpec)
	if err != nil {
		return err
	}
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.Table), jen.Lit(op.ClrType)}, schemaOption(op.Schema)...)
	return v.finish(v.call("AddColumn", append(args, opts...)...), op)
}

func (v *operationVisitor) VisitAddForeignKey(op *operation.AddForeignKey) error {
	opts, err := v.foreignKeyOptions(schemaOption(op.Schema), op)
	if err != nil {
		return err
	}
	args := []jen.Code{
		jen.Lit(op.Name),
		jen.Lit(op.Table),
		stringSlice(op.Columns),
		jen.Lit(op.PrincipalTable),
		stringSlice(op.PrincipalColumns),
	}
	return v.finish(v.call("AddForeignKey", append(args, opts...)...), op)
}

func (v *operationVisitor) VisitAddPrimaryKey(op *operation.AddPrimaryKey) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.Table), stringSlice(op.Columns)}, schemaOption(op.Schema)...)
	return v.finish(v.call("AddPrimaryKey", args...), op)
}

func (v *operationVisitor) VisitAddUniqueConstraint(op *operation.AddUniqueConstraint) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.Table), stringSlice(op.Columns)}, schemaOption(op.Schema)...)
	return v.finish(v.call("AddUniqueConstraint", args...), op)
}

func (v *operationVisitor) VisitAlterColumn(op *operation.AlterColumn) error {
	opts, err := v.columnOptions(op.ColumnSpec)
	if err != nil {
		return err
	}
	oldOpts, err := v.columnOptions(op.Old)
	if err != nil {
		return err
	}
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.Table), jen.Lit(op.ClrType)}, schemaOption(op.Schema)...)
	args = append(args, opts...)
	args = append(args, option("OldColumn", append([]jen.Code{jen.Lit(op.Old.ClrType)}, oldOpts...)...))
	return v.finishAlter(v.call("AlterColumn", args...), op, op.OldAnnotations)
}

func (v *operationVisitor) VisitAlterDatabase(op *operation.AlterDatabase) error {
	opts := stringOption(nil, "Collation", op.Collation)
	opts = stringOption(opts, "OldCollation", op.OldCollation)
	return v.finishAlter(v.call("AlterDatabase", opts...), op, op.OldAnnotations)
}

func (v *operationVisitor) VisitAlterSequence(op *operation.AlterSequence) error {
	args := append([]jen.Code{jen.Lit(op.Name)}, schemaOption(op.Schema)...)
	args = append(args, sequenceOptions(op.SequenceSpec)...)
	args = append(args, option("OldSequence", sequenceOptions(op.Old)...))
	return v.finishAlter(v.call("AlterSequence", args...), op, op.OldAnnotations)
}

func (v *operationVisitor) VisitAlterTable(op *operation.AlterTable) error {
	args := append([]jen.Code{jen.Lit(op.Name)}, schemaOption(op.Schema)...)
	args = stringOption(args, "Comment", op.Comment)
	args = stringOption(args, "OldComment", op.OldComment)
	return v.finishAlter(v.call("AlterTable", args...), op, op.OldAnnotations)
}

func (v *operationVisitor) VisitCreateIndex(op *operation.CreateIndex) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.Table), stringSlice(op.Columns)}, schemaOption(op.Schema)...)
	if op.IsUnique {
		args = append(args, option("Unique"))
	}
	args = stringOption(args, "Filter", op.Filter)
	return v.finish(v.call("CreateIndex", args...), op)
}

func (v *operationVisitor) VisitCreateSequence(op *operation.CreateSequence) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.ClrType)}, schemaOption(op.Schema)...)
	if op.StartValue != 1 {
		args = append(args, option("StartValue", int64Lit(op.StartValue)))
	}
	args = append(args, sequenceOptions(op.SequenceSpec)...)
	return v.finish(v.call("CreateSequence", args...), op)
}

// VisitCreateTable renders the table as a CreateTable call whose function
// declares the columns. Columns referenced by constraints are bound to
// variables so the constraint declarations can refer to them.
func (v *operationVisitor) VisitCreateTable(op *operation.CreateTable) error {
	referenced := make(map[string]bool)
	if op.PrimaryKey != nil {
		for _, c := range op.PrimaryKey.Columns {
			referenced[c] = true
		}
	}
	for _, uc := range op.UniqueConstraints {
		for _, c := range uc.Columns {
			referenced[c] = true
		}
	}
	for _, fk := range op.ForeignKeys {
		for _, c := range fk.Columns {
			referenced[c] = true
		}
	}
	const table = "t"
	var (
		scope    = NewScope(v.b, table, "migrate", "model", "operation", "time", "math", "uuid")
		bindings = make(map[string]string, len(referenced))
		body     []jen.Code
	)
	for _, col := range op.Columns {
		opts, err := v.columnOptions(col.ColumnSpec)
		if err != nil {
			return err
		}
		args := append([]jen.Code{jen.Lit(col.Name), jen.Lit(col.ClrType)}, opts...)
		stmt := jen.Id(table).Dot("Column").Call(args...)
		if err := v.g.annotate(stmt, "Annotation", newAnnotationSet(col.Annotations)); err != nil {
			return err
		}
		if referenced[col.Name] {
			if _, dup := bindings[col.Name]; !dup {
				var name string
				name, scope = Identifier(LowerFirst(col.Name), scope)
				bindings[col.Name] = name
				stmt = jen.Id(name).Op(":=").Add(stmt)
			}
		}
		body = append(body, stmt)
	}
	columns := func(names []string) ([]jen.Code, error) {
		refs := make([]jen.Code, len(names))
		for i, name := range names {
			id, ok := bindings[name]
			if !ok {
				return nil, migrator.NewTranslationError("table %s: constraint refers to unknown column %s", op.Name, name)
			}
			refs[i] = jen.Id(id)
		}
		return refs, nil
	}
	constraint := func(stmt *jen.Statement, op operation.Operation) error {
		if err := v.g.annotate(stmt, "Annotation", newAnnotationSet(op.Meta().Annotations)); err != nil {
			return err
		}
		body = append(body, stmt)
		return nil
	}
	if pk := op.PrimaryKey; pk != nil {
		refs, err := columns(pk.Columns)
		if err != nil {
			return err
		}
		if err := constraint(jen.Id(table).Dot("PrimaryKey").Call(append([]jen.Code{jen.Lit(pk.Name)}, refs...)...), pk); err != nil {
			return err
		}
	}
	for _, uc := range op.UniqueConstraints {
		refs, err := columns(uc.Columns)
		if err != nil {
			return err
		}
		if err := constraint(jen.Id(table).Dot("UniqueConstraint").Call(append([]jen.Code{jen.Lit(uc.Name)}, refs...)...), uc); err != nil {
			return err
		}
	}
	for _, fk := range op.ForeignKeys {
		refs, err := columns(fk.Columns)
		if err != nil {
			return err
		}
		opts, err := v.foreignKeyOptions(nil, fk)
		if err != nil {
			return err
		}
		args := append([]jen.Code{
			jen.Lit(fk.Name),
			jen.Index().Op("*").Qual(migratePkg, "ColumnBuilder").Values(refs...),
			jen.Lit(fk.PrincipalTable),
			stringSlice(fk.PrincipalColumns),
		}, opts...)
		if err := constraint(jen.Id(table).Dot("ForeignKey").Custom(multiline, args...), fk); err != nil {
			return err
		}
	}
	fn := jen.Func().Params(jen.Id(table).Op("*").Qual(migratePkg, "CreateTableBuilder")).Block(body...)
	args := append([]jen.Code{jen.Lit(op.Name), fn}, schemaOption(op.Schema)...)
	args = stringOption(args, "Comment", op.Comment)
	return v.finish(v.call("CreateTable", args...), op)
}

func (v *operationVisitor) VisitDropColumn(op *operation.DropColumn) error {
	return v.dropFromTable("DropColumn", op.Name, op.Table, op.Schema, op)
}

func (v *operationVisitor) VisitDropForeignKey(op *operation.DropForeignKey) error {
	return v.dropFromTable("DropForeignKey", op.Name, op.Table, op.Schema, op)
}

func (v *operationVisitor) VisitDropIndex(op *operation.DropIndex) error {
	return v.dropFromTable("DropIndex", op.Name, op.Table, op.Schema, op)
}

func (v *operationVisitor) VisitDropPrimaryKey(op *operation.DropPrimaryKey) error {
	return v.dropFromTable("DropPrimaryKey", op.Name, op.Table, op.Schema, op)
}

func (v *operationVisitor) VisitDropUniqueConstraint(op *operation.DropUniqueConstraint) error {
	return v.dropFromTable("DropUniqueConstraint", op.Name, op.Table, op.Schema, op)
}

func (v *operationVisitor) dropFromTable(method, name, table, schema string, op operation.Operation) error {
	args := append([]jen.Code{jen.Lit(name), jen.Lit(table)}, schemaOption(schema)...)
	return v.finish(v.call(method, args...), op)
}

func (v *operationVisitor) VisitDropSchema(op *operation.DropSchema) error {
	return v.finish(v.call("DropSchema", jen.Lit(op.Name)), op)
}

func (v *operationVisitor) VisitDropSequence(op *operation.DropSequence) error {
	return v.finish(v.call("DropSequence", append([]jen.Code{jen.Lit(op.Name)}, schemaOption(op.Schema)...)...), op)
}

func (v *operationVisitor) VisitDropTable(op *operation.DropTable) error {
	return v.finish(v.call("DropTable", append([]jen.Code{jen.Lit(op.Name)}, schemaOption(op.Schema)...)...), op)
}

func (v *operationVisitor) VisitEnsureSchema(op *operation.EnsureSchema) error {
	return v.finish(v.call("EnsureSchema", jen.Lit(op.Name)), op)
}

func (v *operationVisitor) VisitRenameColumn(op *operation.RenameColumn) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.Table), jen.Lit(op.NewName)}, schemaOption(op.Schema)...)
	return v.finish(v.call("RenameColumn", args...), op)
}

func (v *operationVisitor) VisitRenameIndex(op *operation.RenameIndex) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.Table), jen.Lit(op.NewName)}, schemaOption(op.Schema)...)
	return v.finish(v.call("RenameIndex", args...), op)
}

func (v *operationVisitor) VisitRenameSequence(op *operation.RenameSequence) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.NewName)}, schemaOption(op.Schema)...)
	args = stringOption(args, "NewSchema", op.NewSchema)
	return v.finish(v.call("RenameSequence", args...), op)
}

func (v *operationVisitor) VisitRenameTable(op *operation.RenameTable) error {
	args := append([]jen.Code{jen.Lit(op.Name), jen.Lit(op.NewName)}, schemaOption(op.Schema)...)
	args = stringOption(args, "NewSchema", op.NewSchema)
	return v.finish(v.call("RenameTable", args...), op)
}

func (v *operationVisitor) VisitRestartSequence(op *operation.RestartSequence) error {
	args := append([]jen.Code{jen.Lit(op.Name), int64Lit(op.StartValue)}, schemaOption(op.Schema)...)
	return v.finish(v.call("RestartSequence", args...), op)
}

func (v *operationVisitor) VisitSQL(op *operation.SQL) error {
	args := []jen.Code{jen.Lit(op.SQL)}
	if op.SuppressTransaction {
		args = append(args, option("SuppressTransaction"))
	}
	return v.finish(v.call("SQL", args...), op)
}
