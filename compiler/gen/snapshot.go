package gen

import (
	"slices"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/model"
)

// navigationAnnotations are bookkeeping of relationship discovery and are
// never part of a snapshot.
var navigationAnnotations = []string{
	model.AnnotationNavigationCandidates,
	model.AnnotationAmbiguousNavigations,
	model.AnnotationInverseNavigations,
}

// SnapshotGenerator renders a model as calls on a *model.Builder that
// rebuild it.
type SnapshotGenerator struct {
	emitter
}

// NewSnapshotGenerator returns a SnapshotGenerator.
func NewSnapshotGenerator() *SnapshotGenerator {
	return &SnapshotGenerator{}
}

// Generate renders m as statements calling builderVar. Entity types are
// emitted base types first; relationships follow in a second pass, once
// every entity type has been declared.
func (g *SnapshotGenerator) Generate(builderVar string, m *model.Model) ([]jen.Code, error) {
	if m == nil {
		return nil, nil
	}
	order, err := EntityOrder(m)
	if err != nil {
		return nil, err
	}
	g.use(modelPkg)
	stmts, err := g.modelAnnotations(builderVar, m)
	if err != nil {
		return nil, err
	}
	for _, s := range m.Sequences {
		stmt, err := g.sequence(builderVar, s)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	ev, _ := Identifier("e", NewScope(builderVar))
	for _, e := range order {
		body, err := g.entity(ev, m, e)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, entityBlock(builderVar, ev, e.Name, body))
	}
	for _, e := range order {
		if len(e.ForeignKeys) == 0 {
			continue
		}
		body, err := g.relationships(ev, m, e)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, entityBlock(builderVar, ev, e.Name, body))
	}
	return stmts, nil
}

func entityBlock(builderVar, ev, name string, body []jen.Code) jen.Code {
	return jen.Id(builderVar).Dot("Entity").Call(
		jen.Lit(name),
		jen.Func().Params(jen.Id(ev).Op("*").Qual(modelPkg, "EntityTypeBuilder")).Block(body...),
	)
}

// EntityOrder returns the entity types of m so that every base type comes
// before the types deriving from it. Types whose order is otherwise free
// keep their name order.
func EntityOrder(m *model.Model) ([]*model.EntityType, error) {
	n := len(m.Entities)
	index := make(map[string]int, n)
	for i, e := range m.Entities {
		index[e.Name] = i
	}
	var (
		indegree = make([]int, n)
		derived  = make([][]int, n)
	)
	for i, e := range m.Entities {
		if e.BaseType == "" {
			continue
		}
		base, ok := index[e.BaseType]
		if !ok {
			return nil, migrator.NewModelError(e.Name, "", "base type "+e.BaseType+" not found")
		}
		indegree[i]++
		derived[base] = append(derived[base], i)
	}
	queue := make([]int, 0, n)
	for i := range m.Entities {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]*model.EntityType, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, m.Entities[i])
		for _, d := range derived[i] {
			if indegree[d]--; indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	if len(order) == n {
		return order, nil
	}
	// Unordered types either sit on a cycle or derive from one.
	var cycle []string
	for i, e := range m.Entities {
		if indegree[i] == 0 {
			continue
		}
		cur := e
		for range n {
			cur = m.Entities[index[cur.BaseType]]
			if cur == e {
				cycle = append(cycle, e.Name)
				break
			}
		}
	}
	return nil, &migrator.InheritanceCycleError{Entities: cycle}
}

func (g *SnapshotGenerator) modelAnnotations(b string, m *model.Model) ([]jen.Code, error) {
	set := newAnnotationSet(m.Annotations)
	set.discard(navigationAnnotations...)
	var stmts []jen.Code
	if schema, ok := set.takeString(model.AnnotationDefaultSchema); ok {
		stmts = append(stmts, jen.Id(b).Dot("HasDefaultSchema").Call(jen.Lit(schema)))
	}
	for _, name := range set.remaining() {
		v, _ := set.take(name)
		lit, err := g.literal(v)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, jen.Id(b).Dot("HasAnnotation").Call(jen.Lit(name), lit))
	}
	return stmts, nil
}

func (g *SnapshotGenerator) sequence(b string, s *model.Sequence) (jen.Code, error) {
	stmt := jen.Id(b).Dot("HasSequence").Call(jen.Lit(s.Name), jen.Lit(s.ClrType))
	if s.Schema != "" {
		stmt.Dot("InSchema").Call(jen.Lit(s.Schema))
	}
	if s.StartValue != 1 {
		stmt.Dot("StartsAt").Call(int64Lit(s.StartValue))
	}
	if s.IncrementBy != 1 {
		stmt.Dot("IncrementsBy").Call(jen.Lit(s.IncrementBy))
	}
	if s.MinValue != nil {
		stmt.Dot("HasMin").Call(int64Lit(*s.MinValue))
	}
	if s.MaxValue != nil {
		stmt.Dot("HasMax").Call(int64Lit(*s.MaxValue))
	}
	if s.IsCyclic {
		stmt.Dot("IsCyclic").Call()
	}
	if err := g.annotate(stmt, "HasAnnotation", newAnnotationSet(s.Annotations)); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (g *SnapshotGenerator) entity(ev string, m *model.Model, e *model.EntityType) ([]jen.Code, error) {
	var body []jen.Code
	if e.BaseType != "" {
		body = append(body, jen.Id(ev).Dot("HasBaseType").Call(jen.Lit(e.BaseType)))
	}
	root := m.Root(e)
	for _, p := range e.Properties {
		stmt, err := g.property(ev, root, p)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if k := e.PrimaryKey; k != nil {
		stmt, err := g.key(jen.Id(ev).Dot("HasKey"), k)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	for _, k := range e.Keys {
		if len(k.Annotations) == 0 && targeted(m, e, k) {
			continue
		}
		stmt, err := g.key(jen.Id(ev).Dot("HasAlternateKey"), k)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	for _, ix := range e.Indexes {
		stmt := jen.Id(ev).Dot("HasIndex").Call(stringArgs(ix.Properties)...)
		if ix.IsUnique {
			stmt.Dot("IsUnique").Call()
		}
		set := newAnnotationSet(ix.Annotations)
		if name, ok := set.takeString(model.AnnotationName); ok {
			stmt.Dot("HasDatabaseName").Call(jen.Lit(name))
		}
		if filter, ok := set.takeString(model.AnnotationFilter); ok {
			stmt.Dot("HasFilter").Call(jen.Lit(filter))
		}
		if err := g.annotate(stmt, "HasAnnotation", set); err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return g.entityAnnotations(ev, e, body)
}

func (g *SnapshotGenerator) property(ev string, root *model.EntityType, p *model.Property) (jen.Code, error) {
	stmt := jen.Id(ev).Dot("Property").Call(jen.Lit(p.Name), jen.Lit(p.ClrType))
	if implicit := model.IsNullableType(p.ClrType) && !root.IsPrimaryKeyMember(p.Name); p.IsNullable != implicit {
		if p.IsNullable {
			stmt.Dot("IsNullable").Call()
		} else {
			stmt.Dot("IsRequired").Call()
		}
	}
	if p.IsConcurrencyToken {
		stmt.Dot("IsConcurrencyToken").Call()
	}
	switch p.ValueGenerated {
	case model.ValueGeneratedOnAdd:
		stmt.Dot("ValueGeneratedOnAdd").Call()
	case model.ValueGeneratedOnAddOrUpdate:
		stmt.Dot("ValueGeneratedOnAddOrUpdate").Call()
	}
	set := newAnnotationSet(p.Annotations)
	for _, a := range []struct{ annotation, method string }{
		{model.AnnotationColumnName, "HasColumnName"},
		{model.AnnotationColumnType, "HasColumnType"},
	} {
		if s, ok := set.takeString(a.annotation); ok {
			stmt.Dot(a.method).Call(jen.Lit(s))
		}
	}
	if v, ok := set.take(model.AnnotationDefaultValue); ok {
		lit, err := g.literal(v)
		if err != nil {
			return nil, err
		}
		stmt.Dot("HasDefaultValue").Call(lit)
	}
	for _, a := range []struct{ annotation, method string }{
		{model.AnnotationDefaultValueSQL, "HasDefaultValueSQL"},
		{model.AnnotationComputedColumnSQL, "HasComputedColumnSQL"},
	} {
		if s, ok := set.takeString(a.annotation); ok {
			stmt.Dot(a.method).Call(jen.Lit(s))
		}
	}
	for _, a := range []struct{ annotation, method string }{
		{model.AnnotationMaxLength, "HasMaxLength"},
		{model.AnnotationPrecision, "HasPrecision"},
		{model.AnnotationScale, "HasScale"},
	} {
		if n, ok := set.takeInt(a.annotation); ok {
			stmt.Dot(a.method).Call(jen.Lit(n))
		}
	}
	if unicode, ok := set.takeBool(model.AnnotationUnicode); ok {
		stmt.Dot("IsUnicode").Call(jen.Lit(unicode))
	}
	if err := g.annotate(stmt, "HasAnnotation", set); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (g *SnapshotGenerator) key(call *jen.Statement, k *model.Key) (jen.Code, error) {
	stmt := call.Call(stringArgs(k.Properties)...)
	set := newAnnotationSet(k.Annotations)
	if name, ok := set.takeString(model.AnnotationName); ok {
		stmt.Dot("HasName").Call(jen.Lit(name))
	}
	if err := g.annotate(stmt, "HasAnnotation", set); err != nil {
		return nil, err
	}
	return stmt, nil
}

// targeted reports whether k is the principal key of a relationship, which
// declares the key again when the model is rebuilt.
func targeted(m *model.Model, e *model.EntityType, k *model.Key) bool {
	for _, d := range m.Entities {
		for _, fk := range d.ForeignKeys {
			if fk.PrincipalEntityType == e.Name && slices.Equal(m.PrincipalKey(fk), k.Properties) {
				return true
			}
		}
	}
	return false
}

func (g *SnapshotGenerator) entityAnnotations(ev string, e *model.EntityType, body []jen.Code) ([]jen.Code, error) {
	set := newAnnotationSet(e.Annotations)
	set.discard(navigationAnnotations...)
	table, hasTable := set.takeString(model.AnnotationTableName)
	schema, hasSchema := set.takeString(model.AnnotationSchema)
	if hasTable || hasSchema {
		body = append(body, jen.Id(ev).Dot("ToTable").Call(jen.Lit(table), jen.Lit(schema)))
	}
	if prop, ok := set.takeString(model.AnnotationDiscriminatorProperty); ok {
		stmt := jen.Id(ev).Dot("HasDiscriminator").Call(jen.Lit(prop))
		if v, ok := set.take(model.AnnotationDiscriminatorValue); ok {
			lit, err := g.literal(v)
			if err != nil {
				return nil, err
			}
			stmt.Dot("HasValue").Call(lit)
		}
		body = append(body, stmt)
	} else if v, ok := set.take(model.AnnotationDiscriminatorValue); ok {
		lit, err := g.literal(v)
		if err != nil {
			return nil, err
		}
		body = append(body, jen.Id(ev).Dot("HasDiscriminatorValue").Call(lit))
	}
	for _, name := range set.remaining() {
		v, _ := set.take(name)
		lit, err := g.literal(v)
		if err != nil {
			return nil, err
		}
		body = append(body, jen.Id(ev).Dot("HasAnnotation").Call(jen.Lit(name), lit))
	}
	return body, nil
}

func (g *SnapshotGenerator) relationships(ev string, m *model.Model, e *model.EntityType) ([]jen.Code, error) {
	body := make([]jen.Code, 0, len(e.ForeignKeys))
	for _, fk := range e.ForeignKeys {
		stmt := jen.Id(ev).Dot("HasOne").Call(jen.Lit(fk.PrincipalEntityType), jen.Lit(fk.DependentToPrincipal))
		if fk.IsUnique {
			stmt.Dot("WithOne").Call(jen.Lit(fk.PrincipalToDependent))
		} else {
			stmt.Dot("WithMany").Call(jen.Lit(fk.PrincipalToDependent))
		}
		stmt.Dot("HasForeignKey").Call(stringArgs(fk.Properties)...)
		if len(fk.PrincipalKey) > 0 && !isPrimaryKey(m, fk) {
			stmt.Dot("HasPrincipalKey").Call(stringArgs(fk.PrincipalKey)...)
		}
		if fk.DeleteBehavior != model.DeleteRestrict {
			lit, err := g.literal(fk.DeleteBehavior)
			if err != nil {
				return nil, err
			}
			stmt.Dot("OnDelete").Call(lit)
		}
		if fk.IsRequired {
			stmt.Dot("IsRequired").Call()
		}
		set := newAnnotationSet(fk.Annotations)
		if name, ok := set.takeString(model.AnnotationName); ok {
			stmt.Dot("HasConstraintName").Call(jen.Lit(name))
		}
		if err := g.annotate(stmt, "HasAnnotation", set); err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func isPrimaryKey(m *model.Model, fk *model.ForeignKey) bool {
	p := m.Entity(fk.PrincipalEntityType)
	if p == nil {
		return false
	}
	pk := m.Root(p).PrimaryKey
	return pk != nil && slices.Equal(pk.Properties, fk.PrincipalKey)
}

func stringArgs(s []string) []jen.Code {
	args := make([]jen.Code, len(s))
	for i, v := range s {
		args[i] = jen.Lit(v)
	}
	return args
}
