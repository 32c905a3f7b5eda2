package diff

import (
	"cmp"
	"slices"
	"strings"

	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// Table is the relational projection of an entity hierarchy. Every root
// entity type maps to one table; derived types add their columns to it.
type Table struct {
	Name        string
	Schema      string
	Comment     string
	Columns     []*Column
	PrimaryKey  *Constraint
	Uniques     []*Constraint
	ForeignKeys []*ForeignKey
	Indexes     []*Index
}

// Column is a table column.
type Column struct {
	Name string
	operation.ColumnSpec
	Annotations model.Annotations
}

// Constraint is a primary key or unique constraint.
type Constraint struct {
	Name        string
	Columns     []string
	Annotations model.Annotations
}

// ForeignKey is a foreign key constraint.
type ForeignKey struct {
	Name             string
	Columns          []string
	PrincipalSchema  string
	PrincipalTable   string
	PrincipalColumns []string
	OnDelete         operation.ReferentialAction
	Annotations      model.Annotations
}

// Index is a table index.
type Index struct {
	Name        string
	Columns     []string
	IsUnique    bool
	Filter      string
	Annotations model.Annotations
}

// key identifies a table or sequence across models.
type key struct{ schema, name string }

func (t *Table) key() key { return key{t.Schema, t.Name} }

func (t *Table) column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// columnFacets are property annotations projected onto ColumnSpec fields.
// Anything else travels with the column as a provider annotation.
var columnFacets = []string{
	model.AnnotationColumnName,
	model.AnnotationColumnType,
	model.AnnotationDefaultValue,
	model.AnnotationDefaultValueSQL,
	model.AnnotationComputedColumnSQL,
	model.AnnotationMaxLength,
	model.AnnotationUnicode,
	model.AnnotationPrecision,
	model.AnnotationScale,
	model.AnnotationComment,
	model.AnnotationCollation,
}

// Tables projects m onto tables sorted by schema and name.
func Tables(m *model.Model) []*Table {
	if m == nil {
		return nil
	}
	var tables []*Table
	for _, root := range m.Entities {
		if root.BaseType != "" {
			continue
		}
		tables = append(tables, project(m, root))
	}
	slices.SortFunc(tables, func(a, b *Table) int {
		return cmp.Or(strings.Compare(a.Schema, b.Schema), strings.Compare(a.Name, b.Name))
	})
	return tables
}

func project(m *model.Model, root *model.EntityType) *Table {
	t := &Table{
		Name:    m.TableName(root),
		Schema:  m.Schema(root),
		Comment: root.Annotations.GetString(model.AnnotationComment),
	}
	for _, e := range m.Hierarchy(root) {
		derived := e != root
		for _, p := range e.Properties {
			name := p.ColumnName()
			if t.column(name) != nil {
				continue
			}
			t.Columns = append(t.Columns, column(name, p, derived))
		}
	}
	if k := root.PrimaryKey; k != nil {
		t.PrimaryKey = &Constraint{
			Name:        m.PrimaryKeyName(root),
			Columns:     m.ColumnNames(root, k.Properties),
			Annotations: relational(k.Annotations),
		}
	}
	for _, e := range m.Hierarchy(root) {
		for _, k := range e.Keys {
			t.Uniques = append(t.Uniques, &Constraint{
				Name:        m.KeyName(e, k),
				Columns:     m.ColumnNames(e, k.Properties),
				Annotations: relational(k.Annotations),
			})
		}
		for _, ix := range e.Indexes {
			t.Indexes = append(t.Indexes, &Index{
				Name:        m.IndexName(e, ix),
				Columns:     m.ColumnNames(e, ix.Properties),
				IsUnique:    ix.IsUnique,
				Filter:      ix.Annotations.GetString(model.AnnotationFilter),
				Annotations: relational(ix.Annotations, model.AnnotationFilter),
			})
		}
		for _, fk := range e.ForeignKeys {
			principal := m.Entity(fk.PrincipalEntityType)
			if principal == nil {
				continue
			}
			t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
				Name:             m.ForeignKeyName(e, fk),
				Columns:          m.ColumnNames(e, fk.Properties),
				PrincipalSchema:  m.Schema(principal),
				PrincipalTable:   m.TableName(principal),
				PrincipalColumns: m.ColumnNames(principal, m.PrincipalKey(fk)),
				OnDelete:         ReferentialAction(fk.DeleteBehavior),
				Annotations:      relational(fk.Annotations),
			})
		}
	}
	byName := func(a, b string) int { return strings.Compare(a, b) }
	slices.SortFunc(t.Uniques, func(a, b *Constraint) int { return byName(a.Name, b.Name) })
	slices.SortFunc(t.Indexes, func(a, b *Index) int { return byName(a.Name, b.Name) })
	slices.SortFunc(t.ForeignKeys, func(a, b *ForeignKey) int { return byName(a.Name, b.Name) })
	return t
}

// column maps p onto a column. Columns of derived types are nullable since
// rows of sibling types leave them empty.
func column(name string, p *model.Property, derived bool) *Column {
	c := &Column{
		Name: name,
		ColumnSpec: operation.ColumnSpec{
			ClrType:           p.ClrType,
			ColumnType:        p.ColumnType(),
			IsUnicode:         p.IsUnicode(),
			MaxLength:         p.MaxLength(),
			Precision:         p.Precision(),
			Scale:             p.Scale(),
			IsRowVersion:      p.IsConcurrencyToken && p.ValueGenerated == model.ValueGeneratedOnAddOrUpdate,
			IsNullable:        p.IsNullable || derived,
			DefaultValue:      p.DefaultValue(),
			DefaultValueSQL:   p.DefaultValueSQL(),
			ComputedColumnSQL: p.ComputedColumnSQL(),
			Comment:           p.Annotations.GetString(model.AnnotationComment),
			Collation:         p.Annotations.GetString(model.AnnotationCollation),
		},
		Annotations: relational(p.Annotations, columnFacets...),
	}
	return c
}

// relational returns the annotations of a and drops the constraint name
// and the given facets, which are carried by dedicated fields.
func relational(a model.Annotations, facets ...string) model.Annotations {
	var out model.Annotations
	for _, name := range a.Names() {
		if name == model.AnnotationName || slices.Contains(facets, name) {
			continue
		}
		out.Set(name, a[name])
	}
	return out
}

// ReferentialAction maps a delete behavior to the action of the foreign
// key constraint enforcing it.
func ReferentialAction(b model.DeleteBehavior) operation.ReferentialAction {
	switch b {
	case model.DeleteCascade:
		return operation.Cascade
	case model.DeleteSetNull:
		return operation.SetNull
	case model.DeleteNoAction:
		return operation.NoAction
	default:
		return operation.Restrict
	}
}

// sequence is a model sequence with its schema resolved.
type sequence struct {
	*model.Sequence
	schema string
}

func sequences(m *model.Model) []sequence {
	if m == nil {
		return nil
	}
	out := make([]sequence, 0, len(m.Sequences))
	for _, s := range m.Sequences {
		schema := s.Schema
		if schema == "" {
			schema = m.DefaultSchema()
		}
		out = append(out, sequence{Sequence: s, schema: schema})
	}
	return out
}

func (s sequence) key() key { return key{s.schema, s.Name} }

func (s sequence) spec() operation.SequenceSpec {
	return operation.SequenceSpec{
		IncrementBy: s.IncrementBy,
		MinValue:    s.MinValue,
		MaxValue:    s.MaxValue,
		IsCyclic:    s.IsCyclic,
	}
}
