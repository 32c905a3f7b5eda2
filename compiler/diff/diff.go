package diff

import (
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// Differ computes the schema operations migrating the database of one
// model version to another.
type Differ struct{}

// New returns a Differ.
func New() *Differ {
	return &Differ{}
}

// HasDifferences reports whether migrating from source to target needs
// any operation.
func (d *Differ) HasDifferences(source, target *model.Model) bool {
	if model.Identical(source, target) {
		return false
	}
	return len(d.GetDifferences(source, target)) > 0
}

// GetDifferences returns the operations turning the schema of source into
// the schema of target. A nil source stands for an empty database.
//
// Operations are ordered so that each one only depends on objects created
// before it: foreign keys and constraints are dropped first, then schemas,
// sequences and tables are created, columns added and altered, constraints
// and indexes added, and columns, tables and sequences dropped last.
func (d *Differ) GetDifferences(source, target *model.Model) []operation.Operation {
	src, dst := Tables(source), Tables(target)
	p := &plan{
		source:  byKey(src),
		target:  byKey(dst),
		altered: make(map[key]map[string]bool),
	}
	var created, dropped []*Table
	for _, t := range dst {
		if s, ok := p.source[t.key()]; ok {
			p.alterColumns(s, t)
		} else {
			created = append(created, t)
		}
	}
	for _, s := range src {
		if _, ok := p.target[s.key()]; !ok {
			dropped = append(dropped, s)
		}
	}
	for _, t := range dst {
		if s, ok := p.source[t.key()]; ok {
			p.diffTable(s, t)
		}
	}
	p.ensureSchemas(source, target, src, dst)
	p.diffSequences(source, target)
	p.createTables(created)
	p.dropTables(dropped)
	p.alterDatabase(source, target)
	return p.operations()
}

// plan collects operations per phase. Phases are concatenated in field
// order by operations.
type plan struct {
	source, target map[key]*Table
	// altered holds the columns whose definition changes, per table.
	// Constraints over them are recreated around the change.
	altered map[key]map[string]bool

	dropForeignKeys []operation.Operation
	dropConstraints []operation.Operation
	schemaOps       []operation.Operation
	sequenceOps     []operation.Operation
	createTableOps  []operation.Operation
	addColumns      []operation.Operation
	alterColumnOps  []operation.Operation
	alterTables     []operation.Operation
	addConstraints  []operation.Operation
	addForeignKeys  []operation.Operation
	createIndexes   []operation.Operation
	dropColumns     []operation.Operation
	dropTableOps    []operation.Operation
	dropSequences   []operation.Operation
}

func (p *plan) operations() []operation.Operation {
	var ops []operation.Operation
	for _, phase := range [][]operation.Operation{
		p.dropForeignKeys,
		p.dropConstraints,
		p.schemaOps,
		p.sequenceOps,
		p.createTableOps,
		p.addColumns,
		p.alterColumnOps,
		p.alterTables,
		p.addConstraints,
		p.addForeignKeys,
		p.createIndexes,
		p.dropColumns,
		p.dropTableOps,
		p.dropSequences,
	} {
		ops = append(ops, phase...)
	}
	for _, op := range ops {
		operation.MarkDestructive(op)
	}
	return ops
}

func byKey(tables []*Table) map[key]*Table {
	m := make(map[key]*Table, len(tables))
	for _, t := range tables {
		m[t.key()] = t
	}
	return m
}

// alterColumns records AddColumn, AlterColumn and DropColumn operations
// between two versions of a table.
func (p *plan) alterColumns(s, t *Table) {
	for _, c := range t.Columns {
		old := s.column(c.Name)
		switch {
		case old == nil:
			p.addColumns = append(p.addColumns, addColumn(t, c))
		case !columnEqual(old, c):
			if p.altered[t.key()] == nil {
				p.altered[t.key()] = make(map[string]bool)
			}
			p.altered[t.key()][c.Name] = true
			p.alterColumnOps = append(p.alterColumnOps, &operation.AlterColumn{
				Base:           operation.Base{Annotations: c.Annotations.Clone()},
				Name:           c.Name,
				Schema:         t.Schema,
				Table:          t.Name,
				ColumnSpec:     c.ColumnSpec,
				Old:            old.ColumnSpec,
				OldAnnotations: old.Annotations.Clone(),
			})
		}
	}
	for _, c := range s.Columns {
		if t.column(c.Name) == nil {
			p.dropColumns = append(p.dropColumns, &operation.DropColumn{Name: c.Name, Schema: s.Schema, Table: s.Name})
		}
	}
}

// touches reports whether any of cols of table k changes definition.
func (p *plan) touches(k key, cols []string) bool {
	altered := p.altered[k]
	for _, c := range cols {
		if altered[c] {
			return true
		}
	}
	return false
}

// diffTable records the constraint, index and comment changes of a table
// present in both models.
func (p *plan) diffTable(s, t *Table) {
	k := t.key()
	fkChanged := func(a, b *ForeignKey) bool {
		return !foreignKeyEqual(a, b) || p.touches(k, b.Columns) ||
			p.touches(key{b.PrincipalSchema, b.PrincipalTable}, b.PrincipalColumns)
	}
	for _, fk := range s.ForeignKeys {
		if n := findForeignKey(t.ForeignKeys, fk.Name); n == nil || fkChanged(fk, n) {
			p.dropForeignKeys = append(p.dropForeignKeys, &operation.DropForeignKey{Name: fk.Name, Schema: s.Schema, Table: s.Name})
		}
	}
	for _, fk := range t.ForeignKeys {
		if o := findForeignKey(s.ForeignKeys, fk.Name); o == nil || fkChanged(o, fk) {
			p.addForeignKeys = append(p.addForeignKeys, addForeignKey(t, fk))
		}
	}

	ixChanged := func(a, b *Index) bool { return !indexEqual(a, b) || p.touches(k, b.Columns) }
	for _, ix := range s.Indexes {
		if n := findIndex(t.Indexes, ix.Name); n == nil || ixChanged(ix, n) {
			p.dropConstraints = append(p.dropConstraints, &operation.DropIndex{Name: ix.Name, Schema: s.Schema, Table: s.Name})
		}
	}
	for _, ix := range t.Indexes {
		if o := findIndex(s.Indexes, ix.Name); o == nil || ixChanged(o, ix) {
			p.createIndexes = append(p.createIndexes, createIndex(t, ix))
		}
	}

	ckChanged := func(a, b *Constraint) bool { return !constraintEqual(a, b) || p.touches(k, b.Columns) }
	for _, u := range s.Uniques {
		if n := findConstraint(t.Uniques, u.Name); n == nil || ckChanged(u, n) {
			p.dropConstraints = append(p.dropConstraints, &operation.DropUniqueConstraint{Name: u.Name, Schema: s.Schema, Table: s.Name})
		}
	}
	if s.PrimaryKey != nil && (t.PrimaryKey == nil || ckChanged(s.PrimaryKey, t.PrimaryKey)) {
		p.dropConstraints = append(p.dropConstraints, &operation.DropPrimaryKey{Name: s.PrimaryKey.Name, Schema: s.Schema, Table: s.Name})
	}
	if t.PrimaryKey != nil && (s.PrimaryKey == nil || ckChanged(s.PrimaryKey, t.PrimaryKey)) {
		p.addConstraints = append(p.addConstraints, addPrimaryKey(t, t.PrimaryKey))
	}
	for _, u := range t.Uniques {
		if o := findConstraint(s.Uniques, u.Name); o == nil || ckChanged(o, u) {
			p.addConstraints = append(p.addConstraints, addUniqueConstraint(t, u))
		}
	}

	if s.Comment != t.Comment {
		p.alterTables = append(p.alterTables, &operation.AlterTable{
			Name:       t.Name,
			Schema:     t.Schema,
			Comment:    t.Comment,
			OldComment: s.Comment,
		})
	}
}

// ensureSchemas records EnsureSchema for every schema target uses and
// source does not.
func (p *plan) ensureSchemas(source, target *model.Model, src, dst []*Table) {
	existing := schemas(src, sequences(source))
	for _, name := range schemas(dst, sequences(target)) {
		if !slices.Contains(existing, name) {
			p.schemaOps = append(p.schemaOps, &operation.EnsureSchema{Name: name})
		}
	}
}

func schemas(tables []*Table, seqs []sequence) []string {
	var names []string
	for _, t := range tables {
		names = append(names, t.Schema)
	}
	for _, s := range seqs {
		names = append(names, s.schema)
	}
	slices.Sort(names)
	names = slices.Compact(names)
	return slices.DeleteFunc(names, func(s string) bool { return s == "" })
}

func (p *plan) diffSequences(source, target *model.Model) {
	old := make(map[key]sequence)
	for _, s := range sequences(source) {
		old[s.key()] = s
	}
	for _, s := range sequences(target) {
		o, ok := old[s.key()]
		delete(old, s.key())
		switch {
		case !ok:
			p.sequenceOps = append(p.sequenceOps, createSequence(s))
		case o.ClrType != s.ClrType:
			p.sequenceOps = append(p.sequenceOps, &operation.DropSequence{Name: o.Name, Schema: o.schema}, createSequence(s))
		default:
			if !reflect.DeepEqual(o.spec(), s.spec()) || !o.Annotations.Equal(s.Annotations) {
				p.sequenceOps = append(p.sequenceOps, &operation.AlterSequence{
					Base:           operation.Base{Annotations: s.Annotations.Clone()},
					Name:           s.Name,
					Schema:         s.schema,
					SequenceSpec:   s.spec(),
					Old:            o.spec(),
					OldAnnotations: o.Annotations.Clone(),
				})
			}
			if o.StartValue != s.StartValue {
				p.sequenceOps = append(p.sequenceOps, &operation.RestartSequence{Name: s.Name, Schema: s.schema, StartValue: s.StartValue})
			}
		}
	}
	for _, s := range sequences(source) {
		if _, ok := old[s.key()]; ok {
			p.dropSequences = append(p.dropSequences, &operation.DropSequence{Name: s.Name, Schema: s.schema})
		}
	}
}

func createSequence(s sequence) *operation.CreateSequence {
	return &operation.CreateSequence{
		Base:         operation.Base{Annotations: s.Annotations.Clone()},
		Name:         s.Name,
		Schema:       s.schema,
		ClrType:      s.ClrType,
		StartValue:   s.StartValue,
		SequenceSpec: s.spec(),
	}
}

// createTables records CreateTable for new tables, principals first. A
// foreign key is declared inline when its principal table exists by the
// time the table is created, and added afterwards otherwise.
func (p *plan) createTables(created []*Table) {
	ready := make(map[key]bool)
	for k := range p.source {
		if _, ok := p.target[k]; ok {
			ready[k] = true
		}
	}
	for _, t := range dependencyOrder(created) {
		ready[t.key()] = true
		op := &operation.CreateTable{Name: t.Name, Schema: t.Schema, Comment: t.Comment}
		for _, c := range t.Columns {
			op.Columns = append(op.Columns, addColumn(t, c))
		}
		if t.PrimaryKey != nil {
			op.PrimaryKey = addPrimaryKey(t, t.PrimaryKey)
		}
		for _, u := range t.Uniques {
			op.UniqueConstraints = append(op.UniqueConstraints, addUniqueConstraint(t, u))
		}
		for _, fk := range t.ForeignKeys {
			if ready[key{fk.PrincipalSchema, fk.PrincipalTable}] {
				op.ForeignKeys = append(op.ForeignKeys, addForeignKey(t, fk))
			} else {
				p.addForeignKeys = append(p.addForeignKeys, addForeignKey(t, fk))
			}
		}
		p.createTableOps = append(p.createTableOps, op)
		for _, ix := range t.Indexes {
			p.createIndexes = append(p.createIndexes, createIndex(t, ix))
		}
	}
}

// dropTables records DropTable for removed tables, dependents first.
// Foreign keys that would still point at an already dropped table are
// dropped up front.
func (p *plan) dropTables(dropped []*Table) {
	order := dependencyOrder(dropped)
	slices.Reverse(order)
	position := make(map[key]int, len(order))
	for i, t := range order {
		position[t.key()] = i
	}
	for i, t := range order {
		for _, fk := range t.ForeignKeys {
			if j, ok := position[key{fk.PrincipalSchema, fk.PrincipalTable}]; ok && j < i {
				p.dropForeignKeys = append(p.dropForeignKeys, &operation.DropForeignKey{Name: fk.Name, Schema: t.Schema, Table: t.Name})
			}
		}
		p.dropTableOps = append(p.dropTableOps, &operation.DropTable{Name: t.Name, Schema: t.Schema})
	}
}

// dependencyOrder sorts tables so that the principals of each table's
// foreign keys come before it. Cycles are broken at the first table of
// the cycle in name order.
func dependencyOrder(tables []*Table) []*Table {
	in := byKey(tables)
	done := make(map[key]bool, len(tables))
	ready := func(t *Table) bool {
		for _, fk := range t.ForeignKeys {
			k := key{fk.PrincipalSchema, fk.PrincipalTable}
			if _, ok := in[k]; ok && k != t.key() && !done[k] {
				return false
			}
		}
		return true
	}
	pending := slices.Clone(tables)
	order := make([]*Table, 0, len(tables))
	for len(pending) > 0 {
		next := slices.IndexFunc(pending, ready)
		if next < 0 {
			next = 0
		}
		t := pending[next]
		done[t.key()] = true
		order = append(order, t)
		pending = slices.Delete(pending, next, next+1)
	}
	return order
}

// databaseAnnotations are the model annotations applied to the database.
// Relational facets and bookkeeping values are excluded.
func databaseAnnotations(m *model.Model) model.Annotations {
	if m == nil {
		return nil
	}
	var out model.Annotations
	for _, name := range m.Annotations.Names() {
		if name == model.AnnotationProductVersion || strings.HasPrefix(name, "Relational:") ||
			strings.HasPrefix(name, "RelationshipDiscoveryConvention:") {
			continue
		}
		out.Set(name, m.Annotations[name])
	}
	return out
}

func collation(m *model.Model) string {
	if m == nil {
		return ""
	}
	return m.Annotations.GetString(model.AnnotationCollation)
}

func (p *plan) alterDatabase(source, target *model.Model) {
	oldAnn, newAnn := databaseAnnotations(source), databaseAnnotations(target)
	if collation(source) == collation(target) && oldAnn.Equal(newAnn) {
		return
	}
	p.alterTables = append(p.alterTables, &operation.AlterDatabase{
		Base:           operation.Base{Annotations: newAnn},
		Collation:      collation(target),
		OldCollation:   collation(source),
		OldAnnotations: oldAnn,
	})
}

func addColumn(t *Table, c *Column) *operation.AddColumn {
	return &operation.AddColumn{
		Base:       operation.Base{Annotations: c.Annotations.Clone()},
		Name:       c.Name,
		Schema:     t.Schema,
		Table:      t.Name,
		ColumnSpec: c.ColumnSpec,
	}
}

func addPrimaryKey(t *Table, c *Constraint) *operation.AddPrimaryKey {
	return &operation.AddPrimaryKey{
		Base:    operation.Base{Annotations: c.Annotations.Clone()},
		Name:    c.Name,
		Schema:  t.Schema,
		Table:   t.Name,
		Columns: slices.Clone(c.Columns),
	}
}

func addUniqueConstraint(t *Table, c *Constraint) *operation.AddUniqueConstraint {
	return &operation.AddUniqueConstraint{
		Base:    operation.Base{Annotations: c.Annotations.Clone()},
		Name:    c.Name,
		Schema:  t.Schema,
		Table:   t.Name,
		Columns: slices.Clone(c.Columns),
	}
}

func addForeignKey(t *Table, fk *ForeignKey) *operation.AddForeignKey {
	return &operation.AddForeignKey{
		Base:             operation.Base{Annotations: fk.Annotations.Clone()},
		Name:             fk.Name,
		Schema:           t.Schema,
		Table:            t.Name,
		Columns:          slices.Clone(fk.Columns),
		PrincipalSchema:  fk.PrincipalSchema,
		PrincipalTable:   fk.PrincipalTable,
		PrincipalColumns: slices.Clone(fk.PrincipalColumns),
		OnDelete:         fk.OnDelete,
	}
}

func createIndex(t *Table, ix *Index) *operation.CreateIndex {
	return &operation.CreateIndex{
		Base:     operation.Base{Annotations: ix.Annotations.Clone()},
		Name:     ix.Name,
		Schema:   t.Schema,
		Table:    t.Name,
		Columns:  slices.Clone(ix.Columns),
		IsUnique: ix.IsUnique,
		Filter:   ix.Filter,
	}
}

func columnEqual(a, b *Column) bool {
	return reflect.DeepEqual(a.ColumnSpec, b.ColumnSpec) && a.Annotations.Equal(b.Annotations)
}

func constraintEqual(a, b *Constraint) bool {
	return slices.Equal(a.Columns, b.Columns) && a.Annotations.Equal(b.Annotations)
}

func foreignKeyEqual(a, b *ForeignKey) bool {
	return slices.Equal(a.Columns, b.Columns) &&
		a.PrincipalSchema == b.PrincipalSchema &&
		a.PrincipalTable == b.PrincipalTable &&
		slices.Equal(a.PrincipalColumns, b.PrincipalColumns) &&
		a.OnDelete == b.OnDelete &&
		a.Annotations.Equal(b.Annotations)
}

func indexEqual(a, b *Index) bool {
	return slices.Equal(a.Columns, b.Columns) &&
		a.IsUnique == b.IsUnique &&
		a.Filter == b.Filter &&
		a.Annotations.Equal(b.Annotations)
}

func findForeignKey(fks []*ForeignKey, name string) *ForeignKey {
	for _, fk := range fks {
		if fk.Name == name {
			return fk
		}
	}
	return nil
}

func findIndex(ixs []*Index, name string) *Index {
	for _, ix := range ixs {
		if ix.Name == name {
			return ix
		}
	}
	return nil
}

func findConstraint(cs []*Constraint, name string) *Constraint {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}
