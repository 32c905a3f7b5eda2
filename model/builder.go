package model

import (
	"cmp"
	"slices"
	"strings"

	"github.com/syssam/migrator"
)

// Builder assembles a Model through fluent calls. Generated snapshot and
// designer files drive it to rebuild the model they describe.
type Builder struct {
	annotations Annotations
	entities    map[string]*EntityTypeBuilder
	sequences   []*SequenceBuilder
}

// NewBuilder returns an empty model builder.
func NewBuilder() *Builder {
	return &Builder{entities: make(map[string]*EntityTypeBuilder)}
}

// HasAnnotation sets a model annotation.
func (b *Builder) HasAnnotation(name string, value any) *Builder {
	b.annotations.Set(name, value)
	return b
}

// HasDefaultSchema sets the schema used by tables without an explicit one.
func (b *Builder) HasDefaultSchema(schema string) *Builder {
	return b.HasAnnotation(AnnotationDefaultSchema, schema)
}

// HasSequence declares a sequence. StartValue and IncrementBy default to 1.
func (b *Builder) HasSequence(name, clrType string) *SequenceBuilder {
	s := &SequenceBuilder{seq: &Sequence{Name: name, ClrType: clrType, StartValue: 1, IncrementBy: 1}}
	b.sequences = append(b.sequences, s)
	return s
}

// Entity returns the builder of the named entity type, creating it on first
// use, and applies configure to it when non-nil.
func (b *Builder) Entity(name string, configure func(e *EntityTypeBuilder)) *EntityTypeBuilder {
	e, ok := b.entities[name]
	if !ok {
		e = &EntityTypeBuilder{entity: &EntityType{Name: name}}
		b.entities[name] = e
	}
	if configure != nil {
		configure(e)
	}
	return e
}

// Build validates the collected configuration and returns the model.
func (b *Builder) Build() (*Model, error) {
	m := &Model{Annotations: b.annotations.Clone()}
	for _, e := range b.entities {
		m.Entities = append(m.Entities, e.entity)
	}
	slices.SortFunc(m.Entities, func(a, b *EntityType) int { return strings.Compare(a.Name, b.Name) })
	for _, s := range b.sequences {
		m.Sequences = append(m.Sequences, s.seq)
	}
	slices.SortFunc(m.Sequences, func(a, b *Sequence) int {
		return cmp.Or(strings.Compare(a.Schema, b.Schema), strings.Compare(a.Name, b.Name))
	})
	if err := checkInheritance(m); err != nil {
		return nil, err
	}
	var errs []error
	for _, e := range m.Entities {
		eb := b.entities[e.Name]
		root := m.Root(e)
		for _, p := range e.Properties {
			nullable := eb.nullable[p.Name]
			if nullable == nil {
				p.IsNullable = IsNullableType(p.ClrType) && !root.IsPrimaryKeyMember(p.Name)
			} else {
				p.IsNullable = *nullable
			}
		}
		if e.PrimaryKey != nil {
			errs = append(errs, checkProperties(m, e, "primary key", e.PrimaryKey.Properties)...)
		}
		for _, k := range e.Keys {
			errs = append(errs, checkProperties(m, e, "key", k.Properties)...)
		}
		for _, ix := range e.Indexes {
			errs = append(errs, checkProperties(m, e, "index", ix.Properties)...)
		}
	}
	for _, e := range m.Entities {
		for _, fk := range e.ForeignKeys {
			errs = append(errs, resolveForeignKey(m, e, fk)...)
		}
	}
	if err := migrator.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func checkProperties(m *Model, e *EntityType, member string, props []string) []error {
	if len(props) == 0 {
		return []error{migrator.NewModelError(e.Name, member, "no properties")}
	}
	var errs []error
	for _, name := range props {
		if m.Property(e, name) == nil {
			errs = append(errs, migrator.NewModelError(e.Name, name, member+" property not found"))
		}
	}
	return errs
}

func resolveForeignKey(m *Model, e *EntityType, fk *ForeignKey) []error {
	member := "foreign key " + strings.Join(fk.Properties, ",")
	principal := m.Entity(fk.PrincipalEntityType)
	if principal == nil {
		return []error{migrator.NewModelError(e.Name, member, "principal "+fk.PrincipalEntityType+" not found")}
	}
	errs := checkProperties(m, e, "foreign key", fk.Properties)
	key := m.PrincipalKey(fk)
	if len(key) == 0 {
		return append(errs, migrator.NewModelError(e.Name, member, "principal "+principal.Name+" has no key"))
	}
	if len(key) != len(fk.Properties) {
		errs = append(errs, migrator.NewModelError(e.Name, member, "column count does not match the principal key"))
	}
	if errs = append(errs, checkProperties(m, principal, "principal key", key)...); len(errs) > 0 {
		return errs
	}
	root := m.Root(principal)
	if root.PrimaryKey != nil && slices.Equal(root.PrimaryKey.Properties, key) {
		return nil
	}
	for _, k := range principal.Keys {
		if slices.Equal(k.Properties, key) {
			return nil
		}
	}
	principal.Keys = append(principal.Keys, &Key{Properties: slices.Clone(key)})
	return nil
}

// checkInheritance fails when a base type is missing or base types loop.
func checkInheritance(m *Model) error {
	var (
		errs  []error
		cycle = make(map[string]bool)
		done  = make(map[string]bool)
	)
	for _, e := range m.Entities {
		if e.BaseType != "" && m.Entity(e.BaseType) == nil {
			errs = append(errs, migrator.NewModelError(e.Name, "", "base type "+e.BaseType+" not found"))
		}
		path := make(map[string]int)
		var chain []string
		for cur := e; cur != nil && !done[cur.Name]; cur = m.Entity(cur.BaseType) {
			if i, ok := path[cur.Name]; ok {
				for _, name := range chain[i:] {
					cycle[name] = true
				}
				break
			}
			path[cur.Name] = len(chain)
			chain = append(chain, cur.Name)
		}
		for _, name := range chain {
			done[name] = true
		}
	}
	if len(cycle) > 0 {
		names := make([]string, 0, len(cycle))
		for name := range cycle {
			names = append(names, name)
		}
		slices.Sort(names)
		errs = append(errs, &migrator.InheritanceCycleError{Entities: names})
	}
	return migrator.NewAggregateError(errs...)
}

// EntityTypeBuilder configures one entity type.
type EntityTypeBuilder struct {
	entity   *EntityType
	nullable map[string]*bool
}

// Name returns the entity type name.
func (e *EntityTypeBuilder) Name() string { return e.entity.Name }

// HasBaseType sets the base type of the entity.
func (e *EntityTypeBuilder) HasBaseType(name string) *EntityTypeBuilder {
	e.entity.BaseType = name
	return e
}

// Property returns the builder of the named property, declaring it on first use.
func (e *EntityTypeBuilder) Property(name, clrType string) *PropertyBuilder {
	p := e.entity.Property(name)
	if p == nil {
		p = &Property{Name: name}
		e.entity.Properties = append(e.entity.Properties, p)
	}
	if clrType != "" {
		p.ClrType = clrType
	}
	return &PropertyBuilder{entity: e, prop: p}
}

// HasKey sets the primary key.
func (e *EntityTypeBuilder) HasKey(props ...string) *KeyBuilder {
	e.entity.PrimaryKey = &Key{Properties: props}
	return &KeyBuilder{key: e.entity.PrimaryKey}
}

// HasAlternateKey declares an alternate key.
func (e *EntityTypeBuilder) HasAlternateKey(props ...string) *KeyBuilder {
	for _, k := range e.entity.Keys {
		if slices.Equal(k.Properties, props) {
			return &KeyBuilder{key: k}
		}
	}
	k := &Key{Properties: props}
	e.entity.Keys = append(e.entity.Keys, k)
	return &KeyBuilder{key: k}
}

// HasIndex declares an index.
func (e *EntityTypeBuilder) HasIndex(props ...string) *IndexBuilder {
	ix := &Index{Properties: props}
	e.entity.Indexes = append(e.entity.Indexes, ix)
	return &IndexBuilder{index: ix}
}

// ToTable maps the entity to a table. Empty arguments leave the defaults.
func (e *EntityTypeBuilder) ToTable(name, schema string) *EntityTypeBuilder {
	if name != "" {
		e.entity.Annotations.Set(AnnotationTableName, name)
	}
	if schema != "" {
		e.entity.Annotations.Set(AnnotationSchema, schema)
	}
	return e
}

// HasDiscriminator declares the property distinguishing the types of a
// hierarchy stored in one table.
func (e *EntityTypeBuilder) HasDiscriminator(property string) *DiscriminatorBuilder {
	e.entity.Annotations.Set(AnnotationDiscriminatorProperty, property)
	return &DiscriminatorBuilder{entity: e}
}

// HasDiscriminatorValue sets the discriminator value stored for this type.
func (e *EntityTypeBuilder) HasDiscriminatorValue(value any) *EntityTypeBuilder {
	e.entity.Annotations.Set(AnnotationDiscriminatorValue, value)
	return e
}

// HasAnnotation sets an entity annotation.
func (e *EntityTypeBuilder) HasAnnotation(name string, value any) *EntityTypeBuilder {
	e.entity.Annotations.Set(name, value)
	return e
}

// HasOne starts a relationship from this entity to principal. The
// navigation name may be empty.
func (e *EntityTypeBuilder) HasOne(principal, navigation string) *ReferenceBuilder {
	return &ReferenceBuilder{entity: e, fk: &ForeignKey{
		PrincipalEntityType:  principal,
		DependentToPrincipal: navigation,
	}}
}

// DiscriminatorBuilder configures the discriminator of a hierarchy.
type DiscriminatorBuilder struct {
	entity *EntityTypeBuilder
}

// HasValue sets the discriminator value of the declaring type.
func (d *DiscriminatorBuilder) HasValue(value any) *DiscriminatorBuilder {
	d.entity.HasDiscriminatorValue(value)
	return d
}

// PropertyBuilder configures one property.
type PropertyBuilder struct {
	entity *EntityTypeBuilder
	prop   *Property
}

func (p *PropertyBuilder) setNullable(v bool) *PropertyBuilder {
	if p.entity.nullable == nil {
		p.entity.nullable = make(map[string]*bool)
	}
	p.entity.nullable[p.prop.Name] = &v
	return p
}

// IsRequired marks the property as not nullable.
func (p *PropertyBuilder) IsRequired() *PropertyBuilder { return p.setNullable(false) }

// IsNullable marks the property as nullable.
func (p *PropertyBuilder) IsNullable() *PropertyBuilder { return p.setNullable(true) }

// IsConcurrencyToken marks the property as an optimistic concurrency token.
func (p *PropertyBuilder) IsConcurrencyToken() *PropertyBuilder {
	p.prop.IsConcurrencyToken = true
	return p
}

// ValueGeneratedOnAdd marks the value as generated on insert.
func (p *PropertyBuilder) ValueGeneratedOnAdd() *PropertyBuilder {
	p.prop.ValueGenerated = ValueGeneratedOnAdd
	return p
}

// ValueGeneratedOnAddOrUpdate marks the value as generated on insert and update.
func (p *PropertyBuilder) ValueGeneratedOnAddOrUpdate() *PropertyBuilder {
	p.prop.ValueGenerated = ValueGeneratedOnAddOrUpdate
	return p
}

// HasColumnName sets the column name.
func (p *PropertyBuilder) HasColumnName(name string) *PropertyBuilder {
	return p.HasAnnotation(AnnotationColumnName, name)
}

// HasColumnType sets the store type.
func (p *PropertyBuilder) HasColumnType(typ string) *PropertyBuilder {
	return p.HasAnnotation(AnnotationColumnType, typ)
}

// HasMaxLength sets the maximum length.
func (p *PropertyBuilder) HasMaxLength(n int) *PropertyBuilder {
	return p.HasAnnotation(AnnotationMaxLength, n)
}

// HasPrecision sets the numeric precision.
func (p *PropertyBuilder) HasPrecision(n int) *PropertyBuilder {
	return p.HasAnnotation(AnnotationPrecision, n)
}

// HasScale sets the numeric scale.
func (p *PropertyBuilder) HasScale(n int) *PropertyBuilder {
	return p.HasAnnotation(AnnotationScale, n)
}

// IsUnicode sets whether the column stores unicode text.
func (p *PropertyBuilder) IsUnicode(unicode bool) *PropertyBuilder {
	return p.HasAnnotation(AnnotationUnicode, unicode)
}

// HasDefaultValue sets the column default.
func (p *PropertyBuilder) HasDefaultValue(v any) *PropertyBuilder {
	return p.HasAnnotation(AnnotationDefaultValue, v)
}

// HasDefaultValueSQL sets the SQL expression used as column default.
func (p *PropertyBuilder) HasDefaultValueSQL(sql string) *PropertyBuilder {
	return p.HasAnnotation(AnnotationDefaultValueSQL, sql)
}

// HasComputedColumnSQL sets the SQL expression computing the column.
func (p *PropertyBuilder) HasComputedColumnSQL(sql string) *PropertyBuilder {
	return p.HasAnnotation(AnnotationComputedColumnSQL, sql)
}

// HasAnnotation sets a property annotation.
func (p *PropertyBuilder) HasAnnotation(name string, value any) *PropertyBuilder {
	p.prop.Annotations.Set(name, value)
	return p
}

// KeyBuilder configures a key.
type KeyBuilder struct {
	key *Key
}

// HasName sets the constraint name.
func (k *KeyBuilder) HasName(name string) *KeyBuilder {
	return k.HasAnnotation(AnnotationName, name)
}

// HasAnnotation sets a key annotation.
func (k *KeyBuilder) HasAnnotation(name string, value any) *KeyBuilder {
	k.key.Annotations.Set(name, value)
	return k
}

// IndexBuilder configures an index.
type IndexBuilder struct {
	index *Index
}

// IsUnique marks the index as unique.
func (i *IndexBuilder) IsUnique() *IndexBuilder {
	i.index.IsUnique = true
	return i
}

// HasDatabaseName sets the index name.
func (i *IndexBuilder) HasDatabaseName(name string) *IndexBuilder {
	return i.HasAnnotation(AnnotationName, name)
}

// HasFilter sets the SQL filter of a partial index.
func (i *IndexBuilder) HasFilter(sql string) *IndexBuilder {
	return i.HasAnnotation(AnnotationFilter, sql)
}

// HasAnnotation sets an index annotation.
func (i *IndexBuilder) HasAnnotation(name string, value any) *IndexBuilder {
	i.index.Annotations.Set(name, value)
	return i
}

// ReferenceBuilder is a relationship whose principal side is not yet configured.
type ReferenceBuilder struct {
	entity *EntityTypeBuilder
	fk     *ForeignKey
}

// WithMany completes a one-to-many relationship.
func (r *ReferenceBuilder) WithMany(navigation string) *RelationshipBuilder {
	return r.with(navigation, false)
}

// WithOne completes a one-to-one relationship.
func (r *ReferenceBuilder) WithOne(navigation string) *RelationshipBuilder {
	return r.with(navigation, true)
}

func (r *ReferenceBuilder) with(navigation string, unique bool) *RelationshipBuilder {
	r.fk.PrincipalToDependent = navigation
	r.fk.IsUnique = unique
	r.entity.entity.ForeignKeys = append(r.entity.entity.ForeignKeys, r.fk)
	return &RelationshipBuilder{fk: r.fk}
}

// RelationshipBuilder configures a foreign key.
type RelationshipBuilder struct {
	fk *ForeignKey
}

// HasForeignKey sets the dependent properties.
func (r *RelationshipBuilder) HasForeignKey(props ...string) *RelationshipBuilder {
	r.fk.Properties = props
	return r
}

// HasPrincipalKey sets the principal properties referenced by the foreign key.
func (r *RelationshipBuilder) HasPrincipalKey(props ...string) *RelationshipBuilder {
	r.fk.PrincipalKey = props
	return r
}

// OnDelete sets the delete behavior.
func (r *RelationshipBuilder) OnDelete(behavior DeleteBehavior) *RelationshipBuilder {
	r.fk.DeleteBehavior = behavior
	return r
}

// IsRequired marks the relationship as required.
func (r *RelationshipBuilder) IsRequired() *RelationshipBuilder {
	r.fk.IsRequired = true
	return r
}

// HasConstraintName sets the constraint name.
func (r *RelationshipBuilder) HasConstraintName(name string) *RelationshipBuilder {
	return r.HasAnnotation(AnnotationName, name)
}

// HasAnnotation sets a foreign key annotation.
func (r *RelationshipBuilder) HasAnnotation(name string, value any) *RelationshipBuilder {
	r.fk.Annotations.Set(name, value)
	return r
}

// SequenceBuilder configures a sequence.
type SequenceBuilder struct {
	seq *Sequence
}

// InSchema sets the sequence schema.
func (s *SequenceBuilder) InSchema(schema string) *SequenceBuilder {
	s.seq.Schema = schema
	return s
}

// StartsAt sets the first value.
func (s *SequenceBuilder) StartsAt(v int64) *SequenceBuilder {
	s.seq.StartValue = v
	return s
}

// IncrementsBy sets the step.
func (s *SequenceBuilder) IncrementsBy(v int) *SequenceBuilder {
	s.seq.IncrementBy = v
	return s
}

// HasMin sets the minimum value.
func (s *SequenceBuilder) HasMin(v int64) *SequenceBuilder {
	s.seq.MinValue = &v
	return s
}

// HasMax sets the maximum value.
func (s *SequenceBuilder) HasMax(v int64) *SequenceBuilder {
	s.seq.MaxValue = &v
	return s
}

// IsCyclic makes the sequence restart after reaching its bound.
func (s *SequenceBuilder) IsCyclic() *SequenceBuilder {
	s.seq.IsCyclic = true
	return s
}

// HasAnnotation sets a sequence annotation.
func (s *SequenceBuilder) HasAnnotation(name string, value any) *SequenceBuilder {
	s.seq.Annotations.Set(name, value)
	return s
}
