// Package model holds the metadata graph migrations are computed from,
// together with the fluent builder generated snapshots use to rebuild it.
package model

import (
	"slices"
	"strings"
)

// ValueGenerated describes when the database generates a property value.
type ValueGenerated uint8

const (
	ValueGeneratedNone ValueGenerated = iota
	ValueGeneratedOnAdd
	ValueGeneratedOnAddOrUpdate
)

// String implements fmt.Stringer.
func (v ValueGenerated) String() string {
	switch v {
	case ValueGeneratedOnAdd:
		return "OnAdd"
	case ValueGeneratedOnAddOrUpdate:
		return "OnAddOrUpdate"
	default:
		return "None"
	}
}

// DeleteBehavior is applied to dependents when their principal is deleted.
// The zero value is Restrict.
type DeleteBehavior uint8

const (
	DeleteRestrict DeleteBehavior = iota
	DeleteCascade
	DeleteSetNull
	DeleteNoAction
)

// String implements fmt.Stringer.
func (d DeleteBehavior) String() string {
	switch d {
	case DeleteCascade:
		return "Cascade"
	case DeleteSetNull:
		return "SetNull"
	case DeleteNoAction:
		return "NoAction"
	default:
		return "Restrict"
	}
}

// Model is one immutable version of the mapped data model.
type Model struct {
	Annotations Annotations
	Entities    []*EntityType // sorted by name
	Sequences   []*Sequence   // sorted by schema, name
}

// EntityType is a mapped record owning properties, keys, indexes and
// outgoing foreign keys.
type EntityType struct {
	Name        string
	BaseType    string
	Properties  []*Property // declared on this type only
	PrimaryKey  *Key
	Keys        []*Key // alternate keys
	Indexes     []*Index
	ForeignKeys []*ForeignKey
	Annotations Annotations
}

// Property is a scalar member of an entity type. ClrType is a Go type
// expression such as "int", "*string" or "time.Time".
type Property struct {
	Name               string
	ClrType            string
	IsNullable         bool
	IsConcurrencyToken bool
	ValueGenerated     ValueGenerated
	Annotations        Annotations
}

// Key is a primary or alternate key.
type Key struct {
	Properties  []string
	Annotations Annotations
}

// Index is a database index over entity properties.
type Index struct {
	Properties  []string
	IsUnique    bool
	Annotations Annotations
}

// ForeignKey is a relationship from a dependent entity type (the owner)
// to a key of its principal.
type ForeignKey struct {
	Properties           []string
	PrincipalEntityType  string
	PrincipalKey         []string
	IsUnique             bool
	IsRequired           bool
	DeleteBehavior       DeleteBehavior
	DependentToPrincipal string
	PrincipalToDependent string
	Annotations          Annotations
}

// Sequence is a database sequence.
type Sequence struct {
	Name        string
	Schema      string
	ClrType     string
	StartValue  int64
	IncrementBy int
	MinValue    *int64
	MaxValue    *int64
	IsCyclic    bool
	Annotations Annotations
}

// Entity returns the entity type with the given name, or nil.
func (m *Model) Entity(name string) *EntityType {
	if m == nil {
		return nil
	}
	i, ok := slices.BinarySearchFunc(m.Entities, name, func(e *EntityType, name string) int {
		return strings.Compare(e.Name, name)
	})
	if !ok {
		return nil
	}
	return m.Entities[i]
}

// Sequence returns the sequence with the given schema and name, or nil.
func (m *Model) Sequence(schema, name string) *Sequence {
	if m == nil {
		return nil
	}
	for _, s := range m.Sequences {
		if s.Schema == schema && s.Name == name {
			return s
		}
	}
	return nil
}

// Root returns the top of the inheritance chain of e.
func (m *Model) Root(e *EntityType) *EntityType {
	for range len(m.Entities) + 1 {
		base := m.Entity(e.BaseType)
		if base == nil {
			return e
		}
		e = base
	}
	return e
}

// Hierarchy returns root followed by all its descendants, breadth first.
func (m *Model) Hierarchy(root *EntityType) []*EntityType {
	out := []*EntityType{root}
	for i := 0; i < len(out) && len(out) <= len(m.Entities); i++ {
		for _, e := range m.Entities {
			if e.BaseType == out[i].Name {
				out = append(out, e)
			}
		}
	}
	return out
}

// Property resolves name on e or one of its ancestors.
func (m *Model) Property(e *EntityType, name string) *Property {
	for range len(m.Entities) + 1 {
		if p := e.Property(name); p != nil {
			return p
		}
		if e = m.Entity(e.BaseType); e == nil {
			return nil
		}
	}
	return nil
}

// Property returns the property declared on e with the given name, or nil.
func (e *EntityType) Property(name string) *Property {
	for _, p := range e.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// IsPrimaryKeyMember reports whether the named property is part of the
// primary key of e.
func (e *EntityType) IsPrimaryKeyMember(name string) bool {
	return e.PrimaryKey != nil && slices.Contains(e.PrimaryKey.Properties, name)
}

// IsNullableType reports whether values of the Go type expression t can be nil.
func IsNullableType(t string) bool {
	switch {
	case strings.HasPrefix(t, "*"), strings.HasPrefix(t, "[]"), strings.HasPrefix(t, "map["),
		t == "any", t == "interface{}":
		return true
	default:
		return false
	}
}
