package model

import "strings"

// DefaultSchema returns the schema used by tables without an explicit one.
func (m *Model) DefaultSchema() string {
	if m == nil {
		return ""
	}
	return m.Annotations.GetString(AnnotationDefaultSchema)
}

// TableName returns the table e is mapped to. Derived types share the
// table of their root.
func (m *Model) TableName(e *EntityType) string {
	root := m.Root(e)
	if name := root.Annotations.GetString(AnnotationTableName); name != "" {
		return name
	}
	return root.Name
}

// Schema returns the schema of the table e is mapped to.
func (m *Model) Schema(e *EntityType) string {
	if s := m.Root(e).Annotations.GetString(AnnotationSchema); s != "" {
		return s
	}
	return m.DefaultSchema()
}

// ColumnName returns the column p is mapped to.
func (p *Property) ColumnName() string {
	if name := p.Annotations.GetString(AnnotationColumnName); name != "" {
		return name
	}
	return p.Name
}

// ColumnType returns the store type of p, or "" to let the provider decide.
func (p *Property) ColumnType() string {
	return p.Annotations.GetString(AnnotationColumnType)
}

// MaxLength returns the configured maximum length of p.
func (p *Property) MaxLength() *int {
	return intAnnotation(p.Annotations, AnnotationMaxLength)
}

// Precision returns the configured numeric precision of p.
func (p *Property) Precision() *int {
	return intAnnotation(p.Annotations, AnnotationPrecision)
}

// Scale returns the configured numeric scale of p.
func (p *Property) Scale() *int {
	return intAnnotation(p.Annotations, AnnotationScale)
}

// IsUnicode returns the configured unicode flag of p.
func (p *Property) IsUnicode() *bool {
	if b, ok := p.Annotations[AnnotationUnicode].(bool); ok {
		return &b
	}
	return nil
}

// DefaultValue returns the column default of p.
func (p *Property) DefaultValue() any {
	return p.Annotations[AnnotationDefaultValue]
}

// DefaultValueSQL returns the SQL expression used as column default.
func (p *Property) DefaultValueSQL() string {
	return p.Annotations.GetString(AnnotationDefaultValueSQL)
}

// ComputedColumnSQL returns the SQL expression computing the column.
func (p *Property) ComputedColumnSQL() string {
	return p.Annotations.GetString(AnnotationComputedColumnSQL)
}

// ColumnNames maps property names of e to column names.
func (m *Model) ColumnNames(e *EntityType, props []string) []string {
	cols := make([]string, len(props))
	for i, name := range props {
		if p := m.Property(e, name); p != nil {
			cols[i] = p.ColumnName()
		} else {
			cols[i] = name
		}
	}
	return cols
}

// PrimaryKeyName returns the constraint name of the primary key of e.
func (m *Model) PrimaryKeyName(e *EntityType) string {
	if k := m.Root(e).PrimaryKey; k != nil {
		if name := k.Annotations.GetString(AnnotationName); name != "" {
			return name
		}
	}
	return "PK_" + m.TableName(e)
}

// KeyName returns the constraint name of the alternate key k of e.
func (m *Model) KeyName(e *EntityType, k *Key) string {
	if name := k.Annotations.GetString(AnnotationName); name != "" {
		return name
	}
	return "AK_" + m.TableName(e) + "_" + strings.Join(m.ColumnNames(e, k.Properties), "_")
}

// IndexName returns the database name of index ix of e.
func (m *Model) IndexName(e *EntityType, ix *Index) string {
	if name := ix.Annotations.GetString(AnnotationName); name != "" {
		return name
	}
	return "IX_" + m.TableName(e) + "_" + strings.Join(m.ColumnNames(e, ix.Properties), "_")
}

// ForeignKeyName returns the constraint name of fk declared on e.
func (m *Model) ForeignKeyName(e *EntityType, fk *ForeignKey) string {
	if name := fk.Annotations.GetString(AnnotationName); name != "" {
		return name
	}
	principal := fk.PrincipalEntityType
	if p := m.Entity(principal); p != nil {
		principal = m.TableName(p)
	}
	return "FK_" + m.TableName(e) + "_" + principal + "_" + strings.Join(m.ColumnNames(e, fk.Properties), "_")
}

// PrincipalKey returns the principal properties fk references, falling back
// to the primary key of the principal.
func (m *Model) PrincipalKey(fk *ForeignKey) []string {
	if len(fk.PrincipalKey) > 0 {
		return fk.PrincipalKey
	}
	if p := m.Entity(fk.PrincipalEntityType); p != nil {
		if k := m.Root(p).PrimaryKey; k != nil {
			return k.Properties
		}
	}
	return nil
}

func intAnnotation(a Annotations, name string) *int {
	switch v := a[name].(type) {
	case int:
		return &v
	case int32:
		n := int(v)
		return &n
	case int64:
		n := int(v)
		return &n
	}
	return nil
}
