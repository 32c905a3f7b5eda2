package model

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Well-known annotation names.
const (
	AnnotationProductVersion = "ProductVersion"

	AnnotationDefaultSchema     = "Relational:DefaultSchema"
	AnnotationTableName         = "Relational:TableName"
	AnnotationSchema            = "Relational:Schema"
	AnnotationComment           = "Relational:Comment"
	AnnotationCollation         = "Relational:Collation"
	AnnotationColumnName        = "Relational:ColumnName"
	AnnotationColumnType        = "Relational:ColumnType"
	AnnotationDefaultValue      = "Relational:DefaultValue"
	AnnotationDefaultValueSQL   = "Relational:DefaultValueSql"
	AnnotationComputedColumnSQL = "Relational:ComputedColumnSql"
	AnnotationName              = "Relational:Name"
	AnnotationFilter            = "Relational:Filter"
	AnnotationMaxLength         = "MaxLength"
	AnnotationUnicode           = "Unicode"
	AnnotationPrecision         = "Precision"
	AnnotationScale             = "Scale"

	AnnotationDiscriminatorProperty = "DiscriminatorProperty"
	AnnotationDiscriminatorValue    = "DiscriminatorValue"

	// Bookkeeping written by relationship discovery. Never emitted.
	AnnotationNavigationCandidates = "RelationshipDiscoveryConvention:NavigationCandidates"
	AnnotationAmbiguousNavigations = "RelationshipDiscoveryConvention:AmbiguousNavigations"
	AnnotationInverseNavigations   = "RelationshipDiscoveryConvention:InverseNavigations"
)

// Annotations holds named extension values attached to a model element.
// Values are drawn from the set the literal formatter understands: booleans,
// sized integers, floats, strings, []byte, []string, time.Time, time.Duration,
// uuid.UUID, Decimal, the model enums and pointers to any of them.
type Annotations map[string]any

// Set stores value under name, allocating the map if needed.
func (a *Annotations) Set(name string, value any) {
	if *a == nil {
		*a = make(Annotations)
	}
	(*a)[name] = value
}

// Get returns the value stored under name.
func (a Annotations) Get(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

// GetString returns the string value stored under name, or "".
func (a Annotations) GetString(name string) string {
	s, _ := a[name].(string)
	return s
}

// Names returns the annotation names in sorted order.
func (a Annotations) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone returns a shallow copy. A nil receiver clones to nil.
func (a Annotations) Clone() Annotations {
	if a == nil {
		return nil
	}
	c := make(Annotations, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Equal reports whether both sets hold the same names and values.
// A nil set equals an empty one.
func (a Annotations) Equal(b Annotations) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// EncodeMsgpack encodes the set in name order and tags every value with its
// Go type, since plain msgpack folds int8 into int64 and drops the location
// of a time.Time.
func (a Annotations) EncodeMsgpack(enc *msgpack.Encoder) error {
	names := a.Names()
	if err := enc.EncodeArrayLen(len(names)); err != nil {
		return err
	}
	for _, name := range names {
		v := a[name]
		if err := enc.EncodeMulti(name, fmt.Sprintf("%T", v), zone(v), v); err != nil {
			return err
		}
	}
	return nil
}

// zone describes the location of a time value, or returns "".
func zone(v any) string {
	var t time.Time
	switch v := v.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return ""
		}
		t = *v
	default:
		return ""
	}
	name, offset := t.Zone()
	return fmt.Sprintf("%s %s %d", t.Location(), name, offset)
}

// Decimal is an exact decimal value kept in its textual form, so that
// "12.30" and "12.3" stay distinct.
type Decimal string

// String implements fmt.Stringer.
func (d Decimal) String() string { return string(d) }

// Ptr returns a pointer to v. Generated code uses it for optional values.
func Ptr[T any](v T) *T { return &v }
