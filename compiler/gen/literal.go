package gen

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// Import paths referenced by generated code.
const (
	migratePkg   = "github.com/syssam/migrator/migrate"
	modelPkg     = "github.com/syssam/migrator/model"
	operationPkg = "github.com/syssam/migrator/operation"
	uuidPkg      = "github.com/google/uuid"
)

// FormatLiteral renders v as Go source that evaluates to an equal value.
func FormatLiteral(v any) (string, error) {
	s, err := Literal(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%#v", s), nil
}

// Literal returns a jennifer expression evaluating to v. Supported values
// are nil, bool, string, all sized integers and floats, []byte, []string,
// time.Time, time.Duration, uuid.UUID, model.Decimal, the model and
// operation enums, and pointers to any of these.
func Literal(v any) (*jen.Statement, error) {
	switch v := v.(type) {
	case nil:
		return jen.Nil(), nil
	case bool:
		return jen.Lit(v), nil
	case string:
		return jen.Lit(v), nil
	case int:
		return jen.Id(strconv.Itoa(v)), nil
	case int8, int16, int32, int64:
		return conversion(v, strconv.FormatInt(reflect.ValueOf(v).Int(), 10)), nil
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return conversion(v, strconv.FormatUint(reflect.ValueOf(v).Uint(), 10)), nil
	case float64:
		return floatLiteral(v, 64), nil
	case float32:
		return jen.Float32().Call(floatLiteral(float64(v), 32)), nil
	case []byte:
		return bytesLiteral(v), nil
	case []string:
		return stringsLiteral(v), nil
	case time.Time:
		return timeLiteral(v), nil
	case time.Duration:
		return jen.Qual("time", "Duration").Call(jen.Id(strconv.FormatInt(int64(v), 10))), nil
	case uuid.UUID:
		if v == uuid.Nil {
			return jen.Qual(uuidPkg, "Nil"), nil
		}
		return jen.Qual(uuidPkg, "MustParse").Call(jen.Lit(v.String())), nil
	case model.Decimal:
		return jen.Qual(modelPkg, "Decimal").Call(jen.Lit(string(v))), nil
	case model.ValueGenerated:
		return jen.Qual(modelPkg, "ValueGenerated"+v.String()), nil
	case model.DeleteBehavior:
		return jen.Qual(modelPkg, "Delete"+v.String()), nil
	case operation.ReferentialAction:
		if name, ok := referentialActions[v]; ok {
			return jen.Qual(operationPkg, name), nil
		}
		return jen.Qual(operationPkg, "ReferentialAction").Call(jen.Lit(string(v))), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return jen.Nil(), nil
		}
		inner, err := Literal(rv.Elem().Interface())
		if err != nil {
			return nil, err
		}
		return jen.Qual(modelPkg, "Ptr").Call(inner), nil
	}
	return nil, migrator.NewUnsupportedLiteralError(v)
}

// LiteralNamespaces returns the import paths the literal of v refers to.
func LiteralNamespaces(v any) []string {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || (v == 0 && math.Signbit(v)) {
			return []string{"math"}
		}
	case float32:
		return LiteralNamespaces(float64(v))
	case time.Time, time.Duration:
		return []string{"time"}
	case uuid.UUID:
		return []string{uuidPkg}
	case model.Decimal, model.ValueGenerated, model.DeleteBehavior:
		return []string{modelPkg}
	case operation.ReferentialAction:
		return []string{operationPkg}
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return append([]string{modelPkg}, LiteralNamespaces(rv.Elem().Interface())...)
	}
	return nil
}

var referentialActions = map[operation.ReferentialAction]string{
	operation.NoAction:   "NoAction",
	operation.Restrict:   "Restrict",
	operation.Cascade:    "Cascade",
	operation.SetNull:    "SetNull",
	operation.SetDefault: "SetDefault",
}

// conversion renders a typed constant such as int8(-128).
func conversion(v any, digits string) *jen.Statement {
	return jen.Id(fmt.Sprintf("%T", v)).Call(jen.Id(digits))
}

func floatLiteral(f float64, bits int) *jen.Statement {
	switch {
	case math.IsNaN(f):
		return jen.Qual("math", "NaN").Call()
	case math.IsInf(f, 1):
		return jen.Qual("math", "Inf").Call(jen.Lit(1))
	case math.IsInf(f, -1):
		return jen.Qual("math", "Inf").Call(jen.Lit(-1))
	case f == 0 && math.Signbit(f):
		return jen.Qual("math", "Copysign").Call(jen.Lit(0), jen.Lit(-1))
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return jen.Id(s)
}

func bytesLiteral(b []byte) *jen.Statement {
	if b == nil {
		return jen.Index().Byte().Parens(jen.Nil())
	}
	return jen.Index().Byte().ValuesFunc(func(g *jen.Group) {
		for _, c := range b {
			g.Id(fmt.Sprintf("0x%02x", c))
		}
	})
}

func stringsLiteral(s []string) *jen.Statement {
	if s == nil {
		return jen.Index().String().Parens(jen.Nil())
	}
	return jen.Index().String().ValuesFunc(func(g *jen.Group) {
		for _, v := range s {
			g.Lit(v)
		}
	})
}

func timeLiteral(t time.Time) *jen.Statement {
	var loc jen.Code
	switch t.Location() {
	case time.UTC:
		loc = jen.Qual("time", "UTC")
	case time.Local:
		loc = jen.Qual("time", "Local")
	default:
		name, offset := t.Zone()
		loc = jen.Qual("time", "FixedZone").Call(jen.Lit(name), jen.Lit(offset))
	}
	return jen.Qual("time", "Date").Call(
		jen.Lit(t.Year()),
		jen.Qual("time", t.Month().String()),
		jen.Lit(t.Day()),
		jen.Lit(t.Hour()),
		jen.Lit(t.Minute()),
		jen.Lit(t.Second()),
		jen.Lit(t.Nanosecond()),
		loc,
	)
}
