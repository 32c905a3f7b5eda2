package gen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"math"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

func TestFormatLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"Nil", nil, "nil"},
		{"Bool", true, "true"},
		{"String", "it's \"quoted\"\n", `"it's \"quoted\"\n"`},
		{"Int", -42, "-42"},
		{"Int8 minimum", int8(math.MinInt8), "int8(-128)"},
		{"Int64 maximum", int64(math.MaxInt64), "int64(9223372036854775807)"},
		{"Uint64 maximum", uint64(math.MaxUint64), "uint64(18446744073709551615)"},
		{"Byte", byte(7), "uint8(7)"},
		{"Whole float", 1.0, "1.0"},
		{"Float with exponent", 1e21, "1e+21"},
		{"Small float", 0.000001, "1e-06"},
		{"Float32", float32(0.1), "float32(0.1)"},
		{"NaN", math.NaN(), "math.NaN()"},
		{"Positive infinity", math.Inf(1), "math.Inf(1)"},
		{"Negative infinity", math.Inf(-1), "math.Inf(-1)"},
		{"Negative zero", math.Copysign(0, -1), "math.Copysign(0, -1)"},
		{"Bytes", []byte{1, 0xff}, "[]byte{0x01, 0xff}"},
		{"Nil bytes", []byte(nil), "[]byte(nil)"},
		{"Strings", []string{"a", "b"}, `[]string{"a", "b"}`},
		{"Duration", 90 * time.Second, "time.Duration(90000000000)"},
		{"UTC time", time.Date(2024, time.March, 5, 10, 4, 59, 12, time.UTC), "time.Date(2024, time.March, 5, 10, 4, 59, 12, time.UTC)"},
		{"Zoned time", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600)), `time.Date(2024, time.January, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))`},
		{"Nil uuid", uuid.Nil, "uuid.Nil"},
		{"Uuid", uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"), `uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")`},
		{"Decimal keeps trailing zeros", model.Decimal("12.30"), `model.Decimal("12.30")`},
		{"Value generated", model.ValueGeneratedOnAdd, "model.ValueGeneratedOnAdd"},
		{"Delete behavior", model.DeleteSetNull, "model.DeleteSetNull"},
		{"Referential action", operation.SetNull, "operation.SetNull"},
		{"Custom referential action", operation.ReferentialAction("X"), `operation.ReferentialAction("X")`},
		{"Pointer", model.Ptr(int16(3)), "model.Ptr(int16(3))"},
		{"Nil pointer", (*int)(nil), "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatLiteral(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatLiteral_Unsupported(t *testing.T) {
	for _, v := range []any{struct{}{}, map[string]int{}, complex(1, 2), []int{1}} {
		_, err := FormatLiteral(v)
		require.Error(t, err)
		assert.True(t, errors.Is(err, migrator.ErrTranslation))
		var lit *migrator.UnsupportedLiteralError
		require.True(t, errors.As(err, &lit))
		assert.Equal(t, fmt.Sprintf("%T", v), lit.Type)
	}
}

// TestFormatLiteral_RoundTrip evaluates every rendered literal and checks
// it yields the value it was rendered from.
func TestFormatLiteral_RoundTrip(t *testing.T) {
	values := []any{
		nil, true, false, "", "multi\nline\t\"text\"", "unicode ✓",
		0, 1, -1, math.MaxInt32,
		int8(-128), int8(127), int16(-32768), int32(math.MinInt32), int64(math.MinInt64), int64(math.MaxInt64),
		uint(0), uint8(255), uint16(65535), uint32(math.MaxUint32), uint64(math.MaxUint64),
		0.0, 1.0, -2.5, 0.1, 1e-300, 1e300, math.MaxFloat64, math.SmallestNonzeroFloat64, 123456789.123456789,
		float32(0.1), float32(-1), float32(math.MaxFloat32),
		math.Inf(1), math.Inf(-1),
		[]byte{}, []byte{0, 1, 254, 255}, []byte(nil),
		[]string{}, []string{"x", "y"}, []string(nil),
		time.Duration(0), -time.Hour, 1500 * time.Millisecond,
		time.Date(1999, time.December, 31, 23, 59, 59, 999999999, time.UTC),
		uuid.Nil, uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		model.Decimal("0.000"), model.Decimal("-12.30"),
		model.ValueGeneratedNone, model.ValueGeneratedOnAddOrUpdate,
		model.DeleteRestrict, model.DeleteCascade, model.DeleteNoAction,
		operation.NoAction, operation.Restrict, operation.Cascade, operation.SetDefault,
		model.Ptr("s"), model.Ptr(int64(-5)), model.Ptr(model.Decimal("1.10")), model.Ptr(2.0),
	}
	for _, v := range values {
		t.Run(fmt.Sprintf("%T(%v)", v, v), func(t *testing.T) {
			src, err := FormatLiteral(v)
			require.NoError(t, err)
			got := evalLiteral(t, src)
			assert.Equal(t, v, got, src)
		})
	}

	t.Run("NaN", func(t *testing.T) {
		src, err := FormatLiteral(math.NaN())
		require.NoError(t, err)
		assert.True(t, math.IsNaN(evalLiteral(t, src).(float64)))
	})

	t.Run("Negative zero", func(t *testing.T) {
		src, err := FormatLiteral(math.Copysign(0, -1))
		require.NoError(t, err)
		f := evalLiteral(t, src).(float64)
		assert.Zero(t, f)
		assert.True(t, math.Signbit(f))
	})

	t.Run("Zoned times", func(t *testing.T) {
		for _, v := range []time.Time{
			time.Date(2024, time.July, 1, 12, 0, 0, 0, time.FixedZone("", -7*3600)),
			time.Date(2024, time.July, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			time.Date(2024, time.July, 1, 12, 0, 0, 0, time.Local),
		} {
			src, err := FormatLiteral(v)
			require.NoError(t, err)
			got := evalLiteral(t, src).(time.Time)
			assert.True(t, v.Equal(got), src)
			wantName, wantOffset := v.Zone()
			gotName, gotOffset := got.Zone()
			assert.Equal(t, wantName, gotName)
			assert.Equal(t, wantOffset, gotOffset)
		}
	})
}

func TestLiteralNamespaces(t *testing.T) {
	assert.Empty(t, LiteralNamespaces(1))
	assert.Empty(t, LiteralNamespaces(1.5))
	assert.Equal(t, []string{"math"}, LiteralNamespaces(math.Inf(1)))
	assert.Equal(t, []string{"math"}, LiteralNamespaces(float32(math.NaN())))
	assert.Equal(t, []string{"time"}, LiteralNamespaces(time.Second))
	assert.Equal(t, []string{uuidPkg}, LiteralNamespaces(uuid.Nil))
	assert.Equal(t, []string{operationPkg}, LiteralNamespaces(operation.Cascade))
	assert.Equal(t, []string{modelPkg, "time"}, LiteralNamespaces(model.Ptr(time.Now())))
	assert.Empty(t, LiteralNamespaces((*int)(nil)))
}

// evalLiteral evaluates a Go expression made of the constructs literals are
// rendered with.
func evalLiteral(t *testing.T, src string) any {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	require.NoError(t, err, src)
	v, err := eval(expr)
	require.NoError(t, err, src)
	return settle(v)
}

var selectors = func() map[string]any {
	m := map[string]any{
		"time.UTC":                          time.UTC,
		"time.Local":                        time.Local,
		"uuid.Nil":                          uuid.Nil,
		"model.ValueGeneratedNone":          model.ValueGeneratedNone,
		"model.ValueGeneratedOnAdd":         model.ValueGeneratedOnAdd,
		"model.ValueGeneratedOnAddOrUpdate": model.ValueGeneratedOnAddOrUpdate,
		"model.DeleteRestrict":              model.DeleteRestrict,
		"model.DeleteCascade":               model.DeleteCascade,
		"model.DeleteSetNull":               model.DeleteSetNull,
		"model.DeleteNoAction":              model.DeleteNoAction,
	}
	for a, name := range referentialActions {
		m["operation."+name] = a
	}
	for month := time.January; month <= time.December; month++ {
		m["time."+month.String()] = month
	}
	return m
}()

// settle gives untyped constants their default type.
func settle(v any) any {
	c, ok := v.(constant.Value)
	if !ok {
		return v
	}
	switch c.Kind() {
	case constant.Int:
		n, _ := constant.Int64Val(c)
		return int(n)
	case constant.Float:
		f, _ := constant.Float64Val(c)
		return f
	case constant.String:
		return constant.StringVal(c)
	case constant.Bool:
		return constant.BoolVal(c)
	}
	return v
}

func eval(e ast.Expr) (any, error) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return eval(e.X)
	case *ast.BasicLit:
		return constant.MakeFromLiteral(e.Value, e.Kind, 0), nil
	case *ast.Ident:
		switch e.Name {
		case "nil":
			return nil, nil
		case "true", "false":
			return e.Name == "true", nil
		}
	case *ast.UnaryExpr:
		x, err := eval(e.X)
		if err != nil {
			return nil, err
		}
		if c, ok := x.(constant.Value); ok && e.Op == token.SUB {
			return constant.UnaryOp(token.SUB, c, 0), nil
		}
	case *ast.SelectorExpr:
		if v, ok := selectors[selectorName(e)]; ok {
			return v, nil
		}
	case *ast.CompositeLit:
		elems := make([]any, len(e.Elts))
		for i, el := range e.Elts {
			v, err := eval(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		switch typeName(e.Type) {
		case "[]byte":
			b := make([]byte, len(elems))
			for i, el := range elems {
				n, _ := constant.Uint64Val(el.(constant.Value))
				b[i] = byte(n)
			}
			return b, nil
		case "[]string":
			s := make([]string, len(elems))
			for i, el := range elems {
				s[i] = constant.StringVal(el.(constant.Value))
			}
			return s, nil
		}
	case *ast.CallExpr:
		return evalCall(e)
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func evalCall(e *ast.CallExpr) (any, error) {
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		v, err := eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	fn := typeName(e.Fun)
	if c, ok := firstConstant(args); ok {
		i, _ := constant.Int64Val(constant.ToInt(c))
		u, _ := constant.Uint64Val(constant.ToInt(c))
		switch fn {
		case "int8":
			return int8(i), nil
		case "int16":
			return int16(i), nil
		case "int32":
			return int32(i), nil
		case "int64":
			return i, nil
		case "uint":
			return uint(u), nil
		case "uint8":
			return uint8(u), nil
		case "uint16":
			return uint16(u), nil
		case "uint32":
			return uint32(u), nil
		case "uint64":
			return u, nil
		case "uintptr":
			return uintptr(u), nil
		case "float32":
			f, _ := constant.Float32Val(constant.ToFloat(c))
			return f, nil
		case "time.Duration":
			return time.Duration(i), nil
		}
	}
	switch fn {
	case "float32":
		return float32(args[0].(float64)), nil
	case "[]byte":
		return []byte(nil), nil
	case "[]string":
		return []string(nil), nil
	case "math.NaN":
		return math.NaN(), nil
	case "math.Inf":
		return math.Inf(settle(args[0]).(int)), nil
	case "math.Copysign":
		return math.Copysign(floatArg(args[0]), floatArg(args[1])), nil
	case "model.Decimal":
		return model.Decimal(settle(args[0]).(string)), nil
	case "operation.ReferentialAction":
		return operation.ReferentialAction(settle(args[0]).(string)), nil
	case "uuid.MustParse":
		return uuid.MustParse(settle(args[0]).(string)), nil
	case "time.FixedZone":
		return time.FixedZone(settle(args[0]).(string), settle(args[1]).(int)), nil
	case "time.Date":
		n := make([]int, 7)
		for i, a := range args[:7] {
			if i == 1 {
				n[i] = int(a.(time.Month))
				continue
			}
			n[i] = settle(a).(int)
		}
		return time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], n[6], args[7].(*time.Location)), nil
	case "model.Ptr":
		v := settle(args[0])
		p := reflect.New(reflect.TypeOf(v))
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported call %s", fn)
}

func floatArg(v any) float64 {
	f, _ := constant.Float64Val(constant.ToFloat(v.(constant.Value)))
	return f
}

// firstConstant returns the only argument of a conversion when it is an
// untyped constant.
func firstConstant(args []any) (constant.Value, bool) {
	if len(args) != 1 {
		return nil, false
	}
	c, ok := args[0].(constant.Value)
	return c, ok
}

func selectorName(e *ast.SelectorExpr) string {
	if x, ok := e.X.(*ast.Ident); ok {
		return x.Name + "." + e.Sel.Name
	}
	return ""
}

func typeName(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return selectorName(e)
	case *ast.ArrayType:
		if e.Len == nil {
			return "[]" + typeName(e.Elt)
		}
	}
	return strconv.Quote(fmt.Sprintf("%T", e))
}
