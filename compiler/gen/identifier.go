package gen

import (
	"go/token"
	"go/types"
	"maps"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// PlaceholderNamespace is used when every namespace segment is empty after
// sanitizing.
const PlaceholderNamespace = "unnamed"

// Scope is an immutable set of identifiers already in use. Adding to a
// scope returns a new one.
type Scope struct {
	used map[string]struct{}
}

// NewScope returns a scope holding names.
func NewScope(names ...string) Scope {
	s := Scope{used: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.used[name] = struct{}{}
	}
	return s
}

// Contains reports whether name is in use.
func (s Scope) Contains(name string) bool {
	_, ok := s.used[name]
	return ok
}

// With returns a copy of s holding name.
func (s Scope) With(name string) Scope {
	used := maps.Clone(s.used)
	if used == nil {
		used = make(map[string]struct{}, 1)
	}
	used[name] = struct{}{}
	return Scope{used: used}
}

// Len returns the number of names in use.
func (s Scope) Len() int { return len(s.used) }

// FormatIdentifier turns name into a valid Go identifier that shadows
// nothing. Reserved names are escaped, see IsReserved.
func FormatIdentifier(name string) string {
	id, _ := Identifier(name, Scope{})
	return id
}

// Identifier turns name into a valid Go identifier not present in scope and
// returns it with the scope that includes it.
//
// Runes that cannot appear in an identifier are dropped. An empty result,
// or one starting with a digit, is prefixed with an underscore, as are Go
// keywords and predeclared identifiers. A name already in scope gets the
// smallest integer suffix, starting at 0, that makes it unique.
func Identifier(name string, scope Scope) (string, Scope) {
	var b strings.Builder
	for _, r := range norm.NFC.String(name) {
		if isIdentifierPart(r) {
			b.WriteRune(r)
		}
	}
	id := b.String()
	if first, _ := firstRune(id); id == "" || !isIdentifierStart(first) {
		id = "_" + id
	}
	if IsReserved(id) {
		id = "_" + id
	}
	if scope.Contains(id) {
		for i := 0; ; i++ {
			if c := id + strconv.Itoa(i); !scope.Contains(c) {
				id = c
				break
			}
		}
	}
	return id, scope.With(id)
}

// IsReserved reports whether id is a Go keyword, a predeclared identifier
// or the blank identifier. FormatIdentifier escapes all of these, so it
// changes "int", "nil" and "_" even though they are valid identifiers, and
// maps "" to "__". Its output is a fixed point: formatting it again returns
// it unchanged.
func IsReserved(id string) bool {
	return id == "_" || token.Lookup(id).IsKeyword() || types.Universe.Lookup(id) != nil
}

// LowerFirst lower-cases the first rune of s.
func LowerFirst(s string) string {
	r, size := firstRune(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// FormatNamespace joins parts into a Go import path. Each part may itself
// hold several "/" separated segments. Segments are stripped of characters
// not allowed in import paths and empty segments are dropped.
func FormatNamespace(parts ...string) string {
	var segments []string
	for _, part := range parts {
		for _, seg := range strings.Split(part, "/") {
			if seg = sanitizePathSegment(seg); seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	if len(segments) == 0 {
		return PlaceholderNamespace
	}
	return strings.Join(segments, "/")
}

// PackageName returns the package name of the Go import path ns.
func PackageName(ns string) string {
	last := ns[strings.LastIndex(ns, "/")+1:]
	var b strings.Builder
	for _, r := range strings.ToLower(last) {
		if r < unicode.MaxASCII && isIdentifierPart(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		return "migrations"
	}
	if first, _ := firstRune(name); !isIdentifierStart(first) || IsReserved(name) {
		name = "_" + name
	}
	return name
}

// FormatLambdaAccessor renders an expression reading properties from the
// variable v: a selector for one property, a []any literal for several.
func FormatLambdaAccessor(properties []string, v string) string {
	if len(properties) == 1 {
		return v + "." + FormatIdentifier(properties[0])
	}
	accessors := make([]string, len(properties))
	for i, p := range properties {
		accessors[i] = v + "." + FormatIdentifier(p)
	}
	return "[]any{" + strings.Join(accessors, ", ") + "}"
}

func isIdentifierStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentifierPart(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r)
}

func sanitizePathSegment(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-._~", r) {
			b.WriteRune(r)
		}
	}
	// "." and ".." are not valid path elements.
	if s := b.String(); strings.Trim(s, ".") != "" {
		return s
	}
	return ""
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}
