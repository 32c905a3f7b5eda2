package gen

import "github.com/syssam/migrator/model"

// annotationSet walks the annotations of one model element. Each name is
// handed out at most once, so an annotation promoted to a dedicated builder
// call is not emitted again as a generic HasAnnotation.
type annotationSet struct {
	names    []string
	values   model.Annotations
	consumed map[string]bool
}

func newAnnotationSet(a model.Annotations) *annotationSet {
	return &annotationSet{names: a.Names(), values: a, consumed: make(map[string]bool)}
}

// take consumes name and returns its value.
func (s *annotationSet) take(name string) (any, bool) {
	v, ok := s.values[name]
	if !ok || s.consumed[name] {
		return nil, false
	}
	s.consumed[name] = true
	return v, true
}

// takeString consumes name only when its value is a string.
func (s *annotationSet) takeString(name string) (string, bool) {
	v, ok := s.values[name].(string)
	if !ok || s.consumed[name] {
		return "", false
	}
	s.consumed[name] = true
	return v, true
}

func (s *annotationSet) takeInt(name string) (int, bool) {
	v, ok := s.values[name].(int)
	if !ok || s.consumed[name] {
		return 0, false
	}
	s.consumed[name] = true
	return v, true
}

func (s *annotationSet) takeBool(name string) (bool, bool) {
	v, ok := s.values[name].(bool)
	if !ok || s.consumed[name] {
		return false, false
	}
	s.consumed[name] = true
	return v, true
}

// discard consumes names without using them.
func (s *annotationSet) discard(names ...string) {
	for _, name := range names {
		s.consumed[name] = true
	}
}

// remaining returns the names not consumed yet, sorted.
func (s *annotationSet) remaining() []string {
	var out []string
	for _, name := range s.names {
		if !s.consumed[name] {
			out = append(out, name)
		}
	}
	return out
}
