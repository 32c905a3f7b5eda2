// Package diff computes the schema operations between two model versions.
//
// Models are first projected onto tables: each root entity type maps to
// one table shared by its derived types. Tables, columns, constraints,
// indexes and sequences are then matched by name and the differences are
// emitted in dependency order.
//
//	ops := diff.New().GetDifferences(previous, current)
//	if r := diff.Validate(ops); r.HasBreakingChanges() {
//	    fmt.Println(r)
//	}
package diff
