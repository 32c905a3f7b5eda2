package migrate

import "time"

// idLayout is the timestamp prefix of migration ids.
const idLayout = "20060102150405"

// IDGenerator produces migration identifiers that sort chronologically.
type IDGenerator interface {
	GenerateID(name string) string
	NameOf(id string) string
	IsValidID(id string) bool
}

// TimestampIDGenerator builds ids of the form "20060102150405_Name" in UTC.
type TimestampIDGenerator struct {
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// GenerateID implements IDGenerator.
func (g TimestampIDGenerator) GenerateID(name string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return now().UTC().Format(idLayout) + "_" + name
}

// NameOf returns the name part of id, or id itself when it has no
// timestamp prefix.
func (g TimestampIDGenerator) NameOf(id string) string {
	if !g.IsValidID(id) {
		return id
	}
	return id[len(idLayout)+1:]
}

// IsValidID reports whether id starts with a timestamp and an underscore.
func (TimestampIDGenerator) IsValidID(id string) bool {
	if len(id) <= len(idLayout)+1 || id[len(idLayout)] != '_' {
		return false
	}
	_, err := time.Parse(idLayout, id[:len(idLayout)])
	return err == nil
}

// EnsureAfter returns id unchanged when its timestamp is later than the one
// of previous. Otherwise the timestamp of id is moved one second past it.
func EnsureAfter(id, previous string) string {
	var g TimestampIDGenerator
	if previous == "" || !g.IsValidID(id) || !g.IsValidID(previous) || id[:len(idLayout)] > previous[:len(idLayout)] {
		return id
	}
	ts, _ := time.Parse(idLayout, previous[:len(idLayout)])
	return ts.Add(time.Second).Format(idLayout) + "_" + g.NameOf(id)
}
