package migrate

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// Migration is implemented by generated migration types. Up and Down live
// in the migration file; ID, Context and BuildTargetModel in its designer file.
type Migration interface {
	// ID returns the timestamp-prefixed migration identifier.
	ID() string
	// Context returns the name of the context type owning the migration.
	Context() string
	Up(b *Builder)
	Down(b *Builder)
	// BuildTargetModel rebuilds the model as of this migration.
	BuildTargetModel(b *model.Builder)
}

// Snapshot is implemented by the generated whole-model snapshot type.
type Snapshot interface {
	Context() string
	BuildModel(b *model.Builder)
}

// MigrationInfo describes a registered migration.
type MigrationInfo struct {
	ID        string
	Context   string
	Name      string // Go type name
	Namespace string // Go package path
	Migration Migration
}

// SnapshotInfo describes a registered snapshot.
type SnapshotInfo struct {
	Context   string
	Name      string // Go type name
	Namespace string // Go package path
	Snapshot  Snapshot
}

// Registry collects the migrations and snapshots of a program.
type Registry struct {
	mu         sync.RWMutex
	migrations map[string]MigrationInfo
	snapshots  map[string]SnapshotInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		migrations: make(map[string]MigrationInfo),
		snapshots:  make(map[string]SnapshotInfo),
	}
}

// DefaultRegistry is the registry generated code registers into.
var DefaultRegistry = NewRegistry()

// Register adds m to the default registry. It panics if a migration with
// the same id is already registered.
func Register(m Migration) {
	DefaultRegistry.Register(m)
}

// RegisterSnapshot adds s to the default registry, replacing the snapshot
// of the same context.
func RegisterSnapshot(s Snapshot) {
	DefaultRegistry.RegisterSnapshot(s)
}

// Register adds m. It panics if a migration with the same id exists.
func (r *Registry) Register(m Migration) {
	if m == nil {
		panic("migrate: Register migration is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := m.ID()
	if _, dup := r.migrations[id]; dup {
		panic("migrate: Register called twice for migration " + id)
	}
	name, ns := typeName(m)
	r.migrations[id] = MigrationInfo{ID: id, Context: m.Context(), Name: name, Namespace: ns, Migration: m}
}

// RegisterSnapshot adds s, replacing the snapshot of the same context.
func (r *Registry) RegisterSnapshot(s Snapshot) {
	if s == nil {
		panic("migrate: RegisterSnapshot snapshot is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ns := typeName(s)
	r.snapshots[s.Context()] = SnapshotInfo{Context: s.Context(), Name: name, Namespace: ns, Snapshot: s}
}

// Migrations returns all registered migrations sorted by id.
func (r *Registry) Migrations() []MigrationInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MigrationInfo, 0, len(r.migrations))
	for _, m := range r.migrations {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b MigrationInfo) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Snapshot returns the snapshot registered for context.
func (r *Registry) Snapshot(context string) (SnapshotInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.snapshots[context]
	return s, ok
}

// Operations runs m and returns its Up and Down operations.
func Operations(m Migration) (up, down []operation.Operation) {
	ub, db := NewBuilder(), NewBuilder()
	m.Up(ub)
	m.Down(db)
	return ub.Operations(), db.Operations()
}

// TargetModel rebuilds the model recorded by m.
func TargetModel(m Migration) (*model.Model, error) {
	b := model.NewBuilder()
	m.BuildTargetModel(b)
	mdl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("migrate: target model of %s: %w", m.ID(), err)
	}
	return mdl, nil
}

// SnapshotModel rebuilds the model recorded by s.
func SnapshotModel(s Snapshot) (*model.Model, error) {
	b := model.NewBuilder()
	s.BuildModel(b)
	mdl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("migrate: snapshot of %s: %w", s.Context(), err)
	}
	return mdl, nil
}

func typeName(v any) (name, pkg string) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name(), t.PkgPath()
}
