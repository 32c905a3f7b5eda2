package scaffold

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/compiler/diff"
	"github.com/syssam/migrator/compiler/gen"
	"github.com/syssam/migrator/dialect/sql/history"
	"github.com/syssam/migrator/migrate"
	"github.com/syssam/migrator/model"
	"github.com/syssam/migrator/operation"
)

// Assembly enumerates the compiled migrations and snapshots of a program.
// *migrate.Registry implements it.
type Assembly interface {
	Migrations() []migrate.MigrationInfo
	Snapshot(context string) (migrate.SnapshotInfo, bool)
}

// Differ computes the operations between two models. *diff.Differ
// implements it.
type Differ interface {
	GetDifferences(source, target *model.Model) []operation.Operation
	HasDifferences(source, target *model.Model) bool
}

// History lists the migrations applied to the database.
// *history.Repository implements it.
type History interface {
	AppliedMigrations(ctx context.Context) ([]history.Row, error)
}

// CodeGenerator renders migration files. *gen.MigrationGenerator
// implements it.
type CodeGenerator interface {
	FileExtension() string
	GenerateMigration(namespace, name string, up, down []operation.Operation) ([]byte, error)
	GenerateMetadata(namespace, contextType, name, id string, target *model.Model) ([]byte, error)
	GenerateSnapshot(namespace, contextType, name string, m *model.Model) ([]byte, error)
}

// Dependencies are the collaborators of a Scaffolder. Only Model is
// required.
type Dependencies struct {
	// Model is the current model of the context.
	Model     *model.Model
	Assembly  Assembly            // defaults to migrate.DefaultRegistry
	Differ    Differ              // defaults to diff.New()
	IDs       migrate.IDGenerator // defaults to migrate.TimestampIDGenerator
	History   History             // nil skips the applied check on removal
	Generator CodeGenerator       // defaults to a gen.MigrationGenerator
	Logger    *slog.Logger        // defaults to slog.Default()
}

// ScaffoldedMigration holds the generated source of a new migration.
type ScaffoldedMigration struct {
	FileExtension         string
	PreviousMigrationID   string
	MigrationID           string
	MigrationCode         []byte
	MigrationNamespace    string
	MigrationSubNamespace string
	MetadataCode          []byte
	SnapshotName          string
	SnapshotCode          []byte
	SnapshotNamespace     string
	SnapshotSubNamespace  string
}

// MigrationFiles lists the files written or removed.
type MigrationFiles struct {
	MigrationFile string
	MetadataFile  string
	SnapshotFile  string
}

// Scaffolder adds and removes the migrations of one context.
type Scaffolder struct {
	cfg      *Config
	model    *model.Model
	assembly Assembly
	differ   Differ
	ids      migrate.IDGenerator
	history  History
	gen      CodeGenerator
	logger   *slog.Logger
}

// New returns a Scaffolder for the context configured in cfg.
func New(cfg *Config, deps Dependencies) (*Scaffolder, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Model == nil {
		return nil, gen.NewConfigError("Model", nil, "current model is required")
	}
	s := &Scaffolder{
		cfg:      cfg,
		model:    deps.Model,
		assembly: deps.Assembly,
		differ:   deps.Differ,
		ids:      deps.IDs,
		history:  deps.History,
		gen:      deps.Generator,
		logger:   deps.Logger,
	}
	if s.assembly == nil {
		s.assembly = migrate.DefaultRegistry
	}
	if s.differ == nil {
		s.differ = diff.New()
	}
	if s.ids == nil {
		s.ids = migrate.TimestampIDGenerator{}
	}
	if r, ok := s.history.(*history.Repository); ok && r == nil {
		s.history = nil
	}
	if s.gen == nil {
		g, err := gen.NewMigrationGenerator(cfg.GeneratorOptions()...)
		if err != nil {
			return nil, err
		}
		s.gen = g
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// ScaffoldMigration diffs the last snapshot against the current model and
// generates a migration called name. An empty subNamespace places it in
// the namespace of the previous migration, or in the configured default.
func (s *Scaffolder) ScaffoldMigration(ctx context.Context, name, rootNamespace, subNamespace string) (*ScaffoldedMigration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, migrator.NewOperationError("a migration name is required")
	}
	// Names are compared as the Go types they declare: "add_email" and
	// "AddEmail" collide in one package.
	typ := gen.FormatIdentifier(inflect.Camelize(name))
	migrations := s.migrations()
	for _, m := range migrations {
		if strings.EqualFold(gen.FormatIdentifier(inflect.Camelize(s.ids.NameOf(m.ID))), typ) {
			return nil, migrator.NewOperationError("the name %q is used by an existing migration", name)
		}
	}
	snapshot, hasSnapshot := s.assembly.Snapshot(s.cfg.Context)
	snapshotName := gen.FormatIdentifier(s.cfg.Context + "ModelSnapshot")
	if hasSnapshot {
		snapshotName = snapshot.Name
	}
	if typ == gen.FormatIdentifier(s.cfg.Context) || typ == snapshotName {
		return nil, migrator.NewOperationError("the migration name %q cannot be the same as the context or snapshot type", name)
	}

	var previous string
	if n := len(migrations); n > 0 {
		previous = migrations[n-1].ID
	}
	ns := s.namespace(migrations, rootNamespace, subNamespace)
	snapshotNamespace := ns
	if hasSnapshot {
		snapshotNamespace = snapshot.Namespace
	}

	var last *model.Model
	if hasSnapshot {
		m, err := migrate.SnapshotModel(snapshot.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("scaffold: %w", err)
		}
		last = m
	}
	up := s.differ.GetDifferences(last, s.model)
	var down []operation.Operation
	if len(up) > 0 {
		down = s.differ.GetDifferences(s.model, last)
	}

	id := migrate.EnsureAfter(s.ids.GenerateID(typ), previous)
	if operation.AnyDestructive(up) {
		s.logger.WarnContext(ctx, "an operation was scaffolded that may result in the loss of data, review the migration for accuracy", "migration", id)
		for _, w := range diff.Validate(up, diff.AllowAll()).Warnings {
			s.logger.DebugContext(ctx, w.Error(), "migration", id, "breaking", w.Breaking)
		}
	}

	sm := &ScaffoldedMigration{
		FileExtension:         s.gen.FileExtension(),
		PreviousMigrationID:   previous,
		MigrationID:           id,
		MigrationNamespace:    ns,
		MigrationSubNamespace: subNamespaceOf(rootNamespace, ns),
		SnapshotName:          snapshotName,
		SnapshotNamespace:     snapshotNamespace,
		SnapshotSubNamespace:  subNamespaceOf(rootNamespace, snapshotNamespace),
	}
	var eg errgroup.Group
	eg.Go(func() (err error) {
		sm.MigrationCode, err = s.gen.GenerateMigration(ns, typ, up, down)
		return err
	})
	eg.Go(func() (err error) {
		sm.MetadataCode, err = s.gen.GenerateMetadata(ns, s.cfg.Context, typ, id, s.model)
		return err
	})
	eg.Go(func() (err error) {
		sm.SnapshotCode, err = s.gen.GenerateSnapshot(snapshotNamespace, s.cfg.Context, snapshotName, s.model)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return sm, nil
}

// namespace resolves the Go package path of a new migration.
func (s *Scaffolder) namespace(migrations []migrate.MigrationInfo, root, sub string) string {
	defaulted := sub == ""
	if defaulted {
		sub = s.cfg.Namespace
	}
	ns := gen.FormatNamespace(root, sub)
	if n := len(migrations); defaulted && n > 0 && migrations[n-1].Namespace != ns {
		ns = migrations[n-1].Namespace
		s.logger.Debug("reusing namespace of previous migration", "namespace", ns)
	}
	if !s.foreignMigrations(ns) {
		return ns
	}
	if defaulted {
		qualified := gen.FormatNamespace(ns, s.cfg.Context)
		s.logger.Debug("namespace holds migrations of another context", "namespace", ns, "using", qualified)
		return qualified
	}
	s.logger.Warn("the namespace contains migrations of another context, move them or use a different namespace", "namespace", ns, "context", s.cfg.Context)
	return ns
}

// foreignMigrations reports whether migrations of another context live in ns.
func (s *Scaffolder) foreignMigrations(ns string) bool {
	for _, m := range s.assembly.Migrations() {
		if m.Namespace == ns && m.Context != s.cfg.Context {
			return true
		}
	}
	return false
}

// migrations returns the migrations of the context ordered by id.
func (s *Scaffolder) migrations() []migrate.MigrationInfo {
	var out []migrate.MigrationInfo
	for _, m := range s.assembly.Migrations() {
		if m.Context == s.cfg.Context {
			out = append(out, m)
		}
	}
	return out
}

// subNamespaceOf returns ns relative to root.
func subNamespaceOf(root, ns string) string {
	switch {
	case root == "":
		return ns
	case ns == root:
		return ""
	case strings.HasPrefix(ns, root+"/"):
		return ns[len(root)+1:]
	default:
		return ns
	}
}
