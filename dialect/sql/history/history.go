// Package history stores the ids of migrations applied to a database.
package history

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"strings"

	"ariga.io/atlas/sql/migrate"
	atlasmysql "ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/dialect"
	"github.com/syssam/migrator/dialect/sql"
)

// DefaultTable is the name of the history table.
const DefaultTable = "__migrations_history"

// Column names of the history table.
const (
	ColumnMigrationID    = "migration_id"
	ColumnProductVersion = "product_version"
)

// Row is one applied migration.
type Row struct {
	MigrationID    string
	ProductVersion string
}

// Repository reads and writes the history table.
type Repository struct {
	db      *stdsql.DB
	drv     *sql.StatsDriver
	dialect string
	table   string
	logger  *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithTable overrides the history table name.
func WithTable(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.table = name
		}
	}
}

// WithLogger sets the logger used for statement logging.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// Open connects to the database identified by dsn.
//
//	repo, err := history.Open(dialect.Postgres, "postgres://localhost/shop?sslmode=disable")
func Open(name, dsn string, opts ...Option) (*Repository, error) {
	drv, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", name, err)
	}
	return New(drv.DB(), name, opts...)
}

// New returns a Repository over an open database handle.
func New(db *stdsql.DB, name string, opts ...Option) (*Repository, error) {
	if err := dialect.Validate(name); err != nil {
		return nil, err
	}
	r := &Repository{db: db, dialect: name, table: DefaultTable, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.drv = sql.NewStatsDriver(sql.OpenDB(name, db), sql.WithLogger(r.logger))
	return r, nil
}

// Table returns the history table name.
func (r *Repository) Table() string { return r.table }

// Stats returns the statement statistics collected so far.
func (r *Repository) Stats() sql.StatsSnapshot {
	return r.drv.QueryStats().Stats()
}

// Close closes the underlying database.
func (r *Repository) Close() error { return r.db.Close() }

// Exists reports whether the history table exists.
func (r *Repository) Exists(ctx context.Context) (bool, error) {
	var query string
	switch r.dialect {
	case dialect.Postgres:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = $1"
	case dialect.MySQL:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	default:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
	rows := &sql.Rows{}
	if err := r.drv.Query(ctx, query, []any{r.table}, rows); err != nil {
		return false, fmt.Errorf("history: check table: %w", err)
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, fmt.Errorf("history: check table: %w", err)
		}
	}
	return n > 0, rows.Err()
}

// Create creates the history table unless it already exists.
func (r *Repository) Create(ctx context.Context) error {
	exists, err := r.Exists(ctx)
	if err != nil || exists {
		return err
	}
	drv, err := r.atlas()
	if err != nil {
		return fmt.Errorf("history: open migrate driver: %w", err)
	}
	if err := drv.ApplyChanges(ctx, []schema.Change{&schema.AddTable{T: r.schemaTable()}}); err != nil {
		return fmt.Errorf("history: create table %s: %w", r.table, err)
	}
	r.logger.DebugContext(ctx, "created history table", "table", r.table)
	return nil
}

// schemaTable describes the history table.
func (r *Repository) schemaTable() *schema.Table {
	id := schema.NewStringColumn(ColumnMigrationID, "varchar", schema.StringSize(150))
	version := schema.NewStringColumn(ColumnProductVersion, "varchar", schema.StringSize(32))
	return schema.NewTable(r.table).
		AddColumns(id, version).
		SetPrimaryKey(schema.NewPrimaryKey(id))
}

func (r *Repository) atlas() (migrate.Driver, error) {
	switch r.dialect {
	case dialect.Postgres:
		return postgres.Open(r.db)
	case dialect.MySQL:
		return atlasmysql.Open(r.db)
	default:
		return sqlite.Open(r.db)
	}
}

// AppliedMigrations returns the applied migrations ordered by id. A missing
// history table means nothing was applied.
func (r *Repository) AppliedMigrations(ctx context.Context) ([]Row, error) {
	exists, err := r.Exists(ctx)
	if err != nil || !exists {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s",
		r.quote(ColumnMigrationID), r.quote(ColumnProductVersion), r.quote(r.table), r.quote(ColumnMigrationID))
	rows := &sql.Rows{}
	if err := r.drv.Query(ctx, query, []any{}, rows); err != nil {
		return nil, fmt.Errorf("history: query applied migrations: %w", err)
	}
	defer rows.Close()
	var applied []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.MigrationID, &row.ProductVersion); err != nil {
			return nil, fmt.Errorf("history: scan applied migration: %w", err)
		}
		applied = append(applied, row)
	}
	return applied, rows.Err()
}

// Insert records a migration as applied.
func (r *Repository) Insert(ctx context.Context, row Row) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
		r.quote(r.table), r.quote(ColumnMigrationID), r.quote(ColumnProductVersion),
		dialect.Placeholder(r.dialect, 1), dialect.Placeholder(r.dialect, 2))
	err := r.drv.Exec(ctx, query, []any{row.MigrationID, row.ProductVersion}, nil)
	switch {
	case sql.IsUniqueConstraintError(err):
		return migrator.WrapOperationError(err, "migration %q is already applied", row.MigrationID)
	case err != nil:
		return fmt.Errorf("history: insert %s: %w", row.MigrationID, err)
	}
	return nil
}

// Delete removes the record of an applied migration.
func (r *Repository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		r.quote(r.table), r.quote(ColumnMigrationID), dialect.Placeholder(r.dialect, 1))
	var res sql.Result
	if err := r.drv.Exec(ctx, query, []any{id}, &res); err != nil {
		return fmt.Errorf("history: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return migrator.NewOperationError("migration %q is not applied", id)
	}
	return nil
}

func (r *Repository) quote(ident string) string {
	if r.dialect == dialect.MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
