// Package sql implements dialect.Driver on top of database/sql.
//
// The driver accepts []any arguments and scans results into *Rows or
// *Result, so callers stay independent of the concrete connection type:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    return err
//	}
//	rows := &sql.Rows{}
//	if err := drv.Query(ctx, "SELECT migration_id FROM __migrations_history", []any{}, rows); err != nil {
//	    return err
//	}
//	defer rows.Close()
//
// StatsDriver wraps any driver with statement counters and slog based
// logging of slow statements. IsUniqueConstraintError classifies driver
// errors of PostgreSQL, MySQL and SQLite.
package sql
