// Package dialect defines the driver abstraction used to talk to the
// database that records applied migrations.
//
// Each dialect is identified by a constant string that is also the name
// of the database/sql driver registered for it:
//
//	dialect.Postgres = "postgres" // github.com/lib/pq
//	dialect.MySQL    = "mysql"    // github.com/go-sql-driver/mysql
//	dialect.SQLite   = "sqlite"   // modernc.org/sqlite
//
// The dialect/sql package implements Driver on top of database/sql, and
// dialect/sql/history stores the migration history table.
package dialect
