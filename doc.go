// Package migrator computes schema migrations from two versions of a mapped
// data model and emits them as Go source.
//
// The pipeline is split across packages:
//
//   - model: the metadata graph and the fluent builder used by generated snapshots.
//   - operation: the closed set of schema operations.
//   - migrate: the runtime used by generated migrations (operation builder, registry, ids).
//   - compiler/diff: the model differ producing ordered operations.
//   - compiler/gen: identifier, literal, operation, snapshot and file emitters.
//   - dialect/sql/history: the applied migrations table.
//   - scaffold: the scaffold and remove flows writing migration files.
//
// This package holds the error taxonomy shared by all of them.
package migrator

// Version is stamped into generated snapshots as the ProductVersion annotation.
const Version = "0.1.0"
