// Package gen renders schema operations and models as Go source.
//
// A migration is written as three files of one package:
//
//	20240101000000_InitialCreate.go           Up and Down, edited by users
//	20240101000000_InitialCreate.designer.go  ID, Context and target model
//	shop_context_model_snapshot.go            the current model
//
// The migration and designer files declare methods on the same type, which
// registers itself with migrate.DefaultRegistry from init.
//
// # Key Types
//
//   - OperationGenerator: renders operations as migrate.Builder calls
//   - SnapshotGenerator: renders a model as model.Builder calls
//   - MigrationGenerator: assembles and formats the three files
//   - FileWriter: writes generated files atomically
//
// Identifiers and literals are produced by FormatIdentifier and
// FormatLiteral. Rendered literals evaluate back to the value they were
// rendered from.
package gen
