// Package scaffold adds and removes the migrations of a context.
//
// A Scaffolder diffs the last model snapshot against the current model,
// renders the migration, designer and snapshot files and writes them next
// to the earlier migrations:
//
//	cfg, err := scaffold.LoadConfig(scaffold.ConfigFile)
//	if err != nil {
//	    return err
//	}
//	s, err := scaffold.New(cfg, scaffold.Dependencies{Model: current})
//	if err != nil {
//	    return err
//	}
//	sm, err := s.ScaffoldMigration(ctx, "AddEmail", "github.com/acme/shop", "")
//	if err != nil {
//	    return err
//	}
//	files, err := s.Save(ctx, ".", sm, "")
//
// RemoveMigration reverts the last scaffold. It refuses to remove a
// migration recorded in the history table unless forced.
package scaffold
