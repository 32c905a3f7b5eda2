package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/compiler/gen"
	"github.com/syssam/migrator/dialect/sql/history"
	"github.com/syssam/migrator/migrate"
	"github.com/syssam/migrator/model"
)

// designerSuffix marks the metadata file of a migration.
const designerSuffix = ".designer"

// Save writes the files of sm below projectDir. Migration files go to
// outputDir when set, otherwise next to the previous migration or in the
// directory mirroring the sub-namespace. Either all files are written or
// none is changed.
func (s *Scaffolder) Save(ctx context.Context, projectDir string, sm *ScaffoldedMigration, outputDir string) (*MigrationFiles, error) {
	ext := sm.FileExtension
	migrationDir := outputDir
	switch {
	case migrationDir == "":
		var sibling string
		if sm.PreviousMigrationID != "" {
			sibling = sm.PreviousMigrationID + ext
		}
		migrationDir = s.directory(projectDir, sibling, sm.MigrationSubNamespace)
	case !filepath.IsAbs(migrationDir):
		migrationDir = filepath.Join(projectDir, migrationDir)
	}
	snapshotFile := snapshotFileName(sm.SnapshotName, ext)
	var snapshotSibling string
	if sm.PreviousMigrationID != "" {
		snapshotSibling = snapshotFile
	}
	snapshotDir := s.directory(projectDir, snapshotSibling, sm.SnapshotSubNamespace)
	files := &MigrationFiles{
		MigrationFile: filepath.Join(migrationDir, sm.MigrationID+ext),
		MetadataFile:  filepath.Join(migrationDir, sm.MigrationID+designerSuffix+ext),
		SnapshotFile:  filepath.Join(snapshotDir, snapshotFile),
	}
	err := gen.WriteFiles(ctx,
		gen.File{Path: files.MigrationFile, Content: sm.MigrationCode},
		gen.File{Path: files.MetadataFile, Content: sm.MetadataCode},
		gen.File{Path: files.SnapshotFile, Content: sm.SnapshotCode},
	)
	if err != nil {
		return nil, fmt.Errorf("scaffold: save %s: %w", sm.MigrationID, err)
	}
	s.logger.InfoContext(ctx, "wrote migration", "migration", files.MigrationFile, "metadata", files.MetadataFile, "snapshot", files.SnapshotFile)
	return files, nil
}

// RemoveMigration removes the last migration of the context and reverts
// the snapshot to the model of the migration before it. A migration applied
// to the database is only removed when force is set. A snapshot that no
// longer matches the removed migration is left as is.
func (s *Scaffolder) RemoveMigration(ctx context.Context, projectDir, rootNamespace string, force bool) (*MigrationFiles, error) {
	snapshot, ok := s.assembly.Snapshot(s.cfg.Context)
	if !ok {
		return nil, migrator.NewOperationError("no model snapshot was found for %s, there is nothing to remove", s.cfg.Context)
	}
	current, err := migrate.SnapshotModel(snapshot.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("scaffold: %w", err)
	}
	var (
		files      = &MigrationFiles{}
		ext        = s.gen.FileExtension()
		migrations = s.migrations()
		revert     *model.Model
		remove     string
		edited     bool
	)
	if n := len(migrations); n > 0 {
		last := migrations[n-1]
		target, err := migrate.TargetModel(last.Migration)
		if err != nil {
			return nil, fmt.Errorf("scaffold: %w", err)
		}
		if err := s.checkApplied(ctx, last.ID, force); err != nil {
			return nil, err
		}
		remove = last.ID
		if edited = s.differ.HasDifferences(target, current); edited {
			s.logger.WarnContext(ctx, "the model snapshot does not match the last migration and was probably edited by hand, leaving it unchanged",
				"migration", last.ID, "snapshot", snapshotFileName(snapshot.Name, ext))
		}
		if n > 1 && !edited {
			if revert, err = migrate.TargetModel(migrations[n-2].Migration); err != nil {
				return nil, fmt.Errorf("scaffold: %w", err)
			}
		}
	}

	snapshotName := snapshotFileName(snapshot.Name, ext)
	snapshotFile := findFile(projectDir, snapshotName)
	if revert != nil {
		code, err := s.gen.GenerateSnapshot(snapshot.Namespace, s.cfg.Context, snapshot.Name, revert)
		if err != nil {
			return nil, err
		}
		if snapshotFile == "" {
			snapshotFile = filepath.Join(s.directory(projectDir, "", subNamespaceOf(rootNamespace, snapshot.Namespace)), snapshotName)
		}
		if err := gen.WriteFiles(ctx, gen.File{Path: snapshotFile, Content: code}); err != nil {
			return nil, fmt.Errorf("scaffold: revert snapshot: %w", err)
		}
		s.logger.InfoContext(ctx, "reverted model snapshot", "file", snapshotFile)
		files.SnapshotFile = snapshotFile
	}
	if remove != "" {
		if files.MigrationFile, err = s.removeFile(ctx, projectDir, remove+ext); err != nil {
			return nil, err
		}
		if files.MetadataFile, err = s.removeFile(ctx, projectDir, remove+designerSuffix+ext); err != nil {
			return nil, err
		}
	}
	if revert == nil && !edited {
		if files.SnapshotFile, err = s.removeFile(ctx, projectDir, snapshotName); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// checkApplied fails when the migration id is recorded in the history,
// unless force is set.
func (s *Scaffolder) checkApplied(ctx context.Context, id string, force bool) error {
	if s.history == nil {
		s.logger.DebugContext(ctx, "no history repository configured, assuming the migration was not applied", "migration", id)
		return nil
	}
	rows, err := s.history.AppliedMigrations(ctx)
	if err != nil {
		if force {
			s.logger.WarnContext(ctx, "could not read the migration history, removing anyway", "migration", id, "error", err)
			return nil
		}
		return fmt.Errorf("scaffold: read migration history: %w", err)
	}
	applied := slices.ContainsFunc(rows, func(r history.Row) bool {
		return strings.EqualFold(r.MigrationID, id)
	})
	switch {
	case !applied:
		return nil
	case force:
		s.logger.WarnContext(ctx, "the migration was already applied to the database, removing it anyway; revert its changes manually", "migration", id)
		return nil
	default:
		return migrator.NewOperationError("the migration %q has already been applied to the database, revert it and try again or remove it with force", id)
	}
}

// removeFile deletes the first file called name below projectDir and
// returns its path. A missing file is logged, not fatal.
func (s *Scaffolder) removeFile(ctx context.Context, projectDir, name string) (string, error) {
	path := findFile(projectDir, name)
	if path == "" {
		s.logger.WarnContext(ctx, "file not found, skipping", "file", name)
		return "", nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("scaffold: remove %s: %w", path, err)
	}
	s.logger.InfoContext(ctx, "removed file", "file", path)
	return path, nil
}

// directory returns the directory of the existing file called sibling, or
// the directory mirroring sub below projectDir.
func (s *Scaffolder) directory(projectDir, sibling, sub string) string {
	dir := filepath.Join(append([]string{projectDir}, strings.Split(sub, "/")...)...)
	if sibling == "" {
		return dir
	}
	found := findFile(projectDir, sibling)
	if found == "" {
		s.logger.Warn("file not found, using the namespace directory", "file", sibling, "dir", dir)
		return dir
	}
	if d := filepath.Dir(found); d != dir {
		s.logger.Debug("reusing directory of existing file", "file", sibling, "dir", d)
		return d
	}
	return dir
}

// findFile returns the first file called name below root in lexical order.
// Hidden directories and vendor are skipped.
func findFile(root, name string) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return nil
		case d.IsDir():
			if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "vendor") {
				return filepath.SkipDir
			}
		case d.Name() == name:
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// snapshotFileName returns the file name of the snapshot type name.
func snapshotFileName(name, ext string) string {
	return inflect.Underscore(name) + ext
}
