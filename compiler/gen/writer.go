package gen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// File is a generated file and its destination.
type File struct {
	Path    string
	Content []byte
}

// FileWriter writes generated files as one unit: either every file reaches
// its destination or none is changed.
type FileWriter struct {
	workers int
	perm    os.FileMode
}

// NewFileWriter creates a FileWriter.
func NewFileWriter() *FileWriter {
	return &FileWriter{workers: runtime.GOMAXPROCS(0), perm: 0o644}
}

// WithWorkers sets the number of parallel workers.
func (w *FileWriter) WithWorkers(n int) *FileWriter {
	if n > 0 {
		w.workers = n
	}
	return w
}

// WriteFiles is a convenience for NewFileWriter().Write.
func WriteFiles(ctx context.Context, files ...File) error {
	return NewFileWriter().Write(ctx, files...)
}

// Write stages every file under a temporary name next to its destination
// and renames them into place once all of them were written. When a rename
// fails, files already moved are put back the way they were.
func (w *FileWriter) Write(ctx context.Context, files ...File) error {
	var (
		mu     sync.Mutex
		staged = make(map[string]string, len(files))
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			tmp, err := w.stage(f)
			if err != nil {
				return err
			}
			mu.Lock()
			staged[f.Path] = tmp
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		discard(staged)
		return err
	}
	var done []placed
	for _, f := range files {
		p, err := place(staged[f.Path], f.Path)
		if err != nil {
			rollback(done)
			discard(staged)
			return err
		}
		delete(staged, f.Path)
		done = append(done, p)
	}
	for _, p := range done {
		if p.backup != "" {
			_ = os.Remove(p.backup)
		}
	}
	return nil
}

// placed is a file moved into place and the backup of the regular file it
// replaced, if any.
type placed struct {
	path, backup string
}

// place renames tmp to path, keeping the previous content of path aside
// until the whole write succeeds.
func place(tmp, path string) (placed, error) {
	p := placed{path: path}
	if info, err := os.Lstat(path); err == nil && info.Mode().IsRegular() {
		p.backup = tmp + ".bak"
		if err := os.Rename(path, p.backup); err != nil {
			return p, fmt.Errorf("back up %s: %w", path, err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		if p.backup != "" {
			_ = os.Rename(p.backup, path)
		}
		return p, fmt.Errorf("rename %s: %w", path, err)
	}
	return p, nil
}

// rollback restores the files replaced by done and removes the new ones.
func rollback(done []placed) {
	for i := len(done) - 1; i >= 0; i-- {
		if p := done[i]; p.backup != "" {
			_ = os.Rename(p.backup, p.path)
		} else {
			_ = os.Remove(p.path)
		}
	}
}

func (w *FileWriter) stage(f File) (string, error) {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", f.Path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", f.Path, err)
	}
	_, err = tmp.Write(f.Content)
	err = errors.Join(err, tmp.Chmod(w.perm), tmp.Close())
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", f.Path, err)
	}
	return tmp.Name(), nil
}

// discard removes staged files that were not renamed into place.
func discard(staged map[string]string) {
	for _, tmp := range staged {
		_ = os.Remove(tmp)
	}
}
