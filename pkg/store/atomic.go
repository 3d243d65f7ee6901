package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// writeFileAtomic replaces path with data without ever exposing a partially
// written file: the data goes to a temp file in the same directory, is synced
// to disk, and is renamed into place. An aborted write never materializes.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".parley-*.tmp")
	if err != nil {
		return errors.Wrap(err, "could not create temp file")
	}
	tmpPath := f.Name()

	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "could not write temp file")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "could not sync temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "could not close temp file")
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return errors.Wrap(err, "could not set temp file permissions")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "could not rename temp file into place")
	}
	committed = true

	return nil
}
