package fs

import (
	"os"
	"path/filepath"
)

// writeFileAtomic writes data to path via a temp file and rename so readers
// never observe a truncated file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
