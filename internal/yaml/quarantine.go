package yaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Quarantine moves a file that no longer parses to dir/quarantine and
// returns where it went.
func Quarantine(dir, path string) (string, error) {
	qdir := filepath.Join(dir, "quarantine")
	if err := os.MkdirAll(qdir, 0700); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}
	name := fmt.Sprintf("%s.%s.corrupt", filepath.Base(path), time.Now().Format("20060102T150405"))
	dst := filepath.Join(qdir, name)
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("move to quarantine: %w", err)
	}
	return dst, nil
}

// RestoreFromBackup copies path.bak over path if the backup parses.
func RestoreFromBackup(path string) error {
	content, err := os.ReadFile(path + ".bak")
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if err := validateYAML(content); err != nil {
		return fmt.Errorf("backup is also corrupt: %w", err)
	}
	return AtomicWriteRaw(path, content)
}

// ReadOrRecover reads path into v. A file that fails to parse is
// quarantined under dir and, when a valid backup exists, restored from it
// and read again. It returns the quarantine path when one was made.
// A missing file is reported as os.ErrNotExist.
func ReadOrRecover(dir, path string, v any) (string, error) {
	err := ReadFile(path, v)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	moved, qerr := Quarantine(dir, path)
	if qerr != nil {
		return "", errors.Join(err, qerr)
	}
	if rerr := RestoreFromBackup(path); rerr != nil {
		return moved, fmt.Errorf("%w (quarantined to %s)", os.ErrNotExist, moved)
	}
	return moved, ReadFile(path, v)
}
