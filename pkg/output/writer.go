package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Write writes converted content to path, creating parent directories as
// needed. "-" writes to stdout.
func Write(path string, content []byte) error {
	if path == "-" {
		fmt.Print(string(content))
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("bytes", len(content)).Msg("output written")
	return nil
}

// BackupPath returns the path a backup of p should be written to: p.bak, or
// p.bak.N when earlier backups already exist.
func BackupPath(p string) string {
	candidate := p + ".bak"
	for n := 1; ; n++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s.bak.%d", p, n)
	}
}

// Backup copies an existing file to a fresh backup path and returns that
// path. A missing source is not an error; the returned path is empty.
func Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open %s for backup: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	backupPath := BackupPath(path)
	dst, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create backup %s: %w", backupPath, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy backup to %s: %w", backupPath, err)
	}
	log.Debug().Str("path", path).Str("backup", backupPath).Msg("backup created")
	return backupPath, nil
}
