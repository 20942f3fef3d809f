package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"ludex/internal/logging"
)

// migrateLegacyFile copies the legacy-named database into place when the
// current-name file does not exist yet. The legacy file is left untouched so
// a rollback to an older build still finds its data.
func migrateLegacyFile(legacyPath, currentPath string, logger *slog.Logger) error {
	if _, err := os.Stat(currentPath); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat database: %w", err)
	}

	info, err := os.Stat(legacyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat legacy database: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("legacy database path %q is a directory", legacyPath)
	}

	src, err := os.Open(legacyPath)
	if err != nil {
		return fmt.Errorf("open legacy database: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(currentPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(currentPath)
		return fmt.Errorf("copy legacy database: %w", err)
	}

	logger.Info("migrated legacy database file",
		logging.String("from", legacyPath),
		logging.String("to", currentPath))
	return nil
}
