package analyze

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when the analysis root is not a directory.
var ErrNotDirectory = errors.New("analysis root is not a directory")

// Directory analyzes every file under root that survives the filter.
// Unreadable entries are logged and skipped; only a missing or invalid
// root fails the run. Results keep walk order.
func (a *Analyzer) Directory(root string, filter *Filter, logger *slog.Logger) (DirectoryAnalysis, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if filter == nil {
		filter = NewFilter(FilterOptions{}, logger)
	}

	info, err := os.Stat(root)
	if err != nil {
		return DirectoryAnalysis{}, fmt.Errorf("analysis root: %w", err)
	}

	if !info.IsDir() {
		return DirectoryAnalysis{}, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	result := DirectoryAnalysis{Root: root}

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable entry", "path", p, "err", err)

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		slashed := filepath.ToSlash(rel)
		if !filter.Match(slashed) {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", slashed, "err", err)

			return nil
		}

		if !filter.MatchContent(slashed, content) {
			return nil
		}

		result.Files = append(result.Files, a.File(slashed, content))

		return nil
	})
	if walkErr != nil {
		return DirectoryAnalysis{}, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	return result, nil
}
