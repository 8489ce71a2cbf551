package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docassist/internal/contextutil"
)

// LoadDir walks root for Markdown files and returns the prepared documents
// in sorted path order. Unreadable files are logged and skipped so a single
// bad document never aborts an index build; only a missing or unreadable
// root is an error.
func LoadDir(ctx context.Context, root string) ([]Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("failed to open corpus directory %s: %w", root, err)
	}

	var docs []Document

	// WalkDir visits entries in lexical order, which keeps document order
	// deterministic across builds of an unchanged corpus.
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				logger.WarnContext(ctx, "skipping unreadable directory", "path", path, "error", err)
				return fs.SkipDir
			}
			logger.WarnContext(ctx, "skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable document", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}

		docs = append(docs, Prepare(filepath.ToSlash(relPath), raw))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus directory: %w", err)
	}

	logger.InfoContext(ctx, "corpus loaded", "root", root, "documents", len(docs))
	return docs, nil
}
