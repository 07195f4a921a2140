package provider

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/strrl/repo-context/internal/db"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

// Local serves snapshots from a directory on disk
type Local struct {
	Root   string // used when FetchParams.RepoURL is empty
	Filter Filter
	Logger *slog.Logger
}

// NewLocal creates a provider for the directory root
func NewLocal(root string, filter Filter, logger *slog.Logger) *Local {
	return &Local{Root: root, Filter: filter, Logger: logger}
}

// Fetch reads the filtered file set under the configured root, or under
// params.RepoURL when it names a directory. The branch is ignored.
func (l *Local) Fetch(ctx context.Context, params sessions.FetchParams) ([]models.FileRecord, error) {
	root := l.Root
	if dir, ok := LocalDir(params.RepoURL); ok {
		root = dir
	}
	if root == "" {
		return nil, fmt.Errorf("no local directory to read")
	}
	return readTree(ctx, root, l.Filter, loggerOr(l.Logger))
}

// LocalDir reports whether repo names an existing directory, accepting the
// file:// scheme.
func LocalDir(repo string) (string, bool) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return "", false
	}
	repo = strings.TrimPrefix(repo, "file://")
	st, err := os.Stat(repo)
	if err != nil || !st.IsDir() {
		return "", false
	}
	return repo, true
}

// readTree walks root in lexical order and loads every file passing filter.
// Contents are read in batches through DuckDB.
func readTree(ctx context.Context, root string, filter Filter, logger *slog.Logger) ([]models.FileRecord, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	var (
		rels    []string
		targets []string
		skipped int
	)
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if d.Name() == ".git" || d.Name() == "node_modules" || filter.Excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.Allow(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !filter.AllowSize(info.Size()) {
			skipped++
			return nil
		}
		rels = append(rels, rel)
		targets = append(targets, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	if skipped > 0 {
		logger.Debug("skipped oversized files", "count", skipped, "filter", filter.String())
	}
	if len(targets) == 0 {
		return nil, nil
	}

	contents, err := readContents(ctx, targets, logger)
	if err != nil {
		return nil, err
	}

	files := make([]models.FileRecord, 0, len(rels))
	for i, rel := range rels {
		content, ok := contents[targets[i]]
		if !ok {
			data, err := os.ReadFile(targets[i])
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", rel, err)
			}
			content = string(data)
		}
		files = append(files, models.FileRecord{Path: rel, Content: content})
	}
	logger.Debug("read repository tree", "root", root, "count", len(files))
	return files, nil
}

// readContents loads file contents through DuckDB. Paths carrying glob
// metacharacters (Next.js [param] directories) are read directly since
// read_text would expand them as patterns. A failed batch, typically
// non UTF-8 content, falls back to direct reads.
func readContents(ctx context.Context, targets []string, logger *slog.Logger) (map[string]string, error) {
	var plain, literal []string
	for _, p := range targets {
		if strings.ContainsAny(p, "*?[]{}") {
			literal = append(literal, p)
		} else {
			plain = append(plain, p)
		}
	}

	contents := make(map[string]string, len(targets))
	if len(plain) > 0 {
		database, err := db.GetDB()
		if err != nil {
			return nil, err
		}
		read, err := db.ReadTextFiles(ctx, database, plain)
		if err != nil {
			logger.Debug("read_text failed, reading files directly", "error", err)
			literal = append(literal, plain...)
		} else {
			contents = read
		}
	}
	for _, p := range literal {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		contents[p] = string(data)
	}
	return contents, nil
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
