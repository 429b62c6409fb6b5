// internal/workspace/workspace.go
package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"slate/internal/config"

	"go.uber.org/zap"
)

// Tree wraps working-tree traversal and mutation for one repository root.
type Tree struct {
	Root   string
	Logger *zap.Logger
}

func NewTree(root string, logger *zap.Logger) *Tree {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tree{Root: root, Logger: logger}
}

// FindRoot walks upward from startDir looking for the repository marker.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, config.RepoDir)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("repository root not found")
}

// ShouldIgnore reports whether a repository-relative path is excluded from
// staging, cleanup and watching.
func ShouldIgnore(relPath string) bool {
	if relPath == "" || relPath == "." {
		return true
	}

	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		if part == "" {
			continue
		}

		// Hidden files and directories, including the repository dir itself.
		if strings.HasPrefix(part, ".") {
			return true
		}

		switch part {
		case "node_modules", "vendor", "dist", "build":
			return true
		}
	}

	return false
}

// Rel normalizes a user-supplied path to a clean repository-relative path.
func (t *Tree) Rel(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(t.Root, path)
	}
	rel, err := filepath.Rel(t.Root, abs)
	if err != nil {
		return "", fmt.Errorf("getting relative path for %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the repository", path)
	}
	return filepath.Clean(rel), nil
}

// Abs resolves a repository-relative path to an absolute one.
func (t *Tree) Abs(relPath string) string {
	return filepath.Join(t.Root, relPath)
}

// WalkFiles visits every non-ignored file under relPath (or the whole tree
// for "."), in lexical order, with repository-relative paths.
func (t *Tree) WalkFiles(relPath string, fn func(relPath string) error) error {
	start := t.Abs(relPath)
	return filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(t.Root, path)
		if err != nil {
			t.Logger.Warn("failed to get relative path",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}

		if d.IsDir() {
			if rel != "." && ShouldIgnore(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if ShouldIgnore(rel) {
			return nil
		}

		return fn(rel)
	})
}

// Clean deletes every non-ignored file in the working tree, pruning
// directories left empty. Used when switching branches.
func (t *Tree) Clean() error {
	var files []string
	if err := t.WalkFiles(".", func(rel string) error {
		files = append(files, rel)
		return nil
	}); err != nil {
		return fmt.Errorf("walking working tree: %w", err)
	}

	for _, rel := range files {
		if err := os.Remove(t.Abs(rel)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", rel, err)
		}
		t.pruneEmptyParents(filepath.Dir(rel))
	}

	return nil
}

func (t *Tree) pruneEmptyParents(relDir string) {
	for relDir != "." && relDir != "" {
		abs := t.Abs(relDir)
		entries, err := os.ReadDir(abs)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(abs); err != nil {
			return
		}
		relDir = filepath.Dir(relDir)
	}
}

// WriteFile writes content to a repository-relative path, creating parent
// directories as needed. Existing files are overwritten.
func (t *Tree) WriteFile(relPath string, content []byte) error {
	abs := t.Abs(relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(abs, content, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", relPath, err)
	}
	return nil
}

// ReadFile reads the working copy at a repository-relative path.
func (t *Tree) ReadFile(relPath string) ([]byte, error) {
	return os.ReadFile(t.Abs(relPath))
}

// CopyFile copies src to dst byte for byte, creating dst's parents.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
