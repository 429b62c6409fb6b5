// Package snapshot stores immutable per-commit copies of staged files.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"slate/internal/vcserr"
	"slate/internal/workspace"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const cacheSize = 256

// CopyResult reports the per-file outcome of snapshot creation. The store
// does not roll back files already copied when a later copy fails; callers
// get the exact split of what succeeded and what did not.
type CopyResult struct {
	Copied []string
	Failed []string
}

// Store manages snapshot directories under a commits root, one directory per
// commit id. Snapshots are written once and never mutated, which is what
// makes the read cache safe.
type Store struct {
	root   string
	tree   *workspace.Tree
	cache  *lru.Cache[string, []byte]
	logger *zap.Logger
}

func NewStore(root string, tree *workspace.Tree, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}

	return &Store{root: root, tree: tree, cache: cache, logger: logger}, nil
}

// Exists reports whether a snapshot directory exists for commitID.
func (s *Store) Exists(commitID string) bool {
	info, err := os.Stat(filepath.Join(s.root, commitID))
	return err == nil && info.IsDir()
}

// Create copies the current working-tree bytes of every staged entry into a
// new snapshot directory keyed by commitID, preserving relative paths. A
// source that vanished since staging fails that one file; the rest still
// copy. The caller decides what to do with a partial result.
func (s *Store) Create(commitID string, paths []string) (CopyResult, error) {
	var result CopyResult

	dir := filepath.Join(s.root, commitID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return result, fmt.Errorf("creating snapshot directory: %w", err)
	}

	for _, rel := range paths {
		src := s.tree.Abs(rel)
		dst := filepath.Join(dir, rel)

		if _, err := os.Stat(src); os.IsNotExist(err) {
			result.Failed = append(result.Failed, rel)
			s.logger.Warn("staged file vanished before commit copy",
				zap.String("path", rel),
				zap.String("commit", commitID))
			continue
		}

		if err := workspace.CopyFile(src, dst); err != nil {
			result.Failed = append(result.Failed, rel)
			s.logger.Warn("failed to copy staged file into snapshot",
				zap.String("path", rel),
				zap.String("commit", commitID),
				zap.Error(err))
			continue
		}
		result.Copied = append(result.Copied, rel)
	}

	return result, nil
}

// Remove deletes a snapshot directory. Used to discard a snapshot when every
// file copy failed and the commit is aborted.
func (s *Store) Remove(commitID string) error {
	return os.RemoveAll(filepath.Join(s.root, commitID))
}

// Read returns the stored bytes of one file within a snapshot.
func (s *Store) Read(commitID, rel string) ([]byte, error) {
	key := commitID + "/" + rel
	if content, ok := s.cache.Get(key); ok {
		return content, nil
	}

	if !s.Exists(commitID) {
		return nil, vcserr.NotFound("commit %q not found", commitID)
	}

	content, err := os.ReadFile(filepath.Join(s.root, commitID, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vcserr.NotFound("file %q not found in commit %q", rel, commitID)
		}
		return nil, fmt.Errorf("reading %s from commit %s: %w", rel, commitID, err)
	}

	s.cache.Add(key, content)
	return content, nil
}

// Files lists every file stored in a snapshot, sorted, repository-relative.
func (s *Store) Files(commitID string) ([]string, error) {
	dir := filepath.Join(s.root, commitID)
	if !s.Exists(commitID) {
		return nil, vcserr.NotFound("commit %q not found", commitID)
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking snapshot %s: %w", commitID, err)
	}

	sort.Strings(files)
	return files, nil
}

// RestoreAll copies every file in the snapshot back into the working tree,
// creating parent directories as needed and overwriting without confirmation.
func (s *Store) RestoreAll(commitID string) error {
	files, err := s.Files(commitID)
	if err != nil {
		return err
	}

	for _, rel := range files {
		content, err := s.Read(commitID, rel)
		if err != nil {
			return err
		}
		if err := s.tree.WriteFile(rel, content); err != nil {
			return err
		}
	}
	return nil
}

// RestoreFile copies a single file from the snapshot into the working tree.
func (s *Store) RestoreFile(commitID, rel string) error {
	content, err := s.Read(commitID, rel)
	if err != nil {
		return err
	}
	return s.tree.WriteFile(rel, content)
}
