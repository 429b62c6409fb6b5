package repo

import (
	"fmt"
	"io"
	"time"

	"slate/internal/history"
	"slate/internal/vcserr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommitResult reports the outcome of a commit, including the exact split of
// staged files that made it into the snapshot and those whose source
// vanished between staging and the copy.
type CommitResult struct {
	ID     string
	Copied []string
	Failed []string
}

// Commit snapshots the staged files, appends the record to the current
// branch's log, advances the branch ref and clears the staging index.
//
// Snapshot creation is not transactional: a file that vanished since staging
// fails alone and the rest still commit. Only when every file fails is the
// commit aborted and the empty snapshot discarded.
func (r *Repository) Commit(message string) (*CommitResult, error) {
	branch, err := r.currentBranch()
	if err != nil {
		return nil, err
	}

	entries := r.Index.Entries()
	if len(entries) == 0 {
		return nil, vcserr.NothingToDo("nothing to commit")
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}

	id, err := r.newCommitID()
	if err != nil {
		return nil, err
	}

	copyResult, err := r.Snapshots.Create(id, paths)
	if err != nil {
		return nil, err
	}
	if len(copyResult.Copied) == 0 {
		if err := r.Snapshots.Remove(id); err != nil {
			r.Logger.Warn("failed to discard empty snapshot",
				zap.String("commit", id),
				zap.Error(err))
		}
		return nil, vcserr.SourceMissing("every staged file vanished before commit")
	}

	parent, err := r.Refs.BranchHead(branch)
	if err != nil {
		return nil, err
	}

	record := history.Record{
		ID:        id,
		Message:   message,
		Timestamp: time.Now(),
		Parent:    parent,
		Files:     copyResult.Copied,
	}
	if err := r.History.Append(branch, record); err != nil {
		return nil, err
	}

	if err := r.Refs.Advance(branch, id); err != nil {
		return nil, err
	}

	if err := r.Index.Clear(); err != nil {
		return nil, err
	}

	r.Logger.Info("created commit",
		zap.String("commit", id),
		zap.String("branch", branch),
		zap.Int("files", len(copyResult.Copied)))

	return &CommitResult{ID: id, Copied: copyResult.Copied, Failed: copyResult.Failed}, nil
}

// newCommitID generates a short unique commit id. Ids are the first eight
// characters of a random UUID, re-drawn on the (unlikely) collision with an
// existing snapshot so an id is never reused.
func (r *Repository) newCommitID() (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		id := uuid.NewString()[:8]
		if !r.Snapshots.Exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique commit id")
}

// Log returns the current branch's history, oldest first.
func (r *Repository) Log() ([]history.Record, error) {
	branch, err := r.currentBranch()
	if err != nil {
		return nil, err
	}
	return r.History.Entries(branch)
}

// Checkout restores files from a commit snapshot. With a path it restores
// that single file and leaves HEAD alone (the original per-file checkout).
// Without one it replaces the whole working tree, clears the index and
// detaches HEAD at the commit.
func (r *Repository) Checkout(commitID, path string) error {
	if path != "" {
		rel, err := r.Tree.Rel(path)
		if err != nil {
			return err
		}
		return r.Snapshots.RestoreFile(commitID, rel)
	}

	if !r.Snapshots.Exists(commitID) {
		return vcserr.NotFound("commit %q not found", commitID)
	}

	if err := r.Index.Clear(); err != nil {
		return err
	}
	if err := r.Tree.Clean(); err != nil {
		return err
	}
	if err := r.Snapshots.RestoreAll(commitID); err != nil {
		return err
	}
	return r.Refs.SetHeadDetached(commitID)
}

// Archive exports a commit snapshot through the snapshot store.
func (r *Repository) Archive(commitID string, w io.Writer) error {
	return r.Snapshots.Archive(commitID, w)
}
