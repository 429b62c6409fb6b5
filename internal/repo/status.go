package repo

import (
	"errors"
	"fmt"
	"os"

	"slate/internal/diff"
	"slate/internal/index"
	"slate/internal/vcserr"
)

// Status classifies every staged entry against the working tree.
func (r *Repository) Status() ([]index.StatusEntry, error) {
	return r.Index.Status()
}

// Diff compares the committed baseline of one staged file with its working
// copy. The baseline is the file as stored in the current commit's snapshot;
// with no such baseline there is nothing to diff against.
func (r *Repository) Diff(path string) (*diff.Result, string, error) {
	rel, err := r.Tree.Rel(path)
	if err != nil {
		return nil, "", err
	}

	if _, staged := r.Index.Lookup(rel); !staged {
		return nil, "", vcserr.NotFound("file %q is not staged", path)
	}

	current, err := r.Tree.ReadFile(rel)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", vcserr.NotFound("file %q is missing in the working tree", path)
		}
		return nil, "", fmt.Errorf("reading working copy of %s: %w", path, err)
	}

	commitID, err := r.Refs.CurrentCommit()
	if err != nil {
		return nil, "", err
	}
	if commitID == "" {
		return nil, "", vcserr.NotFound("no committed version of %q to diff against", path)
	}

	baseline, err := r.Snapshots.Read(commitID, rel)
	if err != nil {
		if errors.Is(err, vcserr.ErrNotFound) {
			return nil, "", vcserr.NotFound("no committed version of %q to diff against", path)
		}
		return nil, "", err
	}

	return diff.NewEngine().Compare(baseline, current), rel, nil
}
