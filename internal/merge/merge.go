// Package merge reconciles the latest snapshot of a target branch with the
// working tree of the current branch.
//
// The comparison is two-way and file-granular: each incoming file is checked
// against the working copy only, with no common-ancestor resolution. That is
// a deliberate simplification, not a missing feature.
package merge

import (
	"bytes"
	"fmt"
	"os"

	"slate/internal/history"
	"slate/internal/index"
	"slate/internal/refs"
	"slate/internal/snapshot"
	"slate/internal/vcserr"
	"slate/internal/workspace"

	"go.uber.org/zap"
)

// ConflictSuffix is appended to a conflicting path to name its artifact.
const ConflictSuffix = ".conflict"

// Result reports what a merge did. CommitID is set only when the merge was
// conflict-free and auto-committed.
type Result struct {
	Merged    []string
	Conflicts []string
	CommitID  string
}

// Engine wires the stores a merge needs. Commit is the repository's commit
// operation, injected to keep the auto-commit policy in one place.
type Engine struct {
	Tree      *workspace.Tree
	Index     *index.Index
	Snapshots *snapshot.Store
	Refs      *refs.Manager
	History   *history.Log
	Commit    func(message string) (string, error)
	Logger    *zap.Logger
}

// Merge brings the latest commit of targetBranch into the working tree.
//
// Policy: if any file conflicts, nothing is committed and every conflict is
// left as a <path>.conflict artifact for manual resolution. Only a fully
// clean merge auto-commits, and it commits every merged file at once.
func (e *Engine) Merge(targetBranch string) (Result, error) {
	var result Result

	current, onBranch, err := e.Refs.CurrentBranch()
	if err != nil {
		return result, err
	}
	if !onBranch {
		return result, fmt.Errorf("HEAD is detached; switch to a branch before merging")
	}
	if targetBranch == current {
		return result, vcserr.SameBranch("already on branch %q", targetBranch)
	}
	if !e.Refs.BranchExists(targetBranch) {
		return result, vcserr.NotFound("branch %q not found", targetBranch)
	}

	incoming, ok, err := e.History.Latest(targetBranch)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, vcserr.EmptyBranch("branch %q has no commits to merge", targetBranch)
	}

	for _, rel := range incoming.Files {
		incomingContent, err := e.Snapshots.Read(incoming.ID, rel)
		if err != nil {
			return result, err
		}

		currentContent, err := e.Tree.ReadFile(rel)
		if err != nil {
			if !os.IsNotExist(err) {
				return result, fmt.Errorf("reading working copy of %s: %w", rel, err)
			}
			// Not present locally: restore it and count it as merged.
			if err := e.Tree.WriteFile(rel, incomingContent); err != nil {
				return result, err
			}
			result.Merged = append(result.Merged, rel)
			continue
		}

		if bytes.Equal(bytes.TrimSpace(incomingContent), bytes.TrimSpace(currentContent)) {
			continue
		}

		if err := e.writeConflict(rel, targetBranch, incomingContent, currentContent); err != nil {
			return result, err
		}
		result.Conflicts = append(result.Conflicts, rel)
	}

	if len(result.Conflicts) > 0 {
		e.Logger.Warn("merge produced conflicts; resolve and commit manually",
			zap.String("target", targetBranch),
			zap.Int("conflicts", len(result.Conflicts)))
		return result, nil
	}

	if len(result.Merged) == 0 {
		return result, nil
	}

	for _, rel := range result.Merged {
		if _, err := e.Index.Stage(rel); err != nil {
			return result, fmt.Errorf("staging merged file %s: %w", rel, err)
		}
	}

	commitID, err := e.Commit(fmt.Sprintf("Merged branch '%s'", targetBranch))
	if err != nil {
		return result, fmt.Errorf("auto-committing merge: %w", err)
	}
	result.CommitID = commitID
	return result, nil
}

// writeConflict leaves a sibling artifact holding both versions. The
// artifact is never consumed automatically; it exists until a human resolves
// it and re-stages the original path.
func (e *Engine) writeConflict(rel, targetBranch string, incoming, current []byte) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<<<<<<< incoming (%s)\n", targetBranch)
	buf.Write(incoming)
	if len(incoming) > 0 && incoming[len(incoming)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("=======\n")
	buf.Write(current)
	if len(current) > 0 && current[len(current)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(">>>>>>> current\n")

	return e.Tree.WriteFile(rel+ConflictSuffix, buf.Bytes())
}
