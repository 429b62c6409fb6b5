package repo

import (
	"slate/internal/merge"
	"slate/internal/vcserr"

	"go.uber.org/zap"
)

// CreateBranch creates a branch whose head is the current branch's head at
// creation time and gives it a value copy of the current branch's log.
// Later commits to either branch never show up in the other.
func (r *Repository) CreateBranch(name string) error {
	current, err := r.currentBranch()
	if err != nil {
		return err
	}

	head, err := r.Refs.BranchHead(current)
	if err != nil {
		return err
	}

	if err := r.Refs.CreateBranch(name, head); err != nil {
		return err
	}
	return r.History.CopyForBranch(current, name)
}

// SwitchBranch points HEAD at the branch, clears the staging index and
// replaces the working tree with the branch head's snapshot. A branch with
// no commits yet just leaves the tree empty.
func (r *Repository) SwitchBranch(name string) error {
	if !r.Refs.BranchExists(name) {
		return vcserr.NotFound("branch %q not found", name)
	}

	head, err := r.Refs.BranchHead(name)
	if err != nil {
		return err
	}

	if err := r.Refs.SetHeadBranch(name); err != nil {
		return err
	}
	if err := r.Index.Clear(); err != nil {
		return err
	}
	if err := r.Tree.Clean(); err != nil {
		return err
	}

	if head == "" {
		r.Logger.Info("switched to branch with no commits", zap.String("branch", name))
		return nil
	}
	return r.Snapshots.RestoreAll(head)
}

// Branches lists all branch names with the current one identified. current
// is empty when HEAD is detached.
func (r *Repository) Branches() (names []string, current string, err error) {
	names, err = r.Refs.List()
	if err != nil {
		return nil, "", err
	}
	current, _, err = r.Refs.CurrentBranch()
	if err != nil {
		return nil, "", err
	}
	return names, current, nil
}

// Merge runs the two-way merge of the target branch's latest snapshot
// against the working tree.
func (r *Repository) Merge(targetBranch string) (merge.Result, error) {
	engine := &merge.Engine{
		Tree:      r.Tree,
		Index:     r.Index,
		Snapshots: r.Snapshots,
		Refs:      r.Refs,
		History:   r.History,
		Logger:    r.Logger,
		Commit: func(message string) (string, error) {
			result, err := r.Commit(message)
			if err != nil {
				return "", err
			}
			return result.ID, nil
		},
	}
	return engine.Merge(targetBranch)
}
