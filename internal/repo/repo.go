// Package repo ties the stores together into repository operations. All
// persisted state is loaded at operation start and written back only on
// successful mutation; there is no module-level repository state.
package repo

import (
	"fmt"
	"os"

	"slate/internal/config"
	"slate/internal/history"
	"slate/internal/index"
	"slate/internal/refs"
	"slate/internal/snapshot"
	"slate/internal/vcserr"
	"slate/internal/workspace"

	"go.uber.org/zap"
)

// Repository is the explicit state struct every operation hangs off.
type Repository struct {
	Root      string
	Layout    config.Layout
	Tree      *workspace.Tree
	Index     *index.Index
	Snapshots *snapshot.Store
	Refs      *refs.Manager
	History   *history.Log
	Logger    *zap.Logger
}

// Init creates an empty repository at root. Re-initializing an existing
// repository is reported, not treated as a hard failure.
func Init(root string) error {
	layout := config.NewLayout(root)

	if _, err := os.Stat(layout.RepoRoot()); err == nil {
		return vcserr.AlreadyExists("repository already initialized in %s", config.RepoDir)
	}

	for _, dir := range []string{
		layout.RepoRoot(),
		layout.CommitsDir(),
		layout.RefsDir(),
		layout.LogsDir(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := index.Init(layout.IndexFile()); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	manager := refs.NewManager(layout.RefsDir(), layout.HeadFile())
	if err := manager.Init(config.DefaultBranch); err != nil {
		return err
	}

	log := history.NewLog(layout.LogsDir())
	if err := log.InitBranch(config.DefaultBranch); err != nil {
		return err
	}

	return nil
}

// Open locates the repository containing startDir and loads its state.
func Open(startDir string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := workspace.FindRoot(startDir)
	if err != nil {
		return nil, vcserr.NotInitialized()
	}

	layout := config.NewLayout(root)
	tree := workspace.NewTree(root, logger)

	ix, err := index.Load(layout.IndexFile(), tree, logger)
	if err != nil {
		return nil, err
	}

	snapshots, err := snapshot.NewStore(layout.CommitsDir(), tree, logger)
	if err != nil {
		return nil, err
	}

	return &Repository{
		Root:      root,
		Layout:    layout,
		Tree:      tree,
		Index:     ix,
		Snapshots: snapshots,
		Refs:      refs.NewManager(layout.RefsDir(), layout.HeadFile()),
		History:   history.NewLog(layout.LogsDir()),
		Logger:    logger,
	}, nil
}

// currentBranch resolves HEAD to a branch name or fails for detached HEAD.
func (r *Repository) currentBranch() (string, error) {
	branch, onBranch, err := r.Refs.CurrentBranch()
	if err != nil {
		return "", err
	}
	if !onBranch {
		return "", fmt.Errorf("HEAD is detached; not on a branch")
	}
	return branch, nil
}
