// Package refs manages branch reference files and the HEAD indirection.
//
// A branch ref is a plain-text file holding its head commit id, empty while
// the branch has no commits. HEAD holds either "ref: <branch>" (symbolic) or
// a bare commit id (detached).
package refs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slate/internal/vcserr"
)

const symbolicPrefix = "ref: "

// Head is the parsed HEAD pointer.
type Head struct {
	Branch string // set when symbolic
	Commit string // set when detached
}

func (h Head) Detached() bool { return h.Branch == "" }

// Manager reads and writes refs under refsDir and the HEAD file.
type Manager struct {
	refsDir  string
	headFile string
}

func NewManager(refsDir, headFile string) *Manager {
	return &Manager{refsDir: refsDir, headFile: headFile}
}

// Init creates the default branch ref (no commits yet) and points HEAD at it.
func (m *Manager) Init(defaultBranch string) error {
	if err := os.WriteFile(filepath.Join(m.refsDir, defaultBranch), []byte(""), 0644); err != nil {
		return fmt.Errorf("creating default branch: %w", err)
	}
	return m.SetHeadBranch(defaultBranch)
}

// Head parses the HEAD file.
func (m *Manager) Head() (Head, error) {
	data, err := os.ReadFile(m.headFile)
	if err != nil {
		return Head{}, fmt.Errorf("reading HEAD: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, symbolicPrefix) {
		branch := strings.TrimPrefix(content, symbolicPrefix)
		if branch == "" {
			return Head{}, fmt.Errorf("invalid HEAD content: %q", content)
		}
		return Head{Branch: branch}, nil
	}
	if content == "" {
		return Head{}, errors.New("empty HEAD file")
	}
	return Head{Commit: content}, nil
}

// CurrentBranch returns the branch HEAD points at, or false when detached.
func (m *Manager) CurrentBranch() (string, bool, error) {
	h, err := m.Head()
	if err != nil {
		return "", false, err
	}
	if h.Detached() {
		return "", false, nil
	}
	return h.Branch, true, nil
}

// CurrentCommit resolves HEAD to a commit id. Empty when the current branch
// has no commits yet.
func (m *Manager) CurrentCommit() (string, error) {
	h, err := m.Head()
	if err != nil {
		return "", err
	}
	if h.Detached() {
		return h.Commit, nil
	}
	return m.BranchHead(h.Branch)
}

// SetHeadBranch points HEAD at a branch (symbolic).
func (m *Manager) SetHeadBranch(branch string) error {
	content := symbolicPrefix + branch
	if err := os.WriteFile(m.headFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	return nil
}

// SetHeadDetached points HEAD directly at a commit id.
func (m *Manager) SetHeadDetached(commitID string) error {
	if err := os.WriteFile(m.headFile, []byte(commitID), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	return nil
}

// BranchExists reports whether a branch ref file exists.
func (m *Manager) BranchExists(name string) bool {
	info, err := os.Stat(filepath.Join(m.refsDir, name))
	return err == nil && info.Mode().IsRegular()
}

// BranchHead returns a branch's head commit id, empty when it has none.
func (m *Manager) BranchHead(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(m.refsDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", vcserr.NotFound("branch %q not found", name)
		}
		return "", fmt.Errorf("reading ref for branch %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// CreateBranch creates a branch pointing at headCommit, the creating
// branch's head at creation time. Later commits to either branch do not
// affect the other.
func (m *Manager) CreateBranch(name, headCommit string) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if m.BranchExists(name) {
		return vcserr.AlreadyExists("branch %q already exists", name)
	}
	if err := os.WriteFile(filepath.Join(m.refsDir, name), []byte(headCommit), 0644); err != nil {
		return fmt.Errorf("writing ref for branch %q: %w", name, err)
	}
	return nil
}

// Advance sets a branch's head commit. Called only by the commit operation.
func (m *Manager) Advance(branch, commitID string) error {
	if !m.BranchExists(branch) {
		return vcserr.NotFound("branch %q not found", branch)
	}
	if err := os.WriteFile(filepath.Join(m.refsDir, branch), []byte(commitID), 0644); err != nil {
		return fmt.Errorf("advancing branch %q: %w", branch, err)
	}
	return nil
}

// List returns all branch names, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.refsDir)
	if err != nil {
		return nil, fmt.Errorf("reading refs directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
