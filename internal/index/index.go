// Package index implements the staging area: the mutable set of
// path -> digest entries that the next commit will snapshot.
package index

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"

	"slate/internal/hash"
	"slate/internal/vcserr"
	"slate/internal/workspace"

	"go.uber.org/zap"
)

// Entry is one staged file. Path is repository-relative and normalized;
// Digest is the SHA-256 of the file's content at staging time.
type Entry struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// State classifies a staged entry against the current working tree.
type State int

const (
	Unchanged State = iota
	Modified
	Deleted
)

func (s State) String() string {
	switch s {
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// StatusEntry pairs a staged entry with its working-tree classification.
type StatusEntry struct {
	Entry
	State State
}

// StageResult reports what a Stage call actually did.
type StageResult struct {
	Added   []string
	Updated []string
	Skipped []string
}

func (r StageResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Updated) == 0
}

// Index is the staging area, persisted as a JSON array in insertion order.
// At most one entry per path.
type Index struct {
	path    string
	tree    *workspace.Tree
	logger  *zap.Logger
	entries []Entry
}

// Load reads the index file. A missing file is treated as malformed state,
// not an empty index: init always writes one.
func Load(path string, tree *workspace.Tree, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	for _, e := range entries {
		if e.Path == "" || e.Digest == "" {
			return nil, fmt.Errorf("malformed index entry: %+v", e)
		}
	}

	return &Index{path: path, tree: tree, logger: logger, entries: entries}, nil
}

// Init writes an empty index file.
func Init(path string) error {
	return os.WriteFile(path, []byte("[]\n"), 0644)
}

// Stage adds path (a file, or a directory staged recursively) to the index.
// Files already staged with an identical digest are skipped; a different
// digest updates the entry in place. The index file is rewritten only when
// something changed.
func (ix *Index) Stage(path string) (StageResult, error) {
	var result StageResult

	rel, err := ix.tree.Rel(path)
	if err != nil {
		return result, err
	}

	info, err := os.Stat(ix.tree.Abs(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return result, vcserr.NotFound("path %q not found", path)
		}
		return result, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		err = ix.tree.WalkFiles(rel, func(fileRel string) error {
			if err := ix.stageFile(fileRel, &result); err != nil {
				ix.logger.Warn("failed to stage file",
					zap.String("path", fileRel),
					zap.Error(err))
			}
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("walking %s: %w", path, err)
		}
	} else {
		if workspace.ShouldIgnore(rel) {
			return result, nil
		}
		if err := ix.stageFile(rel, &result); err != nil {
			return result, err
		}
	}

	if result.Empty() {
		return result, nil
	}
	if err := ix.save(); err != nil {
		return result, err
	}
	return result, nil
}

func (ix *Index) stageFile(rel string, result *StageResult) error {
	digest, err := hash.File(ix.tree.Abs(rel))
	if err != nil {
		return err
	}

	for i, e := range ix.entries {
		if e.Path != rel {
			continue
		}
		if e.Digest == digest {
			result.Skipped = append(result.Skipped, rel)
			return nil
		}
		ix.entries[i].Digest = digest
		result.Updated = append(result.Updated, rel)
		return nil
	}

	ix.entries = append(ix.entries, Entry{Path: rel, Digest: digest})
	result.Added = append(result.Added, rel)
	return nil
}

// Unstage removes the entry for path. The special path "." clears the whole
// index. Returns false (without error) when nothing was staged under path.
func (ix *Index) Unstage(path string) (bool, error) {
	if path == "." {
		if len(ix.entries) == 0 {
			return false, nil
		}
		ix.entries = nil
		return true, ix.save()
	}

	rel, err := ix.tree.Rel(path)
	if err != nil {
		return false, err
	}

	for i, e := range ix.entries {
		if e.Path == rel {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			return true, ix.save()
		}
	}
	return false, nil
}

// Clear empties the index. Used by commit and branch switch.
func (ix *Index) Clear() error {
	ix.entries = nil
	return ix.save()
}

// Len returns the number of staged entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Lookup returns the entry for a repository-relative path.
func (ix *Index) Lookup(rel string) (Entry, bool) {
	for _, e := range ix.entries {
		if e.Path == rel {
			return e, true
		}
	}
	return Entry{}, false
}

// All iterates staged entries in insertion order. The sequence is restartable.
func (ix *Index) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range ix.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Entries returns a copy of the staged entries in insertion order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Status recomputes each staged entry's digest against the working tree and
// classifies it. The index itself is never mutated.
func (ix *Index) Status() ([]StatusEntry, error) {
	statuses := make([]StatusEntry, 0, len(ix.entries))
	for _, e := range ix.entries {
		abs := ix.tree.Abs(e.Path)
		if _, err := os.Stat(abs); err != nil {
			if os.IsNotExist(err) {
				statuses = append(statuses, StatusEntry{Entry: e, State: Deleted})
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Path, err)
		}

		digest, err := hash.File(abs)
		if err != nil {
			return nil, err
		}

		state := Unchanged
		if digest != e.Digest {
			state = Modified
		}
		statuses = append(statuses, StatusEntry{Entry: e, State: state})
	}
	return statuses, nil
}

func (ix *Index) save() error {
	entries := ix.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}
	if err := os.WriteFile(ix.path, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
