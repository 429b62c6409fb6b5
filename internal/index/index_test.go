package index

import (
	"os"
	"path/filepath"
	"testing"

	"slate/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) (*Index, *workspace.Tree) {
	t.Helper()

	root := t.TempDir()
	indexPath := filepath.Join(root, "index.json")
	require.NoError(t, Init(indexPath))

	tree := workspace.NewTree(root, nil)
	ix, err := Load(indexPath, tree, nil)
	require.NoError(t, err)
	return ix, tree
}

func writeFile(t *testing.T, tree *workspace.Tree, rel, content string) {
	t.Helper()
	require.NoError(t, tree.WriteFile(rel, []byte(content)))
}

func TestStageAddsFile(t *testing.T) {
	ix, tree := newTestIndex(t)
	writeFile(t, tree, "a.txt", "hello\n")

	result, err := ix.Stage("a.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, result.Added)
	assert.Empty(t, result.Updated)
	assert.Equal(t, 1, ix.Len())
}

func TestStageUnchangedIsNoOp(t *testing.T) {
	ix, tree := newTestIndex(t)
	writeFile(t, tree, "a.txt", "hello\n")

	_, err := ix.Stage("a.txt")
	require.NoError(t, err)

	result, err := ix.Stage("a.txt")
	require.NoError(t, err)

	assert.True(t, result.Empty())
	assert.Equal(t, []string{"a.txt"}, result.Skipped)
	assert.Equal(t, 1, ix.Len(), "staging twice must keep exactly one entry")
}

func TestStageModifiedUpdatesInPlace(t *testing.T) {
	ix, tree := newTestIndex(t)
	writeFile(t, tree, "a.txt", "hello\n")

	_, err := ix.Stage("a.txt")
	require.NoError(t, err)
	before, ok := ix.Lookup("a.txt")
	require.True(t, ok)

	writeFile(t, tree, "a.txt", "changed\n")
	result, err := ix.Stage("a.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, result.Updated)
	after, ok := ix.Lookup("a.txt")
	require.True(t, ok)
	assert.NotEqual(t, before.Digest, after.Digest)
	assert.Equal(t, 1, ix.Len())
}

func TestStageMissingPath(t *testing.T) {
	ix, _ := newTestIndex(t)

	_, err := ix.Stage("nope.txt")
	assert.Error(t, err)
}

func TestStageDirectoryRecursive(t *testing.T) {
	ix, tree := newTestIndex(t)
	writeFile(t, tree, filepath.Join("src", "a.txt"), "a\n")
	writeFile(t, tree, filepath.Join("src", "deep", "b.txt"), "b\n")
	writeFile(t, tree, filepath.Join("src", ".hidden"), "ignored\n")

	result, err := ix.Stage("src")
	require.NoError(t, err)

	assert.Len(t, result.Added, 2)
	_, ok := ix.Lookup(filepath.Join("src", ".hidden"))
	assert.False(t, ok, "hidden files must be ignored")
}

func TestUnstage(t *testing.T) {
	ix, tree := newTestIndex(t)
	writeFile(t, tree, "a.txt", "a\n")
	writeFile(t, tree, "b.txt", "b\n")
	_, err := ix.Stage("a.txt")
	require.NoError(t, err)
	_, err = ix.Stage("b.txt")
	require.NoError(t, err)

	removed, err := ix.Unstage("a.txt")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, ix.Len())

	removed, err = ix.Unstage("a.txt")
	require.NoError(t, err)
	assert.False(t, removed, "unstaging an absent entry is a soft no-op")
}

func TestUnstageDotClearsEverything(t *testing.T) {
	ix, tree := newTestIndex(t)
	writeFile(t, tree, "a.txt", "a\n")
	writeFile(t, tree, "b.txt", "b\n")
	_, err := ix.Stage("a.txt")
	require.NoError(t, err)
	_, err = ix.Stage("b.txt")
	require.NoError(t, err)

	removed, err := ix.Unstage(".")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, ix.Len())
}

func TestAllPreservesInsertionOrderAndRestarts(t *testing.T) {
	ix, tree := newTestIndex(t)
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		writeFile(t, tree, name, name+"\n")
		_, err := ix.Stage(name)
		require.NoError(t, err)
	}

	collect := func() []string {
		var paths []string
		for e := range ix.All() {
			paths = append(paths, e.Path)
		}
		return paths
	}

	want := []string{"c.txt", "a.txt", "b.txt"}
	assert.Equal(t, want, collect())
	assert.Equal(t, want, collect(), "sequence must be restartable")
}

func TestStatusClassification(t *testing.T) {
	ix, tree := newTestIndex(t)
	writeFile(t, tree, "unchanged.txt", "same\n")
	writeFile(t, tree, "modified.txt", "before\n")
	writeFile(t, tree, "deleted.txt", "gone\n")
	for _, name := range []string{"unchanged.txt", "modified.txt", "deleted.txt"} {
		_, err := ix.Stage(name)
		require.NoError(t, err)
	}

	writeFile(t, tree, "modified.txt", "after\n")
	require.NoError(t, os.Remove(tree.Abs("deleted.txt")))

	statuses, err := ix.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	byPath := map[string]State{}
	for _, s := range statuses {
		byPath[s.Path] = s.State
	}
	assert.Equal(t, Unchanged, byPath["unchanged.txt"])
	assert.Equal(t, Modified, byPath["modified.txt"])
	assert.Equal(t, Deleted, byPath["deleted.txt"])

	assert.Equal(t, 3, ix.Len(), "status must not mutate the index")
}

func TestIndexPersistence(t *testing.T) {
	root := t.TempDir()
	indexPath := filepath.Join(root, "index.json")
	require.NoError(t, Init(indexPath))
	tree := workspace.NewTree(root, nil)

	ix, err := Load(indexPath, tree, nil)
	require.NoError(t, err)
	writeFile(t, tree, "a.txt", "hello\n")
	_, err = ix.Stage("a.txt")
	require.NoError(t, err)

	reloaded, err := Load(indexPath, tree, nil)
	require.NoError(t, err)
	assert.Equal(t, ix.Entries(), reloaded.Entries())
}
