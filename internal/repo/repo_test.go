package repo

import (
	"os"
	"testing"

	"slate/internal/vcserr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, Init(root))

	r, err := Open(root, nil)
	require.NoError(t, err)
	return r
}

func stageAndCommit(t *testing.T, r *Repository, message string, files map[string]string) string {
	t.Helper()

	for rel, content := range files {
		require.NoError(t, r.Tree.WriteFile(rel, []byte(content)))
		_, err := r.Index.Stage(rel)
		require.NoError(t, err)
	}

	result, err := r.Commit(message)
	require.NoError(t, err)
	return result.ID
}

func TestInitTwiceIsReported(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Init(root))

	err := Init(root)
	assert.ErrorIs(t, err, vcserr.ErrAlreadyExists)
}

func TestOpenWithoutRepository(t *testing.T) {
	_, err := Open(t.TempDir(), nil)
	assert.ErrorIs(t, err, vcserr.ErrNotInitialized)
}

func TestCommitNothingStaged(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.Commit("empty")
	assert.ErrorIs(t, err, vcserr.ErrNothingToDo)
}

func TestCommitClearsIndexAndAdvancesBranch(t *testing.T) {
	r := newTestRepo(t)

	id := stageAndCommit(t, r, "first", map[string]string{"a.txt": "hello\n"})

	assert.Equal(t, 0, r.Index.Len())

	head, err := r.Refs.BranchHead("main")
	require.NoError(t, err)
	assert.Equal(t, id, head)
}

func TestCommitIDsUniqueAndParentChained(t *testing.T) {
	r := newTestRepo(t)

	first := stageAndCommit(t, r, "first", map[string]string{"a.txt": "one\n"})
	second := stageAndCommit(t, r, "second", map[string]string{"a.txt": "two\n"})

	assert.NotEqual(t, first, second)

	records, err := r.Log()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, records[0].Parent)
	assert.Equal(t, first, records[1].Parent)
}

func TestCommitReportsVanishedFiles(t *testing.T) {
	r := newTestRepo(t)

	require.NoError(t, r.Tree.WriteFile("kept.txt", []byte("kept\n")))
	require.NoError(t, r.Tree.WriteFile("gone.txt", []byte("gone\n")))
	for _, rel := range []string{"kept.txt", "gone.txt"} {
		_, err := r.Index.Stage(rel)
		require.NoError(t, err)
	}
	require.NoError(t, os.Remove(r.Tree.Abs("gone.txt")))

	result, err := r.Commit("partial")
	require.NoError(t, err)

	assert.Equal(t, []string{"kept.txt"}, result.Copied)
	assert.Equal(t, []string{"gone.txt"}, result.Failed)

	records, err := r.Log()
	require.NoError(t, err)
	assert.Equal(t, []string{"kept.txt"}, records[len(records)-1].Files,
		"history must list only the files actually snapshotted")
}

func TestCommitAbortsWhenEverySourceVanished(t *testing.T) {
	r := newTestRepo(t)

	require.NoError(t, r.Tree.WriteFile("gone.txt", []byte("gone\n")))
	_, err := r.Index.Stage("gone.txt")
	require.NoError(t, err)
	require.NoError(t, os.Remove(r.Tree.Abs("gone.txt")))

	_, err = r.Commit("doomed")
	assert.ErrorIs(t, err, vcserr.ErrSourceMissing)
}

func TestCheckoutSingleFileRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	id := stageAndCommit(t, r, "first", map[string]string{"a.txt": "committed\n"})

	require.NoError(t, r.Tree.WriteFile("a.txt", []byte("scribbled\n")))
	require.NoError(t, r.Checkout(id, "a.txt"))

	got, err := r.Tree.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("committed\n"), got)

	// Single-file checkout leaves HEAD alone.
	branch, onBranch, err := r.Refs.CurrentBranch()
	require.NoError(t, err)
	assert.True(t, onBranch)
	assert.Equal(t, "main", branch)
}

func TestCheckoutCommitDetachesHead(t *testing.T) {
	r := newTestRepo(t)
	first := stageAndCommit(t, r, "first", map[string]string{"a.txt": "one\n"})
	stageAndCommit(t, r, "second", map[string]string{"a.txt": "two\n"})

	require.NoError(t, r.Checkout(first, ""))

	head, err := r.Refs.Head()
	require.NoError(t, err)
	assert.True(t, head.Detached())
	assert.Equal(t, first, head.Commit)

	got, err := r.Tree.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("one\n"), got)

	// Committing with a detached HEAD is rejected.
	require.NoError(t, r.Tree.WriteFile("b.txt", []byte("b\n")))
	_, err = r.Index.Stage("b.txt")
	require.NoError(t, err)
	_, err = r.Commit("detached")
	assert.Error(t, err)
}

func TestCheckoutUnknownCommit(t *testing.T) {
	r := newTestRepo(t)

	err := r.Checkout("nope1234", "")
	assert.ErrorIs(t, err, vcserr.ErrNotFound)
}

func TestBranchIsolation(t *testing.T) {
	r := newTestRepo(t)
	first := stageAndCommit(t, r, "first", map[string]string{"a.txt": "one\n"})

	require.NoError(t, r.CreateBranch("feature"))

	stageAndCommit(t, r, "second", map[string]string{"a.txt": "two\n"})

	featureHead, err := r.Refs.BranchHead("feature")
	require.NoError(t, err)
	assert.Equal(t, first, featureHead, "commit on main must not move feature")

	featureLog, err := r.History.Entries("feature")
	require.NoError(t, err)
	assert.Len(t, featureLog, 1, "commit on main must not grow feature's history")
}

func TestSwitchBranchReplacesWorkingTree(t *testing.T) {
	r := newTestRepo(t)
	stageAndCommit(t, r, "first", map[string]string{"a.txt": "main version\n"})

	require.NoError(t, r.CreateBranch("feature"))
	require.NoError(t, r.SwitchBranch("feature"))
	stageAndCommit(t, r, "feature change", map[string]string{"a.txt": "feature version\n"})

	require.NoError(t, r.SwitchBranch("main"))

	got, err := r.Tree.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("main version\n"), got)
	assert.Equal(t, 0, r.Index.Len(), "switching branches clears the index")
}

func TestSwitchToUnknownBranch(t *testing.T) {
	r := newTestRepo(t)

	err := r.SwitchBranch("nope")
	assert.ErrorIs(t, err, vcserr.ErrNotFound)
}

func TestDiffAgainstCurrentCommit(t *testing.T) {
	r := newTestRepo(t)
	stageAndCommit(t, r, "first", map[string]string{"a.txt": "one\ntwo\nthree\n"})

	require.NoError(t, r.Tree.WriteFile("a.txt", []byte("one\nTWO\nthree\nfour\nfive\n")))
	_, err := r.Index.Stage("a.txt")
	require.NoError(t, err)

	result, rel, err := r.Diff("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", rel)
	assert.Equal(t, 3, result.Stats.Additions)
	assert.Equal(t, 1, result.Stats.Deletions)
}

func TestDiffWithoutBaseline(t *testing.T) {
	r := newTestRepo(t)

	require.NoError(t, r.Tree.WriteFile("a.txt", []byte("new\n")))
	_, err := r.Index.Stage("a.txt")
	require.NoError(t, err)

	_, _, err = r.Diff("a.txt")
	assert.ErrorIs(t, err, vcserr.ErrNotFound)
}

func TestDiffUnstagedFile(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.Tree.WriteFile("a.txt", []byte("a\n")))

	_, _, err := r.Diff("a.txt")
	assert.ErrorIs(t, err, vcserr.ErrNotFound)
}
