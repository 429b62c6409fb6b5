package hash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentIsDeterministic(t *testing.T) {
	a := Content([]byte("hello"))
	b := Content([]byte("hello"))
	c := Content([]byte("hello!"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "SHA-256 hex digest is 64 characters")
}

func TestFileMatchesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	digest, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, Content([]byte("hello")), digest)
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
