package workspace

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFirstLine(t *testing.T) {
	ws := New(t.TempDir())

	require.NoError(t, ws.WriteFile("build", "token-123"))
	line, err := ws.FirstLine("build")
	require.NoError(t, err)
	assert.Equal(t, "token-123", line)
}

func TestWriteFileTruncates(t *testing.T) {
	ws := New(t.TempDir())

	require.NoError(t, ws.WriteFile("build", "first-token-is-long"))
	require.NoError(t, ws.WriteFile("build", "tok"))

	line, err := ws.FirstLine("build")
	require.NoError(t, err)
	assert.Equal(t, "tok", line)
}

func TestExistsAndRemove(t *testing.T) {
	ws := New(t.TempDir())
	assert.False(t, ws.Exists("build"))

	require.NoError(t, ws.WriteFile("build", "tok"))
	assert.True(t, ws.Exists("build"))

	require.NoError(t, ws.Remove("build"))
	assert.False(t, ws.Exists("build"))
}

func TestListExcludesGitDir(t *testing.T) {
	root := t.TempDir()
	ws := New(root)

	require.NoError(t, os.Mkdir(root+"/.git", 0755))
	require.NoError(t, ws.WriteFile("build", "tok"))
	require.NoError(t, ws.WriteFile("slig.ini", "[locks]\n"))

	entries, err := ws.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	_, hasGit := entries[".git"]
	assert.False(t, hasGit)
	_, hasBuild := entries["build"]
	assert.True(t, hasBuild)
}

func TestFirstLineMissingFile(t *testing.T) {
	ws := New(t.TempDir())
	_, err := ws.FirstLine("nope")
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
