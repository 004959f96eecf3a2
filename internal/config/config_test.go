package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	cases := []struct {
		name    string
		lockVal string
		wantErr bool
	}{
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"reserved substring", "build.read.token", true},
		{"ok", "build", false},
		{"ok with dots and dashes", "build.release-1", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateName(c.lockVal)
			if c.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("simple")
	require.NoError(t, err)
	assert.Equal(t, KindSimple, k)

	k, err = ParseKind("readwrite")
	require.NoError(t, err)
	assert.Equal(t, KindReadWrite, k)

	_, err = ParseKind("exclusive")
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := New()
	cfg.Locks["build"] = KindSimple
	cfg.Locks["data"] = KindReadWrite

	require.NoError(t, Save(root, cfg))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.Equal(t, KindSimple, loaded.Locks["build"])
	assert.Equal(t, KindReadWrite, loaded.Locks["data"])
	assert.Len(t, loaded.Locks, 2)
}

func TestLoadEmptyInitialized(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, New()))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Empty(t, loaded.Locks)
	assert.Equal(t, CurrentVersion, loaded.Version)
}

func TestLoadUnknownKindIsFatal(t *testing.T) {
	root := t.TempDir()
	content := "[locks]\nbuild = exclusive\n\n[metadata]\nversion = 1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0644))

	_, err := Load(root)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	root := t.TempDir()
	_, err := Load(root)
	assert.Error(t, err)
}
