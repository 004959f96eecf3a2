// Package workspace provides a thin filesystem abstraction rooted at a
// freshly cloned working copy, per spec §4.2.
package workspace

import (
	"bufio"
	"os"
	"path/filepath"
)

// vcsMetadataDir is excluded from List: it is the remote tool's own
// bookkeeping, never lock state, and must never be mistaken for a lock
// or reader file (I5).
const vcsMetadataDir = ".git"

// Workspace operates against the files at the root of a cloned repository.
type Workspace struct {
	Root string
}

// New returns a Workspace rooted at the given clone path.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

func (w *Workspace) path(name string) string {
	return filepath.Join(w.Root, name)
}

// Exists reports whether name is present at the root.
func (w *Workspace) Exists(name string) bool {
	_, err := os.Stat(w.path(name))
	return err == nil
}

// FirstLine returns the first line of name, without its trailing newline.
// Returns an error satisfying os.IsNotExist if the file does not exist.
func (w *Workspace) FirstLine(name string) (string, error) {
	f, err := os.Open(w.path(name))
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", nil
}

// WriteFile truncates (or creates) name and writes content, ensuring a
// trailing newline.
func (w *Workspace) WriteFile(name, content string) error {
	if len(content) == 0 || content[len(content)-1] != '\n' {
		content += "\n"
	}
	return os.WriteFile(w.path(name), []byte(content), 0644)
}

// Remove deletes name from the root.
func (w *Workspace) Remove(name string) error {
	return os.Remove(w.path(name))
}

// List returns the set of entry basenames currently present at the root,
// excluding the VCS metadata directory.
func (w *Workspace) List() (map[string]struct{}, error) {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Name() == vcsMetadataDir {
			continue
		}
		out[e.Name()] = struct{}{}
	}
	return out, nil
}
