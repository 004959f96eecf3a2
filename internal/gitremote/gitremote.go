// Package gitremote wraps the git command-line client as a subprocess,
// implementing the Remote Driver of spec §4.1: clone-to-scratch, stage,
// unstage, commit, push, pull-with-rebase. The remote tool itself is
// treated as an opaque dependency — every operation is one subprocess
// invocation whose exit status and captured output (stdout and stderr
// combined) are reported back.
package gitremote

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Error carries a subprocess failure: the subcommand that was run, its
// exit code, and the combined stdout and stderr output it produced.
type Error struct {
	Subcommand string
	ExitCode   int
	Diagnostic string
}

func (e *Error) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("git %s: exit %d: %s", e.Subcommand, e.ExitCode, strings.TrimSpace(e.Diagnostic))
	}
	return fmt.Sprintf("git %s: exit %d", e.Subcommand, e.ExitCode)
}

// Driver runs a git binary against a single cloned working copy. Extra
// pass-through options supplied at construction (spec §4.1, "used to
// forward authentication or transport flags") are prepended to every
// invocation, between the tool name and the subcommand.
type Driver struct {
	bin   string
	extra []string

	// Root is the absolute path of the cloned repository, set by Clone.
	Root string

	// Diag receives the captured combined output of every subprocess
	// invocation, matching spec §4.1's "forwarded to the invoking
	// process's diagnostic stream." Defaults to os.Stderr; callers that
	// want diagnostics routed through the process's structured logger
	// (internal/logging) rewire this to a zapio.Writer, e.g. in
	// cmd/slig's openClone.
	Diag io.Writer
}

// New returns a Driver that invokes the given git binary (normally
// "git") with extraOpts inserted before every subcommand.
func New(bin string, extraOpts []string) *Driver {
	return &Driver{bin: bin, extra: extraOpts, Diag: os.Stderr}
}

func (d *Driver) run(dir string, args ...string) (int, string) {
	full := append(append([]string{}, d.extra...), args...)
	cmd := exec.Command(d.bin, full...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	diag := string(out)
	if diag != "" && d.Diag != nil {
		fmt.Fprint(d.Diag, diag)
	}
	if err == nil {
		return 0, diag
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), diag
	}
	// The binary could not even be started (not found, permissions, ...).
	return -1, diag + err.Error()
}

// Clone clones remote into a fresh scratch directory and returns its
// absolute path. extraOpts here are the per-clone pass-through flags;
// they are used in addition to the driver's own construction-time
// options, matching the Python original's single-flag-list behaviour
// (this driver simply never needs both, but the seam exists for §4.1's
// "pass-through flags" at the clone call site).
func (d *Driver) Clone(remote string, extraOpts ...string) (string, error) {
	parent, err := os.MkdirTemp("", "slig-clone-")
	if err != nil {
		return "", fmt.Errorf("mkdir scratch: %w", err)
	}

	args := append([]string{"clone"}, extraOpts...)
	args = append(args, remote)
	code, diag := d.run(parent, args...)
	if code != 0 {
		_ = os.RemoveAll(parent)
		return "", &Error{Subcommand: "clone", ExitCode: code, Diagnostic: diag}
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		_ = os.RemoveAll(parent)
		return "", &Error{Subcommand: "clone", ExitCode: -1, Diagnostic: "read scratch dir: " + err.Error()}
	}
	if len(entries) != 1 {
		_ = os.RemoveAll(parent)
		return "", &Error{Subcommand: "clone", ExitCode: -1,
			Diagnostic: fmt.Sprintf("expected exactly one cloned root under %s, found %d", parent, len(entries))}
	}

	d.Root = filepath.Join(parent, entries[0].Name())
	return d.Root, nil
}

// Stage runs `git add <path>`.
func (d *Driver) Stage(path string) error {
	code, diag := d.run(d.Root, "add", path)
	if code != 0 {
		return &Error{Subcommand: "add", ExitCode: code, Diagnostic: diag}
	}
	return nil
}

// UnstageDelete runs `git rm <path>`, removing path from both the
// working copy and the index in one step.
func (d *Driver) UnstageDelete(path string) error {
	code, diag := d.run(d.Root, "rm", path)
	if code != 0 {
		return &Error{Subcommand: "rm", ExitCode: code, Diagnostic: diag}
	}
	return nil
}

// Commit runs `git commit -m <message>`.
func (d *Driver) Commit(message string) error {
	code, diag := d.run(d.Root, "commit", "-m", message)
	if code != 0 {
		return &Error{Subcommand: "commit", ExitCode: code, Diagnostic: diag}
	}
	return nil
}

// Push runs `git push`. Rejection (non-fast-forward) is a normal
// outcome, not an error: it reports ok=false with diagnostics instead
// of raising.
func (d *Driver) Push() (ok bool, diag string) {
	code, diag := d.run(d.Root, "push")
	return code == 0, diag
}

// PullRebase runs `git pull --rebase`. Like Push, it never raises;
// rebase failure (another client's commit conflicts) is reported as
// ok=false.
func (d *Driver) PullRebase() (ok bool, diag string) {
	code, diag := d.run(d.Root, "pull", "--rebase")
	return code == 0, diag
}

// RemoveScratch deletes the scratch clone's parent directory. Callers
// SHOULD call this on every exit path (spec §5); it is not required for
// correctness. A failed Clone has already removed its scratch directory.
func (d *Driver) RemoveScratch() error {
	if d.Root == "" {
		return nil
	}
	return os.RemoveAll(filepath.Dir(d.Root))
}
