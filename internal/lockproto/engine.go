// Package lockproto implements the Lock Protocol Engine: declare,
// remove, acquire, and release for simple and readwrite locks, encoding
// lock state as files in a git working copy and using the Remote
// Driver's push-or-rebase semantics (sync, in sync.go) to turn a
// rejected push into mutual exclusion between independent clients.
package lockproto

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wakira/slig/internal/audit"
	"github.com/wakira/slig/internal/config"
)

// Mode selects which side of a readwrite lock an acquire targets. It is
// required iff the declared kind is readwrite, and is ignored for
// simple locks (spec §4.4.2).
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// Remote is the subset of the Remote Driver (internal/gitremote) the
// engine depends on. Defined here, not in gitremote, so engine tests can
// substitute an in-memory fake instead of exec-ing a real git binary —
// the same "operate against a real temp directory instead of mocking
// the OS" economy the teacher applies to filesystem state, flipped for
// the one dependency (a subprocess) that a unit test genuinely should
// not pay for.
type Remote interface {
	Stage(path string) error
	UnstageDelete(path string) error
	Commit(message string) error
	Push() (ok bool, diag string)
	PullRebase() (ok bool, diag string)
}

// FS is the subset of the Working Copy (internal/workspace) the engine
// depends on.
type FS interface {
	Exists(name string) bool
	FirstLine(name string) (string, error)
	WriteFile(name, content string) error
	Remove(name string) error
	List() (map[string]struct{}, error)
}

// MaxSyncRetries bounds the Sync protocol's pull-rebase-then-push retry
// loop (spec §4.4.4). A package variable, not a constant, per spec §9's
// "implementers MAY expose it."
var MaxSyncRetries = 3

// NewTokenFn generates a holder token. Overridable in tests so expected
// tokens are deterministic; defaults to a random UUID (I4: 128-bit
// random identifiers).
var NewTokenFn = func() string { return uuid.New().String() }

// Engine implements the protocol operations of spec §4.4 against one
// already-cloned working copy.
type Engine struct {
	Remote Remote
	FS     FS
	Audit  *audit.Writer
}

// New returns an Engine bound to remote and fs. auditWriter may be nil.
func New(remote Remote, fs FS, auditWriter *audit.Writer) *Engine {
	return &Engine{Remote: remote, FS: fs, Audit: auditWriter}
}

// Initialize creates slig.ini with an empty locks section, stages,
// commits, and pushes it (spec §4.4.1). It resolves the spec's open
// question about detecting a pre-existing configuration as a SHOULD:
// Exists is checked before any write, failing fast with
// ErrAlreadyInitialized rather than relying on the remote to reject a
// non-fast-forward push.
func (e *Engine) Initialize(root string) error {
	if e.FS.Exists(config.FileName) {
		return ErrAlreadyInitialized
	}

	cfg := config.New()
	if err := e.saveAndStage(root, cfg); err != nil {
		return err
	}
	if err := e.Remote.Commit("initialize slig repository"); err != nil {
		return err
	}
	if ok, _ := e.Remote.Push(); !ok {
		return &RemoteConflictError{Name: config.FileName, Op: "initialize"}
	}
	return nil
}

// Declare records a new (name, kind) pair (spec §4.4.1). It uses a
// single push attempt with no retry loop: declarations are low-
// contention administrative events, not protocol-critical races.
func (e *Engine) Declare(root, name string, kind config.Kind) error {
	if err := config.ValidateName(name); err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if _, exists := cfg.Locks[name]; exists {
		return &AlreadyDeclaredError{Name: name}
	}
	cfg.Locks[name] = kind

	if err := e.saveAndStage(root, cfg); err != nil {
		return err
	}
	if err := e.Remote.Commit(fmt.Sprintf("add %s lock: %s", kind, name)); err != nil {
		return err
	}
	if ok, _ := e.Remote.Push(); !ok {
		e.emit(audit.EventConflict, name, string(kind))
		return &RemoteConflictError{Name: name, Op: "declare"}
	}
	e.emit(audit.EventDeclare, name, string(kind))
	return nil
}

// Remove deletes a declaration, failing if the lock is currently held
// (spec §4.4.1).
func (e *Engine) Remove(root, name string) error {
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	kind, declared := cfg.Locks[name]
	if !declared {
		return &NoSuchLockError{Name: name}
	}

	entries, err := e.FS.List()
	if err != nil {
		return err
	}
	if lockFilesPresent(entries, name) {
		return &InUseError{Name: name}
	}

	delete(cfg.Locks, name)
	if err := e.saveAndStage(root, cfg); err != nil {
		return err
	}
	if err := e.Remote.Commit(fmt.Sprintf("remove lock: %s", name)); err != nil {
		return err
	}
	if ok, _ := e.Remote.Push(); !ok {
		e.emit(audit.EventConflict, name, string(kind))
		return &RemoteConflictError{Name: name, Op: "remove"}
	}
	e.emit(audit.EventRemove, name, string(kind))
	return nil
}

func (e *Engine) saveAndStage(root string, cfg *config.Config) error {
	if err := config.Save(root, cfg); err != nil {
		return err
	}
	return e.Remote.Stage(config.FileName)
}

func (e *Engine) emit(event, name, kind string) {
	if e.Audit != nil {
		e.Audit.Emit(event, name, kind)
	}
}

// readerFilePrefix returns the prefix shared by every reader file of
// name: "<name>.read.".
func readerFilePrefix(name string) string {
	return name + ".read."
}

// lockFilesPresent reports whether any file matching {name} ∪
// {name.read.*} is present in entries (I1's "zero files match" set).
func lockFilesPresent(entries map[string]struct{}, name string) bool {
	if _, ok := entries[name]; ok {
		return true
	}
	prefix := readerFilePrefix(name)
	for entry := range entries {
		if len(entry) > len(prefix) && entry[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// readerFiles returns the set of reader-file basenames for name present
// in entries.
func readerFiles(entries map[string]struct{}, name string) []string {
	prefix := readerFilePrefix(name)
	var out []string
	for entry := range entries {
		if len(entry) > len(prefix) && entry[:len(prefix)] == prefix {
			out = append(out, entry)
		}
	}
	return out
}
