package lockproto

import (
	"fmt"

	"github.com/wakira/slig/internal/audit"
	"github.com/wakira/slig/internal/config"
)

// readMarker is the literal first-line content of a lock file held in
// reader mode (spec §3).
const readMarker = "READ"

// AcquireOptions carries the optional arguments to Acquire.
type AcquireOptions struct {
	// Mode selects reader or writer acquisition of a readwrite lock.
	// Required iff the declared kind is readwrite; ignored for simple.
	Mode Mode
	// Comment is appended to the commit message body when non-empty.
	Comment string
}

// Acquire implements spec §4.4.2. On success it returns the freshly
// generated holder token.
func (e *Engine) Acquire(root, name string, opts AcquireOptions) (string, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return "", err
	}
	kind, declared := cfg.Locks[name]
	if !declared {
		return "", &NoSuchLockError{Name: name}
	}
	if kind == config.KindSimple {
		opts.Mode = ""
	} else if opts.Mode != ModeRead && opts.Mode != ModeWrite {
		return "", fmt.Errorf("lock %q is readwrite: mode must be %q or %q", name, ModeRead, ModeWrite)
	}

	entries, err := e.FS.List()
	if err != nil {
		return "", err
	}
	if busy, err := e.localBusyCheck(entries, name, kind, opts.Mode); err != nil {
		return "", err
	} else if busy {
		return "", &BusyError{Name: name, Mode: opts.Mode}
	}

	token := NewTokenFn()
	if err := e.writeAcquireFiles(name, token, kind, opts.Mode); err != nil {
		return "", err
	}

	message := fmt.Sprintf("acquire lock: %s", name)
	if opts.Comment != "" {
		message += "\n\n" + opts.Comment
	}
	if err := e.Remote.Commit(message); err != nil {
		return "", err
	}

	if sync(e.Remote) != syncSuccess {
		e.emit(audit.EventDeny, name, string(kind))
		return "", &BusyError{Name: name, Mode: opts.Mode}
	}

	e.emit(audit.EventAcquire, name, string(kind))
	return token, nil
}

// localBusyCheck is the fast-path rejection of spec §4.4.2 step 2. It
// is not authoritative: the real exclusion comes from Sync observing
// that the remote already carries an incompatible commit.
func (e *Engine) localBusyCheck(entries map[string]struct{}, name string, kind config.Kind, mode Mode) (bool, error) {
	switch kind {
	case config.KindSimple:
		_, exists := entries[name]
		return exists, nil

	case config.KindReadWrite:
		switch mode {
		case ModeRead:
			if _, exists := entries[name]; exists {
				first, err := e.FS.FirstLine(name)
				if err != nil {
					return false, err
				}
				return first != readMarker, nil
			}
			return false, nil
		case ModeWrite:
			if _, exists := entries[name]; exists {
				return true, nil
			}
			return len(readerFiles(entries, name)) > 0, nil
		}
	}
	return false, nil
}

// writeAcquireFiles writes and stages the lock files for the given
// mode (spec §4.4.2 step 4).
func (e *Engine) writeAcquireFiles(name, token string, kind config.Kind, mode Mode) error {
	if kind == config.KindSimple || mode == ModeWrite {
		if err := e.FS.WriteFile(name, token); err != nil {
			return err
		}
		return e.Remote.Stage(name)
	}

	readerFile := name + ".read." + token
	if err := e.FS.WriteFile(readerFile, token); err != nil {
		return err
	}
	if err := e.FS.WriteFile(name, readMarker); err != nil {
		return err
	}
	if err := e.Remote.Stage(readerFile); err != nil {
		return err
	}
	return e.Remote.Stage(name)
}
