package lockproto

import (
	"fmt"

	"github.com/wakira/slig/internal/audit"
	"github.com/wakira/slig/internal/config"
)

// ReleaseOptions carries the arguments to Release. Exactly one of
// Token or Force must be set (spec §4.4.3).
type ReleaseOptions struct {
	Token string
	Force bool
}

// Release implements spec §4.4.3.
func (e *Engine) Release(root, name string, opts ReleaseOptions) error {
	if (opts.Token == "") == !opts.Force {
		return fmt.Errorf("release of %q requires exactly one of token or force", name)
	}

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
	if _, exists := entries[name]; !exists {
		return &NotHeldError{Name: name}
	}

	toRemove, releasedReaderFile, err := e.filesToRemove(entries, name, kind, opts)
	if err != nil {
		return err
	}

	for _, f := range toRemove {
		if err := e.Remote.UnstageDelete(f); err != nil {
			return err
		}
	}

	message := fmt.Sprintf("release lock: %s", name)
	if releasedReaderFile != "" {
		message = fmt.Sprintf("release read lock: %s in uuid: %s", releasedReaderFile, opts.Token)
	}
	if err := e.Remote.Commit(message); err != nil {
		return err
	}

	if sync(e.Remote) != syncSuccess {
		e.emit(audit.EventConflict, name, string(kind))
		return &ReleaseConflictError{Name: name}
	}

	e.emit(audit.EventRelease, name, string(kind))
	return nil
}

// filesToRemove determines which files a release call removes (spec
// §4.4.3 step 3), and, when releasing a single reader, which reader
// file that was (for the commit message, spec §6.6).
func (e *Engine) filesToRemove(entries map[string]struct{}, name string, kind config.Kind, opts ReleaseOptions) (files []string, releasedReaderFile string, err error) {
	if opts.Force {
		if kind == config.KindReadWrite {
			return nil, "", &ForceReleaseAmbiguousError{Name: name}
		}
		return []string{name}, "", nil
	}

	first, err := e.FS.FirstLine(name)
	if err != nil {
		return nil, "", err
	}

	if first == readMarker {
		readerFile := name + ".read." + opts.Token
		if _, exists := entries[readerFile]; !exists {
			return nil, "", &NotHeldByTokenError{Name: name, Token: opts.Token}
		}
		files = []string{readerFile}
		if remaining := readerFiles(entries, name); len(remaining) == 1 {
			files = append(files, name)
		}
		return files, readerFile, nil
	}

	if first != opts.Token {
		return nil, "", &NotHeldByTokenError{Name: name, Token: opts.Token}
	}
	return []string{name}, "", nil
}
