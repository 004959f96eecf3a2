// Package config reads and writes the repository configuration file
// (slig.ini) that declares lock names and their kinds.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// FileName is the well-known configuration file name at the repository root.
const FileName = "slig.ini"

// CurrentVersion is written to the metadata section of new configuration files.
const CurrentVersion = "1.0"

// Kind is one of the two supported lock kinds.
type Kind string

const (
	KindSimple    Kind = "simple"
	KindReadWrite Kind = "readwrite"
)

// ParseKind validates a kind string read from the configuration file.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSimple, KindReadWrite:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown lock kind %q", s)
	}
}

// ErrInvalidName is returned when a lock name fails validation.
var ErrInvalidName = errors.New("invalid lock name")

// ValidateName checks that a lock name is a non-empty string containing no
// path separators and not the reserved substring ".read.".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: must not contain path separators", ErrInvalidName)
	}
	if strings.Contains(name, ".read.") {
		return fmt.Errorf("%w: must not contain the reserved substring \".read.\"", ErrInvalidName)
	}
	return nil
}

// Config is the in-memory form of slig.ini: the set of declared locks and
// their kinds, plus the metadata section.
type Config struct {
	Locks   map[string]Kind
	Version string
}

// New returns an empty configuration, as written by Initialize.
func New() *Config {
	return &Config{Locks: map[string]Kind{}, Version: CurrentVersion}
}

// Path returns the absolute path to slig.ini under root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads and parses slig.ini from root. A malformed file or an unknown
// lock kind is a fatal error for the caller — there is no silent recovery.
func Load(root string) (*Config, error) {
	path := Path(root)
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", FileName, err)
	}

	cfg := &Config{Locks: map[string]Kind{}}
	for _, key := range file.Section("locks").Keys() {
		kind, err := ParseKind(key.Value())
		if err != nil {
			return nil, fmt.Errorf("%s: lock %q: %w", FileName, key.Name(), err)
		}
		cfg.Locks[key.Name()] = kind
	}
	cfg.Version = file.Section("metadata").Key("version").MustString(CurrentVersion)
	return cfg, nil
}

// Save writes cfg to slig.ini under root, overwriting any existing file.
func Save(root string, cfg *Config) error {
	file := ini.Empty()

	locks, err := file.NewSection("locks")
	if err != nil {
		return err
	}
	for name, kind := range cfg.Locks {
		if _, err := locks.NewKey(name, string(kind)); err != nil {
			return err
		}
	}

	meta, err := file.NewSection("metadata")
	if err != nil {
		return err
	}
	version := cfg.Version
	if version == "" {
		version = CurrentVersion
	}
	if _, err := meta.NewKey("version", version); err != nil {
		return err
	}

	return file.SaveTo(Path(root))
}
