// Command slig is the front-end to the lock protocol engine: it parses
// one invocation, clones a fresh scratch working copy of the shared
// remote, runs exactly one operation, and terminates (spec §2, §6.5).
// There is no long-lived daemon state; every invocation starts cold.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/shlex"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/wakira/slig/internal/audit"
	"github.com/wakira/slig/internal/config"
	"github.com/wakira/slig/internal/gitremote"
	"github.com/wakira/slig/internal/lockproto"
	"github.com/wakira/slig/internal/logging"
	"github.com/wakira/slig/internal/workspace"
)

// Exit codes. 0/ExitOK and non-zero satisfy spec §6.5's "0 on success,
// non-zero on any engine error"; the rest add a distinct code per error
// class, the same precision lokt/cmd/lokt/main.go applies on top of
// its own "non-zero on failure" contract.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitBusy           = 2
	ExitNotFound       = 3
	ExitNotOwner       = 4
	ExitInUse          = 5
	ExitForceAmbiguous = 6
	ExitConflict       = 7
	ExitUsage          = 64
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return ExitUsage
	}

	debug := os.Getenv("SLIG_DEBUG") != ""
	log, err := logging.New(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot build logger: %v\n", err)
		return ExitError
	}
	defer func() { _ = log.Sync() }()

	switch args[0] {
	case "repo":
		return cmdRepo(args[1:], log)
	case "locks":
		return cmdLocks(args[1:], log)
	case "acquire":
		return cmdAcquire(args[1:], log)
	case "release":
		return cmdRelease(args[1:], log)
	case "help", "-h", "--help":
		usage()
		return ExitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		usage()
		return ExitUsage
	}
}

func usage() {
	fmt.Println("slig - distributed named locks backed by a shared git remote")
	fmt.Println()
	fmt.Println("Usage: slig <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  repo init                           Initialize the remote repository")
	fmt.Println("  locks add <name> [--simple|--readwrite]   Declare a lock (default: --simple)")
	fmt.Println("  locks delete <name>                 Remove a lock declaration")
	fmt.Println("  acquire <name> [-c COMMENT] [--read|--write]   Acquire a lock")
	fmt.Println("  release <name> -u TOKEN | -f         Release a lock")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  SLIG_GIT_REPO      remote URL (required)")
	fmt.Println("  SLIG_GIT_OPTIONS   pass-through git options (shell-quoted)")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  success")
	fmt.Println("  1  general error")
	fmt.Println("  2  lock busy")
	fmt.Println("  3  lock or declaration not found")
	fmt.Println("  4  wrong holder token")
	fmt.Println("  5  lock in use (declaration removal blocked), or repository already initialized")
	fmt.Println("  6  force-release refused (ambiguous on readwrite)")
	fmt.Println("  7  remote conflict")
	fmt.Println("  64 usage error")
}

// envRemote reads SLIG_GIT_REPO, fatal per spec §6.4 if absent.
func envRemote() (string, error) {
	remote := os.Getenv("SLIG_GIT_REPO")
	if remote == "" {
		return "", errors.New("SLIG_GIT_REPO is not specified")
	}
	return remote, nil
}

// envGitOptions shell-splits SLIG_GIT_OPTIONS per spec §6.4.
func envGitOptions() ([]string, error) {
	raw := os.Getenv("SLIG_GIT_OPTIONS")
	if raw == "" {
		return nil, nil
	}
	return shlex.Split(raw)
}

// openClone reads the environment, clones a fresh scratch working copy,
// and wires a Remote Driver + Working Copy + Lock Protocol Engine
// against it. The caller is responsible for invoking the returned
// cleanup func on every exit path (spec §5).
func openClone(log *zap.Logger) (*lockproto.Engine, string, func(), error) {
	remote, err := envRemote()
	if err != nil {
		return nil, "", func() {}, err
	}
	opts, err := envGitOptions()
	if err != nil {
		return nil, "", func() {}, fmt.Errorf("parse SLIG_GIT_OPTIONS: %w", err)
	}

	driver := gitremote.New("git", opts)
	diag := &zapio.Writer{Log: log, Level: zap.DebugLevel}
	driver.Diag = diag
	root, err := driver.Clone(remote)
	if err != nil {
		return nil, "", func() { _ = diag.Close() }, err
	}
	cleanup := func() {
		_ = diag.Close()
		_ = driver.RemoveScratch()
	}

	ws := workspace.New(root)
	auditor := audit.NewWriter(log)
	engine := lockproto.New(driver, ws, auditor)
	return engine, root, cleanup, nil
}

func cmdRepo(args []string, log *zap.Logger) int {
	if len(args) < 1 || args[0] != "init" {
		fmt.Fprintln(os.Stderr, "usage: slig repo init")
		return ExitUsage
	}

	engine, root, cleanup, err := openClone(log)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitError
	}

	if err := engine.Initialize(root); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, lockproto.ErrAlreadyInitialized) {
			return ExitInUse
		}
		if errors.Is(err, lockproto.ErrRemoteConflict) {
			return ExitConflict
		}
		return ExitError
	}

	fmt.Println("initialized slig repository")
	return ExitOK
}

func cmdLocks(args []string, log *zap.Logger) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: slig locks add|delete <name> [flags]")
		return ExitUsage
	}

	switch args[0] {
	case "add":
		return cmdLocksAdd(args[1:], log)
	case "delete":
		return cmdLocksDelete(args[1:], log)
	default:
		fmt.Fprintf(os.Stderr, "unknown locks subcommand: %s\n", args[0])
		return ExitUsage
	}
}

func cmdLocksAdd(args []string, log *zap.Logger) int {
	fs := flag.NewFlagSet("locks add", flag.ContinueOnError)
	simple := fs.Bool("simple", false, "declare a simple mutex lock (default)")
	readwrite := fs.Bool("readwrite", false, "declare a readwrite lock")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: slig locks add <name> [--simple|--readwrite]")
		return ExitUsage
	}
	if *simple && *readwrite {
		fmt.Fprintln(os.Stderr, "error: --simple and --readwrite are mutually exclusive")
		return ExitUsage
	}
	kind := config.KindSimple
	if *readwrite {
		kind = config.KindReadWrite
	}
	name := fs.Arg(0)

	engine, root, cleanup, err := openClone(log)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitError
	}

	if err := engine.Declare(root, name, kind); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitForDeclareOrRemove(err)
	}
	fmt.Printf("declared %s lock: %s\n", kind, name)
	return ExitOK
}

func cmdLocksDelete(args []string, log *zap.Logger) int {
	fs := flag.NewFlagSet("locks delete", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: slig locks delete <name>")
		return ExitUsage
	}
	name := fs.Arg(0)

	engine, root, cleanup, err := openClone(log)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitError
	}

	if err := engine.Remove(root, name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitForDeclareOrRemove(err)
	}
	fmt.Printf("removed lock: %s\n", name)
	return ExitOK
}

func exitForDeclareOrRemove(err error) int {
	switch {
	case errors.Is(err, lockproto.ErrNoSuchLock):
		return ExitNotFound
	case errors.Is(err, lockproto.ErrLockAlreadyDeclared):
		return ExitError
	case errors.Is(err, lockproto.ErrLockInUse):
		return ExitInUse
	case errors.Is(err, lockproto.ErrRemoteConflict):
		return ExitConflict
	default:
		return ExitError
	}
}

func cmdAcquire(args []string, log *zap.Logger) int {
	fs := flag.NewFlagSet("acquire", flag.ContinueOnError)
	comment := fs.StringP("comment", "c", "", "comment appended to the acquire commit message")
	read := fs.Bool("read", false, "acquire a readwrite lock in reader mode")
	write := fs.Bool("write", false, "acquire a readwrite lock in writer mode")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: slig acquire <name> [-c COMMENT] [--read|--write]")
		return ExitUsage
	}
	if *read && *write {
		fmt.Fprintln(os.Stderr, "error: --read and --write are mutually exclusive")
		return ExitUsage
	}
	name := fs.Arg(0)

	var mode lockproto.Mode
	switch {
	case *read:
		mode = lockproto.ModeRead
	case *write:
		mode = lockproto.ModeWrite
	}

	engine, root, cleanup, err := openClone(log)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitError
	}

	token, err := engine.Acquire(root, name, lockproto.AcquireOptions{Mode: mode, Comment: *comment})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		switch {
		case errors.Is(err, lockproto.ErrNoSuchLock):
			return ExitNotFound
		case errors.Is(err, lockproto.ErrLockBusy):
			return ExitBusy
		default:
			return ExitError
		}
	}

	fmt.Println(token)
	return ExitOK
}

func cmdRelease(args []string, log *zap.Logger) int {
	fs := flag.NewFlagSet("release", flag.ContinueOnError)
	token := fs.StringP("uuid", "u", "", "holder token to release")
	force := fs.BoolP("force", "f", false, "force-release without a token (refused for readwrite locks)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: slig release <name> -u TOKEN | -f")
		return ExitUsage
	}
	if (*token == "") == !*force {
		fmt.Fprintln(os.Stderr, "error: exactly one of -u/--uuid or -f/--force is required")
		return ExitUsage
	}
	name := fs.Arg(0)

	engine, root, cleanup, err := openClone(log)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitError
	}

	err = engine.Release(root, name, lockproto.ReleaseOptions{Token: *token, Force: *force})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		switch {
		case errors.Is(err, lockproto.ErrNoSuchLock):
			return ExitNotFound
		case errors.Is(err, lockproto.ErrLockNotHeld):
			return ExitNotFound
		case errors.Is(err, lockproto.ErrLockNotHeldByToken):
			return ExitNotOwner
		case errors.Is(err, lockproto.ErrForceReleaseAmbiguous):
			return ExitForceAmbiguous
		case errors.Is(err, lockproto.ErrReleaseConflict):
			return ExitConflict
		default:
			return ExitError
		}
	}

	fmt.Printf("released lock: %s\n", name)
	return ExitOK
}
