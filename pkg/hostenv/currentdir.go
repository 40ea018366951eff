// Package hostenv implements channel commands that report on the host process environment.
package hostenv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/morezero/tpp-host/pkg/dispatcher"
	"github.com/morezero/tpp-host/pkg/manifest"
)

const logPrefix = "hostenv:currentdir"

// Directory modes for getCurrentDirectory.
const (
	ModeWorkdir    = "workdir"
	ModeExecutable = "executable"
	ModeLegacy     = "legacy"
)

// LegacyPlaceholder is the literal the legacy mode answers with.
const LegacyPlaceholder = "Not Implemented"

// Modes lists every accepted directory mode.
var Modes = []string{ModeWorkdir, ModeExecutable, ModeLegacy}

// ValidMode reports whether mode is one of Modes.
func ValidMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Env abstracts the OS calls the handler needs.
type Env struct {
	Getwd        func() (string, error)
	Executable   func() (string, error)
	EvalSymlinks func(string) (string, error)
}

// OSEnv returns an Env backed by the real operating system.
func OSEnv() Env {
	return Env{
		Getwd:        os.Getwd,
		Executable:   os.Executable,
		EvalSymlinks: filepath.EvalSymlinks,
	}
}

// CurrentDirectory returns the getCurrentDirectory handler for mode.
// OS failures surface as OS_ERROR failures; any non-null argument is rejected.
func CurrentDirectory(mode string, env Env) (dispatcher.Handler, error) {
	if !ValidMode(mode) {
		return nil, fmt.Errorf("%s - unknown directory mode %q", logPrefix, mode)
	}

	resolve := func() (string, error) {
		switch mode {
		case ModeExecutable:
			return executableDir(env)
		case ModeLegacy:
			return LegacyPlaceholder, nil
		default:
			return env.Getwd()
		}
	}

	return dispatcher.Func(func(_ context.Context, args dispatcher.Value) (dispatcher.Value, error) {
		if args != nil {
			return nil, dispatcher.NewCommandError(dispatcher.CodeInvalidArgument,
				fmt.Sprintf("%s takes no arguments", manifest.MethodGetCurrentDirectory))
		}
		dir, err := resolve()
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - %s mode failed: %v", logPrefix, mode, err))
			return nil, err
		}
		return dir, nil
	}), nil
}

func executableDir(env Env) (string, error) {
	exe, err := env.Executable()
	if err != nil {
		return "", err
	}
	if env.EvalSymlinks != nil {
		if resolved, err := env.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
	}
	return filepath.Dir(exe), nil
}

// Registrations returns the host environment commands for the dispatcher.
func Registrations(mode string, env Env) ([]dispatcher.Registration, error) {
	cwd, err := CurrentDirectory(mode, env)
	if err != nil {
		return nil, err
	}
	return []dispatcher.Registration{
		{Name: manifest.MethodGetCurrentDirectory, Handler: cwd},
	}, nil
}
