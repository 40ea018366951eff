package hostenv

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/morezero/tpp-host/pkg/dispatcher"
)

const currentDirTestPrefix = "hostenv:currentdir_test"

func fakeEnv() Env {
	return Env{
		Getwd:        func() (string, error) { return "/tmp/app", nil },
		Executable:   func() (string, error) { return "/opt/tpp/bin/tpp-host", nil },
		EvalSymlinks: func(p string) (string, error) { return p, nil },
	}
}

func dispatchWith(t *testing.T, mode string, env Env, args dispatcher.Value) dispatcher.Outcome {
	t.Helper()
	regs, err := Registrations(mode, env)
	if err != nil {
		t.Fatalf("%s - Registrations: %v", currentDirTestPrefix, err)
	}
	disp, err := dispatcher.New(regs...)
	if err != nil {
		t.Fatalf("%s - dispatcher.New: %v", currentDirTestPrefix, err)
	}
	return disp.Dispatch(context.Background(), dispatcher.Invocation{Name: "getCurrentDirectory", Arguments: args})
}

func TestCurrentDirectory_Modes(t *testing.T) {
	tests := []struct {
		mode string
		want dispatcher.Outcome
	}{
		{ModeWorkdir, dispatcher.Success("/tmp/app")},
		{ModeExecutable, dispatcher.Success("/opt/tpp/bin")},
		{ModeLegacy, dispatcher.Success("Not Implemented")},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got := dispatchWith(t, tt.mode, fakeEnv(), nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%s - outcome mismatch (-want +got):\n%s", currentDirTestPrefix, diff)
			}
		})
	}
}

func TestCurrentDirectory_ExecutableResolvesSymlinks(t *testing.T) {
	env := fakeEnv()
	env.Executable = func() (string, error) { return "/usr/local/bin/tpp-host", nil }
	env.EvalSymlinks = func(string) (string, error) { return "/opt/tpp/1.0/tpp-host", nil }

	got := dispatchWith(t, ModeExecutable, env, nil)
	if diff := cmp.Diff(dispatcher.Success("/opt/tpp/1.0"), got); diff != "" {
		t.Errorf("%s - outcome mismatch (-want +got):\n%s", currentDirTestPrefix, diff)
	}

	env.EvalSymlinks = func(p string) (string, error) { return "", errors.New("loop") }
	got = dispatchWith(t, ModeExecutable, env, nil)
	if diff := cmp.Diff(dispatcher.Success("/usr/local/bin"), got); diff != "" {
		t.Errorf("%s - unresolved symlink should fall back (-want +got):\n%s", currentDirTestPrefix, diff)
	}
}

func TestCurrentDirectory_OSErrorBecomesFailure(t *testing.T) {
	osErr := &fs.PathError{Op: "getwd", Path: ".", Err: syscall.EACCES}

	tests := []struct {
		name string
		mode string
		env  func(Env) Env
	}{
		{"getwd denied", ModeWorkdir, func(e Env) Env {
			e.Getwd = func() (string, error) { return "", osErr }
			return e
		}},
		{"executable denied", ModeExecutable, func(e Env) Env {
			e.Executable = func() (string, error) { return "", osErr }
			return e
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dispatchWith(t, tt.mode, tt.env(fakeEnv()), nil)
			want := dispatcher.Failure(dispatcher.CodeOSError, osErr.Error(), nil)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%s - outcome mismatch (-want +got):\n%s", currentDirTestPrefix, diff)
			}
		})
	}
}

func TestCurrentDirectory_RejectsArguments(t *testing.T) {
	got := dispatchWith(t, ModeWorkdir, fakeEnv(), map[string]any{"path": "/"})
	if got.Kind != dispatcher.KindFailure || got.Failure.Code != dispatcher.CodeInvalidArgument {
		t.Errorf("%s - got %+v, want INVALID_ARGUMENT failure", currentDirTestPrefix, got)
	}
}

func TestCurrentDirectory_UnknownMode(t *testing.T) {
	if _, err := CurrentDirectory("cwd", fakeEnv()); err == nil {
		t.Errorf("%s - expected error for unknown mode", currentDirTestPrefix)
	}
	if _, err := Registrations("", fakeEnv()); err == nil {
		t.Errorf("%s - expected error for empty mode", currentDirTestPrefix)
	}
}

func TestCurrentDirectory_RealOS(t *testing.T) {
	want, err := os.Getwd()
	if err != nil {
		t.Skipf("%s - getwd unavailable: %v", currentDirTestPrefix, err)
	}
	got := dispatchWith(t, ModeWorkdir, OSEnv(), nil)
	if diff := cmp.Diff(dispatcher.Success(want), got); diff != "" {
		t.Errorf("%s - outcome mismatch (-want +got):\n%s", currentDirTestPrefix, diff)
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range Modes {
		if !ValidMode(m) {
			t.Errorf("%s - ValidMode(%q) = false", currentDirTestPrefix, m)
		}
	}
	if ValidMode("WORKDIR") {
		t.Errorf("%s - modes are case-sensitive", currentDirTestPrefix)
	}
}
