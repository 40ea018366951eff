package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/morezero/tpp-host/internal/config"
	"github.com/morezero/tpp-host/pkg/dispatcher"
	"github.com/morezero/tpp-host/pkg/semver"
)

const mainTestPrefix = "cmd/tpp-host:main_test"

func TestUsage_ContainsCommands(t *testing.T) {
	required := []string{"serve", "call", "manifest", "COMMS_URL", "CURRENT_DIRECTORY_MODE"}
	for _, word := range required {
		if !strings.Contains(usage, word) {
			t.Errorf("%s - usage should contain %q", mainTestPrefix, word)
		}
	}
}

func TestParseCallArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantRange string
		wantArgs  dispatcher.Value
		wantErr   bool
	}{
		{"no args", []string{"tpp", "getCurrentDirectory"}, "", nil, false},
		{"with range", []string{"tpp@^1.0.0", "getCurrentDirectory"}, "^1.0.0", nil, false},
		{"json args", []string{"tpp@1", "echo", `{"a":[1,"b"]}`}, "1", map[string]any{"a": []any{1.0, "b"}}, false},
		{"missing method", []string{"tpp"}, "", nil, true},
		{"empty method", []string{"tpp", ""}, "", nil, true},
		{"bad channel", []string{"1tpp", "m"}, "", nil, true},
		{"bad json", []string{"tpp", "m", "{"}, "", nil, true},
		{"too many", []string{"tpp", "m", "null", "extra"}, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseCallArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("%s - expected error", mainTestPrefix)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
			}
			if req.ref.Range != tt.wantRange {
				t.Errorf("%s - Range = %q, want %q", mainTestPrefix, req.ref.Range, tt.wantRange)
			}
			if diff := cmp.Diff(tt.wantArgs, req.args); diff != "" {
				t.Errorf("%s - args (-want +got):\n%s", mainTestPrefix, diff)
			}
		})
	}
}

func TestCallSubject(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		ref  string
		want string
	}{
		{"major only", config.Config{SubjectPrefix: "channel"}, "tpp@2", "channel.tpp.v2"},
		{"caret", config.Config{SubjectPrefix: "channel"}, "tpp@^3.1.0", "channel.tpp.v3"},
		{"no range uses manifest", config.Config{SubjectPrefix: "channel"}, "tpp", "channel.tpp.v1"},
		{"override", config.Config{ChannelSubject: "custom.tpp"}, "tpp@9", "custom.tpp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := semver.ParseChannelRef(tt.ref)
			if err != nil {
				t.Fatalf("%s - ParseChannelRef: %v", mainTestPrefix, err)
			}
			got, err := callSubject(&tt.cfg, ref)
			if err != nil {
				t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
			}
			if got != tt.want {
				t.Errorf("%s - subject = %q, want %q", mainTestPrefix, got, tt.want)
			}
		})
	}
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name       string
		outcome    dispatcher.Outcome
		wantStatus string
		wantErr    bool
	}{
		{"success", dispatcher.Success("/tmp/app"), `"status": "success"`, false},
		{"unsupported", dispatcher.Unsupported(), `"status": "notImplemented"`, true},
		{"failure", dispatcher.Failure(dispatcher.CodeOSError, "permission denied", nil), `"code": "OS_ERROR"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printOutcome(&buf, tt.outcome)
			if (err != nil) != tt.wantErr {
				t.Errorf("%s - err = %v, wantErr %v", mainTestPrefix, err, tt.wantErr)
			}
			if !strings.Contains(buf.String(), tt.wantStatus) {
				t.Errorf("%s - output %q should contain %q", mainTestPrefix, buf.String(), tt.wantStatus)
			}
		})
	}
}

func TestRunManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channel.json")
	if err := os.WriteFile(path, []byte(`{"name":"tpp","version":"1.4.0"}`), 0o644); err != nil {
		t.Fatalf("%s - write: %v", mainTestPrefix, err)
	}

	var buf bytes.Buffer
	if err := runManifest(path, &buf); err != nil {
		t.Fatalf("%s - runManifest: %v", mainTestPrefix, err)
	}
	out := buf.String()
	for _, want := range []string{"name: tpp", "version: 1.4.0", "getCurrentDirectory:"} {
		if !strings.Contains(out, want) {
			t.Errorf("%s - output should contain %q:\n%s", mainTestPrefix, want, out)
		}
	}
}
