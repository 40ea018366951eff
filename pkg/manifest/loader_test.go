package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("manifest:loader_test - write %s: %v", p, err)
	}
	return p
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()

	if m.Name != "tpp" {
		t.Errorf("expected name tpp, got %s", m.Name)
	}
	if m.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", m.Version)
	}
	if _, ok := m.Methods[MethodGetCurrentDirectory]; !ok {
		t.Fatalf("expected %s in default manifest", MethodGetCurrentDirectory)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("default manifest should validate: %v", err)
	}
}

func TestLoadManifest_YAML(t *testing.T) {
	t.Setenv("CHANNEL_MANIFEST_FILE", "")
	dir := t.TempDir()
	p := writeFile(t, dir, "channel.yaml", `
name: tpp
version: 1.3.0
methods:
  getVersion:
    description: Host version
    tags: [host]
`)

	m, err := LoadManifest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Version != "1.3.0" {
		t.Errorf("expected version 1.3.0, got %s", m.Version)
	}
	if diff := cmp.Diff([]string{"getCurrentDirectory", "getVersion"}, m.MethodNames()); diff != "" {
		t.Errorf("MethodNames mismatch (-want +got):\n%s", diff)
	}
	if m.Description != "Host environment channel" {
		t.Errorf("expected default description to survive merge, got %q", m.Description)
	}
}

func TestLoadManifest_JSON(t *testing.T) {
	t.Setenv("CHANNEL_MANIFEST_FILE", "")
	dir := t.TempDir()
	p := writeFile(t, dir, "channel.json", `{"name": "tpp.desktop", "version": "2.0.0", "methods": {}}`)

	m, err := LoadManifest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "tpp.desktop" || m.Version != "2.0.0" {
		t.Errorf("unexpected manifest %+v", m)
	}
}

func TestLoadManifest_EnvPath(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "env.yaml", "version: 1.1.0\n")
	t.Setenv("CHANNEL_MANIFEST_FILE", p)

	m, err := LoadManifest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Version != "1.1.0" {
		t.Errorf("expected version from env file, got %s", m.Version)
	}
}

func TestLoadManifest_FallsBackToDefault(t *testing.T) {
	t.Setenv("CHANNEL_MANIFEST_FILE", "")
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "name: [unterminated\n")

	m, err := LoadManifest(filepath.Join(dir, "missing.yaml"), bad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(DefaultManifest(), m); diff != "" {
		t.Errorf("expected default manifest (-want +got):\n%s", diff)
	}
}

func TestLoadManifest_InvalidVersion(t *testing.T) {
	t.Setenv("CHANNEL_MANIFEST_FILE", "")
	dir := t.TempDir()
	p := writeFile(t, dir, "channel.yaml", "version: banana\n")

	_, err := LoadManifest(p)
	if err == nil || !strings.Contains(err.Error(), "banana") {
		t.Fatalf("expected invalid version error, got %v", err)
	}
}

func TestUnhandled(t *testing.T) {
	m := &ChannelManifest{Methods: map[string]MethodMetadata{
		"getCurrentDirectory": {},
		"getVersion":          {},
		"openFile":            {},
	}}

	got := m.Unhandled([]string{"getCurrentDirectory"})
	if diff := cmp.Diff([]string{"getVersion", "openFile"}, got); diff != "" {
		t.Errorf("Unhandled mismatch (-want +got):\n%s", diff)
	}
	if got := m.Unhandled(m.MethodNames()); len(got) != 0 {
		t.Errorf("expected nothing unhandled, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultManifest()
	override := &ChannelManifest{
		Version: "1.2.0",
		Methods: map[string]MethodMetadata{
			MethodGetCurrentDirectory: {Description: "overridden"},
		},
	}

	merged := Merge(base, override)
	if merged.Name != "tpp" {
		t.Errorf("expected base name, got %s", merged.Name)
	}
	if merged.Version != "1.2.0" {
		t.Errorf("expected override version, got %s", merged.Version)
	}
	if merged.Methods[MethodGetCurrentDirectory].Description != "overridden" {
		t.Errorf("expected overridden method metadata")
	}
	if base.Methods[MethodGetCurrentDirectory].Description == "overridden" {
		t.Errorf("Merge must not mutate base")
	}
}
