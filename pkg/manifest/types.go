// Package manifest describes a command channel: its name, version and per-method metadata.
package manifest

import (
	"fmt"
	"sort"

	"github.com/morezero/tpp-host/pkg/semver"
)

// MethodMetadata holds optional per-method documentation.
type MethodMetadata struct {
	Description  string                 `yaml:"description,omitempty" json:"description,omitempty"`
	InputSchema  map[string]interface{} `yaml:"inputSchema,omitempty" json:"inputSchema,omitempty"`
	OutputSchema map[string]interface{} `yaml:"outputSchema,omitempty" json:"outputSchema,omitempty"`
	Tags         []string               `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// ChannelManifest is the root channel description.
type ChannelManifest struct {
	Name        string                    `yaml:"name" json:"name"`
	Version     string                    `yaml:"version" json:"version"`
	Description string                    `yaml:"description,omitempty" json:"description,omitempty"`
	Methods     map[string]MethodMetadata `yaml:"methods" json:"methods"`
}

// Validate checks that the manifest names a channel and carries a semantic version.
func (m *ChannelManifest) Validate() error {
	if !semver.ValidateChannelName(m.Name) {
		return fmt.Errorf("%s - invalid channel name %q", logPrefix, m.Name)
	}
	if err := semver.ValidateVersion(m.Version); err != nil {
		return fmt.Errorf("%s - channel %s: %w", logPrefix, m.Name, err)
	}
	return nil
}

// MethodNames returns the declared method names in sorted order.
func (m *ChannelManifest) MethodNames() []string {
	names := make([]string, 0, len(m.Methods))
	for name := range m.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unhandled returns declared methods that are missing from handled, sorted.
func (m *ChannelManifest) Unhandled(handled []string) []string {
	set := make(map[string]struct{}, len(handled))
	for _, h := range handled {
		set[h] = struct{}{}
	}
	var missing []string
	for _, name := range m.MethodNames() {
		if _, ok := set[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Merge overlays override onto base. Empty scalar fields in override keep
// the base value; methods are merged by name.
func Merge(base, override *ChannelManifest) *ChannelManifest {
	merged := *base
	merged.Methods = make(map[string]MethodMetadata, len(base.Methods)+len(override.Methods))
	for name, md := range base.Methods {
		merged.Methods[name] = md
	}
	for name, md := range override.Methods {
		merged.Methods[name] = md
	}

	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.Description != "" {
		merged.Description = override.Description
	}
	return &merged
}
