package manifest

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const logPrefix = "manifest:loader"

// MethodGetCurrentDirectory is the one command the default channel declares.
const MethodGetCurrentDirectory = "getCurrentDirectory"

// LoadManifest loads a channel manifest from file paths or environment.
// It tries paths in order: first any paths passed in, then CHANNEL_MANIFEST_FILE,
// then defaults. The first readable file is merged over DefaultManifest.
// YAML and JSON files are both accepted.
func LoadManifest(paths ...string) (*ChannelManifest, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("CHANNEL_MANIFEST_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/channel.yaml", "channel.yaml")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var m ChannelManifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse manifest file %s: %v", logPrefix, p, err))
			continue
		}

		merged := Merge(DefaultManifest(), &m)
		if err := merged.Validate(); err != nil {
			return nil, fmt.Errorf("%s - manifest %s: %w", logPrefix, p, err)
		}
		slog.Info(fmt.Sprintf("%s - Loaded channel manifest from %s", logPrefix, p))
		return merged, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default channel manifest", logPrefix))
	return DefaultManifest(), nil
}

// DefaultManifest returns the embedded fallback manifest for the tpp channel.
func DefaultManifest() *ChannelManifest {
	return &ChannelManifest{
		Name:        "tpp",
		Version:     "1.0.0",
		Description: "Host environment channel",
		Methods: map[string]MethodMetadata{
			MethodGetCurrentDirectory: {
				Description:  "Returns the host process directory as text",
				OutputSchema: map[string]interface{}{"type": "string"},
				Tags:         []string{"host", "filesystem"},
			},
		},
	}
}
