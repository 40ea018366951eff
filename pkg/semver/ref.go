// Package semver parses channel references and checks channel versions against caller constraints.
package semver

import (
	"fmt"
	"regexp"
	"strings"
)

const logPrefix = "semver:ref"

// ChannelRef holds the parsed components of a channel reference string.
type ChannelRef struct {
	// Channel name (e.g., "tpp")
	Name string
	// Version range if specified (e.g., "^1.2.0", "1", ""); empty means any version
	Range string
	// Raw input string
	Raw string
}

var (
	channelNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)
	majorOnlyRegex   = regexp.MustCompile(`^\d+$`)
)

// ParseChannelRef parses a channel reference string.
//
// Supported formats:
//   - tpp           (any version)
//   - tpp@1         (major only)
//   - tpp@1.2.0     (exact version)
//   - tpp@^1.2.0    (caret range)
//   - tpp@>=1.0.0   (comparison range)
func ParseChannelRef(input string) (*ChannelRef, error) {
	raw := strings.TrimSpace(input)

	name, rangeStr, hasRange := strings.Cut(raw, "@")
	if !ValidateChannelName(name) {
		return nil, fmt.Errorf("%s - invalid channel name: %q", logPrefix, raw)
	}
	if hasRange && rangeStr == "" {
		return nil, fmt.Errorf("%s - empty version range: %q", logPrefix, raw)
	}

	return &ChannelRef{Name: name, Range: rangeStr, Raw: raw}, nil
}

// String renders the reference back to name[@range] form.
func (r *ChannelRef) String() string {
	if r.Range == "" {
		return r.Name
	}
	return r.Name + "@" + r.Range
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	var major int
	fmt.Sscanf(rangeStr, "%d", &major)
	return major
}

// ValidateChannelName validates a channel name (letters, digits, dots, hyphens, underscores).
func ValidateChannelName(name string) bool {
	return channelNameRegex.MatchString(name)
}
