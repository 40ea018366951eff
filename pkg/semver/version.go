package semver

import (
	"fmt"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const versionLogPrefix = "semver:version"

// MajorOf returns the major component of a semantic version string.
func MajorOf(version string) (int, error) {
	v, err := masterminds.NewVersion(version)
	if err != nil {
		return 0, fmt.Errorf("%s - invalid version %q: %w", versionLogPrefix, version, err)
	}
	return int(v.Major()), nil
}

// ValidateVersion reports whether version is a valid semantic version.
func ValidateVersion(version string) error {
	if _, err := masterminds.NewVersion(version); err != nil {
		return fmt.Errorf("%s - invalid version %q: %w", versionLogPrefix, version, err)
	}
	return nil
}

// Satisfies reports whether version meets rangeStr. An empty range matches
// any version; a major-only range matches on the major component.
func Satisfies(version, rangeStr string) (bool, error) {
	v, err := masterminds.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("%s - invalid version %q: %w", versionLogPrefix, version, err)
	}
	if rangeStr == "" {
		return true, nil
	}
	if major := ExtractMajorFromRange(rangeStr); major >= 0 {
		return int(v.Major()) == major, nil
	}

	c, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false, fmt.Errorf("%s - invalid range %q: %w", versionLogPrefix, rangeStr, err)
	}
	return c.Check(v), nil
}

// MajorOfRange returns the major a range pins, or -1 when it spans majors
// or cannot be read (e.g. ">=1.0.0").
func MajorOfRange(rangeStr string) int {
	if major := ExtractMajorFromRange(rangeStr); major >= 0 {
		return major
	}
	trimmed := strings.TrimLeft(strings.TrimSpace(rangeStr), "^~=v")
	if trimmed == "" || strings.ContainsAny(trimmed, " <>|,*xX") {
		return -1
	}
	v, err := masterminds.NewVersion(trimmed)
	if err != nil {
		return -1
	}
	return int(v.Major())
}
