package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Build information, set with -ldflags "-X .../internal/version.Current=2.2.0 -X .../internal/version.Commit=abc1234"
var (
	Current = "2.2.0"
	Commit  = ""
)

// Version represents the application version
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Commit string
}

// String returns the version in semantic format
func (v Version) String() string {
	ver := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Commit != "" {
		ver += "+" + v.Commit
	}
	return ver
}

// ParseTag extracts version components from a git tag (e.g., "v1.2.3")
func ParseTag(tag string) (major, minor, patch int, err error) {
	tagVersion := strings.TrimPrefix(tag, "v")
	parts := strings.Split(tagVersion, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid tag format: %s (expected vX.Y.Z)", tag)
	}

	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid major version in tag %s: %w", tag, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid minor version in tag %s: %w", tag, err)
	}
	patch, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid patch version in tag %s: %w", tag, err)
	}

	return major, minor, patch, nil
}

// Build returns the version this binary was built as.
func Build() (Version, error) {
	major, minor, patch, err := ParseTag(Current)
	if err != nil {
		return Version{}, err
	}
	return Version{Major: major, Minor: minor, Patch: patch, Commit: Commit}, nil
}

// Display returns the version as shown on the main menu, e.g. "v2.2.0".
// Unparseable build strings are shown as given.
func Display() string {
	v, err := Build()
	if err != nil {
		return Current
	}
	return "v" + v.String()
}
