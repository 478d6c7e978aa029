package gdb

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

var versionPattern = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// structuredCompletion is the first release with the -complete command.
var structuredCompletion = semver.MustParse("7.12")

// ParseVersion extracts the release number from the first line of the
// debugger's version banner, e.g. "GNU gdb (GDB) 13.2".
func ParseVersion(banner string) (*semver.Version, error) {
	for _, line := range splitLines(banner) {
		match := versionPattern.FindString(line)
		if match == "" {
			continue
		}
		v, err := semver.NewVersion(match)
		if err != nil {
			return nil, fmt.Errorf("invalid debugger version %q: %w", match, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("no version found in %q", banner)
}

// SupportsStructuredCompletion reports whether v understands -complete.
func SupportsStructuredCompletion(v *semver.Version) bool {
	return v != nil && !v.LessThan(structuredCompletion)
}
