package denly

import "strings"

// RootSegment is the single segment a path with no components parses to.
// Route tables match "/" against it instead of special-casing the empty path.
const RootSegment = "_PATH_ROOT_"

// ParsePath splits a raw request URL into its non-empty path segments.
// Everything from the first '?' on is ignored, and leading, trailing, or
// repeated slashes collapse. The result is never empty.
func ParsePath(rawURL string) []string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		rawURL = rawURL[:i]
	}

	segments := make([]string, 0, strings.Count(rawURL, "/")+1)
	for s := range strings.SplitSeq(rawURL, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) == 0 {
		return []string{RootSegment}
	}
	return segments
}

// isRoot reports whether segments is the root sentinel path.
func isRoot(segments []string) bool {
	return len(segments) == 1 && segments[0] == RootSegment
}
