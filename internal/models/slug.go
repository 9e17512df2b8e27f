package models

import "strings"

// Slugify normalizes a display name into a URL-safe slug: lowercase,
// whitespace and underscores collapsed to single hyphens, everything
// outside [a-z0-9-] dropped. Tag deduplication keys on this value, so
// "Floral", " floral" and "FLORAL " all collapse to "floral".
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '\t' || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SplitTagNames parses a comma-separated tag string into trimmed,
// non-empty names, dropping entries that slugify identically to an
// earlier one. First-seen casing wins.
func SplitTagNames(tagsStr string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, part := range strings.Split(tagsStr, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		slug := Slugify(name)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		names = append(names, name)
	}
	return names
}
