// Package pathmap resolves path strings between served/bundled form and the
// local filesystem using configured mapping tables.
//
// Two tables share this algorithm: the workspace path mapping (served root ->
// local path) and the source-map path overrides (authored path -> local path).
// A pattern may contain at most one '*' wildcard per side plus a root
// placeholder such as ${webRoot} or ${workspaceFolder}.
package pathmap

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// placeholderTokens are the recognized root placeholders. Both anchor the
// resolved local project root; the two names exist because workspace path
// mappings conventionally use ${workspaceFolder} while source-map overrides
// use ${webRoot}.
var placeholderTokens = []string{"${webRoot}", "${workspaceFolder}"}

// ResolvePlaceholder substitutes a recognized placeholder token at the start
// of entry with root. Placeholders anywhere else in the string are left alone;
// source-map tooling always anchors a path with the placeholder. An empty root
// resolves to an empty string, which callers must treat as "leave unmapped".
func ResolvePlaceholder(root, entry string) string {
	for _, token := range placeholderTokens {
		if strings.HasPrefix(entry, token) {
			if root == "" {
				return ""
			}
			return root + entry[len(token):]
		}
	}
	return entry
}

// HasPlaceholder reports whether entry starts with a recognized placeholder.
func HasPlaceholder(entry string) bool {
	for _, token := range placeholderTokens {
		if strings.HasPrefix(entry, token) {
			return true
		}
	}
	return false
}

// ApplyPathMapping maps sourcePath through the given pattern table, returning
// the first (and only) match under longest-pattern-first ordering. Longer
// patterns are assumed more specific and win ties against shorter overlapping
// ones. If no pattern matches, sourcePath is returned unchanged.
//
// Only the source path has its separators normalized to forward slashes; the
// replacement side is returned as written in the table. Downstream consumers
// depend on that asymmetry.
func ApplyPathMapping(sourcePath string, table map[string]string, root string) string {
	if len(table) == 0 {
		return sourcePath
	}

	normalized := strings.ReplaceAll(sourcePath, "\\", "/")

	patterns := make([]string, 0, len(table))
	for pattern := range table {
		patterns = append(patterns, pattern)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})

	for _, pattern := range patterns {
		replacePattern := table[pattern]

		leftWildcards := strings.Count(pattern, "*")
		if leftWildcards > 1 {
			continue
		}
		// An under-specified replacement cannot be satisfied.
		if strings.Count(replacePattern, "*") > leftWildcards {
			continue
		}

		re, err := patternToRegexp(pattern)
		if err != nil {
			continue
		}

		match := re.FindStringSubmatch(normalized)
		if match == nil {
			continue
		}

		captured := ""
		if leftWildcards == 1 && len(match) > 1 {
			captured = match[1]
		}

		result := strings.ReplaceAll(replacePattern, "*", captured)
		if strings.Contains(result, "..") {
			result = path.Clean(result)
		}
		if HasPlaceholder(result) {
			result = ResolvePlaceholder(root, result)
		}
		return result
	}

	return sourcePath
}

// patternToRegexp builds an anchored, case-insensitive matcher from a mapping
// pattern. Every regexp metacharacter is escaped except the wildcard, which
// becomes a capturing group, and the path separator.
func patternToRegexp(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString("(.*)")
		case '.', '+', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			sb.WriteRune('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
