// Package deps extracts, resolves and classifies module imports of a
// repository snapshot and expands seed files into a bounded selection.
package deps

import (
	"regexp"
	"sort"
)

var (
	// import X from '...', import { a, b } from "...", import '...'
	importPattern = regexp.MustCompile(`import\s*(?:[\w*{}\s,$]+?\s*from\s*)?["']([^"'\s]+)["']`)
	// require('...')
	requirePattern = regexp.MustCompile(`require\s*\(\s*["']([^"'\s]+)["']\s*\)`)
	// import('...')
	dynamicImportPattern = regexp.MustCompile(`import\s*\(\s*["']([^"'\s]+)["']\s*\)`)
)

// Extract returns the set of import specifiers referenced by content.
func Extract(content string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{importPattern, requirePattern, dynamicImportPattern} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if len(m) < 2 {
				continue
			}
			spec := m[1]
			if spec == "" || spec == "." {
				continue
			}
			out[spec] = struct{}{}
		}
	}
	return out
}

// ExtractSorted is Extract with a stable order.
func ExtractSorted(content string) []string {
	set := Extract(content)
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
