// Package routes maps URL routes to the entry file that renders them.
package routes

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	rootEntries = []string{
		"app/page.tsx", "app/page.js", "app/index.tsx", "app/index.js",
		"src/app/page.tsx", "src/app/page.js",
	}
	entrySuffixes = []string{"/page.tsx", "/page.js", "/index.tsx", "/index.js"}
	appRoots      = []string{"app/", "src/app/"}
)

// hostPort matches a leading "host:port" segment pasted without a scheme.
// The host is localhost or a dotted name, so "users:42" stays a path.
var hostPort = regexp.MustCompile(`^(?:localhost|[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+):\d+(?:/|$)`)

// Normalize strips scheme, host, query and fragment from route and returns
// it without leading or trailing slashes. Only inputs containing "://" or
// starting with "//" are parsed as URLs; anything else is a path, except for
// a leading host:port segment which is dropped.
func Normalize(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return ""
	}
	switch {
	case strings.Contains(route, "://") || strings.HasPrefix(route, "//"):
		if u, err := url.Parse(route); err == nil {
			route = u.Path
		}
	case hostPort.MatchString(route):
		if i := strings.Index(route, "/"); i >= 0 {
			route = route[i:]
		} else {
			route = ""
		}
	}
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	return strings.Trim(route, "/")
}

// Match returns the entry file for route among paths. When several entry
// files match through dynamic segments the one with most literal segments
// wins, so "/users/new" picks app/users/[id]/page.tsx over
// app/[section]/[action]/page.tsx even when the latter comes first in paths.
// Only candidates with equal literal counts fall back to paths order.
func Match(route string, paths []string) (string, bool) {
	known := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		known[p] = struct{}{}
	}
	has := func(p string) bool { _, ok := known[p]; return ok }

	clean := Normalize(route)
	if clean == "" || clean == "app" || clean == "src/app" {
		for _, p := range rootEntries {
			if has(p) {
				return p, true
			}
		}
		return "", false
	}

	if isEntryFile(clean) && has(clean) {
		return clean, true
	}

	base := clean
	if !hasAppRoot(base) {
		base = "app/" + base
	}
	for _, suffix := range entrySuffixes {
		if p := base + suffix; has(p) {
			return p, true
		}
	}

	want := strings.Split(base, "/")
	best, bestScore := "", -1
	for _, p := range paths {
		if !hasAppRoot(p) {
			continue
		}
		suffix, ok := entrySuffix(p)
		if !ok {
			continue
		}
		candidate := strings.TrimSuffix(p, suffix)
		if !strings.HasPrefix(base, "src/") {
			candidate = strings.TrimPrefix(candidate, "src/")
		}
		got := strings.Split(candidate, "/")
		score, ok := matchSegments(want, got)
		if ok && score > bestScore {
			best, bestScore = p, score
		}
	}
	return best, bestScore >= 0
}

// matchSegments compares route segments with candidate segments. Bracketed
// candidate segments match any single route segment. The score counts
// literal matches.
func matchSegments(want, got []string) (int, bool) {
	if len(want) != len(got) {
		return 0, false
	}
	score := 0
	for i := range want {
		switch {
		case want[i] == got[i]:
			score++
		case IsDynamic(got[i]):
		default:
			return 0, false
		}
	}
	return score, true
}

// IsDynamic reports whether seg is a bracketed route parameter such as [id].
func IsDynamic(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]")
}

func entrySuffix(p string) (string, bool) {
	for _, s := range entrySuffixes {
		if strings.HasSuffix(p, s) {
			return s, true
		}
	}
	return "", false
}

func isEntryFile(p string) bool {
	_, ok := entrySuffix(p)
	return ok
}

func hasAppRoot(p string) bool {
	for _, r := range appRoots {
		if strings.HasPrefix(p, r) {
			return true
		}
	}
	return false
}
