package deps

import (
	"path"
	"strings"
)

// AliasPrefix marks specifiers rooted at the project source root.
const AliasPrefix = "@/"

var (
	// Extensions are tried in this order when a base path has none.
	Extensions = []string{".ts", ".tsx", ".js", ".jsx", ".css", ".scss", ".json", ".md"}

	aliasRoots = []string{"src/", "app/", ""}
	subRoots   = []string{"components/", "lib/", "utils/", "hooks/", "contexts/", "styles/"}
	bareRoots  = []string{
		"lib/", "utils/", "components/", "hooks/", "contexts/", "styles/",
		"src/lib/", "src/utils/", "src/components/", "src/hooks/", "src/contexts/", "src/styles/",
	}
)

// Resolve maps specifier, imported from sourcePath, to a path in idx.
// A miss is a normal outcome and reported as ("", false).
func Resolve(specifier, sourcePath string, idx *Index) (string, bool) {
	if specifier == "" || idx == nil {
		return "", false
	}
	switch {
	case strings.HasPrefix(specifier, AliasPrefix):
		rest := strings.TrimPrefix(specifier, AliasPrefix)
		for _, root := range aliasRoots {
			if p, ok := trial(root+rest, idx); ok {
				return p, true
			}
		}
		for _, root := range subRoots {
			if strings.HasPrefix(rest, root) {
				if p, ok := trial(rest, idx); ok {
					return p, true
				}
			}
		}
	case strings.HasPrefix(specifier, "."):
		return trial(joinRelative(sourcePath, specifier), idx)
	default:
		for _, root := range bareRoots {
			if p, ok := trial(root+specifier, idx); ok {
				return p, true
			}
		}
	}
	return "", false
}

// trial checks base itself (when it carries an extension), then base+ext,
// then base/index+ext.
func trial(base string, idx *Index) (string, bool) {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return "", false
	}
	if path.Ext(path.Base(base)) != "" && idx.Has(base) {
		return base, true
	}
	for _, ext := range Extensions {
		if p := base + ext; idx.Has(p) {
			return p, true
		}
	}
	for _, ext := range Extensions {
		if p := base + "/index" + ext; idx.Has(p) {
			return p, true
		}
	}
	return "", false
}

// joinRelative collapses . and .. segments of spec against the directory of
// sourcePath. Climbing above the repository root stays at the root.
func joinRelative(sourcePath, spec string) string {
	dir := ""
	if i := strings.LastIndex(sourcePath, "/"); i >= 0 {
		dir = sourcePath[:i]
	}
	joined := spec
	if dir != "" {
		joined = dir + "/" + spec
	}
	parts := make([]string, 0, strings.Count(joined, "/")+1)
	for _, seg := range strings.Split(joined, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}
