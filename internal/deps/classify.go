package deps

import (
	"strings"

	"github.com/strrl/repo-context/pkg/models"
)

// Classify labels a path by the first matching directory marker.
// Shared UI primitives under components/ui are not treated as components.
func Classify(p string) models.Category {
	lower := "/" + strings.ToLower(strings.TrimPrefix(p, "/"))
	switch {
	case strings.Contains(lower, "/contexts/"):
		return models.CategoryContext
	case strings.Contains(lower, "/hooks/"):
		return models.CategoryHook
	case strings.Contains(lower, "/lib/"):
		return models.CategoryLib
	case strings.Contains(lower, "/components/") && !strings.Contains(lower, "/components/ui/"):
		return models.CategoryComponent
	default:
		return models.CategoryOther
	}
}
