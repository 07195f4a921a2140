// Package provider produces repository snapshots for fetch sessions.
package provider

import (
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultMaxFileSize is applied when no size limit is configured
const DefaultMaxFileSize = "1MB"

var (
	DefaultAllowedExts = []string{".ts", ".tsx", ".js", ".jsx", ".css", ".scss", ".json", ".md", ".sql"}

	DefaultExcludedPrefixes = []string{
		"node_modules/", ".next/", "dist/", "build/", "supabase/migrations/", "public/", "Configame/",
		"components/ui/",
	}
)

// Filter decides which repository files make it into a snapshot
type Filter struct {
	AllowedExts      []string
	ExcludedPrefixes []string
	MaxFileSize      uint64 // bytes, 0 disables the limit
}

// DefaultFilter returns the stock filter
func DefaultFilter() Filter {
	size, _ := humanize.ParseBytes(DefaultMaxFileSize)
	return Filter{
		AllowedExts:      append([]string(nil), DefaultAllowedExts...),
		ExcludedPrefixes: append([]string(nil), DefaultExcludedPrefixes...),
		MaxFileSize:      size,
	}
}

// NewFilter builds a filter from configuration values. Empty lists fall
// back to the defaults; maxSize accepts human sizes like "512KB" or "2 MiB".
func NewFilter(exts, prefixes []string, maxSize string) (Filter, error) {
	f := DefaultFilter()
	if len(exts) > 0 {
		f.AllowedExts = normalizeExts(exts)
	}
	if len(prefixes) > 0 {
		f.ExcludedPrefixes = append([]string(nil), prefixes...)
	}
	if s := strings.TrimSpace(maxSize); s != "" {
		size, err := humanize.ParseBytes(s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid max file size %q: %w", maxSize, err)
		}
		f.MaxFileSize = size
	}
	return f, nil
}

// Allow reports whether p (slash separated, repository relative) passes
// the extension and prefix rules.
func (f Filter) Allow(p string) bool {
	if p == "" || f.Excluded(p) {
		return false
	}
	ext := strings.ToLower(path.Ext(p))
	for _, allowed := range f.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Excluded reports whether p lies under an excluded prefix
func (f Filter) Excluded(p string) bool {
	for _, prefix := range f.ExcludedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// AllowSize reports whether a file of n bytes is small enough
func (f Filter) AllowSize(n int64) bool {
	return f.MaxFileSize == 0 || n <= int64(f.MaxFileSize)
}

// String summarises the filter for log lines
func (f Filter) String() string {
	size := "unlimited"
	if f.MaxFileSize > 0 {
		size = humanize.IBytes(f.MaxFileSize)
	}
	return fmt.Sprintf("exts=%s max=%s", strings.Join(f.AllowedExts, ","), size)
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
