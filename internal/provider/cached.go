package provider

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/strrl/repo-context/internal/metrics"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

const (
	DefaultCacheSize = 16
	DefaultCacheTTL  = 10 * time.Minute
)

// Cached keeps recent snapshots in memory keyed by repository and branch.
// Failed fetches are never cached. A Refresh fetch skips the lookup and
// replaces the stored snapshot.
type Cached struct {
	inner   sessions.Provider
	cache   *expirable.LRU[string, []models.FileRecord]
	metrics *metrics.Metrics
}

// NewCached wraps inner with an LRU of size entries that expire after ttl
func NewCached(inner sessions.Provider, size int, ttl time.Duration, m *metrics.Metrics) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		inner:   inner,
		cache:   expirable.NewLRU[string, []models.FileRecord](size, nil, ttl),
		metrics: m,
	}
}

func (c *Cached) Fetch(ctx context.Context, params sessions.FetchParams) ([]models.FileRecord, error) {
	key := cacheKey(params)
	if !params.Refresh {
		if files, ok := c.cache.Get(key); ok {
			c.metrics.CacheLookup(true)
			return append([]models.FileRecord(nil), files...), nil
		}
		c.metrics.CacheLookup(false)
	}

	files, err := c.inner.Fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]models.FileRecord(nil), files...))
	return files, nil
}

// Purge drops every cached snapshot
func (c *Cached) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached snapshots
func (c *Cached) Len() int {
	return c.cache.Len()
}

func cacheKey(params sessions.FetchParams) string {
	repo := strings.TrimSuffix(strings.TrimSpace(params.RepoURL), "/")
	if dir, ok := LocalDir(repo); ok {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs + "@" + strings.TrimSpace(params.Branch)
		}
	}
	if ref, err := ParseGitHubURL(repo); err == nil {
		repo = strings.ToLower(ref.String())
	}
	return repo + "@" + strings.TrimSpace(params.Branch)
}
