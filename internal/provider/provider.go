package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/strrl/repo-context/internal/metrics"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

// Options configures the provider returned by New
type Options struct {
	Filter       Filter
	CloneTimeout time.Duration
	CacheSize    int
	CacheTTL     time.Duration
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Router dispatches to the local provider for directories and to git for
// everything else.
type Router struct {
	Local *Local
	Git   *Git
}

func (r *Router) Fetch(ctx context.Context, params sessions.FetchParams) ([]models.FileRecord, error) {
	if _, ok := LocalDir(params.RepoURL); ok {
		return r.Local.Fetch(ctx, params)
	}
	return r.Git.Fetch(ctx, params)
}

// New returns the standard cached provider stack
func New(opts Options) *Cached {
	router := &Router{
		Local: NewLocal("", opts.Filter, opts.Logger),
		Git:   NewGit(opts.Filter, opts.CloneTimeout, opts.Logger),
	}
	return NewCached(router, opts.CacheSize, opts.CacheTTL, opts.Metrics)
}
