package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/strrl/repo-context/internal/config"
	"github.com/strrl/repo-context/internal/metrics"
	"github.com/strrl/repo-context/internal/provider"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

var errNoRepo = errors.New("no repository set; pass --repo or set repo.url")

// Persistent flags shared by every command
var (
	configPath string
	repoURL    string
	branch     string
	logLevel   string
)

// app carries everything a command needs after configuration is loaded
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	provider sessions.Provider
}

// newProvider builds the content provider; tests replace it.
var newProvider = func(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (sessions.Provider, error) {
	filter, err := provider.NewFilter(cfg.Filter.AllowedExts, cfg.Filter.ExcludedPrefixes, cfg.Filter.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return provider.New(provider.Options{
		Filter:       filter,
		CloneTimeout: cfg.Fetch.CloneTimeout,
		CacheSize:    cfg.Cache.Size,
		CacheTTL:     cfg.Cache.TTL,
		Logger:       logger,
		Metrics:      m,
	}), nil
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if repoURL != "" {
		cfg.Repo.URL = repoURL
	}
	if branch != "" {
		cfg.Repo.Branch = branch
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := config.NewLogger(cfg.Logging, nil)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	m := metrics.New()
	p, err := newProvider(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider: %w", err)
	}
	return &app{cfg: cfg, logger: logger, metrics: m, provider: p}, nil
}

// sessionOptions maps the configuration onto a session
func (a *app) sessionOptions() sessions.Options {
	return sessions.Options{
		RepoURL:             a.cfg.Repo.URL,
		Token:               a.cfg.Repo.Token,
		Branch:              a.cfg.Repo.Branch,
		ImportantFiles:      a.cfg.Selection.ImportantFiles,
		ExpectedDuration:    a.cfg.Fetch.ExpectedDuration,
		ProgressInterval:    a.cfg.Fetch.ProgressInterval,
		Debounce:            a.cfg.Selection.Debounce,
		AutoTriggerCooldown: a.cfg.Fetch.AutoTriggerCooldown,
		Logger:              a.logger,
		Metrics:             a.metrics,
	}
}

// snapshot fetches the configured repository without a session
func (a *app) snapshot(ctx context.Context) (*models.Snapshot, error) {
	if strings.TrimSpace(a.cfg.Repo.URL) == "" {
		return nil, errNoRepo
	}
	files, err := a.provider.Fetch(ctx, sessions.FetchParams{
		RepoURL: a.cfg.Repo.URL,
		Token:   a.cfg.Repo.Token,
		Branch:  a.cfg.Repo.Branch,
	})
	if err != nil {
		return nil, &sessions.ProviderError{Repo: a.cfg.Repo.URL, Branch: a.cfg.Repo.Branch, Err: err}
	}
	a.logger.Debug("fetched snapshot", "repo", a.cfg.Repo.URL, "count", len(files))
	return models.NewSnapshot(files), nil
}

// fetchSession runs one blocking fetch on a fresh session
func (a *app) fetchSession(ctx context.Context, opts sessions.Options) (*sessions.Session, error) {
	if strings.TrimSpace(opts.RepoURL) == "" {
		return nil, errNoRepo
	}
	s, err := sessions.New(a.provider, opts)
	if err != nil {
		return nil, err
	}
	if err := s.StartFetch(ctx, sessions.FetchRequest{Branch: opts.Branch}); err != nil {
		s.Close()
		return nil, err
	}
	for _, n := range s.Notices() {
		a.logger.Info(n)
	}
	return s, nil
}

// serveMetrics exposes /metrics on addr until the returned stop is called.
// An empty addr disables it.
func (a *app) serveMetrics(addr string) (stop func()) {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
