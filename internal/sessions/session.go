package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/strrl/repo-context/internal/deps"
	"github.com/strrl/repo-context/internal/metrics"
	"github.com/strrl/repo-context/internal/routes"
	"github.com/strrl/repo-context/pkg/models"
)

// Status is the state of a fetch session
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusRetrying
	StatusSuccess
	StatusError
	StatusFailedRetries
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusRetrying:
		return "retrying"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusFailedRetries:
		return "failed_retries"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// InFlight reports whether a provider call is pending in this state
func (s Status) InFlight() bool {
	return s == StatusLoading || s == StatusRetrying
}

const (
	defaultExpectedDuration    = 13 * time.Second
	defaultProgressInterval    = 200 * time.Millisecond
	defaultDebounce            = 300 * time.Millisecond
	defaultAutoTriggerCooldown = 500 * time.Millisecond
	maxNotices                 = 20
)

// FetchResult is handed to the consumer once per completed fetch
type FetchResult struct {
	RequestID string
	Succeeded bool
	Branch    string
	Files     []models.FileRecord
	Highlight models.Highlight
	Err       error
}

// Consumer receives whole-value copies of session output
type Consumer interface {
	FilesFetched(result FetchResult)
	SelectionChanged(paths []string)
}

// Options configures a Session
type Options struct {
	RepoURL string
	Token   string
	Branch  string

	// Route and Task are mutually exclusive.
	Route          string
	Seeds          []string
	ImportantFiles []string
	Task           *models.SingleFileTask

	ExpectedDuration    time.Duration
	ProgressInterval    time.Duration
	Debounce            time.Duration
	AutoTriggerCooldown time.Duration

	Consumer Consumer
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// FetchRequest parameters one StartFetch call
type FetchRequest struct {
	Branch string
	Retry  bool
}

// State is a read-only view of a session
type State struct {
	Status    Status
	Progress  float64
	Err       error
	Branch    string
	Files     int
	Highlight models.Highlight
	Notices   []string
	Locked    bool
}

// Session owns one snapshot, its selection and highlight metadata.
type Session struct {
	opts     Options
	exec     *Executor
	progress *progressTracker
	store    *SelectionStore
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu         sync.Mutex
	status     Status
	err        error
	snapshot   *models.Snapshot
	highlight  models.Highlight
	branch     string
	notices    []string
	consumer   Consumer
	inFlight   bool
	taskLatch  bool
	autoGuard  bool
	guardTimer *time.Timer
	closed     bool
}

// New creates a session fetching through provider.
func New(provider Provider, opts Options) (*Session, error) {
	if provider == nil {
		return nil, errors.New("sessions: provider is required")
	}
	if opts.Task != nil && strings.TrimSpace(opts.Route) != "" {
		return nil, ErrRouteAndTask
	}
	if opts.ExpectedDuration <= 0 {
		opts.ExpectedDuration = defaultExpectedDuration
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = defaultProgressInterval
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	} else if opts.Debounce == 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.AutoTriggerCooldown <= 0 {
		opts.AutoTriggerCooldown = defaultAutoTriggerCooldown
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		opts:      opts,
		exec:      NewExecutor(provider),
		progress:  newProgressTracker(opts.ExpectedDuration, opts.ProgressInterval),
		logger:    logger.With("repo", opts.RepoURL),
		metrics:   opts.Metrics,
		highlight: models.NewHighlight(),
		branch:    opts.Branch,
		consumer:  opts.Consumer,
	}
	s.store = NewSelectionStore(opts.Debounce, opts.Task != nil, s.publishSelection)
	return s, nil
}

// Selection returns the session's selection store
func (s *Session) Selection() *SelectionStore {
	return s.store
}

// Locked reports whether the session runs a single-file task
func (s *Session) Locked() bool {
	return s.opts.Task != nil
}

// Task returns the single-file task, if any
func (s *Session) Task() *models.SingleFileTask {
	return s.opts.Task
}

// Route returns the configured route
func (s *Session) Route() string {
	return s.opts.Route
}

// Snapshot returns the current snapshot. It is immutable and may be nil.
func (s *Session) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Calls returns how many provider calls this session made
func (s *Session) Calls() int64 {
	return s.exec.Calls()
}

// State returns a copy of the session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Status:    s.status,
		Progress:  s.progress.Value(),
		Err:       s.err,
		Branch:    s.branch,
		Files:     s.snapshot.Len(),
		Highlight: s.highlight.Clone(),
		Notices:   append([]string(nil), s.notices...),
		Locked:    s.opts.Task != nil,
	}
}

// Notices returns transient messages meant for the user
func (s *Session) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notices...)
}

// StartFetch fetches the repository and populates snapshot, selection and
// highlights. It blocks until the provider returns.
//
// Guard rejections (ErrFetchInProgress, ErrTaskLatched, ErrNoRepository)
// leave the session untouched. Provider failures are returned as
// *ProviderError and a missing task target as *TargetNotFoundError.
func (s *Session) StartFetch(ctx context.Context, req FetchRequest) error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.inFlight = true
	if s.opts.Task != nil {
		s.taskLatch = true
	}
	if req.Retry {
		s.status = StatusRetrying
	} else {
		s.status = StatusLoading
	}
	s.err = nil
	s.snapshot = nil
	s.highlight = models.NewHighlight()
	s.notices = nil
	s.branch = req.Branch
	s.mu.Unlock()

	s.store.reset(nil, nil, nil)
	s.progress.Start()

	requestID, results := s.exec.Submit(ctx, FetchParams{
		RepoURL: s.opts.RepoURL,
		Token:   s.opts.Token,
		Branch:  req.Branch,
		Refresh: req.Retry,
	})
	logger := s.logger.With("request_id", requestID, "branch", displayBranch(req.Branch))
	logger.Info("fetching repository", "retry", req.Retry)

	var res fetchResult
	select {
	case res = <-results:
	case <-ctx.Done():
		res = fetchResult{RequestID: requestID, Err: ctx.Err()}
	}
	return s.complete(logger, req, res)
}

func (s *Session) guardLocked() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.inFlight:
		s.noticeLocked("A fetch is already running.")
		s.metrics.FetchRejected("in_flight")
		return ErrFetchInProgress
	case s.opts.Task != nil && s.taskLatch:
		s.noticeLocked("The target file was already fetched.")
		s.metrics.FetchRejected("task_latched")
		return ErrTaskLatched
	case strings.TrimSpace(s.opts.RepoURL) == "":
		s.noticeLocked("Set a repository URL first.")
		s.metrics.FetchRejected("no_repository")
		return ErrNoRepository
	}
	return nil
}

func (s *Session) complete(logger *slog.Logger, req FetchRequest, res fetchResult) error {
	var (
		selected []string
		err      error
	)

	s.mu.Lock()
	if res.Err != nil {
		err = &ProviderError{Repo: s.opts.RepoURL, Branch: req.Branch, Err: res.Err}
		s.snapshot = nil
	} else {
		s.snapshot = models.NewSnapshot(res.Files)
		if task := s.opts.Task; task != nil {
			selected, err = s.applyTaskLocked(*task, req.Branch)
		} else {
			selected = s.applyRouteLocked(logger)
		}
	}

	if err != nil {
		s.err = err
		s.status = StatusError
		if req.Retry {
			s.status = StatusFailedRetries
		}
		s.taskLatch = false
		s.highlight = models.NewHighlight()
		s.noticeLocked("Error: " + err.Error())
	} else {
		s.status = StatusSuccess
	}
	s.inFlight = false
	succeeded := err == nil
	snap := s.snapshot
	highlight := s.highlight.Clone()
	status := s.status
	consumer := s.consumer
	closed := s.closed
	s.mu.Unlock()

	s.progress.Finish(succeeded)
	s.metrics.FetchCompleted(status.String(), snap.Len())

	if succeeded {
		logger.Info("repository fetched", "files", snap.Len(), "selected", len(selected))
	} else {
		logger.Warn("fetch failed", "status", status.String(), "error", err)
	}
	if closed {
		return err
	}

	s.store.reset(snap.Paths(), append([]string{highlight.Primary}, highlight.SecondaryPaths()...), selected)

	if consumer != nil {
		consumer.FilesFetched(FetchResult{
			RequestID: res.RequestID,
			Succeeded: succeeded,
			Branch:    req.Branch,
			Files:     snap.Files(),
			Highlight: highlight,
			Err:       err,
		})
	}
	return err
}

func (s *Session) applyTaskLocked(task models.SingleFileTask, branch string) ([]string, error) {
	if !s.snapshot.Has(task.TargetPath) {
		return nil, &TargetNotFoundError{Path: task.TargetPath, Branch: branch}
	}
	s.highlight.Primary = task.TargetPath
	s.noticeLocked(fmt.Sprintf("Loaded %s for %s.", baseName(task.TargetPath), task.Kind))
	if task.AutoSelect() {
		return []string{task.TargetPath}, nil
	}
	return nil, nil
}

// applyRouteLocked matches the route, expands the closure and merges the
// important files. Misses only produce notices.
func (s *Session) applyRouteLocked(logger *slog.Logger) []string {
	paths := s.snapshot.Paths()
	seeds := make([]string, 0, len(s.opts.Seeds)+1)

	primary := ""
	if route := strings.TrimSpace(s.opts.Route); route != "" {
		if p, ok := routes.Match(route, paths); ok {
			primary = p
			seeds = append(seeds, p)
		} else {
			s.metrics.RouteMiss()
			logger.Warn("no entry file for route", "route", route)
			s.noticeLocked(fmt.Sprintf("No page file found for %s.", route))
		}
	}
	seeds = append(seeds, s.opts.Seeds...)

	selected := make(map[string]struct{})
	related := 0
	if len(seeds) > 0 {
		closure := deps.BuildClosure(seeds, s.snapshot)
		s.metrics.ResolutionMisses(len(closure.Unresolved))
		for _, miss := range closure.Unresolved {
			logger.Debug("unresolved import", "path", miss.Source, "specifier", miss.Specifier)
		}
		for p := range closure.Selection {
			selected[p] = struct{}{}
		}
		related = len(closure.Selection) - countPresent(seeds, s.snapshot)
		s.highlight = closure.Highlight(primary)
	}

	important := 0
	for _, p := range s.opts.ImportantFiles {
		if !s.snapshot.Has(p) {
			continue
		}
		if _, ok := selected[p]; !ok {
			selected[p] = struct{}{}
			important++
		}
	}

	switch {
	case len(selected) > 0:
		var parts []string
		if primary != "" {
			parts = append(parts, "1 page")
		}
		if related > 0 {
			parts = append(parts, fmt.Sprintf("%d related", related))
		}
		if important > 0 {
			parts = append(parts, fmt.Sprintf("%d important", important))
		}
		s.noticeLocked(fmt.Sprintf("Auto-selected %s (%d total).", strings.Join(parts, ", "), len(selected)))
	default:
		s.noticeLocked(fmt.Sprintf("Fetched %d files from %s.", s.snapshot.Len(), displayBranch(s.branch)))
	}
	return models.SortedKeys(selected)
}

// ExpandSelection runs the closure builder over the current selection and
// adds the bundled dependencies it finds. It pulls in second-order imports
// one hop at a time under user control. Returns the number of added files.
func (s *Session) ExpandSelection() int {
	if s.store.Locked() {
		return 0
	}
	snap := s.Snapshot()
	if snap == nil {
		return 0
	}
	closure := deps.BuildClosure(s.store.Visible(), snap)
	s.metrics.ResolutionMisses(len(closure.Unresolved))
	return s.store.union(models.SortedKeys(closure.Selection))
}

// MaybeAutoFetch starts a background fetch when the session is configured
// for one, has never fetched, and no latch or guard blocks it. The returned
// channel yields the fetch error (nil on success).
func (s *Session) MaybeAutoFetch(ctx context.Context) (<-chan error, bool) {
	s.mu.Lock()
	wants := strings.TrimSpace(s.opts.Route) != "" || s.opts.Task != nil || len(s.opts.Seeds) > 0
	if s.closed || !wants || s.status != StatusIdle || s.inFlight || s.autoGuard ||
		(s.opts.Task != nil && s.taskLatch) {
		s.mu.Unlock()
		return nil, false
	}
	s.autoGuard = true
	branch := s.opts.Branch
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := s.StartFetch(ctx, FetchRequest{Branch: branch})
		s.releaseAutoGuard()
		done <- err
		close(done)
	}()
	return done, true
}

// releaseAutoGuard frees the auto-trigger guard after the cooldown so a
// burst of trigger conditions starts a single fetch.
func (s *Session) releaseAutoGuard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.guardTimer != nil {
		s.guardTimer.Stop()
	}
	s.guardTimer = time.AfterFunc(s.opts.AutoTriggerCooldown, func() {
		s.mu.Lock()
		s.autoGuard = false
		s.guardTimer = nil
		s.mu.Unlock()
	})
}

// Close detaches the consumer and stops every timer. In-flight provider
// calls are cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.consumer = nil
	if s.guardTimer != nil {
		s.guardTimer.Stop()
		s.guardTimer = nil
	}
	s.mu.Unlock()

	s.progress.Stop()
	s.store.close()
	s.exec.Close()
}

func (s *Session) publishSelection(paths []string) {
	s.mu.Lock()
	consumer := s.consumer
	s.mu.Unlock()
	s.metrics.SelectionPublished()
	if consumer != nil {
		consumer.SelectionChanged(paths)
	}
}

func (s *Session) noticeLocked(msg string) {
	s.notices = append(s.notices, msg)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

func countPresent(paths []string, snap *models.Snapshot) int {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if snap.Has(p) {
			seen[p] = struct{}{}
		}
	}
	return len(seen)
}

func baseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
