package sessions

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/strrl/repo-context/pkg/models"
)

// FetchParams is what a content provider needs to produce a snapshot
type FetchParams struct {
	RepoURL string
	Token   string
	Branch  string // empty selects the default branch
	// Refresh asks caching providers to bypass stored snapshots.
	Refresh bool
}

// Provider returns the complete file set of a repository branch
type Provider interface {
	Fetch(ctx context.Context, params FetchParams) ([]models.FileRecord, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, params FetchParams) ([]models.FileRecord, error)

func (f ProviderFunc) Fetch(ctx context.Context, params FetchParams) ([]models.FileRecord, error) {
	return f(ctx, params)
}

// fetchResult is the outcome of one provider call
type fetchResult struct {
	RequestID string
	Files     []models.FileRecord
	Err       error
}

// Executor runs provider calls off the caller's goroutine and tracks them
// by request id so they can be torn down with the session.
type Executor struct {
	provider  Provider
	mu        sync.RWMutex
	contexts  map[string]context.CancelFunc
	closed    bool
	closeOnce sync.Once
	calls     atomic.Int64
}

// NewExecutor creates a new executor for provider
func NewExecutor(provider Provider) *Executor {
	return &Executor{
		provider: provider,
		contexts: make(map[string]context.CancelFunc),
	}
}

// Submit starts a provider call and returns its request id together with a
// channel that receives exactly one result.
func (e *Executor) Submit(ctx context.Context, params FetchParams) (string, <-chan fetchResult) {
	requestID := uuid.New().String()
	resultChan := make(chan fetchResult, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		resultChan <- fetchResult{RequestID: requestID, Err: ErrSessionClosed}
		close(resultChan)
		return requestID, resultChan
	}
	callCtx, cancel := context.WithCancel(ctx)
	e.contexts[requestID] = cancel
	e.mu.Unlock()

	e.calls.Add(1)
	go func() {
		defer close(resultChan)
		defer func() {
			e.mu.Lock()
			delete(e.contexts, requestID)
			e.mu.Unlock()
			cancel()
		}()

		files, err := e.provider.Fetch(callCtx, params)
		resultChan <- fetchResult{RequestID: requestID, Files: files, Err: err}
	}()

	return requestID, resultChan
}

// Calls returns how many provider calls were started
func (e *Executor) Calls() int64 {
	return e.calls.Load()
}

// Close cancels running calls and rejects new ones
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		for _, cancel := range e.contexts {
			cancel()
		}
		e.mu.Unlock()
	})
}
