package sessions

import (
	"errors"
	"fmt"
)

// Guard rejections. They leave the session state unchanged.
var (
	ErrFetchInProgress = errors.New("a fetch is already in progress")
	ErrTaskLatched     = errors.New("the target file was already fetched for this session")
	ErrNoRepository    = errors.New("repository url is not set")
	ErrSessionClosed   = errors.New("session is closed")
	ErrRouteAndTask    = errors.New("a session takes either a route or a single-file task, not both")
)

// ProviderError wraps a content provider failure. The message of the
// underlying error is shown to the user as is.
type ProviderError struct {
	Repo   string
	Branch string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return "content provider failed"
	}
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TargetNotFoundError reports a single-file task whose target is absent
// from an otherwise successful fetch.
type TargetNotFoundError struct {
	Path   string
	Branch string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("file %s not found on branch %s", e.Path, displayBranch(e.Branch))
}

func displayBranch(b string) string {
	if b == "" {
		return "default"
	}
	return b
}
