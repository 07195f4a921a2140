package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/repo-context/internal/sessions"
)

// Message types for async operations
type (
	// FetchStartedMsg indicates a fetch was accepted by the session
	FetchStartedMsg struct {
		Retry bool
	}

	// FetchDoneMsg carries the outcome of a fetch
	FetchDoneMsg struct {
		Err error
	}

	// TickMsg is sent periodically for spinner and progress animation
	TickMsg time.Time
)

// startFetchCmd runs one fetch and reports its outcome
func startFetchCmd(ctx context.Context, s *sessions.Session, req sessions.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		return FetchDoneMsg{Err: s.StartFetch(ctx, req)}
	}
}

// autoFetchCmd starts the configured fetch when the session allows it
func autoFetchCmd(ctx context.Context, s *sessions.Session) tea.Cmd {
	return func() tea.Msg {
		done, ok := s.MaybeAutoFetch(ctx)
		if !ok {
			return nil
		}
		return FetchDoneMsg{Err: <-done}
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
