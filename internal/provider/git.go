package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

// DefaultCloneTimeout bounds one shallow clone
const DefaultCloneTimeout = 2 * time.Minute

// runGitCommand is injectable in tests.
var runGitCommand = func(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Git clones a GitHub repository shallowly into a temporary directory and
// reads the filtered file set from it.
type Git struct {
	Filter  Filter
	Timeout time.Duration
	TempDir string // parent for clones, os.TempDir() when empty
	Logger  *slog.Logger
}

// NewGit creates a git provider
func NewGit(filter Filter, timeout time.Duration, logger *slog.Logger) *Git {
	return &Git{Filter: filter, Timeout: timeout, Logger: logger}
}

// Fetch clones params.RepoURL at params.Branch (or the URL's branch, or the
// default branch). The clone is removed before returning.
func (g *Git) Fetch(ctx context.Context, params sessions.FetchParams) ([]models.FileRecord, error) {
	ref, err := ParseGitHubURL(params.RepoURL)
	if err != nil {
		return nil, err
	}
	branch := strings.TrimSpace(params.Branch)
	if branch == "" {
		branch = ref.Branch
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultCloneTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dir, err := os.MkdirTemp(g.TempDir, "repo-context-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer os.RemoveAll(dir)
	target := filepath.Join(dir, ref.Repo)

	logger := loggerOr(g.Logger).With("repo", ref.String(), "branch", branch)
	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch, "--single-branch")
	}
	args = append(args, ref.CloneURL(params.Token), target)

	started := time.Now()
	if err := runGitCommand(ctx, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("cloning %s timed out after %s", ref, timeout)
		}
		return nil, redact(err, params.Token)
	}
	logger.Debug("cloned repository", "elapsed", time.Since(started).Round(time.Millisecond))

	return readTree(ctx, target, g.Filter, logger)
}

// redact removes the access token from git's error output
func redact(err error, token string) error {
	token = strings.TrimSpace(token)
	if err == nil || token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "***"))
}
