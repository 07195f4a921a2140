package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/repo-context/internal/config"
	"github.com/strrl/repo-context/internal/llm"
	"github.com/strrl/repo-context/internal/metrics"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

func repoFiles() []models.FileRecord {
	return []models.FileRecord{
		{Path: "app/users/[id]/page.tsx", Content: "import React from \"react\"\nimport { useUser } from \"@/hooks/useUser\"\n"},
		{Path: "hooks/useUser.ts", Content: "export function useUser() {}"},
		{Path: "package.json", Content: "{}"},
	}
}

// useFakeProvider serves repoFiles for every fetch and counts the calls
func useFakeProvider(t *testing.T) *int {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GEMINI_API_KEY", "")

	calls := 0
	orig := newProvider
	newProvider = func(*config.Config, *slog.Logger, *metrics.Metrics) (sessions.Provider, error) {
		return sessions.ProviderFunc(func(ctx context.Context, params sessions.FetchParams) ([]models.FileRecord, error) {
			calls++
			return repoFiles(), nil
		}), nil
	}
	t.Cleanup(func() { newProvider = orig })
	return &calls
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type fakeLLM struct {
	prompt string
}

func (f *fakeLLM) Name() string { return "fake:test" }

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return "  use the hook  \n", nil
}

func TestRouteCommand(t *testing.T) {
	calls := useFakeProvider(t)

	out, err := execute(t, "route", "/users/42", "--repo", "acme/web")
	require.NoError(t, err)
	assert.Equal(t, "app/users/[id]/page.tsx\n", out)
	assert.Equal(t, 1, *calls)

	_, err = execute(t, "route", "/orders", "--repo", "acme/web")
	assert.ErrorContains(t, err, "no page file found for /orders")
}

func TestCommandsNeedRepository(t *testing.T) {
	useFakeProvider(t)

	_, err := execute(t, "route", "/users/42")
	assert.ErrorIs(t, err, errNoRepo)
}

func TestResolveCommand(t *testing.T) {
	useFakeProvider(t)

	out, err := execute(t, "resolve", "app/users/[id]/page.tsx", "--repo", "acme/web")
	require.NoError(t, err)
	assert.Contains(t, out, "@/hooks/useUser")
	assert.Contains(t, out, "hooks/useUser.ts")
	assert.Contains(t, out, "react")

	_, err = execute(t, "resolve", "missing.ts", "--repo", "acme/web")
	assert.ErrorContains(t, err, "not found")
}

func TestGraphCommand(t *testing.T) {
	useFakeProvider(t)

	out, err := execute(t, "graph", "--route", "/users/42", "--repo", "acme/web")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "hooks/useUser.ts")

	_, err = execute(t, "graph", "--repo", "acme/web")
	assert.Error(t, err)
}

func TestShowCommandBundle(t *testing.T) {
	useFakeProvider(t)

	out, err := execute(t, "show", "/users/42", "--bundle", "--repo", "acme/web")
	require.NoError(t, err)
	assert.Contains(t, out, "// /app/users/[id]/page.tsx")
	assert.Contains(t, out, "// /hooks/useUser.ts")
}

func TestAskCommand(t *testing.T) {
	useFakeProvider(t)
	fake := &fakeLLM{}
	orig := newLLMClient
	newLLMClient = func(*app, *cobra.Command) (llm.Client, error) { return fake, nil }
	t.Cleanup(func() { newLLMClient = orig })

	out, err := execute(t, "ask", "why does the page load twice?", "--route", "/users/42", "--repo", "acme/web")
	require.NoError(t, err)
	assert.Equal(t, "use the hook\n", out)
	assert.Contains(t, fake.prompt, "why does the page load twice?")
	assert.Contains(t, fake.prompt, "// /hooks/useUser.ts")
}

func TestRootRejectsRouteWithTask(t *testing.T) {
	useFakeProvider(t)

	_, err := execute(t, "--route", "/users/42", "--task-path", "hooks/useUser.ts", "--repo", "acme/web")
	assert.ErrorIs(t, err, sessions.ErrRouteAndTask)
}

func TestParseTaskKind(t *testing.T) {
	tests := []struct {
		in      string
		want    models.TaskKind
		wantErr bool
	}{
		{"idea", models.TaskIdea, false},
		{" Error-Fix ", models.TaskErrorFix, false},
		{"image-replace", models.TaskImageReplace, false},
		{"icon-replace", models.TaskIconReplace, false},
		{"refactor", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTaskKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
