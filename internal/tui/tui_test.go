package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

func testFiles() []models.FileRecord {
	return []models.FileRecord{
		{Path: "package.json", Content: "{}"},
		{Path: "app/cart/page.tsx", Content: `import { useCart } from "@/hooks/useCart"`},
		{Path: "hooks/useCart.ts", Content: "export function useCart() {}"},
		{Path: "README.md", Content: "# shop"},
	}
}

func fetchedSession(t *testing.T, opts sessions.Options) *sessions.Session {
	t.Helper()
	opts.RepoURL = "https://github.com/acme/shop"
	opts.Debounce = -1
	provider := sessions.ProviderFunc(func(ctx context.Context, _ sessions.FetchParams) ([]models.FileRecord, error) {
		return testFiles(), nil
	})
	s, err := sessions.New(provider, opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.StartFetch(context.Background(), sessions.FetchRequest{}))
	return s
}

func readyModel(t *testing.T, s *sessions.Session) model {
	t.Helper()
	m := initialModel(context.Background(), s, []string{"package.json"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	next, _ = next.(model).Update(FetchDoneMsg{})
	return next.(model)
}

func press(t *testing.T, m model, key tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelStartsOnPrimaryHighlight(t *testing.T) {
	s := fetchedSession(t, sessions.Options{Route: "/cart"})
	m := readyModel(t, s)

	assert.Equal(t, []string{"README.md", "app/cart/page.tsx", "hooks/useCart.ts", "package.json"}, m.files)
	assert.Equal(t, "app/cart/page.tsx", m.files[m.cursor])
	assert.Equal(t, sessions.StatusSuccess, m.state.Status)

	view := m.View()
	assert.Contains(t, view, "repo-context - success")
	assert.Contains(t, view, "[x] app/cart/page.tsx")
	assert.Contains(t, view, "[x] hooks/useCart.ts")
	assert.Contains(t, view, "[ ] README.md")
}

func TestKeysMutateSelection(t *testing.T) {
	s := fetchedSession(t, sessions.Options{Route: "/cart"})
	m := readyModel(t, s)
	sel := s.Selection()

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "hooks/useCart.ts", m.files[m.cursor])
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, sel.Has("hooks/useCart.ts"))

	m, _ = press(t, m, runes("n"))
	assert.Empty(t, sel.Visible())

	m, _ = press(t, m, runes("h"))
	assert.Equal(t, []string{"app/cart/page.tsx", "hooks/useCart.ts"}, sel.Visible())

	m, _ = press(t, m, runes("i"))
	assert.True(t, sel.Has("package.json"))

	_, _ = press(t, m, runes("a"))
	assert.Len(t, sel.Visible(), 4)
}

func TestLockedSessionIgnoresToggles(t *testing.T) {
	task := &models.SingleFileTask{TargetPath: "hooks/useCart.ts", Kind: models.TaskIdea}
	s := fetchedSession(t, sessions.Options{Task: task})
	m := readyModel(t, s)

	assert.Equal(t, "hooks/useCart.ts", m.files[m.cursor])
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = press(t, m, runes("a"))
	assert.Equal(t, []string{"hooks/useCart.ts"}, s.Selection().Visible())

	view := m.View()
	assert.Contains(t, view, "(locked)")
	assert.NotContains(t, view, "space: toggle")
}

func TestEnterConfirms(t *testing.T) {
	s := fetchedSession(t, sessions.Options{Route: "/cart"})
	m := readyModel(t, s)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.confirmed)
	assert.NotNil(t, cmd)
}

func TestQuitDoesNotConfirm(t *testing.T) {
	s := fetchedSession(t, sessions.Options{Route: "/cart"})
	m := readyModel(t, s)

	m, cmd := press(t, m, runes("q"))
	assert.False(t, m.confirmed)
	assert.NotNil(t, cmd)
}

func TestFetchKeyStartsFetch(t *testing.T) {
	provider := sessions.ProviderFunc(func(ctx context.Context, _ sessions.FetchParams) ([]models.FileRecord, error) {
		return testFiles(), nil
	})
	s, err := sessions.New(provider, sessions.Options{RepoURL: "acme/shop", Route: "/cart", Debounce: -1})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	m := initialModel(context.Background(), s, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m = next.(model)
	assert.Contains(t, m.View(), "Press f to fetch")

	_, cmd := press(t, m, runes("f"))
	require.NotNil(t, cmd)

	// run the fetch the command would run
	msg := startFetchCmd(context.Background(), s, sessions.FetchRequest{})()
	require.IsType(t, FetchDoneMsg{}, msg)
	assert.NoError(t, msg.(FetchDoneMsg).Err)
	next, _ = m.Update(msg)
	assert.Len(t, next.(model).files, 4)
}

func TestLoadingIndicator(t *testing.T) {
	l := NewLoadingIndicator("Fetching")
	l.SetProgress(140)
	assert.Equal(t, 100.0, l.progress)
	l.SetProgress(-3)
	assert.Equal(t, 0.0, l.progress)

	first := l.spinner.View()
	l.Tick()
	assert.NotEqual(t, first, l.spinner.View())
	assert.Contains(t, l.View(), "Fetching")
}

func TestTickRefreshesState(t *testing.T) {
	s := fetchedSession(t, sessions.Options{Route: "/cart"})
	m := initialModel(context.Background(), s, nil)

	next, cmd := m.Update(TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 100.0, next.(model).loading.progress)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
