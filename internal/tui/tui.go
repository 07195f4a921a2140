package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/repo-context/internal/bundle"
	"github.com/strrl/repo-context/internal/deps"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

const previewLines = 200

// Result is what the picker hands back when it exits
type Result struct {
	Confirmed bool
	Selection []string
}

type model struct {
	ctx       context.Context
	session   *sessions.Session
	important []string

	files     []string
	cursor    int
	state     sessions.State
	loading   *LoadingIndicator
	confirmed bool

	leftViewport  viewport.Model // file list
	rightViewport viewport.Model // preview of the file under the cursor
	ready         bool
	width         int
	height        int
}

func initialModel(ctx context.Context, s *sessions.Session, important []string) model {
	return model{
		ctx:       ctx,
		session:   s,
		important: important,
		state:     s.State(),
		loading:   NewLoadingIndicator("Fetching repository..."),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, autoFetchCmd(m.ctx, m.session), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		leftWidth := msg.Width/2 - 1
		rightWidth := msg.Width - leftWidth - 1
		viewHeight := max(msg.Height-4, 1)

		if !m.ready {
			m.leftViewport = viewport.New(leftWidth, viewHeight)
			m.rightViewport = viewport.New(rightWidth, viewHeight)
			m.ready = true
		} else {
			m.leftViewport.Width = leftWidth
			m.leftViewport.Height = viewHeight
			m.rightViewport.Width = rightWidth
			m.rightViewport.Height = viewHeight
		}
		m.updateViewport()

	case TickMsg:
		m.refresh()
		m.loading.Tick()
		m.loading.SetProgress(m.state.Progress)
		cmds = append(cmds, tickCmd())

	case FetchStartedMsg:
		m.refresh()

	case FetchDoneMsg:
		m.refresh()
		m.files = m.sortedFiles()
		m.cursor = m.initialCursor()
		m.updateViewport()

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	var leftCmd, rightCmd tea.Cmd
	m.leftViewport, leftCmd = m.leftViewport.Update(msg)
	m.rightViewport, rightCmd = m.rightViewport.Update(msg)
	cmds = append(cmds, leftCmd, rightCmd)

	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	sel := m.session.Selection()

	switch msg.String() {
	case "ctrl+c", "q":
		return nil, true

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}

	case " ", "space":
		if m.cursor < len(m.files) {
			sel.Toggle(m.files[m.cursor])
		}

	case "a":
		sel.SelectAll()

	case "n":
		sel.DeselectAll()

	case "h":
		sel.SelectHighlighted()

	case "i":
		sel.AddImportant(m.important)

	case "e":
		m.session.ExpandSelection()

	case "f", "r":
		if m.state.Status.InFlight() {
			return nil, false
		}
		retry := m.state.Status == sessions.StatusError || m.state.Status == sessions.StatusFailedRetries
		return tea.Batch(
			func() tea.Msg { return FetchStartedMsg{Retry: retry} },
			startFetchCmd(m.ctx, m.session, sessions.FetchRequest{Branch: m.state.Branch, Retry: retry}),
		), false

	case "enter":
		if m.session.Snapshot() == nil {
			return nil, false
		}
		sel.Flush()
		m.confirmed = true
		return nil, true
	}

	m.refresh()
	m.updateViewport()
	return nil, false
}

func (m *model) refresh() {
	m.state = m.session.State()
}

func (m model) sortedFiles() []string {
	paths := m.session.Snapshot().Paths()
	sort.Strings(paths)
	return paths
}

// initialCursor places the cursor on the primary highlight when present
func (m model) initialCursor() int {
	for i, p := range m.files {
		if p == m.state.Highlight.Primary {
			return i
		}
	}
	return 0
}

func (m *model) updateViewport() {
	if !m.ready {
		return
	}
	m.leftViewport.SetContent(m.renderFileList())
	m.rightViewport.SetContent(m.renderPreview())

	// keep the cursor visible
	if m.cursor < m.leftViewport.YOffset {
		m.leftViewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.leftViewport.YOffset+m.leftViewport.Height {
		m.leftViewport.SetYOffset(m.cursor - m.leftViewport.Height + 1)
	}
}

func (m model) renderFileList() string {
	if len(m.files) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
		return emptyStyle.Render("No files")
	}

	sel := m.session.Selection()
	selected := make(map[string]struct{})
	for _, p := range sel.Visible() {
		selected[p] = struct{}{}
	}

	var s strings.Builder
	for i, p := range m.files {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		check := "[ ]"
		if _, ok := selected[p]; ok {
			check = "[x]"
		}

		style := lipgloss.NewStyle()
		switch {
		case p == m.state.Highlight.Primary:
			style = style.Foreground(lipgloss.Color("212")).Bold(true)
		case isSecondary(p, m.state.Highlight):
			style = style.Foreground(lipgloss.Color("117"))
		}
		if i == m.cursor {
			style = style.Underline(true)
		}

		line := fmt.Sprintf("%s%s %s", cursor, check, truncate(p, max(m.leftViewport.Width-10, 10)))
		if mark := bundle.Marker(p, nil, m.state.Highlight); mark != "" {
			line += " " + mark
		}
		s.WriteString(style.Render(line) + "\n")
	}
	return s.String()
}

func (m model) renderPreview() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))

	if m.cursor >= len(m.files) {
		s.WriteString(headerStyle.Render("Preview") + "\n")
		return s.String()
	}
	p := m.files[m.cursor]
	s.WriteString(headerStyle.Render(p) + "\n")

	metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	f, _ := m.session.Snapshot().File(p)
	s.WriteString(metaStyle.Render(fmt.Sprintf("%s • %s", deps.Classify(p), bundle.Language(p))) + "\n")
	s.WriteString(strings.Repeat("─", max(m.rightViewport.Width-2, 10)) + "\n")

	codeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	lines := strings.Split(f.Content, "\n")
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], "...")
	}
	width := max(m.rightViewport.Width-2, 20)
	for _, line := range lines {
		s.WriteString(codeStyle.Render(truncate(line, width)) + "\n")
	}
	return s.String()
}

func isSecondary(p string, h models.Highlight) bool {
	for _, s := range h.SecondaryPaths() {
		if s == p {
			return true
		}
	}
	return false
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	if m.state.Status.InFlight() {
		m.loading.SetMessage(fmt.Sprintf("Fetching %s...", m.session.Route()))
		return fmt.Sprintf("%s\n%s\n%s", header, LoadingOverlay(m.width, m.leftViewport.Height, m.loading), footer)
	}
	if m.state.Status == sessions.StatusIdle {
		return fmt.Sprintf("%s\n\n  Press f to fetch the repository.\n\n%s", header, footer)
	}
	return fmt.Sprintf("%s\n%s\n%s", header, m.renderSplitView(), footer)
}

func (m model) renderSplitView() string {
	leftStyle := lipgloss.NewStyle().
		Width(m.leftViewport.Width).
		Height(m.leftViewport.Height)

	rightStyle := lipgloss.NewStyle().
		Width(m.rightViewport.Width).
		Height(m.rightViewport.Height)

	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Height(m.leftViewport.Height)

	divider := strings.TrimSuffix(strings.Repeat("│\n", m.leftViewport.Height), "\n")

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftStyle.Render(m.leftViewport.View()),
		dividerStyle.Render(divider),
		rightStyle.Render(m.rightViewport.View()),
	)
}

func (m model) renderHeader() string {
	title := fmt.Sprintf("repo-context - %s", m.state.Status)
	if m.state.Branch != "" {
		title += " @ " + m.state.Branch
	}
	if m.state.Locked {
		title += " (locked)"
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63"))

	return style.Render(title)
}

func (m model) renderFooter() string {
	var lines []string

	if m.state.Err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		lines = append(lines, errStyle.Render("Error: "+m.state.Err.Error()))
	} else if n := len(m.state.Notices); n > 0 {
		noticeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
		lines = append(lines, noticeStyle.Render(m.state.Notices[n-1]))
	}

	info := "↑/↓: navigate"
	if !m.state.Locked {
		info += " • space: toggle • a/n: all/none • h: highlighted • i: important • e: expand"
	}
	info += " • f: fetch • enter: confirm • q: quit"
	if snap := m.session.Snapshot(); snap != nil {
		info = bundle.Summary(snap, m.session.Selection().Visible()) + " • " + info
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	lines = append(lines, style.Render(info))
	return strings.Join(lines, "\n")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Run displays the picker for s and returns the confirmed selection
func Run(ctx context.Context, s *sessions.Session, important []string) (Result, error) {
	p := tea.NewProgram(
		initialModel(ctx, s, important),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return Result{}, err
	}

	m := finalModel.(model)
	res := Result{Confirmed: m.confirmed}
	if m.confirmed {
		res.Selection = s.Selection().Visible()
	}
	return res, nil
}
