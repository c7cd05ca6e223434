// Package tui implements the spindle template browser.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spindle-dev/spindle/internal/templates"
	"github.com/spindle-dev/spindle/internal/tui/styles"
)

// Config configures the browser.
type Config struct {
	Store *templates.Store
	Theme string
}

// Run launches the template browser.
func Run(cfg Config) error {
	program := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

const (
	minWidth  = 60
	minHeight = 15
	listWidth = 32
)

type model struct {
	store  *templates.Store
	styles styles.Styles

	width  int
	height int

	items    []*templates.Template
	cursor   int
	filter   string
	typing   bool
	composed bool

	preview    string
	previewErr error
	loadErr    error
}

func initialModel(cfg Config) model {
	m := model{
		store:  cfg.Store,
		styles: styles.StylesFor(cfg.Theme),
	}
	m.refresh()
	return m
}

func (m *model) refresh() {
	list, err := m.store.List()
	if err != nil {
		m.loadErr = err
		m.items = nil
		return
	}
	m.loadErr = nil
	m.items = list
	if m.cursor >= len(m.visible()) {
		m.cursor = 0
	}
	m.updatePreview()
}

func (m *model) visible() []*templates.Template {
	if m.filter == "" {
		return m.items
	}
	var out []*templates.Template
	for _, tmpl := range m.items {
		if strings.Contains(tmpl.Name, m.filter) {
			out = append(out, tmpl)
		}
	}
	return out
}

func (m *model) selected() *templates.Template {
	visible := m.visible()
	if len(visible) == 0 || m.cursor >= len(visible) {
		return nil
	}
	return visible[m.cursor]
}

func (m *model) updatePreview() {
	m.preview = ""
	m.previewErr = nil

	tmpl := m.selected()
	if tmpl == nil {
		return
	}

	if !m.composed {
		m.preview = tmpl.Body
		return
	}
	resolved, err := m.store.Resolve(tmpl.Name)
	if err != nil {
		m.previewErr = err
		return
	}
	m.preview = resolved.Body
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.typing {
			return m.updateFilter(msg), nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.updatePreview()
			}
		case "down", "j":
			if m.cursor < len(m.visible())-1 {
				m.cursor++
				m.updatePreview()
			}
		case "/":
			m.typing = true
		case "c":
			m.composed = !m.composed
			m.updatePreview()
		case "R":
			m.store.Reload()
			m.refresh()
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m model) updateFilter(msg tea.KeyMsg) model {
	switch msg.String() {
	case "enter", "esc":
		m.typing = false
	case "backspace":
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
		}
	case "ctrl+c":
		m.typing = false
		m.filter = ""
	default:
		if len(msg.Runes) > 0 {
			m.filter += string(msg.Runes)
		}
	}
	m.cursor = 0
	m.updatePreview()
	return m
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 {
		if m.width < minWidth || m.height < minHeight {
			return m.smallView()
		}
	}

	header := m.styles.Title.Render("spindle templates")
	if m.composed {
		header += m.styles.Muted.Render("  (composed)")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), m.previewView())

	footer := m.styles.Muted.Render("j/k move | / filter | c composed | R reload | q quit")
	if m.typing {
		footer = m.styles.Accent.Render("filter: "+m.filter) + m.styles.Muted.Render(" (enter to apply)")
	} else if m.filter != "" {
		footer = m.styles.Muted.Render(fmt.Sprintf("filter: %s | %s", m.filter, "j/k move | c composed | q quit"))
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n", header, body, footer)
}

func (m model) smallView() string {
	lines := []string{
		m.styles.Warning.Render(fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)),
		m.styles.Muted.Render(fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)),
		m.styles.Muted.Render("Press q to quit."),
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m model) listView() string {
	if m.loadErr != nil {
		return m.styles.Error.Render(fmt.Sprintf("load failed: %v", m.loadErr))
	}

	visible := m.visible()
	if len(visible) == 0 {
		return m.styles.Muted.Render("no templates")
	}

	var lines []string
	for i, tmpl := range visible {
		label := tmpl.Name
		if len(label) > listWidth-2 {
			label = label[:listWidth-5] + "..."
		}
		if i == m.cursor {
			lines = append(lines, m.styles.Focus.Render("> "+label))
		} else {
			lines = append(lines, m.styles.Text.Render("  "+label))
		}
	}
	return lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))
}

func (m model) previewView() string {
	if m.previewErr != nil {
		return m.styles.Error.Render(fmt.Sprintf("compose failed: %v", m.previewErr))
	}

	tmpl := m.selected()
	if tmpl == nil {
		return ""
	}

	var lines []string
	lines = append(lines, m.styles.Accent.Render(tmpl.Name))
	if tmpl.Description != "" {
		lines = append(lines, m.styles.Muted.Render(tmpl.Description))
	}
	lines = append(lines, "")
	lines = append(lines, strings.Split(strings.TrimRight(m.preview, "\n"), "\n")...)

	if maxLines := m.height - 8; maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, m.styles.Muted.Render("..."))
	}

	width := m.width - listWidth - 4
	if width < 20 {
		width = 20
	}
	return m.styles.Panel.Width(width).Render(strings.Join(lines, "\n"))
}
