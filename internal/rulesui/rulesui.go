// Package rulesui renders a rule preview and a yes/no confirmation as a
// standalone bubbletea program, the same enter/y/Y-confirms,
// esc/n/N-cancels key handling internal/ui/confirm's popup uses inside
// the full TUI, generalized from an embedded popup.Popup into a
// standalone tea.Program since cmd/rose has no outer event loop to
// host it in.
package rulesui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/azuline/rose-sub000/internal/rules"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	beforeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("167"))

	afterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("108"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// model is the confirm prompt's bubbletea state: a fixed preview body
// plus a confirmed/declined/still-open result.
type model struct {
	preview   *rules.Preview
	confirmed bool
	done      bool
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "enter", "y", "Y":
		m.confirmed, m.done = true, true
		return m, tea.Quit
	case "esc", "n", "N", "ctrl+c":
		m.confirmed, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Rule preview: %d change(s) across %d track(s)", len(m.preview.Changes), m.preview.TrackCount())))
	b.WriteString("\n\n")

	const maxLines = 20
	for i, c := range m.preview.Changes {
		if i >= maxLines {
			b.WriteString(hintStyle.Render(fmt.Sprintf("... %d more\n", len(m.preview.Changes)-maxLines)))
			break
		}
		b.WriteString(pathStyle.Render(c.SourcePath))
		b.WriteString(" ")
		b.WriteString(fieldStyle.Render(c.Field))
		b.WriteString(": ")
		b.WriteString(beforeStyle.Render(strings.Join(c.Before, "; ")))
		b.WriteString(" -> ")
		b.WriteString(afterStyle.Render(strings.Join(c.After, "; ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Enter/Y: apply, Esc/N: cancel"))
	return b.String()
}

// Confirm runs the preview through a standalone bubbletea program over
// in/out and reports whether the user confirmed. It is the TUI
// counterpart to rules.Confirm's bufio.Scanner prompt — cmd/rose picks
// between them based on whether stdout is a terminal.
func Confirm(in io.Reader, out io.Writer, preview *rules.Preview) (bool, error) {
	p := tea.NewProgram(model{preview: preview}, tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("rulesui: run: %w", err)
	}
	return final.(model).confirmed, nil
}
