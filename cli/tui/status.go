package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/chisel/harness"
	"github.com/pithecene-io/chisel/types"
)

// StatusData is the payload for the status_corpus view. It is shared with
// non-TUI rendering so both modes display the same facts.
type StatusData struct {
	GrammarFingerprint string      `json:"grammar_fingerprint"`
	Total              int         `json:"total"`
	Passing            int         `json:"passing"`
	Failing            int         `json:"failing"`
	Stale              int         `json:"stale"`
	Rows               []StatusRow `json:"rows"`
}

// StatusRow is one registry record in the status view.
type StatusRow struct {
	SampleID   types.SampleID    `json:"sample_id"`
	Syntactic  string            `json:"syntactic_status"`
	Structural string            `json:"structural_status"`
	Combined   string            `json:"combined_status"`
	Stale      bool              `json:"stale"`
	Diagnostic *types.Diagnostic `json:"diagnostic,omitempty"`
}

// statusWindow is how many sample rows are visible at once.
const statusWindow = 12

// StatusModel is a Bubble Tea model browsing the corpus registry.
type StatusModel struct {
	viewType string
	data     any
	cursor   int
	offset   int
	width    int
	height   int
	quitting bool
}

// NewStatusModel creates a new status model.
func NewStatusModel(viewType string, data any) StatusModel {
	return StatusModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatusModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Down):
			if m.cursor < m.rowCount()-1 {
				m.cursor++
				if m.cursor >= m.offset+statusWindow {
					m.offset++
				}
			}
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset--
				}
			}
		}
	}

	return m, nil
}

func (m StatusModel) rowCount() int {
	data, ok := m.data.(*StatusData)
	if !ok {
		return 0
	}
	return len(data.Rows)
}

// View implements tea.Model.
func (m StatusModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "status_corpus":
		content = m.renderCorpus()
	case "status_run":
		content = m.renderRun()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("↑/↓ to browse, q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatusModel) renderCorpus() string {
	data, ok := m.data.(*StatusData)
	if !ok {
		return "Invalid data type for status_corpus"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Corpus Status"))
	b.WriteString("\n\n")

	boxes := []string{
		m.renderStatBox("Samples", data.Total, highlightColor),
		m.renderStatBox("Passing", data.Passing, successColor),
		m.renderStatBox("Failing", data.Failing, errorColor),
		m.renderStatBox("Stale", data.Stale, warningColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n\n",
		LabelStyle.Render("Grammar:"),
		ValueStyle.Render(shortFingerprint(data.GrammarFingerprint))))

	b.WriteString(m.renderRows(data.Rows))

	if sel := m.selectedRow(data); sel != nil && sel.Diagnostic != nil {
		b.WriteString("\n")
		b.WriteString(m.renderDiagnostic(sel.Diagnostic, sel.Stale))
	}

	return b.String()
}

func (m StatusModel) renderRows(rows []StatusRow) string {
	if len(rows) == 0 {
		return SuccessStyle.Render("All samples pass under the current grammar.") + "\n"
	}

	var b strings.Builder
	end := m.offset + statusWindow
	if end > len(rows) {
		end = len(rows)
	}
	for i := m.offset; i < end; i++ {
		row := rows[i]
		line := fmt.Sprintf("%-40s  %-6s  %-8s", row.SampleID, row.Syntactic, row.Structural)
		if row.Stale {
			line += "  stale"
		}
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render(line))
		} else {
			b.WriteString(StatusStyle(row.Combined).Render(line))
		}
		b.WriteString("\n")
	}
	if end < len(rows) {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("… %d more", len(rows)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m StatusModel) selectedRow(data *StatusData) *StatusRow {
	if m.cursor < 0 || m.cursor >= len(data.Rows) {
		return nil
	}
	return &data.Rows[m.cursor]
}

func (m StatusModel) renderDiagnostic(d *types.Diagnostic, stale bool) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Last Failure"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Kind:"),
		ErrorStyle.Render(string(d.Kind))))
	if d.Line > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Position:"),
			ValueStyle.Render(fmt.Sprintf("line %d col %d", d.Line, d.Col))))
	}
	if d.Unexpected != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Unexpected:"),
			ValueStyle.Render(d.Unexpected)))
	}
	if len(d.Expected) > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Expected:"),
			ValueStyle.Render(strings.Join(d.Expected, ", "))))
	}
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Message:"),
		ValueStyle.Render(d.Message)))
	if stale {
		b.WriteString(WarningStyle.Render("Recorded under an older grammar; re-run to refresh."))
		b.WriteString("\n")
	}
	return BoxStyle.Render(b.String())
}

func (m StatusModel) renderRun() string {
	data, ok := m.data.(*harness.RunReport)
	if !ok {
		return "Invalid data type for status_run"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Validation Run"))
	b.WriteString("\n\n")

	boxes := []string{
		m.renderStatBox("Total", data.Total, highlightColor),
		m.renderStatBox("Passed", data.Passed, successColor),
		m.renderStatBox("Failed", data.Failed, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	verdict := SuccessStyle.Render("accepted")
	if !data.Accepted {
		verdict = ErrorStyle.Render(fmt.Sprintf("rejected (%d regressions)", len(data.Regressed)))
	}
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Guard:"),
		verdict))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Pass rate:"),
		ValueStyle.Render(fmt.Sprintf("%.2f%%", data.PassPercent))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Grammar:"),
		ValueStyle.Render(shortFingerprint(data.GrammarFingerprint))))

	if data.NextTarget != "" {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Next target:"),
			ErrorStyle.Render(string(data.NextTarget))))
	}

	return b.String()
}

func (m StatusModel) renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

// RunStatusTUI runs the status TUI.
func RunStatusTUI(viewType string, data any) error {
	model := NewStatusModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatusStatic renders status data without full TUI (for fallback).
func RenderStatusStatic(viewType string, data any) string {
	model := NewStatusModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
