package monitor

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the monitor's line editor, a bubbletea tea.Model grounded
// on hejops-gone/cpu/debugger.go's Init/Update/View shape, driving the
// command Table and line History instead of a single-stepping CPU
// debugger.
type Model struct {
	Table   *Table
	History *History

	line   string
	cursor int
	output []string
	err    error
}

// NewModel returns a Model ready to run under tea.NewProgram.
func NewModel(table *Table, history *History) Model {
	return Model{Table: table, History: history}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.submit()
	case tea.KeyUp:
		if line, ok := m.History.Prev(); ok {
			m.line, m.cursor = line, len(line)
		}
	case tea.KeyDown:
		if line, ok := m.History.Next(); ok {
			m.line, m.cursor = line, len(line)
		}
	case tea.KeyLeft:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyRight:
		if m.cursor < len(m.line) {
			m.cursor++
		}
	case tea.KeyBackspace:
		if m.cursor > 0 {
			m.line = m.line[:m.cursor-1] + m.line[m.cursor:]
			m.cursor--
		}
	default:
		s := keyMsg.String()
		if len(s) == 1 {
			m.line = m.line[:m.cursor] + s + m.line[m.cursor:]
			m.cursor++
		}
	}
	return m, nil
}

func (m *Model) submit() {
	line := m.line
	m.line, m.cursor = "", 0
	m.History.Push(line)
	m.History.Reset()
	out, err := m.Table.Dispatch(line)
	m.err = err
	if err == nil && out != "" {
		m.output = append(m.output, out)
	}
}

func (m Model) View() string {
	var b strings.Builder
	for _, line := range m.output {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(promptStyle.Render("] "))
	b.WriteString(m.line)
	return b.String()
}

// DumpTrace renders v (an action-FIFO trace ring or API call history)
// with go-spew. The status command does not call it; it prints the
// one-line Hooks.Status summary.
func DumpTrace(v any) string {
	return spew.Sdump(v)
}
