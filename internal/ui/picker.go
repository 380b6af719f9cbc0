// Package ui implements the interactive format picker.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"marlin/internal/media"
)

var (
	pickerTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	pickerSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	pickerDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pickerHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pickerContainer     = lipgloss.NewStyle().Padding(1, 2)
)

// IsInteractive reports whether stdin and stdout are attached to a
// terminal. Piped invocations skip the picker entirely.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

type pickerKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func defaultPickerKeyMap() pickerKeyMap {
	return pickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "quit"),
		),
	}
}

type pickerModel struct {
	title     string
	formats   []media.Format
	cursor    int
	confirmed bool
	keys      pickerKeyMap
	width     int
	height    int
	offset    int
}

// newPickerModel starts with the cursor on the last entry: formats
// arrive sorted worst to best, and best is the usual choice.
func newPickerModel(title string, formats []media.Format) pickerModel {
	return pickerModel{
		title:   title,
		formats: formats,
		cursor:  len(formats) - 1,
		keys:    defaultPickerKeyMap(),
	}
}

func (m pickerModel) Init() tea.Cmd { return nil }

const maxVisibleFormats = 15

func (m pickerModel) visibleLines() int {
	if m.height <= 0 {
		return maxVisibleFormats
	}
	available := m.height - 7
	if available > maxVisibleFormats {
		return maxVisibleFormats
	}
	if available < 3 {
		return 3
	}
	return available
}

func (m *pickerModel) adjustScroll() {
	visible := m.visibleLines()
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.adjustScroll()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.formats)-1 {
				m.cursor++
				m.adjustScroll()
			}

		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString("  " + pickerTitleStyle.Render(m.title) + "\n\n")

	visible := m.visibleLines()
	start := m.offset
	end := start + visible
	if end > len(m.formats) {
		end = len(m.formats)
	}

	for i := start; i < end; i++ {
		cursor := "  "
		line := FormatLabel(m.formats[i])
		if i == m.cursor {
			cursor = pickerSelectedStyle.Render("> ")
			line = pickerSelectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}

	if len(m.formats) > visible {
		b.WriteString(pickerDimStyle.Render(fmt.Sprintf("  (%d-%d of %d)", start+1, end, len(m.formats))) + "\n")
	}

	b.WriteString("\n" + pickerHelpStyle.Render("  ↑/k up · ↓/j down · enter select · q quit") + "\n")

	content := pickerContainer.Render(b.String())
	if m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, content)
	}
	return content
}

// PickFormat presents the format list and returns the chosen format.
// Returns nil without error when the user quits without choosing.
func PickFormat(title string, formats []media.Format) (*media.Format, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("no formats to select from")
	}

	p := tea.NewProgram(newPickerModel(title, formats), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running format picker: %w", err)
	}

	m := finalModel.(pickerModel)
	if !m.confirmed {
		return nil, nil
	}
	f := m.formats[m.cursor]
	return &f, nil
}

// FormatLabel renders one format as a fixed-width table row.
func FormatLabel(f media.Format) string {
	res := f.Resolution()

	rate := "-"
	if f.TBR != nil {
		rate = fmt.Sprintf("%.0fk", *f.TBR)
	}

	codecs := DescribeCodecs(f)

	note := f.FormatNote
	if f.DRM {
		if note != "" {
			note += ", "
		}
		note += "drm"
	}

	label := fmt.Sprintf("%-16s %-5s %-11s %7s  %-24s", f.FormatID, f.Ext, res, rate, codecs)
	if note != "" {
		label += " " + note
	}
	return strings.TrimRight(label, " ")
}

// DescribeCodecs renders a format's codec pair for display.
func DescribeCodecs(f media.Format) string {
	v, a := f.Vcodec, f.Acodec
	if v == media.CodecNone {
		v = ""
	}
	if a == media.CodecNone {
		a = ""
	}
	switch {
	case v != "" && a != "":
		return v + "+" + a
	case v != "" && !f.HasAudio():
		return v + " only"
	case v != "":
		return v
	case a != "":
		return a
	default:
		return "unknown"
	}
}
