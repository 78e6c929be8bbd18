package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mquan/grocery-planner/internal/keys"
	"github.com/mquan/grocery-planner/internal/theme"
)

// section is a titled group of bindings in the overlay.
type section struct {
	title    string
	bindings []key.Binding
}

// bindingGroup adapts one section's bindings to the help.KeyMap
// interface so bubbles/help can render it.
type bindingGroup []key.Binding

func (g bindingGroup) ShortHelp() []key.Binding  { return g }
func (g bindingGroup) FullHelp() [][]key.Binding { return [][]key.Binding{g} }

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// sections groups the keymap by what it operates on.
func (m Model) sections() []section {
	k := m.keys
	return []section{
		{"Navigate", []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Quit}},
		{"Grocery lists", []key.Binding{k.NewList, k.RenameList, k.DeleteList, k.Generate}},
		{"Items", []key.Binding{k.AddItem, k.EditItem, k.DeleteItem, k.Toggle}},
		{"Import & sync", []key.Binding{k.Import, k.Refresh, k.Help}},
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorGreen)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	blocks := []string{titleStyle.Render("Keyboard Shortcuts")}
	for _, sec := range m.sections() {
		blocks = append(blocks,
			sectionStyle.Render(sec.title),
			m.help.View(bindingGroup(sec.bindings)),
			"",
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, blocks...)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
