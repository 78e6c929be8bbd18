package listbrowser

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mquan/grocery-planner/internal/keys"
	"github.com/mquan/grocery-planner/internal/model"
	appsync "github.com/mquan/grocery-planner/internal/sync"
	"github.com/mquan/grocery-planner/internal/theme"
)

// ListsLoadedMsg is sent when grocery lists have been loaded.
type ListsLoadedMsg struct {
	Lists []model.GroceryList
	Err   error
}

// SelectedListMsg is sent when the user opens a list.
type SelectedListMsg struct {
	List model.GroceryList
}

// DeleteListMsg is sent when the user asks to delete the focused list.
type DeleteListMsg struct {
	ListID string
}

// RenameListMsg is sent when the user asks to rename the focused list.
type RenameListMsg struct {
	List model.GroceryList
}

// listEntry wraps a model.GroceryList so it can be used in a bubbles/list.
type listEntry struct {
	List model.GroceryList
}

// FilterValue returns the string used for fuzzy filtering.
func (e listEntry) FilterValue() string { return e.List.Name }

// entryDelegate implements list.ItemDelegate for grocery list rows.
type entryDelegate struct{}

// Height returns the number of lines each row takes.
func (d entryDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between rows.
func (d entryDelegate) Spacing() int { return 0 }

// Update handles per-row messages (unused).
func (d entryDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single grocery list row.
func (d entryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(listEntry)
	if !ok {
		return
	}

	l := entry.List

	count := ""
	if len(l.Items) > 0 {
		unchecked := 0
		for _, it := range l.Items {
			if !it.IsChecked {
				unchecked++
			}
		}
		count = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(fmt.Sprintf(" %d/%d to buy", unchecked, len(l.Items)))
	}

	updated := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + relativeTime(l.UpdatedAt))

	line := fmt.Sprintf("• %s%s%s", l.Name, count, updated)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the grocery list browser view.
type Model struct {
	list   list.Model
	coord  *appsync.Coordinator
	keys   *keys.KeyMap
	err    error
	width  int
	height int
}

// New creates a new list browser model.
func New(coord *appsync.Coordinator, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, entryDelegate{}, width, height-2)
	l.Title = "Grocery Lists"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		coord:  coord,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the lists.
func (m Model) Init() tea.Cmd {
	return m.LoadLists()
}

// Update handles messages for the list browser.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ListsLoadedMsg:
		m.err = msg.Err
		items := make([]list.Item, len(msg.Lists))
		for i, l := range msg.Lists {
			items[i] = listEntry{List: l}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			entry, ok := m.list.SelectedItem().(listEntry)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedListMsg{List: entry.List}
			}

		case key.Matches(msg, m.keys.DeleteList):
			entry, ok := m.list.SelectedItem().(listEntry)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return DeleteListMsg{ListID: entry.List.ID}
			}

		case key.Matches(msg, m.keys.RenameList):
			entry, ok := m.list.SelectedItem().(listEntry)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return RenameListMsg{List: entry.List}
			}
		}
	}

	// Delegate to list model for navigation keys
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list browser.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when no lists are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.err != nil {
		return style.Render(
			"Could not load grocery lists.\n\n" + m.err.Error() +
				"\n\nPress 'r' to retry.",
		)
	}

	return style.Render(
		"No grocery lists yet.\n\n" +
			"Press 'n' to create one, or 'g' to generate one from a meal plan.",
	)
}

// LoadLists returns a tea.Cmd that loads lists through the coordinator.
func (m Model) LoadLists() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		lists, err := coord.Lists(context.Background())
		return ListsLoadedMsg{Lists: lists, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
