package itemlist

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mquan/grocery-planner/internal/keys"
	"github.com/mquan/grocery-planner/internal/model"
	appsync "github.com/mquan/grocery-planner/internal/sync"
	"github.com/mquan/grocery-planner/internal/theme"
)

// ItemsLoadedMsg is sent when the items of the open list have loaded.
type ItemsLoadedMsg struct {
	ListID string
	Items  []model.GroceryListItem
	Err    error
}

// ToggledMsg is sent after a toggle mutation completes.
type ToggledMsg struct {
	Err error
}

// AddItemMsg asks the app to open the item form in create mode.
type AddItemMsg struct {
	ListID string
}

// EditItemMsg asks the app to open the item form in edit mode.
type EditItemMsg struct {
	Item model.GroceryListItem
}

// DeletedMsg is sent after a delete mutation completes.
type DeletedMsg struct {
	Err error
}

// ImportMsg asks the app to run the email import into the open list.
type ImportMsg struct {
	ListID string
}

// itemEntry wraps a grocery item for bubbles/list.
type itemEntry struct {
	Item model.GroceryListItem
}

// FilterValue returns the string used for fuzzy filtering.
func (e itemEntry) FilterValue() string { return e.Item.Name }

// itemDelegate renders grocery item rows.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single item row: checkbox, quantity, name, category
// badge, and priority marker.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(itemEntry)
	if !ok {
		return
	}

	it := entry.Item

	box := "[ ]"
	if it.IsChecked {
		box = "[x]"
	}

	qty := ""
	if it.Quantity > 0 {
		if it.Unit != "" {
			qty = fmt.Sprintf("%g %s ", it.Quantity, it.Unit)
		} else if it.Quantity != 1 {
			qty = fmt.Sprintf("%g ", it.Quantity)
		}
	}

	category := theme.CategoryStyle(it.Category).Render(it.Category)
	priority := theme.PriorityStyle(it.Priority).Render(priorityMarker(it.Priority))

	name := qty + it.Name
	if it.IsChecked {
		name = theme.CheckedStyle.Render(name)
	}

	line := fmt.Sprintf("%s %s %s %s", box, name, category, priority)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// priorityMarker returns a short marker for the given priority.
func priorityMarker(p string) string {
	switch p {
	case model.PriorityHigh:
		return "!!"
	case model.PriorityLow:
		return "·"
	default:
		return "!"
	}
}

// Model is the item view for one open grocery list.
type Model struct {
	list   list.Model
	coord  *appsync.Coordinator
	keys   *keys.KeyMap
	listID string
	title  string
	err    error
	width  int
	height int
}

// New creates a new item list model.
func New(coord *appsync.Coordinator, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
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

// Open points the view at a list and returns the load command.
func (m *Model) Open(listID, title string) tea.Cmd {
	m.listID = listID
	m.title = title
	m.list.Title = title
	return m.LoadItems()
}

// ListID returns the ID of the currently open list.
func (m Model) ListID() string {
	return m.listID
}

// Update handles messages for the item view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ItemsLoadedMsg:
		if msg.ListID != m.listID {
			return m, nil
		}
		m.err = msg.Err
		items := msg.Items
		model.SortItems(items)
		entries := make([]list.Item, len(items))
		for i, it := range items {
			entries[i] = itemEntry{Item: it}
		}
		cmd := m.list.SetItems(entries)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Toggle):
			entry, ok := m.list.SelectedItem().(itemEntry)
			if !ok {
				return m, nil
			}
			return m, m.toggle(entry.Item)

		case key.Matches(msg, m.keys.AddItem):
			return m, func() tea.Msg {
				return AddItemMsg{ListID: m.listID}
			}

		case key.Matches(msg, m.keys.EditItem):
			entry, ok := m.list.SelectedItem().(itemEntry)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return EditItemMsg{Item: entry.Item}
			}

		case key.Matches(msg, m.keys.DeleteItem):
			entry, ok := m.list.SelectedItem().(itemEntry)
			if !ok {
				return m, nil
			}
			return m, m.deleteItem(entry.Item)

		case key.Matches(msg, m.keys.Import):
			return m, func() tea.Msg {
				return ImportMsg{ListID: m.listID}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// toggle returns a command that flips the checked flag of an item.
// The optimistic apply happens inside the coordinator, so the reload
// after this command reflects the change immediately.
func (m Model) toggle(item model.GroceryListItem) tea.Cmd {
	coord := m.coord
	listID := m.listID
	return tea.Sequence(
		func() tea.Msg {
			_, err := coord.ToggleItemChecked(
				context.Background(), listID, item.ID, !item.IsChecked,
			)
			return ToggledMsg{Err: err}
		},
		m.LoadItems(),
	)
}

// deleteItem returns a command that deletes an item.
func (m Model) deleteItem(item model.GroceryListItem) tea.Cmd {
	coord := m.coord
	listID := m.listID
	return tea.Sequence(
		func() tea.Msg {
			err := coord.DeleteItem(context.Background(), listID, item.ID)
			return DeletedMsg{Err: err}
		},
		m.LoadItems(),
	)
}

// View renders the item view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the list has no items.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.err != nil {
		return style.Render(
			"Could not load items.\n\n" + m.err.Error() +
				"\n\nPress 'r' to retry.",
		)
	}

	return style.Render(
		"This list is empty.\n\n" +
			"Press 'a' to add an item, or 'i' to import from email.",
	)
}

// LoadItems returns a tea.Cmd that loads the open list's items.
func (m Model) LoadItems() tea.Cmd {
	coord := m.coord
	listID := m.listID
	return func() tea.Msg {
		items, err := coord.Items(context.Background(), listID)
		return ItemsLoadedMsg{ListID: listID, Items: items, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
