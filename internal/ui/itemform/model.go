package itemform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/model"
	"github.com/mquan/grocery-planner/internal/theme"
)

// ItemSubmittedMsg is dispatched when a new item is submitted via the form.
type ItemSubmittedMsg struct {
	ListID string
	Input  api.ItemInput
}

// ItemEditedMsg is dispatched when an existing item is edited via the form.
type ItemEditedMsg struct {
	ListID  string
	ItemID  string
	Updates api.ItemUpdates
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	category string
	quantity string
	unit     string
	priority string
}

// Model is the Bubble Tea model for the item create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	listID   string
	editID   string
	width    int
	height   int
}

// New creates a new item form model.
func New(width, height int) Model {
	return Model{
		fb: &formBindings{
			category: model.CategoryOther,
			priority: model.PriorityMedium,
			quantity: "1",
		},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for adding a new item to a list.
func (m *Model) StartCreate(listID string) tea.Cmd {
	m.editMode = false
	m.listID = listID
	m.editID = ""
	m.fb.name = ""
	m.fb.category = model.CategoryOther
	m.fb.quantity = "1"
	m.fb.unit = ""
	m.fb.priority = model.PriorityMedium
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing item.
func (m *Model) StartEdit(item model.GroceryListItem) tea.Cmd {
	m.editMode = true
	m.listID = item.GroceryListID
	m.editID = item.ID
	m.fb.name = item.Name
	m.fb.category = item.Category
	m.fb.quantity = strconv.FormatFloat(item.Quantity, 'f', -1, 64)
	m.fb.unit = item.Unit
	m.fb.priority = item.Priority
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the item form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the item form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Add Item"
	if m.editMode {
		titleText = "Edit Item"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	categoryOpts := make([]huh.Option[string], len(model.Categories))
	for i, c := range model.Categories {
		categoryOpts[i] = huh.NewOption(capitalize(c), c)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("e.g. chicken breast").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOpts...).
				Value(&m.fb.category),
			huh.NewInput().
				Title("Quantity").
				Placeholder("1").
				Value(&m.fb.quantity).
				Validate(validateQuantity),
			huh.NewInput().
				Title("Unit").
				Placeholder("lb, oz, pcs... (optional)").
				Value(&m.fb.unit),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("High", model.PriorityHigh),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("Low", model.PriorityLow),
				).
				Value(&m.fb.priority),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	quantity, err := strconv.ParseFloat(strings.TrimSpace(m.fb.quantity), 64)
	if err != nil || quantity <= 0 {
		quantity = 1
	}

	if m.editMode {
		name := m.fb.name
		category := m.fb.category
		unit := m.fb.unit
		priority := m.fb.priority
		updates := api.ItemUpdates{
			Name:     &name,
			Category: &category,
			Quantity: &quantity,
			Unit:     &unit,
			Priority: &priority,
		}
		listID, itemID := m.listID, m.editID
		return func() tea.Msg {
			return ItemEditedMsg{
				ListID:  listID,
				ItemID:  itemID,
				Updates: updates,
			}
		}
	}

	input := api.ItemInput{
		Name:     m.fb.name,
		Category: m.fb.category,
		Quantity: quantity,
		Unit:     m.fb.unit,
		Priority: m.fb.priority,
	}
	listID := m.listID
	return func() tea.Msg {
		return ItemSubmittedMsg{ListID: listID, Input: input}
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// capitalize upper-cases the first letter of an option label.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// validateRequired returns a validator that rejects empty values.
func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

// validateQuantity accepts empty input (defaults to 1) or a positive number.
func validateQuantity(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || q <= 0 {
		return fmt.Errorf("quantity must be a positive number")
	}
	return nil
}
