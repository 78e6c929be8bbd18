package listform

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mquan/grocery-planner/internal/model"
	appsync "github.com/mquan/grocery-planner/internal/sync"
	"github.com/mquan/grocery-planner/internal/theme"
)

// ListSubmittedMsg is dispatched when a new list name is submitted.
type ListSubmittedMsg struct {
	Name string
}

// ListRenamedMsg is dispatched when an existing list is renamed.
type ListRenamedMsg struct {
	ListID string
	Name   string
}

// GenerateSubmittedMsg is dispatched when a meal plan and list name have
// been chosen for generation.
type GenerateSubmittedMsg struct {
	MealPlanID string
	ListName   string
}

// MealPlansLoadedMsg carries the meal plans available for generation.
type MealPlansLoadedMsg struct {
	Plans []model.MealPlan
	Err   error
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

type formMode int

const (
	modeCreate formMode = iota
	modeRename
	modeGenerate
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name       string
	mealPlanID string
}

// Model is the Bubble Tea model for list create, rename, and
// generate-from-meal-plan forms.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	coord   *appsync.Coordinator
	mode    formMode
	editID  string
	loadErr error
	width   int
	height  int
}

// New creates a new list form model.
func New(coord *appsync.Coordinator, width, height int) Model {
	return Model{
		fb:     &formBindings{},
		coord:  coord,
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for creating a new list.
func (m *Model) StartCreate() tea.Cmd {
	m.mode = modeCreate
	m.editID = ""
	m.fb.name = defaultListName()
	m.form = m.buildNameForm("New Grocery List")
	return m.form.Init()
}

// StartRename initializes the form for renaming an existing list.
func (m *Model) StartRename(list model.GroceryList) tea.Cmd {
	m.mode = modeRename
	m.editID = list.ID
	m.fb.name = list.Name
	m.form = m.buildNameForm("Rename List")
	return m.form.Init()
}

// StartGenerate kicks off loading meal plans; the form is built once
// MealPlansLoadedMsg arrives.
func (m *Model) StartGenerate() tea.Cmd {
	m.mode = modeGenerate
	m.editID = ""
	m.fb.name = defaultListName()
	m.fb.mealPlanID = ""
	m.form = nil
	m.loadErr = nil

	coord := m.coord
	return func() tea.Msg {
		plans, err := coord.MealPlans(context.Background())
		return MealPlansLoadedMsg{Plans: plans, Err: err}
	}
}

// Update handles messages for the list form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(MealPlansLoadedMsg); ok && m.mode == modeGenerate {
		if msg.Err != nil {
			m.loadErr = msg.Err
			return m, nil
		}
		m.form = m.buildGenerateForm(msg.Plans)
		return m, m.form.Init()
	}

	if m.form == nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			return m, func() tea.Msg { return CancelMsg{} }
		}
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

// View renders the list form.
func (m Model) View() string {
	if m.form == nil {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)

		if m.loadErr != nil {
			return style.Render(
				"Could not load meal plans.\n\n" + m.loadErr.Error() +
					"\n\nPress esc to go back.",
			)
		}
		return style.Render("Loading meal plans...")
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildNameForm(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("e.g. Weekly Shopping").
				Value(&m.fb.name).
				Validate(validateName),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildGenerateForm(plans []model.MealPlan) *huh.Form {
	opts := make([]huh.Option[string], len(plans))
	for i, p := range plans {
		label := p.Name
		if p.Days > 0 {
			label = fmt.Sprintf("%s (%d days)", p.Name, p.Days)
		}
		opts[i] = huh.NewOption(label, p.ID)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Meal Plan").
				Options(opts...).
				Value(&m.fb.mealPlanID),
			huh.NewInput().
				Title("List Name").
				Placeholder("e.g. Weekly Shopping").
				Value(&m.fb.name).
				Validate(validateName),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	name := strings.TrimSpace(m.fb.name)

	switch m.mode {
	case modeRename:
		listID := m.editID
		return func() tea.Msg {
			return ListRenamedMsg{ListID: listID, Name: name}
		}
	case modeGenerate:
		planID := m.fb.mealPlanID
		return func() tea.Msg {
			return GenerateSubmittedMsg{MealPlanID: planID, ListName: name}
		}
	default:
		return func() tea.Msg {
			return ListSubmittedMsg{Name: name}
		}
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
	if h < 8 {
		h = 8
	}
	return h
}

// defaultListName suggests a name based on the current week.
func defaultListName() string {
	return "Groceries " + time.Now().Format("Jan 2")
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
