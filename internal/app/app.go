package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/cache"
	"github.com/mquan/grocery-planner/internal/importer/email"
	"github.com/mquan/grocery-planner/internal/keys"
	"github.com/mquan/grocery-planner/internal/model"
	"github.com/mquan/grocery-planner/internal/notify"
	appsync "github.com/mquan/grocery-planner/internal/sync"
	"github.com/mquan/grocery-planner/internal/theme"
	"github.com/mquan/grocery-planner/internal/ui"
	helpview "github.com/mquan/grocery-planner/internal/ui/help"
	"github.com/mquan/grocery-planner/internal/ui/itemform"
	"github.com/mquan/grocery-planner/internal/ui/itemlist"
	"github.com/mquan/grocery-planner/internal/ui/listbrowser"
	"github.com/mquan/grocery-planner/internal/ui/listform"
)

// toastLifetime is how long a toast stays visible in the status bar.
const toastLifetime = 4 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBrowser ViewState = iota
	ViewItems
	ViewItemForm
	ViewListForm
	ViewHelp
)

// mutationDoneMsg is sent after a fire-and-forget mutation completes.
// The coordinator has already updated the cache and emitted a toast.
type mutationDoneMsg struct {
	err error
}

// importDoneMsg is sent after an email import run finishes.
type importDoneMsg struct {
	added int
	err   error
}

// toastExpiredMsg clears a displayed toast once its lifetime passes.
type toastExpiredMsg struct {
	seq int
}

// Model is the root Bubble Tea model that manages view routing, layout,
// the background revalidator, and toast delivery.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	coord    *appsync.Coordinator
	reval    *appsync.Revalidator
	hub      *notify.Hub
	importer *email.Importer

	browser  listbrowser.Model
	items    itemlist.Model
	itemForm itemform.Model
	listForm listform.Model
	helpView helpview.Model

	toast    *model.Toast
	toastSeq int
	ready    bool
}

// New creates the root application model. The importer may be nil when
// no mailbox is configured; the import key then reports that.
func New(
	coord *appsync.Coordinator,
	reval *appsync.Revalidator,
	hub *notify.Hub,
	importer *email.Importer,
) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewBrowser,
		keys:        k,
		coord:       coord,
		reval:       reval,
		hub:         hub,
		importer:    importer,
		browser:     listbrowser.New(coord, k, 80, 24),
		items:       itemlist.New(coord, k, 80, 24),
		itemForm:    itemform.New(80, 24),
		listForm:    listform.New(coord, 80, 24),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init loads the list browser, starts the revalidator, and subscribes
// to toast delivery.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.browser.Init(),
		m.reval.Start(),
		m.hub.WaitForToast(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.browser.SetSize(w, h)
		m.items.SetSize(w, h)
		m.itemForm.SetSize(w, h)
		m.listForm.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case notify.ToastMsg:
		t := msg.Toast
		m.toast = &t
		m.toastSeq++
		seq := m.toastSeq
		expire := tea.Tick(toastLifetime, func(time.Time) tea.Msg {
			return toastExpiredMsg{seq: seq}
		})
		return m, tea.Batch(m.hub.WaitForToast(), expire)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case appsync.RefreshedMsg:
		// A background refresh finished; reload whichever view shows
		// the refreshed key, then keep listening.
		var reload tea.Cmd
		switch msg.Key {
		case cache.ListsKey():
			reload = m.browser.LoadLists()
		case cache.ItemsKey(m.items.ListID()):
			reload = m.items.LoadItems()
		}
		return m, tea.Batch(reload, m.reval.WaitForNextResult())

	case listbrowser.ListsLoadedMsg:
		var cmd tea.Cmd
		m.browser, cmd = m.browser.Update(msg)
		return m, cmd

	case itemlist.ItemsLoadedMsg:
		var cmd tea.Cmd
		m.items, cmd = m.items.Update(msg)
		return m, cmd

	case listbrowser.SelectedListMsg:
		m.previousView = m.currentView
		m.currentView = ViewItems
		m.reval.Watch(msg.List.ID)
		return m, m.items.Open(msg.List.ID, msg.List.Name)

	case listbrowser.DeleteListMsg:
		return m, m.deleteList(msg.ListID)

	case listbrowser.RenameListMsg:
		m.previousView = m.currentView
		m.currentView = ViewListForm
		return m, m.listForm.StartRename(msg.List)

	case itemlist.AddItemMsg:
		m.previousView = m.currentView
		m.currentView = ViewItemForm
		return m, m.itemForm.StartCreate(msg.ListID)

	case itemlist.EditItemMsg:
		m.previousView = m.currentView
		m.currentView = ViewItemForm
		return m, m.itemForm.StartEdit(msg.Item)

	case itemlist.ImportMsg:
		return m, m.runImport(msg.ListID)

	case itemlist.ToggledMsg, itemlist.DeletedMsg:
		// The coordinator already toasted and the view reloads itself.
		return m, m.browser.LoadLists()

	case itemform.ItemSubmittedMsg:
		m.currentView = ViewItems
		return m, m.addItem(msg.ListID, msg.Input)

	case itemform.ItemEditedMsg:
		m.currentView = ViewItems
		return m, m.updateItem(msg.ListID, msg.ItemID, msg.Updates)

	case itemform.CancelMsg:
		m.currentView = ViewItems
		return m, nil

	case listform.ListSubmittedMsg:
		m.currentView = ViewBrowser
		return m, m.createList(msg.Name)

	case listform.ListRenamedMsg:
		m.currentView = ViewBrowser
		return m, m.renameList(msg.ListID, msg.Name)

	case listform.GenerateSubmittedMsg:
		m.currentView = ViewBrowser
		return m, m.generateList(msg.MealPlanID, msg.ListName)

	case listform.MealPlansLoadedMsg:
		var cmd tea.Cmd
		m.listForm, cmd = m.listForm.Update(msg)
		return m, cmd

	case listform.CancelMsg:
		m.currentView = ViewBrowser
		return m, nil

	case mutationDoneMsg:
		// Errors are already surfaced as toasts; reload both views so
		// rollbacks and confirmations are reflected everywhere.
		return m, tea.Batch(m.browser.LoadLists(), m.reloadOpenItems())

	case importDoneMsg:
		return m, m.reloadOpenItems()

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey handles keys that are routed by the root model rather
// than the active view. The second return reports whether the key was
// consumed.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// Never steal keystrokes from a form.
	inForm := m.currentView == ViewItemForm || m.currentView == ViewListForm

	switch msg.String() {
	case "ctrl+c":
		m.reval.Stop()
		return tea.Quit, true

	case "q":
		if m.currentView == ViewBrowser {
			m.reval.Stop()
			return tea.Quit, true
		}

	case "?":
		if inForm {
			break
		}
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case "esc":
		switch m.currentView {
		case ViewItems:
			m.currentView = ViewBrowser
			m.reval.Watch("")
			return m.browser.LoadLists(), true
		case ViewHelp:
			m.currentView = m.previousView
			return nil, true
		}

	case "r":
		if m.currentView == ViewBrowser || m.currentView == ViewItems {
			m.reval.RefreshAll()
			if m.currentView == ViewItems {
				return m.items.LoadItems(), true
			}
			return m.browser.LoadLists(), true
		}

	case "n":
		if m.currentView == ViewBrowser {
			m.previousView = m.currentView
			m.currentView = ViewListForm
			return m.listForm.StartCreate(), true
		}

	case "g":
		if m.currentView == ViewBrowser {
			m.previousView = m.currentView
			m.currentView = ViewListForm
			return m.listForm.StartGenerate(), true
		}
	}

	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBrowser:
		m.browser, cmd = m.browser.Update(msg)
	case ViewItems:
		m.items, cmd = m.items.Update(msg)
	case ViewItemForm:
		m.itemForm, cmd = m.itemForm.Update(msg)
	case ViewListForm:
		m.listForm, cmd = m.listForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Grocery Planner", m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.renderToast())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBrowser:
		return m.browser.View()
	case ViewItems:
		return m.items.View()
	case ViewItemForm:
		return m.itemForm.View()
	case ViewListForm:
		return m.listForm.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// renderToast renders the active toast for the status bar, if any.
func (m Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	if m.toast.Variant == model.ToastVariantDestructive {
		return theme.ToastErrorStyle.Render(
			m.toast.Title + ": " + m.toast.Description,
		)
	}
	return theme.ToastSuccessStyle.Render(m.toast.Description)
}

// syncStatus returns a short string describing the revalidator state.
func (m Model) syncStatus() string {
	status := m.reval.Status()
	switch status.State {
	case appsync.RevalidateRunning:
		return "syncing"
	case appsync.RevalidateError:
		return "⚠ offline"
	default:
		if status.LastSync.IsZero() {
			return "idle"
		}
		return "synced " + relativeDuration(time.Since(status.LastSync))
	}
}

// relativeDuration formats a duration for the header sync status.
func relativeDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewItems:
		return "space toggle | a add | e edit | d delete | i import | esc back"
	case ViewItemForm, ViewListForm:
		return "enter submit | esc cancel"
	case ViewHelp:
		return "? close help"
	default:
		return "enter open | n new | g generate | R rename | D delete | r refresh | ? help | q quit"
	}
}

// reloadOpenItems reloads the item view when a list is open.
func (m Model) reloadOpenItems() tea.Cmd {
	if m.items.ListID() == "" {
		return nil
	}
	return m.items.LoadItems()
}

// createList returns a command that creates a new grocery list.
func (m Model) createList(name string) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		_, err := coord.CreateList(context.Background(), name)
		return mutationDoneMsg{err: err}
	}
}

// renameList returns a command that renames a grocery list.
func (m Model) renameList(listID, name string) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		_, err := coord.UpdateList(
			context.Background(), listID, api.ListUpdates{Name: &name},
		)
		return mutationDoneMsg{err: err}
	}
}

// deleteList returns a command that deletes a grocery list.
func (m Model) deleteList(listID string) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		err := coord.DeleteList(context.Background(), listID)
		return mutationDoneMsg{err: err}
	}
}

// generateList returns a command that generates a list from a meal plan.
func (m Model) generateList(mealPlanID, listName string) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		_, err := coord.GenerateFromMealPlan(
			context.Background(), mealPlanID, listName,
		)
		return mutationDoneMsg{err: err}
	}
}

// addItem returns a command that adds an item to a list.
func (m Model) addItem(listID string, input api.ItemInput) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		_, err := coord.AddItem(context.Background(), listID, input)
		return mutationDoneMsg{err: err}
	}
}

// updateItem returns a command that applies edits to an item.
func (m Model) updateItem(listID, itemID string, updates api.ItemUpdates) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		_, err := coord.UpdateItem(
			context.Background(), listID, itemID, updates,
		)
		return mutationDoneMsg{err: err}
	}
}

// runImport returns a command that imports items from the configured
// mailbox into the given list.
func (m Model) runImport(listID string) tea.Cmd {
	importer := m.importer
	hub := m.hub
	if importer == nil {
		return func() tea.Msg {
			hub.Toast(model.ErrorToast("Email import is not configured"))
			return importDoneMsg{}
		}
	}
	return func() tea.Msg {
		added, err := importer.ImportInto(context.Background(), listID)
		if err == nil {
			hub.Toast(model.SuccessToast(
				fmt.Sprintf("Imported %d items from email", added),
			))
		}
		return importDoneMsg{added: added, err: err}
	}
}
