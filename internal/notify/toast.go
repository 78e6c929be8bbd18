// Package notify delivers toast notifications from the mutation layer
// to whoever is listening, normally the TUI.
package notify

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mquan/grocery-planner/internal/model"
)

// ToastMsg is a tea.Msg carrying a toast to the UI.
type ToastMsg struct {
	Toast model.Toast
}

// Notifier receives toasts emitted by completed operations.
type Notifier interface {
	Toast(t model.Toast)
}

// Hub is a channel-backed Notifier that feeds toasts into the Bubble
// Tea runtime. Sends never block: if the UI falls behind, older
// undelivered toasts are dropped.
type Hub struct {
	ch chan model.Toast
}

// NewHub creates a Hub with a small delivery buffer.
func NewHub() *Hub {
	return &Hub{ch: make(chan model.Toast, 16)}
}

// Toast queues a toast for delivery without blocking.
func (h *Hub) Toast(t model.Toast) {
	select {
	case h.ch <- t:
	default:
		// Drop if the buffer is full to avoid blocking the caller
	}
}

// WaitForToast returns a tea.Cmd that waits for the next toast. After
// handling a ToastMsg the app should call WaitForToast again to keep
// listening.
func (h *Hub) WaitForToast() tea.Cmd {
	return func() tea.Msg {
		t, ok := <-h.ch
		if !ok {
			return nil
		}
		return ToastMsg{Toast: t}
	}
}

// Recorder is a Notifier that appends every toast to a slice, used in
// tests to assert on emitted notifications.
type Recorder struct {
	Toasts []model.Toast
}

// Toast records the toast.
func (r *Recorder) Toast(t model.Toast) {
	r.Toasts = append(r.Toasts, t)
}
