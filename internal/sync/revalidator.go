package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mquan/grocery-planner/internal/cache"
)

// RevalidateState represents the current state of the background
// revalidation loop.
type RevalidateState int

const (
	RevalidateIdle RevalidateState = iota
	RevalidateRunning
	RevalidateError
)

// RevalidateStatus holds the current state of the revalidator for
// display in the header.
type RevalidateStatus struct {
	State    RevalidateState
	LastSync time.Time
	Error    error
}

// RefreshedMsg is a tea.Msg sent when a background refresh completes.
type RefreshedMsg struct {
	Key   string
	Error error
}

// refreshTimeout bounds a single background refresh pass.
const refreshTimeout = 30 * time.Second

// Revalidator re-runs queries whose cache entries have gone stale,
// keeping the views fresh without blocking the UI.
type Revalidator struct {
	coord    *Coordinator
	cache    *cache.Cache
	interval time.Duration

	resultCh  chan RefreshedMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	watched string
	running bool
	status  RevalidateStatus
}

// NewRevalidator creates a revalidator that wakes at the given
// interval. A non-positive interval falls back to one minute.
func NewRevalidator(
	coord *Coordinator,
	c *cache.Cache,
	interval time.Duration,
) *Revalidator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Revalidator{
		coord:     coord,
		cache:     c,
		interval:  interval,
		resultCh:  make(chan RefreshedMsg, 16),
		triggerCh: make(chan struct{}, 16),
		stopCh:    make(chan struct{}),
	}
}

// Watch marks a list as currently open so its items are included in
// revalidation passes. An empty ID clears the watch.
func (r *Revalidator) Watch(listID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watched = listID
}

// Start launches the revalidation loop and returns a command that
// subscribes to its results.
func (r *Revalidator) Start() tea.Cmd {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	go r.loop()

	return r.waitForResult()
}

// Stop halts the revalidation loop.
func (r *Revalidator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	close(r.stopCh)
	r.running = false
}

// RefreshAll triggers an immediate revalidation pass.
func (r *Revalidator) RefreshAll() tea.Cmd {
	select {
	case r.triggerCh <- struct{}{}:
	default:
		// Channel full; a pass is already queued
	}
	return nil
}

// Status returns the current revalidation status.
func (r *Revalidator) Status() RevalidateStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// loop runs revalidation passes on a ticker and on manual triggers.
func (r *Revalidator) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.pass(false)
		case <-r.triggerCh:
			r.pass(true)
		}
	}
}

// pass refreshes the lists collection and the watched list when their
// entries are stale. A forced pass refreshes regardless of staleness.
func (r *Revalidator) pass(force bool) {
	r.setState(RevalidateRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	var lastErr error

	if force || r.isStale(cache.ListsKey()) {
		_, err := r.coord.refreshLists(ctx)
		lastErr = err
		r.sendResult(RefreshedMsg{Key: cache.ListsKey(), Error: err})
	}

	r.mu.Lock()
	watched := r.watched
	r.mu.Unlock()

	if watched != "" && (force || r.isStale(cache.ItemsKey(watched))) {
		_, err := r.coord.refreshList(ctx, watched)
		if err != nil {
			lastErr = err
		}
		r.sendResult(RefreshedMsg{Key: cache.ItemsKey(watched), Error: err})
	}

	if lastErr != nil {
		r.setState(RevalidateError, lastErr)
		return
	}
	r.setState(RevalidateIdle, nil)
}

// isStale reports whether the entry under key is present and stale, or
// absent entirely.
func (r *Revalidator) isStale(key string) bool {
	_, ok, stale := r.cache.Get(key)
	return !ok || stale
}

// setState updates the revalidation status.
func (r *Revalidator) setState(state RevalidateState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.State = state
	r.status.Error = err
	if state == RevalidateIdle && err == nil {
		r.status.LastSync = time.Now()
	}
}

// sendResult sends a RefreshedMsg without blocking.
func (r *Revalidator) sendResult(msg RefreshedMsg) {
	select {
	case r.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the loop
	}
}

// waitForResult returns a tea.Cmd that waits for the next refresh
// result from the background loop.
func (r *Revalidator) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-r.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it after processing a RefreshedMsg to keep listening.
func (r *Revalidator) WaitForNextResult() tea.Cmd {
	return r.waitForResult()
}
