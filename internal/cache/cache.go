// Package cache implements the client-side query cache backing the
// grocery views. Entries are addressed by hierarchical keys and carry
// a tagged state: confirmed server data, or a pending speculative
// value holding a rollback snapshot of the prior confirmed entry.
package cache

import (
	"sync"
	"time"
)

// entryState tags the lifecycle state of a cache entry.
type entryState int

const (
	// stateConfirmed marks data acknowledged by the server.
	stateConfirmed entryState = iota

	// statePending marks a speculative value applied optimistically
	// ahead of server confirmation.
	statePending
)

// snapshot captures an entry (or its absence) so a failed mutation can
// restore the exact pre-mutation state.
type snapshot struct {
	existed bool
	ent     entry
}

// entry is a single cached value plus its freshness and error state.
type entry struct {
	state     entryState
	value     interface{}
	fetchedAt time.Time
	fetchErr  error
}

// Cache is an explicitly constructed query cache. It is safe for
// concurrent use and holds no package-level state; construct one per
// session and drop it on logout.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	staleAfter time.Duration
	now        func() time.Time
}

// Option customizes cache construction.
type Option func(*Cache)

// WithClock overrides the time source, used by tests to control
// staleness without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache whose entries become stale after the given
// duration. A non-positive staleAfter falls back to five minutes.
func New(staleAfter time.Duration, opts ...Option) *Cache {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	c := &Cache{
		entries:    make(map[string]entry),
		staleAfter: staleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key. ok reports whether a value is
// present; stale reports whether the value has outlived the staleness
// window and should be revalidated in the background. Stale values are
// still returned: the caller keeps rendering them while a refresh runs.
func (c *Cache) Get(key string) (value interface{}, ok bool, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, found := c.entries[key]
	if !found || ent.value == nil {
		return nil, false, false
	}

	// Pending entries are never reported stale; a mutation is already
	// in flight for them.
	if ent.state == statePending {
		return ent.value, true, false
	}

	stale = c.now().Sub(ent.fetchedAt) > c.staleAfter
	return ent.value, true, stale
}

// FetchError returns the recorded fetch error for key, or nil. A fetch
// error coexists with any previously cached value rather than
// replacing it.
func (c *Cache) FetchError(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key].fetchErr
}

// SetConfirmed stores server-acknowledged data under key, stamps it
// fresh, and clears any fetch error.
func (c *Cache) SetConfirmed(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		state:     stateConfirmed,
		value:     value,
		fetchedAt: c.now(),
	}
}

// SetFetchError records a failed read for key. The existing value, if
// any, is kept so the UI can keep showing the last known data next to
// the error state.
func (c *Cache) SetFetchError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent := c.entries[key]
	ent.fetchErr = err
	c.entries[key] = ent
}

// Invalidate removes the entry stored under key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidatePrefix removes the entry at prefix and every entry beneath
// it in the key hierarchy.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if hasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Mutation tracks the snapshots taken for one optimistic write so the
// commit/rollback decision applies to every touched key at once.
type Mutation struct {
	c     *Cache
	snaps map[string]snapshot
	done  bool
}

// Begin starts a mutation over the given keys. Each key's current
// entry (or absence) is snapshotted; staged values become visible to
// readers immediately and are discarded wholesale on rollback.
func (c *Cache) Begin(keys ...string) *Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := &Mutation{
		c:     c,
		snaps: make(map[string]snapshot, len(keys)),
	}
	for _, key := range keys {
		ent, existed := c.entries[key]
		m.snaps[key] = snapshot{existed: existed, ent: ent}
	}
	return m
}

// Stage applies a speculative value for key. The key must be one the
// mutation was begun with; staging an untracked key snapshots it
// first so rollback stays complete.
func (m *Mutation) Stage(key string, speculative interface{}) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()

	if _, tracked := m.snaps[key]; !tracked {
		ent, existed := m.c.entries[key]
		m.snaps[key] = snapshot{existed: existed, ent: ent}
	}

	prev := m.c.entries[key]
	m.c.entries[key] = entry{
		state:     statePending,
		value:     speculative,
		fetchedAt: prev.fetchedAt,
	}
}

// Commit finalizes the mutation. Keys present in values are stored as
// confirmed authoritative data; staged keys absent from values keep
// their speculative value, also marked confirmed. Commit after a
// completed mutation is a no-op.
func (m *Mutation) Commit(values map[string]interface{}) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()

	if m.done {
		return
	}
	m.done = true

	now := m.c.now()
	for key := range m.snaps {
		ent, found := m.c.entries[key]
		if v, ok := values[key]; ok {
			ent = entry{state: stateConfirmed, value: v, fetchedAt: now}
		} else if found && ent.state == statePending {
			ent.state = stateConfirmed
			ent.fetchedAt = now
		} else if !found {
			continue
		}
		m.c.entries[key] = ent
	}
	for key, v := range values {
		if _, tracked := m.snaps[key]; !tracked {
			m.c.entries[key] = entry{
				state:     stateConfirmed,
				value:     v,
				fetchedAt: now,
			}
		}
	}
}

// Rollback restores every snapshotted entry to its exact pre-mutation
// state. Rollback after a completed mutation is a no-op.
func (m *Mutation) Rollback() {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()

	if m.done {
		return
	}
	m.done = true

	for key, snap := range m.snaps {
		if snap.existed {
			m.c.entries[key] = snap.ent
		} else {
			delete(m.c.entries, key)
		}
	}
}
