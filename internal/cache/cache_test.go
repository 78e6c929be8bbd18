package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is a controllable time source.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache() (*Cache, *testClock) {
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(5*time.Minute, WithClock(clock.now)), clock
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache()

	v, ok, stale := c.Get("grocery-lists")
	assert.Nil(t, v)
	assert.False(t, ok)
	assert.False(t, stale)
}

func TestConfirmedValueFreshThenStale(t *testing.T) {
	c, clock := newTestCache()
	c.SetConfirmed("grocery-lists", "lists")

	v, ok, stale := c.Get("grocery-lists")
	require.True(t, ok)
	assert.Equal(t, "lists", v)
	assert.False(t, stale)

	// Exactly at the boundary the value is still fresh.
	clock.advance(5 * time.Minute)
	_, ok, stale = c.Get("grocery-lists")
	assert.True(t, ok)
	assert.False(t, stale)

	clock.advance(time.Second)
	v, ok, stale = c.Get("grocery-lists")
	assert.True(t, ok)
	assert.True(t, stale)
	assert.Equal(t, "lists", v, "stale values are still served")
}

func TestPendingEntriesAreNeverStale(t *testing.T) {
	c, clock := newTestCache()
	c.SetConfirmed("grocery-lists", "old")

	mut := c.Begin("grocery-lists")
	mut.Stage("grocery-lists", "speculative")

	clock.advance(time.Hour)
	v, ok, stale := c.Get("grocery-lists")
	require.True(t, ok)
	assert.Equal(t, "speculative", v)
	assert.False(t, stale, "a mutation is already in flight")
	mut.Rollback()
}

func TestFetchErrorCoexistsWithValue(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed("grocery-lists", "lists")

	fetchErr := errors.New("network down")
	c.SetFetchError("grocery-lists", fetchErr)

	v, ok, _ := c.Get("grocery-lists")
	assert.True(t, ok)
	assert.Equal(t, "lists", v, "the last known value survives a failed refresh")
	assert.Equal(t, fetchErr, c.FetchError("grocery-lists"))

	// A successful refresh clears the error.
	c.SetConfirmed("grocery-lists", "fresh")
	assert.NoError(t, c.FetchError("grocery-lists"))
}

func TestInvalidatePrefixRemovesSubtree(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed(ListsKey(), "all")
	c.SetConfirmed(ListKey("l1"), "one")
	c.SetConfirmed(ItemsKey("l1"), "items")
	c.SetConfirmed(MealPlansKey(), "plans")

	c.InvalidatePrefix(ListsKey())

	_, ok, _ := c.Get(ListsKey())
	assert.False(t, ok)
	_, ok, _ = c.Get(ListKey("l1"))
	assert.False(t, ok)
	_, ok, _ = c.Get(ItemsKey("l1"))
	assert.False(t, ok)

	_, ok, _ = c.Get(MealPlansKey())
	assert.True(t, ok, "unrelated keys are untouched")
}

func TestInvalidatePrefixMatchesSegments(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed("grocery-lists", "a")
	c.SetConfirmed("grocery-listsextra", "b")

	c.InvalidatePrefix("grocery-lists")

	_, ok, _ := c.Get("grocery-listsextra")
	assert.True(t, ok, "prefix matching respects key segment boundaries")
}

func TestCommitStoresAuthoritativeValues(t *testing.T) {
	c, clock := newTestCache()
	c.SetConfirmed("grocery-lists", "old")

	mut := c.Begin("grocery-lists")
	mut.Stage("grocery-lists", "speculative")
	clock.advance(10 * time.Minute)
	mut.Commit(map[string]interface{}{
		"grocery-lists":         "server",
		"grocery-lists/list/l1": "detail",
	})

	v, ok, stale := c.Get("grocery-lists")
	require.True(t, ok)
	assert.Equal(t, "server", v)
	assert.False(t, stale, "committed values are stamped fresh")

	v, ok, _ = c.Get("grocery-lists/list/l1")
	require.True(t, ok, "untracked keys in the commit set are stored too")
	assert.Equal(t, "detail", v)
}

func TestCommitKeepsStagedValueWhenNotOverridden(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed("grocery-lists", "old")

	mut := c.Begin("grocery-lists")
	mut.Stage("grocery-lists", "speculative")
	mut.Commit(nil)

	v, ok, stale := c.Get("grocery-lists")
	require.True(t, ok)
	assert.Equal(t, "speculative", v)
	assert.False(t, stale)
}

func TestRollbackRestoresExactPriorState(t *testing.T) {
	c, clock := newTestCache()
	c.SetConfirmed("grocery-lists", "old")
	fetchedAt := clock.t

	clock.advance(2 * time.Minute)
	mut := c.Begin("grocery-lists")
	mut.Stage("grocery-lists", "speculative")
	mut.Stage("grocery-lists/items/l1", "new-items")
	mut.Rollback()

	v, ok, _ := c.Get("grocery-lists")
	require.True(t, ok)
	assert.Equal(t, "old", v)

	c.mu.Lock()
	ent := c.entries["grocery-lists"]
	c.mu.Unlock()
	assert.Equal(t, fetchedAt, ent.fetchedAt, "the original fetch time survives")

	_, ok, _ = c.Get("grocery-lists/items/l1")
	assert.False(t, ok, "keys absent before the mutation are absent after rollback")
}

func TestRollbackAfterCommitIsNoop(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed("grocery-lists", "old")

	mut := c.Begin("grocery-lists")
	mut.Stage("grocery-lists", "speculative")
	mut.Commit(map[string]interface{}{"grocery-lists": "server"})
	mut.Rollback()

	v, _, _ := c.Get("grocery-lists")
	assert.Equal(t, "server", v)
}

func TestCommitAfterRollbackIsNoop(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed("grocery-lists", "old")

	mut := c.Begin("grocery-lists")
	mut.Stage("grocery-lists", "speculative")
	mut.Rollback()
	mut.Commit(map[string]interface{}{"grocery-lists": "server"})

	v, _, _ := c.Get("grocery-lists")
	assert.Equal(t, "old", v)
}

func TestStageAutoSnapshotsUntrackedKeys(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed("grocery-lists/items/l1", "items")

	mut := c.Begin("grocery-lists")
	mut.Stage("grocery-lists/items/l1", "speculative")
	mut.Rollback()

	v, ok, _ := c.Get("grocery-lists/items/l1")
	require.True(t, ok)
	assert.Equal(t, "items", v)
}

func TestOverlappingMutationsLastCommitWins(t *testing.T) {
	c, _ := newTestCache()
	c.SetConfirmed("grocery-lists", "base")

	first := c.Begin("grocery-lists")
	first.Stage("grocery-lists", "first-speculative")

	second := c.Begin("grocery-lists")
	second.Stage("grocery-lists", "second-speculative")

	first.Commit(map[string]interface{}{"grocery-lists": "first-server"})
	second.Commit(map[string]interface{}{"grocery-lists": "second-server"})

	v, _, _ := c.Get("grocery-lists")
	assert.Equal(t, "second-server", v, "whichever response lands last wins")
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "grocery-lists", ListsKey())
	assert.Equal(t, "grocery-lists/list/l1", ListKey("l1"))
	assert.Equal(t, "grocery-lists/items/l1", ItemsKey("l1"))
	assert.Equal(t, "meal-plans", MealPlansKey())
}
