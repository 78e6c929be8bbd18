// Package sync coordinates reads and writes between the query cache,
// the grocery API, and the offline snapshot store. Writes follow a
// three-phase protocol: apply a speculative value to the cache, issue
// the network request, then either commit the authoritative server
// data or roll the cache back to its pre-mutation state.
package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/cache"
	"github.com/mquan/grocery-planner/internal/model"
	"github.com/mquan/grocery-planner/internal/notify"
)

// Success toast messages, one per write operation.
const (
	msgListCreated   = "Grocery list created successfully"
	msgListUpdated   = "Grocery list updated successfully"
	msgListDeleted   = "Grocery list deleted successfully"
	msgItemAdded     = "Item added successfully"
	msgItemUpdated   = "Item updated successfully"
	msgItemDeleted   = "Item deleted successfully"
	msgListGenerated = "Grocery list generated from meal plan"
)

// OfflineStore is the durable fallback the coordinator mirrors the
// active list into. Implementations must swallow storage failures.
type OfflineStore interface {
	SaveToLocal(list *model.GroceryList)
	LoadFromLocal() *model.GroceryList
	ClearLocal()
}

// Coordinator mediates between the cache, the API, the offline store,
// and the toast surface. It is safe for concurrent use; overlapping
// mutations on the same entity are not serialized, so whichever server
// response lands last wins, matching the server's own last-write-wins
// resolution.
type Coordinator struct {
	api     api.Service
	cache   *cache.Cache
	offline OfflineStore
	notify  notify.Notifier
	log     *zap.Logger
}

// New creates a coordinator. The offline store may be nil when no
// durable fallback is configured.
func New(
	svc api.Service,
	c *cache.Cache,
	off OfflineStore,
	n notify.Notifier,
	log *zap.Logger,
) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		api:     svc,
		cache:   c,
		offline: off,
		notify:  n,
		log:     log,
	}
}

// tempID synthesizes a client-side placeholder ID for an entity that
// has not been confirmed by the server yet.
func tempID() string {
	return "temp-" + uuid.New().String()
}

// === Queries ===

// Lists returns all grocery lists, served from cache when fresh. A
// stale cached value is returned immediately while a background
// refresh runs. On a cache miss the fetch is synchronous.
func (c *Coordinator) Lists(ctx context.Context) ([]model.GroceryList, error) {
	if v, ok, stale := c.cache.Get(cache.ListsKey()); ok {
		lists := v.([]model.GroceryList)
		if stale {
			go c.refreshLists(context.WithoutCancel(ctx))
		}
		return copySlice(lists), nil
	}

	lists, err := c.refreshLists(ctx)
	if err != nil {
		return nil, err
	}
	return copySlice(lists), nil
}

// refreshLists fetches the list collection and updates the cache,
// recording failures in the per-key error state.
func (c *Coordinator) refreshLists(ctx context.Context) ([]model.GroceryList, error) {
	lists, err := c.api.FetchGroceryLists(ctx)
	if err != nil {
		c.cache.SetFetchError(cache.ListsKey(), err)
		c.log.Warn("list fetch failed", zap.Error(err))
		return nil, err
	}

	c.cache.SetConfirmed(cache.ListsKey(), lists)
	return lists, nil
}

// List returns a single grocery list with its items. When the fetch
// fails and nothing is cached, the offline snapshot is served as a
// last resort. Successful loads refresh the offline snapshot.
func (c *Coordinator) List(ctx context.Context, id string) (*model.GroceryList, error) {
	key := cache.ListKey(id)
	if v, ok, stale := c.cache.Get(key); ok {
		list := v.(model.GroceryList)
		if stale {
			go func(ctx context.Context) { _, _ = c.refreshList(ctx, id) }(
				context.WithoutCancel(ctx),
			)
		}
		list.Items = copySlice(list.Items)
		return &list, nil
	}

	list, err := c.refreshList(ctx, id)
	if err == nil {
		out := *list
		out.Items = copySlice(out.Items)
		return &out, nil
	}

	if c.offline != nil {
		if snap := c.offline.LoadFromLocal(); snap != nil && snap.ID == id {
			c.log.Info("serving offline snapshot",
				zap.String("list_id", id),
			)
			return snap, nil
		}
	}

	return nil, err
}

// refreshList fetches one list, updates the cache and the offline
// snapshot, and records failures in the per-key error state.
func (c *Coordinator) refreshList(ctx context.Context, id string) (*model.GroceryList, error) {
	key := cache.ListKey(id)

	list, err := c.api.FetchGroceryList(ctx, id)
	if err != nil {
		c.cache.SetFetchError(key, err)
		c.log.Warn("list detail fetch failed",
			zap.String("list_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	c.cache.SetConfirmed(key, *list)
	c.cache.SetConfirmed(cache.ItemsKey(id), list.Items)
	if c.offline != nil {
		c.offline.SaveToLocal(list)
	}
	return list, nil
}

// Items returns the items of a list, served from cache when present.
func (c *Coordinator) Items(ctx context.Context, listID string) ([]model.GroceryListItem, error) {
	if v, ok, stale := c.cache.Get(cache.ItemsKey(listID)); ok {
		items := v.([]model.GroceryListItem)
		if stale {
			go func(ctx context.Context) { _, _ = c.refreshList(ctx, listID) }(
				context.WithoutCancel(ctx),
			)
		}
		return copySlice(items), nil
	}

	list, err := c.List(ctx, listID)
	if err != nil {
		return nil, err
	}
	return copySlice(list.Items), nil
}

// MealPlans returns the customer's meal plans for the generate picker.
func (c *Coordinator) MealPlans(ctx context.Context) ([]model.MealPlan, error) {
	if v, ok, _ := c.cache.Get(cache.MealPlansKey()); ok {
		return copySlice(v.([]model.MealPlan)), nil
	}

	plans, err := c.api.FetchMealPlans(ctx)
	if err != nil {
		c.cache.SetFetchError(cache.MealPlansKey(), err)
		return nil, err
	}

	c.cache.SetConfirmed(cache.MealPlansKey(), plans)
	return copySlice(plans), nil
}

// FetchError exposes the recorded fetch error for the lists collection.
func (c *Coordinator) FetchError() error {
	return c.cache.FetchError(cache.ListsKey())
}

// === Mutations ===

// copySlice returns a defensive copy of a cached slice. Query methods
// hand out copies only, so callers may reorder or rewrite the result
// without touching the stored value.
func copySlice[T any](src []T) []T {
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// cachedLists returns a copy of the cached list collection, never
// mutating the stored slice in place.
func (c *Coordinator) cachedLists() []model.GroceryList {
	v, ok, _ := c.cache.Get(cache.ListsKey())
	if !ok {
		return nil
	}
	return copySlice(v.([]model.GroceryList))
}

// cachedItems returns a copy of the cached items of a list.
func (c *Coordinator) cachedItems(listID string) []model.GroceryListItem {
	v, ok, _ := c.cache.Get(cache.ItemsKey(listID))
	if !ok {
		return nil
	}
	return copySlice(v.([]model.GroceryListItem))
}

// listPatches builds commit entries that keep a list's detail entry and
// the lists collection in step with its new items, so counts derived
// from embedded items stay current between revalidation passes.
func (c *Coordinator) listPatches(
	listID string,
	items []model.GroceryListItem,
) map[string]interface{} {
	patches := make(map[string]interface{})

	if v, ok, _ := c.cache.Get(cache.ListKey(listID)); ok {
		list := v.(model.GroceryList)
		list.Items = items
		patches[cache.ListKey(listID)] = list
	}

	if lists := c.cachedLists(); lists != nil {
		for i := range lists {
			if lists[i].ID == listID {
				lists[i].Items = items
			}
		}
		patches[cache.ListsKey()] = lists
	}

	return patches
}

// fail rolls back a mutation and emits the error toast. The toast
// description carries the error text verbatim.
func (c *Coordinator) fail(mut *cache.Mutation, err error) error {
	mut.Rollback()
	c.notify.Toast(model.ErrorToast(err.Error()))
	return err
}

// CreateList creates a new grocery list, applying an optimistic
// placeholder ahead of server confirmation.
func (c *Coordinator) CreateList(ctx context.Context, name string) (*model.GroceryList, error) {
	placeholder := model.GroceryList{
		ID:   tempID(),
		Name: name,
	}

	mut := c.cache.Begin(cache.ListsKey())
	mut.Stage(cache.ListsKey(), append(c.cachedLists(), placeholder))

	created, err := c.api.CreateGroceryList(ctx, api.ListInput{Name: name})
	if err != nil {
		return nil, c.fail(mut, err)
	}

	// Replace the placeholder with the authoritative entity exactly once.
	lists := c.cachedLists()
	for i := range lists {
		if lists[i].ID == placeholder.ID {
			lists[i] = *created
			break
		}
	}

	mut.Commit(map[string]interface{}{
		cache.ListsKey():           lists,
		cache.ListKey(created.ID):  *created,
		cache.ItemsKey(created.ID): created.Items,
	})
	c.notify.Toast(model.SuccessToast(msgListCreated))
	return created, nil
}

// UpdateList applies a partial update to a grocery list.
func (c *Coordinator) UpdateList(
	ctx context.Context,
	id string,
	updates api.ListUpdates,
) (*model.GroceryList, error) {
	listKey := cache.ListKey(id)

	mut := c.cache.Begin(cache.ListsKey(), listKey)

	lists := c.cachedLists()
	for i := range lists {
		if lists[i].ID == id {
			lists[i] = updates.Apply(lists[i])
		}
	}
	mut.Stage(cache.ListsKey(), lists)
	if v, ok, _ := c.cache.Get(listKey); ok {
		mut.Stage(listKey, updates.Apply(v.(model.GroceryList)))
	}

	updated, err := c.api.UpdateGroceryList(ctx, id, updates)
	if err != nil {
		return nil, c.fail(mut, err)
	}

	lists = c.cachedLists()
	for i := range lists {
		if lists[i].ID == id {
			lists[i] = *updated
		}
	}
	mut.Commit(map[string]interface{}{
		cache.ListsKey(): lists,
		listKey:          *updated,
	})
	c.notify.Toast(model.SuccessToast(msgListUpdated))
	return updated, nil
}

// DeleteList removes a grocery list and everything beneath it.
func (c *Coordinator) DeleteList(ctx context.Context, id string) error {
	mut := c.cache.Begin(cache.ListsKey())

	lists := c.cachedLists()
	kept := lists[:0]
	for _, l := range lists {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	mut.Stage(cache.ListsKey(), kept)

	if err := c.api.DeleteGroceryList(ctx, id); err != nil {
		return c.fail(mut, err)
	}

	mut.Commit(nil)
	c.cache.Invalidate(cache.ListKey(id))
	c.cache.Invalidate(cache.ItemsKey(id))

	if c.offline != nil {
		if snap := c.offline.LoadFromLocal(); snap != nil && snap.ID == id {
			c.offline.ClearLocal()
		}
	}

	c.notify.Toast(model.SuccessToast(msgListDeleted))
	return nil
}

// AddItem appends an item to a list, applying an optimistic
// placeholder with a temporary ID ahead of server confirmation.
func (c *Coordinator) AddItem(
	ctx context.Context,
	listID string,
	input api.ItemInput,
) (*model.GroceryListItem, error) {
	key := cache.ItemsKey(listID)
	placeholder := model.GroceryListItem{
		ID:            tempID(),
		GroceryListID: listID,
		Name:          input.Name,
		Category:      input.Category,
		Quantity:      input.Quantity,
		Unit:          input.Unit,
		Priority:      input.Priority,
	}

	mut := c.cache.Begin(key)
	mut.Stage(key, append(c.cachedItems(listID), placeholder))

	added, err := c.api.AddGroceryItem(ctx, listID, input)
	if err != nil {
		return nil, c.fail(mut, err)
	}

	items := c.cachedItems(listID)
	for i := range items {
		if items[i].ID == placeholder.ID {
			items[i] = *added
			break
		}
	}

	patches := c.listPatches(listID, items)
	patches[key] = items
	mut.Commit(patches)
	c.notify.Toast(model.SuccessToast(msgItemAdded))
	return added, nil
}

// UpdateItem applies a partial update to a single item.
func (c *Coordinator) UpdateItem(
	ctx context.Context,
	listID, itemID string,
	updates api.ItemUpdates,
) (*model.GroceryListItem, error) {
	key := cache.ItemsKey(listID)

	mut := c.cache.Begin(key)

	items := c.cachedItems(listID)
	for i := range items {
		if items[i].ID == itemID {
			items[i] = updates.Apply(items[i])
		}
	}
	mut.Stage(key, items)

	updated, err := c.api.UpdateGroceryItem(ctx, listID, itemID, updates)
	if err != nil {
		return nil, c.fail(mut, err)
	}

	items = c.cachedItems(listID)
	for i := range items {
		if items[i].ID == itemID {
			items[i] = *updated
		}
	}

	patches := c.listPatches(listID, items)
	patches[key] = items
	mut.Commit(patches)
	c.notify.Toast(model.SuccessToast(msgItemUpdated))
	return updated, nil
}

// DeleteItem removes a single item from a list.
func (c *Coordinator) DeleteItem(ctx context.Context, listID, itemID string) error {
	key := cache.ItemsKey(listID)

	mut := c.cache.Begin(key)

	items := c.cachedItems(listID)
	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	mut.Stage(key, kept)

	if err := c.api.DeleteGroceryItem(ctx, listID, itemID); err != nil {
		return c.fail(mut, err)
	}

	remaining := c.cachedItems(listID)
	patches := c.listPatches(listID, remaining)
	patches[key] = remaining
	mut.Commit(patches)
	c.notify.Toast(model.SuccessToast(msgItemDeleted))
	return nil
}

// ToggleItemChecked flips an item's checked flag. It is a thin wrapper
// over UpdateItem and shares its optimistic and rollback semantics.
func (c *Coordinator) ToggleItemChecked(
	ctx context.Context,
	listID, itemID string,
	checked bool,
) (*model.GroceryListItem, error) {
	return c.UpdateItem(ctx, listID, itemID, api.ItemUpdates{
		IsChecked: &checked,
	})
}

// GenerateFromMealPlan asks the server to aggregate a meal plan's
// ingredients into a new list, showing an optimistic placeholder while
// the aggregation runs.
func (c *Coordinator) GenerateFromMealPlan(
	ctx context.Context,
	mealPlanID, listName string,
) (*model.GroceryList, error) {
	if listName == "" {
		listName = fmt.Sprintf("Meal plan %s", mealPlanID)
	}

	placeholder := model.GroceryList{
		ID:   tempID(),
		Name: listName,
	}

	mut := c.cache.Begin(cache.ListsKey())
	mut.Stage(cache.ListsKey(), append(c.cachedLists(), placeholder))

	generated, err := c.api.GenerateFromMealPlan(ctx, api.GenerateInput{
		MealPlanID: mealPlanID,
		ListName:   listName,
	})
	if err != nil {
		return nil, c.fail(mut, err)
	}

	lists := c.cachedLists()
	for i := range lists {
		if lists[i].ID == placeholder.ID {
			lists[i] = *generated
			break
		}
	}

	mut.Commit(map[string]interface{}{
		cache.ListsKey():             lists,
		cache.ListKey(generated.ID):  *generated,
		cache.ItemsKey(generated.ID): generated.Items,
	})
	if c.offline != nil {
		c.offline.SaveToLocal(generated)
	}
	c.notify.Toast(model.SuccessToast(msgListGenerated))
	return generated, nil
}
