package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/cache"
	"github.com/mquan/grocery-planner/internal/model"
	"github.com/mquan/grocery-planner/internal/notify"
	"github.com/mquan/grocery-planner/tests/testutil"
)

func newTestCoordinator(fake *testutil.FakeService) (*Coordinator, *cache.Cache, *notify.Recorder) {
	c := cache.New(5 * time.Minute)
	rec := &notify.Recorder{}
	coord := New(fake, c, nil, rec, nil)
	return coord, c, rec
}

func sampleList(id, name string, items ...model.GroceryListItem) model.GroceryList {
	return model.GroceryList{
		ID:        id,
		Name:      name,
		Items:     items,
		UpdatedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func sampleItem(id, listID, name string) model.GroceryListItem {
	return model.GroceryListItem{
		ID:            id,
		GroceryListID: listID,
		Name:          name,
		Category:      model.CategoryProduce,
		Quantity:      1,
		Priority:      model.PriorityMedium,
	}
}

func TestListsServedFromCacheWhenFresh(t *testing.T) {
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{sampleList("l1", "Weekly")},
	}
	coord, _, _ := newTestCoordinator(fake)

	first, err := coord.Lists(context.Background())
	require.NoError(t, err)
	second, err := coord.Lists(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.CallCount("FetchGroceryLists"),
		"a fresh cache entry short-circuits the network")
}

func TestEmptyFetchIsSuccessNotError(t *testing.T) {
	fake := &testutil.FakeService{}
	coord, _, _ := newTestCoordinator(fake)

	lists, err := coord.Lists(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lists)
	assert.Empty(t, lists)
	assert.NoError(t, coord.FetchError())
}

func TestFetchFailureRecordsErrorAndKeepsValue(t *testing.T) {
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{sampleList("l1", "Weekly")},
	}
	coord, c, _ := newTestCoordinator(fake)

	_, err := coord.Lists(context.Background())
	require.NoError(t, err)

	fetchErr := errors.New("service unavailable")
	fake.Err = fetchErr
	c.Invalidate(cache.ListsKey())

	_, err = coord.Lists(context.Background())
	assert.Equal(t, fetchErr, err)
	assert.Equal(t, fetchErr, coord.FetchError())
}

func TestCreateListReplacesPlaceholderExactlyOnce(t *testing.T) {
	created := sampleList("l-server", "Weekly")
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{},
		List:  &created,
	}
	coord, _, rec := newTestCoordinator(fake)

	_, err := coord.Lists(context.Background())
	require.NoError(t, err)

	got, err := coord.CreateList(context.Background(), "Weekly")
	require.NoError(t, err)
	assert.Equal(t, "l-server", got.ID)

	lists, err := coord.Lists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1, "the placeholder is replaced, not duplicated")
	assert.Equal(t, "l-server", lists[0].ID)
	for _, l := range lists {
		assert.False(t, strings.HasPrefix(l.ID, "temp-"),
			"no placeholder survives confirmation")
	}

	require.Len(t, rec.Toasts, 1, "exactly one toast per mutation")
	assert.Equal(t, "Success", rec.Toasts[0].Title)
	assert.Equal(t, "Grocery list created successfully", rec.Toasts[0].Description)
}

func TestFailedMutationRestoresExactPreState(t *testing.T) {
	item := sampleItem("i1", "l1", "milk")
	list := sampleList("l1", "Weekly", item)
	fake := &testutil.FakeService{List: &list}
	coord, _, rec := newTestCoordinator(fake)

	_, err := coord.List(context.Background(), "l1")
	require.NoError(t, err)
	before, err := coord.Items(context.Background(), "l1")
	require.NoError(t, err)

	fake.Err = errors.New("Failed to update item")
	name := "oat milk"
	_, err = coord.UpdateItem(
		context.Background(), "l1", "i1", api.ItemUpdates{Name: &name},
	)
	require.Error(t, err)

	after, err := coord.Items(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "rollback restores the pre-mutation state")

	require.Len(t, rec.Toasts, 1)
	assert.Equal(t, "Error", rec.Toasts[0].Title)
	assert.Equal(t, model.ToastVariantDestructive, rec.Toasts[0].Variant)
	assert.Equal(t, "Failed to update item", rec.Toasts[0].Description,
		"the error text is surfaced verbatim")
}

func TestAddItemFailureRollsBackPlaceholder(t *testing.T) {
	list := sampleList("l1", "Weekly")
	fake := &testutil.FakeService{List: &list}
	coord, _, _ := newTestCoordinator(fake)

	_, err := coord.List(context.Background(), "l1")
	require.NoError(t, err)

	fake.Err = errors.New("boom")
	_, err = coord.AddItem(context.Background(), "l1", api.ItemInput{Name: "eggs"})
	require.Error(t, err)

	fake.Err = nil
	items, err := coord.Items(context.Background(), "l1")
	require.NoError(t, err)
	assert.Empty(t, items, "the optimistic placeholder is gone")
}

func TestToggleIsAThinUpdateItemWrapper(t *testing.T) {
	item := sampleItem("i1", "l1", "milk")
	fake := &testutil.FakeService{Item: &item}
	coord, _, _ := newTestCoordinator(fake)

	_, err := coord.ToggleItemChecked(context.Background(), "l1", "i1", true)
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "UpdateGroceryItem", calls[0].Op)
	assert.Equal(t, "l1", calls[0].ListID)
	assert.Equal(t, "i1", calls[0].ItemID)

	updates, ok := calls[0].Arg.(api.ItemUpdates)
	require.True(t, ok)
	require.NotNil(t, updates.IsChecked)
	assert.True(t, *updates.IsChecked)
	assert.Nil(t, updates.Name, "toggle patches only the checked flag")
	assert.Nil(t, updates.Category)
	assert.Nil(t, updates.Quantity)
}

func TestRapidUpdatesAreNotCoalesced(t *testing.T) {
	item := sampleItem("i1", "l1", "milk")
	fake := &testutil.FakeService{Item: &item}
	coord, _, _ := newTestCoordinator(fake)

	for i := 0; i < 10; i++ {
		qty := float64(i + 1)
		_, err := coord.UpdateItem(
			context.Background(), "l1", "i1", api.ItemUpdates{Quantity: &qty},
		)
		require.NoError(t, err)
	}

	assert.Equal(t, 10, fake.CallCount("UpdateGroceryItem"),
		"every mutation issues its own request")
}

func TestUpdateListRewritesCollectionAndDetail(t *testing.T) {
	list := sampleList("l1", "Weekly")
	renamed := sampleList("l1", "Monthly")
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{list},
		List:  &renamed,
	}
	coord, c, _ := newTestCoordinator(fake)

	_, err := coord.Lists(context.Background())
	require.NoError(t, err)
	c.SetConfirmed(cache.ListKey("l1"), list)

	name := "Monthly"
	got, err := coord.UpdateList(
		context.Background(), "l1", api.ListUpdates{Name: &name},
	)
	require.NoError(t, err)
	assert.Equal(t, "Monthly", got.Name)

	lists, err := coord.Lists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Monthly", lists[0].Name)

	detail, err := coord.List(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "Monthly", detail.Name)
	assert.Equal(t, 0, fake.CallCount("FetchGroceryList"),
		"the committed detail entry serves reads")
}

func TestDeleteListInvalidatesSubtree(t *testing.T) {
	list := sampleList("l1", "Weekly", sampleItem("i1", "l1", "milk"))
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{list},
		List:  &list,
	}
	coord, c, rec := newTestCoordinator(fake)

	_, err := coord.Lists(context.Background())
	require.NoError(t, err)
	_, err = coord.List(context.Background(), "l1")
	require.NoError(t, err)

	err = coord.DeleteList(context.Background(), "l1")
	require.NoError(t, err)

	lists, err := coord.Lists(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lists)

	_, ok, _ := c.Get(cache.ListKey("l1"))
	assert.False(t, ok)
	_, ok, _ = c.Get(cache.ItemsKey("l1"))
	assert.False(t, ok)

	require.NotEmpty(t, rec.Toasts)
	assert.Equal(t, "Grocery list deleted successfully",
		rec.Toasts[len(rec.Toasts)-1].Description)
}

func TestGenerateFromMealPlanCommitsNewList(t *testing.T) {
	generated := sampleList("l-gen", "From plan",
		sampleItem("i1", "l-gen", "chicken"),
		sampleItem("i2", "l-gen", "rice"),
	)
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{},
		List:  &generated,
	}
	coord, _, rec := newTestCoordinator(fake)

	_, err := coord.Lists(context.Background())
	require.NoError(t, err)

	got, err := coord.GenerateFromMealPlan(context.Background(), "mp1", "From plan")
	require.NoError(t, err)
	assert.Equal(t, "l-gen", got.ID)

	items, err := coord.Items(context.Background(), "l-gen")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NotEmpty(t, rec.Toasts)
	assert.Equal(t, "Grocery list generated from meal plan",
		rec.Toasts[len(rec.Toasts)-1].Description)
}

func TestMealPlansCached(t *testing.T) {
	fake := &testutil.FakeService{
		MealPlans: []model.MealPlan{{ID: "mp1", Name: "Week 23", Days: 7}},
	}
	coord, _, _ := newTestCoordinator(fake)

	_, err := coord.MealPlans(context.Background())
	require.NoError(t, err)
	_, err = coord.MealPlans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, fake.CallCount("FetchMealPlans"))
}

func TestListFallsBackToOfflineSnapshot(t *testing.T) {
	snap := sampleList("l1", "Weekly", sampleItem("i1", "l1", "milk"))
	store := testutil.NewTestStore(t)
	store.SaveToLocal(&snap)

	fake := &testutil.FakeService{Err: errors.New("network down")}
	c := cache.New(5 * time.Minute)
	rec := &notify.Recorder{}
	coord := New(fake, c, store, rec, nil)

	got, err := coord.List(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Len(t, got.Items, 1)

	// A snapshot for a different list does not mask the failure.
	_, err = coord.List(context.Background(), "other")
	assert.Error(t, err)
}

func TestDeleteListClearsMatchingSnapshot(t *testing.T) {
	list := sampleList("l1", "Weekly")
	store := testutil.NewTestStore(t)
	store.SaveToLocal(&list)

	fake := &testutil.FakeService{
		Lists: []model.GroceryList{list},
		List:  &list,
	}
	c := cache.New(5 * time.Minute)
	rec := &notify.Recorder{}
	coord := New(fake, c, store, rec, nil)

	_, err := coord.Lists(context.Background())
	require.NoError(t, err)

	err = coord.DeleteList(context.Background(), "l1")
	require.NoError(t, err)

	assert.Nil(t, store.LoadFromLocal(),
		"the snapshot of a deleted list is cleared")
}

func TestItemsReturnsACopySafeToReorder(t *testing.T) {
	checked := sampleItem("i1", "l1", "apples")
	checked.IsChecked = true
	unchecked := sampleItem("i2", "l1", "bananas")
	list := sampleList("l1", "Weekly", checked, unchecked)
	fake := &testutil.FakeService{List: &list}
	coord, c, _ := newTestCoordinator(fake)

	_, err := coord.List(context.Background(), "l1")
	require.NoError(t, err)

	items, err := coord.Items(context.Background(), "l1")
	require.NoError(t, err)

	// The item view reorders what it is given; the stored entry must
	// keep server order regardless.
	model.SortItems(items)
	require.Equal(t, "i2", items[0].ID)

	v, ok, _ := c.Get(cache.ItemsKey("l1"))
	require.True(t, ok)
	stored := v.([]model.GroceryListItem)
	require.Len(t, stored, 2)
	assert.Equal(t, "i1", stored[0].ID, "cached value keeps server order")
	assert.Equal(t, "i2", stored[1].ID)
}

func TestListsReturnsACopy(t *testing.T) {
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{sampleList("l1", "Weekly")},
	}
	coord, _, _ := newTestCoordinator(fake)

	lists, err := coord.Lists(context.Background())
	require.NoError(t, err)
	lists[0].Name = "Scribbled over"

	again, err := coord.Lists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Weekly", again[0].Name,
		"callers cannot rewrite the cached collection")
}

func TestItemMutationsKeepParentEntriesInStep(t *testing.T) {
	item := sampleItem("i1", "l1", "milk")
	list := sampleList("l1", "Weekly", item)
	toggled := item
	toggled.IsChecked = true
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{list},
		List:  &list,
		Item:  &toggled,
	}
	coord, _, _ := newTestCoordinator(fake)

	_, err := coord.Lists(context.Background())
	require.NoError(t, err)
	_, err = coord.List(context.Background(), "l1")
	require.NoError(t, err)

	_, err = coord.ToggleItemChecked(context.Background(), "l1", "i1", true)
	require.NoError(t, err)

	lists, err := coord.Lists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Len(t, lists[0].Items, 1)
	assert.True(t, lists[0].Items[0].IsChecked,
		"the browser's embedded items see the change without a refetch")

	detail, err := coord.List(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.True(t, detail.Items[0].IsChecked)

	err = coord.DeleteItem(context.Background(), "l1", "i1")
	require.NoError(t, err)

	lists, err = coord.Lists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Empty(t, lists[0].Items)

	assert.Equal(t, 1, fake.CallCount("FetchGroceryLists"),
		"the patched entries serve reads, no extra fetches")
	assert.Equal(t, 1, fake.CallCount("FetchGroceryList"))
}

func TestSuccessfulLoadRefreshesSnapshot(t *testing.T) {
	list := sampleList("l1", "Weekly", sampleItem("i1", "l1", "milk"))
	store := testutil.NewTestStore(t)

	fake := &testutil.FakeService{List: &list}
	c := cache.New(5 * time.Minute)
	rec := &notify.Recorder{}
	coord := New(fake, c, store, rec, nil)

	_, err := coord.List(context.Background(), "l1")
	require.NoError(t, err)

	snap := store.LoadFromLocal()
	require.NotNil(t, snap)
	assert.Equal(t, "l1", snap.ID)
}
