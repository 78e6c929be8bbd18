package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquan/grocery-planner/internal/cache"
	"github.com/mquan/grocery-planner/internal/model"
	"github.com/mquan/grocery-planner/internal/notify"
	"github.com/mquan/grocery-planner/tests/testutil"
)

func TestPassRefreshesStaleListsEntry(t *testing.T) {
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{{ID: "l1", Name: "Weekly"}},
	}
	c := cache.New(5 * time.Minute)
	coord := New(fake, c, nil, &notify.Recorder{}, nil)
	r := NewRevalidator(coord, c, time.Minute)

	// Empty cache counts as stale and triggers a fetch.
	r.pass(false)
	assert.Equal(t, 1, fake.CallCount("FetchGroceryLists"))

	// A fresh entry suppresses the next unforced pass.
	r.pass(false)
	assert.Equal(t, 1, fake.CallCount("FetchGroceryLists"))

	// A forced pass refreshes regardless of freshness.
	r.pass(true)
	assert.Equal(t, 2, fake.CallCount("FetchGroceryLists"))
}

func TestPassRefreshesWatchedList(t *testing.T) {
	list := model.GroceryList{
		ID:    "l1",
		Name:  "Weekly",
		Items: []model.GroceryListItem{{ID: "i1", GroceryListID: "l1"}},
	}
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{list},
		List:  &list,
	}
	c := cache.New(5 * time.Minute)
	coord := New(fake, c, nil, &notify.Recorder{}, nil)
	r := NewRevalidator(coord, c, time.Minute)

	r.Watch("l1")
	r.pass(true)

	assert.Equal(t, 1, fake.CallCount("FetchGroceryList"))
	items, err := coord.Items(context.Background(), "l1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	r.Watch("")
	r.pass(true)
	assert.Equal(t, 1, fake.CallCount("FetchGroceryList"),
		"clearing the watch stops item refreshes")
}

func TestPassRecordsStatus(t *testing.T) {
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{},
	}
	c := cache.New(5 * time.Minute)
	coord := New(fake, c, nil, &notify.Recorder{}, nil)
	r := NewRevalidator(coord, c, time.Minute)

	r.pass(true)
	status := r.Status()
	assert.Equal(t, RevalidateIdle, status.State)
	assert.NoError(t, status.Error)
	assert.False(t, status.LastSync.IsZero())

	fake.Err = assert.AnError
	r.pass(true)
	status = r.Status()
	assert.Equal(t, RevalidateError, status.State)
	assert.Error(t, status.Error)
}

func TestPassEmitsResultMessages(t *testing.T) {
	fake := &testutil.FakeService{
		Lists: []model.GroceryList{},
	}
	c := cache.New(5 * time.Minute)
	coord := New(fake, c, nil, &notify.Recorder{}, nil)
	r := NewRevalidator(coord, c, time.Minute)

	r.pass(true)

	select {
	case msg := <-r.resultCh:
		assert.Equal(t, cache.ListsKey(), msg.Key)
		assert.NoError(t, msg.Error)
	default:
		t.Fatal("expected a refresh result message")
	}
}
