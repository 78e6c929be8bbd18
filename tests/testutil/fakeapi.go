package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/model"
)

// Call records one invocation of a fake API method.
type Call struct {
	Op     string
	ListID string
	ItemID string
	Arg    interface{}
}

// FakeService is a scripted api.Service for coordinator tests. Each
// operation returns the scripted result, or the scripted error, and
// every invocation is recorded so tests can assert on call counts and
// arguments.
type FakeService struct {
	mu    sync.Mutex
	calls []Call

	Lists     []model.GroceryList
	List      *model.GroceryList
	Item      *model.GroceryListItem
	MealPlans []model.MealPlan

	// Err, when set, is returned by every operation.
	Err error
}

var _ api.Service = (*FakeService)(nil)

// record appends a call to the log.
func (f *FakeService) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// Calls returns a copy of the recorded calls.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times the named operation was invoked.
func (f *FakeService) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *FakeService) FetchGroceryLists(ctx context.Context) ([]model.GroceryList, error) {
	f.record(Call{Op: "FetchGroceryLists"})
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Lists == nil {
		return []model.GroceryList{}, nil
	}
	return f.Lists, nil
}

func (f *FakeService) FetchGroceryList(ctx context.Context, id string) (*model.GroceryList, error) {
	f.record(Call{Op: "FetchGroceryList", ListID: id})
	if f.Err != nil {
		return nil, f.Err
	}
	if f.List == nil {
		return nil, fmt.Errorf("list %s not found", id)
	}
	return f.List, nil
}

func (f *FakeService) CreateGroceryList(ctx context.Context, input api.ListInput) (*model.GroceryList, error) {
	f.record(Call{Op: "CreateGroceryList", Arg: input})
	if f.Err != nil {
		return nil, f.Err
	}
	return f.List, nil
}

func (f *FakeService) UpdateGroceryList(ctx context.Context, id string, updates api.ListUpdates) (*model.GroceryList, error) {
	f.record(Call{Op: "UpdateGroceryList", ListID: id, Arg: updates})
	if f.Err != nil {
		return nil, f.Err
	}
	return f.List, nil
}

func (f *FakeService) DeleteGroceryList(ctx context.Context, id string) error {
	f.record(Call{Op: "DeleteGroceryList", ListID: id})
	return f.Err
}

func (f *FakeService) AddGroceryItem(ctx context.Context, listID string, item api.ItemInput) (*model.GroceryListItem, error) {
	f.record(Call{Op: "AddGroceryItem", ListID: listID, Arg: item})
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Item, nil
}

func (f *FakeService) UpdateGroceryItem(ctx context.Context, listID, itemID string, updates api.ItemUpdates) (*model.GroceryListItem, error) {
	f.record(Call{Op: "UpdateGroceryItem", ListID: listID, ItemID: itemID, Arg: updates})
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Item, nil
}

func (f *FakeService) DeleteGroceryItem(ctx context.Context, listID, itemID string) error {
	f.record(Call{Op: "DeleteGroceryItem", ListID: listID, ItemID: itemID})
	return f.Err
}

func (f *FakeService) GenerateFromMealPlan(ctx context.Context, input api.GenerateInput) (*model.GroceryList, error) {
	f.record(Call{Op: "GenerateFromMealPlan", Arg: input})
	if f.Err != nil {
		return nil, f.Err
	}
	return f.List, nil
}

func (f *FakeService) FetchMealPlans(ctx context.Context) ([]model.MealPlan, error) {
	f.record(Call{Op: "FetchMealPlans"})
	if f.Err != nil {
		return nil, f.Err
	}
	if f.MealPlans == nil {
		return []model.MealPlan{}, nil
	}
	return f.MealPlans, nil
}
