package api

import (
	"context"
	"fmt"

	"github.com/mquan/grocery-planner/internal/model"
)

// Service defines the grocery operations exposed by the meal planner
// API. The mutation coordinator depends on this interface rather than
// the concrete HTTP client so tests can substitute a scripted fake.
type Service interface {
	FetchGroceryLists(ctx context.Context) ([]model.GroceryList, error)
	FetchGroceryList(ctx context.Context, id string) (*model.GroceryList, error)
	CreateGroceryList(ctx context.Context, input ListInput) (*model.GroceryList, error)
	UpdateGroceryList(ctx context.Context, id string, updates ListUpdates) (*model.GroceryList, error)
	DeleteGroceryList(ctx context.Context, id string) error

	AddGroceryItem(ctx context.Context, listID string, item ItemInput) (*model.GroceryListItem, error)
	UpdateGroceryItem(ctx context.Context, listID, itemID string, updates ItemUpdates) (*model.GroceryListItem, error)
	DeleteGroceryItem(ctx context.Context, listID, itemID string) error

	GenerateFromMealPlan(ctx context.Context, input GenerateInput) (*model.GroceryList, error)
	FetchMealPlans(ctx context.Context) ([]model.MealPlan, error)
}

// GroceryService implements Service over the HTTP client.
type GroceryService struct {
	client *Client
}

// NewGroceryService creates a Service backed by the given client.
func NewGroceryService(client *Client) *GroceryService {
	return &GroceryService{client: client}
}

// FetchGroceryLists retrieves all grocery lists for the current customer.
func (s *GroceryService) FetchGroceryLists(
	ctx context.Context,
) ([]model.GroceryList, error) {
	var resp envelope[[]model.GroceryList]
	if err := s.client.Get(ctx, "/api/grocery-lists", &resp); err != nil {
		return nil, fmt.Errorf("fetching grocery lists: %w", err)
	}
	// An empty collection is a valid success result.
	if resp.Data == nil {
		return []model.GroceryList{}, nil
	}
	return resp.Data, nil
}

// FetchGroceryList retrieves a single grocery list with its items.
func (s *GroceryService) FetchGroceryList(
	ctx context.Context,
	id string,
) (*model.GroceryList, error) {
	var resp envelope[model.GroceryList]
	path := "/api/grocery-lists/" + id
	if err := s.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching grocery list %s: %w", id, err)
	}
	return &resp.Data, nil
}

// CreateGroceryList creates a new empty grocery list.
func (s *GroceryService) CreateGroceryList(
	ctx context.Context,
	input ListInput,
) (*model.GroceryList, error) {
	var resp envelope[model.GroceryList]
	if err := s.client.Post(ctx, "/api/grocery-lists", input, &resp); err != nil {
		return nil, fmt.Errorf("creating grocery list: %w", err)
	}
	return &resp.Data, nil
}

// UpdateGroceryList applies a partial update to a grocery list.
func (s *GroceryService) UpdateGroceryList(
	ctx context.Context,
	id string,
	updates ListUpdates,
) (*model.GroceryList, error) {
	var resp envelope[model.GroceryList]
	path := "/api/grocery-lists/" + id
	if err := s.client.Put(ctx, path, updates, &resp); err != nil {
		return nil, fmt.Errorf("updating grocery list %s: %w", id, err)
	}
	return &resp.Data, nil
}

// DeleteGroceryList removes a grocery list and all its items.
func (s *GroceryService) DeleteGroceryList(
	ctx context.Context,
	id string,
) error {
	var resp envelope[deleteResult]
	path := "/api/grocery-lists/" + id
	if err := s.client.Delete(ctx, path, &resp); err != nil {
		return fmt.Errorf("deleting grocery list %s: %w", id, err)
	}
	if !resp.Data.Success {
		return fmt.Errorf("deleting grocery list %s: server reported failure", id)
	}
	return nil
}

// AddGroceryItem appends a new item to a list.
func (s *GroceryService) AddGroceryItem(
	ctx context.Context,
	listID string,
	item ItemInput,
) (*model.GroceryListItem, error) {
	var resp envelope[model.GroceryListItem]
	path := "/api/grocery-lists/" + listID + "/items"
	if err := s.client.Post(ctx, path, item, &resp); err != nil {
		return nil, fmt.Errorf("adding item to list %s: %w", listID, err)
	}
	return &resp.Data, nil
}

// UpdateGroceryItem applies a partial update to a single item.
func (s *GroceryService) UpdateGroceryItem(
	ctx context.Context,
	listID, itemID string,
	updates ItemUpdates,
) (*model.GroceryListItem, error) {
	var resp envelope[model.GroceryListItem]
	path := "/api/grocery-lists/" + listID + "/items/" + itemID
	if err := s.client.Put(ctx, path, updates, &resp); err != nil {
		return nil, fmt.Errorf(
			"updating item %s in list %s: %w", itemID, listID, err,
		)
	}
	return &resp.Data, nil
}

// DeleteGroceryItem removes a single item from a list.
func (s *GroceryService) DeleteGroceryItem(
	ctx context.Context,
	listID, itemID string,
) error {
	var resp envelope[deleteResult]
	path := "/api/grocery-lists/" + listID + "/items/" + itemID
	if err := s.client.Delete(ctx, path, &resp); err != nil {
		return fmt.Errorf(
			"deleting item %s from list %s: %w", itemID, listID, err,
		)
	}
	if !resp.Data.Success {
		return fmt.Errorf(
			"deleting item %s from list %s: server reported failure",
			itemID, listID,
		)
	}
	return nil
}

// GenerateFromMealPlan asks the server to aggregate the ingredients of
// a meal plan's recipes into a new grocery list.
func (s *GroceryService) GenerateFromMealPlan(
	ctx context.Context,
	input GenerateInput,
) (*model.GroceryList, error) {
	var resp envelope[model.GroceryList]
	path := "/api/grocery-lists/generate-from-meal-plan"
	if err := s.client.Post(ctx, path, input, &resp); err != nil {
		return nil, fmt.Errorf(
			"generating list from meal plan %s: %w", input.MealPlanID, err,
		)
	}
	return &resp.Data, nil
}

// FetchMealPlans retrieves the customer's meal plans for the
// generate-from-meal-plan picker.
func (s *GroceryService) FetchMealPlans(
	ctx context.Context,
) ([]model.MealPlan, error) {
	var resp envelope[[]model.MealPlan]
	if err := s.client.Get(ctx, "/api/meal-plans", &resp); err != nil {
		return nil, fmt.Errorf("fetching meal plans: %w", err)
	}
	if resp.Data == nil {
		return []model.MealPlan{}, nil
	}
	return resp.Data, nil
}
