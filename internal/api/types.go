package api

import "github.com/mquan/grocery-planner/internal/model"

// envelope is the standard response wrapper used by every endpoint.
type envelope[T any] struct {
	Data T `json:"data"`
}

// deleteResult is the payload returned by delete endpoints.
type deleteResult struct {
	Success bool `json:"success"`
}

// ListInput is the payload for creating a grocery list.
type ListInput struct {
	Name string `json:"name"`
}

// ListUpdates is a partial update for a grocery list. Nil fields are
// omitted and left unchanged by the server.
type ListUpdates struct {
	Name *string `json:"name,omitempty"`
}

// ItemInput is the payload for adding an item to a list.
type ItemInput struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Priority string  `json:"priority"`
}

// ItemUpdates is a partial update for a grocery list item. Nil fields
// are omitted and left unchanged by the server.
type ItemUpdates struct {
	Name      *string  `json:"name,omitempty"`
	Category  *string  `json:"category,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
	Unit      *string  `json:"unit,omitempty"`
	IsChecked *bool    `json:"isChecked,omitempty"`
	Priority  *string  `json:"priority,omitempty"`
}

// GenerateInput is the payload for generating a list from a meal plan.
type GenerateInput struct {
	MealPlanID string `json:"mealPlanId"`
	ListName   string `json:"listName"`
}

// Apply merges the non-nil updates into a copy of the given item.
// This mirrors the server-side merge so optimistic cache entries match
// what the server will eventually return (modulo timestamps).
func (u ItemUpdates) Apply(item model.GroceryListItem) model.GroceryListItem {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.Unit != nil {
		item.Unit = *u.Unit
	}
	if u.IsChecked != nil {
		item.IsChecked = *u.IsChecked
	}
	if u.Priority != nil {
		item.Priority = *u.Priority
	}
	return item
}

// Apply merges the non-nil updates into a copy of the given list.
func (u ListUpdates) Apply(list model.GroceryList) model.GroceryList {
	if u.Name != nil {
		list.Name = *u.Name
	}
	return list
}
