package model

import (
	"sort"
	"time"
)

// Item category constants. Categories group items in the shopping view
// so a list roughly follows the aisles of a store.
const (
	CategoryProduce = "produce"
	CategoryDairy   = "dairy"
	CategoryMeat    = "meat"
	CategoryPantry  = "pantry"
	CategoryFrozen  = "frozen"
	CategoryBakery  = "bakery"
	CategoryOther   = "other"
)

// Item priority constants.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Categories lists all known item categories in aisle order.
var Categories = []string{
	CategoryProduce,
	CategoryDairy,
	CategoryMeat,
	CategoryPantry,
	CategoryFrozen,
	CategoryBakery,
	CategoryOther,
}

// GroceryList is a named shopping list owned by a single customer.
type GroceryList struct {
	ID         string    `json:"id" db:"id"`
	CustomerID string    `json:"customerId" db:"customer_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	// Items holds the list contents when the server includes them
	// in a detail response.
	Items []GroceryListItem `json:"items,omitempty" db:"-"`
}

// GroceryListItem is a single entry within a grocery list.
// Its lifecycle is bound to the parent list.
type GroceryListItem struct {
	ID            string    `json:"id" db:"id"`
	GroceryListID string    `json:"groceryListId" db:"grocery_list_id"`
	Name          string    `json:"name" db:"name"`
	Category      string    `json:"category" db:"category"`
	Quantity      float64   `json:"quantity" db:"quantity"`
	Unit          string    `json:"unit" db:"unit"`
	IsChecked     bool      `json:"isChecked" db:"is_checked"`
	Priority      string    `json:"priority" db:"priority"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// categoryRank returns the aisle-order rank of a category. Unknown
// categories sort last.
func categoryRank(category string) int {
	for i, c := range Categories {
		if c == category {
			return i
		}
	}
	return len(Categories)
}

// SortItems orders items for presentation: unchecked before checked,
// then by category in aisle order, then by name. The input slice is
// sorted in place.
func SortItems(items []GroceryListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsChecked != b.IsChecked {
			return !a.IsChecked
		}
		if ra, rb := categoryRank(a.Category), categoryRank(b.Category); ra != rb {
			return ra < rb
		}
		return a.Name < b.Name
	})
}
