package cache

import "strings"

// keySep separates key segments. Entity IDs never contain it.
const keySep = "/"

// Keys form a hierarchy rooted at the lists collection:
//
//	grocery-lists
//	grocery-lists/list/<id>
//	grocery-lists/items/<listID>
//
// Invalidating a prefix drops everything beneath it.

// ListsKey addresses the collection of all grocery lists.
func ListsKey() string {
	return "grocery-lists"
}

// ListKey addresses a single grocery list by ID.
func ListKey(id string) string {
	return strings.Join([]string{"grocery-lists", "list", id}, keySep)
}

// MealPlansKey addresses the collection of meal plan summaries.
func MealPlansKey() string {
	return "meal-plans"
}

// ItemsKey addresses the items of a single grocery list.
func ItemsKey(listID string) string {
	return strings.Join([]string{"grocery-lists", "items", listID}, keySep)
}

// hasPrefix reports whether key equals prefix or sits beneath it in
// the key hierarchy.
func hasPrefix(key, prefix string) bool {
	if key == prefix {
		return true
	}
	return strings.HasPrefix(key, prefix+keySep)
}
