package model

import "time"

// MealPlan is a summary of a meal plan as returned by the planning
// service. Only the fields needed to drive grocery list generation
// are carried here.
type MealPlan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Days      int       `json:"days"`
	CreatedAt time.Time `json:"createdAt"`
}
