package models

import "time"

// Favorite marks a recipe of any kind as saved by a user.
type Favorite struct {
	UserID    int64
	Recipe    RecipeRef
	CreatedAt time.Time
}

// RecipeView records that a user opened a recipe.
type RecipeView struct {
	ID       int64
	UserID   int64
	Recipe   RecipeRef
	ViewedAt time.Time
}

// SearchEntry is the last search a user ran against the external source.
type SearchEntry struct {
	UserID      int64     `json:"-"`
	Query       string    `json:"query"`
	Cuisine     string    `json:"cuisine,omitempty"`
	Diet        string    `json:"diet,omitempty"`
	Intolerance string    `json:"intolerance,omitempty"`
	Limit       int       `json:"limit"`
	SearchedAt  time.Time `json:"searchedAt"`
}

// MealPlanItem is one position in a user's meal plan. Positions are 1-based
// and contiguous per user.
type MealPlanItem struct {
	ID       int64
	UserID   int64
	Recipe   RecipeRef
	Position int
}

// MealPlanEntry is a meal plan position with the recipe it points at.
// Recipe is nil when the recipe could not be loaded.
type MealPlanEntry struct {
	ID       int64           `json:"id"`
	Position int             `json:"position"`
	Ref      string          `json:"ref"`
	Recipe   *RecipeOverview `json:"recipe,omitempty"`
}
