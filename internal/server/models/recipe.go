package models

import "time"

// Recipe is a personal recipe authored by a user.
type Recipe struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	Title          string    `json:"title"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	ReadyInMinutes int       `json:"readyInMinutes"`
	Popularity     int       `json:"popularity"`
	Vegan          bool      `json:"vegan"`
	Vegetarian     bool      `json:"vegetarian"`
	GlutenFree     bool      `json:"glutenFree"`
	Servings       int       `json:"servings"`
	Summary        string    `json:"summary,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FamilyRecipe is a recipe handed down in a family, attributed to OwnerName.
type FamilyRecipe struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	Title          string    `json:"title"`
	OwnerName      string    `json:"ownerName"`
	WhenToPrepare  string    `json:"whenToPrepare,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	ReadyInMinutes int       `json:"readyInMinutes"`
	Servings       int       `json:"servings"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RecipePatch carries a partial update; nil fields are left untouched.
// Fields that do not apply to the target kind are rejected by the service.
type RecipePatch struct {
	Title          *string `json:"title"`
	ImageURL       *string `json:"imageUrl"`
	ReadyInMinutes *int    `json:"readyInMinutes"`
	Vegan          *bool   `json:"vegan"`
	Vegetarian     *bool   `json:"vegetarian"`
	GlutenFree     *bool   `json:"glutenFree"`
	Servings       *int    `json:"servings"`
	Summary        *string `json:"summary"`
	OwnerName      *string `json:"ownerName"`
	WhenToPrepare  *string `json:"whenToPrepare"`
}

// Ingredient belongs to a personal or family recipe.
type Ingredient struct {
	ID     int64     `json:"id"`
	Recipe RecipeRef `json:"-"`
	Name   string    `json:"name"`
	Amount float64   `json:"amount"`
	Unit   string    `json:"unit"`
}

// IngredientPatch is a partial ingredient update.
type IngredientPatch struct {
	Name   *string  `json:"name"`
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
}

// RecipeDetails is a personal recipe with its ingredients.
type RecipeDetails struct {
	*Recipe
	Ingredients []*Ingredient `json:"ingredients"`
}

// FamilyRecipeDetails is a family recipe with its ingredients.
type FamilyRecipeDetails struct {
	*FamilyRecipe
	Ingredients []*Ingredient `json:"ingredients"`
}
