package models

// RecipeOverview is the short form of a recipe of any kind, used in search
// results, random picks and the user's lists.
type RecipeOverview struct {
	ID             int64      `json:"id"`
	Kind           RecipeKind `json:"source"`
	Title          string     `json:"title"`
	Image          string     `json:"image,omitempty"`
	ReadyInMinutes int        `json:"readyInMinutes"`
	Popularity     int        `json:"popularity"`
	Vegan          bool       `json:"vegan"`
	Vegetarian     bool       `json:"vegetarian"`
	GlutenFree     bool       `json:"glutenFree"`
}

// Ref returns the reference the overview was built from.
func (o *RecipeOverview) Ref() RecipeRef { return RecipeRef{Kind: o.Kind, ID: o.ID} }

// RecipeDetail is the full page of an external recipe.
type RecipeDetail struct {
	RecipeOverview
	Summary      string `json:"summary,omitempty"`
	Servings     int    `json:"servings"`
	Instructions string `json:"instructions,omitempty"`
}

// SearchQuery holds the filters of an external recipe search.
type SearchQuery struct {
	Query         string `json:"query"`
	Cuisine       string `json:"cuisine,omitempty"`
	Diet          string `json:"diet,omitempty"`
	Intolerances  string `json:"intolerances,omitempty"`
	Number        int    `json:"number,omitempty"`
	Sort          string `json:"sort,omitempty"`
	SortDirection string `json:"sortDirection,omitempty"`
}

// PersonalOverview shortens a personal recipe.
func PersonalOverview(r *Recipe) *RecipeOverview {
	return &RecipeOverview{
		ID:             r.ID,
		Kind:           KindPersonal,
		Title:          r.Title,
		Image:          r.ImageURL,
		ReadyInMinutes: r.ReadyInMinutes,
		Popularity:     r.Popularity,
		Vegan:          r.Vegan,
		Vegetarian:     r.Vegetarian,
		GlutenFree:     r.GlutenFree,
	}
}

// FamilyOverview shortens a family recipe.
func FamilyOverview(r *FamilyRecipe) *RecipeOverview {
	return &RecipeOverview{
		ID:             r.ID,
		Kind:           KindFamily,
		Title:          r.Title,
		Image:          r.ImageURL,
		ReadyInMinutes: r.ReadyInMinutes,
	}
}
