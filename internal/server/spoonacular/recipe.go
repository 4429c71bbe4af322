package spoonacular

import "github.com/dmitrijs2005/cookbook/internal/server/models"

// rawRecipe holds the fields we keep from the API's recipe objects.
type rawRecipe struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Image          string `json:"image"`
	ReadyInMinutes int    `json:"readyInMinutes"`
	AggregateLikes int    `json:"aggregateLikes"`
	Vegan          bool   `json:"vegan"`
	Vegetarian     bool   `json:"vegetarian"`
	GlutenFree     bool   `json:"glutenFree"`
	Summary        string `json:"summary"`
	Servings       int    `json:"servings"`
	Instructions   string `json:"instructions"`
}

func (r *rawRecipe) overview() *models.RecipeOverview {
	return &models.RecipeOverview{
		ID:             r.ID,
		Kind:           models.KindExternal,
		Title:          r.Title,
		Image:          r.Image,
		ReadyInMinutes: r.ReadyInMinutes,
		Popularity:     r.AggregateLikes,
		Vegan:          r.Vegan,
		Vegetarian:     r.Vegetarian,
		GlutenFree:     r.GlutenFree,
	}
}

func (r *rawRecipe) detail() *models.RecipeDetail {
	return &models.RecipeDetail{
		RecipeOverview: *r.overview(),
		Summary:        r.Summary,
		Servings:       r.Servings,
		Instructions:   r.Instructions,
	}
}

func overviews(raw []rawRecipe) []*models.RecipeOverview {
	out := make([]*models.RecipeOverview, 0, len(raw))
	for i := range raw {
		out = append(out, raw[i].overview())
	}
	return out
}
