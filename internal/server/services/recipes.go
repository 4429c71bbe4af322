package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/repomanager"
)

// NewRecipe is the form for a personal recipe. Steps are stored as 1..N in
// the given order.
type NewRecipe struct {
	Title          string              `json:"title"`
	ImageURL       string              `json:"imageUrl"`
	ReadyInMinutes int                 `json:"readyInMinutes"`
	Vegan          bool                `json:"vegan"`
	Vegetarian     bool                `json:"vegetarian"`
	GlutenFree     bool                `json:"glutenFree"`
	Servings       int                 `json:"servings"`
	Summary        string              `json:"summary"`
	Ingredients    []models.Ingredient `json:"ingredients"`
	Steps          []string            `json:"steps"`
}

// NewFamilyRecipe is the form for a family recipe.
type NewFamilyRecipe struct {
	Title          string              `json:"title"`
	OwnerName      string              `json:"ownerName"`
	WhenToPrepare  string              `json:"whenToPrepare"`
	ImageURL       string              `json:"imageUrl"`
	ReadyInMinutes int                 `json:"readyInMinutes"`
	Servings       int                 `json:"servings"`
	Ingredients    []models.Ingredient `json:"ingredients"`
	Steps          []string            `json:"steps"`
}

// ImageUpload tells the client where to PUT a recipe photo.
type ImageUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

// RecipeService manages the recipes users author themselves. Personal and
// family recipes are visible to their author only.
type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	owners      *Owners
	steps       *StepService
	images      ImageStore
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, steps *StepService, images ImageStore) *RecipeService {
	return &RecipeService{
		db:          db,
		repomanager: m,
		owners:      NewOwners(m),
		steps:       steps,
		images:      images,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, common.ErrorInvalidArgument)...)
}

func validateCommon(title string, readyInMinutes, servings int, steps []string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title is required")
	}
	if readyInMinutes < 0 {
		return invalid("readyInMinutes must not be negative")
	}
	if servings < 0 {
		return invalid("servings must not be negative")
	}
	if len(steps) == 0 {
		return invalid("at least one step is required")
	}
	return nil
}

func validateIngredient(ing *models.Ingredient) error {
	ing.Name = strings.TrimSpace(ing.Name)
	if ing.Name == "" {
		return invalid("ingredient name is required")
	}
	if ing.Amount < 0 {
		return invalid("ingredient %q amount must not be negative", ing.Name)
	}
	return nil
}

func requireLocal(ref models.RecipeRef) error {
	if err := ref.Validate(); err != nil {
		return invalid("%v", err)
	}
	if !ref.Local() {
		return invalid("recipe %s is not editable", ref)
	}
	return nil
}

// CreateRecipe stores a personal recipe with its ingredients and steps in
// one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID int64, in NewRecipe) (*models.RecipeDetails, error) {
	if err := validateCommon(in.Title, in.ReadyInMinutes, in.Servings, in.Steps); err != nil {
		return nil, err
	}

	var out *models.RecipeDetails
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.repomanager.Recipes(tx).Create(ctx, &models.Recipe{
			UserID:         userID,
			Title:          strings.TrimSpace(in.Title),
			ImageURL:       in.ImageURL,
			ReadyInMinutes: in.ReadyInMinutes,
			Vegan:          in.Vegan,
			Vegetarian:     in.Vegetarian,
			GlutenFree:     in.GlutenFree,
			Servings:       in.Servings,
			Summary:        in.Summary,
		})
		if err != nil {
			return err
		}
		ref := models.PersonalRef(rec.ID)
		ings, err := s.addIngredients(ctx, tx, ref, in.Ingredients)
		if err != nil {
			return err
		}
		if err := s.steps.replace(ctx, tx, ref, userID, in.Steps); err != nil {
			return err
		}
		out = &models.RecipeDetails{Recipe: rec, Ingredients: ings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateFamilyRecipe stores a family recipe with its ingredients and steps in
// one transaction.
func (s *RecipeService) CreateFamilyRecipe(ctx context.Context, userID int64, in NewFamilyRecipe) (*models.FamilyRecipeDetails, error) {
	if err := validateCommon(in.Title, in.ReadyInMinutes, in.Servings, in.Steps); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.OwnerName) == "" {
		return nil, invalid("ownerName is required")
	}

	var out *models.FamilyRecipeDetails
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.repomanager.FamilyRecipes(tx).Create(ctx, &models.FamilyRecipe{
			UserID:         userID,
			Title:          strings.TrimSpace(in.Title),
			OwnerName:      strings.TrimSpace(in.OwnerName),
			WhenToPrepare:  in.WhenToPrepare,
			ImageURL:       in.ImageURL,
			ReadyInMinutes: in.ReadyInMinutes,
			Servings:       in.Servings,
		})
		if err != nil {
			return err
		}
		ref := models.FamilyRef(rec.ID)
		ings, err := s.addIngredients(ctx, tx, ref, in.Ingredients)
		if err != nil {
			return err
		}
		if err := s.steps.replace(ctx, tx, ref, userID, in.Steps); err != nil {
			return err
		}
		out = &models.FamilyRecipeDetails{FamilyRecipe: rec, Ingredients: ings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RecipeService) addIngredients(ctx context.Context, tx dbx.DBTX, ref models.RecipeRef, in []models.Ingredient) ([]*models.Ingredient, error) {
	repo := s.repomanager.Ingredients(tx)
	out := make([]*models.Ingredient, 0, len(in))
	for i := range in {
		ing := in[i]
		if err := validateIngredient(&ing); err != nil {
			return nil, err
		}
		ing.Recipe = ref
		added, err := repo.Add(ctx, &ing)
		if err != nil {
			return nil, err
		}
		out = append(out, added)
	}
	return out, nil
}

// ListRecipes returns userID's personal recipes, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	list, err := s.repomanager.Recipes(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if r.ImageURL, err = s.imageURL(ctx, r.ImageURL); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ListFamilyRecipes returns userID's family recipes, newest first.
func (s *RecipeService) ListFamilyRecipes(ctx context.Context, userID int64) ([]*models.FamilyRecipe, error) {
	list, err := s.repomanager.FamilyRecipes(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if r.ImageURL, err = s.imageURL(ctx, r.ImageURL); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// GetRecipe returns a personal recipe of userID with its ingredients.
func (s *RecipeService) GetRecipe(ctx context.Context, id, userID int64) (*models.RecipeDetails, error) {
	ref := models.PersonalRef(id)
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}
	rec, err := s.repomanager.Recipes(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", ref, err)
	}
	if rec.ImageURL, err = s.imageURL(ctx, rec.ImageURL); err != nil {
		return nil, err
	}
	ings, err := s.repomanager.Ingredients(s.db).ListByRecipe(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &models.RecipeDetails{Recipe: rec, Ingredients: ings}, nil
}

// GetFamilyRecipe returns a family recipe of userID with its ingredients.
func (s *RecipeService) GetFamilyRecipe(ctx context.Context, id, userID int64) (*models.FamilyRecipeDetails, error) {
	ref := models.FamilyRef(id)
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}
	rec, err := s.repomanager.FamilyRecipes(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", ref, err)
	}
	if rec.ImageURL, err = s.imageURL(ctx, rec.ImageURL); err != nil {
		return nil, err
	}
	ings, err := s.repomanager.Ingredients(s.db).ListByRecipe(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &models.FamilyRecipeDetails{FamilyRecipe: rec, Ingredients: ings}, nil
}

func checkPatch(ref models.RecipeRef, p models.RecipePatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title must not be empty")
	}
	if p.ReadyInMinutes != nil && *p.ReadyInMinutes < 0 {
		return invalid("readyInMinutes must not be negative")
	}
	if p.Servings != nil && *p.Servings < 0 {
		return invalid("servings must not be negative")
	}
	switch ref.Kind {
	case models.KindPersonal:
		if p.OwnerName != nil || p.WhenToPrepare != nil {
			return invalid("ownerName and whenToPrepare apply to family recipes only")
		}
	case models.KindFamily:
		if p.Vegan != nil || p.Vegetarian != nil || p.GlutenFree != nil || p.Summary != nil {
			return invalid("diet flags and summary apply to personal recipes only")
		}
		if p.OwnerName != nil && strings.TrimSpace(*p.OwnerName) == "" {
			return invalid("ownerName must not be empty")
		}
	}
	return nil
}

// UpdateRecipe applies a partial update to a personal recipe.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id, userID int64, patch models.RecipePatch) (*models.Recipe, error) {
	ref := models.PersonalRef(id)
	if err := checkPatch(ref, patch); err != nil {
		return nil, err
	}
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Recipes(s.db).Update(ctx, id, patch)
}

// UpdateFamilyRecipe applies a partial update to a family recipe.
func (s *RecipeService) UpdateFamilyRecipe(ctx context.Context, id, userID int64, patch models.RecipePatch) (*models.FamilyRecipe, error) {
	ref := models.FamilyRef(id)
	if err := checkPatch(ref, patch); err != nil {
		return nil, err
	}
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}
	return s.repomanager.FamilyRecipes(s.db).Update(ctx, id, patch)
}

// DeleteRecipe removes a personal or family recipe together with everything
// that refers to it: ingredients, steps, every user's progress, favorites,
// views and meal plan entries.
func (s *RecipeService) DeleteRecipe(ctx context.Context, ref models.RecipeRef, userID int64) (err error) {
	ctx, span := startSpan(ctx, "recipes.DeleteRecipe", ref)
	defer func() { endSpan(span, err) }()

	if err := requireLocal(ref); err != nil {
		return err
	}

	return s.steps.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}

		cascade := []func(context.Context, models.RecipeRef) error{
			s.repomanager.Ingredients(tx).DeleteByRecipe,
			s.repomanager.Progress(tx).DeleteByRecipe,
			s.repomanager.Steps(tx).DeleteByRecipe,
			s.repomanager.Favorites(tx).DeleteByRecipe,
			s.repomanager.Views(tx).DeleteByRecipe,
			s.repomanager.MealPlans(tx).DeleteByRecipe,
		}
		for _, del := range cascade {
			if err := del(ctx, ref); err != nil {
				return err
			}
		}

		if ref.Kind == models.KindPersonal {
			return s.repomanager.Recipes(tx).Delete(ctx, ref.ID)
		}
		return s.repomanager.FamilyRecipes(tx).Delete(ctx, ref.ID)
	})
}

// ListIngredients returns the ingredients of a local recipe of userID.
func (s *RecipeService) ListIngredients(ctx context.Context, ref models.RecipeRef, userID int64) ([]*models.Ingredient, error) {
	if err := requireLocal(ref); err != nil {
		return nil, err
	}
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Ingredients(s.db).ListByRecipe(ctx, ref)
}

// AddIngredient appends an ingredient to a local recipe of userID.
func (s *RecipeService) AddIngredient(ctx context.Context, ref models.RecipeRef, userID int64, ing models.Ingredient) (*models.Ingredient, error) {
	if err := requireLocal(ref); err != nil {
		return nil, err
	}
	if err := validateIngredient(&ing); err != nil {
		return nil, err
	}
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}
	ing.Recipe = ref
	return s.repomanager.Ingredients(s.db).Add(ctx, &ing)
}

// ingredientOf loads an ingredient and checks it belongs to ref. An
// ingredient of another recipe is reported as missing.
func (s *RecipeService) ingredientOf(ctx context.Context, db dbx.DBTX, ref models.RecipeRef, id int64) (*models.Ingredient, error) {
	ing, err := s.repomanager.Ingredients(db).Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ingredient %d: %w", id, err)
	}
	if ing.Recipe != ref {
		return nil, fmt.Errorf("ingredient %d of %s: %w", id, ref, common.ErrorNotFound)
	}
	return ing, nil
}

// UpdateIngredient changes an ingredient of a local recipe of userID.
func (s *RecipeService) UpdateIngredient(ctx context.Context, ref models.RecipeRef, id, userID int64, patch models.IngredientPatch) (*models.Ingredient, error) {
	if err := requireLocal(ref); err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("ingredient name must not be empty")
	}
	if patch.Amount != nil && *patch.Amount < 0 {
		return nil, invalid("ingredient amount must not be negative")
	}
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}
	if _, err := s.ingredientOf(ctx, s.db, ref, id); err != nil {
		return nil, err
	}
	return s.repomanager.Ingredients(s.db).Update(ctx, id, patch)
}

// DeleteIngredient removes an ingredient of a local recipe of userID.
func (s *RecipeService) DeleteIngredient(ctx context.Context, ref models.RecipeRef, id, userID int64) error {
	if err := requireLocal(ref); err != nil {
		return err
	}
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return err
	}
	if _, err := s.ingredientOf(ctx, s.db, ref, id); err != nil {
		return err
	}
	return s.repomanager.Ingredients(s.db).Delete(ctx, id)
}

// PresignImage reserves a storage key for a new photo of ref, records it as
// the recipe's image and returns a URL the client can upload to.
func (s *RecipeService) PresignImage(ctx context.Context, ref models.RecipeRef, userID int64) (*ImageUpload, error) {
	if err := requireLocal(ref); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, fmt.Errorf("image storage is not configured: %w", common.ErrorInvalidState)
	}
	if err := s.owners.Authorize(ctx, s.db, ref, userID); err != nil {
		return nil, err
	}

	key := ImageStorageKey(ref)
	url, err := s.images.PresignUpload(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presigning upload for %s: %w", ref, err)
	}

	patch := models.RecipePatch{ImageURL: &key}
	if ref.Kind == models.KindPersonal {
		_, err = s.repomanager.Recipes(s.db).Update(ctx, ref.ID, patch)
	} else {
		_, err = s.repomanager.FamilyRecipes(s.db).Update(ctx, ref.ID, patch)
	}
	if err != nil {
		return nil, err
	}
	return &ImageUpload{Key: key, UploadURL: url}, nil
}

// imageURL turns a stored object key into a download URL. External URLs
// are returned as they are.
func (s *RecipeService) imageURL(ctx context.Context, stored string) (string, error) {
	if s.images == nil || !strings.HasPrefix(stored, imageKeyPrefix) {
		return stored, nil
	}
	url, err := s.images.PresignDownload(ctx, stored)
	if err != nil {
		return "", fmt.Errorf("presigning download of %s: %w", stored, err)
	}
	return url, nil
}
