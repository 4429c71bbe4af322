package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/logging"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/repomanager"
)

// OverviewSource loads short forms of external recipes.
type OverviewSource interface {
	Overviews(ctx context.Context, ids []int64) ([]*models.RecipeOverview, error)
}

// LibraryService keeps each user's own lists: favorites, recently viewed
// recipes, the last search and the meal plan. It also counts likes.
type LibraryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	owners      *Owners
	source      OverviewSource
	log         logging.Logger
}

func NewLibraryService(db *sql.DB, m repomanager.RepositoryManager, source OverviewSource, log logging.Logger) *LibraryService {
	return &LibraryService{
		db:          db,
		repomanager: m,
		owners:      NewOwners(m),
		source:      source,
		log:         log.With("module", "library"),
	}
}

// readable checks that userID may see ref: external recipes are public,
// local ones belong to their author.
func (s *LibraryService) readable(ctx context.Context, ref models.RecipeRef, userID int64) error {
	if err := ref.Validate(); err != nil {
		return invalid("%v", err)
	}
	return s.owners.Authorize(ctx, s.db, ref, userID)
}

// AddFavorite saves ref for userID. Saving it twice is not an error.
func (s *LibraryService) AddFavorite(ctx context.Context, userID int64, ref models.RecipeRef) error {
	if err := s.readable(ctx, ref, userID); err != nil {
		return err
	}
	return s.repomanager.Favorites(s.db).Add(ctx, userID, ref)
}

// RemoveFavorite returns common.ErrorNotFound if ref was not saved.
func (s *LibraryService) RemoveFavorite(ctx context.Context, userID int64, ref models.RecipeRef) error {
	if err := ref.Validate(); err != nil {
		return invalid("%v", err)
	}
	if err := s.repomanager.Favorites(s.db).Delete(ctx, userID, ref); err != nil {
		return fmt.Errorf("favorite %s: %w", ref, err)
	}
	return nil
}

func (s *LibraryService) Favorites(ctx context.Context, userID int64) ([]*models.RecipeOverview, error) {
	favs, err := s.repomanager.Favorites(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]models.RecipeRef, 0, len(favs))
	for _, f := range favs {
		refs = append(refs, f.Recipe)
	}
	return s.overviews(ctx, userID, refs)
}

// RecordView remembers that userID opened ref. Only the latest
// common.MaxRecentViews recipes are kept.
func (s *LibraryService) RecordView(ctx context.Context, userID int64, ref models.RecipeRef) error {
	if err := s.readable(ctx, ref, userID); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Views(tx).Add(ctx, userID, ref, common.MaxRecentViews)
	})
}

// RecentViews returns the recently opened recipes, newest first.
func (s *LibraryService) RecentViews(ctx context.Context, userID int64) ([]*models.RecipeOverview, error) {
	views, err := s.repomanager.Views(s.db).ListRecent(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]models.RecipeRef, 0, len(views))
	for _, v := range views {
		refs = append(refs, v.Recipe)
	}
	return s.overviews(ctx, userID, refs)
}

// SaveSearch replaces userID's last search.
func (s *LibraryService) SaveSearch(ctx context.Context, userID int64, q models.SearchQuery) error {
	limit := q.Number
	if limit <= 0 {
		limit = common.DefaultSearchLimit
	}
	return s.repomanager.Searches(s.db).Save(ctx, &models.SearchEntry{
		UserID:      userID,
		Query:       q.Query,
		Cuisine:     q.Cuisine,
		Diet:        q.Diet,
		Intolerance: q.Intolerances,
		Limit:       limit,
	})
}

// LastSearch returns common.ErrorNotFound if userID has not searched since
// the last logout.
func (s *LibraryService) LastSearch(ctx context.Context, userID int64) (*models.SearchEntry, error) {
	return s.repomanager.Searches(s.db).Last(ctx, userID)
}

// AddToMealPlan appends ref at the end of userID's meal plan.
func (s *LibraryService) AddToMealPlan(ctx context.Context, userID int64, ref models.RecipeRef) (*models.MealPlanItem, error) {
	if err := s.readable(ctx, ref, userID); err != nil {
		return nil, err
	}
	var item *models.MealPlanItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Locks(tx).LockMealPlan(ctx, userID); err != nil {
			return err
		}
		var err error
		item, err = s.repomanager.MealPlans(tx).Add(ctx, userID, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveFromMealPlan deletes one item and moves the later ones up.
func (s *LibraryService) RemoveFromMealPlan(ctx context.Context, userID, itemID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Locks(tx).LockMealPlan(ctx, userID); err != nil {
			return err
		}
		if err := s.repomanager.MealPlans(tx).Delete(ctx, userID, itemID); err != nil {
			return fmt.Errorf("meal plan item %d: %w", itemID, err)
		}
		return nil
	})
}

// MoveMealPlanItem puts itemID at position, clamped to the plan's length.
func (s *LibraryService) MoveMealPlanItem(ctx context.Context, userID, itemID int64, position int) error {
	if position <= 0 {
		return invalid("position %d", position)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Locks(tx).LockMealPlan(ctx, userID); err != nil {
			return err
		}
		if err := s.repomanager.MealPlans(tx).Move(ctx, userID, itemID, position); err != nil {
			return fmt.Errorf("meal plan item %d: %w", itemID, err)
		}
		return nil
	})
}

func (s *LibraryService) ClearMealPlan(ctx context.Context, userID int64) error {
	return s.repomanager.MealPlans(s.db).Clear(ctx, userID)
}

func (s *LibraryService) MealPlanCount(ctx context.Context, userID int64) (int, error) {
	return s.repomanager.MealPlans(s.db).Count(ctx, userID)
}

// MealPlan lists userID's plan in order, each item with its recipe.
func (s *LibraryService) MealPlan(ctx context.Context, userID int64) ([]*models.MealPlanEntry, error) {
	items, err := s.repomanager.MealPlans(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]models.RecipeRef, 0, len(items))
	for _, it := range items {
		refs = append(refs, it.Recipe)
	}
	overviews, err := s.overviews(ctx, userID, refs)
	if err != nil {
		return nil, err
	}
	byRef := make(map[models.RecipeRef]*models.RecipeOverview, len(overviews))
	for _, o := range overviews {
		byRef[o.Ref()] = o
	}

	out := make([]*models.MealPlanEntry, 0, len(items))
	for _, it := range items {
		out = append(out, &models.MealPlanEntry{
			ID:       it.ID,
			Position: it.Position,
			Ref:      it.Recipe.String(),
			Recipe:   byRef[it.Recipe],
		})
	}
	return out, nil
}

// Like adds a like to ref and returns its popularity. A personal recipe
// counts likes in its own popularity column and can only be liked by its
// author; other kinds use the shared counter.
func (s *LibraryService) Like(ctx context.Context, userID int64, ref models.RecipeRef) (popularity int, err error) {
	ctx, span := startSpan(ctx, "library.Like", ref)
	defer func() { endSpan(span, err) }()

	if err := s.readable(ctx, ref, userID); err != nil {
		return 0, err
	}
	if ref.Kind != models.KindPersonal {
		return s.repomanager.Likes(s.db).Increment(ctx, ref)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)
		if err := repo.IncrementPopularity(ctx, ref.ID); err != nil {
			return err
		}
		rec, err := repo.GetByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		popularity = rec.Popularity
		return nil
	})
	return popularity, err
}

// overviews resolves refs in order. Recipes that are gone or not visible to
// userID are skipped, and so are external ones if the source fails.
func (s *LibraryService) overviews(ctx context.Context, userID int64, refs []models.RecipeRef) ([]*models.RecipeOverview, error) {
	var externalIDs []int64
	for _, ref := range refs {
		if ref.Kind == models.KindExternal {
			externalIDs = append(externalIDs, ref.ID)
		}
	}
	external := map[int64]*models.RecipeOverview{}
	if len(externalIDs) > 0 && s.source != nil {
		list, err := s.source.Overviews(ctx, externalIDs)
		if err != nil {
			s.log.Warn(ctx, "external overviews unavailable", "count", len(externalIDs), "error", err)
		}
		for _, o := range list {
			external[o.ID] = o
		}
	}

	out := make([]*models.RecipeOverview, 0, len(refs))
	for _, ref := range refs {
		o, err := s.overview(ctx, userID, ref, external)
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorForbidden) {
			s.log.Debug(ctx, "skipping recipe", "recipe", ref.String(), "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *LibraryService) overview(ctx context.Context, userID int64, ref models.RecipeRef, external map[int64]*models.RecipeOverview) (*models.RecipeOverview, error) {
	switch ref.Kind {
	case models.KindPersonal:
		rec, err := s.repomanager.Recipes(s.db).GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if rec.UserID != userID {
			return nil, common.ErrorForbidden
		}
		return models.PersonalOverview(rec), nil
	case models.KindFamily:
		rec, err := s.repomanager.FamilyRecipes(s.db).GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if rec.UserID != userID {
			return nil, common.ErrorForbidden
		}
		return models.FamilyOverview(rec), nil
	}
	if o, ok := external[ref.ID]; ok {
		return o, nil
	}
	return nil, common.ErrorNotFound
}
