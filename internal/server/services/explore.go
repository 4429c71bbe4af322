package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/logging"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

// RecipeSource is the external recipe catalogue.
type RecipeSource interface {
	StepSource
	OverviewSource
	Random(ctx context.Context, n int) ([]*models.RecipeOverview, error)
	Information(ctx context.Context, id int64) (*models.RecipeDetail, error)
	Search(ctx context.Context, q models.SearchQuery) ([]*models.RecipeOverview, error)
}

// RandomCount is how many recipes the random pick returns.
const RandomCount = 3

// ExploreService browses the external catalogue and, for logged-in users,
// remembers what they searched for and opened.
type ExploreService struct {
	source  RecipeSource
	library *LibraryService
	log     logging.Logger
}

func NewExploreService(source RecipeSource, library *LibraryService, log logging.Logger) *ExploreService {
	return &ExploreService{source: source, library: library, log: log.With("module", "explore")}
}

func (s *ExploreService) Random(ctx context.Context) ([]*models.RecipeOverview, error) {
	list, err := s.source.Random(ctx, RandomCount)
	if err != nil {
		return nil, fmt.Errorf("random recipes: %w", err)
	}
	return list, nil
}

// Search runs q against the catalogue. A positive userID also stores q as
// that user's last search; failing to store it does not fail the search.
func (s *ExploreService) Search(ctx context.Context, userID int64, q models.SearchQuery) ([]*models.RecipeOverview, error) {
	if q.Number < 0 {
		return nil, invalid("number must not be negative")
	}
	if q.Number == 0 {
		q.Number = common.DefaultSearchLimit
	}

	list, err := s.source.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Query, err)
	}

	if userID > 0 {
		if err := s.library.SaveSearch(ctx, userID, q); err != nil {
			s.log.Warn(ctx, "saving search failed", "user", userID, "error", err)
		}
	}
	return list, nil
}

// Details returns an external recipe and records the view for a positive
// userID.
func (s *ExploreService) Details(ctx context.Context, userID, id int64) (*models.RecipeDetail, error) {
	ref := models.ExternalRef(id)
	if err := ref.Validate(); err != nil {
		return nil, invalid("%v", err)
	}

	d, err := s.source.Information(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", ref, err)
	}

	if userID > 0 {
		if err := s.library.RecordView(ctx, userID, ref); err != nil {
			s.log.Warn(ctx, "recording view failed", "user", userID, "recipe", ref.String(), "error", err)
		}
	}
	return d, nil
}
