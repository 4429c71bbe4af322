// Package httpapi exposes the cookbook services as a JSON REST API with
// cookie-based sessions.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/cookbook/internal/logging"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
)

type Accounts interface {
	Register(ctx context.Context, reg services.Registration) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID int64, refreshToken string) error
	Authenticate(accessToken string) (int64, error)
}

type Steps interface {
	AddStep(ctx context.Context, ref models.RecipeRef, number int, description string, userID int64) (*models.Step, error)
	DeleteStep(ctx context.Context, stepID, userID int64) error
	EditDescription(ctx context.Context, stepID int64, description string, userID int64) (*models.Step, error)
	StepsWithProgress(ctx context.Context, ref models.RecipeRef, userID int64) ([]*models.StepWithProgress, error)
	SetStepStatus(ctx context.Context, ref models.RecipeRef, userID int64, number int, completed bool) error
	ResetProgress(ctx context.Context, ref models.RecipeRef, userID int64) error
}

type Recipes interface {
	CreateRecipe(ctx context.Context, userID int64, in services.NewRecipe) (*models.RecipeDetails, error)
	CreateFamilyRecipe(ctx context.Context, userID int64, in services.NewFamilyRecipe) (*models.FamilyRecipeDetails, error)
	ListRecipes(ctx context.Context, userID int64) ([]*models.Recipe, error)
	ListFamilyRecipes(ctx context.Context, userID int64) ([]*models.FamilyRecipe, error)
	GetRecipe(ctx context.Context, id, userID int64) (*models.RecipeDetails, error)
	GetFamilyRecipe(ctx context.Context, id, userID int64) (*models.FamilyRecipeDetails, error)
	UpdateRecipe(ctx context.Context, id, userID int64, patch models.RecipePatch) (*models.Recipe, error)
	UpdateFamilyRecipe(ctx context.Context, id, userID int64, patch models.RecipePatch) (*models.FamilyRecipe, error)
	DeleteRecipe(ctx context.Context, ref models.RecipeRef, userID int64) error
	ListIngredients(ctx context.Context, ref models.RecipeRef, userID int64) ([]*models.Ingredient, error)
	AddIngredient(ctx context.Context, ref models.RecipeRef, userID int64, ing models.Ingredient) (*models.Ingredient, error)
	UpdateIngredient(ctx context.Context, ref models.RecipeRef, id, userID int64, patch models.IngredientPatch) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, ref models.RecipeRef, id, userID int64) error
	PresignImage(ctx context.Context, ref models.RecipeRef, userID int64) (*services.ImageUpload, error)
}

type Library interface {
	AddFavorite(ctx context.Context, userID int64, ref models.RecipeRef) error
	RemoveFavorite(ctx context.Context, userID int64, ref models.RecipeRef) error
	Favorites(ctx context.Context, userID int64) ([]*models.RecipeOverview, error)
	RecordView(ctx context.Context, userID int64, ref models.RecipeRef) error
	RecentViews(ctx context.Context, userID int64) ([]*models.RecipeOverview, error)
	LastSearch(ctx context.Context, userID int64) (*models.SearchEntry, error)
	AddToMealPlan(ctx context.Context, userID int64, ref models.RecipeRef) (*models.MealPlanItem, error)
	RemoveFromMealPlan(ctx context.Context, userID, itemID int64) error
	MoveMealPlanItem(ctx context.Context, userID, itemID int64, position int) error
	ClearMealPlan(ctx context.Context, userID int64) error
	MealPlanCount(ctx context.Context, userID int64) (int, error)
	MealPlan(ctx context.Context, userID int64) ([]*models.MealPlanEntry, error)
	Like(ctx context.Context, userID int64, ref models.RecipeRef) (int, error)
}

type Explore interface {
	Random(ctx context.Context) ([]*models.RecipeOverview, error)
	Search(ctx context.Context, userID int64, q models.SearchQuery) ([]*models.RecipeOverview, error)
	Details(ctx context.Context, userID, id int64) (*models.RecipeDetail, error)
}

// Options tune the router.
type Options struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookies   bool
	RequestTimeout  time.Duration
}

type Handler struct {
	accounts Accounts
	steps    Steps
	recipes  Recipes
	library  Library
	explore  Explore
	opts     Options
	log      logging.Logger
}

func NewHandler(accounts Accounts, steps Steps, recipes Recipes, library Library, explore Explore, opts Options, log logging.Logger) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Handler{
		accounts: accounts,
		steps:    steps,
		recipes:  recipes,
		library:  library,
		explore:  explore,
		opts:     opts,
		log:      log.With("module", "httpapi"),
	}
}

// Router builds the route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.opts.RequestTimeout))

	r.Get("/alive", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "I'm alive")
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.session)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/logout", h.logout)
			r.Post("/refresh", h.refresh)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.search)
			r.Get("/random", h.random)
			r.Get("/{id}", h.details)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/{kind}/{id}/like", h.like)
				r.Get("/{kind}/{id}/steps", h.listSteps)
				r.Post("/{kind}/{id}/steps", h.addStep)
				r.Post("/{kind}/{id}/progress", h.setProgress)
				r.Delete("/{kind}/{id}/progress", h.resetProgress)
			})
		})

		r.Route("/steps/{stepID}", func(r chi.Router) {
			r.Use(requireUser)
			r.Patch("/", h.editStep)
			r.Delete("/", h.deleteStep)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireUser)

			r.Route("/myRecipes", h.ownRecipeRoutes(models.KindPersonal))
			r.Route("/myFamilyRecipes", h.ownRecipeRoutes(models.KindFamily))

			r.Get("/favorites", h.listFavorites)
			r.Post("/favorites", h.addFavorite)
			r.Delete("/favorites/{kind}/{id}", h.removeFavorite)

			r.Get("/lastWatched", h.lastWatched)
			r.Post("/lastWatched", h.recordView)
			r.Get("/searchHistory", h.searchHistory)

			r.Get("/mealPlan", h.mealPlan)
			r.Post("/mealPlan", h.addToMealPlan)
			r.Delete("/mealPlan", h.clearMealPlan)
			r.Get("/mealPlan/count", h.mealPlanCount)
			r.Patch("/mealPlan/{itemID}", h.moveMealPlanItem)
			r.Delete("/mealPlan/{itemID}", h.removeFromMealPlan)
		})
	})

	return r
}

// accessLog writes one line per request.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
