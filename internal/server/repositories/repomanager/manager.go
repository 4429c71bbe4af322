package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/favorites"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/familyrecipes"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/ingredients"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/likes"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/locks"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/mealplans"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/progress"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/searches"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/steps"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/users"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/views"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services decide the transaction scope.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	RollbackMigration(context.Context, *sql.DB) error

	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	FamilyRecipes(db dbx.DBTX) familyrecipes.Repository
	Ingredients(db dbx.DBTX) ingredients.Repository
	Steps(db dbx.DBTX) steps.Repository
	Progress(db dbx.DBTX) progress.Repository
	Favorites(db dbx.DBTX) favorites.Repository
	Views(db dbx.DBTX) views.Repository
	Searches(db dbx.DBTX) searches.Repository
	MealPlans(db dbx.DBTX) mealplans.Repository
	Likes(db dbx.DBTX) likes.Repository
	Locks(db dbx.DBTX) locks.Locker
}
