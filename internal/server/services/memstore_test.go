package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
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

// txDB returns a real database whose transactions carry nothing; the memStore
// ignores the handle it is given.
func txDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type progressKey struct {
	user   int64
	ref    models.RecipeRef
	number int
}

// memStore is an in-memory RepositoryManager. Every repository it vends
// shares the same state and enforces the same unique keys as the schema.
type memStore struct {
	mu sync.Mutex

	nextID int64

	users         map[int64]*models.User
	sessions      map[string]*models.Session
	recipes       map[int64]*models.Recipe
	familyRecipes map[int64]*models.FamilyRecipe
	ingredients   map[int64]*models.Ingredient
	steps         map[int64]*models.Step
	progress      map[progressKey]*models.Progress
	favorites     map[progressKey]*models.Favorite
	views         []*models.RecipeView
	searches      map[int64]*models.SearchEntry
	mealPlans     map[int64]*models.MealPlanItem
	likes         map[models.RecipeRef]int
	locked        []models.RecipeRef
	lockedPlans   []int64

	// failures maps an operation name such as "Steps.Append" to the error it
	// should return.
	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[int64]*models.User{},
		sessions:      map[string]*models.Session{},
		recipes:       map[int64]*models.Recipe{},
		familyRecipes: map[int64]*models.FamilyRecipe{},
		ingredients:   map[int64]*models.Ingredient{},
		steps:         map[int64]*models.Step{},
		progress:      map[progressKey]*models.Progress{},
		favorites:     map[progressKey]*models.Favorite{},
		searches:      map[int64]*models.SearchEntry{},
		mealPlans:     map[int64]*models.MealPlanItem{},
		likes:         map[models.RecipeRef]int{},
		failures:      map[string]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) fail(op string) error {
	return m.failures[op]
}

func (m *memStore) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *memStore) RollbackMigration(context.Context, *sql.DB) error { return nil }

func (m *memStore) Users(dbx.DBTX) users.Repository                 { return memUsers{m} }
func (m *memStore) Sessions(dbx.DBTX) sessions.Repository           { return memSessions{m} }
func (m *memStore) Recipes(dbx.DBTX) recipes.Repository             { return memRecipes{m} }
func (m *memStore) FamilyRecipes(dbx.DBTX) familyrecipes.Repository { return memFamily{m} }
func (m *memStore) Ingredients(dbx.DBTX) ingredients.Repository     { return memIngredients{m} }
func (m *memStore) Steps(dbx.DBTX) steps.Repository                 { return memSteps{m} }
func (m *memStore) Progress(dbx.DBTX) progress.Repository           { return memProgress{m} }
func (m *memStore) Favorites(dbx.DBTX) favorites.Repository         { return memFavorites{m} }
func (m *memStore) Views(dbx.DBTX) views.Repository                 { return memViews{m} }
func (m *memStore) Searches(dbx.DBTX) searches.Repository           { return memSearches{m} }
func (m *memStore) MealPlans(dbx.DBTX) mealplans.Repository         { return memMealPlans{m} }
func (m *memStore) Likes(dbx.DBTX) likes.Repository                 { return memLikes{m} }
func (m *memStore) Locks(dbx.DBTX) locks.Locker                     { return memLocks{m} }

// --- seeding and inspection helpers ---

func (m *memStore) addUser(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), UserName: name}
	m.users[u.ID] = u
	return u.ID
}

func (m *memStore) addRecipe(owner int64, descriptions ...string) models.RecipeRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &models.Recipe{ID: m.id(), UserID: owner, Title: "recipe"}
	m.recipes[r.ID] = r
	ref := models.PersonalRef(r.ID)
	for i, d := range descriptions {
		st := &models.Step{ID: m.id(), Recipe: ref, Number: i + 1, Description: d}
		m.steps[st.ID] = st
	}
	return ref
}

func (m *memStore) addFamilyRecipe(owner int64) models.RecipeRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &models.FamilyRecipe{ID: m.id(), UserID: owner, Title: "family", OwnerName: "Grandma"}
	m.familyRecipes[r.ID] = r
	return models.FamilyRef(r.ID)
}

func (m *memStore) stepList(ref models.RecipeRef) []*models.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepsOf(ref)
}

func (m *memStore) stepsOf(ref models.RecipeRef) []*models.Step {
	var out []*models.Step
	for _, s := range m.steps {
		if s.Recipe == ref {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (m *memStore) progressNumbers(user int64, ref models.RecipeRef) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for k := range m.progress {
		if k.user == user && k.ref == ref {
			out = append(out, k.number)
		}
	}
	sort.Ints(out)
	return out
}

func (m *memStore) progressAt(user int64, ref models.RecipeRef, number int) *models.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progressKey{user, ref, number}]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func (m *memStore) setProgress(user int64, ref models.RecipeRef, number int, completed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Progress{UserID: user, Recipe: ref, Number: number, Completed: completed}
	if completed {
		now := time.Now()
		p.CompletedAt = &now
	}
	m.progress[progressKey{user, ref, number}] = p
}

// --- users ---

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.m.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.m.id()
	c.CreatedAt = time.Now()
	r.m.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.UserName == name {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) Exists(ctx context.Context, name string) (bool, error) {
	_, err := r.GetByUsername(ctx, name)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}

// --- sessions ---

type memSessions struct{ m *memStore }

func (r memSessions) Create(_ context.Context, userID int64, token string, validity time.Duration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Sessions.Create"); err != nil {
		return err
	}
	r.m.sessions[token] = &models.Session{ID: r.m.id(), UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (r memSessions) Find(_ context.Context, token string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r memSessions) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Sessions.Delete"); err != nil {
		return err
	}
	if _, ok := r.m.sessions[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.sessions, token)
	return nil
}

func (r memSessions) DeleteForUser(_ context.Context, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k, s := range r.m.sessions {
		if s.UserID == userID {
			delete(r.m.sessions, k)
		}
	}
	return nil
}

// --- personal recipes ---

type memRecipes struct{ m *memStore }

func (r memRecipes) Create(_ context.Context, rec *models.Recipe) (*models.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Recipes.Create"); err != nil {
		return nil, err
	}
	c := *rec
	c.ID = r.m.id()
	c.CreatedAt = time.Now()
	r.m.recipes[c.ID] = &c
	out := c
	return &out, nil
}

func (r memRecipes) GetByID(_ context.Context, id int64) (*models.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.recipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *rec
	return &c, nil
}

func (r memRecipes) ListByUser(_ context.Context, userID int64) ([]*models.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.Recipe{}
	for _, rec := range r.m.recipes {
		if rec.UserID == userID {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRecipes) Update(_ context.Context, id int64, p models.RecipePatch) (*models.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.recipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.ImageURL != nil {
		rec.ImageURL = *p.ImageURL
	}
	if p.ReadyInMinutes != nil {
		rec.ReadyInMinutes = *p.ReadyInMinutes
	}
	if p.Vegan != nil {
		rec.Vegan = *p.Vegan
	}
	if p.Vegetarian != nil {
		rec.Vegetarian = *p.Vegetarian
	}
	if p.GlutenFree != nil {
		rec.GlutenFree = *p.GlutenFree
	}
	if p.Servings != nil {
		rec.Servings = *p.Servings
	}
	if p.Summary != nil {
		rec.Summary = *p.Summary
	}
	c := *rec
	return &c, nil
}

func (r memRecipes) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.recipes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.recipes, id)
	return nil
}

func (r memRecipes) IsOwner(_ context.Context, id, userID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.recipes[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	return rec.UserID == userID, nil
}

func (r memRecipes) IncrementPopularity(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if rec, ok := r.m.recipes[id]; ok {
		rec.Popularity++
	}
	return nil
}

// --- family recipes ---

type memFamily struct{ m *memStore }

func (r memFamily) Create(_ context.Context, rec *models.FamilyRecipe) (*models.FamilyRecipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *rec
	c.ID = r.m.id()
	c.CreatedAt = time.Now()
	r.m.familyRecipes[c.ID] = &c
	out := c
	return &out, nil
}

func (r memFamily) GetByID(_ context.Context, id int64) (*models.FamilyRecipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.familyRecipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *rec
	return &c, nil
}

func (r memFamily) ListByUser(_ context.Context, userID int64) ([]*models.FamilyRecipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.FamilyRecipe{}
	for _, rec := range r.m.familyRecipes {
		if rec.UserID == userID {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memFamily) Update(_ context.Context, id int64, p models.RecipePatch) (*models.FamilyRecipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.familyRecipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.OwnerName != nil {
		rec.OwnerName = *p.OwnerName
	}
	if p.WhenToPrepare != nil {
		rec.WhenToPrepare = *p.WhenToPrepare
	}
	if p.ImageURL != nil {
		rec.ImageURL = *p.ImageURL
	}
	if p.ReadyInMinutes != nil {
		rec.ReadyInMinutes = *p.ReadyInMinutes
	}
	if p.Servings != nil {
		rec.Servings = *p.Servings
	}
	c := *rec
	return &c, nil
}

func (r memFamily) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.familyRecipes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.familyRecipes, id)
	return nil
}

func (r memFamily) IsOwner(_ context.Context, id, userID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.familyRecipes[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	return rec.UserID == userID, nil
}

// --- ingredients ---

type memIngredients struct{ m *memStore }

func (r memIngredients) Add(_ context.Context, ing *models.Ingredient) (*models.Ingredient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *ing
	c.ID = r.m.id()
	r.m.ingredients[c.ID] = &c
	out := c
	return &out, nil
}

func (r memIngredients) ListByRecipe(_ context.Context, ref models.RecipeRef) ([]*models.Ingredient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.Ingredient{}
	for _, ing := range r.m.ingredients {
		if ing.Recipe == ref {
			c := *ing
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memIngredients) Get(_ context.Context, id int64) (*models.Ingredient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ing, ok := r.m.ingredients[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *ing
	return &c, nil
}

func (r memIngredients) Update(_ context.Context, id int64, p models.IngredientPatch) (*models.Ingredient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ing, ok := r.m.ingredients[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.Name != nil {
		ing.Name = *p.Name
	}
	if p.Amount != nil {
		ing.Amount = *p.Amount
	}
	if p.Unit != nil {
		ing.Unit = *p.Unit
	}
	c := *ing
	return &c, nil
}

func (r memIngredients) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.ingredients[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.ingredients, id)
	return nil
}

func (r memIngredients) DeleteByRecipe(_ context.Context, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, ing := range r.m.ingredients {
		if ing.Recipe == ref {
			delete(r.m.ingredients, id)
		}
	}
	return nil
}

func (r memIngredients) Count(_ context.Context, ref models.RecipeRef) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := 0
	for _, ing := range r.m.ingredients {
		if ing.Recipe == ref {
			n++
		}
	}
	return n, nil
}

// --- steps ---

type memSteps struct{ m *memStore }

func (r memSteps) occupied(ref models.RecipeRef, number int) *models.Step {
	for _, s := range r.m.steps {
		if s.Recipe == ref && s.Number == number {
			return s
		}
	}
	return nil
}

func (r memSteps) Append(_ context.Context, ref models.RecipeRef, number int, d string) (*models.Step, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Steps.Append"); err != nil {
		return nil, err
	}
	if r.occupied(ref, number) != nil {
		return nil, fmt.Errorf("duplicate step %d of %s", number, ref)
	}
	s := &models.Step{ID: r.m.id(), Recipe: ref, Number: number, Description: d}
	r.m.steps[s.ID] = s
	c := *s
	return &c, nil
}

func (r memSteps) Get(_ context.Context, id int64) (*models.Step, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.steps[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r memSteps) List(_ context.Context, ref models.RecipeRef) ([]*models.Step, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := r.m.stepsOf(ref)
	if out == nil {
		out = []*models.Step{}
	}
	return out, nil
}

func (r memSteps) MaxNumber(_ context.Context, ref models.RecipeRef) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := 0
	for _, s := range r.m.steps {
		if s.Recipe == ref && s.Number > n {
			n = s.Number
		}
	}
	return n, nil
}

func (r memSteps) UpdateDescription(_ context.Context, id int64, d string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.steps[id]
	if !ok {
		return common.ErrorNotFound
	}
	s.Description = d
	return nil
}

func (r memSteps) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.steps[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.steps, id)
	return nil
}

func (r memSteps) DeleteByRecipe(_ context.Context, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, s := range r.m.steps {
		if s.Recipe == ref {
			delete(r.m.steps, id)
		}
	}
	return nil
}

// shift moves steps one number at a time and fails like a non-deferred
// unique constraint if the target number is still taken.
func (r memSteps) shift(ref models.RecipeRef, numbers []int, delta int) error {
	for _, n := range numbers {
		s := r.occupied(ref, n)
		if s == nil {
			continue
		}
		if r.occupied(ref, n+delta) != nil {
			return fmt.Errorf("duplicate step %d of %s", n+delta, ref)
		}
		s.Number = n + delta
	}
	return nil
}

func (r memSteps) ShiftForward(_ context.Context, ref models.RecipeRef, from int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Steps.ShiftForward"); err != nil {
		return err
	}
	var numbers []int
	for _, s := range r.m.stepsOf(ref) {
		if s.Number >= from {
			numbers = append(numbers, s.Number)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(numbers)))
	return r.shift(ref, numbers, 1)
}

func (r memSteps) ShiftBackward(_ context.Context, ref models.RecipeRef, from int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var numbers []int
	for _, s := range r.m.stepsOf(ref) {
		if s.Number > from {
			numbers = append(numbers, s.Number)
		}
	}
	return r.shift(ref, numbers, -1)
}

// --- progress ---

type memProgress struct{ m *memStore }

func (r memProgress) Initialize(_ context.Context, userID int64, ref models.RecipeRef, number int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Progress.Initialize"); err != nil {
		return err
	}
	k := progressKey{userID, ref, number}
	if _, ok := r.m.progress[k]; ok {
		return fmt.Errorf("duplicate progress %d of %s", number, ref)
	}
	r.m.progress[k] = &models.Progress{UserID: userID, Recipe: ref, Number: number}
	return nil
}

func (r memProgress) Complete(_ context.Context, userID int64, ref models.RecipeRef, number int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p, ok := r.m.progress[progressKey{userID, ref, number}]; ok && !p.Completed {
		now := time.Now()
		p.Completed = true
		p.CompletedAt = &now
	}
	return nil
}

func (r memProgress) Uncomplete(_ context.Context, userID int64, ref models.RecipeRef, number int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p, ok := r.m.progress[progressKey{userID, ref, number}]; ok {
		p.Completed = false
		p.CompletedAt = nil
	}
	return nil
}

func (r memProgress) List(_ context.Context, userID int64, ref models.RecipeRef) ([]*models.Progress, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.Progress{}
	for k, p := range r.m.progress {
		if k.user == userID && k.ref == ref {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r memProgress) Count(ctx context.Context, userID int64, ref models.RecipeRef) (int, error) {
	l, err := r.List(ctx, userID, ref)
	return len(l), err
}

func (r memProgress) DeleteAt(_ context.Context, ref models.RecipeRef, number int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k := range r.m.progress {
		if k.ref == ref && k.number == number {
			delete(r.m.progress, k)
		}
	}
	return nil
}

func (r memProgress) DeleteAbove(_ context.Context, userID int64, ref models.RecipeRef, number int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k := range r.m.progress {
		if k.user == userID && k.ref == ref && k.number > number {
			delete(r.m.progress, k)
		}
	}
	return nil
}

func (r memProgress) shift(ref models.RecipeRef, numbers []int, delta int) error {
	for _, n := range numbers {
		for k, p := range r.m.progress {
			if k.ref != ref || k.number != n {
				continue
			}
			target := progressKey{k.user, ref, n + delta}
			if _, ok := r.m.progress[target]; ok {
				return fmt.Errorf("duplicate progress %d of %s", n+delta, ref)
			}
			delete(r.m.progress, k)
			p.Number = n + delta
			r.m.progress[target] = p
		}
	}
	return nil
}

func (r memProgress) numbers(ref models.RecipeRef, keep func(int) bool) []int {
	seen := map[int]bool{}
	var out []int
	for k := range r.m.progress {
		if k.ref == ref && keep(k.number) && !seen[k.number] {
			seen[k.number] = true
			out = append(out, k.number)
		}
	}
	sort.Ints(out)
	return out
}

func (r memProgress) ShiftForward(_ context.Context, ref models.RecipeRef, from int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	numbers := r.numbers(ref, func(n int) bool { return n >= from })
	sort.Sort(sort.Reverse(sort.IntSlice(numbers)))
	return r.shift(ref, numbers, 1)
}

func (r memProgress) ShiftBackward(_ context.Context, ref models.RecipeRef, from int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.shift(ref, r.numbers(ref, func(n int) bool { return n > from }), -1)
}

func (r memProgress) Reset(_ context.Context, userID int64, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k := range r.m.progress {
		if k.user == userID && k.ref == ref {
			delete(r.m.progress, k)
		}
	}
	return nil
}

func (r memProgress) DeleteByRecipe(_ context.Context, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k := range r.m.progress {
		if k.ref == ref {
			delete(r.m.progress, k)
		}
	}
	return nil
}

// --- favorites ---

type memFavorites struct{ m *memStore }

func (r memFavorites) Add(_ context.Context, userID int64, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	k := progressKey{user: userID, ref: ref}
	if _, ok := r.m.favorites[k]; !ok {
		r.m.favorites[k] = &models.Favorite{UserID: userID, Recipe: ref, CreatedAt: time.Now()}
	}
	return nil
}

func (r memFavorites) List(_ context.Context, userID int64) ([]*models.Favorite, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.Favorite{}
	for k, f := range r.m.favorites {
		if k.user == userID {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Recipe.String() < out[j].Recipe.String() })
	return out, nil
}

func (r memFavorites) Delete(_ context.Context, userID int64, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	k := progressKey{user: userID, ref: ref}
	if _, ok := r.m.favorites[k]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.favorites, k)
	return nil
}

func (r memFavorites) Exists(_ context.Context, userID int64, ref models.RecipeRef) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.favorites[progressKey{user: userID, ref: ref}]
	return ok, nil
}

func (r memFavorites) DeleteByRecipe(_ context.Context, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k := range r.m.favorites {
		if k.ref == ref {
			delete(r.m.favorites, k)
		}
	}
	return nil
}

// --- views ---

type memViews struct{ m *memStore }

func (r memViews) Add(_ context.Context, userID int64, ref models.RecipeRef, keep int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Views.Add"); err != nil {
		return err
	}
	var mine, others []*models.RecipeView
	for _, v := range r.m.views {
		switch {
		case v.UserID != userID:
			others = append(others, v)
		case v.Recipe != ref:
			mine = append(mine, v)
		}
	}
	mine = append([]*models.RecipeView{{ID: r.m.id(), UserID: userID, Recipe: ref, ViewedAt: time.Now()}}, mine...)
	if len(mine) > keep {
		mine = mine[:keep]
	}
	r.m.views = append(others, mine...)
	return nil
}

func (r memViews) ListRecent(_ context.Context, userID int64) ([]*models.RecipeView, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.RecipeView{}
	for _, v := range r.m.views {
		if v.UserID == userID {
			c := *v
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memViews) DeleteForUser(_ context.Context, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var keep []*models.RecipeView
	for _, v := range r.m.views {
		if v.UserID != userID {
			keep = append(keep, v)
		}
	}
	r.m.views = keep
	return nil
}

func (r memViews) DeleteByRecipe(_ context.Context, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var keep []*models.RecipeView
	for _, v := range r.m.views {
		if v.Recipe != ref {
			keep = append(keep, v)
		}
	}
	r.m.views = keep
	return nil
}

// --- searches ---

type memSearches struct{ m *memStore }

func (r memSearches) Save(_ context.Context, e *models.SearchEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *e
	c.SearchedAt = time.Now()
	r.m.searches[e.UserID] = &c
	return nil
}

func (r memSearches) Last(_ context.Context, userID int64) (*models.SearchEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.searches[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *e
	return &c, nil
}

func (r memSearches) DeleteForUser(_ context.Context, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Searches.DeleteForUser"); err != nil {
		return err
	}
	delete(r.m.searches, userID)
	return nil
}

// --- meal plans ---

type memMealPlans struct{ m *memStore }

func (r memMealPlans) of(userID int64) []*models.MealPlanItem {
	var out []*models.MealPlanItem
	for _, it := range r.m.mealPlans {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (r memMealPlans) renumber(userID int64) {
	for i, it := range r.of(userID) {
		it.Position = i + 1
	}
}

func (r memMealPlans) Add(_ context.Context, userID int64, ref models.RecipeRef) (*models.MealPlanItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	it := &models.MealPlanItem{ID: r.m.id(), UserID: userID, Recipe: ref, Position: len(r.of(userID)) + 1}
	r.m.mealPlans[it.ID] = it
	c := *it
	return &c, nil
}

func (r memMealPlans) List(_ context.Context, userID int64) ([]*models.MealPlanItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.MealPlanItem{}
	for _, it := range r.of(userID) {
		c := *it
		out = append(out, &c)
	}
	return out, nil
}

func (r memMealPlans) Delete(_ context.Context, userID, itemID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	it, ok := r.m.mealPlans[itemID]
	if !ok || it.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.m.mealPlans, itemID)
	r.renumber(userID)
	return nil
}

func (r memMealPlans) Clear(_ context.Context, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, it := range r.m.mealPlans {
		if it.UserID == userID {
			delete(r.m.mealPlans, id)
		}
	}
	return nil
}

func (r memMealPlans) Count(_ context.Context, userID int64) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.of(userID)), nil
}

func (r memMealPlans) Move(_ context.Context, userID, itemID int64, position int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	it, ok := r.m.mealPlans[itemID]
	if !ok || it.UserID != userID {
		return common.ErrorNotFound
	}
	items := r.of(userID)
	to := min(max(position, 1), len(items))
	var rest []*models.MealPlanItem
	for _, x := range items {
		if x.ID != itemID {
			rest = append(rest, x)
		}
	}
	ordered := append(append(append([]*models.MealPlanItem{}, rest[:to-1]...), it), rest[to-1:]...)
	for i, x := range ordered {
		x.Position = i + 1
	}
	return nil
}

func (r memMealPlans) DeleteByRecipe(_ context.Context, ref models.RecipeRef) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	touched := map[int64]bool{}
	for id, it := range r.m.mealPlans {
		if it.Recipe == ref {
			touched[it.UserID] = true
			delete(r.m.mealPlans, id)
		}
	}
	for u := range touched {
		r.renumber(u)
	}
	return nil
}

// --- likes and locks ---

type memLikes struct{ m *memStore }

func (r memLikes) Increment(_ context.Context, ref models.RecipeRef) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.likes[ref]++
	return r.m.likes[ref], nil
}

func (r memLikes) Count(_ context.Context, ref models.RecipeRef) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.likes[ref], nil
}

type memLocks struct{ m *memStore }

func (l memLocks) LockRecipe(_ context.Context, ref models.RecipeRef) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if err := l.m.fail("Locks.LockRecipe"); err != nil {
		return err
	}
	l.m.locked = append(l.m.locked, ref)
	return nil
}

func (l memLocks) LockMealPlan(_ context.Context, userID int64) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if err := l.m.fail("Locks.LockMealPlan"); err != nil {
		return err
	}
	l.m.lockedPlans = append(l.m.lockedPlans, userID)
	return nil
}
