package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

// idParam reads a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad %s %q: %w", name, raw, common.ErrorInvalidArgument)
	}
	return id, nil
}

func refParam(r *http.Request) (models.RecipeRef, error) {
	ref, err := models.ParseRecipeRef(chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		return models.RecipeRef{}, fmt.Errorf("%v: %w", err, common.ErrorInvalidArgument)
	}
	return ref, nil
}

// refBody is how clients name a recipe in request bodies.
type refBody struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

func (b refBody) ref() (models.RecipeRef, error) {
	ref, err := models.ParseRecipeRef(b.Kind, strconv.FormatInt(b.ID, 10))
	if err != nil {
		return models.RecipeRef{}, fmt.Errorf("%v: %w", err, common.ErrorInvalidArgument)
	}
	return ref, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", name, raw, common.ErrorInvalidArgument)
	}
	return n, nil
}
