package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
)

// ownRecipeRoutes mounts the CRUD routes of one authored recipe kind.
func (h *Handler) ownRecipeRoutes(kind models.RecipeKind) func(chi.Router) {
	return func(r chi.Router) {
		if kind == models.KindFamily {
			r.Get("/", h.listFamilyRecipes)
			r.Post("/", h.createFamilyRecipe)
			r.Get("/{id}", h.getFamilyRecipe)
			r.Patch("/{id}", h.updateFamilyRecipe)
		} else {
			r.Get("/", h.listRecipes)
			r.Post("/", h.createRecipe)
			r.Get("/{id}", h.getRecipe)
			r.Patch("/{id}", h.updateRecipe)
		}

		o := ownRecipes{Handler: h, kind: kind}
		r.Delete("/{id}", o.delete)
		r.Get("/{id}/ingredients", o.listIngredients)
		r.Post("/{id}/ingredients", o.addIngredient)
		r.Patch("/{id}/ingredients/{ingredientID}", o.updateIngredient)
		r.Delete("/{id}/ingredients/{ingredientID}", o.deleteIngredient)
		r.Post("/{id}/image", o.presignImage)
	}
}

// ownRecipes serves the routes shared by personal and family recipes.
type ownRecipes struct {
	*Handler
	kind models.RecipeKind
}

func (o ownRecipes) ref(r *http.Request) (models.RecipeRef, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return models.RecipeRef{}, err
	}
	return models.RecipeRef{Kind: o.kind, ID: id}, nil
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	list, err := h.recipes.ListRecipes(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) listFamilyRecipes(w http.ResponseWriter, r *http.Request) {
	list, err := h.recipes.ListFamilyRecipes(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	var in services.NewRecipe
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.recipes.CreateRecipe(r.Context(), userID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) createFamilyRecipe(w http.ResponseWriter, r *http.Request) {
	var in services.NewFamilyRecipe
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.recipes.CreateFamilyRecipe(r.Context(), userID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.recipes.GetRecipe(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) getFamilyRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.recipes.GetFamilyRecipe(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch models.RecipePatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.recipes.UpdateRecipe(r.Context(), id, userID(r), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) updateFamilyRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch models.RecipePatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.recipes.UpdateFamilyRecipe(r.Context(), id, userID(r), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (o ownRecipes) delete(w http.ResponseWriter, r *http.Request) {
	ref, err := o.ref(r)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	if err := o.recipes.DeleteRecipe(r.Context(), ref, userID(r)); err != nil {
		o.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (o ownRecipes) listIngredients(w http.ResponseWriter, r *http.Request) {
	ref, err := o.ref(r)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	list, err := o.recipes.ListIngredients(r.Context(), ref, userID(r))
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (o ownRecipes) addIngredient(w http.ResponseWriter, r *http.Request) {
	ref, err := o.ref(r)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	var ing models.Ingredient
	if err := decode(r, &ing); err != nil {
		o.writeError(w, r, err)
		return
	}
	out, err := o.recipes.AddIngredient(r.Context(), ref, userID(r), ing)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (o ownRecipes) updateIngredient(w http.ResponseWriter, r *http.Request) {
	ref, err := o.ref(r)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	id, err := idParam(r, "ingredientID")
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	var patch models.IngredientPatch
	if err := decode(r, &patch); err != nil {
		o.writeError(w, r, err)
		return
	}
	out, err := o.recipes.UpdateIngredient(r.Context(), ref, id, userID(r), patch)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (o ownRecipes) deleteIngredient(w http.ResponseWriter, r *http.Request) {
	ref, err := o.ref(r)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	id, err := idParam(r, "ingredientID")
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	if err := o.recipes.DeleteIngredient(r.Context(), ref, id, userID(r)); err != nil {
		o.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// presignImage makes the returned key the recipe's image and hands out the
// URL the client PUTs the photo to.
func (o ownRecipes) presignImage(w http.ResponseWriter, r *http.Request) {
	ref, err := o.ref(r)
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	up, err := o.recipes.PresignImage(r.Context(), ref, userID(r))
	if err != nil {
		o.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}
