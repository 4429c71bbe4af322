package httpapi

import (
	"net/http"
)

type positionRequest struct {
	Position int `json:"position"`
}

type mealPlanItemResponse struct {
	ID       int64  `json:"id"`
	Position int    `json:"position"`
	Ref      string `json:"ref"`
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	list, err := h.library.Favorites(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	var body refBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	ref, err := body.ref()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.library.AddFavorite(r.Context(), userID(r), ref); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "added to favorites")
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.library.RemoveFavorite(r.Context(), userID(r), ref); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lastWatched(w http.ResponseWriter, r *http.Request) {
	list, err := h.library.RecentViews(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) recordView(w http.ResponseWriter, r *http.Request) {
	var body refBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	ref, err := body.ref()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.library.RecordView(r.Context(), userID(r), ref); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "view recorded")
}

func (h *Handler) searchHistory(w http.ResponseWriter, r *http.Request) {
	last, err := h.library.LastSearch(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, last)
}

func (h *Handler) mealPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.library.MealPlan(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(plan))
}

func (h *Handler) addToMealPlan(w http.ResponseWriter, r *http.Request) {
	var body refBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	ref, err := body.ref()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	it, err := h.library.AddToMealPlan(r.Context(), userID(r), ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mealPlanItemResponse{ID: it.ID, Position: it.Position, Ref: it.Recipe.String()})
}

func (h *Handler) clearMealPlan(w http.ResponseWriter, r *http.Request) {
	if err := h.library.ClearMealPlan(r.Context(), userID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) mealPlanCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.library.MealPlanCount(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) moveMealPlanItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req positionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.library.MoveMealPlanItem(r.Context(), userID(r), itemID, req.Position); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "meal plan updated")
}

func (h *Handler) removeFromMealPlan(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.library.RemoveFromMealPlan(r.Context(), userID(r), itemID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
