package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

// search is open to everyone; logged-in callers get it saved as their last
// search.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	number, err := queryInt(r, "number")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	query := models.SearchQuery{
		Query:         q.Get("query"),
		Cuisine:       q.Get("cuisine"),
		Diet:          q.Get("diet"),
		Intolerances:  q.Get("intolerances"),
		Number:        number,
		Sort:          q.Get("sort"),
		SortDirection: q.Get("sortDirection"),
	}

	id, _ := UserIDFromContext(r.Context())
	list, err := h.explore.Search(r.Context(), id, query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) random(w http.ResponseWriter, r *http.Request) {
	list, err := h.explore.Random(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) details(w http.ResponseWriter, r *http.Request) {
	recipeID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, _ := UserIDFromContext(r.Context())
	d, err := h.explore.Details(r.Context(), id, recipeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) like(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.library.Like(r.Context(), userID(r), ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"popularity": n})
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
