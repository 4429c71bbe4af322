package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Country   string `json:"country"`
	Email     string `json:"email"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var reg services.Registration
	if err := decode(r, &reg); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.accounts.Register(r.Context(), reg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Country:   u.Country,
		Email:     u.Email,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(r, &c); err != nil {
		h.writeError(w, r, err)
		return
	}

	pair, err := h.accounts.Login(r.Context(), c.Username, c.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	writeMessage(w, http.StatusOK, "logged in")
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(common.RefreshTokenCookieName)
	if err != nil || c.Value == "" {
		h.writeError(w, r, fmt.Errorf("no refresh token: %w", common.ErrorUnauthorized))
		return
	}

	pair, err := h.accounts.RefreshToken(r.Context(), c.Value)
	if err != nil {
		h.clearSessionCookies(w)
		h.writeError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	writeMessage(w, http.StatusOK, "token refreshed")
}

// logout always clears the cookies, even when the session is already gone.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		refreshToken = c.Value
	}
	id, _ := UserIDFromContext(r.Context())

	h.clearSessionCookies(w)
	if err := h.accounts.Logout(r.Context(), id, refreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out")
}
