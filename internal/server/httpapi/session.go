package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
)

const refreshCookiePath = "/api/auth"

// session resolves the access token from the cookie or a bearer header.
// Requests without a valid token continue anonymously.
func (h *Handler) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessToken(r)
		if token != "" {
			if userID, err := h.accounts.Authenticate(token); err == nil {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			writeMessage(w, http.StatusUnauthorized, common.ErrorUnauthorized.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userID is only called behind requireUser.
func userID(r *http.Request) int64 {
	id, _ := UserIDFromContext(r.Context())
	return id
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, p *services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    p.AccessToken,
		Path:     "/",
		MaxAge:   int(h.opts.AccessTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    p.RefreshToken,
		Path:     refreshCookiePath,
		MaxAge:   int(h.opts.RefreshTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for name, path := range map[string]string{
		common.AccessTokenCookieName:  "/",
		common.RefreshTokenCookieName: refreshCookiePath,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Path:     path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.opts.SecureCookies,
		})
	}
}
