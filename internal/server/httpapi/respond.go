package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/cookbook/internal/common"
)

const maxBodyBytes = 1 << 20

type message struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, message{Message: msg, Success: status < 400})
}

// statusOf maps service errors onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorInvalidArgument), errors.Is(err, common.ErrorInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrExternalUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError answers with the status of err. Server-side failures are
// logged and their details kept from the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		writeMessage(w, status, http.StatusText(status))
		return
	}
	writeMessage(w, status, err.Error())
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %v: %w", err, common.ErrorInvalidArgument)
	}
	return nil
}
