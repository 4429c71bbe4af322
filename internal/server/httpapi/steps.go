package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

type addStepRequest struct {
	StepNumber      int    `json:"stepNumber"`
	StepDescription string `json:"stepDescription"`
}

type editStepRequest struct {
	StepDescription string `json:"stepDescription"`
}

type progressRequest struct {
	StepNumber int  `json:"stepNumber"`
	Completed  bool `json:"completed"`
}

type stepResponse struct {
	ID              int64  `json:"id"`
	Recipe          string `json:"recipe"`
	StepNumber      int    `json:"stepNumber"`
	StepDescription string `json:"stepDescription"`
}

func newStepResponse(s *models.Step) stepResponse {
	return stepResponse{
		ID:              s.ID,
		Recipe:          s.Recipe.String(),
		StepNumber:      s.Number,
		StepDescription: s.Description,
	}
}

func (h *Handler) listSteps(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	steps, err := h.steps.StepsWithProgress(r.Context(), ref, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(steps))
}

func (h *Handler) addStep(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req addStepRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	step, err := h.steps.AddStep(r.Context(), ref, req.StepNumber, req.StepDescription, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStepResponse(step))
}

func (h *Handler) editStep(w http.ResponseWriter, r *http.Request) {
	stepID, err := idParam(r, "stepID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req editStepRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	step, err := h.steps.EditDescription(r.Context(), stepID, req.StepDescription, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStepResponse(step))
}

func (h *Handler) deleteStep(w http.ResponseWriter, r *http.Request) {
	stepID, err := idParam(r, "stepID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.steps.DeleteStep(r.Context(), stepID, userID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setProgress(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req progressRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.steps.SetStepStatus(r.Context(), ref, userID(r), req.StepNumber, req.Completed); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "progress saved")
}

func (h *Handler) resetProgress(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.steps.ResetProgress(r.Context(), ref, userID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
