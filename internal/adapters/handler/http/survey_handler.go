package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type imageRequest struct {
	Image string `json:"image"`
}

func listSurveysInput(r *http.Request) (ports.ListSurveysInput, error) {
	pg, err := page(r, domain.SortableSurveyFields)
	if err != nil {
		return ports.ListSurveysInput{}, err
	}
	return ports.ListSurveysInput{Title: r.URL.Query().Get("title"), Page: pg}, nil
}

func (h *Handler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	input, err := listSurveysInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	surveys, err := h.svc.Surveys.Surveys(r.Context(), principalFrom(r.Context()), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, surveys)
}

func (h *Handler) SurveyAmount(w http.ResponseWriter, r *http.Request) {
	input, err := listSurveysInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n := h.svc.Surveys.SurveyAmount(r.Context(), principalFrom(r.Context()), input)
	writeJSON(w, r, http.StatusOK, amountBody{Amount: n})
}

func (h *Handler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := h.svc.Surveys.Survey(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, survey)
}

func (h *Handler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var input ports.CreateSurveyInput
	if err := decode(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	survey, err := h.svc.Surveys.CreateSurvey(r.Context(), principalFrom(r.Context()), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, survey)
}

func (h *Handler) UpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var patch domain.SurveyPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	survey, err := h.svc.Surveys.UpdateSurvey(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, survey)
}

func (h *Handler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Surveys.DeleteSurvey(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) SetSurveyPreviewImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	survey, err := h.svc.Surveys.SetSurveyPreviewImage(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), req.Image)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, survey)
}

func (h *Handler) RemoveSurveyPreviewImage(w http.ResponseWriter, r *http.Request) {
	survey, err := h.svc.Surveys.RemoveSurveyPreviewImage(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, survey)
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Results.Results(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, results)
}
