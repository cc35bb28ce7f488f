package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.svc.Questions.Questions(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, questions)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var input ports.CreateQuestionInput
	if err := decode(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	q, err := h.svc.Questions.CreateQuestion(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, q)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch domain.QuestionPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	q, err := h.svc.Questions.UpdateQuestion(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, q)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Questions.DeleteQuestion(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}

// The nested entities of a question share the same request shapes, so
// their handlers are built from the service method they call.
func createNested[In, Out any](h *Handler, create func(context.Context, domain.Principal, string, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input In
		if err := decode(r, &input); err != nil {
			h.writeError(w, r, err)
			return
		}
		out, err := create(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), input)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, out)
	}
}

func updateNested[P, Out any](h *Handler, update func(context.Context, domain.Principal, string, string, P) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch P
		if err := decode(r, &patch); err != nil {
			h.writeError(w, r, err)
			return
		}
		out, err := update(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "nestedID"), patch)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	}
}

func deleteNested(h *Handler, del func(context.Context, domain.Principal, string, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := del(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "nestedID")); err != nil {
			h.writeError(w, r, err)
			return
		}
		noContent(w)
	}
}

func setNestedImage[Out any](h *Handler, set func(context.Context, domain.Principal, string, string, string) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		out, err := set(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "nestedID"), req.Image)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	}
}

func removeNestedImage[Out any](h *Handler, remove func(context.Context, domain.Principal, string, string) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := remove(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "nestedID"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, out)
	}
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	createNested(h, h.svc.Questions.CreateItem)(w, r)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	updateNested(h, h.svc.Questions.UpdateItem)(w, r)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	deleteNested(h, h.svc.Questions.DeleteItem)(w, r)
}

func (h *Handler) SetItemImage(w http.ResponseWriter, r *http.Request) {
	setNestedImage(h, h.svc.Questions.SetItemImage)(w, r)
}

func (h *Handler) RemoveItemImage(w http.ResponseWriter, r *http.Request) {
	removeNestedImage(h, h.svc.Questions.RemoveItemImage)(w, r)
}

func (h *Handler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	createNested(h, h.svc.Questions.CreateLabel)(w, r)
}

func (h *Handler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	updateNested(h, h.svc.Questions.UpdateLabel)(w, r)
}

func (h *Handler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	deleteNested(h, h.svc.Questions.DeleteLabel)(w, r)
}

func (h *Handler) SetLabelImage(w http.ResponseWriter, r *http.Request) {
	setNestedImage(h, h.svc.Questions.SetLabelImage)(w, r)
}

func (h *Handler) RemoveLabelImage(w http.ResponseWriter, r *http.Request) {
	removeNestedImage(h, h.svc.Questions.RemoveLabelImage)(w, r)
}

func (h *Handler) CreateChoice(w http.ResponseWriter, r *http.Request) {
	createNested(h, h.svc.Questions.CreateChoice)(w, r)
}

func (h *Handler) UpdateChoice(w http.ResponseWriter, r *http.Request) {
	updateNested(h, h.svc.Questions.UpdateChoice)(w, r)
}

func (h *Handler) DeleteChoice(w http.ResponseWriter, r *http.Request) {
	deleteNested(h, h.svc.Questions.DeleteChoice)(w, r)
}

func (h *Handler) SetChoiceImage(w http.ResponseWriter, r *http.Request) {
	setNestedImage(h, h.svc.Questions.SetChoiceImage)(w, r)
}

func (h *Handler) RemoveChoiceImage(w http.ResponseWriter, r *http.Request) {
	removeNestedImage(h, h.svc.Questions.RemoveChoiceImage)(w, r)
}
