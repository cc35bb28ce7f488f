package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type ownerRequest struct {
	Email string `json:"email"`
}

type removedBody struct {
	Removed bool `json:"removed"`
}

func listDomainsInput(r *http.Request) (ports.ListDomainsInput, error) {
	pg, err := page(r, domain.SortableDomainFields)
	if err != nil {
		return ports.ListDomainsInput{}, err
	}
	input := ports.ListDomainsInput{Name: r.URL.Query().Get("name"), Page: pg}
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			qt := domain.QuestionType(strings.ToUpper(strings.TrimSpace(t)))
			if !qt.Valid() {
				return ports.ListDomainsInput{}, domain.Errorf(domain.ErrValidation, "Invalid question type %q.", t)
			}
			input.Types = append(input.Types, qt)
		}
	}
	return input, nil
}

func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	input, err := listDomainsInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	domains, err := h.svc.Domains.Domains(r.Context(), p, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentDomains(p, domains))
}

func (h *Handler) DomainAmount(w http.ResponseWriter, r *http.Request) {
	input, err := listDomainsInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n := h.svc.Domains.DomainAmount(r.Context(), principalFrom(r.Context()), input)
	writeJSON(w, r, http.StatusOK, amountBody{Amount: n})
}

func (h *Handler) GetDomain(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	d, err := h.svc.Domains.Domain(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentDomain(p, d))
}

func (h *Handler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var input ports.CreateDomainInput
	if err := decode(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	d, err := h.svc.Domains.CreateDomain(r.Context(), p, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, h.presentDomain(p, d))
}

func (h *Handler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	var patch domain.DomainPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	d, err := h.svc.Domains.UpdateDomain(r.Context(), p, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentDomain(p, d))
}

func (h *Handler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Domains.DeleteDomain(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) SetDomainOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	d, err := h.svc.Domains.SetDomainOwner(r.Context(), p, chi.URLParam(r, "id"), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentDomain(p, d))
}

func (h *Handler) RemoveDomainOwner(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Domains.RemoveDomainOwner(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, removedBody{Removed: removed})
}

func (h *Handler) ActiveQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Domains.ActiveQuestion(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, q)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Domains.State(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (h *Handler) SetState(w http.ResponseWriter, r *http.Request) {
	var state domain.State
	if err := decode(r, &state); err != nil {
		h.writeError(w, r, err)
		return
	}

	state, err := h.svc.Domains.SetState(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), state)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (h *Handler) RemoveState(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Domains.RemoveState(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}
