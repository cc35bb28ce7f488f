package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input ports.CreateUserInput
	if err := decode(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.svc.Users.CreateUser(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setAccessTokenCookie(w, session.Token)
	writeJSON(w, r, http.StatusCreated, session)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	pg, err := page(r, domain.SortableUserFields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.svc.Users.Users(r.Context(), principalFrom(r.Context()), pg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

func (h *Handler) UserAmount(w http.ResponseWriter, r *http.Request) {
	n := h.svc.Users.UserAmount(r.Context(), principalFrom(r.Context()))
	writeJSON(w, r, http.StatusOK, amountBody{Amount: n})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	user, err := h.svc.Users.User(r.Context(), p, p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.User(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch domain.UserPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.svc.Users.UpdateUser(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Users.DeleteUser(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}
