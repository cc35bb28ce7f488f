package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type permanentClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type temporaryClientRequest struct {
	Domain string `json:"domain"`
}

func listClientsInput(r *http.Request) (ports.ListClientsInput, error) {
	pg, err := page(r, domain.SortableClientFields)
	if err != nil {
		return ports.ListClientsInput{}, err
	}
	return ports.ListClientsInput{Name: r.URL.Query().Get("name"), Page: pg}, nil
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	input, err := listClientsInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	clients, err := h.svc.Clients.Clients(r.Context(), p, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentClients(p, clients))
}

func (h *Handler) ClientAmount(w http.ResponseWriter, r *http.Request) {
	input, err := listClientsInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n := h.svc.Clients.ClientAmount(r.Context(), principalFrom(r.Context()), input)
	writeJSON(w, r, http.StatusOK, amountBody{Amount: n})
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	c, err := h.svc.Clients.Client(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentClient(p, c))
}

func (h *Handler) CreatePermanentClient(w http.ResponseWriter, r *http.Request) {
	var req permanentClientRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.svc.Clients.CreatePermanentClient(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, session)
}

func (h *Handler) CreateTemporaryClient(w http.ResponseWriter, r *http.Request) {
	var req temporaryClientRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.svc.Clients.CreateTemporaryClient(r.Context(), req.Domain)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, session)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var patch domain.ClientPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	c, err := h.svc.Clients.UpdateClient(r.Context(), p, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentClient(p, c))
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clients.DeleteClient(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) SetClientOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	c, err := h.svc.Clients.SetClientOwner(r.Context(), p, chi.URLParam(r, "id"), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.presentClient(p, c))
}

func (h *Handler) RemoveClientOwner(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Clients.RemoveClientOwner(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, removedBody{Removed: removed})
}
