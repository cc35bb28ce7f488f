package http

import (
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// presentDomain hides the owners of domains the caller does not own.
func (h *Handler) presentDomain(p domain.Principal, d domain.Domain) domain.Domain {
	if !h.svc.Authz.DomainOwners(p, d) {
		d.Owners = nil
	}
	return d
}

func (h *Handler) presentDomains(p domain.Principal, ds []domain.Domain) []domain.Domain {
	out := make([]domain.Domain, len(ds))
	for i, d := range ds {
		out[i] = h.presentDomain(p, d)
	}
	return out
}

// presentClient hides owners and access code from everyone but admins,
// owners and the client itself.
func (h *Handler) presentClient(p domain.Principal, c domain.Client) domain.Client {
	if !h.svc.Authz.ClientSecrets(p, c) {
		c.Owners = nil
		c.Code = nil
	}
	return c
}

func (h *Handler) presentClients(p domain.Principal, cs []domain.Client) []domain.Client {
	out := make([]domain.Client, len(cs))
	for i, c := range cs {
		out[i] = h.presentClient(p, c)
	}
	return out
}

func (h *Handler) presentUpdate(p domain.Principal, u ports.UpdateEvent) ports.UpdateEvent {
	if u.Domain != nil {
		d := h.presentDomain(p, *u.Domain)
		u.Domain = &d
	}
	if u.Client != nil {
		c := h.presentClient(p, *u.Client)
		u.Client = &c
	}
	return u
}
