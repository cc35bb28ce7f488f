package authz

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny() Decision {
	return Decision{Reason: "Not authorized or no permissions."}
}

// Err converts a denial into the generic unauthorized error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.Errorf(domain.ErrUnauthorized, "%s", d.Reason)
}

// Evaluator combines the static rule table with the ownership checks that
// need a snapshot of the target entity.
type Evaluator struct {
	rules    map[Operation]Rule
	resolver *Resolver
}

func NewEvaluator(resolver *Resolver) *Evaluator {
	return &Evaluator{rules: DefaultRules(), resolver: resolver}
}

func (e *Evaluator) Resolver() *Resolver {
	return e.resolver
}

// Decide applies the static rule of op. Unknown operations are denied.
func (e *Evaluator) Decide(p domain.Principal, op Operation) Decision {
	rule, ok := e.rules[op]
	if !ok || !rule(p) {
		return Deny()
	}
	return Allow()
}

func (e *Evaluator) Authorize(p domain.Principal, op Operation) error {
	return e.Decide(p, op).Err()
}

func decide(ok bool) error {
	if ok {
		return nil
	}
	return Deny().Err()
}

// ReadDomainState allows admins, owners and clients bound to the domain.
func (e *Evaluator) ReadDomainState(p domain.Principal, d domain.Domain) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		return decide(domain.OwnedBy(d, p.ID))
	case domain.RoleClient:
		return decide(p.InDomain(d.ID))
	default:
		return Deny().Err()
	}
}

// ManageDomain covers deletion and owner changes.
func (e *Evaluator) ManageDomain(p domain.Principal, d domain.Domain) error {
	return decide(e.resolver.IsOwner(p, d))
}

// UpdateDomain lets clients of the domain move its active question and
// nothing else.
func (e *Evaluator) UpdateDomain(p domain.Principal, d domain.Domain, patch domain.DomainPatch) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		return decide(domain.OwnedBy(d, p.ID))
	case domain.RoleClient:
		if !patch.OnlyActiveQuestion() {
			return domain.Errorf(domain.ErrValidation, "Clients are only allowed to update the activeQuestion attribute.")
		}
		return decide(p.InDomain(d.ID))
	default:
		return Deny().Err()
	}
}

// ReadClient allows admins, owners, the client itself and clients of the
// same domain.
func (e *Evaluator) ReadClient(p domain.Principal, c domain.Client) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		return decide(domain.OwnedBy(c, p.ID))
	case domain.RoleClient:
		return decide(p.ID == c.ID || (c.Domain != nil && p.InDomain(*c.Domain)))
	default:
		return Deny().Err()
	}
}

// ManageClient covers deletion and owner changes.
func (e *Evaluator) ManageClient(p domain.Principal, c domain.Client) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		return decide(domain.OwnedBy(c, p.ID))
	case domain.RoleClient:
		return decide(p.ID == c.ID)
	default:
		return Deny().Err()
	}
}

// UpdateClient applies the temporary client lock before any role check:
// a temporary client only ever accepts {domain: null}. Users may also
// detach a client from a domain they own.
func (e *Evaluator) UpdateClient(ctx context.Context, p domain.Principal, c domain.Client, patch domain.ClientPatch) error {
	if c.IsTemporary() && !patch.IsOnlyDomainRemoval() {
		return domain.Errorf(domain.ErrValidation, "Cant update temporary Clients (except for removing the domain).")
	}

	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		if domain.OwnedBy(c, p.ID) {
			return nil
		}
		if !patch.IsOnlyDomainRemoval() {
			return Deny().Err()
		}
		ok, err := e.resolver.IsInDomainOwnedBy(ctx, c, p.ID)
		if err != nil {
			return err
		}
		return decide(ok)
	case domain.RoleClient:
		return decide(p.ID == c.ID)
	default:
		return Deny().Err()
	}
}

// ClientSecrets guards the owners and code fields of a client.
func (e *Evaluator) ClientSecrets(p domain.Principal, c domain.Client) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleUser:
		return domain.OwnedBy(c, p.ID)
	case domain.RoleClient:
		return p.ID == c.ID
	default:
		return false
	}
}

// DomainOwners guards the owners field of a domain.
func (e *Evaluator) DomainOwners(p domain.Principal, d domain.Domain) bool {
	return e.resolver.IsOwner(p, d)
}

// ManageUser allows admins and the user itself.
func (e *Evaluator) ManageUser(p domain.Principal, userID string) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		return decide(p.ID == userID)
	default:
		return Deny().Err()
	}
}

// Owns is the generic ownership check for surveys and images.
func (e *Evaluator) Owns(p domain.Principal, o domain.Owned) error {
	return decide(e.resolver.IsOwner(p, o))
}

// ReadDomain guards the live view of a domain: its active question and
// its update stream. Public domains are open to every client.
func (e *Evaluator) ReadDomain(p domain.Principal, d domain.Domain) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		return decide(domain.OwnedBy(d, p.ID))
	case domain.RoleClient:
		return decide(p.InDomain(d.ID) || d.IsPublic)
	default:
		return Deny().Err()
	}
}

// SubscribeDomain is re-run by the notifier against the current snapshot.
func (e *Evaluator) SubscribeDomain(p domain.Principal, d domain.Domain) error {
	return e.ReadDomain(p, d)
}

func (e *Evaluator) SubscribeClient(ctx context.Context, p domain.Principal, c domain.Client) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		return decide(domain.OwnedBy(c, p.ID))
	case domain.RoleClient:
		if p.ID == c.ID {
			return nil
		}
		ok, err := e.resolver.ClientSharesDomain(ctx, p.ID, c)
		if err != nil {
			return err
		}
		return decide(ok)
	default:
		return Deny().Err()
	}
}
