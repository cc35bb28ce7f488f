package domain

import "slices"

type Role int

const (
	RoleAnonymous Role = iota
	RoleAdmin
	RoleUser
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleUser:
		return "USER"
	case RoleClient:
		return "CLIENT"
	default:
		return "ANONYMOUS"
	}
}

// Principal is the identity performing a request. It is derived from a
// verified token on every request and never persisted.
type Principal struct {
	Role     Role
	ID       string
	Lifetime Lifetime
	Domain   *string
}

func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

func AdminPrincipal(id string) Principal {
	return Principal{Role: RoleAdmin, ID: id}
}

func UserPrincipal(id string) Principal {
	return Principal{Role: RoleUser, ID: id}
}

func ClientPrincipal(c Client) Principal {
	return Principal{Role: RoleClient, ID: c.ID, Lifetime: c.Lifetime, Domain: c.Domain}
}

func (p Principal) Authenticated() bool {
	return p.Role != RoleAnonymous
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsUser() bool {
	return p.Role == RoleUser
}

func (p Principal) IsClient() bool {
	return p.Role == RoleClient
}

func (p Principal) IsPermanentClient() bool {
	return p.Role == RoleClient && p.Lifetime == LifetimePermanent
}

func (p Principal) IsTemporaryClient() bool {
	return p.Role == RoleClient && p.Lifetime == LifetimeTemporary
}

// InDomain reports whether the principal is a client bound to domainID.
func (p Principal) InDomain(domainID string) bool {
	return p.Role == RoleClient && p.Domain != nil && *p.Domain == domainID
}

// Owned is implemented by every entity carrying mutation rights.
type Owned interface {
	OwnerIDs() []string
}

// OwnedBy reports whether userID is one of the owners of o.
func OwnedBy(o Owned, userID string) bool {
	return userID != "" && slices.Contains(o.OwnerIDs(), userID)
}

type SubjectType string

const (
	SubjectUser   SubjectType = "user"
	SubjectClient SubjectType = "client"
)

// Claims is the token payload.
type Claims struct {
	ID      string      `json:"id"`
	Type    SubjectType `json:"type"`
	IsAdmin bool        `json:"isAdmin,omitempty"`
}
