package ports

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

// DomainFilter selects domains. Zero-valued fields do not constrain.
type DomainFilter struct {
	IDs              []string
	Owner            string
	Name             string
	ActiveSurvey     string
	ActiveQuestion   string
	WithActiveSurvey bool
	PublicOnly       bool
}

type DomainRepository interface {
	Get(ctx context.Context, filter DomainFilter, page domain.Page) ([]domain.Domain, error)
	Insert(ctx context.Context, d domain.Domain) (domain.Domain, error)
	Update(ctx context.Context, filter DomainFilter, patch domain.DomainPatch) ([]domain.Domain, error)
	Delete(ctx context.Context, filter DomainFilter) (int64, error)
	AddOwner(ctx context.Context, id, userID string) (domain.Domain, error)
	RemoveOwner(ctx context.Context, id, userID string) (domain.Domain, error)
	SetState(ctx context.Context, id string, state domain.State) (domain.State, error)
	RemoveState(ctx context.Context, id, key string) error
}

type ListDomainsInput struct {
	Name  string
	Types []domain.QuestionType
	Page  domain.Page
}

type CreateDomainInput struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"isPublic"`
}

type DomainService interface {
	Domains(ctx context.Context, p domain.Principal, input ListDomainsInput) ([]domain.Domain, error)
	Domain(ctx context.Context, p domain.Principal, id string) (domain.Domain, error)
	DomainAmount(ctx context.Context, p domain.Principal, input ListDomainsInput) int
	State(ctx context.Context, p domain.Principal, id, key string) (domain.State, error)
	ActiveQuestion(ctx context.Context, p domain.Principal, id string) (domain.Question, error)
	CreateDomain(ctx context.Context, p domain.Principal, input CreateDomainInput) (domain.Domain, error)
	UpdateDomain(ctx context.Context, p domain.Principal, id string, patch domain.DomainPatch) (domain.Domain, error)
	DeleteDomain(ctx context.Context, p domain.Principal, id string) error
	SetDomainOwner(ctx context.Context, p domain.Principal, id, email string) (domain.Domain, error)
	RemoveDomainOwner(ctx context.Context, p domain.Principal, id, ownerID string) (bool, error)
	SetState(ctx context.Context, p domain.Principal, id string, state domain.State) (domain.State, error)
	RemoveState(ctx context.Context, p domain.Principal, id, key string) error
}
