package ports

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type ClientFilter struct {
	IDs      []string
	Owner    string
	Name     string
	Domain   string
	Code     string
	WithCode bool
	Lifetime domain.Lifetime
}

type ClientRepository interface {
	Get(ctx context.Context, filter ClientFilter, page domain.Page) ([]domain.Client, error)
	Insert(ctx context.Context, c domain.Client) (domain.Client, error)
	Update(ctx context.Context, filter ClientFilter, patch domain.ClientPatch) ([]domain.Client, error)
	Delete(ctx context.Context, filter ClientFilter) (int64, error)
	AddOwner(ctx context.Context, id, userID string) (domain.Client, error)
	RemoveOwner(ctx context.Context, id, userID string) (domain.Client, error)
}

type ListClientsInput struct {
	Name string
	Page domain.Page
}

// ClientSession is returned by the operations that hand out a client token.
type ClientSession struct {
	Client domain.Client `json:"client"`
	Token  string        `json:"token"`
	Code   string        `json:"code,omitempty"`
}

type ClientService interface {
	Clients(ctx context.Context, p domain.Principal, input ListClientsInput) ([]domain.Client, error)
	Client(ctx context.Context, p domain.Principal, id string) (domain.Client, error)
	ClientAmount(ctx context.Context, p domain.Principal, input ListClientsInput) int
	LoginClient(ctx context.Context, email, code string) (ClientSession, error)
	CreatePermanentClient(ctx context.Context, name, email string) (ClientSession, error)
	CreateTemporaryClient(ctx context.Context, domainID string) (ClientSession, error)
	UpdateClient(ctx context.Context, p domain.Principal, id string, patch domain.ClientPatch) (domain.Client, error)
	DeleteClient(ctx context.Context, p domain.Principal, id string) error
	SetClientOwner(ctx context.Context, p domain.Principal, id, email string) (domain.Client, error)
	RemoveClientOwner(ctx context.Context, p domain.Principal, id, ownerID string) (bool, error)
}
