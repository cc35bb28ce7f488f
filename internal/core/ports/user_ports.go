package ports

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type UserFilter struct {
	IDs   []string
	Email string
}

type UserRepository interface {
	Get(ctx context.Context, filter UserFilter, page domain.Page) ([]domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	Delete(ctx context.Context, id string) error
}

type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserSession is returned by the operations that hand out a user token.
type UserSession struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (UserSession, error)
	Users(ctx context.Context, p domain.Principal, page domain.Page) ([]domain.User, error)
	User(ctx context.Context, p domain.Principal, id string) (domain.User, error)
	UsersByID(ctx context.Context, ids []string) ([]domain.User, error)
	UserAmount(ctx context.Context, p domain.Principal) int
	UpdateUser(ctx context.Context, p domain.Principal, id string, patch domain.UserPatch) (domain.User, error)
	DeleteUser(ctx context.Context, p domain.Principal, id string) error
}
