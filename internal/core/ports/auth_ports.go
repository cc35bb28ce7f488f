package ports

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type TokenCodec interface {
	Encode(claims domain.Claims) (string, error)
	Decode(token string) (domain.Claims, error)
}

type TokenPayload struct {
	Email string
	Name  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (UserSession, error)
	LoginWithGoogle(ctx context.Context, credential string) (UserSession, error)
	// Principal resolves a bearer credential. An empty credential is anonymous.
	Principal(ctx context.Context, credential string) (domain.Principal, error)
}
