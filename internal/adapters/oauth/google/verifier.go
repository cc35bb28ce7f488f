package google

import (
	"context"
	"errors"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"google.golang.org/api/idtoken"
)

type GoogleVerifier struct {
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewVerifier() ports.TokenVerifier {
	return &GoogleVerifier{validate: idtoken.Validate}
}

// Verify validates a Google ID token for clientID and extracts the account
// the user signed in with.
func (v *GoogleVerifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	payload, err := v.validate(ctx, token, clientID)
	if err != nil {
		return nil, err
	}
	return identity(payload.Claims)
}

func identity(claims map[string]interface{}) (*ports.TokenPayload, error) {
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, errors.New("email not found in claims")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email is not verified")
	}
	name, ok := claims["name"].(string)
	if !ok || name == "" {
		name = strings.Split(email, "@")[0]
	}
	return &ports.TokenPayload{Email: strings.ToLower(email), Name: name}, nil
}
