package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type claims struct {
	ID      string             `json:"id"`
	Type    domain.SubjectType `json:"type"`
	IsAdmin bool               `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

// JWTCodec signs tokens with HS256. A zero ttl issues tokens without
// expiry, the token being the only credential a client keeps.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTCodec(secret string, ttl time.Duration) *JWTCodec {
	return &JWTCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *JWTCodec) Encode(in domain.Claims) (string, error) {
	if in.ID == "" {
		return "", errors.New("token subject id is required")
	}
	if in.Type != domain.SubjectUser && in.Type != domain.SubjectClient {
		return "", fmt.Errorf("unknown token subject type %q", in.Type)
	}

	now := c.now()
	cl := claims{
		ID:      in.ID,
		Type:    in.Type,
		IsAdmin: in.IsAdmin && in.Type == domain.SubjectUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		cl.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode accepts "Bearer <token>" as well as the bare token.
func (c *JWTCodec) Decode(raw string) (domain.Claims, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return domain.Claims{}, domain.Unauthorized()
	}

	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || cl.ID == "" || (cl.Type != domain.SubjectUser && cl.Type != domain.SubjectClient) {
		return domain.Claims{}, domain.Unauthorized()
	}
	return domain.Claims{ID: cl.ID, Type: cl.Type, IsAdmin: cl.IsAdmin}, nil
}
