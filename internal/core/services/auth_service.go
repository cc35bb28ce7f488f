package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	GoogleClientID  string
	ClientCacheTime time.Duration
}

type AuthService struct {
	userRepo            ports.UserRepository
	clientRepo          ports.ClientRepository
	codec               ports.TokenCodec
	googleTokenVerifier ports.TokenVerifier
	cache               ports.Cache
	googleClientID      string
	clientCacheTime     time.Duration
}

func NewAuthService(
	userRepo ports.UserRepository,
	clientRepo ports.ClientRepository,
	codec ports.TokenCodec,
	googleTokenVerifier ports.TokenVerifier,
	cache ports.Cache,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		userRepo:            userRepo,
		clientRepo:          clientRepo,
		codec:               codec,
		googleTokenVerifier: googleTokenVerifier,
		cache:               cache,
		googleClientID:      cfg.GoogleClientID,
		clientCacheTime:     cfg.ClientCacheTime,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (ports.UserSession, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, domain.ErrNotFound) {
		return ports.UserSession{}, invalidCredentials()
	}
	if err != nil {
		return ports.UserSession{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user.PasswordHash == "" {
		return ports.UserSession{}, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ports.UserSession{}, invalidCredentials()
	}
	return s.userSession(user)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, googleToken string) (ports.UserSession, error) {
	if s.googleTokenVerifier == nil || s.googleClientID == "" {
		return ports.UserSession{}, domain.Errorf(domain.ErrValidation, "Google sign-in is not configured.")
	}
	payload, err := s.googleTokenVerifier.Verify(ctx, googleToken, s.googleClientID)
	if err != nil {
		return ports.UserSession{}, domain.Errorf(domain.ErrUnauthorized, "Invalid google token.")
	}

	email := strings.ToLower(payload.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.userRepo.Create(ctx, domain.User{Email: email, Name: payload.Name})
		if err != nil {
			return ports.UserSession{}, fmt.Errorf("failed to create user: %w", err)
		}
	} else if err != nil {
		return ports.UserSession{}, fmt.Errorf("failed to get user: %w", err)
	}

	return s.userSession(user)
}

// Principal resolves the caller behind a bearer credential. User claims are
// trusted as signed; client claims are checked against the stored client
// so that lifetime and domain are always current.
func (s *AuthService) Principal(ctx context.Context, credential string) (domain.Principal, error) {
	if strings.TrimSpace(credential) == "" {
		return domain.Anonymous(), nil
	}
	claims, err := s.codec.Decode(credential)
	if err != nil {
		return domain.Anonymous(), err
	}

	switch claims.Type {
	case domain.SubjectUser:
		if claims.IsAdmin {
			return domain.AdminPrincipal(claims.ID), nil
		}
		return domain.UserPrincipal(claims.ID), nil
	case domain.SubjectClient:
		client, err := s.client(ctx, claims.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Anonymous(), nil
		}
		if err != nil {
			return domain.Anonymous(), err
		}
		return domain.ClientPrincipal(client), nil
	default:
		return domain.Anonymous(), domain.Unauthorized()
	}
}

func (s *AuthService) client(ctx context.Context, id string) (domain.Client, error) {
	key := principalKey(id)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var c domain.Client
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			return c, nil
		}
	}

	clients, err := s.clientRepo.Get(ctx, ports.ClientFilter{IDs: []string{id}}, domain.Page{})
	if err != nil {
		return domain.Client{}, err
	}
	if raw, err := json.Marshal(clients[0]); err == nil {
		_ = s.cache.Set(ctx, key, string(raw), s.clientCacheTime)
	}
	return clients[0], nil
}

// HandleEvent drops cached client principals once the client changes.
func (s *AuthService) HandleEvent(ctx context.Context, ev domain.Event) error {
	change, ok := ev.(domain.Change[domain.Client])
	if !ok || change.Op == domain.OpInsert {
		return nil
	}
	for _, c := range append(change.Old, change.New...) {
		if err := s.cache.Del(ctx, principalKey(c.ID)); err != nil {
			return fmt.Errorf("failed to invalidate principal of client %s: %w", c.ID, err)
		}
	}
	return nil
}

func (s *AuthService) UserToken(user domain.User) (string, error) {
	return s.codec.Encode(domain.Claims{ID: user.ID, Type: domain.SubjectUser, IsAdmin: user.IsAdmin})
}

func (s *AuthService) ClientToken(client domain.Client) (string, error) {
	return s.codec.Encode(domain.Claims{ID: client.ID, Type: domain.SubjectClient})
}

func (s *AuthService) userSession(user domain.User) (ports.UserSession, error) {
	token, err := s.UserToken(user)
	if err != nil {
		return ports.UserSession{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return ports.UserSession{User: user, Token: token}, nil
}

func principalKey(clientID string) string {
	return "principal:client:" + clientID
}

func invalidCredentials() error {
	return domain.Errorf(domain.ErrUnauthorized, "Invalid email or password.")
}
