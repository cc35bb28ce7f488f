package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type UserService struct {
	repo  ports.UserRepository
	codec ports.TokenCodec
	authz *authz.Evaluator
}

func NewUserService(repo ports.UserRepository, codec ports.TokenCodec, evaluator *authz.Evaluator) ports.UserService {
	return &UserService{
		repo:  repo,
		codec: codec,
		authz: evaluator,
	}
}

func (s *UserService) CreateUser(ctx context.Context, input ports.CreateUserInput) (ports.UserSession, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return ports.UserSession{}, err
	}
	hash, err := hashPassword(input.Password)
	if err != nil {
		return ports.UserSession{}, err
	}

	user, err := s.repo.Create(ctx, domain.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
	})
	if err != nil {
		return ports.UserSession{}, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.codec.Encode(domain.Claims{ID: user.ID, Type: domain.SubjectUser, IsAdmin: user.IsAdmin})
	if err != nil {
		return ports.UserSession{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return ports.UserSession{User: user, Token: token}, nil
}

func (s *UserService) Users(ctx context.Context, p domain.Principal, page domain.Page) ([]domain.User, error) {
	switch p.Role {
	case domain.RoleAdmin:
		return s.repo.Get(ctx, ports.UserFilter{}, page)
	case domain.RoleUser:
		return s.repo.Get(ctx, ports.UserFilter{IDs: []string{p.ID}}, page)
	default:
		return nil, domain.Unauthorized()
	}
}

func (s *UserService) User(ctx context.Context, p domain.Principal, id string) (domain.User, error) {
	if err := s.authz.ManageUser(p, id); err != nil {
		return domain.User{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// UsersByID resolves owner references without any permission check. It
// backs the owners field, whose visibility is guarded by the caller.
func (s *UserService) UsersByID(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	users, err := s.repo.Get(ctx, ports.UserFilter{IDs: ids}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.User{}, nil
	}
	return users, err
}

func (s *UserService) UserAmount(ctx context.Context, p domain.Principal) int {
	users, err := s.Users(ctx, p, domain.Page{})
	if err != nil {
		return 0
	}
	return len(users)
}

func (s *UserService) UpdateUser(ctx context.Context, p domain.Principal, id string, patch domain.UserPatch) (domain.User, error) {
	if err := s.authz.ManageUser(p, id); err != nil {
		return domain.User{}, err
	}
	if patch.IsAdmin.Set && !p.IsAdmin() {
		return domain.User{}, domain.Unauthorized()
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if name, ok := patch.Name.Get(); ok {
		user.Name = strings.TrimSpace(name)
	}
	if raw, ok := patch.Email.Get(); ok {
		if user.Email, err = normalizeEmail(raw); err != nil {
			return domain.User{}, err
		}
	}
	if password, ok := patch.Password.Get(); ok {
		if user.PasswordHash, err = hashPassword(password); err != nil {
			return domain.User{}, err
		}
	}
	if isAdmin, ok := patch.IsAdmin.Get(); ok {
		user.IsAdmin = isAdmin
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, p domain.Principal, id string) error {
	if err := s.authz.ManageUser(p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.Errorf(domain.ErrValidation, "Invalid email address.")
	}
	return strings.ToLower(addr.Address), nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", domain.Errorf(domain.ErrValidation, "Password must be at least %d characters long.", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
