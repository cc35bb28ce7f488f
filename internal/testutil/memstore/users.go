package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Users struct {
	t   *table[domain.User]
	clk *clock
}

func cloneUser(u domain.User) domain.User {
	return u
}

func matchUser(f ports.UserFilter) func(domain.User) bool {
	return func(u domain.User) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, u.ID):
			return false
		case f.Email != "" && !strings.EqualFold(u.Email, f.Email):
			return false
		}
		return true
	}
}

func (r *Users) Get(_ context.Context, filter ports.UserFilter, page domain.Page) ([]domain.User, error) {
	found := r.t.find(matchUser(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindUser)
	}
	return found, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.Get(ctx, ports.UserFilter{Email: email}, domain.Page{})
	if err != nil {
		return domain.User{}, err
	}
	return found[0], nil
}

func (r *Users) GetByID(ctx context.Context, id string) (domain.User, error) {
	found, err := r.Get(ctx, ports.UserFilter{IDs: []string{id}}, domain.Page{})
	if err != nil {
		return domain.User{}, err
	}
	return found[0], nil
}

func (r *Users) Create(_ context.Context, user domain.User) (domain.User, error) {
	if len(r.t.find(matchUser(ports.UserFilter{Email: user.Email}), domain.Page{})) > 0 {
		return domain.User{}, domain.Errorf(domain.ErrValidation, "Email is already in use.")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.clk.now()
	user.CreationDate, user.LastUpdate = now, now
	return r.t.insert(user), nil
}

func (r *Users) Update(_ context.Context, user domain.User) (domain.User, error) {
	now := r.clk.now()
	_, updated := r.t.update(matchUser(ports.UserFilter{IDs: []string{user.ID}}), func(u *domain.User) {
		u.Name = user.Name
		u.Email = user.Email
		u.PasswordHash = user.PasswordHash
		u.IsAdmin = user.IsAdmin
		u.LastUpdate = now
	})
	if len(updated) == 0 {
		return domain.User{}, domain.NotFound(domain.KindUser)
	}
	return updated[0], nil
}

func (r *Users) Delete(_ context.Context, id string) error {
	if len(r.t.remove(matchUser(ports.UserFilter{IDs: []string{id}}))) == 0 {
		return domain.Errorf(domain.ErrDeleteFailed, "User could not be deleted.")
	}
	return nil
}
