package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

const userColumns = `id, email, name, password_hash, is_admin, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) ports.UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreationDate, &u.LastUpdate)
	return u, err
}

func (r *UserRepository) Get(ctx context.Context, filter ports.UserFilter, page domain.Page) ([]domain.User, error) {
	w := &where{}
	w.raw("deleted_at IS NULL")
	if len(filter.IDs) > 0 {
		w.add("id = ANY($%d)", pq.Array(filter.IDs))
	}
	if filter.Email != "" {
		w.add("lower(email) = lower($%d)", filter.Email)
	}

	query := `SELECT ` + userColumns + ` FROM users` + w.String() + paging(page, "created_at")
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	if len(users) == 0 {
		return nil, domain.NotFound(domain.KindUser)
	}
	return users, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL`
	return r.one(ctx, query, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.one(ctx, query, id)
}

func (r *UserRepository) one(ctx context.Context, query string, args ...any) (domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.NotFound(domain.KindUser)
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
		INSERT INTO users (id, email, name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.IsAdmin))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.Errorf(domain.ErrValidation, "Email is already in use.")
		}
		return domain.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	query := `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, is_admin = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	updated, err := scanUser(r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.IsAdmin))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.NotFound(domain.KindUser)
		}
		if isUniqueViolation(err) {
			return domain.User{}, domain.Errorf(domain.ErrValidation, "Email is already in use.")
		}
		return domain.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Errorf(domain.ErrDeleteFailed, "User could not be deleted.")
	}
	return nil
}
