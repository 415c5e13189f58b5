package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-ledger/internal/domain/auth"
)

const (
	getUserSQL = `SELECT id, email, role FROM users WHERE id = $1`

	upsertUserSQL = `INSERT INTO users (email, role) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role
		RETURNING id`
)

var _ auth.Users = (*UserRepository)(nil)

// UserRepository implements auth.Users backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetUser returns a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := r.pool.QueryRow(ctx, getUserSQL, id).Scan(&u.ID, &u.Email, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, errors.Wrapf(err, "get user %d", id)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// Upsert creates u or updates the role of the user with the same email.
func (r *UserRepository) Upsert(ctx context.Context, u *auth.User) error {
	if err := r.pool.QueryRow(ctx, upsertUserSQL, u.Email, string(u.Role)).Scan(&u.ID); err != nil {
		return errors.Wrapf(err, "upsert user %q", u.Email)
	}
	return nil
}
