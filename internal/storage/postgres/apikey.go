package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-ledger/internal/domain/auth"
)

const (
	findAPIKeyByHashSQL = `SELECT k.id, k.key_hash, k.name, k.user_id, u.role
		FROM api_keys k JOIN users u ON u.id = k.user_id
		WHERE k.key_hash = $1`

	upsertAPIKeySQL = `INSERT INTO api_keys (key_hash, name, user_id) VALUES ($1, $2, $3)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, user_id = EXCLUDED.user_id
		RETURNING id`
)

var _ auth.KeyRepository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an API key by its HMAC-SHA256 hash together with the
// role of the user it belongs to.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKey, error) {
	var (
		k    auth.APIKey
		role string
	)
	err := r.pool.QueryRow(ctx, findAPIKeyByHashSQL, hash).Scan(&k.ID, &k.KeyHash, &k.Name, &k.UserID, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "find api key by hash")
	}
	k.Role = auth.Role(role)
	return &k, nil
}

// Upsert stores k, rebinding an existing hash to k's user.
func (r *APIKeyRepository) Upsert(ctx context.Context, k *auth.APIKey) error {
	if err := r.pool.QueryRow(ctx, upsertAPIKeySQL, k.KeyHash, k.Name, k.UserID).Scan(&k.ID); err != nil {
		return errors.Wrapf(err, "upsert api key %q", k.Name)
	}
	return nil
}
