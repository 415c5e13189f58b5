package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no API key matches a hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey binds a hashed API key to the user it authenticates.
type APIKey struct {
	ID      int64
	KeyHash string
	Name    string
	UserID  int64
	Role    Role
}

// Actor returns the identity the key authenticates as.
func (k *APIKey) Actor() Actor {
	return Actor{UserID: k.UserID, Role: k.Role}
}

// KeyRepository provides lookup of API keys by their HMAC hash.
type KeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
}
