package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/failure"
)

// API keys are accepted in either header.
const (
	APIKeyHeader       = "X-API-Key"
	legacyAPIKeyHeader = "api_key"
)

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated actor of the request.
func ActorFromContext(ctx context.Context) (auth.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(auth.Actor)
	return a, ok
}

// SecurityHandler authenticates requests via HMAC-SHA256 hashed API keys and
// resolves them to the actor the services authorize against.
type SecurityHandler struct {
	apikeys auth.KeyRepository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.KeyRepository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// HashKey returns the hex HMAC-SHA256 of apiKey under pepper, the form in
// which keys are stored.
func HashKey(pepper []byte, apiKey string) string {
	return hex.EncodeToString(hashKey(pepper, apiKey))
}

func hashKey(pepper []byte, apiKey string) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(apiKey))
	return mac.Sum(nil)
}

var errUnauthorized = errors.New("unauthorized")

// Authenticate resolves the API key of a request to an actor.
func (s *SecurityHandler) Authenticate(ctx context.Context, apiKey string) (auth.Actor, error) {
	if apiKey == "" {
		return auth.Actor{}, errUnauthorized
	}

	hash := hashKey(s.pepper, apiKey)
	key, err := s.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			return auth.Actor{}, errUnauthorized
		}
		return auth.Actor{}, errors.Wrap(err, "find api key")
	}

	stored, err := hex.DecodeString(key.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return auth.Actor{}, errUnauthorized
	}
	if !key.Role.Valid() {
		return auth.Actor{}, errUnauthorized
	}

	return key.Actor(), nil
}

// Middleware rejects requests without a valid API key with 401 and stores
// the resolved actor in the request context otherwise.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(APIKeyHeader)
		if apiKey == "" {
			apiKey = r.Header.Get(legacyAPIKeyHeader)
		}

		actor, err := s.Authenticate(r.Context(), apiKey)
		if err != nil {
			if errors.Is(err, errUnauthorized) {
				writeFailure(w, http.StatusUnauthorized, failure.Result{
					Error: "missing or invalid api key",
					Kind:  failure.KindForbidden,
				})
				return
			}
			writeError(w, r, err)
			return
		}

		ctx := WithActor(r.Context(), actor)
		ctx = zctx.With(ctx, zap.Int64("actor_id", actor.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
