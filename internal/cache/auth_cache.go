package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

const (
	AuthCacheTTL = 15 * time.Minute // Cache les vérifications de secret pendant 15 min
)

// AuthCache mémorise les vérifications de secret client réussies.
// Cela évite de refaire un hash Argon2 à chaque demande de jeton.
type AuthCache struct {
	store Cache
}

func NewAuthCache(store Cache) *AuthCache {
	return &AuthCache{store: store}
}

// La clé dépend du hash enregistré : changer le hash d'un client rend ses anciennes entrées inutilisables.
// Le secret en clair n'est jamais stocké.
func authCacheKey(clientID, hash, secret string) string {
	sum := sha256.Sum256([]byte(hash + "\x00" + secret))
	return "auth:" + clientID + ":" + hex.EncodeToString(sum[:])
}

// IsVerified indique si ce secret a déjà été validé récemment contre ce hash.
func (a *AuthCache) IsVerified(ctx context.Context, clientID, hash, secret string) (bool, error) {
	data, err := a.store.Get(ctx, authCacheKey(clientID, hash, secret))
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(data) == "valid", nil
}

func (a *AuthCache) MarkVerified(ctx context.Context, clientID, hash, secret string) error {
	return a.store.Set(ctx, authCacheKey(clientID, hash, secret), []byte("valid"), AuthCacheTTL)
}
