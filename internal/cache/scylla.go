package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// CartsTableDDL crée la table utilisée par ScyllaCache (TTL géré par Scylla).
const CartsTableDDL = `CREATE TABLE IF NOT EXISTS carts (
	cart_key text PRIMARY KEY,
	payload blob
)`

// ScyllaCache stocke les entrées dans une table Scylla/Cassandra avec USING TTL.
type ScyllaCache struct {
	session *gocql.Session
}

func NewScyllaCache(session *gocql.Session) *ScyllaCache {
	return &ScyllaCache{session: session}
}

func (s *ScyllaCache) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.session.Query(`SELECT payload FROM carts WHERE cart_key = ?`, key).
		WithContext(ctx).
		Scan(&payload)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("scylla select %s: %w", key, err)
	}
	return payload, nil
}

func (s *ScyllaCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int(ttl / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	err := s.session.Query(`INSERT INTO carts (cart_key, payload) VALUES (?, ?) USING TTL ?`, key, value, seconds).
		WithContext(ctx).
		Exec()
	if err != nil {
		return fmt.Errorf("scylla insert %s: %w", key, err)
	}
	return nil
}

func (s *ScyllaCache) Delete(ctx context.Context, key string) error {
	err := s.session.Query(`DELETE FROM carts WHERE cart_key = ?`, key).
		WithContext(ctx).
		Exec()
	if err != nil {
		return fmt.Errorf("scylla delete %s: %w", key, err)
	}
	return nil
}

func (s *ScyllaCache) Ping(ctx context.Context) error {
	return s.session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
}

func (s *ScyllaCache) Close() error {
	s.session.Close()
	return nil
}
