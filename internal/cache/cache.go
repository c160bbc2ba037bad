package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss est renvoyée par Get quand la clé n'existe pas (ou a expiré).
var ErrCacheMiss = errors.New("cache miss")

// Cache est la capacité clé/valeur distribuée utilisée par le service panier.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set écrit la valeur avec une expiration absolue (ttl <= 0 : pas d'expiration).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete ne renvoie pas d'erreur si la clé est absente.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Publisher diffuse un message sur un canal.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// Subscription reçoit les messages d'un canal jusqu'à Close.
type Subscription interface {
	Messages() <-chan string
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

type Broker interface {
	Publisher
	Subscriber
}

// Counter sert au rate limiting : incrémente un compteur qui expire après window.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
