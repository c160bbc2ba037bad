package cache

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"
)

// MemoryCache garde les entrées en mémoire (tests, développement local).
// Il implémente Cache, Broker et Counter.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	subs    map[string]map[*memorySubscription]struct{}
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zéro : pas d'expiration
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type MemoryOption func(*MemoryCache)

// WithClock remplace l'horloge (utile pour tester l'expiration).
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryCache) { m.now = now }
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	m := &MemoryCache{
		entries: make(map[string]memoryEntry),
		subs:    make(map[string]map[*memorySubscription]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := m.now()
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if e.expired(now) {
		m.mu.Lock()
		// l'entrée a pu être réécrite entre les deux verrous
		if cur, ok := m.entries[key]; ok && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return ctx.Err()
}

// TTL retourne le temps restant d'une clé (0 si absente ou sans expiration).
func (m *MemoryCache) TTL(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || e.expiresAt.IsZero() {
		return 0
	}
	return e.expiresAt.Sub(m.now())
}

// Sweep supprime les entrées expirées et retourne leur nombre.
func (m *MemoryCache) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// RunJanitor appelle Sweep à intervalle régulier jusqu'à l'annulation du contexte.
func (m *MemoryCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("🧹 %d entrées expirées supprimées du cache mémoire", n)
			}
		}
	}
}

// Len retourne le nombre d'entrées stockées, expirées comprises.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// --- Pub/Sub ---

const memorySubscriptionBuffer = 16

type memorySubscription struct {
	owner   *MemoryCache
	channel string
	out     chan string
	once    sync.Once
}

func (s *memorySubscription) Messages() <-chan string {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.owner.mu.Lock()
		delete(s.owner.subs[s.channel], s)
		if len(s.owner.subs[s.channel]) == 0 {
			delete(s.owner.subs, s.channel)
		}
		s.owner.mu.Unlock()
		close(s.out)
	})
	return nil
}

func (m *MemoryCache) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &memorySubscription{
		owner:   m,
		channel: channel,
		out:     make(chan string, memorySubscriptionBuffer),
	}
	m.mu.Lock()
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[*memorySubscription]struct{})
	}
	m.subs[channel][sub] = struct{}{}
	m.mu.Unlock()
	return sub, nil
}

// Publish n'attend pas les abonnés lents : le message est perdu si leur tampon est plein.
func (m *MemoryCache) Publish(ctx context.Context, channel, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for sub := range m.subs[channel] {
		select {
		case sub.out <- message:
		default:
		}
	}
	return nil
}

// --- Rate Limiting ---

func (m *MemoryCache) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	e, ok := m.entries[key]
	if ok && !e.expired(now) {
		n, _ = strconv.ParseInt(string(e.value), 10, 64)
	} else {
		e = memoryEntry{expiresAt: now.Add(window)}
	}
	n++
	e.value = []byte(strconv.FormatInt(n, 10))
	m.entries[key] = e
	return n, nil
}
