package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var errSessionNotFound = errors.New("session not found")

// SessionStore tracks live refresh tokens by jti. Consume is atomic so a
// refresh token can be exchanged at most once.
type SessionStore interface {
	Save(ctx context.Context, jti string, userID uint, ttl time.Duration) error
	Consume(ctx context.Context, jti string) (uint, error)
	Revoke(ctx context.Context, jti string) error
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client, prefix: "refresh:"}
}

func (s *redisSessionStore) Save(ctx context.Context, jti string, userID uint, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+jti, strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (s *redisSessionStore) Consume(ctx context.Context, jti string) (uint, error) {
	val, err := s.client.GetDel(ctx, s.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return 0, errSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, errSessionNotFound
	}
	return uint(id), nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, jti string) error {
	return s.client.Del(ctx, s.prefix+jti).Err()
}

// memorySessionStore keeps sessions in process. Used when Redis is not configured,
// which limits refresh tokens to a single server process.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	userID    uint
	expiresAt time.Time
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]memorySession), now: time.Now}
}

func (s *memorySessionStore) Save(_ context.Context, jti string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = memorySession{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memorySessionStore) Consume(_ context.Context, jti string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	delete(s.sessions, jti)
	if !ok || s.now().After(sess.expiresAt) {
		return 0, errSessionNotFound
	}
	return sess.userID, nil
}

func (s *memorySessionStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}
