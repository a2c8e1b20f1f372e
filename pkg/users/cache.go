package users

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
)

// Cache defaults.
const (
	DefaultCacheTTL       = time.Minute
	DefaultCacheKeyPrefix = "auth:user:"
)

// Cache is the key-value store behind [CachedStore]. *redis.Client from
// pkg/clients/redis satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CacheOptions tune a [CachedStore]. Zero values take the defaults.
type CacheOptions struct {
	TTL       time.Duration
	KeyPrefix string
}

// CachedStore puts a read-through cache in front of FindByID, the lookup
// the request gate makes on every authenticated request. FindByEmail and
// Create always go to the underlying store.
//
// Cached records never hold the password hash, so a user returned from
// the cache has an empty PasswordHash. Cache failures are logged and the
// lookup falls back to the store.
type CachedStore struct {
	store  auth.UserStore
	cache  Cache
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

var _ auth.UserStore = (*CachedStore)(nil)

// NewCachedStore wraps store with cache. A nil logger uses slog.Default.
func NewCachedStore(store auth.UserStore, cache Cache, opts CacheOptions, logger *slog.Logger) *CachedStore {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultCacheKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		store:  store,
		cache:  cache,
		ttl:    opts.TTL,
		prefix: opts.KeyPrefix,
		logger: logger,
	}
}

// cachedUser is the cached form of a user, without the password hash.
type cachedUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *CachedStore) key(id int64) string {
	return s.prefix + strconv.FormatInt(id, 10)
}

// FindByID serves from the cache when it can and fills it on a miss. Not
// found results are not cached.
func (s *CachedStore) FindByID(ctx context.Context, id int64) (auth.User, error) {
	key := s.key(id)
	raw, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "users: cache read failed", "key", key, "error", err)
	case ok:
		var c cachedUser
		if err := json.Unmarshal([]byte(raw), &c); err == nil && c.ID == id {
			return auth.User{
				ID:        c.ID,
				Name:      c.Name,
				Email:     c.Email,
				Role:      c.Role,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
			}, nil
		}
		s.logger.WarnContext(ctx, "users: discarding unreadable cache entry", "key", key)
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return auth.User{}, err
	}
	data, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err == nil {
		err = s.cache.Set(ctx, key, string(data), s.ttl)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "users: cache write failed", "key", key, "error", err)
	}
	return user, nil
}

// FindByEmail reads through to the store.
func (s *CachedStore) FindByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.store.FindByEmail(ctx, email)
}

// Create writes through to the store. New ids are never cached yet, so
// nothing is invalidated.
func (s *CachedStore) Create(ctx context.Context, user auth.User) (auth.User, error) {
	return s.store.Create(ctx, user)
}

// Health reports the underlying store's health. A cache outage only slows
// lookups down, so it does not fail the check.
func (s *CachedStore) Health(ctx context.Context) error {
	if h, ok := s.store.(interface{ Health(context.Context) error }); ok {
		return h.Health(ctx)
	}
	return nil
}
