// Package cache holds read-through caches in front of repositories.
package cache

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	facilityIDKeyPrefix   = "facility:id:"
	facilityCodeKeyPrefix = "facility:code:"
	DefaultFacilityTTL    = 10 * time.Minute
)

// Cmdable is the subset of *redis.Client the cache uses.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient opens a client for addr. The connection is verified with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// facilityCache decorates a FacilityRepository with a Redis read-through
// cache on the scan lookups. Facilities are reference data, so a TTL is the
// only invalidation besides Create. Redis errors degrade to the inner
// repository.
type facilityCache struct {
	inner  repository.FacilityRepository
	client Cmdable
	ttl    time.Duration
}

// NewFacilityCache wraps inner. A non-positive ttl uses DefaultFacilityTTL.
func NewFacilityCache(inner repository.FacilityRepository, client Cmdable, ttl time.Duration) repository.FacilityRepository {
	if ttl <= 0 {
		ttl = DefaultFacilityTTL
	}
	return &facilityCache{inner: inner, client: client, ttl: ttl}
}

func (c *facilityCache) Create(ctx context.Context, facility *domain.Facility) (primitive.ObjectID, error) {
	id, err := c.inner.Create(ctx, facility)
	if err != nil {
		return id, err
	}
	// Drop any stale negative or old entry under the same code
	if err := c.client.Del(ctx, facilityCodeKeyPrefix+facility.Code).Err(); err != nil {
		log.Printf("WARN: facility cache invalidation failed for code %s: %v", facility.Code, err)
	}
	return id, nil
}

func (c *facilityCache) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Facility, error) {
	return c.readThrough(ctx, facilityIDKeyPrefix+id.Hex(), func() (*domain.Facility, error) {
		return c.inner.GetByID(ctx, id)
	})
}

func (c *facilityCache) GetByCode(ctx context.Context, code string) (*domain.Facility, error) {
	return c.readThrough(ctx, facilityCodeKeyPrefix+code, func() (*domain.Facility, error) {
		return c.inner.GetByCode(ctx, code)
	})
}

func (c *facilityCache) List(ctx context.Context) ([]domain.Facility, error) {
	return c.inner.List(ctx)
}

func (c *facilityCache) readThrough(ctx context.Context, key string, load func() (*domain.Facility, error)) (*domain.Facility, error) {
	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var facility domain.Facility
		if jsonErr := json.Unmarshal([]byte(raw), &facility); jsonErr == nil {
			return &facility, nil
		}
		log.Printf("WARN: discarding undecodable facility cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("WARN: facility cache read failed for %s: %v", key, err)
	}

	facility, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(facility)
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		log.Printf("WARN: facility cache write failed for %s: %v", key, err)
	}
	return facility, nil
}
