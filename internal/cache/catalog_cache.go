// Package cache provides a Redis read-through cache in front of the course catalog
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

const keyPrefix = "catalog:"

// CourseSource is the catalog being cached
type CourseSource interface {
	// ListCourses returns the courses matching the filter.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	// GetCourse returns one course by its id.
	//
	// If the course does not exist, an error wrapping models.ErrNotFound is returned.
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
}

// RedisClient is the subset of *redis.Client used by the cache
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CatalogCache caches catalog reads in Redis. Redis failures fall back to the source.
// The catalog is read-only here, so entries only leave the cache when their ttl expires.
type CatalogCache struct {
	source CourseSource
	redis  RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogCache wraps source with a cache whose entries live for ttl
func NewCatalogCache(source CourseSource, rdb RedisClient, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{
		source: source,
		redis:  rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// ListCourses returns the cached listing or loads it from the source
func (c *CatalogCache) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	key := listKey(filter)

	var courses []models.Course
	if c.lookup(ctx, key, &courses) {
		return courses, nil
	}

	courses, err := c.source.ListCourses(ctx, filter)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, courses)

	return courses, nil
}

// GetCourse returns the cached course or loads it from the source
func (c *CatalogCache) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	key := courseKey(courseID)

	var course models.Course
	if c.lookup(ctx, key, &course) {
		return &course, nil
	}

	loaded, err := c.source.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, loaded)

	return loaded, nil
}

func (c *CatalogCache) lookup(ctx context.Context, key string, dest any) bool {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("catalog cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CatalogCache) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to encode catalog cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func listKey(filter models.CourseFilter) string {
	return keyPrefix + "courses:" + strings.ToLower(filter.Category) + ":" + strings.ToLower(filter.Search)
}

func courseKey(courseID string) string {
	return keyPrefix + "course:" + courseID
}
