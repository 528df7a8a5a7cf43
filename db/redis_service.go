package db

import (
	"context"
	"sort"

	"classroll/catalog"
	"classroll/models"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	classesKey       = "classes" // Set: stores all class names
	classLinesPrefix = "class:"  // List prefix: class:{name}:lines -> persisted roster lines
)

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisCatalog keeps class rosters in Redis instead of flat files.
// Each class is a list of the same lines the file catalog writes.
type RedisCatalog struct {
	Client    *redis.Client
	sortNames bool
	logger    zerolog.Logger
}

var _ catalog.Catalog = (*RedisCatalog)(nil)

// NewRedisCatalog creates a new RedisCatalog instance
func NewRedisCatalog(client *redis.Client, sortNames bool, logger zerolog.Logger) *RedisCatalog {
	return &RedisCatalog{
		Client:    client,
		sortNames: sortNames,
		logger:    logger,
	}
}

// Helper to generate class lines key
func getClassLinesKey(name string) string {
	return classLinesPrefix + name + ":lines"
}

// ListClasses returns all class names in set member order
func (s *RedisCatalog) ListClasses(ctx context.Context) ([]string, error) {
	names, err := s.Client.SMembers(ctx, classesKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error().Err(err).Msg("Error getting class names")
		return nil, &models.PersistenceError{Op: "list", Err: err}
	}
	if s.sortNames {
		sort.Strings(names)
	}
	return names, nil
}

// ClassExists checks if a class name exists in the classes set
func (s *RedisCatalog) ClassExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.Client.SIsMember(ctx, classesKey, name).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("class", name).Msg("Error checking class existence")
		return false, &models.PersistenceError{Op: "stat", Class: name, Err: err}
	}
	return exists, nil
}

// CreateClass registers an empty class
func (s *RedisCatalog) CreateClass(ctx context.Context, name string) error {
	if err := catalog.ValidateClassName(name); err != nil {
		return err
	}
	added, err := s.Client.SAdd(ctx, classesKey, name).Result()
	if err != nil {
		return &models.PersistenceError{Op: "create", Class: name, Err: err}
	}
	if added == 0 {
		return errors.Wrapf(models.ErrAlreadyExists, "class %q", name)
	}
	s.logger.Info().Str("class", name).Msg("Class created")
	return nil
}

// DeleteClass removes the class and its roster
func (s *RedisCatalog) DeleteClass(ctx context.Context, name string) error {
	pipe := s.Client.TxPipeline()
	removed := pipe.SRem(ctx, classesKey, name)
	pipe.Del(ctx, getClassLinesKey(name))

	if _, err := pipe.Exec(ctx); err != nil {
		return &models.PersistenceError{Op: "delete", Class: name, Err: err}
	}
	if removed.Val() == 0 {
		return errors.Wrapf(models.ErrNotFound, "class %q", name)
	}
	s.logger.Info().Str("class", name).Msg("Class deleted")
	return nil
}

// ReadClass returns the persisted roster lines of a class
func (s *RedisCatalog) ReadClass(ctx context.Context, name string) ([]string, error) {
	exists, err := s.ClassExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(models.ErrNotFound, "class %q", name)
	}

	lines, err := s.Client.LRange(ctx, getClassLinesKey(name), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, &models.PersistenceError{Op: "read", Class: name, Err: err}
	}
	return lines, nil
}

// SaveClass replaces the roster lines of a class atomically
func (s *RedisCatalog) SaveClass(ctx context.Context, name string, lines []string) error {
	key := getClassLinesKey(name)

	pipe := s.Client.TxPipeline()
	pipe.SAdd(ctx, classesKey, name)
	pipe.Del(ctx, key)
	if len(lines) > 0 {
		values := make([]interface{}, len(lines))
		for i, l := range lines {
			values[i] = l
		}
		pipe.RPush(ctx, key, values...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error().Err(err).Str("class", name).Msg("Error saving roster")
		return &models.PersistenceError{Op: "save", Class: name, Err: err}
	}
	return nil
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Ping Redis to check connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "could not connect to redis at %s", opts.Addr)
	}
	return rdb, nil
}
