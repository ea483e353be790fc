package redisStore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[int]*Store)
	mu        sync.RWMutex
	logger    = logger_i.NewLogger("Redis Store")
	once      sync.Once
)

type Store struct {
	client *redis.Client
	Type   int
}

// GetRedisStore returns the shared client for one logical Redis database.
// Clients are closed when ctx is done.
func GetRedisStore(ctx context.Context, cfg config.RedisConfig, dbType int) (*Store, error) {
	mu.RLock()
	instance, exists := instances[dbType]
	mu.RUnlock()

	if exists {
		return instance, nil
	}

	mu.Lock()
	defer mu.Unlock()

	if instance, exists = instances[dbType]; exists {
		return instance, nil
	}
	return createNewStore(ctx, cfg, dbType)
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for dbType, store := range instances {
		if err := store.client.Close(); err != nil {
			logger.Error("Error closing redis client", "db", dbType, "error", err)
		}
		delete(instances, dbType)
	}
	logger.Info("Redis Store Closed successfully")
}

func createNewStore(ctx context.Context, cfg config.RedisConfig, dbType int) (*Store, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = config.RedisAddr
	}
	newClient := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              cfg.Password,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline", "addr", addr, "error", err)
		_ = newClient.Close()
		return nil, fmt.Errorf("redis at %s: %w", addr, err)
	}

	logger.Info("Redis client init successfully", "addr", addr, "db", dbType)

	newStore := &Store{
		client: newClient,
		Type:   dbType,
	}

	instances[dbType] = newStore
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return newStore, nil
}

// NewStore wraps an existing client; tests point it at miniredis.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}
