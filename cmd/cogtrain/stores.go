package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/cogtrain/internal/adapters/llm"
	"github.com/okian/cogtrain/internal/adapters/repository"
	"github.com/okian/cogtrain/internal/adapters/repository/redisarms"
	"github.com/okian/cogtrain/internal/adapters/repository/sqlite"
	service "github.com/okian/cogtrain/internal/app"
	"github.com/okian/cogtrain/internal/config"
	"github.com/okian/cogtrain/pkg/logger"
)

// backends are the opened stores behind a service.
type backends struct {
	db    *sqlite.Store
	arms  repository.ArmStore
	redis *redis.Client
}

// openBackends opens the SQLite database and the configured arm store.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	b := &backends{db: db, arms: db}

	switch cfg.ArmStore {
	case config.ArmStoreMemory:
		b.arms = repository.NewMemoryStore()
	case config.ArmStoreRedis:
		b.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		store := redisarms.New(b.redis)
		if err := store.Ping(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		b.arms = store
	}
	return b, nil
}

// Close releases every backend.
func (b *backends) Close() error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	errs = append(errs, b.db.Close())
	return errors.Join(errs...)
}

// newService builds the service from configuration.
func newService(cfg *config.Config, b *backends, log logger.Logger) (*service.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithStore(b.db),
		service.WithArmStore(b.arms),
		service.WithWorkerCount(cfg.OutcomeWorkers),
		service.WithQueueSize(cfg.OutcomeQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithRecentScoresLimit(cfg.RecentScoresLimit),
		service.WithEpsilonFloor(cfg.EpsilonFloor),
		service.WithScheduleDays(cfg.DefaultScheduleDays, cfg.MaxScheduleDays),
		service.WithLocation(loc),
	}
	if gen := llm.New(cfg.LLMAPIKey,
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithModel(cfg.LLMModel),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithTemperature(cfg.LLMTemperature),
	); gen != nil {
		opts = append(opts, service.WithGenerator(gen))
	}
	return service.New(opts...), nil
}
