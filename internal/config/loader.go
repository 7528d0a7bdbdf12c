package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "COGTRAIN_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if COGTRAIN_CONFIG is set
//  3. env (prefix COGTRAIN_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// COGTRAIN_EPSILON_FLOOR -> epsilon_floor; underscores are kept to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ArmStore != ArmStoreSQLite && c.ArmStore != ArmStoreMemory && c.ArmStore != ArmStoreRedis:
		return fmt.Errorf("%w: unknown arm_store %q", ErrInvalidConfig, c.ArmStore)
	case c.ArmStore == ArmStoreRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr is required for the redis arm store", ErrInvalidConfig)
	case c.EpsilonFloor <= 0 || c.EpsilonFloor > 1:
		return fmt.Errorf("%w: epsilon_floor must be in (0,1], got %v", ErrInvalidConfig, c.EpsilonFloor)
	case c.RecentScoresLimit < 3:
		return fmt.Errorf("%w: recent_scores_limit must be at least 3", ErrInvalidConfig)
	case c.MaxScheduleDays < 1:
		return fmt.Errorf("%w: max_schedule_days must be positive", ErrInvalidConfig)
	case c.DefaultScheduleDays < 1 || c.DefaultScheduleDays > c.MaxScheduleDays:
		return fmt.Errorf("%w: default_schedule_days must be in [1,max_schedule_days]", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LLMTimeout returns the per-call generator timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}
