// Package config defines service configuration and its defaults.
package config

import "runtime"

// Arm store backends.
const (
	ArmStoreSQLite = "sqlite"
	ArmStoreMemory = "memory"
	ArmStoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file holding scores, arms and schedules.
	DBPath string `koanf:"db_path"`

	// ArmStore selects where bandit arms live: sqlite, memory or redis.
	ArmStore  string `koanf:"arm_store"`
	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`

	// RecentScoresLimit is how many recent scores feed the context bucketer.
	RecentScoresLimit int `koanf:"recent_scores_limit"`

	// EpsilonFloor is the minimum exploration probability.
	EpsilonFloor float64 `koanf:"epsilon_floor"`

	DefaultScheduleDays int `koanf:"default_schedule_days"`
	MaxScheduleDays     int `koanf:"max_schedule_days"`

	// OutcomeQueueSize bounds the in-memory practice outcome queue.
	OutcomeQueueSize int `koanf:"outcome_queue_size"`

	// OutcomeWorkers sets the number of arm update workers.
	OutcomeWorkers int `koanf:"outcome_workers"`

	// DedupeSize sets the size of the submission id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Timezone decides what "today" means for schedules, e.g. "Europe/Berlin".
	Timezone string `koanf:"timezone"`

	// LLM settings. An empty key disables the generator.
	LLMBaseURL     string  `koanf:"llm_base_url"`
	LLMAPIKey      string  `koanf:"llm_api_key"`
	LLMModel       string  `koanf:"llm_model"`
	LLMTimeoutMS   int     `koanf:"llm_timeout_ms"`
	LLMTemperature float64 `koanf:"llm_temperature"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DBPath:              "cogtrain.db",
		ArmStore:            ArmStoreSQLite,
		RedisAddr:           "localhost:6379",
		RecentScoresLimit:   10,
		EpsilonFloor:        0.1,
		DefaultScheduleDays: 7,
		MaxScheduleDays:     30,
		OutcomeQueueSize:    10_000,
		OutcomeWorkers:      runtime.NumCPU(),
		DedupeSize:          100_000,
		Timezone:            "UTC",
		LLMBaseURL:          "https://api.openai.com/v1",
		LLMModel:            "gpt-4o-mini",
		LLMTimeoutMS:        20_000,
		LLMTemperature:      0.4,
	}
}
