// Package redisarms keeps bandit arms in Redis hashes, one hash per
// (user, game, context).
package redisarms

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/metrics"
)

// applyReward runs the online mean step server side so concurrent rewards
// for the same arm serialize. Values are returned as strings because Redis
// truncates Lua numbers to integers.
var applyReward = redis.NewScript(`
local countField = ARGV[1] .. ':count'
local valueField = ARGV[1] .. ':value'
local count = tonumber(redis.call('HGET', KEYS[1], countField) or '0')
local value = tonumber(redis.call('HGET', KEYS[1], valueField) or '0')
local reward = tonumber(ARGV[2])
count = count + 1
value = value + (reward - value) / count
local encoded = string.format('%.17g', value)
redis.call('HSET', KEYS[1], countField, count, valueField, encoded)
return {count, encoded}
`)

// Store implements repository.ArmStore on Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces every key, e.g. per environment.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a Store over an existing client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: "cogtrain"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(userID, gameID string, bucket model.Bucket) string {
	return fmt.Sprintf("%s:arms:%s:%s:%s", s.prefix, userID, gameID, bucket)
}

// Arms implements repository.ArmStore.
func (s *Store) Arms(ctx context.Context, userID, gameID string, bucket model.Bucket) (out []model.BanditArm, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("redis_arms", start, err) }()

	fields, err := s.client.HGetAll(ctx, s.key(userID, gameID, bucket)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall arms: %w", err)
	}
	for _, a := range model.Actions {
		rawCount, ok := fields[string(a)+":count"]
		if !ok {
			continue
		}
		arm := model.BanditArm{UserID: userID, GameID: gameID, Context: bucket, Action: a}
		if arm.Count, err = strconv.Atoi(rawCount); err != nil {
			return nil, fmt.Errorf("arm %s count: %w", a, err)
		}
		if arm.Value, err = strconv.ParseFloat(fields[string(a)+":value"], 64); err != nil {
			return nil, fmt.Errorf("arm %s value: %w", a, err)
		}
		out = append(out, arm)
	}
	return out, nil
}

// ApplyReward implements repository.ArmStore.
func (s *Store) ApplyReward(ctx context.Context, userID, gameID string, bucket model.Bucket, action model.Action, reward float64) (arm model.BanditArm, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("redis_apply_reward", start, err) }()

	res, err := applyReward.Run(ctx, s.client,
		[]string{s.key(userID, gameID, bucket)},
		string(action), strconv.FormatFloat(reward, 'g', -1, 64),
	).Slice()
	if err != nil {
		return model.BanditArm{}, fmt.Errorf("apply reward: %w", err)
	}
	if len(res) != 2 {
		return model.BanditArm{}, fmt.Errorf("apply reward: unexpected reply %v", res)
	}
	count, ok := res[0].(int64)
	if !ok {
		return model.BanditArm{}, fmt.Errorf("apply reward: count %v", res[0])
	}
	encoded, ok := res[1].(string)
	if !ok {
		return model.BanditArm{}, fmt.Errorf("apply reward: value %v", res[1])
	}
	value, err := strconv.ParseFloat(encoded, 64)
	if err != nil {
		return model.BanditArm{}, fmt.Errorf("apply reward: %w", err)
	}
	return model.BanditArm{
		UserID: userID, GameID: gameID, Context: bucket, Action: action,
		Count: int(count), Value: value,
	}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
