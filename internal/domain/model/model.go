// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for parsing domain vocabulary.
var (
	ErrInvalidAction  = errors.New("invalid action")
	ErrInvalidContext = errors.New("invalid context bucket")
	ErrInvalidDate    = errors.New("invalid date")
)

// Action is a practice difficulty level the bandit can recommend.
type Action string

// Difficulty actions in declaration order. Ties between equally valued arms
// resolve to the earliest entry.
const (
	Easy   Action = "easy"
	Medium Action = "medium"
	Hard   Action = "hard"
)

// Actions lists every action in declaration order.
var Actions = []Action{Easy, Medium, Hard} //nolint:gochecknoglobals // fixed vocabulary

// ParseAction validates a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case Easy, Medium, Hard:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Bucket is a coarse performance tier that partitions bandit statistics.
type Bucket string

// Context buckets.
const (
	Low  Bucket = "low"
	Mid  Bucket = "mid"
	High Bucket = "high"
)

// ParseBucket validates a case-insensitive bucket name.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case Low, Mid, High:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidContext, s)
}

// ScoreRecord is one immutable game result.
type ScoreRecord struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	GameID    string         `json:"game_id"`
	Domain    string         `json:"domain"`
	Value     float64        `json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	Details   map[string]any `json:"details,omitempty"`
}

// BanditArm is the running statistic for one (user, game, context, action).
type BanditArm struct {
	UserID  string  `json:"user_id"`
	GameID  string  `json:"game_id"`
	Context Bucket  `json:"context"`
	Action  Action  `json:"action"`
	Count   int     `json:"count"`
	Value   float64 `json:"value"`
}

// Outcome is a computed practice reward waiting to be applied to an arm.
type Outcome struct {
	UserID  string
	GameID  string
	Context Bucket
	Action  Action
	Reward  float64
}

// StoredSchedule is one persisted, immutable schedule snapshot.
type StoredSchedule struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	NumDays   int       `json:"num_days"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
