// Package repository defines the persistence contracts for scores, bandit
// arms and schedule snapshots, plus an in-memory implementation.
package repository

import (
	"context"

	"github.com/okian/cogtrain/internal/domain/model"
)

// ScoreStore is the append-only score log.
type ScoreStore interface {
	// AppendScore persists rec and returns it with its assigned ID.
	AppendScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error)

	// RecentScores returns up to limit scores for the user, newest first.
	// An empty gameID matches every game.
	RecentScores(ctx context.Context, userID, gameID string, limit int) ([]model.ScoreRecord, error)
}

// ArmStore holds bandit statistics. Arms are created lazily and never deleted.
type ArmStore interface {
	// Arms returns the recorded arms of one context in action order.
	Arms(ctx context.Context, userID, gameID string, bucket model.Bucket) ([]model.BanditArm, error)

	// ApplyReward performs one online mean update atomically and returns the
	// updated arm.
	ApplyReward(ctx context.Context, userID, gameID string, bucket model.Bucket, action model.Action, reward float64) (model.BanditArm, error)
}

// ScheduleStore is the append-only log of schedule snapshots.
type ScheduleStore interface {
	// AppendSchedule stores a new snapshot, assigning an ID when empty.
	AppendSchedule(ctx context.Context, s model.StoredSchedule) (model.StoredSchedule, error)

	// LatestSchedule returns the snapshot with the newest CreatedAt, later
	// appends winning ties. Returns ErrNotFound when the user has none.
	LatestSchedule(ctx context.Context, userID string) (model.StoredSchedule, error)
}

// Store bundles every contract.
type Store interface {
	ScoreStore
	ArmStore
	ScheduleStore
	Close() error
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
