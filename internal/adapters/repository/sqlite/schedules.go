package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cogtrain/internal/adapters/repository"
	"github.com/okian/cogtrain/internal/domain/model"
)

// AppendSchedule implements repository.ScheduleStore.
func (s *Store) AppendSchedule(ctx context.Context, snap model.StoredSchedule) (out model.StoredSchedule, err error) {
	defer observe("append_schedule", time.Now(), &err)

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules (id, user_id, num_days, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.UserID, snap.NumDays, string(snap.Payload), formatTime(snap.CreatedAt))
	if err != nil {
		return model.StoredSchedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	return snap, nil
}

// LatestSchedule implements repository.ScheduleStore.
func (s *Store) LatestSchedule(ctx context.Context, userID string) (out model.StoredSchedule, err error) {
	defer observe("latest_schedule", time.Now(), &err)

	var payload, createdAt string
	out.UserID = userID
	err = s.db.QueryRowContext(ctx,
		`SELECT id, num_days, payload, created_at FROM schedules
		 WHERE user_id = ? ORDER BY created_at DESC, seq DESC LIMIT 1`, userID,
	).Scan(&out.ID, &out.NumDays, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StoredSchedule{}, repository.ErrNotFound
	}
	if err != nil {
		return model.StoredSchedule{}, fmt.Errorf("query latest schedule: %w", err)
	}
	if out.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.StoredSchedule{}, fmt.Errorf("schedule %s created_at: %w", out.ID, err)
	}
	out.Payload = []byte(payload)
	return out, nil
}
