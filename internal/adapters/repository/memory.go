package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/cogtrain/internal/domain/bandit"
	"github.com/okian/cogtrain/internal/domain/model"
)

type armKey struct {
	user, game string
	bucket     model.Bucket
	action     model.Action
}

// MemoryStore keeps everything in process memory. It backs tests, the
// simulator and the memory arm store option.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	scores    map[string][]model.ScoreRecord // user -> oldest first
	arms      map[armKey]model.BanditArm
	schedules map[string][]model.StoredSchedule // user -> append order
	closed    bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores:    make(map[string][]model.ScoreRecord),
		arms:      make(map[armKey]model.BanditArm),
		schedules: make(map[string][]model.StoredSchedule),
	}
}

// AppendScore implements ScoreStore.
func (s *MemoryStore) AppendScore(_ context.Context, rec model.ScoreRecord) (model.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ScoreRecord{}, ErrClosed
	}
	s.nextID++
	rec.ID = s.nextID
	s.scores[rec.UserID] = append(s.scores[rec.UserID], rec)
	return rec, nil
}

// RecentScores implements ScoreStore.
func (s *MemoryStore) RecentScores(_ context.Context, userID, gameID string, limit int) ([]model.ScoreRecord, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	all := s.scores[userID]
	out := make([]model.ScoreRecord, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if gameID == "" || all[i].GameID == gameID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Arms implements ArmStore.
func (s *MemoryStore) Arms(_ context.Context, userID, gameID string, bucket model.Bucket) ([]model.BanditArm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []model.BanditArm
	for _, a := range model.Actions {
		if arm, ok := s.arms[armKey{userID, gameID, bucket, a}]; ok {
			out = append(out, arm)
		}
	}
	return out, nil
}

// ApplyReward implements ArmStore.
func (s *MemoryStore) ApplyReward(_ context.Context, userID, gameID string, bucket model.Bucket, action model.Action, reward float64) (model.BanditArm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.BanditArm{}, ErrClosed
	}
	k := armKey{userID, gameID, bucket, action}
	arm, ok := s.arms[k]
	if !ok {
		arm = model.BanditArm{UserID: userID, GameID: gameID, Context: bucket, Action: action}
	}
	arm.Count, arm.Value = bandit.UpdateMean(arm.Count, arm.Value, reward)
	s.arms[k] = arm
	return arm, nil
}

// AppendSchedule implements ScheduleStore.
func (s *MemoryStore) AppendSchedule(_ context.Context, snap model.StoredSchedule) (model.StoredSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.StoredSchedule{}, ErrClosed
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.Payload = append([]byte(nil), snap.Payload...)
	s.schedules[snap.UserID] = append(s.schedules[snap.UserID], snap)
	return snap, nil
}

// LatestSchedule implements ScheduleStore.
func (s *MemoryStore) LatestSchedule(_ context.Context, userID string) (model.StoredSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.StoredSchedule{}, ErrClosed
	}
	all := s.schedules[userID]
	if len(all) == 0 {
		return model.StoredSchedule{}, ErrNotFound
	}
	latest := all[0]
	for _, snap := range all[1:] {
		if !snap.CreatedAt.Before(latest.CreatedAt) {
			latest = snap
		}
	}
	latest.Payload = append([]byte(nil), latest.Payload...)
	return latest, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
