package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/cogtrain/internal/adapters/llm"
	"github.com/okian/cogtrain/internal/domain/games"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/internal/domain/schedule"
	"github.com/okian/cogtrain/pkg/logger"
	"github.com/okian/cogtrain/pkg/metrics"
)

// Schedule is a persisted plan with its snapshot metadata.
type Schedule struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Source    schedule.Source    `json:"source,omitempty"`
	Plan      model.SchedulePlan `json:"plan"`
}

// BuildOrRepairSchedule turns raw generator output into a valid plan of
// exactly days entries starting today, falling back to a plan derived
// from averages when raw is unusable. days is used as given; negative
// values yield an empty plan. The default and maximum lengths apply only to
// GenerateSchedule.
func (s *Service) BuildOrRepairSchedule(raw any, days int, averages map[string]float64) (model.SchedulePlan, schedule.Source, schedule.Report) {
	var (
		plan model.SchedulePlan
		src  schedule.Source
		rep  schedule.Report
	)
	today := s.today()
	s.withRand(func(rng *rand.Rand) {
		plan, src, rep = schedule.BuildOrRepair(raw, max(days, 0), averages, today, rng)
	})
	return plan, src, rep
}

// GenerateSchedule drafts a plan for the user, repairs it and stores it as
// the user's latest snapshot. A failing or absent generator yields the
// fallback plan; only store failures are returned.
func (s *Service) GenerateSchedule(ctx context.Context, userID string, days int) (Schedule, error) {
	if userID == "" {
		return Schedule{}, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	days = s.clampDays(days)

	recs, err := s.scores.RecentScores(ctx, userID, "", averageWindow)
	if err != nil {
		return Schedule{}, fmt.Errorf("load scores: %w", err)
	}
	averages := schedule.DomainAverages(recs)

	raw := s.draft(ctx, userID, days, averages)
	plan, src, rep := s.BuildOrRepairSchedule(raw, days, averages)
	if raw != nil && src == schedule.SourceFallback {
		metrics.RecordGeneratorFailure("unusable")
	}
	for _, kind := range rep.Repairs {
		metrics.RecordScheduleRepair(kind)
	}

	snap, err := s.persist(ctx, userID, plan)
	if err != nil {
		return Schedule{}, err
	}
	metrics.RecordScheduleBuild(string(src))

	s.logger.Info(ctx, "schedule generated",
		logger.String("user_id", userID),
		logger.String("schedule_id", snap.ID),
		logger.String("source", string(src)),
		logger.Int("days", plan.NumDays),
		logger.Int("repairs", len(rep.Repairs)))

	return Schedule{ID: snap.ID, CreatedAt: snap.CreatedAt, Source: src, Plan: plan}, nil
}

// draft asks the generator for a plan. It returns nil when there is no
// generator or its reply cannot be decoded.
func (s *Service) draft(ctx context.Context, userID string, days int, averages map[string]float64) any {
	if s.generator == nil {
		return nil
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, schedule.BuildPrompt(days, averages, s.today()))
	metrics.RecordGeneratorLatency(time.Since(start))
	if err != nil {
		metrics.RecordGeneratorFailure(failureReason(err))
		s.logger.Warn(ctx, "schedule generator failed, using fallback",
			logger.String("user_id", userID),
			logger.Error(err))
		return nil
	}

	obj, err := schedule.DecodePlan(text)
	if err != nil {
		metrics.RecordGeneratorFailure("parse")
		s.logger.Warn(ctx, "schedule generator reply unparsable, using fallback",
			logger.String("user_id", userID),
			logger.Error(err))
		return nil
	}
	return obj
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrGeneratorUnavailable):
		return "unavailable"
	case errors.Is(err, llm.ErrStatus):
		return "status"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "empty"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}

func (s *Service) persist(ctx context.Context, userID string, plan model.SchedulePlan) (model.StoredSchedule, error) {
	payload, err := json.Marshal(plan)
	if err != nil {
		return model.StoredSchedule{}, fmt.Errorf("encode schedule: %w", err)
	}
	snap, err := s.schedules.AppendSchedule(ctx, model.StoredSchedule{
		UserID:    userID,
		NumDays:   plan.NumDays,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.StoredSchedule{}, fmt.Errorf("store schedule: %w", err)
	}
	return snap, nil
}

// LatestSchedule returns the user's newest snapshot. A snapshot whose
// payload cannot be decoded counts as absent.
func (s *Service) LatestSchedule(ctx context.Context, userID string) (Schedule, error) {
	if userID == "" {
		return Schedule{}, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	snap, err := s.schedules.LatestSchedule(ctx, userID)
	if err != nil {
		return Schedule{}, err
	}
	var plan model.SchedulePlan
	if err := json.Unmarshal(snap.Payload, &plan); err != nil {
		s.logger.Warn(ctx, "stored schedule unreadable",
			logger.String("user_id", userID),
			logger.String("schedule_id", snap.ID),
			logger.Error(err))
		return Schedule{}, fmt.Errorf("%w: stored schedule unreadable", ErrNotFound)
	}
	return Schedule{ID: snap.ID, CreatedAt: snap.CreatedAt, Plan: plan}, nil
}

// MarkGameCompleted flags gameID done on today's entry of the latest plan
// and stores the result as a new snapshot. It reports whether anything
// changed. Missing or unreadable plans are a no-op.
func (s *Service) MarkGameCompleted(ctx context.Context, userID, gameID string) (bool, error) {
	if !games.Known(gameID) {
		return false, fmt.Errorf("%w: %q", ErrUnknownGame, gameID)
	}
	current, err := s.LatestSchedule(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := s.now()
	changed := schedule.MarkCompleted(&current.Plan, gameID, model.DateOf(now.In(s.loc)), now.UTC())
	metrics.RecordCompletion(gameID, changed)
	if !changed {
		return false, nil
	}

	if _, err := s.persist(ctx, userID, current.Plan); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) clampDays(days int) int {
	switch {
	case days <= 0:
		return s.defaultDays
	case days > s.maxDays:
		return s.maxDays
	}
	return days
}
