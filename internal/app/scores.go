package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/cogtrain/internal/domain/games"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
	"github.com/okian/cogtrain/pkg/metrics"
)

// History limits.
const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 100
)

// Submission is one incoming game result.
type Submission struct {
	// SubmissionID is optional. Repeated ids are acknowledged without being
	// stored again.
	SubmissionID string
	UserID       string
	GameID       string
	// Domain defaults to the catalog domain of GameID.
	Domain  string
	Value   float64
	Details map[string]any

	// PracticeAction and PracticeContext mark a practice session. Both must
	// be present for the bandit to learn from the score.
	PracticeAction  string
	PracticeContext string
}

// SubmitResult reports what happened to a submission.
type SubmitResult struct {
	Record    model.ScoreRecord
	Duplicate bool
	Practice  *PracticeResult
	Completed bool
}

// SubmitScore stores a score, feeds practice outcomes to the bandit and
// marks the game done in today's schedule.
func (s *Service) SubmitScore(ctx context.Context, sub Submission) (SubmitResult, error) {
	if err := s.validateSubmission(sub); err != nil {
		return SubmitResult{}, err
	}

	practice := sub.PracticeAction != "" && sub.PracticeContext != ""
	var (
		action    model.Action
		ctxBucket model.Bucket
	)
	if practice {
		var err error
		if action, err = model.ParseAction(sub.PracticeAction); err != nil {
			return SubmitResult{}, err
		}
		if ctxBucket, err = model.ParseBucket(sub.PracticeContext); err != nil {
			return SubmitResult{}, err
		}
	}

	if sub.SubmissionID != "" && s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordDuplicateSubmission()
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", sub.SubmissionID))
		return SubmitResult{Duplicate: true}, nil
	}

	game, _ := games.Lookup(sub.GameID)
	domain := strings.TrimSpace(sub.Domain)
	if domain == "" {
		domain = game.Domain
	}
	rec, err := s.scores.AppendScore(ctx, model.ScoreRecord{
		UserID:    sub.UserID,
		GameID:    game.ID,
		Domain:    domain,
		Value:     sub.Value,
		CreatedAt: s.now().UTC(),
		Details:   sub.Details,
	})
	if err != nil {
		if sub.SubmissionID != "" {
			s.deduper.Unrecord(ctx, sub.SubmissionID)
		}
		return SubmitResult{}, fmt.Errorf("append score: %w", err)
	}

	mode := "assessment"
	if practice {
		mode = "practice"
	}
	metrics.RecordScoreSubmitted(game.ID, mode)

	res := SubmitResult{Record: rec}
	if practice {
		pr, err := s.RecordPracticeOutcome(ctx, sub.UserID, game.ID, action, ctxBucket)
		if err != nil {
			// The score stays stored without its bandit update.
			s.logger.Error(ctx, "failed to record practice outcome",
				logger.String("user_id", sub.UserID),
				logger.String("game_id", game.ID),
				logger.Error(err))
		} else {
			res.Practice = &pr
		}
	}

	done, err := s.MarkGameCompleted(ctx, sub.UserID, game.ID)
	if err != nil {
		s.logger.Warn(ctx, "failed to mark game completed",
			logger.String("user_id", sub.UserID),
			logger.String("game_id", game.ID),
			logger.Error(err))
	}
	res.Completed = done

	return res, nil
}

func (s *Service) validateSubmission(sub Submission) error {
	if strings.TrimSpace(sub.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	if !games.Known(sub.GameID) {
		return fmt.Errorf("%w: %q", ErrUnknownGame, sub.GameID)
	}
	if math.IsNaN(sub.Value) || math.IsInf(sub.Value, 0) {
		return fmt.Errorf("%w: value must be finite", ErrBadRequest)
	}
	return nil
}

// ScoreHistory returns the user's most recent scores across all games.
// limit is clamped to [1, MaxHistoryLimit]; zero means DefaultHistoryLimit.
func (s *Service) ScoreHistory(ctx context.Context, userID string, limit int) ([]model.ScoreRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	recs, err := s.scores.RecentScores(ctx, userID, "", limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return recs, nil
}

// DomainSummary returns the latest score per cognitive domain.
func (s *Service) DomainSummary(ctx context.Context, userID string) (map[string]model.ScoreRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	recs, err := s.scores.RecentScores(ctx, userID, "", averageWindow)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	latest := make(map[string]model.ScoreRecord)
	for _, r := range recs {
		if r.Domain == "" {
			continue
		}
		if _, ok := latest[r.Domain]; !ok {
			latest[r.Domain] = r
		}
	}
	return latest, nil
}
