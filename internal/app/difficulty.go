package service

import (
	"context"
	"fmt"

	"github.com/okian/cogtrain/internal/domain/bandit"
	"github.com/okian/cogtrain/internal/domain/bucket"
	"github.com/okian/cogtrain/internal/domain/games"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
	"github.com/okian/cogtrain/pkg/metrics"
)

// PracticeResult describes an applied or queued bandit update.
type PracticeResult struct {
	Outcome model.Outcome
	Queued  bool
}

// SelectDifficulty recommends a difficulty for the user's next session of
// gameID. Store failures never surface: the context falls back to mid and
// the selector falls back to a random action.
func (s *Service) SelectDifficulty(ctx context.Context, userID, gameID string) (bandit.Choice, error) {
	if userID == "" {
		return bandit.Choice{}, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	if !games.Known(gameID) {
		return bandit.Choice{}, fmt.Errorf("%w: %q", ErrUnknownGame, gameID)
	}

	ctxBucket := s.contextFor(ctx, userID, gameID)
	choice := s.selector.Select(ctx, userID, gameID, ctxBucket)

	s.logger.Debug(ctx, "difficulty selected",
		logger.String("user_id", userID),
		logger.String("game_id", gameID),
		logger.String("context", string(choice.Context)),
		logger.String("action", string(choice.Action)),
		logger.Bool("explored", choice.Explored))

	return choice, nil
}

func (s *Service) contextFor(ctx context.Context, userID, gameID string) model.Bucket {
	recent, err := s.scores.RecentScores(ctx, userID, gameID, s.recentLimit)
	if err != nil {
		s.logger.Warn(ctx, "recent scores unavailable, using mid context",
			logger.String("user_id", userID),
			logger.String("game_id", gameID),
			logger.Error(err))
		metrics.RecordSelectorFallback("scores_unavailable")
		return model.Mid
	}
	return bucket.FromScores(recent, games.LowerIsBetter(gameID))
}

// RecordPracticeOutcome turns the two most recent scores for gameID into a
// reward and applies it to the arm for (ctxBucket, action). The update is
// queued when the worker pool is running.
func (s *Service) RecordPracticeOutcome(ctx context.Context, userID, gameID string, action model.Action, ctxBucket model.Bucket) (PracticeResult, error) {
	if !games.Known(gameID) {
		return PracticeResult{}, fmt.Errorf("%w: %q", ErrUnknownGame, gameID)
	}
	action, err := model.ParseAction(string(action))
	if err != nil {
		return PracticeResult{}, err
	}
	ctxBucket, err = model.ParseBucket(string(ctxBucket))
	if err != nil {
		return PracticeResult{}, err
	}

	recent, err := s.scores.RecentScores(ctx, userID, gameID, 2)
	if err != nil {
		return PracticeResult{}, fmt.Errorf("load recent scores: %w", err)
	}

	o := model.Outcome{
		UserID:  userID,
		GameID:  gameID,
		Context: ctxBucket,
		Action:  action,
		Reward:  bandit.Reward(recent, games.LowerIsBetter(gameID)),
	}
	queued, err := s.enqueue(ctx, o)
	if err != nil {
		return PracticeResult{}, err
	}
	if !queued {
		metrics.RecordBanditUpdate(gameID, o.Reward)
	}
	return PracticeResult{Outcome: o, Queued: queued}, nil
}
