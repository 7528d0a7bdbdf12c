package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/cogtrain/internal/domain/model"
)

// Arms implements repository.ArmStore.
func (s *Store) Arms(ctx context.Context, userID, gameID string, bucket model.Bucket) (out []model.BanditArm, err error) {
	defer observe("arms", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT action, count, value FROM bandit_arms
		 WHERE user_id = ? AND game_id = ? AND context = ?`,
		userID, gameID, string(bucket))
	if err != nil {
		return nil, fmt.Errorf("query arms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byAction := make(map[model.Action]model.BanditArm, len(model.Actions))
	for rows.Next() {
		arm := model.BanditArm{UserID: userID, GameID: gameID, Context: bucket}
		var action string
		if err := rows.Scan(&action, &arm.Count, &arm.Value); err != nil {
			return nil, fmt.Errorf("scan arm: %w", err)
		}
		arm.Action = model.Action(action)
		byAction[arm.Action] = arm
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate arms: %w", err)
	}

	for _, a := range model.Actions {
		if arm, ok := byAction[a]; ok {
			out = append(out, arm)
		}
	}
	return out, nil
}

// ApplyReward implements repository.ArmStore. The online mean step runs in a
// single upsert so concurrent rewards are never lost.
func (s *Store) ApplyReward(ctx context.Context, userID, gameID string, bucket model.Bucket, action model.Action, reward float64) (arm model.BanditArm, err error) {
	defer observe("apply_reward", time.Now(), &err)

	arm = model.BanditArm{UserID: userID, GameID: gameID, Context: bucket, Action: action}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO bandit_arms (user_id, game_id, context, action, count, value, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (user_id, game_id, context, action) DO UPDATE SET
			value = bandit_arms.value + (excluded.value - bandit_arms.value) / (bandit_arms.count + 1),
			count = bandit_arms.count + 1,
			updated_at = excluded.updated_at
		 RETURNING count, value`,
		userID, gameID, string(bucket), string(action), reward, formatTime(time.Now()),
	).Scan(&arm.Count, &arm.Value)
	if err != nil {
		return model.BanditArm{}, fmt.Errorf("upsert arm: %w", err)
	}
	return arm, nil
}
