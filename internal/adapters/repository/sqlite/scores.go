package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/cogtrain/internal/adapters/repository"
	"github.com/okian/cogtrain/internal/domain/model"
)

// AppendScore implements repository.ScoreStore.
func (s *Store) AppendScore(ctx context.Context, rec model.ScoreRecord) (out model.ScoreRecord, err error) {
	defer observe("append_score", time.Now(), &err)

	var details sql.NullString
	if len(rec.Details) > 0 {
		b, err := json.Marshal(rec.Details)
		if err != nil {
			return model.ScoreRecord{}, fmt.Errorf("encode details: %w", err)
		}
		details = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (user_id, game_id, domain, value, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.GameID, rec.Domain, rec.Value, details, formatTime(rec.CreatedAt))
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("insert score: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("score id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// RecentScores implements repository.ScoreStore.
func (s *Store) RecentScores(ctx context.Context, userID, gameID string, limit int) (out []model.ScoreRecord, err error) {
	defer observe("recent_scores", time.Now(), &err)

	if limit <= 0 {
		return nil, repository.ErrInvalidLimit
	}

	var rows *sql.Rows
	if gameID == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, user_id, game_id, domain, value, details, created_at
			 FROM scores WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, user_id, game_id, domain, value, details, created_at
			 FROM scores WHERE user_id = ? AND game_id = ? ORDER BY id DESC LIMIT ?`, userID, gameID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			rec       model.ScoreRecord
			details   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.GameID, &rec.Domain, &rec.Value, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("score %d created_at: %w", rec.ID, err)
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &rec.Details); err != nil {
				return nil, fmt.Errorf("score %d details: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}
