package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/promptcraft/promptcraft/internal/domain"
)

// ChallengeStore implements progression.ChallengeRepository backed by SQLite.
type ChallengeStore struct {
	db *DB
}

// NewChallengeStore creates a new SQLite-backed challenge store.
func NewChallengeStore(db *DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

// SaveSubmission records one challenge entry.
func (s *ChallengeStore) SaveSubmission(ctx context.Context, sub domain.ChallengeSubmission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_submissions (id, user_id, challenge_id, prompt, score, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID.String(), sub.UserID, sub.ChallengeID, sub.Prompt, sub.Score, sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListByChallenge returns all submissions for a challenge, oldest first.
func (s *ChallengeStore) ListByChallenge(ctx context.Context, challengeID string) ([]domain.ChallengeSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, challenge_id, prompt, score, submitted_at
		FROM challenge_submissions WHERE challenge_id = ? ORDER BY submitted_at`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list submissions by challenge: %w", err)
	}
	defer rows.Close()
	return collectChallengeSubs(rows)
}

// ListByUser returns all submissions by a user, newest first.
func (s *ChallengeStore) ListByUser(ctx context.Context, userID string) ([]domain.ChallengeSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, challenge_id, prompt, score, submitted_at
		FROM challenge_submissions WHERE user_id = ? ORDER BY submitted_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions by user: %w", err)
	}
	defer rows.Close()
	return collectChallengeSubs(rows)
}

func collectChallengeSubs(rows *sql.Rows) ([]domain.ChallengeSubmission, error) {
	var subs []domain.ChallengeSubmission
	for rows.Next() {
		var sub domain.ChallengeSubmission
		var id string
		if err := rows.Scan(&id, &sub.UserID, &sub.ChallengeID, &sub.Prompt, &sub.Score, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse submission id %q: %w", id, err)
		}
		sub.ID = parsed
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
