package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promptcraft/promptcraft/internal/domain"
)

// ChallengeRepository implements progression.ChallengeRepository using PostgreSQL
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewChallengeRepository creates a new PostgreSQL challenge repository
func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

// SaveSubmission records one challenge entry
func (r *ChallengeRepository) SaveSubmission(ctx context.Context, sub domain.ChallengeSubmission) error {
	query := `
		INSERT INTO challenge_submissions (id, user_id, challenge_id, prompt, score, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.ChallengeID, sub.Prompt, sub.Score, sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListByChallenge returns all submissions for a challenge, oldest first
func (r *ChallengeRepository) ListByChallenge(ctx context.Context, challengeID string) ([]domain.ChallengeSubmission, error) {
	query := `
		SELECT id, user_id, challenge_id, prompt, score, submitted_at
		FROM challenge_submissions WHERE challenge_id = $1 ORDER BY submitted_at
	`
	rows, err := r.pool.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("query submissions by challenge: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ListByUser returns all submissions by a user, newest first
func (r *ChallengeRepository) ListByUser(ctx context.Context, userID string) ([]domain.ChallengeSubmission, error) {
	query := `
		SELECT id, user_id, challenge_id, prompt, score, submitted_at
		FROM challenge_submissions WHERE user_id = $1 ORDER BY submitted_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query submissions by user: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func collectSubmissions(rows pgx.Rows) ([]domain.ChallengeSubmission, error) {
	var subs []domain.ChallengeSubmission
	for rows.Next() {
		var sub domain.ChallengeSubmission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ChallengeID, &sub.Prompt, &sub.Score, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
