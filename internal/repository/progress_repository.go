package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promptcraft/promptcraft/internal/domain"
)

// ProgressRepository implements progression.ProgressRepository using PostgreSQL
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new PostgreSQL progress repository
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

const progressColumns = `user_id, quest_id, status, progress, attempts, best_score, objectives, started_at, completed_at`

// Get retrieves a user's progress on one quest
func (r *ProgressRepository) Get(ctx context.Context, userID, questID string) (domain.QuestProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM quest_progress WHERE user_id = $1 AND quest_id = $2`

	progress, err := scanProgress(r.pool.QueryRow(ctx, query, userID, questID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestProgress{}, fmt.Errorf("progress for user %s quest %s: %w", userID, questID, domain.ErrProgressNotFound)
	}
	if err != nil {
		return domain.QuestProgress{}, fmt.Errorf("query progress: %w", err)
	}
	return progress, nil
}

// Save upserts a progress record
func (r *ProgressRepository) Save(ctx context.Context, progress domain.QuestProgress) error {
	objectives, err := json.Marshal(progress.Objectives)
	if err != nil {
		return fmt.Errorf("marshal objectives: %w", err)
	}

	query := `
		INSERT INTO quest_progress (user_id, quest_id, status, progress, attempts,
			best_score, objectives, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, quest_id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			attempts = EXCLUDED.attempts,
			best_score = EXCLUDED.best_score,
			objectives = EXCLUDED.objectives,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`
	_, err = r.pool.Exec(ctx, query,
		progress.UserID, progress.QuestID, string(progress.Status), progress.Progress,
		progress.Attempts, progress.BestScore, objectives, progress.StartedAt, progress.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// ListByUser returns all progress records for a user
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]domain.QuestProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM quest_progress WHERE user_id = $1 ORDER BY quest_id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query progress by user: %w", err)
	}
	defer rows.Close()
	return collectProgress(rows)
}

// ListByQuests returns all users' progress on the given quests
func (r *ProgressRepository) ListByQuests(ctx context.Context, questIDs []string) ([]domain.QuestProgress, error) {
	if len(questIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + progressColumns + ` FROM quest_progress WHERE quest_id = ANY($1) ORDER BY user_id, quest_id`

	rows, err := r.pool.Query(ctx, query, questIDs)
	if err != nil {
		return nil, fmt.Errorf("query progress by quests: %w", err)
	}
	defer rows.Close()
	return collectProgress(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (domain.QuestProgress, error) {
	var progress domain.QuestProgress
	var status string
	var objectivesJSON []byte
	err := row.Scan(
		&progress.UserID, &progress.QuestID, &status, &progress.Progress,
		&progress.Attempts, &progress.BestScore, &objectivesJSON,
		&progress.StartedAt, &progress.CompletedAt,
	)
	if err != nil {
		return domain.QuestProgress{}, err
	}
	progress.Status = domain.QuestStatus(status)
	if err := json.Unmarshal(objectivesJSON, &progress.Objectives); err != nil {
		return domain.QuestProgress{}, fmt.Errorf("unmarshal objectives: %w", err)
	}
	return progress, nil
}

func collectProgress(rows pgx.Rows) ([]domain.QuestProgress, error) {
	var records []domain.QuestProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		records = append(records, progress)
	}
	return records, rows.Err()
}
