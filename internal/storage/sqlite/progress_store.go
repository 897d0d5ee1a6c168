package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/promptcraft/promptcraft/internal/domain"
)

// ProgressStore implements progression.ProgressRepository backed by SQLite.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Get retrieves a user's progress on one quest.
func (s *ProgressStore) Get(ctx context.Context, userID, questID string) (domain.QuestProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, quest_id, status, progress, attempts, best_score,
			objectives, started_at, completed_at
		FROM quest_progress WHERE user_id = ? AND quest_id = ?`, userID, questID)

	progress, err := scanQuestProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuestProgress{}, fmt.Errorf("progress for user %s quest %s: %w", userID, questID, domain.ErrProgressNotFound)
	}
	if err != nil {
		return domain.QuestProgress{}, err
	}
	return progress, nil
}

// Save persists a progress record (insert or update).
func (s *ProgressStore) Save(ctx context.Context, progress domain.QuestProgress) error {
	objectives, err := json.Marshal(progress.Objectives)
	if err != nil {
		return fmt.Errorf("marshal objectives: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quest_progress (user_id, quest_id, status, progress, attempts,
			best_score, objectives, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, quest_id) DO UPDATE SET
			status=excluded.status,
			progress=excluded.progress,
			attempts=excluded.attempts,
			best_score=excluded.best_score,
			objectives=excluded.objectives,
			started_at=excluded.started_at,
			completed_at=excluded.completed_at`,
		progress.UserID, progress.QuestID, string(progress.Status), progress.Progress,
		progress.Attempts, progress.BestScore, string(objectives),
		progress.StartedAt, progress.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// ListByUser returns all progress records for a user.
func (s *ProgressStore) ListByUser(ctx context.Context, userID string) ([]domain.QuestProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, quest_id, status, progress, attempts, best_score,
			objectives, started_at, completed_at
		FROM quest_progress WHERE user_id = ? ORDER BY quest_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress by user: %w", err)
	}
	defer rows.Close()
	return collectQuestProgress(rows)
}

// ListByQuests returns all users' progress on the given quests.
func (s *ProgressStore) ListByQuests(ctx context.Context, questIDs []string) ([]domain.QuestProgress, error) {
	if len(questIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(questIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(questIDs))
	for i, id := range questIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, quest_id, status, progress, attempts, best_score,
			objectives, started_at, completed_at
		FROM quest_progress WHERE quest_id IN (`+placeholders+`) ORDER BY user_id, quest_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress by quests: %w", err)
	}
	defer rows.Close()
	return collectQuestProgress(rows)
}

func scanQuestProgress(row rowScanner) (domain.QuestProgress, error) {
	var progress domain.QuestProgress
	var status, objectivesJSON string

	err := row.Scan(
		&progress.UserID, &progress.QuestID, &status, &progress.Progress,
		&progress.Attempts, &progress.BestScore, &objectivesJSON,
		&progress.StartedAt, &progress.CompletedAt,
	)
	if err != nil {
		return domain.QuestProgress{}, err
	}

	progress.Status = domain.QuestStatus(status)
	if err := json.Unmarshal([]byte(objectivesJSON), &progress.Objectives); err != nil {
		return domain.QuestProgress{}, fmt.Errorf("unmarshal objectives: %w", err)
	}
	return progress, nil
}

func collectQuestProgress(rows *sql.Rows) ([]domain.QuestProgress, error) {
	var records []domain.QuestProgress
	for rows.Next() {
		progress, err := scanQuestProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		records = append(records, progress)
	}
	return records, rows.Err()
}
