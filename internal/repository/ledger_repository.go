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

// LedgerRepository implements progression.LedgerRepository using PostgreSQL
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Get retrieves a user's ledger
func (r *LedgerRepository) Get(ctx context.Context, userID string) (domain.Ledger, error) {
	query := `
		SELECT user_id, level, xp, total_xp, xp_to_next_level,
			badges, completed_quests, current_world, stats, created_at, updated_at
		FROM ledgers WHERE user_id = $1
	`
	var ledger domain.Ledger
	var badgesJSON, questsJSON, statsJSON []byte
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&ledger.UserID, &ledger.Level, &ledger.XP, &ledger.TotalXP, &ledger.XPToNextLevel,
		&badgesJSON, &questsJSON, &ledger.CurrentWorld, &statsJSON,
		&ledger.CreatedAt, &ledger.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ledger{}, fmt.Errorf("ledger for user %s: %w", userID, domain.ErrLedgerNotFound)
	}
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("query ledger: %w", err)
	}

	if err := json.Unmarshal(badgesJSON, &ledger.Badges); err != nil {
		return domain.Ledger{}, fmt.Errorf("unmarshal badges: %w", err)
	}
	if err := json.Unmarshal(questsJSON, &ledger.CompletedQuests); err != nil {
		return domain.Ledger{}, fmt.Errorf("unmarshal completed_quests: %w", err)
	}
	if err := json.Unmarshal(statsJSON, &ledger.Stats); err != nil {
		return domain.Ledger{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return ledger, nil
}

// Save upserts a ledger
func (r *LedgerRepository) Save(ctx context.Context, ledger domain.Ledger) error {
	badges, err := json.Marshal(ledger.Badges)
	if err != nil {
		return fmt.Errorf("marshal badges: %w", err)
	}
	quests, err := json.Marshal(ledger.CompletedQuests)
	if err != nil {
		return fmt.Errorf("marshal completed_quests: %w", err)
	}
	stats, err := json.Marshal(ledger.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	query := `
		INSERT INTO ledgers (user_id, level, xp, total_xp, xp_to_next_level,
			badges, completed_quests, current_world, stats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			total_xp = EXCLUDED.total_xp,
			xp_to_next_level = EXCLUDED.xp_to_next_level,
			badges = EXCLUDED.badges,
			completed_quests = EXCLUDED.completed_quests,
			current_world = EXCLUDED.current_world,
			stats = EXCLUDED.stats,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		ledger.UserID, ledger.Level, ledger.XP, ledger.TotalXP, ledger.XPToNextLevel,
		badges, quests, ledger.CurrentWorld, stats, ledger.CreatedAt, ledger.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

// List returns all ledgers ordered by total XP descending
func (r *LedgerRepository) List(ctx context.Context) ([]domain.Ledger, error) {
	query := `
		SELECT user_id, level, xp, total_xp, xp_to_next_level,
			badges, completed_quests, current_world, stats, created_at, updated_at
		FROM ledgers ORDER BY total_xp DESC, user_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []domain.Ledger
	for rows.Next() {
		var ledger domain.Ledger
		var badgesJSON, questsJSON, statsJSON []byte
		if err := rows.Scan(
			&ledger.UserID, &ledger.Level, &ledger.XP, &ledger.TotalXP, &ledger.XPToNextLevel,
			&badgesJSON, &questsJSON, &ledger.CurrentWorld, &statsJSON,
			&ledger.CreatedAt, &ledger.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		if err := json.Unmarshal(badgesJSON, &ledger.Badges); err != nil {
			return nil, fmt.Errorf("unmarshal badges: %w", err)
		}
		if err := json.Unmarshal(questsJSON, &ledger.CompletedQuests); err != nil {
			return nil, fmt.Errorf("unmarshal completed_quests: %w", err)
		}
		if err := json.Unmarshal(statsJSON, &ledger.Stats); err != nil {
			return nil, fmt.Errorf("unmarshal stats: %w", err)
		}
		ledgers = append(ledgers, ledger)
	}
	return ledgers, rows.Err()
}
