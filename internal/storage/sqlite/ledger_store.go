package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/promptcraft/promptcraft/internal/domain"
)

// LedgerStore implements progression.LedgerRepository backed by SQLite.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new SQLite-backed ledger store.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Get retrieves a user's ledger.
func (s *LedgerStore) Get(ctx context.Context, userID string) (domain.Ledger, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, level, xp, total_xp, xp_to_next_level,
			badges, completed_quests, current_world, stats, created_at, updated_at
		FROM ledgers WHERE user_id = ?`, userID)

	ledger, err := scanLedger(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ledger{}, fmt.Errorf("ledger for user %s: %w", userID, domain.ErrLedgerNotFound)
	}
	if err != nil {
		return domain.Ledger{}, err
	}
	return ledger, nil
}

// Save persists a ledger (insert or update).
func (s *LedgerStore) Save(ctx context.Context, ledger domain.Ledger) error {
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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledgers (user_id, level, xp, total_xp, xp_to_next_level,
			badges, completed_quests, current_world, stats, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			level=excluded.level,
			xp=excluded.xp,
			total_xp=excluded.total_xp,
			xp_to_next_level=excluded.xp_to_next_level,
			badges=excluded.badges,
			completed_quests=excluded.completed_quests,
			current_world=excluded.current_world,
			stats=excluded.stats,
			updated_at=excluded.updated_at`,
		ledger.UserID, ledger.Level, ledger.XP, ledger.TotalXP, ledger.XPToNextLevel,
		string(badges), string(quests), ledger.CurrentWorld, string(stats),
		ledger.CreatedAt, ledger.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

// List returns all ledgers ordered by total XP descending.
func (s *LedgerStore) List(ctx context.Context) ([]domain.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, level, xp, total_xp, xp_to_next_level,
			badges, completed_quests, current_world, stats, created_at, updated_at
		FROM ledgers ORDER BY total_xp DESC, user_id`)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []domain.Ledger
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, ledger)
	}
	return ledgers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedger(row rowScanner) (domain.Ledger, error) {
	var ledger domain.Ledger
	var badgesJSON, questsJSON, statsJSON string

	err := row.Scan(
		&ledger.UserID, &ledger.Level, &ledger.XP, &ledger.TotalXP, &ledger.XPToNextLevel,
		&badgesJSON, &questsJSON, &ledger.CurrentWorld, &statsJSON,
		&ledger.CreatedAt, &ledger.UpdatedAt,
	)
	if err != nil {
		return domain.Ledger{}, err
	}

	if err := json.Unmarshal([]byte(badgesJSON), &ledger.Badges); err != nil {
		return domain.Ledger{}, fmt.Errorf("unmarshal badges: %w", err)
	}
	if err := json.Unmarshal([]byte(questsJSON), &ledger.CompletedQuests); err != nil {
		return domain.Ledger{}, fmt.Errorf("unmarshal completed_quests: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &ledger.Stats); err != nil {
		return domain.Ledger{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return ledger, nil
}
