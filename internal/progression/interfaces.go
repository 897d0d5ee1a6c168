package progression

import (
	"context"

	"github.com/promptcraft/promptcraft/internal/domain"
	"github.com/promptcraft/promptcraft/internal/scorer"
)

// LedgerRepository persists progression ledgers
type LedgerRepository interface {
	// Get retrieves a user's ledger, returning domain.ErrLedgerNotFound
	// if the user has none yet
	Get(ctx context.Context, userID string) (domain.Ledger, error)

	// Save upserts a ledger
	Save(ctx context.Context, ledger domain.Ledger) error

	// List returns all ledgers
	List(ctx context.Context) ([]domain.Ledger, error)
}

// ProgressRepository persists per-quest progress records
type ProgressRepository interface {
	// Get retrieves a user's progress on one quest, returning
	// domain.ErrProgressNotFound when no record exists
	Get(ctx context.Context, userID, questID string) (domain.QuestProgress, error)

	// Save upserts a progress record
	Save(ctx context.Context, progress domain.QuestProgress) error

	// ListByUser returns all progress records for a user
	ListByUser(ctx context.Context, userID string) ([]domain.QuestProgress, error)

	// ListByQuests returns all users' progress on the given quests
	ListByQuests(ctx context.Context, questIDs []string) ([]domain.QuestProgress, error)
}

// ChallengeRepository persists challenge submissions
type ChallengeRepository interface {
	// SaveSubmission records one challenge entry
	SaveSubmission(ctx context.Context, sub domain.ChallengeSubmission) error

	// ListByChallenge returns all submissions for a challenge
	ListByChallenge(ctx context.Context, challengeID string) ([]domain.ChallengeSubmission, error)

	// ListByUser returns all submissions by a user
	ListByUser(ctx context.Context, userID string) ([]domain.ChallengeSubmission, error)
}

// Scorer evaluates a submission against criteria
type Scorer interface {
	Name() string
	Score(ctx context.Context, req *scorer.Request) (domain.ScoreVector, error)
}

// EventPublisher fans progression events out to interested parties.
// Implementations must tolerate being called after domain state is
// already committed; publish failures are logged, not rolled back.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
