package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/promptcraft/promptcraft/internal/catalog"
	"github.com/promptcraft/promptcraft/internal/domain"
	"github.com/promptcraft/promptcraft/internal/progression"
)

// Service computes ranked leaderboards. Boards are always derived from
// stored state; the cache only short-circuits the recompute.
type Service struct {
	ledgers    progression.LedgerRepository
	progress   progression.ProgressRepository
	challenges progression.ChallengeRepository
	registry   *catalog.Registry
	cache      *Cache // nil disables caching
	logger     *slog.Logger
}

// NewService creates a leaderboard service. cache may be nil.
func NewService(
	ledgers progression.LedgerRepository,
	progress progression.ProgressRepository,
	challenges progression.ChallengeRepository,
	registry *catalog.Registry,
	cache *Cache,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledgers:    ledgers,
		progress:   progress,
		challenges: challenges,
		registry:   registry,
		cache:      cache,
		logger:     logger,
	}
}

// Global returns the global leaderboard ranked by total XP
func (s *Service) Global(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.board(ctx, "global", limit, s.computeGlobal)
}

// World returns a world's leaderboard ranked by summed best quest
// scores. Users with no scored attempts in the world are absent.
func (s *Service) World(ctx context.Context, worldID, limit int) ([]domain.LeaderboardEntry, error) {
	if _, err := s.registry.World(worldID); err != nil {
		return nil, err
	}
	key := "world:" + strconv.Itoa(worldID)
	return s.board(ctx, key, limit, func(ctx context.Context) ([]domain.LeaderboardEntry, error) {
		return s.computeWorld(ctx, worldID)
	})
}

// Challenge returns a challenge's leaderboard ranked by best score
func (s *Service) Challenge(ctx context.Context, challengeID string, limit int) ([]domain.LeaderboardEntry, error) {
	if _, err := s.registry.Challenge(challengeID); err != nil {
		return nil, err
	}
	key := "challenge:" + challengeID
	return s.board(ctx, key, limit, func(ctx context.Context) ([]domain.LeaderboardEntry, error) {
		return s.computeChallenge(ctx, challengeID)
	})
}

// GlobalRank returns a user's 1-based global rank. The cached sorted
// set answers when warm; otherwise the full board is computed.
func (s *Service) GlobalRank(ctx context.Context, userID string) (int, error) {
	if s.cache != nil {
		rank, err := s.cache.GlobalRank(ctx, userID)
		if err == nil {
			return rank, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("leaderboard rank cache failed", "error", err)
		}
	}

	entries, err := s.computeGlobal(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank, nil
		}
	}
	return 0, fmt.Errorf("user %s: %w", userID, domain.ErrLedgerNotFound)
}

// board applies the cache-aside pattern around a compute function
func (s *Service) board(ctx context.Context, key string, limit int, compute func(context.Context) ([]domain.LeaderboardEntry, error)) ([]domain.LeaderboardEntry, error) {
	if s.cache != nil {
		entries, err := s.cache.GetBoard(ctx, key)
		if err == nil {
			return truncate(entries, limit), nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("leaderboard cache read failed", "key", key, "error", err)
		}
	}

	entries, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetBoard(ctx, key, entries); err != nil {
			s.logger.Warn("leaderboard cache write failed", "key", key, "error", err)
		}
	}
	return truncate(entries, limit), nil
}

func (s *Service) computeGlobal(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	ledgers, err := s.ledgers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(ledgers))
	for _, ledger := range ledgers {
		entries = append(entries, domain.GlobalEntry(ledger))
	}
	return domain.RankEntries(entries), nil
}

func (s *Service) computeWorld(ctx context.Context, worldID int) ([]domain.LeaderboardEntry, error) {
	world, err := s.registry.World(worldID)
	if err != nil {
		return nil, err
	}
	records, err := s.progress.ListByQuests(ctx, world.QuestIDs)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	seen := make(map[string]bool)
	var entries []domain.LeaderboardEntry
	for _, rec := range records {
		if seen[rec.UserID] {
			continue
		}
		seen[rec.UserID] = true
		if entry, ok := domain.WorldStanding(rec.UserID, records); ok {
			entries = append(entries, entry)
		}
	}
	return domain.RankEntries(entries), nil
}

func (s *Service) computeChallenge(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	subs, err := s.challenges.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	seen := make(map[string]bool)
	var entries []domain.LeaderboardEntry
	for _, sub := range subs {
		if seen[sub.UserID] {
			continue
		}
		seen[sub.UserID] = true
		if entry, ok := domain.ChallengeEntry(sub.UserID, subs); ok {
			entries = append(entries, entry)
		}
	}
	return domain.RankEntries(entries), nil
}

func truncate(entries []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
