package domain

import (
	"sort"
	"time"
)

// LeaderboardScope selects which score feeds the ranking
type LeaderboardScope string

const (
	ScopeGlobal    LeaderboardScope = "global"
	ScopeWorld     LeaderboardScope = "world"
	ScopeChallenge LeaderboardScope = "challenge"
)

// LeaderboardEntry is a derived row, recomputed from ledgers or challenge
// submissions and never persisted independently.
type LeaderboardEntry struct {
	UserID      string    `json:"user_id"`
	Score       int       `json:"score"`
	Rank        int       `json:"rank"`
	Level       int       `json:"level,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// RankEntries sorts entries into a total order and assigns ranks. Higher
// score wins; ties break to the earlier CompletedAt, then to the ascending
// UserID. The final tie-break guarantees a deterministic unique ordering,
// so ranks are dense 1..N.
func RankEntries(entries []LeaderboardEntry) []LeaderboardEntry {
	ranked := make([]LeaderboardEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].CompletedAt.Equal(ranked[j].CompletedAt) {
			return ranked[i].CompletedAt.Before(ranked[j].CompletedAt)
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// GlobalEntry projects a ledger onto the global leaderboard (total XP)
func GlobalEntry(ledger Ledger) LeaderboardEntry {
	return LeaderboardEntry{
		UserID:      ledger.UserID,
		Score:       ledger.TotalXP,
		Level:       ledger.Level,
		CompletedAt: ledger.UpdatedAt,
	}
}

// WorldStanding aggregates a user's quest progress within one world into
// a leaderboard entry. Score is the summed best score across the world's
// quests; the timestamp is the latest quest completion, so finishing the
// same set earlier wins ties. Returns false when the user has no scored
// attempts in the world.
func WorldStanding(userID string, records []QuestProgress) (LeaderboardEntry, bool) {
	entry := LeaderboardEntry{UserID: userID}
	scored := false
	for _, rec := range records {
		if rec.UserID != userID || rec.Attempts == 0 {
			continue
		}
		scored = true
		entry.Score += rec.BestScore
		if rec.CompletedAt != nil && rec.CompletedAt.After(entry.CompletedAt) {
			entry.CompletedAt = *rec.CompletedAt
		}
	}
	if !scored {
		return LeaderboardEntry{}, false
	}
	return entry, true
}

// ChallengeEntry projects a user's best submission onto a challenge
// leaderboard. The earliest submission achieving the best score carries the
// timestamp, rewarding speed on ties.
func ChallengeEntry(userID string, submissions []ChallengeSubmission) (LeaderboardEntry, bool) {
	best := LeaderboardEntry{UserID: userID, Score: -1}
	for _, sub := range submissions {
		if sub.UserID != userID {
			continue
		}
		if sub.Score > best.Score {
			best.Score = sub.Score
			best.CompletedAt = sub.SubmittedAt
		} else if sub.Score == best.Score && sub.SubmittedAt.Before(best.CompletedAt) {
			best.CompletedAt = sub.SubmittedAt
		}
	}
	if best.Score < 0 {
		return LeaderboardEntry{}, false
	}
	return best, true
}
