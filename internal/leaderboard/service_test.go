package leaderboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/promptcraft/promptcraft/internal/catalog"
	"github.com/promptcraft/promptcraft/internal/domain"
)

type memLedgers struct {
	ledgers map[string]domain.Ledger
}

func (m *memLedgers) Get(_ context.Context, userID string) (domain.Ledger, error) {
	ledger, ok := m.ledgers[userID]
	if !ok {
		return domain.Ledger{}, domain.ErrLedgerNotFound
	}
	return ledger, nil
}

func (m *memLedgers) Save(_ context.Context, ledger domain.Ledger) error {
	m.ledgers[ledger.UserID] = ledger
	return nil
}

func (m *memLedgers) List(_ context.Context) ([]domain.Ledger, error) {
	out := make([]domain.Ledger, 0, len(m.ledgers))
	for _, ledger := range m.ledgers {
		out = append(out, ledger)
	}
	return out, nil
}

type memProgress struct {
	records []domain.QuestProgress
}

func (m *memProgress) Get(_ context.Context, userID, questID string) (domain.QuestProgress, error) {
	for _, rec := range m.records {
		if rec.UserID == userID && rec.QuestID == questID {
			return rec, nil
		}
	}
	return domain.QuestProgress{}, domain.ErrProgressNotFound
}

func (m *memProgress) Save(_ context.Context, progress domain.QuestProgress) error {
	for i, rec := range m.records {
		if rec.UserID == progress.UserID && rec.QuestID == progress.QuestID {
			m.records[i] = progress
			return nil
		}
	}
	m.records = append(m.records, progress)
	return nil
}

func (m *memProgress) ListByUser(_ context.Context, userID string) ([]domain.QuestProgress, error) {
	var out []domain.QuestProgress
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memProgress) ListByQuests(_ context.Context, questIDs []string) ([]domain.QuestProgress, error) {
	wanted := make(map[string]bool, len(questIDs))
	for _, id := range questIDs {
		wanted[id] = true
	}
	var out []domain.QuestProgress
	for _, rec := range m.records {
		if wanted[rec.QuestID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memChallenges struct {
	subs []domain.ChallengeSubmission
}

func (m *memChallenges) SaveSubmission(_ context.Context, sub domain.ChallengeSubmission) error {
	m.subs = append(m.subs, sub)
	return nil
}

func (m *memChallenges) ListByChallenge(_ context.Context, challengeID string) ([]domain.ChallengeSubmission, error) {
	var out []domain.ChallengeSubmission
	for _, sub := range m.subs {
		if sub.ChallengeID == challengeID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memChallenges) ListByUser(_ context.Context, userID string) ([]domain.ChallengeSubmission, error) {
	var out []domain.ChallengeSubmission
	for _, sub := range m.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

const boardWorldsYAML = `worlds:
  - id: 1
    name: prompt-basics
    title: "Prompt Basics"
    unlock_level: 1
    quests: [first-prompt, second-prompt]
`

const boardQuestYAML = `id: %s
world_id: 1
name: %s
title: "Quest"
difficulty: beginner
type: tutorial
criteria:
  - name: Clarity
    weight: 1.0
rewards:
  xp: 100
`

const boardChallengesYAML = `challenges:
  - id: weekly-haiku
    name: weekly-haiku
    title: "Haiku Week"
    type: weekly
    start_date: 2026-08-24T00:00:00Z
    end_date: 2026-08-31T00:00:00Z
    base_xp: 100
    criteria:
      - name: Elegance
        weight: 1.0
`

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "quests"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	writeFile("worlds.yaml", boardWorldsYAML)
	writeFile("challenges.yaml", boardChallengesYAML)
	writeFile(filepath.Join("quests", "first-prompt.yaml"),
		"id: first-prompt\nworld_id: 1\nname: first-prompt\ntitle: \"Quest\"\ndifficulty: beginner\ntype: tutorial\ncriteria:\n  - name: Clarity\n    weight: 1.0\nrewards:\n  xp: 100\n")
	writeFile(filepath.Join("quests", "second-prompt.yaml"),
		"id: second-prompt\nworld_id: 1\nname: second-prompt\ntitle: \"Quest\"\ndifficulty: beginner\ntype: tutorial\ncriteria:\n  - name: Clarity\n    weight: 1.0\nrewards:\n  xp: 100\n")

	reg := catalog.NewRegistry(catalog.NewLoader(dir))
	if err := reg.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return reg
}

func ledgerWithXP(userID string, totalXP int, updatedAt time.Time) domain.Ledger {
	ledger := domain.NewLedger(userID)
	ledger, _, _ = ledger.AwardXP(totalXP)
	ledger.UpdatedAt = updatedAt
	return ledger
}

func TestService_Global(t *testing.T) {
	now := time.Now()
	ledgers := &memLedgers{ledgers: map[string]domain.Ledger{
		"alice": ledgerWithXP("alice", 500, now),
		"bob":   ledgerWithXP("bob", 1200, now),
		"carol": ledgerWithXP("carol", 500, now.Add(-time.Hour)),
	}}
	svc := NewService(ledgers, &memProgress{}, &memChallenges{}, testRegistry(t), nil, nil)

	entries, err := svc.Global(context.Background(), 0)
	if err != nil {
		t.Fatalf("Global() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].UserID != "bob" || entries[0].Rank != 1 {
		t.Errorf("entries[0] = %+v, want bob at rank 1", entries[0])
	}
	// Equal XP: earlier update wins.
	if entries[1].UserID != "carol" {
		t.Errorf("entries[1].UserID = %q, want carol", entries[1].UserID)
	}
	if entries[2].UserID != "alice" || entries[2].Rank != 3 {
		t.Errorf("entries[2] = %+v, want alice at rank 3", entries[2])
	}
}

func TestService_Global_Limit(t *testing.T) {
	now := time.Now()
	ledgers := &memLedgers{ledgers: map[string]domain.Ledger{
		"a": ledgerWithXP("a", 100, now),
		"b": ledgerWithXP("b", 200, now),
		"c": ledgerWithXP("c", 300, now),
	}}
	svc := NewService(ledgers, &memProgress{}, &memChallenges{}, testRegistry(t), nil, nil)

	entries, err := svc.Global(context.Background(), 2)
	if err != nil {
		t.Fatalf("Global() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].UserID != "c" {
		t.Errorf("entries[0].UserID = %q, want c", entries[0].UserID)
	}
}

func TestService_World(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	later := base.Add(time.Hour)
	progress := &memProgress{records: []domain.QuestProgress{
		{UserID: "half", QuestID: "first-prompt", Status: domain.QuestStatusCompleted, Attempts: 1, BestScore: 80, CompletedAt: &base},
		{UserID: "full", QuestID: "first-prompt", Status: domain.QuestStatusCompleted, Attempts: 1, BestScore: 90, CompletedAt: &base},
		{UserID: "full", QuestID: "second-prompt", Status: domain.QuestStatusCompleted, Attempts: 2, BestScore: 85, CompletedAt: &later},
		{UserID: "none", QuestID: "first-prompt", Status: domain.QuestStatusInProgress, StartedAt: &base},
		{UserID: "other", QuestID: "elsewhere", Status: domain.QuestStatusCompleted, Attempts: 1, BestScore: 100, CompletedAt: &base},
	}}
	svc := NewService(&memLedgers{ledgers: map[string]domain.Ledger{}}, progress, &memChallenges{}, testRegistry(t), nil, nil)

	entries, err := svc.World(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("World() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (unscored and out-of-world users excluded)", len(entries))
	}
	if entries[0].UserID != "full" || entries[0].Score != 175 {
		t.Errorf("entries[0] = %+v, want full at 175", entries[0])
	}
	if entries[1].UserID != "half" || entries[1].Score != 80 {
		t.Errorf("entries[1] = %+v, want half at 80", entries[1])
	}
}

func TestService_World_Unknown(t *testing.T) {
	svc := NewService(&memLedgers{ledgers: map[string]domain.Ledger{}}, &memProgress{}, &memChallenges{}, testRegistry(t), nil, nil)

	_, err := svc.World(context.Background(), 99, 0)
	if !errors.Is(err, domain.ErrWorldNotFound) {
		t.Fatalf("World(99) error = %v, want ErrWorldNotFound", err)
	}
}

func TestService_Challenge(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	challenges := &memChallenges{subs: []domain.ChallengeSubmission{
		{ID: [16]byte{1}, UserID: "alice", ChallengeID: "weekly-haiku", Score: 80, SubmittedAt: base},
		{ID: [16]byte{2}, UserID: "bob", ChallengeID: "weekly-haiku", Score: 92, SubmittedAt: base.Add(time.Hour)},
		{ID: [16]byte{3}, UserID: "alice", ChallengeID: "weekly-haiku", Score: 95, SubmittedAt: base.Add(2 * time.Hour)},
	}}
	svc := NewService(&memLedgers{ledgers: map[string]domain.Ledger{}}, &memProgress{}, challenges, testRegistry(t), nil, nil)

	entries, err := svc.Challenge(context.Background(), "weekly-haiku", 0)
	if err != nil {
		t.Fatalf("Challenge() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].UserID != "alice" || entries[0].Score != 95 {
		t.Errorf("entries[0] = %+v, want alice at 95", entries[0])
	}
	if entries[1].UserID != "bob" || entries[1].Score != 92 {
		t.Errorf("entries[1] = %+v, want bob at 92", entries[1])
	}
}

func TestService_Challenge_Unknown(t *testing.T) {
	svc := NewService(&memLedgers{ledgers: map[string]domain.Ledger{}}, &memProgress{}, &memChallenges{}, testRegistry(t), nil, nil)

	_, err := svc.Challenge(context.Background(), "nope", 0)
	if !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("Challenge(nope) error = %v, want ErrChallengeNotFound", err)
	}
}

func TestService_GlobalRank(t *testing.T) {
	now := time.Now()
	ledgers := &memLedgers{ledgers: map[string]domain.Ledger{
		"alice": ledgerWithXP("alice", 500, now),
		"bob":   ledgerWithXP("bob", 1200, now),
	}}
	svc := NewService(ledgers, &memProgress{}, &memChallenges{}, testRegistry(t), nil, nil)

	rank, err := svc.GlobalRank(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GlobalRank() error = %v", err)
	}
	if rank != 2 {
		t.Errorf("rank = %d, want 2", rank)
	}

	_, err = svc.GlobalRank(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrLedgerNotFound) {
		t.Fatalf("GlobalRank(ghost) error = %v, want ErrLedgerNotFound", err)
	}
}
