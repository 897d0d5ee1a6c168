// Package progression orchestrates quest and challenge submissions: it
// gates access against the catalog, scores prompts, folds verdicts into
// per-user state and fans resulting events out to subscribers. All domain
// state transitions are pure; this service sequences read, transform,
// write per user.
package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/promptcraft/promptcraft/internal/catalog"
	"github.com/promptcraft/promptcraft/internal/domain"
	"github.com/promptcraft/promptcraft/internal/scorer"
)

// RankCache mirrors cumulative XP for fast rank lookups. A nil cache
// disables mirroring; ranked boards are always recomputable from storage.
type RankCache interface {
	UpdateGlobalXP(ctx context.Context, userID string, totalXP int) error
}

// Service implements the progression operations over a loaded catalog
type Service struct {
	registry   *catalog.Registry
	ledgers    LedgerRepository
	progress   ProgressRepository
	challenges ChallengeRepository
	scorer     Scorer
	publisher  EventPublisher
	cache      RankCache
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a progression service. publisher and cache may be
// nil, which disables event delivery and rank mirroring respectively.
func NewService(
	registry *catalog.Registry,
	ledgers LedgerRepository,
	progress ProgressRepository,
	challenges ChallengeRepository,
	sc Scorer,
	publisher EventPublisher,
	cache RankCache,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:   registry,
		ledgers:    ledgers,
		progress:   progress,
		challenges: challenges,
		scorer:     sc,
		publisher:  publisher,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// QuestResult is the outcome of one quest submission
type QuestResult struct {
	Verdict      domain.Verdict
	Progress     domain.QuestProgress
	Ledger       domain.Ledger
	LeveledUp    bool
	Achievements []domain.Achievement
	ReviewMode   bool
}

// ChallengeResult is the outcome of one challenge submission
type ChallengeResult struct {
	Submission domain.ChallengeSubmission
	Scores     domain.ScoreVector
	Ledger     domain.Ledger
	XPAwarded  int
}

// SubmitQuest scores a prompt against a quest and folds the verdict into
// the user's progression. Submissions to a locked quest fail with
// domain.ErrPrerequisiteNotMet; exhausted quests fail with
// domain.ErrAttemptsExceeded. Completed quests accept review submissions
// that update the best score without awarding XP.
func (s *Service) SubmitQuest(ctx context.Context, userID, questID, prompt string) (*QuestResult, error) {
	quest, err := s.registry.Quest(questID)
	if err != nil {
		return nil, err
	}

	ledger, err := s.loadOrCreateLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !domain.QuestUnlocked(&quest, ledger) {
		return nil, fmt.Errorf("quest %s: %w", questID, domain.ErrPrerequisiteNotMet)
	}

	progress, err := s.loadOrCreateProgress(ctx, userID, &quest)
	if err != nil {
		return nil, err
	}
	review := progress.Status == domain.QuestStatusCompleted
	if err := progress.BeginAttempt(quest.EffectiveMaxAttempts()); err != nil {
		return nil, fmt.Errorf("quest %s: %w", questID, err)
	}

	// The streak advances before scoring so today's activity counts
	// toward the bonus multiplier.
	ledger = s.advanceStreak(ledger)

	vector, err := s.scorer.Score(ctx, &scorer.Request{
		Prompt:   prompt,
		Task:     quest.Description,
		Criteria: quest.Criteria,
	})
	if err != nil {
		return nil, fmt.Errorf("score submission: %w", err)
	}

	verdict, err := domain.ScoreSubmission(&quest, vector, ledger.Stats.Streak)
	if err != nil {
		return nil, err
	}

	firstCompletion := verdict.Passed && !review && !ledger.HasCompletedQuest(questID)
	progress.ApplyVerdict(&quest, verdict)

	if err := s.progress.Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}

	result := &QuestResult{
		Verdict:    verdict,
		Progress:   progress,
		ReviewMode: review,
	}

	if review {
		result.Ledger = ledger
		if err := s.ledgers.Save(ctx, ledger); err != nil {
			return nil, fmt.Errorf("save ledger: %w", err)
		}
		return result, nil
	}

	levelBefore := ledger.Level
	var events []domain.Event

	ledger, levelEvents, err := ledger.AwardXP(verdict.XPAwarded)
	if err != nil {
		return nil, err
	}
	events = append(events, levelEvents...)

	if firstCompletion {
		events = append(events, domain.NewQuestCompleted(userID, questID, verdict.OverallScore, verdict.XPAwarded))
		ledger = ledger.MarkQuestCompleted(questID)
		for _, badgeID := range quest.Rewards.Badges {
			ledger = ledger.AddBadge(badgeID)
		}

		ledger, levelEvents, err = s.applyWorldRewards(&quest, ledger)
		if err != nil {
			return nil, err
		}
		events = append(events, levelEvents...)
	}

	ledger = s.refreshStats(ctx, ledger, firstCompletion)

	ledger, unlocked, levelEvents, err := s.evaluateAchievements(ledger, verdict.OverallScore)
	if err != nil {
		return nil, err
	}
	events = append(events, levelEvents...)

	if err := s.ledgers.Save(ctx, ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	s.mirrorRank(ctx, ledger)
	s.publish(ctx, events)

	result.Ledger = ledger
	result.LeveledUp = ledger.Level > levelBefore
	result.Achievements = unlocked
	return result, nil
}

// SubmitChallenge scores a prompt against an active challenge, records
// the submission and grants participation XP. Rank rewards are paid out
// by FinalizeChallenge once the window closes.
func (s *Service) SubmitChallenge(ctx context.Context, userID, challengeID, prompt string) (*ChallengeResult, error) {
	challenge, err := s.registry.Challenge(challengeID)
	if err != nil {
		return nil, err
	}
	if !challenge.Active(s.now()) {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, domain.ErrChallengeInactive)
	}

	ledger, err := s.loadOrCreateLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, required := range challenge.Requirements {
		if !ledger.HasCompletedQuest(required) {
			return nil, fmt.Errorf("challenge %s requires quest %s: %w", challengeID, required, domain.ErrPrerequisiteNotMet)
		}
	}

	vector, err := s.scorer.Score(ctx, &scorer.Request{
		Prompt:   prompt,
		Task:     challenge.Description,
		Criteria: challenge.Criteria,
	})
	if err != nil {
		return nil, fmt.Errorf("score submission: %w", err)
	}
	overall, err := challengeScore(&challenge, vector)
	if err != nil {
		return nil, err
	}

	submission := domain.NewChallengeSubmission(userID, challengeID, prompt, overall)
	if err := s.challenges.SaveSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}

	ledger = s.advanceStreak(ledger)

	events := []domain.Event{domain.NewChallengeSubmitted(userID, challengeID, overall)}
	participation := challenge.Rewards.Participation.XP

	ledger, levelEvents, err := ledger.AwardXP(participation)
	if err != nil {
		return nil, err
	}
	events = append(events, levelEvents...)
	for _, badgeID := range challenge.Rewards.Participation.Badges {
		ledger = ledger.AddBadge(badgeID)
	}

	ledger, _, levelEvents, err = s.evaluateAchievements(ledger, overall)
	if err != nil {
		return nil, err
	}
	events = append(events, levelEvents...)

	if err := s.ledgers.Save(ctx, ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	s.mirrorRank(ctx, ledger)
	s.publish(ctx, events)

	return &ChallengeResult{
		Submission: submission,
		Scores:     vector,
		Ledger:     ledger,
		XPAwarded:  participation,
	}, nil
}

// FinalizeChallenge ranks a closed challenge's submissions and pays out
// the top three reward bands. Finalizing before the window closes fails;
// re-finalizing is safe because badge grants are idempotent, though XP
// payouts are not and callers should finalize once.
func (s *Service) FinalizeChallenge(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	challenge, err := s.registry.Challenge(challengeID)
	if err != nil {
		return nil, err
	}
	if !s.now().After(challenge.EndDate) {
		return nil, fmt.Errorf("challenge %s has not ended: %w", challengeID, domain.ErrInvalidArgument)
	}

	submissions, err := s.challenges.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	byUser := make(map[string][]domain.ChallengeSubmission)
	for _, sub := range submissions {
		byUser[sub.UserID] = append(byUser[sub.UserID], sub)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for userID, subs := range byUser {
		if entry, ok := domain.ChallengeEntry(userID, subs); ok {
			entries = append(entries, entry)
		}
	}
	ranked := domain.RankEntries(entries)

	for _, entry := range ranked {
		if entry.Rank > 3 {
			break
		}
		reward := challenge.Rewards.ForRank(entry.Rank)
		if err := s.payChallengeReward(ctx, entry, challenge.ID, reward); err != nil {
			return nil, err
		}
	}
	return ranked, nil
}

func (s *Service) payChallengeReward(ctx context.Context, entry domain.LeaderboardEntry, challengeID string, reward domain.ChallengeReward) error {
	ledger, err := s.loadOrCreateLedger(ctx, entry.UserID)
	if err != nil {
		return err
	}

	var events []domain.Event
	ledger, levelEvents, err := ledger.AwardXP(reward.XP)
	if err != nil {
		return err
	}
	events = append(events, levelEvents...)
	for _, badgeID := range reward.Badges {
		ledger = ledger.AddBadge(badgeID)
	}
	if entry.Rank == 1 {
		ledger = ledger.UpdateStats(domain.StatsPatch{ChallengesWonDelta: 1})
	}

	ledger, _, levelEvents, err = s.evaluateAchievements(ledger, entry.Score)
	if err != nil {
		return err
	}
	events = append(events, levelEvents...)

	if err := s.ledgers.Save(ctx, ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	s.mirrorRank(ctx, ledger)
	s.publish(ctx, events)

	s.logger.Info("challenge reward paid",
		"challenge_id", challengeID,
		"user_id", entry.UserID,
		"rank", entry.Rank,
		"xp", reward.XP)
	return nil
}

// WorldSummary is a read projection of one world for one user
type WorldSummary struct {
	World      domain.World
	Unlocked   bool
	Completed  bool
	Progress   int
	QuestsDone int
}

// WorldSummaries derives every world's lock and completion state for a user
func (s *Service) WorldSummaries(ctx context.Context, userID string) ([]WorldSummary, error) {
	ledger, err := s.loadOrCreateLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	worlds := s.registry.Worlds()
	summaries := make([]WorldSummary, len(worlds))
	for i, world := range worlds {
		var prev *domain.World
		if i > 0 {
			prev = &worlds[i-1]
		}
		done := 0
		for _, questID := range world.QuestIDs {
			if ledger.HasCompletedQuest(questID) {
				done++
			}
		}
		summaries[i] = WorldSummary{
			World:      world,
			Unlocked:   domain.WorldUnlocked(world, prev, ledger),
			Completed:  domain.WorldCompleted(world, ledger),
			Progress:   domain.WorldProgress(world, ledger),
			QuestsDone: done,
		}
	}
	return summaries, nil
}

// QuestSummary is a read projection of one quest for one user
type QuestSummary struct {
	Quest     domain.Quest
	Status    domain.QuestStatus
	Attempts  int
	BestScore int
	Progress  int
}

// QuestSummaries derives the per-quest status for every quest in a world
func (s *Service) QuestSummaries(ctx context.Context, userID string, worldID int) ([]QuestSummary, error) {
	quests, err := s.registry.QuestsForWorld(worldID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadOrCreateLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	byQuest := make(map[string]domain.QuestProgress, len(records))
	for _, record := range records {
		byQuest[record.QuestID] = record
	}

	summaries := make([]QuestSummary, len(quests))
	for i := range quests {
		quest := quests[i]
		summary := QuestSummary{Quest: quest}
		var record *domain.QuestProgress
		if r, ok := byQuest[quest.ID]; ok {
			record = &r
			summary.Attempts = r.Attempts
			summary.BestScore = r.BestScore
			summary.Progress = r.Progress
		}
		summary.Status = domain.DeriveQuestStatus(&quest, ledger, record)
		summaries[i] = summary
	}
	return summaries, nil
}

// QuestDetail is the full per-user view of one quest
type QuestDetail struct {
	Quest             domain.Quest
	Status            domain.QuestStatus
	Objectives        []domain.ObjectiveState
	Attempts          int
	AttemptsRemaining int
	BestScore         int
	Progress          int
}

// QuestDetail returns one quest with the user's recorded progress
func (s *Service) QuestDetail(ctx context.Context, userID, questID string) (*QuestDetail, error) {
	quest, err := s.registry.Quest(questID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadOrCreateLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	detail := &QuestDetail{Quest: quest}
	record, err := s.progress.Get(ctx, userID, questID)
	switch {
	case errors.Is(err, domain.ErrProgressNotFound):
		detail.Status = domain.DeriveQuestStatus(&quest, ledger, nil)
		detail.AttemptsRemaining = quest.EffectiveMaxAttempts()
	case err != nil:
		return nil, fmt.Errorf("get progress: %w", err)
	default:
		detail.Status = domain.DeriveQuestStatus(&quest, ledger, &record)
		detail.Objectives = record.Objectives
		detail.Attempts = record.Attempts
		detail.BestScore = record.BestScore
		detail.Progress = record.Progress
		if remaining := quest.EffectiveMaxAttempts() - record.Attempts; remaining > 0 {
			detail.AttemptsRemaining = remaining
		}
	}
	return detail, nil
}

// ChallengeSummary is a read projection of one active challenge for one user
type ChallengeSummary struct {
	Challenge   domain.Challenge
	Submissions int
	BestScore   int
}

// ChallengeSummaries lists the currently active challenges with the
// user's participation so far
func (s *Service) ChallengeSummaries(ctx context.Context, userID string) ([]ChallengeSummary, error) {
	subs, err := s.challenges.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	counts := make(map[string]int)
	best := make(map[string]int)
	for _, sub := range subs {
		counts[sub.ChallengeID]++
		if sub.Score > best[sub.ChallengeID] {
			best[sub.ChallengeID] = sub.Score
		}
	}

	active := s.registry.ActiveChallenges(s.now())
	summaries := make([]ChallengeSummary, len(active))
	for i, challenge := range active {
		summaries[i] = ChallengeSummary{
			Challenge:   challenge,
			Submissions: counts[challenge.ID],
			BestScore:   best[challenge.ID],
		}
	}
	return summaries, nil
}

// AchievementSummary pairs a catalog achievement with its unlock state
type AchievementSummary struct {
	Achievement domain.Achievement
	Unlocked    bool
}

// AchievementSummaries lists the achievement catalog with the user's
// unlock state
func (s *Service) AchievementSummaries(ctx context.Context, userID string) ([]AchievementSummary, error) {
	ledger, err := s.loadOrCreateLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	achievements := s.registry.Achievements()
	summaries := make([]AchievementSummary, len(achievements))
	for i, achievement := range achievements {
		summaries[i] = AchievementSummary{
			Achievement: achievement,
			Unlocked:    ledger.HasBadge(achievement.ID),
		}
	}
	return summaries, nil
}

// GetLedger returns a user's ledger. Users who have never submitted get
// a fresh level-1 ledger; nothing is persisted until they act.
func (s *Service) GetLedger(ctx context.Context, userID string) (domain.Ledger, error) {
	return s.loadOrCreateLedger(ctx, userID)
}

func (s *Service) loadOrCreateLedger(ctx context.Context, userID string) (domain.Ledger, error) {
	ledger, err := s.ledgers.Get(ctx, userID)
	if errors.Is(err, domain.ErrLedgerNotFound) {
		return domain.NewLedger(userID), nil
	}
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("get ledger: %w", err)
	}
	return ledger, nil
}

func (s *Service) loadOrCreateProgress(ctx context.Context, userID string, quest *domain.Quest) (domain.QuestProgress, error) {
	progress, err := s.progress.Get(ctx, userID, quest.ID)
	if errors.Is(err, domain.ErrProgressNotFound) {
		return *domain.NewQuestProgress(userID, quest), nil
	}
	if err != nil {
		return domain.QuestProgress{}, fmt.Errorf("get progress: %w", err)
	}
	return progress, nil
}

// advanceStreak rolls the consecutive-day streak forward based on the
// ledger's last activity. Same-day activity keeps the streak, next-day
// activity extends it, any gap resets it to 1.
func (s *Service) advanceStreak(ledger domain.Ledger) domain.Ledger {
	now := s.now()
	streak := ledger.Stats.Streak
	switch {
	case sameDay(ledger.UpdatedAt, now):
		if streak == 0 {
			streak = 1
		}
	case sameDay(ledger.UpdatedAt.AddDate(0, 0, 1), now):
		streak++
	default:
		streak = 1
	}
	longest := ledger.Stats.LongestStreak
	if streak > longest {
		longest = streak
	}
	if streak == ledger.Stats.Streak && longest == ledger.Stats.LongestStreak {
		return ledger
	}
	return ledger.UpdateStats(domain.StatsPatch{Streak: &streak, LongestStreak: &longest})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// refreshStats recomputes accuracy and average score from the user's
// progress records. The read happens after the current record is saved
// so the latest attempt is included.
func (s *Service) refreshStats(ctx context.Context, ledger domain.Ledger, completedQuest bool) domain.Ledger {
	patch := domain.StatsPatch{}
	if completedQuest {
		patch.QuestsCompletedDelta = 1
	}

	records, err := s.progress.ListByUser(ctx, ledger.UserID)
	if err != nil {
		s.logger.Warn("refresh stats failed", "user_id", ledger.UserID, "error", err)
		return ledger.UpdateStats(patch)
	}

	attempts, completed, scored, scoreSum := 0, 0, 0, 0
	for _, record := range records {
		attempts += record.Attempts
		if record.Status == domain.QuestStatusCompleted {
			completed++
		}
		if record.Attempts > 0 {
			scored++
			scoreSum += record.BestScore
		}
	}
	if attempts > 0 {
		accuracy := float64(completed) / float64(attempts)
		patch.AccuracyRate = &accuracy
	}
	if scored > 0 {
		average := float64(scoreSum) / float64(scored)
		patch.AverageScore = &average
	}
	return ledger.UpdateStats(patch)
}

// applyWorldRewards grants the world completion payout when the quest
// just completed was the world's last. The world badge gates the payout,
// so it happens at most once per user.
func (s *Service) applyWorldRewards(quest *domain.Quest, ledger domain.Ledger) (domain.Ledger, []domain.Event, error) {
	world, err := s.registry.World(quest.WorldID)
	if err != nil {
		return ledger, nil, err
	}
	if !domain.WorldCompleted(world, ledger) {
		return ledger, nil, nil
	}
	if world.Rewards.Badge != "" && ledger.HasBadge(world.Rewards.Badge) {
		return ledger, nil, nil
	}

	ledger, events, err := ledger.AwardXP(world.Rewards.XP)
	if err != nil {
		return ledger, nil, err
	}
	if world.Rewards.Badge != "" {
		ledger = ledger.AddBadge(world.Rewards.Badge)
	}

	if next := s.nextWorld(world.ID); next != nil && next.ID > ledger.CurrentWorld {
		ledger.CurrentWorld = next.ID
	}

	s.logger.Info("world completed",
		"user_id", ledger.UserID,
		"world_id", world.ID,
		"xp", world.Rewards.XP)
	return ledger, events, nil
}

func (s *Service) nextWorld(worldID int) *domain.World {
	worlds := s.registry.Worlds()
	for i, world := range worlds {
		if world.ID == worldID && i+1 < len(worlds) {
			next := worlds[i+1]
			return &next
		}
	}
	return nil
}

// evaluateAchievements scans the catalog against the mutated ledger and
// grants every newly satisfied achievement. XP rewards can push the
// ledger over further thresholds, so the scan repeats until it finds
// nothing new.
func (s *Service) evaluateAchievements(ledger domain.Ledger, lastScore int) (domain.Ledger, []domain.Achievement, []domain.Event, error) {
	achievements := s.registry.Achievements()
	worlds := s.registry.Worlds()

	var unlocked []domain.Achievement
	var events []domain.Event
	for {
		snap := domain.ProgressSnapshot{Ledger: ledger, Worlds: worlds, LastScore: lastScore}
		newly := domain.NewlyUnlocked(achievements, snap)
		if len(newly) == 0 {
			return ledger, unlocked, events, nil
		}
		for _, achievement := range newly {
			ledger = ledger.AddBadge(achievement.ID)
			events = append(events, domain.NewAchievementUnlocked(ledger.UserID, achievement.ID, string(achievement.Rarity)))
			unlocked = append(unlocked, achievement)

			var levelEvents []domain.Event
			var err error
			ledger, levelEvents, err = ledger.AwardXP(achievement.XPReward)
			if err != nil {
				return ledger, nil, nil, err
			}
			events = append(events, levelEvents...)
		}
	}
}

// challengeScore aggregates a score vector with the challenge's weights
func challengeScore(challenge *domain.Challenge, vector domain.ScoreVector) (int, error) {
	var weighted float64
	for _, criterion := range challenge.Criteria {
		score, ok := vector[criterion.Name]
		if !ok {
			return 0, fmt.Errorf("%w: missing criterion %q", domain.ErrInvalidScoreVector, criterion.Name)
		}
		if score < 0 || score > 100 {
			return 0, fmt.Errorf("%w: criterion %q score %g outside [0,100]", domain.ErrInvalidScoreVector, criterion.Name, score)
		}
		weighted += score * criterion.Weight
	}
	return int(math.Round(weighted)), nil
}

func (s *Service) mirrorRank(ctx context.Context, ledger domain.Ledger) {
	if s.cache == nil {
		return
	}
	if err := s.cache.UpdateGlobalXP(ctx, ledger.UserID, ledger.TotalXP); err != nil {
		s.logger.Warn("rank cache update failed", "user_id", ledger.UserID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, events []domain.Event) {
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish event failed",
				"event_type", event.EventType(),
				"user_id", event.UserID(),
				"error", err)
		}
	}
}
