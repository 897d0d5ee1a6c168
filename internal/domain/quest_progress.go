package domain

import "time"

// QuestStatus is the lifecycle state of a quest for one user.
// locked -> available -> in_progress -> completed | failed; failed may be
// retried back through available while attempts remain, completed is
// permanently terminal.
type QuestStatus string

const (
	QuestStatusLocked     QuestStatus = "locked"
	QuestStatusAvailable  QuestStatus = "available"
	QuestStatusInProgress QuestStatus = "in_progress"
	QuestStatusCompleted  QuestStatus = "completed"
	QuestStatusFailed     QuestStatus = "failed"
)

// ObjectiveState tracks per-user advancement toward a catalog objective
type ObjectiveState struct {
	ObjectiveID string `json:"objective_id"`
	Current     int    `json:"current"`
	Completed   bool   `json:"completed"`
}

// QuestProgress is a user's historical record for one quest. Created lazily
// on first interaction and never destroyed.
type QuestProgress struct {
	UserID      string
	QuestID     string
	Status      QuestStatus
	Progress    int // 0-100
	Attempts    int
	BestScore   int
	Objectives  []ObjectiveState
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewQuestProgress creates progress for a quest's first interaction
func NewQuestProgress(userID string, quest *Quest) *QuestProgress {
	objectives := make([]ObjectiveState, len(quest.Objectives))
	for i, obj := range quest.Objectives {
		objectives[i] = ObjectiveState{ObjectiveID: obj.ID}
	}
	return &QuestProgress{
		UserID:     userID,
		QuestID:    quest.ID,
		Status:     QuestStatusAvailable,
		Objectives: objectives,
	}
}

// QuestUnlocked reports whether a quest is available to a ledger: the
// ledger's level meets the unlock level and every prerequisite quest is
// completed. Evaluated on demand rather than stored, so unlock state can
// never go stale.
func QuestUnlocked(quest *Quest, ledger Ledger) bool {
	if ledger.Level < quest.UnlockLevel {
		return false
	}
	for _, prereq := range quest.Prerequisites {
		if !ledger.HasCompletedQuest(prereq) {
			return false
		}
	}
	return true
}

// DeriveQuestStatus computes the query-time status for a quest. A stored
// terminal or in-flight status wins; otherwise lock state is derived from
// the ledger.
func DeriveQuestStatus(quest *Quest, ledger Ledger, progress *QuestProgress) QuestStatus {
	if progress != nil {
		switch progress.Status {
		case QuestStatusCompleted, QuestStatusFailed, QuestStatusInProgress:
			return progress.Status
		}
	}
	if QuestUnlocked(quest, ledger) {
		return QuestStatusAvailable
	}
	return QuestStatusLocked
}

// BeginAttempt transitions the quest into in_progress for a new submission.
// Completed quests accept further submissions in review mode without
// consuming attempts or changing state. Otherwise the attempt counter is
// incremented and checked against the quest's limit.
func (p *QuestProgress) BeginAttempt(maxAttempts int) error {
	if p.Status == QuestStatusCompleted {
		return nil
	}
	if p.Attempts >= maxAttempts {
		return ErrAttemptsExceeded
	}
	p.Attempts++
	p.Status = QuestStatusInProgress
	if p.StartedAt == nil {
		now := time.Now()
		p.StartedAt = &now
	}
	return nil
}

// ApplyVerdict folds a scored submission into the progress record. On a
// pass the matching objectives advance, the quest completes and the best
// score updates. On a fail the quest drops back to available while attempts
// remain, or to failed once exhausted; best score still updates.
// A verdict applied to an already completed quest only updates best score.
func (p *QuestProgress) ApplyVerdict(quest *Quest, verdict Verdict) {
	if verdict.OverallScore > p.BestScore {
		p.BestScore = verdict.OverallScore
	}

	if p.Status == QuestStatusCompleted {
		return
	}

	p.advanceObjectives(quest, verdict)

	if verdict.Passed {
		p.Status = QuestStatusCompleted
		p.Progress = 100
		now := time.Now()
		p.CompletedAt = &now
		return
	}

	p.Progress = p.completionPercent(verdict)
	if p.Attempts >= quest.EffectiveMaxAttempts() {
		p.Status = QuestStatusFailed
	} else {
		p.Status = QuestStatusAvailable
	}
}

// advanceObjectives moves each objective's counter by its matching
// criterion score, clamped to the target. An objective without a bound
// criterion advances by the overall score.
func (p *QuestProgress) advanceObjectives(quest *Quest, verdict Verdict) {
	for i := range p.Objectives {
		obj := questObjective(quest, p.Objectives[i].ObjectiveID)
		if obj == nil {
			continue
		}

		score := verdict.OverallScore
		if obj.Criterion != "" {
			if s, ok := verdict.CriterionScores[obj.Criterion]; ok {
				score = int(s)
			}
		}

		current := p.Objectives[i].Current + score
		if current > obj.Target {
			current = obj.Target
		}
		p.Objectives[i].Current = current
		p.Objectives[i].Completed = current >= obj.Target
	}
}

// completionPercent derives the 0-100 progress figure from objective
// completion, falling back to the overall score when the quest defines no
// objectives.
func (p *QuestProgress) completionPercent(verdict Verdict) int {
	if len(p.Objectives) == 0 {
		if verdict.OverallScore > 100 {
			return 100
		}
		return verdict.OverallScore
	}
	completed := 0
	for _, obj := range p.Objectives {
		if obj.Completed {
			completed++
		}
	}
	return 100 * completed / len(p.Objectives)
}

func questObjective(quest *Quest, objectiveID string) *Objective {
	for i := range quest.Objectives {
		if quest.Objectives[i].ID == objectiveID {
			return &quest.Objectives[i]
		}
	}
	return nil
}
