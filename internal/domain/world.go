package domain

// World unlock and completion are pure derivations over the ledger and
// catalog. Nothing here is cached in the ledger, so quest completion and
// world status can never drift apart.

// WorldUnlocked reports whether a world is open to a ledger: the first
// world is always open, otherwise the ledger's level meets the unlock level
// or the previous world is fully completed. prev is nil for the first world.
func WorldUnlocked(world World, prev *World, ledger Ledger) bool {
	if prev == nil {
		return true
	}
	if ledger.Level >= world.UnlockLevel {
		return true
	}
	return WorldCompleted(*prev, ledger)
}

// WorldProgress returns the percentage of the world's quests the ledger has
// completed. A world with no quests reports zero.
func WorldProgress(world World, ledger Ledger) int {
	if len(world.QuestIDs) == 0 {
		return 0
	}
	completed := 0
	for _, questID := range world.QuestIDs {
		if ledger.HasCompletedQuest(questID) {
			completed++
		}
	}
	return 100 * completed / len(world.QuestIDs)
}

// WorldCompleted reports whether every quest in the world is completed
func WorldCompleted(world World, ledger Ledger) bool {
	return len(world.QuestIDs) > 0 && WorldProgress(world, ledger) == 100
}
