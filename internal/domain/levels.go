package domain

// MaxLevel is the level cap. The curve is a fixed table; there is no
// progression past it, only accumulating TotalXP.
const MaxLevel = 25

// xpThresholds maps level -> cumulative XP required to reach it.
// Index 0 is unused so levels index directly. Strictly increasing.
var xpThresholds = [MaxLevel + 1]int{
	0,       // unused
	0,       // level 1
	100,     // level 2
	250,     // level 3
	500,     // level 4
	1000,    // level 5
	1750,    // level 6
	2750,    // level 7
	4250,    // level 8
	6500,    // level 9
	10000,   // level 10
	15000,   // level 11
	22500,   // level 12
	33750,   // level 13
	50625,   // level 14
	75937,   // level 15
	113906,  // level 16
	170859,  // level 17
	256289,  // level 18
	384433,  // level 19
	576650,  // level 20
	864975,  // level 21
	1297462, // level 22
	1946194, // level 23
	2919291, // level 24
	4378937, // level 25
}

// LevelForTotalXP returns the largest level whose threshold is at or below
// totalXP, capped at MaxLevel.
func LevelForTotalXP(totalXP int) (int, error) {
	if totalXP < 0 {
		return 0, ErrInvalidArgument
	}

	level := 1
	for l := 2; l <= MaxLevel; l++ {
		if totalXP < xpThresholds[l] {
			break
		}
		level = l
	}
	return level, nil
}

// XPIntoLevel returns the XP accumulated past the current level's threshold.
func XPIntoLevel(totalXP int) (int, error) {
	level, err := LevelForTotalXP(totalXP)
	if err != nil {
		return 0, err
	}
	return totalXP - xpThresholds[level], nil
}

// XPRequiredForLevel returns the XP span of the given level, i.e. how much
// must be earned within it to reach the next. At MaxLevel it returns the
// span of the final step as a terminal value.
func XPRequiredForLevel(level int) (int, error) {
	if level < 1 || level > MaxLevel {
		return 0, ErrInvalidArgument
	}
	if level == MaxLevel {
		return xpThresholds[MaxLevel] - xpThresholds[MaxLevel-1], nil
	}
	return xpThresholds[level+1] - xpThresholds[level], nil
}

// LevelThreshold returns the cumulative XP required to reach a level.
func LevelThreshold(level int) (int, error) {
	if level < 1 || level > MaxLevel {
		return 0, ErrInvalidArgument
	}
	return xpThresholds[level], nil
}
