package domain

import (
	"errors"
	"testing"
)

func TestLevelForTotalXP(t *testing.T) {
	tests := []struct {
		name    string
		totalXP int
		want    int
	}{
		{"zero xp is level 1", 0, 1},
		{"just below first threshold", 99, 1},
		{"exactly at threshold", 100, 2},
		{"between thresholds", 251, 3},
		{"level 3 threshold", 250, 3},
		{"mid curve", 10000, 10},
		{"final threshold", 4378937, 25},
		{"beyond final threshold caps", 99999999, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LevelForTotalXP(tt.totalXP)
			if err != nil {
				t.Fatalf("LevelForTotalXP(%d) error = %v", tt.totalXP, err)
			}
			if got != tt.want {
				t.Errorf("LevelForTotalXP(%d) = %d, want %d", tt.totalXP, got, tt.want)
			}
		})
	}
}

func TestLevelForTotalXP_Negative(t *testing.T) {
	_, err := LevelForTotalXP(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestXPIntoLevel(t *testing.T) {
	tests := []struct {
		name    string
		totalXP int
		want    int
	}{
		{"zero", 0, 0},
		{"partway through level 1", 50, 50},
		{"exactly at level 2", 100, 0},
		{"partway through level 3", 300, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := XPIntoLevel(tt.totalXP)
			if err != nil {
				t.Fatalf("XPIntoLevel(%d) error = %v", tt.totalXP, err)
			}
			if got != tt.want {
				t.Errorf("XPIntoLevel(%d) = %d, want %d", tt.totalXP, got, tt.want)
			}
		})
	}
}

func TestXPRequiredForLevel(t *testing.T) {
	// Every level up to the cap must require positive XP, and thresholds
	// must strictly increase.
	for level := 1; level < MaxLevel; level++ {
		required, err := XPRequiredForLevel(level)
		if err != nil {
			t.Fatalf("XPRequiredForLevel(%d) error = %v", level, err)
		}
		if required <= 0 {
			t.Errorf("XPRequiredForLevel(%d) = %d, want > 0", level, required)
		}
	}

	t.Run("terminal value at cap", func(t *testing.T) {
		required, err := XPRequiredForLevel(MaxLevel)
		if err != nil {
			t.Fatalf("XPRequiredForLevel(%d) error = %v", MaxLevel, err)
		}
		if required <= 0 {
			t.Errorf("XPRequiredForLevel(%d) = %d, want > 0", MaxLevel, required)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		for _, level := range []int{0, -1, MaxLevel + 1} {
			if _, err := XPRequiredForLevel(level); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("XPRequiredForLevel(%d) error = %v, want ErrInvalidArgument", level, err)
			}
		}
	})
}

func TestLevelThresholds_StrictlyIncreasing(t *testing.T) {
	prev, _ := LevelThreshold(1)
	if prev != 0 {
		t.Fatalf("LevelThreshold(1) = %d, want 0", prev)
	}
	for level := 2; level <= MaxLevel; level++ {
		cur, err := LevelThreshold(level)
		if err != nil {
			t.Fatalf("LevelThreshold(%d) error = %v", level, err)
		}
		if cur <= prev {
			t.Errorf("LevelThreshold(%d) = %d, not greater than %d", level, cur, prev)
		}
		prev = cur
	}
}
