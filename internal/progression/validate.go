package progression

import (
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// ValidateRules rejects rule tables the engine could only resolve by
// evaluation-order luck. It is run at configuration time (plan import),
// not at workout completion.
//
// Checks per rule: exactly one scope (exercise or category), a well-formed
// band, a non-negative increase. Checks per scope: no two rules with
// overlapping inclusive rep bands.
func ValidateRules(rules []models.ProgressionRule) error {
	for _, r := range rules {
		if (r.ExerciseID == nil) == (r.Category == nil) {
			return fmt.Errorf("rule %d: exactly one of exercise or category scope is required", r.ID)
		}
		if r.Category != nil && *r.Category != models.RegionUpper && *r.Category != models.RegionLower {
			return fmt.Errorf("rule %d: unknown category %q", r.ID, *r.Category)
		}
		if r.MinReps < 0 {
			return fmt.Errorf("rule %d: min_reps %d is negative", r.ID, r.MinReps)
		}
		if r.MaxReps < r.MinReps {
			return fmt.Errorf("rule %d: band [%d,%d] is empty", r.ID, r.MinReps, r.MaxReps)
		}
		if r.IncreaseKg < 0 {
			return fmt.Errorf("rule %d: increase %.2f kg is negative", r.ID, r.IncreaseKg)
		}
	}

	for i := range rules {
		for j := i + 1; j < len(rules); j++ {
			a, b := rules[i], rules[j]
			if !sameScope(a, b) {
				continue
			}
			if a.MinReps <= b.MaxReps && b.MinReps <= a.MaxReps {
				return fmt.Errorf("rules %d and %d: overlapping rep bands [%d,%d] and [%d,%d] in the same scope",
					a.ID, b.ID, a.MinReps, a.MaxReps, b.MinReps, b.MaxReps)
			}
		}
	}
	return nil
}

func sameScope(a, b models.ProgressionRule) bool {
	if a.ExerciseID != nil && b.ExerciseID != nil {
		return *a.ExerciseID == *b.ExerciseID
	}
	if a.Category != nil && b.Category != nil {
		return *a.Category == *b.Category
	}
	return false
}
