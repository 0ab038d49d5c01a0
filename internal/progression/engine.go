// Package progression computes training-max changes from completed workout
// performance using a prioritized rule table.
package progression

import (
	"sort"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Input carries everything a single evaluation needs. CurrentTMs maps
// exercise ID to the pre-workout baseline TM in kg; Exercises resolves
// body regions for category-scoped rules.
type Input struct {
	Sets       []models.WorkoutSet
	Rules      []models.ProgressionRule
	CurrentTMs map[int]float64
	Exercises  map[int]models.Exercise
}

// SkippedSet explains why a progression-flagged set produced no result.
// Skips are reported, never treated as errors.
type SkippedSet struct {
	SetID      uuid.UUID `json:"set_id"`
	ExerciseID int       `json:"exercise_id"`
	Reason     string    `json:"reason"`
}

// Report is the outcome of one evaluation.
type Report struct {
	Results []models.ProgressionResult `json:"results"`
	Skipped []SkippedSet               `json:"skipped"`
}

// Evaluate runs the rule table over the workout's progression-flagged sets.
//
// Each flagged set is evaluated independently against the same pre-workout
// baseline, so two flagged sets for one exercise can both emit a result
// without compounding on each other mid-transaction. Exercise-scoped rules
// take precedence over category rules; within a scope the first matching
// band in definition order wins. Reps below every band leave the TM
// unchanged: the engine never decreases a TM.
func Evaluate(in Input) Report {
	var report Report

	rules := make([]models.ProgressionRule, len(in.Rules))
	copy(rules, in.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Position < rules[j].Position })

	for _, set := range in.Sets {
		if !set.IsProgression {
			continue
		}
		if set.Pending() {
			report.Skipped = append(report.Skipped, SkippedSet{
				SetID: set.ID, ExerciseID: set.ExerciseID, Reason: "no data",
			})
			continue
		}

		baseline, ok := in.CurrentTMs[set.ExerciseID]
		if !ok {
			report.Skipped = append(report.Skipped, SkippedSet{
				SetID: set.ID, ExerciseID: set.ExerciseID, Reason: "no training max",
			})
			continue
		}

		rule := matchRule(rules, set, in.Exercises)
		if rule == nil || rule.IncreaseKg == 0 {
			continue
		}

		name := set.ExerciseName
		if ex, ok := in.Exercises[set.ExerciseID]; ok {
			name = ex.Name
		}
		report.Results = append(report.Results, models.ProgressionResult{
			ExerciseID:   set.ExerciseID,
			ExerciseName: name,
			PreviousTMKg: baseline,
			NewTMKg:      baseline + rule.IncreaseKg,
			IncreaseKg:   rule.IncreaseKg,
		})
	}

	return report
}

// matchRule selects the applicable rule for a recorded set. Exercise-scoped
// rules are searched first; only when none of them contain the rep count
// does the exercise's body-region category rule apply.
func matchRule(rules []models.ProgressionRule, set models.WorkoutSet, exercises map[int]models.Exercise) *models.ProgressionRule {
	reps := *set.ActualReps

	for i := range rules {
		r := &rules[i]
		if r.ExerciseID != nil && *r.ExerciseID == set.ExerciseID && bandContains(r, reps) {
			return r
		}
	}

	ex, ok := exercises[set.ExerciseID]
	if !ok {
		return nil
	}
	for i := range rules {
		r := &rules[i]
		if r.Category != nil && *r.Category == ex.Region && bandContains(r, reps) {
			return r
		}
	}
	return nil
}

func bandContains(r *models.ProgressionRule, reps int) bool {
	return reps >= r.MinReps && reps <= r.MaxReps
}
