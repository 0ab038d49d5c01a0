// Package importer loads a training plan definition from YAML into the
// database: exercise catalog, plan days, progression rules, and starting
// training maxes.
package importer

import (
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/units"
	"gopkg.in/yaml.v3"
)

// PlanFile is the parsed shape of a plan YAML document. Exercises are
// referenced everywhere else by slug.
type PlanFile struct {
	User      UserDef       `yaml:"user"`
	Exercises []ExerciseDef `yaml:"exercises"`
	Days      []DayDef      `yaml:"days"`
	Rules     []RuleDef     `yaml:"rules"`
	Maxes     []MaxDef      `yaml:"training_maxes"`
}

type UserDef struct {
	Login       string `yaml:"login"`
	DisplayName string `yaml:"display_name"`
}

type ExerciseDef struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Region      string `yaml:"region"`
	MuscleGroup string `yaml:"muscle_group"`
}

type DayDef struct {
	Day       int              `yaml:"day"`
	Name      string           `yaml:"name"`
	Exercises []DayExerciseDef `yaml:"exercises"`
}

type DayExerciseDef struct {
	Exercise string `yaml:"exercise"`
	// TMExercise names the lift whose training max drives the weight;
	// empty means the exercise itself.
	TMExercise string   `yaml:"tm_exercise"`
	Tier       int      `yaml:"tier"`
	Sets       []SetDef `yaml:"sets"`
}

type SetDef struct {
	// Percentage is a fraction of the training max (0.65 = 65%).
	Percentage  float64 `yaml:"percentage"`
	Reps        int     `yaml:"reps"`
	Amrap       bool    `yaml:"amrap"`
	Progression bool    `yaml:"progression"`
}

type RuleDef struct {
	Exercise string  `yaml:"exercise"`
	Category string  `yaml:"category"`
	MinReps  int     `yaml:"min_reps"`
	MaxReps  int     `yaml:"max_reps"`
	Increase float64 `yaml:"increase_kg"`
}

type MaxDef struct {
	Exercise string  `yaml:"exercise"`
	Weight   float64 `yaml:"weight"`
	Unit     string  `yaml:"unit"`
}

// ParsePlan decodes and validates a plan document. A parsed plan is
// internally consistent: every slug reference resolves, every rule has
// exactly one scope, and no two rules in the same scope have overlapping
// rep bands.
func ParsePlan(data []byte) (*PlanFile, error) {
	var p PlanFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan YAML: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *PlanFile) validate() error {
	if p.User.Login == "" {
		return fmt.Errorf("user.login is required")
	}
	if len(p.Exercises) == 0 {
		return fmt.Errorf("plan defines no exercises")
	}

	slugs := make(map[string]bool, len(p.Exercises))
	for _, e := range p.Exercises {
		if e.Slug == "" || e.Name == "" {
			return fmt.Errorf("exercise %q: slug and name are required", e.Slug)
		}
		if slugs[e.Slug] {
			return fmt.Errorf("duplicate exercise slug %q", e.Slug)
		}
		slugs[e.Slug] = true
		switch models.ExerciseCategory(e.Category) {
		case models.CategoryCompound, models.CategoryIsolation:
		default:
			return fmt.Errorf("exercise %q: unknown category %q", e.Slug, e.Category)
		}
		switch models.BodyRegion(e.Region) {
		case models.RegionUpper, models.RegionLower:
		default:
			return fmt.Errorf("exercise %q: unknown region %q", e.Slug, e.Region)
		}
	}

	daysSeen := make(map[int]bool, len(p.Days))
	for _, d := range p.Days {
		if d.Day < 1 {
			return fmt.Errorf("day %d: day numbers start at 1", d.Day)
		}
		if daysSeen[d.Day] {
			return fmt.Errorf("duplicate day %d", d.Day)
		}
		daysSeen[d.Day] = true
		for _, de := range d.Exercises {
			if !slugs[de.Exercise] {
				return fmt.Errorf("day %d: unknown exercise %q", d.Day, de.Exercise)
			}
			if de.TMExercise != "" && !slugs[de.TMExercise] {
				return fmt.Errorf("day %d: unknown tm_exercise %q", d.Day, de.TMExercise)
			}
			if len(de.Sets) == 0 {
				return fmt.Errorf("day %d: exercise %q has no sets", d.Day, de.Exercise)
			}
			for i, s := range de.Sets {
				if s.Percentage <= 0 || s.Percentage > 1.5 {
					return fmt.Errorf("day %d: %q set %d: percentage %v out of range (0, 1.5]", d.Day, de.Exercise, i+1, s.Percentage)
				}
				if s.Reps < 1 {
					return fmt.Errorf("day %d: %q set %d: reps must be positive", d.Day, de.Exercise, i+1)
				}
				if s.Progression && !s.Amrap {
					return fmt.Errorf("day %d: %q set %d: only AMRAP sets can drive progression", d.Day, de.Exercise, i+1)
				}
			}
		}
	}

	rules, err := p.ruleModels(slugIndex(p.Exercises))
	if err != nil {
		return err
	}
	if err := progression.ValidateRules(rules); err != nil {
		return fmt.Errorf("progression rules: %w", err)
	}

	for _, m := range p.Maxes {
		if !slugs[m.Exercise] {
			return fmt.Errorf("training max for unknown exercise %q", m.Exercise)
		}
		if m.Weight <= 0 {
			return fmt.Errorf("training max for %q: weight must be positive", m.Exercise)
		}
		if _, err := parseUnit(m.Unit); err != nil {
			return fmt.Errorf("training max for %q: %w", m.Exercise, err)
		}
	}
	return nil
}

// slugIndex assigns a stable ordinal to each slug so rules can be checked
// for overlap before database IDs exist.
func slugIndex(exercises []ExerciseDef) map[string]int {
	idx := make(map[string]int, len(exercises))
	for i, e := range exercises {
		idx[e.Slug] = i + 1
	}
	return idx
}

// ruleModels converts rule definitions to model rules using the given
// slug-to-ID mapping. Position is the definition order.
func (p *PlanFile) ruleModels(ids map[string]int) ([]models.ProgressionRule, error) {
	rules := make([]models.ProgressionRule, 0, len(p.Rules))
	for i, r := range p.Rules {
		rule := models.ProgressionRule{
			MinReps:    r.MinReps,
			MaxReps:    r.MaxReps,
			IncreaseKg: r.Increase,
			Position:   i + 1,
		}
		switch {
		case r.Exercise != "" && r.Category != "":
			return nil, fmt.Errorf("rule %d: exercise and category are mutually exclusive", i+1)
		case r.Exercise != "":
			id, ok := ids[r.Exercise]
			if !ok {
				return nil, fmt.Errorf("rule %d: unknown exercise %q", i+1, r.Exercise)
			}
			rule.ExerciseID = &id
		case r.Category != "":
			region := models.BodyRegion(r.Category)
			rule.Category = &region
		default:
			return nil, fmt.Errorf("rule %d: either exercise or category is required", i+1)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// WeightKg returns the training max in canonical kilograms.
func (m MaxDef) WeightKg() (float64, error) {
	unit, err := parseUnit(m.Unit)
	if err != nil {
		return 0, err
	}
	return units.ToCanonicalKg(m.Weight, unit), nil
}

func parseUnit(s string) (units.Unit, error) {
	switch s {
	case "", "kg":
		return units.Kilograms, nil
	case "lb", "lbs":
		return units.Pounds, nil
	default:
		return "", fmt.Errorf("unknown unit %q", s)
	}
}
