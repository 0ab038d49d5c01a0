package models

// ExerciseCategory distinguishes multi-joint barbell lifts from accessories.
type ExerciseCategory string

const (
	CategoryCompound  ExerciseCategory = "compound"
	CategoryIsolation ExerciseCategory = "isolation"
)

// BodyRegion is the coarse split used by category-scoped progression rules.
type BodyRegion string

const (
	RegionUpper BodyRegion = "upper"
	RegionLower BodyRegion = "lower"
)

// Exercise is an immutable catalog entry. Everything else references it by ID.
type Exercise struct {
	ID          int              `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Category    ExerciseCategory `json:"category"`
	Region      BodyRegion       `json:"region"`
	MuscleGroup string           `json:"muscle_group"`
}

// PlanDay is one day of the weekly plan with its ordered exercises.
type PlanDay struct {
	DayNumber int               `json:"day_number"`
	Name      string            `json:"name"`
	Exercises []PlanDayExercise `json:"exercises"`
}

// PlanDayExercise binds a performed exercise to the exercise whose training
// max drives its weight prescription. The two can differ: close-grip bench
// is loaded off the bench press TM.
type PlanDayExercise struct {
	ID           int       `json:"id"`
	DayNumber    int       `json:"day_number"`
	ExerciseID   int       `json:"exercise_id"`
	TMExerciseID int       `json:"tm_exercise_id"`
	Tier         int       `json:"tier"`
	Sets         []PlanSet `json:"sets"`
}

// PlanSet is a set template: percentage of the driving TM plus rep scheme.
type PlanSet struct {
	ID            int     `json:"id"`
	SetOrder      int     `json:"set_order"`
	Percentage    float64 `json:"percentage"`
	TargetReps    int     `json:"target_reps"`
	IsAmrap       bool    `json:"is_amrap"`
	IsProgression bool    `json:"is_progression"`
}
