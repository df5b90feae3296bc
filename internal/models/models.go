package models

import "time"

// Section identifies one of the three scored parts of a day.
type Section string

const (
	SectionMorning   Section = "morning"
	SectionEvening   Section = "evening"
	SectionExercises Section = "exercises"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// RoutineProfile holds the per-user routine state owned by the
// account/routine-builder collaborator. Read-only to the engine.
type RoutineProfile struct {
	UserID           string    `json:"user_id"`
	ActiveStepIDs    []string  `json:"active_step_ids"`
	RoutineStartDate *string   `json:"routine_start_date,omitempty"` // YYYY-MM-DD
	SignupDate       *string   `json:"signup_date,omitempty"`        // YYYY-MM-DD
	MorningTime      string    `json:"morning_time"`                 // HH:MM
	EveningTime      string    `json:"evening_time"`                 // HH:MM
	HardestDayTime   string    `json:"hardest_day_time"`             // HH:MM
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SessionFlags records which sessions the user actually ran on a date,
// independently of per-step completion.
type SessionFlags struct {
	Morning   bool `json:"morning"`
	Evening   bool `json:"evening"`
	Exercises bool `json:"exercises"`
}

// DailyRecord is one row per (user, calendar date). Created on the first
// step completion of the day, mutated by completion/uncompletion calls,
// never deleted by the engine.
type DailyRecord struct {
	ID               string       `json:"id"`
	UserID           string       `json:"user_id"`
	Date             string       `json:"date"` // YYYY-MM-DD
	DayOfWeek        int          `json:"day_of_week"`
	CompletedStepIDs []string     `json:"completed_step_ids"`
	Sessions         SessionFlags `json:"sessions"`
	AllCompleted     bool         `json:"all_completed"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// HasCompleted reports whether stepID is in the record's completed set.
func (r *DailyRecord) HasCompleted(stepID string) bool {
	for _, id := range r.CompletedStepIDs {
		if id == stepID {
			return true
		}
	}
	return false
}

// SessionRan reports whether the given section's session ran on this date.
func (r *DailyRecord) SessionRan(section Section) bool {
	switch section {
	case SectionMorning:
		return r.Sessions.Morning
	case SectionEvening:
		return r.Sessions.Evening
	case SectionExercises:
		return r.Sessions.Exercises
	}
	return false
}

// SkipKind discriminates the skip event union.
type SkipKind string

const (
	SkipKindStep        SkipKind = "step"
	SkipKindTimer       SkipKind = "timer"
	SkipKindExerciseEnd SkipKind = "exercise_early_end"
)

// SkipEvent is an append-only record of a step, timer, or exercise being
// bypassed. TimerDurationSeconds is set for timer skips only.
type SkipEvent struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Kind                 SkipKind  `json:"kind"`
	Date                 string    `json:"date"` // YYYY-MM-DD
	StepID               string    `json:"step_id"`
	Timestamp            time.Time `json:"timestamp"`
	TimerDurationSeconds int       `json:"timer_duration_seconds,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Rating is the user's subjective weekly outcome.
type Rating string

const (
	RatingWorse  Rating = "worse"
	RatingSame   Rating = "same"
	RatingBetter Rating = "better"
)

// OutcomeRating is a periodic self-reported check-in result. WeekNumber is
// relative to the user's signup date, not the calendar week.
type OutcomeRating struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	WeekNumber int       `json:"week_number"`
	PhotoDate  string    `json:"photo_date"` // YYYY-MM-DD
	Rating     Rating    `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

// SessionStart records when a session was actually started, used by the
// notification-timing analyzer.
type SessionStart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Section   Section   `json:"section"`
	Date      string    `json:"date"` // YYYY-MM-DD
	StartedAt time.Time `json:"started_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreSnapshot is the derived per-date score set. Never persisted.
type ScoreSnapshot struct {
	Date           string  `json:"date"`
	MorningScore   float64 `json:"morning_score"`
	EveningScore   float64 `json:"evening_score"`
	ExercisesScore float64 `json:"exercises_score"`
	DailyScore     float64 `json:"daily_score"`
}

// StreakState is the cached derived streak value. Recomputed after every
// completion event; the write-back is advisory.
type StreakState struct {
	UserID              string    `json:"user_id"`
	CurrentStreak       int       `json:"current_streak"`
	BestStreak          int       `json:"best_streak"`
	TotalQualifyingDays int       `json:"total_qualifying_days"`
	ComputedAt          time.Time `json:"computed_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CompleteStepRequest marks a step complete or not complete for a date.
type CompleteStepRequest struct {
	Date string `json:"date" binding:"required"`
}

// CompleteSessionRequest marks a session as run for a date. StartedAt feeds
// the notification-timing analyzer when present.
type CompleteSessionRequest struct {
	Date      string     `json:"date" binding:"required"`
	StartedAt *time.Time `json:"started_at"`
}

// RecordSkipRequest records one skip event.
type RecordSkipRequest struct {
	Kind                 SkipKind `json:"kind" binding:"required"`
	Date                 string   `json:"date" binding:"required"`
	StepID               string   `json:"step_id" binding:"required"`
	TimerDurationSeconds int      `json:"timer_duration_seconds"`
}
