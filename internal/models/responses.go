package models

// Trend is the week-over-week direction of the consistency score.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

// SectionBreakdown holds one section's weekly score and day count.
type SectionBreakdown struct {
	Score         float64 `json:"score"`
	DaysCompleted int     `json:"days_completed"`
}

// WeeklyBreakdown holds the per-section weekly breakdown.
type WeeklyBreakdown struct {
	Morning   SectionBreakdown `json:"morning"`
	Evening   SectionBreakdown `json:"evening"`
	Exercises SectionBreakdown `json:"exercises"`
}

// SkippedProduct is one skipped product resolved to its display name.
type SkippedProduct struct {
	StepID      string `json:"step_id"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

// WeeklySummary is the primary weekly response shape for the UI layer.
type WeeklySummary struct {
	WeekStart             string           `json:"week_start"`
	WeekEnd               string           `json:"week_end"`
	DaysRevealed          int              `json:"days_revealed"`
	OverallConsistency    float64          `json:"overall_consistency"`
	DaysCompleted         int              `json:"days_completed"`
	Breakdown             WeeklyBreakdown  `json:"breakdown"`
	BreakdownPreviousWeek WeeklyBreakdown  `json:"breakdown_previous_week"`
	CurrentStreak         int              `json:"current_streak"`
	BestStreak            int              `json:"best_streak"`
	Trend                 Trend            `json:"trend"`
	TimerSkips            int              `json:"timer_skips"`
	ProductSkips          int              `json:"product_skips"`
	ExerciseEarlyEnds     int              `json:"exercise_early_ends"`
	SkippedProducts       []SkippedProduct `json:"skipped_products"`
	MostSkippedStep       *SkippedProduct  `json:"most_skipped_step,omitempty"`
}

// SkipSummary holds range-filtered skip analytics.
type SkipSummary struct {
	TimerSkips        int              `json:"timer_skips"`
	ProductSkips      int              `json:"product_skips"`
	ExerciseEarlyEnds int              `json:"exercise_early_ends"`
	SkippedProducts   []SkippedProduct `json:"skipped_products"`
	MostSkippedStep   *SkippedProduct  `json:"most_skipped_step,omitempty"`
}

// TimeEffectiveness is the heuristic time-saved / effectiveness-lost model.
// Explicitly approximate; the constants behind it live in configuration.
type TimeEffectiveness struct {
	MinutesSaved             float64 `json:"minutes_saved"`
	EffectivenessLostPercent float64 `json:"effectiveness_lost_percent"`
	TimerComponentPercent    float64 `json:"timer_component_percent"`
	ProductComponentPercent  float64 `json:"product_component_percent"`
	ExerciseComponentPercent float64 `json:"exercise_component_percent"`
}

// DayPattern is the weekday score distribution over the trailing window.
type DayPattern struct {
	HardestDay      string             `json:"hardest_day"`
	BestDay         string             `json:"best_day"`
	AveragesByDay   map[string]float64 `json:"averages_by_day"` // weekday name -> 0-100
	HasEnoughData   bool               `json:"has_enough_data"`
	DaysWithScores  int                `json:"days_with_scores"`
}

// SessionTiming is the clock-time discrepancy for one session type.
type SessionTiming struct {
	Section            Section `json:"section"`
	ConfiguredTime     string  `json:"configured_time"`      // HH:MM
	AverageActualTime  string  `json:"average_actual_time"`  // HH:MM
	DiscrepancyMinutes int     `json:"discrepancy_minutes"`
	SampleCount        int     `json:"sample_count"`
}

// InsightMetric is the closed enum of metrics the correlation generator
// can name as a driver.
type InsightMetric string

const (
	MetricConsistencyScore InsightMetric = "consistency_score"
	MetricMorningDays      InsightMetric = "morning_days"
	MetricEveningDays      InsightMetric = "evening_days"
	MetricExerciseDays     InsightMetric = "exercise_days"
	MetricTimerSkips       InsightMetric = "timer_skips"
	MetricStepsSkipped     InsightMetric = "steps_skipped"
	MetricMostSkippedStep  InsightMetric = "most_skipped_step"
)

// CorrelationInsight is one templated behavioral insight. The sentence is
// split into prefix/data/suffix so the UI can redact the data fragment
// independently of the surrounding text.
type CorrelationInsight struct {
	Metric         InsightMetric `json:"metric"`
	SentencePrefix string        `json:"sentence_prefix"`
	DataFragment   string        `json:"data_fragment"`
	SentenceSuffix string        `json:"sentence_suffix"`
	Advice         string        `json:"advice"`
	WeekCount      int           `json:"week_count"`
	TotalWeeks     int           `json:"total_weeks"`
	GroupValue     string        `json:"group_value"`
	BaselineValue  string        `json:"baseline_value"`
	StepName       string        `json:"step_name,omitempty"`
}

// CorrelationInsights pairs the two insight slots with the first-class
// sparse-data message states.
type CorrelationInsights struct {
	WhatsWorking *CorrelationInsight `json:"whats_working"`
	WhatsHurting *CorrelationInsight `json:"whats_hurting"`
	Message      string              `json:"message,omitempty"`
}

// MonthlyInsights is the monthly response shape for the UI layer. HardestDay
// also feeds the notification collaborator's recurring reminder.
type MonthlyInsights struct {
	HardestDay          string              `json:"hardest_day"`
	BestDay             string              `json:"best_day"`
	DayPattern          *DayPattern         `json:"day_pattern,omitempty"`
	NotificationTiming  []SessionTiming     `json:"notification_timing"`
	TimeEffectiveness   *TimeEffectiveness  `json:"time_effectiveness,omitempty"`
	CorrelationInsights CorrelationInsights `json:"correlation_insights"`
	HasEnoughData       bool                `json:"has_enough_data"`
}

// WeekMetrics are the per-rated-week inputs to the correlation generator.
type WeekMetrics struct {
	WeekNumber           int     `json:"week_number"`
	Rating               Rating  `json:"rating"`
	ConsistencyScore     float64 `json:"consistency_score"`
	MorningDaysCompleted int     `json:"morning_days_completed"`
	EveningDaysCompleted int     `json:"evening_days_completed"`
	ExerciseDaysComplete int     `json:"exercise_days_completed"`
	TimerSkips           int     `json:"timer_skips"`
	StepsSkipped         int     `json:"steps_skipped"`
	MostSkippedStepID    string  `json:"most_skipped_step_id,omitempty"`
	MostSkippedCount     int     `json:"most_skipped_count,omitempty"`
}
