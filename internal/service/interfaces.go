package service

import (
	"context"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/worker"
)

// ScoringService computes section and daily scores from the event log
type ScoringService interface {
	// Snapshot scores a single date.
	Snapshot(ctx context.Context, userID, date string) (*models.ScoreSnapshot, error)
	// SnapshotsInRange scores every date in [startDate, endDate] that has a
	// daily record. Dates without records are absent from the result.
	SnapshotsInRange(ctx context.Context, userID, startDate, endDate string) (map[string]models.ScoreSnapshot, error)
}

// StreakService computes current/best streaks over the daily-score series
type StreakService interface {
	// Compute derives the streak state, merging the best streak with any
	// cached value so it never decreases.
	Compute(ctx context.Context, userID string) (*models.StreakState, error)
	// RecomputeAndStore recomputes and writes the cache back. Used by the
	// background queue after completion events.
	RecomputeAndStore(ctx context.Context, userID string) error
}

// SummaryService produces the weekly summary response
type SummaryService interface {
	GetWeeklySummary(ctx context.Context, userID string) (*models.WeeklySummary, error)
}

// InsightsService produces the monthly insights response
type InsightsService interface {
	GetMonthlyInsights(ctx context.Context, userID string) (*models.MonthlyInsights, error)
}

// RoutineService applies completion, session, and skip events to the log
type RoutineService interface {
	CompleteStep(ctx context.Context, userID, stepID, date string) (*models.DailyRecord, error)
	UncompleteStep(ctx context.Context, userID, stepID, date string) (*models.DailyRecord, error)
	CompleteSession(ctx context.Context, userID string, section models.Section, req *models.CompleteSessionRequest) (*models.DailyRecord, error)
	// RecordSkip appends a skip event. It reports false without error when
	// the step was already completed that day (idempotence guard).
	RecordSkip(ctx context.Context, userID string, req *models.RecordSkipRequest) (bool, error)
}

// TaskQueue is the submit side of the background worker queue
type TaskQueue interface {
	Submit(task worker.Task) bool
}
