package repository

import (
	"context"

	"github.com/ritualhq/ritual/backend/internal/models"
)

// ProfileRepository defines the interface for routine profile data access.
// Profiles are owned by the account/routine-builder collaborator and are
// read-only here.
type ProfileRepository interface {
	// GetByUserID returns nil (not an error) when the user has no profile.
	GetByUserID(ctx context.Context, userID string) (*models.RoutineProfile, error)
}

// DailyRecordRepository defines the interface for daily record data access
type DailyRecordRepository interface {
	// GetByUserIDAndDate returns nil (not an error) when no record exists.
	GetByUserIDAndDate(ctx context.Context, userID, date string) (*models.DailyRecord, error)
	GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.DailyRecord, error)
	Upsert(ctx context.Context, record *models.DailyRecord) (*models.DailyRecord, error)
}

// SkipEventRepository defines the interface for the append-only skip log
type SkipEventRepository interface {
	Append(ctx context.Context, event *models.SkipEvent) (*models.SkipEvent, error)
	GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.SkipEvent, error)
}

// OutcomeRatingRepository defines the interface for weekly outcome ratings,
// written by the periodic check-in collaborator and read-only here.
type OutcomeRatingRepository interface {
	GetByUserID(ctx context.Context, userID string) ([]models.OutcomeRating, error)
}

// SessionStartRepository defines the interface for session start timestamps
type SessionStartRepository interface {
	Append(ctx context.Context, start *models.SessionStart) (*models.SessionStart, error)
	GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.SessionStart, error)
}

// StreakStateRepository defines the interface for the cached streak value
type StreakStateRepository interface {
	// GetByUserID returns nil (not an error) when nothing is cached yet.
	GetByUserID(ctx context.Context, userID string) (*models.StreakState, error)
	Upsert(ctx context.Context, state *models.StreakState) (*models.StreakState, error)
}
