package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/plan"
	"github.com/ritualhq/ritual/backend/internal/repository"
	"github.com/ritualhq/ritual/backend/internal/worker"
)

// ErrUnknownStep marks a step ID that is not in the catalog.
var ErrUnknownStep = errors.New("unknown step")

// ErrInvalidInput marks requests the handler layer should report as 400.
var ErrInvalidInput = errors.New("invalid input")

type routineService struct {
	profileRepo repository.ProfileRepository
	recordRepo  repository.DailyRecordRepository
	skipRepo    repository.SkipEventRepository
	sessionRepo repository.SessionStartRepository
	streaks     StreakService
	catalog     *plan.Catalog
	queue       TaskQueue
}

// NewRoutineService creates a new routine event service
func NewRoutineService(
	profileRepo repository.ProfileRepository,
	recordRepo repository.DailyRecordRepository,
	skipRepo repository.SkipEventRepository,
	sessionRepo repository.SessionStartRepository,
	streaks StreakService,
	catalog *plan.Catalog,
	queue TaskQueue,
) RoutineService {
	return &routineService{
		profileRepo: profileRepo,
		recordRepo:  recordRepo,
		skipRepo:    skipRepo,
		sessionRepo: sessionRepo,
		streaks:     streaks,
		catalog:     catalog,
		queue:       queue,
	}
}

// recordFor fetches the day's record, creating a fresh in-memory one on
// first touch. The record is only persisted by the caller's Upsert.
func (s *routineService) recordFor(ctx context.Context, userID, date string) (*models.DailyRecord, error) {
	record, err := s.recordRepo.GetByUserIDAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}
	if record != nil {
		return record, nil
	}

	parsed, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, date)
	}

	return &models.DailyRecord{
		ID:               uuid.New().String(),
		UserID:           userID,
		Date:             date,
		DayOfWeek:        int(parsed.Weekday()),
		CompletedStepIDs: []string{},
		CreatedAt:        time.Now(),
	}, nil
}

// refreshAllCompleted recomputes the all-steps-done flag against the
// user's active step set. A user with no profile has no active set, so
// the flag stays false.
func (s *routineService) refreshAllCompleted(ctx context.Context, userID string, record *models.DailyRecord) error {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get routine profile: %w", err)
	}
	if profile == nil || len(profile.ActiveStepIDs) == 0 {
		record.AllCompleted = false
		return nil
	}

	for _, step := range s.catalog.Active(profile.ActiveStepIDs) {
		if !record.HasCompleted(step.ID) {
			record.AllCompleted = false
			return nil
		}
	}
	record.AllCompleted = true
	return nil
}

func (s *routineService) persist(ctx context.Context, userID string, record *models.DailyRecord) (*models.DailyRecord, error) {
	record.UpdatedAt = time.Now()
	saved, err := s.recordRepo.Upsert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to save daily record: %w", err)
	}

	// Streak cache refresh rides the background queue; the primary write
	// above already succeeded, so a full queue only delays the cache.
	s.queue.Submit(worker.Task{
		Name: "streaks.recompute",
		Run: func(ctx context.Context) error {
			return s.streaks.RecomputeAndStore(ctx, userID)
		},
	})

	return saved, nil
}

func (s *routineService) CompleteStep(ctx context.Context, userID, stepID, date string) (*models.DailyRecord, error) {
	if _, ok := s.catalog.Lookup(stepID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, stepID)
	}

	record, err := s.recordFor(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	if !record.HasCompleted(stepID) {
		record.CompletedStepIDs = append(record.CompletedStepIDs, stepID)
	}
	if err := s.refreshAllCompleted(ctx, userID, record); err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, record)
}

func (s *routineService) UncompleteStep(ctx context.Context, userID, stepID, date string) (*models.DailyRecord, error) {
	record, err := s.recordFor(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	kept := record.CompletedStepIDs[:0]
	for _, id := range record.CompletedStepIDs {
		if id != stepID {
			kept = append(kept, id)
		}
	}
	record.CompletedStepIDs = kept

	if err := s.refreshAllCompleted(ctx, userID, record); err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, record)
}

func (s *routineService) CompleteSession(ctx context.Context, userID string, section models.Section, req *models.CompleteSessionRequest) (*models.DailyRecord, error) {
	record, err := s.recordFor(ctx, userID, req.Date)
	if err != nil {
		return nil, err
	}

	switch section {
	case models.SectionMorning:
		record.Sessions.Morning = true
	case models.SectionEvening:
		record.Sessions.Evening = true
	case models.SectionExercises:
		record.Sessions.Exercises = true
	default:
		return nil, fmt.Errorf("%w: unknown section %q", ErrInvalidInput, section)
	}

	if req.StartedAt != nil {
		start := &models.SessionStart{
			ID:        uuid.New().String(),
			UserID:    userID,
			Section:   section,
			Date:      req.Date,
			StartedAt: *req.StartedAt,
			CreatedAt: time.Now(),
		}
		if _, err := s.sessionRepo.Append(ctx, start); err != nil {
			return nil, fmt.Errorf("failed to record session start: %w", err)
		}
	}

	if err := s.refreshAllCompleted(ctx, userID, record); err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, record)
}

func (s *routineService) RecordSkip(ctx context.Context, userID string, req *models.RecordSkipRequest) (bool, error) {
	if _, err := parseDate(req.Date); err != nil {
		return false, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, req.Date)
	}

	switch req.Kind {
	case models.SkipKindStep, models.SkipKindTimer, models.SkipKindExerciseEnd:
	default:
		return false, fmt.Errorf("%w: unknown skip kind %q", ErrInvalidInput, req.Kind)
	}

	// A step skip or early exercise end for a step already completed that
	// day is a client race, not an event. Dropped silently so retries stay
	// idempotent. Timer skips are exempt: the waiting period is skipped
	// before the step completes.
	if req.Kind == models.SkipKindStep || req.Kind == models.SkipKindExerciseEnd {
		record, err := s.recordRepo.GetByUserIDAndDate(ctx, userID, req.Date)
		if err != nil {
			return false, fmt.Errorf("failed to get daily record: %w", err)
		}
		if record != nil && record.HasCompleted(req.StepID) {
			return false, nil
		}
	}

	event := &models.SkipEvent{
		ID:                   uuid.New().String(),
		UserID:               userID,
		Kind:                 req.Kind,
		Date:                 req.Date,
		StepID:               req.StepID,
		Timestamp:            time.Now(),
		TimerDurationSeconds: req.TimerDurationSeconds,
		CreatedAt:            time.Now(),
	}
	if _, err := s.skipRepo.Append(ctx, event); err != nil {
		return false, fmt.Errorf("failed to append skip event: %w", err)
	}
	return true, nil
}
