package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/plan"
	"github.com/ritualhq/ritual/backend/internal/repository"
)

type scoringService struct {
	profileRepo repository.ProfileRepository
	recordRepo  repository.DailyRecordRepository
	skipRepo    repository.SkipEventRepository
	catalog     *plan.Catalog
}

// NewScoringService creates a new scoring service
func NewScoringService(
	profileRepo repository.ProfileRepository,
	recordRepo repository.DailyRecordRepository,
	skipRepo repository.SkipEventRepository,
	catalog *plan.Catalog,
) ScoringService {
	return &scoringService{
		profileRepo: profileRepo,
		recordRepo:  recordRepo,
		skipRepo:    skipRepo,
		catalog:     catalog,
	}
}

// round1 rounds to one decimal place, the resolution of every score.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// SectionScore computes the 0-10 score for one section on one date. A step
// with a StepSkip recorded for the date is excluded from both numerator and
// denominator. A flexible product is expected only in a section whose
// session actually ran. A nil record means nothing was completed; it never
// produces an error.
func SectionScore(steps []plan.Step, record *models.DailyRecord, skippedStepIDs map[string]bool, section models.Section) float64 {
	expected := expectedSteps(steps, record, skippedStepIDs, section)
	if len(expected) == 0 {
		return 0.0
	}

	completed := 0
	if record != nil {
		for _, s := range expected {
			if record.HasCompleted(s.ID) {
				completed++
			}
		}
	}

	score := round1(float64(completed) / float64(len(expected)) * 10)
	return clampScore(score)
}

func expectedSteps(steps []plan.Step, record *models.DailyRecord, skippedStepIDs map[string]bool, section models.Section) []plan.Step {
	expected := make([]plan.Step, 0, len(steps))
	for _, s := range steps {
		if skippedStepIDs[s.ID] {
			continue
		}

		switch section {
		case models.SectionExercises:
			if s.Kind != plan.KindExercise || !s.Completable {
				continue
			}
		case models.SectionMorning, models.SectionEvening:
			if s.Kind != plan.KindProduct {
				continue
			}
			if s.Flexible() {
				// Credited to whichever session the user actually ran.
				if record == nil || !record.SessionRan(section) {
					continue
				}
			} else if section == models.SectionMorning && !s.InMorning() {
				continue
			} else if section == models.SectionEvening && !s.InEvening() {
				continue
			}
		default:
			continue
		}

		expected = append(expected, s)
	}
	return expected
}

// DailyScore is the unweighted mean of the three section scores. The
// division is always by 3, even when a section had zero expected steps.
func DailyScore(morning, evening, exercises float64) float64 {
	return clampScore(round1((morning + evening + exercises) / 3))
}

// snapshotFor scores one date from already-fetched data.
func snapshotFor(date string, steps []plan.Step, record *models.DailyRecord, skippedStepIDs map[string]bool) models.ScoreSnapshot {
	morning := SectionScore(steps, record, skippedStepIDs, models.SectionMorning)
	evening := SectionScore(steps, record, skippedStepIDs, models.SectionEvening)
	exercises := SectionScore(steps, record, skippedStepIDs, models.SectionExercises)

	return models.ScoreSnapshot{
		Date:           date,
		MorningScore:   morning,
		EveningScore:   evening,
		ExercisesScore: exercises,
		DailyScore:     DailyScore(morning, evening, exercises),
	}
}

// stepSkipsByDate collects the step IDs with a StepSkip per date. Timer
// skips and exercise early ends do not remove a step from the denominator.
func stepSkipsByDate(events []models.SkipEvent) map[string]map[string]bool {
	byDate := make(map[string]map[string]bool)
	for _, ev := range events {
		if ev.Kind != models.SkipKindStep {
			continue
		}
		if byDate[ev.Date] == nil {
			byDate[ev.Date] = make(map[string]bool)
		}
		byDate[ev.Date][ev.StepID] = true
	}
	return byDate
}

func (s *scoringService) activeSteps(ctx context.Context, userID string) ([]plan.Step, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get routine profile: %w", err)
	}
	if profile == nil {
		// Missing plan resolves to an empty expected set, never an error
		return nil, nil
	}
	return s.catalog.Active(profile.ActiveStepIDs), nil
}

func (s *scoringService) Snapshot(ctx context.Context, userID, date string) (*models.ScoreSnapshot, error) {
	steps, err := s.activeSteps(ctx, userID)
	if err != nil {
		return nil, err
	}

	record, err := s.recordRepo.GetByUserIDAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}

	skips, err := s.skipRepo.GetByUserIDAndDateRange(ctx, userID, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get skip events: %w", err)
	}

	snapshot := snapshotFor(date, steps, record, stepSkipsByDate(skips)[date])
	return &snapshot, nil
}

func (s *scoringService) SnapshotsInRange(ctx context.Context, userID, startDate, endDate string) (map[string]models.ScoreSnapshot, error) {
	steps, err := s.activeSteps(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.recordRepo.GetByUserIDAndDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily records: %w", err)
	}

	skips, err := s.skipRepo.GetByUserIDAndDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get skip events: %w", err)
	}

	skipsByDate := stepSkipsByDate(skips)

	// Per-date computations are independent; fan out and join before the
	// caller reduces.
	snapshots := make([]models.ScoreSnapshot, len(records))
	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := records[i]
			snapshots[i] = snapshotFor(rec.Date, steps, &rec, skipsByDate[rec.Date])
		}(i)
	}
	wg.Wait()

	result := make(map[string]models.ScoreSnapshot, len(snapshots))
	for _, snap := range snapshots {
		result[snap.Date] = snap
	}
	return result, nil
}
