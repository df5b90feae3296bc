package service

import (
	"context"
	"fmt"

	"github.com/ritualhq/ritual/backend/internal/logger"
	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/plan"
	"github.com/ritualhq/ritual/backend/internal/repository"
	"github.com/ritualhq/ritual/backend/internal/worker"
)

type summaryService struct {
	profileRepo repository.ProfileRepository
	recordRepo  repository.DailyRecordRepository
	skipRepo    repository.SkipEventRepository
	scoring     ScoringService
	streaks     StreakService
	catalog     *plan.Catalog
	queue       TaskQueue
}

// NewSummaryService creates a new weekly summary service
func NewSummaryService(
	profileRepo repository.ProfileRepository,
	recordRepo repository.DailyRecordRepository,
	skipRepo repository.SkipEventRepository,
	scoring ScoringService,
	streaks StreakService,
	catalog *plan.Catalog,
	queue TaskQueue,
) SummaryService {
	return &summaryService{
		profileRepo: profileRepo,
		recordRepo:  recordRepo,
		skipRepo:    skipRepo,
		scoring:     scoring,
		streaks:     streaks,
		catalog:     catalog,
		queue:       queue,
	}
}

// routineStart resolves the date a user actually started, with the
// documented fallback ordering: routine start -> signup -> week start.
func routineStart(profile *models.RoutineProfile, weekStart string) string {
	if profile != nil {
		if profile.RoutineStartDate != nil && *profile.RoutineStartDate != "" {
			return *profile.RoutineStartDate
		}
		if profile.SignupDate != nil && *profile.SignupDate != "" {
			return *profile.SignupDate
		}
	}
	return weekStart
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// weekWindow holds the per-week intermediate aggregation.
type weekWindow struct {
	start        string
	daysRevealed int
	consistency  float64
	daysComplete int
	breakdown    models.WeeklyBreakdown
}

func (s *summaryService) GetWeeklySummary(ctx context.Context, userID string) (*models.WeeklySummary, error) {
	log := logger.Ctx(ctx)

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get routine profile: %w", err)
	}

	var activeSteps []plan.Step
	if profile != nil {
		activeSteps = s.catalog.Active(profile.ActiveStepIDs)
	}

	todayDate := today()
	weekStart := formatDate(mondayOnOrBefore(todayFunc()))
	weekEnd := addDays(weekStart, 6)

	// A user who joined mid-week is never penalized for days before they
	// started.
	actualStart := maxDate(weekStart, routineStart(profile, weekStart))
	daysRevealed := clampInt(daysBetween(actualStart, todayDate)+1, 1, 7)

	current, err := s.aggregateWeek(ctx, userID, activeSteps, actualStart, daysRevealed)
	if err != nil {
		return nil, err
	}

	// The prior week is always a full 7-day window once it is in the past,
	// still clamped to the routine start.
	prevWeekStart := addDays(weekStart, -7)
	prevActualStart := maxDate(prevWeekStart, routineStart(profile, prevWeekStart))
	prevRevealed := clampInt(daysBetween(prevActualStart, addDays(prevWeekStart, 6))+1, 1, 7)

	previous, err := s.aggregateWeek(ctx, userID, activeSteps, prevActualStart, prevRevealed)
	if err != nil {
		return nil, err
	}

	skips, err := s.skipRepo.GetByUserIDAndDateRange(ctx, userID, actualStart, addDays(actualStart, daysRevealed-1))
	if err != nil {
		return nil, fmt.Errorf("failed to get skip events: %w", err)
	}
	skipSummary := AggregateSkips(skips, s.catalog)

	streakState, err := s.streaks.Compute(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute streaks: %w", err)
	}

	// Advisory cache write; the response never waits on it.
	s.queue.Submit(worker.Task{
		Name: "streaks.recompute",
		Run: func(taskCtx context.Context) error {
			return s.streaks.RecomputeAndStore(taskCtx, userID)
		},
	})

	trend := models.TrendSame
	switch {
	case current.consistency > previous.consistency:
		trend = models.TrendUp
	case current.consistency < previous.consistency:
		trend = models.TrendDown
	}

	log.Debug("weekly summary computed",
		logger.String("week_start", weekStart),
		logger.Int("days_revealed", daysRevealed),
		logger.Float64("consistency", current.consistency),
	)

	return &models.WeeklySummary{
		WeekStart:             weekStart,
		WeekEnd:               weekEnd,
		DaysRevealed:          daysRevealed,
		OverallConsistency:    current.consistency,
		DaysCompleted:         current.daysComplete,
		Breakdown:             current.breakdown,
		BreakdownPreviousWeek: previous.breakdown,
		CurrentStreak:         streakState.CurrentStreak,
		BestStreak:            streakState.BestStreak,
		Trend:                 trend,
		TimerSkips:            skipSummary.TimerSkips,
		ProductSkips:          skipSummary.ProductSkips,
		ExerciseEarlyEnds:     skipSummary.ExerciseEarlyEnds,
		SkippedProducts:       skipSummary.SkippedProducts,
		MostSkippedStep:       skipSummary.MostSkippedStep,
	}, nil
}

func (s *summaryService) aggregateWeek(ctx context.Context, userID string, activeSteps []plan.Step, start string, daysRevealed int) (*weekWindow, error) {
	end := addDays(start, daysRevealed-1)

	snapshots, err := s.scoring.SnapshotsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to score week: %w", err)
	}

	records, err := s.recordRepo.GetByUserIDAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily records: %w", err)
	}

	recordsByDate := make(map[string]*models.DailyRecord, len(records))
	for i := range records {
		recordsByDate[records[i].Date] = &records[i]
	}

	// Missing activity scores 0.0, it is never excluded from the mean.
	var total float64
	daysComplete := 0
	morningDays, eveningDays, exerciseDays := 0, 0, 0
	exerciseCompletions := 0

	for i := 0; i < daysRevealed; i++ {
		date := addDays(start, i)
		if snap, ok := snapshots[date]; ok {
			total += snap.DailyScore
		}
		rec, ok := recordsByDate[date]
		if !ok {
			continue
		}
		if rec.AllCompleted {
			daysComplete++
		}
		if rec.Sessions.Morning {
			morningDays++
		}
		if rec.Sessions.Evening {
			eveningDays++
		}
		if rec.Sessions.Exercises {
			exerciseDays++
		}
		for _, stepID := range rec.CompletedStepIDs {
			if step, found := s.catalog.Lookup(stepID); found && step.Kind == plan.KindExercise {
				exerciseCompletions++
			}
		}
	}

	numExercises := plan.CountExercises(activeSteps)

	// Sessions are binary per day, so they share the daysRevealed
	// denominator; exercises can be partially completed within a day, so
	// they use per-application opportunities instead.
	breakdown := models.WeeklyBreakdown{
		Morning: models.SectionBreakdown{
			Score:         round1(float64(morningDays) / float64(daysRevealed) * 10),
			DaysCompleted: morningDays,
		},
		Evening: models.SectionBreakdown{
			Score:         round1(float64(eveningDays) / float64(daysRevealed) * 10),
			DaysCompleted: eveningDays,
		},
		Exercises: models.SectionBreakdown{
			DaysCompleted: exerciseDays,
		},
	}
	if numExercises > 0 {
		breakdown.Exercises.Score = clampScore(round1(float64(exerciseCompletions) / float64(numExercises*daysRevealed) * 10))
	}

	return &weekWindow{
		start:        start,
		daysRevealed: daysRevealed,
		consistency:  round1(total / float64(daysRevealed)),
		daysComplete: daysComplete,
		breakdown:    breakdown,
	}, nil
}
