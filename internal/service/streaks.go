package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ritualhq/ritual/backend/internal/logger"
	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/repository"
)

type streakService struct {
	scoring         ScoringService
	streakRepo      repository.StreakStateRepository
	qualifyingScore float64
	lookbackDays    int
}

// NewStreakService creates a new streak service
func NewStreakService(
	scoring ScoringService,
	streakRepo repository.StreakStateRepository,
	qualifyingScore float64,
	lookbackDays int,
) StreakService {
	if lookbackDays <= 0 {
		lookbackDays = 365
	}
	return &streakService{
		scoring:         scoring,
		streakRepo:      streakRepo,
		qualifyingScore: qualifyingScore,
		lookbackDays:    lookbackDays,
	}
}

func (s *streakService) Compute(ctx context.Context, userID string) (*models.StreakState, error) {
	todayDate := today()
	windowStart := addDays(todayDate, -(s.lookbackDays - 1))

	snapshots, err := s.scoring.SnapshotsInRange(ctx, userID, windowStart, todayDate)
	if err != nil {
		return nil, fmt.Errorf("failed to score streak window: %w", err)
	}

	recorded := make(map[string]bool, len(snapshots))
	qualifying := make(map[string]bool, len(snapshots))
	for date, snap := range snapshots {
		recorded[date] = true
		if snap.DailyScore >= s.qualifyingScore {
			qualifying[date] = true
		}
	}

	state := &models.StreakState{
		UserID:              userID,
		CurrentStreak:       currentStreak(qualifying, recorded, todayDate, s.lookbackDays),
		BestStreak:          bestStreak(qualifying),
		TotalQualifyingDays: len(qualifying),
		ComputedAt:          time.Now(),
	}

	// bestStreak is monotonic: merge with the cached value so it never
	// decreases once recorded. A failed cache read only loses the merge.
	cached, err := s.streakRepo.GetByUserID(ctx, userID)
	if err != nil {
		logger.Ctx(ctx).Warn("failed to read cached streak state", logger.Err(err))
	} else if cached != nil && cached.BestStreak > state.BestStreak {
		state.BestStreak = cached.BestStreak
	}

	if state.BestStreak < state.CurrentStreak {
		state.BestStreak = state.CurrentStreak
	}

	return state, nil
}

func (s *streakService) RecomputeAndStore(ctx context.Context, userID string) error {
	state, err := s.Compute(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.streakRepo.Upsert(ctx, state); err != nil {
		return fmt.Errorf("failed to store streak state: %w", err)
	}
	return nil
}

// currentStreak walks backward one calendar day at a time. A today with no
// record at all starts the walk from yesterday instead, so an unstarted day
// does not break an ongoing streak. A today that is recorded but below the
// qualifying threshold ends the streak at zero.
func currentStreak(qualifying, recorded map[string]bool, todayDate string, lookbackDays int) int {
	cursor := todayDate
	if !qualifying[cursor] {
		if recorded[cursor] {
			return 0
		}
		cursor = addDays(cursor, -1)
	}

	streak := 0
	for i := 0; i < lookbackDays; i++ {
		if !qualifying[cursor] {
			break
		}
		streak++
		cursor = addDays(cursor, -1)
	}
	return streak
}

// bestStreak scans the qualifying dates for maximal runs of consecutive
// calendar days. A gap of exactly one day continues a run; any other gap
// starts a new run of length 1.
func bestStreak(qualifying map[string]bool) int {
	if len(qualifying) == 0 {
		return 0
	}

	dates := make([]string, 0, len(qualifying))
	for d := range qualifying {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	best := 1
	run := 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
