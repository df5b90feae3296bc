package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/plan"
)

// streakFixture wires a scoring service over mock repos with a three-step
// plan where a fully completed day scores 10.0.
type streakFixture struct {
	profileRepo *mockProfileRepository
	recordRepo  *mockDailyRecordRepository
	skipRepo    *mockSkipEventRepository
	streakRepo  *mockStreakStateRepository
	service     StreakService
}

func newStreakFixture(userID string) *streakFixture {
	f := &streakFixture{
		profileRepo: newMockProfileRepository(),
		recordRepo:  newMockDailyRecordRepository(),
		skipRepo:    newMockSkipEventRepository(),
		streakRepo:  newMockStreakStateRepository(),
	}
	f.profileRepo.profiles[userID] = &models.RoutineProfile{
		UserID:        userID,
		ActiveStepIDs: []string{"sunscreen", "retinol", "jaw-sculpt"},
	}
	scoring := NewScoringService(f.profileRepo, f.recordRepo, f.skipRepo, plan.Default())
	f.service = NewStreakService(scoring, f.streakRepo, 7.0, 365)
	return f
}

// fullDay records a perfect day: every section scores 10.0.
func (f *streakFixture) fullDay(userID, date string) {
	f.recordRepo.records[recordKey(userID, date)] = &models.DailyRecord{
		UserID:           userID,
		Date:             date,
		CompletedStepIDs: []string{"sunscreen", "retinol", "jaw-sculpt"},
		Sessions:         models.SessionFlags{Morning: true, Evening: true, Exercises: true},
		AllCompleted:     true,
	}
}

// partialDay records a below-threshold day: only the morning section scores.
func (f *streakFixture) partialDay(userID, date string) {
	f.recordRepo.records[recordKey(userID, date)] = &models.DailyRecord{
		UserID:           userID,
		Date:             date,
		CompletedStepIDs: []string{"sunscreen"},
		Sessions:         models.SessionFlags{Morning: true},
	}
}

func TestCompute_CurrentStreakCountsBackFromToday(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	f := newStreakFixture(userID)
	f.fullDay(userID, "2026-08-27")
	f.fullDay(userID, "2026-08-28")
	f.fullDay(userID, "2026-08-29")

	state, err := f.service.Compute(ctx, userID)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if state.CurrentStreak != 3 {
		t.Errorf("Expected current streak 3, got %d", state.CurrentStreak)
	}
	if state.BestStreak != 3 {
		t.Errorf("Expected best streak 3, got %d", state.BestStreak)
	}
	if state.TotalQualifyingDays != 3 {
		t.Errorf("Expected 3 qualifying days, got %d", state.TotalQualifyingDays)
	}
}

func TestCompute_UnfinishedTodayDoesNotBreakStreak(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	f := newStreakFixture(userID)
	f.fullDay(userID, "2026-08-26")
	f.fullDay(userID, "2026-08-27")
	f.fullDay(userID, "2026-08-28")
	// Nothing recorded today yet

	state, err := f.service.Compute(ctx, userID)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if state.CurrentStreak != 3 {
		t.Errorf("Expected current streak 3 with unfinished today, got %d", state.CurrentStreak)
	}
}

func TestCompute_BelowThresholdDayBreaksStreak(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	f := newStreakFixture(userID)
	f.fullDay(userID, "2026-08-25")
	f.fullDay(userID, "2026-08-26")
	f.partialDay(userID, "2026-08-27")
	f.fullDay(userID, "2026-08-28")
	f.fullDay(userID, "2026-08-29")

	state, err := f.service.Compute(ctx, userID)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if state.CurrentStreak != 2 {
		t.Errorf("Expected current streak 2, got %d", state.CurrentStreak)
	}
	if state.BestStreak != 2 {
		t.Errorf("Expected best streak 2, got %d", state.BestStreak)
	}
}

func TestCompute_BelowThresholdTodayEndsStreak(t *testing.T) {
	// A today that is recorded but below threshold is a broken day, not an
	// unstarted one: the streak ends at zero instead of counting yesterday.
	defer setToday("2026-08-27")()
	ctx := context.Background()
	userID := "user-123"

	f := newStreakFixture(userID)
	f.fullDay(userID, "2026-08-24")
	f.fullDay(userID, "2026-08-25")
	f.fullDay(userID, "2026-08-26")
	f.partialDay(userID, "2026-08-27")

	state, err := f.service.Compute(ctx, userID)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if state.CurrentStreak != 0 {
		t.Errorf("Expected current streak 0 with a non-qualifying today, got %d", state.CurrentStreak)
	}
	if state.BestStreak != 3 {
		t.Errorf("Expected best streak 3, got %d", state.BestStreak)
	}
}

func TestCompute_BestStreakNeverDecreases(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	f := newStreakFixture(userID)
	f.fullDay(userID, "2026-08-29")
	f.streakRepo.states[userID] = &models.StreakState{
		UserID:     userID,
		BestStreak: 10,
	}

	state, err := f.service.Compute(ctx, userID)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if state.CurrentStreak != 1 {
		t.Errorf("Expected current streak 1, got %d", state.CurrentStreak)
	}
	if state.BestStreak != 10 {
		t.Errorf("Expected cached best streak 10 to survive, got %d", state.BestStreak)
	}
}

func TestCompute_CacheReadFailureIsNonFatal(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	f := newStreakFixture(userID)
	f.fullDay(userID, "2026-08-28")
	f.fullDay(userID, "2026-08-29")
	f.streakRepo.getErr = errors.New("connection reset")

	state, err := f.service.Compute(ctx, userID)
	if err != nil {
		t.Fatalf("Compute should tolerate a cache read failure, got: %v", err)
	}
	if state.CurrentStreak != 2 {
		t.Errorf("Expected current streak 2, got %d", state.CurrentStreak)
	}
}

func TestCompute_NoActivityYieldsZeroStreaks(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()

	f := newStreakFixture("user-123")

	state, err := f.service.Compute(ctx, "user-123")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if state.CurrentStreak != 0 || state.BestStreak != 0 {
		t.Errorf("Expected zero streaks, got current=%d best=%d", state.CurrentStreak, state.BestStreak)
	}
}

func TestRecomputeAndStore_WritesCache(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	f := newStreakFixture(userID)
	f.fullDay(userID, "2026-08-28")
	f.fullDay(userID, "2026-08-29")

	if err := f.service.RecomputeAndStore(ctx, userID); err != nil {
		t.Fatalf("RecomputeAndStore failed: %v", err)
	}
	if f.streakRepo.upsertCalls != 1 {
		t.Errorf("Expected 1 cache write, got %d", f.streakRepo.upsertCalls)
	}
	stored := f.streakRepo.states[userID]
	if stored == nil || stored.CurrentStreak != 2 {
		t.Errorf("Expected stored current streak 2, got %+v", stored)
	}
}
