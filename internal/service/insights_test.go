package service

import (
	"context"
	"testing"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/plan"
)

func ratedWeek(n int, rating models.Rating, consistency float64) models.WeekMetrics {
	return models.WeekMetrics{
		WeekNumber:       n,
		Rating:           rating,
		ConsistencyScore: consistency,
	}
}

func TestGenerateCorrelationInsights_TooFewWeeks(t *testing.T) {
	weeks := []models.WeekMetrics{
		ratedWeek(1, models.RatingBetter, 8.0),
		ratedWeek(2, models.RatingWorse, 4.0),
		ratedWeek(3, models.RatingBetter, 9.0),
	}

	result := GenerateCorrelationInsights(weeks, plan.Default(), 4, 0.5)

	if result.Message != MessageInsufficientData {
		t.Errorf("Expected insufficient data message, got %q", result.Message)
	}
	if result.WhatsWorking != nil || result.WhatsHurting != nil {
		t.Error("Expected no insights below the minimum week count")
	}
}

func TestGenerateCorrelationInsights_AllWeeksRatedSame(t *testing.T) {
	weeks := []models.WeekMetrics{
		ratedWeek(1, models.RatingSame, 8.0),
		ratedWeek(2, models.RatingSame, 4.0),
		ratedWeek(3, models.RatingSame, 6.0),
		ratedWeek(4, models.RatingSame, 9.0),
	}

	result := GenerateCorrelationInsights(weeks, plan.Default(), 4, 0.5)

	if result.Message != MessageConsistentResults {
		t.Errorf("Expected consistent results message, got %q", result.Message)
	}
}

func TestGenerateCorrelationInsights_ConsistencyDrivesBetterWeeks(t *testing.T) {
	weeks := []models.WeekMetrics{
		ratedWeek(1, models.RatingBetter, 8.0),
		ratedWeek(2, models.RatingWorse, 4.0),
		ratedWeek(3, models.RatingSame, 6.0),
		ratedWeek(4, models.RatingBetter, 9.0),
	}

	result := GenerateCorrelationInsights(weeks, plan.Default(), 4, 0.5)

	if result.Message != "" {
		t.Fatalf("Expected no gate message, got %q", result.Message)
	}
	if result.WhatsWorking == nil {
		t.Fatal("Expected a what's-working insight")
	}

	// Better weeks average 8.5 against a 6.75 baseline
	working := result.WhatsWorking
	if working.Metric != models.MetricConsistencyScore {
		t.Errorf("Expected consistency_score metric, got %s", working.Metric)
	}
	if working.WeekCount != 2 || working.TotalWeeks != 4 {
		t.Errorf("Expected 2 of 4 weeks, got %d of %d", working.WeekCount, working.TotalWeeks)
	}
	if working.GroupValue != "8.5" {
		t.Errorf("Expected group value 8.5, got %s", working.GroupValue)
	}
	if working.BaselineValue != "6.8" {
		t.Errorf("Expected baseline value 6.8, got %s", working.BaselineValue)
	}
	if working.SentencePrefix == "" || working.DataFragment == "" || working.SentenceSuffix == "" {
		t.Error("Expected a fully populated three-part sentence")
	}

	if result.WhatsHurting == nil {
		t.Fatal("Expected a what's-hurting insight")
	}
	if result.WhatsHurting.Metric != models.MetricConsistencyScore {
		t.Errorf("Expected consistency_score for the worse group, got %s", result.WhatsHurting.Metric)
	}
}

func TestGenerateCorrelationInsights_DefaultsToConsistencyBelowThreshold(t *testing.T) {
	// All metrics hover around their baselines; nothing clears 0.5
	weeks := []models.WeekMetrics{
		ratedWeek(1, models.RatingBetter, 6.1),
		ratedWeek(2, models.RatingWorse, 6.0),
		ratedWeek(3, models.RatingSame, 6.0),
		ratedWeek(4, models.RatingBetter, 6.2),
	}

	result := GenerateCorrelationInsights(weeks, plan.Default(), 4, 0.5)

	if result.WhatsWorking == nil {
		t.Fatal("Expected a default insight")
	}
	if result.WhatsWorking.Metric != models.MetricConsistencyScore {
		t.Errorf("Expected consistency_score as the default driver, got %s", result.WhatsWorking.Metric)
	}
}

func TestGenerateCorrelationInsights_NoWorseWeeksLeavesHurtingNull(t *testing.T) {
	weeks := []models.WeekMetrics{
		ratedWeek(1, models.RatingSame, 6.0),
		ratedWeek(2, models.RatingSame, 6.0),
		ratedWeek(3, models.RatingBetter, 9.0),
		ratedWeek(4, models.RatingSame, 6.0),
	}

	result := GenerateCorrelationInsights(weeks, plan.Default(), 4, 0.5)

	if result.WhatsWorking == nil {
		t.Fatal("Expected a what's-working insight")
	}
	if result.WhatsHurting != nil {
		t.Errorf("Expected no what's-hurting insight, got %+v", result.WhatsHurting)
	}
	if result.Message != "" {
		t.Errorf("Expected empty message, got %q", result.Message)
	}
}

func TestGenerateCorrelationInsights_MostSkippedStepComparesAgainstBaseline(t *testing.T) {
	// The same step is most-skipped in every week; the worse weeks just
	// skip it more, so the comparison runs against the all-weeks baseline.
	weeks := []models.WeekMetrics{
		{WeekNumber: 1, Rating: models.RatingBetter, ConsistencyScore: 6.0, StepsSkipped: 5, MostSkippedStepID: "retinol", MostSkippedCount: 1},
		{WeekNumber: 2, Rating: models.RatingWorse, ConsistencyScore: 6.0, StepsSkipped: 5, MostSkippedStepID: "retinol", MostSkippedCount: 5},
		{WeekNumber: 3, Rating: models.RatingSame, ConsistencyScore: 6.0, StepsSkipped: 5, MostSkippedStepID: "retinol", MostSkippedCount: 1},
		{WeekNumber: 4, Rating: models.RatingWorse, ConsistencyScore: 6.0, StepsSkipped: 5, MostSkippedStepID: "retinol", MostSkippedCount: 5},
	}

	result := GenerateCorrelationInsights(weeks, plan.Default(), 4, 0.5)

	if result.WhatsHurting == nil {
		t.Fatal("Expected a what's-hurting insight")
	}
	hurting := result.WhatsHurting
	if hurting.Metric != models.MetricMostSkippedStep {
		t.Fatalf("Expected most_skipped_step metric, got %s", hurting.Metric)
	}
	if hurting.StepName != "Retinol" {
		t.Errorf("Expected resolved step name Retinol, got %q", hurting.StepName)
	}
	// Worse weeks average 5 skips against a 3-per-week baseline
	if hurting.GroupValue != "5.0/week" {
		t.Errorf("Expected group value 5.0/week, got %s", hurting.GroupValue)
	}
	if hurting.BaselineValue != "3.0/week" {
		t.Errorf("Expected baseline value 3.0/week, got %s", hurting.BaselineValue)
	}
}

func TestGenerateCorrelationInsights_SessionDayMetricsFormatAsPercent(t *testing.T) {
	weeks := []models.WeekMetrics{
		{WeekNumber: 1, Rating: models.RatingBetter, ConsistencyScore: 6.0, MorningDaysCompleted: 7},
		{WeekNumber: 2, Rating: models.RatingWorse, ConsistencyScore: 6.0, MorningDaysCompleted: 1},
		{WeekNumber: 3, Rating: models.RatingSame, ConsistencyScore: 6.0, MorningDaysCompleted: 4},
		{WeekNumber: 4, Rating: models.RatingBetter, ConsistencyScore: 6.0, MorningDaysCompleted: 7},
	}

	result := GenerateCorrelationInsights(weeks, plan.Default(), 4, 0.5)

	if result.WhatsWorking == nil {
		t.Fatal("Expected a what's-working insight")
	}
	working := result.WhatsWorking
	if working.Metric != models.MetricMorningDays {
		t.Fatalf("Expected morning_days metric, got %s", working.Metric)
	}
	if working.GroupValue != "100%" {
		t.Errorf("Expected group value 100%%, got %s", working.GroupValue)
	}
}

func TestGetMonthlyInsights_SparseUser(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	profileRepo := newMockProfileRepository()
	recordRepo := newMockDailyRecordRepository()
	skipRepo := newMockSkipEventRepository()
	ratingRepo := newMockOutcomeRatingRepository()
	sessionRepo := newMockSessionStartRepository()

	catalog := plan.Default()
	scoring := NewScoringService(profileRepo, recordRepo, skipRepo, catalog)
	service := NewInsightsService(
		profileRepo, recordRepo, skipRepo, ratingRepo, sessionRepo,
		scoring, catalog, testEstimatorParams(), 4, 0.5, 30,
	)

	insights, err := service.GetMonthlyInsights(ctx, userID)
	if err != nil {
		t.Fatalf("GetMonthlyInsights failed: %v", err)
	}

	if insights.HasEnoughData {
		t.Error("Expected HasEnoughData=false for a user with no history")
	}
	if insights.CorrelationInsights.Message != MessageInsufficientData {
		t.Errorf("Expected insufficient data message, got %q", insights.CorrelationInsights.Message)
	}
	if insights.TimeEffectiveness == nil || insights.TimeEffectiveness.EffectivenessLostPercent != 0.0 {
		t.Errorf("Expected zero effectiveness lost, got %+v", insights.TimeEffectiveness)
	}
}

func TestGetMonthlyInsights_FullPipeline(t *testing.T) {
	defer setToday("2026-08-29")()
	ctx := context.Background()
	userID := "user-123"

	profileRepo := newMockProfileRepository()
	profileRepo.profiles[userID] = &models.RoutineProfile{
		UserID:        userID,
		ActiveStepIDs: []string{"sunscreen", "retinol", "jaw-sculpt"},
		SignupDate:    strPtr("2026-08-01"),
		MorningTime:   "07:00",
	}

	recordRepo := newMockDailyRecordRepository()
	// Two perfect weeks and two poor weeks, relative to the Aug 1 signup
	for i := 0; i < 7; i++ {
		date := addDays("2026-08-01", i) // week 1
		recordRepo.records[recordKey(userID, date)] = &models.DailyRecord{
			UserID: userID, Date: date,
			CompletedStepIDs: []string{"sunscreen", "retinol", "jaw-sculpt"},
			Sessions:         models.SessionFlags{Morning: true, Evening: true, Exercises: true},
		}
		date = addDays("2026-08-22", i) // week 4
		recordRepo.records[recordKey(userID, date)] = &models.DailyRecord{
			UserID: userID, Date: date,
			CompletedStepIDs: []string{"sunscreen", "retinol", "jaw-sculpt"},
			Sessions:         models.SessionFlags{Morning: true, Evening: true, Exercises: true},
		}
	}

	skipRepo := newMockSkipEventRepository()
	ratingRepo := newMockOutcomeRatingRepository()
	ratingRepo.ratings = []models.OutcomeRating{
		{UserID: userID, WeekNumber: 1, Rating: models.RatingBetter},
		{UserID: userID, WeekNumber: 2, Rating: models.RatingWorse},
		{UserID: userID, WeekNumber: 3, Rating: models.RatingWorse},
		{UserID: userID, WeekNumber: 4, Rating: models.RatingBetter},
	}
	sessionRepo := newMockSessionStartRepository()
	_, _ = sessionRepo.Append(ctx, &models.SessionStart{
		UserID: userID, Section: models.SectionMorning, Date: "2026-08-28",
		StartedAt: mustTime("2026-08-28", 7, 45),
	})

	catalog := plan.Default()
	scoring := NewScoringService(profileRepo, recordRepo, skipRepo, catalog)
	service := NewInsightsService(
		profileRepo, recordRepo, skipRepo, ratingRepo, sessionRepo,
		scoring, catalog, testEstimatorParams(), 4, 0.5, 30,
	)

	insights, err := service.GetMonthlyInsights(ctx, userID)
	if err != nil {
		t.Fatalf("GetMonthlyInsights failed: %v", err)
	}

	if insights.CorrelationInsights.WhatsWorking == nil {
		t.Fatal("Expected a what's-working insight")
	}
	if insights.CorrelationInsights.WhatsWorking.Metric != models.MetricConsistencyScore {
		t.Errorf("Expected consistency_score driver, got %s", insights.CorrelationInsights.WhatsWorking.Metric)
	}
	if !insights.HasEnoughData {
		t.Error("Expected HasEnoughData=true with two weeks of scores in the window")
	}
	if len(insights.NotificationTiming) != 1 {
		t.Fatalf("Expected one session timing, got %d", len(insights.NotificationTiming))
	}
	if insights.NotificationTiming[0].DiscrepancyMinutes != 45 {
		t.Errorf("Expected 45 minute discrepancy, got %d", insights.NotificationTiming[0].DiscrepancyMinutes)
	}
}
