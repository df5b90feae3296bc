package service

import (
	"context"
	"fmt"
	"math"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/plan"
	"github.com/ritualhq/ritual/backend/internal/repository"
)

// First-class sparse-data output states of the correlation generator.
// Sparse data is never an error.
const (
	MessageInsufficientData  = "insufficient data"
	MessageConsistentResults = "consistent results"
)

// metricDef describes one correlatable metric: how to read it from a week
// and which direction is desirable.
type metricDef struct {
	metric         models.InsightMetric
	higherIsBetter bool
	value          func(w models.WeekMetrics) float64
}

// The order is stable; it is the tiebreak when two deviations are equal.
var metricDefs = []metricDef{
	{models.MetricConsistencyScore, true, func(w models.WeekMetrics) float64 { return w.ConsistencyScore }},
	{models.MetricMorningDays, true, func(w models.WeekMetrics) float64 { return float64(w.MorningDaysCompleted) }},
	{models.MetricEveningDays, true, func(w models.WeekMetrics) float64 { return float64(w.EveningDaysCompleted) }},
	{models.MetricExerciseDays, true, func(w models.WeekMetrics) float64 { return float64(w.ExerciseDaysComplete) }},
	{models.MetricTimerSkips, false, func(w models.WeekMetrics) float64 { return float64(w.TimerSkips) }},
	{models.MetricStepsSkipped, false, func(w models.WeekMetrics) float64 { return float64(w.StepsSkipped) }},
	{models.MetricMostSkippedStep, false, func(w models.WeekMetrics) float64 { return float64(w.MostSkippedCount) }},
}

// insightTemplate is the fixed per-metric sentence layout. The data
// fragment is rendered separately from prefix and suffix so the UI layer
// can redact the numbers without touching the surrounding sentence.
type insightTemplate struct {
	workingPrefix string
	workingSuffix string
	workingAdvice string
	hurtingPrefix string
	hurtingSuffix string
	hurtingAdvice string
}

var insightTemplates = map[models.InsightMetric]insightTemplate{
	models.MetricConsistencyScore: {
		workingPrefix: "In the weeks you rated as better, ",
		workingSuffix: " Consistency is doing the heavy lifting.",
		workingAdvice: "Keep your routine going every day, even a shorter version counts.",
		hurtingPrefix: "In the weeks you rated as worse, ",
		hurtingSuffix: " Missed days add up quickly.",
		hurtingAdvice: "Aim for a minimal version of your routine on busy days instead of skipping it.",
	},
	models.MetricMorningDays: {
		workingPrefix: "Your better weeks line up with your mornings: ",
		workingSuffix: " That morning session is paying off.",
		workingAdvice: "Protect your morning routine, it shows up in your results.",
		hurtingPrefix: "Your worse weeks line up with skipped mornings: ",
		hurtingSuffix: " The morning session matters more than it feels.",
		hurtingAdvice: "Try prepping your morning products the night before.",
	},
	models.MetricEveningDays: {
		workingPrefix: "Your better weeks line up with your evenings: ",
		workingSuffix: " The evening session is working for you.",
		workingAdvice: "Keep the evening routine in place, it is carrying results.",
		hurtingPrefix: "Your worse weeks line up with skipped evenings: ",
		hurtingSuffix: " Evenings are where your routine slips.",
		hurtingAdvice: "Move your evening routine earlier so tiredness doesn't decide for you.",
	},
	models.MetricExerciseDays: {
		workingPrefix: "Exercises stand out in your better weeks: ",
		workingSuffix: " The facial work is showing.",
		workingAdvice: "Keep the exercise days coming, they correlate with your better ratings.",
		hurtingPrefix: "Exercises drop off in your worse weeks: ",
		hurtingSuffix: " Skipped exercises track with worse ratings.",
		hurtingAdvice: "Even one short exercise block on busy days keeps the habit alive.",
	},
	models.MetricTimerSkips: {
		workingPrefix: "You skipped fewer waiting periods in your better weeks: ",
		workingSuffix: " Letting products absorb seems to matter.",
		workingAdvice: "Keep waiting out the timers, the absorption time is doing real work.",
		hurtingPrefix: "You skipped more waiting periods in your worse weeks: ",
		hurtingSuffix: " Rushed steps track with worse ratings.",
		hurtingAdvice: "Use the timer as a breather instead of skipping it.",
	},
	models.MetricStepsSkipped: {
		workingPrefix: "You skipped fewer steps in your better weeks: ",
		workingSuffix: " The full routine is more than the sum of its parts.",
		workingAdvice: "Keep the full routine when you can, partial routines show in your ratings.",
		hurtingPrefix: "You skipped more steps in your worse weeks: ",
		hurtingSuffix: " Dropped steps track with worse ratings.",
		hurtingAdvice: "If you must cut a step, rotate which one rather than always dropping the same.",
	},
	models.MetricMostSkippedStep: {
		workingPrefix: "One step stands out in your better weeks: ",
		workingSuffix: " Keeping it in the routine seems to help.",
		workingAdvice: "That step correlates with your better weeks, keep it in.",
		hurtingPrefix: "One step stands out in your worse weeks: ",
		hurtingSuffix: " Dropping it tracks with worse ratings.",
		hurtingAdvice: "Try anchoring that step to one you never skip.",
	},
}

// formatMetricValue renders a metric value for display: raw score for
// consistency, percentage-of-week for completion counts, counts-per-week
// for skip metrics.
func formatMetricValue(metric models.InsightMetric, v float64) string {
	switch metric {
	case models.MetricConsistencyScore:
		return fmt.Sprintf("%.1f", v)
	case models.MetricMorningDays, models.MetricEveningDays, models.MetricExerciseDays:
		return fmt.Sprintf("%.0f%%", v/7*100)
	default:
		return fmt.Sprintf("%.1f/week", v)
	}
}

func meanOver(weeks []models.WeekMetrics, value func(models.WeekMetrics) float64) float64 {
	if len(weeks) == 0 {
		return 0
	}
	var total float64
	for _, w := range weeks {
		total += value(w)
	}
	return total / float64(len(weeks))
}

// dominantSkippedStep returns the step ID most often named as a week's
// most-skipped step within the group, first-seen tiebreak.
func dominantSkippedStep(weeks []models.WeekMetrics) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, w := range weeks {
		if w.MostSkippedStepID == "" {
			continue
		}
		if _, seen := counts[w.MostSkippedStepID]; !seen {
			order = append(order, w.MostSkippedStepID)
		}
		counts[w.MostSkippedStepID]++
	}

	best := ""
	for _, id := range order {
		if best == "" || counts[id] > counts[best] {
			best = id
		}
	}
	return best
}

// pickDriver selects the metric with the largest deviation from baseline
// that clears the significance threshold. working selects the polarity:
// for what's-working a desirable deviation is positive, for what's-hurting
// the sign flips. Deviations are always measured against the all-weeks
// baseline, so a step that is most-skipped in both groups is compared
// against its baseline average, never group against group.
func pickDriver(group, all []models.WeekMetrics, threshold float64, working bool) (metricDef, float64, float64, bool) {
	var chosen metricDef
	var chosenGroupMean, chosenBaseline float64
	bestDeviation := math.Inf(-1)
	found := false

	for _, def := range metricDefs {
		baseline := meanOver(all, def.value)
		groupMean := meanOver(group, def.value)

		var deviation float64
		if def.higherIsBetter == working {
			deviation = groupMean - baseline
		} else {
			deviation = baseline - groupMean
		}

		if deviation < threshold {
			continue
		}
		if deviation > bestDeviation {
			bestDeviation = deviation
			chosen = def
			chosenGroupMean = groupMean
			chosenBaseline = baseline
			found = true
		}
	}

	return chosen, chosenGroupMean, chosenBaseline, found
}

func buildInsight(def metricDef, working bool, group, all []models.WeekMetrics, groupMean, baseline float64, catalog *plan.Catalog) *models.CorrelationInsight {
	tpl := insightTemplates[def.metric]

	insight := &models.CorrelationInsight{
		Metric:        def.metric,
		WeekCount:     len(group),
		TotalWeeks:    len(all),
		GroupValue:    formatMetricValue(def.metric, groupMean),
		BaselineValue: formatMetricValue(def.metric, baseline),
	}

	if working {
		insight.SentencePrefix = tpl.workingPrefix
		insight.SentenceSuffix = tpl.workingSuffix
		insight.Advice = tpl.workingAdvice
	} else {
		insight.SentencePrefix = tpl.hurtingPrefix
		insight.SentenceSuffix = tpl.hurtingSuffix
		insight.Advice = tpl.hurtingAdvice
	}

	if def.metric == models.MetricMostSkippedStep {
		if stepID := dominantSkippedStep(group); stepID != "" {
			insight.StepName = catalog.DisplayName(stepID)
		}
	}

	insight.DataFragment = renderDataFragment(insight)
	return insight
}

func renderDataFragment(in *models.CorrelationInsight) string {
	if in.StepName != "" {
		return fmt.Sprintf("%s averaged %s vs %s across all rated weeks", in.StepName, in.GroupValue, in.BaselineValue)
	}
	return fmt.Sprintf("you averaged %s vs a baseline of %s", in.GroupValue, in.BaselineValue)
}

// GenerateCorrelationInsights maps rated weeks to their dominant
// behavioral drivers.
func GenerateCorrelationInsights(weeks []models.WeekMetrics, catalog *plan.Catalog, minWeeks int, threshold float64) models.CorrelationInsights {
	if len(weeks) < minWeeks {
		return models.CorrelationInsights{Message: MessageInsufficientData}
	}

	allSame := true
	for _, w := range weeks {
		if w.Rating != models.RatingSame {
			allSame = false
			break
		}
	}
	if allSame {
		return models.CorrelationInsights{Message: MessageConsistentResults}
	}

	var betterWeeks, worseWeeks []models.WeekMetrics
	for _, w := range weeks {
		switch w.Rating {
		case models.RatingBetter:
			betterWeeks = append(betterWeeks, w)
		case models.RatingWorse:
			worseWeeks = append(worseWeeks, w)
		}
	}

	result := models.CorrelationInsights{}

	if len(betterWeeks) > 0 {
		def, groupMean, baseline, found := pickDriver(betterWeeks, weeks, threshold, true)
		if !found {
			// Consistency is the default driver when nothing clears the bar
			def = metricDefs[0]
			groupMean = meanOver(betterWeeks, def.value)
			baseline = meanOver(weeks, def.value)
		}
		result.WhatsWorking = buildInsight(def, true, betterWeeks, weeks, groupMean, baseline, catalog)
	}

	if len(worseWeeks) > 0 {
		def, groupMean, baseline, found := pickDriver(worseWeeks, weeks, threshold, false)
		if !found {
			def = metricDefs[0]
			groupMean = meanOver(worseWeeks, def.value)
			baseline = meanOver(weeks, def.value)
		}
		result.WhatsHurting = buildInsight(def, false, worseWeeks, weeks, groupMean, baseline, catalog)
	}

	// Neither group populated: both insights stay null and the message
	// stays empty, the caller shows a neutral default.
	return result
}

// =============================================================================
// Monthly insights service
// =============================================================================

type insightsService struct {
	profileRepo repository.ProfileRepository
	recordRepo  repository.DailyRecordRepository
	skipRepo    repository.SkipEventRepository
	ratingRepo  repository.OutcomeRatingRepository
	sessionRepo repository.SessionStartRepository
	scoring     ScoringService
	catalog     *plan.Catalog

	estimator     EstimatorParams
	minRatedWeeks int
	threshold     float64
	windowDays    int
}

// NewInsightsService creates a new monthly insights service
func NewInsightsService(
	profileRepo repository.ProfileRepository,
	recordRepo repository.DailyRecordRepository,
	skipRepo repository.SkipEventRepository,
	ratingRepo repository.OutcomeRatingRepository,
	sessionRepo repository.SessionStartRepository,
	scoring ScoringService,
	catalog *plan.Catalog,
	estimator EstimatorParams,
	minRatedWeeks int,
	threshold float64,
	windowDays int,
) InsightsService {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &insightsService{
		profileRepo:   profileRepo,
		recordRepo:    recordRepo,
		skipRepo:      skipRepo,
		ratingRepo:    ratingRepo,
		sessionRepo:   sessionRepo,
		scoring:       scoring,
		catalog:       catalog,
		estimator:     estimator,
		minRatedWeeks: minRatedWeeks,
		threshold:     threshold,
		windowDays:    windowDays,
	}
}

func (s *insightsService) GetMonthlyInsights(ctx context.Context, userID string) (*models.MonthlyInsights, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get routine profile: %w", err)
	}

	var activeSteps []plan.Step
	if profile != nil {
		activeSteps = s.catalog.Active(profile.ActiveStepIDs)
	}

	todayDate := today()
	windowStart := addDays(todayDate, -(s.windowDays - 1))

	snapshots, err := s.scoring.SnapshotsInRange(ctx, userID, windowStart, todayDate)
	if err != nil {
		return nil, fmt.Errorf("failed to score insight window: %w", err)
	}

	pattern := ComputeDayPattern(snapshots)

	skips, err := s.skipRepo.GetByUserIDAndDateRange(ctx, userID, windowStart, todayDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get skip events: %w", err)
	}
	skipSummary := AggregateSkips(skips, s.catalog)
	effectiveness := EstimateTimeEffectiveness(skipSummary, activeSteps, s.windowDays, s.estimator)

	timings, err := s.sessionTimings(ctx, userID, profile, windowStart, todayDate)
	if err != nil {
		return nil, err
	}

	weeks, err := s.ratedWeekMetrics(ctx, userID, profile)
	if err != nil {
		return nil, err
	}
	correlations := GenerateCorrelationInsights(weeks, s.catalog, s.minRatedWeeks, s.threshold)

	return &models.MonthlyInsights{
		HardestDay:          pattern.HardestDay,
		BestDay:             pattern.BestDay,
		DayPattern:          &pattern,
		NotificationTiming:  timings,
		TimeEffectiveness:   &effectiveness,
		CorrelationInsights: correlations,
		HasEnoughData:       pattern.DaysWithScores >= 7,
	}, nil
}

func (s *insightsService) sessionTimings(ctx context.Context, userID string, profile *models.RoutineProfile, startDate, endDate string) ([]models.SessionTiming, error) {
	if profile == nil {
		return nil, nil
	}

	starts, err := s.sessionRepo.GetByUserIDAndDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get session starts: %w", err)
	}

	timings := make([]models.SessionTiming, 0, 2)
	for _, pair := range []struct {
		section    models.Section
		configured string
	}{
		{models.SectionMorning, profile.MorningTime},
		{models.SectionEvening, profile.EveningTime},
	} {
		if pair.configured == "" {
			continue
		}
		timing, err := ComputeSessionTiming(pair.section, pair.configured, starts)
		if err != nil {
			// A malformed configured time is a settings problem, not a
			// computation failure.
			continue
		}
		if timing != nil {
			timings = append(timings, *timing)
		}
	}
	return timings, nil
}

// ratedWeekMetrics builds the per-week metric rows for every rated week.
// Week numbers are relative to the signup date; a profile without a signup
// date falls back to the routine start date, and without either the weeks
// cannot be anchored so no metrics are produced.
func (s *insightsService) ratedWeekMetrics(ctx context.Context, userID string, profile *models.RoutineProfile) ([]models.WeekMetrics, error) {
	ratings, err := s.ratingRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome ratings: %w", err)
	}

	rated := make([]models.OutcomeRating, 0, len(ratings))
	for _, r := range ratings {
		if r.WeekNumber > 0 {
			rated = append(rated, r)
		}
	}
	if len(rated) == 0 {
		return nil, nil
	}

	anchor := ""
	if profile != nil {
		if profile.SignupDate != nil && *profile.SignupDate != "" {
			anchor = *profile.SignupDate
		} else if profile.RoutineStartDate != nil && *profile.RoutineStartDate != "" {
			anchor = *profile.RoutineStartDate
		}
	}
	if anchor == "" {
		return nil, nil
	}

	minWeek, maxWeek := rated[0].WeekNumber, rated[0].WeekNumber
	for _, r := range rated {
		if r.WeekNumber < minWeek {
			minWeek = r.WeekNumber
		}
		if r.WeekNumber > maxWeek {
			maxWeek = r.WeekNumber
		}
	}

	rangeStart := addDays(anchor, (minWeek-1)*7)
	rangeEnd := addDays(anchor, maxWeek*7-1)

	snapshots, err := s.scoring.SnapshotsInRange(ctx, userID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to score rated weeks: %w", err)
	}

	records, err := s.recordRepo.GetByUserIDAndDateRange(ctx, userID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily records: %w", err)
	}
	recordsByDate := make(map[string]*models.DailyRecord, len(records))
	for i := range records {
		recordsByDate[records[i].Date] = &records[i]
	}

	skips, err := s.skipRepo.GetByUserIDAndDateRange(ctx, userID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get skip events: %w", err)
	}

	weeks := make([]models.WeekMetrics, 0, len(rated))
	for _, r := range rated {
		weekStart := addDays(anchor, (r.WeekNumber-1)*7)
		weeks = append(weeks, buildWeekMetrics(r, weekStart, snapshots, recordsByDate, skips))
	}
	return weeks, nil
}

func buildWeekMetrics(
	rating models.OutcomeRating,
	weekStart string,
	snapshots map[string]models.ScoreSnapshot,
	recordsByDate map[string]*models.DailyRecord,
	skips []models.SkipEvent,
) models.WeekMetrics {
	weekEnd := addDays(weekStart, 6)

	metrics := models.WeekMetrics{
		WeekNumber: rating.WeekNumber,
		Rating:     rating.Rating,
	}

	var total float64
	for i := 0; i < 7; i++ {
		date := addDays(weekStart, i)
		if snap, ok := snapshots[date]; ok {
			total += snap.DailyScore
		}
		if rec, ok := recordsByDate[date]; ok {
			if rec.Sessions.Morning {
				metrics.MorningDaysCompleted++
			}
			if rec.Sessions.Evening {
				metrics.EveningDaysCompleted++
			}
			if rec.Sessions.Exercises {
				metrics.ExerciseDaysComplete++
			}
		}
	}
	metrics.ConsistencyScore = round1(total / 7)

	stepCounts := make(map[string]int)
	order := make([]string, 0)
	for _, ev := range skips {
		if ev.Date < weekStart || ev.Date > weekEnd {
			continue
		}
		switch ev.Kind {
		case models.SkipKindTimer:
			metrics.TimerSkips++
		case models.SkipKindStep:
			metrics.StepsSkipped++
			if _, seen := stepCounts[ev.StepID]; !seen {
				order = append(order, ev.StepID)
			}
			stepCounts[ev.StepID]++
		}
	}

	for _, id := range order {
		if metrics.MostSkippedStepID == "" || stepCounts[id] > metrics.MostSkippedCount {
			metrics.MostSkippedStepID = id
			metrics.MostSkippedCount = stepCounts[id]
		}
	}

	return metrics
}
