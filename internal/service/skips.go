package service

import (
	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/plan"
)

// AggregateSkips counts and ranks the skip events of a date range. The
// events are assumed to be range-filtered already. Ties for most-skipped
// resolve to the first-seen step, so the ranking is stable.
func AggregateSkips(events []models.SkipEvent, catalog *plan.Catalog) models.SkipSummary {
	summary := models.SkipSummary{}

	stepCounts := make(map[string]int)
	firstSeen := make([]string, 0)

	for _, ev := range events {
		switch ev.Kind {
		case models.SkipKindTimer:
			summary.TimerSkips++
		case models.SkipKindStep:
			summary.ProductSkips++
			if _, seen := stepCounts[ev.StepID]; !seen {
				firstSeen = append(firstSeen, ev.StepID)
			}
			stepCounts[ev.StepID]++
		case models.SkipKindExerciseEnd:
			summary.ExerciseEarlyEnds++
		}
	}

	for _, stepID := range firstSeen {
		if !catalog.IsProduct(stepID) {
			continue
		}
		summary.SkippedProducts = append(summary.SkippedProducts, models.SkippedProduct{
			StepID:      stepID,
			DisplayName: catalog.DisplayName(stepID),
			Count:       stepCounts[stepID],
		})
	}

	var most *models.SkippedProduct
	for _, stepID := range firstSeen {
		if most == nil || stepCounts[stepID] > most.Count {
			most = &models.SkippedProduct{
				StepID:      stepID,
				DisplayName: catalog.DisplayName(stepID),
				Count:       stepCounts[stepID],
			}
		}
	}
	summary.MostSkippedStep = most

	return summary
}

// EstimatorParams are the named constants of the time-vs-effectiveness
// model. They come from configuration, not measurement; the whole model is
// explicitly approximate.
type EstimatorParams struct {
	TimerSkipSeconds         int
	ProductSkipSeconds       int
	TimerSkipWeightPercent   float64
	ExerciseEndWeightPercent float64
	ApplicationPoints        float64
}

// EstimateTimeEffectiveness converts skip counts into minutes saved and
// percentage effectiveness lost over a period of daysInPeriod days.
func EstimateTimeEffectiveness(
	summary models.SkipSummary,
	activeSteps []plan.Step,
	daysInPeriod int,
	params EstimatorParams,
) models.TimeEffectiveness {
	if daysInPeriod < 1 {
		daysInPeriod = 1
	}

	products := plan.CountProducts(activeSteps)
	exercises := plan.CountExercises(activeSteps)
	avgExerciseMinutes := plan.AvgExerciseMinutes(activeSteps)

	secondsSaved := float64(summary.TimerSkips*params.TimerSkipSeconds) +
		float64(summary.ProductSkips*params.ProductSkipSeconds)
	minutesSaved := secondsSaved/60 + float64(summary.ExerciseEarlyEnds)*avgExerciseMinutes*0.5

	result := models.TimeEffectiveness{
		MinutesSaved: round1(minutesSaved),
	}

	// Each component caps the skip count at the possible opportunities in
	// the period, so a burst of skips cannot exceed its weight.
	if products > 0 {
		opportunities := float64(products * daysInPeriod)

		cappedTimer := float64(summary.TimerSkips)
		if cappedTimer > opportunities {
			cappedTimer = opportunities
		}
		result.TimerComponentPercent = round1(cappedTimer / opportunities * params.TimerSkipWeightPercent)

		idealPoints := opportunities * params.ApplicationPoints
		earnedPoints := idealPoints - float64(summary.ProductSkips)*params.ApplicationPoints
		if earnedPoints < 0 {
			earnedPoints = 0
		}
		result.ProductComponentPercent = round1(100 - earnedPoints/idealPoints*100)
	}

	if exercises > 0 {
		opportunities := float64(exercises * daysInPeriod)

		cappedEnds := float64(summary.ExerciseEarlyEnds)
		if cappedEnds > opportunities {
			cappedEnds = opportunities
		}
		result.ExerciseComponentPercent = round1(cappedEnds / opportunities * params.ExerciseEndWeightPercent)
	}

	total := result.TimerComponentPercent + result.ProductComponentPercent + result.ExerciseComponentPercent
	if total > 100 {
		total = 100
	}
	result.EffectivenessLostPercent = round1(total)

	return result
}
