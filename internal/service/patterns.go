package service

import (
	"fmt"
	"math"

	"github.com/ritualhq/ritual/backend/internal/models"
)

// ComputeDayPattern averages daily scores by weekday over the snapshot set
// and converts them to 0-100 percentages. Weekdays with no scored days are
// excluded, not treated as 0%.
func ComputeDayPattern(snapshots map[string]models.ScoreSnapshot) models.DayPattern {
	sums := make([]float64, 7)
	counts := make([]int, 7)

	for date, snap := range snapshots {
		t, err := parseDate(date)
		if err != nil {
			continue
		}
		dow := int(t.Weekday())
		sums[dow] += snap.DailyScore
		counts[dow]++
	}

	pattern := models.DayPattern{
		AveragesByDay:  make(map[string]float64),
		DaysWithScores: len(snapshots),
	}

	hardest, best := -1, -1
	var hardestPct, bestPct float64

	for dow := 0; dow < 7; dow++ {
		if counts[dow] == 0 {
			continue
		}
		pct := round1(sums[dow] / float64(counts[dow]) * 10)
		pattern.AveragesByDay[weekdayNames[dow]] = pct

		if hardest == -1 || pct < hardestPct {
			hardest = dow
			hardestPct = pct
		}
		if best == -1 || pct > bestPct {
			best = dow
			bestPct = pct
		}
	}

	if hardest >= 0 {
		pattern.HardestDay = weekdayNames[hardest]
		pattern.BestDay = weekdayNames[best]
		pattern.HasEnoughData = true
	}

	return pattern
}

// parseClockTime converts "HH:MM" to minutes since midnight.
func parseClockTime(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hh*60 + mm, nil
}

func formatClockTime(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ComputeSessionTiming compares the average actual start time of a session
// against its configured notification time. An evening routine logged just
// after midnight belongs to the following calendar day: when the configured
// time is in the evening and the average start is very early morning, or
// the same-day discrepancy exceeds 12 hours, 24h is added to the actual
// time before differencing.
func ComputeSessionTiming(section models.Section, configured string, starts []models.SessionStart) (*models.SessionTiming, error) {
	configuredMinutes, err := parseClockTime(configured)
	if err != nil {
		return nil, err
	}

	total := 0
	count := 0
	for _, st := range starts {
		if st.Section != section {
			continue
		}
		total += st.StartedAt.Hour()*60 + st.StartedAt.Minute()
		count++
	}
	if count == 0 {
		return nil, nil
	}

	avg := total / count
	adjusted := avg

	const (
		eveningStart = 18 * 60
		earlyMorning = 6 * 60
		halfDay      = 12 * 60
	)
	if (configuredMinutes >= eveningStart && avg < earlyMorning) ||
		int(math.Abs(float64(avg-configuredMinutes))) > halfDay {
		adjusted += 24 * 60
	}

	discrepancy := int(math.Abs(float64(adjusted - configuredMinutes)))

	return &models.SessionTiming{
		Section:            section,
		ConfiguredTime:     formatClockTime(configuredMinutes),
		AverageActualTime:  formatClockTime(avg),
		DiscrepancyMinutes: discrepancy,
		SampleCount:        count,
	}, nil
}
