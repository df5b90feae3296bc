package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/pkg/supabase"
)

type skipEventRepository struct {
	client *supabase.Client
}

// NewSkipEventRepository creates a new skip event repository
func NewSkipEventRepository(client *supabase.Client) SkipEventRepository {
	return &skipEventRepository{client: client}
}

func (r *skipEventRepository) Append(ctx context.Context, event *models.SkipEvent) (*models.SkipEvent, error) {
	data := map[string]interface{}{
		"user_id":   event.UserID,
		"kind":      event.Kind,
		"date":      event.Date,
		"step_id":   event.StepID,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}

	if event.Kind == models.SkipKindTimer {
		data["timer_duration_seconds"] = event.TimerDurationSeconds
	}

	body, err := r.client.Insert("skip_events", data)
	if err != nil {
		return nil, fmt.Errorf("failed to append skip event: %w", err)
	}

	var events []models.SkipEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("no skip event returned")
	}

	return &events[0], nil
}

func (r *skipEventRepository) GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.SkipEvent, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"date":    fmt.Sprintf("gte.%s", startDate),
		"and":     fmt.Sprintf("(date.lte.%s)", endDate),
		"select":  "*",
		"order":   "timestamp.asc",
	}

	body, err := r.client.Query("skip_events", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get skip events: %w", err)
	}

	var events []models.SkipEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return events, nil
}
