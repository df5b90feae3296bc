package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/pkg/supabase"
)

type sessionStartRepository struct {
	client *supabase.Client
}

// NewSessionStartRepository creates a new session start repository
func NewSessionStartRepository(client *supabase.Client) SessionStartRepository {
	return &sessionStartRepository{client: client}
}

func (r *sessionStartRepository) Append(ctx context.Context, start *models.SessionStart) (*models.SessionStart, error) {
	data := map[string]interface{}{
		"user_id":    start.UserID,
		"section":    start.Section,
		"date":       start.Date,
		"started_at": start.StartedAt.Format(time.RFC3339),
	}

	body, err := r.client.Insert("session_starts", data)
	if err != nil {
		return nil, fmt.Errorf("failed to append session start: %w", err)
	}

	var starts []models.SessionStart
	if err := json.Unmarshal(body, &starts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(starts) == 0 {
		return nil, fmt.Errorf("no session start returned")
	}

	return &starts[0], nil
}

func (r *sessionStartRepository) GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.SessionStart, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"date":    fmt.Sprintf("gte.%s", startDate),
		"and":     fmt.Sprintf("(date.lte.%s)", endDate),
		"select":  "*",
		"order":   "started_at.asc",
	}

	body, err := r.client.Query("session_starts", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get session starts: %w", err)
	}

	var starts []models.SessionStart
	if err := json.Unmarshal(body, &starts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return starts, nil
}
