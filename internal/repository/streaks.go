package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/pkg/supabase"
)

type streakStateRepository struct {
	client *supabase.Client
}

// NewStreakStateRepository creates a new streak state repository
func NewStreakStateRepository(client *supabase.Client) StreakStateRepository {
	return &streakStateRepository{client: client}
}

func (r *streakStateRepository) GetByUserID(ctx context.Context, userID string) (*models.StreakState, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"limit":   "1",
	}

	body, err := r.client.Query("streak_stats", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak state: %w", err)
	}

	var states []models.StreakState
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(states) == 0 {
		return nil, nil
	}

	return &states[0], nil
}

func (r *streakStateRepository) Upsert(ctx context.Context, state *models.StreakState) (*models.StreakState, error) {
	data := map[string]interface{}{
		"user_id":               state.UserID,
		"current_streak":        state.CurrentStreak,
		"best_streak":           state.BestStreak,
		"total_qualifying_days": state.TotalQualifyingDays,
		"computed_at":           state.ComputedAt.Format(time.RFC3339),
	}

	body, err := r.client.Upsert("streak_stats", data, "user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to upsert streak state: %w", err)
	}

	var states []models.StreakState
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(states) == 0 {
		return nil, fmt.Errorf("no streak state returned")
	}

	return &states[0], nil
}
