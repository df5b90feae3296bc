package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/pkg/supabase"
)

type profileRepository struct {
	client *supabase.Client
}

// NewProfileRepository creates a new routine profile repository
func NewProfileRepository(client *supabase.Client) ProfileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.RoutineProfile, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"limit":   "1",
	}

	body, err := r.client.Query("routine_profiles", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get routine profile: %w", err)
	}

	var profiles []models.RoutineProfile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// Missing profile degrades to defaults in the service layer
	if len(profiles) == 0 {
		return nil, nil
	}

	return &profiles[0], nil
}
