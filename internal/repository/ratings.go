package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/pkg/supabase"
)

type outcomeRatingRepository struct {
	client *supabase.Client
}

// NewOutcomeRatingRepository creates a new outcome rating repository
func NewOutcomeRatingRepository(client *supabase.Client) OutcomeRatingRepository {
	return &outcomeRatingRepository{client: client}
}

func (r *outcomeRatingRepository) GetByUserID(ctx context.Context, userID string) ([]models.OutcomeRating, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"order":   "week_number.asc",
	}

	body, err := r.client.Query("outcome_ratings", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome ratings: %w", err)
	}

	var ratings []models.OutcomeRating
	if err := json.Unmarshal(body, &ratings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return ratings, nil
}
