package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/pkg/supabase"
)

type dailyRecordRepository struct {
	client *supabase.Client
}

// NewDailyRecordRepository creates a new daily record repository
func NewDailyRecordRepository(client *supabase.Client) DailyRecordRepository {
	return &dailyRecordRepository{client: client}
}

func (r *dailyRecordRepository) GetByUserIDAndDate(ctx context.Context, userID, date string) (*models.DailyRecord, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"date":    fmt.Sprintf("eq.%s", date),
		"select":  "*",
		"limit":   "1",
	}

	body, err := r.client.Query("daily_records", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}

	var records []models.DailyRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return &records[0], nil
}

func (r *dailyRecordRepository) GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.DailyRecord, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"date":    fmt.Sprintf("gte.%s", startDate),
		"and":     fmt.Sprintf("(date.lte.%s)", endDate),
		"select":  "*",
		"order":   "date.asc",
	}

	body, err := r.client.Query("daily_records", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily records: %w", err)
	}

	var records []models.DailyRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return records, nil
}

func (r *dailyRecordRepository) Upsert(ctx context.Context, record *models.DailyRecord) (*models.DailyRecord, error) {
	data := map[string]interface{}{
		"user_id":            record.UserID,
		"date":               record.Date,
		"day_of_week":        record.DayOfWeek,
		"completed_step_ids": record.CompletedStepIDs,
		"sessions":           record.Sessions,
		"all_completed":      record.AllCompleted,
	}

	body, err := r.client.Upsert("daily_records", data, "user_id,date")
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily record: %w", err)
	}

	var records []models.DailyRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no daily record returned")
	}

	return &records[0], nil
}
