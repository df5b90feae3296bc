package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/worker"
)

// mockProfileRepository is a mock implementation of ProfileRepository for testing
type mockProfileRepository struct {
	profiles map[string]*models.RoutineProfile
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{profiles: make(map[string]*models.RoutineProfile)}
}

func (m *mockProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.RoutineProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, nil
}

// mockDailyRecordRepository is a mock implementation of DailyRecordRepository
type mockDailyRecordRepository struct {
	records     map[string]*models.DailyRecord // userID|date -> record
	upsertCalls int
}

func newMockDailyRecordRepository() *mockDailyRecordRepository {
	return &mockDailyRecordRepository{records: make(map[string]*models.DailyRecord)}
}

func recordKey(userID, date string) string {
	return userID + "|" + date
}

func (m *mockDailyRecordRepository) GetByUserIDAndDate(ctx context.Context, userID, date string) (*models.DailyRecord, error) {
	if r, ok := m.records[recordKey(userID, date)]; ok {
		return r, nil
	}
	return nil, nil
}

func (m *mockDailyRecordRepository) GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.DailyRecord, error) {
	var result []models.DailyRecord
	for _, r := range m.records {
		if r.UserID == userID && r.Date >= startDate && r.Date <= endDate {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockDailyRecordRepository) Upsert(ctx context.Context, record *models.DailyRecord) (*models.DailyRecord, error) {
	m.upsertCalls++
	record.UpdatedAt = time.Now()
	m.records[recordKey(record.UserID, record.Date)] = record
	return record, nil
}

// mockSkipEventRepository is a mock implementation of SkipEventRepository
type mockSkipEventRepository struct {
	events []models.SkipEvent
}

func newMockSkipEventRepository() *mockSkipEventRepository {
	return &mockSkipEventRepository{}
}

func (m *mockSkipEventRepository) Append(ctx context.Context, event *models.SkipEvent) (*models.SkipEvent, error) {
	if event.ID == "" {
		event.ID = generateMockID()
	}
	m.events = append(m.events, *event)
	return event, nil
}

func (m *mockSkipEventRepository) GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.SkipEvent, error) {
	var result []models.SkipEvent
	for _, ev := range m.events {
		if ev.UserID == userID && ev.Date >= startDate && ev.Date <= endDate {
			result = append(result, ev)
		}
	}
	return result, nil
}

// mockOutcomeRatingRepository is a mock implementation of OutcomeRatingRepository
type mockOutcomeRatingRepository struct {
	ratings []models.OutcomeRating
}

func newMockOutcomeRatingRepository() *mockOutcomeRatingRepository {
	return &mockOutcomeRatingRepository{}
}

func (m *mockOutcomeRatingRepository) GetByUserID(ctx context.Context, userID string) ([]models.OutcomeRating, error) {
	var result []models.OutcomeRating
	for _, r := range m.ratings {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

// mockSessionStartRepository is a mock implementation of SessionStartRepository
type mockSessionStartRepository struct {
	starts []models.SessionStart
}

func newMockSessionStartRepository() *mockSessionStartRepository {
	return &mockSessionStartRepository{}
}

func (m *mockSessionStartRepository) Append(ctx context.Context, start *models.SessionStart) (*models.SessionStart, error) {
	if start.ID == "" {
		start.ID = generateMockID()
	}
	m.starts = append(m.starts, *start)
	return start, nil
}

func (m *mockSessionStartRepository) GetByUserIDAndDateRange(ctx context.Context, userID, startDate, endDate string) ([]models.SessionStart, error) {
	var result []models.SessionStart
	for _, st := range m.starts {
		if st.UserID == userID && st.Date >= startDate && st.Date <= endDate {
			result = append(result, st)
		}
	}
	return result, nil
}

// mockStreakStateRepository is a mock implementation of StreakStateRepository
type mockStreakStateRepository struct {
	states      map[string]*models.StreakState
	upsertCalls int
	getErr      error
}

func newMockStreakStateRepository() *mockStreakStateRepository {
	return &mockStreakStateRepository{states: make(map[string]*models.StreakState)}
}

func (m *mockStreakStateRepository) GetByUserID(ctx context.Context, userID string) (*models.StreakState, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if s, ok := m.states[userID]; ok {
		return s, nil
	}
	return nil, nil
}

func (m *mockStreakStateRepository) Upsert(ctx context.Context, state *models.StreakState) (*models.StreakState, error) {
	m.upsertCalls++
	state.UpdatedAt = time.Now()
	m.states[state.UserID] = state
	return state, nil
}

// mockTaskQueue records submitted tasks without running them.
type mockTaskQueue struct {
	submitted []string
}

func (m *mockTaskQueue) Submit(task worker.Task) bool {
	m.submitted = append(m.submitted, task.Name)
	return true
}

// Helper to generate mock IDs
var mockIDCounter int

func generateMockID() string {
	mockIDCounter++
	return fmt.Sprintf("mock-id-%d", mockIDCounter)
}

func strPtr(s string) *string {
	return &s
}

func mustTime(date string, hour, minute int) time.Time {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, time.UTC)
}

// setToday pins the clock for the duration of a test.
func setToday(date string) func() {
	prev := todayFunc
	todayFunc = func() time.Time {
		t, _ := time.Parse(models.DateLayout, date)
		return t
	}
	return func() { todayFunc = prev }
}
