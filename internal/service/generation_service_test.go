package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
	appErrors "github.com/shiftwise/shiftwise-api/pkg/errors"
)

type mockDepartmentLister struct {
	docs []models.DepartmentDocument
	err  error
}

func (m *mockDepartmentLister) ListByBusiness(ctx context.Context, businessID string) ([]models.DepartmentDocument, error) {
	return m.docs, m.err
}

type mockPreferenceLister struct {
	docs []models.PreferenceDocument
	err  error
}

func (m *mockPreferenceLister) ListByBusiness(ctx context.Context, businessID string) ([]models.PreferenceDocument, error) {
	return m.docs, m.err
}

type mockAbsenceLister struct {
	events []models.AbsenceEvent
	err    error
}

func (m *mockAbsenceLister) ListByBusiness(ctx context.Context, businessID string) ([]models.AbsenceEvent, error) {
	return m.events, m.err
}

type mockScheduleLister struct {
	records []models.ScheduleRecord
	err     error
}

func (m *mockScheduleLister) ListCurrent(ctx context.Context, businessID, fromDate string) ([]models.ScheduleRecord, error) {
	return m.records, m.err
}

type mockLatestCache struct {
	schedule *models.CanonicalSchedule
	err      error
}

func (m *mockLatestCache) GetLatest(ctx context.Context, businessID string) (*models.CanonicalSchedule, error) {
	return m.schedule, m.err
}

type mockSubmitter struct {
	raw      json.RawMessage
	err      error
	captured *models.ScheduleRequest
	release  chan struct{}
}

func (m *mockSubmitter) Submit(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	m.captured = payload.(*models.ScheduleRequest)
	if m.release != nil {
		<-m.release
	}
	return m.raw, m.err
}

type mockPersister struct {
	persisted []*models.CanonicalSchedule
	err       error
}

func (m *mockPersister) PersistAsync(schedule *models.CanonicalSchedule) error {
	if m.err != nil {
		return m.err
	}
	m.persisted = append(m.persisted, schedule)
	return nil
}

// futureWeek returns the Monday at least a week out and the following Friday.
func futureWeek() (string, string) {
	d := time.Now().AddDate(0, 0, 7)
	for models.WeekdayKey(d) != models.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format(models.DateLayout), d.AddDate(0, 0, 4).Format(models.DateLayout)
}

func singleDepartmentDocs(required int) []models.DepartmentDocument {
	payload := fmt.Sprintf(`{
		"department_id": "dept-1",
		"department_name": "Kitchen",
		"required_staff_count": %d,
		"work_hours": {"Mon": true, "Tue": true, "Wed": true, "Thu": true, "Fri": true}
	}`, required)
	return []models.DepartmentDocument{{ID: "doc-dept-1", BusinessID: "biz-1", Payload: types.JSONText(payload)}}
}

func fullyAvailableWorkers(ids ...string) []models.PreferenceDocument {
	docs := make([]models.PreferenceDocument, 0, len(ids))
	for _, id := range ids {
		payload := fmt.Sprintf(`{
			"employee_id": %q,
			"employee_name": "Worker %s",
			"daily_preferences": {
				"Mon": {"selected_departments": ["dept-1"]},
				"Tue": {"selected_departments": ["dept-1"]},
				"Wed": {"selected_departments": ["dept-1"]},
				"Thu": {"selected_departments": ["dept-1"]},
				"Fri": {"selected_departments": ["dept-1"]}
			}
		}`, id, id)
		docs = append(docs, models.PreferenceDocument{ID: "doc-" + id, BusinessID: "biz-1", Payload: types.JSONText(payload)})
	}
	return docs
}

func remoteWeekResponse(workers ...string) json.RawMessage {
	assigned := make([]map[string]string, 0, len(workers))
	for _, id := range workers {
		assigned = append(assigned, map[string]string{"worker_id": id})
	}
	days := make(map[string]interface{})
	for _, day := range []string{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday} {
		days[day] = []map[string]interface{}{{
			"department_id":      "dept-1",
			"department_name":    "Kitchen",
			"assigned_employees": assigned,
		}}
	}
	raw, _ := json.Marshal(map[string]interface{}{"schedule": days})
	return raw
}

func newTestGeneration(remote *mockSubmitter, persister *mockPersister, prefs []models.PreferenceDocument, absences []models.AbsenceEvent) *GenerationService {
	return NewGenerationService(GenerationDeps{
		Departments: &mockDepartmentLister{docs: singleDepartmentDocs(2)},
		Preferences: &mockPreferenceLister{docs: prefs},
		Absences:    &mockAbsenceLister{events: absences},
		Schedules:   &mockScheduleLister{},
		Remote:      remote,
		Persister:   persister,
	}, nil, nil)
}

func TestGenerateEndToEnd(t *testing.T) {
	start, end := futureWeek()
	remote := &mockSubmitter{raw: remoteWeekResponse("wrk-a", "wrk-b")}
	persister := &mockPersister{}
	svc := newTestGeneration(remote, persister, fullyAvailableWorkers("wrk-a", "wrk-b", "wrk-c"), nil)

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		BusinessID:    "biz-1",
		WeekStartDate: start,
		WeekEndDate:   end,
	})
	require.NoError(t, err)

	// One department requiring 2 staff across 5 working days.
	assert.Equal(t, 10, resp.Feasibility.TotalRequiredStaff)
	assert.Equal(t, 2, resp.Feasibility.MinDailyRequirement)
	assert.Equal(t, 3, resp.Feasibility.AvailableWorkers)
	assert.Equal(t, dto.FeasibilityOK, resp.Feasibility.Status)

	require.NotNil(t, remote.captured)
	assert.Len(t, remote.captured.DepartmentStaffing, 1)
	assert.Len(t, remote.captured.EmployeePreferences, 3)
	assert.False(t, remote.captured.Constraints.AutoAdjustConstraints)

	require.NotNil(t, resp.Schedule)
	assert.Len(t, resp.Schedule.Days, 5)
	assert.Equal(t, "biz-1", resp.Schedule.BusinessID)

	require.NotNil(t, resp.Quality)
	assert.Equal(t, 1, resp.Quality.UniquePatterns)
	assert.True(t, resp.Quality.Repeating)

	require.Len(t, persister.persisted, 1)
	assert.Equal(t, resp.Schedule.ID, persister.persisted[0].ID)
}

func TestGenerateAppliesAbsences(t *testing.T) {
	start, end := futureWeek()
	startDate, _ := time.Parse(models.DateLayout, start)
	absenceDate := startDate.AddDate(0, 0, 1).Format(models.DateLayout)

	remote := &mockSubmitter{raw: remoteWeekResponse("wrk-b", "wrk-c")}
	svc := newTestGeneration(remote, &mockPersister{}, fullyAvailableWorkers("wrk-a", "wrk-b", "wrk-c"), []models.AbsenceEvent{
		{ID: "abs-1", BusinessID: "biz-1", WorkerID: "wrk-a", Date: absenceDate, Status: models.AbsenceStatusConfirmed, Reason: "sick"},
	})

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		BusinessID:    "biz-1",
		WeekStartDate: start,
		WeekEndDate:   end,
	})
	require.NoError(t, err)

	var affected *models.EmployeePreferenceRecord
	for i := range remote.captured.EmployeePreferences {
		if remote.captured.EmployeePreferences[i].WorkerID == "wrk-a" {
			affected = &remote.captured.EmployeePreferences[i]
		}
	}
	require.NotNil(t, affected)
	// fully available scores cap at 10; one absence day costs 2
	assert.Equal(t, 8, affected.AvailabilityScore)
	assert.Equal(t, []string{absenceDate}, affected.UnavailableDates)

	require.Len(t, remote.captured.Constraints.Absences, 1)
	assert.Equal(t, absenceDate, remote.captured.Constraints.Absences[0].Date)
	assert.Equal(t, []string{"wrk-a"}, remote.captured.Constraints.Absences[0].UnavailableWorkers)

	found := false
	for _, d := range resp.Diagnostics {
		if d.Kind == dto.DiagnosticAbsenceApplied && d.WorkerID == "wrk-a" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateUnderstaffedRequiresConfirmation(t *testing.T) {
	start, end := futureWeek()
	remote := &mockSubmitter{raw: remoteWeekResponse("wrk-a")}
	svc := newTestGeneration(remote, &mockPersister{}, fullyAvailableWorkers("wrk-a"), nil)

	req := dto.GenerateScheduleRequest{
		BusinessID:    "biz-1",
		WeekStartDate: start,
		WeekEndDate:   end,
	}

	resp, err := svc.Generate(context.Background(), req)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnderstaffed))
	require.NotNil(t, resp)
	assert.Nil(t, resp.Schedule)
	assert.Equal(t, dto.FeasibilityUnderstaffed, resp.Feasibility.Status)
	assert.Nil(t, remote.captured)

	// Confirming proceeds with the relaxation flag set.
	req.ConfirmUnderstaffed = true
	resp, err = svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.Schedule)
	require.NotNil(t, remote.captured)
	assert.True(t, remote.captured.Constraints.AutoAdjustConstraints)
}

func TestGenerateRejectsReentrantTrigger(t *testing.T) {
	start, end := futureWeek()
	remote := &mockSubmitter{raw: remoteWeekResponse("wrk-a", "wrk-b"), release: make(chan struct{})}
	svc := newTestGeneration(remote, &mockPersister{}, fullyAvailableWorkers("wrk-a", "wrk-b", "wrk-c"), nil)

	req := dto.GenerateScheduleRequest{
		BusinessID:    "biz-1",
		WeekStartDate: start,
		WeekEndDate:   end,
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), req)
		done <- err
	}()

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.inflight["biz-1"] == phaseSubmitting
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Generate(context.Background(), req)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCycleInFlight))

	// A different business is unaffected by biz-1's in-flight cycle.
	other := newTestGeneration(&mockSubmitter{raw: remoteWeekResponse("wrk-a", "wrk-b")}, &mockPersister{}, fullyAvailableWorkers("wrk-a", "wrk-b", "wrk-c"), nil)
	otherReq := req
	otherReq.BusinessID = "biz-2"
	_, err = other.Generate(context.Background(), otherReq)
	assert.NoError(t, err)

	close(remote.release)
	require.NoError(t, <-done)

	// The slot frees once the cycle completes.
	_, err = svc.Generate(context.Background(), req)
	assert.NoError(t, err)
}

func TestGenerateValidation(t *testing.T) {
	svc := newTestGeneration(&mockSubmitter{}, &mockPersister{}, fullyAvailableWorkers("wrk-a"), nil)

	t.Run("missing business id", func(t *testing.T) {
		_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
			WeekStartDate: "2025-08-18",
			WeekEndDate:   "2025-08-22",
		})
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
			BusinessID:    "biz-1",
			WeekStartDate: "18/08/2025",
			WeekEndDate:   "2025-08-22",
		})
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	})

	t.Run("past start date", func(t *testing.T) {
		_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
			BusinessID:    "biz-1",
			WeekStartDate: "2020-01-06",
			WeekEndDate:   "2020-01-10",
		})
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	})
}

func TestGenerateRemoteFailure(t *testing.T) {
	start, end := futureWeek()
	remote := &mockSubmitter{err: appErrors.ErrRemoteUnavailable}
	svc := newTestGeneration(remote, &mockPersister{}, fullyAvailableWorkers("wrk-a", "wrk-b", "wrk-c"), nil)

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		BusinessID:    "biz-1",
		WeekStartDate: start,
		WeekEndDate:   end,
	})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrRemoteUnavailable))
}

func TestGeneratePersistFailureIsSoft(t *testing.T) {
	start, end := futureWeek()
	remote := &mockSubmitter{raw: remoteWeekResponse("wrk-a")}
	persister := &mockPersister{err: fmt.Errorf("queue full")}
	svc := newTestGeneration(remote, persister, fullyAvailableWorkers("wrk-a", "wrk-b", "wrk-c"), nil)

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		BusinessID:    "biz-1",
		WeekStartDate: start,
		WeekEndDate:   end,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Schedule)

	found := false
	for _, d := range resp.Diagnostics {
		if d.Kind == dto.DiagnosticPersistFailure {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLatestPrefersCache(t *testing.T) {
	cached := &models.CanonicalSchedule{ID: "sch-1", BusinessID: "biz-1"}
	svc := NewGenerationService(GenerationDeps{
		Cache:     &mockLatestCache{schedule: cached},
		Schedules: &mockScheduleLister{},
	}, nil, nil)

	got, err := svc.Latest(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestLatestFallsBackToStore(t *testing.T) {
	payload, _ := json.Marshal(models.CanonicalSchedule{ID: "sch-2", BusinessID: "biz-1"})
	svc := NewGenerationService(GenerationDeps{
		Cache: &mockLatestCache{},
		Schedules: &mockScheduleLister{records: []models.ScheduleRecord{
			{ID: "sch-2", BusinessID: "biz-1", Payload: types.JSONText(payload)},
		}},
	}, nil, nil)

	got, err := svc.Latest(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "sch-2", got.ID)
}

func TestLatestNotFound(t *testing.T) {
	svc := NewGenerationService(GenerationDeps{
		Cache:     &mockLatestCache{},
		Schedules: &mockScheduleLister{},
	}, nil, nil)

	_, err := svc.Latest(context.Background(), "biz-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
