package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
	appErrors "github.com/shiftwise/shiftwise-api/pkg/errors"
)

type generatorMock struct {
	captured    dto.GenerateScheduleRequest
	response    *dto.GenerateScheduleResponse
	generateErr error
	latest      *models.CanonicalSchedule
	latestErr   error
	records     []models.ScheduleRecord
}

func (m *generatorMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	m.captured = req
	return m.response, m.generateErr
}

func (m *generatorMock) Latest(ctx context.Context, businessID string) (*models.CanonicalSchedule, error) {
	return m.latest, m.latestErr
}

func (m *generatorMock) ListCurrent(ctx context.Context, businessID string) ([]models.ScheduleRecord, error) {
	return m.records, nil
}

func validGeneratePayload() []byte {
	return []byte(`{"business_id":"biz-1","week_start_date":"2025-08-18","week_end_date":"2025-08-22"}`)
}

func postGenerate(t *testing.T, handler *ScheduleHandler, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	handler.Generate(c)
	return w
}

func TestGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generatorMock{response: &dto.GenerateScheduleResponse{
		Schedule:    &models.CanonicalSchedule{ID: "sch-1", BusinessID: "biz-1"},
		Feasibility: dto.FeasibilityReport{Status: dto.FeasibilityOK},
	}}
	handler := NewScheduleHandler(mockSvc)

	w := postGenerate(t, handler, validGeneratePayload())

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "biz-1", mockSvc.captured.BusinessID)
	require.Equal(t, "2025-08-18", mockSvc.captured.WeekStartDate)

	var body struct {
		Data dto.GenerateScheduleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Schedule)
	require.Equal(t, "sch-1", body.Data.Schedule.ID)
}

func TestGenerateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&generatorMock{})

	w := postGenerate(t, handler, []byte(`{"business_id":`))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateUnderstaffedCarriesDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generatorMock{
		response: &dto.GenerateScheduleResponse{
			Feasibility: dto.FeasibilityReport{
				Status:              dto.FeasibilityUnderstaffed,
				MinDailyRequirement: 4,
				AvailableWorkers:    2,
				TotalRequiredStaff:  20,
			},
		},
		generateErr: appErrors.ErrUnderstaffed,
	}
	handler := NewScheduleHandler(mockSvc)

	w := postGenerate(t, handler, validGeneratePayload())

	require.Equal(t, http.StatusPreconditionFailed, w.Code)

	var body struct {
		Data struct {
			Detail dto.UnderstaffedDetail `json:"detail"`
		} `json:"data"`
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	require.Equal(t, appErrors.ErrUnderstaffed.Code, body.Error.Code)
	require.Equal(t, 4, body.Data.Detail.MinDailyRequirement)
	require.Equal(t, 2, body.Data.Detail.AvailableWorkers)
	require.Equal(t, 20, body.Data.Detail.TotalRequiredStaff)
}

func TestGenerateCycleInFlight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&generatorMock{generateErr: appErrors.ErrCycleInFlight})

	w := postGenerate(t, handler, validGeneratePayload())

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLatestNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&generatorMock{latestErr: appErrors.ErrNotFound})

	req, _ := http.NewRequest(http.MethodGet, "/businesses/biz-1/schedules/latest", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "businessId", Value: "biz-1"}}
	handler.Latest(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCurrent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&generatorMock{records: []models.ScheduleRecord{
		{ID: "sch-1", BusinessID: "biz-1"},
		{ID: "sch-2", BusinessID: "biz-1"},
	}})

	req, _ := http.NewRequest(http.MethodGet, "/businesses/biz-1/schedules", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "businessId", Value: "biz-1"}}
	handler.ListCurrent(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.ScheduleRecord `json:"data"`
		Meta map[string]interface{}  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.EqualValues(t, 2, body.Meta["count"])
}
