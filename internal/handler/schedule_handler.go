package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
	appErrors "github.com/shiftwise/shiftwise-api/pkg/errors"
	"github.com/shiftwise/shiftwise-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	Latest(ctx context.Context, businessID string) (*models.CanonicalSchedule, error)
	ListCurrent(ctx context.Context, businessID string) ([]models.ScheduleRecord, error)
}

// ScheduleHandler manages schedule generation and retrieval endpoints.
type ScheduleHandler struct {
	service scheduleGenerator
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleGenerator) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate runs one generation cycle for a business. An understaffed
// compilation comes back as 412 with the feasibility report attached, so the
// client can prompt for confirmation and retry with confirm_understaffed.
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrUnderstaffed) && resp != nil {
			appErr := appErrors.FromError(err)
			c.JSON(appErr.Status, response.Envelope{
				Data: gin.H{
					"feasibility": resp.Feasibility,
					"diagnostics": resp.Diagnostics,
					"detail": dto.UnderstaffedDetail{
						MinDailyRequirement: resp.Feasibility.MinDailyRequirement,
						AvailableWorkers:    resp.Feasibility.AvailableWorkers,
						TotalRequiredStaff:  resp.Feasibility.TotalRequiredStaff,
					},
				},
				Error: appErr,
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// ListCurrent returns the stored schedules whose range has not fully passed.
func (h *ScheduleHandler) ListCurrent(c *gin.Context) {
	records, err := h.service.ListCurrent(c.Request.Context(), c.Param("businessId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"count": len(records)})
}

// Latest returns the most recent schedule for a business.
func (h *ScheduleHandler) Latest(c *gin.Context) {
	schedule, err := h.service.Latest(c.Request.Context(), c.Param("businessId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule)
}
