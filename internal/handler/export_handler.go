package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/shiftwise-api/internal/models"
	"github.com/shiftwise/shiftwise-api/internal/service"
	"github.com/shiftwise/shiftwise-api/pkg/response"
)

type latestScheduleReader interface {
	Latest(ctx context.Context, businessID string) (*models.CanonicalSchedule, error)
}

// ExportHandler serves downloadable schedule documents.
type ExportHandler struct {
	schedules latestScheduleReader
	exporter  *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(schedules latestScheduleReader, exporter *service.ExportService) *ExportHandler {
	return &ExportHandler{schedules: schedules, exporter: exporter}
}

// ExportLatest renders the business's most recent schedule as CSV or PDF.
func (h *ExportHandler) ExportLatest(c *gin.Context) {
	schedule, err := h.schedules.Latest(c.Request.Context(), c.Param("businessId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.exporter.Export(schedule, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
