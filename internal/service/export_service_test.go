package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise-api/internal/models"
	appErrors "github.com/shiftwise/shiftwise-api/pkg/errors"
)

func exportableSchedule() *models.CanonicalSchedule {
	return &models.CanonicalSchedule{
		ID:            "sch-1",
		BusinessID:    "biz-1",
		WeekStartDate: "2025-08-18",
		WeekEndDate:   "2025-08-22",
		Days: map[string][]models.DepartmentAssignment{
			models.Monday: {{
				DepartmentID:   "dept-1",
				DepartmentName: "Kitchen",
				AssignedWorkers: []models.AssignedWorker{
					{WorkerID: "wrk-1", WorkerName: "Alice"},
					{WorkerID: "wrk-2", WorkerName: "Bob"},
				},
			}},
			models.Tuesday: {},
		},
	}
}

func TestExportCSV(t *testing.T) {
	svc := NewExportService(nil)

	result, err := svc.Export(exportableSchedule(), ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "schedule_2025-08-18_2025-08-22.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Date,Department,Assigned,Workers", lines[0])
	assert.Equal(t, `Mon,2025-08-18,Kitchen,2,"Alice, Bob"`, lines[1])
	assert.Equal(t, "Tue,2025-08-19,,0,", lines[2])
}

func TestExportDefaultsToCSV(t *testing.T) {
	svc := NewExportService(nil)

	result, err := svc.Export(exportableSchedule(), "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
}

func TestExportPDF(t *testing.T) {
	svc := NewExportService(nil)

	result, err := svc.Export(exportableSchedule(), ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewExportService(nil)

	_, err := svc.Export(exportableSchedule(), "xlsx")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestExportNilSchedule(t *testing.T) {
	svc := NewExportService(nil)

	_, err := svc.Export(nil, ExportFormatCSV)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
