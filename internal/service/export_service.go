package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/models"
	appErrors "github.com/shiftwise/shiftwise-api/pkg/errors"
	"github.com/shiftwise/shiftwise-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportResult is a rendered schedule document.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders canonical schedules into downloadable documents.
type ExportService struct {
	csv    tableRenderer
	pdf    tableRenderer
	logger *zap.Logger
}

// NewExportService constructs the exporter with the default renderers.
func NewExportService(logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Export renders a schedule in the requested format.
func (s *ExportService) Export(schedule *models.CanonicalSchedule, format string) (*ExportResult, error) {
	if schedule == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no schedule to export")
	}

	table := scheduleTable(schedule)

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case ExportFormatCSV, "":
		format = ExportFormatCSV
		contentType = "text/csv"
		data, err = s.csv.Render(table)
	case ExportFormatPDF:
		contentType = "application/pdf"
		data, err = s.pdf.Render(table)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}

	s.logger.Info("rendered schedule export",
		zap.String("schedule_id", schedule.ID),
		zap.String("format", format),
		zap.Int("bytes", len(data)))

	return &ExportResult{
		Filename:    fmt.Sprintf("schedule_%s_%s.%s", schedule.WeekStartDate, schedule.WeekEndDate, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// scheduleTable flattens a weekday assignment map into one row per
// department-day, in calendar order.
func scheduleTable(schedule *models.CanonicalSchedule) export.Table {
	dates := weekdayDates(schedule.WeekStartDate, schedule.WeekEndDate)

	rows := make([][]string, 0, len(schedule.Days)*2)
	for _, day := range models.WeekdayOrder {
		assignments, ok := schedule.Days[day]
		if !ok {
			continue
		}
		if len(assignments) == 0 {
			rows = append(rows, []string{day, dates[day], "", "0", ""})
			continue
		}
		sorted := append([]models.DepartmentAssignment(nil), assignments...)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].DepartmentName < sorted[j].DepartmentName
		})
		for _, assignment := range sorted {
			names := make([]string, 0, len(assignment.AssignedWorkers))
			for _, worker := range assignment.AssignedWorkers {
				names = append(names, worker.WorkerName)
			}
			rows = append(rows, []string{
				day,
				dates[day],
				assignment.DepartmentName,
				fmt.Sprintf("%d", len(assignment.AssignedWorkers)),
				strings.Join(names, ", "),
			})
		}
	}

	return export.Table{
		Title:   fmt.Sprintf("Schedule %s - %s", schedule.WeekStartDate, schedule.WeekEndDate),
		Headers: []string{"Day", "Date", "Department", "Assigned", "Workers"},
		Rows:    rows,
	}
}

// weekdayDates maps each weekday key to the first date it falls on inside the
// range.
func weekdayDates(startDate, endDate string) map[string]string {
	dates := make(map[string]string, len(models.WeekdayOrder))
	start, errStart := time.Parse(models.DateLayout, startDate)
	end, errEnd := time.Parse(models.DateLayout, endDate)
	if errStart != nil || errEnd != nil {
		return dates
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := models.WeekdayKey(d)
		if _, seen := dates[key]; !seen {
			dates[key] = d.Format(models.DateLayout)
		}
	}
	return dates
}
