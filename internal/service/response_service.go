package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
	"github.com/shiftwise/shiftwise-api/pkg/errors"
)

// ResponseService decodes the remote scheduling service's response into a
// canonical per-weekday assignment map. The remote contract has drifted over
// time, so decoding walks a fixed list of known envelope shapes and takes the
// first structurally valid candidate.
type ResponseService struct {
	logger *zap.Logger
}

// NewResponseService constructs the normaliser.
func NewResponseService(logger *zap.Logger) *ResponseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseService{logger: logger}
}

// envelope covers every known top-level response wrapping.
type envelope struct {
	Schedule          json.RawMessage   `json:"schedule"`
	Schedules         []json.RawMessage `json:"schedules"`
	Data              []json.RawMessage `json:"data"`
	Results           []json.RawMessage `json:"results"`
	GeneratedSchedule json.RawMessage   `json:"generated_schedule"`
}

// schedulePayload is one candidate schedule body. Day content may sit under
// schedule_data or directly under weekday keys at the top level.
type schedulePayload struct {
	WeekStartDate string                     `json:"week_start_date"`
	WeekEndDate   string                     `json:"week_end_date"`
	StartDate     string                     `json:"start_date"`
	EndDate       string                     `json:"end_date"`
	ScheduleData  map[string]json.RawMessage `json:"schedule_data"`
}

type rawAssignment struct {
	DepartmentID      string            `json:"department_id"`
	ID                string            `json:"id"`
	DepartmentName    string            `json:"department_name"`
	Name              string            `json:"name"`
	AssignedEmployees []json.RawMessage `json:"assigned_employees"`
	Employees         []json.RawMessage `json:"employees"`
	WorkerAssignments []json.RawMessage `json:"worker_assignments"`
}

type rawWorker struct {
	WorkerID     string `json:"worker_id"`
	EmployeeID   string `json:"employee_id"`
	ID           string `json:"id"`
	WorkerName   string `json:"worker_name"`
	EmployeeName string `json:"employee_name"`
	Name         string `json:"name"`
}

// Normalize decodes raw into a canonical schedule scoped to the request's
// configured working weekdays. It fails with a ShapeMismatch only when every
// known candidate yields an empty weekday map.
func (s *ResponseService) Normalize(request *models.ScheduleRequest, raw json.RawMessage) (*models.CanonicalSchedule, []dto.Diagnostic, error) {
	working := request.WorkingWeekdays()
	workingSet := make(map[string]bool, len(working))
	for _, day := range working {
		workingSet[day] = true
	}
	names := workerNames(request)

	var diagnostics []dto.Diagnostic
	for _, candidate := range s.candidates(raw) {
		days, ok := s.decodeCandidate(candidate.payload, workingSet, names)
		if !ok {
			continue
		}
		if candidate.shape != "schedule" {
			s.logger.Info("resolved response via fallback shape",
				zap.String("business_id", request.BusinessID),
				zap.String("shape", candidate.shape))
			diagnostics = append(diagnostics, dto.Diagnostic{
				Kind:    dto.DiagnosticShapeFallback,
				Message: fmt.Sprintf("response decoded via fallback shape %q", candidate.shape),
				Entity:  candidate.shape,
			})
		}
		schedule := &models.CanonicalSchedule{
			ID:            uuid.NewString(),
			BusinessID:    request.BusinessID,
			WeekStartDate: request.WeekStartDate,
			WeekEndDate:   request.WeekEndDate,
			Days:          days,
			GeneratedAt:   time.Now().UTC(),
		}
		return schedule, diagnostics, nil
	}

	s.logger.Error("no response candidate yielded a usable weekday map",
		zap.String("business_id", request.BusinessID))
	return nil, diagnostics, errors.ErrShapeMismatch
}

type shapeCandidate struct {
	shape   string
	payload json.RawMessage
}

// candidates lists decode attempts in contract priority order, ending with
// the raw payload itself.
func (s *ResponseService) candidates(raw json.RawMessage) []shapeCandidate {
	var env envelope
	var out []shapeCandidate
	if err := json.Unmarshal(raw, &env); err == nil {
		if len(env.Schedule) > 0 {
			out = append(out, shapeCandidate{"schedule", env.Schedule})
		}
		if len(env.Schedules) > 0 {
			out = append(out, shapeCandidate{"schedules", env.Schedules[0]})
		}
		if len(env.Data) > 0 {
			out = append(out, shapeCandidate{"data", env.Data[0]})
		}
		if len(env.Results) > 0 {
			out = append(out, shapeCandidate{"results", env.Results[0]})
		}
		if len(env.GeneratedSchedule) > 0 {
			out = append(out, shapeCandidate{"generated_schedule", env.GeneratedSchedule})
		}
	}
	out = append(out, shapeCandidate{"raw", raw})
	return out
}

// decodeCandidate extracts the weekday map from one candidate payload. Keys
// outside the request's configured working weekdays are discarded: the
// business's own configuration decides which days may appear, not the remote
// service.
func (s *ResponseService) decodeCandidate(payload json.RawMessage, workingSet map[string]bool, names map[string]string) (map[string][]models.DepartmentAssignment, bool) {
	var body schedulePayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, false
	}

	dayContent := body.ScheduleData
	if len(dayContent) == 0 {
		var topLevel map[string]json.RawMessage
		if err := json.Unmarshal(payload, &topLevel); err != nil {
			return nil, false
		}
		dayContent = topLevel
	}

	days := make(map[string][]models.DepartmentAssignment)
	for key, rawDay := range dayContent {
		if !models.IsWeekdayKey(key) || !workingSet[key] {
			continue
		}
		days[key] = s.decodeDay(rawDay, names)
	}

	if len(days) > 0 {
		return days, true
	}

	// Date-range-only payloads get empty placeholders for the weekdays the
	// request actually works; closed days are never invented.
	start := firstNonEmpty(body.WeekStartDate, body.StartDate)
	end := firstNonEmpty(body.WeekEndDate, body.EndDate)
	if start == "" || end == "" {
		return nil, false
	}
	for _, day := range weekdaysInRange(start, end) {
		if workingSet[day] {
			days[day] = []models.DepartmentAssignment{}
		}
	}
	return days, len(days) > 0
}

// decodeDay parses one weekday's value into department assignments. A value
// that is not an assignment array is treated as an empty day, not an error.
func (s *ResponseService) decodeDay(rawDay json.RawMessage, names map[string]string) []models.DepartmentAssignment {
	var entries []rawAssignment
	if err := json.Unmarshal(rawDay, &entries); err != nil {
		return []models.DepartmentAssignment{}
	}

	assignments := make([]models.DepartmentAssignment, 0, len(entries))
	for _, entry := range entries {
		assignment := models.DepartmentAssignment{
			DepartmentID:    firstNonEmpty(entry.DepartmentID, entry.ID),
			DepartmentName:  firstNonEmpty(entry.DepartmentName, entry.Name, "General"),
			AssignedWorkers: []models.AssignedWorker{},
		}
		for _, group := range [][]json.RawMessage{entry.AssignedEmployees, entry.Employees, entry.WorkerAssignments} {
			if len(group) == 0 {
				continue
			}
			assignment.AssignedWorkers = s.decodeWorkers(group, names)
			break
		}
		assignments = append(assignments, assignment)
	}
	return assignments
}

// decodeWorkers accepts worker entries as objects or bare id strings and
// resolves display names from the compiled request where the response omits
// them.
func (s *ResponseService) decodeWorkers(group []json.RawMessage, names map[string]string) []models.AssignedWorker {
	workers := make([]models.AssignedWorker, 0, len(group))
	for _, rawEntry := range group {
		var id string
		if err := json.Unmarshal(rawEntry, &id); err == nil {
			workers = append(workers, models.AssignedWorker{
				WorkerID:   id,
				WorkerName: resolveDisplayName(names[id], "", id),
			})
			continue
		}
		var w rawWorker
		if err := json.Unmarshal(rawEntry, &w); err != nil {
			continue
		}
		workerID, ok := ResolveIdentity(w.EmployeeID, w.WorkerID, w.ID)
		if !ok {
			continue
		}
		name := firstNonEmpty(w.WorkerName, w.EmployeeName, w.Name, names[workerID])
		workers = append(workers, models.AssignedWorker{
			WorkerID:   workerID,
			WorkerName: resolveDisplayName(name, "", workerID),
		})
	}
	return workers
}

// weekdaysInRange lists the distinct weekday keys occurring in [start, end],
// in calendar order. An unparsable bound yields nil.
func weekdaysInRange(startDate, endDate string) []string {
	start, errStart := time.Parse(models.DateLayout, startDate)
	end, errEnd := time.Parse(models.DateLayout, endDate)
	if errStart != nil || errEnd != nil || start.After(end) {
		return nil
	}
	present := make(map[string]bool)
	for d := start; !d.After(end) && len(present) < len(models.WeekdayOrder); d = d.AddDate(0, 0, 1) {
		present[models.WeekdayKey(d)] = true
	}
	days := make([]string, 0, len(present))
	for _, key := range models.WeekdayOrder {
		if present[key] {
			days = append(days, key)
		}
	}
	return days
}

func workerNames(request *models.ScheduleRequest) map[string]string {
	names := make(map[string]string, len(request.EmployeePreferences))
	for _, record := range request.EmployeePreferences {
		names[record.WorkerID] = record.EmployeeName
	}
	return names
}
