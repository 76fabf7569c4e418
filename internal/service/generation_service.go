package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
	appErrors "github.com/shiftwise/shiftwise-api/pkg/errors"
)

type departmentLister interface {
	ListByBusiness(ctx context.Context, businessID string) ([]models.DepartmentDocument, error)
}

type preferenceLister interface {
	ListByBusiness(ctx context.Context, businessID string) ([]models.PreferenceDocument, error)
}

type absenceLister interface {
	ListByBusiness(ctx context.Context, businessID string) ([]models.AbsenceEvent, error)
}

type scheduleLister interface {
	ListCurrent(ctx context.Context, businessID, fromDate string) ([]models.ScheduleRecord, error)
}

type latestCacheReader interface {
	GetLatest(ctx context.Context, businessID string) (*models.CanonicalSchedule, error)
}

type scheduleSubmitter interface {
	Submit(ctx context.Context, payload interface{}) (json.RawMessage, error)
}

type schedulePersister interface {
	PersistAsync(schedule *models.CanonicalSchedule) error
}

// Cycle phases. A business has at most one cycle past the compiling phase at
// any moment; re-entrant triggers are rejected, never queued.
const (
	phaseCompiling   = "compiling"
	phaseSubmitting  = "submitting"
	phaseNormalizing = "normalizing"
)

// Cycle outcomes for instrumentation.
const (
	outcomeReady        = "ready"
	outcomeInvalid      = "invalid"
	outcomeUnderstaffed = "understaffed"
	outcomeFailed       = "failed"
	outcomeRejected     = "rejected"
)

// GenerationService orchestrates one schedule generation cycle: compile,
// validate, submit, normalise, analyse, persist.
type GenerationService struct {
	departments departmentLister
	preferences preferenceLister
	absences    absenceLister
	schedules   scheduleLister
	cache       latestCacheReader
	remote      scheduleSubmitter
	persister   schedulePersister

	staffing    *StaffingService
	aggregator  *PreferenceService
	reconciler  *AbsenceService
	feasibility *FeasibilityService
	assembler   *RequestService
	normalizer  *ResponseService
	quality     *QualityService
	metrics     *MetricsService

	validator *validator.Validate
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[string]string
}

// GenerationDeps bundles the external collaborators of a generation cycle.
type GenerationDeps struct {
	Departments departmentLister
	Preferences preferenceLister
	Absences    absenceLister
	Schedules   scheduleLister
	Cache       latestCacheReader
	Remote      scheduleSubmitter
	Persister   schedulePersister
	Metrics     *MetricsService
}

// NewGenerationService instantiates the orchestrator and its pipeline stages.
func NewGenerationService(deps GenerationDeps, validate *validator.Validate, logger *zap.Logger) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		departments: deps.Departments,
		preferences: deps.Preferences,
		absences:    deps.Absences,
		schedules:   deps.Schedules,
		cache:       deps.Cache,
		remote:      deps.Remote,
		persister:   deps.Persister,
		staffing:    NewStaffingService(logger),
		aggregator:  NewPreferenceService(logger),
		reconciler:  NewAbsenceService(logger),
		feasibility: NewFeasibilityService(logger),
		assembler:   NewRequestService(logger),
		normalizer:  NewResponseService(logger),
		quality:     NewQualityService(logger),
		metrics:     deps.Metrics,
		validator:   validate,
		logger:      logger,
		inflight:    make(map[string]string),
	}
}

// Generate runs one full cycle for a business. An understaffed compilation
// returns ErrUnderstaffed together with a partial response carrying the
// feasibility report, so the caller can prompt for confirmation and retry
// with ConfirmUnderstaffed set.
func (s *GenerationService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	if !s.begin(req.BusinessID) {
		s.observeCycle(outcomeRejected, 0)
		return nil, appErrors.ErrCycleInFlight
	}
	defer s.end(req.BusinessID)

	started := time.Now()
	resp, err := s.run(ctx, req)
	elapsed := time.Since(started)

	switch {
	case err == nil:
		s.observeCycle(outcomeReady, elapsed)
	case appErrors.HasCode(err, appErrors.ErrUnderstaffed):
		s.observeCycle(outcomeUnderstaffed, elapsed)
	case appErrors.HasCode(err, appErrors.ErrValidation):
		s.observeCycle(outcomeInvalid, elapsed)
	default:
		s.observeCycle(outcomeFailed, elapsed)
	}
	return resp, err
}

func (s *GenerationService) run(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	start, end, err := s.feasibility.ValidateRange(req.WeekStartDate, req.WeekEndDate, time.Now())
	if err != nil {
		return nil, err
	}

	s.setPhase(req.BusinessID, phaseCompiling)
	s.logger.Info("starting generation cycle",
		zap.String("business_id", req.BusinessID),
		zap.String("week_start_date", req.WeekStartDate),
		zap.String("week_end_date", req.WeekEndDate),
		zap.Bool("confirm_understaffed", req.ConfirmUnderstaffed))

	departmentDocs, err := s.departments.ListByBusiness(ctx, req.BusinessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department documents")
	}
	preferenceDocs, err := s.preferences.ListByBusiness(ctx, req.BusinessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference documents")
	}
	absenceEvents, err := s.absences.ListByBusiness(ctx, req.BusinessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence events")
	}

	var diagnostics []dto.Diagnostic
	rules, staffingDiags := s.staffing.NormalizeAll(req.BusinessID, departmentDocs)
	diagnostics = append(diagnostics, staffingDiags...)

	records, prefDiags := s.aggregator.Aggregate(req.BusinessID, preferenceDocs)
	diagnostics = append(diagnostics, prefDiags...)

	inRange := s.reconciler.FilterConfirmed(absenceEvents, req.WeekStartDate, req.WeekEndDate)
	records, digest, absenceDiags := s.reconciler.Reconcile(records, inRange)
	diagnostics = append(diagnostics, absenceDiags...)

	report, err := s.feasibility.Assess(req.BusinessID, start, end, rules, records)
	if err != nil {
		return nil, err
	}
	understaffed := report.Status == dto.FeasibilityUnderstaffed
	if understaffed && !req.ConfirmUnderstaffed {
		partial := &dto.GenerateScheduleResponse{Feasibility: report, Diagnostics: diagnostics}
		return partial, appErrors.Clone(appErrors.ErrUnderstaffed, fmt.Sprintf(
			"available workers (%d) below daily minimum (%d), confirmation required",
			report.AvailableWorkers, report.MinDailyRequirement))
	}

	request, assemblyDiags, err := s.assembler.Assemble(req.BusinessID, req.WeekStartDate, req.WeekEndDate, rules, records, digest, understaffed)
	diagnostics = append(diagnostics, assemblyDiags...)
	if err != nil {
		return nil, err
	}

	s.setPhase(req.BusinessID, phaseSubmitting)
	submitStarted := time.Now()
	raw, err := s.remote.Submit(ctx, request)
	if s.metrics != nil {
		s.metrics.ObserveSubmit(time.Since(submitStarted))
	}
	if err != nil {
		return nil, err
	}

	s.setPhase(req.BusinessID, phaseNormalizing)
	schedule, shapeDiags, err := s.normalizer.Normalize(request, raw)
	diagnostics = append(diagnostics, shapeDiags...)
	if err != nil {
		return nil, err
	}

	quality := s.quality.Analyze(schedule, rules)

	if persistErr := s.persister.PersistAsync(schedule); persistErr != nil {
		// Fire-and-forget: the caller keeps the in-memory schedule either way.
		s.logger.Error("failed to enqueue schedule persistence",
			zap.String("business_id", req.BusinessID),
			zap.String("schedule_id", schedule.ID),
			zap.Error(persistErr))
		diagnostics = append(diagnostics, dto.Diagnostic{
			Kind:    dto.DiagnosticPersistFailure,
			Message: fmt.Sprintf("schedule %s could not be queued for persistence", schedule.ID),
			Entity:  schedule.ID,
		})
	}

	s.countDiagnostics(diagnostics)
	s.logger.Info("generation cycle ready",
		zap.String("business_id", req.BusinessID),
		zap.String("schedule_id", schedule.ID),
		zap.Int("diagnostics", len(diagnostics)))

	return &dto.GenerateScheduleResponse{
		Schedule:    schedule,
		Quality:     quality,
		Feasibility: report,
		Diagnostics: diagnostics,
	}, nil
}

// Latest returns the most recent schedule for a business, preferring the
// cache and falling back to the document store.
func (s *GenerationService) Latest(ctx context.Context, businessID string) (*models.CanonicalSchedule, error) {
	if businessID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "business_id is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetLatest(ctx, businessID)
		if err != nil {
			s.logger.Warn("latest schedule cache lookup failed",
				zap.String("business_id", businessID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(cached != nil)
		}
		if cached != nil {
			return cached, nil
		}
	}

	records, err := s.schedules.ListCurrent(ctx, businessID, time.Now().Format(models.DateLayout))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no current schedule for business")
	}

	var schedule models.CanonicalSchedule
	if err := json.Unmarshal(records[0].Payload, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored schedule payload is corrupt")
	}
	return &schedule, nil
}

// ListCurrent returns the stored schedules whose range has not fully passed.
func (s *GenerationService) ListCurrent(ctx context.Context, businessID string) ([]models.ScheduleRecord, error) {
	if businessID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "business_id is required")
	}
	records, err := s.schedules.ListCurrent(ctx, businessID, time.Now().Format(models.DateLayout))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	return records, nil
}

// begin reserves the cycle slot for a business. It reports false when a cycle
// is already in flight.
func (s *GenerationService) begin(businessID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if phase, running := s.inflight[businessID]; running {
		s.logger.Warn("rejecting re-entrant generation trigger",
			zap.String("business_id", businessID),
			zap.String("phase", phase))
		return false
	}
	s.inflight[businessID] = phaseCompiling
	return true
}

func (s *GenerationService) setPhase(businessID, phase string) {
	s.mu.Lock()
	s.inflight[businessID] = phase
	s.mu.Unlock()
}

func (s *GenerationService) end(businessID string) {
	s.mu.Lock()
	delete(s.inflight, businessID)
	s.mu.Unlock()
}

func (s *GenerationService) observeCycle(outcome string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveCycle(outcome, elapsed)
	}
}

func (s *GenerationService) countDiagnostics(diagnostics []dto.Diagnostic) {
	if s.metrics == nil {
		return
	}
	for _, d := range diagnostics {
		s.metrics.CountDiagnostic(d.Kind)
	}
}
