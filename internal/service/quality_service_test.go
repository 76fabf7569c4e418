package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise-api/internal/models"
)

func dayWith(dept string, workers ...string) []models.DepartmentAssignment {
	assigned := make([]models.AssignedWorker, 0, len(workers))
	for _, w := range workers {
		assigned = append(assigned, models.AssignedWorker{WorkerID: w, WorkerName: w})
	}
	return []models.DepartmentAssignment{{
		DepartmentID:    dept,
		DepartmentName:  dept,
		AssignedWorkers: assigned,
	}}
}

func TestQualityRepeatingWeek(t *testing.T) {
	svc := NewQualityService(nil)

	days := make(map[string][]models.DepartmentAssignment, 7)
	for _, day := range models.WeekdayOrder {
		days[day] = dayWith("dept-1", "wrk-1", "wrk-2")
	}
	schedule := &models.CanonicalSchedule{ID: "sch-1", Days: days}

	report := svc.Analyze(schedule, []models.DepartmentStaffingRule{weekdayRule("dept-1", 2)})
	require.NotNil(t, report)

	assert.Equal(t, 1, report.UniquePatterns)
	assert.Equal(t, 7, report.TotalDays)
	assert.InDelta(t, 1.0/7.0, report.VarietyRatio, 1e-9)
	assert.True(t, report.Repeating)
	assert.True(t, report.LowQuality)
	assert.Equal(t, "poor", report.Grade())
}

func TestQualityVariedWeek(t *testing.T) {
	svc := NewQualityService(nil)

	schedule := &models.CanonicalSchedule{
		ID: "sch-1",
		Days: map[string][]models.DepartmentAssignment{
			models.Monday:    dayWith("dept-1", "wrk-1"),
			models.Tuesday:   dayWith("dept-1", "wrk-1", "wrk-2"),
			models.Wednesday: dayWith("dept-2", "wrk-2"),
		},
	}

	report := svc.Analyze(schedule, nil)

	assert.Equal(t, 3, report.UniquePatterns)
	assert.Equal(t, 3, report.TotalDays)
	assert.InDelta(t, 1.0, report.VarietyRatio, 1e-9)
	assert.False(t, report.Repeating)
	assert.False(t, report.LowQuality)
	assert.Equal(t, "excellent", report.Grade())
}

func TestQualityWorkloadBalance(t *testing.T) {
	svc := NewQualityService(nil)

	schedule := &models.CanonicalSchedule{
		ID: "sch-1",
		Days: map[string][]models.DepartmentAssignment{
			models.Monday:  dayWith("dept-1", "wrk-1", "wrk-2"),
			models.Tuesday: dayWith("dept-1", "wrk-1"),
			models.Friday:  dayWith("dept-1", "wrk-1", "wrk-2"),
		},
	}

	report := svc.Analyze(schedule, nil)

	workload := report.Workload
	assert.Equal(t, 2, workload.Workers)
	assert.Equal(t, 2, workload.MinWorkdays)
	assert.Equal(t, 3, workload.MaxWorkdays)
	assert.InDelta(t, 2.5, workload.AvgWorkdays, 1e-9)
	assert.InDelta(t, 2.0/3.0, workload.BalanceRatio, 1e-9)
}

func TestQualityEmptyScheduleBalanceIsOne(t *testing.T) {
	svc := NewQualityService(nil)

	schedule := &models.CanonicalSchedule{
		ID: "sch-1",
		Days: map[string][]models.DepartmentAssignment{
			models.Monday: {},
			models.Friday: {},
		},
	}

	report := svc.Analyze(schedule, nil)

	assert.Zero(t, report.Workload.Workers)
	assert.InDelta(t, 1.0, report.Workload.BalanceRatio, 1e-9)
	assert.Equal(t, 2, report.TotalDays)
}

func TestQualityNilSchedule(t *testing.T) {
	svc := NewQualityService(nil)
	assert.Nil(t, svc.Analyze(nil, nil))
}
