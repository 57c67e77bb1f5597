package service

import (
	"testing"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectViolations_BudgetExceeded(t *testing.T) {
	svc := NewPerformanceService()

	budget := &domain.Budget{
		ID:          uuid.New(),
		TotalAmount: decimal.NewFromInt(1000),
		TotalSpent:  decimal.NewFromInt(1100),
	}

	violations := svc.DetectViolations(budget)

	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, domain.ViolationBudgetExceeded, v.Type)
	assert.Equal(t, domain.ViolationLevelCritical, v.Level)
	require.NotNil(t, v.Amount)
	assert.Equal(t, "100.00", v.Amount.StringFixed(2))
	require.NotNil(t, v.Percentage)
	assert.Equal(t, "10.00", v.Percentage.StringFixed(2))
}

func TestDetectViolations_BudgetWarningAtThreshold(t *testing.T) {
	svc := NewPerformanceService()

	budget := &domain.Budget{
		ID:             uuid.New(),
		TotalAmount:    decimal.NewFromInt(1000),
		TotalSpent:     decimal.NewFromInt(850),
		AlertThreshold: decimal.NewFromInt(80),
	}

	violations := svc.DetectViolations(budget)

	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, domain.ViolationBudgetWarning, v.Type)
	assert.Equal(t, domain.ViolationLevelWarning, v.Level)
	assert.Nil(t, v.Amount)
	require.NotNil(t, v.Percentage)
	assert.Equal(t, "85.00", v.Percentage.StringFixed(2))
}

func TestDetectViolations_NoViolationBelowThreshold(t *testing.T) {
	svc := NewPerformanceService()

	budget := &domain.Budget{
		ID:             uuid.New(),
		TotalAmount:    decimal.NewFromInt(1000),
		TotalSpent:     decimal.NewFromInt(500),
		AlertThreshold: decimal.NewFromInt(80),
	}

	violations := svc.DetectViolations(budget)

	assert.Empty(t, violations)
}

func TestDetectViolations_ExceededTakesPrecedenceOverWarning(t *testing.T) {
	svc := NewPerformanceService()

	// 110% utilization is past both the threshold and the total; only the
	// exceeded violation should be reported at budget level.
	budget := &domain.Budget{
		ID:             uuid.New(),
		TotalAmount:    decimal.NewFromInt(1000),
		TotalSpent:     decimal.NewFromInt(1100),
		AlertThreshold: decimal.NewFromInt(80),
	}

	violations := svc.DetectViolations(budget)

	require.Len(t, violations, 1)
	assert.Equal(t, domain.ViolationBudgetExceeded, violations[0].Type)
}

func TestDetectViolations_CategoryExceeded(t *testing.T) {
	svc := NewPerformanceService()
	categoryID := uuid.New()

	budget := &domain.Budget{
		ID:             uuid.New(),
		TotalAmount:    decimal.NewFromInt(1000),
		TotalSpent:     decimal.NewFromInt(300),
		AlertThreshold: decimal.NewFromInt(80),
		Allocations: []*domain.CategoryAllocation{
			{
				CategoryID:      categoryID,
				AllocatedAmount: decimal.NewFromInt(200),
				SpentAmount:     decimal.NewFromInt(300),
			},
		},
	}

	violations := svc.DetectViolations(budget)

	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, domain.ViolationCategoryExceeded, v.Type)
	assert.Equal(t, domain.ViolationLevelCritical, v.Level)
	require.NotNil(t, v.Amount)
	assert.Equal(t, "100.00", v.Amount.StringFixed(2))
	require.NotNil(t, v.CategoryID)
	assert.Equal(t, categoryID, *v.CategoryID)
}

func TestDetectViolations_CategoryWarningUsesAdjustedAmount(t *testing.T) {
	svc := NewPerformanceService()
	categoryID := uuid.New()

	// 170 spent against 150 allocated would be overspent, but a 50 rollover
	// lifts the ceiling to 200, leaving utilization at 85%.
	budget := &domain.Budget{
		ID:             uuid.New(),
		TotalAmount:    decimal.NewFromInt(1000),
		TotalSpent:     decimal.NewFromInt(170),
		AlertThreshold: decimal.NewFromInt(80),
		Allocations: []*domain.CategoryAllocation{
			{
				CategoryID:      categoryID,
				AllocatedAmount: decimal.NewFromInt(150),
				SpentAmount:     decimal.NewFromInt(170),
				RolloverAmount:  decimal.NewFromInt(50),
			},
		},
	}

	violations := svc.DetectViolations(budget)

	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, domain.ViolationCategoryWarning, v.Type)
	require.NotNil(t, v.Percentage)
	assert.Equal(t, "85.00", v.Percentage.StringFixed(2))
}

func TestDetectViolations_ZeroAllocationOverspendIsExceeded(t *testing.T) {
	svc := NewPerformanceService()
	categoryID := uuid.New()

	budget := &domain.Budget{
		ID:             uuid.New(),
		TotalAmount:    decimal.NewFromInt(1000),
		AlertThreshold: decimal.NewFromInt(80),
		Allocations: []*domain.CategoryAllocation{
			{
				CategoryID:  categoryID,
				SpentAmount: decimal.NewFromInt(50),
			},
		},
	}

	violations := svc.DetectViolations(budget)

	require.Len(t, violations, 1)
	assert.Equal(t, domain.ViolationCategoryExceeded, violations[0].Type)
	assert.Equal(t, "50.00", violations[0].Amount.StringFixed(2))
}

func TestReport_MidPeriod(t *testing.T) {
	svc := NewPerformanceService()
	categoryID := uuid.New()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)

	budget := &domain.Budget{
		ID:             uuid.New(),
		StartDate:      start,
		EndDate:        end,
		TotalAmount:    decimal.NewFromInt(3000),
		TotalSpent:     decimal.NewFromInt(1200),
		AlertThreshold: decimal.NewFromInt(80),
		Allocations: []*domain.CategoryAllocation{
			{
				CategoryID:      categoryID,
				AllocatedAmount: decimal.NewFromInt(3000),
				SpentAmount:     decimal.NewFromInt(1200),
			},
		},
	}

	report := svc.Report(budget, now)

	assert.Equal(t, budget.ID, report.BudgetID)
	assert.Equal(t, "1800.00", report.TotalRemaining.StringFixed(2))
	assert.Equal(t, "40.00", report.Utilization.StringFixed(2))
	assert.Equal(t, domain.StatusOnTrack, report.Status)

	assert.Equal(t, 30, report.Period.TotalDays)
	assert.Equal(t, 15, report.Period.DaysElapsed)
	assert.Equal(t, 15, report.Period.DaysRemaining)
	assert.Equal(t, "50.00", report.Period.PercentElapsed.StringFixed(2))

	assert.Equal(t, "100.00", report.Rates.BudgetPerDay.StringFixed(2))
	assert.Equal(t, "80.00", report.Rates.AverageSpentPerDay.StringFixed(2))
	assert.Equal(t, "2400.00", report.Rates.ProjectedSpend.StringFixed(2))

	assert.Equal(t, "-1800.00", report.Variance.Amount.StringFixed(2))
	assert.Equal(t, "-60.00", report.Variance.Percentage.StringFixed(2))
	// Expected spend at 50% elapsed is 1500; actual is 1200.
	assert.Equal(t, "-300.00", report.Variance.TimeAdjusted.StringFixed(2))

	require.Len(t, report.Categories, 1)
	cat := report.Categories[0]
	assert.Equal(t, categoryID, cat.CategoryID)
	assert.Equal(t, "40.00", cat.Utilization.StringFixed(2))
	assert.Equal(t, domain.StatusOnTrack, cat.Status)
}

func TestReport_ZeroDayWindowIsFullyElapsed(t *testing.T) {
	svc := NewPerformanceService()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	budget := &domain.Budget{
		ID:          uuid.New(),
		StartDate:   day,
		EndDate:     day,
		TotalAmount: decimal.NewFromInt(100),
		TotalSpent:  decimal.NewFromInt(40),
	}

	report := svc.Report(budget, day)

	assert.Equal(t, 0, report.Period.TotalDays)
	assert.Equal(t, "100.00", report.Period.PercentElapsed.StringFixed(2))
	assert.Equal(t, "0.00", report.Rates.BudgetPerDay.StringFixed(2))
	assert.Equal(t, "0.00", report.Rates.AverageSpentPerDay.StringFixed(2))
}

func TestReport_BeforePeriodStartClampsToZero(t *testing.T) {
	svc := NewPerformanceService()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)

	budget := &domain.Budget{
		ID:          uuid.New(),
		StartDate:   start,
		EndDate:     end,
		TotalAmount: decimal.NewFromInt(3000),
	}

	report := svc.Report(budget, now)

	assert.Equal(t, 0, report.Period.DaysElapsed)
	assert.Equal(t, 30, report.Period.DaysRemaining)
	assert.Equal(t, "0.00", report.Period.PercentElapsed.StringFixed(2))
}

func TestReport_StatusWarningAndOverBudget(t *testing.T) {
	svc := NewPerformanceService()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	warning := &domain.Budget{
		ID:             uuid.New(),
		StartDate:      start,
		EndDate:        end,
		TotalAmount:    decimal.NewFromInt(1000),
		TotalSpent:     decimal.NewFromInt(800),
		AlertThreshold: decimal.NewFromInt(80),
	}
	assert.Equal(t, domain.StatusWarning, svc.Report(warning, now).Status)

	over := &domain.Budget{
		ID:             uuid.New(),
		StartDate:      start,
		EndDate:        end,
		TotalAmount:    decimal.NewFromInt(1000),
		TotalSpent:     decimal.NewFromInt(1000).Add(decimal.NewFromFloat(0.01)),
		AlertThreshold: decimal.NewFromInt(80),
	}
	assert.Equal(t, domain.StatusOverBudget, svc.Report(over, now).Status)
}

func TestReport_DefaultThresholdWhenUnset(t *testing.T) {
	svc := NewPerformanceService()

	budget := &domain.Budget{
		ID:          uuid.New(),
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(1000),
		TotalSpent:  decimal.NewFromInt(800),
	}

	report := svc.Report(budget, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	// No explicit threshold set, so the 80% default applies.
	assert.Equal(t, domain.StatusWarning, report.Status)
}

func TestReport_RepeatedCallsAreIdentical(t *testing.T) {
	svc := NewPerformanceService()
	categoryID := uuid.New()

	budget := &domain.Budget{
		ID:             uuid.New(),
		StartDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount:    decimal.NewFromInt(3000),
		TotalSpent:     decimal.NewFromInt(1200),
		AlertThreshold: decimal.NewFromInt(80),
		Allocations: []*domain.CategoryAllocation{
			{
				CategoryID:      categoryID,
				AllocatedAmount: decimal.NewFromInt(3000),
				SpentAmount:     decimal.NewFromInt(1200),
			},
		},
	}
	now := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)

	// Reporting reads the snapshot without mutating it, so the same
	// inputs must yield the same report.
	first := svc.Report(budget, now)
	second := svc.Report(budget, now)

	assert.Equal(t, first, second)
	assert.Equal(t, svc.DetectViolations(budget), svc.DetectViolations(budget))
}
