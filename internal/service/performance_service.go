package service

import (
	"fmt"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/util"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PerformanceService turns a budget snapshot into a performance report and a
// violation list. Both operations are pure: same snapshot and clock in, same
// report out.
type PerformanceService struct{}

// NewPerformanceService creates a new PerformanceService
func NewPerformanceService() *PerformanceService {
	return &PerformanceService{}
}

// Report builds the full performance report for a budget as of now. Spend
// figures are taken as-is; callers refresh them first via SpendService.
func (s *PerformanceService) Report(budget *domain.Budget, now time.Time) *domain.PerformanceReport {
	threshold := budget.EffectiveAlertThreshold()

	period := buildPeriodInfo(budget.StartDate, budget.EndDate, now)
	rates := buildDailyRates(budget.TotalAmount, budget.TotalSpent, period)

	utilization := decimal.Zero
	if !budget.TotalAmount.IsZero() {
		utilization = budget.TotalSpent.Div(budget.TotalAmount).Mul(hundred)
	}

	variance := domain.Variance{
		Amount: budget.TotalSpent.Sub(budget.TotalAmount),
	}
	if !budget.TotalAmount.IsZero() {
		variance.Percentage = variance.Amount.Div(budget.TotalAmount).Mul(hundred)
	}
	// Expected spend at this point of the period, linear in elapsed time.
	expected := period.PercentElapsed.Div(hundred).Mul(budget.TotalAmount)
	variance.TimeAdjusted = budget.TotalSpent.Sub(expected)

	report := &domain.PerformanceReport{
		BudgetID:       budget.ID,
		GeneratedAt:    now,
		TotalAmount:    budget.TotalAmount,
		TotalSpent:     budget.TotalSpent,
		TotalRemaining: budget.TotalAmount.Sub(budget.TotalSpent),
		Utilization:    utilization,
		Status:         classify(budget.TotalSpent, budget.TotalAmount, utilization, threshold),
		Period:         period,
		Rates:          rates,
		Variance:       variance,
		Categories:     make([]*domain.CategoryPerformance, 0, len(budget.Allocations)),
	}

	for _, alloc := range budget.Allocations {
		catUtil := alloc.UtilizationPercentage()
		report.Categories = append(report.Categories, &domain.CategoryPerformance{
			CategoryID:      alloc.CategoryID,
			AllocatedAmount: alloc.AllocatedAmount,
			AdjustedAmount:  alloc.AdjustedAmount(),
			SpentAmount:     alloc.SpentAmount,
			RemainingAmount: alloc.RemainingAmount(),
			OverspentAmount: alloc.OverspentAmount(),
			Utilization:     catUtil,
			Status:          classify(alloc.SpentAmount, alloc.AdjustedAmount(), catUtil, threshold),
		})
	}

	return report
}

// DetectViolations scans the budget for threshold breaches. At most one
// budget-level violation is returned, followed by at most one per category;
// exceeded takes precedence over warning in both cases. Dispatching alerts is
// the caller's job.
func (s *PerformanceService) DetectViolations(budget *domain.Budget) []*domain.Violation {
	threshold := budget.EffectiveAlertThreshold()
	violations := make([]*domain.Violation, 0)

	if budget.TotalSpent.GreaterThan(budget.TotalAmount) {
		overage := budget.TotalSpent.Sub(budget.TotalAmount)
		pct := decimal.Zero
		if !budget.TotalAmount.IsZero() {
			pct = overage.Div(budget.TotalAmount).Mul(hundred)
		}
		violations = append(violations, &domain.Violation{
			Type:       domain.ViolationBudgetExceeded,
			Level:      domain.ViolationLevelCritical,
			Amount:     &overage,
			Percentage: &pct,
			Message:    fmt.Sprintf("Budget exceeded by %s (%s%%)", overage.StringFixed(2), pct.StringFixed(1)),
		})
	} else if !budget.TotalAmount.IsZero() {
		utilization := budget.TotalSpent.Div(budget.TotalAmount).Mul(hundred)
		if utilization.GreaterThanOrEqual(threshold) {
			violations = append(violations, &domain.Violation{
				Type:       domain.ViolationBudgetWarning,
				Level:      domain.ViolationLevelWarning,
				Percentage: &utilization,
				Message:    fmt.Sprintf("Budget utilization at %s%% (threshold %s%%)", utilization.StringFixed(1), threshold.StringFixed(0)),
			})
		}
	}

	for _, alloc := range budget.Allocations {
		adjusted := alloc.AdjustedAmount()
		if alloc.SpentAmount.GreaterThan(adjusted) {
			overage := alloc.SpentAmount.Sub(adjusted)
			catID := alloc.CategoryID
			violations = append(violations, &domain.Violation{
				Type:       domain.ViolationCategoryExceeded,
				Level:      domain.ViolationLevelCritical,
				Amount:     &overage,
				CategoryID: &catID,
				Message:    fmt.Sprintf("Category overspent by %s", overage.StringFixed(2)),
			})
			continue
		}

		utilization := alloc.UtilizationPercentage()
		if utilization.GreaterThanOrEqual(threshold) {
			catID := alloc.CategoryID
			violations = append(violations, &domain.Violation{
				Type:       domain.ViolationCategoryWarning,
				Level:      domain.ViolationLevelWarning,
				Percentage: &utilization,
				CategoryID: &catID,
				Message:    fmt.Sprintf("Category utilization at %s%% (threshold %s%%)", utilization.StringFixed(1), threshold.StringFixed(0)),
			})
		}
	}

	return violations
}

// buildPeriodInfo computes the day counts for the budget window. A zero-day
// window is defined as fully elapsed.
func buildPeriodInfo(start, end, now time.Time) domain.PeriodInfo {
	totalDays := util.DaysBetween(start, end)
	elapsed := util.ClampInt(util.DaysBetween(start, now), 0, totalDays)

	percentElapsed := hundred
	if totalDays > 0 {
		percentElapsed = decimal.NewFromInt(int64(elapsed)).
			Div(decimal.NewFromInt(int64(totalDays))).
			Mul(hundred)
	}

	return domain.PeriodInfo{
		TotalDays:      totalDays,
		DaysElapsed:    elapsed,
		DaysRemaining:  totalDays - elapsed,
		PercentElapsed: percentElapsed,
	}
}

func buildDailyRates(totalAmount, totalSpent decimal.Decimal, period domain.PeriodInfo) domain.DailyRates {
	rates := domain.DailyRates{
		BudgetPerDay:       decimal.Zero,
		AverageSpentPerDay: decimal.Zero,
		ProjectedSpend:     decimal.Zero,
	}
	if period.TotalDays > 0 {
		rates.BudgetPerDay = totalAmount.Div(decimal.NewFromInt(int64(period.TotalDays)))
	}
	if period.DaysElapsed > 0 {
		rates.AverageSpentPerDay = totalSpent.Div(decimal.NewFromInt(int64(period.DaysElapsed)))
		rates.ProjectedSpend = rates.AverageSpentPerDay.Mul(decimal.NewFromInt(int64(period.TotalDays)))
	}
	return rates
}

func classify(spent, limit, utilization, threshold decimal.Decimal) domain.BudgetStatus {
	if spent.GreaterThan(limit) {
		return domain.StatusOverBudget
	}
	if utilization.GreaterThanOrEqual(threshold) {
		return domain.StatusWarning
	}
	return domain.StatusOnTrack
}
