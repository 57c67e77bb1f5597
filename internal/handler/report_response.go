package handler

import (
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
)

// PeriodResponse describes where now falls in the budget window
type PeriodResponse struct {
	TotalDays      int    `json:"totalDays"`
	DaysElapsed    int    `json:"daysElapsed"`
	DaysRemaining  int    `json:"daysRemaining"`
	PercentElapsed string `json:"percentElapsed"`
}

// RatesResponse holds per-day figures and the linear projection
type RatesResponse struct {
	BudgetPerDay       string `json:"budgetPerDay"`
	AverageSpentPerDay string `json:"averageSpentPerDay"`
	ProjectedSpend     string `json:"projectedSpend"`
}

// VarianceResponse compares actual spend to plan
type VarianceResponse struct {
	Amount       string `json:"amount"`
	Percentage   string `json:"percentage"`
	TimeAdjusted string `json:"timeAdjusted"`
}

// CategoryPerformanceResponse mirrors budget-level figures for one allocation
type CategoryPerformanceResponse struct {
	CategoryID      string `json:"categoryId"`
	AllocatedAmount string `json:"allocatedAmount"`
	AdjustedAmount  string `json:"adjustedAmount"`
	SpentAmount     string `json:"spentAmount"`
	RemainingAmount string `json:"remainingAmount"`
	OverspentAmount string `json:"overspentAmount"`
	Utilization     string `json:"utilization"`
	Status          string `json:"status"`
}

// ReportResponse is the full performance report for one budget
type ReportResponse struct {
	BudgetID       string                        `json:"budgetId"`
	GeneratedAt    time.Time                     `json:"generatedAt"`
	TotalAmount    string                        `json:"totalAmount"`
	TotalSpent     string                        `json:"totalSpent"`
	TotalRemaining string                        `json:"totalRemaining"`
	Utilization    string                        `json:"utilization"`
	Status         string                        `json:"status"`
	Period         PeriodResponse                `json:"period"`
	Rates          RatesResponse                 `json:"rates"`
	Variance       VarianceResponse              `json:"variance"`
	Categories     []CategoryPerformanceResponse `json:"categories"`
}

// ViolationResponse is one threshold breach
type ViolationResponse struct {
	Type       string  `json:"type"`
	Level      string  `json:"level"`
	Amount     *string `json:"amount,omitempty"`
	Percentage *string `json:"percentage,omitempty"`
	CategoryID *string `json:"categoryId,omitempty"`
	Message    string  `json:"message"`
}

func toReportResponse(report *domain.PerformanceReport) ReportResponse {
	categories := make([]CategoryPerformanceResponse, len(report.Categories))
	for i, cat := range report.Categories {
		categories[i] = CategoryPerformanceResponse{
			CategoryID:      cat.CategoryID.String(),
			AllocatedAmount: cat.AllocatedAmount.StringFixed(2),
			AdjustedAmount:  cat.AdjustedAmount.StringFixed(2),
			SpentAmount:     cat.SpentAmount.StringFixed(2),
			RemainingAmount: cat.RemainingAmount.StringFixed(2),
			OverspentAmount: cat.OverspentAmount.StringFixed(2),
			Utilization:     cat.Utilization.StringFixed(2),
			Status:          string(cat.Status),
		}
	}
	return ReportResponse{
		BudgetID:       report.BudgetID.String(),
		GeneratedAt:    report.GeneratedAt,
		TotalAmount:    report.TotalAmount.StringFixed(2),
		TotalSpent:     report.TotalSpent.StringFixed(2),
		TotalRemaining: report.TotalRemaining.StringFixed(2),
		Utilization:    report.Utilization.StringFixed(2),
		Status:         string(report.Status),
		Period: PeriodResponse{
			TotalDays:      report.Period.TotalDays,
			DaysElapsed:    report.Period.DaysElapsed,
			DaysRemaining:  report.Period.DaysRemaining,
			PercentElapsed: report.Period.PercentElapsed.StringFixed(2),
		},
		Rates: RatesResponse{
			BudgetPerDay:       report.Rates.BudgetPerDay.StringFixed(2),
			AverageSpentPerDay: report.Rates.AverageSpentPerDay.StringFixed(2),
			ProjectedSpend:     report.Rates.ProjectedSpend.StringFixed(2),
		},
		Variance: VarianceResponse{
			Amount:       report.Variance.Amount.StringFixed(2),
			Percentage:   report.Variance.Percentage.StringFixed(2),
			TimeAdjusted: report.Variance.TimeAdjusted.StringFixed(2),
		},
		Categories: categories,
	}
}

func toViolationResponse(v *domain.Violation) ViolationResponse {
	resp := ViolationResponse{
		Type:    string(v.Type),
		Level:   string(v.Level),
		Message: v.Message,
	}
	if v.Amount != nil {
		amount := v.Amount.StringFixed(2)
		resp.Amount = &amount
	}
	if v.Percentage != nil {
		pct := v.Percentage.StringFixed(2)
		resp.Percentage = &pct
	}
	if v.CategoryID != nil {
		id := v.CategoryID.String()
		resp.CategoryID = &id
	}
	return resp
}
