package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetStatus is the single health label a performance report assigns.
type BudgetStatus string

const (
	StatusOnTrack    BudgetStatus = "on-track"
	StatusWarning    BudgetStatus = "warning"
	StatusOverBudget BudgetStatus = "over-budget"
)

// PeriodInfo describes where "now" falls inside the budget window.
type PeriodInfo struct {
	TotalDays      int             `json:"totalDays"`
	DaysElapsed    int             `json:"daysElapsed"`
	DaysRemaining  int             `json:"daysRemaining"`
	PercentElapsed decimal.Decimal `json:"percentElapsed"`
}

// DailyRates holds per-day figures and the naive linear projection.
type DailyRates struct {
	BudgetPerDay       decimal.Decimal `json:"budgetPerDay"`
	AverageSpentPerDay decimal.Decimal `json:"averageSpentPerDay"`
	ProjectedSpend     decimal.Decimal `json:"projectedSpend"`
}

// Variance compares actual spend to plan. TimeAdjusted measures actual spend
// against the spend expected at this point of the period.
type Variance struct {
	Amount       decimal.Decimal `json:"amount"`
	Percentage   decimal.Decimal `json:"percentage"`
	TimeAdjusted decimal.Decimal `json:"timeAdjusted"`
}

// CategoryPerformance mirrors the budget-level figures for one allocation.
type CategoryPerformance struct {
	CategoryID      uuid.UUID       `json:"categoryId"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	AdjustedAmount  decimal.Decimal `json:"adjustedAmount"`
	SpentAmount     decimal.Decimal `json:"spentAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	OverspentAmount decimal.Decimal `json:"overspentAmount"`
	Utilization     decimal.Decimal `json:"utilization"`
	Status          BudgetStatus    `json:"status"`
}

// PerformanceReport is the full health picture for one budget at one instant.
// It is a pure function of the budget snapshot and the clock.
type PerformanceReport struct {
	BudgetID       uuid.UUID              `json:"budgetId"`
	GeneratedAt    time.Time              `json:"generatedAt"`
	TotalAmount    decimal.Decimal        `json:"totalAmount"`
	TotalSpent     decimal.Decimal        `json:"totalSpent"`
	TotalRemaining decimal.Decimal        `json:"totalRemaining"`
	Utilization    decimal.Decimal        `json:"utilization"`
	Status         BudgetStatus           `json:"status"`
	Period         PeriodInfo             `json:"period"`
	Rates          DailyRates             `json:"rates"`
	Variance       Variance               `json:"variance"`
	Categories     []*CategoryPerformance `json:"categories"`
}

// Violation levels and types.
type ViolationLevel string

const (
	ViolationLevelWarning  ViolationLevel = "warning"
	ViolationLevelCritical ViolationLevel = "critical"
)

type ViolationType string

const (
	ViolationBudgetExceeded   ViolationType = "budget_exceeded"
	ViolationBudgetWarning    ViolationType = "budget_warning"
	ViolationCategoryExceeded ViolationType = "category_exceeded"
	ViolationCategoryWarning  ViolationType = "category_warning"
)

// Violation is one threshold breach found in a budget. The detector emits at
// most one budget-level violation and at most one per category.
type Violation struct {
	Type       ViolationType    `json:"type"`
	Level      ViolationLevel   `json:"level"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	CategoryID *uuid.UUID       `json:"categoryId,omitempty"`
	Message    string           `json:"message"`
}

// GoalProgressReport is the estimator's output for one goal.
type GoalProgressReport struct {
	GoalID                      uuid.UUID       `json:"goalId"`
	GeneratedAt                 time.Time       `json:"generatedAt"`
	TargetAmount                decimal.Decimal `json:"targetAmount"`
	CurrentAmount               decimal.Decimal `json:"currentAmount"`
	RemainingAmount             decimal.Decimal `json:"remainingAmount"`
	ProgressPercentage          decimal.Decimal `json:"progressPercentage"`
	OverachievementAmount       decimal.Decimal `json:"overachievementAmount"`
	AverageMonthlyContribution  decimal.Decimal `json:"averageMonthlyContribution"`
	RequiredMonthlyContribution decimal.Decimal `json:"requiredMonthlyContribution"`
	EstimatedCompletionDate     *time.Time      `json:"estimatedCompletionDate,omitempty"`
	AchievementProbability      int             `json:"achievementProbability"`
}
