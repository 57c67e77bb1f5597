package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	PeriodDaily     BudgetPeriod = "daily"
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

// ValidPeriod reports whether p is one of the supported budget periods.
func ValidPeriod(p BudgetPeriod) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// AllocationTolerance is how far the allocation sum may exceed the budget
// total before validation rejects it. Fixed business policy: one cent.
var AllocationTolerance = decimal.NewFromFloat(0.01)

// UtilizationDisplayCap caps utilization and progress percentages for
// display. Fixed business policy.
var UtilizationDisplayCap = decimal.NewFromInt(200)

// DefaultAlertThreshold is the utilization percentage at which warnings
// start when a budget does not set its own threshold.
var DefaultAlertThreshold = decimal.NewFromInt(80)

// CategoryAllocation assigns a slice of the budget total to one category.
type CategoryAllocation struct {
	CategoryID      uuid.UUID       `json:"categoryId"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	SpentAmount     decimal.Decimal `json:"spentAmount"`
	RolloverAmount  decimal.Decimal `json:"rolloverAmount"`
	Notes           *string         `json:"notes,omitempty"`
}

// AdjustedAmount is the effective ceiling for the category: its allocation
// plus whatever rolled over from the prior period.
func (a *CategoryAllocation) AdjustedAmount() decimal.Decimal {
	return a.AllocatedAmount.Add(a.RolloverAmount)
}

// RemainingAmount is the unspent part of the adjusted amount, floored at 0.
func (a *CategoryAllocation) RemainingAmount() decimal.Decimal {
	remaining := a.AdjustedAmount().Sub(a.SpentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// OverspentAmount is how far spend exceeds the adjusted amount, floored at 0.
func (a *CategoryAllocation) OverspentAmount() decimal.Decimal {
	over := a.SpentAmount.Sub(a.AdjustedAmount())
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}

// UtilizationPercentage is spent over adjusted, as a percentage. Defined as 0
// when the adjusted amount is zero.
func (a *CategoryAllocation) UtilizationPercentage() decimal.Decimal {
	adjusted := a.AdjustedAmount()
	if adjusted.IsZero() {
		return decimal.Zero
	}
	return a.SpentAmount.Div(adjusted).Mul(decimal.NewFromInt(100))
}

// PercentageOfTotal is this allocation's share of the budget total.
func (a *CategoryAllocation) PercentageOfTotal(totalAmount decimal.Decimal) decimal.Decimal {
	if totalAmount.IsZero() {
		return decimal.Zero
	}
	return a.AllocatedAmount.Div(totalAmount).Mul(decimal.NewFromInt(100))
}

type Budget struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	Name            string                `json:"name"`
	Period          BudgetPeriod          `json:"period"`
	StartDate       time.Time             `json:"startDate"`
	EndDate         time.Time             `json:"endDate"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	AlertThreshold  decimal.Decimal       `json:"alertThreshold"`
	RolloverEnabled bool                  `json:"rolloverEnabled"`
	Allocations     []*CategoryAllocation `json:"allocations"`

	// Derived fields, recomputed by Recalculate. Version is informational
	// only; it is not used as a compare-and-swap guard.
	TotalSpent            decimal.Decimal `json:"totalSpent"`
	TotalRemaining        decimal.Decimal `json:"totalRemaining"`
	UtilizationPercentage decimal.Decimal `json:"utilizationPercentage"`
	LastCalculated        *time.Time      `json:"lastCalculated,omitempty"`
	Version               int32           `json:"version"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Validate checks identity fields and the allocation invariants: amounts
// positive with at most 2 decimal places, no duplicate categories, and the
// allocation sum within AllocationTolerance of the total.
func (b *Budget) Validate() error {
	if b.Name == "" {
		return ErrNameRequired
	}
	if len(b.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !ValidPeriod(b.Period) {
		return ErrInvalidPeriod
	}
	if !b.EndDate.After(b.StartDate) {
		return ErrInvalidDateRange
	}
	if !b.TotalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if b.TotalAmount.Exponent() < -2 {
		return ErrAmountPrecision
	}

	seen := make(map[uuid.UUID]struct{}, len(b.Allocations))
	sum := decimal.Zero
	for _, alloc := range b.Allocations {
		if alloc.AllocatedAmount.IsNegative() {
			return ErrNegativeAmount
		}
		if alloc.AllocatedAmount.Exponent() < -2 {
			return ErrAmountPrecision
		}
		if _, dup := seen[alloc.CategoryID]; dup {
			return ErrDuplicateAllocation
		}
		seen[alloc.CategoryID] = struct{}{}
		sum = sum.Add(alloc.AllocatedAmount)
	}

	if sum.Sub(b.TotalAmount).GreaterThan(AllocationTolerance) {
		return ErrAllocationExceedsTotal
	}
	return nil
}

// Recalculate refreshes the budget's cached totals from its allocations and
// stamps LastCalculated. It does not touch spend figures; RefreshSpent on the
// spend service does that first.
func (b *Budget) Recalculate(now time.Time) {
	total := decimal.Zero
	for _, alloc := range b.Allocations {
		total = total.Add(alloc.SpentAmount)
	}
	b.TotalSpent = total
	b.TotalRemaining = b.TotalAmount.Sub(total)

	util := decimal.Zero
	if !b.TotalAmount.IsZero() {
		util = total.Div(b.TotalAmount).Mul(decimal.NewFromInt(100))
	}
	if util.GreaterThan(UtilizationDisplayCap) {
		util = UtilizationDisplayCap
	}
	b.UtilizationPercentage = util
	b.LastCalculated = &now
}

// EffectiveAlertThreshold returns the budget's threshold, falling back to the
// default when unset.
func (b *Budget) EffectiveAlertThreshold() decimal.Decimal {
	if b.AlertThreshold.IsZero() {
		return DefaultAlertThreshold
	}
	return b.AlertThreshold
}

// Allocation returns the allocation for a category, or nil.
func (b *Budget) Allocation(categoryID uuid.UUID) *CategoryAllocation {
	for _, alloc := range b.Allocations {
		if alloc.CategoryID == categoryID {
			return alloc
		}
	}
	return nil
}

// CategoryIDs returns the IDs of all allocated categories, in order.
func (b *Budget) CategoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b.Allocations))
	for i, alloc := range b.Allocations {
		ids[i] = alloc.CategoryID
	}
	return ids
}

// ApplyRollover carries unspent amounts per category from a prior budget into
// this budget's rollover figures. Categories present only in the source are
// ignored; rollover never goes negative.
func (b *Budget) ApplyRollover(source *Budget) error {
	if !b.RolloverEnabled {
		return ErrRolloverDisabled
	}
	if source.UserID != b.UserID {
		return ErrRolloverForeignBudget
	}
	for _, alloc := range b.Allocations {
		prev := source.Allocation(alloc.CategoryID)
		if prev == nil {
			continue
		}
		alloc.RolloverAmount = prev.RemainingAmount()
	}
	return nil
}

type BudgetRepository interface {
	Create(budget *Budget) (*Budget, error)
	GetByID(userID, id uuid.UUID) (*Budget, error)
	GetAllByUser(userID uuid.UUID, includeDeleted bool) ([]*Budget, error)
	Update(budget *Budget) (*Budget, error)
	SoftDelete(userID, id uuid.UUID) error
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
}
