package domain

import "errors"

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInternalError    = errors.New("internal error")
	ErrUserNotFound     = errors.New("user not found")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name exceeds maximum length")
	ErrInvalidPeriod    = errors.New("invalid budget period")
	ErrInvalidDateRange = errors.New("end date must be after start date")

	// Amount validation
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrAmountPrecision = errors.New("amount must have at most 2 decimal places")

	// Budget allocations
	ErrBudgetNotFound         = errors.New("budget not found")
	ErrDuplicateAllocation    = errors.New("category allocated more than once")
	ErrAllocationExceedsTotal = errors.New("allocations exceed budget total")

	// Categories
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryInUse       = errors.New("category is referenced by a budget")
	ErrCategoryDepth       = errors.New("category tree exceeds maximum depth")
	ErrInvalidCategoryType = errors.New("invalid category type")

	// Transactions
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidStatus       = errors.New("invalid transaction status")

	// Goals
	ErrGoalNotFound       = errors.New("goal not found")
	ErrGoalNotActive      = errors.New("goal is not active")
	ErrGoalTerminal       = errors.New("goal is in a terminal state")
	ErrContributionDate   = errors.New("contribution date must not be in the future")
	ErrForeignTransaction = errors.New("transaction belongs to a different user")

	// Rollover
	ErrRolloverDisabled      = errors.New("rollover is not enabled for this budget")
	ErrRolloverForeignBudget = errors.New("rollover source belongs to a different user")
)

// Validation constants
const (
	MaxNameLength = 255

	// MaxCategoryDepth limits how deep a category tree may nest.
	MaxCategoryDepth = 5
)
