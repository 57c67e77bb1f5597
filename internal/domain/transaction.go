package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"userId"`
	CategoryID      *uuid.UUID        `json:"categoryId,omitempty"`
	Name            string            `json:"name"`
	Amount          decimal.Decimal   `json:"amount"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	TransactionDate time.Time         `json:"transactionDate"`
	Notes           *string           `json:"notes,omitempty"`
	ReceiptID       *string           `json:"receiptId,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	DeletedAt       *time.Time        `json:"deletedAt,omitempty"`
}

// Validate checks transaction fields before persistence.
func (t *Transaction) Validate() error {
	if t.Name == "" {
		return ErrNameRequired
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Amount.Exponent() < -2 {
		return ErrAmountPrecision
	}
	switch t.Status {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled:
	default:
		return ErrInvalidStatus
	}
	return nil
}

type TransactionFilters struct {
	CategoryID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	Type       *TransactionType
	Status     *TransactionStatus
	Page       int32
	PageSize   int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

// CategorySpend is one row of the grouped expense sum used by the spend
// aggregator: completed, non-deleted expense transactions for one category.
type CategorySpend struct {
	CategoryID uuid.UUID
	Total      decimal.Decimal
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(userID, id uuid.UUID) (*Transaction, error)
	GetByUser(userID uuid.UUID, filters *TransactionFilters) (*PaginatedTransactions, error)
	Update(transaction *Transaction) (*Transaction, error)
	SoftDelete(userID, id uuid.UUID) error
	SetReceiptID(userID, id uuid.UUID, receiptID *string) error
	PurgeDeletedBefore(cutoff time.Time) (int64, error)

	// SumCompletedExpensesByCategory returns one CategorySpend per category in
	// categoryIDs (zero rows for categories with no matching transactions are
	// simply absent; callers treat absence as zero spend).
	SumCompletedExpensesByCategory(userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) ([]*CategorySpend, error)
	// SumCompletedExpensesForCategory is the single-category variant.
	SumCompletedExpensesForCategory(userID, categoryID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}
