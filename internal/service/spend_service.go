package service

import (
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/repository/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpendService aggregates completed expense transactions into per-category
// spend figures. Reads go through an invalidate-on-write cache; the database
// query itself is a single grouped sum.
type SpendService struct {
	transactionRepo domain.TransactionRepository
	spendCache      *cache.SpendCache
}

// NewSpendService creates a new SpendService. spendCache may be nil to
// disable caching.
func NewSpendService(transactionRepo domain.TransactionRepository, spendCache *cache.SpendCache) *SpendService {
	return &SpendService{
		transactionRepo: transactionRepo,
		spendCache:      spendCache,
	}
}

// SpendByCategory returns the spend per category plus the grand total for the
// window. Categories with no matching transactions map to zero, not absence.
func (s *SpendService) SpendByCategory(userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) (map[uuid.UUID]decimal.Decimal, decimal.Decimal, error) {
	rows, err := s.lookup(userID, categoryIDs, from, to)
	if err != nil {
		return nil, decimal.Zero, err
	}

	spend := make(map[uuid.UUID]decimal.Decimal, len(categoryIDs))
	for _, id := range categoryIDs {
		spend[id] = decimal.Zero
	}
	total := decimal.Zero
	for _, row := range rows {
		spend[row.CategoryID] = row.Total
		total = total.Add(row.Total)
	}
	return spend, total, nil
}

// SpendForCategory returns the spend for a single category in the window.
func (s *SpendService) SpendForCategory(userID, categoryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return s.transactionRepo.SumCompletedExpensesForCategory(userID, categoryID, from, to)
}

// RefreshSpent overwrites each allocation's spent amount and the budget's
// cached totals from current transaction data. Purely in-memory; the caller
// persists the budget afterwards.
func (s *SpendService) RefreshSpent(budget *domain.Budget, now time.Time) error {
	spend, _, err := s.SpendByCategory(budget.UserID, budget.CategoryIDs(), budget.StartDate, budget.EndDate)
	if err != nil {
		return err
	}

	for _, alloc := range budget.Allocations {
		alloc.SpentAmount = spend[alloc.CategoryID]
	}
	budget.Recalculate(now)
	return nil
}

func (s *SpendService) lookup(userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) ([]*domain.CategorySpend, error) {
	if s.spendCache == nil {
		return s.transactionRepo.SumCompletedExpensesByCategory(userID, categoryIDs, from, to)
	}

	key := cache.Key(userID, categoryIDs, from, to)
	if rows, ok := s.spendCache.Get(key); ok {
		return rows, nil
	}

	rows, err := s.transactionRepo.SumCompletedExpensesByCategory(userID, categoryIDs, from, to)
	if err != nil {
		return nil, err
	}
	s.spendCache.Set(userID, key, rows)
	return rows, nil
}
