package service

import (
	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/repository/cache"
	"github.com/google/uuid"
)

// TransactionService handles transaction business logic. Every write
// invalidates the user's cached spend sums so budget reports never see stale
// aggregates.
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	spendCache      *cache.SpendCache
}

// NewTransactionService creates a new TransactionService. spendCache may be
// nil when caching is disabled.
func NewTransactionService(
	transactionRepo domain.TransactionRepository,
	categoryRepo domain.CategoryRepository,
	spendCache *cache.SpendCache,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		spendCache:      spendCache,
	}
}

// CreateTransaction validates and persists a new transaction.
func (s *TransactionService) CreateTransaction(transaction *domain.Transaction) (*domain.Transaction, error) {
	if transaction.Status == "" {
		transaction.Status = domain.TransactionStatusCompleted
	}
	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(transaction); err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(transaction)
	if err != nil {
		return nil, err
	}
	s.invalidate(transaction.UserID)
	return created, nil
}

// GetTransaction returns a single transaction scoped to the user.
func (s *TransactionService) GetTransaction(userID, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(userID, id)
}

// GetTransactions returns a filtered, paginated transaction list.
func (s *TransactionService) GetTransactions(userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = domain.DefaultPageSize
	}
	if filters.PageSize > domain.MaxPageSize {
		filters.PageSize = domain.MaxPageSize
	}
	return s.transactionRepo.GetByUser(userID, filters)
}

// UpdateTransaction validates edits and persists them.
func (s *TransactionService) UpdateTransaction(transaction *domain.Transaction) (*domain.Transaction, error) {
	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(transaction); err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.Update(transaction)
	if err != nil {
		return nil, err
	}
	s.invalidate(transaction.UserID)
	return updated, nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *TransactionService) DeleteTransaction(userID, id uuid.UUID) error {
	if err := s.transactionRepo.SoftDelete(userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *TransactionService) checkCategory(transaction *domain.Transaction) error {
	if transaction.CategoryID == nil {
		return nil
	}
	_, err := s.categoryRepo.GetByID(transaction.UserID, *transaction.CategoryID)
	return err
}

func (s *TransactionService) invalidate(userID uuid.UUID) {
	if s.spendCache != nil {
		s.spendCache.InvalidateUser(userID)
	}
}
