package service

import (
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
)

// BudgetService handles budget lifecycle and orchestrates the engine
// pipeline: refresh spend, recompute, persist. Calculation itself lives in
// SpendService and PerformanceService; this service owns the explicit
// persistence step.
type BudgetService struct {
	budgetRepo         domain.BudgetRepository
	categoryRepo       domain.CategoryRepository
	spendService       *SpendService
	performanceService *PerformanceService
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	budgetRepo domain.BudgetRepository,
	categoryRepo domain.CategoryRepository,
	spendService *SpendService,
	performanceService *PerformanceService,
) *BudgetService {
	return &BudgetService{
		budgetRepo:         budgetRepo,
		categoryRepo:       categoryRepo,
		spendService:       spendService,
		performanceService: performanceService,
	}
}

// CreateBudget validates the aggregate, verifies every allocated category
// belongs to the owner, and persists.
func (s *BudgetService) CreateBudget(budget *domain.Budget) (*domain.Budget, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategories(budget); err != nil {
		return nil, err
	}
	budget.Version = 1
	budget.Recalculate(time.Now())
	return s.budgetRepo.Create(budget)
}

// GetBudget returns a single budget scoped to the user.
func (s *BudgetService) GetBudget(userID, id uuid.UUID) (*domain.Budget, error) {
	return s.budgetRepo.GetByID(userID, id)
}

// GetBudgets returns all non-deleted budgets for a user.
func (s *BudgetService) GetBudgets(userID uuid.UUID) ([]*domain.Budget, error) {
	return s.budgetRepo.GetAllByUser(userID, false)
}

// UpdateBudget validates edits and persists them. The version counter is
// bumped when the total or the allocation set changed; it is informational
// only, not a concurrency guard.
func (s *BudgetService) UpdateBudget(budget *domain.Budget) (*domain.Budget, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategories(budget); err != nil {
		return nil, err
	}

	current, err := s.budgetRepo.GetByID(budget.UserID, budget.ID)
	if err != nil {
		return nil, err
	}
	budget.Version = current.Version
	if s.structureChanged(current, budget) {
		budget.Version++
	}

	// The request carries only allocated amounts; spend and rollover are
	// owned by the engine and must survive the update for retained
	// categories.
	for _, alloc := range budget.Allocations {
		if prev := current.Allocation(alloc.CategoryID); prev != nil {
			alloc.SpentAmount = prev.SpentAmount
			alloc.RolloverAmount = prev.RolloverAmount
		}
	}

	budget.Recalculate(time.Now())
	return s.budgetRepo.Update(budget)
}

// DeleteBudget soft-deletes a budget; the retention worker purges it after
// the retention window.
func (s *BudgetService) DeleteBudget(userID, id uuid.UUID) error {
	return s.budgetRepo.SoftDelete(userID, id)
}

// RefreshSpend re-aggregates transaction spend into the budget, recomputes
// the cached totals, and persists the result.
func (s *BudgetService) RefreshSpend(userID, id uuid.UUID) (*domain.Budget, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.spendService.RefreshSpent(budget, time.Now()); err != nil {
		return nil, err
	}
	return s.budgetRepo.Update(budget)
}

// Report refreshes spend in memory and returns the performance report without
// persisting. Idempotent for unchanged transaction data.
func (s *BudgetService) Report(userID, id uuid.UUID) (*domain.PerformanceReport, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.spendService.RefreshSpent(budget, now); err != nil {
		return nil, err
	}
	return s.performanceService.Report(budget, now), nil
}

// Violations refreshes spend in memory and returns current threshold
// breaches. Dispatching alerts is the caller's responsibility.
func (s *BudgetService) Violations(userID, id uuid.UUID) ([]*domain.Violation, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.spendService.RefreshSpent(budget, time.Now()); err != nil {
		return nil, err
	}
	return s.performanceService.DetectViolations(budget), nil
}

// ApplyRollover carries unspent per-category amounts from a prior budget of
// the same user into this budget, then persists.
func (s *BudgetService) ApplyRollover(userID, id, sourceID uuid.UUID) (*domain.Budget, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	source, err := s.budgetRepo.GetByID(userID, sourceID)
	if err != nil {
		return nil, err
	}

	// Roll over from up-to-date spend figures, not stale cached ones.
	if err := s.spendService.RefreshSpent(source, time.Now()); err != nil {
		return nil, err
	}
	if err := budget.ApplyRollover(source); err != nil {
		return nil, err
	}

	budget.Recalculate(time.Now())
	return s.budgetRepo.Update(budget)
}

func (s *BudgetService) checkCategories(budget *domain.Budget) error {
	for _, alloc := range budget.Allocations {
		if _, err := s.categoryRepo.GetByID(budget.UserID, alloc.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

func (s *BudgetService) structureChanged(old, updated *domain.Budget) bool {
	if !old.TotalAmount.Equal(updated.TotalAmount) {
		return true
	}
	if len(old.Allocations) != len(updated.Allocations) {
		return true
	}
	for _, alloc := range updated.Allocations {
		prev := old.Allocation(alloc.CategoryID)
		if prev == nil || !prev.AllocatedAmount.Equal(alloc.AllocatedAmount) {
			return true
		}
	}
	return false
}
