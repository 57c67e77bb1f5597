package service

import (
	"testing"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type budgetFixture struct {
	svc             *BudgetService
	budgetRepo      *testutil.MockBudgetRepository
	categoryRepo    *testutil.MockCategoryRepository
	transactionRepo *testutil.MockTransactionRepository
	userID          uuid.UUID
}

func newBudgetFixture() *budgetFixture {
	budgetRepo := testutil.NewMockBudgetRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	spendService := NewSpendService(transactionRepo, nil)
	svc := NewBudgetService(budgetRepo, categoryRepo, spendService, NewPerformanceService())
	return &budgetFixture{
		svc:             svc,
		budgetRepo:      budgetRepo,
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		userID:          uuid.New(),
	}
}

func (f *budgetFixture) addCategory(name string) uuid.UUID {
	category := &domain.Category{
		ID:     uuid.New(),
		UserID: f.userID,
		Name:   name,
		Type:   domain.CategoryTypeExpense,
	}
	f.categoryRepo.AddCategory(category)
	return category.ID
}

func (f *budgetFixture) newBudget(total int64, allocations ...*domain.CategoryAllocation) *domain.Budget {
	return &domain.Budget{
		UserID:      f.userID,
		Name:        "Monthly Budget",
		Period:      domain.PeriodMonthly,
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(total),
		Allocations: allocations,
	}
}

func TestCreateBudget_StartsAtVersionOne(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	budget := f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	})

	created, err := f.svc.CreateBudget(budget)

	require.NoError(t, err)
	assert.Equal(t, int32(1), created.Version)
	assert.NotNil(t, created.LastCalculated)
	assert.Equal(t, "0.00", created.TotalSpent.StringFixed(2))
	assert.Equal(t, "1000.00", created.TotalRemaining.StringFixed(2))
}

func TestCreateBudget_RejectsUnknownCategory(t *testing.T) {
	f := newBudgetFixture()

	budget := f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      uuid.New(),
		AllocatedAmount: decimal.NewFromInt(500),
	})

	_, err := f.svc.CreateBudget(budget)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCreateBudget_RejectsOverAllocation(t *testing.T) {
	f := newBudgetFixture()
	catA := f.addCategory("Rent")
	catB := f.addCategory("Food")

	budget := f.newBudget(1000,
		&domain.CategoryAllocation{CategoryID: catA, AllocatedAmount: decimal.NewFromInt(700)},
		&domain.CategoryAllocation{CategoryID: catB, AllocatedAmount: decimal.NewFromInt(400)},
	)

	_, err := f.svc.CreateBudget(budget)
	assert.ErrorIs(t, err, domain.ErrAllocationExceedsTotal)
}

func TestCreateBudget_RejectsDuplicateAllocation(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Rent")

	budget := f.newBudget(1000,
		&domain.CategoryAllocation{CategoryID: categoryID, AllocatedAmount: decimal.NewFromInt(300)},
		&domain.CategoryAllocation{CategoryID: categoryID, AllocatedAmount: decimal.NewFromInt(300)},
	)

	_, err := f.svc.CreateBudget(budget)
	assert.ErrorIs(t, err, domain.ErrDuplicateAllocation)
}

func TestUpdateBudget_BumpsVersionOnStructuralChange(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	created, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)

	// Changing an allocation amount is structural.
	updated := f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(600),
	})
	updated.ID = created.ID

	result, err := f.svc.UpdateBudget(updated)
	require.NoError(t, err)
	assert.Equal(t, int32(2), result.Version)
}

func TestUpdateBudget_KeepsVersionOnCosmeticChange(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	created, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)

	// Renaming does not change totals or allocations.
	updated := f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	})
	updated.ID = created.ID
	updated.Name = "Renamed Budget"

	result, err := f.svc.UpdateBudget(updated)
	require.NoError(t, err)
	assert.Equal(t, int32(1), result.Version)
}

func TestUpdateBudget_PreservesSpendAndRollover(t *testing.T) {
	f := newBudgetFixture()
	keptCategory := f.addCategory("Groceries")
	newCategory := f.addCategory("Transport")

	stored := f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      keptCategory,
		AllocatedAmount: decimal.NewFromInt(800),
		SpentAmount:     decimal.NewFromInt(120),
		RolloverAmount:  decimal.NewFromInt(50),
	})
	stored.ID = uuid.New()
	stored.Version = 1
	f.budgetRepo.AddBudget(stored)

	// Requests carry allocated amounts only; a rename must not reset the
	// engine-owned spend and rollover figures.
	updated := f.newBudget(1000,
		&domain.CategoryAllocation{
			CategoryID:      keptCategory,
			AllocatedAmount: decimal.NewFromInt(700),
		},
		&domain.CategoryAllocation{
			CategoryID:      newCategory,
			AllocatedAmount: decimal.NewFromInt(300),
		},
	)
	updated.ID = stored.ID
	updated.Name = "Renamed Budget"

	result, err := f.svc.UpdateBudget(updated)
	require.NoError(t, err)

	kept := result.Allocation(keptCategory)
	require.NotNil(t, kept)
	assert.Equal(t, "50.00", kept.RolloverAmount.StringFixed(2))
	assert.Equal(t, "120.00", kept.SpentAmount.StringFixed(2))
	assert.Equal(t, "750.00", kept.AdjustedAmount().StringFixed(2))

	added := result.Allocation(newCategory)
	require.NotNil(t, added)
	assert.Equal(t, "0.00", added.RolloverAmount.StringFixed(2))

	persisted := f.budgetRepo.Budgets[stored.ID]
	assert.Equal(t, "50.00", persisted.Allocation(keptCategory).RolloverAmount.StringFixed(2))
	assert.Equal(t, "120.00", persisted.TotalSpent.StringFixed(2))
}

func TestRefreshSpend_AggregatesCompletedExpenses(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	created, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	f.transactionRepo.AddTransaction(&domain.Transaction{
		ID:              uuid.New(),
		UserID:          f.userID,
		CategoryID:      &categoryID,
		Name:            "Supermarket",
		Amount:          decimal.NewFromInt(150),
		Type:            domain.TransactionTypeExpense,
		Status:          domain.TransactionStatusCompleted,
		TransactionDate: date,
	})
	// Pending and income rows must not count.
	f.transactionRepo.AddTransaction(&domain.Transaction{
		ID:              uuid.New(),
		UserID:          f.userID,
		CategoryID:      &categoryID,
		Name:            "Scheduled",
		Amount:          decimal.NewFromInt(999),
		Type:            domain.TransactionTypeExpense,
		Status:          domain.TransactionStatusPending,
		TransactionDate: date,
	})
	f.transactionRepo.AddTransaction(&domain.Transaction{
		ID:              uuid.New(),
		UserID:          f.userID,
		CategoryID:      &categoryID,
		Name:            "Refund",
		Amount:          decimal.NewFromInt(20),
		Type:            domain.TransactionTypeIncome,
		Status:          domain.TransactionStatusCompleted,
		TransactionDate: date,
	})

	refreshed, err := f.svc.RefreshSpend(f.userID, created.ID)

	require.NoError(t, err)
	assert.Equal(t, "150.00", refreshed.TotalSpent.StringFixed(2))
	assert.Equal(t, "850.00", refreshed.TotalRemaining.StringFixed(2))
	assert.Equal(t, "15.00", refreshed.UtilizationPercentage.StringFixed(2))
	assert.Equal(t, "150.00", refreshed.Allocations[0].SpentAmount.StringFixed(2))
}

func TestReport_DoesNotPersist(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	created, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)
	versionBefore := created.Version

	f.transactionRepo.AddTransaction(&domain.Transaction{
		ID:              uuid.New(),
		UserID:          f.userID,
		CategoryID:      &categoryID,
		Name:            "Supermarket",
		Amount:          decimal.NewFromInt(400),
		Type:            domain.TransactionTypeExpense,
		Status:          domain.TransactionStatusCompleted,
		TransactionDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
	})

	report, err := f.svc.Report(f.userID, created.ID)

	require.NoError(t, err)
	assert.Equal(t, "400.00", report.TotalSpent.StringFixed(2))
	assert.Equal(t, versionBefore, f.budgetRepo.Budgets[created.ID].Version)
}

func TestViolations_ReportsExceededBudget(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	created, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(1000),
	}))
	require.NoError(t, err)

	f.transactionRepo.AddTransaction(&domain.Transaction{
		ID:              uuid.New(),
		UserID:          f.userID,
		CategoryID:      &categoryID,
		Name:            "Blowout",
		Amount:          decimal.NewFromInt(1100),
		Type:            domain.TransactionTypeExpense,
		Status:          domain.TransactionStatusCompleted,
		TransactionDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
	})

	violations, err := f.svc.Violations(f.userID, created.ID)

	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, domain.ViolationBudgetExceeded, violations[0].Type)
	assert.Equal(t, "100.00", violations[0].Amount.StringFixed(2))
	assert.Equal(t, domain.ViolationCategoryExceeded, violations[1].Type)
}

func TestApplyRollover_CarriesUnspentAmounts(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	source, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)

	// 300 spent in the source window leaves 500 to roll over.
	f.transactionRepo.AddTransaction(&domain.Transaction{
		ID:              uuid.New(),
		UserID:          f.userID,
		CategoryID:      &categoryID,
		Name:            "Supermarket",
		Amount:          decimal.NewFromInt(300),
		Type:            domain.TransactionTypeExpense,
		Status:          domain.TransactionStatusCompleted,
		TransactionDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})

	target := f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	})
	target.StartDate = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	target.EndDate = time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	target.RolloverEnabled = true
	created, err := f.svc.CreateBudget(target)
	require.NoError(t, err)

	result, err := f.svc.ApplyRollover(f.userID, created.ID, source.ID)

	require.NoError(t, err)
	assert.Equal(t, "500.00", result.Allocations[0].RolloverAmount.StringFixed(2))
	assert.Equal(t, "1300.00", result.Allocations[0].AdjustedAmount().StringFixed(2))
}

func TestApplyRollover_RequiresRolloverEnabled(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	source, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)

	target, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)

	_, err = f.svc.ApplyRollover(f.userID, target.ID, source.ID)
	assert.ErrorIs(t, err, domain.ErrRolloverDisabled)
}

func TestDeleteBudget_SoftDeletesOnly(t *testing.T) {
	f := newBudgetFixture()
	categoryID := f.addCategory("Groceries")

	created, err := f.svc.CreateBudget(f.newBudget(1000, &domain.CategoryAllocation{
		CategoryID:      categoryID,
		AllocatedAmount: decimal.NewFromInt(800),
	}))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBudget(f.userID, created.ID))

	_, err = f.svc.GetBudget(f.userID, created.ID)
	assert.ErrorIs(t, err, domain.ErrBudgetNotFound)

	// The row remains for the retention worker to purge later.
	assert.True(t, f.budgetRepo.Budgets[created.ID].IsDeleted)
	assert.NotNil(t, f.budgetRepo.Budgets[created.ID].DeletedAt)
}
