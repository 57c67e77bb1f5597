package service

import (
	"context"
	"testing"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRetentionWorker_PurgesExpiredSoftDeletes(t *testing.T) {
	budgetRepo := testutil.NewMockBudgetRepository()
	goalRepo := testutil.NewMockGoalRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	userID := uuid.New()

	old := time.Now().Add(-60 * 24 * time.Hour)
	recent := time.Now().Add(-1 * time.Hour)

	expiredBudget := &domain.Budget{ID: uuid.New(), UserID: userID, Name: "Old", IsDeleted: true, DeletedAt: &old}
	freshBudget := &domain.Budget{ID: uuid.New(), UserID: userID, Name: "Fresh", IsDeleted: true, DeletedAt: &recent}
	budgetRepo.AddBudget(expiredBudget)
	budgetRepo.AddBudget(freshBudget)

	expiredGoal := &domain.Goal{ID: uuid.New(), UserID: userID, Name: "Old", IsDeleted: true, DeletedAt: &old}
	goalRepo.AddGoal(expiredGoal)

	expiredTransaction := &domain.Transaction{
		ID: uuid.New(), UserID: userID, Name: "Old",
		Amount: decimal.NewFromInt(10), Type: domain.TransactionTypeExpense,
		Status: domain.TransactionStatusCompleted, DeletedAt: &old,
	}
	transactionRepo.AddTransaction(expiredTransaction)

	worker := NewRetentionWorker(budgetRepo, goalRepo, transactionRepo, zerolog.Nop(), RetentionWorkerConfig{
		Interval:  time.Hour,
		Retention: 30 * 24 * time.Hour,
	})

	// The first purge pass runs synchronously before the ticker loop, so a
	// start/stop cycle is enough to observe it.
	worker.Start(context.Background())
	worker.Stop()

	assert.NotContains(t, budgetRepo.Budgets, expiredBudget.ID)
	assert.Contains(t, budgetRepo.Budgets, freshBudget.ID)
	assert.NotContains(t, goalRepo.Goals, expiredGoal.ID)
	assert.NotContains(t, transactionRepo.Transactions, expiredTransaction.ID)
}

func TestRetentionWorker_StartIsIdempotent(t *testing.T) {
	worker := NewRetentionWorker(
		testutil.NewMockBudgetRepository(),
		testutil.NewMockGoalRepository(),
		testutil.NewMockTransactionRepository(),
		zerolog.Nop(),
		DefaultRetentionWorkerConfig(),
	)

	worker.Start(context.Background())
	worker.Start(context.Background())
	worker.Stop()
	worker.Stop()
}

func TestRetentionWorker_DefaultsAppliedToZeroConfig(t *testing.T) {
	worker := NewRetentionWorker(
		testutil.NewMockBudgetRepository(),
		testutil.NewMockGoalRepository(),
		testutil.NewMockTransactionRepository(),
		zerolog.Nop(),
		RetentionWorkerConfig{},
	)

	assert.Equal(t, 24*time.Hour, worker.interval)
	assert.Equal(t, 30*24*time.Hour, worker.retention)
}
