package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BudgetRepository implements domain.BudgetRepository using PostgreSQL.
// A budget and its category allocations are written together in one
// transaction; allocations are replaced wholesale on update.
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

const budgetColumns = `id, user_id, name, period, start_date, end_date, total_amount,
	alert_threshold, rollover_enabled, total_spent, total_remaining, utilization_percentage,
	last_calculated, version, created_at, updated_at, is_deleted, deleted_at`

// Create creates a new budget with its allocations
func (r *BudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	totalAmount, err := decimalToPgNumeric(budget.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid total amount: %w", err)
	}
	alertThreshold, err := decimalToPgNumeric(budget.AlertThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid alert threshold: %w", err)
	}
	totalSpent, err := decimalToPgNumeric(budget.TotalSpent)
	if err != nil {
		return nil, err
	}
	totalRemaining, err := decimalToPgNumeric(budget.TotalRemaining)
	if err != nil {
		return nil, err
	}
	utilization, err := decimalToPgNumeric(budget.UtilizationPercentage)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO budgets (user_id, name, period, start_date, end_date, total_amount,
			alert_threshold, rollover_enabled, total_spent, total_remaining,
			utilization_percentage, last_calculated, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + budgetColumns
	created, err := r.scanBudget(tx.QueryRow(ctx, query,
		budget.UserID, budget.Name, string(budget.Period), budget.StartDate, budget.EndDate,
		totalAmount, alertThreshold, budget.RolloverEnabled, totalSpent, totalRemaining,
		utilization, budget.LastCalculated, budget.Version))
	if err != nil {
		return nil, err
	}

	if err := r.insertAllocations(ctx, tx, created.ID, budget.Allocations); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	created.Allocations = budget.Allocations
	return created, nil
}

// GetByID retrieves a budget with its allocations
func (r *BudgetRepository) GetByID(userID, id uuid.UUID) (*domain.Budget, error) {
	ctx := context.Background()
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`
	budget, err := r.scanBudget(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}

	allocations, err := r.loadAllocations(ctx, []uuid.UUID{budget.ID})
	if err != nil {
		return nil, err
	}
	budget.Allocations = allocations[budget.ID]
	if budget.Allocations == nil {
		budget.Allocations = []*domain.CategoryAllocation{}
	}
	return budget, nil
}

// GetAllByUser retrieves all budgets for a user, newest first
func (r *BudgetRepository) GetAllByUser(userID uuid.UUID, includeDeleted bool) ([]*domain.Budget, error) {
	ctx := context.Background()
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	query += ` ORDER BY start_date DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []*domain.Budget
	var ids []uuid.UUID
	for rows.Next() {
		budget, err := r.scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
		ids = append(ids, budget.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return budgets, nil
	}

	allocations, err := r.loadAllocations(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, budget := range budgets {
		budget.Allocations = allocations[budget.ID]
		if budget.Allocations == nil {
			budget.Allocations = []*domain.CategoryAllocation{}
		}
	}
	return budgets, nil
}

// Update rewrites the budget row and replaces its allocations
func (r *BudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	totalAmount, err := decimalToPgNumeric(budget.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid total amount: %w", err)
	}
	alertThreshold, err := decimalToPgNumeric(budget.AlertThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid alert threshold: %w", err)
	}
	totalSpent, err := decimalToPgNumeric(budget.TotalSpent)
	if err != nil {
		return nil, err
	}
	totalRemaining, err := decimalToPgNumeric(budget.TotalRemaining)
	if err != nil {
		return nil, err
	}
	utilization, err := decimalToPgNumeric(budget.UtilizationPercentage)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE budgets
		SET name = $3, period = $4, start_date = $5, end_date = $6, total_amount = $7,
			alert_threshold = $8, rollover_enabled = $9, total_spent = $10,
			total_remaining = $11, utilization_percentage = $12, last_calculated = $13,
			version = $14, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE
		RETURNING ` + budgetColumns
	updated, err := r.scanBudget(tx.QueryRow(ctx, query,
		budget.ID, budget.UserID, budget.Name, string(budget.Period), budget.StartDate,
		budget.EndDate, totalAmount, alertThreshold, budget.RolloverEnabled, totalSpent,
		totalRemaining, utilization, budget.LastCalculated, budget.Version))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM budget_allocations WHERE budget_id = $1`, budget.ID); err != nil {
		return nil, err
	}
	if err := r.insertAllocations(ctx, tx, budget.ID, budget.Allocations); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	updated.Allocations = budget.Allocations
	return updated, nil
}

// SoftDelete marks a budget as deleted
func (r *BudgetRepository) SoftDelete(userID, id uuid.UUID) error {
	query := `
		UPDATE budgets SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`
	cmd, err := r.pool.Exec(context.Background(), query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

// PurgeDeletedBefore permanently removes budgets soft-deleted before cutoff.
// Allocations go with them via ON DELETE CASCADE.
func (r *BudgetRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	query := `DELETE FROM budgets WHERE is_deleted = TRUE AND deleted_at < $1`
	cmd, err := r.pool.Exec(context.Background(), query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *BudgetRepository) insertAllocations(ctx context.Context, tx pgx.Tx, budgetID uuid.UUID, allocations []*domain.CategoryAllocation) error {
	query := `
		INSERT INTO budget_allocations (budget_id, category_id, allocated_amount, spent_amount, rollover_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, alloc := range allocations {
		allocated, err := decimalToPgNumeric(alloc.AllocatedAmount)
		if err != nil {
			return fmt.Errorf("invalid allocated amount: %w", err)
		}
		spent, err := decimalToPgNumeric(alloc.SpentAmount)
		if err != nil {
			return err
		}
		rollover, err := decimalToPgNumeric(alloc.RolloverAmount)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, budgetID, alloc.CategoryID, allocated, spent, rollover, alloc.Notes); err != nil {
			return err
		}
	}
	return nil
}

func (r *BudgetRepository) loadAllocations(ctx context.Context, budgetIDs []uuid.UUID) (map[uuid.UUID][]*domain.CategoryAllocation, error) {
	query := `
		SELECT budget_id, category_id, allocated_amount, spent_amount, rollover_amount, notes
		FROM budget_allocations
		WHERE budget_id = ANY($1)
		ORDER BY allocated_amount DESC`
	rows, err := r.pool.Query(ctx, query, budgetIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]*domain.CategoryAllocation, len(budgetIDs))
	for rows.Next() {
		var budgetID uuid.UUID
		var alloc domain.CategoryAllocation
		var allocated, spent, rollover pgtype.Numeric
		if err := rows.Scan(&budgetID, &alloc.CategoryID, &allocated, &spent, &rollover, &alloc.Notes); err != nil {
			return nil, err
		}
		alloc.AllocatedAmount = pgNumericToDecimal(allocated)
		alloc.SpentAmount = pgNumericToDecimal(spent)
		alloc.RolloverAmount = pgNumericToDecimal(rollover)
		result[budgetID] = append(result[budgetID], &alloc)
	}
	return result, rows.Err()
}

func (r *BudgetRepository) scanBudget(row pgx.Row) (*domain.Budget, error) {
	var b domain.Budget
	var period string
	var totalAmount, alertThreshold, totalSpent, totalRemaining, utilization pgtype.Numeric
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &period, &b.StartDate, &b.EndDate, &totalAmount,
		&alertThreshold, &b.RolloverEnabled, &totalSpent, &totalRemaining, &utilization,
		&b.LastCalculated, &b.Version, &b.CreatedAt, &b.UpdatedAt, &b.IsDeleted, &b.DeletedAt)
	if err != nil {
		return nil, err
	}
	b.Period = domain.BudgetPeriod(period)
	b.TotalAmount = pgNumericToDecimal(totalAmount)
	b.AlertThreshold = pgNumericToDecimal(alertThreshold)
	b.TotalSpent = pgNumericToDecimal(totalSpent)
	b.TotalRemaining = pgNumericToDecimal(totalRemaining)
	b.UtilizationPercentage = pgNumericToDecimal(utilization)
	return &b, nil
}
