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

// GoalRepository implements domain.GoalRepository using PostgreSQL.
// Contributions are append-only rows in goal_contributions.
type GoalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository creates a new GoalRepository
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

const goalColumns = `id, user_id, name, category_id, target_amount, current_amount, currency,
	start_date, target_date, status, priority, progress_percentage, overachievement_amount,
	average_monthly_contribution, estimated_completion_date, achievement_probability,
	achievement_date, created_at, updated_at, is_deleted, deleted_at`

// Create creates a new goal
func (r *GoalRepository) Create(goal *domain.Goal) (*domain.Goal, error) {
	targetAmount, err := decimalToPgNumeric(goal.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid target amount: %w", err)
	}
	currentAmount, err := decimalToPgNumeric(goal.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid current amount: %w", err)
	}

	query := `
		INSERT INTO goals (user_id, name, category_id, target_amount, current_amount, currency,
			start_date, target_date, status, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + goalColumns
	created, err := r.scanGoal(r.pool.QueryRow(context.Background(), query,
		goal.UserID, goal.Name, goal.CategoryID, targetAmount, currentAmount, goal.Currency,
		goal.StartDate, goal.TargetDate, string(goal.Status), goal.Priority))
	if err != nil {
		return nil, err
	}
	created.Contributions = []*domain.Contribution{}
	return created, nil
}

// GetByID retrieves a goal with its contributions
func (r *GoalRepository) GetByID(userID, id uuid.UUID) (*domain.Goal, error) {
	ctx := context.Background()
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`
	goal, err := r.scanGoal(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}

	contributions, err := r.loadContributions(ctx, []uuid.UUID{goal.ID})
	if err != nil {
		return nil, err
	}
	goal.Contributions = contributions[goal.ID]
	if goal.Contributions == nil {
		goal.Contributions = []*domain.Contribution{}
	}
	return goal, nil
}

// GetAllByUser retrieves all goals for a user, highest priority first
func (r *GoalRepository) GetAllByUser(userID uuid.UUID, includeDeleted bool) ([]*domain.Goal, error) {
	ctx := context.Background()
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	query += ` ORDER BY priority DESC, target_date ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*domain.Goal
	var ids []uuid.UUID
	for rows.Next() {
		goal, err := r.scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
		ids = append(ids, goal.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return goals, nil
	}

	contributions, err := r.loadContributions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, goal := range goals {
		goal.Contributions = contributions[goal.ID]
		if goal.Contributions == nil {
			goal.Contributions = []*domain.Contribution{}
		}
	}
	return goals, nil
}

// Update updates a goal's fields and derived figures
func (r *GoalRepository) Update(goal *domain.Goal) (*domain.Goal, error) {
	updated, err := r.updateGoalRow(context.Background(), r.pool, goal)
	if err != nil {
		return nil, err
	}
	updated.Contributions = goal.Contributions
	return updated, nil
}

// AddContribution appends a contribution and persists the goal's updated
// amounts and derived fields in one transaction
func (r *GoalRepository) AddContribution(goal *domain.Goal, contribution *domain.Contribution) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	amount, err := decimalToPgNumeric(contribution.Amount)
	if err != nil {
		return fmt.Errorf("invalid contribution amount: %w", err)
	}

	query := `
		INSERT INTO goal_contributions (goal_id, amount, date, method, transaction_id, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err = tx.QueryRow(ctx, query, goal.ID, amount, contribution.Date, string(contribution.Method),
		contribution.TransactionID, contribution.Source, contribution.Notes).
		Scan(&contribution.ID, &contribution.CreatedAt)
	if err != nil {
		return err
	}
	contribution.GoalID = goal.ID

	if _, err := r.updateGoalRow(ctx, tx, goal); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SoftDelete marks a goal as deleted
func (r *GoalRepository) SoftDelete(userID, id uuid.UUID) error {
	query := `
		UPDATE goals SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`
	cmd, err := r.pool.Exec(context.Background(), query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

// PurgeDeletedBefore permanently removes goals soft-deleted before cutoff.
// Contributions go with them via ON DELETE CASCADE.
func (r *GoalRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	query := `DELETE FROM goals WHERE is_deleted = TRUE AND deleted_at < $1`
	cmd, err := r.pool.Exec(context.Background(), query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *GoalRepository) updateGoalRow(ctx context.Context, q queryRower, goal *domain.Goal) (*domain.Goal, error) {
	targetAmount, err := decimalToPgNumeric(goal.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid target amount: %w", err)
	}
	currentAmount, err := decimalToPgNumeric(goal.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid current amount: %w", err)
	}
	progress, err := decimalToPgNumeric(goal.ProgressPercentage)
	if err != nil {
		return nil, err
	}
	overachievement, err := decimalToPgNumeric(goal.OverachievementAmount)
	if err != nil {
		return nil, err
	}
	monthlyAvg, err := decimalToPgNumeric(goal.AverageMonthlyContribution)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE goals
		SET name = $3, category_id = $4, target_amount = $5, current_amount = $6,
			currency = $7, start_date = $8, target_date = $9, status = $10, priority = $11,
			progress_percentage = $12, overachievement_amount = $13,
			average_monthly_contribution = $14, estimated_completion_date = $15,
			achievement_probability = $16, achievement_date = $17, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE
		RETURNING ` + goalColumns
	updated, err := r.scanGoal(q.QueryRow(ctx, query,
		goal.ID, goal.UserID, goal.Name, goal.CategoryID, targetAmount, currentAmount,
		goal.Currency, goal.StartDate, goal.TargetDate, string(goal.Status), goal.Priority,
		progress, overachievement, monthlyAvg, goal.EstimatedCompletionDate,
		goal.AchievementProbability, goal.AchievementDate))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *GoalRepository) loadContributions(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]*domain.Contribution, error) {
	query := `
		SELECT id, goal_id, amount, date, method, transaction_id, source, notes, created_at
		FROM goal_contributions
		WHERE goal_id = ANY($1)
		ORDER BY date ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, goalIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]*domain.Contribution, len(goalIDs))
	for rows.Next() {
		var c domain.Contribution
		var method string
		var amount pgtype.Numeric
		if err := rows.Scan(&c.ID, &c.GoalID, &amount, &c.Date, &method, &c.TransactionID,
			&c.Source, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Amount = pgNumericToDecimal(amount)
		c.Method = domain.ContributionMethod(method)
		result[c.GoalID] = append(result[c.GoalID], &c)
	}
	return result, rows.Err()
}

func (r *GoalRepository) scanGoal(row pgx.Row) (*domain.Goal, error) {
	var g domain.Goal
	var status string
	var targetAmount, currentAmount, progress, overachievement, monthlyAvg pgtype.Numeric
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.CategoryID, &targetAmount, &currentAmount,
		&g.Currency, &g.StartDate, &g.TargetDate, &status, &g.Priority, &progress,
		&overachievement, &monthlyAvg, &g.EstimatedCompletionDate, &g.AchievementProbability,
		&g.AchievementDate, &g.CreatedAt, &g.UpdatedAt, &g.IsDeleted, &g.DeletedAt)
	if err != nil {
		return nil, err
	}
	g.Status = domain.GoalStatus(status)
	g.TargetAmount = pgNumericToDecimal(targetAmount)
	g.CurrentAmount = pgNumericToDecimal(currentAmount)
	g.ProgressPercentage = pgNumericToDecimal(progress)
	g.OverachievementAmount = pgNumericToDecimal(overachievement)
	g.AverageMonthlyContribution = pgNumericToDecimal(monthlyAvg)
	return &g, nil
}
