package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, category_id, name, amount, type, status,
	transaction_date, notes, receipt_id, created_at, updated_at, deleted_at`

// Create creates a new transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := `
		INSERT INTO transactions (user_id, category_id, name, amount, type, status, transaction_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + transactionColumns
	return r.scanTransaction(r.pool.QueryRow(context.Background(), query,
		transaction.UserID, transaction.CategoryID, transaction.Name, amount,
		string(transaction.Type), string(transaction.Status), transaction.TransactionDate, transaction.Notes))
}

// GetByID retrieves a non-deleted transaction by ID scoped to a user
func (r *TransactionRepository) GetByID(userID, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	transaction, err := r.scanTransaction(r.pool.QueryRow(context.Background(), query, id, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByUser retrieves a page of transactions matching the filters,
// newest first
func (r *TransactionRepository) GetByUser(userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	ctx := context.Background()

	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []interface{}{userID}

	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filters.StartDate != nil {
		args = append(args, *filters.StartDate)
		where = append(where, fmt.Sprintf("transaction_date >= $%d", len(args)))
	}
	if filters.EndDate != nil {
		args = append(args, *filters.EndDate)
		where = append(where, fmt.Sprintf("transaction_date <= $%d", len(args)))
	}
	if filters.Type != nil {
		args = append(args, string(*filters.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filters.Status != nil {
		args = append(args, string(*filters.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var totalItems int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	offset := (filters.Page - 1) * filters.PageSize
	args = append(args, filters.PageSize, offset)
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, transactionColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		transaction, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32((totalItems + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	return &domain.PaginatedTransactions{
		Data:       transactions,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// Update updates an existing transaction
func (r *TransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := `
		UPDATE transactions
		SET category_id = $3, name = $4, amount = $5, type = $6, status = $7,
			transaction_date = $8, notes = $9, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		RETURNING ` + transactionColumns
	updated, err := r.scanTransaction(r.pool.QueryRow(context.Background(), query,
		transaction.ID, transaction.UserID, transaction.CategoryID, transaction.Name, amount,
		string(transaction.Type), string(transaction.Status), transaction.TransactionDate, transaction.Notes))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// SoftDelete marks a transaction as deleted
func (r *TransactionRepository) SoftDelete(userID, id uuid.UUID) error {
	query := `
		UPDATE transactions SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(context.Background(), query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// SetReceiptID attaches or detaches a receipt reference
func (r *TransactionRepository) SetReceiptID(userID, id uuid.UUID, receiptID *string) error {
	query := `
		UPDATE transactions SET receipt_id = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(context.Background(), query, id, userID, receiptID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// PurgeDeletedBefore permanently removes transactions soft-deleted before cutoff
func (r *TransactionRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	query := `DELETE FROM transactions WHERE deleted_at IS NOT NULL AND deleted_at < $1`
	cmd, err := r.pool.Exec(context.Background(), query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// SumCompletedExpensesByCategory returns the completed, non-deleted expense
// total per category within the window. Categories with no matching rows
// produce no row.
func (r *TransactionRepository) SumCompletedExpensesByCategory(userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) ([]*domain.CategorySpend, error) {
	query := `
		SELECT category_id, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1
			AND category_id = ANY($2)
			AND type = 'expense'
			AND status = 'completed'
			AND deleted_at IS NULL
			AND transaction_date >= $3
			AND transaction_date <= $4
		GROUP BY category_id`
	rows, err := r.pool.Query(context.Background(), query, userID, categoryIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spends []*domain.CategorySpend
	for rows.Next() {
		var spend domain.CategorySpend
		var total pgtype.Numeric
		if err := rows.Scan(&spend.CategoryID, &total); err != nil {
			return nil, err
		}
		spend.Total = pgNumericToDecimal(total)
		spends = append(spends, &spend)
	}
	return spends, rows.Err()
}

// SumCompletedExpensesForCategory is the single-category variant
func (r *TransactionRepository) SumCompletedExpensesForCategory(userID, categoryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1
			AND category_id = $2
			AND type = 'expense'
			AND status = 'completed'
			AND deleted_at IS NULL
			AND transaction_date >= $3
			AND transaction_date <= $4`
	var total pgtype.Numeric
	err := r.pool.QueryRow(context.Background(), query, userID, categoryID, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var txType, status string
	var amount pgtype.Numeric
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Name, &amount, &txType, &status,
		&t.TransactionDate, &t.Notes, &t.ReceiptID, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Type = domain.TransactionType(txType)
	t.Status = domain.TransactionStatus(status)
	return &t, nil
}
