package postgres

import (
	"context"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, user_id, name, type, parent_id, color, created_at, updated_at`

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (user_id, name, type, parent_id, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + categoryColumns
	return r.scanCategory(r.pool.QueryRow(context.Background(), query,
		category.UserID, category.Name, string(category.Type), category.ParentID, category.Color))
}

// GetByID retrieves a category by ID scoped to a user
func (r *CategoryRepository) GetByID(userID, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND user_id = $2`
	category, err := r.scanCategory(r.pool.QueryRow(context.Background(), query, id, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByUser retrieves all categories for a user
func (r *CategoryRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY name`
	rows, err := r.pool.Query(context.Background(), query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := r.scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates an existing category
func (r *CategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET name = $3, type = $4, parent_id = $5, color = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + categoryColumns
	updated, err := r.scanCategory(r.pool.QueryRow(context.Background(), query,
		category.ID, category.UserID, category.Name, string(category.Type), category.ParentID, category.Color))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a category
func (r *CategoryRepository) Delete(userID, id uuid.UUID) error {
	query := `DELETE FROM categories WHERE id = $1 AND user_id = $2`
	cmd, err := r.pool.Exec(context.Background(), query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// IsReferenced reports whether any budget allocation or non-deleted
// transaction still points at the category
func (r *CategoryRepository) IsReferenced(userID, id uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND category_id = $2 AND deleted_at IS NULL
		) OR EXISTS (
			SELECT 1 FROM budget_allocations ba
			JOIN budgets b ON b.id = ba.budget_id
			WHERE b.user_id = $1 AND ba.category_id = $2 AND b.is_deleted = FALSE
		) OR EXISTS (
			SELECT 1 FROM categories
			WHERE user_id = $1 AND parent_id = $2
		)
	`
	var referenced bool
	err := r.pool.QueryRow(context.Background(), query, userID, id).Scan(&referenced)
	if err != nil {
		return false, err
	}
	return referenced, nil
}

func (r *CategoryRepository) scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	var categoryType string
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &categoryType, &c.ParentID, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Type = domain.CategoryType(categoryType)
	return &c, nil
}
