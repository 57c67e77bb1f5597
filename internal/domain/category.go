package domain

import (
	"time"

	"github.com/google/uuid"
)

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category is a user-scoped label for transactions and budget allocations.
// Categories may nest up to MaxCategoryDepth levels via ParentID.
type Category struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"userId"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	ParentID  *uuid.UUID   `json:"parentId,omitempty"`
	Color     *string      `json:"color,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Validate checks the category's own fields. Tree depth is checked by the
// service because it needs the parent chain.
func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if c.Type != CategoryTypeIncome && c.Type != CategoryTypeExpense {
		return ErrInvalidCategoryType
	}
	return nil
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(userID, id uuid.UUID) (*Category, error)
	GetAllByUser(userID uuid.UUID) ([]*Category, error)
	Update(category *Category) (*Category, error)
	Delete(userID, id uuid.UUID) error
	// IsReferenced reports whether any budget allocation or transaction
	// still points at the category.
	IsReferenced(userID, id uuid.UUID) (bool, error)
}
