package service

import (
	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CreateCategory validates the category and its tree depth, then persists.
func (s *CategoryService) CreateCategory(category *domain.Category) (*domain.Category, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDepth(category); err != nil {
		return nil, err
	}
	return s.categoryRepo.Create(category)
}

// GetCategory returns a single category scoped to the user.
func (s *CategoryService) GetCategory(userID, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.GetByID(userID, id)
}

// GetCategories returns all categories for a user.
func (s *CategoryService) GetCategories(userID uuid.UUID) ([]*domain.Category, error) {
	return s.categoryRepo.GetAllByUser(userID)
}

// UpdateCategory validates edits and persists them.
func (s *CategoryService) UpdateCategory(category *domain.Category) (*domain.Category, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDepth(category); err != nil {
		return nil, err
	}
	return s.categoryRepo.Update(category)
}

// CanDelete reports whether the category is safe to delete (nothing
// references it).
func (s *CategoryService) CanDelete(userID, id uuid.UUID) (bool, error) {
	if _, err := s.categoryRepo.GetByID(userID, id); err != nil {
		return false, err
	}
	referenced, err := s.categoryRepo.IsReferenced(userID, id)
	if err != nil {
		return false, err
	}
	return !referenced, nil
}

// DeleteCategory removes a category unless a budget or transaction still
// references it.
func (s *CategoryService) DeleteCategory(userID, id uuid.UUID) error {
	ok, err := s.CanDelete(userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCategoryInUse
	}
	return s.categoryRepo.Delete(userID, id)
}

// checkDepth walks the parent chain and rejects trees deeper than
// domain.MaxCategoryDepth. The new category itself counts as one level.
func (s *CategoryService) checkDepth(category *domain.Category) error {
	depth := 1
	parentID := category.ParentID
	for parentID != nil {
		if depth >= domain.MaxCategoryDepth {
			return domain.ErrCategoryDepth
		}
		parent, err := s.categoryRepo.GetByID(category.UserID, *parentID)
		if err != nil {
			return err
		}
		if parent.ID == category.ID {
			// Cycle guard: a category may not become its own ancestor.
			return domain.ErrCategoryDepth
		}
		depth++
		parentID = parent.ParentID
	}
	return nil
}
