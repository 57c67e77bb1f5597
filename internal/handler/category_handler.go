package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Type     string  `json:"type" validate:"required,oneof=income expense"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`
	Color    *string `json:"color" validate:"omitempty,hexcolor"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	ParentID  *string   `json:"parentId,omitempty"`
	Color     *string   `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanDeleteResponse reports whether a category can safely be deleted
type CanDeleteResponse struct {
	CanDelete bool `json:"canDelete"`
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	category, err := categoryFromRequest(userID, &req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	created, err := h.categoryService.CreateCategory(category)
	if err != nil {
		return h.mapCategoryError(c, err, "create")
	}

	log.Info().Str("user_id", userID.String()).Str("category_id", created.ID.String()).Msg("Category created")
	return c.JSON(http.StatusCreated, toCategoryResponse(created))
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	categories, err := h.categoryService.GetCategories(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list categories")
		return NewInternalError(c, "Failed to list categories")
	}

	responses := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		responses[i] = toCategoryResponse(category)
	}
	return c.JSON(http.StatusOK, responses)
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	category, err := categoryFromRequest(userID, &req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	category.ID = id

	updated, err := h.categoryService.UpdateCategory(category)
	if err != nil {
		return h.mapCategoryError(c, err, "update")
	}

	log.Info().Str("user_id", userID.String()).Str("category_id", id.String()).Msg("Category updated")
	return c.JSON(http.StatusOK, toCategoryResponse(updated))
}

// CanDeleteCategory handles GET /api/v1/categories/:id/can-delete
func (h *CategoryHandler) CanDeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	canDelete, err := h.categoryService.CanDelete(userID, id)
	if err != nil {
		return h.mapCategoryError(c, err, "can-delete")
	}
	return c.JSON(http.StatusOK, CanDeleteResponse{CanDelete: canDelete})
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(userID, id); err != nil {
		return h.mapCategoryError(c, err, "delete")
	}

	log.Info().Str("user_id", userID.String()).Str("category_id", id.String()).Msg("Category deleted")
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) mapCategoryError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	case errors.Is(err, domain.ErrCategoryInUse):
		return NewConflictError(c, "Category is still referenced by a budget or transaction")
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrInvalidCategoryType),
		errors.Is(err, domain.ErrCategoryDepth):
		return NewValidationError(c, err.Error(), nil)
	}
	log.Error().Err(err).Str("op", op).Msg("Category operation failed")
	return NewInternalError(c, "Category operation failed")
}

func categoryFromRequest(userID uuid.UUID, req *CategoryRequest) (*domain.Category, error) {
	var parentID *uuid.UUID
	if req.ParentID != nil {
		parsed, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return nil, errors.New("parentId must be a valid UUID")
		}
		parentID = &parsed
	}
	return &domain.Category{
		UserID:   userID,
		Name:     req.Name,
		Type:     domain.CategoryType(req.Type),
		ParentID: parentID,
		Color:    req.Color,
	}, nil
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	var parentID *string
	if category.ParentID != nil {
		id := category.ParentID.String()
		parentID = &id
	}
	return CategoryResponse{
		ID:        category.ID.String(),
		Name:      category.Name,
		Type:      string(category.Type),
		ParentID:  parentID,
		Color:     category.Color,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}
