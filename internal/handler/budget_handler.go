package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
	"github.com/centsible/centsible-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
	publisher     websocket.EventPublisher
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService, publisher websocket.EventPublisher) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		publisher:     publisher,
	}
}

// AllocationRequest represents one category allocation in budget requests
type AllocationRequest struct {
	CategoryID string  `json:"categoryId" validate:"required,uuid"`
	Amount     string  `json:"amount" validate:"required"`
	Notes      *string `json:"notes"`
}

// BudgetRequest represents the create/update budget request body
type BudgetRequest struct {
	Name            string              `json:"name" validate:"required,max=255"`
	Period          string              `json:"period" validate:"required,oneof=daily weekly monthly quarterly yearly"`
	StartDate       time.Time           `json:"startDate" validate:"required"`
	EndDate         time.Time           `json:"endDate" validate:"required"`
	TotalAmount     string              `json:"totalAmount" validate:"required"`
	AlertThreshold  *string             `json:"alertThreshold"`
	RolloverEnabled bool                `json:"rolloverEnabled"`
	Allocations     []AllocationRequest `json:"allocations" validate:"dive"`
}

// RolloverRequest names the prior budget to carry unspent amounts from
type RolloverRequest struct {
	SourceBudgetID string `json:"sourceBudgetId" validate:"required,uuid"`
}

// AllocationResponse represents a category allocation with derived figures
type AllocationResponse struct {
	CategoryID        string  `json:"categoryId"`
	AllocatedAmount   string  `json:"allocatedAmount"`
	SpentAmount       string  `json:"spentAmount"`
	RolloverAmount    string  `json:"rolloverAmount"`
	AdjustedAmount    string  `json:"adjustedAmount"`
	RemainingAmount   string  `json:"remainingAmount"`
	OverspentAmount   string  `json:"overspentAmount"`
	Utilization       string  `json:"utilization"`
	PercentageOfTotal string  `json:"percentageOfTotal"`
	Notes             *string `json:"notes,omitempty"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Period          string               `json:"period"`
	StartDate       time.Time            `json:"startDate"`
	EndDate         time.Time            `json:"endDate"`
	TotalAmount     string               `json:"totalAmount"`
	AlertThreshold  string               `json:"alertThreshold"`
	RolloverEnabled bool                 `json:"rolloverEnabled"`
	TotalSpent      string               `json:"totalSpent"`
	TotalRemaining  string               `json:"totalRemaining"`
	Utilization     string               `json:"utilization"`
	LastCalculated  *time.Time           `json:"lastCalculated,omitempty"`
	Version         int32                `json:"version"`
	Allocations     []AllocationResponse `json:"allocations"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req BudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	budget, err := budgetFromRequest(userID, &req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	created, err := h.budgetService.CreateBudget(budget)
	if err != nil {
		return h.mapBudgetError(c, err, "create")
	}

	log.Info().Str("user_id", userID.String()).Str("budget_id", created.ID.String()).Msg("Budget created")
	h.publisher.Publish(userID, websocket.BudgetUpdated(toBudgetResponse(created)))

	return c.JSON(http.StatusCreated, toBudgetResponse(created))
}

// GetBudgets handles GET /api/v1/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	budgets, err := h.budgetService.GetBudgets(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list budgets")
		return NewInternalError(c, "Failed to list budgets")
	}

	responses := make([]BudgetResponse, len(budgets))
	for i, budget := range budgets {
		responses[i] = toBudgetResponse(budget)
	}
	return c.JSON(http.StatusOK, responses)
}

// GetBudget handles GET /api/v1/budgets/:id
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.GetBudget(userID, id)
	if err != nil {
		return h.mapBudgetError(c, err, "get")
	}
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// UpdateBudget handles PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req BudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	budget, err := budgetFromRequest(userID, &req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	budget.ID = id

	updated, err := h.budgetService.UpdateBudget(budget)
	if err != nil {
		return h.mapBudgetError(c, err, "update")
	}

	log.Info().Str("user_id", userID.String()).Str("budget_id", id.String()).Msg("Budget updated")
	h.publisher.Publish(userID, websocket.BudgetUpdated(toBudgetResponse(updated)))

	return c.JSON(http.StatusOK, toBudgetResponse(updated))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(userID, id); err != nil {
		return h.mapBudgetError(c, err, "delete")
	}

	log.Info().Str("user_id", userID.String()).Str("budget_id", id.String()).Msg("Budget deleted")
	return c.NoContent(http.StatusNoContent)
}

// RefreshSpend handles POST /api/v1/budgets/:id/refresh
func (h *BudgetHandler) RefreshSpend(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.RefreshSpend(userID, id)
	if err != nil {
		return h.mapBudgetError(c, err, "refresh")
	}

	h.publisher.Publish(userID, websocket.BudgetUpdated(toBudgetResponse(budget)))
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// GetReport handles GET /api/v1/budgets/:id/report
func (h *BudgetHandler) GetReport(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	report, err := h.budgetService.Report(userID, id)
	if err != nil {
		return h.mapBudgetError(c, err, "report")
	}
	return c.JSON(http.StatusOK, toReportResponse(report))
}

// GetViolations handles GET /api/v1/budgets/:id/violations
func (h *BudgetHandler) GetViolations(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	violations, err := h.budgetService.Violations(userID, id)
	if err != nil {
		return h.mapBudgetError(c, err, "violations")
	}

	responses := make([]ViolationResponse, len(violations))
	for i, v := range violations {
		responses[i] = toViolationResponse(v)
	}
	if len(responses) > 0 {
		h.publisher.Publish(userID, websocket.BudgetAlert(map[string]interface{}{
			"budgetId":   id.String(),
			"violations": responses,
		}))
	}
	return c.JSON(http.StatusOK, responses)
}

// ApplyRollover handles POST /api/v1/budgets/:id/rollover
func (h *BudgetHandler) ApplyRollover(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req RolloverRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}
	sourceID, err := uuid.Parse(req.SourceBudgetID)
	if err != nil {
		return NewValidationError(c, "Invalid source budget ID", nil)
	}

	budget, err := h.budgetService.ApplyRollover(userID, id, sourceID)
	if err != nil {
		return h.mapBudgetError(c, err, "rollover")
	}

	log.Info().Str("user_id", userID.String()).Str("budget_id", id.String()).Str("source_id", sourceID.String()).Msg("Rollover applied")
	h.publisher.Publish(userID, websocket.BudgetUpdated(toBudgetResponse(budget)))

	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

func (h *BudgetHandler) mapBudgetError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, domain.ErrBudgetNotFound):
		return NewNotFoundError(c, "Budget not found")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "One or more categories not found")
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrAmountPrecision):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrDuplicateAllocation),
		errors.Is(err, domain.ErrAllocationExceedsTotal),
		errors.Is(err, domain.ErrRolloverDisabled),
		errors.Is(err, domain.ErrRolloverForeignBudget):
		return NewConflictError(c, err.Error())
	}
	log.Error().Err(err).Str("op", op).Msg("Budget operation failed")
	return NewInternalError(c, "Budget operation failed")
}

func budgetFromRequest(userID uuid.UUID, req *BudgetRequest) (*domain.Budget, error) {
	totalAmount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return nil, errors.New("totalAmount must be a valid decimal number")
	}

	alertThreshold := decimal.Zero
	if req.AlertThreshold != nil {
		alertThreshold, err = decimal.NewFromString(*req.AlertThreshold)
		if err != nil {
			return nil, errors.New("alertThreshold must be a valid decimal number")
		}
	}

	allocations := make([]*domain.CategoryAllocation, len(req.Allocations))
	for i, a := range req.Allocations {
		categoryID, err := uuid.Parse(a.CategoryID)
		if err != nil {
			return nil, errors.New("allocation categoryId must be a valid UUID")
		}
		amount, err := decimal.NewFromString(a.Amount)
		if err != nil {
			return nil, errors.New("allocation amount must be a valid decimal number")
		}
		allocations[i] = &domain.CategoryAllocation{
			CategoryID:      categoryID,
			AllocatedAmount: amount,
			SpentAmount:     decimal.Zero,
			RolloverAmount:  decimal.Zero,
			Notes:           a.Notes,
		}
	}

	return &domain.Budget{
		UserID:          userID,
		Name:            req.Name,
		Period:          domain.BudgetPeriod(req.Period),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		TotalAmount:     totalAmount,
		AlertThreshold:  alertThreshold,
		RolloverEnabled: req.RolloverEnabled,
		Allocations:     allocations,
	}, nil
}

func toBudgetResponse(budget *domain.Budget) BudgetResponse {
	allocations := make([]AllocationResponse, len(budget.Allocations))
	for i, alloc := range budget.Allocations {
		allocations[i] = AllocationResponse{
			CategoryID:        alloc.CategoryID.String(),
			AllocatedAmount:   alloc.AllocatedAmount.StringFixed(2),
			SpentAmount:       alloc.SpentAmount.StringFixed(2),
			RolloverAmount:    alloc.RolloverAmount.StringFixed(2),
			AdjustedAmount:    alloc.AdjustedAmount().StringFixed(2),
			RemainingAmount:   alloc.RemainingAmount().StringFixed(2),
			OverspentAmount:   alloc.OverspentAmount().StringFixed(2),
			Utilization:       alloc.UtilizationPercentage().StringFixed(2),
			PercentageOfTotal: alloc.PercentageOfTotal(budget.TotalAmount).StringFixed(2),
			Notes:             alloc.Notes,
		}
	}
	return BudgetResponse{
		ID:              budget.ID.String(),
		Name:            budget.Name,
		Period:          string(budget.Period),
		StartDate:       budget.StartDate,
		EndDate:         budget.EndDate,
		TotalAmount:     budget.TotalAmount.StringFixed(2),
		AlertThreshold:  budget.EffectiveAlertThreshold().StringFixed(2),
		RolloverEnabled: budget.RolloverEnabled,
		TotalSpent:      budget.TotalSpent.StringFixed(2),
		TotalRemaining:  budget.TotalRemaining.StringFixed(2),
		Utilization:     budget.UtilizationPercentage.StringFixed(2),
		LastCalculated:  budget.LastCalculated,
		Version:         budget.Version,
		Allocations:     allocations,
		CreatedAt:       budget.CreatedAt,
		UpdatedAt:       budget.UpdatedAt,
	}
}
