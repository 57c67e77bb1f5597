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

// GoalHandler handles savings goal HTTP requests
type GoalHandler struct {
	goalService *service.GoalService
	publisher   websocket.EventPublisher
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService *service.GoalService, publisher websocket.EventPublisher) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
		publisher:   publisher,
	}
}

// GoalRequest represents the create/update goal request body
type GoalRequest struct {
	Name         string    `json:"name" validate:"required,max=255"`
	CategoryID   *string   `json:"categoryId" validate:"omitempty,uuid"`
	TargetAmount string    `json:"targetAmount" validate:"required"`
	Currency     string    `json:"currency" validate:"omitempty,len=3"`
	StartDate    time.Time `json:"startDate" validate:"required"`
	TargetDate   time.Time `json:"targetDate" validate:"required"`
	Priority     int       `json:"priority" validate:"gte=0,lte=10"`
}

// ContributionRequest represents a contribution request body
type ContributionRequest struct {
	Amount        string    `json:"amount" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	Method        string    `json:"method" validate:"omitempty,oneof=manual automatic transfer"`
	TransactionID *string   `json:"transactionId" validate:"omitempty,uuid"`
	Source        *string   `json:"source"`
	Notes         *string   `json:"notes"`
}

// ContributionResponse represents one contribution in API responses
type ContributionResponse struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	Date          time.Time `json:"date"`
	Method        string    `json:"method"`
	TransactionID *string   `json:"transactionId,omitempty"`
	Source        *string   `json:"source,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// GoalResponse represents a goal in API responses
type GoalResponse struct {
	ID                         string                 `json:"id"`
	Name                       string                 `json:"name"`
	CategoryID                 *string                `json:"categoryId,omitempty"`
	TargetAmount               string                 `json:"targetAmount"`
	CurrentAmount              string                 `json:"currentAmount"`
	RemainingAmount            string                 `json:"remainingAmount"`
	Currency                   string                 `json:"currency"`
	StartDate                  time.Time              `json:"startDate"`
	TargetDate                 time.Time              `json:"targetDate"`
	Status                     string                 `json:"status"`
	Priority                   int                    `json:"priority"`
	ProgressPercentage         string                 `json:"progressPercentage"`
	OverachievementAmount      string                 `json:"overachievementAmount"`
	AverageMonthlyContribution string                 `json:"averageMonthlyContribution"`
	EstimatedCompletionDate    *time.Time             `json:"estimatedCompletionDate,omitempty"`
	AchievementProbability     int                    `json:"achievementProbability"`
	AchievementDate            *time.Time             `json:"achievementDate,omitempty"`
	Contributions              []ContributionResponse `json:"contributions"`
	CreatedAt                  time.Time              `json:"createdAt"`
	UpdatedAt                  time.Time              `json:"updatedAt"`
}

// GoalProgressResponse is the estimator report for one goal
type GoalProgressResponse struct {
	GoalID                      string     `json:"goalId"`
	GeneratedAt                 time.Time  `json:"generatedAt"`
	TargetAmount                string     `json:"targetAmount"`
	CurrentAmount               string     `json:"currentAmount"`
	RemainingAmount             string     `json:"remainingAmount"`
	ProgressPercentage          string     `json:"progressPercentage"`
	OverachievementAmount       string     `json:"overachievementAmount"`
	AverageMonthlyContribution  string     `json:"averageMonthlyContribution"`
	RequiredMonthlyContribution string     `json:"requiredMonthlyContribution"`
	EstimatedCompletionDate     *time.Time `json:"estimatedCompletionDate,omitempty"`
	AchievementProbability      int        `json:"achievementProbability"`
}

// CreateGoal handles POST /api/v1/goals
func (h *GoalHandler) CreateGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	goal, err := goalFromRequest(userID, &req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	created, err := h.goalService.CreateGoal(goal)
	if err != nil {
		return h.mapGoalError(c, err, "create")
	}

	log.Info().Str("user_id", userID.String()).Str("goal_id", created.ID.String()).Msg("Goal created")
	return c.JSON(http.StatusCreated, toGoalResponse(created))
}

// GetGoals handles GET /api/v1/goals
func (h *GoalHandler) GetGoals(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	goals, err := h.goalService.GetGoals(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list goals")
		return NewInternalError(c, "Failed to list goals")
	}

	responses := make([]GoalResponse, len(goals))
	for i, goal := range goals {
		responses[i] = toGoalResponse(goal)
	}
	return c.JSON(http.StatusOK, responses)
}

// GetGoal handles GET /api/v1/goals/:id
func (h *GoalHandler) GetGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	goal, err := h.goalService.GetGoal(userID, id)
	if err != nil {
		return h.mapGoalError(c, err, "get")
	}
	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// UpdateGoal handles PUT /api/v1/goals/:id
func (h *GoalHandler) UpdateGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	// Edits apply on top of the stored goal so amounts, status, and history
	// survive a rename.
	goal, err := h.goalService.GetGoal(userID, id)
	if err != nil {
		return h.mapGoalError(c, err, "update")
	}
	if err := applyGoalRequest(goal, &req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	updated, err := h.goalService.UpdateGoal(goal)
	if err != nil {
		return h.mapGoalError(c, err, "update")
	}

	log.Info().Str("user_id", userID.String()).Str("goal_id", id.String()).Msg("Goal updated")
	h.publisher.Publish(userID, websocket.GoalUpdated(toGoalResponse(updated)))

	return c.JSON(http.StatusOK, toGoalResponse(updated))
}

// DeleteGoal handles DELETE /api/v1/goals/:id
func (h *GoalHandler) DeleteGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	if err := h.goalService.DeleteGoal(userID, id); err != nil {
		return h.mapGoalError(c, err, "delete")
	}

	log.Info().Str("user_id", userID.String()).Str("goal_id", id.String()).Msg("Goal deleted")
	return c.NoContent(http.StatusNoContent)
}

// AddContribution handles POST /api/v1/goals/:id/contributions
func (h *GoalHandler) AddContribution(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	var req ContributionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount format", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	var transactionID *uuid.UUID
	if req.TransactionID != nil {
		parsed, err := uuid.Parse(*req.TransactionID)
		if err != nil {
			return NewValidationError(c, "Invalid transaction ID", nil)
		}
		transactionID = &parsed
	}

	goal, err := h.goalService.AddContribution(userID, id, service.ContributionInput{
		Amount:        amount,
		Date:          req.Date,
		Method:        domain.ContributionMethod(req.Method),
		TransactionID: transactionID,
		Source:        req.Source,
		Notes:         req.Notes,
	})
	if err != nil {
		return h.mapGoalError(c, err, "contribute")
	}

	log.Info().Str("user_id", userID.String()).Str("goal_id", id.String()).Str("amount", amount.String()).Msg("Contribution recorded")

	if goal.Status == domain.GoalStatusCompleted {
		h.publisher.Publish(userID, websocket.GoalCompleted(toGoalResponse(goal)))
	} else {
		h.publisher.Publish(userID, websocket.GoalUpdated(toGoalResponse(goal)))
	}

	return c.JSON(http.StatusCreated, toGoalResponse(goal))
}

// Pause handles POST /api/v1/goals/:id/pause
func (h *GoalHandler) Pause(c echo.Context) error {
	return h.transition(c, h.goalService.Pause, "pause")
}

// Resume handles POST /api/v1/goals/:id/resume
func (h *GoalHandler) Resume(c echo.Context) error {
	return h.transition(c, h.goalService.Resume, "resume")
}

// Cancel handles POST /api/v1/goals/:id/cancel
func (h *GoalHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.goalService.Cancel, "cancel")
}

func (h *GoalHandler) transition(c echo.Context, op func(uuid.UUID, uuid.UUID) (*domain.Goal, error), name string) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	goal, err := op(userID, id)
	if err != nil {
		return h.mapGoalError(c, err, name)
	}

	log.Info().Str("user_id", userID.String()).Str("goal_id", id.String()).Str("status", string(goal.Status)).Msg("Goal status changed")
	h.publisher.Publish(userID, websocket.GoalUpdated(toGoalResponse(goal)))

	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// GetProgress handles GET /api/v1/goals/:id/progress
func (h *GoalHandler) GetProgress(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	progress, err := h.goalService.Progress(userID, id)
	if err != nil {
		return h.mapGoalError(c, err, "progress")
	}

	return c.JSON(http.StatusOK, GoalProgressResponse{
		GoalID:                      progress.GoalID.String(),
		GeneratedAt:                 progress.GeneratedAt,
		TargetAmount:                progress.TargetAmount.StringFixed(2),
		CurrentAmount:               progress.CurrentAmount.StringFixed(2),
		RemainingAmount:             progress.RemainingAmount.StringFixed(2),
		ProgressPercentage:          progress.ProgressPercentage.StringFixed(2),
		OverachievementAmount:       progress.OverachievementAmount.StringFixed(2),
		AverageMonthlyContribution:  progress.AverageMonthlyContribution.StringFixed(2),
		RequiredMonthlyContribution: progress.RequiredMonthlyContribution.StringFixed(2),
		EstimatedCompletionDate:     progress.EstimatedCompletionDate,
		AchievementProbability:      progress.AchievementProbability,
	})
}

func (h *GoalHandler) mapGoalError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, domain.ErrGoalNotFound):
		return NewNotFoundError(c, "Goal not found")
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrContributionDate):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrGoalNotActive),
		errors.Is(err, domain.ErrGoalTerminal):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrForeignTransaction):
		return NewForbiddenError(c, err.Error())
	}
	log.Error().Err(err).Str("op", op).Msg("Goal operation failed")
	return NewInternalError(c, "Goal operation failed")
}

func goalFromRequest(userID uuid.UUID, req *GoalRequest) (*domain.Goal, error) {
	goal := &domain.Goal{
		UserID:        userID,
		CurrentAmount: decimal.Zero,
	}
	if err := applyGoalRequest(goal, req); err != nil {
		return nil, err
	}
	return goal, nil
}

func applyGoalRequest(goal *domain.Goal, req *GoalRequest) error {
	targetAmount, err := decimal.NewFromString(req.TargetAmount)
	if err != nil {
		return errors.New("targetAmount must be a valid decimal number")
	}

	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		parsed, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return errors.New("categoryId must be a valid UUID")
		}
		categoryID = &parsed
	}

	goal.Name = req.Name
	goal.CategoryID = categoryID
	goal.TargetAmount = targetAmount
	goal.StartDate = req.StartDate
	goal.TargetDate = req.TargetDate
	goal.Priority = req.Priority
	if req.Currency != "" {
		goal.Currency = req.Currency
	}
	return nil
}

func toGoalResponse(goal *domain.Goal) GoalResponse {
	contributions := make([]ContributionResponse, len(goal.Contributions))
	for i, contribution := range goal.Contributions {
		var transactionID *string
		if contribution.TransactionID != nil {
			id := contribution.TransactionID.String()
			transactionID = &id
		}
		contributions[i] = ContributionResponse{
			ID:            contribution.ID.String(),
			Amount:        contribution.Amount.StringFixed(2),
			Date:          contribution.Date,
			Method:        string(contribution.Method),
			TransactionID: transactionID,
			Source:        contribution.Source,
			Notes:         contribution.Notes,
			CreatedAt:     contribution.CreatedAt,
		}
	}

	var categoryID *string
	if goal.CategoryID != nil {
		id := goal.CategoryID.String()
		categoryID = &id
	}

	return GoalResponse{
		ID:                         goal.ID.String(),
		Name:                       goal.Name,
		CategoryID:                 categoryID,
		TargetAmount:               goal.TargetAmount.StringFixed(2),
		CurrentAmount:              goal.CurrentAmount.StringFixed(2),
		RemainingAmount:            goal.RemainingAmount().StringFixed(2),
		Currency:                   goal.Currency,
		StartDate:                  goal.StartDate,
		TargetDate:                 goal.TargetDate,
		Status:                     string(goal.Status),
		Priority:                   goal.Priority,
		ProgressPercentage:         goal.ProgressPercentage.StringFixed(2),
		OverachievementAmount:      goal.OverachievementAmount.StringFixed(2),
		AverageMonthlyContribution: goal.AverageMonthlyContribution.StringFixed(2),
		EstimatedCompletionDate:    goal.EstimatedCompletionDate,
		AchievementProbability:     goal.AchievementProbability,
		AchievementDate:            goal.AchievementDate,
		Contributions:              contributions,
		CreatedAt:                  goal.CreatedAt,
		UpdatedAt:                  goal.UpdatedAt,
	}
}
