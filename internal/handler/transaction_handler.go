package handler

import (
	"errors"
	"net/http"
	"strconv"
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

// TransactionHandler handles transaction HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	publisher          websocket.EventPublisher
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService, publisher websocket.EventPublisher) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		publisher:          publisher,
	}
}

// TransactionRequest represents the create/update transaction request body
type TransactionRequest struct {
	Name            string    `json:"name" validate:"required,max=255"`
	Amount          string    `json:"amount" validate:"required"`
	Type            string    `json:"type" validate:"required,oneof=income expense"`
	Status          string    `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	CategoryID      *string   `json:"categoryId" validate:"omitempty,uuid"`
	TransactionDate time.Time `json:"transactionDate" validate:"required"`
	Notes           *string   `json:"notes"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Amount          string    `json:"amount"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	CategoryID      *string   `json:"categoryId,omitempty"`
	TransactionDate time.Time `json:"transactionDate"`
	Notes           *string   `json:"notes,omitempty"`
	ReceiptID       *string   `json:"receiptId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TransactionListResponse represents a paginated transaction list
type TransactionListResponse struct {
	Data       []TransactionResponse `json:"data"`
	Page       int32                 `json:"page"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int32                 `json:"totalPages"`
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	transaction, err := transactionFromRequest(userID, &req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	created, err := h.transactionService.CreateTransaction(transaction)
	if err != nil {
		return h.mapTransactionError(c, err, "create")
	}

	log.Info().Str("user_id", userID.String()).Str("transaction_id", created.ID.String()).Msg("Transaction created")
	h.publisher.Publish(userID, websocket.TransactionCreated(toTransactionResponse(created)))

	return c.JSON(http.StatusCreated, toTransactionResponse(created))
}

// GetTransactions handles GET /api/v1/transactions with filter query params
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filters, err := filtersFromQuery(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	page, err := h.transactionService.GetTransactions(userID, filters)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list transactions")
		return NewInternalError(c, "Failed to list transactions")
	}

	data := make([]TransactionResponse, len(page.Data))
	for i, transaction := range page.Data {
		data[i] = toTransactionResponse(transaction)
	}
	return c.JSON(http.StatusOK, TransactionListResponse{
		Data:       data,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.GetTransaction(userID, id)
	if err != nil {
		return h.mapTransactionError(c, err, "get")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Invalid request body", fieldErrors(err))
	}

	transaction, err := transactionFromRequest(userID, &req)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	transaction.ID = id

	updated, err := h.transactionService.UpdateTransaction(transaction)
	if err != nil {
		return h.mapTransactionError(c, err, "update")
	}

	log.Info().Str("user_id", userID.String()).Str("transaction_id", id.String()).Msg("Transaction updated")
	h.publisher.Publish(userID, websocket.TransactionUpdated(toTransactionResponse(updated)))

	return c.JSON(http.StatusOK, toTransactionResponse(updated))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(userID, id); err != nil {
		return h.mapTransactionError(c, err, "delete")
	}

	log.Info().Str("user_id", userID.String()).Str("transaction_id", id.String()).Msg("Transaction deleted")
	h.publisher.Publish(userID, websocket.TransactionDeleted(map[string]string{"id": id.String()}))

	return c.NoContent(http.StatusNoContent)
}

func (h *TransactionHandler) mapTransactionError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrInvalidStatus):
		return NewValidationError(c, err.Error(), nil)
	}
	log.Error().Err(err).Str("op", op).Msg("Transaction operation failed")
	return NewInternalError(c, "Transaction operation failed")
}

func filtersFromQuery(c echo.Context) (*domain.TransactionFilters, error) {
	filters := &domain.TransactionFilters{}

	if v := c.QueryParam("categoryId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errors.New("categoryId must be a valid UUID")
		}
		filters.CategoryID = &id
	}
	if v := c.QueryParam("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("startDate must be RFC 3339")
		}
		filters.StartDate = &t
	}
	if v := c.QueryParam("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("endDate must be RFC 3339")
		}
		filters.EndDate = &t
	}
	if v := c.QueryParam("type"); v != "" {
		txType := domain.TransactionType(v)
		if txType != domain.TransactionTypeIncome && txType != domain.TransactionTypeExpense {
			return nil, errors.New("type must be income or expense")
		}
		filters.Type = &txType
	}
	if v := c.QueryParam("status"); v != "" {
		status := domain.TransactionStatus(v)
		switch status {
		case domain.TransactionStatusPending, domain.TransactionStatusCompleted, domain.TransactionStatusCancelled:
		default:
			return nil, errors.New("status must be pending, completed, or cancelled")
		}
		filters.Status = &status
	}
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return nil, errors.New("page must be a positive integer")
		}
		filters.Page = int32(page)
	}
	if v := c.QueryParam("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return nil, errors.New("pageSize must be a positive integer")
		}
		filters.PageSize = int32(size)
	}

	return filters, nil
}

func transactionFromRequest(userID uuid.UUID, req *TransactionRequest) (*domain.Transaction, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, errors.New("amount must be a valid decimal number")
	}

	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		parsed, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, errors.New("categoryId must be a valid UUID")
		}
		categoryID = &parsed
	}

	return &domain.Transaction{
		UserID:          userID,
		CategoryID:      categoryID,
		Name:            req.Name,
		Amount:          amount,
		Type:            domain.TransactionType(req.Type),
		Status:          domain.TransactionStatus(req.Status),
		TransactionDate: req.TransactionDate,
		Notes:           req.Notes,
	}, nil
}

func toTransactionResponse(transaction *domain.Transaction) TransactionResponse {
	var categoryID *string
	if transaction.CategoryID != nil {
		id := transaction.CategoryID.String()
		categoryID = &id
	}
	return TransactionResponse{
		ID:              transaction.ID.String(),
		Name:            transaction.Name,
		Amount:          transaction.Amount.StringFixed(2),
		Type:            string(transaction.Type),
		Status:          string(transaction.Status),
		CategoryID:      categoryID,
		TransactionDate: transaction.TransactionDate,
		Notes:           transaction.Notes,
		ReceiptID:       transaction.ReceiptID,
		CreatedAt:       transaction.CreatedAt,
		UpdatedAt:       transaction.UpdatedAt,
	}
}
