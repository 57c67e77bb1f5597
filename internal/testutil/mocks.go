package testutil

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// UpdateName updates only the user's name by Auth0 ID
func (m *MockUserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	user, ok := m.Users[auth0ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[uuid.UUID]*domain.Category
	Referenced map[uuid.UUID]bool
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID]*domain.Category),
		Referenced: make(map[uuid.UUID]bool),
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category scoped to the owner
func (m *MockCategoryRepository) GetByID(userID, id uuid.UUID) (*domain.Category, error) {
	category, ok := m.Categories[id]
	if !ok || category.UserID != userID {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

// GetAllByUser retrieves all categories for a user
func (m *MockCategoryRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Category, error) {
	result := []*domain.Category{}
	for _, category := range m.Categories {
		if category.UserID == userID {
			result = append(result, category)
		}
	}
	return result, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	existing, ok := m.Categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		return nil, domain.ErrCategoryNotFound
	}
	category.UpdatedAt = time.Now()
	m.Categories[category.ID] = category
	return category, nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(userID, id uuid.UUID) error {
	category, ok := m.Categories[id]
	if !ok || category.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// IsReferenced reports whether the category is marked as referenced
func (m *MockCategoryRepository) IsReferenced(userID, id uuid.UUID) (bool, error) {
	return m.Referenced[id], nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[uuid.UUID]*domain.Transaction
	SumByCatFn   func(userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) ([]*domain.CategorySpend, error)
	PurgedCount  int64
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// GetByID retrieves a non-deleted transaction scoped to the owner
func (m *MockTransactionRepository) GetByID(userID, id uuid.UUID) (*domain.Transaction, error) {
	transaction, ok := m.Transactions[id]
	if !ok || transaction.UserID != userID || transaction.DeletedAt != nil {
		return nil, domain.ErrTransactionNotFound
	}
	return transaction, nil
}

// GetByUser retrieves transactions with filters and pagination
func (m *MockTransactionRepository) GetByUser(userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	matched := []*domain.Transaction{}
	for _, t := range m.Transactions {
		if t.UserID != userID || t.DeletedAt != nil {
			continue
		}
		if filters.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filters.CategoryID) {
			continue
		}
		if filters.Type != nil && t.Type != *filters.Type {
			continue
		}
		if filters.Status != nil && t.Status != *filters.Status {
			continue
		}
		if filters.StartDate != nil && t.TransactionDate.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && t.TransactionDate.After(*filters.EndDate) {
			continue
		}
		matched = append(matched, t)
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	totalItems := int64(len(matched))
	totalPages := int32((totalItems + int64(pageSize) - 1) / int64(pageSize))

	return &domain.PaginatedTransactions{
		Data:       matched,
		Page:       filters.Page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// Update updates an existing transaction
func (m *MockTransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	existing, ok := m.Transactions[transaction.ID]
	if !ok || existing.UserID != transaction.UserID || existing.DeletedAt != nil {
		return nil, domain.ErrTransactionNotFound
	}
	transaction.UpdatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// SoftDelete marks a transaction as deleted
func (m *MockTransactionRepository) SoftDelete(userID, id uuid.UUID) error {
	transaction, ok := m.Transactions[id]
	if !ok || transaction.UserID != userID || transaction.DeletedAt != nil {
		return domain.ErrTransactionNotFound
	}
	now := time.Now()
	transaction.DeletedAt = &now
	return nil
}

// SetReceiptID attaches or detaches a receipt reference
func (m *MockTransactionRepository) SetReceiptID(userID, id uuid.UUID, receiptID *string) error {
	transaction, ok := m.Transactions[id]
	if !ok || transaction.UserID != userID || transaction.DeletedAt != nil {
		return domain.ErrTransactionNotFound
	}
	transaction.ReceiptID = receiptID
	return nil
}

// PurgeDeletedBefore removes soft-deleted transactions older than cutoff
func (m *MockTransactionRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	var purged int64
	for id, t := range m.Transactions {
		if t.DeletedAt != nil && t.DeletedAt.Before(cutoff) {
			delete(m.Transactions, id)
			purged++
		}
	}
	m.PurgedCount += purged
	return purged, nil
}

// SumCompletedExpensesByCategory sums completed expenses grouped by category
func (m *MockTransactionRepository) SumCompletedExpensesByCategory(userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) ([]*domain.CategorySpend, error) {
	if m.SumByCatFn != nil {
		return m.SumByCatFn(userID, categoryIDs, from, to)
	}
	wanted := make(map[uuid.UUID]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, t := range m.Transactions {
		if t.UserID != userID || t.DeletedAt != nil || t.CategoryID == nil {
			continue
		}
		if t.Type != domain.TransactionTypeExpense || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if !wanted[*t.CategoryID] {
			continue
		}
		if t.TransactionDate.Before(from) || t.TransactionDate.After(to) {
			continue
		}
		totals[*t.CategoryID] = totals[*t.CategoryID].Add(t.Amount)
	}
	result := []*domain.CategorySpend{}
	for id, total := range totals {
		result = append(result, &domain.CategorySpend{CategoryID: id, Total: total})
	}
	return result, nil
}

// SumCompletedExpensesForCategory is the single-category variant
func (m *MockTransactionRepository) SumCompletedExpensesForCategory(userID, categoryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	spends, err := m.SumCompletedExpensesByCategory(userID, []uuid.UUID{categoryID}, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	for _, spend := range spends {
		if spend.CategoryID == categoryID {
			return spend.Total, nil
		}
	}
	return decimal.Zero, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	m.Transactions[transaction.ID] = transaction
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets map[uuid.UUID]*domain.Budget
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[uuid.UUID]*domain.Budget),
	}
}

// Create creates a new budget
func (m *MockBudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	if budget.Version == 0 {
		budget.Version = 1
	}
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = time.Now()
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// GetByID retrieves a non-deleted budget scoped to the owner
func (m *MockBudgetRepository) GetByID(userID, id uuid.UUID) (*domain.Budget, error) {
	budget, ok := m.Budgets[id]
	if !ok || budget.UserID != userID || budget.IsDeleted {
		return nil, domain.ErrBudgetNotFound
	}
	return budget, nil
}

// GetAllByUser retrieves all budgets for a user
func (m *MockBudgetRepository) GetAllByUser(userID uuid.UUID, includeDeleted bool) ([]*domain.Budget, error) {
	result := []*domain.Budget{}
	for _, budget := range m.Budgets {
		if budget.UserID != userID {
			continue
		}
		if budget.IsDeleted && !includeDeleted {
			continue
		}
		result = append(result, budget)
	}
	return result, nil
}

// Update updates an existing budget
func (m *MockBudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	existing, ok := m.Budgets[budget.ID]
	if !ok || existing.UserID != budget.UserID || existing.IsDeleted {
		return nil, domain.ErrBudgetNotFound
	}
	budget.UpdatedAt = time.Now()
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// SoftDelete marks a budget as deleted
func (m *MockBudgetRepository) SoftDelete(userID, id uuid.UUID) error {
	budget, ok := m.Budgets[id]
	if !ok || budget.UserID != userID || budget.IsDeleted {
		return domain.ErrBudgetNotFound
	}
	now := time.Now()
	budget.IsDeleted = true
	budget.DeletedAt = &now
	return nil
}

// PurgeDeletedBefore removes soft-deleted budgets older than cutoff
func (m *MockBudgetRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	var purged int64
	for id, budget := range m.Budgets {
		if budget.IsDeleted && budget.DeletedAt != nil && budget.DeletedAt.Before(cutoff) {
			delete(m.Budgets, id)
			purged++
		}
	}
	return purged, nil
}

// AddBudget adds a budget to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) {
	m.Budgets[budget.ID] = budget
}

// MockGoalRepository is a mock implementation of domain.GoalRepository
type MockGoalRepository struct {
	Goals map[uuid.UUID]*domain.Goal
}

// NewMockGoalRepository creates a new MockGoalRepository
func NewMockGoalRepository() *MockGoalRepository {
	return &MockGoalRepository{
		Goals: make(map[uuid.UUID]*domain.Goal),
	}
}

// Create creates a new goal
func (m *MockGoalRepository) Create(goal *domain.Goal) (*domain.Goal, error) {
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = time.Now()
	m.Goals[goal.ID] = goal
	return goal, nil
}

// GetByID retrieves a non-deleted goal scoped to the owner
func (m *MockGoalRepository) GetByID(userID, id uuid.UUID) (*domain.Goal, error) {
	goal, ok := m.Goals[id]
	if !ok || goal.UserID != userID || goal.IsDeleted {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}

// GetAllByUser retrieves all goals for a user
func (m *MockGoalRepository) GetAllByUser(userID uuid.UUID, includeDeleted bool) ([]*domain.Goal, error) {
	result := []*domain.Goal{}
	for _, goal := range m.Goals {
		if goal.UserID != userID {
			continue
		}
		if goal.IsDeleted && !includeDeleted {
			continue
		}
		result = append(result, goal)
	}
	return result, nil
}

// Update updates an existing goal
func (m *MockGoalRepository) Update(goal *domain.Goal) (*domain.Goal, error) {
	existing, ok := m.Goals[goal.ID]
	if !ok || existing.UserID != goal.UserID || existing.IsDeleted {
		return nil, domain.ErrGoalNotFound
	}
	goal.UpdatedAt = time.Now()
	m.Goals[goal.ID] = goal
	return goal, nil
}

// AddContribution appends the contribution and persists the updated goal
func (m *MockGoalRepository) AddContribution(goal *domain.Goal, contribution *domain.Contribution) error {
	existing, ok := m.Goals[goal.ID]
	if !ok || existing.UserID != goal.UserID || existing.IsDeleted {
		return domain.ErrGoalNotFound
	}
	if contribution.ID == uuid.Nil {
		contribution.ID = uuid.New()
	}
	contribution.GoalID = goal.ID
	contribution.CreatedAt = time.Now()
	goal.UpdatedAt = time.Now()
	m.Goals[goal.ID] = goal
	return nil
}

// SoftDelete marks a goal as deleted
func (m *MockGoalRepository) SoftDelete(userID, id uuid.UUID) error {
	goal, ok := m.Goals[id]
	if !ok || goal.UserID != userID || goal.IsDeleted {
		return domain.ErrGoalNotFound
	}
	now := time.Now()
	goal.IsDeleted = true
	goal.DeletedAt = &now
	return nil
}

// PurgeDeletedBefore removes soft-deleted goals older than cutoff
func (m *MockGoalRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	var purged int64
	for id, goal := range m.Goals {
		if goal.IsDeleted && goal.DeletedAt != nil && goal.DeletedAt.Before(cutoff) {
			delete(m.Goals, id)
			purged++
		}
	}
	return purged, nil
}

// AddGoal adds a goal to the mock repository (helper for tests)
func (m *MockGoalRepository) AddGoal(goal *domain.Goal) {
	m.Goals[goal.ID] = goal
}

// MockReceiptRepository is an in-memory implementation of storage.ReceiptRepository
type MockReceiptRepository struct {
	Objects  map[string][]byte
	UploadFn func(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
}

// NewMockReceiptRepository creates a new MockReceiptRepository
func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{
		Objects: make(map[string][]byte),
	}
}

// Upload stores the object in memory and returns its path
func (m *MockReceiptRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, objectPath, data, contentType, size)
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = content
	return objectPath, nil
}

// Delete removes the object
func (m *MockReceiptRepository) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for the stored object
func (m *MockReceiptRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if _, ok := m.Objects[objectPath]; !ok {
		return "", fmt.Errorf("object not found: %s", objectPath)
	}
	return "https://storage.test/" + objectPath, nil
}
