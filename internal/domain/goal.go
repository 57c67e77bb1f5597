package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCancelled GoalStatus = "cancelled"
)

type ContributionMethod string

const (
	ContributionManual    ContributionMethod = "manual"
	ContributionAutomatic ContributionMethod = "automatic"
	ContributionTransfer  ContributionMethod = "transfer"
)

// Contribution is one append-only entry in a goal's funding history.
type Contribution struct {
	ID            uuid.UUID          `json:"id"`
	GoalID        uuid.UUID          `json:"goalId"`
	Amount        decimal.Decimal    `json:"amount"`
	Date          time.Time          `json:"date"`
	Method        ContributionMethod `json:"method"`
	TransactionID *uuid.UUID         `json:"transactionId,omitempty"`
	Source        *string            `json:"source,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type Goal struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Name          string          `json:"name"`
	CategoryID    *uuid.UUID      `json:"categoryId,omitempty"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Currency      string          `json:"currency"`
	StartDate     time.Time       `json:"startDate"`
	TargetDate    time.Time       `json:"targetDate"`
	Status        GoalStatus      `json:"status"`
	Priority      int             `json:"priority"`
	Contributions []*Contribution `json:"contributions"`

	// Derived fields, recomputed whenever a contribution lands.
	ProgressPercentage          decimal.Decimal `json:"progressPercentage"`
	OverachievementAmount       decimal.Decimal `json:"overachievementAmount"`
	AverageMonthlyContribution  decimal.Decimal `json:"averageMonthlyContribution"`
	EstimatedCompletionDate     *time.Time      `json:"estimatedCompletionDate,omitempty"`
	AchievementProbability      int             `json:"achievementProbability"`
	AchievementDate             *time.Time      `json:"achievementDate,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Validate checks goal identity fields.
func (g *Goal) Validate() error {
	if g.Name == "" {
		return ErrNameRequired
	}
	if len(g.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if g.TargetAmount.Exponent() < -2 {
		return ErrAmountPrecision
	}
	if g.CurrentAmount.IsNegative() {
		return ErrNegativeAmount
	}
	if !g.TargetDate.After(g.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// RemainingAmount is target minus current, floored at 0.
func (g *Goal) RemainingAmount() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsMet reports whether the goal has reached its target.
func (g *Goal) IsMet() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Pause transitions active -> paused.
func (g *Goal) Pause() error {
	if g.Status != GoalStatusActive {
		return ErrGoalNotActive
	}
	g.Status = GoalStatusPaused
	return nil
}

// Resume transitions paused -> active.
func (g *Goal) Resume() error {
	if g.Status != GoalStatusPaused {
		return ErrGoalNotActive
	}
	g.Status = GoalStatusActive
	return nil
}

// Cancel transitions active or paused -> cancelled. Cancelled and completed
// are terminal.
func (g *Goal) Cancel() error {
	if g.Status != GoalStatusActive && g.Status != GoalStatusPaused {
		return ErrGoalTerminal
	}
	g.Status = GoalStatusCancelled
	return nil
}

type GoalRepository interface {
	Create(goal *Goal) (*Goal, error)
	GetByID(userID, id uuid.UUID) (*Goal, error)
	GetAllByUser(userID uuid.UUID, includeDeleted bool) ([]*Goal, error)
	Update(goal *Goal) (*Goal, error)
	AddContribution(goal *Goal, contribution *Contribution) error
	SoftDelete(userID, id uuid.UUID) error
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
}
