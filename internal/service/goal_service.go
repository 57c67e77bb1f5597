package service

import (
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Achievement probability breakpoints. The constants are product contract;
// they are not derived from a statistical model.
var probabilityBreakpoints = []struct {
	ratio decimal.Decimal
	base  int
}{
	{decimal.NewFromFloat(1.2), 95},
	{decimal.NewFromFloat(1.0), 85},
	{decimal.NewFromFloat(0.8), 65},
	{decimal.NewFromFloat(0.6), 45},
	{decimal.NewFromFloat(0.4), 25},
}

const (
	probabilityFloor       = 10
	probabilityAheadBonus  = 10
	probabilityBehindMalus = 15
	// behindMargin is how many percentage points the goal may trail the
	// timeline before the malus applies.
	behindMargin = 30
)

// GoalService handles savings goals: lifecycle, contributions, and the
// progress estimator.
type GoalService struct {
	goalRepo        domain.GoalRepository
	transactionRepo domain.TransactionRepository
}

// NewGoalService creates a new GoalService
func NewGoalService(goalRepo domain.GoalRepository, transactionRepo domain.TransactionRepository) *GoalService {
	return &GoalService{
		goalRepo:        goalRepo,
		transactionRepo: transactionRepo,
	}
}

// CreateGoal validates and persists a new goal in active state.
func (s *GoalService) CreateGoal(goal *domain.Goal) (*domain.Goal, error) {
	goal.Status = domain.GoalStatusActive
	if goal.Currency == "" {
		goal.Currency = "USD"
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	s.recompute(goal, time.Now())
	return s.goalRepo.Create(goal)
}

// GetGoal returns a single goal scoped to the user.
func (s *GoalService) GetGoal(userID, id uuid.UUID) (*domain.Goal, error) {
	return s.goalRepo.GetByID(userID, id)
}

// GetGoals returns all non-deleted goals for a user.
func (s *GoalService) GetGoals(userID uuid.UUID) ([]*domain.Goal, error) {
	return s.goalRepo.GetAllByUser(userID, false)
}

// UpdateGoal validates and persists edits, recomputing derived fields.
func (s *GoalService) UpdateGoal(goal *domain.Goal) (*domain.Goal, error) {
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	s.recompute(goal, time.Now())
	return s.goalRepo.Update(goal)
}

// DeleteGoal soft-deletes a goal. The retention worker purges it later.
func (s *GoalService) DeleteGoal(userID, id uuid.UUID) error {
	return s.goalRepo.SoftDelete(userID, id)
}

// ContributionInput carries one contribution to record.
type ContributionInput struct {
	Amount        decimal.Decimal
	Date          time.Time
	Method        domain.ContributionMethod
	TransactionID *uuid.UUID
	Source        *string
	Notes         *string
}

// AddContribution appends to the goal's history, bumps the current amount,
// recomputes the derived fields, and completes the goal when the target is
// reached. The contribution's transaction, if referenced, must belong to the
// goal's owner.
func (s *GoalService) AddContribution(userID, goalID uuid.UUID, input ContributionInput) (*domain.Goal, error) {
	now := time.Now()

	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if input.Amount.Exponent() < -2 {
		return nil, domain.ErrAmountPrecision
	}
	if input.Date.After(now) {
		return nil, domain.ErrContributionDate
	}

	goal, err := s.goalRepo.GetByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if input.TransactionID != nil {
		if _, err := s.transactionRepo.GetByID(userID, *input.TransactionID); err != nil {
			return nil, domain.ErrForeignTransaction
		}
	}

	method := input.Method
	if method == "" {
		method = domain.ContributionManual
	}

	contribution := &domain.Contribution{
		ID:            uuid.New(),
		GoalID:        goal.ID,
		Amount:        input.Amount,
		Date:          input.Date,
		Method:        method,
		TransactionID: input.TransactionID,
		Source:        input.Source,
		Notes:         input.Notes,
		CreatedAt:     now,
	}

	goal.Contributions = append(goal.Contributions, contribution)
	goal.CurrentAmount = goal.CurrentAmount.Add(input.Amount)

	if goal.Status == domain.GoalStatusActive && goal.IsMet() {
		goal.Status = domain.GoalStatusCompleted
		goal.AchievementDate = &now
	}

	s.recompute(goal, now)

	if err := s.goalRepo.AddContribution(goal, contribution); err != nil {
		return nil, err
	}
	return goal, nil
}

// Pause transitions the goal active -> paused.
func (s *GoalService) Pause(userID, id uuid.UUID) (*domain.Goal, error) {
	return s.transition(userID, id, (*domain.Goal).Pause)
}

// Resume transitions the goal paused -> active.
func (s *GoalService) Resume(userID, id uuid.UUID) (*domain.Goal, error) {
	return s.transition(userID, id, (*domain.Goal).Resume)
}

// Cancel transitions the goal to its terminal cancelled state.
func (s *GoalService) Cancel(userID, id uuid.UUID) (*domain.Goal, error) {
	return s.transition(userID, id, (*domain.Goal).Cancel)
}

func (s *GoalService) transition(userID, id uuid.UUID, op func(*domain.Goal) error) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if err := op(goal); err != nil {
		return nil, err
	}
	return s.goalRepo.Update(goal)
}

// Progress builds the estimator report for a goal as of now.
func (s *GoalService) Progress(userID, id uuid.UUID) (*domain.GoalProgressReport, error) {
	goal, err := s.goalRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return s.buildProgress(goal, now), nil
}

func (s *GoalService) buildProgress(goal *domain.Goal, now time.Time) *domain.GoalProgressReport {
	return &domain.GoalProgressReport{
		GoalID:                      goal.ID,
		GeneratedAt:                 now,
		TargetAmount:                goal.TargetAmount,
		CurrentAmount:               goal.CurrentAmount,
		RemainingAmount:             goal.RemainingAmount(),
		ProgressPercentage:          s.progressPercentage(goal),
		OverachievementAmount:       s.overachievement(goal),
		AverageMonthlyContribution:  s.MonthlyContributionAverage(goal, now),
		RequiredMonthlyContribution: s.RequiredMonthlyContribution(goal, now),
		EstimatedCompletionDate:     s.EstimateCompletionDate(goal, now),
		AchievementProbability:      s.AchievementProbability(goal, now),
	}
}

// recompute refreshes the derived fields cached on the goal document.
func (s *GoalService) recompute(goal *domain.Goal, now time.Time) {
	goal.ProgressPercentage = s.progressPercentage(goal)
	goal.OverachievementAmount = s.overachievement(goal)
	goal.AverageMonthlyContribution = s.MonthlyContributionAverage(goal, now)
	goal.EstimatedCompletionDate = s.EstimateCompletionDate(goal, now)
	goal.AchievementProbability = s.AchievementProbability(goal, now)
}

func (s *GoalService) progressPercentage(goal *domain.Goal) decimal.Decimal {
	if goal.TargetAmount.IsZero() {
		return decimal.Zero
	}
	progress := goal.CurrentAmount.Div(goal.TargetAmount).Mul(hundred)
	if progress.GreaterThan(domain.UtilizationDisplayCap) {
		return domain.UtilizationDisplayCap
	}
	return progress
}

func (s *GoalService) overachievement(goal *domain.Goal) decimal.Decimal {
	over := goal.CurrentAmount.Sub(goal.TargetAmount)
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}

// MonthlyContributionAverage is total contributed divided by the number of
// whole months since the goal started, at least one month.
func (s *GoalService) MonthlyContributionAverage(goal *domain.Goal, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, c := range goal.Contributions {
		total = total.Add(c.Amount)
	}
	months := util.WholeMonthsBetween(goal.StartDate, now)
	if months < 1 {
		months = 1
	}
	return total.Div(decimal.NewFromInt(int64(months)))
}

// RequiredMonthlyContribution is the remaining amount spread over the months
// left until the target date, at least one month.
func (s *GoalService) RequiredMonthlyContribution(goal *domain.Goal, now time.Time) decimal.Decimal {
	daysLeft := util.DaysBetween(now, goal.TargetDate)
	months := util.CeilDiv(daysLeft, 30)
	if months < 1 {
		months = 1
	}
	return goal.RemainingAmount().Div(decimal.NewFromInt(int64(months)))
}

// EstimateCompletionDate projects when the goal will be met. A met goal
// returns its achievement date (or now); otherwise the remaining amount is
// divided by the monthly average, falling back to a pure time-based estimate
// when there is no contribution history to extrapolate from.
func (s *GoalService) EstimateCompletionDate(goal *domain.Goal, now time.Time) *time.Time {
	if goal.IsMet() {
		if goal.AchievementDate != nil {
			return goal.AchievementDate
		}
		estimate := now
		return &estimate
	}

	monthlyAvg := s.MonthlyContributionAverage(goal, now)

	var months float64
	if monthlyAvg.IsPositive() {
		months, _ = goal.RemainingAmount().Div(monthlyAvg).Float64()
	} else {
		months = float64(util.DaysBetween(now, goal.TargetDate)) / 30
	}

	estimate := now.AddDate(0, 0, int(months*30))
	return &estimate
}

// AchievementProbability scores 0-100 how likely the goal is to be met by its
// target date. Base score comes from the ratio of the actual monthly pace to
// the required pace; the score is then nudged by whether the amount progress
// is ahead of or far behind the timeline progress.
func (s *GoalService) AchievementProbability(goal *domain.Goal, now time.Time) int {
	if goal.IsMet() {
		return 100
	}

	required := s.RequiredMonthlyContribution(goal, now)
	monthlyAvg := s.MonthlyContributionAverage(goal, now)

	probability := probabilityFloor
	if required.IsPositive() {
		ratio := monthlyAvg.Div(required)
		for _, bp := range probabilityBreakpoints {
			if ratio.GreaterThanOrEqual(bp.ratio) {
				probability = bp.base
				break
			}
		}
	}

	goalProgress := s.progressPercentage(goal)
	timelineProgress := s.timelineProgress(goal, now)

	if goalProgress.GreaterThan(timelineProgress) {
		probability += probabilityAheadBonus
	} else if timelineProgress.Sub(goalProgress).GreaterThan(decimal.NewFromInt(behindMargin)) {
		probability -= probabilityBehindMalus
	}

	return util.ClampInt(probability, 0, 100)
}

// timelineProgress is how far along the goal's schedule now falls, 0-100.
func (s *GoalService) timelineProgress(goal *domain.Goal, now time.Time) decimal.Decimal {
	totalDays := util.DaysBetween(goal.StartDate, goal.TargetDate)
	if totalDays == 0 {
		return hundred
	}
	elapsed := util.ClampInt(util.DaysBetween(goal.StartDate, now), 0, totalDays)
	return decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(totalDays))).Mul(hundred)
}
