package service

import (
	"testing"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoalService() (*GoalService, *testutil.MockGoalRepository, *testutil.MockTransactionRepository) {
	goalRepo := testutil.NewMockGoalRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	return NewGoalService(goalRepo, transactionRepo), goalRepo, transactionRepo
}

func TestAchievementProbability_MetGoalIsCertain(t *testing.T) {
	svc, _, _ := newGoalService()

	goal := &domain.Goal{
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(1000),
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, 100, svc.AchievementProbability(goal, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
}

func TestAchievementProbability_OnPaceNoAdjustment(t *testing.T) {
	svc, _, _ := newGoalService()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	target := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 180) // 2025-06-30

	// Amount progress 180/365 matches timeline progress exactly, so neither
	// the ahead bonus nor the behind malus applies. The pace ratio lands in
	// the [1.0, 1.2) band: avg 150/5 = 30, required 185/7 ~ 26.43.
	goal := &domain.Goal{
		TargetAmount:  decimal.NewFromInt(365),
		CurrentAmount: decimal.NewFromInt(180),
		StartDate:     start,
		TargetDate:    target,
		Contributions: []*domain.Contribution{
			{Amount: decimal.NewFromInt(150), Date: now},
		},
	}

	assert.Equal(t, 85, svc.AchievementProbability(goal, now))
}

func TestAchievementProbability_AheadOfTimelineGetsBonus(t *testing.T) {
	svc, _, _ := newGoalService()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	target := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 180)

	// Same pace band as the on-pace case, but amount progress (50.7%) is
	// ahead of timeline progress (49.3%).
	goal := &domain.Goal{
		TargetAmount:  decimal.NewFromInt(365),
		CurrentAmount: decimal.NewFromInt(185),
		StartDate:     start,
		TargetDate:    target,
		Contributions: []*domain.Contribution{
			{Amount: decimal.NewFromInt(150), Date: now},
		},
	}

	assert.Equal(t, 95, svc.AchievementProbability(goal, now))
}

func TestAchievementProbability_FarBehindTimelineGetsMalus(t *testing.T) {
	svc, _, _ := newGoalService()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	target := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 180)

	// No contributions at the halfway mark: floor score minus the malus,
	// clamped at 0.
	goal := &domain.Goal{
		TargetAmount:  decimal.NewFromInt(365),
		CurrentAmount: decimal.Zero,
		StartDate:     start,
		TargetDate:    target,
	}

	assert.Equal(t, 0, svc.AchievementProbability(goal, now))
}

func TestAchievementProbability_SlightlyBehindKeepsFloor(t *testing.T) {
	svc, _, _ := newGoalService()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	target := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 180)

	// Progress 21.9% trails the 49.3% timeline by less than the 30-point
	// margin, so the malus does not apply.
	goal := &domain.Goal{
		TargetAmount:  decimal.NewFromInt(365),
		CurrentAmount: decimal.NewFromInt(80),
		StartDate:     start,
		TargetDate:    target,
	}

	assert.Equal(t, 10, svc.AchievementProbability(goal, now))
}

func TestMonthlyContributionAverage(t *testing.T) {
	svc, _, _ := newGoalService()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	goal := &domain.Goal{
		StartDate: start,
		Contributions: []*domain.Contribution{
			{Amount: decimal.NewFromInt(100)},
			{Amount: decimal.NewFromInt(200)},
		},
	}

	// Two whole months elapsed.
	avg := svc.MonthlyContributionAverage(goal, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "150.00", avg.StringFixed(2))

	// Inside the first month the divisor is floored at one.
	avg = svc.MonthlyContributionAverage(goal, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "300.00", avg.StringFixed(2))
}

func TestRequiredMonthlyContribution_PastTargetDateUsesOneMonth(t *testing.T) {
	svc, _, _ := newGoalService()

	goal := &domain.Goal{
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(400),
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	// Target date already passed; the remaining 600 is due within one month.
	required := svc.RequiredMonthlyContribution(goal, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "600.00", required.StringFixed(2))
}

func TestEstimateCompletionDate_FromContributionPace(t *testing.T) {
	svc, _, _ := newGoalService()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	// 300 contributed over 3 whole months: 100/month. 300 remaining means 3
	// more months, i.e. 90 days out.
	goal := &domain.Goal{
		TargetAmount:  decimal.NewFromInt(600),
		CurrentAmount: decimal.NewFromInt(300),
		StartDate:     start,
		TargetDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Contributions: []*domain.Contribution{
			{Amount: decimal.NewFromInt(300)},
		},
	}

	estimate := svc.EstimateCompletionDate(goal, now)
	require.NotNil(t, estimate)
	assert.Equal(t, now.AddDate(0, 0, 90), *estimate)
}

func TestEstimateCompletionDate_MetGoalReturnsAchievementDate(t *testing.T) {
	svc, _, _ := newGoalService()

	achieved := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	goal := &domain.Goal{
		TargetAmount:    decimal.NewFromInt(500),
		CurrentAmount:   decimal.NewFromInt(500),
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		AchievementDate: &achieved,
	}

	estimate := svc.EstimateCompletionDate(goal, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, estimate)
	assert.Equal(t, achieved, *estimate)
}

func TestCreateGoal_StartsActiveWithDerivedFields(t *testing.T) {
	svc, _, _ := newGoalService()
	userID := uuid.New()

	goal := &domain.Goal{
		UserID:       userID,
		Name:         "Emergency Fund",
		TargetAmount: decimal.NewFromInt(5000),
		StartDate:    time.Now().AddDate(0, 0, -1),
		TargetDate:   time.Now().AddDate(1, 0, 0),
	}

	created, err := svc.CreateGoal(goal)

	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusActive, created.Status)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, "0.00", created.ProgressPercentage.StringFixed(2))
}

func TestCreateGoal_RejectsInvalidDates(t *testing.T) {
	svc, _, _ := newGoalService()

	goal := &domain.Goal{
		UserID:       uuid.New(),
		Name:         "Backwards",
		TargetAmount: decimal.NewFromInt(100),
		StartDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := svc.CreateGoal(goal)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestAddContribution_CompletesGoalAtTarget(t *testing.T) {
	svc, goalRepo, _ := newGoalService()
	userID := uuid.New()

	goal := &domain.Goal{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          "Vacation",
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(900),
		Currency:      "USD",
		Status:        domain.GoalStatusActive,
		StartDate:     time.Now().AddDate(0, -3, 0),
		TargetDate:    time.Now().AddDate(0, 3, 0),
	}
	goalRepo.AddGoal(goal)

	updated, err := svc.AddContribution(userID, goal.ID, ContributionInput{
		Amount: decimal.NewFromInt(100),
		Date:   time.Now().AddDate(0, 0, -1),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusCompleted, updated.Status)
	assert.NotNil(t, updated.AchievementDate)
	assert.Equal(t, "1000.00", updated.CurrentAmount.StringFixed(2))
	assert.Equal(t, "100.00", updated.ProgressPercentage.StringFixed(2))
	assert.Equal(t, 100, updated.AchievementProbability)
	require.Len(t, updated.Contributions, 1)
	assert.Equal(t, domain.ContributionManual, updated.Contributions[0].Method)
}

func TestAddContribution_RejectsFutureDate(t *testing.T) {
	svc, goalRepo, _ := newGoalService()
	userID := uuid.New()

	goal := &domain.Goal{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         "Vacation",
		TargetAmount: decimal.NewFromInt(1000),
		Status:       domain.GoalStatusActive,
		StartDate:    time.Now().AddDate(0, -1, 0),
		TargetDate:   time.Now().AddDate(0, 6, 0),
	}
	goalRepo.AddGoal(goal)

	_, err := svc.AddContribution(userID, goal.ID, ContributionInput{
		Amount: decimal.NewFromInt(50),
		Date:   time.Now().AddDate(0, 0, 2),
	})

	assert.ErrorIs(t, err, domain.ErrContributionDate)
}

func TestAddContribution_RejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newGoalService()

	_, err := svc.AddContribution(uuid.New(), uuid.New(), ContributionInput{
		Amount: decimal.Zero,
		Date:   time.Now(),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAddContribution_RejectsForeignTransaction(t *testing.T) {
	svc, goalRepo, transactionRepo := newGoalService()
	userID := uuid.New()
	otherUser := uuid.New()

	goal := &domain.Goal{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         "Vacation",
		TargetAmount: decimal.NewFromInt(1000),
		Status:       domain.GoalStatusActive,
		StartDate:    time.Now().AddDate(0, -1, 0),
		TargetDate:   time.Now().AddDate(0, 6, 0),
	}
	goalRepo.AddGoal(goal)

	foreign := &domain.Transaction{
		ID:              uuid.New(),
		UserID:          otherUser,
		Name:            "Transfer",
		Amount:          decimal.NewFromInt(50),
		Type:            domain.TransactionTypeIncome,
		Status:          domain.TransactionStatusCompleted,
		TransactionDate: time.Now(),
	}
	transactionRepo.AddTransaction(foreign)

	_, err := svc.AddContribution(userID, goal.ID, ContributionInput{
		Amount:        decimal.NewFromInt(50),
		Date:          time.Now(),
		TransactionID: &foreign.ID,
	})

	assert.ErrorIs(t, err, domain.ErrForeignTransaction)
}

func TestGoalTransitions(t *testing.T) {
	svc, goalRepo, _ := newGoalService()
	userID := uuid.New()

	goal := &domain.Goal{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         "Car",
		TargetAmount: decimal.NewFromInt(8000),
		Status:       domain.GoalStatusActive,
		StartDate:    time.Now().AddDate(0, -1, 0),
		TargetDate:   time.Now().AddDate(1, 0, 0),
	}
	goalRepo.AddGoal(goal)

	paused, err := svc.Pause(userID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusPaused, paused.Status)

	// Pausing a paused goal fails.
	_, err = svc.Pause(userID, goal.ID)
	assert.ErrorIs(t, err, domain.ErrGoalNotActive)

	resumed, err := svc.Resume(userID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusActive, resumed.Status)

	cancelled, err := svc.Cancel(userID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusCancelled, cancelled.Status)

	// Cancelled is terminal.
	_, err = svc.Cancel(userID, goal.ID)
	assert.ErrorIs(t, err, domain.ErrGoalTerminal)
}

func TestProgress_ScopedToOwner(t *testing.T) {
	svc, goalRepo, _ := newGoalService()
	owner := uuid.New()

	goal := &domain.Goal{
		ID:           uuid.New(),
		UserID:       owner,
		Name:         "House",
		TargetAmount: decimal.NewFromInt(10000),
		Status:       domain.GoalStatusActive,
		StartDate:    time.Now().AddDate(0, -1, 0),
		TargetDate:   time.Now().AddDate(2, 0, 0),
	}
	goalRepo.AddGoal(goal)

	_, err := svc.Progress(uuid.New(), goal.ID)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	report, err := svc.Progress(owner, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, goal.ID, report.GoalID)
	assert.Equal(t, "10000.00", report.RemainingAmount.StringFixed(2))
}
