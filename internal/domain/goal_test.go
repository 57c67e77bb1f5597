package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validGoal() *Goal {
	return &Goal{
		Name:          "Emergency Fund",
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(250),
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:    time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        GoalStatusActive,
	}
}

func TestGoal_Validate(t *testing.T) {
	if err := validGoal().Validate(); err != nil {
		t.Errorf("Expected valid goal, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Goal)
		wantErr error
	}{
		{"missing name", func(g *Goal) { g.Name = "" }, ErrNameRequired},
		{"zero target", func(g *Goal) { g.TargetAmount = decimal.Zero }, ErrInvalidAmount},
		{"sub-cent target", func(g *Goal) { g.TargetAmount = decimal.RequireFromString("100.005") }, ErrAmountPrecision},
		{"negative current", func(g *Goal) { g.CurrentAmount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
		{"target before start", func(g *Goal) { g.TargetDate = g.StartDate.AddDate(0, -1, 0) }, ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := validGoal()
			tt.mutate(goal)
			if err := goal.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoal_RemainingAmount(t *testing.T) {
	goal := validGoal()
	if got := goal.RemainingAmount(); !got.Equal(decimal.NewFromInt(750)) {
		t.Errorf("RemainingAmount = %s, want 750", got)
	}

	goal.CurrentAmount = decimal.NewFromInt(1200)
	if got := goal.RemainingAmount(); !got.IsZero() {
		t.Errorf("RemainingAmount = %s, want 0 past the target", got)
	}
}

func TestGoal_IsMet(t *testing.T) {
	goal := validGoal()
	if goal.IsMet() {
		t.Error("Expected goal with partial progress to not be met")
	}

	goal.CurrentAmount = goal.TargetAmount
	if !goal.IsMet() {
		t.Error("Expected goal at target to be met")
	}
}

func TestGoal_StateMachine(t *testing.T) {
	goal := validGoal()

	if err := goal.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if goal.Status != GoalStatusPaused {
		t.Errorf("Status = %s, want paused", goal.Status)
	}
	if err := goal.Pause(); err != ErrGoalNotActive {
		t.Errorf("Expected ErrGoalNotActive on double pause, got %v", err)
	}

	if err := goal.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if goal.Status != GoalStatusActive {
		t.Errorf("Status = %s, want active", goal.Status)
	}

	if err := goal.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := goal.Cancel(); err != ErrGoalTerminal {
		t.Errorf("Expected ErrGoalTerminal on cancelled goal, got %v", err)
	}
	if err := goal.Resume(); err != ErrGoalNotActive {
		t.Errorf("Expected ErrGoalNotActive resuming a cancelled goal, got %v", err)
	}
}
