package util

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{
			name:  "thirty day window",
			start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			want:  30,
		},
		{
			name:  "same instant",
			start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			want:  0,
		},
		{
			name:  "end before start is zero",
			start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			want:  0,
		},
		{
			name:  "partial day truncates",
			start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 3, 2, 18, 0, 0, 0, time.UTC),
			want:  1,
		},
	}

	for _, tt := range tests {
		if got := DaysBetween(tt.start, tt.end); got != tt.want {
			t.Errorf("%s: DaysBetween = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-3, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 0, 0},
	}

	for _, tt := range tests {
		if got := ClampInt(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestWholeMonthsBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{
			name:  "exact months",
			start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			want:  3,
		},
		{
			name:  "day of month not yet reached",
			start: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			want:  1,
		},
		{
			name:  "inside first month",
			start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			want:  0,
		},
		{
			name:  "end before start",
			start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			want:  0,
		},
		{
			name:  "year boundary",
			start: time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
			want:  3,
		},
	}

	for _, tt := range tests {
		if got := WholeMonthsBetween(tt.start, tt.end); got != tt.want {
			t.Errorf("%s: WholeMonthsBetween = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{30, 30, 1},
		{31, 30, 2},
		{0, 30, 0},
		{185, 30, 7},
	}

	for _, tt := range tests {
		if got := CeilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
