package redis

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "plain UTC",
			input:    time.Date(2026, 1, 20, 10, 30, 0, 0, time.UTC),
			expected: "20260120",
		},
		{
			name:     "non-UTC input normalized",
			input:    time.Date(2026, 1, 20, 23, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: "20260120",
		},
		{
			name:     "non-UTC input crosses day boundary",
			input:    time.Date(2026, 1, 20, 0, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: "20260119",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayKey(tt.input); got != tt.expected {
				t.Errorf("DayKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMonthKeyPrague(t *testing.T) {
	// 23:30 UTC on Jan 31 is already February in Prague (UTC+1).
	input := time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC)
	if got := MonthKeyPrague(input); got != "2026-02" {
		t.Errorf("MonthKeyPrague() = %v, want 2026-02", got)
	}

	input = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	if got := MonthKeyPrague(input); got != "2026-01" {
		t.Errorf("MonthKeyPrague() = %v, want 2026-01", got)
	}
}

func TestWeekdayUTC(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected int
	}{
		{"Monday", time.Date(2026, 1, 19, 12, 0, 0, 0, time.UTC), 0},
		{"Tuesday", time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC), 1},
		{"Sunday", time.Date(2026, 1, 25, 12, 0, 0, 0, time.UTC), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekdayUTC(tt.input); got != tt.expected {
				t.Errorf("WeekdayUTC() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHeatmapField(t *testing.T) {
	if got := HeatmapField(0, 9); got != "0_9" {
		t.Errorf("HeatmapField() = %v, want 0_9", got)
	}
	if got := HeatmapField(6, 23); got != "6_23" {
		t.Errorf("HeatmapField() = %v, want 6_23", got)
	}
}

func TestDaysInRange(t *testing.T) {
	start := time.Date(2026, 1, 30, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 2, 20, 0, 0, 0, time.UTC)

	got := DaysInRange(start, end)
	want := []string{"20260130", "20260131", "20260201", "20260202"}

	if len(got) != len(want) {
		t.Fatalf("DaysInRange() returned %d days, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DaysInRange()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDaysInRangeSingleDay(t *testing.T) {
	d := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	got := DaysInRange(d, d)
	if len(got) != 1 || got[0] != "20260120" {
		t.Errorf("DaysInRange(single) = %v, want [20260120]", got)
	}
}
