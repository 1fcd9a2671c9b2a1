package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedule(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		easeFactor     float64
		interval       int
		repetition     int
		grade          int
		wantEF         float64
		wantInterval   int
		wantRepetition int
	}{
		{
			name:       "first successful review keeps default ease",
			easeFactor: 2.5, interval: 0, repetition: 0, grade: 4,
			// EF' = 2.5 + 0.1 - 1*(0.08 + 0.02) = 2.5
			wantEF: 2.5, wantInterval: 1, wantRepetition: 1,
		},
		{
			name:       "second successful review jumps to six days",
			easeFactor: 2.5, interval: 1, repetition: 1, grade: 5,
			// EF' = 2.5 + 0.1 - 0 = 2.6
			wantEF: 2.6, wantInterval: 6, wantRepetition: 2,
		},
		{
			name:       "third review grows interval by old ease factor",
			easeFactor: 2.5, interval: 6, repetition: 2, grade: 4,
			// interval = round(6 * 2.5) = 15
			wantEF: 2.5, wantInterval: 15, wantRepetition: 3,
		},
		{
			name:       "barely passing grade takes the full penalty",
			easeFactor: 2.5, interval: 1, repetition: 1, grade: 3,
			// EF' = 2.5 + 0.1 - 2*(0.08 + 2*0.02) = 2.36
			wantEF: 2.36, wantInterval: 6, wantRepetition: 2,
		},
		{
			name:       "failure resets streak and interval, ease untouched",
			easeFactor: 2.2, interval: 10, repetition: 3, grade: 1,
			wantEF: 2.2, wantInterval: 1, wantRepetition: 0,
		},
		{
			name:       "complete blackout behaves like any failure",
			easeFactor: 2.5, interval: 15, repetition: 4, grade: 0,
			wantEF: 2.5, wantInterval: 1, wantRepetition: 0,
		},
		{
			name:       "ease factor never drops below the floor",
			easeFactor: 1.32, interval: 1, repetition: 1, grade: 3,
			wantEF: 1.3, wantInterval: 6, wantRepetition: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Schedule(tc.easeFactor, tc.interval, tc.repetition, tc.grade, now, params)

			assert.InDelta(t, tc.wantEF, got.EaseFactor, 0.0001)
			assert.Equal(t, tc.wantInterval, got.Interval)
			assert.Equal(t, tc.wantRepetition, got.Repetition)
		})
	}
}

func TestScheduleNextReviewAtMidnight(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	now := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)

	got := Schedule(2.5, 0, 0, 4, now, params)

	want := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, got.NextReviewAt, "due date is at UTC midnight, day granularity")
}

func TestScheduleFailureDueTomorrow(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	got := Schedule(2.5, 30, 5, 2, now, params)

	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, got.NextReviewAt)
}

func TestPerformanceAverage(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()

	tests := []struct {
		name   string
		grades []int
		want   float64
	}{
		{name: "no reviews", grades: nil, want: 0},
		{name: "all correct", grades: []int{5, 4, 3}, want: 1},
		{name: "all wrong", grades: []int{0, 1, 2}, want: 0},
		{name: "mixed", grades: []int{5, 1, 4, 0}, want: 0.5},
		{
			name:   "window caps at ten most recent",
			grades: []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 0, 0, 0, 0, 0},
			want:   1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, PerformanceAverage(tc.grades, params), 0.0001)
		})
	}
}
