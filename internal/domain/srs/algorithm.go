package srs

import (
	"math"
	"time"
)

// Result carries the scheduler state computed for a card after one review.
type Result struct {
	EaseFactor   float64
	Interval     int
	Repetition   int
	NextReviewAt time.Time
}

// calculateNewEaseFactor applies the SM-2 ease adjustment for a successful
// recall. The penalty grows quadratically as the grade drops towards the
// passing threshold, and the result never falls below the configured floor.
//
// A failed recall leaves the ease factor untouched; callers handle that case
// before reaching this function.
func calculateNewEaseFactor(currentEF float64, grade int, params *Params) float64 {
	q := float64(5 - grade)
	newEF := currentEF + 0.1 - q*(0.08+q*0.02)

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the days until the next review after a
// successful recall: the first two repetitions use fixed intervals, later
// ones grow by the ease factor.
func calculateNewInterval(currentInterval, repetition int, easeFactor float64, params *Params) int {
	switch repetition {
	case 0:
		return params.FirstInterval
	case 1:
		return params.SecondInterval
	default:
		return int(math.Round(float64(currentInterval) * easeFactor))
	}
}

// nextReviewDate schedules the review at calendar-day granularity: the
// interval is added to the current date and the time of day is zeroed, so
// due-date comparisons work by day, not by instant.
func nextReviewDate(now time.Time, interval int) time.Time {
	due := now.UTC().AddDate(0, 0, interval)
	return time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
}

// Schedule computes the next scheduler state for a card given a review grade.
//
// A grade below the passing threshold is a failure: the repetition streak
// resets, the interval drops back to one day, and the ease factor is left
// unchanged. A passing grade advances the repetition streak, grows the
// interval and adjusts the ease factor.
//
// The function is pure: it reads only its arguments and params.
func Schedule(easeFactor float64, interval, repetition, grade int, now time.Time, params *Params) Result {
	if grade < params.PassingGrade {
		return Result{
			EaseFactor:   easeFactor,
			Interval:     1,
			Repetition:   0,
			NextReviewAt: nextReviewDate(now, 1),
		}
	}

	newEF := calculateNewEaseFactor(easeFactor, grade, params)
	newInterval := calculateNewInterval(interval, repetition, easeFactor, params)

	return Result{
		EaseFactor:   newEF,
		Interval:     newInterval,
		Repetition:   repetition + 1,
		NextReviewAt: nextReviewDate(now, newInterval),
	}
}

// PerformanceAverage computes the rolling recall accuracy over the supplied
// grades, which must already be limited to the most recent window (newest
// first or oldest first, order does not matter). Returns 0 for no grades.
func PerformanceAverage(grades []int, params *Params) float64 {
	if len(grades) == 0 {
		return 0
	}

	window := grades
	if len(window) > params.PerformanceWindow {
		window = window[:params.PerformanceWindow]
	}

	correct := 0
	for _, g := range window {
		if g >= params.PassingGrade {
			correct++
		}
	}

	return float64(correct) / float64(len(window))
}
