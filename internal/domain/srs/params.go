package srs

// Params defines the configurable parameters of the scheduling algorithm.
type Params struct {
	// MinEaseFactor is the floor the ease factor never drops below.
	MinEaseFactor float64

	// DefaultEaseFactor is assigned to cards that have never been reviewed
	// or whose review history has been invalidated.
	DefaultEaseFactor float64

	// FirstInterval is the interval in days after the first successful recall.
	FirstInterval int

	// SecondInterval is the interval in days after the second consecutive
	// successful recall.
	SecondInterval int

	// PerformanceWindow is how many of the most recent reviews feed the
	// rolling performance average.
	PerformanceWindow int

	// PassingGrade is the lowest grade that counts as a successful recall.
	PassingGrade int
}

// NewDefaultParams returns the standard SM-2 parameter set.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:     1.3,
		DefaultEaseFactor: 2.5,
		FirstInterval:     1,
		SecondInterval:    6,
		PerformanceWindow: 10,
		PassingGrade:      3,
	}
}
