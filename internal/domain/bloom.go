package domain

// BloomLevel classifies a flashcard's cognitive demand using Bloom's taxonomy.
// It is used both on individual flashcards and as the bucket key for the
// per-user bloom-level counters.
type BloomLevel string

// Supported bloom levels, ordered from lowest to highest cognitive demand.
const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// AllBloomLevels returns every supported bloom level in taxonomy order.
func AllBloomLevels() []BloomLevel {
	return []BloomLevel{
		BloomRemember,
		BloomUnderstand,
		BloomApply,
		BloomAnalyze,
		BloomEvaluate,
		BloomCreate,
	}
}

// IsValid reports whether the bloom level is one of the supported values.
func (l BloomLevel) IsValid() bool {
	switch l {
	case BloomRemember, BloomUnderstand, BloomApply,
		BloomAnalyze, BloomEvaluate, BloomCreate:
		return true
	default:
		return false
	}
}

// Difficulty is the author-assigned difficulty of a flashcard or quiz.
type Difficulty string

// Supported difficulty values.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether the difficulty is one of the supported values.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}
