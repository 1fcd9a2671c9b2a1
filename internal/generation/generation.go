// Package generation provides interfaces and implementations for interacting
// with external AI/LLM services for content generation. It abstracts the
// details of LLM API integration (Gemini), allowing the application to
// generate flashcard decks and quiz questions without coupling to specific
// external services.
package generation

import (
	"context"

	"github.com/studyowl/studyowl-api/internal/domain"
)

// DeckPrompt describes the deck content to generate cards for.
type DeckPrompt struct {
	Title       string
	Description string
	Tags        []string
	CardCount   int
}

// GeneratedCard is one flashcard produced by the generator, not yet bound to
// a deck or user.
type GeneratedCard struct {
	Front      string            `json:"front"`
	Back       string            `json:"back"`
	BloomLevel domain.BloomLevel `json:"bloom_level"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

// QuestionPrompt describes the quiz question to generate for one step.
type QuestionPrompt struct {
	Topic           string
	Subtopic        string
	Difficulty      domain.Difficulty
	Style           string
	ExplanationType string
	StepType        domain.QuizStepType
}

// GeneratedOption is one answer choice of a generated question.
type GeneratedOption struct {
	Label     string `json:"label"`
	IsCorrect bool   `json:"is_correct"`
}

// GeneratedQuestion is a multiple-choice question produced by the generator.
// Exactly one option is correct; the quiz service enforces this before
// persisting.
type GeneratedQuestion struct {
	Prompt      string            `json:"prompt"`
	Explanation string            `json:"explanation"`
	Options     []GeneratedOption `json:"options"`
}

// Generator defines the interface for AI-backed content generation.
// This interface serves as a boundary between the application core and
// external AI/LLM services.
type Generator interface {
	// GenerateDeckCards creates a full card set for the described deck.
	GenerateDeckCards(ctx context.Context, prompt DeckPrompt) ([]GeneratedCard, error)

	// GenerateQuizQuestion creates one multiple-choice question for a quiz
	// step, tailored to the step's pedagogical role (concept, example,
	// comparison, application).
	GenerateQuizQuestion(ctx context.Context, prompt QuestionPrompt) (*GeneratedQuestion, error)
}
