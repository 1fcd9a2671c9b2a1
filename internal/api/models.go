package api

import (
	"github.com/google/uuid"

	"github.com/studyowl/studyowl-api/internal/domain"
)

// Request and response payloads shared by the handlers. Responses that are
// plain domain objects are serialized directly; the structs here exist where
// the wire shape differs from the domain shape.

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse is the success payload for the authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest is the payload for POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse carries the new token pair.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateDeckRequest is the payload for POST /decks.
type CreateDeckRequest struct {
	Title       string   `json:"title"       validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Tags        []string `json:"tags"        validate:"max=20,dive,min=1,max=50"`
}

// UpdateDeckRequest is the payload for PUT /decks/{id}.
type UpdateDeckRequest struct {
	Title       string   `json:"title"       validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Tags        []string `json:"tags"        validate:"max=20,dive,min=1,max=50"`
}

// GenerateDeckRequest is the payload for POST /decks/{id}/generate.
type GenerateDeckRequest struct {
	CardCount int `json:"card_count" validate:"omitempty,gte=1,lte=50"`
}

// GenerateDeckResponse acknowledges that generation was queued.
type GenerateDeckResponse struct {
	DeckID  uuid.UUID `json:"deck_id"`
	EventID uuid.UUID `json:"event_id"`
	Status  string    `json:"status"`
}

// CreateFlashcardRequest is the payload for POST /decks/{id}/cards.
type CreateFlashcardRequest struct {
	Front      string            `json:"front"       validate:"required,min=1,max=4000"`
	Back       string            `json:"back"        validate:"required,min=1,max=4000"`
	BloomLevel domain.BloomLevel `json:"bloom_level" validate:"required,oneof=remember understand apply analyze evaluate create"`
	Difficulty domain.Difficulty `json:"difficulty"  validate:"required,oneof=easy medium hard"`
}

// UpdateFlashcardRequest is the payload for PUT /cards/{id}.
type UpdateFlashcardRequest struct {
	Front      string            `json:"front"       validate:"required,min=1,max=4000"`
	Back       string            `json:"back"        validate:"required,min=1,max=4000"`
	BloomLevel domain.BloomLevel `json:"bloom_level" validate:"required,oneof=remember understand apply analyze evaluate create"`
	Difficulty domain.Difficulty `json:"difficulty"  validate:"required,oneof=easy medium hard"`
}

// SubmitReviewRequest is the payload for POST /study/{sessionID}/review.
type SubmitReviewRequest struct {
	FlashcardID    uuid.UUID `json:"flashcard_id"      validate:"required"`
	Grade          int       `json:"grade"             validate:"gte=0,lte=5"`
	TimeToAnswerMs int       `json:"time_to_answer_ms" validate:"gte=0"`
	Notes          string    `json:"notes"             validate:"max=2000"`
}

// CreateQuizRequest is the payload for POST /quiz/sessions.
type CreateQuizRequest struct {
	Topic           string            `json:"topic"            validate:"required,min=1,max=200"`
	Subtopic        string            `json:"subtopic"         validate:"max=200"`
	Difficulty      domain.Difficulty `json:"difficulty"       validate:"required,oneof=easy medium hard"`
	Style           string            `json:"style"            validate:"max=100"`
	ExplanationType string            `json:"explanation_type" validate:"max=100"`
}

// AnswerQuizStepRequest is the payload for POST /quiz/steps/{id}/answer.
type AnswerQuizStepRequest struct {
	OptionID uuid.UUID `json:"option_id" validate:"required"`
}

// QuizQuestionResponse is the question as shown to the user: options carry
// no correctness flag until the step is answered.
type QuizQuestionResponse struct {
	ID      uuid.UUID            `json:"id"`
	StepID  uuid.UUID            `json:"step_id"`
	Prompt  string               `json:"prompt"`
	Options []QuizOptionResponse `json:"options"`
}

// QuizOptionResponse is one selectable answer option.
type QuizOptionResponse struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// NewQuizQuestionResponse strips the answer key from a question.
func NewQuizQuestionResponse(q *domain.QuizQuestion) QuizQuestionResponse {
	options := make([]QuizOptionResponse, len(q.Options))
	for i, opt := range q.Options {
		options[i] = QuizOptionResponse{ID: opt.ID, Label: opt.Label}
	}
	return QuizQuestionResponse{
		ID:      q.ID,
		StepID:  q.StepID,
		Prompt:  q.Prompt,
		Options: options,
	}
}

// StatsResponse bundles the user's aggregate counters with the derived
// listings.
type StatsResponse struct {
	Stats     *domain.UserStats    `json:"stats"`
	TopTags   []*domain.TagCount   `json:"top_tags"`
	BloomDist []*domain.BloomCount `json:"bloom_distribution"`
}
