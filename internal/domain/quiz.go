package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// QuizStepType identifies one of the four fixed steps of a guided quiz.
type QuizStepType string

// The four step types, in the order every session walks through them.
const (
	QuizStepConcept     QuizStepType = "concept"
	QuizStepExample     QuizStepType = "example"
	QuizStepComparison  QuizStepType = "comparison"
	QuizStepApplication QuizStepType = "application"
)

// QuizStepSequence returns the canonical step order for a quiz session.
// Every session owns exactly these four steps, created in this order.
func QuizStepSequence() []QuizStepType {
	return []QuizStepType{
		QuizStepConcept,
		QuizStepExample,
		QuizStepComparison,
		QuizStepApplication,
	}
}

// QuizSessionStatus is the lifecycle state of a quiz session.
type QuizSessionStatus string

// Quiz session states. A session moves from active to completed when its
// last step is answered, or to abandoned on explicit abandonment.
const (
	QuizStatusActive    QuizSessionStatus = "active"
	QuizStatusCompleted QuizSessionStatus = "completed"
	QuizStatusAbandoned QuizSessionStatus = "abandoned"
)

// Quiz-specific validation errors
var (
	// ErrQuizSessionIDEmpty is returned when a quiz session ID is empty or nil.
	ErrQuizSessionIDEmpty = errors.New("quiz session ID cannot be empty")

	// ErrQuizUserIDEmpty is returned when a quiz session's user ID is empty or nil.
	ErrQuizUserIDEmpty = errors.New("quiz session user ID cannot be empty")

	// ErrQuizTopicEmpty is returned when a quiz session's topic is empty.
	ErrQuizTopicEmpty = errors.New("quiz session topic cannot be empty")

	// ErrQuizStepIDEmpty is returned when a quiz step ID is empty or nil.
	ErrQuizStepIDEmpty = errors.New("quiz step ID cannot be empty")

	// ErrQuizStepTypeInvalid is returned when a quiz step's type is unknown.
	ErrQuizStepTypeInvalid = errors.New("quiz step type is invalid")

	// ErrQuizQuestionPromptEmpty is returned when a quiz question's prompt is empty.
	ErrQuizQuestionPromptEmpty = errors.New("quiz question prompt cannot be empty")

	// ErrQuizQuestionNoOptions is returned when a quiz question has fewer than two options.
	ErrQuizQuestionNoOptions = errors.New("quiz question needs at least two options")

	// ErrQuizQuestionNoCorrectOption is returned when none of a question's options is correct.
	ErrQuizQuestionNoCorrectOption = errors.New("quiz question needs exactly one correct option")
)

// IsValid reports whether the step type is one of the four supported values.
func (t QuizStepType) IsValid() bool {
	switch t {
	case QuizStepConcept, QuizStepExample, QuizStepComparison, QuizStepApplication:
		return true
	default:
		return false
	}
}

// QuizSession is one 4-step guided quiz run for a user and topic.
type QuizSession struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	Topic           string            `json:"topic"`
	Subtopic        string            `json:"subtopic,omitempty"`
	Difficulty      Difficulty        `json:"difficulty"`
	Style           string            `json:"style,omitempty"`
	ExplanationType string            `json:"explanation_type,omitempty"`
	Status          QuizSessionStatus `json:"status"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewQuizSession creates a new active quiz session. The four steps are
// created separately by the quiz service, inside the same transaction.
func NewQuizSession(
	userID uuid.UUID,
	topic, subtopic string,
	difficulty Difficulty,
	style, explanationType string,
) (*QuizSession, error) {
	session := &QuizSession{
		ID:              uuid.New(),
		UserID:          userID,
		Topic:           topic,
		Subtopic:        subtopic,
		Difficulty:      difficulty,
		Style:           style,
		ExplanationType: explanationType,
		Status:          QuizStatusActive,
		CreatedAt:       time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the QuizSession has valid data.
func (s *QuizSession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrQuizSessionIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrQuizUserIDEmpty
	}

	if s.Topic == "" {
		return ErrQuizTopicEmpty
	}

	if !s.Difficulty.IsValid() {
		return ErrFlashcardDifficultyInvalid
	}

	return nil
}

// QuizStep is one of a session's four ordered steps. A step is answered at
// most once: AnsweredAt, UserAnswerID and IsCorrect are always set together.
type QuizStep struct {
	ID           uuid.UUID    `json:"id"`
	SessionID    uuid.UUID    `json:"session_id"`
	StepType     QuizStepType `json:"step_type"`
	Position     int          `json:"position"`
	AnsweredAt   *time.Time   `json:"answered_at,omitempty"`
	UserAnswerID *uuid.UUID   `json:"user_answer_id,omitempty"`
	IsCorrect    *bool        `json:"is_correct,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewQuizStep creates one step of a session's canonical sequence.
func NewQuizStep(sessionID uuid.UUID, stepType QuizStepType, position int) (*QuizStep, error) {
	step := &QuizStep{
		ID:        uuid.New(),
		SessionID: sessionID,
		StepType:  stepType,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}

	if step.SessionID == uuid.Nil {
		return nil, ErrQuizSessionIDEmpty
	}

	if !step.StepType.IsValid() {
		return nil, ErrQuizStepTypeInvalid
	}

	return step, nil
}

// Answered reports whether the step has already been answered.
func (s *QuizStep) Answered() bool {
	return s.AnsweredAt != nil
}

// QuizQuestion is the single question attached to a step, including its
// options and explanation. A step has at most one question, generated once.
type QuizQuestion struct {
	ID          uuid.UUID    `json:"id"`
	StepID      uuid.UUID    `json:"step_id"`
	Prompt      string       `json:"prompt"`
	Explanation string       `json:"explanation,omitempty"`
	Options     []QuizOption `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewQuizQuestion creates a question for a step with the given options.
// Exactly one option must be marked correct.
func NewQuizQuestion(
	stepID uuid.UUID,
	prompt, explanation string,
	options []QuizOption,
) (*QuizQuestion, error) {
	question := &QuizQuestion{
		ID:          uuid.New(),
		StepID:      stepID,
		Prompt:      prompt,
		Explanation: explanation,
		CreatedAt:   time.Now().UTC(),
	}

	if question.StepID == uuid.Nil {
		return nil, ErrQuizStepIDEmpty
	}

	if question.Prompt == "" {
		return nil, ErrQuizQuestionPromptEmpty
	}

	if len(options) < 2 {
		return nil, ErrQuizQuestionNoOptions
	}

	correct := 0
	for i := range options {
		options[i].QuestionID = question.ID
		if options[i].ID == uuid.Nil {
			options[i].ID = uuid.New()
		}
		options[i].Position = i
		if options[i].IsCorrect {
			correct++
		}
	}

	if correct != 1 {
		return nil, ErrQuizQuestionNoCorrectOption
	}

	question.Options = options
	return question, nil
}

// CorrectOption returns the question's correct option. The constructor
// guarantees exactly one exists.
func (q *QuizQuestion) CorrectOption() *QuizOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// Option returns the option with the given ID, or nil if the option does
// not belong to this question.
func (q *QuizQuestion) Option(optionID uuid.UUID) *QuizOption {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

// QuizOption is one answer choice of a question.
type QuizOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Label      string    `json:"label"`
	IsCorrect  bool      `json:"is_correct"`
	Position   int       `json:"position"`
}
