// Package gemini implements generation.Generator against Google's Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/studyowl/studyowl-api/internal/config"
	"github.com/studyowl/studyowl-api/internal/generation"
	"google.golang.org/genai"
)

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate flashcard decks and quiz questions.
type GeminiGenerator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// Ensure GeminiGenerator implements generation.Generator
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new GeminiGenerator with the provided
// configuration. The context is used for client initialization only.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// GenerateDeckCards implements generation.Generator.GenerateDeckCards.
func (g *GeminiGenerator) GenerateDeckCards(
	ctx context.Context,
	prompt generation.DeckPrompt,
) ([]generation.GeneratedCard, error) {
	if prompt.Title == "" {
		return nil, fmt.Errorf("%w: deck title cannot be empty", generation.ErrGenerationFailed)
	}

	count := prompt.CardCount
	if count <= 0 {
		count = g.config.DefaultCardCount
	}

	text, err := g.callWithRetry(ctx, deckCardsPrompt(prompt, count))
	if err != nil {
		return nil, err
	}

	var cards []generation.GeneratedCard
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &cards); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no cards generated", generation.ErrInvalidResponse)
	}

	g.logger.InfoContext(ctx, "deck cards generated",
		slog.String("title", prompt.Title),
		slog.Int("cards", len(cards)))
	return cards, nil
}

// GenerateQuizQuestion implements generation.Generator.GenerateQuizQuestion.
func (g *GeminiGenerator) GenerateQuizQuestion(
	ctx context.Context,
	prompt generation.QuestionPrompt,
) (*generation.GeneratedQuestion, error) {
	if prompt.Topic == "" {
		return nil, fmt.Errorf("%w: topic cannot be empty", generation.ErrGenerationFailed)
	}

	text, err := g.callWithRetry(ctx, quizQuestionPrompt(prompt))
	if err != nil {
		return nil, err
	}

	var question generation.GeneratedQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &question); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}
	if question.Prompt == "" || len(question.Options) < 2 {
		return nil, fmt.Errorf("%w: incomplete question", generation.ErrInvalidResponse)
	}

	g.logger.InfoContext(ctx, "quiz question generated",
		slog.String("topic", prompt.Topic),
		slog.String("step_type", string(prompt.StepType)))
	return &question, nil
}

// callWithRetry calls the Gemini API with exponential backoff and jitter.
// Transient errors are retried up to MaxRetries times; content blocked by
// safety filters and malformed responses are permanent and returned
// immediately.
func (g *GeminiGenerator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		text, transient, err := g.callOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		if !transient {
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce performs one API call. The second return value reports whether a
// failure is worth retrying.
func (g *GeminiGenerator) callOnce(ctx context.Context, prompt string) (string, bool, error) {
	content := &genai.Content{
		Parts: []*genai.Part{
			genai.NewPartFromText(prompt),
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, nil)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", false, fmt.Errorf("%w: content blocked by safety filters",
			generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", false, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", false, fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}

	return text, false, nil
}

func deckCardsPrompt(prompt generation.DeckPrompt, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d study flashcards for a deck titled %q.\n", count, prompt.Title)
	if prompt.Description != "" {
		fmt.Fprintf(&b, "Deck description: %s\n", prompt.Description)
	}
	if len(prompt.Tags) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(prompt.Tags, ", "))
	}
	b.WriteString(`Respond with a JSON array only, no prose. Each element:
{"front": "...", "back": "...", "bloom_level": "remember|understand|apply|analyze|evaluate|create", "difficulty": "easy|medium|hard"}`)
	return b.String()
}

func quizQuestionPrompt(prompt generation.QuestionPrompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate one multiple-choice quiz question about %q", prompt.Topic)
	if prompt.Subtopic != "" {
		fmt.Fprintf(&b, " (subtopic: %s)", prompt.Subtopic)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Difficulty: %s.\n", prompt.Difficulty)
	if prompt.Style != "" {
		fmt.Fprintf(&b, "Style: %s.\n", prompt.Style)
	}
	if prompt.ExplanationType != "" {
		fmt.Fprintf(&b, "Explanation type: %s.\n", prompt.ExplanationType)
	}

	switch prompt.StepType {
	case "concept":
		b.WriteString("The question must test understanding of the core concept itself.\n")
	case "example":
		b.WriteString("The question must present a concrete example and ask what it illustrates.\n")
	case "comparison":
		b.WriteString("The question must compare the concept with a related or contrasting one.\n")
	case "application":
		b.WriteString("The question must require applying the concept to a new situation.\n")
	}

	b.WriteString(`Respond with a JSON object only, no prose:
{"prompt": "...", "explanation": "...", "options": [{"label": "...", "is_correct": true}, ...]}
Provide exactly 4 options with exactly one correct.`)
	return b.String()
}

// stripCodeFence removes a markdown code fence the model sometimes wraps
// around JSON output.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
