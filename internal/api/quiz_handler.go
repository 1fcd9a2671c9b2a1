package api

import (
	"net/http"

	"github.com/studyowl/studyowl-api/internal/api/shared"
	"github.com/studyowl/studyowl-api/internal/service/quiz"
)

// QuizHandler handles guided quiz endpoints.
type QuizHandler struct {
	quizService quiz.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService quiz.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// CreateSession handles POST /quiz.
func (h *QuizHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateQuizRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	state, err := h.quizService.CreateSession(
		r.Context(), userID, req.Topic, req.Subtopic,
		req.Difficulty, req.Style, req.ExplanationType)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, state)
}

// GetSession handles GET /quiz/{sessionID}.
func (h *QuizHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	state, err := h.quizService.GetSession(r.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// GenerateStep handles POST /quiz/steps/{stepID}/generate. The answer key
// is stripped from the response; it is revealed when the step is answered.
func (h *QuizHandler) GenerateStep(w http.ResponseWriter, r *http.Request) {
	userID, stepID, ok := authedRequest(w, r, "stepID")
	if !ok {
		return
	}

	question, err := h.quizService.GenerateStep(r.Context(), userID, stepID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewQuizQuestionResponse(question))
}

// GetStepQuestion handles GET /quiz/steps/{stepID}/question, for clients
// resuming a session whose question was generated earlier. The answer key
// stays hidden for unanswered steps.
func (h *QuizHandler) GetStepQuestion(w http.ResponseWriter, r *http.Request) {
	userID, stepID, ok := authedRequest(w, r, "stepID")
	if !ok {
		return
	}

	question, err := h.quizService.StepQuestion(r.Context(), userID, stepID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewQuizQuestionResponse(question))
}

// AnswerStep handles POST /quiz/steps/{stepID}/answer. A step is answered
// exactly once; answering the last step completes the session.
func (h *QuizHandler) AnswerStep(w http.ResponseWriter, r *http.Request) {
	userID, stepID, ok := authedRequest(w, r, "stepID")
	if !ok {
		return
	}

	var req AnswerQuizStepRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.quizService.AnswerStep(r.Context(), userID, stepID, req.OptionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ResetSession handles POST /quiz/{sessionID}/reset. Steps,
// questions and answers are discarded and a fresh skeleton takes their
// place atomically.
func (h *QuizHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	state, err := h.quizService.ResetSession(r.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// AbandonSession handles POST /quiz/{sessionID}/abandon.
func (h *QuizHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	if err := h.quizService.AbandonSession(r.Context(), userID, sessionID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
