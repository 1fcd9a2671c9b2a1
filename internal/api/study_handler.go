package api

import (
	"net/http"

	"github.com/studyowl/studyowl-api/internal/api/shared"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/service/studysession"
)

// StudyHandler handles study session endpoints.
type StudyHandler struct {
	studyService studysession.StudySessionService
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService studysession.StudySessionService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

// StartSession handles POST /decks/{deckID}/study. Starting is idempotent:
// an incomplete session for the deck is resumed rather than duplicated, with
// 200 and status "active" instead of 201 and "created".
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	result, err := h.studyService.Start(r.Context(), userID, deckID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Status == studysession.StartStatusCreated {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, result)
}

// NextCard handles GET /study/{sessionID}/next. Responds 204 when
// every card in the session has been reviewed.
func (h *StudyHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	card, err := h.studyService.NextCard(r.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if card == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// SubmitReview handles POST /study/{sessionID}/review.
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.Grade < domain.MinGrade || req.Grade > domain.MaxGrade {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Grade out of range")
		return
	}

	result, err := h.studyService.SubmitReview(
		r.Context(), userID, sessionID, req.FlashcardID,
		req.Grade, req.TimeToAnswerMs, req.Notes)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetSummary handles GET /study/{sessionID}/summary. When every
// card has been reviewed, the session completes as part of this request.
func (h *StudyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	summary, err := h.studyService.SummarizeAndMaybeComplete(r.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// EndSession handles POST /study/{sessionID}/end. The session is
// completed regardless of progress.
func (h *StudyHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	summary, err := h.studyService.End(r.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// DeleteSession handles DELETE /study/{sessionID}. The session and
// the deck's whole study progress are wiped.
func (h *StudyHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := authedRequest(w, r, "sessionID")
	if !ok {
		return
	}

	if err := h.studyService.Delete(r.Context(), userID, sessionID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
