package api

import (
	"net/http"
	"strconv"

	"github.com/studyowl/studyowl-api/internal/api/shared"
	"github.com/studyowl/studyowl-api/internal/service/ledger"
)

// defaultTopTagsLimit caps the stats endpoint's tag listing when the client
// does not ask for a specific size.
const defaultTopTagsLimit = 10

// StatsHandler serves the user's aggregate counters.
type StatsHandler struct {
	ledger *ledger.Ledger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(ledger *ledger.Ledger) *StatsHandler {
	return &StatsHandler{ledger: ledger}
}

// GetStats handles GET /stats. A user with no activity gets a zeroed stats
// row, not a 404. The optional top_tags query parameter sizes the tag
// listing.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit := defaultTopTagsLimit
	if raw := r.URL.Query().Get("top_tags"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid top_tags parameter")
			return
		}
		limit = parsed
	}

	stats, err := h.ledger.Stats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	topTags, err := h.ledger.TopTags(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	bloomDist, err := h.ledger.BloomDistribution(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse{
		Stats:     stats,
		TopTags:   topTags,
		BloomDist: bloomDist,
	})
}
