package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/studydeck-api/internal/api/shared"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/platform/logger"
	"github.com/phrazzld/studydeck-api/internal/service/study"
	"github.com/phrazzld/studydeck-api/internal/stats"
)

// StudyHandler serves the study endpoints.
type StudyHandler struct {
	study   study.StudyService
	counter stats.Counter
	logger  *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService study.StudyService, counter stats.Counter, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for StudyHandler")
	}
	if counter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("counter cannot be nil for StudyHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		study:   studyService,
		counter: counter,
		logger:  logger.With(slog.String("component", "study_handler")),
	}
}

// RecordReview handles POST /api/study/cards/{cardID}/reviews.
func (h *StudyHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := requireUserAndPathUUID(w, r, "cardID")
	if !ok {
		return
	}

	var req RecordReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.study.RecordReview(r.Context(), userID, cardID, *req.Quality)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("review recorded",
		slog.String("card_id", cardID.String()),
		slog.Int("quality", result.Quality),
		slog.Int("interval", result.Interval))

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// GetDueCards handles GET /api/study/decks/{deckID}/due.
func (h *StudyHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := requireUserAndPathUUID(w, r, "deckID")
	if !ok {
		return
	}

	limit, err := getLimit(r)
	if err != nil {
		HandleAPIError(w, r, err, "Limit must be an integer")
		return
	}

	due, err := h.study.GetDueCards(r.Context(), deckID, userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if due == nil {
		due = []domain.CardStudyInfo{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, due)
}

// GetReviewHistory handles GET /api/study/cards/{cardID}/reviews.
func (h *StudyHandler) GetReviewHistory(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := requireUserAndPathUUID(w, r, "cardID")
	if !ok {
		return
	}

	limit, err := getLimit(r)
	if err != nil {
		HandleAPIError(w, r, err, "Limit must be an integer")
		return
	}

	history, err := h.study.GetReviewHistory(r.Context(), userID, cardID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, historyToResponse(history))
}

// GetStats handles GET /api/study/stats.
func (h *StudyHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	summary, err := h.counter.Summary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load review statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
