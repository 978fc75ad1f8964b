package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/studydeck-api/internal/api/middleware"
	"github.com/phrazzld/studydeck-api/internal/api/shared"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/service/auth"
	"github.com/phrazzld/studydeck-api/internal/service/study"
	"github.com/phrazzld/studydeck-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	exhausted := study.NewServiceError("record_review", "retries exhausted",
		fmt.Errorf("%w: %w", study.ErrConcurrencyConflict, store.ErrConcurrencyConflict))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid quality", fmt.Errorf("%w: got 7", domain.ErrInvalidQuality), http.StatusBadRequest, "Quality must be an integer between 0 and 5"},
		{"validation", fmt.Errorf("%w: limit", domain.ErrValidation), http.StatusBadRequest, "Validation error"},
		{"invalid id", fmt.Errorf("%w: cardID", domain.ErrInvalidID), http.StatusBadRequest, "Invalid ID format"},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest, "Request body is required"},
		{"invalid body", fmt.Errorf("%w: eof", shared.ErrInvalidBody), http.StatusBadRequest, "Invalid request format"},
		{"card not found", study.ErrCardNotFound, http.StatusNotFound, "Card not found"},
		{"wrapped card not found", study.NewServiceError("record_review", "lookup", study.ErrCardNotFound), http.StatusNotFound, "Card not found"},
		{"store card not found", store.ErrCardNotFound, http.StatusNotFound, "Card not found"},
		{"retries exhausted", exhausted, http.StatusServiceUnavailable, "The card is being reviewed concurrently, please retry"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized, "Unauthorized"},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
		{"rate limited", middleware.ErrRateLimited, http.StatusTooManyRequests, "Too many requests"},
		{"unknown", errors.New("pq: relation \"review_log\" does not exist"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantStatus, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.wantMsg, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestGetSafeErrorMessage_Nil(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestValidationErrorsAreSanitized(t *testing.T) {
	t.Parallel()

	six := 6
	err := shared.ValidateRequest(&RecordReviewRequest{Quality: &six})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(err))
	assert.Equal(t, "Invalid Quality: too large", GetSafeErrorMessage(err))

	err = shared.ValidateRequest(&RecordReviewRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid Quality: required field", GetSafeErrorMessage(err))
}
