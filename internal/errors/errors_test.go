package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("get recipe: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"bad token", ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"anonymous", ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"backend down", fmt.Errorf("revoke refresh token: %w: dial tcp", ErrUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"validation", NewValidationError("tags", "invalid tag id 3"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_ValidationFields(t *testing.T) {
	ve := NewValidationError("tags", "invalid tag id 3").Add("tags", "invalid tag id 9")

	resp := MapErrorToHTTP(fmt.Errorf("create recipe: %w", ve)).ToErrorResponse()

	assert.Equal(t, []string{"invalid tag id 3", "invalid tag id 9"}, resp.Fields["tags"])
	assert.Contains(t, ve.Error(), "tags: invalid tag id 3; invalid tag id 9")
}

func TestValidationError_Empty(t *testing.T) {
	var ve *ValidationError
	assert.True(t, ve.Empty())
	assert.True(t, (&ValidationError{}).Empty())
	assert.False(t, NewValidationError("name", "required").Empty())
}
