package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	return c, recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

func TestSendServiceErrorMapsTypedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "Not found",
			err:        models.NewNotFoundError("quarantine message not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   models.ErrCodeNotFound,
		},
		{
			name:       "Conflict",
			err:        models.NewConflictError("message already processed"),
			wantStatus: http.StatusConflict,
			wantCode:   models.ErrCodeConflict,
		},
		{
			name:       "Validation",
			err:        models.NewValidationError("user ID is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   models.ErrCodeValidationError,
		},
		{
			name:       "Store unavailable",
			err:        models.NewStoreUnavailableError("database down", errors.New("dial tcp")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   models.ErrCodeStoreUnavailable,
		},
		{
			name:       "Timeout",
			err:        models.NewTimeoutError("store timed out", errors.New("context deadline exceeded")),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   models.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, recorder := newTestContext()

			SendServiceError(c, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, recorder).Code)
		})
	}
}

func TestSendServiceErrorFallsBackToInternal(t *testing.T) {
	c, recorder := newTestContext()

	SendServiceError(c, errors.New("something unexpected"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, models.ErrCodeInternalError, decodeError(t, recorder).Code)
}

func TestGetActorFromContext(t *testing.T) {
	c, _ := newTestContext()
	assert.Equal(t, "system", GetActorFromContext(c))

	SetContextValue(c, "actorID", "reviewer-1")
	assert.Equal(t, "reviewer-1", GetActorFromContext(c))
}
