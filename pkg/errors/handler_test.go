package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "marketplace-backend/pkg/errors"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		debug    bool
		status   int
		errType  string
		message  string
		detailed string
	}{
		{name: "bad request", err: apperrors.NewBadRequest("status is not ACTIVE"), status: http.StatusBadRequest, errType: "BAD_REQUEST", message: "status is not ACTIVE"},
		{name: "forbidden", err: apperrors.NewForbidden("only the seller may do this"), status: http.StatusForbidden, errType: "FORBIDDEN", message: "only the seller may do this"},
		{name: "not found", err: apperrors.NewNotFound("card"), status: http.StatusNotFound, errType: "NOT_FOUND", message: "card not found"},
		{name: "wrapped app error", err: fmt.Errorf("handler: %w", apperrors.NewNotFound("listing")), status: http.StatusNotFound, errType: "NOT_FOUND", message: "listing not found"},
		{name: "encryption hides cause", err: apperrors.NewEncryptionFailed(errors.New("lambda timeout")), status: http.StatusInternalServerError, errType: "ENCRYPTION_FAILED", message: "encryption failed"},
		{name: "encryption cause in debug", err: apperrors.NewEncryptionFailed(errors.New("lambda timeout")), debug: true, status: http.StatusInternalServerError, errType: "ENCRYPTION_FAILED", message: "encryption failed", detailed: "lambda timeout"},
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError, errType: "UNEXPECTED", message: "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := apperrors.NewErrorHandler(zap.NewNop(), tt.debug)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cards/c1", nil)
			req.Header.Set("X-Request-ID", "req-1")
			rec := httptest.NewRecorder()

			h.Handle(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.errType, body.Type)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.detailed, body.Error)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	h := apperrors.NewErrorHandler(zap.NewNop(), false)
	handler := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "An internal error occurred")
	assert.NotContains(t, rec.Body.String(), "nil map")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(apperrors.NewBadRequest("x")))
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusOf(errors.New("x")))
	assert.True(t, apperrors.IsForbidden(fmt.Errorf("wrap: %w", apperrors.NewForbidden("x"))))
}

func TestErrorHandler_StorageFailureCarriesOperation(t *testing.T) {
	h := apperrors.NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()

	h.Handle(rec, httptest.NewRequest(http.MethodPut, "/api/v1/cards/c1", nil),
		apperrors.NewStorageFailed("update", errors.New("throttled")))

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "STORAGE_FAILED", body.Type)
	assert.Equal(t, "update", body.Details["operation"])
}

func TestErrorHandler_ConflictCode(t *testing.T) {
	h := apperrors.NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()

	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cards", nil),
		apperrors.NewBadRequest("card already exists").WithCode(apperrors.CodeConflict))

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeConflict, body.Code)
}

func TestStackTraceOnlyForServerErrors(t *testing.T) {
	assert.Empty(t, apperrors.NewBadRequest("x").StackTrace)
	assert.Empty(t, apperrors.NewNotFound("card").StackTrace)
	assert.Empty(t, apperrors.NewForbidden("x").StackTrace)
	assert.Contains(t, apperrors.NewUnexpected("x", nil).StackTrace, "TestStackTraceOnlyForServerErrors")
	assert.NotEmpty(t, apperrors.NewStorageFailed("put", errors.New("x")).StackTrace)
}
