package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	authMiddleware "github.com/learnhub/backend/internal/auth/middleware"
	"github.com/learnhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testResponse mirrors Response with the payload left undecoded
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// asUser returns a middleware that authenticates every request as the given user
func asUser(userID int, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authMiddleware.WithUser(r.Context(), userID, role)))
		})
	}
}

// passThrough is a middleware that does not authenticate
func passThrough(next http.Handler) http.Handler {
	return next
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

func decodeData(t *testing.T, resp testResponse, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "not found", err: fmt.Errorf("course x: %w", models.ErrNotFound), expected: http.StatusNotFound},
		{name: "invalid chapter", err: fmt.Errorf("wrap: %w", models.ErrInvalidChapter), expected: http.StatusUnprocessableEntity},
		{name: "precondition", err: models.ErrPrecondition, expected: http.StatusConflict},
		{name: "conflict", err: models.ErrConflict, expected: http.StatusConflict},
		{name: "transient network", err: fmt.Errorf("%w: %w", models.ErrTransientNetwork, errors.New("dial tcp")), expected: http.StatusServiceUnavailable},
		{name: "validation", err: models.ErrValidation, expected: http.StatusBadRequest},
		{name: "unauthorized", err: models.ErrUnauthorized, expected: http.StatusUnauthorized},
		{name: "other", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFromError(tt.err))
		})
	}
}

func TestBaseHandler_RespondServiceError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{name: "client error keeps the message", err: fmt.Errorf("invalid email: %w", models.ErrValidation), expectedStatus: http.StatusBadRequest, expectedMessage: "invalid email: validation failed"},
		{name: "server error is hidden", err: errors.New("sql: connection refused"), expectedStatus: http.StatusInternalServerError, expectedMessage: "internal server error"},
		{name: "backend unavailable", err: models.ErrTransientNetwork, expectedStatus: http.StatusServiceUnavailable, expectedMessage: "backend unavailable, please retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{Logger: zap.NewNop()}
			w := httptest.NewRecorder()

			h.RespondServiceError(w, tt.err, "operation")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var resp testResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedMessage, resp.Message)
		})
	}
}

func TestBaseHandler_MissingUser(t *testing.T) {
	h := NewUserHandler(&mockEnrollmentService{}, &mockStatsService{}, &mockProfileService{}, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r, passThrough)

	w, resp := doRequest(t, r, http.MethodGet, "/users/me/stats", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}
