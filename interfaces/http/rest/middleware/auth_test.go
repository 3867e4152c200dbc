package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-backend/pkg/auth"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeTokens map[string]string

func (f fakeTokens) Validate(token string) (*auth.Claims, error) {
	id, ok := f[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &auth.Claims{UserID: id}, nil
}

func TestAuthenticate(t *testing.T) {
	errs := apperrors.NewErrorHandler(zap.NewNop(), false)
	var seen string
	h := Authenticate(fakeTokens{"good": "u1"}, errs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.GetUserFromContext(r.Context())
		if err == nil {
			seen = user.UserID
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		user   string
	}{
		{name: "valid bearer", header: "Bearer good", status: http.StatusNoContent, user: "u1"},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusNoContent, user: "u1"},
		{name: "unknown token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "missing", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.user, seen)
		})
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	h := Logger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
