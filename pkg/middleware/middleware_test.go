package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/log"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*domain.Claims, error) {
	if token != "valid" {
		return nil, errors.New("signature is invalid")
	}
	claims := &domain.Claims{Role: "operator"}
	claims.Subject = "admin"
	return claims, nil
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		status  int
		subject string
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "not a bearer token", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer forged", status: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer valid", status: http.StatusOK, subject: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if claims, ok := r.Context().Value(ContextKeyOperator).(*domain.Claims); ok {
					subject = claims.Subject
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(stubValidator{})(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.subject, subject)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	log.SetupTestLogger()

	var runID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID = log.GetRunID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	LoggingMiddleware()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, runID)
}

func TestLogPanicMiddleware(t *testing.T) {
	log.SetupTestLogger()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		LogPanicMiddleware()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
