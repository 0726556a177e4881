package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nguessop/nguessbeauty-sub001/pkg/logger"
)

func TestAuth(t *testing.T) {
	var (
		gotUserID int64
		gotRole   string
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserID(r.Context())
		gotRole, _ = GetUserRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		userID     string
		role       string
		wantStatus int
		wantUserID int64
		wantRole   string
	}{
		{"valid", "15", "staff", http.StatusNoContent, 15, "staff"},
		{"valid without role", "15", "", http.StatusNoContent, 15, ""},
		{"missing", "", "", http.StatusUnauthorized, 0, ""},
		{"not a number", "abc", "", http.StatusUnauthorized, 0, ""},
		{"non-positive", "0", "", http.StatusUnauthorized, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID, gotRole = 0, ""

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/bookings", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			rec := httptest.NewRecorder()

			Auth(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
			assert.Equal(t, tt.wantRole, gotRole)
		})
	}
}

func TestRecover(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/1", nil)

	assert.NotPanics(t, func() {
		Recover(logger.Nop())(panicking).ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAccessLog_PassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	AccessLog(logger.Nop())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
}
