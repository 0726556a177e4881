package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad date", domain.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: booking", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: slot taken", domain.ErrConflict), http.StatusConflict},
		{"transition", fmt.Errorf("%w: cancelled", domain.ErrInvalidStateTransition), http.StatusConflict},
		{"payment", fmt.Errorf("%w: declined", domain.ErrPaymentFailure), http.StatusPaymentRequired},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromError(tt.err))
		})
	}
}

func TestRespondDomainError_HidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondDomainError(rec, errors.New("pq: password authentication failed"), "секрет")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "секрет")
	assert.Contains(t, rec.Body.String(), msgInternalError)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Reason string `json:"reason"`
	}

	t.Run("valid", func(t *testing.T) {
		var dst body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"sick"}`))
		require.NoError(t, DecodeJSON(r, &dst))
		assert.Equal(t, "sick", dst.Reason)
	})

	t.Run("empty body", func(t *testing.T) {
		var dst body
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		assert.NoError(t, DecodeJSON(r, &dst))
	})

	t.Run("unknown field", func(t *testing.T) {
		var dst body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reson":"typo"}`))
		assert.Error(t, DecodeJSON(r, &dst))
	})

	t.Run("trailing object", func(t *testing.T) {
		var dst body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"a"}{"reason":"b"}`))
		assert.Error(t, DecodeJSON(r, &dst))
	})
}

func TestPathInt64(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"bookingId": tt.raw})
			got, err := PathInt64(r, "bookingId")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?staffId=7&limit=20&from=2026-03-02T09:00:00Z&bad=x", nil)

	staffID, err := QueryInt64(r, "staffId")
	require.NoError(t, err)
	require.NotNil(t, staffID)
	assert.Equal(t, int64(7), *staffID)

	limit, err := QueryInt(r, "limit")
	require.NoError(t, err)
	assert.Equal(t, 20, *limit)

	from, err := QueryTime(r, "from")
	require.NoError(t, err)
	assert.Equal(t, 9, from.Hour())

	missing, err := QueryInt64(r, "serviceId")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = QueryInt(r, "bad")
	assert.Error(t, err)

	_, err = QueryTime(r, "bad")
	assert.Error(t, err)
}
