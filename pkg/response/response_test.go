package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ganaa/loantrack/pkg/errors"
)

func TestErrorFrom_StatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", apperrors.WrapInvalidAmount("amount must be positive"), http.StatusBadRequest},
		{"not found", apperrors.WrapLoanNotFound(), http.StatusNotFound},
		{"storage", apperrors.WrapDatabaseError(errors.New("boom")), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			ErrorFrom(recorder, tc.err)
			assert.Equal(t, tc.wantCode, recorder.Code)
		})
	}
}

func TestErrorFrom_HidesStorageDetail(t *testing.T) {
	recorder := httptest.NewRecorder()

	ErrorFrom(recorder, apperrors.WrapDatabaseError(errors.New("password=hunter2")))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Server error", body.Error)
	assert.NotContains(t, recorder.Body.String(), "hunter2")
}

func TestSuccess_Envelope(t *testing.T) {
	recorder := httptest.NewRecorder()

	Success(recorder, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
}
