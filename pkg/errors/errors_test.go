package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidation("bad", nil), http.StatusBadRequest},
		{"not found", NewNotFound("user", 7), http.StatusNotFound},
		{"conflict", NewConflict("taken", nil), http.StatusConflict},
		{"unavailable", NewUnavailable("down", nil), http.StatusServiceUnavailable},
		{"internal", NewInternal("boom", fmt.Errorf("db")), http.StatusInternalServerError},
		{"plain error", fmt.Errorf("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NewNotFound("user", 1)), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestToJSON_HidesInternalCause(t *testing.T) {
	code, body := ToJSON(NewInternal("failed to save user", fmt.Errorf("pq: connection refused")), "trace-1")
	assert.Equal(t, http.StatusInternalServerError, code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, CodeInternal, resp.Error.Code)
	assert.Equal(t, "An internal error occurred", resp.Error.Message)
	assert.Equal(t, "trace-1", resp.TraceID)
	assert.NotContains(t, string(body), "connection refused")
}

func TestToJSON_CarriesDetails(t *testing.T) {
	err := NewValidation("request validation failed", []FieldError{{Field: "age", Message: "must be at least 1"}})
	code, body := ToJSON(err, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), `"field":"age"`)
	assert.NotContains(t, string(body), "trace_id")
}

func TestGRPCRoundTrip(t *testing.T) {
	st, ok := status.FromError(GRPCStatus(NewConflict("email already exists", nil)))
	require.True(t, ok)
	assert.Equal(t, codes.AlreadyExists, st.Code())

	back := FromGRPCStatus(st.Err())
	assert.Equal(t, CodeConflict, back.Code)
	assert.Equal(t, "email already exists", back.Message)

	st, _ = status.FromError(GRPCStatus(NewInternal("secret", nil)))
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestIsAndWrap(t *testing.T) {
	wrapped := Wrap(NewNotFound("user", 3), "lookup")
	assert.True(t, Is(wrapped, CodeNotFound))
	assert.Equal(t, "lookup: user with id '3' not found", wrapped.Message)

	plain := Wrap(fmt.Errorf("disk"), "failed to list users")
	assert.True(t, Is(plain, CodeInternal))
	assert.False(t, Is(fmt.Errorf("x"), CodeInternal))
}
