package errdefs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrAlreadyExists},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnauthorized, ErrAuthentication},
		{http.StatusForbidden, ErrPermissionDenied},
		{http.StatusTooManyRequests, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			assert.ErrorIs(t, FromStatus(tc.status), tc.expected)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"Validation", fmt.Errorf("title: %w", ErrValidation), http.StatusBadRequest},
		{"Authentication", ErrAuthentication, http.StatusUnauthorized},
		{"PermissionDenied", ErrPermissionDenied, http.StatusForbidden},
		{"NotFound", ErrNotFound, http.StatusNotFound},
		{"AlreadyExists", ErrAlreadyExists, http.StatusConflict},
		{"Unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"NotConfigured", ErrNotConfigured, http.StatusServiceUnavailable},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, HTTPStatus(tc.err))
		})
	}
}

func TestServiceError(t *testing.T) {
	err := &ServiceError{Op: "list assignments", Status: 503, Type: "general_unavailable", Message: "down", Err: ErrUnavailable}

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, err.Temporary())
	assert.Contains(t, err.Error(), "list assignments")

	permanent := &ServiceError{Op: "get user", Status: 404, Err: ErrNotFound}
	assert.False(t, permanent.Temporary())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(permanent))
}
