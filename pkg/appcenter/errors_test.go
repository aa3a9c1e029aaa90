package appcenter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		Code:    "not_found",
		Message: "Release not found",
	}

	assert.Equal(t, "not_found: Release not found", err.Error())
}

func TestRequestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *RequestError
		expected string
	}{
		{
			name: "decoded error payload",
			err: &RequestError{
				Method:     "GET",
				URL:        "https://api.appcenter.ms/v0.1/apps/org/app",
				StatusCode: 404,
				APIError:   &APIError{Code: "not_found", Message: "Release not found"},
			},
			expected: "GET https://api.appcenter.ms/v0.1/apps/org/app: status 404: not_found: Release not found",
		},
		{
			name: "raw body",
			err: &RequestError{
				Method:     "POST",
				URL:        "https://api.appcenter.ms/v0.1/apps/org/app/uploads/releases",
				StatusCode: 500,
				Body:       []byte("internal server error"),
			},
			expected: "POST https://api.appcenter.ms/v0.1/apps/org/app/uploads/releases: status 500: internal server error",
		},
		{
			name: "empty body",
			err: &RequestError{
				Method:     "DELETE",
				URL:        "https://api.appcenter.ms/v0.1/api_tokens/abc",
				StatusCode: 502,
			},
			expected: "DELETE https://api.appcenter.ms/v0.1/api_tokens/abc: status 502: (empty body)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestRequestError_TruncatesLongBodies(t *testing.T) {
	body := strings.Repeat("x", 300)

	err := &RequestError{
		Method:     "GET",
		URL:        "https://api.appcenter.ms/v0.1/apps/org/app",
		StatusCode: 500,
		Body:       []byte(body),
	}

	message := err.Error()
	assert.Contains(t, message, strings.Repeat("x", 200)+"...")
	assert.NotContains(t, message, strings.Repeat("x", 201))
}

func TestNewRequestError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantDecoded bool
		wantCode    string
		wantMessage string
	}{
		{
			name:        "structured error payload",
			body:        `{"code": "not_found", "message": "Release not found"}`,
			wantDecoded: true,
			wantCode:    "not_found",
			wantMessage: "Release not found",
		},
		{
			name:        "missing message key",
			body:        `{"code": "not_found"}`,
			wantDecoded: false,
		},
		{
			name:        "missing code key",
			body:        `{"message": "Release not found"}`,
			wantDecoded: false,
		},
		{
			name:        "not json",
			body:        "<html>502 Bad Gateway</html>",
			wantDecoded: false,
		},
		{
			name:        "empty body",
			body:        "",
			wantDecoded: false,
		},
		{
			name:        "extra keys still decode",
			body:        `{"code": "conflict", "message": "Already exists", "statusCode": 409}`,
			wantDecoded: true,
			wantCode:    "conflict",
			wantMessage: "Already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqErr := NewRequestError("GET", "https://api.appcenter.ms/v0.1/test", 404, []byte(tt.body))
			require.NotNil(t, reqErr)
			assert.Equal(t, 404, reqErr.StatusCode)
			assert.Equal(t, tt.wantDecoded, reqErr.Decoded())

			if tt.wantDecoded {
				require.NotNil(t, reqErr.APIError)
				assert.Equal(t, tt.wantCode, reqErr.APIError.Code)
				assert.Equal(t, tt.wantMessage, reqErr.APIError.Message)
			} else {
				assert.Nil(t, reqErr.APIError)
				assert.Equal(t, tt.body, string(reqErr.Body))
			}
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		check    func(error) bool
		expected bool
	}{
		{
			name:     "not found",
			err:      &RequestError{StatusCode: http.StatusNotFound},
			check:    IsNotFound,
			expected: true,
		},
		{
			name:     "not found on other status",
			err:      &RequestError{StatusCode: http.StatusInternalServerError},
			check:    IsNotFound,
			expected: false,
		},
		{
			name:     "not found through wrapping",
			err:      fmt.Errorf("getting release: %w", &RequestError{StatusCode: http.StatusNotFound}),
			check:    IsNotFound,
			expected: true,
		},
		{
			name:     "unauthorized",
			err:      &RequestError{StatusCode: http.StatusUnauthorized},
			check:    IsUnauthorized,
			expected: true,
		},
		{
			name:     "forbidden",
			err:      &RequestError{StatusCode: http.StatusForbidden},
			check:    IsForbidden,
			expected: true,
		},
		{
			name:     "conflict",
			err:      &RequestError{StatusCode: http.StatusConflict},
			check:    IsConflict,
			expected: true,
		},
		{
			name:     "other error type",
			err:      errors.New("some error"),
			check:    IsNotFound,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			check:    IsNotFound,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.check(tt.err))
		})
	}
}
