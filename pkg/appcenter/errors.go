package appcenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is the structured error payload the service returns on most
// failures.
type APIError struct {
	Code    string `json:"code"    yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RequestError describes a request that came back with a non-success status.
// APIError is set when the response body decoded as a service error payload;
// otherwise Body carries the raw bytes.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	APIError   *APIError
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.APIError != nil {
		return fmt.Sprintf("%s %s: status %d: %s: %s",
			e.Method, e.URL, e.StatusCode, e.APIError.Code, e.APIError.Message)
	}

	return fmt.Sprintf("%s %s: status %d: %s",
		e.Method, e.URL, e.StatusCode, truncateBody(e.Body))
}

// Decoded reports whether the response body carried a structured error
// payload.
func (e *RequestError) Decoded() bool {
	return e.APIError != nil
}

const maxBodyInError = 200

func truncateBody(body []byte) string {
	if len(body) == 0 {
		return "(empty body)"
	}

	if len(body) > maxBodyInError {
		return string(body[:maxBodyInError]) + "..."
	}

	return string(body)
}

// NewRequestError classifies a non-success response. It never fails: a body
// that does not decode as a service error payload is kept raw.
func NewRequestError(method, requestURL string, statusCode int, body []byte) *RequestError {
	reqErr := &RequestError{
		Method:     method,
		URL:        requestURL,
		StatusCode: statusCode,
		Body:       body,
	}

	// Both keys must be present for the payload to count as decoded.
	var payload struct {
		Code    *string `json:"code"`
		Message *string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil && payload.Code != nil && payload.Message != nil {
		reqErr.APIError = &APIError{Code: *payload.Code, Message: *payload.Message}
	}

	return reqErr
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired   = errors.New("config is required")
	ErrAPITokenRequired = errors.New("API token is required")
	ErrNoMoreItems      = errors.New("no more items")

	ErrMalwareDetected        = errors.New("malware detected in uploaded binary")
	ErrUploadCanceled         = errors.New("release upload was canceled")
	ErrUploadFailed           = errors.New("release upload processing failed")
	ErrUnexpectedUploadStatus = errors.New("unexpected upload status")
	ErrChunkUploadFailed      = errors.New("chunk upload failed after all attempts")
	ErrNoReleaseID            = errors.New("no release id returned for finished upload")

	ErrReleaseNotFound      = errors.New("release not found")
	ErrCommitNotFound       = errors.New("no release with commit details found")
	ErrBuildVersionRequired = errors.New("build number and version are required for AndroidProguard symbols")
	ErrSymbolsNotCommitted  = errors.New("symbol upload was not committed")

	ErrInvalidReleaseDefinition = errors.New("invalid release definition")
)

// IsNotFound checks if the error is a not found response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized response.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a forbidden response.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsConflict checks if the error is a conflict response.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, statusCode int) bool {
	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == statusCode
	}

	return false
}

// Test error variables for test files to comply with err113.
var (
	ErrSomeError = errors.New("some error")
)
