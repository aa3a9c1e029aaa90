package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// testToken is the API token test clients send; fake servers assert on it.
const testToken = "test-token"

// newTestClient builds a Client against a test server. Retry delays and the
// poll interval are shrunk to milliseconds so exhaustion paths finish fast;
// the attempt counts stay at their defaults so tests exercise the real
// bounds.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(&appcenter.Config{
		APIEndpoint:      baseURL,
		APIToken:         testToken,
		RetryDelay:       time.Millisecond,
		UploadRetryDelay: time.Millisecond,
		PollInterval:     5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("creating test client: %v", err)
	}

	return client
}

// writeTempFile writes content to a file with the given name in a fresh
// temporary directory and returns its path.
func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}

	return path
}
