// Package http provides the HTTP transport used by all App Center API
// clients. It owns authentication headers, request encoding, retry behavior,
// and error classification; resource clients only deal with paths, bodies,
// and decoded responses.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/appcenter-community/appcenter-go/internal/auth"
	"github.com/appcenter-community/appcenter-go/internal/constants"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// Request represents an API request.
type Request struct {
	Method string
	// Path is resolved against the client's base URL unless it is already an
	// absolute URL, which upload-domain requests are.
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil. RawBody is sent verbatim and takes
	// precedence over Body. Files builds a multipart/form-data body and takes
	// precedence over both.
	Body    interface{}
	RawBody []byte
	Files   []FilePart
	Headers map[string]string
	// SkipAuth leaves out the API token header. Upload-domain and blob-store
	// requests authenticate through the URL instead.
	SkipAuth bool
}

// FilePart is a single file in a multipart upload.
type FilePart struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client is the HTTP client for the App Center API.
type Client struct {
	baseURL       string
	tokenProvider auth.TokenProvider
	httpClient    *retryablehttp.Client
	userAgent     string
	logger        appcenter.Logger
	debug         bool
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger appcenter.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets the total number of tries per request and the fixed
// wait between them.
func WithRetryConfig(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}

		c.httpClient.RetryMax = attempts - 1
		c.httpClient.RetryWaitMin = delay
		c.httpClient.RetryWaitMax = delay
	}
}

// WithHTTPTimeout sets the timeout for individual HTTP requests.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// NewClient creates a new HTTP client. A nil token provider sends requests
// unauthenticated.
func NewClient(baseURL string, tokenProvider auth.TokenProvider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.RequestRetryAttempts - 1
	retryClient.RetryWaitMin = constants.RequestRetryDelay
	retryClient.RetryWaitMax = constants.RequestRetryDelay
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		tokenProvider: tokenProvider,
		httpClient:    retryClient,
		userAgent:     constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes a request. For responses with an HTTP error status it returns
// both the response and a *appcenter.RequestError describing it.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.buildURL(req.Path, req.Query)

	httpReq, err := c.buildHTTPRequest(ctx, req, fullURL)
	if err != nil {
		return nil, err
	}

	c.logRequest(req.Method, fullURL)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	c.logResponse(response)

	if resp.StatusCode >= http.StatusBadRequest {
		return response, appcenter.NewRequestError(req.Method, req.Path, resp.StatusCode, body)
	}

	// A GET still answered 202 after every retry never produced a result.
	if req.Method == http.MethodGet && resp.StatusCode == http.StatusAccepted {
		return response, appcenter.NewRequestError(req.Method, req.Path, resp.StatusCode, body)
	}

	return response, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) buildHTTPRequest(ctx context.Context, req *Request, fullURL string) (*retryablehttp.Request, error) {
	var (
		body        interface{}
		contentType string
	)

	switch {
	case len(req.Files) > 0:
		// Buffered so the retry layer can replay the body.
		buf, formContentType, err := encodeMultipart(req.Files)
		if err != nil {
			return nil, err
		}

		body = buf.Bytes()
		contentType = formContentType
	case req.RawBody != nil:
		body = req.RawBody
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		body = data
		contentType = "application/json"
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if !req.SkipAuth && c.tokenProvider != nil {
		token, err := c.tokenProvider.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting API token: %w", err)
		}

		httpReq.Header.Set(constants.AuthHeader, token)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

// buildURL joins path and query onto the base URL using plain string
// concatenation. Upload-domain paths arrive with a pre-encoded token query
// that must pass through byte for byte, so the URL is never re-parsed.
func (c *Client) buildURL(path string, query url.Values) string {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		fullURL = c.baseURL + path
	}

	if len(query) > 0 {
		separator := "?"
		if strings.Contains(fullURL, "?") {
			separator = "&"
		}

		fullURL += separator + query.Encode()
	}

	return fullURL
}

func encodeMultipart(files []FilePart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for _, part := range files {
		formFile, err := writer.CreateFormFile(part.FieldName, part.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file: %w", err)
		}

		if _, err := io.Copy(formFile, part.Content); err != nil {
			return nil, "", fmt.Errorf("writing form file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}

	return buf, writer.FormDataContentType(), nil
}

// checkRetry retries connection-level failures and GET requests answered
// with 202 Accepted. HTTP error statuses are never retried.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return isConnectionFailure(err), nil
	}

	if resp != nil && resp.StatusCode == http.StatusAccepted &&
		resp.Request != nil && resp.Request.Method == http.MethodGet {
		return true, nil
	}

	return false, nil
}

// connectionFailureSignatures match transient transport errors that are worth
// another try. Anything else fails immediately.
var connectionFailureSignatures = []string{
	"connection refused",
	"connection reset",
	"connection aborted",
	"broken pipe",
	"no such host",
	"handshake failure",
	"EOF",
}

func isConnectionFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, signature := range connectionFailureSignatures {
		if strings.Contains(msg, signature) {
			return true
		}
	}

	return false
}

// logRequest logs the outgoing request in debug mode. The API token travels
// in a header and is never part of the logged URL.
func (c *Client) logRequest(method, fullURL string) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method": method,
		"url":    fullURL,
	})
}

func (c *Client) logResponse(resp *Response) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"status":    resp.StatusCode,
		"body_size": len(resp.Body),
	})
}
