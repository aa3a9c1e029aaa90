// Package client implements the appcenter interfaces on top of the internal
// HTTP transport. One Client owns the transport and hands out resource
// clients for the account, analytics, crashes, and releases areas.
package client

import (
	"github.com/appcenter-community/appcenter-go/internal/auth"
	"github.com/appcenter-community/appcenter-go/internal/constants"
	"github.com/appcenter-community/appcenter-go/internal/http"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// Client implements the appcenter.Client interface.
type Client struct {
	httpClient *http.Client
	logger     appcenter.Logger

	// Resource clients
	account   *AccountClient
	analytics *AnalyticsClient
	crashes   *CrashesClient
	releases  *ReleasesClient
}

// New creates a new App Center API client.
func New(config *appcenter.Config) (*Client, error) {
	if config == nil {
		return nil, appcenter.ErrConfigRequired
	}

	if config.APIToken == "" {
		return nil, appcenter.ErrAPITokenRequired
	}

	endpoint := config.APIEndpoint
	if endpoint == "" {
		endpoint = constants.DefaultAPIEndpoint
	}

	tokenProvider := auth.NewStaticTokenProvider(config.APIToken)
	httpClient := http.NewClient(endpoint, tokenProvider, createHTTPClientOptions(config)...)

	logger := config.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	client := &Client{
		httpClient: httpClient,
		logger:     logger,
	}

	client.initializeResourceClients(config)

	return client, nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *appcenter.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryAttempts > 0 || config.RetryDelay > 0 {
		attempts := config.RetryAttempts
		if attempts <= 0 {
			attempts = constants.RequestRetryAttempts
		}

		delay := config.RetryDelay
		if delay <= 0 {
			delay = constants.RequestRetryDelay
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(attempts, delay))
	}

	return httpOpts
}

func (c *Client) initializeResourceClients(config *appcenter.Config) {
	uploadAttempts := config.UploadRetryAttempts
	if uploadAttempts <= 0 {
		uploadAttempts = constants.UploadStepAttempts
	}

	uploadDelay := config.UploadRetryDelay
	if uploadDelay <= 0 {
		uploadDelay = constants.UploadStepDelay
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = appcenter.DefaultPollInterval
	}

	c.account = NewAccountClient(c.httpClient)
	c.analytics = NewAnalyticsClient(c.httpClient)
	c.crashes = NewCrashesClient(c.httpClient)
	c.releases = NewReleasesClient(c.httpClient, c.logger, uploadRetry{
		attempts: uploadAttempts,
		delay:    uploadDelay,
	}, pollInterval)
}

// Account implements appcenter.Client.Account.
func (c *Client) Account() appcenter.AccountClient {
	return c.account
}

// Analytics implements appcenter.Client.Analytics.
func (c *Client) Analytics() appcenter.AnalyticsClient {
	return c.analytics
}

// Crashes implements appcenter.Client.Crashes.
func (c *Client) Crashes() appcenter.CrashesClient {
	return c.crashes
}

// Releases implements appcenter.Client.Releases.
func (c *Client) Releases() appcenter.ReleasesClient {
	return c.releases
}

// noopLogger swallows all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}
