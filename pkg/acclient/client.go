// Package acclient provides the main entry point for creating App Center API clients
package acclient

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/appcenter-community/appcenter-go/internal/client"
	"github.com/appcenter-community/appcenter-go/internal/constants"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// New creates a new App Center API client from the given configuration.
func New(config *appcenter.Config) (appcenter.Client, error) {
	if config == nil {
		return nil, appcenter.ErrConfigRequired
	}

	if config.APIToken == "" {
		return nil, appcenter.ErrAPITokenRequired
	}

	config.APIEndpoint = normalizeEndpoint(config.APIEndpoint)

	apiClient, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return apiClient, nil
}

// NewWithToken creates a client for the given endpoint and API token. An
// empty endpoint means the public App Center API.
func NewWithToken(endpoint, token string) (appcenter.Client, error) {
	return New(&appcenter.Config{
		APIEndpoint: endpoint,
		APIToken:    token,
	})
}

// FromConfigFile loads configuration from a file plus the environment and
// creates a client from it.
func FromConfigFile(path string) (appcenter.Client, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return New(config)
}

// LoadConfig reads client configuration from an optional YAML config file
// and from APPCENTER_* environment variables. Environment values override
// file values, so CI systems can inject the token without writing it to
// disk. An empty path skips the file and reads the environment only.
func LoadConfig(path string) (*appcenter.Config, error) {
	loader := viper.New()
	loader.SetEnvPrefix("APPCENTER")
	loader.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	loader.AutomaticEnv()

	loader.SetDefault("api-endpoint", constants.DefaultAPIEndpoint)

	if path != "" {
		loader.SetConfigFile(path)

		if err := loader.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	config := &appcenter.Config{
		APIEndpoint:         loader.GetString("api-endpoint"),
		APIToken:            loader.GetString("api-token"),
		UserAgent:           loader.GetString("user-agent"),
		Debug:               loader.GetBool("debug"),
		HTTPTimeout:         loader.GetDuration("http-timeout"),
		RetryAttempts:       loader.GetInt("retry-attempts"),
		RetryDelay:          loader.GetDuration("retry-delay"),
		UploadRetryAttempts: loader.GetInt("upload-retry-attempts"),
		UploadRetryDelay:    loader.GetDuration("upload-retry-delay"),
		PollInterval:        loader.GetDuration("poll-interval"),
	}

	return config, nil
}

// normalizeEndpoint trims a trailing slash and defaults to https when no
// scheme is given.
func normalizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return constants.DefaultAPIEndpoint
	}

	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}
