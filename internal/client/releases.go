package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/appcenter-community/appcenter-go/internal/http"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// ReleasesClient implements appcenter.ReleasesClient.
type ReleasesClient struct {
	httpClient   *http.Client
	logger       appcenter.Logger
	retry        uploadRetry
	pollInterval time.Duration
}

// NewReleasesClient creates a new releases client.
func NewReleasesClient(httpClient *http.Client, logger appcenter.Logger, retry uploadRetry, pollInterval time.Duration) *ReleasesClient {
	return &ReleasesClient{
		httpClient:   httpClient,
		logger:       logger,
		retry:        retry,
		pollInterval: pollInterval,
	}
}

// Recent implements appcenter.ReleasesClient.Recent.
func (c *ReleasesClient) Recent(ctx context.Context, ownerName, appName string) ([]appcenter.BasicReleaseDetails, error) {
	resp, err := c.httpClient.Get(ctx, appPath(ownerName, appName)+"/recent_releases", nil)
	if err != nil {
		return nil, fmt.Errorf("listing recent releases: %w", err)
	}

	var releases []appcenter.BasicReleaseDetails
	if err := json.Unmarshal(resp.Body, &releases); err != nil {
		return nil, fmt.Errorf("parsing recent releases response: %w", err)
	}

	return releases, nil
}

// List implements appcenter.ReleasesClient.List. The service returns the 100
// latest releases.
func (c *ReleasesClient) List(ctx context.Context, ownerName, appName string, opts *appcenter.ListReleasesOptions) ([]appcenter.BasicReleaseDetails, error) {
	if opts == nil {
		opts = &appcenter.ListReleasesOptions{}
	}

	query := url.Values{"published_only": []string{strconv.FormatBool(opts.PublishedOnly)}}
	if opts.Scope != "" {
		query.Set("scope", opts.Scope)
	}

	resp, err := c.httpClient.Get(ctx, appPath(ownerName, appName)+"/releases", query)
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}

	var releases []appcenter.BasicReleaseDetails
	if err := json.Unmarshal(resp.Body, &releases); err != nil {
		return nil, fmt.Errorf("parsing releases response: %w", err)
	}

	return releases, nil
}

// Details implements appcenter.ReleasesClient.Details.
func (c *ReleasesClient) Details(ctx context.Context, ownerName, appName string, releaseID int) (*appcenter.ReleaseDetails, error) {
	path := fmt.Sprintf("%s/releases/%d", appPath(ownerName, appName), releaseID)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting release details: %w", err)
	}

	var details appcenter.ReleaseDetails
	if err := json.Unmarshal(resp.Body, &details); err != nil {
		return nil, fmt.Errorf("parsing release details response: %w", err)
	}

	return &details, nil
}

// ReleaseIDForVersion implements appcenter.ReleasesClient.ReleaseIDForVersion.
func (c *ReleasesClient) ReleaseIDForVersion(ctx context.Context, ownerName, appName, version string) (int, error) {
	releases, err := c.List(ctx, ownerName, appName, nil)
	if err != nil {
		return 0, err
	}

	for _, release := range releases {
		if release.Version == version {
			return release.ID, nil
		}
	}

	return 0, fmt.Errorf("%w: version %s", appcenter.ErrReleaseNotFound, version)
}

// LatestCommit implements appcenter.ReleasesClient.LatestCommit.
func (c *ReleasesClient) LatestCommit(ctx context.Context, ownerName, appName string) (string, error) {
	releases, err := c.List(ctx, ownerName, appName, nil)
	if err != nil {
		return "", err
	}

	for _, release := range releases {
		details, err := c.Details(ctx, ownerName, appName, release.ID)
		if err != nil {
			return "", err
		}

		if details.Build != nil && details.Build.CommitHash != "" {
			return details.Build.CommitHash, nil
		}
	}

	return "", appcenter.ErrCommitNotFound
}

// Update implements appcenter.ReleasesClient.Update.
func (c *ReleasesClient) Update(ctx context.Context, ownerName, appName string, releaseID int, request *appcenter.ReleaseUpdateRequest) error {
	path := fmt.Sprintf("%s/releases/%d", appPath(ownerName, appName), releaseID)

	_, err := c.httpClient.Patch(ctx, path, request)
	if err != nil {
		return fmt.Errorf("updating release: %w", err)
	}

	return nil
}

// ReleaseToGroup implements appcenter.ReleasesClient.ReleaseToGroup.
func (c *ReleasesClient) ReleaseToGroup(ctx context.Context, ownerName, appName string, releaseID int, groupID string, mandatoryUpdate, notifyTesters bool) (*appcenter.ReleaseDestination, error) {
	path := fmt.Sprintf("%s/releases/%d/groups", appPath(ownerName, appName), releaseID)
	body := struct {
		ID              string `json:"id"`
		MandatoryUpdate bool   `json:"mandatory_update"`
		NotifyTesters   bool   `json:"notify_testers"`
	}{
		ID:              groupID,
		MandatoryUpdate: mandatoryUpdate,
		NotifyTesters:   notifyTesters,
	}

	resp, err := c.httpClient.Post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("releasing to group: %w", err)
	}

	var destination appcenter.ReleaseDestination
	if err := json.Unmarshal(resp.Body, &destination); err != nil {
		return nil, fmt.Errorf("parsing release destination response: %w", err)
	}

	return &destination, nil
}
