package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appcenter-community/appcenter-go/internal/http"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// AnalyticsClient implements appcenter.AnalyticsClient.
type AnalyticsClient struct {
	httpClient *http.Client
}

// NewAnalyticsClient creates a new analytics client.
func NewAnalyticsClient(httpClient *http.Client) *AnalyticsClient {
	return &AnalyticsClient{httpClient: httpClient}
}

// ReleaseCounts implements appcenter.AnalyticsClient.ReleaseCounts.
func (c *AnalyticsClient) ReleaseCounts(ctx context.Context, ownerName, appName string, releases []appcenter.ReleaseWithGroup) (*appcenter.ReleaseCounts, error) {
	path := appPath(ownerName, appName) + "/analytics/distribution/release_counts"
	body := struct {
		Releases []appcenter.ReleaseWithGroup `json:"releases"`
	}{
		Releases: releases,
	}

	resp, err := c.httpClient.Post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("getting release counts: %w", err)
	}

	var counts appcenter.ReleaseCounts
	if err := json.Unmarshal(resp.Body, &counts); err != nil {
		return nil, fmt.Errorf("parsing release counts response: %w", err)
	}

	return &counts, nil
}
