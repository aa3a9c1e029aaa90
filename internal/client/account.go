package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/appcenter-community/appcenter-go/internal/constants"
	"github.com/appcenter-community/appcenter-go/internal/http"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// AccountClient implements appcenter.AccountClient.
type AccountClient struct {
	httpClient *http.Client
}

// NewAccountClient creates a new account client.
func NewAccountClient(httpClient *http.Client) *AccountClient {
	return &AccountClient{httpClient: httpClient}
}

// AppUsers implements appcenter.AccountClient.AppUsers.
func (c *AccountClient) AppUsers(ctx context.Context, ownerName, appName string) ([]appcenter.User, error) {
	resp, err := c.httpClient.Get(ctx, appPath(ownerName, appName)+"/users", nil)
	if err != nil {
		return nil, fmt.Errorf("listing app users: %w", err)
	}

	var users []appcenter.User
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return nil, fmt.Errorf("parsing app users response: %w", err)
	}

	return users, nil
}

// AppTeams implements appcenter.AccountClient.AppTeams.
func (c *AccountClient) AppTeams(ctx context.Context, ownerName, appName string) ([]appcenter.Team, error) {
	resp, err := c.httpClient.Get(ctx, appPath(ownerName, appName)+"/teams", nil)
	if err != nil {
		return nil, fmt.Errorf("listing app teams: %w", err)
	}

	var teams []appcenter.Team
	if err := json.Unmarshal(resp.Body, &teams); err != nil {
		return nil, fmt.Errorf("parsing app teams response: %w", err)
	}

	return teams, nil
}

// InviteCollaborator implements appcenter.AccountClient.InviteCollaborator.
func (c *AccountClient) InviteCollaborator(ctx context.Context, ownerName, appName, userEmail string, role appcenter.Role) error {
	body := map[string]string{"user_email": userEmail}
	if role != "" {
		body["role"] = string(role)
	}

	_, err := c.httpClient.Post(ctx, appPath(ownerName, appName)+"/invitations", body)
	if err != nil {
		return fmt.Errorf("inviting collaborator: %w", err)
	}

	return nil
}

// RemoveCollaborator implements appcenter.AccountClient.RemoveCollaborator.
func (c *AccountClient) RemoveCollaborator(ctx context.Context, ownerName, appName, userEmail string) error {
	path := appPath(ownerName, appName) + "/users/" + url.PathEscape(userEmail)

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("removing collaborator: %w", err)
	}

	return nil
}

// SetCollaboratorPermission implements appcenter.AccountClient.SetCollaboratorPermission.
func (c *AccountClient) SetCollaboratorPermission(ctx context.Context, ownerName, appName, userEmail string, permission appcenter.Permission) error {
	path := appPath(ownerName, appName) + "/users/" + url.PathEscape(userEmail)
	body := map[string][]string{"permissions": {string(permission)}}

	_, err := c.httpClient.Patch(ctx, path, body)
	if err != nil {
		return fmt.Errorf("setting collaborator permission: %w", err)
	}

	return nil
}

// OrgUsers implements appcenter.AccountClient.OrgUsers.
func (c *AccountClient) OrgUsers(ctx context.Context, orgName string) ([]appcenter.OrganizationUser, error) {
	resp, err := c.httpClient.Get(ctx, orgPath(orgName)+"/users", nil)
	if err != nil {
		return nil, fmt.Errorf("listing organization users: %w", err)
	}

	var users []appcenter.OrganizationUser
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return nil, fmt.Errorf("parsing organization users response: %w", err)
	}

	return users, nil
}

// OrgApps implements appcenter.AccountClient.OrgApps.
func (c *AccountClient) OrgApps(ctx context.Context, orgName string) ([]appcenter.App, error) {
	resp, err := c.httpClient.Get(ctx, orgPath(orgName)+"/apps", nil)
	if err != nil {
		return nil, fmt.Errorf("listing organization apps: %w", err)
	}

	var apps []appcenter.App
	if err := json.Unmarshal(resp.Body, &apps); err != nil {
		return nil, fmt.Errorf("parsing organization apps response: %w", err)
	}

	return apps, nil
}

// Teams implements appcenter.AccountClient.Teams.
func (c *AccountClient) Teams(ctx context.Context, orgName string) ([]appcenter.Team, error) {
	resp, err := c.httpClient.Get(ctx, orgPath(orgName)+"/teams", nil)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}

	var teams []appcenter.Team
	if err := json.Unmarshal(resp.Body, &teams); err != nil {
		return nil, fmt.Errorf("parsing teams response: %w", err)
	}

	return teams, nil
}

// TeamUsers implements appcenter.AccountClient.TeamUsers.
func (c *AccountClient) TeamUsers(ctx context.Context, orgName, teamName string) ([]appcenter.OrganizationUser, error) {
	path := orgPath(orgName) + "/teams/" + url.PathEscape(teamName) + "/users"

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing team users: %w", err)
	}

	var users []appcenter.OrganizationUser
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return nil, fmt.Errorf("parsing team users response: %w", err)
	}

	return users, nil
}

// UserAPITokens implements appcenter.AccountClient.UserAPITokens.
func (c *AccountClient) UserAPITokens(ctx context.Context) ([]appcenter.APIToken, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIVersionPrefix+"/api_tokens", nil)
	if err != nil {
		return nil, fmt.Errorf("listing API tokens: %w", err)
	}

	var tokens []appcenter.APIToken
	if err := json.Unmarshal(resp.Body, &tokens); err != nil {
		return nil, fmt.Errorf("parsing API tokens response: %w", err)
	}

	return tokens, nil
}

// CreateUserAPIToken implements appcenter.AccountClient.CreateUserAPIToken.
func (c *AccountClient) CreateUserAPIToken(ctx context.Context, description string, scope appcenter.TokenScope) (*appcenter.APIToken, error) {
	if scope == "" {
		scope = appcenter.TokenScopeFull
	}

	body := struct {
		Description string   `json:"description,omitempty"`
		Scope       []string `json:"scope"`
	}{
		Description: description,
		Scope:       []string{string(scope)},
	}

	resp, err := c.httpClient.Post(ctx, constants.APIVersionPrefix+"/api_tokens", body)
	if err != nil {
		return nil, fmt.Errorf("creating API token: %w", err)
	}

	var token appcenter.APIToken
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return nil, fmt.Errorf("parsing API token response: %w", err)
	}

	return &token, nil
}

// DeleteUserAPIToken implements appcenter.AccountClient.DeleteUserAPIToken.
func (c *AccountClient) DeleteUserAPIToken(ctx context.Context, tokenID string) error {
	_, err := c.httpClient.Delete(ctx, constants.APIVersionPrefix+"/api_tokens/"+url.PathEscape(tokenID))
	if err != nil {
		return fmt.Errorf("deleting API token: %w", err)
	}

	return nil
}
