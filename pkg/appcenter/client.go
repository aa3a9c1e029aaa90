package appcenter

import (
	"context"
	"time"
)

// Client is the entry point to the App Center API. It hands out resource
// clients that share one authenticated transport.
type Client interface {
	Account() AccountClient
	Analytics() AnalyticsClient
	Crashes() CrashesClient
	Releases() ReleasesClient
}

// AccountClient provides user, organization, and API token operations.
type AccountClient interface {
	// AppUsers lists the users collaborating on an app
	AppUsers(ctx context.Context, ownerName, appName string) ([]User, error)

	// AppTeams lists the teams with access to an app
	AppTeams(ctx context.Context, ownerName, appName string) ([]Team, error)

	// InviteCollaborator invites a user to collaborate on an app. The role is
	// required for users new to the organization and ignored otherwise.
	InviteCollaborator(ctx context.Context, ownerName, appName, userEmail string, role Role) error

	// RemoveCollaborator removes a user from an app
	RemoveCollaborator(ctx context.Context, ownerName, appName, userEmail string) error

	// SetCollaboratorPermission sets a user's permission level on an app
	SetCollaboratorPermission(ctx context.Context, ownerName, appName, userEmail string, permission Permission) error

	// OrgUsers lists the members of an organization
	OrgUsers(ctx context.Context, orgName string) ([]OrganizationUser, error)

	// OrgApps lists the apps belonging to an organization
	OrgApps(ctx context.Context, orgName string) ([]App, error)

	// Teams lists the teams of an organization
	Teams(ctx context.Context, orgName string) ([]Team, error)

	// TeamUsers lists the members of a team
	TeamUsers(ctx context.Context, orgName, teamName string) ([]OrganizationUser, error)

	// UserAPITokens lists the API tokens of the authenticated user
	UserAPITokens(ctx context.Context) ([]APIToken, error)

	// CreateUserAPIToken creates an API token for the authenticated user.
	// The token value is only present in this response.
	CreateUserAPIToken(ctx context.Context, description string, scope TokenScope) (*APIToken, error)

	// DeleteUserAPIToken deletes an API token by id
	DeleteUserAPIToken(ctx context.Context, tokenID string) error
}

// AnalyticsClient provides distribution analytics operations.
type AnalyticsClient interface {
	// ReleaseCounts returns install counts for the given releases
	ReleaseCounts(ctx context.Context, ownerName, appName string, releases []ReleaseWithGroup) (*ReleaseCounts, error)
}

// CrashesClient provides error group inspection and symbol upload operations.
type CrashesClient interface {
	// ErrorGroups returns a lazy iterator over the app's error groups
	ErrorGroups(ctx context.Context, ownerName, appName string, opts *ErrorGroupsOptions) *PageIterator[ErrorGroup]

	// StreamErrorGroups delivers pages of error groups over a channel
	StreamErrorGroups(ctx context.Context, ownerName, appName string, opts *ErrorGroupsOptions) <-chan PageResult[ErrorGroup]

	// ErrorsInGroup returns a lazy iterator over the errors of one group
	ErrorsInGroup(ctx context.Context, ownerName, appName, errorGroupID string, opts *ErrorsInGroupOptions) *PageIterator[HandledError]

	// GroupDetails fetches one error group
	GroupDetails(ctx context.Context, ownerName, appName, errorGroupID string) (*ErrorGroup, error)

	// ErrorDetails fetches one error occurrence in a group
	ErrorDetails(ctx context.Context, ownerName, appName, errorGroupID, errorID string) (*HandledErrorDetails, error)

	// SetAnnotation sets the annotation text on an error group. The service
	// requires the group state alongside the annotation; pass the empty state
	// to keep the current one (read back before writing).
	SetAnnotation(ctx context.Context, ownerName, appName, errorGroupID, annotation string, state ErrorGroupState) error

	// BeginSymbolUpload registers a symbol upload and returns a signed blob URL
	BeginSymbolUpload(ctx context.Context, ownerName, appName string, request *SymbolUploadBeginRequest) (*SymbolUploadBegin, error)

	// CommitSymbolUpload marks a symbol upload as committed
	CommitSymbolUpload(ctx context.Context, ownerName, appName, uploadID string) (*SymbolUpload, error)

	// UploadSymbols uploads a symbol file: begin, blob PUT, commit
	UploadSymbols(ctx context.Context, ownerName, appName string, opts *SymbolUploadOptions) error
}

// ReleasesClient provides release queries, distribution, and the resumable
// build upload.
type ReleasesClient interface {
	// Recent returns the latest release of each distribution group
	Recent(ctx context.Context, ownerName, appName string) ([]BasicReleaseDetails, error)

	// List returns the latest releases of the app
	List(ctx context.Context, ownerName, appName string, opts *ListReleasesOptions) ([]BasicReleaseDetails, error)

	// Details fetches the full details of one release
	Details(ctx context.Context, ownerName, appName string, releaseID int) (*ReleaseDetails, error)

	// ReleaseIDForVersion finds the release id for an app version; returns
	// ErrReleaseNotFound when no release matches
	ReleaseIDForVersion(ctx context.Context, ownerName, appName, version string) (int, error)

	// LatestCommit returns the commit hash of the most recent release that
	// carries one; returns ErrCommitNotFound when none does
	LatestCommit(ctx context.Context, ownerName, appName string) (string, error)

	// Update patches a release with new details; only set fields are sent
	Update(ctx context.Context, ownerName, appName string, releaseID int, request *ReleaseUpdateRequest) error

	// ReleaseToGroup distributes a release to a distribution group
	ReleaseToGroup(ctx context.Context, ownerName, appName string, releaseID int, groupID string, mandatoryUpdate, notifyTesters bool) (*ReleaseDestination, error)

	// UploadBuild uploads a binary through the chunked upload protocol and
	// returns the id of the resulting release
	UploadBuild(ctx context.Context, ownerName, appName string, opts *UploadOptions) (int, error)

	// UploadAndRelease uploads a binary, distributes the resulting release
	// to a group, and returns the release details
	UploadAndRelease(ctx context.Context, ownerName, appName string, opts *ReleaseOptions) (*ReleaseDetails, error)
}

// ErrorGroupsOptions filters an error groups listing. Start is required by
// the service; everything else narrows the result.
type ErrorGroupsOptions struct {
	// Start is the beginning of the time window. Required.
	Start time.Time
	// End is the end of the time window; zero means now.
	End time.Time
	// Version restricts results to one app version.
	Version string
	// AppBuild restricts results to one build.
	AppBuild string
	// GroupState filters by triage state (Open, Closed, Ignored).
	GroupState ErrorGroupState
	// ErrorType filters by kind: all, unhandledError, handledError.
	ErrorType string
	// OrderBy is passed through as the $orderby parameter.
	OrderBy string
	// Limit is the page size ($top). Defaults to 30; the service caps it at 100.
	Limit int
}

// ErrorsInGroupOptions filters the errors of one group.
type ErrorsInGroupOptions struct {
	Start time.Time
	End   time.Time
	// Model restricts results to one device model.
	Model string
	// OS restricts results to one operating system.
	OS string
}

// ListReleasesOptions filters a release listing.
type ListReleasesOptions struct {
	// PublishedOnly returns only published releases.
	PublishedOnly bool
	// Scope set to "tester" limits results to releases distributed to groups
	// the caller belongs to.
	Scope string
}

// SymbolUploadOptions drives a symbol upload.
type SymbolUploadOptions struct {
	// Path is the symbol file to upload. Required.
	Path string
	// Type is the symbol format. Required.
	Type SymbolType
	// Build and Version identify the build. Required for AndroidProguard.
	Build   string
	Version string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an appcenter.Client.
//
// # Authentication
//
// APIToken is sent as the X-API-Token header on every request. Tokens are
// created in the App Center portal or via AccountClient.CreateUserAPIToken.
// The token is never logged, not even at debug level.
//
// # Retries and polling
//
// The retry and poll durations default to the values the service was
// observed to expect: 3 attempts with a 10 second fixed delay for transport
// and upload-step retries, and a 2 second poll interval for release
// processing. They are configurable but should normally be left alone.
type Config struct {
	// APIEndpoint: base URL of the API. Defaults to
	// "https://api.appcenter.ms". acclient.New normalizes this value by
	// trimming a trailing slash and adding "https://" if no scheme is
	// present.
	APIEndpoint string
	// APIToken: the App Center API token. Required.
	APIToken string

	// Optional configurations
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// HTTPTimeout: timeout applied to each underlying HTTP call. Defaults to
	// 30 seconds. Long waits (upload processing) are bounded by context, not
	// by this value.
	HTTPTimeout time.Duration
	// RetryAttempts: total attempts for connection failures and GET-202
	// responses. Defaults to 3.
	RetryAttempts int
	// RetryDelay: fixed delay between transport retry attempts. Defaults to
	// 10 seconds.
	RetryDelay time.Duration
	// UploadRetryAttempts: total attempts for each upload engine step and
	// each chunk. Defaults to 3.
	UploadRetryAttempts int
	// UploadRetryDelay: fixed delay between upload step attempts. Defaults
	// to 10 seconds.
	UploadRetryDelay time.Duration
	// PollInterval: fixed interval between release processing polls.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is
	// provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and the
	// upload engine.
	Logger Logger
}
