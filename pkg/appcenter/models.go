package appcenter

import "time"

// String returns a pointer to the given string. Useful for optional request
// fields.
func String(value string) *string {
	return &value
}

// Bool returns a pointer to the given bool. Useful for optional request
// fields.
func Bool(value bool) *bool {
	return &value
}

// Int returns a pointer to the given int. Useful for optional request fields.
func Int(value int) *int {
	return &value
}

// User represents a user collaborating on an app.
type User struct {
	ID          string   `json:"id"                    yaml:"id"`
	DisplayName string   `json:"display_name"          yaml:"display_name"`
	Email       string   `json:"email"                 yaml:"email"`
	Name        string   `json:"name"                  yaml:"name"`
	AvatarURL   string   `json:"avatar_url,omitempty"  yaml:"avatar_url,omitempty"`
	Origin      string   `json:"origin,omitempty"      yaml:"origin,omitempty"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// OrganizationUser represents a user's membership in an organization or team.
type OrganizationUser struct {
	DisplayName string     `json:"display_name"        yaml:"display_name"`
	Email       string     `json:"email"               yaml:"email"`
	Name        string     `json:"name"                yaml:"name"`
	Role        string     `json:"role,omitempty"      yaml:"role,omitempty"`
	JoinedAt    *time.Time `json:"joined_at,omitempty" yaml:"joined_at,omitempty"`
}

// AppOwner identifies the user or organization owning an app.
type AppOwner struct {
	ID          string `json:"id"           yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Name        string `json:"name"         yaml:"name"`
	Type        string `json:"type"         yaml:"type"`
}

// App represents an App Center application.
type App struct {
	ID          string    `json:"id"                     yaml:"id"`
	Description string    `json:"description,omitempty"  yaml:"description,omitempty"`
	DisplayName string    `json:"display_name"           yaml:"display_name"`
	Name        string    `json:"name"                   yaml:"name"`
	OS          string    `json:"os"                     yaml:"os"`
	Platform    string    `json:"platform"               yaml:"platform"`
	Origin      string    `json:"origin,omitempty"       yaml:"origin,omitempty"`
	IconURL     string    `json:"icon_url,omitempty"     yaml:"icon_url,omitempty"`
	ReleaseType string    `json:"release_type,omitempty" yaml:"release_type,omitempty"`
	Owner       *AppOwner `json:"owner,omitempty"        yaml:"owner,omitempty"`
}

// Team represents a team within an organization.
type Team struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	DisplayName string `json:"display_name"          yaml:"display_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Role is the role granted to a collaborator on an app.
type Role string

// Collaborator roles.
const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleMember       Role = "member"
	RoleMaintainer   Role = "maintainer"
)

// Permission is a permission level on an app.
type Permission string

// App permission levels.
const (
	PermissionManager   Permission = "manager"
	PermissionDeveloper Permission = "developer"
	PermissionViewer    Permission = "viewer"
	PermissionTester    Permission = "tester"
)

// TokenScope is the access level granted to an API token.
type TokenScope string

// Token scopes.
const (
	TokenScopeFull   TokenScope = "all"
	TokenScopeViewer TokenScope = "viewer"
)

// APIToken represents a user API token. The Token value is only returned on
// creation.
type APIToken struct {
	ID          string     `json:"id"                   yaml:"id"`
	Description string     `json:"description"          yaml:"description"`
	Scope       []string   `json:"scope"                yaml:"scope"`
	CreatedAt   *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Token       string     `json:"api_token,omitempty"  yaml:"api_token,omitempty"`
}

// BuildInfo carries the source control details attached to a release.
type BuildInfo struct {
	BranchName    string `json:"branch_name,omitempty"    yaml:"branch_name,omitempty"`
	CommitHash    string `json:"commit_hash,omitempty"    yaml:"commit_hash,omitempty"`
	CommitMessage string `json:"commit_message,omitempty" yaml:"commit_message,omitempty"`
}

// Destination describes where a release was distributed to.
type Destination struct {
	ID              string `json:"id"                         yaml:"id"`
	Name            string `json:"name,omitempty"             yaml:"name,omitempty"`
	DestinationType string `json:"destination_type,omitempty" yaml:"destination_type,omitempty"`
	DisplayName     string `json:"display_name,omitempty"     yaml:"display_name,omitempty"`
	IsLatest        bool   `json:"is_latest,omitempty"        yaml:"is_latest,omitempty"`
}

// DestinationID references a distribution group or store by id or name in a
// release update.
type DestinationID struct {
	ID   string `json:"id,omitempty"   yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// BasicReleaseDetails is the summary form of a release as returned by list
// endpoints.
type BasicReleaseDetails struct {
	ID           int           `json:"id"                     yaml:"id"`
	Version      string        `json:"version"                yaml:"version"`
	ShortVersion string        `json:"short_version"          yaml:"short_version"`
	Enabled      bool          `json:"enabled"                yaml:"enabled"`
	Origin       string        `json:"origin,omitempty"       yaml:"origin,omitempty"`
	UploadedAt   *time.Time    `json:"uploaded_at,omitempty"  yaml:"uploaded_at,omitempty"`
	Destinations []Destination `json:"destinations,omitempty" yaml:"destinations,omitempty"`
	Build        *BuildInfo    `json:"build,omitempty"        yaml:"build,omitempty"`
}

// ReleaseDetails is the full form of a release.
type ReleaseDetails struct {
	ID                 int           `json:"id"                              yaml:"id"`
	AppName            string        `json:"app_name"                        yaml:"app_name"`
	AppDisplayName     string        `json:"app_display_name"                yaml:"app_display_name"`
	AppOS              string        `json:"app_os,omitempty"                yaml:"app_os,omitempty"`
	Version            string        `json:"version"                         yaml:"version"`
	ShortVersion       string        `json:"short_version"                   yaml:"short_version"`
	ReleaseNotes       string        `json:"release_notes,omitempty"         yaml:"release_notes,omitempty"`
	Size               int64         `json:"size,omitempty"                  yaml:"size,omitempty"`
	MinOS              string        `json:"min_os,omitempty"                yaml:"min_os,omitempty"`
	AndroidMinAPILevel string        `json:"android_min_api_level,omitempty" yaml:"android_min_api_level,omitempty"`
	BundleIdentifier   string        `json:"bundle_identifier,omitempty"     yaml:"bundle_identifier,omitempty"`
	Fingerprint        string        `json:"fingerprint,omitempty"           yaml:"fingerprint,omitempty"`
	UploadedAt         *time.Time    `json:"uploaded_at,omitempty"           yaml:"uploaded_at,omitempty"`
	DownloadURL        string        `json:"download_url,omitempty"          yaml:"download_url,omitempty"`
	InstallURL         string        `json:"install_url,omitempty"           yaml:"install_url,omitempty"`
	AppIconURL         string        `json:"app_icon_url,omitempty"          yaml:"app_icon_url,omitempty"`
	Enabled            bool          `json:"enabled"                         yaml:"enabled"`
	Status             string        `json:"status,omitempty"                yaml:"status,omitempty"`
	Destinations       []Destination `json:"destinations,omitempty"          yaml:"destinations,omitempty"`
	Build              *BuildInfo    `json:"build,omitempty"                 yaml:"build,omitempty"`
}

// ReleaseUpdateRequest updates a release after upload. Only fields that are
// set are serialized, so a partial update never clears other fields.
type ReleaseUpdateRequest struct {
	ReleaseNotes    *string         `json:"release_notes,omitempty"    yaml:"release_notes,omitempty"`
	MandatoryUpdate *bool           `json:"mandatory_update,omitempty" yaml:"mandatory_update,omitempty"`
	Destinations    []DestinationID `json:"destinations,omitempty"     yaml:"destinations,omitempty"`
	Build           *BuildInfo      `json:"build,omitempty"            yaml:"build,omitempty"`
	NotifyTesters   *bool           `json:"notify_testers,omitempty"   yaml:"notify_testers,omitempty"`
}

// ReleaseDestination is the response to distributing a release to a group.
type ReleaseDestination struct {
	ID                    string `json:"id"                                yaml:"id"`
	MandatoryUpdate       bool   `json:"mandatory_update"                  yaml:"mandatory_update"`
	ProvisioningStatusURL string `json:"provisioning_status_url,omitempty" yaml:"provisioning_status_url,omitempty"`
}

// ReleaseUpload is the ticket granting access to the upload domain for one
// release upload.
type ReleaseUpload struct {
	ID              string `json:"id"                yaml:"id"`
	UploadDomain    string `json:"upload_domain"     yaml:"upload_domain"`
	Token           string `json:"token"             yaml:"token"`
	URLEncodedToken string `json:"url_encoded_token" yaml:"url_encoded_token"`
	PackageAssetID  string `json:"package_asset_id"  yaml:"package_asset_id"`
}

// UploadMetadata is the upload domain's answer to setting file metadata. It
// dictates how the binary must be chunked.
type UploadMetadata struct {
	ID             string `json:"id"              yaml:"id"`
	Error          bool   `json:"error"           yaml:"error"`
	ChunkSize      int64  `json:"chunk_size"      yaml:"chunk_size"`
	ResumeRestart  bool   `json:"resume_restart"  yaml:"resume_restart"`
	ChunkList      []int  `json:"chunk_list"      yaml:"chunk_list"`
	BlobPartitions int    `json:"blob_partitions" yaml:"blob_partitions"`
	StatusCode     string `json:"status_code"     yaml:"status_code"`
}

// ChunkUploadResult is the upload domain's answer to one chunk.
type ChunkUploadResult struct {
	Error     bool   `json:"error"                yaml:"error"`
	ChunkNum  int    `json:"chunk_num"            yaml:"chunk_num"`
	ErrorCode string `json:"error_code,omitempty" yaml:"error_code,omitempty"`
}

// UploadStatus is the server-side processing state of a release upload.
type UploadStatus string

// Upload status values.
const (
	UploadStatusStarted            UploadStatus = "uploadStarted"
	UploadStatusFinished           UploadStatus = "uploadFinished"
	UploadStatusCanceled           UploadStatus = "uploadCanceled"
	UploadStatusReadyToBePublished UploadStatus = "readyToBePublished"
	UploadStatusMalwareDetected    UploadStatus = "malwareDetected"
	UploadStatusError              UploadStatus = "error"
)

// UploadRelease is the state of a release upload as reported by the commit
// and status endpoints.
type UploadRelease struct {
	ID                string       `json:"id"                            yaml:"id"`
	UploadStatus      UploadStatus `json:"upload_status"                 yaml:"upload_status"`
	ReleaseDistinctID *int         `json:"release_distinct_id,omitempty" yaml:"release_distinct_id,omitempty"`
	ErrorDetails      string       `json:"error_details,omitempty"       yaml:"error_details,omitempty"`
}

// UploadOptions drives a release upload.
type UploadOptions struct {
	// BinaryPath is the build to upload. Required.
	BinaryPath string
	// BuildVersion and BuildNumber identify the build to the service. Some
	// platforms require them.
	BuildVersion string
	BuildNumber  string
	// ReleaseNotes is attached to the release once it exists.
	ReleaseNotes string
	// Source control details attached to the release.
	BranchName    string
	CommitHash    string
	CommitMessage string
}

// ReleaseOptions drives an upload followed by distribution to a group.
type ReleaseOptions struct {
	UploadOptions

	// GroupID is the distribution group to release to. Required.
	GroupID string
	// MandatoryUpdate forces testers onto this release.
	MandatoryUpdate bool
	// NotifyTesters sends release notifications.
	NotifyTesters bool
}

// ErrorGroupState is the triage state of an error group.
type ErrorGroupState string

// Error group states.
const (
	ErrorGroupStateOpen    ErrorGroupState = "Open"
	ErrorGroupStateClosed  ErrorGroupState = "Closed"
	ErrorGroupStateIgnored ErrorGroupState = "Ignored"
)

// ErrorGroup is a group of similar crashes or handled errors. The crashes
// endpoints use camelCase field names, unlike the rest of the API.
type ErrorGroup struct {
	ErrorGroupID       string          `json:"errorGroupId"                 yaml:"errorGroupId"`
	State              ErrorGroupState `json:"state"                        yaml:"state"`
	Annotation         string          `json:"annotation,omitempty"         yaml:"annotation,omitempty"`
	AppVersion         string          `json:"appVersion"                   yaml:"appVersion"`
	AppBuild           string          `json:"appBuild,omitempty"           yaml:"appBuild,omitempty"`
	Count              int             `json:"count"                        yaml:"count"`
	DeviceCount        int             `json:"deviceCount"                  yaml:"deviceCount"`
	FirstOccurrence    *time.Time      `json:"firstOccurrence,omitempty"    yaml:"firstOccurrence,omitempty"`
	LastOccurrence     *time.Time      `json:"lastOccurrence,omitempty"     yaml:"lastOccurrence,omitempty"`
	ExceptionType      string          `json:"exceptionType,omitempty"      yaml:"exceptionType,omitempty"`
	ExceptionMessage   string          `json:"exceptionMessage,omitempty"   yaml:"exceptionMessage,omitempty"`
	ExceptionClassName string          `json:"exceptionClassName,omitempty" yaml:"exceptionClassName,omitempty"`
	ExceptionMethod    string          `json:"exceptionMethod,omitempty"    yaml:"exceptionMethod,omitempty"`
	ExceptionFile      string          `json:"exceptionFile,omitempty"      yaml:"exceptionFile,omitempty"`
	ExceptionLine      string          `json:"exceptionLine,omitempty"      yaml:"exceptionLine,omitempty"`
}

// ErrorGroupListItem is one entry of the error groups listing. It carries the
// same fields as ErrorGroup.
type ErrorGroupListItem = ErrorGroup

// HandledError is one occurrence within an error group.
type HandledError struct {
	ErrorID    string     `json:"errorId"              yaml:"errorId"`
	Timestamp  *time.Time `json:"timestamp,omitempty"  yaml:"timestamp,omitempty"`
	DeviceName string     `json:"deviceName,omitempty" yaml:"deviceName,omitempty"`
	OSVersion  string     `json:"osVersion,omitempty"  yaml:"osVersion,omitempty"`
	OSType     string     `json:"osType,omitempty"     yaml:"osType,omitempty"`
	Country    string     `json:"country,omitempty"    yaml:"country,omitempty"`
	Language   string     `json:"language,omitempty"   yaml:"language,omitempty"`
	UserID     string     `json:"userId,omitempty"     yaml:"userId,omitempty"`
}

// ReasonFrame is one stack frame of an error.
type ReasonFrame struct {
	ClassName     string `json:"className,omitempty"     yaml:"className,omitempty"`
	Method        string `json:"method,omitempty"        yaml:"method,omitempty"`
	File          string `json:"file,omitempty"          yaml:"file,omitempty"`
	Line          int    `json:"line,omitempty"          yaml:"line,omitempty"`
	AppCode       bool   `json:"appCode,omitempty"       yaml:"appCode,omitempty"`
	ExceptionType string `json:"exceptionType,omitempty" yaml:"exceptionType,omitempty"`
}

// HandledErrorDetails is the full form of a single error occurrence.
type HandledErrorDetails struct {
	HandledError

	Name               string            `json:"name,omitempty"               yaml:"name,omitempty"`
	CarrierName        string            `json:"carrierName,omitempty"        yaml:"carrierName,omitempty"`
	Jailbreak          bool              `json:"jailbreak,omitempty"          yaml:"jailbreak,omitempty"`
	AppLaunchTimestamp *time.Time        `json:"appLaunchTimestamp,omitempty" yaml:"appLaunchTimestamp,omitempty"`
	ReasonFrames       []ReasonFrame     `json:"reasonFrames,omitempty"       yaml:"reasonFrames,omitempty"`
	Properties         map[string]string `json:"properties,omitempty"         yaml:"properties,omitempty"`
}

// SymbolType identifies the debug symbol format being uploaded.
type SymbolType string

// Symbol types.
const (
	SymbolTypeApple           SymbolType = "Apple"
	SymbolTypeJavaScript      SymbolType = "JavaScript"
	SymbolTypeBreakpad        SymbolType = "Breakpad"
	SymbolTypeAndroidProguard SymbolType = "AndroidProguard"
	SymbolTypeUWP             SymbolType = "UWP"
)

// SymbolUploadStatus is the state of a symbol upload.
type SymbolUploadStatus string

// Symbol upload states.
const (
	SymbolUploadStatusCommitted SymbolUploadStatus = "committed"
	SymbolUploadStatusAborted   SymbolUploadStatus = "aborted"
)

// SymbolUploadBeginRequest registers a symbol upload. Build and Version are
// required for AndroidProguard symbols.
type SymbolUploadBeginRequest struct {
	SymbolType SymbolType `json:"symbol_type"       yaml:"symbol_type"`
	FileName   string     `json:"file_name"         yaml:"file_name"`
	Build      string     `json:"build,omitempty"   yaml:"build,omitempty"`
	Version    string     `json:"version,omitempty" yaml:"version,omitempty"`
}

// SymbolUploadBegin grants a signed blob URL for a symbol upload.
type SymbolUploadBegin struct {
	SymbolUploadID string     `json:"symbol_upload_id"          yaml:"symbol_upload_id"`
	UploadURL      string     `json:"upload_url"                yaml:"upload_url"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty" yaml:"expiration_date,omitempty"`
}

// SymbolUpload is the state of a symbol upload after committing.
type SymbolUpload struct {
	SymbolUploadID string             `json:"symbol_upload_id"      yaml:"symbol_upload_id"`
	Status         SymbolUploadStatus `json:"status"                yaml:"status"`
	SymbolType     SymbolType         `json:"symbol_type,omitempty" yaml:"symbol_type,omitempty"`
}

// ReleaseWithGroup names a release and the distribution group to count
// installs for.
type ReleaseWithGroup struct {
	Release           int    `json:"release"            yaml:"release"`
	DistributionGroup string `json:"distribution_group" yaml:"distribution_group"`
}

// ReleaseCount is the install counts for one release.
type ReleaseCount struct {
	ReleaseID         string `json:"release_id"                   yaml:"release_id"`
	DistributionGroup string `json:"distribution_group,omitempty" yaml:"distribution_group,omitempty"`
	UniqueCount       int64  `json:"unique_count"                 yaml:"unique_count"`
	TotalCount        int64  `json:"total_count"                  yaml:"total_count"`
}

// ReleaseCounts is the response of the release counts endpoint.
type ReleaseCounts struct {
	Total  int64          `json:"total,omitempty" yaml:"total,omitempty"`
	Counts []ReleaseCount `json:"counts"          yaml:"counts"`
}
