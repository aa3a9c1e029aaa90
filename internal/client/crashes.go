package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/appcenter-community/appcenter-go/internal/constants"
	internalhttp "github.com/appcenter-community/appcenter-go/internal/http"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// defaultErrorGroupsPageSize is the $top value sent when the caller does not
// choose one. The service caps page sizes at 100.
const defaultErrorGroupsPageSize = 30

// CrashesClient implements appcenter.CrashesClient.
type CrashesClient struct {
	httpClient *internalhttp.Client
}

// NewCrashesClient creates a new crashes client.
func NewCrashesClient(httpClient *internalhttp.Client) *CrashesClient {
	return &CrashesClient{httpClient: httpClient}
}

// fetchPage satisfies appcenter.PageFetcher.
func (c *CrashesClient) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	resp, err := c.httpClient.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// ErrorGroups implements appcenter.CrashesClient.ErrorGroups.
func (c *CrashesClient) ErrorGroups(ctx context.Context, ownerName, appName string, opts *appcenter.ErrorGroupsOptions) *appcenter.PageIterator[appcenter.ErrorGroup] {
	return appcenter.NewPageIterator(ctx, c.fetchPage, errorGroupsURL(ownerName, appName, opts),
		appcenter.AppLinkRepairer(ownerName, appName), decodeErrorGroupsPage)
}

// StreamErrorGroups implements appcenter.CrashesClient.StreamErrorGroups.
func (c *CrashesClient) StreamErrorGroups(ctx context.Context, ownerName, appName string, opts *appcenter.ErrorGroupsOptions) <-chan appcenter.PageResult[appcenter.ErrorGroup] {
	return appcenter.StreamPages(ctx, c.fetchPage, errorGroupsURL(ownerName, appName, opts),
		appcenter.AppLinkRepairer(ownerName, appName), decodeErrorGroupsPage)
}

// ErrorsInGroup implements appcenter.CrashesClient.ErrorsInGroup.
func (c *CrashesClient) ErrorsInGroup(ctx context.Context, ownerName, appName, errorGroupID string, opts *appcenter.ErrorsInGroupOptions) *appcenter.PageIterator[appcenter.HandledError] {
	firstURL := groupPath(ownerName, appName, errorGroupID) + "/errors"
	if query := errorsInGroupQuery(opts); len(query) > 0 {
		firstURL += "?" + query.Encode()
	}

	return appcenter.NewPageIterator(ctx, c.fetchPage, firstURL,
		appcenter.AppLinkRepairer(ownerName, appName), decodeErrorsPage)
}

// GroupDetails implements appcenter.CrashesClient.GroupDetails.
func (c *CrashesClient) GroupDetails(ctx context.Context, ownerName, appName, errorGroupID string) (*appcenter.ErrorGroup, error) {
	resp, err := c.httpClient.Get(ctx, groupPath(ownerName, appName, errorGroupID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting error group: %w", err)
	}

	var group appcenter.ErrorGroup
	if err := json.Unmarshal(resp.Body, &group); err != nil {
		return nil, fmt.Errorf("parsing error group response: %w", err)
	}

	return &group, nil
}

// ErrorDetails implements appcenter.CrashesClient.ErrorDetails.
func (c *CrashesClient) ErrorDetails(ctx context.Context, ownerName, appName, errorGroupID, errorID string) (*appcenter.HandledErrorDetails, error) {
	path := groupPath(ownerName, appName, errorGroupID) + "/errors/" + url.PathEscape(errorID)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting error details: %w", err)
	}

	var details appcenter.HandledErrorDetails
	if err := json.Unmarshal(resp.Body, &details); err != nil {
		return nil, fmt.Errorf("parsing error details response: %w", err)
	}

	return &details, nil
}

// SetAnnotation implements appcenter.CrashesClient.SetAnnotation. The PATCH
// requires a state value, so an empty state means reading the group first
// and writing its current state back.
func (c *CrashesClient) SetAnnotation(ctx context.Context, ownerName, appName, errorGroupID, annotation string, state appcenter.ErrorGroupState) error {
	if state == "" {
		group, err := c.GroupDetails(ctx, ownerName, appName, errorGroupID)
		if err != nil {
			return err
		}

		state = group.State
	}

	body := struct {
		State      appcenter.ErrorGroupState `json:"state"`
		Annotation string                    `json:"annotation"`
	}{
		State:      state,
		Annotation: annotation,
	}

	_, err := c.httpClient.Patch(ctx, groupPath(ownerName, appName, errorGroupID), body)
	if err != nil {
		return fmt.Errorf("setting annotation: %w", err)
	}

	return nil
}

// BeginSymbolUpload implements appcenter.CrashesClient.BeginSymbolUpload.
func (c *CrashesClient) BeginSymbolUpload(ctx context.Context, ownerName, appName string, request *appcenter.SymbolUploadBeginRequest) (*appcenter.SymbolUploadBegin, error) {
	if request.SymbolType == appcenter.SymbolTypeAndroidProguard &&
		(request.Build == "" || request.Version == "") {
		return nil, appcenter.ErrBuildVersionRequired
	}

	resp, err := c.httpClient.Post(ctx, appPath(ownerName, appName)+"/symbol_uploads", request)
	if err != nil {
		return nil, fmt.Errorf("beginning symbol upload: %w", err)
	}

	var begin appcenter.SymbolUploadBegin
	if err := json.Unmarshal(resp.Body, &begin); err != nil {
		return nil, fmt.Errorf("parsing symbol upload response: %w", err)
	}

	return &begin, nil
}

// CommitSymbolUpload implements appcenter.CrashesClient.CommitSymbolUpload.
func (c *CrashesClient) CommitSymbolUpload(ctx context.Context, ownerName, appName, uploadID string) (*appcenter.SymbolUpload, error) {
	path := appPath(ownerName, appName) + "/symbol_uploads/" + url.PathEscape(uploadID)
	body := map[string]string{"status": "committed"}

	resp, err := c.httpClient.Patch(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("committing symbol upload: %w", err)
	}

	var upload appcenter.SymbolUpload
	if err := json.Unmarshal(resp.Body, &upload); err != nil {
		return nil, fmt.Errorf("parsing symbol upload response: %w", err)
	}

	return &upload, nil
}

// UploadSymbols implements appcenter.CrashesClient.UploadSymbols.
func (c *CrashesClient) UploadSymbols(ctx context.Context, ownerName, appName string, opts *appcenter.SymbolUploadOptions) error {
	if opts == nil || opts.Path == "" {
		return constants.ErrSymbolsPathRequired
	}

	info, err := os.Stat(opts.Path)
	if err != nil {
		return fmt.Errorf("checking symbol file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", constants.ErrNotRegularFile, opts.Path)
	}

	begin, err := c.BeginSymbolUpload(ctx, ownerName, appName, &appcenter.SymbolUploadBeginRequest{
		SymbolType: opts.Type,
		FileName:   filepath.Base(opts.Path),
		Build:      opts.Build,
		Version:    opts.Version,
	})
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return fmt.Errorf("reading symbol file: %w", err)
	}

	// The signed URL points at a blob store, not the API host.
	_, err = c.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPut,
		Path:     begin.UploadURL,
		RawBody:  data,
		Headers:  map[string]string{constants.BlobTypeHeader: constants.BlobTypeBlockBlob},
		SkipAuth: true,
	})
	if err != nil {
		return fmt.Errorf("uploading symbol file: %w", err)
	}

	upload, err := c.CommitSymbolUpload(ctx, ownerName, appName, begin.SymbolUploadID)
	if err != nil {
		return err
	}

	if upload.Status != appcenter.SymbolUploadStatusCommitted {
		return fmt.Errorf("%w: status %q", appcenter.ErrSymbolsNotCommitted, upload.Status)
	}

	return nil
}

// groupPath builds the path of one error group.
func groupPath(ownerName, appName, errorGroupID string) string {
	return appPath(ownerName, appName) + "/errors/errorGroups/" + url.PathEscape(errorGroupID)
}

// errorGroupsURL builds the first-page URL of an error groups listing.
func errorGroupsURL(ownerName, appName string, opts *appcenter.ErrorGroupsOptions) string {
	return appPath(ownerName, appName) + "/errors/errorGroups?" + errorGroupsQuery(opts).Encode()
}

func errorGroupsQuery(opts *appcenter.ErrorGroupsOptions) url.Values {
	query := url.Values{}

	limit := defaultErrorGroupsPageSize
	if opts != nil && opts.Limit > 0 {
		limit = opts.Limit
	}

	query.Set("$top", strconv.Itoa(limit))

	if opts == nil {
		return query
	}

	if !opts.Start.IsZero() {
		query.Set("start", formatQueryTime(opts.Start))
	}

	if !opts.End.IsZero() {
		query.Set("end", formatQueryTime(opts.End))
	}

	if opts.Version != "" {
		query.Set("version", opts.Version)
	}

	if opts.AppBuild != "" {
		query.Set("app_build", opts.AppBuild)
	}

	if opts.GroupState != "" {
		query.Set("groupState", string(opts.GroupState))
	}

	if opts.ErrorType != "" {
		query.Set("errorType", opts.ErrorType)
	}

	if opts.OrderBy != "" {
		query.Set("$orderby", opts.OrderBy)
	}

	return query
}

func errorsInGroupQuery(opts *appcenter.ErrorsInGroupOptions) url.Values {
	query := url.Values{}
	if opts == nil {
		return query
	}

	if !opts.Start.IsZero() {
		query.Set("start", formatQueryTime(opts.Start))
	}

	if !opts.End.IsZero() {
		query.Set("end", formatQueryTime(opts.End))
	}

	if opts.Model != "" {
		query.Set("model", opts.Model)
	}

	if opts.OS != "" {
		query.Set("os", opts.OS)
	}

	return query
}

// formatQueryTime renders timestamps the way the errors endpoints expect:
// RFC 3339 truncated to whole seconds.
func formatQueryTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func decodeErrorGroupsPage(body []byte) (appcenter.Page[appcenter.ErrorGroup], error) {
	var envelope struct {
		ErrorGroups []appcenter.ErrorGroup `json:"errorGroups"`
		NextLink    string                 `json:"nextLink"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return appcenter.Page[appcenter.ErrorGroup]{}, err
	}

	return appcenter.Page[appcenter.ErrorGroup]{
		Items:    envelope.ErrorGroups,
		NextLink: envelope.NextLink,
	}, nil
}

func decodeErrorsPage(body []byte) (appcenter.Page[appcenter.HandledError], error) {
	var envelope struct {
		Errors   []appcenter.HandledError `json:"errors"`
		NextLink string                   `json:"nextLink"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return appcenter.Page[appcenter.HandledError]{}, err
	}

	return appcenter.Page[appcenter.HandledError]{
		Items:    envelope.Errors,
		NextLink: envelope.NextLink,
	}, nil
}
