package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/appcenter-community/appcenter-go/internal/constants"
	internalhttp "github.com/appcenter-community/appcenter-go/internal/http"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// uploadRetry bounds the attempt loops of the upload engine.
type uploadRetry struct {
	attempts int
	delay    time.Duration
}

// stepResult is the outcome of one attempt of an upload step. A result is
// either ok, retryable, or fatal; the retry driver inspects the tag instead
// of guessing from error values.
type stepResult[T any] struct {
	value T
	err   error
	fatal bool
}

func stepOK[T any](value T) stepResult[T] {
	return stepResult[T]{value: value}
}

func stepRetry[T any](err error) stepResult[T] {
	return stepResult[T]{err: err}
}

func stepFail[T any](err error) stepResult[T] {
	return stepResult[T]{err: err, fatal: true}
}

// runStep drives an attempt function until it returns ok, fails fatally, or
// exhausts the attempt budget. The wait between attempts is a fixed delay,
// aborted early when ctx ends.
func runStep[T any](ctx context.Context, logger appcenter.Logger, name string, retry uploadRetry, fn func(context.Context) stepResult[T]) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 1; attempt <= retry.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result := fn(ctx)
		if result.err == nil {
			return result.value, nil
		}

		if result.fatal {
			return zero, result.err
		}

		lastErr = result.err

		logger.Warn("upload step failed", map[string]interface{}{
			"step":    name,
			"attempt": attempt,
			"error":   result.err.Error(),
		})

		if attempt < retry.attempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(retry.delay):
			}
		}
	}

	return zero, fmt.Errorf("%s: %w", name, lastErr)
}

// UploadBuild implements appcenter.ReleasesClient.UploadBuild.
func (c *ReleasesClient) UploadBuild(ctx context.Context, ownerName, appName string, opts *appcenter.UploadOptions) (int, error) {
	if opts == nil || opts.BinaryPath == "" {
		return 0, constants.ErrBinaryPathRequired
	}

	info, err := os.Stat(opts.BinaryPath)
	if err != nil {
		return 0, fmt.Errorf("checking binary: %w", err)
	}

	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", constants.ErrNotRegularFile, opts.BinaryPath)
	}

	engine := &releaseUploadEngine{
		client:    c,
		ownerName: ownerName,
		appName:   appName,
		opts:      opts,
		fileSize:  info.Size(),
	}

	return engine.run(ctx)
}

// UploadAndRelease implements appcenter.ReleasesClient.UploadAndRelease.
func (c *ReleasesClient) UploadAndRelease(ctx context.Context, ownerName, appName string, opts *appcenter.ReleaseOptions) (*appcenter.ReleaseDetails, error) {
	if opts == nil {
		return nil, constants.ErrBinaryPathRequired
	}

	releaseID, err := c.UploadBuild(ctx, ownerName, appName, &opts.UploadOptions)
	if err != nil {
		return nil, err
	}

	_, err = c.ReleaseToGroup(ctx, ownerName, appName, releaseID, opts.GroupID, opts.MandatoryUpdate, opts.NotifyTesters)
	if err != nil {
		return nil, err
	}

	return c.Details(ctx, ownerName, appName, releaseID)
}

// releaseUploadEngine drives one resumable release upload from begin to
// finalize. It is owned by the single UploadBuild call that created it; the
// steps run strictly in sequence.
type releaseUploadEngine struct {
	client    *ReleasesClient
	ownerName string
	appName   string
	opts      *appcenter.UploadOptions
	fileSize  int64

	ticket   *appcenter.ReleaseUpload
	metadata *appcenter.UploadMetadata
}

func (e *releaseUploadEngine) run(ctx context.Context) (int, error) {
	logger := e.client.logger
	retry := e.client.retry

	logger.Info("beginning release upload", map[string]interface{}{
		"owner": e.ownerName,
		"app":   e.appName,
		"file":  filepath.Base(e.opts.BinaryPath),
		"size":  e.fileSize,
	})

	ticket, err := runStep(ctx, logger, "beginning upload", retry, e.beginAttempt)
	if err != nil {
		return 0, err
	}

	e.ticket = ticket

	metadata, err := runStep(ctx, logger, "setting upload metadata", retry, e.setMetadataAttempt)
	if err != nil {
		return 0, err
	}

	e.metadata = metadata

	logger.Info("uploading chunks", map[string]interface{}{
		"chunks":     len(metadata.ChunkList),
		"chunk_size": metadata.ChunkSize,
	})

	if err := e.uploadChunks(ctx); err != nil {
		return 0, err
	}

	if _, err := runStep(ctx, logger, "marking upload finished", retry, e.markFinishedAttempt); err != nil {
		return 0, err
	}

	if _, err := runStep(ctx, logger, "committing upload", retry, e.commitAttempt); err != nil {
		return 0, err
	}

	releaseID, err := e.waitForRelease(ctx)
	if err != nil {
		return 0, err
	}

	if err := e.finalize(ctx, releaseID); err != nil {
		return 0, err
	}

	logger.Info("release created", map[string]interface{}{
		"release_id": releaseID,
	})

	return releaseID, nil
}

func (e *releaseUploadEngine) beginAttempt(ctx context.Context) stepResult[*appcenter.ReleaseUpload] {
	body := struct {
		BuildVersion string `json:"build_version,omitempty"`
		BuildNumber  string `json:"build_number,omitempty"`
	}{
		BuildVersion: e.opts.BuildVersion,
		BuildNumber:  e.opts.BuildNumber,
	}

	resp, err := e.client.httpClient.Post(ctx, appPath(e.ownerName, e.appName)+"/uploads/releases", body)
	if err != nil {
		return stepRetry[*appcenter.ReleaseUpload](err)
	}

	var ticket appcenter.ReleaseUpload
	if err := json.Unmarshal(resp.Body, &ticket); err != nil {
		return stepRetry[*appcenter.ReleaseUpload](fmt.Errorf("parsing upload ticket: %w", err))
	}

	if ticket.UploadDomain == "" {
		return stepRetry[*appcenter.ReleaseUpload](constants.ErrUploadDomainMissing)
	}

	if ticket.PackageAssetID == "" {
		return stepRetry[*appcenter.ReleaseUpload](constants.ErrAssetIDMissing)
	}

	return stepOK(&ticket)
}

// uploadPath builds an upload-domain URL. The ticket token is already URL
// encoded and is appended verbatim as the last query parameter.
func (e *releaseUploadEngine) uploadPath(endpoint, params string) string {
	domain := strings.TrimSuffix(e.ticket.UploadDomain, "/")

	path := fmt.Sprintf("%s/upload/%s/%s?", domain, endpoint, e.ticket.PackageAssetID)
	if params != "" {
		path += params + "&"
	}

	return path + "token=" + e.ticket.URLEncodedToken
}

func (e *releaseUploadEngine) setMetadataAttempt(ctx context.Context) stepResult[*appcenter.UploadMetadata] {
	params := fmt.Sprintf("file_name=%s&file_size=%d",
		url.QueryEscape(filepath.Base(e.opts.BinaryPath)), e.fileSize)

	if contentType, ok := mimeTypeForFile(e.opts.BinaryPath); ok {
		params += "&content_type=" + url.QueryEscape(contentType)
	}

	resp, err := e.client.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     e.uploadPath("set_metadata", params),
		SkipAuth: true,
	})
	if err != nil {
		return stepRetry[*appcenter.UploadMetadata](err)
	}

	var metadata appcenter.UploadMetadata
	if err := json.Unmarshal(resp.Body, &metadata); err != nil {
		return stepRetry[*appcenter.UploadMetadata](fmt.Errorf("parsing upload metadata: %w", err))
	}

	if metadata.Error {
		return stepRetry[*appcenter.UploadMetadata](fmt.Errorf("upload domain rejected metadata: %s", metadata.StatusCode))
	}

	if metadata.ChunkSize <= 0 {
		return stepRetry[*appcenter.UploadMetadata](constants.ErrChunkSizeInvalid)
	}

	if len(metadata.ChunkList) == 0 {
		return stepRetry[*appcenter.UploadMetadata](constants.ErrChunkListEmpty)
	}

	return stepOK(&metadata)
}

// uploadChunks runs the first pass in ascending chunk order, queueing any
// chunk that exhausts its attempts, then drains the queue. A chunk that
// fails in both passes fails the upload; the finished call never happens.
func (e *releaseUploadEngine) uploadChunks(ctx context.Context) error {
	file, err := os.Open(e.opts.BinaryPath)
	if err != nil {
		return fmt.Errorf("opening binary: %w", err)
	}
	defer func() { _ = file.Close() }()

	var retryQueue []int

	for _, chunkNumber := range e.metadata.ChunkList {
		err := e.uploadChunk(ctx, file, chunkNumber)
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		e.client.logger.Warn("chunk queued for retry", map[string]interface{}{
			"chunk": chunkNumber,
			"error": err.Error(),
		})

		retryQueue = append(retryQueue, chunkNumber)
	}

	for _, chunkNumber := range retryQueue {
		if err := e.uploadChunk(ctx, file, chunkNumber); err != nil {
			return fmt.Errorf("%w: chunk %d: %w", appcenter.ErrChunkUploadFailed, chunkNumber, err)
		}
	}

	return nil
}

func (e *releaseUploadEngine) uploadChunk(ctx context.Context, file *os.File, chunkNumber int) error {
	offset := int64(chunkNumber-1) * e.metadata.ChunkSize
	if chunkNumber < 1 || offset >= e.fileSize {
		return fmt.Errorf("%w: %d", constants.ErrChunkOutOfRange, chunkNumber)
	}

	length := e.metadata.ChunkSize
	if remaining := e.fileSize - offset; remaining < length {
		length = remaining
	}

	_, err := runStep(ctx, e.client.logger, fmt.Sprintf("uploading chunk %d", chunkNumber), e.client.retry,
		func(ctx context.Context) stepResult[struct{}] {
			data, err := io.ReadAll(io.NewSectionReader(file, offset, length))
			if err != nil {
				return stepFail[struct{}](fmt.Errorf("reading chunk %d: %w", chunkNumber, err))
			}

			return e.chunkAttempt(ctx, chunkNumber, data)
		})

	return err
}

func (e *releaseUploadEngine) chunkAttempt(ctx context.Context, chunkNumber int, data []byte) stepResult[struct{}] {
	resp, err := e.client.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     e.uploadPath("upload_chunk", fmt.Sprintf("block_number=%d", chunkNumber)),
		RawBody:  data,
		Headers:  map[string]string{"Content-Type": "application/octet-stream"},
		SkipAuth: true,
	})
	if err != nil {
		return stepRetry[struct{}](err)
	}

	var result appcenter.ChunkUploadResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return stepRetry[struct{}](fmt.Errorf("parsing chunk response: %w", err))
	}

	if result.Error {
		return stepRetry[struct{}](fmt.Errorf("%w: chunk %d: %s", constants.ErrChunkRejected, chunkNumber, result.ErrorCode))
	}

	return stepOK(struct{}{})
}

func (e *releaseUploadEngine) markFinishedAttempt(ctx context.Context) stepResult[struct{}] {
	_, err := e.client.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     e.uploadPath("finished", "callback="),
		SkipAuth: true,
	})
	if err != nil {
		return stepRetry[struct{}](err)
	}

	return stepOK(struct{}{})
}

func (e *releaseUploadEngine) commitAttempt(ctx context.Context) stepResult[struct{}] {
	body := map[string]string{"upload_status": string(appcenter.UploadStatusFinished)}

	_, err := e.client.httpClient.Patch(ctx, e.uploadResourcePath(), body)
	if err != nil {
		return stepRetry[struct{}](err)
	}

	return stepOK(struct{}{})
}

func (e *releaseUploadEngine) uploadResourcePath() string {
	return fmt.Sprintf("%s/uploads/releases/%s",
		appPath(e.ownerName, e.appName), url.PathEscape(e.ticket.ID))
}

// waitForRelease polls the upload resource until the service finishes
// processing. Poll fetch errors are tolerated; the wait is bounded by ctx.
func (e *releaseUploadEngine) waitForRelease(ctx context.Context) (int, error) {
	path := e.uploadResourcePath()

	fetch := func(ctx context.Context) (*appcenter.UploadRelease, error) {
		resp, err := e.client.httpClient.Get(ctx, path, nil)
		if err != nil {
			e.client.logger.Debug("upload status poll failed", map[string]interface{}{
				"error": err.Error(),
			})

			return nil, err
		}

		var release appcenter.UploadRelease
		if err := json.Unmarshal(resp.Body, &release); err != nil {
			e.client.logger.Debug("upload status poll failed", map[string]interface{}{
				"error": err.Error(),
			})

			return nil, fmt.Errorf("parsing upload status: %w", err)
		}

		return &release, nil
	}

	release, err := appcenter.PollUntilDone(ctx, e.client.pollInterval, fetch, classifyUploadStatus)
	if err != nil {
		return 0, err
	}

	if release.UploadStatus == appcenter.UploadStatusCanceled {
		return 0, appcenter.ErrUploadCanceled
	}

	if release.ReleaseDistinctID == nil {
		return 0, appcenter.ErrNoReleaseID
	}

	return *release.ReleaseDistinctID, nil
}

// classifyUploadStatus maps an upload status to a poll decision. A canceled
// upload ends the wait normally; the engine reports it afterwards, once it
// knows no release id is coming.
func classifyUploadStatus(release *appcenter.UploadRelease) (appcenter.PollDecision, error) {
	switch release.UploadStatus {
	case appcenter.UploadStatusStarted, appcenter.UploadStatusFinished:
		return appcenter.PollContinue, nil
	case appcenter.UploadStatusReadyToBePublished, appcenter.UploadStatusCanceled:
		return appcenter.PollSucceeded, nil
	case appcenter.UploadStatusMalwareDetected:
		return appcenter.PollFailed, appcenter.ErrMalwareDetected
	case appcenter.UploadStatusError:
		return appcenter.PollFailed, fmt.Errorf("%w: %s", appcenter.ErrUploadFailed, release.ErrorDetails)
	default:
		return appcenter.PollFailed, fmt.Errorf("%w: %q", appcenter.ErrUnexpectedUploadStatus, release.UploadStatus)
	}
}

// finalize attaches release notes and build metadata to the new release.
func (e *releaseUploadEngine) finalize(ctx context.Context, releaseID int) error {
	update := &appcenter.ReleaseUpdateRequest{}

	if e.opts.ReleaseNotes != "" {
		update.ReleaseNotes = appcenter.String(e.opts.ReleaseNotes)
	}

	if e.opts.BranchName != "" || e.opts.CommitHash != "" || e.opts.CommitMessage != "" {
		update.Build = &appcenter.BuildInfo{
			BranchName:    e.opts.BranchName,
			CommitHash:    e.opts.CommitHash,
			CommitMessage: e.opts.CommitMessage,
		}
	}

	_, err := runStep(ctx, e.client.logger, "finalizing release", e.client.retry,
		func(ctx context.Context) stepResult[struct{}] {
			if err := e.client.Update(ctx, e.ownerName, e.appName, releaseID, update); err != nil {
				return stepRetry[struct{}](err)
			}

			return stepOK(struct{}{})
		})

	return err
}
