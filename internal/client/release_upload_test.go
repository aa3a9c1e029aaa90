package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

const (
	fakeUploadID       = "upload-1"
	fakeAssetID        = "asset-1"
	fakeEncodedToken   = "u%2Dtok%3D"
	fakeChunkSize      = 1024
	fakeReleaseID      = 99
	fakeReleasePathFmt = "/v0.1/apps/owner/app/releases/%d"
)

// fakeUploadService fakes both the API host and the upload domain behind one
// httptest server, recording every call the upload engine makes.
type fakeUploadService struct {
	t      *testing.T
	server *httptest.Server

	mu sync.Mutex

	// failChunks maps a chunk number to how many times it should be
	// rejected before succeeding.
	failChunks map[int]int

	statusSeq []appcenter.UploadRelease

	beginCalls    int
	metadataQuery string
	chunkPosts    map[int]int
	chunkBytes    map[int]int
	finishedCalls int
	commitCalls   int
	statusCalls   int
	updateCalls   int
	updateBody    []byte
}

func newFakeUploadService(t *testing.T, statusSeq []appcenter.UploadRelease) *fakeUploadService {
	t.Helper()

	service := &fakeUploadService{
		t:          t,
		failChunks: map[int]int{},
		chunkPosts: map[int]int{},
		chunkBytes: map[int]int{},
		statusSeq:  statusSeq,
	}

	service.server = httptest.NewServer(http.HandlerFunc(service.handle))
	t.Cleanup(service.server.Close)

	return service
}

//nolint:cyclop // route dispatch for the whole fake service
func (s *fakeUploadService) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := r.URL.Path

	switch {
	case r.Method == http.MethodPost && path == "/v0.1/apps/owner/app/uploads/releases":
		s.beginCalls++
		_ = json.NewEncoder(w).Encode(appcenter.ReleaseUpload{
			ID:              fakeUploadID,
			UploadDomain:    s.server.URL,
			Token:           "u-tok=",
			URLEncodedToken: fakeEncodedToken,
			PackageAssetID:  fakeAssetID,
		})

	case r.Method == http.MethodPost && path == "/upload/set_metadata/"+fakeAssetID:
		s.handleSetMetadata(w, r)

	case r.Method == http.MethodPost && path == "/upload/upload_chunk/"+fakeAssetID:
		s.handleChunk(w, r)

	case r.Method == http.MethodPost && path == "/upload/finished/"+fakeAssetID:
		assert.True(s.t, r.URL.Query().Has("callback"))
		s.finishedCalls++
		_ = json.NewEncoder(w).Encode(map[string]bool{"error": false})

	case r.Method == http.MethodPatch && path == "/v0.1/apps/owner/app/uploads/releases/"+fakeUploadID:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(s.t, "uploadFinished", body["upload_status"])
		s.commitCalls++
		_ = json.NewEncoder(w).Encode(appcenter.UploadRelease{
			ID:           fakeUploadID,
			UploadStatus: appcenter.UploadStatusFinished,
		})

	case r.Method == http.MethodGet && path == "/v0.1/apps/owner/app/uploads/releases/"+fakeUploadID:
		index := s.statusCalls
		if index >= len(s.statusSeq) {
			index = len(s.statusSeq) - 1
		}

		s.statusCalls++
		_ = json.NewEncoder(w).Encode(s.statusSeq[index])

	case r.Method == http.MethodPatch && path == fmt.Sprintf(fakeReleasePathFmt, fakeReleaseID):
		s.updateCalls++
		s.updateBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)

	default:
		s.t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *fakeUploadService) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	// The pre-encoded ticket token must pass through byte for byte.
	assert.True(s.t, strings.Contains(r.URL.RawQuery, "token="+fakeEncodedToken),
		"raw query %q must carry the encoded token verbatim", r.URL.RawQuery)

	s.metadataQuery = r.URL.RawQuery

	fileSize, err := strconv.ParseInt(r.URL.Query().Get("file_size"), 10, 64)
	require.NoError(s.t, err)

	chunkCount := int((fileSize + fakeChunkSize - 1) / fakeChunkSize)
	chunkList := make([]int, 0, chunkCount)

	for i := 1; i <= chunkCount; i++ {
		chunkList = append(chunkList, i)
	}

	_ = json.NewEncoder(w).Encode(appcenter.UploadMetadata{
		ID:             fakeAssetID,
		ChunkSize:      fakeChunkSize,
		ChunkList:      chunkList,
		BlobPartitions: 1,
	})
}

func (s *fakeUploadService) handleChunk(w http.ResponseWriter, r *http.Request) {
	chunkNumber, err := strconv.Atoi(r.URL.Query().Get("block_number"))
	require.NoError(s.t, err)

	assert.Equal(s.t, "application/octet-stream", r.Header.Get("Content-Type"))

	data, err := io.ReadAll(r.Body)
	require.NoError(s.t, err)

	s.chunkPosts[chunkNumber]++
	s.chunkBytes[chunkNumber] = len(data)

	if s.failChunks[chunkNumber] > 0 {
		s.failChunks[chunkNumber]--
		_ = json.NewEncoder(w).Encode(appcenter.ChunkUploadResult{
			Error:     true,
			ChunkNum:  chunkNumber,
			ErrorCode: "ChunkStoreFailed",
		})

		return
	}

	_ = json.NewEncoder(w).Encode(appcenter.ChunkUploadResult{ChunkNum: chunkNumber})
}

// uploadStats is a consistent snapshot of the fake service's counters.
type uploadStats struct {
	beginCalls    int
	metadataQuery string
	chunkPosts    map[int]int
	chunkBytes    map[int]int
	finishedCalls int
	commitCalls   int
	statusCalls   int
	updateCalls   int
	updateBody    []byte
}

func (s *fakeUploadService) snapshot() uploadStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := uploadStats{
		beginCalls:    s.beginCalls,
		metadataQuery: s.metadataQuery,
		chunkPosts:    map[int]int{},
		chunkBytes:    map[int]int{},
		finishedCalls: s.finishedCalls,
		commitCalls:   s.commitCalls,
		statusCalls:   s.statusCalls,
		updateCalls:   s.updateCalls,
		updateBody:    s.updateBody,
	}

	for k, v := range s.chunkPosts {
		stats.chunkPosts[k] = v
	}

	for k, v := range s.chunkBytes {
		stats.chunkBytes[k] = v
	}

	return stats
}

func readyStatus(releaseID int) appcenter.UploadRelease {
	return appcenter.UploadRelease{
		ID:                fakeUploadID,
		UploadStatus:      appcenter.UploadStatusReadyToBePublished,
		ReleaseDistinctID: appcenter.Int(releaseID),
	}
}

func TestUploadBuild_Success(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{readyStatus(fakeReleaseID)})
	client := newTestClient(t, service.server.URL)

	binary := writeTempFile(t, "app.apk", bytes.Repeat([]byte{0xAB}, 2560))

	releaseID, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{
			BinaryPath:   binary,
			ReleaseNotes: "nightly build",
			BranchName:   "main",
			CommitHash:   "abc123",
		})
	require.NoError(t, err)
	assert.Equal(t, fakeReleaseID, releaseID)

	state := service.snapshot()
	assert.Equal(t, 1, state.beginCalls)
	assert.Equal(t, 1, state.finishedCalls)
	assert.Equal(t, 1, state.commitCalls)
	assert.Equal(t, 1, state.updateCalls)

	// 2560 bytes at 1024 per chunk: two full chunks and a short tail, each
	// posted exactly once.
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, state.chunkPosts)
	assert.Equal(t, map[int]int{1: 1024, 2: 1024, 3: 512}, state.chunkBytes)

	var update appcenter.ReleaseUpdateRequest
	require.NoError(t, json.Unmarshal(state.updateBody, &update))
	require.NotNil(t, update.ReleaseNotes)
	assert.Equal(t, "nightly build", *update.ReleaseNotes)
	require.NotNil(t, update.Build)
	assert.Equal(t, "main", update.Build.BranchName)
	assert.Equal(t, "abc123", update.Build.CommitHash)
}

func TestUploadBuild_SendsContentTypeForKnownExtension(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{readyStatus(fakeReleaseID)})
	client := newTestClient(t, service.server.URL)

	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.NoError(t, err)

	query := service.snapshot().metadataQuery
	assert.Contains(t, query, "file_name=app.apk")
	assert.Contains(t, query, "content_type=application%2Fvnd.android.package-archive")
}

func TestUploadBuild_OmitsContentTypeForUnknownExtension(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{readyStatus(fakeReleaseID)})
	client := newTestClient(t, service.server.URL)

	binary := writeTempFile(t, "app.custom", []byte("some bytes"))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.NoError(t, err)

	assert.NotContains(t, service.snapshot().metadataQuery, "content_type=")
}

func TestUploadBuild_ChunkRecoversInRetryPass(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{readyStatus(fakeReleaseID)})
	// Chunk 2 fails its whole first-pass attempt budget and succeeds on the
	// first drain attempt.
	service.failChunks[2] = 3

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", bytes.Repeat([]byte{0xCD}, 3*fakeChunkSize))

	releaseID, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.NoError(t, err)
	assert.Equal(t, fakeReleaseID, releaseID)

	state := service.snapshot()
	assert.Equal(t, map[int]int{1: 1, 2: 4, 3: 1}, state.chunkPosts)
	assert.Equal(t, 1, state.finishedCalls)
}

func TestUploadBuild_ChunkExhaustionFailsUpload(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{readyStatus(fakeReleaseID)})
	// Chunk 2 fails in both the first pass and the drain pass.
	service.failChunks[2] = 6

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", bytes.Repeat([]byte{0xEF}, 3*fakeChunkSize))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.ErrorIs(t, err, appcenter.ErrChunkUploadFailed)

	state := service.snapshot()
	assert.Equal(t, 6, state.chunkPosts[2])

	// A failed chunk aborts the engine before the finish and commit steps.
	assert.Equal(t, 0, state.finishedCalls)
	assert.Equal(t, 0, state.commitCalls)
	assert.Equal(t, 0, state.statusCalls)
}

func TestUploadBuild_PollsUntilReady(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{
		{ID: fakeUploadID, UploadStatus: appcenter.UploadStatusStarted},
		{ID: fakeUploadID, UploadStatus: appcenter.UploadStatusFinished},
		readyStatus(fakeReleaseID),
	})

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	releaseID, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.NoError(t, err)
	assert.Equal(t, fakeReleaseID, releaseID)
	assert.Equal(t, 3, service.snapshot().statusCalls)
}

func TestUploadBuild_MalwareDetected(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{
		{ID: fakeUploadID, UploadStatus: appcenter.UploadStatusMalwareDetected},
	})

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.ErrorIs(t, err, appcenter.ErrMalwareDetected)

	state := service.snapshot()
	assert.Equal(t, 1, state.statusCalls)
	assert.Equal(t, 0, state.updateCalls)
}

func TestUploadBuild_ProcessingError(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{
		{ID: fakeUploadID, UploadStatus: appcenter.UploadStatusError, ErrorDetails: "disk full"},
	})

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.ErrorIs(t, err, appcenter.ErrUploadFailed)
	assert.Contains(t, err.Error(), "disk full")
}

func TestUploadBuild_Canceled(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{
		{ID: fakeUploadID, UploadStatus: appcenter.UploadStatusCanceled},
	})

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.ErrorIs(t, err, appcenter.ErrUploadCanceled)
	assert.Equal(t, 0, service.snapshot().updateCalls)
}

func TestUploadBuild_UnrecognizedStatus(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{
		{ID: fakeUploadID, UploadStatus: "somethingNew"},
	})

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.ErrorIs(t, err, appcenter.ErrUnexpectedUploadStatus)
}

func TestUploadBuild_ReadyWithoutReleaseID(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{
		{ID: fakeUploadID, UploadStatus: appcenter.UploadStatusReadyToBePublished},
	})

	client := newTestClient(t, service.server.URL)
	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: binary})
	require.ErrorIs(t, err, appcenter.ErrNoReleaseID)
}

func TestUploadBuild_MissingFile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:0")

	_, err := client.Releases().UploadBuild(context.Background(), "owner", "app",
		&appcenter.UploadOptions{BinaryPath: "/does/not/exist.apk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checking binary")
}

func TestUploadAndRelease(t *testing.T) {
	t.Parallel()

	service := newFakeUploadService(t, []appcenter.UploadRelease{readyStatus(fakeReleaseID)})

	var distributed bool

	// UploadAndRelease needs the groups and details endpoints on top of the
	// upload protocol; wrap the fake service for those two.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == fmt.Sprintf(fakeReleasePathFmt+"/groups", fakeReleaseID):
			distributed = true

			_ = json.NewEncoder(w).Encode(appcenter.ReleaseDestination{ID: "group-1"})
		case r.Method == http.MethodGet && r.URL.Path == fmt.Sprintf(fakeReleasePathFmt, fakeReleaseID):
			_ = json.NewEncoder(w).Encode(appcenter.ReleaseDetails{ID: fakeReleaseID, ShortVersion: "1.0.0"})
		default:
			service.handle(w, r)
		}
	}))
	defer server.Close()

	// The begin response advertises the fake service as upload domain, so
	// chunk traffic still hits it; API traffic goes through the wrapper.
	client := newTestClient(t, server.URL)
	binary := writeTempFile(t, "app.apk", []byte("apk bytes"))

	details, err := client.Releases().UploadAndRelease(context.Background(), "owner", "app",
		&appcenter.ReleaseOptions{
			UploadOptions: appcenter.UploadOptions{BinaryPath: binary},
			GroupID:       "group-1",
		})
	require.NoError(t, err)
	assert.Equal(t, fakeReleaseID, details.ID)
	assert.True(t, distributed)
}
