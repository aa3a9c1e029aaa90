//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/appcenter-community/appcenter-go/pkg/acclient"
	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// fakeChunkSize is small so workflow binaries split into several chunks
// without being large.
const fakeChunkSize = 256

// processingPolls is how many status polls a committed upload answers with a
// non-terminal status before turning ready, simulating server-side
// processing time.
const processingPolls = 2

// uploadState tracks one in-flight release upload on the fake service.
type uploadState struct {
	assetID     string
	fileName    string
	fileSize    int64
	chunks      map[int][]byte
	finished    bool
	committed   bool
	statusPolls int
	releaseID   int
}

// fakeAppCenter is an in-memory App Center good enough for end-to-end
// workflows: release uploads (API host and upload domain in one server),
// release queries and distribution, paged error group listings with the
// service's broken continuation links, and API token management.
type fakeAppCenter struct {
	t      *testing.T
	server *httptest.Server

	owner string
	app   string
	token string

	mu            sync.Mutex
	uploads       map[string]*uploadState
	releases      map[int]*appcenter.ReleaseDetails
	nextReleaseID int
	errorGroups   []appcenter.ErrorGroup
	pageSize      int
	apiTokens     map[string]appcenter.APIToken
}

func newFakeAppCenter(t *testing.T) *fakeAppCenter {
	t.Helper()

	fake := &fakeAppCenter{
		t:             t,
		owner:         "org-" + uuid.NewString()[:8],
		app:           "app-" + uuid.NewString()[:8],
		token:         "token-" + uuid.NewString(),
		uploads:       map[string]*uploadState{},
		releases:      map[int]*appcenter.ReleaseDetails{},
		nextReleaseID: 1,
		pageSize:      30,
		apiTokens:     map[string]appcenter.APIToken{},
	}

	fake.server = httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(fake.server.Close)

	return fake
}

// client builds a real library client pointed at the fake service, with
// waits shrunk so retry and poll paths finish quickly.
func (f *fakeAppCenter) client() appcenter.Client {
	f.t.Helper()

	client, err := acclient.New(&appcenter.Config{
		APIEndpoint:      f.server.URL,
		APIToken:         f.token,
		RetryDelay:       time.Millisecond,
		UploadRetryDelay: time.Millisecond,
		PollInterval:     5 * time.Millisecond,
	})
	if err != nil {
		f.t.Fatalf("creating client: %v", err)
	}

	return client
}

func (f *fakeAppCenter) appPath() string {
	return "/v0.1/apps/" + f.owner + "/" + f.app
}

// seedErrorGroups fills the crash listing with n synthetic groups.
func (f *fakeAppCenter) seedErrorGroups(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := 0; i < n; i++ {
		f.errorGroups = append(f.errorGroups, appcenter.ErrorGroup{
			ErrorGroupID:  fmt.Sprintf("group-%03d", i),
			State:         appcenter.ErrorGroupStateOpen,
			AppVersion:    "1.0.0",
			Count:         n - i,
			DeviceCount:   (n - i) / 2,
			ExceptionType: "NullPointerException",
		})
	}
}

// assembledUpload returns the bytes of an upload, reassembled in chunk
// order.
func (f *fakeAppCenter) assembledUpload(uploadID string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	upload := f.uploads[uploadID]
	if upload == nil {
		return nil
	}

	numbers := make([]int, 0, len(upload.chunks))
	for number := range upload.chunks {
		numbers = append(numbers, number)
	}

	sort.Ints(numbers)

	var data []byte
	for _, number := range numbers {
		data = append(data, upload.chunks[number]...)
	}

	return data
}

// singleUploadID returns the id of the only upload the service has seen.
func (f *fakeAppCenter) singleUploadID() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.uploads) != 1 {
		f.t.Errorf("expected exactly one upload, have %d", len(f.uploads))
		return ""
	}

	for id := range f.uploads {
		return id
	}

	return ""
}

func (f *fakeAppCenter) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path

	// Upload domain routes authenticate through the token query parameter,
	// everything else through the API token header.
	if !strings.HasPrefix(path, "/upload/") {
		if r.Header.Get("X-API-Token") != f.token {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code":    "Unauthorized",
				"message": "invalid API token",
			})

			return
		}
	}

	switch {
	case r.Method == http.MethodPost && path == f.appPath()+"/uploads/releases":
		f.handleBeginUpload(w)
	case strings.HasPrefix(path, "/upload/set_metadata/"):
		f.handleSetMetadata(w, r)
	case strings.HasPrefix(path, "/upload/upload_chunk/"):
		f.handleUploadChunk(w, r)
	case strings.HasPrefix(path, "/upload/finished/"):
		f.handleFinished(w, r)
	case strings.HasPrefix(path, f.appPath()+"/uploads/releases/"):
		f.handleUploadResource(w, r)
	case strings.HasPrefix(path, f.appPath()+"/releases/") && strings.HasSuffix(path, "/groups"):
		f.handleReleaseToGroup(w, r)
	case strings.HasPrefix(path, f.appPath()+"/releases/"):
		f.handleRelease(w, r)
	case path == f.appPath()+"/errors/errorGroups":
		f.handleErrorGroups(w, r)
	case strings.HasPrefix(path, f.appPath()+"/errors/errorGroups/"):
		f.handleErrorGroup(w, r)
	case path == "/v0.1/api_tokens":
		f.handleAPITokens(w, r)
	case strings.HasPrefix(path, "/v0.1/api_tokens/"):
		f.handleAPIToken(w, r)
	default:
		f.t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAppCenter) handleBeginUpload(w http.ResponseWriter) {
	uploadID := uuid.NewString()
	assetID := uuid.NewString()

	f.uploads[uploadID] = &uploadState{
		assetID: assetID,
		chunks:  map[int][]byte{},
	}

	_ = json.NewEncoder(w).Encode(appcenter.ReleaseUpload{
		ID:              uploadID,
		UploadDomain:    f.server.URL,
		Token:           "upload-token",
		URLEncodedToken: "upload-token",
		PackageAssetID:  assetID,
	})
}

func (f *fakeAppCenter) uploadByAsset(assetID string) *uploadState {
	for _, upload := range f.uploads {
		if upload.assetID == assetID {
			return upload
		}
	}

	return nil
}

func (f *fakeAppCenter) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	assetID := strings.TrimPrefix(r.URL.Path, "/upload/set_metadata/")

	upload := f.uploadByAsset(assetID)
	if upload == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	fileSize, err := strconv.ParseInt(r.URL.Query().Get("file_size"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	upload.fileName = r.URL.Query().Get("file_name")
	upload.fileSize = fileSize

	chunkCount := int((fileSize + fakeChunkSize - 1) / fakeChunkSize)
	chunkList := make([]int, 0, chunkCount)

	for i := 1; i <= chunkCount; i++ {
		chunkList = append(chunkList, i)
	}

	_ = json.NewEncoder(w).Encode(appcenter.UploadMetadata{
		ID:             assetID,
		ChunkSize:      fakeChunkSize,
		ChunkList:      chunkList,
		BlobPartitions: 1,
	})
}

func (f *fakeAppCenter) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	assetID := strings.TrimPrefix(r.URL.Path, "/upload/upload_chunk/")

	upload := f.uploadByAsset(assetID)
	if upload == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	chunkNumber, err := strconv.Atoi(r.URL.Query().Get("block_number"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	upload.chunks[chunkNumber] = data

	_ = json.NewEncoder(w).Encode(appcenter.ChunkUploadResult{ChunkNum: chunkNumber})
}

func (f *fakeAppCenter) handleFinished(w http.ResponseWriter, r *http.Request) {
	assetID := strings.TrimPrefix(r.URL.Path, "/upload/finished/")

	upload := f.uploadByAsset(assetID)
	if upload == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	upload.finished = true

	_ = json.NewEncoder(w).Encode(map[string]bool{"error": false})
}

func (f *fakeAppCenter) handleUploadResource(w http.ResponseWriter, r *http.Request) {
	uploadID := strings.TrimPrefix(r.URL.Path, f.appPath()+"/uploads/releases/")

	upload := f.uploads[uploadID]
	if upload == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		if !upload.finished {
			f.t.Errorf("upload %s committed before the finished call", uploadID)
		}

		upload.committed = true

		_ = json.NewEncoder(w).Encode(appcenter.UploadRelease{
			ID:           uploadID,
			UploadStatus: appcenter.UploadStatusFinished,
		})
	case http.MethodGet:
		if !upload.committed {
			_ = json.NewEncoder(w).Encode(appcenter.UploadRelease{
				ID:           uploadID,
				UploadStatus: appcenter.UploadStatusStarted,
			})

			return
		}

		upload.statusPolls++
		if upload.statusPolls <= processingPolls {
			_ = json.NewEncoder(w).Encode(appcenter.UploadRelease{
				ID:           uploadID,
				UploadStatus: appcenter.UploadStatusFinished,
			})

			return
		}

		if upload.releaseID == 0 {
			upload.releaseID = f.nextReleaseID
			f.nextReleaseID++
			f.releases[upload.releaseID] = &appcenter.ReleaseDetails{
				ID:           upload.releaseID,
				AppName:      f.app,
				Version:      strconv.Itoa(upload.releaseID),
				ShortVersion: "1.0." + strconv.Itoa(upload.releaseID),
				Size:         upload.fileSize,
				Enabled:      true,
			}
		}

		_ = json.NewEncoder(w).Encode(appcenter.UploadRelease{
			ID:                uploadID,
			UploadStatus:      appcenter.UploadStatusReadyToBePublished,
			ReleaseDistinctID: appcenter.Int(upload.releaseID),
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeAppCenter) handleRelease(w http.ResponseWriter, r *http.Request) {
	releaseID, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, f.appPath()+"/releases/"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	release := f.releases[releaseID]
	if release == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "NotFound",
			"message": "release not found",
		})

		return
	}

	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(release)
	case http.MethodPatch:
		var update appcenter.ReleaseUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if update.ReleaseNotes != nil {
			release.ReleaseNotes = *update.ReleaseNotes
		}

		if update.Build != nil {
			release.Build = update.Build
		}

		_ = json.NewEncoder(w).Encode(release)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeAppCenter) handleReleaseToGroup(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, f.appPath()+"/releases/"), "/groups")

	releaseID, err := strconv.Atoi(trimmed)
	if err != nil || f.releases[releaseID] == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body struct {
		ID              string `json:"id"`
		MandatoryUpdate bool   `json:"mandatory_update"`
		NotifyTesters   bool   `json:"notify_testers"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.releases[releaseID].Destinations = append(f.releases[releaseID].Destinations, appcenter.Destination{
		ID:              body.ID,
		DestinationType: "group",
	})

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(appcenter.ReleaseDestination{
		ID:              body.ID,
		MandatoryUpdate: body.MandatoryUpdate,
	})
}

// handleErrorGroups serves the listing with the service's continuation link
// defects: a spurious /api prefix and a missing owner/app path segment.
func (f *fakeAppCenter) handleErrorGroups(w http.ResponseWriter, r *http.Request) {
	skip := 0

	if raw := r.URL.Query().Get("$skip"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		skip = parsed
	}

	end := skip + f.pageSize
	if end > len(f.errorGroups) {
		end = len(f.errorGroups)
	}

	envelope := map[string]interface{}{
		"errorGroups": f.errorGroups[skip:end],
	}

	if end < len(f.errorGroups) {
		envelope["nextLink"] = fmt.Sprintf("/api/v0.1/apps//errors/errorGroups?%%24skip=%d", end)
	}

	_ = json.NewEncoder(w).Encode(envelope)
}

func (f *fakeAppCenter) handleErrorGroup(w http.ResponseWriter, r *http.Request) {
	groupID := strings.TrimPrefix(r.URL.Path, f.appPath()+"/errors/errorGroups/")

	for i := range f.errorGroups {
		if f.errorGroups[i].ErrorGroupID != groupID {
			continue
		}

		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.errorGroups[i])
		case http.MethodPatch:
			var body struct {
				State      appcenter.ErrorGroupState `json:"state"`
				Annotation string                    `json:"annotation"`
			}

			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			f.errorGroups[i].State = body.State
			f.errorGroups[i].Annotation = body.Annotation

			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

		return
	}

	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "NotFound",
		"message": "error group not found",
	})
}

func (f *fakeAppCenter) handleAPITokens(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tokens := make([]appcenter.APIToken, 0, len(f.apiTokens))

		for _, token := range f.apiTokens {
			// The token value is only returned on creation.
			token.Token = ""
			tokens = append(tokens, token)
		}

		sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })

		_ = json.NewEncoder(w).Encode(tokens)
	case http.MethodPost:
		var body struct {
			Description string   `json:"description"`
			Scope       []string `json:"scope"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		token := appcenter.APIToken{
			ID:          uuid.NewString(),
			Description: body.Description,
			Scope:       body.Scope,
			Token:       "secret-" + uuid.NewString(),
		}
		f.apiTokens[token.ID] = token

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(token)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeAppCenter) handleAPIToken(w http.ResponseWriter, r *http.Request) {
	tokenID := strings.TrimPrefix(r.URL.Path, "/v0.1/api_tokens/")

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, ok := f.apiTokens[tokenID]; !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "NotFound",
			"message": "token not found",
		})

		return
	}

	delete(f.apiTokens, tokenID)
	w.WriteHeader(http.StatusNoContent)
}

// writeBinary writes a deterministic fake build to a temp dir and returns
// its path.
func writeBinary(t *testing.T, name string, size int) (string, []byte) {
	t.Helper()

	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing binary: %v", err)
	}

	return path, content
}
