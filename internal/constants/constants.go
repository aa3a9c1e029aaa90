package constants

import "time"

// Service endpoints and headers.
const (
	// DefaultAPIEndpoint is the public App Center API host.
	DefaultAPIEndpoint = "https://api.appcenter.ms"

	// APIVersionPrefix is the path prefix for the current API version.
	APIVersionPrefix = "/v0.1"

	// AuthHeader carries the API token on every request.
	AuthHeader = "X-API-Token"

	// BlobTypeHeader is required by the blob store backing symbol uploads.
	BlobTypeHeader = "x-ms-blob-type"

	// BlobTypeBlockBlob is the blob type for symbol uploads.
	BlobTypeBlockBlob = "BlockBlob"
)

// Environment variables.
const (
	// EnvAPIToken is read when no token is configured explicitly.
	EnvAPIToken = "APPCENTER_API_TOKEN"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests. Uploads
	// should rely on context deadlines instead.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry bounds. Requests that fail at the connection level, and GET requests
// answered with 202 Accepted, are tried up to RequestRetryAttempts times in
// total with a fixed RequestRetryDelay between tries.
const (
	// RequestRetryAttempts is the total number of tries per request.
	RequestRetryAttempts = 3

	// RequestRetryDelay is the fixed wait between request tries.
	RequestRetryDelay = 10 * time.Second
)

// Upload engine bounds. Each step of a release upload, and each individual
// chunk, gets its own attempt budget on top of the transport's.
const (
	// UploadStepAttempts is the total number of tries per upload step.
	UploadStepAttempts = 3

	// UploadStepDelay is the fixed wait between upload step tries.
	UploadStepDelay = 10 * time.Second
)

// User agent.
const (
	// ClientVersion is reported in the default User-Agent header.
	ClientVersion = "1.0.0"

	// DefaultUserAgent identifies this library to the service.
	DefaultUserAgent = "appcenter-go/" + ClientVersion
)
