package constants

import "errors"

// Token provider errors.
var (
	ErrNoToken = errors.New("no API token available")
)

// Upload engine errors.
var (
	ErrBinaryPathRequired  = errors.New("binary path is required")
	ErrUploadDomainMissing = errors.New("upload ticket is missing an upload domain")
	ErrAssetIDMissing      = errors.New("upload ticket is missing a package asset id")
	ErrChunkSizeInvalid    = errors.New("metadata response has a non-positive chunk size")
	ErrChunkListEmpty      = errors.New("metadata response has an empty chunk list")
	ErrChunkOutOfRange     = errors.New("chunk number is beyond the end of the file")
	ErrChunkRejected       = errors.New("chunk rejected by upload service")
)

// Symbol upload errors.
var (
	ErrSymbolsPathRequired = errors.New("symbols path is required")
)

// File system errors.
var (
	ErrNotRegularFile = errors.New("path is not a regular file")
)
