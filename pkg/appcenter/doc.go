// Package appcenter provides types, interfaces, and helpers for working with
// the App Center REST API.
//
// # Overview
//
// The appcenter package defines the domain types (releases, error groups,
// uploads, users, teams) and the interfaces for resource-oriented clients
// (AccountClient, AnalyticsClient, CrashesClient, ReleasesClient). A concrete
// implementation of these clients is provided by the acclient package, which
// wires configuration, transport, and authentication. Most consumers should
// import acclient to construct a client and then interact with the resource
// client interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/appcenter-community/appcenter-go/pkg/acclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := acclient.NewWithToken("", "your-api-token")
//	  if err != nil { log.Fatal(err) }
//
//	  releases, err := cli.Releases().Recent(ctx, "my-org", "my-app")
//	  if err != nil { log.Fatal(err) }
//	  _ = releases
//	}
//
// # Pagination
//
// List endpoints chain pages through continuation links. PageIterator walks
// them lazily:
//
//	it := cli.Crashes().ErrorGroups(ctx, "my-org", "my-app", &appcenter.ErrorGroupsOptions{
//	  Start: time.Now().AddDate(0, 0, -7),
//	})
//	for it.HasNext() {
//	  group, err := it.Next()
//	  if err != nil { break }
//	  _ = group
//	}
//
// StreamPages delivers whole pages over a channel for callers that want to
// process page-by-page.
//
// # Uploads
//
// ReleasesClient.UploadBuild drives the chunked release upload protocol end
// to end: it registers the upload, slices the binary into the chunk list the
// upload domain dictates, retries failed chunks, commits the upload, and
// polls until the service finishes processing. Long-running waits are
// bounded by the caller's context.
//
// # Errors
//
// Failed requests are surfaced as *RequestError carrying the method, URL,
// status, and the decoded service error payload when one was present.
// Helpers such as IsNotFound and IsUnauthorized branch on common cases, and
// sentinel errors (ErrMalwareDetected, ErrUploadCanceled, ...) identify
// upload outcomes via errors.Is.
package appcenter
