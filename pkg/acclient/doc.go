// Package acclient provides the primary entry point for constructing an App
// Center API client that implements the appcenter.Client interface.
//
// It layers configuration and the authenticated HTTP transport on top of the
// resource interfaces and types defined in the appcenter package. Most
// applications should import acclient to build a client, then use the
// returned appcenter.Client to access resource-specific clients, for example
// Releases(), Crashes(), Account().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/appcenter-community/appcenter-go/pkg/acclient"
//	  "github.com/appcenter-community/appcenter-go/pkg/appcenter"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Minimal: the public endpoint and an API token.
//	  cli, err := acclient.NewWithToken("", "your-api-token")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with explicit configuration:
//	  cli, err = acclient.New(&appcenter.Config{
//	    APIToken: "your-api-token",
//	    Debug:    true,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  releases, err := cli.Releases().Recent(ctx, "my-org", "my-app")
//	  if err != nil { log.Fatal(err) }
//	  _ = releases
//	}
//
// # Configuration files and environment
//
// LoadConfig reads a YAML config file and the APPCENTER_* environment
// variables (APPCENTER_API_TOKEN, APPCENTER_API_ENDPOINT, ...), with the
// environment taking precedence so CI systems never have to write tokens to
// disk. FromConfigFile combines LoadConfig and New.
package acclient
