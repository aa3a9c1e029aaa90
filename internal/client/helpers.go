package client

import (
	"fmt"
	"net/url"

	"github.com/appcenter-community/appcenter-go/internal/constants"
)

// appPath builds the path prefix for app-scoped endpoints. Owner and app
// names can contain characters that need escaping.
func appPath(ownerName, appName string) string {
	return fmt.Sprintf("%s/apps/%s/%s",
		constants.APIVersionPrefix, url.PathEscape(ownerName), url.PathEscape(appName))
}

// orgPath builds the path prefix for organization-scoped endpoints.
func orgPath(orgName string) string {
	return fmt.Sprintf("%s/orgs/%s", constants.APIVersionPrefix, url.PathEscape(orgName))
}
