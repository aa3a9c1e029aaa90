package client

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps lowercase file extensions to the content type reported to
// the upload domain. Extensions outside the table omit the content_type
// parameter entirely rather than defaulting to octet-stream.
var mimeTypes = map[string]string{
	".apk":        "application/vnd.android.package-archive",
	".aab":        "application/vnd.android.package-archive",
	".msi":        "application/x-msi",
	".plist":      "application/xml",
	".aetx":       "application/c-x509-ca-cert",
	".cer":        "application/pkix-cert",
	".xap":        "application/x-silverlight-app",
	".appx":       "application/x-appx",
	".appxbundle": "application/x-appxbundle",
	".appxupload": "application/x-appxupload",
	".appxsym":    "application/x-appxupload",
	".msix":       "application/x-msix",
	".msixbundle": "application/x-msixbundle",
	".msixupload": "application/x-msixupload",
	".msixsym":    "application/x-msixupload",
}

// mimeTypeForFile looks up the upload content type for a file path.
func mimeTypeForFile(path string) (string, bool) {
	contentType, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]

	return contentType, ok
}
