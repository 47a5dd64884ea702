// Package utils provides small helpers shared by the uploader.
package utils

import "strings"

// TokenURIFromSecrets forms the location of the YouTube token that
// accompanies the client secrets at the given location. The token is kept
// beside the secrets, in the same file system directory or Google Storage
// bucket, with any .json extension replaced by .token.json.
// e.g. gs://ausocean/uploader.json gives gs://ausocean/uploader.token.json
func TokenURIFromSecrets(secrets string) string {
	const (
		jsonExt      = ".json"
		tokenPostfix = ".token.json"
	)

	if secrets == "" {
		return ""
	}
	return strings.TrimSuffix(secrets, jsonExt) + tokenPostfix
}
