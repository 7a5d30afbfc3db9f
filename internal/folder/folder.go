// Package folder extracts storage folder identifiers from sharing URLs.
package folder

import (
	"errors"
	"regexp"
)

// ErrNoFolderID is returned when a sharing URL carries no folder identifier
var ErrNoFolderID = errors.New("no folder identifier in URL")

var folderIDPattern = regexp.MustCompile(`folders/([a-zA-Z0-9_-]+)`)

// ExtractID returns the identifier following "folders/" in a sharing URL
func ExtractID(url string) (string, bool) {
	m := folderIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MustExtractID is ExtractID for callers that cannot proceed without an identifier
func MustExtractID(url string) (string, error) {
	id, ok := ExtractID(url)
	if !ok {
		return "", ErrNoFolderID
	}
	return id, nil
}
