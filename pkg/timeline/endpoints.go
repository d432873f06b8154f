package timeline

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the default address of the extractor gateway, the
	// sidecar that handles the actual x.com page scraping and API
	// negotiation and exposes timelines as plain JSON.
	DefaultBaseURL = "http://127.0.0.1:8742"

	// UserEndpoint is the endpoint pattern for resolving users
	UserEndpoint = "/v1/users/%s"

	// TimelineEndpoint is the endpoint pattern for timeline pages
	TimelineEndpoint = "/v1/users/%s/timeline/%s"
)

// UserURL constructs the URL for resolving a username
func UserURL(baseURL, username string) string {
	return baseURL + fmt.Sprintf(UserEndpoint, url.PathEscape(username))
}

// TimelineURL constructs the URL for fetching a timeline page. An empty
// cursor requests the newest page.
func TimelineURL(baseURL, username string, kind Kind, cursor string) string {
	u := baseURL + fmt.Sprintf(TimelineEndpoint, url.PathEscape(username), kind)
	if cursor != "" {
		params := url.Values{}
		params.Set("cursor", cursor)
		u += "?" + params.Encode()
	}
	return u
}

// SanitizeUsername strips decorations users paste in by habit
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}

	// Remove @ symbol if present at the beginning
	if username[0] == '@' {
		username = username[1:]
	}

	// Remove any trailing slashes or spaces
	for len(username) > 0 && (username[len(username)-1] == '/' || username[len(username)-1] == ' ') {
		username = username[:len(username)-1]
	}

	return username
}

// IsValidUsername checks if a username is valid according to x.com rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 15 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}

	return true
}
