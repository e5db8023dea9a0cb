package voyager

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for the provider
	BaseURL = "https://www.linkedin.com"

	// GraphQLEndpoint is the internal query API path
	GraphQLEndpoint = "/voyager/api/graphql"

	// FeedUpdatesQueryID selects the profile share feed query
	FeedUpdatesQueryID = "voyagerFeedDashProfileUpdates.4af00b28d60ed0f1488018948daad822"

	// AcceptNormalizedJSON is the content type the denormalized API speaks
	AcceptNormalizedJSON = "application/vnd.linkedin.normalized+json+2.1"

	// DefaultPageSize is the number of updates requested per page
	DefaultPageSize = 20

	// MaxPageSize is the largest page the API accepts
	MaxPageSize = 100
)

// GetActivityURL constructs the GraphQL URL for one page of a profile's
// share feed. The first page carries no pagination token; subsequent pages
// must pass the token extracted from the previous response.
func GetActivityURL(profileURN string, count, start int, paginationToken string) string {
	return BaseURL + activityRequestURI(profileURN, count, start, paginationToken)
}

// activityRequestURI builds the path and query for an activity page fetch
func activityRequestURI(profileURN string, count, start int, paginationToken string) string {
	if count <= 0 {
		count = DefaultPageSize
	} else if count > MaxPageSize {
		count = MaxPageSize
	}

	encodedURN := url.QueryEscape(profileURN)

	if paginationToken != "" {
		encodedToken := url.QueryEscape(paginationToken)
		return fmt.Sprintf("%s?variables=(count:%d,start:%d,profileUrn:%s,paginationToken:%s)&queryId=%s",
			GraphQLEndpoint, count, start, encodedURN, encodedToken, FeedUpdatesQueryID)
	}

	return fmt.Sprintf("%s?includeWebMetadata=true&variables=(count:%d,start:%d,profileUrn:%s)&queryId=%s",
		GraphQLEndpoint, count, start, encodedURN, FeedUpdatesQueryID)
}

// GetProfilePageURL constructs the public profile URL for a username
func GetProfilePageURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/in/%s/", BaseURL, username)
}

// IsProfileURN reports whether s looks like a dash profile URN
func IsProfileURN(s string) bool {
	return strings.HasPrefix(s, "urn:li:fsd_profile:")
}

// SanitizeUsername normalizes user input into a bare username. It accepts
// a full profile URL, an @-prefixed handle, or a plain username.
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}

	if idx := strings.Index(username, "/in/"); idx >= 0 {
		username = username[idx+len("/in/"):]
	}
	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")

	if idx := strings.IndexAny(username, "?#"); idx >= 0 {
		username = username[:idx]
	}

	return username
}
