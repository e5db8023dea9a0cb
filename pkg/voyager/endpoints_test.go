package voyager

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetActivityURLFirstPage(t *testing.T) {
	url := GetActivityURL("urn:li:fsd_profile:ABC123", 20, 0, "")

	assert.True(t, strings.HasPrefix(url, BaseURL+GraphQLEndpoint))
	assert.Contains(t, url, "includeWebMetadata=true")
	assert.Contains(t, url, "count:20")
	assert.Contains(t, url, "start:0")
	assert.Contains(t, url, "profileUrn:urn%3Ali%3Afsd_profile%3AABC123")
	assert.Contains(t, url, "queryId="+FeedUpdatesQueryID)
	assert.NotContains(t, url, "paginationToken")
}

func TestGetActivityURLWithToken(t *testing.T) {
	url := GetActivityURL("urn:li:fsd_profile:ABC123", 20, 20, "tok/en+1")

	assert.Contains(t, url, "start:20")
	assert.Contains(t, url, "paginationToken:tok%2Fen%2B1")
	assert.NotContains(t, url, "includeWebMetadata")
}

func TestGetActivityURLCountBounds(t *testing.T) {
	assert.Contains(t, GetActivityURL("urn:li:fsd_profile:X", 0, 0, ""), "count:20")
	assert.Contains(t, GetActivityURL("urn:li:fsd_profile:X", -5, 0, ""), "count:20")
	assert.Contains(t, GetActivityURL("urn:li:fsd_profile:X", 500, 0, ""), "count:100")
}

func TestGetProfilePageURL(t *testing.T) {
	assert.Equal(t, BaseURL+"/in/someuser/", GetProfilePageURL("someuser"))
	assert.Empty(t, GetProfilePageURL(""))
}

func TestIsProfileURN(t *testing.T) {
	assert.True(t, IsProfileURN("urn:li:fsd_profile:ABC"))
	assert.False(t, IsProfileURN("urn:li:activity:123"))
	assert.False(t, IsProfileURN("someuser"))
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"someuser", "someuser"},
		{"@someuser", "someuser"},
		{"someuser/", "someuser"},
		{"  someuser  ", "someuser"},
		{"https://www.linkedin.com/in/someuser/", "someuser"},
		{"https://www.linkedin.com/in/someuser?trk=nav", "someuser"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeUsername(tt.input), "input %q", tt.input)
	}
}
