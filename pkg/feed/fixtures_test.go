package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"linkfeed/pkg/voyager"
)

// pageJSON assembles a raw response body from pre-rendered entity JSON
// objects. Token may be empty to produce a final page.
func pageJSON(t *testing.T, elements []string, included []string, token string) []byte {
	t.Helper()

	metadata := ""
	if token != "" {
		metadata = fmt.Sprintf(`, "metadata": {"paginationToken": %q}`, token)
	}

	elementsJSON, err := json.Marshal(elements)
	require.NoError(t, err)

	body := fmt.Sprintf(`{
		"data": {"data": {"feedDashProfileUpdatesByMemberShareFeed": {
			"*elements": %s%s
		}}},
		"included": [%s]
	}`, elementsJSON, metadata, strings.Join(included, ","))

	return []byte(body)
}

func parsePage(t *testing.T, body []byte) *voyager.Page {
	t.Helper()
	page, err := voyager.ParsePage(body)
	require.NoError(t, err)
	return page
}

// updateJSON renders a minimal post entity with the given activity id,
// body text, and share URL
func updateJSON(activityID int, text, shareURL string) string {
	return fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:%d,FEED)",
		"metadata": {"backendUrn": "urn:li:activity:%d"},
		"commentary": {"text": {"text": %q}},
		"socialContent": {"shareUrl": %q},
		"actor": {"name": {"text": "Test Author"}}
	}`, voyager.TypeUpdate, activityID, activityID, text, shareURL)
}

func updateURN(activityID int) string {
	return fmt.Sprintf("urn:li:fsd_update:(urn:li:activity:%d,FEED)", activityID)
}

// entityFromJSON decodes one entity object, populating both typed fields
// and the retained raw form
func entityFromJSON(t *testing.T, raw string) *voyager.Entity {
	t.Helper()
	var e voyager.Entity
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	return &e
}
