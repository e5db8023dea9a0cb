package voyager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "linkfeed/pkg/errors"
)

const samplePage = `{
  "data": {
    "data": {
      "feedDashProfileUpdatesByMemberShareFeed": {
        "*elements": [
          "urn:li:fsd_update:(urn:li:activity:7100,FEED)",
          "urn:li:fsd_update:(urn:li:activity:7101,FEED)"
        ],
        "metadata": {
          "paginationToken": "token-abc"
        }
      }
    }
  },
  "included": [
    {
      "$type": "com.linkedin.voyager.dash.feed.Update",
      "entityUrn": "urn:li:fsd_update:(urn:li:activity:7101,FEED)",
      "commentary": {"text": {"text": "Second post body"}},
      "socialContent": {"shareUrl": "https://example.com/posts/7101"},
      "actor": {
        "name": {"text": "Ada Lovelace"},
        "description": {"text": "Engineer"},
        "navigationContext": {"actionTarget": "https://example.com/in/ada"},
        "image": {
          "attributes": [
            {"detailData": {"nonEntityProfilePicture": {"*profile": "urn:li:fsd_profile:AAA"}}}
          ]
        }
      }
    },
    {
      "$type": "com.linkedin.voyager.dash.feed.Update",
      "entityUrn": "urn:li:fsd_update:(urn:li:activity:7100,FEED)",
      "commentary": {"text": {"text": "First post body"}},
      "content": {
        "imageComponent": {
          "images": [
            {
              "attributes": [
                {
                  "detailData": {
                    "vectorImage": {
                      "rootUrl": "https://media.example.com/img/",
                      "artifacts": [
                        {"width": 320, "height": 240, "fileIdentifyingUrlPathSegment": "320.jpg"},
                        {"width": 720, "height": 540, "fileIdentifyingUrlPathSegment": "720.jpg"}
                      ]
                    }
                  }
                }
              ]
            }
          ]
        }
      }
    },
    {
      "$type": "com.linkedin.videocontent.VideoPlayMetadata",
      "entityUrn": "urn:li:digitalmediaAsset:VID1",
      "progressiveStreams": [
        {
          "width": 640,
          "height": 360,
          "streamingLocations": [{"url": "https://media.example.com/vid/640.mp4"}]
        }
      ]
    }
  ]
}`

func TestParsePage(t *testing.T) {
	page, err := ParsePage([]byte(samplePage))
	require.NoError(t, err)

	elements := page.Elements()
	require.Len(t, elements, 2)
	assert.Equal(t, "urn:li:fsd_update:(urn:li:activity:7100,FEED)", elements[0])

	assert.Equal(t, "token-abc", page.PaginationToken())
	require.Len(t, page.Included, 3)

	// Entities carry typed fields and the raw object
	update := page.Included[0]
	assert.Equal(t, TypeUpdate, update.Type)
	require.NotNil(t, update.Commentary)
	assert.Equal(t, "Second post body", update.Commentary.Text.Text)
	require.NotNil(t, update.SocialContent)
	assert.Equal(t, "https://example.com/posts/7101", update.SocialContent.ShareURL)
	require.NotNil(t, update.Actor)
	assert.Equal(t, "Ada Lovelace", update.Actor.Name.Text)
	assert.NotNil(t, update.Raw)

	video := page.Included[2]
	require.Len(t, video.ProgressiveStreams, 1)
	assert.Equal(t, 640, video.ProgressiveStreams[0].Width)
	assert.Equal(t, "https://media.example.com/vid/640.mp4", video.ProgressiveStreams[0].StreamingLocations[0].URL)
}

func TestParsePageMalformed(t *testing.T) {
	_, err := ParsePage([]byte("<html>not json</html>"))
	require.Error(t, err)

	apiErr, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestParsePageEmptyEnvelope(t *testing.T) {
	page, err := ParsePage([]byte(`{"data": {"data": {}}, "included": []}`))
	require.NoError(t, err)

	assert.Empty(t, page.Elements())
	assert.Empty(t, page.PaginationToken())
	assert.Empty(t, page.Included)
}

func TestPaginationTokenAbsent(t *testing.T) {
	body := `{
	  "data": {"data": {"feedDashProfileUpdatesByMemberShareFeed": {"*elements": []}}},
	  "included": []
	}`
	page, err := ParsePage([]byte(body))
	require.NoError(t, err)
	assert.Empty(t, page.PaginationToken())
}
