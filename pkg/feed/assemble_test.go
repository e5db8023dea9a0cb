package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkfeed/pkg/voyager"
)

func TestAssembleFullPost(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:7100,FEED)",
		"metadata": {"backendUrn": "urn:li:activity:7100", "shareUrn": "urn:li:share:9001"},
		"commentary": {"text": {"text": "A post worth reading"}},
		"socialContent": {"shareUrl": "https://example.com/posts/7100"},
		"actor": {
			"name": {"text": "Ada Lovelace"},
			"description": {"text": "Engineer at Example"},
			"navigationContext": {"actionTarget": "https://example.com/in/ada"},
			"image": {"attributes": [{"detailData": {"nonEntityProfilePicture": {"*profile": "urn:li:fsd_profile:ADA"}}}]}
		}
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	post, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	require.True(t, ok)

	assert.Equal(t, "7100", post.ID)
	assert.Equal(t, "urn:li:fsd_update:(urn:li:activity:7100,FEED)", post.EntityURN)
	assert.Equal(t, "urn:li:activity:7100", post.ActivityURN)
	assert.Equal(t, "urn:li:share:9001", post.ShareURN)
	assert.Equal(t, "A post worth reading", post.Text)
	assert.Equal(t, "https://example.com/posts/7100", post.ShareURL)
	assert.Equal(t, "Ada Lovelace", post.AuthorName)
	assert.Equal(t, "Engineer at Example", post.AuthorHeadline)
	assert.Equal(t, "urn:li:fsd_profile:ADA", post.AuthorProfileURN)
	assert.Equal(t, "https://example.com/in/ada", post.AuthorProfileURL)
}

func TestAssembleSkipsEmptyPost(t *testing.T) {
	entity := entityFromJSON(t, updateJSON(1, "", ""))

	_, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	assert.False(t, ok)
}

func TestAssembleAcceptsURLOnlyPost(t *testing.T) {
	entity := entityFromJSON(t, updateJSON(2, "", "https://example.com/posts/2"))

	post, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	require.True(t, ok)
	assert.Empty(t, post.Text)
	assert.Equal(t, "https://example.com/posts/2", post.ShareURL)
}

func TestAssembleNilEntity(t *testing.T) {
	_, ok := NewPostAssembler(nil).Assemble(nil, emptyIndex())
	assert.False(t, ok)
}

func TestAssembleToleratesMissingActorChain(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:3,FEED)",
		"commentary": {"text": {"text": "No actor on this one"}},
		"actor": {"image": {"attributes": [{"detailData": {}}]}}
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	post, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	require.True(t, ok)
	assert.Empty(t, post.AuthorName)
	assert.Empty(t, post.AuthorProfileURN)
}

func TestExtractPostIDDeterminism(t *testing.T) {
	entity := entityFromJSON(t, updateJSON(7100, "text body here", ""))

	first := extractPostID(entity)
	second := extractPostID(entity)
	assert.Equal(t, "7100", first)
	assert.Equal(t, first, second)
}

func TestExtractPostIDFromBackendURN(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:opaque-no-activity",
		"metadata": {"backendUrn": "urn:li:activity:4242"}
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	assert.Equal(t, "4242", extractPostID(entity))
}

func TestExtractPostIDFallsBackToEntityURN(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:opaque"
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	assert.Equal(t, "urn:li:fsd_update:opaque", extractPostID(entity))
}

func TestExtractPostIDStructuralFallback(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"commentary": {"text": {"text": "identical content"}},
		"actor": {"name": {"text": "Same Author"}}
	}`, voyager.TypeUpdate)

	a := extractPostID(entityFromJSON(t, raw))
	b := extractPostID(entityFromJSON(t, raw))

	// Identical input always yields the same fallback identity
	assert.Equal(t, a, b)
	assert.Regexp(t, `^x[0-9a-f]{16}$`, a)

	// Distinct content yields a distinct identity
	other := fmt.Sprintf(`{
		"$type": %q,
		"commentary": {"text": {"text": "different content"}},
		"actor": {"name": {"text": "Same Author"}}
	}`, voyager.TypeUpdate)
	assert.NotEqual(t, a, extractPostID(entityFromJSON(t, other)))
}

func TestExtractPostIDStructuralFallbackUsesTimestamp(t *testing.T) {
	// Same author and text posted at different times must hash apart
	base := `{
		"$type": %q,
		"commentary": {"text": {"text": "identical content"}},
		"actor": {"name": {"text": "Same Author"}, "subDescription": {"text": %q}}
	}`

	a := extractPostID(entityFromJSON(t, fmt.Sprintf(base, voyager.TypeUpdate, "3d")))
	b := extractPostID(entityFromJSON(t, fmt.Sprintf(base, voyager.TypeUpdate, "1w")))
	assert.NotEqual(t, a, b)

	same := extractPostID(entityFromJSON(t, fmt.Sprintf(base, voyager.TypeUpdate, "3d")))
	assert.Equal(t, a, same)
}

func TestTextFallbackSearch(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:5,FEED)",
		"content": {"description": {"text": "Body recovered from a drifted field"}}
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	post, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	require.True(t, ok)
	assert.Equal(t, "Body recovered from a drifted field", post.Text)
}

func TestTextFallbackUnderWrapperKey(t *testing.T) {
	// The body sits below an intermediate key outside the candidate
	// list, as reshared updates carry it
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:9,FEED)",
		"resharedUpdate": {"commentary": {"text": {"text": "A reshared body long enough to qualify"}}}
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	post, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	require.True(t, ok)
	assert.Equal(t, "A reshared body long enough to qualify", post.Text)
}

func TestTextFallbackIgnoresNonCandidateStrings(t *testing.T) {
	// A long string is only a body when it hangs off a candidate key
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:10,FEED)",
		"trackingId": "an opaque identifier that is plenty long"
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	_, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	assert.False(t, ok)
}

func TestTextFallbackMinLength(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:6,FEED)",
		"content": {"description": {"text": "short"}}
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	_, ok := NewPostAssembler(nil).Assemble(entity, emptyIndex())
	assert.False(t, ok)
}

func TestTextFallbackDepthCap(t *testing.T) {
	// The candidate string sits below the depth cap and must not be found
	deep := `"content": {"content": {"content": {"content": {"content": {"content": {"text": "buried far too deep to reach"}}}}}}`
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:7,FEED)",
		%s
	}`, voyager.TypeUpdate, deep)
	entity := entityFromJSON(t, raw)

	assert.Empty(t, extractText(entity))
}

func TestTextPrefersTypedCommentary(t *testing.T) {
	raw := fmt.Sprintf(`{
		"$type": %q,
		"entityUrn": "urn:li:fsd_update:(urn:li:activity:8,FEED)",
		"commentary": {"text": {"text": "The typed commentary body"}},
		"content": {"description": {"text": "A decoy fallback candidate"}}
	}`, voyager.TypeUpdate)
	entity := entityFromJSON(t, raw)

	assert.Equal(t, "The typed commentary body", extractText(entity))
}
