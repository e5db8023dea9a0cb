package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkfeed/pkg/voyager"
)

func TestEntityIndexResolve(t *testing.T) {
	entities := []voyager.Entity{
		{Type: voyager.TypeUpdate, EntityURN: "urn:a"},
		{Type: voyager.TypeUpdate, EntityURN: "urn:b"},
		{Type: "com.linkedin.videocontent.VideoPlayMetadata", EntityURN: "urn:vid"},
		{Type: voyager.TypeUpdate}, // no URN, unindexable
	}

	idx := NewEntityIndex(entities, voyager.TypeUpdate)

	assert.Equal(t, 2, idx.PostCount())

	e, ok := idx.Resolve("urn:a")
	require.True(t, ok)
	assert.Equal(t, "urn:a", e.EntityURN)

	// Non-post entities resolve only through Lookup
	_, ok = idx.Resolve("urn:vid")
	assert.False(t, ok)
	_, ok = idx.Lookup("urn:vid")
	assert.True(t, ok)

	// Missing references are a result, not an error
	_, ok = idx.Resolve("urn:missing")
	assert.False(t, ok)
	_, ok = idx.Lookup("urn:missing")
	assert.False(t, ok)
}

func TestEntityIndexDoesNotMutateInput(t *testing.T) {
	entities := []voyager.Entity{
		{Type: voyager.TypeUpdate, EntityURN: "urn:a"},
	}

	NewEntityIndex(entities, voyager.TypeUpdate)

	assert.Equal(t, "urn:a", entities[0].EntityURN)
	assert.Equal(t, voyager.TypeUpdate, entities[0].Type)
}
