package feed

import (
	"linkfeed/pkg/voyager"
)

// EntityIndex is a per-page lookup table over a response's flat entity
// list. Posts are indexed separately from the rest of the entities so
// that the reference walk only materializes entities of the expected
// post type, while media resolution can still chase references to
// entities of other types. An index is built once per page and never
// merged across pages.
type EntityIndex struct {
	posts map[string]*voyager.Entity
	all   map[string]*voyager.Entity
}

// NewEntityIndex builds an index over the given entities. Only entities
// whose type discriminator equals postType are resolvable as posts.
// The input is not mutated.
func NewEntityIndex(entities []voyager.Entity, postType string) *EntityIndex {
	idx := &EntityIndex{
		posts: make(map[string]*voyager.Entity),
		all:   make(map[string]*voyager.Entity, len(entities)),
	}

	for i := range entities {
		e := &entities[i]
		if e.EntityURN == "" {
			continue
		}
		idx.all[e.EntityURN] = e
		if e.Type == postType {
			idx.posts[e.EntityURN] = e
		}
	}

	return idx
}

// Resolve returns the post entity with the given URN. A missing or
// non-post URN yields ok=false, never an error; the caller decides
// whether that is fatal.
func (idx *EntityIndex) Resolve(urn string) (*voyager.Entity, bool) {
	e, ok := idx.posts[urn]
	return e, ok
}

// Lookup returns any included entity with the given URN, regardless of
// type. Used to chase indirect references such as video play metadata.
func (idx *EntityIndex) Lookup(urn string) (*voyager.Entity, bool) {
	e, ok := idx.all[urn]
	return e, ok
}

// PostCount returns the number of indexed post entities
func (idx *EntityIndex) PostCount() int {
	return len(idx.posts)
}
