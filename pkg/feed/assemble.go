package feed

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"linkfeed/pkg/voyager"
)

const (
	// activityMarker is the structured suffix carried by activity-scoped URNs
	activityMarker = ":activity:"

	// minFallbackTextLength is the shortest string the structural text
	// search will accept as a post body
	minFallbackTextLength = 10

	// maxTextSearchDepth caps the structural text search so that deeply
	// nested or adversarial payloads cannot trigger unbounded recursion
	maxTextSearchDepth = 4
)

// textSearchKeys are the candidate field names probed, in order, when
// the typed commentary field is absent
var textSearchKeys = []string{"text", "commentary", "description", "title", "content"}

// PostAssembler turns one post entity plus its page's EntityIndex into
// a normalized Post record
type PostAssembler struct {
	media *MediaResolver
}

// NewPostAssembler creates an assembler using the given media resolver.
// A nil resolver gets the default width preferences.
func NewPostAssembler(media *MediaResolver) *PostAssembler {
	if media == nil {
		media = NewMediaResolver()
	}
	return &PostAssembler{media: media}
}

// Assemble produces a Post from one entity, or ok=false when the entity
// should be skipped. A skip is not an error: it means the entity had
// neither body text nor a canonical URL. Missing optional fields are
// left empty, never propagated as failures.
func (a *PostAssembler) Assemble(entity *voyager.Entity, idx *EntityIndex) (*Post, bool) {
	if entity == nil {
		return nil, false
	}

	post := &Post{
		ID:        extractPostID(entity),
		EntityURN: entity.EntityURN,
		Text:      extractText(entity),
	}

	if entity.Metadata != nil {
		post.ActivityURN = entity.Metadata.BackendURN
		post.ShareURN = entity.Metadata.ShareURN
	}

	if entity.SocialContent != nil {
		post.ShareURL = entity.SocialContent.ShareURL
	}

	fillAuthor(post, entity.Actor)

	// Acceptance rule: a post without body text or a canonical URL
	// carries nothing worth emitting
	if post.Text == "" && post.ShareURL == "" {
		return nil, false
	}

	post.Media = a.media.Resolve(entity, idx)

	return post, true
}

// extractPostID derives a stable, deterministic identity for the entity.
// Preference order: the activity fragment embedded in one of the entity's
// URNs, then the raw entity URN, then a structural hash of the fields
// that distinguish one post from another.
func extractPostID(entity *voyager.Entity) string {
	candidates := []string{entity.EntityURN}
	if entity.Metadata != nil {
		candidates = append(candidates, entity.Metadata.BackendURN, entity.Metadata.ShareURN)
	}

	for _, urn := range candidates {
		if id := activityFragment(urn); id != "" {
			return id
		}
	}

	if entity.EntityURN != "" {
		return entity.EntityURN
	}

	return structuralID(entity)
}

// activityFragment extracts the numeric activity identifier from a URN
// such as urn:li:fsd_update:(urn:li:activity:7100,FEED)
func activityFragment(urn string) string {
	idx := strings.Index(urn, activityMarker)
	if idx < 0 {
		return ""
	}

	rest := urn[idx+len(activityMarker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return ""
	}
	return rest[:end]
}

// structuralID hashes the entity's distinguishing fields into a fallback
// identity. Identical entities always hash to the same identity, and the
// x prefix keeps the namespace disjoint from real activity identifiers.
func structuralID(entity *voyager.Entity) string {
	h := fnv.New64a()

	if entity.Actor != nil && entity.Actor.Name != nil {
		h.Write([]byte(entity.Actor.Name.Text))
	}
	h.Write([]byte{0})
	if entity.Commentary != nil {
		h.Write([]byte(entity.Commentary.Text.Text))
	}
	h.Write([]byte{0})
	if entity.SocialContent != nil {
		h.Write([]byte(entity.SocialContent.ShareURL))
	}
	h.Write([]byte{0})
	h.Write([]byte(rawTimestamp(entity.Raw)))

	return fmt.Sprintf("x%016x", h.Sum64())
}

// rawTimestamp pulls a creation-time marker out of the undecoded entity
// so that same-author, same-text posts still hash apart. The provider
// carries either a numeric epoch field or the rendered relative-time
// string on the actor.
func rawTimestamp(raw map[string]interface{}) string {
	for _, key := range []string{"timestamp", "createdAt", "publishedAt", "createdTime"} {
		switch t := raw[key].(type) {
		case float64:
			return strconv.FormatInt(int64(t), 10)
		case string:
			if t != "" {
				return t
			}
		}
	}

	if actor, ok := raw["actor"].(map[string]interface{}); ok {
		if sub, ok := actor["subDescription"].(map[string]interface{}); ok {
			if s, ok := sub["text"].(string); ok {
				return s
			}
		}
	}
	return ""
}

// extractText reads the post body from the typed commentary wrapper and
// falls back to a bounded structural search when it is absent
func extractText(entity *voyager.Entity) string {
	if entity.Commentary != nil && entity.Commentary.Text.Text != "" {
		return entity.Commentary.Text.Text
	}
	return searchText(entity.Raw, 0)
}

// searchText walks the raw entity looking for the first plausible body
// string held under one of the candidate keys. The walk is depth-capped
// and descends through every value, but only a string sitting directly
// under a candidate key is accepted, so intermediate wrapper objects
// like resharedUpdate do not hide the body.
func searchText(node interface{}, depth int) string {
	if depth > maxTextSearchDepth {
		return ""
	}

	switch v := node.(type) {
	case map[string]interface{}:
		for _, key := range textSearchKeys {
			child, ok := v[key]
			if !ok {
				continue
			}
			if s, ok := child.(string); ok && len(s) >= minFallbackTextLength {
				return s
			}
			if found := searchText(child, depth+1); found != "" {
				return found
			}
		}

		// The body may sit below an intermediate key outside the
		// candidate list. Remaining values are visited in sorted key
		// order so the result does not depend on map iteration.
		rest := make([]string, 0, len(v))
		for key := range v {
			if !isTextSearchKey(key) {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			if found := searchText(v[key], depth+1); found != "" {
				return found
			}
		}
	case []interface{}:
		for _, item := range v {
			if found := searchText(item, depth+1); found != "" {
				return found
			}
		}
	}

	return ""
}

func isTextSearchKey(key string) bool {
	for _, candidate := range textSearchKeys {
		if key == candidate {
			return true
		}
	}
	return false
}

// fillAuthor copies author fields from the actor, tolerating any missing
// link in the nested image to profile back-reference chain
func fillAuthor(post *Post, actor *voyager.Actor) {
	if actor == nil {
		return
	}

	if actor.Name != nil {
		post.AuthorName = actor.Name.Text
	}
	if actor.Description != nil {
		post.AuthorHeadline = actor.Description.Text
	}
	if actor.NavigationContext != nil {
		post.AuthorProfileURL = actor.NavigationContext.ActionTarget
	}

	if actor.Image != nil && len(actor.Image.Attributes) > 0 {
		detail := actor.Image.Attributes[0].DetailData
		if detail != nil && detail.NonEntityProfilePicture != nil {
			post.AuthorProfileURN = detail.NonEntityProfilePicture.ProfileRef
		}
	}
}
