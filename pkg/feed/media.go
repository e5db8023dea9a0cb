package feed

import (
	"linkfeed/pkg/voyager"
)

// Resolution widths tried in preference order when picking a video stream
const (
	DefaultPreferredVideoWidth = 640
	DefaultFallbackVideoWidth  = 720
)

// MediaResolver recovers image and video assets from a post entity.
// Every field is optional: anything that cannot be resolved is omitted
// rather than failing the post.
type MediaResolver struct {
	// PreferredVideoWidth selects the progressive stream to favor
	PreferredVideoWidth int
	// FallbackVideoWidth is tried when no stream matches the preferred width
	FallbackVideoWidth int
}

// NewMediaResolver creates a resolver with the default width preferences
func NewMediaResolver() *MediaResolver {
	return &MediaResolver{
		PreferredVideoWidth: DefaultPreferredVideoWidth,
		FallbackVideoWidth:  DefaultFallbackVideoWidth,
	}
}

// Resolve returns all media assets for one post entity: images first,
// in their original order, then the single best video if one exists.
func (r *MediaResolver) Resolve(entity *voyager.Entity, idx *EntityIndex) []MediaAsset {
	var assets []MediaAsset
	assets = append(assets, r.resolveImages(entity)...)
	if video, ok := r.resolveVideo(entity, idx); ok {
		assets = append(assets, video)
	}
	return assets
}

// resolveImages extracts the best-quality URL of each attached image.
// Images resolve independently; one unresolvable image does not affect
// its siblings.
func (r *MediaResolver) resolveImages(entity *voyager.Entity) []MediaAsset {
	if entity.Content == nil || entity.Content.ImageComponent == nil {
		return nil
	}

	var assets []MediaAsset
	for _, image := range entity.Content.ImageComponent.Images {
		if len(image.Attributes) == 0 {
			continue
		}
		detail := image.Attributes[0].DetailData
		if detail == nil || detail.VectorImage == nil {
			continue
		}

		vector := detail.VectorImage
		if vector.RootURL == "" || len(vector.Artifacts) == 0 {
			continue
		}

		best := bestArtifact(vector.Artifacts)
		if best.FileIdentifyingURLPathSegment == "" {
			continue
		}

		assets = append(assets, MediaAsset{
			Kind:   MediaKindImage,
			URL:    vector.RootURL + best.FileIdentifyingURLPathSegment,
			Width:  best.Width,
			Height: best.Height,
		})
	}

	return assets
}

// bestArtifact picks the artifact with the maximum width, ties broken
// by first-encountered order
func bestArtifact(artifacts []voyager.Artifact) voyager.Artifact {
	best := artifacts[0]
	for _, a := range artifacts[1:] {
		if a.Width > best.Width {
			best = a
		}
	}
	return best
}

// resolveVideo chases the post's video play metadata reference and picks
// a progressive stream. Preference order: a stream whose width or height
// equals the preferred width, then the fallback width, then the first
// stream with any URL. Absence of the metadata entity or of any stream
// yields no asset, not an error.
func (r *MediaResolver) resolveVideo(entity *voyager.Entity, idx *EntityIndex) (MediaAsset, bool) {
	if entity.Content == nil || entity.Content.LinkedInVideoComponent == nil {
		return MediaAsset{}, false
	}
	ref := entity.Content.LinkedInVideoComponent.VideoPlayMetadataRef
	if ref == "" {
		return MediaAsset{}, false
	}

	metadata, ok := idx.Lookup(ref)
	if !ok {
		return MediaAsset{}, false
	}

	var preferred, fallback, first *MediaAsset
	for _, stream := range metadata.ProgressiveStreams {
		if len(stream.StreamingLocations) == 0 {
			continue
		}
		url := stream.StreamingLocations[0].URL
		if url == "" {
			continue
		}

		asset := &MediaAsset{
			Kind:   MediaKindVideo,
			URL:    url,
			Width:  stream.Width,
			Height: stream.Height,
		}

		if first == nil {
			first = asset
		}
		if stream.Width == r.PreferredVideoWidth || stream.Height == r.PreferredVideoWidth {
			preferred = asset
		}
		if stream.Width == r.FallbackVideoWidth || stream.Height == r.FallbackVideoWidth {
			fallback = asset
		}
	}

	switch {
	case preferred != nil:
		return *preferred, true
	case fallback != nil:
		return *fallback, true
	case first != nil:
		return *first, true
	default:
		return MediaAsset{}, false
	}
}
