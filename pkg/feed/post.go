package feed

// MediaKind distinguishes image and video assets
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaAsset is one resolved image or video attached to a Post
type MediaAsset struct {
	Kind   MediaKind `json:"kind"`
	URL    string    `json:"url"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
}

// Post is one assembled, human-readable feed item. Posts are immutable
// once assembled; Sequence is assigned by the pagination controller.
type Post struct {
	ID               string       `json:"id"`
	EntityURN        string       `json:"entity_urn"`
	ActivityURN      string       `json:"activity_urn,omitempty"`
	ShareURN         string       `json:"share_urn,omitempty"`
	AuthorName       string       `json:"author_name"`
	AuthorHeadline   string       `json:"author_headline,omitempty"`
	AuthorProfileURN string       `json:"author_profile_urn,omitempty"`
	AuthorProfileURL string       `json:"author_profile_url,omitempty"`
	Text             string       `json:"text"`
	ShareURL         string       `json:"share_url"`
	Media            []MediaAsset `json:"media,omitempty"`
	Sequence         int          `json:"sequence"`
}

// Images returns the post's image assets in resolution order
func (p *Post) Images() []MediaAsset {
	return p.mediaOfKind(MediaKindImage)
}

// Videos returns the post's video assets
func (p *Post) Videos() []MediaAsset {
	return p.mediaOfKind(MediaKindVideo)
}

func (p *Post) mediaOfKind(kind MediaKind) []MediaAsset {
	var out []MediaAsset
	for _, m := range p.Media {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
