package voyager

import (
	"encoding/json"

	errs "linkfeed/pkg/errors"
)

// TypeUpdate is the type discriminator carried by feed post entities
const TypeUpdate = "com.linkedin.voyager.dash.feed.Update"

// Page is one decoded activity API response. The response is denormalized:
// the feed envelope carries an ordered list of entity URNs and the included
// list carries the flat, unordered entities they refer to.
type Page struct {
	Data     PageData `json:"data"`
	Included []Entity `json:"included"`

	// Raw is the undecoded response body, kept for raw page capture
	Raw []byte `json:"-"`
}

// PageData wraps the doubly nested data envelope of the GraphQL response
type PageData struct {
	Data InnerData `json:"data"`
}

// InnerData holds the member share feed envelope
type InnerData struct {
	Feed FeedEnvelope `json:"feedDashProfileUpdatesByMemberShareFeed"`
}

// FeedEnvelope carries the ordered reference list and pagination metadata
type FeedEnvelope struct {
	Elements []string      `json:"*elements"`
	Metadata *FeedMetadata `json:"metadata"`
}

// FeedMetadata holds the continuation token for the next page
type FeedMetadata struct {
	PaginationToken string `json:"paginationToken"`
}

// Elements returns the ordered list of post entity URNs, which may be empty
func (p *Page) Elements() []string {
	return p.Data.Data.Feed.Elements
}

// PaginationToken returns the continuation token for the next page,
// or an empty string when the response carries none
func (p *Page) PaginationToken() string {
	if p.Data.Data.Feed.Metadata == nil {
		return ""
	}
	return p.Data.Data.Feed.Metadata.PaginationToken
}

// Entity is one typed object from the included list. Only the fields the
// assembler needs are decoded; the raw form is retained so that text
// extraction can fall back to a bounded structural search when the typed
// commentary field is absent.
type Entity struct {
	Type          string          `json:"$type"`
	EntityURN     string          `json:"entityUrn"`
	Metadata      *UpdateMetadata `json:"metadata"`
	Commentary    *Commentary     `json:"commentary"`
	SocialContent *SocialContent  `json:"socialContent"`
	Actor         *Actor          `json:"actor"`
	Content       *Content        `json:"content"`

	// ProgressiveStreams is populated on video play metadata entities
	ProgressiveStreams []ProgressiveStream `json:"progressiveStreams"`

	Raw map[string]interface{} `json:"-"`
}

// UnmarshalJSON decodes the typed fields and retains the raw object
func (e *Entity) UnmarshalJSON(data []byte) error {
	type entityAlias Entity
	var a entityAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Entity(a)

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err == nil {
		e.Raw = raw
	}
	return nil
}

// UpdateMetadata carries the backing activity identifiers of a post
type UpdateMetadata struct {
	BackendURN string `json:"backendUrn"`
	ShareURN   string `json:"shareUrn"`
}

// TextViewModel is the provider's wrapper around display text
type TextViewModel struct {
	Text string `json:"text"`
}

// Commentary holds the post body text
type Commentary struct {
	Text TextViewModel `json:"text"`
}

// SocialContent carries the canonical share URL of a post
type SocialContent struct {
	ShareURL string `json:"shareUrl"`
}

// Actor describes the author of a post
type Actor struct {
	Name              *TextViewModel     `json:"name"`
	Description       *TextViewModel     `json:"description"`
	NavigationContext *NavigationContext `json:"navigationContext"`
	Image             *ImageViewModel    `json:"image"`
}

// NavigationContext holds the author's profile link
type NavigationContext struct {
	ActionTarget string `json:"actionTarget"`
}

// ImageViewModel wraps a list of image attributes
type ImageViewModel struct {
	Attributes []ImageAttribute `json:"attributes"`
}

// ImageAttribute carries the detail payload of one image attribute
type ImageAttribute struct {
	DetailData *DetailData `json:"detailData"`
}

// DetailData is a union of the attribute payloads the assembler reads
type DetailData struct {
	VectorImage             *VectorImage             `json:"vectorImage"`
	NonEntityProfilePicture *NonEntityProfilePicture `json:"nonEntityProfilePicture"`
}

// NonEntityProfilePicture back-references the author's profile entity
type NonEntityProfilePicture struct {
	ProfileRef string `json:"*profile"`
}

// VectorImage describes an image as a base URL plus sized artifacts
type VectorImage struct {
	RootURL   string     `json:"rootUrl"`
	Artifacts []Artifact `json:"artifacts"`
}

// Artifact is one size variant of a vector image
type Artifact struct {
	Width                         int    `json:"width"`
	Height                        int    `json:"height"`
	FileIdentifyingURLPathSegment string `json:"fileIdentifyingUrlPathSegment"`
}

// Content holds the media components attached to a post
type Content struct {
	ImageComponent         *ImageComponent `json:"imageComponent"`
	LinkedInVideoComponent *VideoComponent `json:"linkedInVideoComponent"`
}

// ImageComponent carries the images attached to a post
type ImageComponent struct {
	Images []ImageViewModel `json:"images"`
}

// VideoComponent references the video play metadata entity by URN
type VideoComponent struct {
	VideoPlayMetadataRef string `json:"*videoPlayMetadata"`
}

// ProgressiveStream is one downloadable rendition of a video
type ProgressiveStream struct {
	Width              int                 `json:"width"`
	Height             int                 `json:"height"`
	StreamingLocations []StreamingLocation `json:"streamingLocations"`
}

// StreamingLocation holds a direct stream URL
type StreamingLocation struct {
	URL string `json:"url"`
}

// ParsePage decodes a raw response body into a Page. A body that is not
// valid JSON for the expected envelope is a parsing error; an envelope
// with missing elements or included lists decodes to an empty page.
func ParsePage(body []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "malformed activity response: " + err.Error(),
		}
	}
	page.Raw = body
	return &page, nil
}
