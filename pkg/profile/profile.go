// Package profile resolves LinkedIn usernames to dash profile URNs by
// scraping the public profile page.
package profile

import (
	"bytes"
	"net/url"
	"regexp"
	"sync"

	"github.com/PuerkitoBio/goquery"

	errs "linkfeed/pkg/errors"
	"linkfeed/pkg/logger"
	"linkfeed/pkg/voyager"
)

var (
	urnPattern        = regexp.MustCompile(`urn:li:fsd_profile:[A-Za-z0-9_-]+`)
	encodedURNPattern = regexp.MustCompile(`urn%3Ali%3Afsd_profile%3A[A-Za-z0-9_-]+`)
)

// ExtractProfileURN pulls the dash profile URN out of a profile page.
// LinkedIn embeds page data in <code> blocks, so those are checked
// first before falling back to a scan of the whole document.
func ExtractProfileURN(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err == nil {
		var urn string
		doc.Find("code").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if match := findURN(s.Text()); match != "" {
				urn = match
				return false
			}
			return true
		})
		if urn != "" {
			return urn, nil
		}
	}

	if match := findURN(string(html)); match != "" {
		return match, nil
	}

	return "", &errs.Error{
		Type:    errs.ErrorTypeParsing,
		Message: "no profile URN found in page",
	}
}

func findURN(text string) string {
	if match := urnPattern.FindString(text); match != "" {
		return match
	}
	if match := encodedURNPattern.FindString(text); match != "" {
		decoded, err := url.QueryUnescape(match)
		if err == nil {
			return decoded
		}
	}
	return ""
}

// PageFetcher fetches the raw HTML of a profile page.
type PageFetcher interface {
	FetchProfilePage(username string) ([]byte, error)
}

// Resolver resolves usernames to profile URNs, caching results so that
// repeated runs against the same profile skip the page fetch.
type Resolver struct {
	fetcher PageFetcher
	logger  logger.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver creates a resolver backed by the given page fetcher
func NewResolver(fetcher PageFetcher, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		fetcher: fetcher,
		logger:  log,
		cache:   make(map[string]string),
	}
}

// Resolve returns the profile URN for a username or profile URL.
// A value that is already a URN is returned unchanged.
func (r *Resolver) Resolve(input string) (string, error) {
	if voyager.IsProfileURN(input) {
		return input, nil
	}

	username := voyager.SanitizeUsername(input)
	if username == "" {
		return "", &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "empty username",
		}
	}

	r.mu.RLock()
	urn, ok := r.cache[username]
	r.mu.RUnlock()
	if ok {
		return urn, nil
	}

	r.logger.DebugWithFields("resolving profile", map[string]interface{}{
		"username": username,
	})

	html, err := r.fetcher.FetchProfilePage(username)
	if err != nil {
		return "", err
	}

	urn, err = ExtractProfileURN(html)
	if err != nil {
		r.logger.WarnWithFields("profile page had no URN", map[string]interface{}{
			"username": username,
			"size":     len(html),
		})
		return "", err
	}

	r.mu.Lock()
	r.cache[username] = urn
	r.mu.Unlock()

	r.logger.InfoWithFields("resolved profile", map[string]interface{}{
		"username": username,
		"urn":      urn,
	})
	return urn, nil
}

// Prime seeds the cache with a known username to URN mapping
func (r *Resolver) Prime(username, urn string) {
	username = voyager.SanitizeUsername(username)
	if username == "" || !voyager.IsProfileURN(urn) {
		return
	}
	r.mu.Lock()
	r.cache[username] = urn
	r.mu.Unlock()
}
