// Package voyager implements the LinkedIn voyager API client and the
// decoding of its normalized responses.
//
// The activity feed endpoint returns a denormalized envelope: an
// ordered list of entity URN references plus a flat "included" array
// carrying the referenced entities in arbitrary order. Page holds that
// envelope; Entity is the tagged-union decoding of one included
// element, keeping both the typed fields the application consumes and
// the raw JSON object for fallback inspection.
//
// The Client carries the session cookies and the headers the endpoint
// requires, in particular the normalized JSON accept header and the
// csrf-token derived from the JSESSIONID cookie. Pagination is
// token-chained: every page after the first needs the paginationToken
// extracted from the previous response.
package voyager
