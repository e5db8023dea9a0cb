// Package feed turns decoded voyager pages into clean, ordered posts.
//
// The pipeline per page: index the included entities by URN, walk the
// page's ordered reference list, assemble each referenced update into a
// Post (author, text, canonical URL, resolved media), drop entities
// that carry neither text nor a share URL, and deduplicate across
// pages by post ID. The Controller drives this over a token-chained
// sequence of pages and assigns each emitted post a continuous global
// sequence number.
//
// Media resolution follows the references inside an update: image
// components carry their artifacts inline, video components point at a
// separate videoPlayMetadata entity whose progressive streams are
// matched against the preferred width.
package feed
