// Package storage manages the on-disk layout of collected feeds.
//
// Each profile gets a directory under the configured base:
//
//	<base>/<username>/posts.json        collected posts (latest run)
//	<base>/<username>/summary.json      run outcome
//	<base>/<username>/page_NNN.json     raw response bodies (optional)
//	<base>/<username>/media/            downloaded images and videos
//
// With session folders enabled, run artifacts move into
// <base>/<username>/runs/<timestamp>/ so earlier runs are preserved;
// media stays shared across runs for duplicate detection.
//
// All writes go through a temp file and rename so a crash never leaves
// a partially written file under its final name.
package storage
