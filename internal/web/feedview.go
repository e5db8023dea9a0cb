package web

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"linkfeed/pkg/feed"
	"linkfeed/pkg/storage"
)

// FeedItem is one post of the aggregated feed, annotated with its
// owner and local media paths
type FeedItem struct {
	Username   string    `json:"username"`
	Post       feed.Post `json:"post"`
	MediaPaths []string  `json:"media_paths,omitempty"`
}

// buildFeed loads each user's latest collected posts and interleaves
// them into one randomized feed
func (s *Server) buildFeed(usernames []string) ([]FeedItem, error) {
	perUser := make(map[string][]feed.Post, len(usernames))
	for _, username := range usernames {
		posts, err := s.loadPosts(username)
		if err != nil {
			s.logger.DebugWithFields("no posts for user", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
			})
			continue
		}
		if len(posts) > 0 {
			perUser[username] = posts
		}
	}

	items := InterleavePosts(perUser, nil)
	for i := range items {
		items[i].MediaPaths = s.mediaPaths(items[i].Username, &items[i].Post)
	}
	return items, nil
}

// loadPosts reads the most recent posts.json for a user. With session
// folders enabled the newest run directory wins.
func (s *Server) loadPosts(username string) ([]feed.Post, error) {
	profileDir := filepath.Join(s.cfg.Output.BaseDirectory, username)

	path := filepath.Join(profileDir, "posts.json")
	if _, err := os.Stat(path); err != nil {
		latest, err := latestRunDir(filepath.Join(profileDir, "runs"))
		if err != nil {
			return nil, err
		}
		path = filepath.Join(latest, "posts.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var posts []feed.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("corrupt posts file for %s: %w", username, err)
	}
	return posts, nil
}

// latestRunDir returns the lexically newest run directory, matching the
// timestamp naming used when runs are written
func latestRunDir(runsDir string) (string, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return "", err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no runs found in %s", runsDir)
	}
	sort.Strings(names)
	return filepath.Join(runsDir, names[len(names)-1]), nil
}

// mediaPaths lists the served URLs for a post's media that exist on disk
func (s *Server) mediaPaths(username string, post *feed.Post) []string {
	var paths []string
	for i, asset := range post.Media {
		filename := storage.MediaFilename(post.ID, i, asset.Kind)
		onDisk := filepath.Join(s.cfg.Output.BaseDirectory, username, "media", filename)
		if _, err := os.Stat(onDisk); err == nil {
			paths = append(paths, "/media/"+username+"/"+filename)
		}
	}
	return paths
}

// InterleavePosts merges per-user post lists into one feed. The pick
// order across users is random but each user's own posts keep their
// sequence order. A nil rng uses the shared global source.
func InterleavePosts(perUser map[string][]feed.Post, rng *rand.Rand) []FeedItem {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}

	// stable iteration base so the same rng seed gives the same feed
	usernames := make([]string, 0, len(perUser))
	total := 0
	for username, posts := range perUser {
		usernames = append(usernames, username)
		total += len(posts)
	}
	sort.Strings(usernames)

	queues := make(map[string][]feed.Post, len(perUser))
	for username, posts := range perUser {
		queues[username] = posts
	}

	items := make([]FeedItem, 0, total)
	for len(usernames) > 0 {
		i := intn(len(usernames))
		username := usernames[i]

		queue := queues[username]
		items = append(items, FeedItem{Username: username, Post: queue[0]})

		if len(queue) == 1 {
			usernames = append(usernames[:i], usernames[i+1:]...)
			delete(queues, username)
		} else {
			queues[username] = queue[1:]
		}
	}
	return items
}
