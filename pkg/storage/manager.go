package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"linkfeed/pkg/config"
	"linkfeed/pkg/feed"
)

// Manager handles on-disk output for a single profile. Each profile
// gets a directory under the configured base, with media shared across
// runs and run artifacts optionally grouped into per-run folders.
type Manager struct {
	baseDir    string
	profileDir string
	runDir     string
	mediaDir   string
	saveRaw    bool

	downloadedMedia map[string]bool
	mu              sync.RWMutex
}

// NewManager creates a storage manager rooted at the profile's
// directory. When session folders are enabled, run artifacts go into a
// timestamped subdirectory so earlier runs are kept.
func NewManager(cfg *config.OutputConfig, username string) (*Manager, error) {
	profileDir := filepath.Join(cfg.BaseDirectory, sanitizePathComponent(username))

	runDir := profileDir
	if cfg.SessionFolders {
		runDir = filepath.Join(profileDir, "runs", time.Now().Format("20060102_150405"))
	}
	mediaDir := filepath.Join(profileDir, "media")

	for _, dir := range []string{runDir, mediaDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	manager := &Manager{
		baseDir:         cfg.BaseDirectory,
		profileDir:      profileDir,
		runDir:          runDir,
		mediaDir:        mediaDir,
		saveRaw:         cfg.SaveRawPages,
		downloadedMedia: make(map[string]bool),
	}

	if err := manager.scanExistingMedia(); err != nil {
		return nil, fmt.Errorf("failed to scan existing media: %w", err)
	}

	return manager, nil
}

// scanExistingMedia seeds the duplicate map from files already on disk
func (m *Manager) scanExistingMedia() error {
	entries, err := os.ReadDir(m.mediaDir)
	if err != nil {
		return fmt.Errorf("failed to read media directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			m.downloadedMedia[entry.Name()] = true
		}
	}
	return nil
}

// SaveRawPage writes the undecoded response body for one page. It is
// a no-op when raw page capture is disabled.
func (m *Manager) SaveRawPage(pageIndex int, body []byte) error {
	if !m.saveRaw {
		return nil
	}
	filename := filepath.Join(m.runDir, fmt.Sprintf("page_%03d.json", pageIndex))
	return atomicWrite(filename, body)
}

// SavePosts writes the collected posts as indented JSON
func (m *Manager) SavePosts(posts []feed.Post) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}
	return atomicWrite(filepath.Join(m.runDir, "posts.json"), data)
}

// SaveSummary writes the run result alongside the posts
func (m *Manager) SaveSummary(result *feed.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return atomicWrite(filepath.Join(m.runDir, "summary.json"), data)
}

// IsMediaDownloaded checks whether a media file already exists
func (m *Manager) IsMediaDownloaded(filename string) bool {
	m.mu.RLock()
	known := m.downloadedMedia[filename]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(filepath.Join(m.mediaDir, filename)); err == nil {
		m.mu.Lock()
		m.downloadedMedia[filename] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// SaveMedia writes a downloaded media file into the shared media
// directory using a temp file and rename so partial downloads never
// surface under the final name.
func (m *Manager) SaveMedia(filename string, data []byte) error {
	if err := atomicWrite(filepath.Join(m.mediaDir, filename), data); err != nil {
		return err
	}

	m.mu.Lock()
	m.downloadedMedia[filename] = true
	m.mu.Unlock()
	return nil
}

// MediaFilename builds the on-disk name for a post's media asset
func MediaFilename(postID string, index int, kind feed.MediaKind) string {
	ext := "jpg"
	if kind == feed.MediaKindVideo {
		ext = "mp4"
	}
	return fmt.Sprintf("%s_%d.%s", sanitizePathComponent(postID), index, ext)
}

// RunDir returns the directory holding this run's artifacts
func (m *Manager) RunDir() string {
	return m.runDir
}

// MediaDir returns the profile's shared media directory
func (m *Manager) MediaDir() string {
	return m.mediaDir
}

// ProfileDir returns the profile's root output directory
func (m *Manager) ProfileDir() string {
	return m.profileDir
}

// MediaCount returns the number of media files known to be on disk
func (m *Manager) MediaCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloadedMedia)
}

func atomicWrite(filename string, data []byte) error {
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func sanitizePathComponent(name string) string {
	name = strings.TrimSpace(name)
	name = unsafePathChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
