package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"linkfeed/pkg/config"
	"linkfeed/pkg/feed"
)

func testConfig(baseDir string) *config.OutputConfig {
	return &config.OutputConfig{
		BaseDirectory:  baseDir,
		SessionFolders: false,
		SaveRawPages:   true,
	}
}

func TestManagerMedia(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(testConfig(tempDir), "someuser")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.MediaCount() != 0 {
		t.Error("Expected initial media count to be 0")
	}
	if manager.IsMediaDownloaded("7100_0.jpg") {
		t.Error("Expected IsMediaDownloaded to return false for missing file")
	}

	testData := []byte("image bytes")
	if err := manager.SaveMedia("7100_0.jpg", testData); err != nil {
		t.Fatalf("Failed to save media: %v", err)
	}

	savedPath := filepath.Join(tempDir, "someuser", "media", "7100_0.jpg")
	content, err := os.ReadFile(savedPath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match saved data")
	}

	if !manager.IsMediaDownloaded("7100_0.jpg") {
		t.Error("Expected IsMediaDownloaded to return true after save")
	}
	if manager.MediaCount() != 1 {
		t.Errorf("Expected media count 1, got %d", manager.MediaCount())
	}
}

func TestManagerScansExistingMedia(t *testing.T) {
	tempDir := t.TempDir()

	first, err := NewManager(testConfig(tempDir), "someuser")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := first.SaveMedia("7100_0.jpg", []byte("data")); err != nil {
		t.Fatalf("Failed to save media: %v", err)
	}

	second, err := NewManager(testConfig(tempDir), "someuser")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if !second.IsMediaDownloaded("7100_0.jpg") {
		t.Error("Expected existing media to be detected on startup")
	}
	if second.MediaCount() != 1 {
		t.Errorf("Expected media count 1, got %d", second.MediaCount())
	}
}

func TestManagerSavesPostsAndSummary(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(testConfig(tempDir), "someuser")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	posts := []feed.Post{
		{ID: "7100", Text: "hello", Sequence: 1},
		{ID: "7101", ShareURL: "https://example.com/p", Sequence: 2},
	}
	if err := manager.SavePosts(posts); err != nil {
		t.Fatalf("Failed to save posts: %v", err)
	}

	result := &feed.Result{Succeeded: true, PagesCompleted: 1, Posts: posts}
	if err := manager.SaveSummary(result); err != nil {
		t.Fatalf("Failed to save summary: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(manager.RunDir(), "posts.json"))
	if err != nil {
		t.Fatalf("Failed to read posts file: %v", err)
	}
	var decoded []feed.Post
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode posts file: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ID != "7100" {
		t.Errorf("Unexpected decoded posts: %+v", decoded)
	}

	if _, err := os.Stat(filepath.Join(manager.RunDir(), "summary.json")); err != nil {
		t.Errorf("Expected summary file to exist: %v", err)
	}
}

func TestManagerRawPages(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(testConfig(tempDir), "someuser")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SaveRawPage(3, []byte(`{"data":{}}`)); err != nil {
		t.Fatalf("Failed to save raw page: %v", err)
	}
	if _, err := os.Stat(filepath.Join(manager.RunDir(), "page_003.json")); err != nil {
		t.Errorf("Expected raw page file to exist: %v", err)
	}

	// disabled capture writes nothing
	cfg := testConfig(t.TempDir())
	cfg.SaveRawPages = false
	quiet, err := NewManager(cfg, "someuser")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := quiet.SaveRawPage(1, []byte("{}")); err != nil {
		t.Fatalf("SaveRawPage with capture disabled: %v", err)
	}
	if _, err := os.Stat(filepath.Join(quiet.RunDir(), "page_001.json")); !os.IsNotExist(err) {
		t.Error("Expected no raw page file when capture is disabled")
	}
}

func TestManagerSessionFolders(t *testing.T) {
	tempDir := t.TempDir()
	cfg := testConfig(tempDir)
	cfg.SessionFolders = true

	manager, err := NewManager(cfg, "someuser")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	runs := filepath.Join(tempDir, "someuser", "runs")
	rel, err := filepath.Rel(runs, manager.RunDir())
	if err != nil || rel == ".." || filepath.IsAbs(rel) {
		t.Errorf("Expected run dir under %s, got %s", runs, manager.RunDir())
	}
}

func TestMediaFilename(t *testing.T) {
	if got := MediaFilename("7100", 0, feed.MediaKindImage); got != "7100_0.jpg" {
		t.Errorf("Unexpected image filename: %s", got)
	}
	if got := MediaFilename("7100", 1, feed.MediaKindVideo); got != "7100_1.mp4" {
		t.Errorf("Unexpected video filename: %s", got)
	}
	if got := MediaFilename("urn:li:activity:7100", 0, feed.MediaKindImage); got != "urn_li_activity_7100_0.jpg" {
		t.Errorf("Unexpected sanitized filename: %s", got)
	}
}
