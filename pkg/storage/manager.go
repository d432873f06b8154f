package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"xdl/pkg/timeline"
)

// Manager handles media file storage for one user directory and tracks
// which filenames are already on disk
type Manager struct {
	outputDir string
	existing  map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a storage manager rooted at <baseDir>/<username>
func NewManager(baseDir, username string) (*Manager, error) {
	outputDir := filepath.Join(baseDir, username)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		existing:  make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records the files already present so Exists can answer
// without hitting the disk for every item
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			m.existing[entry.Name()] = true
		}
	}

	return nil
}

// FileName computes the deterministic name for a media item:
// <YYYY-MM-DD>_<postID>_<index>.<ext>. The same post always produces the
// same names, which is what makes reruns idempotent on disk.
func FileName(post *timeline.Post, item *timeline.MediaItem) string {
	return fmt.Sprintf("%s_%s_%d.%s",
		post.Date.UTC().Format("2006-01-02"),
		post.ID,
		item.Index,
		extensionFor(item),
	)
}

// extensionFor takes the extension from the URL path when it looks like a
// real one, falling back to the media type's default. CDN URLs often carry
// query junk or no extension at all.
func extensionFor(item *timeline.MediaItem) string {
	if u, err := url.Parse(item.URL); err == nil {
		ext := strings.TrimPrefix(path.Ext(u.Path), ".")
		if ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}
	if item.Type == timeline.MediaTypeVideo {
		return "mp4"
	}
	return "jpg"
}

// Exists checks if a file with the given name is already on disk
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.existing[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	// Double-check the filesystem; another process may have written it
	if _, err := os.Stat(filepath.Join(m.outputDir, name)); err == nil {
		m.mu.Lock()
		m.existing[name] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// Save writes a media file atomically via a temp file and rename, so an
// interrupted run never leaves a truncated file that a later Exists check
// would mistake for a finished download
func (m *Manager) Save(r io.Reader, name string) error {
	filename := filepath.Join(m.outputDir, name)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save media data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.existing[name] = true
	m.mu.Unlock()

	return nil
}

// Dir returns the user's output directory path
func (m *Manager) Dir() string {
	return m.outputDir
}

// Count returns the number of files known to be on disk
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.existing)
}
