package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"xdl/pkg/logger"
)

// Checkpoint is the per-username resume marker. The zero value means "no
// checkpoint": empty id, nil date, epoch timestamp.
type Checkpoint struct {
	LastDownloadedID   string     `json:"last_downloaded_id"`
	LastDownloadedDate *time.Time `json:"last_downloaded_date"`
	LastUpdated        time.Time  `json:"last_updated_timestamp"`
}

// IsZero reports whether the checkpoint carries no resume position
func (cp *Checkpoint) IsZero() bool {
	return cp.LastDownloadedID == "" && cp.LastDownloadedDate == nil
}

// Seen reports whether a post with the given id/date falls at or behind the
// checkpoint position. Post ids are snowflakes, so numeric comparison is the
// primary ordering; the date cutoff applies when either id is non-numeric.
func (cp *Checkpoint) Seen(id string, date time.Time) bool {
	if cp.LastDownloadedID != "" {
		if id == cp.LastDownloadedID {
			return true
		}
		postID, okPost := parseID(id)
		cpID, okCP := parseID(cp.LastDownloadedID)
		if okPost && okCP {
			return postID <= cpID
		}
	}
	if cp.LastDownloadedDate != nil && date.Before(*cp.LastDownloadedDate) {
		return true
	}
	return false
}

// Advance moves the watermark to the given post if it is newer than the
// current position. Returns true if the checkpoint changed. The watermark
// never regresses.
func (cp *Checkpoint) Advance(id string, date time.Time) bool {
	if id == "" {
		return false
	}
	if cp.LastDownloadedID != "" {
		newID, okNew := parseID(id)
		curID, okCur := parseID(cp.LastDownloadedID)
		if okNew && okCur {
			if newID <= curID {
				return false
			}
		} else if cp.LastDownloadedDate != nil && !date.After(*cp.LastDownloadedDate) {
			return false
		}
	}

	cp.LastDownloadedID = id
	d := date
	cp.LastDownloadedDate = &d
	return true
}

func parseID(id string) (uint64, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	return n, err == nil
}

// Store handles checkpoint persistence, one JSON file per username
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a checkpoint store rooted at the platform data directory
func NewStore() (*Store, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewStoreAt(filepath.Join(dataDir, "checkpoints"))
}

// NewStoreAt creates a checkpoint store rooted at an explicit directory
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.GetLogger(),
	}, nil
}

// Path returns the checkpoint file path for a username
func (s *Store) Path(username string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(username)
	return filepath.Join(s.dir, safe+".json")
}

// Load reads the checkpoint for a username. A missing or unreadable file is
// not an error: it is logged and a zero checkpoint is returned, so a corrupt
// file only costs a re-scan, never a failed run.
func (s *Store) Load(username string) *Checkpoint {
	path := s.Path(username)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WarnWithFields("Could not read checkpoint file, treating as absent", map[string]interface{}{
				"username": username,
				"path":     path,
				"error":    err.Error(),
			})
		}
		return &Checkpoint{}
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.logger.WarnWithFields("Could not parse checkpoint file, treating as absent", map[string]interface{}{
			"username": username,
			"path":     path,
			"error":    err.Error(),
		})
		return &Checkpoint{}
	}

	s.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"username":           username,
		"last_downloaded_id": cp.LastDownloadedID,
		"updated_at":         cp.LastUpdated,
	})

	return &cp
}

// Save writes the checkpoint atomically (temp file + fsync + rename) so a
// crash mid-write never leaves a half-written file behind.
func (s *Store) Save(username string, cp *Checkpoint) error {
	cp.LastUpdated = time.Now()

	path := s.Path(username)
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"username":           username,
		"last_downloaded_id": cp.LastDownloadedID,
	})

	return nil
}

// Delete removes the checkpoint file for a username
func (s *Store) Delete(username string) error {
	if err := os.Remove(s.Path(username)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	s.logger.InfoWithFields("Checkpoint deleted", map[string]interface{}{
		"username": username,
	})
	return nil
}

// Exists checks if a checkpoint file exists for a username
func (s *Store) Exists(username string) bool {
	_, err := os.Stat(s.Path(username))
	return err == nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		// Use XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "xdl")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "xdl")
		}
	case "darwin":
		// macOS: ~/Library/Application Support
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "xdl")
	case "windows":
		// Windows: %APPDATA%
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "xdl")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
