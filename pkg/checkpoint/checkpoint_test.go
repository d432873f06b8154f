package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestLoadMissingReturnsZero(t *testing.T) {
	store := newTestStore(t)

	cp := store.Load("nobody")
	if !cp.IsZero() {
		t.Errorf("Expected zero checkpoint for missing file, got %+v", cp)
	}
}

func TestLoadCorruptReturnsZero(t *testing.T) {
	store := newTestStore(t)

	path := store.Path("someuser")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	cp := store.Load("someuser")
	if !cp.IsZero() {
		t.Errorf("Expected zero checkpoint for corrupt file, got %+v", cp)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cp := &Checkpoint{
		LastDownloadedID:   "1764000000000000000",
		LastDownloadedDate: &date,
	}

	if err := store.Save("someuser", cp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := store.Load("someuser")
	if loaded.LastDownloadedID != cp.LastDownloadedID {
		t.Errorf("Expected id %s, got %s", cp.LastDownloadedID, loaded.LastDownloadedID)
	}
	if loaded.LastDownloadedDate == nil || !loaded.LastDownloadedDate.Equal(date) {
		t.Errorf("Expected date %v, got %v", date, loaded.LastDownloadedDate)
	}
	if loaded.LastUpdated.IsZero() {
		t.Error("Expected LastUpdated to be set on save")
	}
}

func TestSaveIsAtomic(t *testing.T) {
	store := newTestStore(t)

	cp := &Checkpoint{LastDownloadedID: "100"}
	if err := store.Save("someuser", cp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// No temp file may survive a successful save
	if _, err := os.Stat(store.Path("someuser") + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file left behind after save")
	}

	// JSON field names are part of the on-disk contract
	data, err := os.ReadFile(store.Path("someuser"))
	if err != nil {
		t.Fatalf("Failed to read checkpoint file: %v", err)
	}
	for _, field := range []string{"last_downloaded_id", "last_downloaded_date", "last_updated_timestamp"} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Checkpoint file missing field %q", field)
		}
	}
}

func TestDeleteAndExists(t *testing.T) {
	store := newTestStore(t)

	if store.Exists("someuser") {
		t.Error("Expected no checkpoint initially")
	}

	if err := store.Save("someuser", &Checkpoint{LastDownloadedID: "5"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Exists("someuser") {
		t.Error("Expected checkpoint to exist after save")
	}

	if err := store.Delete("someuser"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists("someuser") {
		t.Error("Expected checkpoint to not exist after delete")
	}

	// Deleting a missing checkpoint is not an error
	if err := store.Delete("someuser"); err != nil {
		t.Errorf("Delete of missing checkpoint failed: %v", err)
	}
}

func TestPathSanitizesUsername(t *testing.T) {
	store := newTestStore(t)

	path := store.Path("../evil/user")
	if filepath.Base(path) != ".._evil_user.json" {
		t.Errorf("Unexpected sanitized path: %s", path)
	}
}

func TestSeen(t *testing.T) {
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	cp := &Checkpoint{LastDownloadedID: "200", LastDownloadedDate: &date}

	tests := []struct {
		name string
		id   string
		date time.Time
		want bool
	}{
		{"exact id match", "200", date, true},
		{"older numeric id", "150", date.Add(-time.Hour), true},
		{"newer numeric id", "300", date.Add(time.Hour), false},
		{"non-numeric id older date", "abc", date.Add(-24 * time.Hour), true},
		{"non-numeric id newer date", "abc", date.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cp.Seen(tt.id, tt.date); got != tt.want {
				t.Errorf("Seen(%q, %v) = %v, want %v", tt.id, tt.date, got, tt.want)
			}
		})
	}

	zero := &Checkpoint{}
	if zero.Seen("100", date) {
		t.Error("Zero checkpoint should never report posts as seen")
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	cp := &Checkpoint{}

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !cp.Advance("100", d1) {
		t.Error("Expected first advance to succeed")
	}

	// Regression attempt is refused
	if cp.Advance("50", d1.Add(-time.Hour)) {
		t.Error("Expected advance to older id to be refused")
	}
	if cp.LastDownloadedID != "100" {
		t.Errorf("Watermark regressed to %s", cp.LastDownloadedID)
	}

	d2 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !cp.Advance("300", d2) {
		t.Error("Expected advance to newer id to succeed")
	}
	if cp.LastDownloadedID != "300" || !cp.LastDownloadedDate.Equal(d2) {
		t.Errorf("Unexpected watermark: %+v", cp)
	}
}
