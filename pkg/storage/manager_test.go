package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xdl/pkg/timeline"
)

func testPost(id, date string) *timeline.Post {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &timeline.Post{ID: id, Date: d}
}

func TestFileName(t *testing.T) {
	post := testPost("1234567890", "2024-03-01")

	tests := []struct {
		name string
		item timeline.MediaItem
		want string
	}{
		{
			name: "image with extension",
			item: timeline.MediaItem{URL: "https://cdn.example.com/media/abc.jpg", Type: timeline.MediaTypeImage, Index: 1},
			want: "2024-03-01_1234567890_1.jpg",
		},
		{
			name: "extension survives query string",
			item: timeline.MediaItem{URL: "https://cdn.example.com/abc.png?name=large", Type: timeline.MediaTypeImage, Index: 2},
			want: "2024-03-01_1234567890_2.png",
		},
		{
			name: "video without extension falls back to mp4",
			item: timeline.MediaItem{URL: "https://video.example.com/tag/1234", Type: timeline.MediaTypeVideo, Index: 1},
			want: "2024-03-01_1234567890_1.mp4",
		},
		{
			name: "image without extension falls back to jpg",
			item: timeline.MediaItem{URL: "https://cdn.example.com/abc", Type: timeline.MediaTypeImage, Index: 3},
			want: "2024-03-01_1234567890_3.jpg",
		},
		{
			name: "overlong extension is treated as absent",
			item: timeline.MediaItem{URL: "https://cdn.example.com/abc.segment", Type: timeline.MediaTypeVideo, Index: 1},
			want: "2024-03-01_1234567890_1.mp4",
		},
		{
			name: "uppercase extension is normalized",
			item: timeline.MediaItem{URL: "https://cdn.example.com/abc.JPG", Type: timeline.MediaTypeImage, Index: 1},
			want: "2024-03-01_1234567890_1.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(post, &tt.item); got != tt.want {
				t.Errorf("FileName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewManagerCreatesUserDirectory(t *testing.T) {
	base := t.TempDir()

	m, err := NewManager(base, "someuser")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	want := filepath.Join(base, "someuser")
	if m.Dir() != want {
		t.Errorf("Dir = %q, want %q", m.Dir(), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("user directory was not created: %v", err)
	}
}

func TestSaveAndExists(t *testing.T) {
	m, err := NewManager(t.TempDir(), "someuser")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	name := "2024-03-01_100_1.jpg"
	if m.Exists(name) {
		t.Fatal("Exists should be false before save")
	}

	data := []byte("media bytes")
	if err := m.Save(bytes.NewReader(data), name); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !m.Exists(name) {
		t.Error("Exists should be true after save")
	}

	saved, err := os.ReadFile(filepath.Join(m.Dir(), name))
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if !bytes.Equal(saved, data) {
		t.Error("saved content does not match")
	}

	// No leftover temp file
	if _, err := os.Stat(filepath.Join(m.Dir(), name+".tmp")); !os.IsNotExist(err) {
		t.Error("temporary file was left behind")
	}
}

func TestManagerScansExistingFiles(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "someuser")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	name := "2024-01-01_50_1.jpg"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(base, "someuser")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if !m.Exists(name) {
		t.Error("pre-existing file not detected")
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}
}

func TestExistsChecksDiskBehindCache(t *testing.T) {
	m, err := NewManager(t.TempDir(), "someuser")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	name := "2024-02-02_75_1.png"
	if err := os.WriteFile(filepath.Join(m.Dir(), name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !m.Exists(name) {
		t.Error("file written after scan should still be detected")
	}
}
