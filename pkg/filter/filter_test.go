package filter

import (
	"io"
	"testing"
	"time"

	"xdl/pkg/checkpoint"
	"xdl/pkg/timeline"
)

// sliceIterator yields a fixed set of posts and counts pulls so tests can
// assert short-circuiting.
type sliceIterator struct {
	posts []timeline.Post
	pulls int
}

func (it *sliceIterator) Next() (*timeline.Post, error) {
	if len(it.posts) == 0 {
		return nil, io.EOF
	}
	it.pulls++
	post := it.posts[0]
	it.posts = it.posts[1:]
	return &post, nil
}

func mkPost(id string, date string) timeline.Post {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return timeline.Post{ID: id, Date: d}
}

func drain(t *testing.T, it Iterator) []string {
	t.Helper()
	var ids []string
	for {
		post, err := it.Next()
		if err == io.EOF {
			return ids
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, post.ID)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLimit(t *testing.T) {
	t.Run("caps the stream", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("3", "2024-03-01"),
			mkPost("2", "2024-02-01"),
			mkPost("1", "2024-01-01"),
		}}

		ids := drain(t, Limit(src, 1))
		if !equal(ids, []string{"3"}) {
			t.Errorf("got %v, want [3]", ids)
		}
		if src.pulls != 1 {
			t.Errorf("source pulled %d times, want 1", src.pulls)
		}
	})

	t.Run("zero means unbounded", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("2", "2024-02-01"),
			mkPost("1", "2024-01-01"),
		}}

		ids := drain(t, Limit(src, 0))
		if !equal(ids, []string{"2", "1"}) {
			t.Errorf("got %v, want [2 1]", ids)
		}
	})

	t.Run("fewer posts than limit", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("1", "2024-01-01"),
		}}

		ids := drain(t, Limit(src, 5))
		if !equal(ids, []string{"1"}) {
			t.Errorf("got %v, want [1]", ids)
		}
	})
}

func TestCheckpointCut(t *testing.T) {
	t.Run("stops at seen post", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("3", "2024-03-01"),
			mkPost("2", "2024-02-01"),
			mkPost("1", "2024-01-01"),
		}}
		cp := &checkpoint.Checkpoint{LastDownloadedID: "1"}

		ids := drain(t, CheckpointCut(src, cp))
		if !equal(ids, []string{"3", "2"}) {
			t.Errorf("got %v, want [3 2]", ids)
		}
	})

	t.Run("stops before older snowflakes even without exact match", func(t *testing.T) {
		// The checkpointed post may have been deleted; numeric order
		// still identifies the seen region.
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("300", "2024-03-01"),
			mkPost("150", "2024-02-01"),
		}}
		cp := &checkpoint.Checkpoint{LastDownloadedID: "200"}

		ids := drain(t, CheckpointCut(src, cp))
		if !equal(ids, []string{"300"}) {
			t.Errorf("got %v, want [300]", ids)
		}
	})

	t.Run("zero checkpoint is passthrough", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("2", "2024-02-01"),
			mkPost("1", "2024-01-01"),
		}}

		ids := drain(t, CheckpointCut(src, &checkpoint.Checkpoint{}))
		if !equal(ids, []string{"2", "1"}) {
			t.Errorf("got %v, want [2 1]", ids)
		}
	})

	t.Run("does not pull past the cut", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("3", "2024-03-01"),
			mkPost("2", "2024-02-01"),
			mkPost("1", "2024-01-01"),
		}}
		cp := &checkpoint.Checkpoint{LastDownloadedID: "3"}

		it := CheckpointCut(src, cp)
		if _, err := it.Next(); err != io.EOF {
			t.Fatalf("expected io.EOF, got %v", err)
		}
		if _, err := it.Next(); err != io.EOF {
			t.Fatalf("expected io.EOF on second call, got %v", err)
		}
		if src.pulls != 1 {
			t.Errorf("source pulled %d times, want 1", src.pulls)
		}
	})
}

func TestDateFloor(t *testing.T) {
	floor, _ := time.Parse("2006-01-02", "2024-02-15")

	t.Run("drops older posts without terminating", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("3", "2024-03-01"),
			mkPost("2", "2024-02-01"),
			mkPost("4", "2024-03-05"), // out-of-order entry behind an old one
		}}

		ids := drain(t, DateFloor(src, floor))
		if !equal(ids, []string{"3", "4"}) {
			t.Errorf("got %v, want [3 4]", ids)
		}
	})

	t.Run("zero floor is passthrough", func(t *testing.T) {
		src := &sliceIterator{posts: []timeline.Post{
			mkPost("1", "2020-01-01"),
		}}

		ids := drain(t, DateFloor(src, time.Time{}))
		if !equal(ids, []string{"1"}) {
			t.Errorf("got %v, want [1]", ids)
		}
	})
}

// Limit applies to the raw stream before the date floor filters it: the run
// takes the last N posts and then narrows, it never digs deeper to refill.
func TestLimitThenDateFloor(t *testing.T) {
	floor, _ := time.Parse("2006-01-02", "2024-02-15")
	src := &sliceIterator{posts: []timeline.Post{
		mkPost("3", "2024-03-01"),
		mkPost("2", "2024-02-01"),
		mkPost("1", "2024-01-01"),
	}}

	pipeline := DateFloor(Limit(src, 2), floor)

	ids := drain(t, pipeline)
	if !equal(ids, []string{"3"}) {
		t.Errorf("got %v, want [3]", ids)
	}
	if src.pulls != 2 {
		t.Errorf("source pulled %d times, want 2", src.pulls)
	}
}

func TestFullPipeline(t *testing.T) {
	floor, _ := time.Parse("2006-01-02", "2024-01-15")
	src := &sliceIterator{posts: []timeline.Post{
		mkPost("5", "2024-05-01"),
		mkPost("4", "2024-04-01"),
		mkPost("3", "2024-03-01"),
		mkPost("2", "2024-02-01"),
		mkPost("1", "2024-01-01"),
	}}
	cp := &checkpoint.Checkpoint{LastDownloadedID: "2"}

	pipeline := DateFloor(CheckpointCut(Limit(src, 4), cp), floor)

	ids := drain(t, pipeline)
	if !equal(ids, []string{"5", "4", "3"}) {
		t.Errorf("got %v, want [5 4 3]", ids)
	}
}
