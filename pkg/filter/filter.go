// Package filter composes the selection stages applied to a timeline stream
// before anything is downloaded. Each stage wraps a post iterator and is
// itself one, so the fetch loop sees a single Next call regardless of which
// stages a run enables.
//
// Stage order matters and is fixed: limit, then checkpoint, then date floor.
// The limit caps the raw stream ("last N posts, then filter"), so it wraps
// the source directly; the checkpoint ends enumeration outright; the date
// floor runs last and only drops posts, never terminates, so a limited set
// is filtered down rather than refilled from deeper history.
package filter

import (
	"io"
	"time"

	"xdl/pkg/checkpoint"
	"xdl/pkg/timeline"
)

// Iterator is the pull interface every stage consumes and provides. Next
// returns io.EOF when the stream is exhausted.
type Iterator interface {
	Next() (*timeline.Post, error)
}

// Limit caps how many posts pass through. n <= 0 means unbounded and the
// source is returned unwrapped. Once the cap is reached no further Next call
// reaches the source, so no extra timeline pages get fetched.
func Limit(src Iterator, n int) Iterator {
	if n <= 0 {
		return src
	}
	return &limitIterator{src: src, remaining: n}
}

type limitIterator struct {
	src       Iterator
	remaining int
}

func (it *limitIterator) Next() (*timeline.Post, error) {
	if it.remaining <= 0 {
		return nil, io.EOF
	}
	post, err := it.src.Next()
	if err != nil {
		return nil, err
	}
	it.remaining--
	return post, nil
}

// CheckpointCut ends the stream at the first post that falls at or behind
// the checkpoint position. Posts arrive newest-first, so everything past
// that point was handled by an earlier run.
func CheckpointCut(src Iterator, cp *checkpoint.Checkpoint) Iterator {
	if cp == nil || cp.IsZero() {
		return src
	}
	return &checkpointIterator{src: src, cp: cp}
}

type checkpointIterator struct {
	src  Iterator
	cp   *checkpoint.Checkpoint
	done bool
}

func (it *checkpointIterator) Next() (*timeline.Post, error) {
	if it.done {
		return nil, io.EOF
	}
	post, err := it.src.Next()
	if err != nil {
		return nil, err
	}
	if it.cp.Seen(post.ID, post.Date) {
		it.done = true
		return nil, io.EOF
	}
	return post, nil
}

// DateFloor drops posts dated before the floor. It never terminates the
// stream: timelines are newest-first by post date only approximately (pinned
// or edited entries can appear out of order), so an old post does not prove
// everything after it is old too.
func DateFloor(src Iterator, floor time.Time) Iterator {
	if floor.IsZero() {
		return src
	}
	return &dateFloorIterator{src: src, floor: floor}
}

type dateFloorIterator struct {
	src   Iterator
	floor time.Time
}

func (it *dateFloorIterator) Next() (*timeline.Post, error) {
	for {
		post, err := it.src.Next()
		if err != nil {
			return nil, err
		}
		if post.Date.Before(it.floor) {
			continue
		}
		return post, nil
	}
}
