package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected request beyond capacity to be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("Expected first request to be allowed")
	}
	if tb.Allow() {
		t.Fatal("Expected second request to be denied before refill")
	}

	time.Sleep(30 * time.Millisecond)

	if !tb.Allow() {
		t.Error("Expected request to be allowed after refill period")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	tb.Allow()
	if tb.Allow() {
		t.Fatal("Expected bucket to be empty")
	}

	tb.Reset()
	if !tb.Allow() {
		t.Error("Expected request to be allowed after reset")
	}
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	tb.Allow()

	start := time.Now()
	tb.Wait()
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Wait took too long: %v", elapsed)
	}
}
