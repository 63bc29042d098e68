package player

import (
	"context"
	"testing"
	"time"
)

func TestStreamOrder(t *testing.T) {
	s := NewStream(4, nil)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := s.Play(ctx, []byte{byte(i)}, 22050); err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
	}
	for i := 1; i <= 3; i++ {
		seg, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seg.PCM[0] != byte(i) {
			t.Fatalf("out of order: got %d at position %d", seg.PCM[0], i)
		}
	}
}

func TestStreamDropsOldestWhenFull(t *testing.T) {
	s := NewStream(2, nil)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := s.Play(ctx, []byte{byte(i)}, 22050); err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
	}
	if s.Pending() != 2 {
		t.Fatalf("pending = %d", s.Pending())
	}
	seg, _ := s.Next(ctx)
	if seg.PCM[0] != 2 {
		t.Fatalf("oldest not dropped, head = %d", seg.PCM[0])
	}
}

func TestStreamNextHonorsContext(t *testing.T) {
	s := NewStream(2, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Next(ctx); err == nil {
		t.Fatalf("expected context error on empty queue")
	}
}
