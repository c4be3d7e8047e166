package journal

import (
	"context"
	"fmt"
	"testing"
)

func TestInMemorySaveAndRecent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.SaveExchange(ctx, Exchange{
			SessionID:  "sess-1",
			Prompt:     fmt.Sprintf("q%d", i),
			Completion: fmt.Sprintf("a%d", i),
		})
		if err != nil {
			t.Fatalf("SaveExchange() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Prompt != "q1" || got[1].Prompt != "q2" {
		t.Fatalf("order wrong: %+v", got)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("ID and CreatedAt should be filled in")
	}
}

func TestInMemoryCapBounded(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < inMemoryCap+50; i++ {
		_ = s.SaveExchange(ctx, Exchange{Prompt: "p"})
	}
	got, err := s.Recent(ctx, inMemoryCap*2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != inMemoryCap {
		t.Fatalf("len = %d, want %d", len(got), inMemoryCap)
	}
}

func TestFactoryDefaultsToInMemory(t *testing.T) {
	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("empty DATABASE_URL should yield the in-memory store")
	}
}
