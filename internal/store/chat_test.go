package store

import (
	"context"
	"testing"
)

func TestChatHistory_ChronologicalOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"bonjour", "comment optimiser mon PC ?", "lance le nettoyage"} {
		if _, err := s.AddChatMessage(ctx, "user", content); err != nil {
			t.Fatalf("AddChatMessage() failed: %v", err)
		}
	}

	messages, err := s.ListChatHistory(ctx, 10)
	if err != nil {
		t.Fatalf("ListChatHistory() failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, expected 3", len(messages))
	}
	if messages[0].Content != "bonjour" || messages[2].Content != "lance le nettoyage" {
		t.Errorf("messages not chronological: %q ... %q", messages[0].Content, messages[2].Content)
	}
}

func TestChatHistory_LimitKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		if _, err := s.AddChatMessage(ctx, "user", content); err != nil {
			t.Fatalf("AddChatMessage() failed: %v", err)
		}
	}

	messages, err := s.ListChatHistory(ctx, 2)
	if err != nil {
		t.Fatalf("ListChatHistory() failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, expected 2", len(messages))
	}
	if messages[0].Content != "two" || messages[1].Content != "three" {
		t.Errorf("limit should keep newest messages: %+v", messages)
	}
}

func TestClearChatHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddChatMessage(ctx, "assistant", "fini"); err != nil {
		t.Fatalf("AddChatMessage() failed: %v", err)
	}
	if err := s.ClearChatHistory(ctx); err != nil {
		t.Fatalf("ClearChatHistory() failed: %v", err)
	}

	messages, err := s.ListChatHistory(ctx, 10)
	if err != nil {
		t.Fatalf("ListChatHistory() failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty history, got %d messages", len(messages))
	}
}
