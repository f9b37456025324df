package store

import (
	"context"
	"testing"
)

func TestSetGetSetting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetSetting(ctx, "language", "fr"); err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}

	value, ok, err := s.GetSetting(ctx, "language")
	if err != nil {
		t.Fatalf("GetSetting() failed: %v", err)
	}
	if !ok || value != "fr" {
		t.Errorf("got (%q, %v), expected (fr, true)", value, ok)
	}

	if err := s.SetSetting(ctx, "language", "en"); err != nil {
		t.Fatalf("SetSetting() overwrite failed: %v", err)
	}
	value, _, err = s.GetSetting(ctx, "language")
	if err != nil {
		t.Fatalf("GetSetting() failed: %v", err)
	}
	if value != "en" {
		t.Errorf("value = %q after overwrite, expected en", value)
	}
}

func TestGetSetting_Missing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetSetting(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetSetting() failed: %v", err)
	}
	if ok {
		t.Error("missing setting should return ok=false")
	}
}

func TestEnsureDeviceToken_StableAcrossCalls(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.EnsureDeviceToken(ctx)
	if err != nil {
		t.Fatalf("EnsureDeviceToken() failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a generated token")
	}

	again, err := s.EnsureDeviceToken(ctx)
	if err != nil {
		t.Fatalf("second EnsureDeviceToken() failed: %v", err)
	}
	if again != token {
		t.Errorf("token changed between calls: %q then %q", token, again)
	}
}
