package store

import (
	"context"
	"testing"
)

func testScript(id, slug string) Script {
	return Script{
		ID:       id,
		Slug:     slug,
		Name:     "Flush DNS",
		Category: "network",
		Language: "powershell",
		Code:     "ipconfig /flushdns",
		IsActive: true,
	}
}

func TestUpsertScript_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sc := testScript("s-1", "flush-dns")
	for i := 0; i < 2; i++ {
		if err := s.UpsertScript(ctx, sc); err != nil {
			t.Fatalf("UpsertScript() iteration %d failed: %v", i, err)
		}
	}

	count, err := s.CountActiveScripts(ctx)
	if err != nil {
		t.Fatalf("CountActiveScripts() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d after duplicate upsert, expected 1", count)
	}
}

func TestUpsertScript_ReplacesExistingRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sc := testScript("s-1", "flush-dns")
	if err := s.UpsertScript(ctx, sc); err != nil {
		t.Fatalf("UpsertScript() failed: %v", err)
	}

	sc.Name = "Flush DNS cache"
	sc.Code = "Clear-DnsClientCache"
	if err := s.UpsertScript(ctx, sc); err != nil {
		t.Fatalf("second UpsertScript() failed: %v", err)
	}

	scripts, err := s.ListScripts(ctx)
	if err != nil {
		t.Fatalf("ListScripts() failed: %v", err)
	}
	if len(scripts) != 1 {
		t.Fatalf("got %d scripts, expected 1", len(scripts))
	}
	if scripts[0].Name != "Flush DNS cache" || scripts[0].Code != "Clear-DnsClientCache" {
		t.Errorf("row was not replaced: %+v", scripts[0])
	}
}

func TestListScripts_OrderedByCategoryThenName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []Script{
		{ID: "s-1", Slug: "clean-temp", Name: "Clean temp", Category: "storage", Code: "x", IsActive: true},
		{ID: "s-2", Slug: "flush-dns", Name: "Flush DNS", Category: "network", Code: "x", IsActive: true},
		{ID: "s-3", Slug: "reset-adapter", Name: "Adapter reset", Category: "network", Code: "x", IsActive: true},
	}
	for _, sc := range rows {
		if err := s.UpsertScript(ctx, sc); err != nil {
			t.Fatalf("UpsertScript(%s) failed: %v", sc.Slug, err)
		}
	}

	scripts, err := s.ListScripts(ctx)
	if err != nil {
		t.Fatalf("ListScripts() failed: %v", err)
	}

	want := []string{"reset-adapter", "flush-dns", "clean-temp"}
	if len(scripts) != len(want) {
		t.Fatalf("got %d scripts, expected %d", len(scripts), len(want))
	}
	for i, slug := range want {
		if scripts[i].Slug != slug {
			t.Errorf("scripts[%d].Slug = %q, expected %q", i, scripts[i].Slug, slug)
		}
	}
}

func TestListScripts_FiltersInactive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	active := testScript("s-1", "flush-dns")
	inactive := testScript("s-2", "old-fix")
	inactive.IsActive = false

	if err := s.UpsertScript(ctx, active); err != nil {
		t.Fatalf("UpsertScript() failed: %v", err)
	}
	if err := s.UpsertScript(ctx, inactive); err != nil {
		t.Fatalf("UpsertScript() failed: %v", err)
	}

	scripts, err := s.ListScripts(ctx)
	if err != nil {
		t.Fatalf("ListScripts() failed: %v", err)
	}
	if len(scripts) != 1 || scripts[0].Slug != "flush-dns" {
		t.Errorf("inactive script was not filtered: %+v", scripts)
	}

	count, err := s.CountActiveScripts(ctx)
	if err != nil {
		t.Fatalf("CountActiveScripts() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, expected 1", count)
	}
}

func TestListScriptsByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	network := testScript("s-1", "flush-dns")
	storage := testScript("s-2", "clean-temp")
	storage.Category = "storage"

	if err := s.UpsertScript(ctx, network); err != nil {
		t.Fatalf("UpsertScript() failed: %v", err)
	}
	if err := s.UpsertScript(ctx, storage); err != nil {
		t.Fatalf("UpsertScript() failed: %v", err)
	}

	scripts, err := s.ListScriptsByCategory(ctx, "storage")
	if err != nil {
		t.Fatalf("ListScriptsByCategory() failed: %v", err)
	}
	if len(scripts) != 1 || scripts[0].Slug != "clean-temp" {
		t.Errorf("unexpected category result: %+v", scripts)
	}
}

func TestListScripts_EmptyIsNotError(t *testing.T) {
	s := newTestStore(t)

	scripts, err := s.ListScripts(context.Background())
	if err != nil {
		t.Fatalf("ListScripts() on empty store failed: %v", err)
	}
	if scripts == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(scripts) != 0 {
		t.Errorf("expected no scripts, got %d", len(scripts))
	}
}
