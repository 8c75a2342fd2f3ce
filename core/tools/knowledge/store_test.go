package knowledge

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStoreSeedsOnceAndLoadsCatalog(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "schemes.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}
	defer store.Close()

	seeded, err := store.Seed(ctx, DefaultCatalogSource())
	if err != nil {
		t.Fatalf("expected seed to succeed, got %v", err)
	}
	if !seeded {
		t.Fatalf("expected first seed to write the catalog")
	}

	seeded, err = store.Seed(ctx, DefaultCatalogSource())
	if err != nil {
		t.Fatalf("expected reseed to succeed, got %v", err)
	}
	if seeded {
		t.Fatalf("expected unchanged catalog not to be reseeded")
	}

	catalog, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	expected := defaultCatalogForTest(t)
	if len(catalog.Schemes()) != len(expected.Schemes()) {
		t.Fatalf("expected %d schemes, got %d", len(expected.Schemes()), len(catalog.Schemes()))
	}
	for i, scheme := range catalog.Schemes() {
		want := expected.Schemes()[i]
		if scheme.ID != want.ID || scheme.Name != want.Name || len(scheme.Docs) != len(want.Docs) {
			t.Fatalf("expected scheme %+v, got %+v", want, scheme)
		}
	}
}

func TestStoreReseedsWhenSourceChanges(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "schemes.db"))
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}
	defer store.Close()

	if _, err := store.Seed(ctx, DefaultCatalogSource()); err != nil {
		t.Fatalf("expected seed to succeed, got %v", err)
	}

	source := []byte("schemes:\n  - id: only_one\n    name: One\n    docs: [a]\n")
	seeded, err := store.Seed(ctx, source)
	if err != nil || !seeded {
		t.Fatalf("expected changed source to reseed, got %v, %v", seeded, err)
	}

	catalog, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if ids := catalog.IDs(); len(ids) != 1 || ids[0] != "only_one" {
		t.Fatalf("expected only_one, got %v", ids)
	}
}

func TestLoadCatalogWithoutPathUsesEmbeddedCatalog(t *testing.T) {
	catalog, err := LoadCatalog(context.Background(), "")
	if err != nil {
		t.Fatalf("expected embedded catalog, got %v", err)
	}
	if !catalog.Has("kalyana_lakshmi") {
		t.Fatalf("expected kalyana_lakshmi in catalog")
	}
}
