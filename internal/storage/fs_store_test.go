package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

func TestFSStoreSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	b := &Bundle{
		Name:    "shop",
		HTML:    []byte("<html><body>v1</body></html>"),
		Website: &model.Website{Site: &model.Site{Title: "Shop"}},
	}
	if err := store.Save(ctx, b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if b.Hash != ContentHash(b.HTML) {
		t.Errorf("Save did not fill hash")
	}

	got, err := store.Load(ctx, "shop")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got.HTML) != string(b.HTML) {
		t.Errorf("Got HTML %q, want %q", got.HTML, b.HTML)
	}
	if got.Website == nil || got.Website.Site.Title != "Shop" {
		t.Errorf("Sidecar not restored: %+v", got.Website)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "shop"+SidecarSuffix)); err != nil {
		t.Errorf("Sidecar file not created: %v", err)
	}
}

func TestFSStoreLoadWithoutSidecar(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "old.html"), []byte("<html></html>"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(context.Background(), "old")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Website != nil {
		t.Errorf("Expected nil website without sidecar")
	}
}

func TestFSStoreNotFound(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	_, err = store.Load(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	exists, err := store.Exists(context.Background(), "missing")
	if err != nil || exists {
		t.Errorf("Exists = %v, %v", exists, err)
	}
}

func TestFSStoreBackups(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	ctx := context.Background()

	for _, body := range []string{"v1", "v1", "v2"} {
		if err := store.Save(ctx, &Bundle{Name: "shop", HTML: []byte(body)}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	backups, err := store.Backups(ctx, "shop")
	if err != nil {
		t.Fatalf("Backups failed: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("Expected 1 backup (identical saves are skipped), got %d", len(backups))
	}
	if !strings.HasSuffix(backups[0], ContentHash([]byte("v1"))[:12]) {
		t.Errorf("Backup id %q does not carry the content hash", backups[0])
	}
}

func TestFSStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	ctx := context.Background()
	for _, name := range []string{"b", "a"} {
		if err := store.Save(ctx, &Bundle{Name: name, HTML: []byte(name), Website: &model.Website{}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if strings.Join(names, ",") != "a,b" {
		t.Errorf("List = %v, want [a b]", names)
	}
}

func TestFSStoreRejectsBadNames(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		if err := store.Save(context.Background(), &Bundle{Name: name}); err == nil {
			t.Errorf("Save(%q) should fail", name)
		}
	}
}

func TestNameFromPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if name, ok := store.NameFromPath(filepath.Join(dir, "shop.html")); !ok || name != "shop" {
		t.Errorf("NameFromPath = %q, %v", name, ok)
	}
	for _, p := range []string{
		filepath.Join(dir, "shop.site.json"),
		filepath.Join(dir, ".shop.html.tmp-1"),
		filepath.Join(dir, ".backups", "shop", "x.html"),
	} {
		if _, ok := store.NameFromPath(p); ok {
			t.Errorf("NameFromPath(%q) should be rejected", p)
		}
	}
}
