package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

// FSStore is a filesystem-based implementation of DocumentStore:
//
//	<base>/
//	  shop.html
//	  shop.site.json
//	  .backups/
//	    shop/
//	      20240101T120000Z-ab12cd34ef56.html
type FSStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFSStore creates a new filesystem-based document store.
func NewFSStore(basePath string) (*FSStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, ".backups"), 0750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", basePath, err)
	}
	return &FSStore{basePath: basePath}, nil
}

// Dir returns the directory holding the bundles.
func (fs *FSStore) Dir() string { return fs.basePath }

// NameFromPath returns the bundle name of an HTML path inside the store, or
// false for any other file.
func (fs *FSStore) NameFromPath(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(fs.basePath) || !strings.HasSuffix(path, HTMLSuffix) {
		return "", false
	}
	name := strings.TrimSuffix(filepath.Base(path), HTMLSuffix)
	return name, ValidName(name)
}

// Load returns the named bundle.
func (fs *FSStore) Load(ctx context.Context, name string) (*Bundle, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("invalid document name %q", name)
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	htmlPath := fs.htmlPath(name)
	// #nosec G304 - htmlPath is built from a validated name
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Name: name}
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	info, err := os.Stat(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}

	b := &Bundle{Name: name, HTML: data, Hash: ContentHash(data), ModTime: info.ModTime()}
	// #nosec G304 - sidecar path is built from a validated name
	sidecar, err := os.ReadFile(fs.sidecarPath(name))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read sidecar: %w", err)
	default:
		var w model.Website
		if err := json.Unmarshal(sidecar, &w); err != nil {
			return nil, fmt.Errorf("unmarshal sidecar: %w", err)
		}
		b.Website = &w
	}
	return b, nil
}

// Save writes the bundle atomically.
func (fs *FSStore) Save(ctx context.Context, b *Bundle) error {
	if !ValidName(b.Name) {
		return fmt.Errorf("invalid document name %q", b.Name)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	htmlPath := fs.htmlPath(b.Name)
	// #nosec G304 - htmlPath is built from a validated name
	if prev, err := os.ReadFile(htmlPath); err == nil && ContentHash(prev) != ContentHash(b.HTML) {
		if err := fs.backupUnlocked(b.Name, prev); err != nil {
			return err
		}
	}
	if err := writeAtomic(htmlPath, b.HTML); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if b.Website != nil {
		data, err := json.MarshalIndent(b.Website, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal sidecar: %w", err)
		}
		if err := writeAtomic(fs.sidecarPath(b.Name), data); err != nil {
			return fmt.Errorf("write sidecar: %w", err)
		}
	}
	b.Hash = ContentHash(b.HTML)
	if info, err := os.Stat(htmlPath); err == nil {
		b.ModTime = info.ModTime()
	}
	return nil
}

// Exists checks if a bundle with the given name exists.
func (fs *FSStore) Exists(ctx context.Context, name string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, err := os.Stat(fs.htmlPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat document: %w", err)
	}
	return true, nil
}

// List returns all bundle names.
func (fs *FSStore) List(ctx context.Context) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.basePath)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), HTMLSuffix) {
			continue
		}
		if name := strings.TrimSuffix(e.Name(), HTMLSuffix); ValidName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Backups returns the backup ids of a bundle, oldest first.
func (fs *FSStore) Backups(ctx context.Context, name string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.backupDir(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), HTMLSuffix) {
			ids = append(ids, strings.TrimSuffix(e.Name(), HTMLSuffix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close releases resources.
func (fs *FSStore) Close() error {
	return nil
}

func (fs *FSStore) backupUnlocked(name string, data []byte) error {
	dir := fs.backupDir(name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	id := time.Now().UTC().Format("20060102T150405.000000000Z") + "-" + ContentHash(data)[:12]
	if err := os.WriteFile(filepath.Join(dir, id+HTMLSuffix), data, 0600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (fs *FSStore) htmlPath(name string) string {
	return filepath.Join(fs.basePath, name+HTMLSuffix)
}

func (fs *FSStore) sidecarPath(name string) string {
	return filepath.Join(fs.basePath, name+SidecarSuffix)
}

func (fs *FSStore) backupDir(name string) string {
	return filepath.Join(fs.basePath, ".backups", name)
}
