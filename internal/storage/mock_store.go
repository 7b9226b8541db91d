package storage

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory implementation of DocumentStore for testing.
type MockStore struct {
	mu      sync.RWMutex
	bundles map[string]*Bundle
	backups map[string][]string
	calls   MockCalls
}

// MockCalls tracks method invocations for test verification.
type MockCalls struct {
	Load   int
	Save   int
	Exists int
	List   int
}

// NewMockStore creates a new in-memory document store.
func NewMockStore() *MockStore {
	return &MockStore{
		bundles: make(map[string]*Bundle),
		backups: make(map[string][]string),
	}
}

// Load returns a copy of the named bundle.
func (m *MockStore) Load(ctx context.Context, name string) (*Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Load++

	b, ok := m.bundles[name]
	if !ok {
		return nil, ErrNotFound{Name: name}
	}
	return copyBundle(b), nil
}

// Save stores a copy of the bundle.
func (m *MockStore) Save(ctx context.Context, b *Bundle) error {
	if !ValidName(b.Name) {
		return fmt.Errorf("invalid document name %q", b.Name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Save++

	if prev, ok := m.bundles[b.Name]; ok && !bytes.Equal(prev.HTML, b.HTML) {
		m.backups[b.Name] = append(m.backups[b.Name], prev.Hash)
	}
	b.Hash = ContentHash(b.HTML)
	b.ModTime = time.Now()
	m.bundles[b.Name] = copyBundle(b)
	return nil
}

// Exists checks if a bundle with the given name exists.
func (m *MockStore) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Exists++

	_, ok := m.bundles[name]
	return ok, nil
}

// List returns all bundle names.
func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.List++

	names := make([]string, 0, len(m.bundles))
	for name := range m.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Backups returns the content hashes of replaced versions, oldest first.
func (m *MockStore) Backups(ctx context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.backups[name]), nil
}

// Close releases resources.
func (m *MockStore) Close() error {
	return nil
}

// Calls returns the invocation counters.
func (m *MockStore) Calls() MockCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func copyBundle(b *Bundle) *Bundle {
	out := *b
	out.HTML = bytes.Clone(b.HTML)
	out.Website = b.Website.Clone()
	return &out
}
