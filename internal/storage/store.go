// Package storage persists saved website documents as bundles: the HTML
// document plus a JSON sidecar holding the structured model.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

// File suffixes of a bundle on disk.
const (
	HTMLSuffix    = ".html"
	SidecarSuffix = ".site.json"
)

// DocumentStore loads and saves document bundles by name.
type DocumentStore interface {
	// Load returns the named bundle. Returns ErrNotFound if it doesn't exist.
	// A missing sidecar yields a nil Website.
	Load(ctx context.Context, name string) (*Bundle, error)

	// Save writes the bundle, keeping a backup of the previous HTML when it
	// differs from the new content.
	Save(ctx context.Context, b *Bundle) error

	// Exists checks if a bundle with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns all bundle names in sorted order.
	List(ctx context.Context) ([]string, error)

	// Backups returns the backup ids of a bundle, oldest first.
	Backups(ctx context.Context, name string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Bundle is one saved website.
type Bundle struct {
	// Name identifies the bundle; it is the file name without suffix.
	Name string

	// HTML is the saved document.
	HTML []byte

	// Website is the structured model, nil when none was saved yet.
	Website *model.Website

	// Hash is the content hash (SHA256) of HTML, filled in by the store.
	Hash string

	// ModTime is the modification time of the HTML file.
	ModTime time.Time
}

// ContentHash returns the hex SHA256 of data.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ValidName reports whether name can be used as a bundle name.
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}

// ErrNotFound is returned when a bundle doesn't exist.
type ErrNotFound struct {
	Name string
}

func (e ErrNotFound) Error() string {
	return "document not found: " + e.Name
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}
