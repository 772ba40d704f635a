// Package charclass maintains the controlled vocabulary of character class
// labels as a lazily-populated cache over the backend resource. The cache
// is owned by one invocation's normalization step and passed by handle;
// it is deliberately not a process-wide singleton.
package charclass

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/printprobability/ingest-book/internal/api"
)

// aliases maps punctuation codes that the backend cannot store verbatim to
// canonical class names.
var aliases = map[string]string{
	"":   "space",
	".":  "period",
	";":  "semicolon",
	"/":  "slash",
	"\\": "backslash",
}

// Backend is the slice of the API client the cache needs.
type Backend interface {
	ListCharacterClasses(ctx context.Context) ([]api.CharacterClass, error)
	CreateCharacterClass(ctx context.Context, code string) (*api.CharacterClass, error)
}

// Cache holds the classes known to exist remotely. Normalization runs
// before any concurrent phase, so access is single-writer; any future
// concurrent use must keep the remote check-then-create as the authority,
// never the local map alone.
type Cache struct {
	backend Backend
	known   map[string]string
}

// New creates an empty cache over the given backend.
func New(backend Backend) *Cache {
	return &Cache{
		backend: backend,
		known:   make(map[string]string),
	}
}

// Load primes the cache with every class currently registered remotely.
func (c *Cache) Load(ctx context.Context) error {
	classes, err := c.backend.ListCharacterClasses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load character classes: %w", err)
	}
	for _, class := range classes {
		c.known[class.Classname] = class.Classname
	}
	slog.Info("Character classes loaded", "count", len(c.known))
	return nil
}

// Canonical returns the canonical class name for an OCR code, applying the
// punctuation alias table.
func Canonical(code string) string {
	if alias, ok := aliases[code]; ok {
		return alias
	}
	return code
}

// GetOrCreate resolves an OCR code to its canonical class name, creating
// the backend entity on a miss before caching it. At most one backend
// entity exists per distinct canonical symbol.
func (c *Cache) GetOrCreate(ctx context.Context, code string) (string, error) {
	canonical := Canonical(code)

	if _, ok := c.known[canonical]; ok {
		return canonical, nil
	}

	created, err := c.backend.CreateCharacterClass(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("failed to create character class %q: %w", canonical, err)
	}
	slog.Info("Character class created", "classname", created.Classname)
	c.known[created.Classname] = created.Classname
	return created.Classname, nil
}

// NormalizeAll rewrites the character_class of every record to its
// canonical form, creating missing classes remotely. Must complete before
// the chunked transfer fans out.
func (c *Cache) NormalizeAll(ctx context.Context, characters []api.CharacterRecord) error {
	for _, char := range characters {
		class, err := c.GetOrCreate(ctx, char.Class())
		if err != nil {
			return err
		}
		char.SetClass(class)
	}
	return nil
}

// Size returns the number of classes known to the cache.
func (c *Cache) Size() int {
	return len(c.known)
}
