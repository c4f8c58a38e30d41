package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for snapshot names that are empty or not a
// single path element.
var ErrInvalidName = errors.New("snapshot: invalid name")

// ContentType is the media type of snapshot bodies.
const ContentType = "text/html; charset=utf-8"

// Snapshot is a rendered page.
type Snapshot struct {
	// ID uniquely identifies this snapshot.
	ID string `json:"id"`

	// Name is the file name without extension.
	Name string `json:"name"`

	// Root and Generation identify the committed tree that was rendered.
	Root       string `json:"root,omitempty"`
	Generation uint64 `json:"generation,omitempty"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at"`

	// HTML is the rendered markup.
	HTML []byte `json:"-"`
}

// New creates a Snapshot with a fresh ID.
func New(name string, html []byte) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		HTML:      html,
	}
}

// Store persists snapshots.
type Store interface {
	// Put writes s and returns its location.
	Put(ctx context.Context, s *Snapshot) (string, error)
}

// validName reports whether name can be used as a file name.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// NameFor derives a snapshot name from an input file path.
func NameFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
