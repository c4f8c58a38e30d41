package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore writes snapshots to a directory as <name>.html with a
// <name>.json metadata file beside it.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store writing into it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory snapshots are written to.
func (s *FileStore) Dir() string { return s.dir }

// Put writes the snapshot. Existing files with the same name are replaced
// atomically.
func (s *FileStore) Put(ctx context.Context, snap *Snapshot) (string, error) {
	if !validName(snap.Name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, snap.Name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, snap.Name+".html")
	if err := writeAtomic(path, snap.HTML); err != nil {
		return "", err
	}

	meta, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	if err := writeAtomic(s.metaPath(snap.Name), append(meta, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// Meta reads the metadata written for name.
func (s *FileStore) Meta(name string) (*Snapshot, error) {
	data, err := os.ReadFile(s.metaPath(name))
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *FileStore) metaPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// writeAtomic writes data to a temporary file and renames it over path.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
