// Package storage manages the upload, processed and log directories.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNotFound = errors.New("file not found")

// Area names one of the managed directories.
type Area string

const (
	Uploads   Area = "uploads"
	Processed Area = "processed"
	Logs      Area = "logs"
)

// FileInfo describes a stored file for listings.
type FileInfo struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SizeMB string `json:"size_mb"`
}

// Store roots the managed directories under a single prefix directory.
type Store struct {
	root string
}

// New creates root/<area> for every area.
func New(root string) (*Store, error) {
	s := &Store{root: root}
	for _, a := range []Area{Uploads, Processed, Logs} {
		if err := os.MkdirAll(s.Dir(a), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", a, err)
		}
	}
	return s, nil
}

// Dir returns the directory for an area.
func (s *Store) Dir(a Area) string {
	return filepath.Join(s.root, string(a))
}

// Path returns the sanitized path of name within an area.
func (s *Store) Path(a Area, name string) string {
	return filepath.Join(s.Dir(a), SafeName(name))
}

// LogPath returns the processing log for an uploaded file.
func (s *Store) LogPath(upload string) string {
	return filepath.Join(s.Dir(Logs), SafeName(upload)+".log")
}

// Exists reports whether name is present in an area.
func (s *Store) Exists(a Area, name string) bool {
	info, err := os.Stat(s.Path(a, name))
	return err == nil && info.Mode().IsRegular()
}

// Save copies r into the area under a sanitized name and returns that name.
func (s *Store) Save(a Area, name string, r io.Reader) (string, error) {
	name = SafeName(name)
	f, err := os.Create(filepath.Join(s.Dir(a), name))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return name, nil
}

// Open opens a stored file for reading.
func (s *Store) Open(a Area, name string) (*os.File, error) {
	f, err := os.Open(s.Path(a, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes a stored file.
func (s *Store) Delete(a Area, name string) error {
	err := os.Remove(s.Path(a, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// List returns the regular files of an area sorted by name.
func (s *Store) List(a Area) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.Dir(a))
	if err != nil {
		return nil, fmt.Errorf("read %s dir: %w", a, err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:   e.Name(),
			Size:   info.Size(),
			SizeMB: fmt.Sprintf("%.2f MB", float64(info.Size())/1024/1024),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// SafeName strips path components and leading dots so a client supplied
// name cannot leave its directory.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimLeft(name, ".")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "/" {
		name = "unnamed"
	}
	return name
}

// HasExt reports whether name ends in one of exts (compared case-insensitively,
// given without the dot).
func HasExt(name string, exts ...string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// BaseName returns name without its final extension.
func BaseName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}
