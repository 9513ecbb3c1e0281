// Package storage keeps uploaded files and the log of processed uploads.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrExists is returned when a stored file would overwrite another.
var ErrExists = errors.New("file already exists")

// Files defines the interface for upload file storage
type Files interface {
	// Save stores data under a timestamp-prefixed name and returns that name
	Save(name string, data []byte, at time.Time) (string, error)
}

// LocalFiles implements Files on the local filesystem
type LocalFiles struct {
	basePath string
}

// NewLocalFiles creates the storage directory if needed
func NewLocalFiles(basePath string) (*LocalFiles, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalFiles{basePath: basePath}, nil
}

// StoredName is the collision-resistant name an upload is kept under:
// the upload time in Unix milliseconds, an underscore and the base name.
func StoredName(name string, at time.Time) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = "upload"
	}
	return strconv.FormatInt(at.UnixMilli(), 10) + "_" + base
}

// Save writes data without ever replacing an existing file
func (l *LocalFiles) Save(name string, data []byte, at time.Time) (string, error) {
	stored := StoredName(name, at)
	f, err := os.OpenFile(filepath.Join(l.basePath, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("storing %s: %w", stored, ErrExists)
		}
		return "", fmt.Errorf("creating file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return stored, nil
}
