// Package blobstore stores uploaded report files. It defines the Store
// interface, a local-disk implementation backed by a configured upload
// directory, and an in-memory implementation for tests.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound    = errors.New("stored file not found")
	ErrMissingFileName = errors.New("file name is required")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
)

// MaxFileSize is the maximum allowed upload size in bytes (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// Store is the contract for report file storage backends. Save returns the
// name the file was stored under, which may differ from the suggested name
// when a file with that name already exists.
type Store interface {
	Save(ctx context.Context, suggestedName string, content io.Reader) (string, error)
	Open(ctx context.Context, storedName string) (io.ReadCloser, error)
	Exists(ctx context.Context, storedName string) (bool, error)
}

// SanitizeFileName strips any directory components from a client-supplied
// file name so it cannot escape the upload directory.
func SanitizeFileName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", ErrMissingFileName
	}
	return name, nil
}

// uniqueName prefixes the sanitized name with a short random token when the
// plain name is taken.
func uniqueName(name string) string {
	return fmt.Sprintf("%s_%s", uuid.New().String()[:8], name)
}

// ---------------------------------------------------------------------------
// Local-disk implementation
// ---------------------------------------------------------------------------

// DiskStore persists files under a single base directory.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the base directory if needed.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) Save(ctx context.Context, suggestedName string, content io.Reader) (string, error) {
	name, err := SanitizeFileName(suggestedName)
	if err != nil {
		return "", err
	}

	// O_EXCL is the collision check: on a taken name, fall back to a
	// uniquified one. No stat beforehand, so two concurrent saves of the
	// same name both land.
	base := name
	var f *os.File
	for {
		f, err = os.OpenFile(filepath.Join(s.baseDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create file: %w", err)
		}
		name = uniqueName(base)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if n > MaxFileSize {
		os.Remove(f.Name())
		return "", ErrFileTooLarge
	}
	return name, nil
}

func (s *DiskStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	name, err := SanitizeFileName(storedName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *DiskStore) Exists(ctx context.Context, storedName string) (bool, error) {
	name, err := SanitizeFileName(storedName)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.baseDir, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// MemoryStore keeps file contents in a map. Used in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, suggestedName string, content io.Reader) (string, error) {
	name, err := SanitizeFileName(suggestedName)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > MaxFileSize {
		return "", ErrFileTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.files[name]; taken {
		name = uniqueName(name)
	}
	s.files[name] = data
	return name, nil
}

func (s *MemoryStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[storedName]
	if !ok {
		return nil, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Exists(ctx context.Context, storedName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[storedName]
	return ok, nil
}
