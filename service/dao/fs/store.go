// Package fs provides a generic dao.Service persisting one JSON document per
// record under a base URL through afs.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/crier/service/dao"
)

// Store implements a filesystem-based record storage.
type Store[K ~string, T any] struct {
	basePath    string
	fs          afs.Service
	keySelector func(*T) K
	filter      func(*T, []*dao.Parameter) bool
	onError     func(url string, err error)
	mu          sync.RWMutex
}

// Option customises a Store.
type Option[K ~string, T any] func(*Store[K, T])

// WithFilter sets the predicate List applies to every record.
func WithFilter[K ~string, T any](filter func(*T, []*dao.Parameter) bool) Option[K, T] {
	return func(s *Store[K, T]) { s.filter = filter }
}

// WithErrorHandler receives unreadable documents skipped by List.
func WithErrorHandler[K ~string, T any](fn func(url string, err error)) Option[K, T] {
	return func(s *Store[K, T]) { s.onError = fn }
}

// WithFileSystem overrides the afs service.
func WithFileSystem[K ~string, T any](fs afs.Service) Option[K, T] {
	return func(s *Store[K, T]) { s.fs = fs }
}

// Save persists a record.
func (s *Store[K, T]) Save(ctx context.Context, record *T) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(record)
	if key == "" {
		return dao.ErrInvalidID
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.recordPath(key)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a record or dao.ErrNotFound.
func (s *Store[K, T]) Load(ctx context.Context, key K) (*T, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.recordPath(key)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if record exists: %w", err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", key, err)
	}
	return &record, nil
}

// Delete removes a record.
func (s *Store[K, T]) Delete(ctx context.Context, key K) error {
	if key == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.recordPath(key)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if record exists: %w", err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete record file: %w", err)
	}
	return nil
}

// List returns all readable records accepted by the filter.
func (s *Store[K, T]) List(ctx context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list record files: %w", err)
	}

	var records []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.reportError(object.URL(), err)
			continue
		}
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			s.reportError(object.URL(), err)
			continue
		}
		if s.filter != nil && !s.filter(&record, parameters) {
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}

func (s *Store[K, T]) reportError(URL string, err error) {
	if s.onError != nil {
		s.onError(URL, err)
	}
}

func (s *Store[K, T]) recordPath(key K) string {
	return url.Join(s.basePath, fmt.Sprintf("%s.json", path.Base(string(key))))
}

// New creates a store rooted at basePath, creating the directory when missing.
func New[K ~string, T any](basePath string, keySelector func(*T) K, options ...Option[K, T]) (*Store[K, T], error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	ret := &Store[K, T]{
		basePath:    url.Normalize(basePath, file.Scheme),
		fs:          afs.New(),
		keySelector: keySelector,
	}
	for _, opt := range options {
		opt(ret)
	}

	ctx := context.Background()
	exists, _ := ret.fs.Exists(ctx, ret.basePath)
	if !exists {
		if err := ret.fs.Create(ctx, ret.basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return ret, nil
}
