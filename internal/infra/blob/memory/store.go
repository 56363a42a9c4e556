// Package memory keeps blob objects in process memory. The console tests and
// the memory driver use it.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"sspdb/internal/blob/core"
)

type object struct {
	info core.Info
	data []byte
}

// Store is safe for concurrent use. Readers get a copy of the content.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{objects: make(map[string]object), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put replaces the content under key.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := object{
		info: core.Info{Key: key, Size: int64(len(b)), ContentType: opts.ContentType, LastModified: s.now()},
		data: b,
	}
	s.objects[key] = obj
	return obj.info, nil
}

// Append extends an existing object.
func (s *Store) Append(_ context.Context, key string, r io.Reader) (core.Info, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return core.Info{}, core.NotFound(key)
	}
	obj.data = append(bytes.Clone(obj.data), b...)
	obj.info.Size = int64(len(obj.data))
	obj.info.LastModified = s.now()
	s.objects[key] = obj
	return obj.info, nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj, ok := s.lookup(key)
	if !ok {
		return core.Info{}, nil, core.NotFound(key)
	}
	return obj.info, io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	obj, ok := s.lookup(key)
	if !ok {
		return core.Info{}, core.NotFound(key)
	}
	return obj.info, nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	delete(s.objects, key)
	return ok, nil
}

func (s *Store) lookup(key string) (object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}
