// Package memory implements an in-memory artifact store for tests.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"appstudio/internal/infra/artifact"
)

type entry struct {
	info artifact.Info
	data []byte
}

// Store keeps artifacts in process memory.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry
}

// New returns an empty in-memory artifact store.
func New() *Store { return &Store{objects: make(map[string]entry)} }

// Driver identifies the backend.
func (s *Store) Driver() artifact.Driver { return artifact.DriverMemory }

// Put stores or overwrites the artifact under key.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts artifact.PutOptions) (artifact.Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return artifact.Info{}, err
	}
	digest := sha256.Sum256(data)
	info := artifact.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(digest[:]),
		Metadata:     artifact.CloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.mu.Lock()
	s.objects[key] = entry{info: info, data: data}
	s.mu.Unlock()
	return info, nil
}

// Get returns the artifact metadata and a reader over a copy of its payload.
func (s *Store) Get(_ context.Context, key string) (artifact.Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return artifact.Info{}, nil, artifact.ErrNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	info := obj.info
	info.Metadata = artifact.CloneMetadata(info.Metadata)
	return info, io.NopCloser(bytes.NewReader(data)), nil
}

// Head returns metadata only.
func (s *Store) Head(_ context.Context, key string) (artifact.Info, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return artifact.Info{}, artifact.ErrNotFound
	}
	info := obj.info
	info.Metadata = artifact.CloneMetadata(info.Metadata)
	return info, nil
}

// Delete removes the artifact, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	delete(s.objects, key)
	return ok, nil
}

// List returns artifacts whose keys match the prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]artifact.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]artifact.Info, 0, len(s.objects))
	for key, obj := range s.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		info := obj.info
		info.Metadata = artifact.CloneMetadata(info.Metadata)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL is unsupported for the memory backend.
func (s *Store) PresignURL(context.Context, string, artifact.SignedURLOptions) (string, error) {
	return "", artifact.ErrUnsupported
}
