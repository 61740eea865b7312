// Package storagetest provides an in-process storage.Store for tests.
package storagetest

import (
	"Go_Share/internal/storage"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoSuchUpload = storage.ErrNoSuchUpload
	ErrInvalidPart  = errors.New("invalid part manifest")
)

type session struct {
	key   string
	parts map[int]string
}

// Fake keeps multipart sessions and objects in memory. Completion enforces
// that the manifest lists every uploaded part, numbered contiguously from 1,
// with matching ETags.
type Fake struct {
	mu       sync.Mutex
	sessions map[string]*session
	objects  map[string]int

	// Error hooks, returned by the matching call when set.
	InitErr     error
	CompleteErr error
	AbortErr    error
	PresignErr  error
	RemoveErr   error
	// EmptyUploadID makes InitiateMultipartUpload return "" without error.
	EmptyUploadID bool

	Aborted []string
	Removed []string
}

func New() *Fake {
	return &Fake{
		sessions: make(map[string]*session),
		objects:  make(map[string]int),
	}
}

var _ storage.Store = (*Fake)(nil)

func (f *Fake) InitiateMultipartUpload(_ context.Context, key, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InitErr != nil {
		return "", f.InitErr
	}
	if f.EmptyUploadID {
		return "", nil
	}
	id := uuid.NewString()
	f.sessions[id] = &session{key: key, parts: make(map[int]string)}
	return id, nil
}

func (f *Fake) PresignUploadPart(_ context.Context, key, uploadID string, partNumber int, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PresignErr != nil {
		return "", f.PresignErr
	}
	return fmt.Sprintf("https://fake.local/%s?uploadId=%s&partNumber=%d&ttl=%d", key, uploadID, partNumber, int(ttl.Seconds())), nil
}

// UploadPart simulates a client PUT to a part URL and returns the ETag.
func (f *Fake) UploadPart(uploadID string, partNumber int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[uploadID]
	if !ok {
		return "", ErrNoSuchUpload
	}
	etag := fmt.Sprintf("etag-%d-%s", partNumber, uploadID[:8])
	s.parts[partNumber] = etag
	return etag, nil
}

func (f *Fake) CompleteMultipartUpload(_ context.Context, key, uploadID string, parts []storage.CompletedPart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CompleteErr != nil {
		return f.CompleteErr
	}
	s, ok := f.sessions[uploadID]
	if !ok || s.key != key {
		return ErrNoSuchUpload
	}
	if len(parts) == 0 || len(parts) != len(s.parts) {
		return ErrInvalidPart
	}
	for i, p := range parts {
		if p.PartNumber != i+1 || s.parts[p.PartNumber] != p.ETag {
			return ErrInvalidPart
		}
	}
	delete(f.sessions, uploadID)
	f.objects[key] = len(parts)
	return nil
}

func (f *Fake) AbortMultipartUpload(_ context.Context, _ string, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AbortErr != nil {
		return f.AbortErr
	}
	if _, ok := f.sessions[uploadID]; !ok {
		return ErrNoSuchUpload
	}
	delete(f.sessions, uploadID)
	f.Aborted = append(f.Aborted, uploadID)
	return nil
}

func (f *Fake) PresignGetObject(_ context.Context, key string, ttl time.Duration, params map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PresignErr != nil {
		return "", f.PresignErr
	}
	return fmt.Sprintf("https://fake.local/%s?ttl=%d&type=%s", key, int(ttl.Seconds()), params[storage.ParamContentType]), nil
}

func (f *Fake) RemoveObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	delete(f.objects, key)
	f.Removed = append(f.Removed, key)
	return nil
}

// SetPresignErr sets PresignErr under the lock, for use while calls are in flight.
func (f *Fake) SetPresignErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PresignErr = err
}

// HasObject reports whether a completed object exists under key.
func (f *Fake) HasObject(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// OpenSessions returns the number of multipart sessions not yet completed or aborted.
func (f *Fake) OpenSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}
