package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

// ObjectStore is a thread-safe in-memory implementation of ports.ObjectStore.
type ObjectStore struct {
	mu          sync.RWMutex
	objects     map[string]domain.Media
	folders     map[string]bool
	statCalls   int
	uploadCalls int

	// UploadFn overrides Upload when set.
	UploadFn func(ctx context.Context, bucket, folder, file string, data []byte, mimeType string) (string, error)
	// StatFn overrides Stat when set.
	StatFn func(ctx context.Context, bucket, folder, file string) (*domain.Media, error)
	// EnsureFolderFn overrides EnsureFolder when set.
	EnsureFolderFn func(ctx context.Context, bucket, folder string) error
}

// NewObjectStore creates an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		objects: make(map[string]domain.Media),
		folders: make(map[string]bool),
	}
}

func objectPath(bucket, folder, file string) string {
	return bucket + "/" + folder + "/" + file
}

// Stat returns the stored descriptor or nil.
func (o *ObjectStore) Stat(ctx context.Context, bucket, folder, file string) (*domain.Media, error) {
	o.mu.Lock()
	o.statCalls++
	o.mu.Unlock()

	if o.StatFn != nil {
		return o.StatFn(ctx, bucket, folder, file)
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	m, ok := o.objects[objectPath(bucket, folder, file)]
	if !ok {
		return nil, nil
	}

	return &m, nil
}

// EnsureFolder records the folder.
func (o *ObjectStore) EnsureFolder(ctx context.Context, bucket, folder string) error {
	if o.EnsureFolderFn != nil {
		return o.EnsureFolderFn(ctx, bucket, folder)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.folders[bucket+"/"+folder] = true

	return nil
}

// Upload stores the object and returns a synthetic URL.
func (o *ObjectStore) Upload(ctx context.Context, bucket, folder, file string, data []byte, mimeType string) (string, error) {
	o.mu.Lock()
	o.uploadCalls++
	o.mu.Unlock()

	if o.UploadFn != nil {
		return o.UploadFn(ctx, bucket, folder, file, data, mimeType)
	}

	path := objectPath(bucket, folder, file)
	url := "mem://" + path

	o.mu.Lock()
	defer o.mu.Unlock()

	o.objects[path] = domain.Media{URL: url, MimeType: mimeType}

	return url, nil
}

// Put seeds an existing object.
func (o *ObjectStore) Put(bucket, folder, file string, m domain.Media) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.objects[objectPath(bucket, folder, file)] = m
}

// HasFolder reports whether EnsureFolder ran for the folder.
func (o *ObjectStore) HasFolder(bucket, folder string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.folders[bucket+"/"+folder]
}

// UploadCalls returns the number of Upload invocations.
func (o *ObjectStore) UploadCalls() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.uploadCalls
}

// StatCalls returns the number of Stat invocations.
func (o *ObjectStore) StatCalls() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.statCalls
}
