// Package objectstore provides a NATS JetStream implementation of the
// core.ObjectStore interface. The pipeline uses two buckets: one for
// incoming chapter text, one for generated audio chunks.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
)

// Store is an object store backed by a single JetStream bucket.
type Store struct {
	bucket string
	store  nats.ObjectStore
}

// New binds to the named bucket, creating it if it does not exist yet.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*Store, error) {
	store, err := jetstreamContext.ObjectStore(bucketName)
	if errors.Is(err, nats.ErrBucketNotFound) || errors.Is(err, nats.ErrStreamNotFound) {
		store, err = jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
			Bucket:      bucketName,
			Description: fmt.Sprintf("Narration pipeline storage: %s.", bucketName),
			Storage:     nats.FileStorage,
			Replicas:    1,
		})
	}

	if err != nil {
		return nil, fmt.Errorf(
			"failed to open object store bucket '%s': %w", bucketName, err,
		)
	}

	return &Store{
		bucket: bucketName,
		store:  store,
	}, nil
}

// Download retrieves the object stored under key.
func (s *Store) Download(_ context.Context, key string) ([]byte, error) {
	object, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to get object '%s' from bucket '%s': %w", key, s.bucket, err,
		)
	}

	data, readErr := io.ReadAll(object)
	closeErr := object.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload stores data under key.
func (s *Store) Upload(_ context.Context, key string, data []byte) error {
	_, err := s.store.Put(&nats.ObjectMeta{
		Name: key,
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf(
			"failed to put object '%s' to bucket '%s': %w", key, s.bucket, err,
		)
	}

	return nil
}
