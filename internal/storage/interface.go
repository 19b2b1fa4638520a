package storage

import (
	"context"
	"io"
)

// Archive stores raw feed snapshots for audit and replay.
type Archive interface {
	// Put uploads a snapshot under the given key.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get downloads a snapshot by key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if a snapshot exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// NoopArchive discards snapshots. Used when archival is disabled.
type NoopArchive struct{}

// Put discards the snapshot.
func (NoopArchive) Put(context.Context, string, []byte, string) error {
	return nil
}

// Get always reports not found.
func (NoopArchive) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, ErrNotFound
}

// Exists always reports false.
func (NoopArchive) Exists(context.Context, string) (bool, error) {
	return false, nil
}
