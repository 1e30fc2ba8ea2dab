package storage

import (
	"context"
	"io"
)

// FileStore persists uploaded files under generated names.
type FileStore interface {
	// Save stores r under name and returns the path recorded against the lesson.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Delete removes a previously saved path. Missing files are not an error.
	Delete(ctx context.Context, path string) error
}
