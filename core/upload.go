package core

import (
	"context"
	"io"
)

// FileStore is any service that can persist an uploaded file and hand back a
// public URL for it (local disk, a bucket...).
type FileStore interface {
	// Store saves the content of r under a name derived from filename and
	// returns the public URL of the stored file.
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
}
